package nutrition

import (
	"testing"

	"freshplate/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestBMI(t *testing.T) {
	assert.InDelta(t, 24.7, BMI(80, 180), 0.001)
	assert.InDelta(t, 0, BMI(0, 180), 0.001)
	assert.InDelta(t, 0, BMI(80, 0), 0.001)

	assert.Equal(t, "underweight", BMICategory(17.0))
	assert.Equal(t, "normal", BMICategory(22.0))
	assert.Equal(t, "overweight", BMICategory(27.5))
	assert.Equal(t, "obese", BMICategory(31.0))

	minKG, maxKG := HealthyWeightRange(180)
	assert.InDelta(t, 59.9, minKG, 0.001)
	assert.InDelta(t, 80.7, maxKG, 0.001)
}

func TestBMRMifflinStJeor(t *testing.T) {
	// 10*70 + 6.25*170 - 5*30 = 1612.5
	assert.InDelta(t, 1617.5, BMR(70, 170, 30, "male"), 0.001)
	assert.InDelta(t, 1451.5, BMR(70, 170, 30, "female"), 0.001)
	assert.InDelta(t, 1534.5, BMR(70, 170, 30, "other"), 0.001)
	assert.InDelta(t, 0, BMR(70, 170, 0, "male"), 0.001)
}

func TestTDEEActivityMultipliers(t *testing.T) {
	assert.InDelta(t, 1200, TDEE(1000, "sedentary"), 0.001)
	assert.InDelta(t, 1375, TDEE(1000, "lightly_active"), 0.001)
	assert.InDelta(t, 1725, TDEE(1000, "active"), 0.001)
	assert.InDelta(t, 1900, TDEE(1000, "very_active"), 0.001)
	// unknown levels count as moderate
	assert.InDelta(t, 1550, TDEE(1000, "weekend warrior"), 0.001)
}

func TestDefaultDailyGoal(t *testing.T) {
	assert.Equal(t,
		models.Nutrients{Calories: 2000, Protein: 50, Carbs: 250, Fat: 65, Fiber: 25},
		DefaultDailyGoal(nil))

	// sparse profile falls back to the generic assumptions per field
	sparse := DefaultDailyGoal(&models.HealthProfile{})
	// BMR 1617.5 (70kg/170cm/30y male), TDEE *1.55 = 2507
	assert.InDelta(t, 2507, sparse.Calories, 0.001)
	assert.InDelta(t, 125, sparse.Protein, 0.001)
	assert.InDelta(t, 313, sparse.Carbs, 0.001)
	assert.InDelta(t, 84, sparse.Fat, 0.001)
	assert.InDelta(t, 30, sparse.Fiber, 0.001)

	age, height, weight := 40, 180.0, 80.0
	full := DefaultDailyGoal(&models.HealthProfile{
		Age:           &age,
		HeightCM:      &height,
		WeightKG:      &weight,
		Gender:        "female",
		ActivityLevel: "active",
	})
	assert.InDelta(t, 2698, full.Calories, 0.001)
	assert.InDelta(t, 25, full.Fiber, 0.001)
}
