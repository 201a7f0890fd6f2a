package nutrition

import (
	"math"
	"strings"

	"freshplate/internal/models"
)

// Defaults used when a profile field is unset, matching the assumptions the
// advice service makes for sparse profiles.
const (
	defaultWeightKG = 70.0
	defaultHeightCM = 170.0
	defaultAge      = 30
)

// BMI returns the body mass index for the given measurements, rounded to one
// decimal. Non-positive inputs yield zero.
func BMI(weightKG, heightCM float64) float64 {
	if weightKG <= 0 || heightCM <= 0 {
		return 0
	}
	heightM := heightCM / 100
	return math.Round(weightKG/(heightM*heightM)*10) / 10
}

// BMICategory buckets a BMI value into the standard bands.
func BMICategory(bmi float64) string {
	switch {
	case bmi < 18.5:
		return "underweight"
	case bmi < 25:
		return "normal"
	case bmi < 30:
		return "overweight"
	default:
		return "obese"
	}
}

// HealthyWeightRange returns the weight band in kg spanning BMI 18.5-24.9
// for the given height.
func HealthyWeightRange(heightCM float64) (minKG, maxKG float64) {
	if heightCM <= 0 {
		return 0, 0
	}
	heightM := heightCM / 100
	minKG = math.Round(18.5*heightM*heightM*10) / 10
	maxKG = math.Round(24.9*heightM*heightM*10) / 10
	return minKG, maxKG
}

// BMR returns the basal metabolic rate in kcal/day using the Mifflin-St
// Jeor equation. Gender values other than male or female get the midpoint
// adjustment.
func BMR(weightKG, heightCM float64, age int, gender string) float64 {
	if weightKG <= 0 || heightCM <= 0 || age <= 0 {
		return 0
	}
	base := 10*weightKG + 6.25*heightCM - 5*float64(age)
	switch strings.ToLower(gender) {
	case "male", "m":
		return base + 5
	case "female", "f":
		return base - 161
	default:
		return base - 78
	}
}

// TDEE scales a BMR by the activity-level multiplier. Unknown levels count
// as moderate.
func TDEE(bmr float64, activityLevel string) float64 {
	multipliers := map[string]float64{
		"sedentary":         1.2,
		"light":             1.375,
		"lightly_active":    1.375,
		"moderate":          1.55,
		"moderately_active": 1.55,
		"active":            1.725,
		"very_active":       1.9,
		"extra_active":      1.9,
	}
	mult, ok := multipliers[strings.ToLower(activityLevel)]
	if !ok {
		mult = 1.55
	}
	return bmr * mult
}

// DefaultDailyGoal computes daily nutrition targets from a health profile:
// calories at TDEE, a 20/50/30 protein/carb/fat calorie split, and a fiber
// target by gender. A nil profile, or one without body measurements, falls
// back to a generic 2000-kcal target.
func DefaultDailyGoal(profile *models.HealthProfile) models.Nutrients {
	if profile == nil {
		return models.Nutrients{Calories: 2000, Protein: 50, Carbs: 250, Fat: 65, Fiber: 25}
	}

	weight, height := defaultWeightKG, defaultHeightCM
	age := defaultAge
	if profile.WeightKG != nil && *profile.WeightKG > 0 {
		weight = *profile.WeightKG
	}
	if profile.HeightCM != nil && *profile.HeightCM > 0 {
		height = *profile.HeightCM
	}
	if profile.Age != nil && *profile.Age > 0 {
		age = *profile.Age
	}

	gender := profile.Gender
	if gender == "" {
		gender = "male"
	}
	tdee := math.Round(TDEE(BMR(weight, height, age, gender), profile.ActivityLevel))

	// Protein and carbs are 4 kcal/g, fat is 9 kcal/g.
	fiber := 25.0
	if g := strings.ToLower(gender); g == "male" || g == "m" {
		fiber = 30
	}
	return models.Nutrients{
		Calories: tdee,
		Protein:  math.Round(tdee * 0.2 / 4),
		Carbs:    math.Round(tdee * 0.5 / 4),
		Fat:      math.Round(tdee * 0.3 / 9),
		Fiber:    fiber,
	}
}
