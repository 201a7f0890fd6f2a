// Package seed provides database seeding utilities for development and
// testing. These helpers are intended for development and testing only.
package seed

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"freshplate/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// foodEntry is a seed food with a per-100g nutrient reference, the same shape
// the vision service returns for real scans.
type foodEntry struct {
	name      string
	category  string
	nutrients models.Nutrients
}

var seedFoods = []foodEntry{
	{"Banana", "fruit", models.Nutrients{Calories: 89, Protein: 1.1, Carbs: 22.8, Fat: 0.3, Fiber: 2.6, Sugar: 12.2, SaturatedFat: 0.1, Sodium: 1}},
	{"Apple", "fruit", models.Nutrients{Calories: 52, Protein: 0.3, Carbs: 13.8, Fat: 0.2, Fiber: 2.4, Sugar: 10.4, SaturatedFat: 0, Sodium: 1}},
	{"Chicken Breast", "meat", models.Nutrients{Calories: 165, Protein: 31, Carbs: 0, Fat: 3.6, Fiber: 0, Sugar: 0, SaturatedFat: 1, Sodium: 74}},
	{"Salmon Fillet", "fish", models.Nutrients{Calories: 208, Protein: 20, Carbs: 0, Fat: 13, Fiber: 0, Sugar: 0, SaturatedFat: 3.1, Sodium: 59}},
	{"Brown Rice", "grain", models.Nutrients{Calories: 112, Protein: 2.6, Carbs: 23.5, Fat: 0.9, Fiber: 1.8, Sugar: 0.4, SaturatedFat: 0.2, Sodium: 5}},
	{"Greek Yogurt", "dairy", models.Nutrients{Calories: 59, Protein: 10, Carbs: 3.6, Fat: 0.4, Fiber: 0, Sugar: 3.2, SaturatedFat: 0.1, Sodium: 36}},
	{"Avocado", "fruit", models.Nutrients{Calories: 160, Protein: 2, Carbs: 8.5, Fat: 14.7, Fiber: 6.7, Sugar: 0.7, SaturatedFat: 2.1, Sodium: 7}},
	{"Broccoli", "vegetable", models.Nutrients{Calories: 34, Protein: 2.8, Carbs: 6.6, Fat: 0.4, Fiber: 2.6, Sugar: 1.7, SaturatedFat: 0, Sodium: 33}},
	{"Whole Wheat Bread", "grain", models.Nutrients{Calories: 247, Protein: 13, Carbs: 41, Fat: 3.4, Fiber: 7, Sugar: 6, SaturatedFat: 0.6, Sodium: 400}},
	{"Eggs", "dairy", models.Nutrients{Calories: 155, Protein: 13, Carbs: 1.1, Fat: 11, Fiber: 0, Sugar: 1.1, SaturatedFat: 3.3, Sodium: 124}},
	{"Oatmeal", "grain", models.Nutrients{Calories: 68, Protein: 2.4, Carbs: 12, Fat: 1.4, Fiber: 1.7, Sugar: 0.5, SaturatedFat: 0.2, Sodium: 49}},
	{"Spinach", "vegetable", models.Nutrients{Calories: 23, Protein: 2.9, Carbs: 3.6, Fat: 0.4, Fiber: 2.2, Sugar: 0.4, SaturatedFat: 0.1, Sodium: 79}},
}

var freshnessLevels = []string{"Fresh", "Good", "Fair", "Stale"}

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by the seeder and tests.
type Factory struct {
	db *gorm.DB
	r  *rand.Rand
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	//nolint:gosec // Weak random number generator is fine for seeding
	return &Factory{db: db, r: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// CreateUser persists a user with a known password ("password123") so seeded
// accounts can be logged into during development.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	hashed, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	user := &models.User{
		Email:      gofakeit.Email(),
		Password:   string(hashed),
		FirstName:  gofakeit.FirstName(),
		LastName:   gofakeit.LastName(),
		GuidesSeen: datatypes.JSON([]byte(`[]`)),
	}
	for _, override := range overrides {
		override(user)
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// CreateHealthProfile persists a randomized questionnaire for the user.
func (f *Factory) CreateHealthProfile(user *models.User) (*models.HealthProfile, error) {
	age := f.r.Intn(50) + 18
	height := 150.0 + f.r.Float64()*45
	weight := 50.0 + f.r.Float64()*60
	water := 1.0 + f.r.Float64()*2.5

	profile := &models.HealthProfile{
		UserID:                 user.ID,
		Age:                    &age,
		Gender:                 []string{"male", "female", "other"}[f.r.Intn(3)],
		HeightCM:               &height,
		WeightKG:               &weight,
		HasDiabetes:            f.r.Intn(10) == 0,
		HasBloodPressureIssues: f.r.Intn(8) == 0,
		HasHeartIssues:         f.r.Intn(12) == 0,
		HasGutIssues:           f.r.Intn(10) == 0,
		Allergies: datatypes.JSONMap{
			"nuts":  f.r.Intn(10) == 0,
			"dairy": f.r.Intn(10) == 0,
		},
		IsSmoker:               f.r.Intn(6) == 0,
		IsDrinker:              f.r.Intn(3) == 0,
		ActivityLevel:          []string{"sedentary", "light", "moderate", "active"}[f.r.Intn(4)],
		SleepQuality:           []string{"poor", "fair", "good"}[f.r.Intn(3)],
		DailyWaterIntakeLiters: &water,
		EatingHabits: datatypes.JSONMap{
			"meals_per_day": float64(f.r.Intn(3) + 2),
			"skips_breakfast": f.r.Intn(4) == 0,
		},
		Goals: datatypes.JSONMap{
			"primary": []string{"lose_weight", "gain_muscle", "maintain", "eat_healthier"}[f.r.Intn(4)],
		},
	}
	if err := f.db.Create(profile).Error; err != nil {
		return nil, fmt.Errorf("failed to create health profile: %w", err)
	}
	return profile, nil
}

// CreateScanSession persists a completed scan with a plausible analysis
// payload and its history entry, mirroring what a real scan writes.
func (f *Factory) CreateScanSession(user *models.User, overrides ...func(*models.ScanSession)) (*models.ScanSession, error) {
	food := seedFoods[f.r.Intn(len(seedFoods))]
	score := 50 + f.r.Float64()*50
	analyzedAt := f.pastTime(14)

	session := &models.ScanSession{
		SessionID: uuid.NewString(),
		UserID:    user.ID,
		FoodName:  food.name,
		Category:  food.category,
		Freshness: datatypes.JSONMap{
			"level": freshnessLevels[f.r.Intn(len(freshnessLevels))],
			"score": score,
		},
		Nutrition:                  nutritionList(food.nutrients),
		StorageRecommendations:     mustJSON([]map[string]any{{"method": "refrigerate", "duration_days": float64(f.r.Intn(7) + 1)}}),
		ConsumptionRecommendations: mustJSON(map[string]any{"advice": gofakeit.Sentence(8)}),
		HealthRiskFactors:          mustJSON([]map[string]any{}),
		ImageURL:                   fmt.Sprintf("https://picsum.photos/seed/%s/400/400", uuid.NewString()[:8]),
		Status:                     models.ScanStatusCompleted,
		AnalyzedAt:                 analyzedAt,
	}
	for _, override := range overrides {
		override(session)
	}
	if err := f.db.Create(session).Error; err != nil {
		return nil, fmt.Errorf("failed to create scan session: %w", err)
	}

	entry := &models.ScanHistoryEntry{
		UserID:         user.ID,
		SessionID:      session.SessionID,
		FoodName:       session.FoodName,
		Category:       session.Category,
		FreshnessScore: score,
		ImageURL:       session.ImageURL,
		AnalyzedAt:     session.AnalyzedAt,
	}
	if err := f.db.Create(entry).Error; err != nil {
		return nil, fmt.Errorf("failed to create scan history entry: %w", err)
	}
	return session, nil
}

// CreateMeal persists a manually-logged meal with nutrients scaled from a
// random seed food.
func (f *Factory) CreateMeal(user *models.User, overrides ...func(*models.Meal)) (*models.Meal, error) {
	food := seedFoods[f.r.Intn(len(seedFoods))]
	quantity := float64(f.r.Intn(2) + 1)
	weight := 50.0 + f.r.Float64()*250

	meal := &models.Meal{
		UserID:   user.ID,
		MealType: []string{models.MealTypeBreakfast, models.MealTypeLunch, models.MealTypeDinner, models.MealTypeSnack}[f.r.Intn(4)],
		FoodName: food.name,
		Quantity: quantity,
		Source:   models.MealSourceManual,
		LoggedAt: f.pastTime(14),
	}
	meal.ApplyNutrients(food.nutrients.Scale(quantity * weight / 100).Round())
	for _, override := range overrides {
		override(meal)
	}
	if err := f.db.Create(meal).Error; err != nil {
		return nil, fmt.Errorf("failed to create meal: %w", err)
	}
	return meal, nil
}

// CreateGoal persists a nutrition goal effective from daysAgo days back.
func (f *Factory) CreateGoal(user *models.User, daysAgo int) (*models.NutritionGoal, error) {
	daily := models.Nutrients{
		Calories: float64(1800 + f.r.Intn(800)),
		Protein:  float64(60 + f.r.Intn(80)),
		Carbs:    float64(180 + f.r.Intn(120)),
		Fat:      float64(50 + f.r.Intn(40)),
		Fiber:    float64(25 + f.r.Intn(10)),
		Sugar:    float64(25 + f.r.Intn(25)),
		Sodium:   float64(1500 + f.r.Intn(800)),
	}
	effectiveFrom := time.Now().UTC().AddDate(0, 0, -daysAgo).Truncate(24 * time.Hour)
	goal := models.NewNutritionGoal(user.ID, daily, "Seeded baseline targets.", effectiveFrom)
	if err := f.db.Create(goal).Error; err != nil {
		return nil, fmt.Errorf("failed to create goal: %w", err)
	}
	return goal, nil
}

// pastTime returns a timestamp spread over the last maxDays days.
func (f *Factory) pastTime(maxDays int) time.Time {
	daysBack := f.r.Intn(maxDays)
	hoursBack := f.r.Intn(24)
	minsBack := f.r.Intn(60)
	return time.Now().UTC().
		Add(-time.Duration(daysBack)*24*time.Hour -
			time.Duration(hoursBack)*time.Hour -
			time.Duration(minsBack)*time.Minute)
}

// nutritionList renders nutrients as the classifier's list-of-entries shape.
func nutritionList(n models.Nutrients) datatypes.JSON {
	entries := []map[string]any{
		{"name": "Calories", "value": n.Calories, "unit": "kcal"},
		{"name": "Protein", "value": n.Protein, "unit": "g"},
		{"name": "Carbohydrates", "value": n.Carbs, "unit": "g"},
		{"name": "Fat", "value": n.Fat, "unit": "g"},
		{"name": "Saturated Fat", "value": n.SaturatedFat, "unit": "g"},
		{"name": "Fiber", "value": n.Fiber, "unit": "g"},
		{"name": "Sugar", "value": n.Sugar, "unit": "g"},
		{"name": "Sodium", "value": n.Sodium, "unit": "mg"},
	}
	return mustJSON(entries)
}

func mustJSON(v any) datatypes.JSON {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return datatypes.JSON(raw)
}
