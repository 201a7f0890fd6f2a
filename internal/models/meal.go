package models

import (
	"math"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Meal types accepted by the logging endpoints.
const (
	MealTypeBreakfast = "breakfast"
	MealTypeLunch     = "lunch"
	MealTypeDinner    = "dinner"
	MealTypeSnack     = "snack"
)

// Meal provenance values.
const (
	MealSourceManual   = "manual"
	MealSourceScan     = "scan"
	MealSourceQuickAdd = "quick_add"
)

// ValidMealType reports whether t is one of the accepted meal type labels.
func ValidMealType(t string) bool {
	switch t {
	case MealTypeBreakfast, MealTypeLunch, MealTypeDinner, MealTypeSnack:
		return true
	}
	return false
}

// Nutrients is the macro breakdown tracked for every meal and aggregate.
// Values are grams except Calories (kcal) and Sodium (mg).
type Nutrients struct {
	Calories     float64 `json:"calories"`
	Protein      float64 `json:"protein"`
	Carbs        float64 `json:"carbs"`
	Fat          float64 `json:"fat"`
	Fiber        float64 `json:"fiber"`
	Sugar        float64 `json:"sugar"`
	SaturatedFat float64 `json:"saturated_fat"`
	Sodium       float64 `json:"sodium"`
}

// Add returns the field-wise sum of n and other.
func (n Nutrients) Add(other Nutrients) Nutrients {
	return Nutrients{
		Calories:     n.Calories + other.Calories,
		Protein:      n.Protein + other.Protein,
		Carbs:        n.Carbs + other.Carbs,
		Fat:          n.Fat + other.Fat,
		Fiber:        n.Fiber + other.Fiber,
		Sugar:        n.Sugar + other.Sugar,
		SaturatedFat: n.SaturatedFat + other.SaturatedFat,
		Sodium:       n.Sodium + other.Sodium,
	}
}

// Scale returns n with every field multiplied by factor.
func (n Nutrients) Scale(factor float64) Nutrients {
	return Nutrients{
		Calories:     n.Calories * factor,
		Protein:      n.Protein * factor,
		Carbs:        n.Carbs * factor,
		Fat:          n.Fat * factor,
		Fiber:        n.Fiber * factor,
		Sugar:        n.Sugar * factor,
		SaturatedFat: n.SaturatedFat * factor,
		Sodium:       n.Sodium * factor,
	}
}

// Round returns n with every field rounded to two decimal places, the
// precision kept on the wire and in snapshots.
func (n Nutrients) Round() Nutrients {
	round := func(v float64) float64 {
		return math.Round(v*100) / 100
	}
	return Nutrients{
		Calories:     round(n.Calories),
		Protein:      round(n.Protein),
		Carbs:        round(n.Carbs),
		Fat:          round(n.Fat),
		Fiber:        round(n.Fiber),
		Sugar:        round(n.Sugar),
		SaturatedFat: round(n.SaturatedFat),
		Sodium:       round(n.Sodium),
	}
}

// Meal is one logged eating event with its nutrient breakdown snapshotted at
// write time.
type Meal struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"index:idx_meals_user_logged;not null" json:"user_id"`
	User   User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`

	MealType string `gorm:"not null;default:snack" json:"meal_type"`
	FoodName string `gorm:"not null" json:"food_name"`

	Calories     float64 `json:"calories"`
	Protein      float64 `json:"protein"`
	Carbs        float64 `json:"carbs"`
	Fat          float64 `json:"fat"`
	Fiber        float64 `json:"fiber"`
	Sugar        float64 `json:"sugar"`
	SaturatedFat float64 `json:"saturated_fat"`
	Sodium       float64 `json:"sodium"`

	// Micros carries any nutrient outside the fixed macro columns.
	Micros datatypes.JSONMap `gorm:"type:jsonb;default:'{}'" json:"micros"`

	ServingSize string    `gorm:"default:1 serving" json:"serving_size"`
	Quantity    float64   `gorm:"default:1" json:"quantity"`
	ImageURL    string    `json:"image_url,omitempty"`
	Source      string    `gorm:"default:manual" json:"source"`
	LoggedAt    time.Time `gorm:"index:idx_meals_user_logged,sort:desc" json:"logged_at"`

	Items []MealItem `json:"items,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"-"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// NutrientTotals returns the meal's macro columns as a Nutrients value.
func (m *Meal) NutrientTotals() Nutrients {
	return Nutrients{
		Calories:     m.Calories,
		Protein:      m.Protein,
		Carbs:        m.Carbs,
		Fat:          m.Fat,
		Fiber:        m.Fiber,
		Sugar:        m.Sugar,
		SaturatedFat: m.SaturatedFat,
		Sodium:       m.Sodium,
	}
}

// ApplyNutrients copies n into the meal's macro columns.
func (m *Meal) ApplyNutrients(n Nutrients) {
	m.Calories = n.Calories
	m.Protein = n.Protein
	m.Carbs = n.Carbs
	m.Fat = n.Fat
	m.Fiber = n.Fiber
	m.Sugar = n.Sugar
	m.SaturatedFat = n.SaturatedFat
	m.Sodium = n.Sodium
}

// MealItem links a meal to its originating scan session (when any) and
// freezes the nutrients actually applied. The snapshot is computed once at
// creation and never recomputed, so later changes to the source session do
// not rewrite history. SessionID is nulled out if the session is purged.
type MealItem struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	MealID uint `gorm:"index;not null" json:"meal_id"`
	Meal   Meal `gorm:"foreignKey:MealID;constraint:OnDelete:CASCADE" json:"-"`
	UserID uint `gorm:"index;not null" json:"user_id"`

	SessionID *string      `gorm:"type:uuid;index" json:"session_id,omitempty"`
	Session   *ScanSession `gorm:"foreignKey:SessionID;references:SessionID;constraint:OnDelete:SET NULL" json:"-"`

	ItemName          string                        `json:"item_name"`
	Quantity          float64                       `gorm:"default:1" json:"quantity"`
	WeightGrams       float64                       `json:"weight_grams"`
	NutrientsSnapshot datatypes.JSONType[Nutrients] `gorm:"type:jsonb" json:"nutrients_snapshot"`

	CreatedAt time.Time `json:"created_at"`
}
