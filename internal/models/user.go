// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User represents a registered account. All domain entities hang off a user
// via foreign keys with cascade delete, so removing a user removes their
// scans, meals, aggregates, goals, saved items, and insights.
type User struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	Email      string         `gorm:"uniqueIndex;not null" json:"email"`
	Password   string         `gorm:"not null" json:"-"`
	FirstName  string         `json:"first_name"`
	LastName   string         `json:"last_name"`
	GuidesSeen datatypes.JSON `gorm:"type:jsonb;default:'[]'" json:"guides_seen"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// HealthProfile is the one-to-one health questionnaire for a user. The
// open-ended attribute groups (allergies, eating habits, goals) are JSONB maps
// validated at the API boundary rather than fixed columns, so new attributes
// don't need a migration.
type HealthProfile struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"uniqueIndex;not null" json:"user_id"`
	User   User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`

	Age      *int     `json:"age,omitempty"`
	Gender   string   `json:"gender,omitempty"`
	HeightCM *float64 `json:"height_cm,omitempty"`
	WeightKG *float64 `json:"weight_kg,omitempty"`

	HasDiabetes            bool   `json:"has_diabetes"`
	HasBloodPressureIssues bool   `json:"has_blood_pressure_issues"`
	HasHeartIssues         bool   `json:"has_heart_issues"`
	HasGutIssues           bool   `json:"has_gut_issues"`
	OtherChronicDiseases   string `json:"other_chronic_diseases,omitempty"`

	Allergies datatypes.JSONMap `gorm:"type:jsonb;default:'{}'" json:"allergies"`

	IsSmoker               bool     `json:"is_smoker"`
	IsDrinker              bool     `json:"is_drinker"`
	DrinkingFrequency      string   `json:"drinking_frequency,omitempty"`
	ActivityLevel          string   `json:"activity_level,omitempty"`
	SleepQuality           string   `json:"sleep_quality,omitempty"`
	DailyWaterIntakeLiters *float64 `json:"daily_water_intake_liters,omitempty"`

	EatingHabits datatypes.JSONMap `gorm:"type:jsonb;default:'{}'" json:"eating_habits"`
	Goals        datatypes.JSONMap `gorm:"type:jsonb;default:'{}'" json:"goals"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
