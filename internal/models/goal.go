package models

import (
	"time"

	"gorm.io/datatypes"
)

// Goal period labels.
const (
	GoalPeriodDaily   = "daily"
	GoalPeriodWeekly  = "weekly"
	GoalPeriodMonthly = "monthly"
	GoalPeriodYearly  = "yearly"
)

// Multipliers applied to daily values when a goal version is saved.
const (
	weeklyGoalFactor  = 7
	monthlyGoalFactor = 30
	yearlyGoalFactor  = 365
)

// NutritionGoal is one version of a user's personalized targets. Rows are
// append-only: saving new targets inserts a new row with effective_from set to
// the current date, and the latest row with effective_from <= the query date
// wins. Historical goals stay queryable for past dates.
type NutritionGoal struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"index:idx_goals_user_effective;not null" json:"user_id"`
	User   User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`

	Daily   datatypes.JSONType[Nutrients] `gorm:"type:jsonb" json:"daily"`
	Weekly  datatypes.JSONType[Nutrients] `gorm:"type:jsonb" json:"weekly"`
	Monthly datatypes.JSONType[Nutrients] `gorm:"type:jsonb" json:"monthly"`
	Yearly  datatypes.JSONType[Nutrients] `gorm:"type:jsonb" json:"yearly"`

	Reasoning     string    `json:"reasoning"`
	EffectiveFrom time.Time `gorm:"type:date;index:idx_goals_user_effective,sort:desc;not null" json:"effective_from"`

	CreatedAt time.Time `json:"created_at"`
}

// NewNutritionGoal derives all timeframes from daily targets.
func NewNutritionGoal(userID uint, daily Nutrients, reasoning string, effectiveFrom time.Time) *NutritionGoal {
	return &NutritionGoal{
		UserID:        userID,
		Daily:         datatypes.NewJSONType(daily),
		Weekly:        datatypes.NewJSONType(daily.Scale(weeklyGoalFactor)),
		Monthly:       datatypes.NewJSONType(daily.Scale(monthlyGoalFactor)),
		Yearly:        datatypes.NewJSONType(daily.Scale(yearlyGoalFactor)),
		Reasoning:     reasoning,
		EffectiveFrom: effectiveFrom,
	}
}

// ForPeriod returns the targets for the requested period label, defaulting to
// daily for unknown labels.
func (g *NutritionGoal) ForPeriod(period string) Nutrients {
	switch period {
	case GoalPeriodWeekly:
		return g.Weekly.Data()
	case GoalPeriodMonthly:
		return g.Monthly.Data()
	case GoalPeriodYearly:
		return g.Yearly.Data()
	default:
		return g.Daily.Data()
	}
}
