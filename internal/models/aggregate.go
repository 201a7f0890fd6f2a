package models

import (
	"time"

	"gorm.io/datatypes"
)

// DayDateFormat is the wire format for aggregate day keys.
const DayDateFormat = "2006-01-02"

// DailyAggregate is the precomputed per-user, per-calendar-day rollup of
// nutrient totals and meal count. Invariant: the row always equals the sum of
// that day's meals; it is adjusted inside the same transaction as every meal
// insert and recomputed from source on delete.
type DailyAggregate struct {
	ID      uint      `gorm:"primaryKey" json:"-"`
	UserID  uint      `gorm:"uniqueIndex:idx_aggregates_user_day;not null" json:"user_id"`
	User    User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	DayDate time.Time `gorm:"type:date;uniqueIndex:idx_aggregates_user_day;not null" json:"-"`

	Totals     datatypes.JSONType[Nutrients] `gorm:"type:jsonb" json:"totals"`
	MealsCount int                           `gorm:"default:0" json:"meals_count"`

	UpdatedAt time.Time `json:"updated_at"`
}

// DailyAggregateView is the wire shape for a single day's rollup.
type DailyAggregateView struct {
	DayDate    string    `json:"day_date"`
	Totals     Nutrients `json:"totals"`
	MealsCount int       `json:"meals_count"`
}

// View converts the stored row to its wire shape.
func (a *DailyAggregate) View() DailyAggregateView {
	return DailyAggregateView{
		DayDate:    a.DayDate.Format(DayDateFormat),
		Totals:     a.Totals.Data(),
		MealsCount: a.MealsCount,
	}
}

// EmptyAggregateView returns the zeroed rollup for a day with no meals.
// Missing days are reported as zeroes, never as an error.
func EmptyAggregateView(day time.Time) DailyAggregateView {
	return DailyAggregateView{DayDate: day.Format(DayDateFormat)}
}
