package repository

import (
	"context"
	"errors"
	"time"

	"freshplate/internal/models"
	"freshplate/internal/observability"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AggregateRepository maintains the per-user, per-day nutrition rollups.
// Apply and Recompute must run inside the same transaction as the meal
// write they reflect, so the aggregate never drifts from its source rows.
type AggregateRepository interface {
	Apply(ctx context.Context, tx *gorm.DB, userID uint, day time.Time, delta models.Nutrients, mealsDelta int) (*models.DailyAggregate, error)
	Recompute(ctx context.Context, tx *gorm.DB, userID uint, day time.Time) (*models.DailyAggregate, error)
	Get(ctx context.Context, userID uint, day time.Time) (*models.DailyAggregate, error)
	Range(ctx context.Context, userID uint, from, to time.Time) ([]models.DailyAggregate, error)
}

type aggregateRepository struct {
	db    *gorm.DB
	meals MealRepository
}

// NewAggregateRepository returns a new AggregateRepository implementation.
func NewAggregateRepository(db *gorm.DB, meals MealRepository) AggregateRepository {
	return &aggregateRepository{db: db, meals: meals}
}

func (r *aggregateRepository) handle(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// truncateToDay buckets an instant into its UTC calendar day. Client
// timestamps can carry any offset; converting first keeps the bucket in
// agreement with the instant-based day windows used when recomputing.
func truncateToDay(day time.Time) time.Time {
	day = day.UTC()
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
}

// lockRow adds FOR UPDATE on engines that support it. SQLite serializes
// writers on its own, so the clause is skipped there.
func lockRow(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "postgres" {
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}

// errAggregateContention is returned when the first-write upsert loop for
// a day's row fails to settle.
var errAggregateContention = errors.New("daily aggregate write did not settle")

// insertIfAbsent creates the day's row, doing nothing when a concurrent
// transaction created it first. FOR UPDATE on an absent row locks nothing,
// so two first writes for a (user, day) can both miss the locked read; the
// conflict clause lets the loser fold into the winner's row on the next
// pass instead of aborting its transaction on the unique index.
func insertIfAbsent(db *gorm.DB, agg *models.DailyAggregate) *gorm.DB {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "day_date"}},
		DoNothing: true,
	}).Create(agg)
}

// Apply folds a nutrient delta and meal-count delta into the day's row,
// creating it on first write. Must be called inside the transaction that
// inserts the meal.
func (r *aggregateRepository) Apply(ctx context.Context, tx *gorm.DB, userID uint, day time.Time, delta models.Nutrients, mealsDelta int) (*models.DailyAggregate, error) {
	db := r.handle(tx).WithContext(ctx)
	day = truncateToDay(day)

	for attempt := 0; attempt < 3; attempt++ {
		var agg models.DailyAggregate
		err := lockRow(db).
			Where("user_id = ? AND day_date = ?", userID, day).
			First(&agg).Error

		switch {
		case err == nil:
			totals := agg.Totals.Data().Add(delta).Round()
			agg.Totals = datatypes.NewJSONType(totals)
			agg.MealsCount += mealsDelta
			if agg.MealsCount < 0 {
				agg.MealsCount = 0
			}
			if err := db.Save(&agg).Error; err != nil {
				return nil, models.NewInternalError(err)
			}
			return &agg, nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, models.NewInternalError(err)
		}

		agg = models.DailyAggregate{
			UserID:     userID,
			DayDate:    day,
			Totals:     datatypes.NewJSONType(delta.Round()),
			MealsCount: mealsDelta,
		}
		if agg.MealsCount < 0 {
			agg.MealsCount = 0
		}
		res := insertIfAbsent(db, &agg)
		if res.Error != nil {
			return nil, models.NewInternalError(res.Error)
		}
		if res.RowsAffected > 0 {
			return &agg, nil
		}
		// Lost the first-write race; the row exists now, reread it locked.
	}
	return nil, models.NewInternalError(errAggregateContention)
}

// Recompute rebuilds the day's row from its meal rows. Used after deletes,
// where subtracting a delta could leave drift if the meal had been edited.
func (r *aggregateRepository) Recompute(ctx context.Context, tx *gorm.DB, userID uint, day time.Time) (*models.DailyAggregate, error) {
	ctx, span := observability.GetTraceLayer().TraceRepositoryMethod(ctx, "Recompute", "daily_aggregates")
	defer span.End()

	db := r.handle(tx).WithContext(ctx)
	day = truncateToDay(day)

	meals, err := r.meals.ListByUserAndDay(ctx, tx, userID, day)
	if err != nil {
		return nil, err
	}

	var totals models.Nutrients
	for i := range meals {
		totals = totals.Add(meals[i].NutrientTotals())
	}
	totals = totals.Round()

	observability.AggregateRecomputes.Inc()

	for attempt := 0; attempt < 3; attempt++ {
		var agg models.DailyAggregate
		err = lockRow(db).
			Where("user_id = ? AND day_date = ?", userID, day).
			First(&agg).Error

		switch {
		case err == nil:
			agg.Totals = datatypes.NewJSONType(totals)
			agg.MealsCount = len(meals)
			if err := db.Save(&agg).Error; err != nil {
				return nil, models.NewInternalError(err)
			}
			return &agg, nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, models.NewInternalError(err)
		}

		agg = models.DailyAggregate{
			UserID:     userID,
			DayDate:    day,
			Totals:     datatypes.NewJSONType(totals),
			MealsCount: len(meals),
		}
		res := insertIfAbsent(db, &agg)
		if res.Error != nil {
			return nil, models.NewInternalError(res.Error)
		}
		if res.RowsAffected > 0 {
			return &agg, nil
		}
	}
	return nil, models.NewInternalError(errAggregateContention)
}

// Get returns the day's aggregate, or nil when the user has no meals that
// day. Callers render the missing row as zero totals, not as an error.
func (r *aggregateRepository) Get(ctx context.Context, userID uint, day time.Time) (*models.DailyAggregate, error) {
	var agg models.DailyAggregate
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND day_date = ?", userID, truncateToDay(day)).
		First(&agg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &agg, nil
}

// Range returns aggregates between from and to inclusive, ordered by day.
// Days with no meals are simply absent from the result.
func (r *aggregateRepository) Range(ctx context.Context, userID uint, from, to time.Time) ([]models.DailyAggregate, error) {
	var aggs []models.DailyAggregate
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND day_date >= ? AND day_date <= ?", userID, truncateToDay(from), truncateToDay(to)).
		Order("day_date ASC").
		Find(&aggs).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return aggs, nil
}
