package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"freshplate/internal/cache"
	"freshplate/internal/models"
	"freshplate/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type mealFixture struct {
	db      *gorm.DB
	scans   repository.ScanRepository
	service *MealService
	userID  uint
	otherID uint
}

func newMealFixture(t *testing.T) *mealFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.ScanSession{},
		&models.Meal{},
		&models.MealItem{},
		&models.DailyAggregate{},
	))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	owner := &models.User{Email: "owner@example.com", Password: "x"}
	require.NoError(t, db.Create(owner).Error)
	other := &models.User{Email: "other@example.com", Password: "x"}
	require.NoError(t, db.Create(other).Error)

	meals := repository.NewMealRepository(db)
	aggs := repository.NewAggregateRepository(db, meals)
	scans := repository.NewScanRepository(db)

	return &mealFixture{
		db:      db,
		scans:   scans,
		service: NewMealService(db, meals, aggs, scans),
		userID:  owner.ID,
		otherID: other.ID,
	}
}

// createScan stores a completed session with a per-100g banana profile.
func (f *mealFixture) createScan(t *testing.T, userID uint) *models.ScanSession {
	t.Helper()
	session := &models.ScanSession{
		SessionID: uuid.NewString(),
		UserID:    userID,
		FoodName:  "Banana",
		Nutrition: datatypes.JSON([]byte(`[
			{"name": "Calories", "value": 78, "unit": "kcal"},
			{"name": "Protein", "value": 1.1, "unit": "g"},
			{"name": "Carbohydrates", "value": 17.5, "unit": "g"}
		]`)),
		Status:     models.ScanStatusCompleted,
		AnalyzedAt: time.Now().UTC(),
	}
	require.NoError(t, f.scans.CreateSession(context.Background(), session))
	return session
}

func TestLogMealUpdatesDailyTotals(t *testing.T) {
	f := newMealFixture(t)
	ctx := context.Background()
	loggedAt := time.Date(2026, 8, 20, 8, 30, 0, 0, time.UTC)

	result, err := f.service.LogMeal(ctx, LogMealInput{
		UserID:    f.userID,
		MealType:  models.MealTypeBreakfast,
		FoodName:  "Oatmeal",
		Nutrients: models.Nutrients{Calories: 320, Protein: 12},
		LoggedAt:  loggedAt,
	})
	require.NoError(t, err)
	assert.Equal(t, models.MealSourceManual, result.Meal.Source)
	assert.InDelta(t, 320, result.DailyTotals.Totals.Calories, 0.001)
	assert.Equal(t, 1, result.DailyTotals.MealsCount)

	// second meal the same day accumulates
	result, err = f.service.LogMeal(ctx, LogMealInput{
		UserID:    f.userID,
		MealType:  models.MealTypeLunch,
		FoodName:  "Salad",
		Nutrients: models.Nutrients{Calories: 450, Protein: 8},
		LoggedAt:  loggedAt.Add(4 * time.Hour),
	})
	require.NoError(t, err)
	assert.InDelta(t, 770, result.DailyTotals.Totals.Calories, 0.001)
	assert.InDelta(t, 20, result.DailyTotals.Totals.Protein, 0.001)
	assert.Equal(t, 2, result.DailyTotals.MealsCount)
}

func TestLogMealValidation(t *testing.T) {
	f := newMealFixture(t)
	ctx := context.Background()

	_, err := f.service.LogMeal(ctx, LogMealInput{UserID: f.userID, FoodName: "   "})
	requireAppError(t, err, "VALIDATION_ERROR")

	_, err = f.service.LogMeal(ctx, LogMealInput{UserID: f.userID, FoodName: "X", MealType: "brunch"})
	requireAppError(t, err, "VALIDATION_ERROR")

	_, err = f.service.LogMeal(ctx, LogMealInput{UserID: f.userID, FoodName: "X", Quantity: -1})
	requireAppError(t, err, "VALIDATION_ERROR")
}

func TestAddScanToMealScalesFromReference(t *testing.T) {
	f := newMealFixture(t)
	ctx := context.Background()
	session := f.createScan(t, f.userID)
	loggedAt := time.Date(2026, 8, 21, 13, 0, 0, 0, time.UTC)

	result, err := f.service.AddScanToMeal(ctx, AddScanToMealInput{
		UserID:      f.userID,
		SessionID:   session.SessionID,
		MealType:    models.MealTypeLunch,
		Quantity:    2,
		WeightGrams: 150,
		LoggedAt:    loggedAt,
	})
	require.NoError(t, err)

	// 78 kcal per 100g * 2 * 150/100 = 234
	assert.InDelta(t, 234, result.ScaledNutrients.Calories, 0.001)
	assert.InDelta(t, 3.3, result.ScaledNutrients.Protein, 0.001)
	assert.InDelta(t, 52.5, result.ScaledNutrients.Carbs, 0.001)
	assert.InDelta(t, 234, result.DailyTotals.Totals.Calories, 0.001)

	// the session is flagged and the snapshot frozen on the item
	got, err := f.scans.GetSession(ctx, session.SessionID)
	require.NoError(t, err)
	assert.True(t, got.AddedToMeal)

	var item models.MealItem
	require.NoError(t, f.db.First(&item, result.MealItemID).Error)
	assert.InDelta(t, 234, item.NutrientsSnapshot.Data().Calories, 0.001)
	require.NotNil(t, item.SessionID)
	assert.Equal(t, session.SessionID, *item.SessionID)
}

func TestAddScanToMealDefaults(t *testing.T) {
	f := newMealFixture(t)
	ctx := context.Background()
	session := f.createScan(t, f.userID)

	// zero quantity and weight fall back to one reference serving
	result, err := f.service.AddScanToMeal(ctx, AddScanToMealInput{
		UserID:    f.userID,
		SessionID: session.SessionID,
	})
	require.NoError(t, err)
	assert.InDelta(t, 78, result.ScaledNutrients.Calories, 0.001)
}

func TestAddScanToMealUnknownSession(t *testing.T) {
	f := newMealFixture(t)

	_, err := f.service.AddScanToMeal(context.Background(), AddScanToMealInput{
		UserID:    f.userID,
		SessionID: uuid.NewString(),
	})
	requireAppError(t, err, "NOT_FOUND")
}

func TestAddScanToMealForeignSession(t *testing.T) {
	f := newMealFixture(t)
	session := f.createScan(t, f.otherID)

	_, err := f.service.AddScanToMeal(context.Background(), AddScanToMealInput{
		UserID:    f.userID,
		SessionID: session.SessionID,
	})
	requireAppError(t, err, "FORBIDDEN")
}

func TestAddScanToMealTwiceIsCumulative(t *testing.T) {
	f := newMealFixture(t)
	ctx := context.Background()
	session := f.createScan(t, f.userID)
	loggedAt := time.Date(2026, 8, 22, 9, 0, 0, 0, time.UTC)

	first, err := f.service.AddScanToMeal(ctx, AddScanToMealInput{
		UserID: f.userID, SessionID: session.SessionID, LoggedAt: loggedAt,
	})
	require.NoError(t, err)
	second, err := f.service.AddScanToMeal(ctx, AddScanToMealInput{
		UserID: f.userID, SessionID: session.SessionID, LoggedAt: loggedAt.Add(time.Hour),
	})
	require.NoError(t, err)

	// distinct meals and items, totals stack
	assert.NotEqual(t, first.MealID, second.MealID)
	assert.NotEqual(t, first.MealItemID, second.MealItemID)
	assert.InDelta(t, 156, second.DailyTotals.Totals.Calories, 0.001)
	assert.Equal(t, 2, second.DailyTotals.MealsCount)

	var itemCount int64
	require.NoError(t, f.db.Model(&models.MealItem{}).
		Where("session_id = ?", session.SessionID).Count(&itemCount).Error)
	assert.EqualValues(t, 2, itemCount)
}

func TestDeleteMealRecomputesAggregate(t *testing.T) {
	f := newMealFixture(t)
	ctx := context.Background()
	loggedAt := time.Date(2026, 8, 23, 8, 0, 0, 0, time.UTC)

	var mealIDs []uint
	for i, cal := range []float64{300, 650, 500} {
		result, err := f.service.LogMeal(ctx, LogMealInput{
			UserID:    f.userID,
			FoodName:  "Meal",
			Nutrients: models.Nutrients{Calories: cal},
			LoggedAt:  loggedAt.Add(time.Duration(i) * 4 * time.Hour),
		})
		require.NoError(t, err)
		mealIDs = append(mealIDs, result.Meal.ID)
	}

	totals, err := f.service.DeleteMeal(ctx, f.userID, mealIDs[1])
	require.NoError(t, err)
	assert.InDelta(t, 800, totals.Totals.Calories, 0.001)
	assert.Equal(t, 2, totals.MealsCount)
}

func TestDeleteMealOwnership(t *testing.T) {
	f := newMealFixture(t)
	ctx := context.Background()

	result, err := f.service.LogMeal(ctx, LogMealInput{
		UserID:    f.userID,
		FoodName:  "Private",
		Nutrients: models.Nutrients{Calories: 100},
	})
	require.NoError(t, err)

	_, err = f.service.DeleteMeal(ctx, f.otherID, result.Meal.ID)
	requireAppError(t, err, "FORBIDDEN")

	_, err = f.service.DeleteMeal(ctx, f.userID, 424242)
	requireAppError(t, err, "NOT_FOUND")
}

func TestGetDailySummaryEmptyDayIsZeroed(t *testing.T) {
	f := newMealFixture(t)

	view, err := f.service.GetDailySummary(context.Background(), f.userID,
		time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "2026-01-05", view.DayDate)
	assert.Equal(t, models.Nutrients{}, view.Totals)
	assert.Equal(t, 0, view.MealsCount)
}

func TestGetAggregateRangeRejectsInvertedBounds(t *testing.T) {
	f := newMealFixture(t)

	from := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	_, err := f.service.GetAggregateRange(context.Background(), f.userID, from, from.AddDate(0, 0, -1))
	requireAppError(t, err, "VALIDATION_ERROR")
}

func TestGetAggregateRangeOrderedInclusive(t *testing.T) {
	f := newMealFixture(t)
	ctx := context.Background()

	for _, d := range []int{14, 10, 12} {
		_, err := f.service.LogMeal(ctx, LogMealInput{
			UserID:    f.userID,
			FoodName:  "Meal",
			Nutrients: models.Nutrients{Calories: float64(d)},
			LoggedAt:  time.Date(2026, 8, d, 12, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
	}

	views, err := f.service.GetAggregateRange(ctx, f.userID,
		time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 14, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, views, 3)
	assert.Equal(t, "2026-08-10", views[0].DayDate)
	assert.Equal(t, "2026-08-12", views[1].DayDate)
	assert.Equal(t, "2026-08-14", views[2].DayDate)
}

func TestPeriodStart(t *testing.T) {
	now := time.Date(2026, 8, 30, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		period string
		want   time.Time
	}{
		{"all", time.Time{}},
		{"", time.Time{}},
		{"today", time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)},
		{"daily", time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)},
		{"week", now.AddDate(0, 0, -7)},
		{"month", now.AddDate(0, 0, -30)},
		{"yearly", now.AddDate(0, 0, -365)},
		{"bogus", now.AddDate(0, 0, -1)},
	}
	for _, tt := range tests {
		t.Run("period "+tt.period, func(t *testing.T) {
			assert.Equal(t, tt.want, periodStart(tt.period, now))
		})
	}
}

func TestGetDailySummaryCacheAside(t *testing.T) {
	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.SetClient(nil) })

	f := newMealFixture(t)
	ctx := context.Background()
	day := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

	_, err := f.service.LogMeal(ctx, LogMealInput{
		UserID:    f.userID,
		MealType:  models.MealTypeBreakfast,
		FoodName:  "Oatmeal",
		Nutrients: models.Nutrients{Calories: 320},
		LoggedAt:  day.Add(8 * time.Hour),
	})
	require.NoError(t, err)

	summary, err := f.service.GetDailySummary(ctx, f.userID, day)
	require.NoError(t, err)
	assert.InDelta(t, 320, summary.Totals.Calories, 0.001)
	assert.True(t, mr.Exists(cache.TodaySummaryKey(f.userID, "2026-08-20")))

	// the cached view survives a direct row mutation
	require.NoError(t, f.db.Exec("DELETE FROM daily_aggregates").Error)
	summary, err = f.service.GetDailySummary(ctx, f.userID, day)
	require.NoError(t, err)
	assert.InDelta(t, 320, summary.Totals.Calories, 0.001)

	// logging a meal for the day invalidates the entry, so the next read
	// reflects the rebuilt row
	_, err = f.service.LogMeal(ctx, LogMealInput{
		UserID:    f.userID,
		MealType:  models.MealTypeLunch,
		FoodName:  "Salad",
		Nutrients: models.Nutrients{Calories: 450},
		LoggedAt:  day.Add(13 * time.Hour),
	})
	require.NoError(t, err)
	summary, err = f.service.GetDailySummary(ctx, f.userID, day)
	require.NoError(t, err)
	assert.InDelta(t, 450, summary.Totals.Calories, 0.001)
	assert.Equal(t, 1, summary.MealsCount)
}

// Client timestamps can arrive with any UTC offset; the instant, not the
// wall clock, decides which day a meal counts toward, so the aggregate a
// delete recomputes is the same one the insert applied to.
func TestOffsetTimestampsBucketByUTCDay(t *testing.T) {
	f := newMealFixture(t)
	ctx := context.Background()
	est := time.FixedZone("EST", -5*60*60)

	noon, err := f.service.LogMeal(ctx, LogMealInput{
		UserID:    f.userID,
		MealType:  models.MealTypeLunch,
		FoodName:  "Pasta",
		Nutrients: models.Nutrients{Calories: 300},
		LoggedAt:  time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "2026-01-01", noon.DailyTotals.DayDate)

	// 23:30 EST on Jan 1 is 04:30 UTC on Jan 2
	late, err := f.service.LogMeal(ctx, LogMealInput{
		UserID:    f.userID,
		MealType:  models.MealTypeDinner,
		FoodName:  "Stew",
		Nutrients: models.Nutrients{Calories: 650},
		LoggedAt:  time.Date(2026, 1, 1, 23, 30, 0, 0, est),
	})
	require.NoError(t, err)
	assert.Equal(t, "2026-01-02", late.DailyTotals.DayDate)
	assert.Equal(t, 1, late.DailyTotals.MealsCount)
	assert.InDelta(t, 650, late.DailyTotals.Totals.Calories, 0.001)

	// deleting the noon meal rebuilds Jan 1 without touching Jan 2
	view, err := f.service.DeleteMeal(ctx, f.userID, noon.Meal.ID)
	require.NoError(t, err)
	assert.Equal(t, "2026-01-01", view.DayDate)
	assert.Equal(t, 0, view.MealsCount)
	assert.InDelta(t, 0, view.Totals.Calories, 0.001)

	summary, err := f.service.GetDailySummary(ctx, f.userID, time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.MealsCount)
	assert.InDelta(t, 650, summary.Totals.Calories, 0.001)
}

func requireAppError(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
}
