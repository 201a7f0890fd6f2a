package service

import (
	"context"
	"strings"
	"time"

	"freshplate/internal/cache"
	"freshplate/internal/models"
	"freshplate/internal/nutrition"
	"freshplate/internal/observability"
	"freshplate/internal/repository"
	"freshplate/internal/validation"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MealService owns meal logging and the daily rollups that mirror it.
// Every write path runs the meal mutation and the aggregate adjustment in
// one transaction.
type MealService struct {
	db         *gorm.DB
	meals      repository.MealRepository
	aggregates repository.AggregateRepository
	scans      repository.ScanRepository
}

// NewMealService returns a new MealService.
func NewMealService(db *gorm.DB, meals repository.MealRepository, aggregates repository.AggregateRepository, scans repository.ScanRepository) *MealService {
	return &MealService{db: db, meals: meals, aggregates: aggregates, scans: scans}
}

type LogMealInput struct {
	UserID      uint
	MealType    string
	FoodName    string
	Nutrients   models.Nutrients
	Micros      map[string]any
	ServingSize string
	Quantity    float64
	ImageURL    string
	LoggedAt    time.Time
}

// LogMealResult pairs the created meal with the updated day rollup.
type LogMealResult struct {
	Meal        *models.Meal              `json:"meal"`
	DailyTotals models.DailyAggregateView `json:"daily_totals"`
}

// LogMeal records a manually entered meal and folds it into the day's
// aggregate.
func (s *MealService) LogMeal(ctx context.Context, input LogMealInput) (*LogMealResult, error) {
	if strings.TrimSpace(input.FoodName) == "" {
		return nil, models.NewFieldValidationError("food_name", "food name is required")
	}
	if input.MealType == "" {
		input.MealType = models.MealTypeSnack
	}
	if !models.ValidMealType(input.MealType) {
		return nil, models.NewFieldValidationError("meal_type", "unknown meal type")
	}
	if input.Quantity == 0 {
		input.Quantity = 1
	}
	if input.Quantity < 0 {
		return nil, models.NewFieldValidationError("quantity", "quantity must be positive")
	}
	if input.LoggedAt.IsZero() {
		input.LoggedAt = time.Now()
	}
	// Client timestamps carry arbitrary offsets; days bucket by UTC, so
	// store the UTC instant and the aggregate windows stay in agreement.
	input.LoggedAt = input.LoggedAt.UTC()

	meal := &models.Meal{
		UserID:      input.UserID,
		MealType:    input.MealType,
		FoodName:    strings.TrimSpace(input.FoodName),
		ServingSize: input.ServingSize,
		Quantity:    input.Quantity,
		ImageURL:    input.ImageURL,
		Source:      models.MealSourceManual,
		LoggedAt:    input.LoggedAt,
	}
	meal.ApplyNutrients(input.Nutrients.Round())
	if input.Micros != nil {
		meal.Micros = datatypes.JSONMap(input.Micros)
	}

	var agg *models.DailyAggregate
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.meals.Create(ctx, tx, meal); err != nil {
			return err
		}
		var applyErr error
		agg, applyErr = s.aggregates.Apply(ctx, tx, input.UserID, input.LoggedAt, meal.NutrientTotals(), 1)
		return applyErr
	})
	if err != nil {
		return nil, err
	}

	observability.MealsLogged.WithLabelValues(meal.Source, meal.MealType).Inc()
	cache.InvalidateSummary(ctx, input.UserID, input.LoggedAt.Format(models.DayDateFormat))

	return &LogMealResult{Meal: meal, DailyTotals: agg.View()}, nil
}

type AddScanToMealInput struct {
	UserID      uint
	SessionID   string
	MealType    string
	Quantity    float64
	WeightGrams float64
	LoggedAt    time.Time
}

// AddScanResult is the response payload for adding a scanned food to a meal.
type AddScanResult struct {
	MealID          uint                      `json:"meal_id"`
	MealItemID      uint                      `json:"meal_item_id"`
	ScaledNutrients models.Nutrients          `json:"scaled_nutrients"`
	DailyTotals     models.DailyAggregateView `json:"daily_totals"`
}

// AddScanToMeal turns a completed scan session into a logged meal. The
// session's per-100g nutrition is scaled by the consumed quantity and
// weight, snapshotted on a MealItem, and folded into the day's aggregate.
// Adding the same session again logs a second serving; earlier items are
// untouched.
func (s *MealService) AddScanToMeal(ctx context.Context, input AddScanToMealInput) (*AddScanResult, error) {
	span, ctx := observability.NewSpan(ctx, "meal.add_scan")
	defer span.End()
	span.AddAttributes(
		attribute.String("scan.session_id", input.SessionID),
		attribute.String("meal.type", input.MealType),
	)

	session, err := s.scans.GetSession(ctx, input.SessionID)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	if session.UserID != input.UserID {
		return nil, models.NewForbiddenError("scan session belongs to another user")
	}

	if input.MealType == "" {
		input.MealType = models.MealTypeSnack
	}
	if !models.ValidMealType(input.MealType) {
		return nil, models.NewFieldValidationError("meal_type", "unknown meal type")
	}
	if input.Quantity == 0 {
		input.Quantity = 1
	}
	if input.WeightGrams == 0 {
		input.WeightGrams = nutrition.ReferenceWeightGrams
	}
	if input.LoggedAt.IsZero() {
		input.LoggedAt = time.Now()
	}
	input.LoggedAt = input.LoggedAt.UTC()

	base, err := nutrition.ParseNutritionList(session.Nutrition)
	if err != nil {
		return nil, err
	}
	scaled, err := nutrition.ScaleFromReference(base, input.Quantity, input.WeightGrams)
	if err != nil {
		return nil, err
	}

	meal := &models.Meal{
		UserID:      input.UserID,
		MealType:    input.MealType,
		FoodName:    session.FoodName,
		ServingSize: "1 serving",
		Quantity:    input.Quantity,
		ImageURL:    session.ImageURL,
		Source:      models.MealSourceScan,
		LoggedAt:    input.LoggedAt,
	}
	meal.ApplyNutrients(scaled)

	item := &models.MealItem{
		UserID:            input.UserID,
		SessionID:         &session.SessionID,
		ItemName:          session.FoodName,
		Quantity:          input.Quantity,
		WeightGrams:       input.WeightGrams,
		NutrientsSnapshot: datatypes.NewJSONType(scaled),
	}

	var agg *models.DailyAggregate
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.meals.Create(ctx, tx, meal); err != nil {
			return err
		}
		item.MealID = meal.ID
		if err := s.meals.CreateItem(ctx, tx, item); err != nil {
			return err
		}
		var applyErr error
		agg, applyErr = s.aggregates.Apply(ctx, tx, input.UserID, input.LoggedAt, scaled, 1)
		if applyErr != nil {
			return applyErr
		}
		return s.scans.MarkAddedToMeal(ctx, tx, session.SessionID)
	})
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	observability.MealsLogged.WithLabelValues(meal.Source, meal.MealType).Inc()
	cache.InvalidateSummary(ctx, input.UserID, input.LoggedAt.Format(models.DayDateFormat))

	return &AddScanResult{
		MealID:          meal.ID,
		MealItemID:      item.ID,
		ScaledNutrients: scaled,
		DailyTotals:     agg.View(),
	}, nil
}

// DeleteMeal removes a meal and rebuilds the day's aggregate from the
// remaining meals in the same transaction.
func (s *MealService) DeleteMeal(ctx context.Context, userID, mealID uint) (*models.DailyAggregateView, error) {
	meal, err := s.meals.GetByID(ctx, mealID)
	if err != nil {
		return nil, err
	}
	if meal.UserID != userID {
		return nil, models.NewForbiddenError("meal belongs to another user")
	}

	var agg *models.DailyAggregate
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.meals.Delete(ctx, tx, meal); err != nil {
			return err
		}
		var recomputeErr error
		agg, recomputeErr = s.aggregates.Recompute(ctx, tx, userID, meal.LoggedAt)
		return recomputeErr
	})
	if err != nil {
		return nil, err
	}

	cache.InvalidateSummary(ctx, userID, meal.LoggedAt.UTC().Format(models.DayDateFormat))

	view := agg.View()
	return &view, nil
}

// ListMeals returns the user's meals for the given period, newest first.
func (s *MealService) ListMeals(ctx context.Context, userID uint, period string, limit, offset int) ([]models.Meal, error) {
	return s.meals.ListByUser(ctx, userID, periodStart(period, time.Now().UTC()), limit, offset)
}

// periodStart maps a history period name to its lower time bound. "all" and
// the empty string mean unbounded; unknown names fall back to the last day.
func periodStart(period string, now time.Time) time.Time {
	switch period {
	case "", "all":
		return time.Time{}
	case "today", "daily":
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	case "week", "weekly":
		return now.AddDate(0, 0, -7)
	case "month", "monthly":
		return now.AddDate(0, 0, -30)
	case "year", "yearly":
		return now.AddDate(0, 0, -365)
	default:
		return now.AddDate(0, 0, -1)
	}
}

// GetDailySummary returns the rollup for one calendar day. Days without
// meals come back zeroed. The view is served cache-aside; every meal write
// for the day invalidates it.
func (s *MealService) GetDailySummary(ctx context.Context, userID uint, day time.Time) (models.DailyAggregateView, error) {
	day = day.UTC()
	dayKey := day.Format(models.DayDateFormat)

	var view models.DailyAggregateView
	err := cache.Aside(ctx, cache.TodaySummaryKey(userID, dayKey), &view, cache.TodaySummaryTTL, func() error {
		agg, err := s.aggregates.Get(ctx, userID, day)
		if err != nil {
			return err
		}
		if agg == nil {
			view = models.EmptyAggregateView(day)
			return nil
		}
		view = agg.View()
		return nil
	})
	if err != nil {
		return models.DailyAggregateView{}, err
	}
	return view, nil
}

// GetAggregateRange returns rollups between from and to inclusive, oldest
// first. Days without meals are omitted.
func (s *MealService) GetAggregateRange(ctx context.Context, userID uint, from, to time.Time) ([]models.DailyAggregateView, error) {
	if err := validation.ValidateDateRange(from, to); err != nil {
		return nil, models.NewFieldValidationError("from", err.Error())
	}
	aggs, err := s.aggregates.Range(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	views := make([]models.DailyAggregateView, 0, len(aggs))
	for i := range aggs {
		views = append(views, aggs[i].View())
	}
	return views, nil
}
