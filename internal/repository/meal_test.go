package repository

import (
	"context"
	"testing"
	"time"

	"freshplate/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestMealRepository_ListByUserAndDayWindow(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "meal@example.com")
	repo := NewMealRepository(db)
	ctx := context.Background()

	day := time.Date(2026, 8, 12, 0, 0, 0, 0, time.UTC)
	times := []time.Time{
		day.Add(-time.Minute),       // previous day
		day,                         // midnight, included
		day.Add(12 * time.Hour),     // midday
		day.Add(24*time.Hour - time.Second), // last second of the day
		day.Add(24 * time.Hour),     // next day
	}
	for i, at := range times {
		meal := &models.Meal{
			UserID:   user.ID,
			MealType: models.MealTypeSnack,
			FoodName: "Food",
			Calories: float64(i),
			LoggedAt: at,
		}
		require.NoError(t, repo.Create(ctx, nil, meal))
	}

	meals, err := repo.ListByUserAndDay(ctx, nil, user.ID, day)
	require.NoError(t, err)
	require.Len(t, meals, 3)
	// chronological within the day
	assert.InDelta(t, 1, meals[0].Calories, 0.001)
	assert.InDelta(t, 3, meals[2].Calories, 0.001)
}

func TestMealRepository_GetByIDPreloadsItems(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "meal2@example.com")
	repo := NewMealRepository(db)
	ctx := context.Background()

	meal := &models.Meal{
		UserID:   user.ID,
		MealType: models.MealTypeLunch,
		FoodName: "Banana",
		LoggedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Create(ctx, nil, meal))

	sessionID := uuid.NewString()
	item := &models.MealItem{
		MealID:            meal.ID,
		UserID:            user.ID,
		SessionID:         &sessionID,
		ItemName:          "Banana",
		Quantity:          2,
		WeightGrams:       150,
		NutrientsSnapshot: datatypes.NewJSONType(models.Nutrients{Calories: 234}),
	}
	require.NoError(t, repo.CreateItem(ctx, nil, item))

	got, err := repo.GetByID(ctx, meal.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.InDelta(t, 234, got.Items[0].NutrientsSnapshot.Data().Calories, 0.001)

	_, err = repo.GetByID(ctx, 9999)
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestMealRepository_ListByUserNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "meal3@example.com")
	repo := NewMealRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)
	for i, name := range []string{"Oldest", "Middle", "Newest"} {
		meal := &models.Meal{
			UserID:   user.ID,
			MealType: models.MealTypeSnack,
			FoodName: name,
			LoggedAt: base.AddDate(0, 0, i),
		}
		require.NoError(t, repo.Create(ctx, nil, meal))
	}

	meals, err := repo.ListByUser(ctx, user.ID, time.Time{}, 2, 0)
	require.NoError(t, err)
	require.Len(t, meals, 2)
	assert.Equal(t, "Newest", meals[0].FoodName)
	assert.Equal(t, "Middle", meals[1].FoodName)

	// A lower bound trims the older entries.
	meals, err = repo.ListByUser(ctx, user.ID, base.AddDate(0, 0, 2), 10, 0)
	require.NoError(t, err)
	require.Len(t, meals, 1)
	assert.Equal(t, "Newest", meals[0].FoodName)
}
