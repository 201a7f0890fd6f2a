package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"freshplate/internal/analyzer"
	"freshplate/internal/models"
	"freshplate/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newInsightFixture(t *testing.T, advice *fakeAdviceClient) (*InsightService, *MealService, uint) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.HealthProfile{},
		&models.Meal{},
		&models.MealItem{},
		&models.DailyAggregate{},
		&models.AIInsight{},
	))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	user := &models.User{Email: "insights@example.com", Password: "x"}
	require.NoError(t, db.Create(user).Error)

	meals := repository.NewMealRepository(db)
	aggs := repository.NewAggregateRepository(db, meals)
	insightSvc := NewInsightService(
		repository.NewInsightRepository(db),
		aggs,
		repository.NewProfileRepository(db),
		advice,
	)
	mealSvc := NewMealService(db, meals, aggs, repository.NewScanRepository(db))
	return insightSvc, mealSvc, user.ID
}

func TestGenerateInsightsFeedsRecentIntake(t *testing.T) {
	advice := &fakeAdviceClient{
		insights: []analyzer.InsightAdvice{
			{InsightType: models.InsightTypeWarning, Title: "Sodium high", Content: "Cut back on salty snacks."},
			{InsightType: "mystery", Title: "Odd", Content: "Unknown type falls back."},
		},
	}
	insightSvc, mealSvc, userID := newInsightFixture(t, advice)
	ctx := context.Background()

	_, err := mealSvc.LogMeal(ctx, LogMealInput{
		UserID:    userID,
		FoodName:  "Ramen",
		Nutrients: models.Nutrients{Calories: 700, Sodium: 1900},
		LoggedAt:  time.Now().UTC().AddDate(0, 0, -2),
	})
	require.NoError(t, err)

	generated, err := insightSvc.GenerateInsights(ctx, userID)
	require.NoError(t, err)
	require.Len(t, generated, 2)
	assert.Equal(t, models.InsightTypeWarning, generated[0].InsightType)
	// unknown types are normalized
	assert.Equal(t, models.InsightTypeDailyAdvice, generated[1].InsightType)

	// the 7-day intake summary reached the advice service
	require.NotNil(t, advice.lastSummary)
	days, ok := advice.lastSummary["days"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, days, 1)
	assert.Equal(t, 1, days[0]["meals_count"])

	// insights are persisted unread
	unread, err := insightSvc.CountUnread(ctx, userID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, unread)
}

func TestMarkInsightRead(t *testing.T) {
	advice := &fakeAdviceClient{
		insights: []analyzer.InsightAdvice{
			{InsightType: models.InsightTypeDailyAdvice, Title: "Hydrate", Content: "Drink more water."},
		},
	}
	insightSvc, _, userID := newInsightFixture(t, advice)
	ctx := context.Background()

	_, err := insightSvc.GenerateInsights(ctx, userID)
	require.NoError(t, err)

	insights, err := insightSvc.ListInsights(ctx, userID, false, 10, 0)
	require.NoError(t, err)
	require.Len(t, insights, 1)
	require.NoError(t, insightSvc.MarkRead(ctx, userID, insights[0].ID))

	unread, err := insightSvc.CountUnread(ctx, userID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, unread)

	// unread-only listing is now empty
	insights, err = insightSvc.ListInsights(ctx, userID, true, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, insights)

	err = insightSvc.MarkRead(ctx, userID, 4242)
	requireAppError(t, err, "NOT_FOUND")
}

func TestChatAttachesIntakeContext(t *testing.T) {
	advice := &fakeAdviceClient{chatReply: "Add a serving of legumes to lunch."}
	insightSvc, mealSvc, userID := newInsightFixture(t, advice)
	ctx := context.Background()

	_, err := insightSvc.Chat(ctx, userID, "   ", nil)
	requireAppError(t, err, "VALIDATION_ERROR")

	_, err = mealSvc.LogMeal(ctx, LogMealInput{
		UserID:    userID,
		MealType:  models.MealTypeLunch,
		FoodName:  "Lentil soup",
		Nutrients: models.Nutrients{Calories: 420, Protein: 18},
		LoggedAt:  time.Now().UTC().Add(-2 * time.Hour),
	})
	require.NoError(t, err)

	history := []analyzer.ChatMessage{{Role: "user", Content: "Hi"}}
	reply, err := insightSvc.Chat(ctx, userID, "What should I eat today?", history)
	require.NoError(t, err)
	assert.Equal(t, "Add a serving of legumes to lunch.", reply)

	// the message, history, and intake summary all reached the service
	assert.Equal(t, "What should I eat today?", advice.lastChat.Message)
	assert.Equal(t, history, advice.lastChat.History)
	assert.Contains(t, advice.lastChat.Profile["consumption_context"], "420 cal")
}
