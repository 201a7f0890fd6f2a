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

func createTestSession(t *testing.T, repo ScanRepository, userID uint, analyzedAt time.Time) *models.ScanSession {
	t.Helper()
	session := &models.ScanSession{
		SessionID:  uuid.NewString(),
		UserID:     userID,
		FoodName:   "Banana",
		Category:   "fruit",
		Freshness:  datatypes.JSONMap{"level": "Fresh", "percentage": 91.0},
		Nutrition:  datatypes.JSON([]byte(`[{"name":"Calories","value":89}]`)),
		Status:     models.ScanStatusCompleted,
		AnalyzedAt: analyzedAt,
	}
	require.NoError(t, repo.CreateSession(context.Background(), session))
	return session
}

func TestScanRepository_SessionRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "scan@example.com")
	repo := NewScanRepository(db)
	ctx := context.Background()

	created := createTestSession(t, repo, user.ID, time.Now().UTC())

	got, err := repo.GetSession(ctx, created.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "Banana", got.FoodName)
	assert.False(t, got.AddedToMeal)

	_, err = repo.GetSession(ctx, uuid.NewString())
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestScanRepository_MarkAddedToMeal(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "scan2@example.com")
	repo := NewScanRepository(db)
	ctx := context.Background()

	session := createTestSession(t, repo, user.ID, time.Now().UTC())
	require.NoError(t, repo.MarkAddedToMeal(ctx, nil, session.SessionID))

	got, err := repo.GetSession(ctx, session.SessionID)
	require.NoError(t, err)
	assert.True(t, got.AddedToMeal)
}

func TestScanRepository_HistoryOrderedNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "scan3@example.com")
	repo := NewScanRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	for i, name := range []string{"Apple", "Banana", "Carrot"} {
		entry := &models.ScanHistoryEntry{
			UserID:     user.ID,
			SessionID:  uuid.NewString(),
			FoodName:   name,
			AnalyzedAt: base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, repo.CreateHistoryEntry(ctx, entry))
	}

	entries, err := repo.ListHistory(ctx, user.ID, time.Time{}, 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "Carrot", entries[0].FoodName)
	assert.Equal(t, "Apple", entries[2].FoodName)

	total, err := repo.CountHistory(ctx, user.ID, time.Time{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)

	// pagination
	entries, err = repo.ListHistory(ctx, user.ID, time.Time{}, 1, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Banana", entries[0].FoodName)

	// since filter trims older entries on both the page and the count
	entries, err = repo.ListHistory(ctx, user.ID, base.Add(time.Hour), 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Carrot", entries[0].FoodName)

	total, err = repo.CountHistory(ctx, user.ID, base.Add(time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}

func TestScanRepository_DeleteSession(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "scan4@example.com")
	repo := NewScanRepository(db)
	ctx := context.Background()

	session := createTestSession(t, repo, user.ID, time.Now().UTC())
	require.NoError(t, repo.DeleteSession(ctx, session.SessionID))

	_, err := repo.GetSession(ctx, session.SessionID)
	assert.Error(t, err)

	err = repo.DeleteSession(ctx, session.SessionID)
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}
