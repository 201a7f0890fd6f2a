package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"freshplate/internal/analyzer"
	"freshplate/internal/models"
	"freshplate/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fakeVisionClient stubs the upstream vision service.
type fakeVisionClient struct {
	result  *analyzer.AnalyzeResult
	err     error
	lastReq analyzer.AnalyzeRequest
}

func (f *fakeVisionClient) AnalyzeFood(_ context.Context, req analyzer.AnalyzeRequest) (*analyzer.AnalyzeResult, error) {
	f.lastReq = req
	return f.result, f.err
}

func newScanFixture(t *testing.T, vision *fakeVisionClient) (*ScanService, uint, uint) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.ScanSession{}, &models.ScanHistoryEntry{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	owner := &models.User{Email: "scans@example.com", Password: "x"}
	require.NoError(t, db.Create(owner).Error)
	other := &models.User{Email: "other-scans@example.com", Password: "x"}
	require.NoError(t, db.Create(other).Error)

	return NewScanService(repository.NewScanRepository(db), vision), owner.ID, other.ID
}

func bananaAnalysis() *analyzer.AnalyzeResult {
	return &analyzer.AnalyzeResult{
		FoodName:  "Banana",
		Freshness: map[string]any{"level": "Fresh", "score": 91.0},
		Nutrition: json.RawMessage(`[{"name":"Calories","value":89}]`),
		Storage:   []map[string]any{{"method": "room temperature", "duration_days": 4}},
	}
}

func TestCreateScanRecordsSessionAndHistory(t *testing.T) {
	vision := &fakeVisionClient{result: bananaAnalysis()}
	svc, userID, _ := newScanFixture(t, vision)
	ctx := context.Background()

	session, err := svc.CreateScan(ctx, CreateScanInput{
		UserID:   userID,
		FoodName: "banana",
		Profile:  map[string]any{"has_diabetes": true},
	})
	require.NoError(t, err)
	assert.Equal(t, "Banana", session.FoodName)
	assert.Equal(t, models.ScanStatusCompleted, session.Status)
	assert.NotEmpty(t, session.SessionID)
	assert.Equal(t, true, vision.lastReq.Profile["has_diabetes"])

	page, err := svc.ListHistory(ctx, userID, time.Time{}, 10, 0)
	require.NoError(t, err)
	require.Len(t, page.Entries, 1)
	assert.EqualValues(t, 1, page.Total)
	assert.InDelta(t, 91, page.Entries[0].FreshnessScore, 0.001)
}

func TestCreateScanRequiresInput(t *testing.T) {
	svc, userID, _ := newScanFixture(t, &fakeVisionClient{result: bananaAnalysis()})

	_, err := svc.CreateScan(context.Background(), CreateScanInput{UserID: userID})
	requireAppError(t, err, "VALIDATION_ERROR")
}

func TestCreateScanUpstreamFailure(t *testing.T) {
	vision := &fakeVisionClient{err: models.NewUpstreamError("vision", fmt.Errorf("503"))}
	svc, userID, _ := newScanFixture(t, vision)

	_, err := svc.CreateScan(context.Background(), CreateScanInput{UserID: userID, FoodName: "banana"})
	requireAppError(t, err, "UPSTREAM_ERROR")
}

func TestGetSessionOwnershipAndValidation(t *testing.T) {
	svc, userID, otherID := newScanFixture(t, &fakeVisionClient{result: bananaAnalysis()})
	ctx := context.Background()

	session, err := svc.CreateScan(ctx, CreateScanInput{UserID: userID, FoodName: "banana"})
	require.NoError(t, err)

	got, err := svc.GetSession(ctx, userID, session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, session.SessionID, got.SessionID)

	_, err = svc.GetSession(ctx, otherID, session.SessionID)
	requireAppError(t, err, "FORBIDDEN")

	_, err = svc.GetSession(ctx, userID, "not-a-uuid")
	requireAppError(t, err, "VALIDATION_ERROR")

	_, err = svc.GetSession(ctx, userID, uuid.NewString())
	requireAppError(t, err, "NOT_FOUND")
}

func TestDeleteSessionOwnership(t *testing.T) {
	svc, userID, otherID := newScanFixture(t, &fakeVisionClient{result: bananaAnalysis()})
	ctx := context.Background()

	session, err := svc.CreateScan(ctx, CreateScanInput{UserID: userID, FoodName: "banana"})
	require.NoError(t, err)

	err = svc.DeleteSession(ctx, otherID, session.SessionID)
	requireAppError(t, err, "FORBIDDEN")

	require.NoError(t, svc.DeleteSession(ctx, userID, session.SessionID))
	_, err = svc.GetSession(ctx, userID, session.SessionID)
	requireAppError(t, err, "NOT_FOUND")
}
