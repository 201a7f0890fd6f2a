package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"freshplate/internal/analyzer"
	"freshplate/internal/models"
	"freshplate/internal/observability"
	"freshplate/internal/repository"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ScanService owns scan session creation and the scan history feed.
type ScanService struct {
	scans  repository.ScanRepository
	vision analyzer.VisionClient
}

// NewScanService returns a new ScanService.
func NewScanService(scans repository.ScanRepository, vision analyzer.VisionClient) *ScanService {
	return &ScanService{scans: scans, vision: vision}
}

type CreateScanInput struct {
	UserID    uint
	FoodName  string
	Category  string
	ImageData string
	ImageURL  string
	Profile   map[string]any
}

// CreateScan analyzes a food through the vision service and records the
// result as an immutable session plus a history entry.
func (s *ScanService) CreateScan(ctx context.Context, input CreateScanInput) (*models.ScanSession, error) {
	if strings.TrimSpace(input.FoodName) == "" && input.ImageData == "" {
		return nil, models.NewFieldValidationError("food_name", "food name or image is required")
	}

	result, err := s.vision.AnalyzeFood(ctx, analyzer.AnalyzeRequest{
		FoodName:  input.FoodName,
		ImageData: input.ImageData,
		Profile:   input.Profile,
	})
	if err != nil {
		observability.ScanSessionsCreated.WithLabelValues(models.ScanStatusFailed).Inc()
		return nil, err
	}

	now := time.Now().UTC()
	session := &models.ScanSession{
		SessionID:  uuid.NewString(),
		UserID:     input.UserID,
		FoodName:   result.FoodName,
		Category:   input.Category,
		ImageURL:   input.ImageURL,
		Status:     models.ScanStatusCompleted,
		AnalyzedAt: now,
	}
	if result.Freshness != nil {
		session.Freshness = datatypes.JSONMap(result.Freshness)
	}
	if len(result.Nutrition) > 0 {
		session.Nutrition = datatypes.JSON(result.Nutrition)
	}
	if b, err := json.Marshal(result.Storage); err == nil && result.Storage != nil {
		session.StorageRecommendations = datatypes.JSON(b)
	}
	if b, err := json.Marshal(result.Consumption); err == nil && result.Consumption != nil {
		session.ConsumptionRecommendations = datatypes.JSON(b)
	}
	if b, err := json.Marshal(result.HealthRisks); err == nil && result.HealthRisks != nil {
		session.HealthRiskFactors = datatypes.JSON(b)
	}

	if err := s.scans.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	entry := &models.ScanHistoryEntry{
		UserID:         input.UserID,
		SessionID:      session.SessionID,
		FoodName:       session.FoodName,
		Category:       session.Category,
		FreshnessScore: freshnessScore(result.Freshness),
		ImageURL:       session.ImageURL,
		AnalyzedAt:     now,
	}
	if err := s.scans.CreateHistoryEntry(ctx, entry); err != nil {
		return nil, err
	}

	observability.ScanSessionsCreated.WithLabelValues(models.ScanStatusCompleted).Inc()
	return session, nil
}

func freshnessScore(freshness map[string]any) float64 {
	if freshness == nil {
		return 0
	}
	switch v := freshness["score"].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

// GetSession returns a session after checking ownership.
func (s *ScanService) GetSession(ctx context.Context, userID uint, sessionID string) (*models.ScanSession, error) {
	if _, err := uuid.Parse(sessionID); err != nil {
		return nil, models.NewFieldValidationError("session_id", "invalid session id")
	}
	session, err := s.scans.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, models.NewForbiddenError("scan session belongs to another user")
	}
	return session, nil
}

// ScanHistoryPage is one page of the history feed.
type ScanHistoryPage struct {
	Entries []models.ScanHistoryEntry `json:"entries"`
	Total   int64                     `json:"total"`
}

// ListHistory returns the user's scan history, newest first. A zero since
// returns everything.
func (s *ScanService) ListHistory(ctx context.Context, userID uint, since time.Time, limit, offset int) (*ScanHistoryPage, error) {
	entries, err := s.scans.ListHistory(ctx, userID, since, limit, offset)
	if err != nil {
		return nil, err
	}
	total, err := s.scans.CountHistory(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	return &ScanHistoryPage{Entries: entries, Total: total}, nil
}

// DeleteSession removes a session after checking ownership.
func (s *ScanService) DeleteSession(ctx context.Context, userID uint, sessionID string) error {
	session, err := s.scans.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.UserID != userID {
		return models.NewForbiddenError("scan session belongs to another user")
	}
	return s.scans.DeleteSession(ctx, sessionID)
}
