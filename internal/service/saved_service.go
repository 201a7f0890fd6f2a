package service

import (
	"context"
	"encoding/json"

	"freshplate/internal/models"
	"freshplate/internal/repository"
)

// SavedItemService owns the user's saved scans shelf.
type SavedItemService struct {
	saved repository.SavedItemRepository
	scans repository.ScanRepository
}

// NewSavedItemService returns a new SavedItemService.
func NewSavedItemService(saved repository.SavedItemRepository, scans repository.ScanRepository) *SavedItemService {
	return &SavedItemService{saved: saved, scans: scans}
}

// SaveScan saves a session to the user's shelf, deriving the risk flags
// from the session's health analysis. Saving twice refreshes the flags.
func (s *SavedItemService) SaveScan(ctx context.Context, userID uint, sessionID string) (*models.SavedItem, error) {
	session, err := s.scans.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, models.NewForbiddenError("scan session belongs to another user")
	}

	item := &models.SavedItem{
		UserID:    userID,
		SessionID: sessionID,
	}
	item.IsRisky, item.HealthWarning = riskFromSession(session)

	if err := s.saved.Upsert(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// riskFromSession pulls the first warning out of the session's health risk
// payload, if any.
func riskFromSession(session *models.ScanSession) (bool, string) {
	if len(session.HealthRiskFactors) == 0 {
		return false, ""
	}
	var factors []struct {
		Severity string `json:"severity"`
		Warning  string `json:"warning"`
	}
	if err := json.Unmarshal(session.HealthRiskFactors, &factors); err != nil {
		return false, ""
	}
	for _, f := range factors {
		if f.Severity == "high" || f.Severity == "critical" {
			return true, f.Warning
		}
	}
	return false, ""
}

// ListSaved returns the user's saved items, newest first, with the backing
// sessions attached when they still exist.
func (s *SavedItemService) ListSaved(ctx context.Context, userID uint, limit, offset int) ([]models.SavedItem, error) {
	items, err := s.saved.List(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	for i := range items {
		session, err := s.scans.GetSession(ctx, items[i].SessionID)
		if err == nil {
			items[i].Session = session
		}
	}
	return items, nil
}

// ListUsable returns saved items fit for meal suggestions: not consumed,
// not risky, and with a freshness percentage at or above minFreshness.
func (s *SavedItemService) ListUsable(ctx context.Context, userID uint, minFreshness float64) ([]models.SavedItem, error) {
	items, err := s.saved.ListUnconsumed(ctx, userID)
	if err != nil {
		return nil, err
	}

	usable := make([]models.SavedItem, 0, len(items))
	for i := range items {
		if items[i].IsRisky {
			continue
		}
		session, err := s.scans.GetSession(ctx, items[i].SessionID)
		if err != nil {
			// Session purged; nothing to suggest from it.
			continue
		}
		if freshnessScore(session.Freshness) < minFreshness {
			continue
		}
		items[i].Session = session
		usable = append(usable, items[i])
	}
	return usable, nil
}

// MarkConsumed flags a saved item as eaten.
func (s *SavedItemService) MarkConsumed(ctx context.Context, userID uint, sessionID string) error {
	return s.saved.MarkConsumed(ctx, userID, sessionID)
}

// RemoveSaved deletes a saved item from the shelf.
func (s *SavedItemService) RemoveSaved(ctx context.Context, userID uint, sessionID string) error {
	return s.saved.Delete(ctx, userID, sessionID)
}
