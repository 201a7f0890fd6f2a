package repository

import (
	"context"
	"errors"
	"time"

	"freshplate/internal/cache"
	"freshplate/internal/models"

	"gorm.io/gorm"
)

// ScanRepository defines persistence operations for scan sessions and history.
type ScanRepository interface {
	CreateSession(ctx context.Context, session *models.ScanSession) error
	GetSession(ctx context.Context, sessionID string) (*models.ScanSession, error)
	MarkAddedToMeal(ctx context.Context, tx *gorm.DB, sessionID string) error
	DeleteSession(ctx context.Context, sessionID string) error
	CreateHistoryEntry(ctx context.Context, entry *models.ScanHistoryEntry) error
	ListHistory(ctx context.Context, userID uint, since time.Time, limit, offset int) ([]models.ScanHistoryEntry, error)
	CountHistory(ctx context.Context, userID uint, since time.Time) (int64, error)
}

type scanRepository struct {
	db *gorm.DB
}

// NewScanRepository returns a new ScanRepository implementation.
func NewScanRepository(db *gorm.DB) ScanRepository {
	return &scanRepository{db: db}
}

func (r *scanRepository) CreateSession(ctx context.Context, session *models.ScanSession) error {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("scan session already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *scanRepository) GetSession(ctx context.Context, sessionID string) (*models.ScanSession, error) {
	var session models.ScanSession
	key := cache.ScanSessionKey(sessionID)

	err := cache.Aside(ctx, key, &session, cache.ScanSessionTTL, func() error {
		if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&session).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("ScanSession", sessionID)
			}
			return models.NewInternalError(err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return &session, nil
}

// MarkAddedToMeal flips the added_to_meal flag inside the caller's transaction.
// The flag is the only mutable part of a completed session.
func (r *scanRepository) MarkAddedToMeal(ctx context.Context, tx *gorm.DB, sessionID string) error {
	if tx == nil {
		tx = r.db
	}
	err := tx.WithContext(ctx).
		Model(&models.ScanSession{}).
		Where("session_id = ?", sessionID).
		Update("added_to_meal", true).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateScanSession(ctx, sessionID)
	return nil
}

func (r *scanRepository) DeleteSession(ctx context.Context, sessionID string) error {
	result := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&models.ScanSession{})
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("ScanSession", sessionID)
	}
	cache.InvalidateScanSession(ctx, sessionID)
	return nil
}

func (r *scanRepository) CreateHistoryEntry(ctx context.Context, entry *models.ScanHistoryEntry) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// ListHistory returns history entries newest first. A zero since means no
// lower bound.
func (r *scanRepository) ListHistory(ctx context.Context, userID uint, since time.Time, limit, offset int) ([]models.ScanHistoryEntry, error) {
	var entries []models.ScanHistoryEntry
	err := historyScope(r.db.WithContext(ctx), userID, since).
		Order("analyzed_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return entries, nil
}

func (r *scanRepository) CountHistory(ctx context.Context, userID uint, since time.Time) (int64, error) {
	var count int64
	err := historyScope(r.db.WithContext(ctx).Model(&models.ScanHistoryEntry{}), userID, since).
		Count(&count).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func historyScope(q *gorm.DB, userID uint, since time.Time) *gorm.DB {
	q = q.Where("user_id = ?", userID)
	if !since.IsZero() {
		q = q.Where("analyzed_at >= ?", since)
	}
	return q
}
