package repository

import (
	"context"
	"errors"
	"time"

	"freshplate/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SavedItemRepository defines persistence operations for saved scan items.
type SavedItemRepository interface {
	Upsert(ctx context.Context, item *models.SavedItem) error
	Get(ctx context.Context, userID uint, sessionID string) (*models.SavedItem, error)
	List(ctx context.Context, userID uint, limit, offset int) ([]models.SavedItem, error)
	ListUnconsumed(ctx context.Context, userID uint) ([]models.SavedItem, error)
	MarkConsumed(ctx context.Context, userID uint, sessionID string) error
	Delete(ctx context.Context, userID uint, sessionID string) error
}

type savedItemRepository struct {
	db *gorm.DB
}

// NewSavedItemRepository returns a new SavedItemRepository implementation.
func NewSavedItemRepository(db *gorm.DB) SavedItemRepository {
	return &savedItemRepository{db: db}
}

// Upsert saves a scan for the user. Re-saving the same session refreshes
// the risk flags instead of creating a duplicate.
func (r *savedItemRepository) Upsert(ctx context.Context, item *models.SavedItem) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "session_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"is_consumed", "consumed_at", "is_risky", "health_warning",
			}),
		}).
		Create(item).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *savedItemRepository) Get(ctx context.Context, userID uint, sessionID string) (*models.SavedItem, error) {
	var item models.SavedItem
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND session_id = ?", userID, sessionID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("SavedItem", sessionID)
		}
		return nil, models.NewInternalError(err)
	}
	return &item, nil
}

func (r *savedItemRepository) List(ctx context.Context, userID uint, limit, offset int) ([]models.SavedItem, error) {
	var items []models.SavedItem
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("saved_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&items).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return items, nil
}

// ListUnconsumed returns every saved item not yet eaten, newest first.
// Risk and freshness filtering happen in the service, where the session
// payload is available.
func (r *savedItemRepository) ListUnconsumed(ctx context.Context, userID uint) ([]models.SavedItem, error) {
	var items []models.SavedItem
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_consumed = ?", userID, false).
		Order("saved_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return items, nil
}

func (r *savedItemRepository) MarkConsumed(ctx context.Context, userID uint, sessionID string) error {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&models.SavedItem{}).
		Where("user_id = ? AND session_id = ?", userID, sessionID).
		Updates(map[string]any{"is_consumed": true, "consumed_at": &now})
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("SavedItem", sessionID)
	}
	return nil
}

func (r *savedItemRepository) Delete(ctx context.Context, userID uint, sessionID string) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND session_id = ?", userID, sessionID).
		Delete(&models.SavedItem{})
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("SavedItem", sessionID)
	}
	return nil
}
