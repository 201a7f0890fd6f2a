package repository

import (
	"context"

	"freshplate/internal/models"

	"gorm.io/gorm"
)

// InsightRepository defines persistence operations for AI insights.
type InsightRepository interface {
	Create(ctx context.Context, insight *models.AIInsight) error
	CreateBatch(ctx context.Context, insights []models.AIInsight) error
	List(ctx context.Context, userID uint, unreadOnly bool, limit, offset int) ([]models.AIInsight, error)
	MarkRead(ctx context.Context, userID, insightID uint) error
	CountUnread(ctx context.Context, userID uint) (int64, error)
}

type insightRepository struct {
	db *gorm.DB
}

// NewInsightRepository returns a new InsightRepository implementation.
func NewInsightRepository(db *gorm.DB) InsightRepository {
	return &insightRepository{db: db}
}

func (r *insightRepository) Create(ctx context.Context, insight *models.AIInsight) error {
	if err := r.db.WithContext(ctx).Create(insight).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *insightRepository) CreateBatch(ctx context.Context, insights []models.AIInsight) error {
	if len(insights) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&insights).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *insightRepository) List(ctx context.Context, userID uint, unreadOnly bool, limit, offset int) ([]models.AIInsight, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var insights []models.AIInsight
	err := query.
		Order("generated_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&insights).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return insights, nil
}

func (r *insightRepository) MarkRead(ctx context.Context, userID, insightID uint) error {
	result := r.db.WithContext(ctx).
		Model(&models.AIInsight{}).
		Where("id = ? AND user_id = ?", insightID, userID).
		Update("is_read", true)
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Insight", insightID)
	}
	return nil
}

func (r *insightRepository) CountUnread(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.AIInsight{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}
