package repository

import (
	"context"
	"errors"
	"time"

	"freshplate/internal/cache"
	"freshplate/internal/models"

	"gorm.io/gorm"
)

// GoalRepository defines persistence operations for nutrition goals.
// Goals are append-only: a new row supersedes older ones from its
// effective_from date onward.
type GoalRepository interface {
	Create(ctx context.Context, goal *models.NutritionGoal) error
	GetEffective(ctx context.Context, userID uint, date time.Time) (*models.NutritionGoal, error)
	List(ctx context.Context, userID uint, limit, offset int) ([]models.NutritionGoal, error)
}

type goalRepository struct {
	db *gorm.DB
}

// NewGoalRepository returns a new GoalRepository implementation.
func NewGoalRepository(db *gorm.DB) GoalRepository {
	return &goalRepository{db: db}
}

func (r *goalRepository) Create(ctx context.Context, goal *models.NutritionGoal) error {
	if err := r.db.WithContext(ctx).Create(goal).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateGoal(ctx, goal.UserID)
	return nil
}

// GetEffective returns the newest goal whose effective_from is on or before
// the given date, or nil when the user has never set a goal.
func (r *goalRepository) GetEffective(ctx context.Context, userID uint, date time.Time) (*models.NutritionGoal, error) {
	var goal models.NutritionGoal
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND effective_from <= ?", userID, date).
		Order("effective_from DESC").
		First(&goal).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &goal, nil
}

func (r *goalRepository) List(ctx context.Context, userID uint, limit, offset int) ([]models.NutritionGoal, error) {
	var goals []models.NutritionGoal
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("effective_from DESC").
		Limit(limit).
		Offset(offset).
		Find(&goals).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return goals, nil
}
