package repository

import (
	"context"
	"errors"
	"time"

	"freshplate/internal/models"

	"gorm.io/gorm"
)

// MealRepository defines persistence operations for meals and meal items.
type MealRepository interface {
	Create(ctx context.Context, tx *gorm.DB, meal *models.Meal) error
	CreateItem(ctx context.Context, tx *gorm.DB, item *models.MealItem) error
	GetByID(ctx context.Context, id uint) (*models.Meal, error)
	ListByUserAndDay(ctx context.Context, tx *gorm.DB, userID uint, day time.Time) ([]models.Meal, error)
	ListByUser(ctx context.Context, userID uint, since time.Time, limit, offset int) ([]models.Meal, error)
	Delete(ctx context.Context, tx *gorm.DB, meal *models.Meal) error
}

type mealRepository struct {
	db *gorm.DB
}

// NewMealRepository returns a new MealRepository implementation.
func NewMealRepository(db *gorm.DB) MealRepository {
	return &mealRepository{db: db}
}

func (r *mealRepository) handle(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *mealRepository) Create(ctx context.Context, tx *gorm.DB, meal *models.Meal) error {
	if err := r.handle(tx).WithContext(ctx).Create(meal).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *mealRepository) CreateItem(ctx context.Context, tx *gorm.DB, item *models.MealItem) error {
	if err := r.handle(tx).WithContext(ctx).Create(item).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *mealRepository) GetByID(ctx context.Context, id uint) (*models.Meal, error) {
	var meal models.Meal
	if err := r.db.WithContext(ctx).Preload("Items").First(&meal, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Meal", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &meal, nil
}

// ListByUserAndDay returns all live meals logged on the given calendar day.
// Used to recompute the day's aggregate from source.
func (r *mealRepository) ListByUserAndDay(ctx context.Context, tx *gorm.DB, userID uint, day time.Time) ([]models.Meal, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	var meals []models.Meal
	err := r.handle(tx).WithContext(ctx).
		Where("user_id = ? AND logged_at >= ? AND logged_at < ?", userID, dayStart, dayEnd).
		Order("logged_at ASC").
		Find(&meals).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return meals, nil
}

// ListByUser returns the user's meals newest first. A zero since means no
// lower bound.
func (r *mealRepository) ListByUser(ctx context.Context, userID uint, since time.Time, limit, offset int) ([]models.Meal, error) {
	q := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID)
	if !since.IsZero() {
		q = q.Where("logged_at >= ?", since)
	}

	var meals []models.Meal
	err := q.
		Order("logged_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&meals).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return meals, nil
}

func (r *mealRepository) Delete(ctx context.Context, tx *gorm.DB, meal *models.Meal) error {
	if err := r.handle(tx).WithContext(ctx).Delete(meal).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
