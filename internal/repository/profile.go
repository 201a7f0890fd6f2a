package repository

import (
	"context"
	"errors"

	"freshplate/internal/cache"
	"freshplate/internal/models"

	"gorm.io/gorm"
)

// ProfileRepository defines persistence operations for health profiles.
type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID uint) (*models.HealthProfile, error)
	Upsert(ctx context.Context, profile *models.HealthProfile) error
}

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository returns a new ProfileRepository implementation.
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID uint) (*models.HealthProfile, error) {
	var profile models.HealthProfile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &profile, nil
}

// Upsert writes the user's single profile row, replacing any existing one.
func (r *profileRepository) Upsert(ctx context.Context, profile *models.HealthProfile) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.HealthProfile
		err := tx.Where("user_id = ?", profile.UserID).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(profile).Error
		case err != nil:
			return err
		default:
			profile.ID = existing.ID
			profile.CreatedAt = existing.CreatedAt
			return tx.Save(profile).Error
		}
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	// Default goal targets derive from the profile, so the cached goal is
	// stale now too.
	cache.InvalidateGoal(ctx, profile.UserID)
	return nil
}
