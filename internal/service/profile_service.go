package service

import (
	"context"

	"freshplate/internal/models"
	"freshplate/internal/repository"

	"gorm.io/datatypes"
)

// ProfileService owns the user's single health profile row.
type ProfileService struct {
	profiles repository.ProfileRepository
}

// NewProfileService returns a new ProfileService.
func NewProfileService(profiles repository.ProfileRepository) *ProfileService {
	return &ProfileService{profiles: profiles}
}

type UpsertProfileInput struct {
	UserID                 uint
	Age                    *int
	Gender                 string
	HeightCM               *float64
	WeightKG               *float64
	HasDiabetes            bool
	HasBloodPressureIssues bool
	HasHeartIssues         bool
	HasGutIssues           bool
	OtherChronicDiseases   string
	Allergies              map[string]any
	IsSmoker               bool
	IsDrinker              bool
	DrinkingFrequency      string
	ActivityLevel          string
	SleepQuality           string
	DailyWaterIntakeLiters *float64
	EatingHabits           map[string]any
	Goals                  map[string]any
}

// UpsertProfile replaces the user's profile wholesale. Each user has at most
// one row.
func (s *ProfileService) UpsertProfile(ctx context.Context, input UpsertProfileInput) (*models.HealthProfile, error) {
	if input.Age != nil && (*input.Age < 1 || *input.Age > 130) {
		return nil, models.NewFieldValidationError("age", "age out of range")
	}
	if input.HeightCM != nil && (*input.HeightCM < 30 || *input.HeightCM > 300) {
		return nil, models.NewFieldValidationError("height_cm", "height out of range")
	}
	if input.WeightKG != nil && (*input.WeightKG < 2 || *input.WeightKG > 650) {
		return nil, models.NewFieldValidationError("weight_kg", "weight out of range")
	}

	profile := &models.HealthProfile{
		UserID:                 input.UserID,
		Age:                    input.Age,
		Gender:                 input.Gender,
		HeightCM:               input.HeightCM,
		WeightKG:               input.WeightKG,
		HasDiabetes:            input.HasDiabetes,
		HasBloodPressureIssues: input.HasBloodPressureIssues,
		HasHeartIssues:         input.HasHeartIssues,
		HasGutIssues:           input.HasGutIssues,
		OtherChronicDiseases:   input.OtherChronicDiseases,
		IsSmoker:               input.IsSmoker,
		IsDrinker:              input.IsDrinker,
		DrinkingFrequency:      input.DrinkingFrequency,
		ActivityLevel:          input.ActivityLevel,
		SleepQuality:           input.SleepQuality,
		DailyWaterIntakeLiters: input.DailyWaterIntakeLiters,
	}
	if input.Allergies != nil {
		profile.Allergies = datatypes.JSONMap(input.Allergies)
	}
	if input.EatingHabits != nil {
		profile.EatingHabits = datatypes.JSONMap(input.EatingHabits)
	}
	if input.Goals != nil {
		profile.Goals = datatypes.JSONMap(input.Goals)
	}

	if err := s.profiles.Upsert(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// GetProfile returns the user's profile, or nil when none has been created.
func (s *ProfileService) GetProfile(ctx context.Context, userID uint) (*models.HealthProfile, error) {
	return s.profiles.GetByUserID(ctx, userID)
}
