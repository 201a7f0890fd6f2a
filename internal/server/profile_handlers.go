package server

import (
	"freshplate/internal/models"
	"freshplate/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetHealthProfile handles GET /api/profile
func (s *Server) GetHealthProfile(c *fiber.Ctx) error {
	profile, err := s.profileService.GetProfile(c.Context(), currentUserID(c))
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}
	if profile == nil {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("HealthProfile", currentUserID(c)))
	}
	return c.JSON(profile)
}

// UpsertHealthProfile handles PUT /api/profile
func (s *Server) UpsertHealthProfile(c *fiber.Ctx) error {
	var req struct {
		Age                    *int           `json:"age"`
		Gender                 string         `json:"gender"`
		HeightCM               *float64       `json:"height_cm"`
		WeightKG               *float64       `json:"weight_kg"`
		HasDiabetes            bool           `json:"has_diabetes"`
		HasBloodPressureIssues bool           `json:"has_blood_pressure_issues"`
		HasHeartIssues         bool           `json:"has_heart_issues"`
		HasGutIssues           bool           `json:"has_gut_issues"`
		OtherChronicDiseases   string         `json:"other_chronic_diseases"`
		Allergies              map[string]any `json:"allergies"`
		IsSmoker               bool           `json:"is_smoker"`
		IsDrinker              bool           `json:"is_drinker"`
		DrinkingFrequency      string         `json:"drinking_frequency"`
		ActivityLevel          string         `json:"activity_level"`
		SleepQuality           string         `json:"sleep_quality"`
		DailyWaterIntakeLiters *float64       `json:"daily_water_intake_liters"`
		EatingHabits           map[string]any `json:"eating_habits"`
		Goals                  map[string]any `json:"goals"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	profile, err := s.profileService.UpsertProfile(c.Context(), service.UpsertProfileInput{
		UserID:                 currentUserID(c),
		Age:                    req.Age,
		Gender:                 req.Gender,
		HeightCM:               req.HeightCM,
		WeightKG:               req.WeightKG,
		HasDiabetes:            req.HasDiabetes,
		HasBloodPressureIssues: req.HasBloodPressureIssues,
		HasHeartIssues:         req.HasHeartIssues,
		HasGutIssues:           req.HasGutIssues,
		OtherChronicDiseases:   req.OtherChronicDiseases,
		Allergies:              req.Allergies,
		IsSmoker:               req.IsSmoker,
		IsDrinker:              req.IsDrinker,
		DrinkingFrequency:      req.DrinkingFrequency,
		ActivityLevel:          req.ActivityLevel,
		SleepQuality:           req.SleepQuality,
		DailyWaterIntakeLiters: req.DailyWaterIntakeLiters,
		EatingHabits:           req.EatingHabits,
		Goals:                  req.Goals,
	})
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	return c.JSON(profile)
}
