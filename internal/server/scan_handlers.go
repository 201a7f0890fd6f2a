package server

import (
	"time"

	"freshplate/internal/models"
	"freshplate/internal/service"
	"freshplate/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// CreateScan handles POST /api/scan
func (s *Server) CreateScan(c *fiber.Ctx) error {
	var req struct {
		FoodName  string `json:"food_name"`
		Category  string `json:"category"`
		ImageData string `json:"image_data"`
		ImageURL  string `json:"image_url"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	userID := currentUserID(c)

	// Personalize the analysis with the profile when one exists.
	var profileAttrs map[string]any
	if profile, err := s.profileService.GetProfile(c.Context(), userID); err == nil && profile != nil {
		profileAttrs = map[string]any{
			"has_diabetes":              profile.HasDiabetes,
			"has_blood_pressure_issues": profile.HasBloodPressureIssues,
			"has_heart_issues":          profile.HasHeartIssues,
			"allergies":                 profile.Allergies,
		}
	}

	session, err := s.scanService.CreateScan(c.Context(), service.CreateScanInput{
		UserID:    userID,
		FoodName:  req.FoodName,
		Category:  req.Category,
		ImageData: req.ImageData,
		ImageURL:  req.ImageURL,
		Profile:   profileAttrs,
	})
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	return c.Status(fiber.StatusCreated).JSON(session)
}

// GetScanSession handles GET /api/scan/:sessionID
func (s *Server) GetScanSession(c *fiber.Ctx) error {
	session, err := s.scanService.GetSession(c.Context(), currentUserID(c), c.Params("sessionID"))
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}
	return c.JSON(session)
}

// GetScanHistory handles GET /api/scan/history?since=YYYY-MM-DD
func (s *Server) GetScanHistory(c *fiber.Ctx) error {
	page := parsePagination(c, 20)

	var since time.Time
	if raw := c.Query("since"); raw != "" {
		parsed, err := validation.ParseDayDate(raw)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewFieldValidationError("since", err.Error()))
		}
		since = parsed
	}

	history, err := s.scanService.ListHistory(c.Context(), currentUserID(c), since, page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}
	return c.JSON(history)
}

// DeleteScanSession handles DELETE /api/scan/:sessionID
func (s *Server) DeleteScanSession(c *fiber.Ctx) error {
	if err := s.scanService.DeleteSession(c.Context(), currentUserID(c), c.Params("sessionID")); err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}
	return c.JSON(fiber.Map{"message": "Scan session deleted"})
}
