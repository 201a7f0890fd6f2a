package server

import (
	"time"

	"freshplate/internal/models"
	"freshplate/internal/service"
	"freshplate/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// SetGoal handles POST /api/goals
func (s *Server) SetGoal(c *fiber.Ctx) error {
	var req struct {
		Daily         models.Nutrients `json:"daily"`
		Reasoning     string           `json:"reasoning"`
		EffectiveFrom string           `json:"effective_from"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	input := service.SetGoalInput{
		UserID:    currentUserID(c),
		Daily:     req.Daily,
		Reasoning: req.Reasoning,
	}
	if req.EffectiveFrom != "" {
		effectiveFrom, err := validation.ParseDayDate(req.EffectiveFrom)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewFieldValidationError("effective_from", err.Error()))
		}
		input.EffectiveFrom = effectiveFrom
	}

	goal, err := s.goalService.SetGoal(c.Context(), input)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	return c.Status(fiber.StatusCreated).JSON(goal)
}

// GenerateGoal handles POST /api/goals/generate
func (s *Server) GenerateGoal(c *fiber.Ctx) error {
	goal, err := s.goalService.GenerateGoal(c.Context(), currentUserID(c))
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}
	return c.Status(fiber.StatusCreated).JSON(goal)
}

// GetCurrentGoal handles GET /api/goals/current?date=...&period=...
func (s *Server) GetCurrentGoal(c *fiber.Ctx) error {
	date := time.Now().In(s.config.Location())
	if dateStr := c.Query("date"); dateStr != "" {
		parsed, err := validation.ParseDayDate(dateStr)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewFieldValidationError("date", err.Error()))
		}
		date = parsed
	}

	goal, targets, err := s.goalService.GetEffectiveGoal(c.Context(), currentUserID(c), date, c.Query("period"))
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	// A zero ID marks a computed default the user never stored.
	return c.JSON(fiber.Map{
		"goal":      goal,
		"targets":   targets,
		"generated": goal.ID == 0,
	})
}

// GetGoalHistory handles GET /api/goals
func (s *Server) GetGoalHistory(c *fiber.Ctx) error {
	page := parsePagination(c, 20)

	goals, err := s.goalService.ListGoals(c.Context(), currentUserID(c), page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}
	return c.JSON(fiber.Map{"goals": goals})
}
