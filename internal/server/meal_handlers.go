package server

import (
	"time"

	"freshplate/internal/models"
	"freshplate/internal/service"
	"freshplate/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// LogMeal handles POST /api/meals
func (s *Server) LogMeal(c *fiber.Ctx) error {
	var req struct {
		MealType    string           `json:"meal_type"`
		FoodName    string           `json:"food_name"`
		Nutrients   models.Nutrients `json:"nutrients"`
		Micros      map[string]any   `json:"micros"`
		ServingSize string           `json:"serving_size"`
		Quantity    float64          `json:"quantity"`
		ImageURL    string           `json:"image_url"`
		LoggedAt    *time.Time       `json:"logged_at"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	input := service.LogMealInput{
		UserID:      currentUserID(c),
		MealType:    req.MealType,
		FoodName:    req.FoodName,
		Nutrients:   req.Nutrients,
		Micros:      req.Micros,
		ServingSize: req.ServingSize,
		Quantity:    req.Quantity,
		ImageURL:    req.ImageURL,
	}
	if req.LoggedAt != nil {
		input.LoggedAt = *req.LoggedAt
	}

	result, err := s.mealService.LogMeal(c.Context(), input)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

// AddScanToMeal handles POST /api/scan/:sessionID/add-to-meal
func (s *Server) AddScanToMeal(c *fiber.Ctx) error {
	sessionID := c.Params("sessionID")
	if _, err := uuid.Parse(sessionID); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewFieldValidationError("sessionID", "invalid session ID"))
	}

	var req struct {
		MealType    string     `json:"meal_type"`
		Quantity    float64    `json:"quantity"`
		WeightGrams float64    `json:"weight_grams"`
		LoggedAt    *time.Time `json:"logged_at"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	input := service.AddScanToMealInput{
		UserID:      currentUserID(c),
		SessionID:   sessionID,
		MealType:    req.MealType,
		Quantity:    req.Quantity,
		WeightGrams: req.WeightGrams,
	}
	if req.LoggedAt != nil {
		input.LoggedAt = *req.LoggedAt
	}

	result, err := s.mealService.AddScanToMeal(c.Context(), input)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

// GetMeals handles GET /api/meals?period=today|week|month|year|all
func (s *Server) GetMeals(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	period := c.Query("period", "all")

	meals, err := s.mealService.ListMeals(c.Context(), currentUserID(c), period, page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	return c.JSON(fiber.Map{"meals": meals})
}

// DeleteMeal handles DELETE /api/meals/:id
func (s *Server) DeleteMeal(c *fiber.Ctx) error {
	mealID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	totals, delErr := s.mealService.DeleteMeal(c.Context(), currentUserID(c), mealID)
	if delErr != nil {
		return models.RespondWithError(c, models.StatusForError(delErr), delErr)
	}

	return c.JSON(fiber.Map{
		"message":      "Meal deleted",
		"daily_totals": totals,
	})
}

// GetTodaySummary handles GET /api/meals/today-summary
func (s *Server) GetTodaySummary(c *fiber.Ctx) error {
	day, err := s.parseDayQuery(c, "date")
	if err != nil {
		return nil
	}

	summary, sumErr := s.mealService.GetDailySummary(c.Context(), currentUserID(c), day)
	if sumErr != nil {
		return models.RespondWithError(c, models.StatusForError(sumErr), sumErr)
	}

	return c.JSON(summary)
}

// GetDailyAggregate handles GET /api/daily-aggregates/:date
func (s *Server) GetDailyAggregate(c *fiber.Ctx) error {
	day, err := validation.ParseDayDate(c.Params("date"))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewFieldValidationError("date", err.Error()))
	}

	summary, sumErr := s.mealService.GetDailySummary(c.Context(), currentUserID(c), day)
	if sumErr != nil {
		return models.RespondWithError(c, models.StatusForError(sumErr), sumErr)
	}

	return c.JSON(summary)
}

// GetDailyAggregates handles GET /api/daily-aggregates?from=...&to=...
func (s *Server) GetDailyAggregates(c *fiber.Ctx) error {
	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("from and to query parameters are required"))
	}

	from, err := validation.ParseDayDate(fromStr)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewFieldValidationError("from", err.Error()))
	}
	to, err := validation.ParseDayDate(toStr)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewFieldValidationError("to", err.Error()))
	}

	views, rangeErr := s.mealService.GetAggregateRange(c.Context(), currentUserID(c), from, to)
	if rangeErr != nil {
		return models.RespondWithError(c, models.StatusForError(rangeErr), rangeErr)
	}

	return c.JSON(fiber.Map{"aggregates": views})
}
