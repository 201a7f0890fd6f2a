package server

import (
	"freshplate/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// sessionIDParam validates the :sessionID route parameter as a UUID.
func sessionIDParam(c *fiber.Ctx) (string, error) {
	sessionID := c.Params("sessionID")
	if _, err := uuid.Parse(sessionID); err != nil {
		return "", models.NewFieldValidationError("sessionID", "invalid session ID")
	}
	return sessionID, nil
}

// SaveScan handles POST /api/saved-items/:sessionID
func (s *Server) SaveScan(c *fiber.Ctx) error {
	sessionID, err := sessionIDParam(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	item, saveErr := s.savedService.SaveScan(c.Context(), currentUserID(c), sessionID)
	if saveErr != nil {
		return models.RespondWithError(c, models.StatusForError(saveErr), saveErr)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// GetSavedItems handles GET /api/saved-items
func (s *Server) GetSavedItems(c *fiber.Ctx) error {
	page := parsePagination(c, 20)

	items, err := s.savedService.ListSaved(c.Context(), currentUserID(c), page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}
	return c.JSON(fiber.Map{"items": items})
}

// GetUsableItems handles GET /api/saved-items/usable?min_freshness=30
func (s *Server) GetUsableItems(c *fiber.Ctx) error {
	minFreshness := c.QueryFloat("min_freshness", 30)

	items, err := s.savedService.ListUsable(c.Context(), currentUserID(c), minFreshness)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}
	return c.JSON(fiber.Map{"items": items})
}

// ConsumeSavedItem handles POST /api/saved-items/:sessionID/consume
func (s *Server) ConsumeSavedItem(c *fiber.Ctx) error {
	sessionID, err := sessionIDParam(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	if err := s.savedService.MarkConsumed(c.Context(), currentUserID(c), sessionID); err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}
	return c.JSON(fiber.Map{"message": "Item marked as consumed"})
}

// DeleteSavedItem handles DELETE /api/saved-items/:sessionID
func (s *Server) DeleteSavedItem(c *fiber.Ctx) error {
	sessionID, err := sessionIDParam(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	if err := s.savedService.RemoveSaved(c.Context(), currentUserID(c), sessionID); err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}
	return c.JSON(fiber.Map{"message": "Item removed"})
}
