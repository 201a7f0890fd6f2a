package server

import (
	"freshplate/internal/analyzer"
	"freshplate/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GenerateInsights handles POST /api/insights/generate
func (s *Server) GenerateInsights(c *fiber.Ctx) error {
	insights, err := s.insightService.GenerateInsights(c.Context(), currentUserID(c))
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"insights": insights})
}

// GetInsights handles GET /api/insights?unread=true
func (s *Server) GetInsights(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	unreadOnly := c.QueryBool("unread", false)

	insights, err := s.insightService.ListInsights(c.Context(), currentUserID(c), unreadOnly, page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	unreadCount, err := s.insightService.CountUnread(c.Context(), currentUserID(c))
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	return c.JSON(fiber.Map{
		"insights":     insights,
		"unread_count": unreadCount,
	})
}

// Chat handles POST /api/chat
func (s *Server) Chat(c *fiber.Ctx) error {
	var req struct {
		Message string                 `json:"message"`
		History []analyzer.ChatMessage `json:"history"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	response, err := s.insightService.Chat(c.Context(), currentUserID(c), req.Message, req.History)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}
	return c.JSON(fiber.Map{"response": response})
}

// MarkInsightRead handles POST /api/insights/:id/read
func (s *Server) MarkInsightRead(c *fiber.Ctx) error {
	insightID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.insightService.MarkRead(c.Context(), currentUserID(c), insightID); err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}
	return c.JSON(fiber.Map{"message": "Insight marked as read"})
}
