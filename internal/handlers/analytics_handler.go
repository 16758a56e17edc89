package handlers

import (
	"context"

	"github.com/fitsbi/fitsbi-backend/internal/models"
	"github.com/gofiber/fiber/v2"
)

type analyticsApplicationService interface {
	ConversationStats(ctx context.Context, userID string, windowDays int) ([]models.ConversationDayStat, error)
}

type AnalyticsHandler struct {
	service analyticsApplicationService
}

func NewAnalyticsHandler(service analyticsApplicationService) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

// GetConversationStats returns per-day message counts over the trailing
// window, ascending by day. Days with no messages are omitted.
func (h *AnalyticsHandler) GetConversationStats(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	days := parsePositiveInt(c.Query("days"), 0)

	stats, err := h.service.ConversationStats(c.Context(), userID, days)
	if err != nil {
		return mapServiceError(c, err, "Failed to fetch conversation stats")
	}

	return c.JSON(fiber.Map{"stats": stats})
}
