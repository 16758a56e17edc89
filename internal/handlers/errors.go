package handlers

import (
	"errors"
	"strconv"

	"github.com/fitsbi/fitsbi-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

// mapServiceError translates the service error taxonomy into HTTP responses.
// fallback is the message used for unrecognized errors.
func mapServiceError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	case errors.Is(err, services.ErrSummaryNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Summary not found"})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, services.ErrNothingToSummarize):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "No conversations to summarize"})
	case errors.Is(err, services.ErrAssistantUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Assistant is not configured"})
	case errors.Is(err, services.ErrStoreUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Storage temporarily unavailable"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": fallback})
	}
}

func currentUserID(c *fiber.Ctx) (string, bool) {
	userID, ok := c.Locals("user_id").(string)
	return userID, ok && userID != ""
}

func parsePositiveInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
