package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/fitsbi/fitsbi-backend/internal/models"
	"github.com/fitsbi/fitsbi-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

const dayLayout = "2006-01-02"

type summaryApplicationService interface {
	SaveDailySummary(ctx context.Context, userID string, date time.Time, input services.DailySummaryInput) (*models.DailySummary, error)
	GenerateDailySummary(ctx context.Context, userID string, date time.Time) (*models.DailySummary, error)
	GetDailySummary(ctx context.Context, userID string, date time.Time) (*models.DailySummary, error)
	RecentDailySummaries(ctx context.Context, userID string, days int) ([]models.DailySummary, error)
	SaveUserSummary(ctx context.Context, userID string, content services.UserSummaryContent) (*models.UserSummary, error)
	GenerateUserSummary(ctx context.Context, userID string) (*models.UserSummary, error)
	GetUserSummary(ctx context.Context, userID string) (*models.UserSummary, error)
}

type SummaryHandler struct {
	service summaryApplicationService
}

func NewSummaryHandler(service summaryApplicationService) *SummaryHandler {
	return &SummaryHandler{service: service}
}

// PutDailySummary stores caller-provided digest content for one day. Writing
// the same day twice replaces the earlier digest.
func (h *SummaryHandler) PutDailySummary(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	date, ok := parseDayParam(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid date, expected YYYY-MM-DD"})
	}

	var input services.DailySummaryInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	summary, err := h.service.SaveDailySummary(c.Context(), userID, date, input)
	if err != nil {
		return mapServiceError(c, err, "Failed to save daily summary")
	}

	return c.JSON(fiber.Map{"summary": summary})
}

// GenerateDailySummary digests one day's conversation with the assistant and
// stores the result.
func (h *SummaryHandler) GenerateDailySummary(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	date, ok := parseDayQuery(c, time.Now())
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid date, expected YYYY-MM-DD"})
	}

	summary, err := h.service.GenerateDailySummary(c.Context(), userID, date)
	if err != nil {
		return mapServiceError(c, err, "Failed to generate daily summary")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"summary": summary})
}

func (h *SummaryHandler) GetDailySummary(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	date, ok := parseDayParam(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid date, expected YYYY-MM-DD"})
	}

	summary, err := h.service.GetDailySummary(c.Context(), userID, date)
	if err != nil {
		return mapServiceError(c, err, "Failed to fetch daily summary")
	}

	return c.JSON(fiber.Map{"summary": summary})
}

func (h *SummaryHandler) ListDailySummaries(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	days := parsePositiveInt(c.Query("days"), 0)

	summaries, err := h.service.RecentDailySummaries(c.Context(), userID, days)
	if err != nil {
		return mapServiceError(c, err, "Failed to fetch daily summaries")
	}

	return c.JSON(fiber.Map{"summaries": summaries})
}

// PutUserSummary replaces the cumulative summary with caller-provided
// content; the store bumps the version.
func (h *SummaryHandler) PutUserSummary(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var content services.UserSummaryContent
	if err := c.BodyParser(&content); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	summary, err := h.service.SaveUserSummary(c.Context(), userID, content)
	if err != nil {
		return mapServiceError(c, err, "Failed to save user summary")
	}

	return c.JSON(fiber.Map{"summary": summary})
}

func (h *SummaryHandler) GenerateUserSummary(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	summary, err := h.service.GenerateUserSummary(c.Context(), userID)
	if err != nil {
		return mapServiceError(c, err, "Failed to generate user summary")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"summary": summary})
}

func (h *SummaryHandler) GetUserSummary(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	summary, err := h.service.GetUserSummary(c.Context(), userID)
	if err != nil {
		return mapServiceError(c, err, "Failed to fetch user summary")
	}

	return c.JSON(fiber.Map{"summary": summary})
}

func parseDayParam(c *fiber.Ctx) (time.Time, bool) {
	return parseDay(c.Params("date"))
}

func parseDayQuery(c *fiber.Ctx, fallback time.Time) (time.Time, bool) {
	raw := strings.TrimSpace(c.Query("date"))
	if raw == "" {
		return fallback, true
	}
	return parseDay(raw)
}

func parseDay(raw string) (time.Time, bool) {
	date, err := time.Parse(dayLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, false
	}
	return date, true
}
