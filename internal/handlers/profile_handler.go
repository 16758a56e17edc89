package handlers

import (
	"context"

	"github.com/fitsbi/fitsbi-backend/internal/models"
	"github.com/gofiber/fiber/v2"
)

type profileApplicationService interface {
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	ApplyUpdate(ctx context.Context, userID string, updates map[string]any) (*models.UserProfile, []string, error)
	IncompleteFields(ctx context.Context, userID string) ([]string, error)
}

type ProfileHandler struct {
	service profileApplicationService
}

func NewProfileHandler(service profileApplicationService) *ProfileHandler {
	return &ProfileHandler{service: service}
}

func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	profile, err := h.service.GetProfile(c.Context(), userID)
	if err != nil {
		return mapServiceError(c, err, "Failed to fetch profile")
	}

	return c.JSON(fiber.Map{
		"profile":              profile,
		"onboarding_completed": profile.OnboardingCompleted,
	})
}

// UpdateProfile merges a partial field map into the profile. Invalid fields
// are skipped and reported back rather than failing the whole request; only a
// body with zero usable fields is rejected outright.
func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var updates map[string]any
	if err := c.BodyParser(&updates); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	profile, rejected, err := h.service.ApplyUpdate(c.Context(), userID, updates)
	if err != nil {
		return mapServiceError(c, err, "Failed to update profile")
	}
	if rejected == nil {
		rejected = []string{}
	}

	return c.JSON(fiber.Map{
		"profile":              profile,
		"onboarding_completed": profile.OnboardingCompleted,
		"rejected_fields":      rejected,
	})
}

// GetIncompleteFields lists human-readable descriptions of the profile fields
// still missing, in canonical order, for onboarding prompts.
func (h *ProfileHandler) GetIncompleteFields(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	fields, err := h.service.IncompleteFields(c.Context(), userID)
	if err != nil {
		return mapServiceError(c, err, "Failed to fetch incomplete fields")
	}
	if fields == nil {
		fields = []string{}
	}

	return c.JSON(fiber.Map{"incomplete_fields": fields})
}
