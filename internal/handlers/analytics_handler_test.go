package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fitsbi/fitsbi-backend/internal/models"
	"github.com/fitsbi/fitsbi-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type stubAnalyticsService struct {
	stats    []models.ConversationDayStat
	err      error
	lastDays int
}

func (s *stubAnalyticsService) ConversationStats(_ context.Context, _ string, windowDays int) ([]models.ConversationDayStat, error) {
	s.lastDays = windowDays
	return s.stats, s.err
}

func newAnalyticsTestApp(service *stubAnalyticsService, userID string) *fiber.App {
	handler := NewAnalyticsHandler(service)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", userID)
		return c.Next()
	})
	app.Get("/analytics/conversations", handler.GetConversationStats)
	return app
}

func TestGetConversationStatsReturnsDayBuckets(t *testing.T) {
	service := &stubAnalyticsService{stats: []models.ConversationDayStat{
		{Day: time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC), MessageCount: 6, UserMessageCount: 3},
		{Day: time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC), MessageCount: 2, UserMessageCount: 1},
	}}
	app := newAnalyticsTestApp(service, "7")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/analytics/conversations?days=7", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastDays != 7 {
		t.Fatalf("expected window 7, got %d", service.lastDays)
	}

	var body struct {
		Stats []models.ConversationDayStat `json:"stats"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Stats) != 2 {
		t.Fatalf("expected 2 day buckets, got %d", len(body.Stats))
	}
	if body.Stats[0].UserMessageCount != 3 {
		t.Fatalf("expected user message count 3, got %d", body.Stats[0].UserMessageCount)
	}
}

func TestGetConversationStatsUnknownUser(t *testing.T) {
	service := &stubAnalyticsService{err: services.ErrUserNotFound}
	app := newAnalyticsTestApp(service, "404")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/analytics/conversations", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
