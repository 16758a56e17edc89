package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fitsbi/fitsbi-backend/internal/models"
	"github.com/fitsbi/fitsbi-backend/internal/services"
	chatws "github.com/fitsbi/fitsbi-backend/internal/websocket"
	"github.com/gofiber/fiber/v2"
)

type stubChatService struct {
	turn       *services.ChatTurn
	sendErr    error
	history    []models.ChatMessage
	historyErr error
	lastLimit  int
	lastDays   int
	lastSent   string
}

func (s *stubChatService) SendMessage(_ context.Context, _ string, content string) (*services.ChatTurn, error) {
	s.lastSent = content
	return s.turn, s.sendErr
}

func (s *stubChatService) History(_ context.Context, _ string, limit int, daysBack int) ([]models.ChatMessage, error) {
	s.lastLimit = limit
	s.lastDays = daysBack
	return s.history, s.historyErr
}

func newChatTestApp(service *stubChatService, userID string) *fiber.App {
	handler := NewChatHandler(service, chatws.NewHub(), "secret")

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", userID)
		return c.Next()
	})
	app.Post("/chat/messages", handler.SendMessage)
	app.Get("/chat/messages", handler.GetHistory)
	return app
}

func TestSendMessageReturnsChatTurn(t *testing.T) {
	service := &stubChatService{turn: &services.ChatTurn{
		UserMessage: &models.ChatMessage{
			ID: "m1", UserID: "7", Role: models.RoleUser, Content: "I'm 30",
			CreatedAt: time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
		},
		AssistantMessage: &models.ChatMessage{
			ID: "m2", UserID: "7", Role: models.RoleAssistant, Content: "Noted!",
		},
		AppliedFields:  []string{"age"},
		RejectedFields: []string{},
	}}
	app := newChatTestApp(service, "7")

	req := httptest.NewRequest(http.MethodPost, "/chat/messages", strings.NewReader(`{"message": "I'm 30"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body services.ChatTurn
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.AssistantMessage == nil || body.AssistantMessage.Content != "Noted!" {
		t.Fatalf("expected assistant reply in body, got %+v", body.AssistantMessage)
	}
	if len(body.AppliedFields) != 1 || body.AppliedFields[0] != "age" {
		t.Fatalf("expected applied fields [age], got %v", body.AppliedFields)
	}
	if service.lastSent != "I'm 30" {
		t.Fatalf("expected message passed to service, got %q", service.lastSent)
	}
}

func TestSendMessageWithoutAssistantIsServiceUnavailable(t *testing.T) {
	service := &stubChatService{sendErr: services.ErrAssistantUnavailable}
	app := newChatTestApp(service, "7")

	req := httptest.NewRequest(http.MethodPost, "/chat/messages", strings.NewReader(`{"message": "hi"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}

func TestGetHistoryPassesWindowParams(t *testing.T) {
	service := &stubChatService{history: []models.ChatMessage{
		{ID: "m1", Role: models.RoleUser, Content: "hello"},
		{ID: "m2", Role: models.RoleAssistant, Content: "hi"},
	}}
	app := newChatTestApp(service, "7")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/chat/messages?limit=10&days=3", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	if service.lastLimit != 10 || service.lastDays != 3 {
		t.Fatalf("expected limit 10 days 3, got %d and %d", service.lastLimit, service.lastDays)
	}

	var body struct {
		Messages []models.ChatMessage `json:"messages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(body.Messages))
	}
}

func TestGetHistoryUnknownUser(t *testing.T) {
	service := &stubChatService{historyErr: services.ErrUserNotFound}
	app := newChatTestApp(service, "404")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/chat/messages", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestWebSocketAuthRequiresUpgrade(t *testing.T) {
	handler := NewChatHandler(&stubChatService{}, chatws.NewHub(), "secret")

	app := fiber.New()
	app.Get("/ws", handler.WebSocketAuth)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ws", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusUpgradeRequired {
		t.Fatalf("expected 426, got %d", resp.StatusCode)
	}
}
