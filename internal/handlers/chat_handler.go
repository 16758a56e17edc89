package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/fitsbi/fitsbi-backend/internal/models"
	"github.com/fitsbi/fitsbi-backend/internal/services"
	chatws "github.com/fitsbi/fitsbi-backend/internal/websocket"
	"github.com/fitsbi/fitsbi-backend/pkg/utils"
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type chatApplicationService interface {
	SendMessage(ctx context.Context, userID string, content string) (*services.ChatTurn, error)
	History(ctx context.Context, userID string, limit int, daysBack int) ([]models.ChatMessage, error)
}

type ChatHandler struct {
	service   chatApplicationService
	hub       *chatws.Hub
	jwtSecret string
}

type sendMessageRequest struct {
	Message string `json:"message"`
}

func NewChatHandler(service chatApplicationService, hub *chatws.Hub, jwtSecret string) *ChatHandler {
	return &ChatHandler{
		service:   service,
		hub:       hub,
		jwtSecret: jwtSecret,
	}
}

func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req sendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	turn, err := h.service.SendMessage(c.Context(), userID, req.Message)
	if err != nil {
		return mapServiceError(c, err, "Failed to process message")
	}

	return c.JSON(turn)
}

func (h *ChatHandler) GetHistory(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	limit := parsePositiveInt(c.Query("limit"), 0)
	daysBack := parsePositiveInt(c.Query("days"), 0)

	messages, err := h.service.History(c.Context(), userID, limit, daysBack)
	if err != nil {
		return mapServiceError(c, err, "Failed to fetch chat history")
	}

	return c.JSON(fiber.Map{"messages": messages})
}

// WebSocketAuth authenticates the upgrade request. Browsers cannot set
// headers on websocket connects, so a token query parameter is accepted
// alongside the usual Authorization header.
func (h *ChatHandler) WebSocketAuth(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{"error": "WebSocket upgrade required"})
	}

	claims, err := h.parseWSClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
	}

	c.Locals("user_id", claims.UserID)
	return c.Next()
}

func (h *ChatHandler) HandleWebSocket(conn *websocket.Conn) {
	userID, _ := conn.Locals("user_id").(string)
	client := chatws.NewClient(h.hub, conn, userID)

	h.hub.Register(client)
	go client.WritePump()
	client.ReadPump(h.service)
}

func (h *ChatHandler) parseWSClaims(c *fiber.Ctx) (*utils.Claims, error) {
	tokenString := strings.TrimSpace(c.Query("token"))
	if tokenString == "" {
		authHeader := strings.TrimSpace(c.Get("Authorization"))
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}
	}

	if tokenString == "" {
		return nil, errors.New("missing token")
	}

	return utils.ValidateToken(tokenString, h.jwtSecret)
}
