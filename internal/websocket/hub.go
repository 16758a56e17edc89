package chatws

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/fitsbi/fitsbi-backend/internal/models"
	"github.com/fitsbi/fitsbi-backend/internal/services"
	websocket "github.com/gofiber/contrib/websocket"
)

type Hub struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan *envelope
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	send   chan []byte
}

type sender interface {
	SendMessage(ctx context.Context, userID string, content string) (*services.ChatTurn, error)
}

// Event is the wire shape of everything pushed to a connected client.
type Event struct {
	Type          string              `json:"type"`
	Message       *models.ChatMessage `json:"message,omitempty"`
	Profile       *models.UserProfile `json:"profile,omitempty"`
	AppliedFields []string            `json:"applied_fields,omitempty"`
	Error         string              `json:"error,omitempty"`
	Timestamp     string              `json:"timestamp"`
}

type envelope struct {
	userID string
	event  *Event
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *envelope, 64),
	}
}

func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, 32),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			set, ok := h.clients[client.userID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.userID] = set
			}
			set[client] = struct{}{}
		case client := <-h.unregister:
			set, ok := h.clients[client.userID]
			if !ok {
				continue
			}
			if _, exists := set[client]; exists {
				delete(set, client)
				close(client.send)
			}
			if len(set) == 0 {
				delete(h.clients, client.userID)
			}
		case delivery := <-h.broadcast:
			h.deliver(delivery)
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// NotifyMessage pushes a freshly logged assistant message to the user's
// connections. Implements services.ChatNotifier.
func (h *Hub) NotifyMessage(userID string, message *models.ChatMessage) {
	h.publish(userID, &Event{
		Type:      "message",
		Message:   message,
		Timestamp: services.FormatChatTimestamp(time.Now()),
	})
}

// NotifyProfileUpdate tells the user's connections which extracted fields
// just landed in their profile.
func (h *Hub) NotifyProfileUpdate(userID string, profile *models.UserProfile, appliedFields []string) {
	h.publish(userID, &Event{
		Type:          "profile_update",
		Profile:       profile,
		AppliedFields: appliedFields,
		Timestamp:     services.FormatChatTimestamp(time.Now()),
	})
}

func (h *Hub) publish(userID string, event *Event) {
	select {
	case h.broadcast <- &envelope{userID: userID, event: event}:
	default:
		log.Printf("chat hub: dropping event for user %s, broadcast queue full", userID)
	}
}

func (h *Hub) deliver(delivery *envelope) {
	encoded, err := json.Marshal(delivery.event)
	if err != nil {
		log.Printf("chat hub encode event: %v", err)
		return
	}
	h.sendToUser(delivery.userID, encoded)
}

func (h *Hub) sendToUser(userID string, payload []byte) {
	set, ok := h.clients[userID]
	if !ok {
		return
	}

	for client := range set {
		select {
		case client.send <- payload:
		default:
			delete(set, client)
			close(client.send)
		}
	}
	if len(set) == 0 {
		delete(h.clients, userID)
	}
}

// ReadPump drives one connection: each incoming message runs a full guided
// chat turn through the service, which in turn publishes the assistant reply
// (and any profile update) back through the hub.
func (c *Client) ReadPump(service sender) {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var incoming struct {
			Type    string `json:"type"`
			Content string `json:"content"`
		}
		if err := json.Unmarshal(payload, &incoming); err != nil {
			writeError(c, "invalid message payload")
			continue
		}
		if incoming.Type != "message" {
			writeError(c, "unsupported message type")
			continue
		}

		if _, err := service.SendMessage(context.Background(), c.userID, incoming.Content); err != nil {
			writeError(c, "failed to process message")
			continue
		}
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

func writeError(client *Client, message string) {
	payload, err := json.Marshal(Event{
		Type:      "error",
		Error:     message,
		Timestamp: services.FormatChatTimestamp(time.Now()),
	})
	if err != nil {
		return
	}
	select {
	case client.send <- payload:
	default:
		client.hub.Unregister(client)
	}
}
