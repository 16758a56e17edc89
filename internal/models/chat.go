package models

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

type ChatMessage struct {
	ID            string         `json:"id"`
	UserID        string         `json:"user_id"`
	Role          string         `json:"role"`
	Content       string         `json:"content"`
	MessageType   string         `json:"message_type"`
	ExtractedData map[string]any `json:"extracted_data,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}
