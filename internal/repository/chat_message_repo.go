package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fitsbi/fitsbi-backend/internal/models"
	"github.com/jackc/pgx/v5"
)

type ChatMessageRepository struct {
	db DBTX
}

func NewChatMessageRepository(db DBTX) *ChatMessageRepository {
	return &ChatMessageRepository{db: db}
}

// Append inserts one message into the per-user conversation log. The log is
// append-only; nothing in this repository updates or deletes messages.
func (r *ChatMessageRepository) Append(
	ctx context.Context,
	userID string,
	role string,
	content string,
	messageType string,
	extractedData map[string]any,
) (*models.ChatMessage, error) {
	id, err := parseID(userID)
	if err != nil {
		return nil, err
	}

	var encoded []byte
	if len(extractedData) > 0 {
		encoded, err = json.Marshal(extractedData)
		if err != nil {
			return nil, fmt.Errorf("encode extracted data: %w", err)
		}
	}

	query := `
		INSERT INTO chat_messages (user_id, role, content, message_type, extracted_data)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, role, content, message_type, extracted_data, created_at
	`
	return r.scanMessage(r.db.QueryRow(ctx, query, id, role, content, messageType, encoded))
}

// ListRecent returns up to limit messages in chronological order. A positive
// daysBack restricts the window to messages newer than now minus daysBack.
func (r *ChatMessageRepository) ListRecent(
	ctx context.Context,
	userID string,
	limit int,
	daysBack int,
) ([]models.ChatMessage, error) {
	id, err := parseID(userID)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, user_id, role, content, message_type, extracted_data, created_at
		FROM chat_messages
		WHERE user_id = $1
	`
	args := []any{id}
	if daysBack > 0 {
		query += ` AND created_at >= $2`
		args = append(args, time.Now().UTC().AddDate(0, 0, -daysBack))
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages, err := r.collectMessages(rows)
	if err != nil {
		return nil, err
	}

	// Newest-first from the store, chronological for the caller.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// ListForDay returns the messages logged within [dayStart, dayStart+24h) in
// chronological order.
func (r *ChatMessageRepository) ListForDay(
	ctx context.Context,
	userID string,
	dayStart time.Time,
) ([]models.ChatMessage, error) {
	id, err := parseID(userID)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, user_id, role, content, message_type, extracted_data, created_at
		FROM chat_messages
		WHERE user_id = $1
		  AND created_at >= $2
		  AND created_at < $3
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query, id, dayStart, dayStart.Add(24*time.Hour))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.collectMessages(rows)
}

// DayStats groups the user's messages by UTC calendar day from since onwards.
// Days without any message produce no row.
func (r *ChatMessageRepository) DayStats(
	ctx context.Context,
	userID string,
	since time.Time,
) ([]models.ConversationDayStat, error) {
	id, err := parseID(userID)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT date_trunc('day', created_at AT TIME ZONE 'UTC') AS day,
		       COUNT(*) AS message_count,
		       COUNT(*) FILTER (WHERE role = 'user') AS user_messages
		FROM chat_messages
		WHERE user_id = $1
		  AND created_at >= $2
		GROUP BY day
		ORDER BY day ASC
	`
	rows, err := r.db.Query(ctx, query, id, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := make([]models.ConversationDayStat, 0)
	for rows.Next() {
		var stat models.ConversationDayStat
		if err := rows.Scan(&stat.Day, &stat.MessageCount, &stat.UserMessageCount); err != nil {
			return nil, err
		}
		stat.Day = stat.Day.UTC()
		stats = append(stats, stat)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *ChatMessageRepository) collectMessages(rows pgx.Rows) ([]models.ChatMessage, error) {
	messages := make([]models.ChatMessage, 0)
	for rows.Next() {
		var message models.ChatMessage
		var id, userID int64
		var rawExtracted []byte
		if err := rows.Scan(
			&id,
			&userID,
			&message.Role,
			&message.Content,
			&message.MessageType,
			&rawExtracted,
			&message.CreatedAt,
		); err != nil {
			return nil, err
		}
		message.ID = formatID(id)
		message.UserID = formatID(userID)
		if len(rawExtracted) > 0 {
			if err := json.Unmarshal(rawExtracted, &message.ExtractedData); err != nil {
				return nil, fmt.Errorf("decode extracted data: %w", err)
			}
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *ChatMessageRepository) scanMessage(row pgx.Row) (*models.ChatMessage, error) {
	var message models.ChatMessage
	var id, userID int64
	var rawExtracted []byte
	err := row.Scan(
		&id,
		&userID,
		&message.Role,
		&message.Content,
		&message.MessageType,
		&rawExtracted,
		&message.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	message.ID = formatID(id)
	message.UserID = formatID(userID)
	if len(rawExtracted) > 0 {
		if err := json.Unmarshal(rawExtracted, &message.ExtractedData); err != nil {
			return nil, fmt.Errorf("decode extracted data: %w", err)
		}
	}
	return &message, nil
}
