package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fitsbi/fitsbi-backend/internal/models"
	"github.com/jackc/pgx/v5"
)

type DailySummaryRepository struct {
	db DBTX
}

func NewDailySummaryRepository(db DBTX) *DailySummaryRepository {
	return &DailySummaryRepository{db: db}
}

// Upsert stores a summary keyed by (user, day). An existing record for the
// same key is replaced in full, so repeating the same call is idempotent.
func (r *DailySummaryRepository) Upsert(ctx context.Context, summary *models.DailySummary) error {
	id, err := parseID(summary.UserID)
	if err != nil {
		return err
	}

	activities, err := json.Marshal(summary.KeyActivities)
	if err != nil {
		return fmt.Errorf("encode key activities: %w", err)
	}
	updates, err := json.Marshal(summary.DataUpdates)
	if err != nil {
		return fmt.Errorf("encode data updates: %w", err)
	}

	query := `
		INSERT INTO daily_summaries
			(user_id, date, summary_text, key_activities, conversation_count, data_updates)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, date) DO UPDATE
		SET summary_text = EXCLUDED.summary_text,
		    key_activities = EXCLUDED.key_activities,
		    conversation_count = EXCLUDED.conversation_count,
		    data_updates = EXCLUDED.data_updates,
		    created_at = NOW()
		RETURNING created_at
	`
	return r.db.QueryRow(ctx, query,
		id,
		summary.Date,
		summary.SummaryText,
		activities,
		summary.ConversationCount,
		updates,
	).Scan(&summary.CreatedAt)
}

func (r *DailySummaryRepository) GetByDay(
	ctx context.Context,
	userID string,
	day time.Time,
) (*models.DailySummary, error) {
	id, err := parseID(userID)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT user_id, date, summary_text, key_activities, conversation_count, data_updates, created_at
		FROM daily_summaries
		WHERE user_id = $1 AND date = $2
	`
	return r.scanSummaryRow(r.db.QueryRow(ctx, query, id, day))
}

// ListRecent returns summaries with day >= since, newest first, capped at limit.
func (r *DailySummaryRepository) ListRecent(
	ctx context.Context,
	userID string,
	since time.Time,
	limit int,
) ([]models.DailySummary, error) {
	id, err := parseID(userID)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT user_id, date, summary_text, key_activities, conversation_count, data_updates, created_at
		FROM daily_summaries
		WHERE user_id = $1 AND date >= $2
		ORDER BY date DESC
		LIMIT $3
	`
	rows, err := r.db.Query(ctx, query, id, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]models.DailySummary, 0)
	for rows.Next() {
		summary, err := r.scanSummaryRow(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, *summary)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return summaries, nil
}

func (r *DailySummaryRepository) scanSummaryRow(row pgx.Row) (*models.DailySummary, error) {
	var summary models.DailySummary
	var id int64
	var rawActivities, rawUpdates []byte
	err := row.Scan(
		&id,
		&summary.Date,
		&summary.SummaryText,
		&rawActivities,
		&summary.ConversationCount,
		&rawUpdates,
		&summary.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	summary.UserID = formatID(id)
	summary.Date = summary.Date.UTC()
	summary.KeyActivities = make([]string, 0)
	if len(rawActivities) > 0 {
		if err := json.Unmarshal(rawActivities, &summary.KeyActivities); err != nil {
			return nil, fmt.Errorf("decode key activities: %w", err)
		}
	}
	summary.DataUpdates = make(map[string]any)
	if len(rawUpdates) > 0 {
		if err := json.Unmarshal(rawUpdates, &summary.DataUpdates); err != nil {
			return nil, fmt.Errorf("decode data updates: %w", err)
		}
	}
	return &summary, nil
}
