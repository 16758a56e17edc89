package repository

import (
	"context"

	"github.com/fitsbi/fitsbi-backend/internal/models"
)

type UserSummaryRepository struct {
	db DBTX
}

func NewUserSummaryRepository(db DBTX) *UserSummaryRepository {
	return &UserSummaryRepository{db: db}
}

// Save replaces the user's singleton summary. The version bump happens inside
// the upsert itself, so two concurrent saves can never observe the same prior
// version: the first insert lands at version 1, every later save increments
// whatever is committed at that moment.
func (r *UserSummaryRepository) Save(ctx context.Context, summary *models.UserSummary) error {
	id, err := parseID(summary.UserID)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO user_summaries
			(user_id, overall_summary, recent_patterns, health_trends,
			 goals_progress, recommendations, version, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, 1, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET overall_summary = EXCLUDED.overall_summary,
		    recent_patterns = EXCLUDED.recent_patterns,
		    health_trends = EXCLUDED.health_trends,
		    goals_progress = EXCLUDED.goals_progress,
		    recommendations = EXCLUDED.recommendations,
		    version = user_summaries.version + 1,
		    last_updated = NOW()
		RETURNING version, last_updated
	`
	return r.db.QueryRow(ctx, query,
		id,
		summary.OverallSummary,
		summary.RecentPatterns,
		summary.HealthTrends,
		summary.GoalsProgress,
		summary.Recommendations,
	).Scan(&summary.Version, &summary.LastUpdated)
}

func (r *UserSummaryRepository) GetByUserID(ctx context.Context, userID string) (*models.UserSummary, error) {
	id, err := parseID(userID)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT user_id, overall_summary, recent_patterns, health_trends,
		       goals_progress, recommendations, version, last_updated
		FROM user_summaries
		WHERE user_id = $1
	`
	var summary models.UserSummary
	var scannedID int64
	err = r.db.QueryRow(ctx, query, id).Scan(
		&scannedID,
		&summary.OverallSummary,
		&summary.RecentPatterns,
		&summary.HealthTrends,
		&summary.GoalsProgress,
		&summary.Recommendations,
		&summary.Version,
		&summary.LastUpdated,
	)
	if err != nil {
		return nil, err
	}
	summary.UserID = formatID(scannedID)
	return &summary, nil
}
