package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fitsbi/fitsbi-backend/internal/models"
	"github.com/jackc/pgx/v5"
)

type UserProfileRepository struct {
	db DBTX
}

func NewUserProfileRepository(db DBTX) *UserProfileRepository {
	return &UserProfileRepository{db: db}
}

func (r *UserProfileRepository) CreateEmpty(ctx context.Context, userID string) error {
	id, err := parseID(userID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO user_profiles (user_id) VALUES ($1)`, id)
	return err
}

func (r *UserProfileRepository) GetByUserID(ctx context.Context, userID string) (*models.UserProfile, error) {
	id, err := parseID(userID)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT user_id, fields, profile_completion, onboarding_completed,
		       last_profile_update, created_at, updated_at
		FROM user_profiles
		WHERE user_id = $1
	`
	return r.scanProfile(r.db.QueryRow(ctx, query, id))
}

// GetByUserIDForUpdate reads the profile holding a row lock, so a concurrent
// merge for the same user waits until the surrounding transaction finishes.
func (r *UserProfileRepository) GetByUserIDForUpdate(ctx context.Context, userID string) (*models.UserProfile, error) {
	id, err := parseID(userID)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT user_id, fields, profile_completion, onboarding_completed,
		       last_profile_update, created_at, updated_at
		FROM user_profiles
		WHERE user_id = $1
		FOR UPDATE
	`
	return r.scanProfile(r.db.QueryRow(ctx, query, id))
}

// SaveMerged persists an already merged field map together with the derived
// completion state in a single statement, so the stored completion can never
// drift from the fields that produced it.
func (r *UserProfileRepository) SaveMerged(
	ctx context.Context,
	userID string,
	fields map[string]any,
	completion float64,
	onboardingCompleted bool,
) (*models.UserProfile, error) {
	id, err := parseID(userID)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode profile fields: %w", err)
	}

	query := `
		UPDATE user_profiles
		SET fields = $1,
		    profile_completion = $2,
		    onboarding_completed = $3,
		    last_profile_update = NOW(),
		    updated_at = NOW()
		WHERE user_id = $4
		RETURNING user_id, fields, profile_completion, onboarding_completed,
		          last_profile_update, created_at, updated_at
	`
	return r.scanProfile(r.db.QueryRow(ctx, query, encoded, completion, onboardingCompleted, id))
}

func (r *UserProfileRepository) scanProfile(row pgx.Row) (*models.UserProfile, error) {
	var profile models.UserProfile
	var id int64
	var rawFields []byte
	err := row.Scan(
		&id,
		&rawFields,
		&profile.ProfileCompletion,
		&profile.OnboardingCompleted,
		&profile.LastProfileUpdate,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	profile.UserID = formatID(id)
	profile.Fields = make(map[string]any)
	if len(rawFields) > 0 {
		if err := json.Unmarshal(rawFields, &profile.Fields); err != nil {
			return nil, fmt.Errorf("decode profile fields: %w", err)
		}
	}
	return &profile, nil
}
