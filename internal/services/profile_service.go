package services

import (
	"context"
	"errors"
	"sort"

	"github.com/fitsbi/fitsbi-backend/internal/models"
	"github.com/fitsbi/fitsbi-backend/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProfileService struct {
	db          *pgxpool.Pool
	profileRepo *repository.UserProfileRepository
}

func NewProfileService(db *pgxpool.Pool, profileRepo *repository.UserProfileRepository) *ProfileService {
	return &ProfileService{
		db:          db,
		profileRepo: profileRepo,
	}
}

// ApplyUpdate merges a partial field update into the user's profile. Each
// proposed field is validated independently: well-shaped fields are applied,
// the rest are reported back by name, so one bad field never blocks the
// others. The read, merge, completion recompute, and write run as one
// transaction with the profile row locked, keeping the stored completion
// consistent with the fields that produced it.
func (s *ProfileService) ApplyUpdate(
	ctx context.Context,
	userID string,
	updates map[string]any,
) (*models.UserProfile, []string, error) {
	if len(updates) == 0 {
		return nil, nil, ErrInvalidInput
	}

	accepted, rejected := splitFieldUpdates(updates)

	if len(accepted) == 0 {
		profile, err := s.GetProfile(ctx, userID)
		if err != nil {
			return nil, nil, err
		}
		return profile, rejected, nil
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, nil, storeErr(err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txProfileRepo := repository.NewUserProfileRepository(tx)

	current, err := txProfileRepo.GetByUserIDForUpdate(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, storeErr(err)
	}

	merged := mergeProfileFields(current.Fields, accepted)
	completion, onboardingCompleted := ProfileCompletion(merged)

	profile, err := txProfileRepo.SaveMerged(ctx, userID, merged, completion, onboardingCompleted)
	if err != nil {
		return nil, nil, storeErr(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, storeErr(err)
	}

	return profile, rejected, nil
}

func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, storeErr(err)
	}
	return profile, nil
}

// IncompleteFields returns the canonical-order descriptions of tracked fields
// the user has not filled in yet. A fully onboarded profile yields an empty
// slice, not an error.
func (s *ProfileService) IncompleteFields(ctx context.Context, userID string) ([]string, error) {
	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return IncompleteFieldDescriptions(profile.Fields), nil
}

// splitFieldUpdates validates each proposed field against the canonical
// registry. Unknown field names and wrong-shaped values are rejected; the
// rest pass through unchanged.
func splitFieldUpdates(updates map[string]any) (map[string]any, []string) {
	accepted := make(map[string]any, len(updates))
	rejected := make([]string, 0)

	for name, value := range updates {
		field, known := trackedFieldsByName[name]
		if !known || !validFieldValue(field, value) {
			rejected = append(rejected, name)
			continue
		}
		accepted[name] = value
	}

	sort.Strings(rejected)
	return accepted, rejected
}

/// mergeProfileFields performs the shallow last-writer-wins merge: each
// top-level field in updates replaces the current value wholesale. The input
// maps are left untouched.
func mergeProfileFields(current map[string]any, updates map[string]any) map[string]any {
	merged := make(map[string]any, len(current)+len(updates))
	for name, value := range current {
		merged[name] = value
	}
	for name, value := range updates {
		merged[name] = value
	}
	return merged
}
