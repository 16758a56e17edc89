package services

import (
	"context"
	"time"

	"github.com/fitsbi/fitsbi-backend/internal/models"
)

const defaultStatsWindowDays = 30

type dayStatsReader interface {
	DayStats(ctx context.Context, userID string, since time.Time) ([]models.ConversationDayStat, error)
}

// AnalyticsService answers read-only reporting questions over the chat log.
type AnalyticsService struct {
	statsRepo dayStatsReader
	profiles  profileReader
}

func NewAnalyticsService(statsRepo dayStatsReader, profiles profileReader) *AnalyticsService {
	return &AnalyticsService{
		statsRepo: statsRepo,
		profiles:  profiles,
	}
}

// ConversationStats groups the user's messages by UTC calendar day over the
// trailing window, ascending by day. Days without messages are simply absent;
// callers wanting a dense series gap-fill on their side.
func (s *AnalyticsService) ConversationStats(
	ctx context.Context,
	userID string,
	windowDays int,
) ([]models.ConversationDayStat, error) {
	if _, err := s.profiles.GetProfile(ctx, userID); err != nil {
		return nil, err
	}

	if windowDays <= 0 {
		windowDays = defaultStatsWindowDays
	}
	since := time.Now().UTC().AddDate(0, 0, -windowDays)

	stats, err := s.statsRepo.DayStats(ctx, userID, since)
	if err != nil {
		return nil, storeErr(err)
	}
	return stats, nil
}
