package services

import (
	"context"
	"errors"
	"time"

	"github.com/fitsbi/fitsbi-backend/internal/models"
	"github.com/jackc/pgx/v5"
)

const defaultSummaryWindowDays = 7

// journeyWindowDays is how far back the cumulative summary looks when rolling
// up daily summaries.
const journeyWindowDays = 14

type dailySummaryStore interface {
	Upsert(ctx context.Context, summary *models.DailySummary) error
	GetByDay(ctx context.Context, userID string, day time.Time) (*models.DailySummary, error)
	ListRecent(ctx context.Context, userID string, since time.Time, limit int) ([]models.DailySummary, error)
}

type userSummaryStore interface {
	Save(ctx context.Context, summary *models.UserSummary) error
	GetByUserID(ctx context.Context, userID string) (*models.UserSummary, error)
}

type dayChatReader interface {
	ListForDay(ctx context.Context, userID string, dayStart time.Time) ([]models.ChatMessage, error)
}

type profileReader interface {
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
}

// Summarizer produces digest content from conversation history. A nil
// Summarizer disables the generate endpoints.
type Summarizer interface {
	SummarizeDay(ctx context.Context, messages []models.ChatMessage) (string, []string, error)
	SummarizeJourney(ctx context.Context, dailies []models.DailySummary, prior *models.UserSummary) (*UserSummaryContent, error)
}

type SummaryService struct {
	dailyRepo   dailySummaryStore
	summaryRepo userSummaryStore
	chatLog     dayChatReader
	profiles    profileReader
	summarizer  Summarizer
}

func NewSummaryService(
	dailyRepo dailySummaryStore,
	summaryRepo userSummaryStore,
	chatLog dayChatReader,
	profiles profileReader,
	summarizer Summarizer,
) *SummaryService {
	return &SummaryService{
		dailyRepo:   dailyRepo,
		summaryRepo: summaryRepo,
		chatLog:     chatLog,
		profiles:    profiles,
		summarizer:  summarizer,
	}
}

type DailySummaryInput struct {
	SummaryText       string         `json:"summary_text"`
	KeyActivities     []string       `json:"key_activities"`
	ConversationCount int            `json:"conversation_count"`
	DataUpdates       map[string]any `json:"data_updates"`
}

// TruncateToDay maps an instant to the UTC midnight that starts its calendar
// day; all daily summary keys go through this.
func TruncateToDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// SaveDailySummary upserts the summary for (user, day). The date is truncated
// to day granularity before keying; writing the same key twice keeps only the
// second payload.
func (s *SummaryService) SaveDailySummary(
	ctx context.Context,
	userID string,
	date time.Time,
	input DailySummaryInput,
) (*models.DailySummary, error) {
	if _, err := s.profiles.GetProfile(ctx, userID); err != nil {
		return nil, err
	}

	summary := &models.DailySummary{
		UserID:            userID,
		Date:              TruncateToDay(date),
		SummaryText:       input.SummaryText,
		KeyActivities:     input.KeyActivities,
		ConversationCount: input.ConversationCount,
		DataUpdates:       input.DataUpdates,
	}
	if summary.KeyActivities == nil {
		summary.KeyActivities = []string{}
	}
	if summary.DataUpdates == nil {
		summary.DataUpdates = map[string]any{}
	}

	if err := s.dailyRepo.Upsert(ctx, summary); err != nil {
		return nil, storeErr(err)
	}
	return summary, nil
}

// GenerateDailySummary builds and stores the digest for one day from that
// day's conversation window.
func (s *SummaryService) GenerateDailySummary(
	ctx context.Context,
	userID string,
	date time.Time,
) (*models.DailySummary, error) {
	if _, err := s.profiles.GetProfile(ctx, userID); err != nil {
		return nil, err
	}
	if s.summarizer == nil {
		return nil, ErrAssistantUnavailable
	}

	day := TruncateToDay(date)
	messages, err := s.chatLog.ListForDay(ctx, userID, day)
	if err != nil {
		return nil, storeErr(err)
	}
	if len(messages) == 0 {
		return nil, ErrNothingToSummarize
	}

	text, activities, err := s.summarizer.SummarizeDay(ctx, messages)
	if err != nil {
		return nil, err
	}

	return s.SaveDailySummary(ctx, userID, day, DailySummaryInput{
		SummaryText:       text,
		KeyActivities:     activities,
		ConversationCount: len(messages),
		DataUpdates:       collectDataUpdates(messages),
	})
}

func (s *SummaryService) GetDailySummary(
	ctx context.Context,
	userID string,
	date time.Time,
) (*models.DailySummary, error) {
	summary, err := s.dailyRepo.GetByDay(ctx, userID, TruncateToDay(date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.missingRecordErr(ctx, userID)
		}
		return nil, storeErr(err)
	}
	return summary, nil
}

// RecentDailySummaries returns summaries whose day is within the trailing
// window, newest first, at most days entries.
func (s *SummaryService) RecentDailySummaries(
	ctx context.Context,
	userID string,
	days int,
) ([]models.DailySummary, error) {
	if _, err := s.profiles.GetProfile(ctx, userID); err != nil {
		return nil, err
	}

	if days <= 0 {
		days = defaultSummaryWindowDays
	}
	since := time.Now().UTC().AddDate(0, 0, -days)
	// Summary keys are UTC midnights. Round the cutoff up to the next
	// midnight so a day that began before now minus days stays outside the
	// window; the date column would otherwise admit the whole boundary day.
	cutoff := TruncateToDay(since)
	if cutoff.Before(since) {
		cutoff = cutoff.AddDate(0, 0, 1)
	}

	summaries, err := s.dailyRepo.ListRecent(ctx, userID, cutoff, days)
	if err != nil {
		return nil, storeErr(err)
	}
	return summaries, nil
}

// SaveUserSummary replaces the user's cumulative summary; the store assigns
// version previous+1 (1 on first write) atomically.
func (s *SummaryService) SaveUserSummary(
	ctx context.Context,
	userID string,
	content UserSummaryContent,
) (*models.UserSummary, error) {
	if _, err := s.profiles.GetProfile(ctx, userID); err != nil {
		return nil, err
	}

	summary := &models.UserSummary{
		UserID:          userID,
		OverallSummary:  content.OverallSummary,
		RecentPatterns:  content.RecentPatterns,
		HealthTrends:    content.HealthTrends,
		GoalsProgress:   content.GoalsProgress,
		Recommendations: content.Recommendations,
	}
	if err := s.summaryRepo.Save(ctx, summary); err != nil {
		return nil, storeErr(err)
	}
	return summary, nil
}

// GenerateUserSummary rolls the recent daily summaries into fresh cumulative
// summary content and stores it.
func (s *SummaryService) GenerateUserSummary(ctx context.Context, userID string) (*models.UserSummary, error) {
	if s.summarizer == nil {
		return nil, ErrAssistantUnavailable
	}

	dailies, err := s.RecentDailySummaries(ctx, userID, journeyWindowDays)
	if err != nil {
		return nil, err
	}
	if len(dailies) == 0 {
		return nil, ErrNothingToSummarize
	}

	prior, err := s.GetUserSummary(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrSummaryNotFound) {
			return nil, err
		}
		prior = nil
	}

	content, err := s.summarizer.SummarizeJourney(ctx, dailies, prior)
	if err != nil {
		return nil, err
	}

	return s.SaveUserSummary(ctx, userID, *content)
}

// GetUserSummary returns the current cumulative summary. An unknown user and
// a known user without a summary yet are distinct conditions.
func (s *SummaryService) GetUserSummary(ctx context.Context, userID string) (*models.UserSummary, error) {
	summary, err := s.summaryRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.missingRecordErr(ctx, userID)
		}
		return nil, storeErr(err)
	}
	return summary, nil
}

// missingRecordErr decides whether a summary miss means "unknown user" or
// "known user, no summary yet".
func (s *SummaryService) missingRecordErr(ctx context.Context, userID string) error {
	if _, err := s.profiles.GetProfile(ctx, userID); err != nil {
		return err
	}
	return ErrSummaryNotFound
}

func collectDataUpdates(messages []models.ChatMessage) map[string]any {
	updates := make(map[string]any)
	for _, message := range messages {
		for name, value := range message.ExtractedData {
			updates[name] = value
		}
	}
	return updates
}
