package services

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/fitsbi/fitsbi-backend/internal/models"
	"github.com/jackc/pgx/v5"
)

const (
	defaultHistoryLimit = 50
	replyHistoryWindow  = 20
)

type chatMessageStore interface {
	Append(ctx context.Context, userID, role, content, messageType string, extractedData map[string]any) (*models.ChatMessage, error)
	ListRecent(ctx context.Context, userID string, limit int, daysBack int) ([]models.ChatMessage, error)
}

type profileMerger interface {
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	ApplyUpdate(ctx context.Context, userID string, updates map[string]any) (*models.UserProfile, []string, error)
}

type userSummaryReader interface {
	GetByUserID(ctx context.Context, userID string) (*models.UserSummary, error)
}

// ChatAssistant is the language-model collaborator behind the guided chat.
// A nil ChatAssistant means the feature is disabled.
type ChatAssistant interface {
	Reply(ctx context.Context, profile *models.UserProfile, summary *models.UserSummary, incompleteFields []string, history []models.ChatMessage, message string) (string, error)
	ExtractProfileFields(ctx context.Context, message string) (map[string]any, error)
}

// ChatNotifier pushes chat events to any live connections the user holds.
type ChatNotifier interface {
	NotifyMessage(userID string, message *models.ChatMessage)
	NotifyProfileUpdate(userID string, profile *models.UserProfile, appliedFields []string)
}

type ChatService struct {
	messageRepo chatMessageStore
	profiles    profileMerger
	summaries   userSummaryReader
	assistant   ChatAssistant
	notifier    ChatNotifier
}

// ChatTurn is the outcome of one guided-chat exchange.
type ChatTurn struct {
	UserMessage      *models.ChatMessage `json:"user_message"`
	AssistantMessage *models.ChatMessage `json:"assistant_message"`
	Profile          *models.UserProfile `json:"profile"`
	AppliedFields    []string            `json:"applied_fields"`
	RejectedFields   []string            `json:"rejected_fields"`
}

func NewChatService(
	messageRepo chatMessageStore,
	profiles profileMerger,
	summaries userSummaryReader,
	assistant ChatAssistant,
	notifier ChatNotifier,
) *ChatService {
	return &ChatService{
		messageRepo: messageRepo,
		profiles:    profiles,
		summaries:   summaries,
		assistant:   assistant,
		notifier:    notifier,
	}
}

// SendMessage runs one guided-chat turn: log the user message (with any field
// proposals the assistant extracts from it), merge the proposals into the
// profile, generate a reply, and log it. The conversation log is append-only;
// a retried request reconverges on the same profile state because the merge
// is last-writer-wins per field.
func (s *ChatService) SendMessage(ctx context.Context, userID string, content string) (*ChatTurn, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, ErrInvalidInput
	}
	if s.assistant == nil {
		return nil, ErrAssistantUnavailable
	}

	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Extraction is opportunistic: a failed proposal never blocks the chat.
	extracted, err := s.assistant.ExtractProfileFields(ctx, trimmed)
	if err != nil {
		log.Printf("chat: extract profile fields for user %s: %v", userID, err)
		extracted = nil
	}

	// History is captured before the new message is logged, so the prompt
	// carries it only once, as the trailing user turn.
	history, err := s.messageRepo.ListRecent(ctx, userID, replyHistoryWindow, 0)
	if err != nil {
		return nil, storeErr(err)
	}

	userMessage, err := s.messageRepo.Append(ctx, userID, models.RoleUser, trimmed, "chat", extracted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, storeErr(err)
	}

	var appliedFields, rejectedFields []string
	if len(extracted) > 0 {
		updatedProfile, rejected, err := s.profiles.ApplyUpdate(ctx, userID, extracted)
		if err != nil {
			return nil, err
		}
		profile = updatedProfile
		rejectedFields = rejected
		appliedFields = appliedFieldNames(extracted, rejected)
		if len(appliedFields) > 0 && s.notifier != nil {
			s.notifier.NotifyProfileUpdate(userID, profile, appliedFields)
		}
	}

	summary, err := s.summaries.GetByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, storeErr(err)
		}
		summary = nil
	}

	reply, err := s.assistant.Reply(ctx, profile, summary, IncompleteFieldDescriptions(profile.Fields), history, trimmed)
	if err != nil {
		return nil, err
	}

	assistantMessage, err := s.messageRepo.Append(ctx, userID, models.RoleAssistant, reply, "chat", nil)
	if err != nil {
		return nil, storeErr(err)
	}
	if s.notifier != nil {
		s.notifier.NotifyMessage(userID, assistantMessage)
	}

	return &ChatTurn{
		UserMessage:      userMessage,
		AssistantMessage: assistantMessage,
		Profile:          profile,
		AppliedFields:    appliedFields,
		RejectedFields:   rejectedFields,
	}, nil
}

// History returns the user's chat log in chronological order, newest limit
// messages, optionally restricted to the trailing daysBack window.
func (s *ChatService) History(ctx context.Context, userID string, limit int, daysBack int) ([]models.ChatMessage, error) {
	if _, err := s.profiles.GetProfile(ctx, userID); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	messages, err := s.messageRepo.ListRecent(ctx, userID, limit, daysBack)
	if err != nil {
		return nil, storeErr(err)
	}
	return messages, nil
}

// FormatChatTimestamp renders an instant the way all chat surfaces report
// event times.
func FormatChatTimestamp(ts time.Time) string {
	return ts.UTC().Format(time.RFC3339)
}

func appliedFieldNames(extracted map[string]any, rejected []string) []string {
	rejectedSet := make(map[string]struct{}, len(rejected))
	for _, name := range rejected {
		rejectedSet[name] = struct{}{}
	}

	applied := make([]string, 0, len(extracted))
	for name := range extracted {
		if _, isRejected := rejectedSet[name]; !isRejected {
			applied = append(applied, name)
		}
	}
	sort.Strings(applied)
	return applied
}
