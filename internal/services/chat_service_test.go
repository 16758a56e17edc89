package services

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/fitsbi/fitsbi-backend/internal/models"
	"github.com/jackc/pgx/v5"
)

type stubMessageStore struct {
	appended   []models.ChatMessage
	history    []models.ChatMessage
	appendErr  error
	historyErr error
	lastLimit  int
	lastDays   int
	nextID     int
}

func (s *stubMessageStore) Append(_ context.Context, userID, role, content, messageType string, extractedData map[string]any) (*models.ChatMessage, error) {
	if s.appendErr != nil {
		return nil, s.appendErr
	}
	s.nextID++
	message := models.ChatMessage{
		ID:            "m" + string(rune('0'+s.nextID)),
		UserID:        userID,
		Role:          role,
		Content:       content,
		MessageType:   messageType,
		ExtractedData: extractedData,
		CreatedAt:     time.Date(2026, 8, 30, 10, 0, s.nextID, 0, time.UTC),
	}
	s.appended = append(s.appended, message)
	return &message, nil
}

func (s *stubMessageStore) ListRecent(_ context.Context, _ string, limit int, daysBack int) ([]models.ChatMessage, error) {
	s.lastLimit = limit
	s.lastDays = daysBack
	if s.historyErr != nil {
		return nil, s.historyErr
	}
	// The log is append-only, so a listing reflects everything appended so far.
	log := append([]models.ChatMessage{}, s.history...)
	return append(log, s.appended...), nil
}

type stubProfileMerger struct {
	profile     *models.UserProfile
	profileErr  error
	updated     *models.UserProfile
	rejected    []string
	applyErr    error
	lastUpdates map[string]any
}

func (s *stubProfileMerger) GetProfile(_ context.Context, _ string) (*models.UserProfile, error) {
	return s.profile, s.profileErr
}

func (s *stubProfileMerger) ApplyUpdate(_ context.Context, _ string, updates map[string]any) (*models.UserProfile, []string, error) {
	s.lastUpdates = updates
	return s.updated, s.rejected, s.applyErr
}

type stubSummaryReader struct {
	summary *models.UserSummary
	err     error
}

func (s *stubSummaryReader) GetByUserID(_ context.Context, _ string) (*models.UserSummary, error) {
	return s.summary, s.err
}

type stubAssistant struct {
	reply        string
	replyErr     error
	extracted    map[string]any
	extractErr   error
	lastMessage  string
	lastProfile  *models.UserProfile
	lastHistory  []models.ChatMessage
	lastMissing  []string
}

func (s *stubAssistant) Reply(_ context.Context, profile *models.UserProfile, _ *models.UserSummary, incompleteFields []string, history []models.ChatMessage, message string) (string, error) {
	s.lastProfile = profile
	s.lastMissing = incompleteFields
	s.lastHistory = history
	s.lastMessage = message
	return s.reply, s.replyErr
}

func (s *stubAssistant) ExtractProfileFields(_ context.Context, _ string) (map[string]any, error) {
	return s.extracted, s.extractErr
}

type recordingNotifier struct {
	messages      []*models.ChatMessage
	profiles      []*models.UserProfile
	appliedFields [][]string
}

func (n *recordingNotifier) NotifyMessage(_ string, message *models.ChatMessage) {
	n.messages = append(n.messages, message)
}

func (n *recordingNotifier) NotifyProfileUpdate(_ string, profile *models.UserProfile, appliedFields []string) {
	n.profiles = append(n.profiles, profile)
	n.appliedFields = append(n.appliedFields, appliedFields)
}

func TestSendMessageRunsFullTurn(t *testing.T) {
	store := &stubMessageStore{}
	baseProfile := &models.UserProfile{UserID: "7", Fields: map[string]any{}}
	mergedProfile := &models.UserProfile{
		UserID:            "7",
		Fields:            map[string]any{"age": float64(30), "weight": float64(80)},
		ProfileCompletion: float64(2) / 15 * 100,
	}
	profiles := &stubProfileMerger{
		profile:  baseProfile,
		updated:  mergedProfile,
		rejected: []string{"shoe_size"},
	}
	assistant := &stubAssistant{
		reply: "Great, noted your age and weight!",
		extracted: map[string]any{
			"age":       float64(30),
			"weight":    float64(80),
			"shoe_size": float64(44),
		},
	}
	notifier := &recordingNotifier{}
	service := NewChatService(store, profiles, &stubSummaryReader{err: pgx.ErrNoRows}, assistant, notifier)

	turn, err := service.SendMessage(context.Background(), "7", "  I'm 30 and weigh 80kg  ")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	if turn.UserMessage == nil || turn.UserMessage.Role != models.RoleUser {
		t.Fatalf("expected logged user message, got %+v", turn.UserMessage)
	}
	if turn.UserMessage.Content != "I'm 30 and weigh 80kg" {
		t.Fatalf("expected trimmed content, got %q", turn.UserMessage.Content)
	}
	if turn.AssistantMessage == nil || turn.AssistantMessage.Content != assistant.reply {
		t.Fatalf("expected logged assistant reply, got %+v", turn.AssistantMessage)
	}
	if turn.Profile != mergedProfile {
		t.Fatal("expected turn to carry the merged profile")
	}

	wantApplied := []string{"age", "weight"}
	if !reflect.DeepEqual(turn.AppliedFields, wantApplied) {
		t.Fatalf("expected applied fields %v, got %v", wantApplied, turn.AppliedFields)
	}
	if !reflect.DeepEqual(turn.RejectedFields, []string{"shoe_size"}) {
		t.Fatalf("expected rejected fields, got %v", turn.RejectedFields)
	}

	if len(store.appended) != 2 {
		t.Fatalf("expected user and assistant messages appended, got %d", len(store.appended))
	}
	if store.appended[0].ExtractedData == nil {
		t.Fatal("expected extracted data stored with the user message")
	}

	if len(notifier.messages) != 1 {
		t.Fatalf("expected one message event, got %d", len(notifier.messages))
	}
	if len(notifier.profiles) != 1 || !reflect.DeepEqual(notifier.appliedFields[0], wantApplied) {
		t.Fatalf("expected one profile_update event with %v, got %+v", wantApplied, notifier.appliedFields)
	}
}

func TestSendMessageHistoryExcludesCurrentMessage(t *testing.T) {
	prior := []models.ChatMessage{
		{ID: "m1", Role: models.RoleUser, Content: "hi"},
		{ID: "m2", Role: models.RoleAssistant, Content: "hello, tell me about yourself"},
	}
	store := &stubMessageStore{history: prior}
	profiles := &stubProfileMerger{profile: &models.UserProfile{UserID: "7", Fields: map[string]any{}}}
	assistant := &stubAssistant{reply: "noted"}
	service := NewChatService(store, profiles, &stubSummaryReader{err: pgx.ErrNoRows}, assistant, nil)

	if _, err := service.SendMessage(context.Background(), "7", "I sleep 7 hours"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	if len(assistant.lastHistory) != len(prior) {
		t.Fatalf("expected %d history messages in the prompt, got %d", len(prior), len(assistant.lastHistory))
	}
	for _, message := range assistant.lastHistory {
		if message.Content == "I sleep 7 hours" {
			t.Fatal("expected the prompt history to not repeat the message being answered")
		}
	}
	if assistant.lastMessage != "I sleep 7 hours" {
		t.Fatalf("expected the message as the trailing user turn, got %q", assistant.lastMessage)
	}
}

func TestSendMessageRejectsBlankContent(t *testing.T) {
	service := NewChatService(&stubMessageStore{}, &stubProfileMerger{}, &stubSummaryReader{}, &stubAssistant{}, nil)

	if _, err := service.SendMessage(context.Background(), "7", "   "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSendMessageWithoutAssistant(t *testing.T) {
	service := NewChatService(&stubMessageStore{}, &stubProfileMerger{}, &stubSummaryReader{}, nil, nil)

	if _, err := service.SendMessage(context.Background(), "7", "hello"); !errors.Is(err, ErrAssistantUnavailable) {
		t.Fatalf("expected ErrAssistantUnavailable, got %v", err)
	}
}

func TestSendMessageExtractionFailureIsNonFatal(t *testing.T) {
	store := &stubMessageStore{}
	profiles := &stubProfileMerger{profile: &models.UserProfile{UserID: "7", Fields: map[string]any{}}}
	assistant := &stubAssistant{
		reply:      "Tell me about your goals.",
		extractErr: errors.New("model timeout"),
	}
	service := NewChatService(store, profiles, &stubSummaryReader{err: pgx.ErrNoRows}, assistant, nil)

	turn, err := service.SendMessage(context.Background(), "7", "hello")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	if profiles.lastUpdates != nil {
		t.Fatal("expected no profile update after failed extraction")
	}
	if turn.AssistantMessage.Content != assistant.reply {
		t.Fatalf("expected reply despite extraction failure, got %q", turn.AssistantMessage.Content)
	}
}

func TestHistoryDefaultsLimit(t *testing.T) {
	store := &stubMessageStore{history: []models.ChatMessage{{ID: "m1"}}}
	profiles := &stubProfileMerger{profile: &models.UserProfile{UserID: "7"}}
	service := NewChatService(store, profiles, &stubSummaryReader{}, nil, nil)

	messages, err := service.History(context.Background(), "7", 0, 3)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}
	if store.lastLimit != defaultHistoryLimit {
		t.Fatalf("expected default limit %d, got %d", defaultHistoryLimit, store.lastLimit)
	}
	if store.lastDays != 3 {
		t.Fatalf("expected daysBack 3, got %d", store.lastDays)
	}
}

func TestHistoryUnknownUser(t *testing.T) {
	profiles := &stubProfileMerger{profileErr: ErrUserNotFound}
	service := NewChatService(&stubMessageStore{}, profiles, &stubSummaryReader{}, nil, nil)

	if _, err := service.History(context.Background(), "404", 10, 0); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
