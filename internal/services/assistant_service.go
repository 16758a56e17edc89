package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fitsbi/fitsbi-backend/internal/llm"
	"github.com/fitsbi/fitsbi-backend/internal/models"
)

// AssistantService is the conversational collaborator: it proposes replies,
// field extractions, and summary texts via an LLM provider. Everything it
// returns is treated as opaque text (or parsed JSON) by the services that
// call it; no profile or summary state is touched here.
type AssistantService struct {
	provider llm.Provider
}

func NewAssistantService(provider llm.Provider) *AssistantService {
	return &AssistantService{provider: provider}
}

// UserSummaryContent carries the free-text sections of a cumulative user
// summary, without the version bookkeeping the store adds on save.
type UserSummaryContent struct {
	OverallSummary  string `json:"overall_summary"`
	RecentPatterns  string `json:"recent_patterns"`
	HealthTrends    string `json:"health_trends"`
	GoalsProgress   string `json:"goals_progress"`
	Recommendations string `json:"recommendations"`
}

const replySystemPrompt = `You are FITSBI, a friendly fitness and wellness assistant.
Ground your advice in the user's profile and history below. When profile details
are still missing, naturally work one question about them into the conversation
instead of interrogating the user.`

func (s *AssistantService) Reply(
	ctx context.Context,
	profile *models.UserProfile,
	summary *models.UserSummary,
	incompleteFields []string,
	history []models.ChatMessage,
	message string,
) (string, error) {
	var system strings.Builder
	system.WriteString(replySystemPrompt)

	if profile != nil && len(profile.Fields) > 0 {
		encoded, err := json.Marshal(profile.Fields)
		if err == nil {
			system.WriteString("\n\nUser profile:\n")
			system.Write(encoded)
		}
	}
	if summary != nil && summary.OverallSummary != "" {
		system.WriteString("\n\nJourney so far:\n")
		system.WriteString(summary.OverallSummary)
		if summary.Recommendations != "" {
			system.WriteString("\nCurrent recommendations: ")
			system.WriteString(summary.Recommendations)
		}
	}
	if len(incompleteFields) > 0 {
		system.WriteString("\n\nStill unknown about the user: ")
		system.WriteString(strings.Join(incompleteFields, ", "))
	}

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: models.RoleSystem, Content: system.String()})
	for _, item := range history {
		if item.Role != models.RoleUser && item.Role != models.RoleAssistant {
			continue
		}
		messages = append(messages, llm.Message{Role: item.Role, Content: item.Content})
	}
	messages = append(messages, llm.Message{Role: models.RoleUser, Content: message})

	return s.provider.Generate(ctx, messages)
}

// ExtractProfileFields asks the model for profile field values mentioned in a
// single user message, as a JSON object keyed by canonical field name. Fields
// the message does not mention are omitted. The result is a proposal; shape
// validation and merging happen in the profile service.
func (s *AssistantService) ExtractProfileFields(ctx context.Context, message string) (map[string]any, error) {
	var prompt strings.Builder
	prompt.WriteString("Extract profile data from the user message below.\n")
	prompt.WriteString("Respond with a JSON object using only these keys, omitting any the message does not mention:\n")
	for _, field := range trackedFields {
		prompt.WriteString("- ")
		prompt.WriteString(field.Name)
		switch field.Kind {
		case fieldNumber:
			prompt.WriteString(" (number)")
		case fieldStringList:
			prompt.WriteString(" (list of strings)")
		default:
			prompt.WriteString(" (string)")
		}
		prompt.WriteString("\n")
	}
	prompt.WriteString("Respond with {} when nothing matches. JSON only, no commentary.\n\nMessage: ")
	prompt.WriteString(message)

	raw, err := s.provider.Generate(ctx, []llm.Message{
		{Role: models.RoleUser, Content: prompt.String()},
	})
	if err != nil {
		return nil, err
	}

	extracted := make(map[string]any)
	if err := json.Unmarshal([]byte(stripJSONFences(raw)), &extracted); err != nil {
		return nil, fmt.Errorf("parse extraction response: %w", err)
	}
	return extracted, nil
}

// SummarizeDay turns one day's conversation window into a short digest text
// plus the key activities it mentions.
func (s *AssistantService) SummarizeDay(
	ctx context.Context,
	messages []models.ChatMessage,
) (string, []string, error) {
	var prompt strings.Builder
	prompt.WriteString("Summarize this day of conversation between a user and their fitness assistant.\n")
	prompt.WriteString(`Respond with JSON: {"summary": "...", "key_activities": ["..."]}` + "\n\n")
	writeTranscript(&prompt, messages)

	raw, err := s.provider.Generate(ctx, []llm.Message{
		{Role: models.RoleUser, Content: prompt.String()},
	})
	if err != nil {
		return "", nil, err
	}

	var parsed struct {
		Summary       string   `json:"summary"`
		KeyActivities []string `json:"key_activities"`
	}
	if err := json.Unmarshal([]byte(stripJSONFences(raw)), &parsed); err != nil {
		return "", nil, fmt.Errorf("parse day summary response: %w", err)
	}
	return parsed.Summary, parsed.KeyActivities, nil
}

// SummarizeJourney rolls recent daily summaries (and the prior cumulative
// summary, when one exists) into fresh cumulative summary content.
func (s *AssistantService) SummarizeJourney(
	ctx context.Context,
	dailies []models.DailySummary,
	prior *models.UserSummary,
) (*UserSummaryContent, error) {
	var prompt strings.Builder
	prompt.WriteString("Update the cumulative picture of this user's fitness journey.\n")
	prompt.WriteString(`Respond with JSON: {"overall_summary": "...", "recent_patterns": "...", "health_trends": "...", "goals_progress": "...", "recommendations": "..."}` + "\n")

	if prior != nil {
		prompt.WriteString("\nPrevious overall summary:\n")
		prompt.WriteString(prior.OverallSummary)
		prompt.WriteString("\n")
	}

	prompt.WriteString("\nRecent daily summaries, newest first:\n")
	for _, daily := range dailies {
		prompt.WriteString(daily.Date.Format("2006-01-02"))
		prompt.WriteString(": ")
		prompt.WriteString(daily.SummaryText)
		if len(daily.KeyActivities) > 0 {
			prompt.WriteString(" (activities: ")
			prompt.WriteString(strings.Join(daily.KeyActivities, ", "))
			prompt.WriteString(")")
		}
		prompt.WriteString("\n")
	}

	raw, err := s.provider.Generate(ctx, []llm.Message{
		{Role: models.RoleUser, Content: prompt.String()},
	})
	if err != nil {
		return nil, err
	}

	var content UserSummaryContent
	if err := json.Unmarshal([]byte(stripJSONFences(raw)), &content); err != nil {
		return nil, fmt.Errorf("parse journey summary response: %w", err)
	}
	return &content, nil
}

func writeTranscript(prompt *strings.Builder, messages []models.ChatMessage) {
	for _, message := range messages {
		prompt.WriteString(message.Role)
		prompt.WriteString(": ")
		prompt.WriteString(message.Content)
		prompt.WriteString("\n")
	}
}

// stripJSONFences removes a markdown code fence the model sometimes wraps
// around JSON payloads.
func stripJSONFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	}
	return strings.TrimSpace(trimmed)
}
