package models

import "time"

type DailySummary struct {
	UserID            string         `json:"user_id"`
	Date              time.Time      `json:"date"`
	SummaryText       string         `json:"summary_text"`
	KeyActivities     []string       `json:"key_activities"`
	ConversationCount int            `json:"conversation_count"`
	DataUpdates       map[string]any `json:"data_updates"`
	CreatedAt         time.Time      `json:"created_at"`
}

type UserSummary struct {
	UserID          string    `json:"user_id"`
	OverallSummary  string    `json:"overall_summary"`
	RecentPatterns  string    `json:"recent_patterns"`
	HealthTrends    string    `json:"health_trends"`
	GoalsProgress   string    `json:"goals_progress"`
	Recommendations string    `json:"recommendations"`
	Version         int       `json:"version"`
	LastUpdated     time.Time `json:"last_updated"`
}

type ConversationDayStat struct {
	Day              time.Time `json:"day"`
	MessageCount     int       `json:"message_count"`
	UserMessageCount int       `json:"user_messages"`
}
