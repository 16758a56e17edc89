package models

import "time"

type UserProfile struct {
	UserID              string         `json:"user_id"`
	Fields              map[string]any `json:"fields"`
	ProfileCompletion   float64        `json:"profile_completion"`
	OnboardingCompleted bool           `json:"onboarding_completed"`
	LastProfileUpdate   time.Time      `json:"last_profile_update"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

// Field returns the stored value for a tracked field, or nil when unset.
func (p *UserProfile) Field(name string) any {
	if p == nil || p.Fields == nil {
		return nil
	}
	return p.Fields[name]
}

// DefaultOAuthProfileFields seeds profiles for accounts created through an
// external identity provider, where registration skips the intake form.
var DefaultOAuthProfileFields = map[string]any{
	"age":                  25,
	"weight":               70.0,
	"height":               170.0,
	"fitness_goals":        []string{"general_fitness"},
	"medical_conditions":   []string{},
	"dietary_restrictions": []string{},
}
