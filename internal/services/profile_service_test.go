package services

import (
	"reflect"
	"testing"

	"github.com/fitsbi/fitsbi-backend/internal/models"
)

func TestSplitFieldUpdatesRejectsUnknownAndMalformed(t *testing.T) {
	updates := map[string]any{
		"age":           30,
		"weight":        "eighty",
		"fitness_goals": []any{"strength", 7},
		"shoe_size":     44,
		"gender":        "male",
	}

	accepted, rejected := splitFieldUpdates(updates)

	wantAccepted := map[string]any{
		"age":    30,
		"gender": "male",
	}
	if !reflect.DeepEqual(accepted, wantAccepted) {
		t.Fatalf("expected accepted %v, got %v", wantAccepted, accepted)
	}

	wantRejected := []string{"fitness_goals", "shoe_size", "weight"}
	if !reflect.DeepEqual(rejected, wantRejected) {
		t.Fatalf("expected rejected %v, got %v", wantRejected, rejected)
	}
}

func TestSplitFieldUpdatesAcceptsNilToClearField(t *testing.T) {
	accepted, rejected := splitFieldUpdates(map[string]any{"age": nil})

	if len(rejected) != 0 {
		t.Fatalf("expected no rejections, got %v", rejected)
	}
	if value, ok := accepted["age"]; !ok || value != nil {
		t.Fatalf("expected nil age to be accepted, got %v", accepted)
	}
}

func TestSplitFieldUpdatesListShapes(t *testing.T) {
	accepted, rejected := splitFieldUpdates(map[string]any{
		"fitness_goals":      []any{"strength", "endurance"},
		"medical_conditions": []string{"asthma"},
	})

	if len(rejected) != 0 {
		t.Fatalf("expected no rejections, got %v", rejected)
	}
	if len(accepted) != 2 {
		t.Fatalf("expected both list shapes accepted, got %v", accepted)
	}
}

func TestDefaultOAuthProfileFieldsAllValidate(t *testing.T) {
	accepted, rejected := splitFieldUpdates(models.DefaultOAuthProfileFields)

	// The oauth seed feeds straight into ApplyUpdate; an entry outside the
	// tracked registry would be dropped without anyone noticing.
	if len(rejected) != 0 {
		t.Fatalf("expected every seed field to validate, rejected %v", rejected)
	}
	if len(accepted) != len(models.DefaultOAuthProfileFields) {
		t.Fatalf("expected all %d seed fields accepted, got %d",
			len(models.DefaultOAuthProfileFields), len(accepted))
	}
}

func TestMergeProfileFieldsLastWriterWins(t *testing.T) {
	current := map[string]any{
		"age":           25,
		"fitness_goals": []string{"general_fitness"},
		"gender":        "female",
	}
	updates := map[string]any{
		"age":           26,
		"fitness_goals": []string{"strength", "mobility"},
		"weight":        61.0,
	}

	merged := mergeProfileFields(current, updates)

	want := map[string]any{
		"age":           26,
		"fitness_goals": []string{"strength", "mobility"},
		"gender":        "female",
		"weight":        61.0,
	}
	if !reflect.DeepEqual(merged, want) {
		t.Fatalf("expected %v, got %v", want, merged)
	}

	// The inputs stay untouched.
	if current["age"] != 25 {
		t.Fatalf("expected current map to be unmodified, got %v", current)
	}
	if _, ok := current["weight"]; ok {
		t.Fatal("expected current map to not gain new fields")
	}
}

func TestMergeProfileFieldsReplacesListsWholesale(t *testing.T) {
	current := map[string]any{"fitness_goals": []string{"strength", "endurance"}}
	updates := map[string]any{"fitness_goals": []string{"yoga"}}

	merged := mergeProfileFields(current, updates)

	if !reflect.DeepEqual(merged["fitness_goals"], []string{"yoga"}) {
		t.Fatalf("expected wholesale list replacement, got %v", merged["fitness_goals"])
	}
}
