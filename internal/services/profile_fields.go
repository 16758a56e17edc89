package services

type fieldKind int

const (
	fieldNumber fieldKind = iota
	fieldText
	fieldStringList
)

type trackedField struct {
	Name        string
	Kind        fieldKind
	Description string
}

// trackedFields is the canonical field list: the fixed, ordered set of profile
// attributes that drive completion percentage, onboarding, and the guided data
// collection prompts. Order matters only for presentation; the completion
// percentage itself is order-independent.
var trackedFields = []trackedField{
	{Name: "age", Kind: fieldNumber, Description: "your age"},
	{Name: "gender", Kind: fieldText, Description: "your gender"},
	{Name: "weight", Kind: fieldNumber, Description: "your current weight"},
	{Name: "height", Kind: fieldNumber, Description: "your height"},
	{Name: "location", Kind: fieldText, Description: "your location"},
	{Name: "fitness_goals", Kind: fieldStringList, Description: "your fitness goals"},
	{Name: "activity_level", Kind: fieldText, Description: "your current activity level"},
	{Name: "workout_frequency", Kind: fieldNumber, Description: "how often you want to work out"},
	{Name: "sleep_hours", Kind: fieldNumber, Description: "how many hours you sleep"},
	{Name: "occupation", Kind: fieldText, Description: "your occupation"},
	{Name: "medical_conditions", Kind: fieldStringList, Description: "any medical conditions"},
	{Name: "dietary_restrictions", Kind: fieldStringList, Description: "any dietary restrictions"},
	{Name: "stress_level", Kind: fieldText, Description: "your stress level"},
	{Name: "available_equipment", Kind: fieldStringList, Description: "what workout equipment you have available"},
	{Name: "preferred_workout_time", Kind: fieldText, Description: "your preferred workout time"},
}

var trackedFieldsByName = func() map[string]trackedField {
	byName := make(map[string]trackedField, len(trackedFields))
	for _, field := range trackedFields {
		byName[field.Name] = field
	}
	return byName
}()

// validFieldValue reports whether value has the right shape for the field.
// nil is always accepted: it clears the field. Only shape is checked here;
// free-text values like activity_level are not constrained to an enum.
func validFieldValue(field trackedField, value any) bool {
	if value == nil {
		return true
	}

	switch field.Kind {
	case fieldNumber:
		switch value.(type) {
		case float64, float32, int, int64:
			return true
		}
		return false
	case fieldText:
		_, ok := value.(string)
		return ok
	case fieldStringList:
		switch list := value.(type) {
		case []string:
			return true
		case []any:
			for _, item := range list {
				if _, ok := item.(string); !ok {
					return false
				}
			}
			return true
		}
		return false
	}
	return false
}
