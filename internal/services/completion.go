package services

// OnboardingThreshold is the completion percentage at which a profile counts
// as fully onboarded.
const OnboardingThreshold = 80.0

// ProfileCompletion computes the completion percentage of a profile field map
// over the canonical field list, and whether that crosses the onboarding
// threshold. A field counts as complete when it is present and non-nil; a
// list-valued field additionally has to be non-empty. A scalar zero still
// counts. Pure: no I/O, no mutation of fields.
func ProfileCompletion(fields map[string]any) (float64, bool) {
	completed := 0
	for _, field := range trackedFields {
		if fieldComplete(fields[field.Name]) {
			completed++
		}
	}

	percentage := float64(completed) / float64(len(trackedFields)) * 100
	return percentage, percentage >= OnboardingThreshold
}

// IncompleteFieldDescriptions lists, in canonical order, the human-readable
// descriptions of tracked fields that are still absent, nil, or an empty
// list. Empty result means the profile is fully populated.
func IncompleteFieldDescriptions(fields map[string]any) []string {
	incomplete := make([]string, 0)
	for _, field := range trackedFields {
		if !fieldComplete(fields[field.Name]) {
			incomplete = append(incomplete, field.Description)
		}
	}
	return incomplete
}

func fieldComplete(value any) bool {
	switch typed := value.(type) {
	case nil:
		return false
	case []any:
		return len(typed) > 0
	case []string:
		return len(typed) > 0
	default:
		return true
	}
}
