package services

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrSummaryNotFound      = errors.New("summary not found")
	ErrInvalidInput         = errors.New("invalid input")
	ErrNothingToSummarize   = errors.New("nothing to summarize")
	ErrAssistantUnavailable = errors.New("assistant is not configured")
	ErrStoreUnavailable     = errors.New("store unavailable")
)

// storeErr tags a failed store round trip so callers can tell an unreachable
// store apart from not-found and validation conditions. Row-level conditions
// must be translated to their own sentinels before reaching this wrapper.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
