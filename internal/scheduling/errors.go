package scheduling

import (
	"errors"
	"fmt"
)

// ErrNoCalendar means neither the user nor the shared fallback has a
// connected calendar.
var ErrNoCalendar = errors.New("no calendar connected")

// ErrSlotConflict means the chosen slot was taken between availability
// lookup and booking. The caller must re-fetch availability.
var ErrSlotConflict = errors.New("selected time slot is no longer available")

var (
	ErrInvalidTransition = errors.New("invalid booking status transition")
	ErrReasonRequired    = errors.New("cancellation requires a reason")
	ErrOutcomeNotAllowed = errors.New("outcome can only be set on a completed booking")
)

// AuthError wraps a failed token refresh or a disabled sync. It is
// fatal for the in-flight operation; there is no fallback to stale
// credentials.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("calendar auth failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}
