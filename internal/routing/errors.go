package routing

import (
	"errors"
	"fmt"
)

// ErrNoEligibleMember is returned when a group has no active, non-paused,
// under-capacity member to receive an assignment. The record stays
// unassigned; the caller decides any fallback.
var ErrNoEligibleMember = errors.New("no eligible member in group")

// ConfigurationError marks a broken routing configuration (malformed
// numeric condition, unknown operator, inactive target group). It is
// surfaced to the caller and never retried.
type ConfigurationError struct {
	msg string
}

func NewConfigurationError(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{msg: fmt.Sprintf(format, args...)}
}

func (e *ConfigurationError) Error() string {
	return e.msg
}

func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
