package provider

import (
	"errors"
	"fmt"
)

// ErrMaxAttempts is returned when every retry attempt was exhausted on a
// transient failure.
var ErrMaxAttempts = errors.New("provider request failed after all retry attempts")

// StatusError is a non-success provider response outside the retry
// allow-list; it surfaces immediately with the upstream status.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider returned status %d: %s", e.Status, e.Body)
}
