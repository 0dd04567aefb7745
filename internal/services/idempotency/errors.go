package idempotency

import "errors"

var (
	// ErrSessionConflict means the session is already bound to a different account.
	ErrSessionConflict = errors.New("session is tied to a different account")
)
