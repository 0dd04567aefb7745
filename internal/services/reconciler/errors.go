package reconciler

import "errors"

// Service errors
var (
	// ErrInvalidReference covers a missing or unknown bet_transaction_id,
	// a reference to a zero-amount bet, and a refund targeting a win.
	ErrInvalidReference = errors.New("invalid transaction reference")
	ErrUnexpectedAction = errors.New("unexpected action type")
	ErrMissingFields    = errors.New("missing required request fields")
)
