// Package idempotency records processed provider transactions per session so
// duplicate callback deliveries never re-apply their economic effect.
package idempotency

import (
	"context"

	"github.com/shopspring/decimal"
)

// TransactionRecord is what a session remembers about one processed
// transaction. Refund and win handling look up the original bet's amount and
// action through it.
type TransactionRecord struct {
	TransactionID string          `json:"transaction_id"`
	Action        string          `json:"action"`
	Amount        decimal.Decimal `json:"amount"`
	Reference     string          `json:"reference,omitempty"`
}

// Store is the session-scoped transaction registry. Implementations must make
// Record an atomic check-and-insert: true only the first time a
// (session, transaction) pair is seen. Record is the gate in front of every
// balance mutation; a caller whose mutation then fails releases the record
// with Remove so a later retry of the same transaction can still apply.
//
// A Store error means the registry is unavailable; callers must fail closed
// and reject the request rather than risk applying a duplicate.
type Store interface {
	// BindSession ties the session to an account on first use and returns
	// ErrSessionConflict if it is already bound to a different account.
	BindSession(ctx context.Context, sessionID, accountID string) error

	// Record registers the transaction and reports whether it was new.
	Record(ctx context.Context, sessionID string, rec TransactionRecord) (bool, error)

	// Lookup returns the stored record, or nil if the transaction has not
	// been seen in this session.
	Lookup(ctx context.Context, sessionID, transactionID string) (*TransactionRecord, error)

	// Remove drops a recorded transaction. Removing an unknown transaction
	// is a no-op.
	Remove(ctx context.Context, sessionID, transactionID string) error
}
