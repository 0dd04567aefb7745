package reconciler

import "github.com/shopspring/decimal"

// Action is the provider callback action kind.
type Action string

const (
	ActionBet     Action = "bet"
	ActionWin     Action = "win"
	ActionRefund  Action = "refund"
	ActionBalance Action = "balance"
)

// Request is one inbound provider action after parsing and authentication.
type Request struct {
	SessionID     string
	AccountID     string
	TransactionID string
	Action        Action
	Amount        decimal.Decimal
	Reference     string // bet_transaction_id for win/refund
	Currency      string
	GameUUID      string
}

// Result is the successful outcome of a reconciliation.
type Result struct {
	Balance       decimal.Decimal
	TransactionID string
	// Duplicate marks a replayed transaction: the balance was not touched
	// and reflects the current state.
	Duplicate bool
}
