package ledger

import "errors"

// Service errors
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrEntrySettled      = errors.New("entry already settled")
	ErrNotWithdrawal     = errors.New("entry is not a withdrawal")
)
