package ledger

import (
	"context"

	"moongamble/internal/models"

	"github.com/shopspring/decimal"
)

// Service is the authoritative balance ledger. Every mutation appends a
// ledger entry and adjusts the account balance in one atomic step; mutations
// on the same account are mutually exclusive, different accounts proceed in
// parallel.
type Service interface {
	// Debit subtracts op.Amount from the account and appends a negative
	// CONFIRMED entry. Fails with ErrInsufficientFunds when the amount
	// exceeds the balance; never partially applies. A zero amount records
	// a no-op entry and returns the unchanged balance.
	Debit(ctx context.Context, op Operation) (decimal.Decimal, error)

	// Credit adds op.Amount to the account and appends a positive
	// CONFIRMED entry. BONUS and REFERRAL credits also count toward the
	// bonus balance.
	Credit(ctx context.Context, op Operation) (decimal.Decimal, error)

	// RecordPending appends a PENDING withdrawal entry without touching
	// the balance.
	RecordPending(ctx context.Context, op Operation) (*models.LedgerEntry, error)

	// Settle moves a PENDING withdrawal to CONFIRMED (applying the debit)
	// or REJECTED (no balance change). A settled entry settles exactly
	// once; later attempts fail with ErrEntrySettled.
	Settle(ctx context.Context, entryID uint, approve bool) (*models.LedgerEntry, error)

	// GetAccount returns the account, creating it with a zero balance on
	// first reference.
	GetAccount(ctx context.Context, accountID string) (*models.Account, error)

	GetBalance(ctx context.Context, accountID string) (decimal.Decimal, error)
	GetBonusBalance(ctx context.Context, accountID string) (decimal.Decimal, error)
	GetPureBalance(ctx context.Context, accountID string) (decimal.Decimal, error)
}
