package wallet

import (
	"context"
	"time"

	"moongamble/internal/models"

	"github.com/shopspring/decimal"
)

// Service is the user-facing wallet surface around the ledger: deposits,
// withdrawals, bonuses, promo codes and history.
type Service interface {
	// Deposit credits the account. The first deposit of a referred account
	// also pays the referrer their referral bonus.
	Deposit(ctx context.Context, accountID string, amount decimal.Decimal, paymentSystem string) (decimal.Decimal, error)

	// BonusDeposit credits the amount as bonus money.
	BonusDeposit(ctx context.Context, accountID string, amount decimal.Decimal, paymentSystem string) (decimal.Decimal, error)

	// Withdraw opens a PENDING withdrawal. Only the pure balance (balance
	// minus bonus money) is withdrawable.
	Withdraw(ctx context.Context, accountID string, amount decimal.Decimal, paymentSystem string) (*models.LedgerEntry, error)

	// ConfirmWithdrawal / RejectWithdrawal settle a pending withdrawal
	// exactly once. Operator-only.
	ConfirmWithdrawal(ctx context.Context, entryID uint) error
	RejectWithdrawal(ctx context.Context, entryID uint) error
	PendingWithdrawals(ctx context.Context) ([]models.LedgerEntry, error)

	// LastWithdrawal returns the most recent withdrawal entry, or nil when
	// the account never withdrew.
	LastWithdrawal(ctx context.Context, accountID string) (*models.LedgerEntry, error)

	History(ctx context.Context, q HistoryQuery) (*HistoryPage, error)
	Balance(ctx context.Context, accountID string) (*BalanceSummary, error)

	// EarnBonus claims the periodic bonus; ErrTooEarly before the interval
	// has passed since the last claim.
	EarnBonus(ctx context.Context, accountID string) (*BonusEarned, error)
	LastBonusEarn(ctx context.Context, accountID string) (time.Time, error)

	// ApplyPromoCode redeems a single-use promo code as a bonus credit and
	// returns the resulting balance.
	ApplyPromoCode(ctx context.Context, accountID, code string) (decimal.Decimal, error)
}
