package wallet

import (
	"context"
	"testing"
	"time"

	"moongamble/internal/models"
	"moongamble/internal/repositories"
	"moongamble/internal/services/ledger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestWallet(t *testing.T, config Config) (Service, repositories.LedgerRepository, ledger.Service) {
	t.Helper()
	repo := repositories.NewMemoryLedgerRepository()
	ledgerSvc := ledger.NewService(repo, nil)
	return NewService(repo, ledgerSvc, config), repo, ledgerSvc
}

func TestDepositCreditsBalance(t *testing.T) {
	svc, _, _ := newTestWallet(t, Config{})
	ctx := context.Background()

	balance, err := svc.Deposit(ctx, "player-1", dec("100.00"), "card")
	require.NoError(t, err)
	assert.True(t, balance.Equal(dec("100.00")))

	summary, err := svc.Balance(ctx, "player-1")
	require.NoError(t, err)
	assert.True(t, summary.Balance.Equal(dec("100.00")))
	assert.True(t, summary.BonusBalance.IsZero())
	assert.True(t, summary.PureBalance.Equal(dec("100.00")))
}

func TestDepositRejectsNonPositiveAmount(t *testing.T) {
	svc, _, _ := newTestWallet(t, Config{})
	ctx := context.Background()

	_, err := svc.Deposit(ctx, "player-1", decimal.Zero, "card")
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = svc.Deposit(ctx, "player-1", dec("-5.00"), "card")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestReferralBonusOnFirstDepositOnly(t *testing.T) {
	svc, repo, ledgerSvc := newTestWallet(t, Config{})
	ctx := context.Background()

	// Establish referrer and referred accounts.
	referrer, err := ledgerSvc.GetAccount(ctx, "referrer")
	require.NoError(t, err)
	referrer.ReferralBonusRate = dec("0.10")
	require.NoError(t, repo.SaveAccount(referrer))

	referred, err := ledgerSvc.GetAccount(ctx, "referred")
	require.NoError(t, err)
	referrerID := "referrer"
	referred.ReferrerID = &referrerID
	require.NoError(t, repo.SaveAccount(referred))

	_, err = svc.Deposit(ctx, "referred", dec("200.00"), "card")
	require.NoError(t, err)

	referrer, err = repo.GetAccount("referrer")
	require.NoError(t, err)
	assert.True(t, referrer.Balance.Equal(dec("20.00")), "referrer balance = %s", referrer.Balance)
	assert.True(t, referrer.BonusBalance.Equal(dec("20.00")))
	assert.True(t, referrer.ReferralEarnings.Equal(dec("20.00")))

	referred, err = repo.GetAccount("referred")
	require.NoError(t, err)
	assert.True(t, referred.HasDeposited)

	// The second deposit pays no further referral bonus.
	_, err = svc.Deposit(ctx, "referred", dec("300.00"), "card")
	require.NoError(t, err)

	referrer, err = repo.GetAccount("referrer")
	require.NoError(t, err)
	assert.True(t, referrer.Balance.Equal(dec("20.00")))
}

func TestWithdrawPureBalanceRule(t *testing.T) {
	svc, _, _ := newTestWallet(t, Config{})
	ctx := context.Background()

	_, err := svc.Deposit(ctx, "player-1", dec("100.00"), "card")
	require.NoError(t, err)
	_, err = svc.BonusDeposit(ctx, "player-1", dec("50.00"), "internal")
	require.NoError(t, err)

	// Balance 150, bonus 50 => only 100 withdrawable.
	_, err = svc.Withdraw(ctx, "player-1", dec("120.00"), "card")
	assert.ErrorIs(t, err, ErrInsufficientPureBalance)

	entry, err := svc.Withdraw(ctx, "player-1", dec("100.00"), "card")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, entry.Status)
	assert.True(t, entry.Amount.Equal(dec("-100.00")))
}

func TestWithdrawalConfirmFlow(t *testing.T) {
	svc, _, ledgerSvc := newTestWallet(t, Config{})
	ctx := context.Background()

	_, err := svc.Deposit(ctx, "player-1", dec("100.00"), "card")
	require.NoError(t, err)

	entry, err := svc.Withdraw(ctx, "player-1", dec("40.00"), "card")
	require.NoError(t, err)

	pending, err := svc.PendingWithdrawals(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, entry.ID, pending[0].ID)

	require.NoError(t, svc.ConfirmWithdrawal(ctx, entry.ID))

	balance, err := ledgerSvc.GetBalance(ctx, "player-1")
	require.NoError(t, err)
	assert.True(t, balance.Equal(dec("60.00")))

	// Exactly once.
	assert.ErrorIs(t, svc.ConfirmWithdrawal(ctx, entry.ID), ledger.ErrEntrySettled)
	assert.ErrorIs(t, svc.RejectWithdrawal(ctx, entry.ID), ledger.ErrEntrySettled)
}

func TestWithdrawalRejectFlow(t *testing.T) {
	svc, _, ledgerSvc := newTestWallet(t, Config{})
	ctx := context.Background()

	_, err := svc.Deposit(ctx, "player-1", dec("100.00"), "card")
	require.NoError(t, err)

	entry, err := svc.Withdraw(ctx, "player-1", dec("40.00"), "card")
	require.NoError(t, err)
	require.NoError(t, svc.RejectWithdrawal(ctx, entry.ID))

	balance, err := ledgerSvc.GetBalance(ctx, "player-1")
	require.NoError(t, err)
	assert.True(t, balance.Equal(dec("100.00")))
}

func TestHistoryPagination(t *testing.T) {
	svc, _, _ := newTestWallet(t, Config{})
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		_, err := svc.Deposit(ctx, "player-1", dec("10.00"), "card")
		require.NoError(t, err)
	}

	page, err := svc.History(ctx, HistoryQuery{AccountID: "player-1", Page: 1, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(7), page.Total)
	assert.Len(t, page.Entries, 5)

	page, err = svc.History(ctx, HistoryQuery{AccountID: "player-1", Page: 2, Limit: 5})
	require.NoError(t, err)
	assert.Len(t, page.Entries, 2)

	// Type filter.
	page, err = svc.History(ctx, HistoryQuery{
		AccountID: "player-1",
		Page:      1,
		Limit:     10,
		Types:     []string{models.EntryTypeWithdrawal},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), page.Total)
}

func TestEarnBonusInterval(t *testing.T) {
	svc, _, _ := newTestWallet(t, Config{
		BonusAmount:   dec("10.00"),
		BonusInterval: time.Hour,
	})
	ctx := context.Background()

	earned, err := svc.EarnBonus(ctx, "player-1")
	require.NoError(t, err)
	assert.True(t, earned.Amount.Equal(dec("10.00")))
	assert.True(t, earned.Balance.Equal(dec("10.00")))

	_, err = svc.EarnBonus(ctx, "player-1")
	assert.ErrorIs(t, err, ErrTooEarly)

	when, err := svc.LastBonusEarn(ctx, "player-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC(), when, time.Minute)
}

func TestLastBonusEarnWithoutClaims(t *testing.T) {
	svc, _, _ := newTestWallet(t, Config{})

	_, err := svc.LastBonusEarn(context.Background(), "player-1")
	assert.ErrorIs(t, err, ErrNoBonusEarned)
}

func TestApplyPromoCode(t *testing.T) {
	svc, _, ledgerSvc := newTestWallet(t, Config{})
	ctx := context.Background()

	newBalance, err := svc.ApplyPromoCode(ctx, "player-1", "LUCKY10")
	require.NoError(t, err)
	assert.True(t, newBalance.Equal(dec("10")))

	balance, err := ledgerSvc.GetBalance(ctx, "player-1")
	require.NoError(t, err)
	assert.True(t, balance.Equal(dec("10")))

	bonus, err := ledgerSvc.GetBonusBalance(ctx, "player-1")
	require.NoError(t, err)
	assert.True(t, bonus.Equal(dec("10")))

	// Codes are single-use, campaign-wide.
	_, err = svc.ApplyPromoCode(ctx, "player-2", "LUCKY10")
	assert.ErrorIs(t, err, ErrPromoAlreadyUsed)

	_, err = svc.ApplyPromoCode(ctx, "player-1", "NO-SUCH-CODE")
	assert.ErrorIs(t, err, ErrPromoNotFound)
}

func TestInactiveAccountCannotMoveMoney(t *testing.T) {
	svc, repo, ledgerSvc := newTestWallet(t, Config{})
	ctx := context.Background()

	_, err := svc.Deposit(ctx, "player-1", dec("50.00"), "card")
	require.NoError(t, err)

	account, err := ledgerSvc.GetAccount(ctx, "player-1")
	require.NoError(t, err)
	account.Active = false
	require.NoError(t, repo.SaveAccount(account))

	_, err = svc.Deposit(ctx, "player-1", dec("10.00"), "card")
	assert.ErrorIs(t, err, ErrAccountInactive)

	_, err = svc.Withdraw(ctx, "player-1", dec("10.00"), "card")
	assert.ErrorIs(t, err, ErrAccountInactive)
}
