package wallet

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"moongamble/internal/models"
	"moongamble/internal/repositories"
	"moongamble/internal/services/ledger"

	"github.com/shopspring/decimal"
)

type service struct {
	repo   repositories.LedgerRepository
	ledger ledger.Service
	config Config
	promos *promoCatalog

	// serializes the first-deposit referral check per process
	referralMu sync.Mutex
}

// NewService creates a new wallet service.
func NewService(repo repositories.LedgerRepository, ledgerSvc ledger.Service, config Config) Service {
	if repo == nil {
		panic("repo is required")
	}
	if ledgerSvc == nil {
		panic("ledger service is required")
	}

	if config.DefaultReferralBonusRate.IsZero() {
		config.DefaultReferralBonusRate = decimal.RequireFromString("0.10")
	}
	if config.BonusAmount.IsZero() {
		config.BonusAmount = decimal.NewFromInt(10)
	}
	if config.BonusInterval == 0 {
		config.BonusInterval = 24 * time.Hour
	}

	return &service{
		repo:   repo,
		ledger: ledgerSvc,
		config: config,
		promos: newPromoCatalog(defaultPromoCodes()),
	}
}

// requireActive rejects money movement on deactivated accounts.
func (s *service) requireActive(ctx context.Context, accountID string) error {
	account, err := s.ledger.GetAccount(ctx, accountID)
	if err != nil {
		return err
	}
	if !account.Active {
		return ErrAccountInactive
	}
	return nil
}

func (s *service) Deposit(ctx context.Context, accountID string, amount decimal.Decimal, paymentSystem string) (decimal.Decimal, error) {
	if amount.IsZero() || amount.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	if err := s.requireActive(ctx, accountID); err != nil {
		return decimal.Zero, err
	}

	if err := s.applyReferralBonus(ctx, accountID, amount); err != nil {
		return decimal.Zero, err
	}

	return s.ledger.Credit(ctx, ledger.Operation{
		AccountID:     accountID,
		Type:          models.EntryTypeDeposit,
		Amount:        amount,
		PaymentSystem: paymentSystem,
	})
}

func (s *service) BonusDeposit(ctx context.Context, accountID string, amount decimal.Decimal, paymentSystem string) (decimal.Decimal, error) {
	if amount.IsZero() || amount.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	if err := s.requireActive(ctx, accountID); err != nil {
		return decimal.Zero, err
	}

	if err := s.applyReferralBonus(ctx, accountID, amount); err != nil {
		return decimal.Zero, err
	}

	return s.ledger.Credit(ctx, ledger.Operation{
		AccountID:     accountID,
		Type:          models.EntryTypeBonus,
		Amount:        amount,
		PaymentSystem: paymentSystem,
	})
}

// applyReferralBonus pays the referrer on the account's first deposit and
// flips has_deposited exactly once.
func (s *service) applyReferralBonus(ctx context.Context, accountID string, amount decimal.Decimal) error {
	s.referralMu.Lock()
	defer s.referralMu.Unlock()

	account, err := s.ledger.GetAccount(ctx, accountID)
	if err != nil {
		return err
	}
	if account.HasDeposited {
		return nil
	}

	if account.ReferrerID != nil {
		referrer, err := s.repo.GetAccount(*account.ReferrerID)
		if err != nil {
			if !errors.Is(err, repositories.ErrAccountNotFound) {
				return err
			}
			log.Printf("referrer %q of account %q not found", *account.ReferrerID, accountID)
		} else {
			rate := referrer.ReferralBonusRate
			if rate.IsZero() {
				rate = s.config.DefaultReferralBonusRate
			}
			bonus := amount.Mul(rate).Round(2)

			if _, err := s.ledger.Credit(ctx, ledger.Operation{
				AccountID: referrer.ID,
				Type:      models.EntryTypeReferral,
				Amount:    bonus,
			}); err != nil {
				return fmt.Errorf("failed to credit referral bonus: %w", err)
			}

			// Re-read: the credit above rewrote the referrer row.
			referrer, err = s.repo.GetAccount(referrer.ID)
			if err != nil {
				return err
			}
			referrer.ReferralEarnings = referrer.ReferralEarnings.Add(bonus)
			if err := s.repo.SaveAccount(referrer); err != nil {
				return err
			}
		}
	}

	account.HasDeposited = true
	return s.repo.SaveAccount(account)
}

func (s *service) Withdraw(ctx context.Context, accountID string, amount decimal.Decimal, paymentSystem string) (*models.LedgerEntry, error) {
	if amount.IsZero() || amount.IsNegative() {
		return nil, ErrInvalidAmount
	}
	if err := s.requireActive(ctx, accountID); err != nil {
		return nil, err
	}

	pure, err := s.ledger.GetPureBalance(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if amount.GreaterThan(pure) {
		return nil, ErrInsufficientPureBalance
	}

	return s.ledger.RecordPending(ctx, ledger.Operation{
		AccountID:     accountID,
		Type:          models.EntryTypeWithdrawal,
		Amount:        amount,
		PaymentSystem: paymentSystem,
	})
}

func (s *service) ConfirmWithdrawal(ctx context.Context, entryID uint) error {
	_, err := s.ledger.Settle(ctx, entryID, true)
	return err
}

func (s *service) RejectWithdrawal(ctx context.Context, entryID uint) error {
	_, err := s.ledger.Settle(ctx, entryID, false)
	return err
}

func (s *service) PendingWithdrawals(ctx context.Context) ([]models.LedgerEntry, error) {
	return s.repo.ListPendingWithdrawals()
}

func (s *service) LastWithdrawal(ctx context.Context, accountID string) (*models.LedgerEntry, error) {
	entry, err := s.repo.LastEntryByType(accountID, models.EntryTypeWithdrawal)
	if errors.Is(err, repositories.ErrEntryNotFound) {
		return nil, nil
	}
	return entry, err
}

func (s *service) History(ctx context.Context, q HistoryQuery) (*HistoryPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 5
	}
	entries, total, err := s.repo.ListEntries(repositories.HistoryQuery{
		AccountID: q.AccountID,
		Page:      q.Page,
		Limit:     q.Limit,
		Types:     q.Types,
	})
	if err != nil {
		return nil, err
	}
	return &HistoryPage{Total: total, Entries: entries}, nil
}

func (s *service) Balance(ctx context.Context, accountID string) (*BalanceSummary, error) {
	account, err := s.ledger.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return &BalanceSummary{
		Balance:      account.Balance,
		BonusBalance: account.BonusBalance,
		PureBalance:  account.PureBalance(),
	}, nil
}

func (s *service) EarnBonus(ctx context.Context, accountID string) (*BonusEarned, error) {
	last, err := s.repo.LastEntryByType(accountID, models.EntryTypeBonus)
	if err != nil && !errors.Is(err, repositories.ErrEntryNotFound) {
		return nil, err
	}
	if last != nil && time.Since(last.CreatedAt) < s.config.BonusInterval {
		return nil, ErrTooEarly
	}

	balance, err := s.ledger.Credit(ctx, ledger.Operation{
		AccountID: accountID,
		Type:      models.EntryTypeBonus,
		Amount:    s.config.BonusAmount,
	})
	if err != nil {
		return nil, err
	}
	return &BonusEarned{Amount: s.config.BonusAmount, Balance: balance}, nil
}

func (s *service) LastBonusEarn(ctx context.Context, accountID string) (time.Time, error) {
	last, err := s.repo.LastEntryByType(accountID, models.EntryTypeBonus)
	if err != nil {
		if errors.Is(err, repositories.ErrEntryNotFound) {
			return time.Time{}, ErrNoBonusEarned
		}
		return time.Time{}, err
	}
	return last.CreatedAt.UTC(), nil
}

func (s *service) ApplyPromoCode(ctx context.Context, accountID, code string) (decimal.Decimal, error) {
	amount, err := s.promos.redeem(code)
	if err != nil {
		return decimal.Zero, err
	}

	balance, err := s.ledger.Credit(ctx, ledger.Operation{
		AccountID: accountID,
		Type:      models.EntryTypeBonus,
		Amount:    amount,
	})
	if err != nil {
		s.promos.release(code)
		return decimal.Zero, fmt.Errorf("failed to apply promo code: %w", err)
	}
	return balance, nil
}
