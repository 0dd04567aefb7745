package ledger

import (
	"context"
	"fmt"
	"sync"

	"moongamble/internal/models"
	"moongamble/internal/repositories"

	"github.com/shopspring/decimal"
)

type service struct {
	repo    repositories.LedgerRepository
	metrics MetricsCollector

	muMap map[string]*sync.Mutex // per-account locks
	mapMu sync.Mutex             // protects muMap itself
}

// NewService creates a new ledger service.
func NewService(repo repositories.LedgerRepository, metrics MetricsCollector) Service {
	if repo == nil {
		panic("repo is required")
	}
	if metrics == nil {
		metrics = NoopMetricsCollector{}
	}
	return &service{
		repo:    repo,
		metrics: metrics,
		muMap:   make(map[string]*sync.Mutex),
	}
}

func (s *service) accountLock(accountID string) *sync.Mutex {
	s.mapMu.Lock()
	defer s.mapMu.Unlock()
	if _, exists := s.muMap[accountID]; !exists {
		s.muMap[accountID] = &sync.Mutex{}
	}
	return s.muMap[accountID]
}

func (s *service) Debit(ctx context.Context, op Operation) (decimal.Decimal, error) {
	if op.Amount.IsNegative() {
		s.metrics.RecordError("debit", "invalid_amount")
		return decimal.Zero, ErrInvalidAmount
	}

	mu := s.accountLock(op.AccountID)
	mu.Lock()
	defer mu.Unlock()

	account, err := s.repo.GetOrCreateAccount(op.AccountID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to load account: %w", err)
	}

	// A zero-amount operation records a no-op entry and leaves the balance
	// alone; providers probe idempotency with them.
	if op.Amount.IsZero() {
		if err := s.repo.CreateEntry(entryFor(op, decimal.Zero)); err != nil {
			return decimal.Zero, err
		}
		return account.Balance, nil
	}

	if account.Balance.LessThan(op.Amount) {
		s.metrics.RecordError("debit", "insufficient_funds")
		return account.Balance, ErrInsufficientFunds
	}

	account.Balance = account.Balance.Sub(op.Amount)
	err = s.repo.ExecuteInTransaction(func(tx repositories.LedgerRepository) error {
		if err := tx.SaveAccount(account); err != nil {
			return err
		}
		return tx.CreateEntry(entryFor(op, op.Amount.Neg()))
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to apply debit: %w", err)
	}

	s.metrics.RecordTransaction(op.Type, op.Amount)
	return account.Balance, nil
}

func (s *service) Credit(ctx context.Context, op Operation) (decimal.Decimal, error) {
	if op.Amount.IsNegative() {
		s.metrics.RecordError("credit", "invalid_amount")
		return decimal.Zero, ErrInvalidAmount
	}

	mu := s.accountLock(op.AccountID)
	mu.Lock()
	defer mu.Unlock()

	account, err := s.repo.GetOrCreateAccount(op.AccountID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to load account: %w", err)
	}

	if op.Amount.IsZero() {
		if err := s.repo.CreateEntry(entryFor(op, decimal.Zero)); err != nil {
			return decimal.Zero, err
		}
		return account.Balance, nil
	}

	account.Balance = account.Balance.Add(op.Amount)
	if op.Type == models.EntryTypeBonus || op.Type == models.EntryTypeReferral {
		account.BonusBalance = account.BonusBalance.Add(op.Amount)
	}
	err = s.repo.ExecuteInTransaction(func(tx repositories.LedgerRepository) error {
		if err := tx.SaveAccount(account); err != nil {
			return err
		}
		return tx.CreateEntry(entryFor(op, op.Amount))
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to apply credit: %w", err)
	}

	s.metrics.RecordTransaction(op.Type, op.Amount)
	return account.Balance, nil
}

func (s *service) RecordPending(ctx context.Context, op Operation) (*models.LedgerEntry, error) {
	if op.Amount.IsNegative() || op.Amount.IsZero() {
		return nil, ErrInvalidAmount
	}

	mu := s.accountLock(op.AccountID)
	mu.Lock()
	defer mu.Unlock()

	if _, err := s.repo.GetOrCreateAccount(op.AccountID); err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	entry := entryFor(op, op.Amount.Neg())
	entry.Status = models.StatusPending
	if err := s.repo.CreateEntry(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) Settle(ctx context.Context, entryID uint, approve bool) (*models.LedgerEntry, error) {
	entry, err := s.repo.GetEntry(entryID)
	if err != nil {
		return nil, err
	}
	if entry.Type != models.EntryTypeWithdrawal {
		return nil, ErrNotWithdrawal
	}

	mu := s.accountLock(entry.AccountID)
	mu.Lock()
	defer mu.Unlock()

	// Re-read under the lock; a concurrent settle may have won.
	entry, err = s.repo.GetEntry(entryID)
	if err != nil {
		return nil, err
	}
	if entry.Settled() {
		return nil, ErrEntrySettled
	}

	if !approve {
		entry.Status = models.StatusRejected
		if err := s.repo.SaveEntry(entry); err != nil {
			return nil, err
		}
		return entry, nil
	}

	account, err := s.repo.GetAccount(entry.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	magnitude := entry.Amount.Abs()
	if account.Balance.LessThan(magnitude) {
		s.metrics.RecordError("settle", "insufficient_funds")
		return nil, ErrInsufficientFunds
	}

	account.Balance = account.Balance.Sub(magnitude)
	entry.Status = models.StatusConfirmed
	err = s.repo.ExecuteInTransaction(func(tx repositories.LedgerRepository) error {
		if err := tx.SaveAccount(account); err != nil {
			return err
		}
		return tx.SaveEntry(entry)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to settle withdrawal: %w", err)
	}

	s.metrics.RecordTransaction(models.EntryTypeWithdrawal, magnitude)
	return entry, nil
}

func (s *service) GetAccount(ctx context.Context, accountID string) (*models.Account, error) {
	mu := s.accountLock(accountID)
	mu.Lock()
	defer mu.Unlock()
	return s.repo.GetOrCreateAccount(accountID)
}

func (s *service) GetBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	account, err := s.GetAccount(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	return account.Balance, nil
}

func (s *service) GetBonusBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	account, err := s.GetAccount(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	return account.BonusBalance, nil
}

func (s *service) GetPureBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	account, err := s.GetAccount(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	return account.PureBalance(), nil
}

func entryFor(op Operation, signed decimal.Decimal) *models.LedgerEntry {
	return &models.LedgerEntry{
		AccountID:     op.AccountID,
		SessionID:     op.SessionID,
		TransactionID: op.TransactionID,
		ReferenceID:   op.ReferenceID,
		Type:          op.Type,
		Status:        models.StatusConfirmed,
		Amount:        signed,
		PaymentSystem: op.PaymentSystem,
	}
}
