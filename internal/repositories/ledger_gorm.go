package repositories

import (
	"errors"
	"fmt"

	"moongamble/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ledgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository returns a postgres-backed LedgerRepository.
func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) GetAccount(id string) (*models.Account, error) {
	var account models.Account
	if err := r.db.First(&account, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

func (r *ledgerRepository) GetOrCreateAccount(id string) (*models.Account, error) {
	account, err := r.GetAccount(id)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, ErrAccountNotFound) {
		return nil, err
	}

	account = &models.Account{
		ID:                id,
		Balance:           decimal.Zero,
		BonusBalance:      decimal.Zero,
		ReferralBonusRate: decimal.Zero,
		ReferralEarnings:  decimal.Zero,
	}
	if err := r.db.Create(account).Error; err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return account, nil
}

func (r *ledgerRepository) SaveAccount(account *models.Account) error {
	if err := r.db.Save(account).Error; err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}
	return nil
}

func (r *ledgerRepository) CreateEntry(entry *models.LedgerEntry) error {
	if err := r.db.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create ledger entry: %w", err)
	}
	return nil
}

func (r *ledgerRepository) SaveEntry(entry *models.LedgerEntry) error {
	if err := r.db.Save(entry).Error; err != nil {
		return fmt.Errorf("failed to save ledger entry: %w", err)
	}
	return nil
}

func (r *ledgerRepository) GetEntry(id uint) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	if err := r.db.First(&entry, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to get ledger entry: %w", err)
	}
	return &entry, nil
}

func (r *ledgerRepository) ListEntries(q HistoryQuery) ([]models.LedgerEntry, int64, error) {
	query := r.db.Model(&models.LedgerEntry{}).Where("account_id = ?", q.AccountID)
	if len(q.Types) > 0 {
		query = query.Where("type IN ?", q.Types)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count ledger entries: %w", err)
	}

	page := q.Page
	if page < 1 {
		page = 1
	}
	var entries []models.LedgerEntry
	err := query.Order("created_at DESC").
		Limit(q.Limit).
		Offset((page - 1) * q.Limit).
		Find(&entries).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	return entries, total, nil
}

func (r *ledgerRepository) ListPendingWithdrawals() ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := r.db.Where("type = ? AND status = ?", models.EntryTypeWithdrawal, models.StatusPending).
		Order("created_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending withdrawals: %w", err)
	}
	return entries, nil
}

func (r *ledgerRepository) LastEntryByType(accountID, entryType string) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	err := r.db.Where("account_id = ? AND type = ?", accountID, entryType).
		Order("created_at DESC").
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to get last entry: %w", err)
	}
	return &entry, nil
}

func (r *ledgerRepository) SumConfirmed(accountID string) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.Model(&models.LedgerEntry{}).
		Where("account_id = ? AND status = ?", accountID, models.StatusConfirmed).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum confirmed entries: %w", err)
	}
	return sum, nil
}

func (r *ledgerRepository) ExecuteInTransaction(fn func(LedgerRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&ledgerRepository{db: tx})
	})
}
