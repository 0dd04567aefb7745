// Package repositories provides the data access layer.
// It handles all database operations and data persistence logic.
package repositories

import (
	"errors"

	"moongamble/internal/models"

	"github.com/shopspring/decimal"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrEntryNotFound   = errors.New("ledger entry not found")
)

// HistoryQuery narrows and paginates an account's entry listing.
type HistoryQuery struct {
	AccountID string
	Page      int
	Limit     int
	Types     []string
}

// LedgerRepository persists accounts and their append-only entry history.
// Entries are never deleted; withdrawal entries additionally move through
// PENDING -> CONFIRMED/REJECTED via SaveEntry.
type LedgerRepository interface {
	GetAccount(id string) (*models.Account, error)
	// GetOrCreateAccount returns the account, creating it with a zero
	// balance on first reference.
	GetOrCreateAccount(id string) (*models.Account, error)
	SaveAccount(account *models.Account) error

	CreateEntry(entry *models.LedgerEntry) error
	SaveEntry(entry *models.LedgerEntry) error
	GetEntry(id uint) (*models.LedgerEntry, error)
	ListEntries(q HistoryQuery) ([]models.LedgerEntry, int64, error)
	ListPendingWithdrawals() ([]models.LedgerEntry, error)
	LastEntryByType(accountID, entryType string) (*models.LedgerEntry, error)
	SumConfirmed(accountID string) (decimal.Decimal, error)

	// ExecuteInTransaction runs fn atomically; any error rolls back every
	// write made through the repository it receives.
	ExecuteInTransaction(fn func(LedgerRepository) error) error
}
