package repositories

import (
	"sort"
	"sync"
	"time"

	"moongamble/internal/models"

	"github.com/shopspring/decimal"
)

// memoryLedgerRepository is an in-memory LedgerRepository. It backs tests and
// DB-less runs; writes are guarded by a single mutex.
type memoryLedgerRepository struct {
	mu       sync.Mutex
	accounts map[string]*models.Account
	entries  []*models.LedgerEntry
	nextID   uint
}

// NewMemoryLedgerRepository returns an in-memory LedgerRepository.
func NewMemoryLedgerRepository() LedgerRepository {
	return &memoryLedgerRepository{
		accounts: make(map[string]*models.Account),
		nextID:   1,
	}
}

func (r *memoryLedgerRepository) GetAccount(id string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	copied := *account
	return &copied, nil
}

func (r *memoryLedgerRepository) GetOrCreateAccount(id string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if account, ok := r.accounts[id]; ok {
		copied := *account
		return &copied, nil
	}
	account := &models.Account{
		ID:                id,
		Balance:           decimal.Zero,
		BonusBalance:      decimal.Zero,
		ReferralBonusRate: decimal.Zero,
		ReferralEarnings:  decimal.Zero,
		Active:            true,
		CreatedAt:         time.Now(),
	}
	r.accounts[id] = account
	copied := *account
	return &copied, nil
}

func (r *memoryLedgerRepository) SaveAccount(account *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *account
	copied.UpdatedAt = time.Now()
	r.accounts[account.ID] = &copied
	return nil
}

func (r *memoryLedgerRepository) CreateEntry(entry *models.LedgerEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = r.nextID
	r.nextID++
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	copied := *entry
	r.entries = append(r.entries, &copied)
	return nil
}

func (r *memoryLedgerRepository) SaveEntry(entry *models.LedgerEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.entries {
		if e.ID == entry.ID {
			copied := *entry
			copied.UpdatedAt = time.Now()
			r.entries[i] = &copied
			return nil
		}
	}
	return ErrEntryNotFound
}

func (r *memoryLedgerRepository) GetEntry(id uint) (*models.LedgerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.ID == id {
			copied := *e
			return &copied, nil
		}
	}
	return nil, ErrEntryNotFound
}

func (r *memoryLedgerRepository) ListEntries(q HistoryQuery) ([]models.LedgerEntry, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []models.LedgerEntry
	for _, e := range r.entries {
		if e.AccountID != q.AccountID {
			continue
		}
		if len(q.Types) > 0 && !containsType(q.Types, e.Type) {
			continue
		}
		matched = append(matched, *e)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	page := q.Page
	if page < 1 {
		page = 1
	}
	start := (page - 1) * q.Limit
	if start >= len(matched) {
		return []models.LedgerEntry{}, total, nil
	}
	end := start + q.Limit
	if q.Limit <= 0 || end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *memoryLedgerRepository) ListPendingWithdrawals() ([]models.LedgerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var pending []models.LedgerEntry
	for _, e := range r.entries {
		if e.Type == models.EntryTypeWithdrawal && e.Status == models.StatusPending {
			pending = append(pending, *e)
		}
	}
	return pending, nil
}

func (r *memoryLedgerRepository) LastEntryByType(accountID, entryType string) (*models.LedgerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if e.AccountID == accountID && e.Type == entryType {
			copied := *e
			return &copied, nil
		}
	}
	return nil, ErrEntryNotFound
}

func (r *memoryLedgerRepository) SumConfirmed(accountID string) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := decimal.Zero
	for _, e := range r.entries {
		if e.AccountID == accountID && e.Status == models.StatusConfirmed {
			sum = sum.Add(e.Amount)
		}
	}
	return sum, nil
}

// ExecuteInTransaction runs fn against the same store. The in-memory backend
// has no rollback; callers rely on process-level locking for atomicity.
func (r *memoryLedgerRepository) ExecuteInTransaction(fn func(LedgerRepository) error) error {
	return fn(r)
}

func containsType(types []string, t string) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}

var _ LedgerRepository = (*memoryLedgerRepository)(nil)
