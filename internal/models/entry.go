package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Entry types
const (
	EntryTypeBet        = "BET"
	EntryTypeWin        = "WIN"
	EntryTypeRefund     = "REFUND"
	EntryTypeDeposit    = "DEPOSIT"
	EntryTypeWithdrawal = "WITHDRAWAL"
	EntryTypeBonus      = "BONUS"
	EntryTypeReferral   = "REFERRAL"
)

// Entry statuses. Only withdrawal-type entries ever sit in PENDING;
// everything else is written CONFIRMED.
const (
	StatusPending   = "PENDING"
	StatusConfirmed = "CONFIRMED"
	StatusRejected  = "REJECTED"
)

// LedgerEntry is one append-only record in an account's history. Amount is
// signed: debits negative, credits positive. An account's balance equals the
// sum of its CONFIRMED entry amounts.
type LedgerEntry struct {
	ID            uint            `gorm:"primarykey"`
	AccountID     string          `gorm:"index;not null"`
	SessionID     string          `gorm:"index"`
	TransactionID string          `gorm:"index"` // provider transaction id, unique within session scope
	ReferenceID   string          // back-reference to a prior entry (e.g. the bet a refund reverses)
	Type          string          `gorm:"not null"`
	Status        string          `gorm:"not null;default:'CONFIRMED'"`
	Amount        decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	PaymentSystem string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Settled reports whether the entry reached a terminal status.
func (e *LedgerEntry) Settled() bool {
	return e.Status == StatusConfirmed || e.Status == StatusRejected
}
