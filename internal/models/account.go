package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account holds the authoritative balance for one player. Accounts are created
// implicitly the first time any provider action references an unknown id.
type Account struct {
	ID                string          `gorm:"primarykey"`
	Balance           decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	BonusBalance      decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	Currency          string          `gorm:"default:'USD'"`
	Active            bool            `gorm:"default:true"`
	HasDeposited      bool            `gorm:"default:false"`
	ReferrerID        *string         `gorm:"index"`
	ReferralBonusRate decimal.Decimal `gorm:"type:numeric(5,2)"`
	ReferralEarnings  decimal.Decimal `gorm:"type:numeric(20,2)"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// PureBalance is the portion of the balance eligible for withdrawal.
func (a *Account) PureBalance() decimal.Decimal {
	return a.Balance.Sub(a.BonusBalance)
}
