package wallet

import (
	"time"

	"moongamble/internal/models"

	"github.com/shopspring/decimal"
)

// Config holds wallet policy knobs.
type Config struct {
	// DefaultReferralBonusRate applies when an account has a referrer but
	// no per-account rate set.
	DefaultReferralBonusRate decimal.Decimal
	// BonusAmount is the fixed periodic bonus.
	BonusAmount decimal.Decimal
	// BonusInterval is the minimum gap between periodic bonus claims.
	BonusInterval time.Duration
}

// HistoryQuery paginates an account's transaction history.
type HistoryQuery struct {
	AccountID string
	Page      int
	Limit     int
	Types     []string
}

// HistoryPage is one page of an account's history plus the unpaginated total.
type HistoryPage struct {
	Total   int64                `json:"total"`
	Entries []models.LedgerEntry `json:"transactions"`
}

// BalanceSummary is the three balance views an account exposes.
type BalanceSummary struct {
	Balance      decimal.Decimal `json:"balance"`
	BonusBalance decimal.Decimal `json:"bonus_balance"`
	PureBalance  decimal.Decimal `json:"pure_balance"`
}

// BonusEarned reports a successful periodic bonus claim.
type BonusEarned struct {
	Amount  decimal.Decimal `json:"amount"`
	Balance decimal.Decimal `json:"balance"`
}

// PromoCode is one entry of the promo catalog.
type PromoCode struct {
	Code   string
	Amount decimal.Decimal
	Used   bool
}
