package wallet

import (
	"sync"

	"github.com/shopspring/decimal"
)

// promoCatalog is the fixed single-use promo code set. Applying a code marks
// it used for everyone; codes are campaign-wide, not per-account.
type promoCatalog struct {
	mu    sync.Mutex
	codes map[string]*PromoCode
}

func newPromoCatalog(codes []PromoCode) *promoCatalog {
	catalog := &promoCatalog{codes: make(map[string]*PromoCode, len(codes))}
	for i := range codes {
		c := codes[i]
		catalog.codes[c.Code] = &c
	}
	return catalog
}

// redeem marks the code used and returns its amount. The caller credits the
// account; a failed credit releases the code again.
func (p *promoCatalog) redeem(code string) (decimal.Decimal, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	promo, ok := p.codes[code]
	if !ok {
		return decimal.Zero, ErrPromoNotFound
	}
	if promo.Used {
		return decimal.Zero, ErrPromoAlreadyUsed
	}
	promo.Used = true
	return promo.Amount, nil
}

func (p *promoCatalog) release(code string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if promo, ok := p.codes[code]; ok {
		promo.Used = false
	}
}

func defaultPromoCodes() []PromoCode {
	amounts := map[string]int64{
		"LUCKY10":       10,
		"WELCOME20":     20,
		"BONUS50":       50,
		"FIRSTTIME100":  100,
		"GAMBLER25":     25,
		"MOONLIGHT40":   40,
		"STARWIN75":     75,
		"HAPPYHOUR20":   20,
		"EXCLUSIVE150":  150,
		"BESTPLAYER250": 250,
		"WINNER100":     100,
		"BONUSKING50":   50,
		"REWARD500":     500,
		"SUPERLUCK70":   70,
		"GOLDEN250":     250,
	}
	codes := make([]PromoCode, 0, len(amounts))
	for code, amount := range amounts {
		codes = append(codes, PromoCode{Code: code, Amount: decimal.NewFromInt(amount)})
	}
	return codes
}
