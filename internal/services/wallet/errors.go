package wallet

import "errors"

// Service errors
var (
	ErrInvalidAmount           = errors.New("invalid amount")
	ErrInsufficientPureBalance = errors.New("insufficient pure balance to withdraw")
	ErrTooEarly                = errors.New("bonus claimed too early")
	ErrNoBonusEarned           = errors.New("no bonus transactions found")
	ErrPromoNotFound           = errors.New("promo code not found")
	ErrPromoAlreadyUsed        = errors.New("promo code already used")
	ErrAccountInactive         = errors.New("account is inactive")
)
