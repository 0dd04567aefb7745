package handlers

import (
	"errors"
	"strings"
	"time"

	"moongamble/internal/middleware"
	"moongamble/internal/services/wallet"
	"moongamble/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// WalletHandler serves the player-facing wallet endpoints.
type WalletHandler struct {
	wallet wallet.Service
}

func NewWalletHandler(svc wallet.Service) *WalletHandler {
	return &WalletHandler{wallet: svc}
}

type amountRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	PaymentSystem string          `json:"payment_system"`
}

func (h *WalletHandler) Deposit(c *fiber.Ctx) error {
	claims, err := middleware.Claims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	var req amountRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	balance, err := h.wallet.Deposit(c.Context(), claims.AccountID, req.Amount, req.PaymentSystem)
	if err != nil {
		return h.walletFailure(c, err)
	}
	return response.Success(c, fiber.Map{"balance": balance})
}

func (h *WalletHandler) BonusDeposit(c *fiber.Ctx) error {
	claims, err := middleware.Claims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	var req amountRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	balance, err := h.wallet.BonusDeposit(c.Context(), claims.AccountID, req.Amount, req.PaymentSystem)
	if err != nil {
		return h.walletFailure(c, err)
	}
	return response.Success(c, fiber.Map{"balance": balance})
}

func (h *WalletHandler) Withdraw(c *fiber.Ctx) error {
	claims, err := middleware.Claims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	var req amountRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	entry, err := h.wallet.Withdraw(c.Context(), claims.AccountID, req.Amount, req.PaymentSystem)
	if err != nil {
		return h.walletFailure(c, err)
	}
	return response.Success(c, fiber.Map{
		"withdrawal_id": entry.ID,
		"status":        entry.Status,
		"amount":        req.Amount,
	})
}

// LastWithdrawal reports the most recent withdrawal request. Accounts
// that never withdrew get a zero record with a fixed sentinel date so
// clients can always render the field.
func (h *WalletHandler) LastWithdrawal(c *fiber.Ctx) error {
	claims, err := middleware.Claims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	entry, err := h.wallet.LastWithdrawal(c.Context(), claims.AccountID)
	if err != nil {
		return h.walletFailure(c, err)
	}
	if entry == nil {
		return response.Success(c, fiber.Map{
			"amount":     decimal.Zero,
			"status":     "",
			"created_at": time.Date(1900, 9, 1, 0, 0, 0, 0, time.UTC),
		})
	}
	return response.Success(c, fiber.Map{
		"amount":     entry.Amount.Abs(),
		"status":     entry.Status,
		"created_at": entry.CreatedAt,
	})
}

func (h *WalletHandler) Balance(c *fiber.Ctx) error {
	claims, err := middleware.Claims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	summary, err := h.wallet.Balance(c.Context(), claims.AccountID)
	if err != nil {
		return h.walletFailure(c, err)
	}
	return response.Success(c, summary)
}

func (h *WalletHandler) History(c *fiber.Ctx) error {
	claims, err := middleware.Claims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	q := wallet.HistoryQuery{
		AccountID: claims.AccountID,
		Page:      c.QueryInt("page", 1),
		Limit:     c.QueryInt("limit", 20),
	}
	if types := c.Query("types"); types != "" {
		q.Types = strings.Split(types, ",")
	}

	page, err := h.wallet.History(c.Context(), q)
	if err != nil {
		return h.walletFailure(c, err)
	}
	return response.Success(c, page)
}

func (h *WalletHandler) EarnBonus(c *fiber.Ctx) error {
	claims, err := middleware.Claims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	earned, err := h.wallet.EarnBonus(c.Context(), claims.AccountID)
	if err != nil {
		return h.walletFailure(c, err)
	}
	return response.Success(c, earned)
}

func (h *WalletHandler) LastBonusEarn(c *fiber.Ctx) error {
	claims, err := middleware.Claims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	at, err := h.wallet.LastBonusEarn(c.Context(), claims.AccountID)
	if err != nil {
		return h.walletFailure(c, err)
	}
	return response.Success(c, fiber.Map{"last_earned_at": at})
}

func (h *WalletHandler) ApplyPromoCode(c *fiber.Ctx) error {
	claims, err := middleware.Claims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	var req struct {
		Code string `json:"code"`
	}
	if err := c.BodyParser(&req); err != nil || req.Code == "" {
		return response.BadRequest(c, "Missing promo code")
	}

	balance, err := h.wallet.ApplyPromoCode(c.Context(), claims.AccountID, req.Code)
	if err != nil {
		return h.walletFailure(c, err)
	}
	return response.Success(c, fiber.Map{"balance": balance})
}

func (h *WalletHandler) walletFailure(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, wallet.ErrInvalidAmount):
		return response.BadRequest(c, "Amount must be positive")
	case errors.Is(err, wallet.ErrInsufficientPureBalance):
		return response.BadRequest(c, "Insufficient withdrawable balance")
	case errors.Is(err, wallet.ErrTooEarly):
		return response.Error(c, fiber.StatusTooManyRequests, "Bonus not available yet")
	case errors.Is(err, wallet.ErrNoBonusEarned):
		return response.NotFound(c, "No bonus transactions found")
	case errors.Is(err, wallet.ErrPromoNotFound):
		return response.NotFound(c, "Promo code not found")
	case errors.Is(err, wallet.ErrPromoAlreadyUsed):
		return response.BadRequest(c, "Promo code already used")
	case errors.Is(err, wallet.ErrAccountInactive):
		return response.Forbidden(c)
	default:
		return response.ServerError(c, "Internal server error")
	}
}
