package handlers

import (
	"errors"

	"moongamble/internal/repositories"
	"moongamble/internal/services/ledger"
	"moongamble/internal/services/wallet"
	"moongamble/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

// AdminHandler serves the back-office withdrawal review endpoints.
type AdminHandler struct {
	wallet wallet.Service
}

func NewAdminHandler(svc wallet.Service) *AdminHandler {
	return &AdminHandler{wallet: svc}
}

func (h *AdminHandler) PendingWithdrawals(c *fiber.Ctx) error {
	entries, err := h.wallet.PendingWithdrawals(c.Context())
	if err != nil {
		return response.ServerError(c, "Internal server error")
	}
	return response.Success(c, fiber.Map{"withdrawals": entries})
}

func (h *AdminHandler) ConfirmWithdrawal(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid withdrawal id")
	}
	if err := h.wallet.ConfirmWithdrawal(c.Context(), uint(id)); err != nil {
		return h.settleFailure(c, err)
	}
	return response.Success(c, fiber.Map{"status": "CONFIRMED"})
}

func (h *AdminHandler) RejectWithdrawal(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid withdrawal id")
	}
	if err := h.wallet.RejectWithdrawal(c.Context(), uint(id)); err != nil {
		return h.settleFailure(c, err)
	}
	return response.Success(c, fiber.Map{"status": "REJECTED"})
}

func (h *AdminHandler) settleFailure(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, repositories.ErrEntryNotFound):
		return response.NotFound(c, "Withdrawal not found")
	case errors.Is(err, ledger.ErrEntrySettled):
		return response.BadRequest(c, "Withdrawal already settled")
	case errors.Is(err, ledger.ErrNotWithdrawal):
		return response.BadRequest(c, "Entry is not a withdrawal")
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return response.BadRequest(c, "Account can no longer cover this withdrawal")
	default:
		return response.ServerError(c, "Internal server error")
	}
}
