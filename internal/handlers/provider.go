// Package handlers contains the fiber HTTP handlers.
package handlers

import (
	"errors"
	"log"

	"moongamble/internal/services/idempotency"
	"moongamble/internal/services/ledger"
	"moongamble/internal/services/provider"
	"moongamble/internal/services/reconciler"
	"moongamble/internal/services/signature"
	"moongamble/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// Provider wire error codes.
const (
	codeInsufficientFunds = "INSUFFICIENT_FUNDS"
	codeInternalError     = "INTERNAL_ERROR"
)

// ProviderHandler serves the game provider's balance callbacks.
type ProviderHandler struct {
	reconciler reconciler.Service
	verifier   *signature.Verifier
	client     *provider.Client
}

func NewProviderHandler(rec reconciler.Service, verifier *signature.Verifier, client *provider.Client) *ProviderHandler {
	return &ProviderHandler{
		reconciler: rec,
		verifier:   verifier,
		client:     client,
	}
}

// requiredFields lists the form fields each action must carry. Missing
// fields are malformed requests and answered with a transport 400; every
// validation failure past this point is a 200 with an error payload.
func requiredFields(action string) []string {
	switch action {
	case "bet":
		return []string{"player_id", "amount", "currency", "game_uuid", "transaction_id", "session_id", "type"}
	case "win", "refund":
		return []string{"player_id", "amount", "currency", "game_uuid", "transaction_id", "session_id", "type", "bet_transaction_id"}
	case "balance":
		return []string{"player_id", "currency", "session_id"}
	default:
		return []string{"session_id", "transaction_id", "player_id"}
	}
}

// HandleCallback is the single entry point for bet/win/refund/balance.
func (h *ProviderHandler) HandleCallback(c *fiber.Ctx) error {
	params := formParams(c)

	action := params["action"]
	if action == "" {
		return response.BadRequest(c, "Missing required parameter: 'action'")
	}
	for _, field := range requiredFields(action) {
		if params[field] == "" {
			return response.BadRequest(c, "Missing required parameter: '"+field+"'")
		}
	}

	meta := signature.Metadata{
		MerchantID: c.Get(signature.HeaderMerchantID),
		Timestamp:  c.Get(signature.HeaderTimestamp),
		Nonce:      c.Get(signature.HeaderNonce),
	}
	if !h.verifier.Verify(params, meta, c.Get(signature.HeaderSign)) {
		log.Printf("invalid signature for session %q", params["session_id"])
		return callbackError(c, codeInternalError, "Invalid signature")
	}

	amount := decimal.Zero
	if raw, ok := params["amount"]; ok && raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil {
			return response.BadRequest(c, "Invalid parameter: 'amount'")
		}
		amount = parsed
	}

	res, err := h.reconciler.ApplyAction(c.Context(), reconciler.Request{
		SessionID:     params["session_id"],
		AccountID:     params["player_id"],
		TransactionID: params["transaction_id"],
		Action:        reconciler.Action(action),
		Amount:        amount,
		Reference:     params["bet_transaction_id"],
		Currency:      params["currency"],
		GameUUID:      params["game_uuid"],
	})
	if err != nil {
		return h.callbackFailure(c, params["session_id"], err)
	}

	if reconciler.Action(action) == reconciler.ActionBalance {
		return response.Success(c, fiber.Map{"balance": res.Balance.InexactFloat64()})
	}
	return response.Success(c, fiber.Map{
		"balance":        res.Balance.InexactFloat64(),
		"transaction_id": res.TransactionID,
	})
}

// callbackFailure maps reconciliation errors to the provider's error
// payloads. Internal faults are logged with full context and answered
// generically; the cause never leaks to the caller.
func (h *ProviderHandler) callbackFailure(c *fiber.Ctx, sessionID string, err error) error {
	switch {
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return callbackError(c, codeInsufficientFunds, "Not enough money to place this bet")
	case errors.Is(err, idempotency.ErrSessionConflict):
		return callbackError(c, codeInternalError, "Session is tied to a different player")
	case errors.Is(err, reconciler.ErrInvalidReference):
		return callbackError(c, codeInternalError, "Invalid bet transaction reference")
	case errors.Is(err, reconciler.ErrUnexpectedAction):
		return callbackError(c, codeInternalError, "Unexpected action type")
	case errors.Is(err, reconciler.ErrMissingFields):
		return callbackError(c, codeInternalError, "Invalid session or transaction data")
	default:
		log.Printf("callback processing failed for session %q: %v", sessionID, err)
		return callbackError(c, codeInternalError, "Unexpected server error. Please contact support.")
	}
}

// SelfValidate runs the outbound provider self-check.
func (h *ProviderHandler) SelfValidate(c *fiber.Ctx) error {
	log.Println("performing provider self-validation")
	resp, err := h.client.SelfValidate(c.Context())
	if err != nil {
		log.Printf("self-validation failed: %v", err)
		return response.ServerError(c, "self-validation failed")
	}
	return response.Success(c, resp)
}

func callbackError(c *fiber.Ctx, code, description string) error {
	return c.JSON(fiber.Map{
		"error_code":        code,
		"error_description": description,
	})
}

func formParams(c *fiber.Ctx) map[string]string {
	params := make(map[string]string)
	c.Request().PostArgs().VisitAll(func(key, value []byte) {
		params[string(key)] = string(value)
	})
	return params
}
