package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"moongamble/internal/models"
	"moongamble/internal/repositories"
	"moongamble/internal/services/idempotency"
	"moongamble/internal/services/ledger"
	"moongamble/internal/services/reconciler"
	"moongamble/internal/services/signature"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMerchantKey = "callback-test-key"

func setupCallbackApp(t *testing.T) (*fiber.App, ledger.Service) {
	t.Helper()

	repo := repositories.NewMemoryLedgerRepository()
	ledgerService := ledger.NewService(repo, &ledger.NoopMetricsCollector{})
	reconcilerService := reconciler.NewService(idempotency.NewMemoryStore(), ledgerService)
	handler := NewProviderHandler(reconcilerService, signature.NewVerifier(testMerchantKey), nil)

	app := fiber.New()
	app.Post("/api/providers/callback", handler.HandleCallback)
	return app, ledgerService
}

func signedCallback(t *testing.T, app *fiber.App, params map[string]string) *http.Response {
	t.Helper()

	meta := signature.Metadata{
		MerchantID: "merchant-1",
		Timestamp:  "1700000000",
		Nonce:      "abcdef0123456789",
	}
	sign := signature.NewVerifier(testMerchantKey).Sign(params, meta)

	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/providers/callback", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(signature.HeaderMerchantID, meta.MerchantID)
	req.Header.Set(signature.HeaderTimestamp, meta.Timestamp)
	req.Header.Set(signature.HeaderNonce, meta.Nonce)
	req.Header.Set(signature.HeaderSign, sign)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func betParams(txID, amount string) map[string]string {
	return map[string]string{
		"action":         "bet",
		"player_id":      "player-1",
		"amount":         amount,
		"currency":       "USD",
		"game_uuid":      "game-1",
		"transaction_id": txID,
		"session_id":     "sess-1",
		"type":           "bet",
	}
}

func TestHandleCallback_Bet(t *testing.T) {
	app, ledgerService := setupCallbackApp(t)
	_, err := ledgerService.Credit(context.Background(), ledger.Operation{
		AccountID:     "player-1",
		TransactionID: "seed-1",
		Type:          models.EntryTypeDeposit,
		Amount:        decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	resp := signedCallback(t, app, betParams("tx-1", "40.00"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, 60.0, body["balance"])
	assert.Equal(t, "tx-1", body["transaction_id"])
}

func TestHandleCallback_InsufficientFunds(t *testing.T) {
	app, _ := setupCallbackApp(t)

	resp := signedCallback(t, app, betParams("tx-1", "40.00"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "INSUFFICIENT_FUNDS", body["error_code"])
	assert.Equal(t, "Not enough money to place this bet", body["error_description"])
}

func TestHandleCallback_InvalidSignature(t *testing.T) {
	app, _ := setupCallbackApp(t)

	params := betParams("tx-1", "40.00")
	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/providers/callback", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(signature.HeaderMerchantID, "merchant-1")
	req.Header.Set(signature.HeaderTimestamp, "1700000000")
	req.Header.Set(signature.HeaderNonce, "abcdef0123456789")
	req.Header.Set(signature.HeaderSign, "deadbeef")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "INTERNAL_ERROR", body["error_code"])
	assert.Equal(t, "Invalid signature", body["error_description"])
}

func TestHandleCallback_MissingField(t *testing.T) {
	app, _ := setupCallbackApp(t)

	params := betParams("tx-1", "40.00")
	delete(params, "game_uuid")
	resp := signedCallback(t, app, params)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleCallback_BalanceProbe(t *testing.T) {
	app, ledgerService := setupCallbackApp(t)
	_, err := ledgerService.Credit(context.Background(), ledger.Operation{
		AccountID:     "player-1",
		TransactionID: "seed-1",
		Type:          models.EntryTypeDeposit,
		Amount:        decimal.NewFromInt(25),
	})
	require.NoError(t, err)

	resp := signedCallback(t, app, map[string]string{
		"action":     "balance",
		"player_id":  "player-1",
		"currency":   "USD",
		"session_id": "sess-1",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, 25.0, body["balance"])
	assert.NotContains(t, body, "transaction_id")
}

func TestHandleCallback_DuplicateReplay(t *testing.T) {
	app, ledgerService := setupCallbackApp(t)
	_, err := ledgerService.Credit(context.Background(), ledger.Operation{
		AccountID:     "player-1",
		TransactionID: "seed-1",
		Type:          models.EntryTypeDeposit,
		Amount:        decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	first := signedCallback(t, app, betParams("tx-1", "40.00"))
	assert.Equal(t, http.StatusOK, first.StatusCode)
	assert.Equal(t, 60.0, decodeBody(t, first)["balance"])

	replay := signedCallback(t, app, betParams("tx-1", "40.00"))
	assert.Equal(t, http.StatusOK, replay.StatusCode)

	body := decodeBody(t, replay)
	assert.Equal(t, 60.0, body["balance"])
	assert.Equal(t, "tx-1", body["transaction_id"])
}
