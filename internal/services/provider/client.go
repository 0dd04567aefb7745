// Package provider issues signed outbound requests to the game provider:
// self-validation and game-session initialization. Requests retry with
// exponential backoff, but only on the transient-failure allow-list; the
// provider deduplicates by transaction id, so retries stay safe.
package provider

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"moongamble/internal/services/signature"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Statuses worth retrying; everything else surfaces immediately.
var retryableStatuses = map[int]bool{
	http.StatusTooManyRequests:     true,
	430:                            true, // provider-specific rate limit
	http.StatusInternalServerError: true,
	http.StatusServiceUnavailable:  true,
}

type Config struct {
	BaseURL     string
	MerchantID  string
	MerchantKey string
	Timeout     time.Duration
	MaxAttempts int
}

// Response is the provider's JSON reply.
type Response struct {
	Balance          *decimal.Decimal `json:"balance,omitempty"`
	TransactionID    string           `json:"transaction_id,omitempty"`
	ErrorCode        string           `json:"error_code,omitempty"`
	ErrorDescription string           `json:"error_description,omitempty"`
}

type Client struct {
	config Config
	http   *http.Client
	signer *signature.Verifier

	// retry pacing, shortened in tests
	initialInterval time.Duration
}

// NewClient creates a provider client with the account-level merchant
// credentials.
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 3
	}
	return &Client{
		config:          cfg,
		http:            &http.Client{Timeout: cfg.Timeout},
		signer:          signature.NewVerifier(cfg.MerchantKey),
		initialInterval: 500 * time.Millisecond,
	}
}

// Call signs params with the merchant credentials and issues the request,
// retrying transient failures up to the attempt budget.
func (c *Client) Call(ctx context.Context, method, endpoint string, params map[string]string) (*Response, error) {
	filtered := make(map[string]string, len(params))
	for k, v := range params {
		if v != "" {
			filtered[k] = v
		}
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.initialInterval

	var lastErr error
	for attempt := 0; attempt < c.config.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(bo.NextBackOff()):
			}
		}

		resp, retryable, err := c.attempt(ctx, method, endpoint, filtered)
		if err == nil {
			return resp, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %v", ErrMaxAttempts, lastErr)
}

func (c *Client) attempt(ctx context.Context, method, endpoint string, params map[string]string) (*Response, bool, error) {
	meta := signature.Metadata{
		MerchantID: c.config.MerchantID,
		Timestamp:  strconv.FormatInt(time.Now().Unix(), 10),
		Nonce:      newNonce(),
	}
	sign := c.signer.Sign(params, meta)

	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}

	req, err := http.NewRequestWithContext(ctx, method,
		strings.TrimRight(c.config.BaseURL, "/")+"/"+strings.TrimLeft(endpoint, "/"),
		strings.NewReader(values.Encode()))
	if err != nil {
		return nil, false, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set(signature.HeaderMerchantID, meta.MerchantID)
	req.Header.Set(signature.HeaderTimestamp, meta.Timestamp)
	req.Header.Set(signature.HeaderNonce, meta.Nonce)
	req.Header.Set(signature.HeaderSign, sign)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	httpResp, err := c.http.Do(req)
	if err != nil {
		// Network failures are transient by definition.
		return nil, true, fmt.Errorf("request failed: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("failed to read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		statusErr := &StatusError{Status: httpResp.StatusCode, Body: string(body)}
		return nil, retryableStatuses[httpResp.StatusCode], statusErr
	}

	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, false, fmt.Errorf("failed to decode response: %w", err)
	}
	return &resp, false, nil
}

// SelfValidate performs the provider health self-check.
func (c *Client) SelfValidate(ctx context.Context) (*Response, error) {
	return c.Call(ctx, http.MethodPost, "self-validate", map[string]string{})
}

// InitGameSession asks the provider to open a game round for the player.
func (c *Client) InitGameSession(ctx context.Context, accountID, gameUUID string) (*Response, error) {
	return c.Call(ctx, http.MethodPost, "games/init", map[string]string{
		"player_id":  accountID,
		"game_uuid":  gameUUID,
		"session_id": fmt.Sprintf("session-%d", time.Now().Unix()),
	})
}

func newNonce() string {
	sum := md5.Sum([]byte(uuid.NewString()))
	return hex.EncodeToString(sum[:])
}
