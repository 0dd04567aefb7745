package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"moongamble/internal/services/signature"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) *Client {
	c := NewClient(Config{
		BaseURL:     baseURL,
		MerchantID:  "merchant-1",
		MerchantKey: "secret-key",
		Timeout:     2 * time.Second,
		MaxAttempts: 3,
	})
	c.initialInterval = time.Millisecond
	return c
}

func TestCallSignsRequest(t *testing.T) {
	verifier := signature.NewVerifier("secret-key")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		params := make(map[string]string, len(r.PostForm))
		for k := range r.PostForm {
			params[k] = r.PostForm.Get(k)
		}
		meta := signature.Metadata{
			MerchantID: r.Header.Get(signature.HeaderMerchantID),
			Timestamp:  r.Header.Get(signature.HeaderTimestamp),
			Nonce:      r.Header.Get(signature.HeaderNonce),
		}
		assert.True(t, verifier.Verify(params, meta, r.Header.Get(signature.HeaderSign)))
		assert.Equal(t, "merchant-1", meta.MerchantID)

		w.Write([]byte(`{"balance": 100.5, "transaction_id": "tx-1"}`))
	}))
	defer srv.Close()

	resp, err := newTestClient(srv.URL).Call(context.Background(), http.MethodPost, "self-validate",
		map[string]string{"player_id": "p-1", "empty": ""})
	require.NoError(t, err)
	require.NotNil(t, resp.Balance)
	assert.Equal(t, "100.5", resp.Balance.String())
	assert.Equal(t, "tx-1", resp.TransactionID)
}

func TestCallRetriesTransientFailures(t *testing.T) {
	var attempts int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"transaction_id": "tx-ok"}`))
	}))
	defer srv.Close()

	resp, err := newTestClient(srv.URL).Call(context.Background(), http.MethodPost, "bet", nil)
	require.NoError(t, err)
	assert.Equal(t, "tx-ok", resp.TransactionID)
	assert.Equal(t, int64(3), atomic.LoadInt64(&attempts))
}

func TestCallExhaustsRetryBudget(t *testing.T) {
	var attempts int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&attempts, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Call(context.Background(), http.MethodPost, "bet", nil)
	assert.ErrorIs(t, err, ErrMaxAttempts)
	assert.Equal(t, int64(3), atomic.LoadInt64(&attempts))
}

func TestCallForbiddenSurfacesImmediately(t *testing.T) {
	var attempts int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&attempts, 1)
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("forbidden"))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Call(context.Background(), http.MethodPost, "self-validate", nil)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusForbidden, statusErr.Status)
	assert.Equal(t, int64(1), atomic.LoadInt64(&attempts), "forbidden must not retry")
}
