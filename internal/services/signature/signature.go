// Package signature implements the provider's keyed request signing scheme.
// A request's body parameters are merged with the X-Merchant-Id, X-Timestamp
// and X-Nonce header values, sorted by key, form-encoded into a single string
// and HMAC-SHA1 signed with the merchant secret.
package signature

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"net/url"
)

// Header names carrying the signing metadata.
const (
	HeaderMerchantID = "X-Merchant-Id"
	HeaderTimestamp  = "X-Timestamp"
	HeaderNonce      = "X-Nonce"
	HeaderSign       = "X-Sign"
)

// Metadata is the header side-channel included in every signature.
type Metadata struct {
	MerchantID string
	Timestamp  string
	Nonce      string
}

// Verifier signs and verifies provider requests with one merchant secret.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Sign computes the hex-encoded HMAC-SHA1 over the canonical encoding of
// params merged with meta. url.Values.Encode sorts keys byte-wise, which
// makes the output deterministic for a given input set.
func (v *Verifier) Sign(params map[string]string, meta Metadata) string {
	values := url.Values{}
	for k, val := range params {
		values.Set(k, val)
	}
	values.Set(HeaderMerchantID, meta.MerchantID)
	values.Set(HeaderTimestamp, meta.Timestamp)
	values.Set(HeaderNonce, meta.Nonce)

	mac := hmac.New(sha1.New, v.secret)
	mac.Write([]byte(values.Encode()))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify recomputes the signature and compares it to the claimed one in
// constant time. Missing metadata or an empty claimed signature is a plain
// failure, never an error.
func (v *Verifier) Verify(params map[string]string, meta Metadata, claimed string) bool {
	if meta.MerchantID == "" || meta.Timestamp == "" || meta.Nonce == "" || claimed == "" {
		return false
	}
	expected := v.Sign(params, meta)
	return hmac.Equal([]byte(expected), []byte(claimed))
}
