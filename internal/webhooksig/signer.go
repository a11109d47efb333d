// Package webhooksig provides HMAC-SHA256 signing and verification for
// webhook payloads. The collector verifies inbound snapshot deliveries
// with it, and tests use it to produce valid signatures.
package webhooksig

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HeaderName is the HTTP header carrying the payload signature.
const HeaderName = "X-Webhook-Signature"

// signaturePrefix is an optional scheme prefix some providers prepend.
const signaturePrefix = "sha256="

// Signer provides HMAC-SHA256 signing and verification using a shared secret.
type Signer struct {
	secret []byte
}

// NewSigner creates a new Signer with the given secret string.
func NewSigner(secret string) *Signer {
	return &Signer{
		secret: []byte(secret),
	}
}

// Sign computes the HMAC-SHA256 of the payload and returns it hex encoded.
func (s *Signer) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(payload)

	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks whether the given signature matches the HMAC-SHA256 of the
// payload. A "sha256=" prefix on the signature is accepted and stripped.
// Uses hmac.Equal for constant-time comparison to prevent timing attacks.
func (s *Signer) Verify(payload []byte, signature string) bool {
	signature = strings.TrimPrefix(signature, signaturePrefix)
	expected := s.Sign(payload)

	return hmac.Equal([]byte(expected), []byte(signature))
}
