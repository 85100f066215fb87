// Package signing provides HMAC-SHA256 response signing. The API layer signs
// selected response bodies so downstream consumers can verify integrity.
package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Signer computes HMAC-SHA256 signatures using a shared secret.
type Signer struct {
	secret []byte
}

// NewSigner creates a new Signer with the given secret string. An empty
// secret yields a nil Signer, which disables signing.
func NewSigner(secret string) *Signer {
	if secret == "" {
		return nil
	}
	return &Signer{secret: []byte(secret)}
}

// Sign computes the HMAC-SHA256 of body and returns it hex-encoded.
func (s *Signer) Sign(body []byte) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks whether the given signature matches the HMAC-SHA256 of body.
// Uses hmac.Equal for constant-time comparison.
func (s *Signer) Verify(body []byte, signature string) bool {
	expected := s.Sign(body)
	return hmac.Equal([]byte(expected), []byte(signature))
}
