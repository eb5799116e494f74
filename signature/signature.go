// Package signature signs and verifies pallet completion URLs.
//
// The digest is a deterministic HMAC-SHA256 over the task ID's string form,
// so the same QR code stays valid for repeat status checks. There is no
// nonce and no expiry; whoever holds a printed code holds completion
// authority for that task.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// ErrEmptySecret indicates the signer was constructed without a secret.
var ErrEmptySecret = errors.New("signing secret must not be empty")

// Signer computes and checks completion-URL signatures.
type Signer struct {
	secret []byte
}

// NewSigner creates a Signer with the given server-held secret.
func NewSigner(secret string) (*Signer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &Signer{secret: []byte(secret)}, nil
}

// Sign returns the hex digest for a task ID.
func (s *Signer) Sign(taskID string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(taskID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether the supplied signature matches the task ID.
// Missing or malformed signatures verify as false; Verify never fails
// in any other way.
func (s *Signer) Verify(taskID, supplied string) bool {
	if supplied == "" {
		return false
	}
	expected := s.Sign(taskID)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(supplied)))
}
