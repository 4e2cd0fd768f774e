package auth

import (
	"crypto/rand"
	"encoding/hex"
)

// NewSessionID returns a random 256-bit session identifier encoded as
// 64 lowercase hex characters.
func NewSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
