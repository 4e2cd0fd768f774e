// Package auth provides password hashing and session token generation.
package auth

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const saltLen = 16 // 128 bits

// Params holds PBKDF2 key-derivation parameters.
type Params struct {
	Iterations int
	KeyLength  int
}

// DefaultParams returns the reference PBKDF2-SHA512 parameters.
func DefaultParams() Params {
	return Params{Iterations: 100000, KeyLength: 64}
}

// HashPassword derives a key from the password with a fresh random salt.
// Format: <salt_hex>:<key_hex>. Hex encoding guarantees the separator never
// appears inside either value.
func HashPassword(password string, p Params) (string, error) {
	if password == "" {
		return "", errors.New("password is required")
	}
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := pbkdf2.Key([]byte(password), salt, p.Iterations, p.KeyLength, sha512.New)
	return hex.EncodeToString(salt) + ":" + hex.EncodeToString(key), nil
}

// VerifyPassword recomputes the derived key with the stored salt and compares
// in constant time. A malformed stored form fails closed.
func VerifyPassword(password, stored string, p Params) bool {
	if password == "" || stored == "" {
		return false
	}
	saltHex, keyHex, found := strings.Cut(stored, ":")
	if !found {
		return false
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return false
	}
	want, err := hex.DecodeString(keyHex)
	if err != nil || len(want) == 0 {
		return false
	}
	got := pbkdf2.Key([]byte(password), salt, p.Iterations, len(want), sha512.New)
	return subtle.ConstantTimeCompare(got, want) == 1
}
