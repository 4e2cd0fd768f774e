// Package v1 provides the business logic for API version 1.
//
// Sentinel errors are wrapped with operation context using fmt.Errorf("%w")
// and mapped to HTTP statuses in the web layer with errors.Is switches.
// Store-level conditions (not found, forbidden, duplicates) reuse the
// sentinels declared in internal/core/domain.
package v1

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidCredentials indicates the identifier/password pair is wrong.
	// HTTP Status: 401 Unauthorized
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidImage indicates the uploaded image failed type or size checks.
	// HTTP Status: 400 Bad Request
	ErrInvalidImage = errors.New("invalid image")
)

// ValidationError carries a field-to-message map for a 400 response.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
