// Package v1 exposes the HTTP handlers for API version 1. All responses use
// the JSON envelope {success, data?, error?, message?} and are gzip-compressed
// when the client accepts it.
package v1

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/spicescript/recipe-service/internal/core/domain"
	"github.com/spicescript/recipe-service/internal/formdata"
	logicv1 "github.com/spicescript/recipe-service/internal/logic/v1"
	"github.com/spicescript/recipe-service/internal/router"
	"github.com/spicescript/recipe-service/middleware"
)

// Envelope is the uniform API response shape.
type Envelope struct {
	Success bool       `json:"success"`
	Message string     `json:"message,omitempty"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

// ErrorBody carries a machine-readable error code and, for validation
// failures, a field-level detail map.
type ErrorBody struct {
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Details map[string]string `json:"details,omitempty"`
}

// errInvalidJSON marks an unparseable JSON request body.
var errInvalidJSON = errors.New("invalid JSON body")

// writeJSON serializes v and writes it with the given status. The body is
// gzip-compressed when the client advertises Accept-Encoding: gzip, with
// Content-Length set for the bytes actually sent.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	if strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		if _, err := gz.Write(body); err != nil {
			return err
		}
		if err := gz.Close(); err != nil {
			return err
		}
		w.Header().Set("Content-Encoding", "gzip")
		body = buf.Bytes()
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(status)
	_, err = w.Write(body)
	return err
}

// WriteError is the router's central error writer: it normalizes every
// handler error into the envelope, never leaking internal error text for
// unexpected failures.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *logicv1.ValidationError
	var authErr *middleware.UnauthorizedError

	var status int
	body := ErrorBody{}

	switch {
	case errors.As(err, &vErr):
		status = http.StatusBadRequest
		body.Message = "Validation failed"
		body.Code = "VALIDATION_ERROR"
		body.Details = vErr.Fields
	case errors.Is(err, errInvalidJSON):
		status = http.StatusBadRequest
		body.Message = "Request body must be valid JSON"
		body.Code = "VALIDATION_ERROR"
	case errors.Is(err, formdata.ErrNotMultipart):
		status = http.StatusBadRequest
		body.Message = "Content-Type must be multipart/form-data"
		body.Code = "VALIDATION_ERROR"
	case errors.Is(err, logicv1.ErrInvalidImage):
		status = http.StatusBadRequest
		body.Message = "Image must be a JPEG, PNG or WebP no larger than the configured limit"
		body.Code = "INVALID_IMAGE"
	case errors.As(err, &authErr):
		status = http.StatusUnauthorized
		body.Message = authErr.Message
		body.Code = "UNAUTHORIZED"
	case errors.Is(err, logicv1.ErrInvalidCredentials):
		status = http.StatusUnauthorized
		body.Message = "Invalid email/username or password"
		body.Code = "INVALID_CREDENTIALS"
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
		body.Message = "You can only modify your own recipes"
		body.Code = "FORBIDDEN"
	case errors.Is(err, router.ErrNoRoute):
		status = http.StatusNotFound
		body.Message = "Endpoint not found"
		body.Code = "NOT_FOUND"
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
		body.Message = "Resource not found"
		body.Code = "NOT_FOUND"
	case errors.Is(err, domain.ErrDuplicateUsername):
		status = http.StatusConflict
		body.Message = "Username already exists"
		body.Code = "CONFLICT"
	case errors.Is(err, domain.ErrDuplicateEmail):
		status = http.StatusConflict
		body.Message = "Email already exists"
		body.Code = "CONFLICT"
	default:
		status = http.StatusInternalServerError
		body.Message = "Internal server error"
		body.Code = "INTERNAL_ERROR"
		zerolog.Ctx(r.Context()).Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("Unhandled error")
	}

	if werr := writeJSON(w, r, status, Envelope{Success: false, Error: &body}); werr != nil {
		zerolog.Ctx(r.Context()).Error().Err(werr).Msg("Failed to write error response")
	}
}
