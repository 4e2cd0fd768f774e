package domain

import "errors"

// Sentinel errors returned by repositories. They are wrapped with operation
// context via fmt.Errorf("%w") and mapped to HTTP statuses in the web layer.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrForbidden indicates the acting user is not the record's author.
	ErrForbidden = errors.New("not the author of this record")

	// ErrDuplicateUsername indicates the username is already taken.
	ErrDuplicateUsername = errors.New("username already exists")

	// ErrDuplicateEmail indicates the email is already registered.
	ErrDuplicateEmail = errors.New("email already exists")
)
