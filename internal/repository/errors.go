// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios without
// inspecting driver errors. For example, ErrForbidden indicates that
// the current user is not authorized to act on a resource owned by
// someone else, while ErrConflict signals a uniqueness or state
// violation such as a duplicate wishlist entry.
package repository

import (
	"errors"
	"strings"
)

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an insert or transition cannot be
// performed because of conflicting state. Handlers should translate
// this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrNotFound is returned when the referenced entity does not exist.
// Handlers should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// isDuplicateKey reports whether err is a MySQL duplicate-entry error
// (code 1062) raised by a unique index.
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
