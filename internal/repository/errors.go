// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios without
// string-matching driver errors themselves.
package repository

import (
	"errors"
	"strings"
)

// ErrEmailExists is returned when an insert or update would violate the
// unique constraint on users.email.  Handlers translate this into an
// HTTP 400 response.
var ErrEmailExists = errors.New("email already exists")

// ErrNotFound is returned when a lookup matches no row.  Handlers
// translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// isUniqueViolation reports whether a driver error is a unique-constraint
// breach.  MySQL reports error 1062; SQLite (used by the test harness)
// reports "UNIQUE constraint failed".
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "1062") || strings.Contains(msg, "unique constraint")
}
