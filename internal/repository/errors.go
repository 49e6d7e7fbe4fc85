package repository

import (
	"errors"
	"strings"
)

// ErrStaleStatus is returned when a guarded update matched no row because the
// entity had already moved past the expected status.
var ErrStaleStatus = errors.New("stale status")

// IsUniqueViolation reports whether err is a unique-constraint violation from
// the database.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "duplicate key")
}
