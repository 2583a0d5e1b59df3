// Package repository defines error types that are reused across multiple
// repositories. These sentinel values let handlers distinguish failure
// scenarios without inspecting driver errors: ErrNotFound maps to 404
// responses, ErrDuplicateName to 400 conflicts, and so on.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup by id, token or QR code yields no
// matching row.
var ErrNotFound = errors.New("not found")

// ErrDuplicateName is returned when an insert or update would violate a
// per-owner name uniqueness rule (invoice templates, categories, tables).
var ErrDuplicateName = errors.New("duplicate name")

// ErrEmailExists is returned when registration hits an existing email or
// mobile number.
var ErrEmailExists = errors.New("email or mobile already registered")

// ErrSessionNotCreated is returned when the session insert affects zero rows.
// Callers surface this as a generic 500, not as an auth failure.
var ErrSessionNotCreated = errors.New("session not created")

// ErrNoActiveSession is returned by logout when no session row was revoked.
var ErrNoActiveSession = errors.New("no active session")

// isDuplicateKey reports whether err is a MySQL duplicate-entry violation
// (error 1062) on any unique index.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
