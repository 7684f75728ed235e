package services

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidEventType   = errors.New("invalid event type")
	ErrInvalidTimestamp   = errors.New("invalid timestamp")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already exists")
)

// ValidationError rejects a single unit of work and keeps the offending raw input
// so it can be reported back to the caller.
type ValidationError struct {
	Field string
	Raw   string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Field, e.Raw, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(field, raw string, err error) error {
	return &ValidationError{Field: field, Raw: raw, Err: err}
}

// isUniqueViolation recognises unique-constraint failures from both supported drivers.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}
