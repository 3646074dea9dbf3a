package store

import (
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Outcome categories. Every error returned by this package, and by the
// ledger built on it, matches exactly one of them through errors.Is or
// errors.As.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// Refinements of the outcome categories.
var (
	ErrUnknownDevice     = fmt.Errorf("unknown device: %w", ErrNotFound)
	ErrUnknownCategory   = fmt.Errorf("unknown category: %w", ErrNotFound)
	ErrDuplicateID       = fmt.Errorf("duplicate id: %w", ErrConflict)
	ErrInUse             = fmt.Errorf("still referenced: %w", ErrConflict)
	ErrInsufficientStock = fmt.Errorf("insufficient stock: %w", ErrConflict)
)

// ValidationError reports malformed input. It is returned before any
// storage call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// MissingField returns a ValidationError for a required field left empty.
func MissingField(field string) *ValidationError {
	return &ValidationError{Field: field, Message: "is required"}
}

// Invalid returns a ValidationError for a field with a bad value.
func Invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// PersistenceError wraps a storage failure that is not a constraint
// violation: the database is unreachable, busy, or rejected the statement.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ConsistencyError is returned when a transaction row was written but the
// matching quantity adjustment failed. RolledBack reports whether the
// transaction row was discarded with it.
type ConsistencyError struct {
	TransactionID string
	DeviceID      string
	Delta         int
	RolledBack    bool
	Err           error
}

func (e *ConsistencyError) Error() string {
	state := "rolled back"
	if !e.RolledBack {
		state = "NOT rolled back"
	}
	return fmt.Sprintf("transaction %s recorded but quantity of device %s not adjusted by %d (%s): %v",
		e.TransactionID, e.DeviceID, e.Delta, state, e.Err)
}

func (e *ConsistencyError) Unwrap() error { return e.Err }

// dbError wraps err from a storage call as a PersistenceError.
func dbError(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}

func sqliteCode(err error) (int, bool) {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code(), true
	}
	return 0, false
}

// isUniqueViolation reports whether err is a UNIQUE or PRIMARY KEY violation.
func isUniqueViolation(err error) bool {
	if code, ok := sqliteCode(err); ok && (code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY) {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isForeignKeyViolation reports whether err is a FOREIGN KEY violation.
func isForeignKeyViolation(err error) bool {
	if code, ok := sqliteCode(err); ok && code == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
