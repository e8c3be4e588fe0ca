package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrConflict indicates an optimistic-lock conflict: the record changed
	// (or was created) since the caller read it.
	ErrConflict = errors.New("store: version conflict")

	// ErrUnavailable indicates the database could not complete the
	// operation. Nothing was written.
	ErrUnavailable = errors.New("store: unavailable")
)

func conflict(op string) error {
	return fmt.Errorf("%s: %w", op, ErrConflict)
}

// unavailable wraps a driver error. Both ErrUnavailable and the cause stay
// matchable with errors.Is.
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}

// mapError classifies a driver error from a write path.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return conflict(op)
	}
	return unavailable(op, err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	var sqErr *sqlite.Error
	if errors.As(err, &sqErr) {
		return sqErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT &&
			strings.Contains(strings.ToLower(sqErr.Error()), "unique")
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint failed")
}
