package postgres

import (
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Strob0t/SchoolPay/internal/domain"
)

// SQLSTATE codes the store reacts to.
const (
	codeUniqueViolation = "23505"
)

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// timeArg passes the zero time as NULL, which leaves "$n IS NULL OR ..."
// range filters open.
func timeArg(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

// distinctIDs drops blank and repeated ids, keeping first-seen order.
// The result is never nil so it encodes as '{}' rather than NULL.
func distinctIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// nonNil keeps list results JSON-encodable as [] instead of null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// wrapLookup labels a single-row lookup error, mapping pgx.ErrNoRows to
// domain.ErrNotFound.
func wrapLookup(err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// wrapInsert labels an insert error, mapping unique violations to
// domain.ErrConflict.
func wrapInsert(err error, what string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation {
		return fmt.Errorf("%s: %w", what, domain.ErrConflict)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// IsOutage reports whether err means the database could not be reached or
// did not answer, as opposed to rejecting a statement. Constraint and data
// errors come back as *pgconn.PgError and do not count.
func IsOutage(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	return !errors.As(err, &pgErr)
}
