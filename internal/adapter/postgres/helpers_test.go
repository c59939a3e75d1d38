package postgres

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Strob0t/SchoolPay/internal/domain"
)

func TestIsOutage(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23503", Message: "insert or update on table \"payments\" violates foreign key constraint"}
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"constraint violation", fmt.Errorf("upsert payment p1: %w", pgErr), false},
		{"connection refused", errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"), true},
		{"deadline", context.DeadlineExceeded, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsOutage(tt.err); got != tt.want {
				t.Errorf("IsOutage(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestWrapLookup(t *testing.T) {
	err := wrapLookup(pgx.ErrNoRows, "get tenant alfa")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err.Error() != "get tenant alfa: not found" {
		t.Fatalf("unexpected message %q", err.Error())
	}

	if other := wrapLookup(errors.New("boom"), "get tenant alfa"); errors.Is(other, domain.ErrNotFound) {
		t.Fatal("non-ErrNoRows must not map to ErrNotFound")
	}
}

func TestWrapInsert(t *testing.T) {
	dup := &pgconn.PgError{Code: codeUniqueViolation, ConstraintName: "tenants_slug_key"}
	if err := wrapInsert(dup, "create tenant alfa"); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	other := &pgconn.PgError{Code: "23502"}
	if err := wrapInsert(other, "create tenant alfa"); errors.Is(err, domain.ErrConflict) {
		t.Fatal("not-null violation must not map to ErrConflict")
	}
}

func TestDistinctIDs(t *testing.T) {
	got := distinctIDs([]string{"b", "", "a", "b", "a", "c"})
	if !slices.Equal(got, []string{"b", "a", "c"}) {
		t.Errorf("distinctIDs = %v", got)
	}
	if distinctIDs(nil) == nil {
		t.Error("result must not be nil")
	}
}

func TestArgHelpers(t *testing.T) {
	if timeArg(time.Time{}) != nil {
		t.Error("zero time should be NULL")
	}
	if timeArg(time.Unix(1, 0)) == nil {
		t.Error("non-zero time should pass through")
	}
	if nonNil[int](nil) == nil {
		t.Error("nonNil should return an empty slice")
	}
}
