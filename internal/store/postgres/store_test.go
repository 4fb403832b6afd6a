package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"interview-scheduler/internal/store"
)

var _ store.Store = (*Store)(nil)

func TestMapErr(t *testing.T) {
	cases := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"no rows", pgx.ErrNoRows, store.ErrNotFound},
		{"wrapped no rows", fmt.Errorf("scan: %w", pgx.ErrNoRows), store.ErrNotFound},
		{"deadline", context.DeadlineExceeded, store.ErrConflict},
		{"serialization", &pgconn.PgError{Code: "40001"}, store.ErrConflict},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, store.ErrConflict},
		{"lock not available", &pgconn.PgError{Code: "55P03"}, store.ErrConflict},
		{"unique", &pgconn.PgError{Code: "23505"}, store.ErrConflict},
	}
	for _, tc := range cases {
		got := mapErr(tc.in)
		if tc.want == nil {
			if got != nil {
				t.Fatalf("%s: expected nil, got %v", tc.name, got)
			}
			continue
		}
		if !errors.Is(got, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}

	other := &pgconn.PgError{Code: "42P01", Message: "relation does not exist"}
	if got := mapErr(other); errors.Is(got, store.ErrConflict) || errors.Is(got, store.ErrNotFound) {
		t.Fatalf("unexpected mapping for %v", got)
	}
}
