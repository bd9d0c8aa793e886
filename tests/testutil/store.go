package testutil

import (
	"io"
	"log/slog"
	"testing"

	"github.com/nhle/winterbreak/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// NewTestLocal returns a JSON adapter over a fresh in-memory store.
func NewTestLocal(t *testing.T) *store.Local {
	t.Helper()
	return store.NewLocal(NewTestStore(t), DiscardLogger())
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
