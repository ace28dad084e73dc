package testutil

import (
	"testing"

	"github.com/nhle/mail-triage/internal/store"
)

// NewTestStore opens an in-memory history database with the runs and
// results schema applied. A run must be started before results can be
// saved against it. The store is closed when the test completes.
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
