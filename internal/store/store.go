package store

import (
	"context"

	"github.com/nhle/mail-triage/internal/model"
)

// ResultFilter controls filtering and pagination for history queries.
type ResultFilter struct {
	Label    *model.Label // nil (all labels)
	RunID    *string      // results of one run, or nil (all runs)
	Provider *string      // "gmail", "icloud", or nil (all)
	Limit    int
	Offset   int
}

// Store defines the persistence interface for triage runs and the
// per-message results they produce.
type Store interface {
	// === Runs ===

	StartRun(ctx context.Context, run model.Run) (model.Run, error)
	FinishRun(ctx context.Context, run model.Run) error
	GetRuns(ctx context.Context, limit int) ([]model.Run, error)

	// === Results ===

	SaveResult(ctx context.Context, result model.TriageResult) error
	GetResults(ctx context.Context, opts ResultFilter) ([]model.TriageResult, error)
	CountByLabel(ctx context.Context, runID string) (map[model.Label]int, error)

	// Close releases the underlying connection.
	Close() error
}
