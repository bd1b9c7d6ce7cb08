// Package store persists detection runs and their suspicious pairs so
// past analyses can be listed and re-exported without re-running them.
package store

import (
	"context"

	"github.com/sells-group/shop-dedupe/internal/model"
)

// Store is the run-history persistence interface. Both backends store a
// run row plus one row per suspicious pair, keyed by the run ID.
type Store interface {
	Migrate(ctx context.Context) error
	SaveRun(ctx context.Context, run *model.Run, pairs []model.CandidatePair) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, limit int) ([]model.Run, error)
	GetRunPairs(ctx context.Context, runID string) ([]model.CandidatePair, error)
	Close() error
}

// defaultListLimit bounds ListRuns when the caller passes limit <= 0.
const defaultListLimit = 50
