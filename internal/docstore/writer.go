// internal/docstore/writer.go
//
// Size-bounded, idempotent batch writer.
//
// Context
// -------
// Documents are grouped into batches no larger than the provider ceiling
// (450 writes per atomic commit) and applied as merge-upserts: fields
// absent from the payload stay untouched at the path.  Re-running an
// import is therefore safe, which is also the recovery story for a
// failed commit: the writer aborts on the first failure and the operator
// re-runs the whole import.  A short pause between batches keeps the run
// under the provider's sustained write-rate limits.
//
// The writer talks to a Store interface rather than the SDK directly so
// the batching, pause, and dry-run behaviour are unit-testable against
// an in-memory store.

package docstore

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/nymport/internal/metrics"
	"github.com/yanizio/nymport/internal/transform"
)

const (
	// DefaultBatchSize stays under the provider's 500-write commit cap
	// with headroom for server-side index writes.
	DefaultBatchSize = 450

	// DefaultPause is inserted between consecutive commits.
	DefaultPause = 50 * time.Millisecond
)

// Store applies one batch of merge-writes as a single atomic commit.
type Store interface {
	CommitBatch(ctx context.Context, docs []transform.Doc) error
}

// Writer batches documents into a Store.  A zero BatchSize falls back
// to DefaultBatchSize; Pause is taken as given (zero means no pause,
// which unit tests rely on).  DryRun suppresses every store call.
type Writer struct {
	Store     Store
	BatchSize int
	Pause     time.Duration
	DryRun    bool
}

// Write applies docs in order and returns how many were committed.  In
// dry-run mode it returns 0 and logs the count that a real run would
// commit.  On a commit failure it returns the documents committed so
// far together with the error; no partial retry is attempted.
func (w *Writer) Write(ctx context.Context, docs []transform.Doc) (int, error) {
	size := w.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}
	pause := w.Pause
	if pause < 0 {
		pause = 0
	}

	if w.DryRun {
		zap.S().Infow("dry-run: no writes issued", "would_write", len(docs))
		return 0, nil
	}

	committed := 0
	for start := 0; start < len(docs); start += size {
		if err := ctx.Err(); err != nil {
			return committed, err
		}

		end := min(start+size, len(docs))
		if err := w.Store.CommitBatch(ctx, docs[start:end]); err != nil {
			metrics.WriteErrors.Inc()
			return committed, fmt.Errorf("commit batch of %d (after %d committed): %w",
				end-start, committed, err)
		}
		committed = end
		metrics.BatchesCommitted.Inc()
		zap.S().Debugw("batch committed", "docs", end-start, "total", committed)

		if end < len(docs) && pause > 0 {
			select {
			case <-ctx.Done():
				return committed, ctx.Err()
			case <-time.After(pause):
			}
		}
	}
	return committed, nil
}
