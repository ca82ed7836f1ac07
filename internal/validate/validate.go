// internal/validate/validate.go
//
// Post-migration count reconciliation.
//
// Context
// -------
// After an import we recount rooms, messages, and memberships from both
// stores and report the signed difference (target minus source).  Both
// sides are recomputed from full scans; cached counter columns are never
// trusted because the live system's increment-based counters are not
// idempotent.  The validator is purely diagnostic: it never repairs a
// mismatch, and a non-zero diff is not an error.
package validate

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Counts holds totals for the three reconciled entity types.
type Counts struct {
	Rooms       int64
	Messages    int64
	Memberships int64
}

// Sub returns c - o, field by field.
func (c Counts) Sub(o Counts) Counts {
	return Counts{
		Rooms:       c.Rooms - o.Rooms,
		Messages:    c.Messages - o.Messages,
		Memberships: c.Memberships - o.Memberships,
	}
}

// Counter produces entity counts from one store.  Implementations exist
// for the relational source and the document target.
type Counter interface {
	Counts(ctx context.Context) (Counts, error)
}

// CounterFunc adapts a plain function to the Counter interface.
type CounterFunc func(ctx context.Context) (Counts, error)

func (f CounterFunc) Counts(ctx context.Context) (Counts, error) { return f(ctx) }

// Report is the reconciliation result.  Diff is Target - Source.
type Report struct {
	Source Counts
	Target Counts
	Diff   Counts
}

// Clean reports whether every delta is zero.
func (r Report) Clean() bool { return r.Diff == (Counts{}) }

func (r Report) String() string {
	return fmt.Sprintf(
		"source rooms=%d messages=%d memberships=%d | target rooms=%d messages=%d memberships=%d | diff rooms=%+d messages=%+d memberships=%+d",
		r.Source.Rooms, r.Source.Messages, r.Source.Memberships,
		r.Target.Rooms, r.Target.Messages, r.Target.Memberships,
		r.Diff.Rooms, r.Diff.Messages, r.Diff.Memberships,
	)
}

// Run counts both stores concurrently and returns the report.  Neither
// store is mutated.
func Run(ctx context.Context, src, dst Counter) (Report, error) {
	var rep Report
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := src.Counts(ctx)
		if err != nil {
			return fmt.Errorf("source counts: %w", err)
		}
		rep.Source = c
		return nil
	})
	g.Go(func() error {
		c, err := dst.Counts(ctx)
		if err != nil {
			return fmt.Errorf("target counts: %w", err)
		}
		rep.Target = c
		return nil
	})
	if err := g.Wait(); err != nil {
		return Report{}, err
	}
	rep.Diff = rep.Target.Sub(rep.Source)
	return rep, nil
}
