// internal/validate/validate_test.go
//
// Unit-tests for count reconciliation using stub counters.

package validate

import (
	"context"
	"errors"
	"testing"
)

func fixed(c Counts) Counter {
	return CounterFunc(func(context.Context) (Counts, error) { return c, nil })
}

func TestRun_CleanWhenEqual(t *testing.T) {
	c := Counts{Rooms: 3, Messages: 120, Memberships: 9}
	rep, err := Run(context.Background(), fixed(c), fixed(c))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !rep.Clean() {
		t.Fatalf("expected clean report, got diff %+v", rep.Diff)
	}
}

func TestRun_SignedDeltas(t *testing.T) {
	src := Counts{Rooms: 4, Messages: 100, Memberships: 10}
	dst := Counts{Rooms: 3, Messages: 102, Memberships: 10}
	rep, err := Run(context.Background(), fixed(src), fixed(dst))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := Counts{Rooms: -1, Messages: 2, Memberships: 0}
	if rep.Diff != want {
		t.Fatalf("diff = %+v, want %+v", rep.Diff, want)
	}
	if rep.Clean() {
		t.Fatalf("mismatched report claimed clean")
	}
}

func TestRun_SourceError(t *testing.T) {
	boom := errors.New("unreachable")
	src := CounterFunc(func(context.Context) (Counts, error) { return Counts{}, boom })
	_, err := Run(context.Background(), src, fixed(Counts{}))
	if err == nil || !errors.Is(err, boom) {
		t.Fatalf("expected wrapped source error, got %v", err)
	}
}
