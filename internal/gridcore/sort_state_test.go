package gridcore

import (
	"testing"

	"tably/internal/baserpc"
)

func TestSortStateRollback(t *testing.T) {
	var s SortState
	committed := baserpc.SortConfig{{ColumnID: "A", Direction: baserpc.SortAsc}}
	s.SetCommitted(committed)

	override := baserpc.SortConfig{{ColumnID: "A", Direction: baserpc.SortDesc}}
	s.Apply(override)
	if !SortEqual(s.Effective(), override) {
		t.Fatalf("effective after Apply = %v, want %v", s.Effective(), override)
	}
	if !s.Pending() {
		t.Fatal("Pending() = false after Apply, want true")
	}

	s.Rollback()
	if !SortEqual(s.Effective(), committed) {
		t.Errorf("effective after Rollback = %v, want %v", s.Effective(), committed)
	}
	if s.Pending() {
		t.Error("Pending() = true after Rollback, want false")
	}
}

func TestSortStateConfirmClearsMatchingOverride(t *testing.T) {
	var s SortState
	s.SetCommitted(nil)

	next := baserpc.SortConfig{{ColumnID: "A", Direction: baserpc.SortDesc}}
	s.Apply(next)
	s.Confirm(next)

	if s.Pending() {
		t.Error("Pending() = true after matching Confirm, want false")
	}
	if !SortEqual(s.Effective(), next) {
		t.Errorf("effective after Confirm = %v, want %v", s.Effective(), next)
	}
}

func TestSortStateConfirmKeepsNewerOverride(t *testing.T) {
	var s SortState
	s.SetCommitted(nil)

	first := baserpc.SortConfig{{ColumnID: "A", Direction: baserpc.SortAsc}}
	second := baserpc.SortConfig{{ColumnID: "A", Direction: baserpc.SortDesc}}
	s.Apply(first)
	s.Apply(second) // rapid second toggle before the first confirms

	s.Confirm(first)
	// The lagging confirmation must not flicker the older order through.
	if !SortEqual(s.Effective(), second) {
		t.Errorf("effective after stale Confirm = %v, want %v", s.Effective(), second)
	}
	if !s.Pending() {
		t.Error("Pending() = false while override differs from committed, want true")
	}

	s.Confirm(second)
	if s.Pending() {
		t.Error("Pending() = true after final Confirm, want false")
	}
}

func TestSortStatePrune(t *testing.T) {
	var s SortState
	s.SetCommitted(baserpc.SortConfig{
		{ColumnID: "A", Direction: baserpc.SortAsc},
		{ColumnID: "gone", Direction: baserpc.SortDesc},
	})

	s.Prune([]baserpc.Column{{ID: "A", Type: baserpc.FieldText}})
	want := baserpc.SortConfig{{ColumnID: "A", Direction: baserpc.SortAsc}}
	if !SortEqual(s.Effective(), want) {
		t.Errorf("effective after Prune = %v, want %v", s.Effective(), want)
	}

	s.Prune([]baserpc.Column{})
	if s.Effective() != nil {
		t.Errorf("effective after pruning all = %v, want nil", s.Effective())
	}
}
