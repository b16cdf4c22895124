package store_test

import (
	"context"
	"testing"

	"github.com/ErraticFox/atov/internal/shift"
	"github.com/ErraticFox/atov/internal/store"
)

func seeded(t *testing.T, targets []shift.Target) *store.Memory {
	t.Helper()
	m := store.NewMemory()
	err := m.Set(context.Background(), shift.PageVTO, shift.RunState{
		IsRunning: true,
		Targets:   targets,
		Shift:     shift.ShiftTime{Start: "08:00", End: "17:00"},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return m
}

func TestRemoveTarget(t *testing.T) {
	t1 := shift.Target{StartTime: "09:00", EndTime: "10:00"}
	t2 := shift.Target{AcceptAny: true, MinDuration: 1}
	m := seeded(t, []shift.Target{t1, t2})
	r := store.Reconciler{S: m}

	if err := r.RemoveTarget(context.Background(), shift.PageVTO, t1, 0); err != nil {
		t.Fatalf("RemoveTarget: %v", err)
	}

	st, ok, _ := m.Get(context.Background(), shift.PageVTO)
	if !ok {
		t.Fatal("state missing after reconcile")
	}
	if st.IsRunning {
		t.Error("IsRunning should be false after reconcile")
	}
	if len(st.Targets) != 1 || st.Targets[0] != t2 {
		t.Errorf("targets after removal = %+v, want just %+v", st.Targets, t2)
	}
}

// The persisted list was edited between match and reconcile: the matcher's
// index is stale and points at a different entry. Removal must go by
// identity, not blind index.
func TestRemoveTarget_StaleIndex(t *testing.T) {
	matched := shift.Target{StartTime: "14:00", EndTime: "15:00"}
	other := shift.Target{StartTime: "09:00", EndTime: "10:00"}
	// Matched at index 1 when the scan ran; the entry ahead of it was since
	// removed, shifting it to index 0.
	m := seeded(t, []shift.Target{matched, other})
	r := store.Reconciler{S: m}

	if err := r.RemoveTarget(context.Background(), shift.PageVTO, matched, 1); err != nil {
		t.Fatalf("RemoveTarget: %v", err)
	}
	st, _, _ := m.Get(context.Background(), shift.PageVTO)
	if len(st.Targets) != 1 || st.Targets[0] != other {
		t.Errorf("stale index removed the wrong entry: %+v", st.Targets)
	}
}

// The matched target was deleted externally before reconciliation: nothing
// is removed, but the automation still stops.
func TestRemoveTarget_MatchedGone(t *testing.T) {
	matched := shift.Target{StartTime: "14:00", EndTime: "15:00"}
	remaining := shift.Target{StartTime: "09:00", EndTime: "10:00"}
	m := seeded(t, []shift.Target{remaining})
	r := store.Reconciler{S: m}

	if err := r.RemoveTarget(context.Background(), shift.PageVTO, matched, 0); err != nil {
		t.Fatalf("RemoveTarget: %v", err)
	}
	st, _, _ := m.Get(context.Background(), shift.PageVTO)
	if len(st.Targets) != 1 || st.Targets[0] != remaining {
		t.Errorf("unrelated entry was removed: %+v", st.Targets)
	}
	if st.IsRunning {
		t.Error("IsRunning should be false even when the target is gone")
	}
}

func TestMarkStopped_Idempotent(t *testing.T) {
	m := seeded(t, []shift.Target{{AcceptAny: true}})
	r := store.Reconciler{S: m}

	for i := 0; i < 2; i++ {
		if err := r.MarkStopped(context.Background(), shift.PageVTO); err != nil {
			t.Fatalf("MarkStopped #%d: %v", i+1, err)
		}
	}
	st, _, _ := m.Get(context.Background(), shift.PageVTO)
	if st.IsRunning {
		t.Error("IsRunning should be false")
	}
	if len(st.Targets) != 1 {
		t.Errorf("MarkStopped must not touch targets, got %+v", st.Targets)
	}
}

func TestMarkStopped_NoState(t *testing.T) {
	r := store.Reconciler{S: store.NewMemory()}
	if err := r.MarkStopped(context.Background(), shift.PageVET); err != nil {
		t.Errorf("MarkStopped on empty store: %v", err)
	}
}
