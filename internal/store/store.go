// Package store persists per-page-type automation state and reconciles it
// after a successful acceptance.
package store

import (
	"context"
	"errors"
	"log"

	"github.com/ErraticFox/atov/internal/shift"
)

var ErrNotFound = errors.New("not found")

// Store is the persistent key-value collaborator: one RunState per page
// type. A single writer per page instance is assumed, except that a control
// surface may flip isRunning off at any time.
type Store interface {
	Get(ctx context.Context, pt shift.PageType) (shift.RunState, bool, error)
	Set(ctx context.Context, pt shift.PageType, st shift.RunState) error
}

// Reconciler updates persisted state after the acceptance flow resolves.
type Reconciler struct {
	S Store
}

// RemoveTarget removes the satisfied target from the persisted list and
// stops the automation, in a single write.
//
// The persisted list may have been edited between the match and this call,
// which would make the matcher's index stale. Removal therefore goes by
// identity: the index is honored only when the entry there still equals the
// matched snapshot, otherwise the first equal entry anywhere in the list is
// removed. If no equal entry remains the list is left alone; a stale
// target the user can delete is safer than silently losing a live one.
func (r Reconciler) RemoveTarget(ctx context.Context, pt shift.PageType, matched shift.Target, index int) error {
	st, ok, err := r.S.Get(ctx, pt)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}

	at := -1
	if index >= 0 && index < len(st.Targets) && st.Targets[index] == matched {
		at = index
	} else {
		for i, t := range st.Targets {
			if t == matched {
				at = i
				break
			}
		}
	}
	if at >= 0 {
		st.Targets = append(st.Targets[:at:at], st.Targets[at+1:]...)
	} else {
		log.Printf("store: matched target no longer present for %s, leaving list untouched", pt)
	}

	st.IsRunning = false
	st.CycleStartMs = 0
	return r.S.Set(ctx, pt, st)
}

// MarkStopped clears the running flag without touching the target list.
// Idempotent; used for explicit stops and for every failure path.
func (r Reconciler) MarkStopped(ctx context.Context, pt shift.PageType) error {
	st, ok, err := r.S.Get(ctx, pt)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if !st.IsRunning && st.CycleStartMs == 0 {
		return nil
	}
	st.IsRunning = false
	st.CycleStartMs = 0
	return r.S.Set(ctx, pt, st)
}
