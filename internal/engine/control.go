package engine

import (
	"context"
	"fmt"
	"log"

	"github.com/ErraticFox/atov/internal/shift"
	"github.com/ErraticFox/atov/internal/store"
)

// StartConfig is what a control surface submits to begin a run. Full-shift
// selections are resolved into concrete range targets before this point.
type StartConfig struct {
	Targets []shift.Target
	Shift   shift.ShiftTime
}

func (c StartConfig) Validate() error {
	if len(c.Targets) == 0 {
		return fmt.Errorf("at least one target required")
	}
	for i, t := range c.Targets {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("target %d: %w", i+1, err)
		}
	}
	if err := c.Shift.Validate(); err != nil {
		return err
	}
	return nil
}

// StartRun persists the run configuration, arms the ticker, and kicks an
// immediate first scan in the background.
func (e *Engine) StartRun(ctx context.Context, cfg StartConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	st := shift.RunState{
		IsRunning: true,
		Targets:   cfg.Targets,
		Shift:     cfg.Shift,
	}
	if err := e.Store.Set(ctx, e.PageType, st); err != nil {
		return err
	}
	e.arm()
	log.Printf("engine(%s): run started with %d target(s)", e.PageType, len(cfg.Targets))
	go func() {
		if _, err := e.RunLoop(e.Background); err != nil {
			log.Printf("engine(%s): %v", e.PageType, err)
		}
	}()
	return nil
}

// StopRun clears the running flag and disarms the ticker. A click sequence
// already in flight resolves first; the loop observes the flag at its next
// Scanning checkpoint.
func (e *Engine) StopRun(ctx context.Context) error {
	if err := (store.Reconciler{S: e.Store}).MarkStopped(ctx, e.PageType); err != nil {
		return err
	}
	e.disarm()
	log.Printf("engine(%s): run stopped", e.PageType)
	return nil
}

// RefreshNow forces a page reload when a run is active.
func (e *Engine) RefreshNow(ctx context.Context) error {
	st, ok, err := e.Store.Get(ctx, e.PageType)
	if err != nil {
		return err
	}
	if !ok || !st.IsRunning {
		return nil
	}
	return e.Page.Reload(ctx)
}

// Status summarizes a page type's persisted state for display.
type Status struct {
	IsRunning bool
	Targets   []shift.Target
	Shift     shift.ShiftTime
}

func (e *Engine) Status(ctx context.Context) (Status, error) {
	st, _, err := e.Store.Get(ctx, e.PageType)
	if err != nil {
		return Status{}, err
	}
	return Status{IsRunning: st.IsRunning, Targets: st.Targets, Shift: st.Shift}, nil
}
