package store

import (
	"context"
	"sync"

	"github.com/ErraticFox/atov/internal/shift"
)

// Memory is an in-process Store used by tests and by one-shot CLI runs that
// have no redis to talk to.
type Memory struct {
	mu     sync.Mutex
	states map[shift.PageType]shift.RunState
}

func NewMemory() *Memory {
	return &Memory{states: make(map[shift.PageType]shift.RunState)}
}

func (m *Memory) Get(_ context.Context, pt shift.PageType) (shift.RunState, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[pt]
	return st, ok, nil
}

func (m *Memory) Set(_ context.Context, pt shift.PageType, st shift.RunState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Copy the slice so later mutation by the caller can't alias stored state.
	st.Targets = append([]shift.Target(nil), st.Targets...)
	m.states[pt] = st
	return nil
}
