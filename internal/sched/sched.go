// Package sched wraps robfig/cron as the periodic-check collaborator: a
// tick source armed while a run is active and disarmed when it halts.
package sched

import (
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"
)

type Ticker struct {
	c    *cron.Cron
	spec string
	fn   func()

	mu    sync.Mutex
	entry cron.EntryID
	armed bool
}

// New validates spec (e.g. "@every 30s") and returns a stopped ticker; Arm
// begins ticking.
func New(spec string, fn func()) (*Ticker, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("sched: invalid spec %q: %w", spec, err)
	}
	t := &Ticker{c: cron.New(), spec: spec, fn: fn}
	t.c.Start()
	return t, nil
}

func (t *Ticker) Arm() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.armed {
		return
	}
	id, err := t.c.AddFunc(t.spec, t.fn)
	if err != nil {
		log.Printf("sched: arm: %v", err)
		return
	}
	t.entry = id
	t.armed = true
	log.Printf("sched: armed (%s)", t.spec)
}

func (t *Ticker) Disarm() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.armed {
		return
	}
	t.c.Remove(t.entry)
	t.armed = false
	log.Printf("sched: disarmed")
}

// Close shuts the underlying cron down entirely.
func (t *Ticker) Close() {
	t.Disarm()
	t.c.Stop()
}
