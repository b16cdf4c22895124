// Package engine drives the acceptance flow for one portal page type:
// scan the rendered offers, click a match, confirm the dialog, read the
// result, and reconcile the outcome into persisted state. Between no-match
// scans a duty-cycle policy decides whether to reload immediately or pause.
package engine

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ErraticFox/atov/internal/attempts"
	"github.com/ErraticFox/atov/internal/page"
	"github.com/ErraticFox/atov/internal/shift"
	"github.com/ErraticFox/atov/internal/store"
)

const (
	pollInterval = 500 * time.Millisecond
	pollBudget   = 10 * time.Second

	// Duty cycle: reload as fast as the portal responds for this long, then
	// pause before opening the next window. Bounds reload pressure on the
	// portal without giving up responsiveness inside the window.
	dutyCycleWindow = 80 * time.Second
	dutyCyclePause  = 5 * time.Second
)

// Result phrases the confirmation surface settles on. Anything else within
// the wait budget is indeterminate and handled as a failure: retrying an
// ambiguous acceptance risks double-submitting.
const successPhrase = "successfully accepted"

var failurePhrases = []string{"something went wrong", "full"}

// Armer arms and disarms the periodic check ticker; armed only while a run
// is active.
type Armer interface {
	Arm()
	Disarm()
}

// Outcome tags how a single Scanning pass resolved.
type Outcome int

const (
	OutcomeIdle Outcome = iota // automation not running
	OutcomeNoMatch             // nothing matched; page reloaded per duty cycle
	OutcomeAccepted
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIdle:
		return "idle"
	case OutcomeNoMatch:
		return "no-match"
	case OutcomeAccepted:
		return "accepted"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}

// ErrAcceptanceFailed is returned when the portal reports an explicit
// failure (slot already filled, generic error banner) so callers can show
// it to the user right away.
type ErrAcceptanceFailed struct{ Text string }

func (e ErrAcceptanceFailed) Error() string {
	return fmt.Sprintf("acceptance failed: %s", e.Text)
}

type Engine struct {
	PageType shift.PageType
	Page     page.Page
	Store    store.Store
	Ticker   Armer             // optional
	History  attempts.Recorder // optional

	// Background is the context initial-scan and resume loops run under.
	Background context.Context

	// Now and Sleep exist so tests can drive the duty cycle and the bounded
	// waits without real time passing.
	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error

	mu      sync.Mutex // serializes Scanning passes; the session guard never takes it
	looping atomic.Bool
}

func New(pt shift.PageType, pg page.Page, st store.Store) *Engine {
	return &Engine{
		PageType:   pt,
		Page:       pg,
		Store:      st,
		History:    attempts.Noop{},
		Background: context.Background(),
		Now:        time.Now,
		Sleep:      sleepCtx,
	}
}

// Check runs one Scanning pass. The persisted running flag is observed at
// the top of the pass and again before the duty-cycle bookkeeping writes;
// an external stop takes effect at those checkpoints, never in the middle
// of an in-flight click sequence.
func (e *Engine) Check(ctx context.Context) (Outcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok, err := e.Store.Get(ctx, e.PageType)
	if err != nil {
		return OutcomeIdle, err
	}
	if !ok || !st.IsRunning {
		return OutcomeIdle, nil
	}

	offers, err := e.Page.Offers(ctx)
	if err != nil {
		// Leave the run alive; the next tick scans again.
		return OutcomeNoMatch, fmt.Errorf("engine(%s): read offers: %w", e.PageType, err)
	}

	m, found := shift.FindMatch(offers, st.Targets, st.Shift)
	if !found {
		return e.dutyCycle(ctx, st)
	}
	return e.acceptFlow(ctx, st, m)
}

// RunLoop re-enters Scanning after every reload, the way a freshly loaded
// page restores itself from persisted state, until the pass resolves as
// anything other than no-match.
func (e *Engine) RunLoop(ctx context.Context) (Outcome, error) {
	if !e.looping.CompareAndSwap(false, true) {
		return OutcomeNoMatch, nil
	}
	defer e.looping.Store(false)

	for {
		out, err := e.Check(ctx)
		if err != nil || out != OutcomeNoMatch {
			return out, err
		}
		select {
		case <-ctx.Done():
			return out, ctx.Err()
		default:
		}
	}
}

// Resume restarts automation from persisted state alone, called once per
// process start for each page type. A run that was active before a restart
// carries on transparently.
func (e *Engine) Resume(ctx context.Context) error {
	st, ok, err := e.Store.Get(ctx, e.PageType)
	if err != nil {
		return err
	}
	if !ok || !st.IsRunning {
		return nil
	}
	log.Printf("engine(%s): resuming run with %d target(s)", e.PageType, len(st.Targets))
	e.arm()
	go func() {
		if _, err := e.RunLoop(e.Background); err != nil {
			log.Printf("engine(%s): %v", e.PageType, err)
		}
	}()
	return nil
}

func (e *Engine) acceptFlow(ctx context.Context, st shift.RunState, m shift.Match) (Outcome, error) {
	target := st.Targets[m.TargetIndex]
	log.Printf("engine(%s): offer %q / %q matches target [%s], accepting",
		e.PageType, m.Offer.DateLabel, m.Offer.TimeRangeLabel, target.Describe())

	if err := e.Page.Accept(ctx, m.Offer.AcceptHandle); err != nil {
		return e.fail(ctx, m, target, attempts.OutcomeFailed, fmt.Sprintf("accept click failed: %v", err), nil)
	}

	appeared, err := e.await(ctx, e.Page.ConfirmationVisible)
	if err != nil {
		return e.fail(ctx, m, target, attempts.OutcomeFailed, fmt.Sprintf("confirmation wait: %v", err), nil)
	}
	if !appeared {
		return e.fail(ctx, m, target, attempts.OutcomeTimeout, "confirmation control never appeared", nil)
	}
	if err := e.Page.Confirm(ctx); err != nil {
		return e.fail(ctx, m, target, attempts.OutcomeFailed, fmt.Sprintf("confirm click failed: %v", err), nil)
	}

	text, verdict, err := e.awaitResult(ctx)
	if err != nil {
		return e.fail(ctx, m, target, attempts.OutcomeFailed, fmt.Sprintf("result wait: %v", err), nil)
	}
	switch verdict {
	case verdictSuccess:
		return e.succeed(ctx, m, target, text)
	case verdictFailure:
		// Explicit portal failure: surface it to the caller synchronously.
		return e.fail(ctx, m, target, attempts.OutcomeFailed, text, ErrAcceptanceFailed{Text: text})
	default:
		return e.fail(ctx, m, target, attempts.OutcomeTimeout, "result text unrecognized within wait budget", nil)
	}
}

func (e *Engine) succeed(ctx context.Context, m shift.Match, target shift.Target, text string) (Outcome, error) {
	log.Printf("engine(%s): accepted: %s", e.PageType, text)
	rec := store.Reconciler{S: e.Store}
	if err := rec.RemoveTarget(ctx, e.PageType, target, m.TargetIndex); err != nil {
		// Still halt; a stale target left behind beats losing one.
		log.Printf("engine(%s): reconcile after success failed: %v", e.PageType, err)
		if err := rec.MarkStopped(ctx, e.PageType); err != nil {
			log.Printf("engine(%s): stop after failed reconcile: %v", e.PageType, err)
		}
	}
	e.disarm()
	e.record(ctx, m, target, attempts.OutcomeAccepted, text)
	return OutcomeAccepted, nil
}

func (e *Engine) fail(ctx context.Context, m shift.Match, target shift.Target, outcome, detail string, surface error) (Outcome, error) {
	log.Printf("engine(%s): run halted (%s): %s", e.PageType, outcome, detail)
	if err := (store.Reconciler{S: e.Store}).MarkStopped(ctx, e.PageType); err != nil {
		log.Printf("engine(%s): mark stopped: %v", e.PageType, err)
	}
	e.disarm()
	e.record(ctx, m, target, outcome, detail)
	return OutcomeFailed, surface
}

// dutyCycle handles the no-match path: reload immediately inside the active
// window, otherwise schedule the next window past a pause and sleep it out.
// Returns idle when an external stop landed during the pass.
func (e *Engine) dutyCycle(ctx context.Context, st shift.RunState) (Outcome, error) {
	now := e.Now().UnixMilli()
	if st.CycleStartMs == 0 {
		st.CycleStartMs = now
		running, err := e.setCycleStart(ctx, now)
		if err != nil {
			return OutcomeNoMatch, err
		}
		if !running {
			return OutcomeIdle, nil
		}
	}

	if now-st.CycleStartMs < dutyCycleWindow.Milliseconds() {
		return OutcomeNoMatch, e.Page.Reload(ctx)
	}

	running, err := e.setCycleStart(ctx, now+dutyCyclePause.Milliseconds())
	if err != nil {
		return OutcomeNoMatch, err
	}
	if !running {
		return OutcomeIdle, nil
	}
	if err := e.Sleep(ctx, dutyCyclePause); err != nil {
		return OutcomeNoMatch, err
	}
	return OutcomeNoMatch, e.Page.Reload(ctx)
}

// setCycleStart re-reads the persisted state and updates only the cycle
// field. A control surface may flip isRunning off at any point during a
// pass; writing back the scan-time snapshot would resurrect the run, so
// the current state is consulted and the write skipped once stopped.
func (e *Engine) setCycleStart(ctx context.Context, ms int64) (running bool, err error) {
	cur, ok, err := e.Store.Get(ctx, e.PageType)
	if err != nil {
		return false, err
	}
	if !ok || !cur.IsRunning {
		return false, nil
	}
	cur.CycleStartMs = ms
	if err := e.Store.Set(ctx, e.PageType, cur); err != nil {
		return false, err
	}
	return true, nil
}

// await polls a condition every pollInterval for at most pollBudget.
// Returns false when the budget runs out without the condition holding.
func (e *Engine) await(ctx context.Context, cond func(context.Context) (bool, error)) (bool, error) {
	tries := int(pollBudget / pollInterval)
	for i := 0; i < tries; i++ {
		ok, err := cond(ctx)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
		if err := e.Sleep(ctx, pollInterval); err != nil {
			return false, err
		}
	}
	return false, nil
}

type verdict int

const (
	verdictPending verdict = iota
	verdictSuccess
	verdictFailure
)

func classify(text string) verdict {
	lower := strings.ToLower(text)
	if strings.Contains(lower, successPhrase) {
		return verdictSuccess
	}
	for _, p := range failurePhrases {
		if strings.Contains(lower, p) {
			return verdictFailure
		}
	}
	return verdictPending
}

func (e *Engine) awaitResult(ctx context.Context) (string, verdict, error) {
	var lastText string
	tries := int(pollBudget / pollInterval)
	for i := 0; i < tries; i++ {
		text, err := e.Page.ResultText(ctx)
		if err != nil {
			return "", verdictPending, err
		}
		lastText = text
		if v := classify(text); v != verdictPending {
			return text, v, nil
		}
		if err := e.Sleep(ctx, pollInterval); err != nil {
			return "", verdictPending, err
		}
	}
	return lastText, verdictPending, nil
}

func (e *Engine) record(ctx context.Context, m shift.Match, target shift.Target, outcome, detail string) {
	rec := e.History
	if rec == nil {
		rec = attempts.Noop{}
	}
	err := rec.Record(ctx, attempts.Attempt{
		PageType:  e.PageType,
		OfferDate: m.Offer.DateLabel,
		OfferTime: m.Offer.TimeRangeLabel,
		Target:    target.Describe(),
		Outcome:   outcome,
		Detail:    detail,
	})
	if err != nil {
		log.Printf("engine(%s): record attempt: %v", e.PageType, err)
	}
}

func (e *Engine) arm() {
	if e.Ticker != nil {
		e.Ticker.Arm()
	}
}

func (e *Engine) disarm() {
	if e.Ticker != nil {
		e.Ticker.Disarm()
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
