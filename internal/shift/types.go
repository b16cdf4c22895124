// Package shift holds the domain types and matching logic for shift offers:
// VTO slots and shift pickups rendered by the scheduling portal, and the
// user-configured targets they are matched against.
package shift

import (
	"fmt"
	"time"

	"github.com/ErraticFox/atov/internal/timefmt"
)

// PageType identifies which portal page an automation instance watches.
// The two instances are independent and never interact.
type PageType string

const (
	PageVTO PageType = "vto"
	PageVET PageType = "vet"
)

func ParsePageType(s string) (PageType, error) {
	switch PageType(s) {
	case PageVTO, PageVET:
		return PageType(s), nil
	}
	return "", fmt.Errorf("unknown page type %q", s)
}

// Target is one user-specified acceptance criterion. List order encodes
// priority: the first satisfying target wins.
type Target struct {
	// Date in "2006-01-02" form; empty matches any date.
	Date string `json:"date,omitempty"`

	// AcceptAny takes any offer inside the shift bounds lasting at least
	// MinDuration hours. When false, StartTime/EndTime name the exact range
	// (full-shift targets are resolved to the shift bounds before they are
	// persisted, so the matcher only ever sees the two modes).
	AcceptAny   bool    `json:"acceptAny"`
	StartTime   string  `json:"startTime,omitempty"` // "HH:MM"
	EndTime     string  `json:"endTime,omitempty"`   // "HH:MM"
	MinDuration float64 `json:"minDuration,omitempty"`
}

func (t Target) Validate() error {
	if t.Date != "" {
		if _, err := time.Parse("2006-01-02", t.Date); err != nil {
			return fmt.Errorf("date must be YYYY-MM-DD: %w", err)
		}
	}
	if t.AcceptAny {
		if t.MinDuration < 0 {
			return fmt.Errorf("min duration must be >= 0")
		}
		return nil
	}
	if _, err := timefmt.MinutesSinceMidnight(t.StartTime); err != nil {
		return fmt.Errorf("start time: %w", err)
	}
	if _, err := timefmt.MinutesSinceMidnight(t.EndTime); err != nil {
		return fmt.Errorf("end time: %w", err)
	}
	return nil
}

// Describe renders a target the way the control surface lists it.
func (t Target) Describe() string {
	date := t.Date
	if date == "" {
		date = "any date"
	}
	if t.AcceptAny {
		if t.MinDuration > 0 {
			return fmt.Sprintf("%s, any offer >= %.2gh", date, t.MinDuration)
		}
		return fmt.Sprintf("%s, any offer", date)
	}
	return fmt.Sprintf("%s, %s - %s", date, t.StartTime, t.EndTime)
}

// ShiftTime bounds the user's work shift. End before Start means the shift
// runs overnight.
type ShiftTime struct {
	Start string `json:"start"` // "HH:MM"
	End   string `json:"end"`   // "HH:MM"
}

func (s ShiftTime) Validate() error {
	if _, err := timefmt.MinutesSinceMidnight(s.Start); err != nil {
		return fmt.Errorf("shift start: %w", err)
	}
	if _, err := timefmt.MinutesSinceMidnight(s.End); err != nil {
		return fmt.Errorf("shift end: %w", err)
	}
	return nil
}

// FullShiftTarget resolves a full-shift selection into a concrete range
// target on the given date (empty date = any date).
func FullShiftTarget(date string, s ShiftTime) Target {
	return Target{Date: date, StartTime: s.Start, EndTime: s.End}
}

// Offer is one candidate slot scraped from the portal page. Offers are
// ephemeral: rebuilt on every scan, never persisted.
type Offer struct {
	DateLabel      string // raw text, e.g. "Fri, Jan 16"
	TimeRangeLabel string // raw text, e.g. "1:00am - 1:30am"
	AcceptHandle   string // opaque token the page surface uses to accept
}

// RunState is the persisted automation state for one page type. It is the
// only state that survives a page reload; the engine must be fully
// re-derivable from it.
type RunState struct {
	IsRunning bool      `json:"isRunning"`
	Targets   []Target  `json:"targets"`
	Shift     ShiftTime `json:"shiftTime"`

	// CycleStartMs marks the start of the current duty-cycle window in unix
	// milliseconds; zero means no window is open.
	CycleStartMs int64 `json:"cycleStartTime,omitempty"`
}
