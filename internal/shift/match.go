package shift

import (
	"strings"
	"time"

	"github.com/ErraticFox/atov/internal/timefmt"
)

// Match is the result of a successful scan: which target was satisfied and
// by which offer. TargetIndex indexes the target list that was passed to
// FindMatch; reconciliation later removes that exact entry.
type Match struct {
	TargetIndex int
	Offer       Offer
}

// FindMatch scans offers in presentation order against targets in priority
// order and returns the first satisfying pair.
//
// Offers are the outer loop: an earlier-presented offer matching a
// low-priority target wins over a later offer matching a high-priority one.
// That tie-break mirrors a top-to-bottom scan of the rendered page and is
// relied on by callers; do not reorder the loops.
func FindMatch(offers []Offer, targets []Target, shiftTime ShiftTime) (Match, bool) {
	for _, offer := range offers {
		for i, target := range targets {
			if satisfies(offer, target, shiftTime) {
				return Match{TargetIndex: i, Offer: offer}, true
			}
		}
	}
	return Match{}, false
}

func satisfies(offer Offer, target Target, shiftTime ShiftTime) bool {
	if target.Date != "" {
		d, err := time.Parse("2006-01-02", target.Date)
		if err != nil {
			return false
		}
		if !strings.Contains(offer.DateLabel, timefmt.FormatDateLabel(d)) {
			return false
		}
	}

	if target.AcceptAny {
		start, end, ok := timefmt.ParseTimeRangeLabel(offer.TimeRangeLabel)
		if !ok {
			return false
		}
		if !withinShift(start, end, shiftTime) {
			return false
		}
		return float64(timefmt.RangeDuration(start, end)) >= target.MinDuration*60
	}

	startDisp, err := timefmt.To12Hour(target.StartTime)
	if err != nil {
		return false
	}
	endDisp, err := timefmt.To12Hour(target.EndTime)
	if err != nil {
		return false
	}
	label := strings.ToLower(offer.TimeRangeLabel)
	return strings.Contains(label, strings.ToLower(startDisp)) &&
		strings.Contains(label, strings.ToLower(endDisp))
}

// withinShift reports whether the offer range lies fully inside the shift
// bounds. Both ranges may wrap past midnight; everything is normalized to
// minutes after the shift start.
func withinShift(offerStart, offerEnd int, shiftTime ShiftTime) bool {
	shiftStart, err := timefmt.MinutesSinceMidnight(shiftTime.Start)
	if err != nil {
		return false
	}
	shiftEnd, err := timefmt.MinutesSinceMidnight(shiftTime.End)
	if err != nil {
		return false
	}
	shiftLen := timefmt.RangeDuration(shiftStart, shiftEnd)
	relStart := ((offerStart - shiftStart) + 24*60) % (24 * 60)
	return relStart+timefmt.RangeDuration(offerStart, offerEnd) <= shiftLen
}
