package shift_test

import (
	"testing"

	"github.com/ErraticFox/atov/internal/shift"
)

var dayShift = shift.ShiftTime{Start: "08:00", End: "17:00"}

func offer(date, times string) shift.Offer {
	return shift.Offer{DateLabel: date, TimeRangeLabel: times, AcceptHandle: times}
}

func TestFindMatch_SpecificRange(t *testing.T) {
	offers := []shift.Offer{offer("Fri, Jan 16", "1:00am - 1:30am")}
	targets := []shift.Target{{Date: "2026-01-16", StartTime: "01:00", EndTime: "01:30"}}

	m, ok := shift.FindMatch(offers, targets, dayShift)
	if !ok {
		t.Fatal("expected a match")
	}
	if m.TargetIndex != 0 {
		t.Errorf("TargetIndex = %d, want 0", m.TargetIndex)
	}
	if m.Offer.TimeRangeLabel != "1:00am - 1:30am" {
		t.Errorf("matched wrong offer: %+v", m.Offer)
	}
}

func TestFindMatch_SpecificRange_CaseInsensitive(t *testing.T) {
	offers := []shift.Offer{offer("Fri, Jan 16", "1:00AM - 1:30AM")}
	targets := []shift.Target{{StartTime: "01:00", EndTime: "01:30"}}
	if _, ok := shift.FindMatch(offers, targets, dayShift); !ok {
		t.Error("expected uppercase label to match")
	}
}

func TestFindMatch_DateFilter(t *testing.T) {
	// Same time range, wrong day: must not match.
	offers := []shift.Offer{offer("Sat, Jan 17", "1:00am - 1:30am")}
	targets := []shift.Target{{Date: "2026-01-16", StartTime: "01:00", EndTime: "01:30"}}
	if _, ok := shift.FindMatch(offers, targets, dayShift); ok {
		t.Error("target dated Jan 16 matched an offer labeled Jan 17")
	}
}

func TestFindMatch_EmptyDateMatchesAnyDay(t *testing.T) {
	offers := []shift.Offer{offer("Sat, Feb 1", "9:00am - 11:00am")}
	targets := []shift.Target{{StartTime: "09:00", EndTime: "11:00"}}
	if _, ok := shift.FindMatch(offers, targets, dayShift); !ok {
		t.Error("dateless target should match any day")
	}
}

// Offers are the outer loop: an earlier offer matching a lower-priority
// target beats a later offer matching the top-priority target.
func TestFindMatch_OfferOrderOutranksTargetPriority(t *testing.T) {
	offerA := offer("Fri, Jan 16", "2:00pm - 3:00pm") // matches only T2
	offerB := offer("Fri, Jan 16", "9:00am - 10:00am") // matches only T1
	t1 := shift.Target{StartTime: "09:00", EndTime: "10:00"}
	t2 := shift.Target{StartTime: "14:00", EndTime: "15:00"}

	m, ok := shift.FindMatch([]shift.Offer{offerA, offerB}, []shift.Target{t1, t2}, dayShift)
	if !ok {
		t.Fatal("expected a match")
	}
	if m.TargetIndex != 1 {
		t.Errorf("TargetIndex = %d, want 1 (offer order wins)", m.TargetIndex)
	}
	if m.Offer.TimeRangeLabel != offerA.TimeRangeLabel {
		t.Errorf("matched offer %q, want the earlier-presented %q", m.Offer.TimeRangeLabel, offerA.TimeRangeLabel)
	}
}

func TestFindMatch_AcceptAny_WithinShift(t *testing.T) {
	targets := []shift.Target{{AcceptAny: true}}
	if _, ok := shift.FindMatch([]shift.Offer{offer("", "9:00am - 10:00am")}, targets, dayShift); !ok {
		t.Error("offer inside shift bounds should match acceptAny")
	}
	if _, ok := shift.FindMatch([]shift.Offer{offer("", "7:00am - 9:00am")}, targets, dayShift); ok {
		t.Error("offer starting before the shift should not match")
	}
	if _, ok := shift.FindMatch([]shift.Offer{offer("", "4:00pm - 6:00pm")}, targets, dayShift); ok {
		t.Error("offer ending after the shift should not match")
	}
}

func TestFindMatch_AcceptAny_OvernightShift(t *testing.T) {
	night := shift.ShiftTime{Start: "22:00", End: "06:00"}
	targets := []shift.Target{{AcceptAny: true}}

	if _, ok := shift.FindMatch([]shift.Offer{offer("", "11:00pm - 11:30pm")}, targets, night); !ok {
		t.Error("11:00pm - 11:30pm should fall inside the 22:00-06:00 shift")
	}
	if _, ok := shift.FindMatch([]shift.Offer{offer("", "2:00am - 4:00am")}, targets, night); !ok {
		t.Error("2:00am - 4:00am should fall inside the 22:00-06:00 shift")
	}
	if _, ok := shift.FindMatch([]shift.Offer{offer("", "12:00pm - 12:30pm")}, targets, night); ok {
		t.Error("midday offer should fall outside the 22:00-06:00 shift")
	}
}

func TestFindMatch_AcceptAny_MinDuration(t *testing.T) {
	targets := []shift.Target{{AcceptAny: true, MinDuration: 1}}
	if _, ok := shift.FindMatch([]shift.Offer{offer("", "1:00am - 1:45am")}, targets, shift.ShiftTime{Start: "00:00", End: "08:00"}); ok {
		t.Error("45-minute offer should not satisfy a 1-hour minimum")
	}
	if _, ok := shift.FindMatch([]shift.Offer{offer("", "1:00am - 2:00am")}, targets, shift.ShiftTime{Start: "00:00", End: "08:00"}); !ok {
		t.Error("60-minute offer should satisfy a 1-hour minimum")
	}
}

func TestFindMatch_UnparseableOfferSkipped(t *testing.T) {
	offers := []shift.Offer{
		offer("Fri, Jan 16", "details unavailable"),
		offer("Fri, Jan 16", "9:00am - 10:00am"),
	}
	targets := []shift.Target{{AcceptAny: true}}
	m, ok := shift.FindMatch(offers, targets, dayShift)
	if !ok {
		t.Fatal("expected the parseable offer to match")
	}
	if m.Offer.TimeRangeLabel != "9:00am - 10:00am" {
		t.Errorf("matched %q, want the parseable offer", m.Offer.TimeRangeLabel)
	}
}

func TestFindMatch_NoOffers(t *testing.T) {
	if _, ok := shift.FindMatch(nil, []shift.Target{{AcceptAny: true}}, dayShift); ok {
		t.Error("empty offer list must not match")
	}
}

func TestFullShiftTarget(t *testing.T) {
	tg := shift.FullShiftTarget("2026-01-16", shift.ShiftTime{Start: "22:00", End: "06:00"})
	if tg.StartTime != "22:00" || tg.EndTime != "06:00" || tg.Date != "2026-01-16" || tg.AcceptAny {
		t.Errorf("unexpected full-shift target: %+v", tg)
	}
}

func TestTargetValidate(t *testing.T) {
	cases := []struct {
		name    string
		target  shift.Target
		wantErr bool
	}{
		{"specific ok", shift.Target{StartTime: "09:00", EndTime: "17:00"}, false},
		{"accept any ok", shift.Target{AcceptAny: true, MinDuration: 2}, false},
		{"bad date", shift.Target{Date: "Jan 16", AcceptAny: true}, true},
		{"missing end", shift.Target{StartTime: "09:00"}, true},
		{"negative min duration", shift.Target{AcceptAny: true, MinDuration: -1}, true},
	}
	for _, c := range cases {
		err := c.target.Validate()
		if (err != nil) != c.wantErr {
			t.Errorf("%s: Validate() error = %v, wantErr %v", c.name, err, c.wantErr)
		}
	}
}
