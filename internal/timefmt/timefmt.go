// Package timefmt converts between the clock formats the scheduling portal
// uses: 24-hour "HH:MM" strings from the configuration form, 12-hour
// "H:MMam/pm" strings rendered on offer cards, and minutes since midnight
// for range arithmetic.
package timefmt

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Fixed tables: the portal renders these exact abbreviations regardless of
// locale, so labels are built by hand rather than via time.Format.
var (
	weekdayAbbr = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	monthAbbr   = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
)

var rangeRe = regexp.MustCompile(`(?i)(\d{1,2}):(\d{2})\s*(am|pm)\s*-\s*(\d{1,2}):(\d{2})\s*(am|pm)`)

// To12Hour converts a 24-hour "HH:MM" string to the portal's display form,
// e.g. "13:05" -> "1:05pm". Noon is "12:00pm", midnight "12:00am".
func To12Hour(clock string) (string, error) {
	h, m, err := split24(clock)
	if err != nil {
		return "", err
	}
	suffix := "am"
	if h >= 12 {
		suffix = "pm"
	}
	h12 := h % 12
	if h12 == 0 {
		h12 = 12
	}
	return fmt.Sprintf("%d:%02d%s", h12, m, suffix), nil
}

// Parse24h parses a 12-hour display string back to "HH:MM".
func Parse24h(display string) (string, error) {
	min, err := minutesFrom12h(display)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%02d:%02d", min/60, min%60), nil
}

// MinutesSinceMidnight accepts either "HH:MM" or "H:MMam/pm".
func MinutesSinceMidnight(clock string) (int, error) {
	s := strings.ToLower(strings.TrimSpace(clock))
	if strings.HasSuffix(s, "am") || strings.HasSuffix(s, "pm") {
		return minutesFrom12h(s)
	}
	h, m, err := split24(s)
	if err != nil {
		return 0, err
	}
	return h*60 + m, nil
}

// FormatDateLabel renders a date the way the portal labels offers,
// e.g. "Fri, Jan 16". No year, no locale variance.
func FormatDateLabel(d time.Time) string {
	return fmt.Sprintf("%s, %s %d", weekdayAbbr[d.Weekday()], monthAbbr[d.Month()-1], d.Day())
}

// ParseTimeRangeLabel extracts a "H:MMam - H:MMpm" range from free text
// scraped off an offer card. Returns ok=false when no range is present;
// such offers are simply unmatchable, not errors.
func ParseTimeRangeLabel(text string) (startMin, endMin int, ok bool) {
	m := rangeRe.FindStringSubmatch(text)
	if m == nil {
		return 0, 0, false
	}
	startMin = clock12(m[1], m[2], m[3])
	endMin = clock12(m[4], m[5], m[6])
	if startMin < 0 || endMin < 0 {
		return 0, 0, false
	}
	return startMin, endMin, true
}

// RangeDuration returns the length of a range in minutes. Overnight ranges
// (end numerically before start) wrap past midnight.
func RangeDuration(startMin, endMin int) int {
	d := endMin - startMin
	if d < 0 {
		d += 24 * 60
	}
	return d
}

func split24(clock string) (h, m int, err error) {
	parts := strings.SplitN(strings.TrimSpace(clock), ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid clock time %q", clock)
	}
	h, err = strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, fmt.Errorf("invalid clock time %q", clock)
	}
	m, err = strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("invalid clock time %q", clock)
	}
	return h, m, nil
}

func minutesFrom12h(display string) (int, error) {
	s := strings.ToLower(strings.TrimSpace(display))
	var suffix string
	switch {
	case strings.HasSuffix(s, "am"):
		suffix = "am"
	case strings.HasSuffix(s, "pm"):
		suffix = "pm"
	default:
		return 0, fmt.Errorf("invalid 12-hour time %q", display)
	}
	parts := strings.SplitN(strings.TrimSpace(strings.TrimSuffix(s, suffix)), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid 12-hour time %q", display)
	}
	min := clock12(parts[0], parts[1], suffix)
	if min < 0 {
		return 0, fmt.Errorf("invalid 12-hour time %q", display)
	}
	return min, nil
}

// clock12 converts parsed 12-hour components to minutes since midnight.
// Returns -1 on out-of-range components.
func clock12(hs, ms, suffix string) int {
	h, err := strconv.Atoi(hs)
	if err != nil || h < 1 || h > 12 {
		return -1
	}
	m, err := strconv.Atoi(ms)
	if err != nil || m < 0 || m > 59 {
		return -1
	}
	if h == 12 {
		h = 0
	}
	if strings.EqualFold(suffix, "pm") {
		h += 12
	}
	return h*60 + m
}
