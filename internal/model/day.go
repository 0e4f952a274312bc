package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DayLayout is the wire format of Event.Date.
const DayLayout = "2006-01-02"

// ErrInvalidDate is returned for dates that are not "YYYY-MM-DD".
var ErrInvalidDate = errors.New("invalid date")

// FormatDay renders the calendar day of t in t's location.
func FormatDay(t time.Time) string {
	return t.Format(DayLayout)
}

// ParseDay parses "YYYY-MM-DD" as midnight in loc (UTC if nil).
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DayLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: %v", ErrInvalidDate, s, err)
	}
	return t, nil
}

// AddDays shifts a "YYYY-MM-DD" day by n calendar days.
func AddDays(day string, n int) (string, error) {
	t, err := ParseDay(day, time.UTC)
	if err != nil {
		return "", err
	}
	return FormatDay(t.AddDate(0, 0, n)), nil
}

// SameDay compares two day strings. Unparseable input never matches.
func SameDay(a, b string) bool {
	ta, err := ParseDay(a, time.UTC)
	if err != nil {
		return false
	}
	tb, err := ParseDay(b, time.UTC)
	if err != nil {
		return false
	}
	return ta.Equal(tb)
}

// MinuteOfDay returns minutes from midnight of t in its own location.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
