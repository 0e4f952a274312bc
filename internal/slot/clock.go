package slot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MinutesPerDay is the length of a calendar day in minutes.
const MinutesPerDay = 24 * 60

// ErrInvalidTime is returned for clock strings that are neither "HH:mm"
// nor "h:mm AM/PM".
var ErrInvalidTime = errors.New("invalid time of day")

// ParseClock parses a 24-hour "HH:mm" or 12-hour "h:mm AM" string into
// minutes from midnight.
func ParseClock(s string) (int, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	if v == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidTime)
	}

	period := ""
	switch {
	case strings.HasSuffix(v, "AM"):
		period = "AM"
	case strings.HasSuffix(v, "PM"):
		period = "PM"
	}
	if period != "" {
		v = strings.TrimSpace(strings.TrimSuffix(v, period))
	}

	hh, mm, ok := strings.Cut(v, ":")
	if !ok || len(mm) != 2 || hh == "" || len(hh) > 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	hours, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	minutes, err := strconv.Atoi(mm)
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}

	if period == "" {
		if hours < 0 || hours > 23 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
		}
		return hours*60 + minutes, nil
	}

	if hours < 1 || hours > 12 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	// 12 AM is midnight, 12 PM is noon.
	hours %= 12
	if period == "PM" {
		hours += 12
	}
	return hours*60 + minutes, nil
}

// FormatClock renders minutes from midnight as "HH:mm".
func FormatClock(m int) string {
	m = clampDay(m)
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// FormatClock12 renders minutes from midnight as "h:mm AM".
func FormatClock12(m int) string {
	m = clampDay(m)
	h := m / 60
	period := "AM"
	if h >= 12 {
		period = "PM"
	}
	h %= 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d:%02d %s", h, m%60, period)
}

// NormalizeClock accepts either clock format and returns "HH:mm".
func NormalizeClock(s string) (string, error) {
	m, err := ParseClock(s)
	if err != nil {
		return "", err
	}
	return FormatClock(m), nil
}

func clampDay(m int) int {
	if m < 0 {
		return 0
	}
	if m >= MinutesPerDay {
		return MinutesPerDay - 1
	}
	return m
}
