package slot

import (
	"errors"
	"fmt"
	"slices"
)

const (
	// DefaultBoundary is the latest minute a booking may end on (23:30).
	DefaultBoundary = 23*60 + 30
	// DefaultBookingLength is the assumed length of an existing booking.
	DefaultBookingLength = 60
	// DefaultDuration is used when a caller asks for a non-positive duration.
	DefaultDuration = 60
)

// ErrDurationTooLong is returned when the requested duration cannot fit
// between midnight and the day boundary at all.
var ErrDurationTooLong = errors.New("duration exceeds the schedulable day")

// Interval is a half-open [Start, End) range in minutes from midnight.
type Interval struct {
	Start int
	End   int
}

// Overlaps reports whether two intervals share at least one minute.
func (iv Interval) Overlaps(o Interval) bool {
	return iv.Start < o.End && o.Start < iv.End
}

// BookingIntervals turns booking start minutes into fixed-length intervals.
func BookingIntervals(starts []int, length int) []Interval {
	if length <= 0 {
		length = DefaultBookingLength
	}
	out := make([]Interval, 0, len(starts))
	for _, s := range starts {
		out = append(out, Interval{Start: s, End: s + length})
	}
	return out
}

// Finder locates the earliest free interval on a single day.
type Finder struct {
	// Boundary is the closing minute of the day; a slot that would end
	// after it is pulled back to Boundary-duration.
	Boundary int
}

// NewFinder returns a Finder closing at boundary (DefaultBoundary if <= 0).
func NewFinder(boundary int) Finder {
	if boundary <= 0 || boundary > MinutesPerDay {
		boundary = DefaultBoundary
	}
	return Finder{Boundary: boundary}
}

// Find returns the earliest start >= lowerBound such that
// [start, start+duration) overlaps none of bookings.
//
// When no such start exists before the boundary the result is clamped to
// Boundary-duration, which may overlap an existing booking.
func (f Finder) Find(bookings []Interval, lowerBound, duration int) (int, error) {
	boundary := f.Boundary
	if boundary <= 0 {
		boundary = DefaultBoundary
	}
	if duration <= 0 {
		duration = DefaultDuration
	}
	if duration > boundary {
		return 0, fmt.Errorf("%w: %d > %d minutes", ErrDurationTooLong, duration, boundary)
	}
	if lowerBound < 0 {
		lowerBound = 0
	}

	sorted := slices.Clone(bookings)
	slices.SortFunc(sorted, func(a, b Interval) int { return a.Start - b.Start })

	candidate := lowerBound
	for _, iv := range sorted {
		if candidate+duration <= iv.Start {
			break
		}
		candidate = max(candidate, iv.End)
	}

	if candidate+duration > boundary {
		candidate = boundary - duration
	}
	return candidate, nil
}

// Fits reports whether [start, start+duration) is free of bookings.
func Fits(bookings []Interval, start, duration int) bool {
	want := Interval{Start: start, End: start + duration}
	for _, iv := range bookings {
		if want.Overlaps(iv) {
			return false
		}
	}
	return true
}
