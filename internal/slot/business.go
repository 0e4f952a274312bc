package slot

import "fmt"

// Window is a daily opening window, e.g. maintenance business hours.
type Window struct {
	Open  int
	Close int
}

// ParseWindow builds a Window from two clock strings.
func ParseWindow(open, close string) (Window, error) {
	o, err := ParseClock(open)
	if err != nil {
		return Window{}, err
	}
	c, err := ParseClock(close)
	if err != nil {
		return Window{}, err
	}
	if c <= o {
		return Window{}, fmt.Errorf("%w: window closes before it opens (%s-%s)", ErrInvalidTime, open, close)
	}
	return Window{Open: o, Close: c}, nil
}

// Placement is a day offset (0 today, 1 tomorrow) plus a start minute.
type Placement struct {
	DayOffset int
	Start     int
}

// NextBusinessSlot places a booking of duration inside w.
//
// Today's lower bound is the later of the opening time and nowMinute
// rounded up to the next full hour. If nothing fits before closing, the
// booking moves to the first free slot tomorrow from opening time.
func (w Window) NextBusinessSlot(nowMinute int, today, tomorrow []Interval, duration int) (Placement, error) {
	if duration <= 0 {
		duration = DefaultDuration
	}
	if duration > w.Close-w.Open {
		return Placement{}, fmt.Errorf("%w: %d minutes does not fit %s-%s",
			ErrDurationTooLong, duration, FormatClock(w.Open), FormatClock(w.Close))
	}

	lower := nowMinute
	if lower%60 != 0 {
		lower = (lower/60 + 1) * 60
	}
	lower = max(lower, w.Open)

	if lower+duration <= w.Close {
		if start, ok := w.scan(today, lower, duration); ok {
			return Placement{DayOffset: 0, Start: start}, nil
		}
	}
	if start, ok := w.scan(tomorrow, w.Open, duration); ok {
		return Placement{DayOffset: 1, Start: start}, nil
	}
	return Placement{DayOffset: 1, Start: w.Open}, nil
}

// scan runs the greedy search without clamping and reports whether the
// result lies inside the window.
func (w Window) scan(bookings []Interval, lower, duration int) (int, bool) {
	f := Finder{Boundary: MinutesPerDay}
	start, err := f.Find(bookings, lower, duration)
	if err != nil {
		return 0, false
	}
	if start < lower || start+duration > w.Close || !Fits(bookings, start, duration) {
		return 0, false
	}
	return start, true
}
