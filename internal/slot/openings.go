package slot

import "time"

// rescheduleOpenings are the start times offered when a resident moves a
// work order, by weekday. Sunday has none.
var rescheduleOpenings = [7][]int{
	time.Monday:    {11 * 60, 14 * 60},
	time.Tuesday:   {8 * 60, 9 * 60, 10 * 60, 11 * 60},
	time.Wednesday: {13 * 60, 14 * 60, 15 * 60, 16 * 60},
	time.Thursday:  {9 * 60, 12 * 60, 15 * 60},
	time.Friday:    {8 * 60, 9 * 60},
	time.Saturday:  {10 * 60, 12 * 60},
}

// RescheduleOpenings returns the offered start minutes for a weekday.
func RescheduleOpenings(wd time.Weekday) []int {
	if wd < time.Sunday || wd > time.Saturday {
		return nil
	}
	return append([]int(nil), rescheduleOpenings[wd]...)
}

// FreeOpenings keeps the openings at or after lower where a booking of
// duration fits.
func FreeOpenings(openings []int, bookings []Interval, lower, duration int) []int {
	if duration <= 0 {
		duration = DefaultDuration
	}
	var out []int
	for _, start := range openings {
		if start >= lower && Fits(bookings, start, duration) {
			out = append(out, start)
		}
	}
	return out
}
