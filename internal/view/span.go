package view

import (
	"fmt"
	"strings"
	"time"

	"propcal/internal/model"
	"propcal/internal/slot"
)

// Span is the width of a calendar view.
type Span string

const (
	SpanDay      Span = "day"
	SpanThreeDay Span = "3day"
	SpanWeek     Span = "week"
	SpanMonth    Span = "month"
)

func ParseSpan(s string) (Span, error) {
	switch sp := Span(strings.ToLower(strings.TrimSpace(s))); sp {
	case SpanDay, SpanThreeDay, SpanWeek, SpanMonth:
		return sp, nil
	case "":
		return SpanDay, nil
	}
	return "", fmt.Errorf("unknown view span %q", s)
}

// Range returns the first and last day (inclusive) shown for anchor.
// Weeks begin on weekStart.
func Range(anchor time.Time, span Span, weekStart time.Weekday) (time.Time, time.Time) {
	day := time.Date(anchor.Year(), anchor.Month(), anchor.Day(), 0, 0, 0, 0, anchor.Location())
	switch span {
	case SpanThreeDay:
		return day, day.AddDate(0, 0, 2)
	case SpanWeek:
		offset := (int(day.Weekday()) - int(weekStart) + 7) % 7
		start := day.AddDate(0, 0, -offset)
		return start, start.AddDate(0, 0, 6)
	case SpanMonth:
		start := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
		return start, start.AddDate(0, 1, -1)
	}
	return day, day
}

// Navigate moves anchor one page forward (dir > 0) or back (dir < 0).
func Navigate(anchor time.Time, span Span, dir int) time.Time {
	step := 1
	if dir < 0 {
		step = -1
	}
	switch span {
	case SpanThreeDay:
		return anchor.AddDate(0, 0, 3*step)
	case SpanWeek:
		return anchor.AddDate(0, 0, 7*step)
	case SpanMonth:
		return anchor.AddDate(0, step, 0)
	}
	return anchor.AddDate(0, 0, step)
}

// Title is the human label of the range, e.g. "Jun 8 - Jun 14, 2025".
func Title(anchor time.Time, span Span, weekStart time.Weekday) string {
	from, to := Range(anchor, span, weekStart)
	switch span {
	case SpanThreeDay, SpanWeek:
		return fmt.Sprintf("%s - %s", from.Format("Jan 2"), to.Format("Jan 2, 2006"))
	case SpanMonth:
		return anchor.Format("January 2006")
	}
	return anchor.Format("Monday, January 2, 2006")
}

// Window returns the events visible in the span around anchor.
func Window(events []model.Event, anchor time.Time, span Span, weekStart time.Weekday) []model.Event {
	from, to := Range(anchor, span, weekStart)
	return OnDays(events, model.FormatDay(from), model.FormatDay(to))
}

// SlotMinutes is the row height of the hourly calendar.
const SlotMinutes = 30

// Slot is one row of the hourly calendar.
type Slot struct {
	Time   string        `json:"time"`  // "HH:mm"
	Label  string        `json:"label"` // "h:mm AM"
	Events []model.Event `json:"events,omitempty"`
}

// Slots48 returns the empty half-hour grid of a day.
func Slots48() []Slot {
	out := make([]Slot, 0, slot.MinutesPerDay/SlotMinutes)
	for m := 0; m < slot.MinutesPerDay; m += SlotMinutes {
		out = append(out, Slot{Time: slot.FormatClock(m), Label: slot.FormatClock12(m)})
	}
	return out
}

// DayGrid places the events of date into the half-hour slot containing
// their start time.
func DayGrid(events []model.Event, date string) []Slot {
	grid := Slots48()
	for _, e := range OnDays(events, date, date) {
		start, ok := e.Start()
		if !ok {
			continue
		}
		i := start / SlotMinutes
		grid[i].Events = append(grid[i].Events, e)
	}
	return grid
}
