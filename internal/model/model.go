package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"propcal/internal/slot"
)

// Event is the unit of scheduling: a work order, message, lease milestone,
// community event, unit turn or service booking.
//
// Events are treated as values. Mutations produce a new Event via Clone
// so readers holding an older copy never observe partial updates.
type Event struct {
	ID          string   `json:"id"`
	Kind        Kind     `json:"kind"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Priority    Priority `json:"priority"`
	Status      Status   `json:"status"`

	// Date is "YYYY-MM-DD"; empty while unscheduled.
	Date string `json:"date,omitempty"`
	// Time is "HH:mm".
	Time            string `json:"time,omitempty"`
	DueDate         string `json:"dueDate,omitempty"`
	DurationMinutes int    `json:"durationMinutes,omitempty"`

	RescheduledCount int `json:"rescheduledCount"`

	Location   Location `json:"location"`
	AssignedTo string   `json:"assignedTo,omitempty"`
	Resident   Resident `json:"resident"`

	// SuggestionID links an event created by dropping a suggestion card.
	SuggestionID string `json:"suggestionId,omitempty"`

	Details  Details  `json:"details"`
	Timeline Timeline `json:"timeline"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Location struct {
	Unit     string `json:"unit,omitempty"`
	Building string `json:"building,omitempty"`
}

// String renders "Unit 4B, Building A", omitting missing parts.
func (l Location) String() string {
	var parts []string
	if l.Unit != "" {
		parts = append(parts, "Unit "+l.Unit)
	}
	if l.Building != "" {
		parts = append(parts, l.Building)
	}
	return strings.Join(parts, ", ")
}

type Resident struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
}

var (
	ErrMissingID    = errors.New("event id is required")
	ErrMissingTitle = errors.New("event title is required")
)

// Validate checks the invariants every stored event must satisfy.
func (e Event) Validate() error {
	if e.ID == "" {
		return ErrMissingID
	}
	if strings.TrimSpace(e.Title) == "" {
		return ErrMissingTitle
	}
	set := e.Details.set()
	if len(set) != 1 || set[0] != e.Kind {
		return fmt.Errorf("%w: kind=%s details=%v", ErrKindMismatch, e.Kind, set)
	}
	if e.Priority.Rank() == 0 {
		return fmt.Errorf("%w: %q", ErrUnknownPriority, e.Priority)
	}
	if _, err := ParseStatus(string(e.Status)); err != nil {
		return err
	}
	if e.Date != "" {
		if _, err := ParseDay(e.Date, time.UTC); err != nil {
			return err
		}
	}
	if e.Time != "" {
		if _, err := slot.ParseClock(e.Time); err != nil {
			return err
		}
	}
	if e.DueDate != "" {
		if _, err := ParseDay(e.DueDate, time.UTC); err != nil {
			return fmt.Errorf("due date: %w", err)
		}
	}
	return nil
}

// Clone returns a deep copy.
func (e Event) Clone() Event {
	out := e
	out.Details = e.Details.clone()
	out.Timeline = append(Timeline(nil), e.Timeline...)
	return out
}

func (e Event) IsTerminal() bool { return e.Status.Terminal() }

// Scheduled reports whether the event has a date and time.
func (e Event) Scheduled() bool { return e.Date != "" && e.Time != "" }

// Start returns the start minute of the event, if it has a valid time.
func (e Event) Start() (int, bool) {
	if e.Time == "" {
		return 0, false
	}
	m, err := slot.ParseClock(e.Time)
	if err != nil {
		return 0, false
	}
	return m, true
}

// Interval is the booked range of the event on its day. Events without an
// explicit duration occupy slot.DefaultBookingLength minutes.
func (e Event) Interval() (slot.Interval, bool) {
	start, ok := e.Start()
	if !ok {
		return slot.Interval{}, false
	}
	d := e.DurationMinutes
	if d <= 0 {
		d = slot.DefaultBookingLength
	}
	return slot.Interval{Start: start, End: start + d}, true
}

// DaysOpen is the number of whole days since the event was created.
func (e Event) DaysOpen(now time.Time) int {
	if e.CreatedAt.IsZero() || now.Before(e.CreatedAt) {
		return 0
	}
	return int(now.Sub(e.CreatedAt) / (24 * time.Hour))
}

// DuplicateKey identifies an event for the (date, time, title) dedup check.
type DuplicateKey struct {
	Date  string
	Time  string
	Title string
}

func (e Event) Key() DuplicateKey {
	return DuplicateKey{Date: e.Date, Time: e.Time, Title: e.Title}
}
