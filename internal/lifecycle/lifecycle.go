// Package lifecycle holds the status and priority transitions of events.
//
// Every transition is a pure function of its inputs. It never mutates the
// event it is given: an accepted transition returns a new event with one
// timeline entry prepended, a rejected one returns the original untouched.
package lifecycle

import (
	"errors"
	"fmt"
	"time"

	"propcal/internal/model"
	"propcal/internal/notify"
	"propcal/internal/slot"
)

var (
	// ErrTerminal rejects any transition on a completed or cancelled event.
	ErrTerminal = errors.New("event is completed or cancelled")
	// ErrAlreadyUrgent rejects escalating an event that is already urgent.
	ErrAlreadyUrgent = errors.New("already marked as urgent")
	// ErrInvalidTransition rejects a transition not allowed from the
	// current status.
	ErrInvalidTransition = errors.New("transition not allowed")
	// ErrUnchanged rejects a reschedule onto the event's current slot.
	ErrUnchanged = errors.New("event is already at that time")
)

// Outcome tags a Result.
type Outcome int

const (
	Rejected Outcome = iota
	Accepted
)

func (o Outcome) String() string {
	if o == Accepted {
		return "accepted"
	}
	return "rejected"
}

// Result is the outcome of a transition.
//
// Accepted: Event is the new event and Entry the timeline entry that was
// prepended. Rejected: Event is the input unchanged and Reason says why.
// Notice is set in both cases.
type Result struct {
	Outcome Outcome
	Event   model.Event
	Entry   model.TimelineEntry
	Reason  error
	Notice  notify.Notice
}

func (r Result) Accepted() bool { return r.Outcome == Accepted }

// Stamp identifies who acts and when. EntryID becomes the id of the
// timeline entry, so the caller owns id generation.
type Stamp struct {
	Actor   string
	At      time.Time
	EntryID string
}

func (s Stamp) actor() string {
	if s.Actor == "" {
		return "System"
	}
	return s.Actor
}

func (s Stamp) entry(typ model.EntryType, msg string) model.TimelineEntry {
	return model.TimelineEntry{
		ID:      s.EntryID,
		Date:    model.FormatDay(s.At),
		Time:    slot.FormatClock(model.MinuteOfDay(s.At)),
		Type:    typ,
		Message: msg,
		Actor:   s.actor(),
	}
}

func accept(next model.Event, st Stamp, entry model.TimelineEntry, title, desc string, sev notify.Severity) Result {
	next.Timeline = next.Timeline.Prepend(entry)
	next.UpdatedAt = st.At
	return Result{
		Outcome: Accepted,
		Event:   next,
		Entry:   entry,
		Notice: notify.Notice{
			Title:       title,
			Description: desc,
			Severity:    sev,
			EventID:     next.ID,
			At:          st.At,
		},
	}
}

func reject(e model.Event, st Stamp, reason error, title string) Result {
	return Result{
		Outcome: Rejected,
		Event:   e,
		Reason:  reason,
		Notice: notify.Notice{
			Title:       title,
			Description: fmt.Sprintf("%s: %s", e.Title, reason),
			Severity:    notify.SeverityDestructive,
			EventID:     e.ID,
			At:          st.At,
		},
	}
}

// guard applies the checks shared by every transition. from lists the
// statuses the transition may start from; empty means any non-terminal.
func guard(e model.Event, st Stamp, title string, from ...model.Status) (Result, bool) {
	if e.IsTerminal() {
		return reject(e, st, fmt.Errorf("%w (%s)", ErrTerminal, e.Status), title), false
	}
	if len(from) == 0 {
		return Result{}, true
	}
	for _, s := range from {
		if e.Status == s {
			return Result{}, true
		}
	}
	return reject(e, st, fmt.Errorf("%w from %s", ErrInvalidTransition, e.Status), title), false
}

func placement(date, clock string) (string, string, error) {
	if _, err := model.ParseDay(date, time.UTC); err != nil {
		return "", "", err
	}
	norm, err := slot.NormalizeClock(clock)
	if err != nil {
		return "", "", err
	}
	return date, norm, nil
}

func humanDay(date string) string {
	t, err := model.ParseDay(date, time.UTC)
	if err != nil {
		return date
	}
	return t.Format("Jan 2, 2006")
}
