// Package dropzone turns drag and drop gestures on the calendar into
// scheduling operations on the store.
package dropzone

import (
	"errors"
	"fmt"
	"time"

	"propcal/internal/lifecycle"
	appLog "propcal/internal/log"
	"propcal/internal/model"
	"propcal/internal/notify"
	"propcal/internal/slot"
	"propcal/internal/store"
)

// Source is what kind of card was picked up.
type Source string

const (
	SourceSuggestion Source = "suggestion"
	SourceWorkOrder  Source = "work-order"
	SourceEvent      Source = "event"
)

var (
	ErrBadPayload = errors.New("invalid drop payload")
	ErrBadTarget  = errors.New("invalid drop target")
)

// Payload describes the dragged card.
type Payload struct {
	Source Source `json:"source"`
	// Suggestion is set for suggestion cards not yet known to the store.
	Suggestion   *model.Suggestion `json:"suggestion,omitempty"`
	SuggestionID string            `json:"suggestionId,omitempty"`
	EventID      string            `json:"eventId,omitempty"`
	// OriginalTime is the card's time before the drag, if it had one.
	OriginalTime string `json:"originalTime,omitempty"`
}

// Target is a day cell (Time empty) or an hourly slot.
type Target struct {
	Date string `json:"date"`
	Time string `json:"time,omitempty"`
}

// Surface resolves drop targets into times and applies them.
type Surface struct {
	Store  *store.Store
	Finder slot.Finder
	// Hours bounds work order placement when no time is given.
	Hours             slot.Window
	WorkOrderDuration int
	Location          *time.Location
}

// Drop schedules or reschedules the dragged item onto target.
//
// An explicit target time is used as is once it parses; otherwise a slot is
// computed. Rejections (bad time, duplicate, terminal event) come back
// with the store's error and no state change. Dropping an event back onto
// its own slot is a no-op: the result is Rejected with
// lifecycle.ErrUnchanged and the error is nil.
func (s *Surface) Drop(p Payload, target Target, actor string) (lifecycle.Result, error) {
	r, err := s.drop(p, target, actor)
	if err != nil && r.Notice.Title == "" {
		// Failed before the store could send its own notice.
		s.Store.Notify(notify.Notice{
			Title:       "Unable to Schedule",
			Description: err.Error(),
			Severity:    notify.SeverityDestructive,
			EventID:     p.EventID,
			At:          s.Store.Now(),
		})
		appLog.Warn("drop rejected", "source", p.Source, "event_id", p.EventID, "date", target.Date, "err", err)
	}
	return r, err
}

func (s *Surface) drop(p Payload, target Target, actor string) (lifecycle.Result, error) {
	loc := s.Location
	if loc == nil {
		loc = time.Local
	}
	if _, err := model.ParseDay(target.Date, loc); err != nil {
		return lifecycle.Result{}, fmt.Errorf("%w: %v", ErrBadTarget, err)
	}

	switch p.Source {
	case SourceSuggestion:
		return s.dropSuggestion(p, target, actor, loc)
	case SourceWorkOrder, SourceEvent:
		return s.dropEvent(p, target, actor, loc)
	}
	return lifecycle.Result{}, fmt.Errorf("%w: unknown source %q", ErrBadPayload, p.Source)
}

func (s *Surface) dropSuggestion(p Payload, target Target, actor string, loc *time.Location) (lifecycle.Result, error) {
	var sg model.Suggestion
	switch {
	case p.Suggestion != nil:
		sg = *p.Suggestion
		if known, ok := s.Store.Suggestion(sg.ID); ok {
			sg.State = known.State
		}
	case p.SuggestionID != "":
		known, ok := s.Store.Suggestion(p.SuggestionID)
		if !ok {
			return lifecycle.Result{}, fmt.Errorf("%w: unknown suggestion %q", ErrBadPayload, p.SuggestionID)
		}
		sg = known
	default:
		return lifecycle.Result{}, fmt.Errorf("%w: suggestion missing", ErrBadPayload)
	}

	clock := target.Time
	if clock == "" {
		start, err := s.Finder.Find(s.Store.BookingsOn(target.Date), s.lowerBound(target.Date, loc), sg.DurationMinutes)
		if err != nil {
			return lifecycle.Result{}, err
		}
		clock = slot.FormatClock(start)
	}

	appLog.Debug("drop suggestion", "suggestion_id", sg.ID, "date", target.Date, "time", clock)
	return s.Store.ScheduleSuggestion(sg, actor, target.Date, clock)
}

func (s *Surface) dropEvent(p Payload, target Target, actor string, loc *time.Location) (lifecycle.Result, error) {
	if p.EventID == "" {
		return lifecycle.Result{}, fmt.Errorf("%w: event id missing", ErrBadPayload)
	}
	ev, err := s.Store.Get(p.EventID)
	if err != nil {
		return lifecycle.Result{}, err
	}

	date, clock := target.Date, target.Time
	if clock == "" {
		date, clock, err = s.place(ev, p.Source, target.Date, loc)
		if err != nil {
			return lifecycle.Result{}, err
		}
	}

	if ev.Scheduled() && model.SameDay(ev.Date, date) {
		original := ev.Time
		if p.OriginalTime != "" {
			original = p.OriginalTime
		}
		if same(original, clock) {
			appLog.Debug("drop onto original slot ignored", "event_id", ev.ID)
			return lifecycle.Result{Outcome: lifecycle.Rejected, Event: ev, Reason: lifecycle.ErrUnchanged}, nil
		}
	}

	action := lifecycle.ActionSchedule
	if ev.Status == model.StatusScheduled || (ev.Status == model.StatusOverdue && ev.Scheduled()) {
		action = lifecycle.ActionReschedule
	}
	return s.Store.Apply(ev.ID, action, actor, lifecycle.Args{Date: date, Time: clock})
}

// place picks a time when the drop target was a whole day. Work orders
// go to the next business-hours slot and may roll to the following day.
func (s *Surface) place(ev model.Event, src Source, date string, loc *time.Location) (string, string, error) {
	if src == SourceWorkOrder || ev.Kind == model.KindWorkOrder {
		duration := ev.DurationMinutes
		if duration <= 0 {
			duration = s.WorkOrderDuration
		}
		next, err := model.AddDays(date, 1)
		if err != nil {
			return "", "", err
		}
		nowMinute := 0
		if now := s.Store.Now().In(loc); model.FormatDay(now) == date {
			nowMinute = model.MinuteOfDay(now)
		}
		pl, err := s.Hours.NextBusinessSlot(nowMinute,
			s.bookingsExcept(date, ev.ID), s.bookingsExcept(next, ev.ID), duration)
		if err != nil {
			return "", "", err
		}
		if pl.DayOffset == 1 {
			date = next
		}
		return date, slot.FormatClock(pl.Start), nil
	}

	start, err := s.Finder.Find(s.bookingsExcept(date, ev.ID), s.lowerBound(date, loc), ev.DurationMinutes)
	if err != nil {
		return "", "", err
	}
	return date, slot.FormatClock(start), nil
}

// bookingsExcept leaves the moving event out of its own conflict set.
func (s *Surface) bookingsExcept(date, id string) []slot.Interval {
	var out []slot.Interval
	for _, e := range s.Store.List(func(e model.Event) bool {
		return e.ID != id && e.Status != model.StatusCancelled && model.SameDay(e.Date, date)
	}) {
		if iv, ok := e.Interval(); ok {
			out = append(out, iv)
		}
	}
	return out
}

// NextSlot is the first free start on date for a booking of duration
// minutes, as "HH:mm". Today is searched from the current minute.
func (s *Surface) NextSlot(date string, duration int) (string, error) {
	loc := s.Location
	if loc == nil {
		loc = time.Local
	}
	if _, err := model.ParseDay(date, loc); err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadTarget, err)
	}
	start, err := s.Finder.Find(s.Store.BookingsOn(date), s.lowerBound(date, loc), duration)
	if err != nil {
		return "", err
	}
	return slot.FormatClock(start), nil
}

// RescheduleOpenings lists the weekday's offered reschedule times on date
// that are still free for a work order, as "HH:mm". Times already past
// are dropped for today.
func (s *Surface) RescheduleOpenings(date string) ([]string, error) {
	loc := s.Location
	if loc == nil {
		loc = time.Local
	}
	day, err := model.ParseDay(date, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadTarget, err)
	}
	free := slot.FreeOpenings(slot.RescheduleOpenings(day.Weekday()),
		s.Store.BookingsOn(date), s.lowerBound(date, loc), s.WorkOrderDuration)
	out := make([]string, 0, len(free))
	for _, m := range free {
		out = append(out, slot.FormatClock(m))
	}
	return out, nil
}

// lowerBound is the current minute for today and midnight for any other day.
func (s *Surface) lowerBound(date string, loc *time.Location) int {
	now := s.Store.Now().In(loc)
	if model.FormatDay(now) == date {
		return model.MinuteOfDay(now)
	}
	return 0
}

func same(a, b string) bool {
	x, err := slot.ParseClock(a)
	if err != nil {
		return false
	}
	y, err := slot.ParseClock(b)
	if err != nil {
		return false
	}
	return x == y
}
