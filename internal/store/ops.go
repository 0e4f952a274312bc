package store

import (
	"errors"
	"fmt"
	"time"

	"propcal/internal/lifecycle"
	appLog "propcal/internal/log"
	"propcal/internal/model"
	"propcal/internal/notify"
	"propcal/internal/slot"
)

// Apply runs a transition on the stored event id and stores the result.
//
// A rejected transition leaves the store unchanged, sends a notice and is
// returned together with its reason as the error. ErrNotFound is returned
// without a Result.
func (s *Store) Apply(id string, action lifecycle.Action, actor string, args lifecycle.Args) (lifecycle.Result, error) {
	st := s.stamp(actor)

	s.mu.Lock()
	cur, ok := s.events[id]
	if !ok {
		s.mu.Unlock()
		return lifecycle.Result{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if r, dup := s.checkPlacementLocked(cur, action, args, st); dup {
		s.mu.Unlock()
		return s.finish(action, r, nil)
	}

	r := lifecycle.Apply(cur, action, st, args)
	var change *Change
	if r.Accepted() {
		s.events[id] = r.Event
		if r.Event.Status == model.StatusCompleted {
			s.setSuggestionStateLocked(r.Event.SuggestionID, model.SuggestionCompleted)
		}
		before := cur.Clone()
		change = &Change{Action: action, Before: &before, After: r.Event.Clone()}
	}
	s.mu.Unlock()

	return s.finish(action, r, change)
}

// checkPlacementLocked enforces the (date, time, title) uniqueness for
// transitions that place an event.
func (s *Store) checkPlacementLocked(cur model.Event, action lifecycle.Action, args lifecycle.Args, st lifecycle.Stamp) (lifecycle.Result, bool) {
	if action != lifecycle.ActionSchedule && action != lifecycle.ActionReschedule {
		return lifecycle.Result{}, false
	}
	clock, err := slot.NormalizeClock(args.Time)
	if err != nil {
		// The transition rejects malformed times itself.
		return lifecycle.Result{}, false
	}
	key := model.DuplicateKey{Date: args.Date, Time: clock, Title: cur.Title}
	if _, dup := s.findDuplicateLocked(key, cur.ID); !dup {
		return lifecycle.Result{}, false
	}
	return duplicateResult(cur, key, st), true
}

func duplicateResult(e model.Event, key model.DuplicateKey, st lifecycle.Stamp) lifecycle.Result {
	return lifecycle.Result{
		Outcome: lifecycle.Rejected,
		Event:   e,
		Reason:  fmt.Errorf("%w: %q at %s %s", ErrDuplicate, key.Title, key.Date, key.Time),
		Notice: notify.Notice{
			Title:       "Event Already Exists",
			Description: fmt.Sprintf("%s is already scheduled at %s", key.Title, key.Time),
			Severity:    notify.SeverityDestructive,
			EventID:     e.ID,
			At:          st.At,
		},
	}
}

func invalidResult(e model.Event, err error, st lifecycle.Stamp) lifecycle.Result {
	return lifecycle.Result{
		Outcome: lifecycle.Rejected,
		Event:   e,
		Reason:  fmt.Errorf("%w: %w", ErrInvalidEvent, err),
		Notice: notify.Notice{
			Title:       "Unable to Schedule",
			Description: err.Error(),
			Severity:    notify.SeverityDestructive,
			EventID:     e.ID,
			At:          st.At,
		},
	}
}

func (s *Store) finish(action lifecycle.Action, r lifecycle.Result, change *Change) (lifecycle.Result, error) {
	s.notifier.Notify(r.Notice)
	if !r.Accepted() {
		appLog.Warn("transition rejected", "event_id", r.Event.ID, "action", action, "reason", r.Reason)
		return r, r.Reason
	}
	appLog.Info("transition accepted", "event_id", r.Event.ID, "action", action,
		"status", r.Event.Status, "priority", r.Event.Priority)
	if change != nil {
		s.publish(*change)
	}
	return r, nil
}

func (s *Store) stamp(actor string) lifecycle.Stamp {
	return lifecycle.Stamp{Actor: actor, At: s.now(), EntryID: s.newID()}
}

func (s *Store) Schedule(id, actor, date, clock string) (lifecycle.Result, error) {
	return s.Apply(id, lifecycle.ActionSchedule, actor, lifecycle.Args{Date: date, Time: clock})
}

func (s *Store) Reschedule(id, actor, date, clock string) (lifecycle.Result, error) {
	return s.Apply(id, lifecycle.ActionReschedule, actor, lifecycle.Args{Date: date, Time: clock})
}

func (s *Store) Escalate(id, actor string) (lifecycle.Result, error) {
	return s.Apply(id, lifecycle.ActionEscalate, actor, lifecycle.Args{})
}

func (s *Store) Cancel(id, actor, reason string) (lifecycle.Result, error) {
	return s.Apply(id, lifecycle.ActionCancel, actor, lifecycle.Args{Message: reason})
}

func (s *Store) Complete(id, actor string) (lifecycle.Result, error) {
	return s.Apply(id, lifecycle.ActionComplete, actor, lifecycle.Args{})
}

func (s *Store) Start(id, actor string) (lifecycle.Result, error) {
	return s.Apply(id, lifecycle.ActionStart, actor, lifecycle.Args{})
}

func (s *Store) Nudge(id, actor, message string) (lifecycle.Result, error) {
	return s.Apply(id, lifecycle.ActionNudge, actor, lifecycle.Args{Message: message})
}

func (s *Store) CompleteTask(id, actor, taskID string) (lifecycle.Result, error) {
	return s.Apply(id, lifecycle.ActionCompleteTask, actor, lifecycle.Args{Task: taskID})
}

// UndoTask reopens a checklist task; only allowed on the day it was
// completed, in the store clock's location.
func (s *Store) UndoTask(id, actor, taskID string) (lifecycle.Result, error) {
	return s.Apply(id, lifecycle.ActionUndoTask, actor, lifecycle.Args{Task: taskID})
}

// ScheduleSuggestion turns a suggestion card into a scheduled event at
// (date, clock). A second drop of the same card onto the same slot is
// rejected with ErrDuplicate and changes nothing.
func (s *Store) ScheduleSuggestion(sg model.Suggestion, actor, date, clock string) (lifecycle.Result, error) {
	st := s.stamp(actor)
	ev := sg.ToEvent(s.newID())
	ev.CreatedAt = st.At

	r := lifecycle.Schedule(ev, st, date, clock)
	if !r.Accepted() {
		return s.finish(lifecycle.ActionSchedule, r, nil)
	}
	if err := r.Event.Validate(); err != nil {
		return s.finish(lifecycle.ActionSchedule, invalidResult(ev, err, st), nil)
	}

	s.mu.Lock()
	if _, dup := s.findDuplicateLocked(r.Event.Key(), ""); dup {
		s.mu.Unlock()
		return s.finish(lifecycle.ActionSchedule, duplicateResult(ev, r.Event.Key(), st), nil)
	}
	s.events[r.Event.ID] = r.Event
	s.order = append(s.order, r.Event.ID)
	s.setSuggestionStateLocked(sg.ID, model.SuggestionScheduled)
	s.mu.Unlock()

	return s.finish(lifecycle.ActionSchedule, r, &Change{Action: lifecycle.ActionSchedule, After: r.Event.Clone()})
}

// SweepOverdue marks every submitted or scheduled event whose due date is
// before the day of now as overdue. It returns the accepted results.
func (s *Store) SweepOverdue(now time.Time) []lifecycle.Result {
	today := model.FormatDay(now)

	var ids []string
	s.mu.RLock()
	for _, id := range s.order {
		e := s.events[id]
		if e.DueDate == "" || (e.Status != model.StatusSubmitted && e.Status != model.StatusScheduled) {
			continue
		}
		due, err := model.ParseDay(e.DueDate, now.Location())
		if err != nil {
			appLog.Warn("skipping unparseable due date", "event_id", id, "due_date", e.DueDate)
			continue
		}
		if model.FormatDay(due) < today {
			ids = append(ids, id)
		}
	}
	s.mu.RUnlock()

	var out []lifecycle.Result
	for _, id := range ids {
		r, err := s.Apply(id, lifecycle.ActionOverdue, "System", lifecycle.Args{})
		if err != nil {
			// Changed concurrently; the next sweep will see the new state.
			if !errors.Is(err, lifecycle.ErrInvalidTransition) && !errors.Is(err, lifecycle.ErrTerminal) {
				appLog.Error("overdue sweep failed", err, "event_id", id)
			}
			continue
		}
		out = append(out, r)
	}
	if len(out) > 0 {
		appLog.Info("overdue sweep", "marked", len(out))
	}
	return out
}
