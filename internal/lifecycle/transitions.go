package lifecycle

import (
	"fmt"

	"propcal/internal/model"
	"propcal/internal/notify"
)

// Schedule places a submitted or overdue event at date and clock.
func Schedule(e model.Event, st Stamp, date, clock string) Result {
	const title = "Unable to Schedule"
	if r, ok := guard(e, st, title, model.StatusSubmitted, model.StatusOverdue); !ok {
		return r
	}
	date, clock, err := placement(date, clock)
	if err != nil {
		return reject(e, st, err, title)
	}

	next := e.Clone()
	next.Date, next.Time = date, clock
	next.Status = model.StatusScheduled

	msg := fmt.Sprintf("Scheduled for %s at %s", humanDay(date), clock)
	return accept(next, st, st.entry(model.EntryScheduled, msg),
		"Task Scheduled!",
		fmt.Sprintf("%s scheduled at %s on %s", e.Title, clock, humanDay(date)),
		notify.SeverityDefault)
}

// Reschedule moves a scheduled or overdue event and bumps its
// RescheduledCount. Moving onto the current slot is rejected with
// ErrUnchanged.
func Reschedule(e model.Event, st Stamp, date, clock string) Result {
	const title = "Unable to Reschedule"
	if r, ok := guard(e, st, title, model.StatusScheduled, model.StatusOverdue); !ok {
		return r
	}
	date, clock, err := placement(date, clock)
	if err != nil {
		return reject(e, st, err, title)
	}
	if model.SameDay(e.Date, date) && e.Time == clock {
		return reject(e, st, ErrUnchanged, title)
	}

	next := e.Clone()
	next.Date, next.Time = date, clock
	next.Status = model.StatusScheduled
	next.RescheduledCount++

	msg := fmt.Sprintf("Rescheduled to %s at %s", humanDay(date), clock)
	return accept(next, st, st.entry(model.EntryReschedule, msg),
		"Event Rescheduled",
		fmt.Sprintf("%s moved to %s", e.Title, clock),
		notify.SeverityDefault)
}

// MarkOverdue flags a submitted or scheduled event whose due date passed.
func MarkOverdue(e model.Event, st Stamp) Result {
	if r, ok := guard(e, st, "Unable to Mark Overdue", model.StatusSubmitted, model.StatusScheduled); !ok {
		return r
	}
	next := e.Clone()
	next.Status = model.StatusOverdue
	return accept(next, st, st.entry(model.EntryOverdue, "Past due date"),
		"Work Order Overdue",
		fmt.Sprintf("%s is past its due date", e.Title),
		notify.SeverityDestructive)
}

// Start moves a scheduled or overdue event to in-progress.
func Start(e model.Event, st Stamp) Result {
	if r, ok := guard(e, st, "Unable to Start", model.StatusScheduled, model.StatusOverdue); !ok {
		return r
	}
	next := e.Clone()
	next.Status = model.StatusInProgress
	return accept(next, st, st.entry(model.EntryStarted, "Work started"),
		"Work Started",
		fmt.Sprintf("%s is in progress", e.Title),
		notify.SeverityDefault)
}

// Complete finishes a scheduled or in-progress event.
func Complete(e model.Event, st Stamp) Result {
	if r, ok := guard(e, st, "Unable to Complete", model.StatusScheduled, model.StatusInProgress); !ok {
		return r
	}
	next := e.Clone()
	next.Status = model.StatusCompleted
	return accept(next, st, st.entry(model.EntryCompleted, "Marked as completed"),
		"Task Completed!",
		fmt.Sprintf("%s has been marked as completed", e.Title),
		notify.SeverityDefault)
}

// Cancel ends any non-terminal event. reason is optional.
func Cancel(e model.Event, st Stamp, reason string) Result {
	if r, ok := guard(e, st, "Unable to Cancel"); !ok {
		return r
	}
	next := e.Clone()
	next.Status = model.StatusCancelled

	msg := kindLabel(e.Kind) + " cancelled"
	if reason != "" {
		msg += ": " + reason
	}
	return accept(next, st, st.entry(model.EntryCancelled, msg),
		kindLabel(e.Kind)+" Cancelled",
		fmt.Sprintf("%s has been cancelled", e.Title),
		notify.SeverityDefault)
}

// Escalate raises priority to urgent. Status is left unchanged. An event
// that is already urgent is rejected with ErrAlreadyUrgent and gets no
// new timeline entry.
func Escalate(e model.Event, st Stamp) Result {
	const title = "Already Urgent"
	if r, ok := guard(e, st, "Unable to Escalate"); !ok {
		return r
	}
	if e.Priority == model.PriorityUrgent {
		r := reject(e, st, ErrAlreadyUrgent, title)
		r.Notice.Description = fmt.Sprintf("%s is already marked as urgent", e.Title)
		r.Notice.Severity = notify.SeverityDefault
		return r
	}
	next := e.Clone()
	next.Priority = model.PriorityUrgent
	return accept(next, st,
		st.entry(model.EntryUrgent, kindLabel(e.Kind)+" escalated to URGENT priority"),
		"Marked as Urgent",
		fmt.Sprintf("%s has been escalated to urgent priority", e.Title),
		notify.SeverityDestructive)
}

// Nudge records a reminder to the assigned team. Only the timeline changes.
func Nudge(e model.Event, st Stamp, message string) Result {
	if r, ok := guard(e, st, "Unable to Send Nudge"); !ok {
		return r
	}
	if message == "" {
		message = "Gentle reminder sent to maintenance team"
	}
	return accept(e.Clone(), st, st.entry(model.EntryNudge, message),
		"Nudge Sent",
		"A gentle reminder has been sent to the maintenance team",
		notify.SeverityDefault)
}

func kindLabel(k model.Kind) string {
	switch k {
	case model.KindWorkOrder:
		return "Work order"
	case model.KindMessage:
		return "Message"
	case model.KindLease:
		return "Lease"
	case model.KindCommunity:
		return "Community event"
	case model.KindUnitTurn:
		return "Unit turn"
	case model.KindService:
		return "Service"
	}
	return "Event"
}
