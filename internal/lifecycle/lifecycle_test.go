package lifecycle

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propcal/internal/model"
	"propcal/internal/notify"
)

var at = time.Date(2025, 6, 10, 14, 5, 0, 0, time.UTC)

func stamp(id string) Stamp {
	return Stamp{Actor: "Operator", At: at, EntryID: id}
}

func submitted() model.Event {
	return model.Event{
		ID:       "WO-7",
		Kind:     model.KindWorkOrder,
		Title:    "Leaky faucet",
		Priority: model.PriorityMedium,
		Status:   model.StatusSubmitted,
		Details:  model.Details{WorkOrder: &model.WorkOrderDetails{}},
	}
}

func scheduled(t *testing.T) model.Event {
	t.Helper()
	r := Schedule(submitted(), stamp("s"), "2025-06-10", "9:00 AM")
	require.True(t, r.Accepted(), r.Reason)
	return r.Event
}

func TestSchedule(t *testing.T) {
	in := submitted()
	r := Schedule(in, stamp("e1"), "2025-06-10", "9:00 AM")

	require.True(t, r.Accepted())
	assert.Equal(t, model.StatusScheduled, r.Event.Status)
	assert.Equal(t, "2025-06-10", r.Event.Date)
	assert.Equal(t, "09:00", r.Event.Time)
	assert.Equal(t, "e1", r.Entry.ID)
	assert.Equal(t, model.EntryScheduled, r.Entry.Type)
	assert.Equal(t, "14:05", r.Entry.Time)
	assert.Equal(t, "Operator", r.Entry.Actor)
	assert.Equal(t, r.Entry, r.Event.Timeline[0])
	assert.Equal(t, notify.SeverityDefault, r.Notice.Severity)
	assert.Equal(t, at, r.Event.UpdatedAt)

	// input untouched
	assert.Equal(t, model.StatusSubmitted, in.Status)
	assert.Empty(t, in.Timeline)
}

func TestSchedule_RejectsBadInput(t *testing.T) {
	r := Schedule(submitted(), stamp("x"), "2025-06-10", "noon")
	assert.False(t, r.Accepted())
	assert.Equal(t, notify.SeverityDestructive, r.Notice.Severity)
	assert.Empty(t, r.Event.Timeline)

	r = Schedule(submitted(), stamp("x"), "tomorrow", "09:00")
	assert.False(t, r.Accepted())

	ev := submitted()
	ev.Status = model.StatusInProgress
	r = Schedule(ev, stamp("x"), "2025-06-10", "09:00")
	assert.ErrorIs(t, r.Reason, ErrInvalidTransition)
}

func TestReschedule_CountIsMonotonic(t *testing.T) {
	ev := scheduled(t)
	ev.RescheduledCount = 2

	for i := 1; i <= 5; i++ {
		r := Reschedule(ev, stamp(fmt.Sprint(i)), "2025-06-11", fmt.Sprintf("%02d:00", 8+i))
		require.True(t, r.Accepted(), r.Reason)
		assert.Equal(t, 2+i, r.Event.RescheduledCount)
		ev = r.Event
	}
	assert.Equal(t, "13:00", ev.Time)
}

func TestReschedule_SameSlotIsNoop(t *testing.T) {
	ev := scheduled(t)
	r := Reschedule(ev, stamp("x"), "2025-06-10", "09:00")

	assert.False(t, r.Accepted())
	assert.ErrorIs(t, r.Reason, ErrUnchanged)
	assert.Equal(t, ev, r.Event)
}

func TestTerminalInvariant(t *testing.T) {
	done := Complete(scheduled(t), stamp("c")).Event
	require.Equal(t, model.StatusCompleted, done.Status)
	cancelled := Cancel(submitted(), stamp("c"), "resident moved out").Event
	require.Equal(t, model.StatusCancelled, cancelled.Status)
	assert.Contains(t, cancelled.Timeline[0].Message, "resident moved out")

	actions := []Action{ActionSchedule, ActionReschedule, ActionOverdue, ActionStart,
		ActionComplete, ActionCancel, ActionEscalate, ActionNudge}

	for _, ev := range []model.Event{done, cancelled} {
		for _, a := range actions {
			r := Apply(ev, a, stamp("late"), Args{Date: "2025-07-01", Time: "10:00"})
			assert.False(t, r.Accepted(), "%s on %s", a, ev.Status)
			assert.ErrorIs(t, r.Reason, ErrTerminal)
			assert.Equal(t, ev, r.Event)
		}
	}
}

func TestEscalate(t *testing.T) {
	ev := scheduled(t)
	r := Escalate(ev, stamp("u1"))
	require.True(t, r.Accepted())
	assert.Equal(t, model.PriorityUrgent, r.Event.Priority)
	assert.Equal(t, model.StatusScheduled, r.Event.Status)
	assert.Equal(t, model.EntryUrgent, r.Entry.Type)

	again := Escalate(r.Event, stamp("u2"))
	assert.False(t, again.Accepted())
	assert.ErrorIs(t, again.Reason, ErrAlreadyUrgent)
	assert.Contains(t, again.Notice.Description, "already marked as urgent")
	assert.Len(t, again.Event.Timeline, len(r.Event.Timeline))
}

func TestTimelineIsNewestFirst(t *testing.T) {
	ev := scheduled(t)
	steps := []func(model.Event, Stamp) Result{
		func(e model.Event, s Stamp) Result { return Nudge(e, s, "") },
		Escalate,
		func(e model.Event, s Stamp) Result { return Reschedule(e, s, "2025-06-12", "10:00") },
		Start,
		func(e model.Event, s Stamp) Result { return Nudge(e, s, "Any update?") },
		Complete,
	}
	for i, step := range steps {
		r := step(ev, stamp(fmt.Sprintf("k%d", i)))
		require.True(t, r.Accepted(), "step %d: %v", i, r.Reason)
		ev = r.Event
	}

	require.Len(t, ev.Timeline, len(steps)+1)
	for i := range steps {
		assert.Equal(t, fmt.Sprintf("k%d", len(steps)-1-i), ev.Timeline[i].ID)
	}
	assert.Equal(t, "Any update?", ev.Timeline[1].Message)
}

func TestStatusGraph(t *testing.T) {
	tests := []struct {
		from   model.Status
		action Action
		ok     bool
		to     model.Status
	}{
		{model.StatusSubmitted, ActionOverdue, true, model.StatusOverdue},
		{model.StatusScheduled, ActionOverdue, true, model.StatusOverdue},
		{model.StatusOverdue, ActionSchedule, true, model.StatusScheduled},
		{model.StatusOverdue, ActionStart, true, model.StatusInProgress},
		{model.StatusSubmitted, ActionStart, false, model.StatusSubmitted},
		{model.StatusSubmitted, ActionComplete, false, model.StatusSubmitted},
		{model.StatusInProgress, ActionComplete, true, model.StatusCompleted},
		{model.StatusInProgress, ActionCancel, true, model.StatusCancelled},
		{model.StatusInProgress, ActionOverdue, false, model.StatusInProgress},
		{model.StatusSubmitted, ActionReschedule, false, model.StatusSubmitted},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s_%s", tt.from, tt.action), func(t *testing.T) {
			ev := submitted()
			ev.Status = tt.from
			ev.Date, ev.Time = "2025-06-09", "08:00"

			r := Apply(ev, tt.action, stamp("x"), Args{Date: "2025-06-10", Time: "09:00"})
			assert.Equal(t, tt.ok, r.Accepted(), r.Reason)
			assert.Equal(t, tt.to, r.Event.Status)
			if !tt.ok {
				assert.ErrorIs(t, r.Reason, ErrInvalidTransition)
			}
		})
	}
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction("Urgent")
	require.NoError(t, err)
	assert.Equal(t, ActionEscalate, a)

	_, err = ParseAction("delete")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}
