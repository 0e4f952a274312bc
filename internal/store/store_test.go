package store

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propcal/internal/lifecycle"
	"propcal/internal/model"
	"propcal/internal/notify"
	"propcal/internal/slot"
)

var now = time.Date(2025, 6, 10, 8, 30, 0, 0, time.UTC)

func newStore(t *testing.T) (*Store, *notify.Recorder) {
	t.Helper()
	rec := notify.NewRecorder(0)
	n := 0
	s := New(
		WithNotifier(rec),
		WithClock(func() time.Time { return now }),
		WithIDs(func() string { n++; return fmt.Sprintf("id-%d", n) }),
	)
	return s, rec
}

func workOrder(id, title string) model.Event {
	return model.Event{
		ID:       id,
		Kind:     model.KindWorkOrder,
		Title:    title,
		Priority: model.PriorityMedium,
		Details:  model.DetailsFor(model.KindWorkOrder),
	}
}

func TestAddAndGet(t *testing.T) {
	s, _ := newStore(t)
	e, err := s.Add(workOrder("WO-1", "Broken outlet"))
	require.NoError(t, err)
	assert.Equal(t, model.StatusSubmitted, e.Status)
	assert.Equal(t, now, e.CreatedAt)

	got, err := s.Get("WO-1")
	require.NoError(t, err)
	assert.Equal(t, e, got)

	_, err = s.Add(workOrder("WO-1", "Other"))
	assert.ErrorIs(t, err, ErrExists)

	_, err = s.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)

	bad := workOrder("WO-2", "x")
	bad.Kind = model.KindLease
	_, err = s.Add(bad)
	assert.ErrorIs(t, err, model.ErrKindMismatch)
}

func TestReturnedEventsAreCopies(t *testing.T) {
	s, _ := newStore(t)
	_, err := s.Add(workOrder("WO-1", "Broken outlet"))
	require.NoError(t, err)

	got, _ := s.Get("WO-1")
	got.Title = "mutated"
	got.Details.WorkOrder.Vendor = "ACME"

	again, _ := s.Get("WO-1")
	assert.Equal(t, "Broken outlet", again.Title)
	assert.Empty(t, again.Details.WorkOrder.Vendor)
}

func TestScheduleSuggestion_DuplicateIsRejected(t *testing.T) {
	s, rec := newStore(t)
	sg := s.AddSuggestion(model.Suggestion{ID: "sg-1", Title: "Pest Control", Type: "Service"})

	r, err := s.ScheduleSuggestion(sg, "You", "2025-06-10", "00:00")
	require.NoError(t, err)
	assert.Equal(t, model.StatusScheduled, r.Event.Status)
	assert.Equal(t, "sg-1", r.Event.SuggestionID)
	assert.Equal(t, 1, s.Len())

	got, _ := s.Suggestion("sg-1")
	assert.Equal(t, model.SuggestionScheduled, got.State)

	_, err = s.ScheduleSuggestion(sg, "You", "2025-06-10", "12:00 AM")
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.Equal(t, 1, s.Len())

	latest := rec.Recent(1)[0]
	assert.Equal(t, "Event Already Exists", latest.Title)
	assert.Equal(t, notify.SeverityDestructive, latest.Severity)
}

func TestCompleteMarksSuggestionCompleted(t *testing.T) {
	s, _ := newStore(t)
	sg := s.AddSuggestion(model.Suggestion{ID: "sg-1", Title: "Filter swap", Type: "maintenance"})
	r, err := s.ScheduleSuggestion(sg, "You", "2025-06-10", "10:00")
	require.NoError(t, err)

	_, err = s.Complete(r.Event.ID, "You")
	require.NoError(t, err)

	assert.Empty(t, s.Suggestions(model.SuggestionPending, model.SuggestionScheduled))
	assert.Len(t, s.Suggestions(model.SuggestionCompleted), 1)
}

func TestReschedule_DuplicateAndCount(t *testing.T) {
	s, _ := newStore(t)
	for _, id := range []string{"A", "B"} {
		_, err := s.Add(workOrder(id, "Inspection"))
		require.NoError(t, err)
	}
	_, err := s.Schedule("A", "Operator", "2025-06-10", "09:00")
	require.NoError(t, err)
	_, err = s.Schedule("B", "Operator", "2025-06-10", "10:00")
	require.NoError(t, err)

	_, err = s.Reschedule("B", "Operator", "2025-06-10", "9:00 AM")
	assert.ErrorIs(t, err, ErrDuplicate)

	for i := 0; i < 3; i++ {
		_, err = s.Reschedule("B", "Operator", "2025-06-11", fmt.Sprintf("1%d:00", i))
		require.NoError(t, err)
	}
	b, _ := s.Get("B")
	assert.Equal(t, 3, b.RescheduledCount)
	assert.Len(t, b.Timeline, 4)
}

func TestTerminalEventsAreImmutable(t *testing.T) {
	s, _ := newStore(t)
	_, err := s.Add(workOrder("A", "Inspection"))
	require.NoError(t, err)
	_, err = s.Cancel("A", "Operator", "")
	require.NoError(t, err)
	before, _ := s.Get("A")

	_, err = s.Escalate("A", "Operator")
	assert.ErrorIs(t, err, lifecycle.ErrTerminal)
	_, err = s.Schedule("A", "Operator", "2025-06-10", "09:00")
	assert.ErrorIs(t, err, lifecycle.ErrTerminal)

	after, _ := s.Get("A")
	assert.Equal(t, before, after)
}

func TestBookingsOn(t *testing.T) {
	s, _ := newStore(t)
	for i, clock := range []string{"09:00", "10:00", "13:00"} {
		e := workOrder(fmt.Sprint(i), fmt.Sprintf("job %d", i))
		e.Status, e.Date, e.Time = model.StatusScheduled, "2025-06-10", clock
		_, err := s.Add(e)
		require.NoError(t, err)
	}
	_, err := s.Cancel("2", "Operator", "")
	require.NoError(t, err)

	got := s.BookingsOn("2025-06-10")
	assert.ElementsMatch(t, []slot.Interval{{Start: 540, End: 600}, {Start: 600, End: 660}}, got)
	assert.Empty(t, s.BookingsOn("2025-06-11"))
}

func TestSweepOverdue(t *testing.T) {
	s, _ := newStore(t)
	past := workOrder("past", "Past due")
	past.DueDate = "2025-06-09"
	today := workOrder("today", "Due today")
	today.DueDate = "2025-06-10"
	done := workOrder("done", "Done already")
	done.DueDate = "2025-06-01"
	done.Status = model.StatusCompleted
	for _, e := range []model.Event{past, today, done} {
		_, err := s.Add(e)
		require.NoError(t, err)
	}

	results := s.SweepOverdue(now)
	require.Len(t, results, 1)
	assert.Equal(t, "past", results[0].Event.ID)

	got, _ := s.Get("past")
	assert.Equal(t, model.StatusOverdue, got.Status)
	assert.Empty(t, s.SweepOverdue(now))
}

func TestReplaceKind(t *testing.T) {
	s, _ := newStore(t)
	_, err := s.Add(workOrder("WO-1", "Keep me"))
	require.NoError(t, err)

	community := func(id, title string) model.Event {
		return model.Event{
			ID: id, Kind: model.KindCommunity, Title: title, Priority: model.PriorityLow,
			Status: model.StatusScheduled, Date: "2025-06-11", Time: "14:00",
			Details: model.DetailsFor(model.KindCommunity),
		}
	}
	require.NoError(t, s.ReplaceKind(model.KindCommunity, []model.Event{community("c1", "BBQ"), community("c2", "Yoga")}))
	require.NoError(t, s.ReplaceKind(model.KindCommunity, []model.Event{community("c3", "Movie night")}))

	ids := []string{}
	for _, e := range s.List(nil) {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"WO-1", "c3"}, ids)

	err = s.ReplaceKind(model.KindCommunity, []model.Event{workOrder("x", "wrong")})
	assert.ErrorIs(t, err, model.ErrKindMismatch)
}

func TestSubscribe(t *testing.T) {
	s, _ := newStore(t)
	var got []Change
	unsubscribe := s.Subscribe(func(c Change) { got = append(got, c) })

	_, err := s.Add(workOrder("A", "Inspection"))
	require.NoError(t, err)
	_, err = s.Escalate("A", "Operator")
	require.NoError(t, err)
	_, _ = s.Escalate("A", "Operator") // rejected, no change

	require.Len(t, got, 2)
	assert.Nil(t, got[0].Before)
	assert.Equal(t, lifecycle.ActionEscalate, got[1].Action)
	assert.Equal(t, model.PriorityMedium, got[1].Before.Priority)
	assert.Equal(t, model.PriorityUrgent, got[1].After.Priority)

	unsubscribe()
	_, err = s.Nudge("A", "Operator", "")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestConcurrentNudges(t *testing.T) {
	s := New()
	_, err := s.Add(workOrder("A", "Inspection"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Nudge("A", "Operator", "")
		}()
	}
	wg.Wait()

	got, _ := s.Get("A")
	assert.Len(t, got.Timeline, 50)
}

func TestTaskChecklist(t *testing.T) {
	clock := now
	rec := notify.NewRecorder(0)
	s := New(WithNotifier(rec), WithClock(func() time.Time { return clock }))
	turn := model.Event{
		ID:       "UT-612",
		Kind:     model.KindUnitTurn,
		Title:    "Unit Turn - 612",
		Priority: model.PriorityHigh,
		Details: model.Details{UnitTurn: &model.UnitTurnDetails{Tasks: []model.Task{
			{ID: "paint", Title: "Paint touch-up"},
			{ID: "inspect", Title: "Final inspection"},
		}}},
	}
	_, err := s.Add(turn)
	require.NoError(t, err)

	_, err = s.CompleteTask("UT-612", "Maintenance", "paint")
	require.NoError(t, err)
	_, err = s.CompleteTask("UT-612", "Maintenance", "inspect")
	require.NoError(t, err)

	clock = now.Add(15 * time.Hour) // 23:30 the same day
	_, err = s.UndoTask("UT-612", "Maintenance", "paint")
	require.NoError(t, err)

	clock = now.Add(16 * time.Hour) // past midnight
	_, err = s.UndoTask("UT-612", "Maintenance", "inspect")
	assert.ErrorIs(t, err, lifecycle.ErrUndoExpired)

	got, err := s.Get("UT-612")
	require.NoError(t, err)
	tasks := got.Details.UnitTurn.Tasks
	assert.False(t, tasks[0].Complete)
	assert.True(t, tasks[1].Complete)
	assert.Equal(t, "Maintenance", tasks[1].CompletedBy)
	assert.Equal(t, model.StatusSubmitted, got.Status)
	assert.Equal(t, model.EntryTaskUndone, got.Timeline[0].Type)

	assert.Equal(t, "Cannot Undo", rec.Recent(1)[0].Title)

	_, err = s.CompleteTask("UT-612", "Maintenance", "roof")
	assert.ErrorIs(t, err, lifecycle.ErrTaskNotFound)
}

func TestAddSetsExpectedReply(t *testing.T) {
	s, _ := newStore(t)
	e, err := s.Add(model.Event{
		ID: "MSG-1", Kind: model.KindMessage, Title: "Lease question",
		Details: model.Details{Message: &model.MessageDetails{From: "Resident", RecipientType: model.RecipientLeasing}},
	})
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), e.Details.Message.ExpectedReply)

	got, err := s.Get("MSG-1")
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), got.Details.Message.ExpectedReply)
}
