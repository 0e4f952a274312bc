package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propcal/internal/model"
)

func ev(id string, st model.Status, pr model.Priority, date, clock string) model.Event {
	return model.Event{
		ID: id, Kind: model.KindWorkOrder, Title: id, Status: st, Priority: pr,
		Date: date, Time: clock, Details: model.DetailsFor(model.KindWorkOrder),
	}
}

func ids(events []model.Event) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.ID)
	}
	return out
}

func TestBucket(t *testing.T) {
	done1 := ev("done1", model.StatusCompleted, model.PriorityLow, "2025-06-10", "08:00")
	done1.UpdatedAt = time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	done2 := ev("done2", model.StatusCompleted, model.PriorityLow, "2025-06-09", "08:00")
	done2.UpdatedAt = time.Date(2025, 6, 10, 11, 0, 0, 0, time.UTC)

	events := []model.Event{
		ev("late", model.StatusScheduled, model.PriorityLow, "2025-06-10", "15:00"),
		ev("early", model.StatusInProgress, model.PriorityLow, "2025-06-10", "9:00 AM"),
		ev("new", model.StatusSubmitted, model.PriorityHigh, "", ""),
		ev("overdue", model.StatusOverdue, model.PriorityHigh, "2025-06-08", "10:00"),
		ev("future", model.StatusScheduled, model.PriorityHigh, "2025-06-12", "10:00"),
		ev("gone", model.StatusCancelled, model.PriorityHigh, "2025-06-10", "10:00"),
		done1, done2,
	}

	b := Bucket(events, "2025-06-10")
	assert.Equal(t, []string{"early", "late"}, ids(b.Today))
	assert.Equal(t, []string{"new", "overdue"}, ids(b.Queue))
	assert.Equal(t, []string{"done2", "done1"}, ids(b.Completed))
}

func TestCount(t *testing.T) {
	c := Count([]model.Event{
		ev("a", model.StatusSubmitted, model.PriorityUrgent, "", ""),
		ev("b", model.StatusSubmitted, model.PriorityLow, "", ""),
		ev("c", model.StatusScheduled, model.PriorityLow, "2025-06-10", "09:00"),
		ev("d", model.StatusOverdue, model.PriorityLow, "", ""),
		ev("e", model.StatusCancelled, model.PriorityUrgent, "", ""),
	})
	assert.Equal(t, Counts{Unscheduled: 2, Scheduled: 1, Overdue: 1, Cancelled: 1, Urgent: 1}, c)
}

func TestQueue_FilterAndOrder(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	opened := func(e model.Event, days int) model.Event {
		e.CreatedAt = now.AddDate(0, 0, -days)
		return e
	}
	msg := ev("msg", model.StatusSubmitted, model.PriorityUrgent, "", "")
	msg.Kind = model.KindMessage

	events := []model.Event{
		opened(ev("med-old", model.StatusSubmitted, model.PriorityMedium, "", ""), 9),
		opened(ev("urgent-new", model.StatusScheduled, model.PriorityUrgent, "2025-06-11", "09:00"), 1),
		opened(ev("high", model.StatusOverdue, model.PriorityHigh, "", ""), 3),
		opened(ev("urgent-old", model.StatusSubmitted, model.PriorityUrgent, "", ""), 5),
		opened(ev("med-new", model.StatusSubmitted, model.PriorityMedium, "", ""), 2),
		opened(ev("done", model.StatusCompleted, model.PriorityUrgent, "", ""), 20),
		msg,
	}

	assert.Equal(t, []string{"urgent-old", "urgent-new", "high", "med-old", "med-new"}, ids(Queue(events, "all", now)))
	assert.Equal(t, []string{"urgent-old", "med-old", "med-new"}, ids(Queue(events, "unscheduled", now)))
	assert.Equal(t, []string{"urgent-old", "urgent-new"}, ids(Queue(events, "URGENT", now)))
	assert.Equal(t, []string{"high"}, ids(Queue(events, "overdue", now)))
	assert.Empty(t, Queue(events, "bogus", now))
}

func TestRangeAndTitle(t *testing.T) {
	anchor := time.Date(2025, 6, 11, 15, 0, 0, 0, time.UTC) // Wednesday

	from, to := Range(anchor, SpanWeek, time.Sunday)
	assert.Equal(t, "2025-06-08", model.FormatDay(from))
	assert.Equal(t, "2025-06-14", model.FormatDay(to))

	from, to = Range(anchor, SpanWeek, time.Monday)
	assert.Equal(t, "2025-06-09", model.FormatDay(from))
	assert.Equal(t, "2025-06-15", model.FormatDay(to))

	from, to = Range(anchor, SpanThreeDay, time.Sunday)
	assert.Equal(t, "2025-06-11", model.FormatDay(from))
	assert.Equal(t, "2025-06-13", model.FormatDay(to))

	from, to = Range(time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), SpanMonth, time.Sunday)
	assert.Equal(t, "2024-02-01", model.FormatDay(from))
	assert.Equal(t, "2024-02-29", model.FormatDay(to))

	assert.Equal(t, "Jun 8 - Jun 14, 2025", Title(anchor, SpanWeek, time.Sunday))
	assert.Equal(t, "June 2025", Title(anchor, SpanMonth, time.Sunday))
	assert.Equal(t, "Wednesday, June 11, 2025", Title(anchor, SpanDay, time.Sunday))

	assert.Equal(t, 14, Navigate(anchor, SpanThreeDay, 1).Day())
	assert.Equal(t, 4, Navigate(anchor, SpanWeek, -1).Day())
	assert.Equal(t, time.July, Navigate(anchor, SpanMonth, 1).Month())

	_, err := ParseSpan("year")
	assert.Error(t, err)
}

func TestWindowSkipsBadDates(t *testing.T) {
	anchor := time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC)
	events := []model.Event{
		ev("b", model.StatusScheduled, model.PriorityLow, "2025-06-12", "09:00"),
		ev("a", model.StatusScheduled, model.PriorityLow, "2025-06-11", "13:00"),
		ev("bad", model.StatusScheduled, model.PriorityLow, "11/06/2025", "09:00"),
		ev("out", model.StatusScheduled, model.PriorityLow, "2025-06-20", "09:00"),
	}
	assert.Equal(t, []string{"a", "b"}, ids(Window(events, anchor, SpanThreeDay, time.Sunday)))
}

func TestDayGrid(t *testing.T) {
	grid := DayGrid([]model.Event{
		ev("a", model.StatusScheduled, model.PriorityLow, "2025-06-10", "09:45"),
		ev("b", model.StatusScheduled, model.PriorityLow, "2025-06-11", "09:45"),
	}, "2025-06-10")

	require.Len(t, grid, 48)
	assert.Equal(t, "12:00 AM", grid[0].Label)
	assert.Equal(t, "23:30", grid[47].Time)
	assert.Equal(t, []string{"a"}, ids(grid[19].Events))
}
