package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func workOrder() Event {
	return Event{
		ID:       "WO-1",
		Kind:     KindWorkOrder,
		Title:    "Broken outlet",
		Priority: PriorityHigh,
		Status:   StatusScheduled,
		Date:     "2025-06-10",
		Time:     "09:00",
		Details:  Details{WorkOrder: &WorkOrderDetails{PermissionToEnter: true}},
		Timeline: Timeline{{ID: "t1", Type: EntryCreated, Message: "Work order submitted"}},
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, workOrder().Validate())

	e := workOrder()
	e.Details = Details{Message: &MessageDetails{}}
	assert.ErrorIs(t, e.Validate(), ErrKindMismatch)

	e = workOrder()
	e.Details.Lease = &LeaseDetails{}
	assert.ErrorIs(t, e.Validate(), ErrKindMismatch)

	e = workOrder()
	e.Title = "  "
	assert.ErrorIs(t, e.Validate(), ErrMissingTitle)

	e = workOrder()
	e.Priority = "critical"
	assert.ErrorIs(t, e.Validate(), ErrUnknownPriority)

	e = workOrder()
	e.Time = "25:00"
	assert.Error(t, e.Validate())

	e = workOrder()
	e.Date = "06/10/2025"
	assert.Error(t, e.Validate())
}

func TestClone_IsDeep(t *testing.T) {
	orig := workOrder()
	cp := orig.Clone()

	cp.Details.WorkOrder.PermissionToEnter = false
	cp.Timeline[0].Message = "changed"

	assert.True(t, orig.Details.WorkOrder.PermissionToEnter)
	assert.Equal(t, "Work order submitted", orig.Timeline[0].Message)
}

func TestTimelinePrepend(t *testing.T) {
	base := Timeline{{ID: "a"}}
	next := base.Prepend(TimelineEntry{ID: "b"})

	require.Len(t, next, 2)
	assert.Equal(t, "b", next[0].ID)
	assert.Equal(t, "a", next[1].ID)
	assert.Len(t, base, 1)

	latest, ok := next.Latest()
	assert.True(t, ok)
	assert.Equal(t, "b", latest.ID)

	_, ok = Timeline(nil).Latest()
	assert.False(t, ok)
}

func TestParseLegacy(t *testing.T) {
	st, pr, err := ParseLegacy("urgent", "low", false)
	require.NoError(t, err)
	assert.Equal(t, StatusSubmitted, st)
	assert.Equal(t, PriorityUrgent, pr)

	st, pr, err = ParseLegacy("urgent", "", true)
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, st)
	assert.Equal(t, PriorityUrgent, pr)

	st, pr, err = ParseLegacy("unscheduled", "HIGH", false)
	require.NoError(t, err)
	assert.Equal(t, StatusSubmitted, st)
	assert.Equal(t, PriorityHigh, pr)

	_, _, err = ParseLegacy("archived", "low", false)
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestPriorityRank(t *testing.T) {
	assert.Greater(t, PriorityUrgent.Rank(), PriorityHigh.Rank())
	assert.Greater(t, PriorityHigh.Rank(), PriorityMedium.Rank())
	assert.Greater(t, PriorityMedium.Rank(), PriorityLow.Rank())
	assert.Zero(t, Priority("x").Rank())
}

func TestEventTiming(t *testing.T) {
	e := workOrder()
	start, ok := e.Start()
	require.True(t, ok)
	assert.Equal(t, 540, start)

	iv, ok := e.Interval()
	require.True(t, ok)
	assert.Equal(t, 600, iv.End)

	e.DurationMinutes = 120
	iv, _ = e.Interval()
	assert.Equal(t, 660, iv.End)

	e.Time = "9:30 PM"
	start, ok = e.Start()
	require.True(t, ok)
	assert.Equal(t, 21*60+30, start)

	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	e.CreatedAt = created
	assert.Equal(t, 3, e.DaysOpen(created.Add(3*24*time.Hour+time.Hour)))
	assert.Zero(t, e.DaysOpen(created.Add(-time.Hour)))
}

func TestDayHelpers(t *testing.T) {
	assert.True(t, SameDay("2025-06-10", " 2025-06-10"))
	assert.False(t, SameDay("2025-06-10", "2025-06-11"))
	assert.False(t, SameDay("not-a-date", "2025-06-10"))

	next, err := AddDays("2025-06-30", 1)
	require.NoError(t, err)
	assert.Equal(t, "2025-07-01", next)

	loc := time.FixedZone("X", -5*3600)
	d, err := ParseDay("2025-06-10", loc)
	require.NoError(t, err)
	assert.Equal(t, loc, d.Location())
	assert.Equal(t, "2025-06-10", FormatDay(d))
}

func TestSuggestionToEvent(t *testing.T) {
	s := Suggestion{ID: "s1", Title: "Pest Control", Type: "Service", Priority: PriorityLow, Unit: "4B"}
	e := s.ToEvent("ev-1")

	assert.Equal(t, KindService, e.Kind)
	require.NotNil(t, e.Details.Service)
	assert.Equal(t, "Service", e.Details.Service.ServiceType)
	assert.Equal(t, "s1", e.SuggestionID)
	assert.Equal(t, StatusSubmitted, e.Status)
	assert.Equal(t, "Unit 4B", e.Location.String())
	require.NoError(t, e.Validate())

	e = Suggestion{ID: "s2", Title: "Filter swap", Type: "maintenance"}.ToEvent("ev-2")
	assert.Equal(t, KindWorkOrder, e.Kind)
	assert.Equal(t, PriorityMedium, e.Priority)
}
