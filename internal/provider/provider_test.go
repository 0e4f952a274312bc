package provider

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propcal/internal/model"
	"propcal/internal/store"
)

func TestMock_DeterministicAndValid(t *testing.T) {
	now := time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)
	m := Mock{Seed: 42, Now: func() time.Time { return now }}

	a, err := m.Events(context.Background())
	require.NoError(t, err)
	b, err := m.Events(context.Background())
	require.NoError(t, err)
	assert.Equal(t, a, b)

	seen := map[string]bool{}
	kinds := map[model.Kind]int{}
	for _, e := range a {
		require.NoError(t, e.Validate(), e.ID)
		assert.False(t, seen[e.ID], "duplicate id %s", e.ID)
		seen[e.ID] = true
		kinds[e.Kind]++
	}
	for _, k := range model.Kinds {
		assert.NotZero(t, kinds[k], "no %s in seed data", k)
	}
}

func TestMock_LegacyUrgentStatus(t *testing.T) {
	now := time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)
	events, err := Mock{Seed: 1, Now: func() time.Time { return now }}.Events(context.Background())
	require.NoError(t, err)

	for _, e := range events {
		if e.ID == "WO-550010" {
			assert.Equal(t, model.StatusScheduled, e.Status)
			assert.Equal(t, model.PriorityUrgent, e.Priority)
			assert.Equal(t, "2025-06-10", e.Date)
			return
		}
	}
	t.Fatal("WO-550010 not found")
}

func TestMock_Suggestions(t *testing.T) {
	sgs, err := Mock{Seed: 1}.Suggestions(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, sgs)
	assert.Equal(t, "Pest Control", sgs[0].Title)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Mock{}.Suggestions(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSeed(t *testing.T) {
	now := time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)
	m := Mock{Seed: 3, Now: func() time.Time { return now }}
	st := store.New(store.WithClock(func() time.Time { return now }))

	require.NoError(t, Seed(context.Background(), m, st))

	events, err := m.Events(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(events), st.Len())
	assert.Len(t, st.Suggestions(), 5)

	wo, err := st.Get("WO-550010")
	require.NoError(t, err)
	assert.Equal(t, model.PriorityUrgent, wo.Priority)
}

type fixedProvider struct{ events []model.Event }

func (f fixedProvider) Events(context.Context) ([]model.Event, error) { return f.events, nil }

func (f fixedProvider) Suggestions(context.Context) ([]model.Suggestion, error) { return nil, nil }

func TestSeed_NormalizesLegacyRecords(t *testing.T) {
	st := store.New()
	p := fixedProvider{events: []model.Event{
		{ID: "a", Kind: model.KindWorkOrder, Title: "No heat", Status: "urgent", Priority: "medium",
			Date: "2025-06-10", Time: "09:00", Details: model.DetailsFor(model.KindWorkOrder)},
		{ID: "b", Kind: model.KindWorkOrder, Title: "Loose tile", Status: "unscheduled",
			Details: model.DetailsFor(model.KindWorkOrder)},
		{ID: "c", Kind: model.KindWorkOrder, Title: "Mystery", Status: "misplaced",
			Details: model.DetailsFor(model.KindWorkOrder)},
	}}

	require.NoError(t, Seed(context.Background(), p, st))
	assert.Equal(t, 2, st.Len())

	a, err := st.Get("a")
	require.NoError(t, err)
	assert.Equal(t, model.StatusScheduled, a.Status)
	assert.Equal(t, model.PriorityUrgent, a.Priority)

	b, err := st.Get("b")
	require.NoError(t, err)
	assert.Equal(t, model.StatusSubmitted, b.Status)
}
