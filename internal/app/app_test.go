package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propcal/internal/config"
	"propcal/internal/model"
)

var testNow = time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)

const poolFeed = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//example//pool//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:pool-party@example\r\n" +
	"DTSTAMP:20250601T000000Z\r\n" +
	"DTSTART:20250612T170000Z\r\n" +
	"DTEND:20250612T190000Z\r\n" +
	"SUMMARY:Pool party\r\n" +
	"LOCATION:Rooftop\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func newTestApp(t *testing.T, mutate func(*config.Config)) *App {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Timezone = "UTC"
	cfg.Seed = 1
	cfg.PrefsDBPath = ":memory:"
	cfg.ICSCacheDir = t.TempDir()
	if mutate != nil {
		mutate(cfg)
	}

	a, err := New(context.Background(), cfg, WithClock(func() time.Time { return testNow }))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func communityEvents(a *App) []model.Event {
	return a.Store.List(func(e model.Event) bool { return e.Kind == model.KindCommunity })
}

func TestNew(t *testing.T) {
	a := newTestApp(t, nil)

	assert.Positive(t, a.Store.Len())
	assert.NotEmpty(t, a.Units)
	assert.NotNil(t, a.Surface)

	_, err := a.Weather.Read(context.Background())
	require.NoError(t, err)

	srv, err := a.Server()
	require.NoError(t, err)
	assert.NotNil(t, srv.Handler())
	assert.NotNil(t, a.MCP("").MCPServer())
}

func TestNewRejectsNilConfig(t *testing.T) {
	_, err := New(context.Background(), nil)
	require.Error(t, err)
}

func TestServerRejectsUnknownRole(t *testing.T) {
	a := newTestApp(t, func(c *config.Config) {
		c.Users = []config.UserConfig{{ID: "x", Role: "janitor", Token: "t"}}
	})
	_, err := a.Server()
	require.Error(t, err)
}

func TestSweepOverdue(t *testing.T) {
	a := newTestApp(t, nil)
	a.SweepOverdue()

	e := model.Event{
		ID:       "WO-late",
		Kind:     model.KindWorkOrder,
		Title:    "Replace filter",
		Priority: model.PriorityMedium,
		DueDate:  "2025-06-09",
		Details:  model.DetailsFor(model.KindWorkOrder),
	}
	_, err := a.Store.Add(e)
	require.NoError(t, err)

	assert.Equal(t, 1, a.SweepOverdue())
	got, err := a.Store.Get("WO-late")
	require.NoError(t, err)
	assert.Equal(t, model.StatusOverdue, got.Status)

	assert.Equal(t, 0, a.SweepOverdue())
}

func TestRefreshCommunity(t *testing.T) {
	var fail atomic.Bool
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			http.Error(w, "down", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "text/calendar")
		_, _ = w.Write([]byte(poolFeed))
	}))
	defer ts.Close()

	a := newTestApp(t, func(c *config.Config) {
		c.CommunityCalendars = []config.CalendarConfig{{ID: "pool", Name: "Pool", URL: ts.URL + "/pool.ics"}}
	})

	require.NoError(t, a.RefreshCommunity(context.Background()))
	events := communityEvents(a)
	require.Len(t, events, 1)
	assert.Equal(t, "Pool party", events[0].Title)
	assert.Equal(t, "2025-06-12", events[0].Date)
	assert.Equal(t, "17:00", events[0].Time)

	// the cached copy keeps serving while the feed is down
	fail.Store(true)
	require.NoError(t, a.RefreshCommunity(context.Background()))
	assert.Len(t, communityEvents(a), 1)
}

func TestRefreshCommunityKeepsStoreWhenAllFail(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer ts.Close()

	a := newTestApp(t, func(c *config.Config) {
		c.CommunityCalendars = []config.CalendarConfig{{ID: "gym", Name: "Gym", URL: ts.URL + "/gym.ics"}}
	})
	before := communityEvents(a)

	require.Error(t, a.RefreshCommunity(context.Background()))
	assert.Equal(t, before, communityEvents(a))
}

func TestRefreshCommunityWithoutCalendars(t *testing.T) {
	a := newTestApp(t, nil)
	before := communityEvents(a)
	require.NoError(t, a.RefreshCommunity(context.Background()))
	assert.Equal(t, before, communityEvents(a))
}

func TestScheduler(t *testing.T) {
	a := newTestApp(t, nil)
	assert.Len(t, a.Scheduler(context.Background()).Entries(), 1)

	b := newTestApp(t, func(c *config.Config) {
		c.CommunityCalendars = []config.CalendarConfig{{ID: "pool", URL: "http://127.0.0.1:1/pool.ics"}}
	})
	assert.Len(t, b.Scheduler(context.Background()).Entries(), 2)

	c := newTestApp(t, func(c *config.Config) { c.OverdueSweep = "not a schedule" })
	assert.Empty(t, c.Scheduler(context.Background()).Entries())
}

func TestSchedulerJobsCanBeTurnedOff(t *testing.T) {
	a := newTestApp(t, func(c *config.Config) {
		c.OverdueSweep = "off"
		c.CommunityRefresh = "OFF"
		c.CommunityCalendars = []config.CalendarConfig{{ID: "pool", URL: "http://127.0.0.1:1/pool.ics"}}
	})
	assert.Equal(t, config.JobOff, a.Config.OverdueSweep)
	assert.Equal(t, config.JobOff, a.Config.CommunityRefresh)
	assert.Empty(t, a.Scheduler(context.Background()).Entries())

	// unset keeps the default schedule
	b := newTestApp(t, func(c *config.Config) { c.OverdueSweep = "" })
	assert.Equal(t, "*/5 * * * *", b.Config.OverdueSweep)
	assert.Len(t, b.Scheduler(context.Background()).Entries(), 1)
}
