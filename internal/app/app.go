// Package app assembles the service from a Config: the event store and its
// seed data, the preference database, community calendar refresh and the
// background jobs.
package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"

	"propcal/internal/auth"
	"propcal/internal/config"
	"propcal/internal/dropzone"
	"propcal/internal/ics"
	appLog "propcal/internal/log"
	"propcal/internal/mcpserver"
	"propcal/internal/model"
	"propcal/internal/notify"
	"propcal/internal/prefs"
	"propcal/internal/pricing"
	"propcal/internal/provider"
	"propcal/internal/slot"
	"propcal/internal/store"
	"propcal/internal/weather"
	"propcal/internal/web"
)

// noticeBacklog is how many notices the in-app feed keeps.
const noticeBacklog = 200

type App struct {
	Config  *config.Config
	Store   *store.Store
	Surface *dropzone.Surface
	Prefs   *prefs.Store
	Notices *notify.Recorder
	Weather weather.Reader
	Fetcher *ics.Fetcher
	Units   []pricing.Unit

	now func() time.Time
}

type Option func(*App)

// WithClock overrides time.Now for the store, the seed data and the jobs.
func WithClock(now func() time.Time) Option {
	return func(a *App) { a.now = now }
}

// WithHTTPClient replaces the client used for community calendar fetches.
func WithHTTPClient(c *http.Client) Option {
	return func(a *App) { a.Fetcher = ics.NewFetcher(a.Config.ICSCacheDir, c) }
}

// New builds the App. Preferences are opened at cfg.PrefsDBPath; the
// caller must Close the App.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	cfg.Normalize()
	appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))

	a := &App{Config: cfg, now: time.Now}
	a.Fetcher = ics.NewFetcher(cfg.ICSCacheDir, nil)
	for _, o := range opts {
		o(a)
	}

	a.Notices = notify.NewRecorder(noticeBacklog)
	a.Store = store.New(
		store.WithNotifier(notify.Fanout{notify.LogNotifier{}, a.Notices}),
		store.WithClock(a.now),
	)
	if err := provider.Seed(ctx, provider.Mock{Seed: cfg.Seed, Now: a.now}, a.Store); err != nil {
		return nil, fmt.Errorf("seed store: %w", err)
	}

	a.Surface = &dropzone.Surface{
		Store:             a.Store,
		Finder:            slot.NewFinder(cfg.Boundary()),
		Hours:             cfg.Window(),
		WorkOrderDuration: cfg.WorkOrderDurationMinutes,
		Location:          cfg.Location(),
	}

	if cfg.PrefsDBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.PrefsDBPath), 0o700); err != nil {
			return nil, fmt.Errorf("create prefs dir: %w", err)
		}
	}
	ps, err := prefs.Open(cfg.PrefsDBPath)
	if err != nil {
		return nil, err
	}
	a.Prefs = ps

	a.Weather = weather.NewCached(weather.NewMock(cfg.Seed), weather.DefaultTTL)

	seed := cfg.Seed
	if seed == 0 {
		seed = a.now().UnixNano()
	}
	a.Units = pricing.Generate(rand.New(rand.NewSource(seed)), a.now())

	appLog.Info("app initialised",
		"timezone", cfg.Timezone,
		"events", a.Store.Len(),
		"units", len(a.Units),
		"community_calendars", len(cfg.CommunityCalendars),
	)
	return a, nil
}

// RefreshCommunity re-reads the community calendars and replaces every
// community event in the store. Calendars that fail keep serving their
// cached copy; when nothing at all could be read the store is left alone.
func (a *App) RefreshCommunity(ctx context.Context) error {
	cals := a.Config.Calendars()
	if len(cals) == 0 {
		return nil
	}

	loc := a.Config.Location()
	now := a.now().In(loc)
	w := ics.Window{
		From:     now.AddDate(0, 0, -1),
		To:       now.AddDate(0, 0, a.Config.CommunityHorizonDays),
		Location: loc,
	}
	events, err := ics.Refresh(ctx, a.Fetcher, cals, w)
	if err != nil && len(events) == 0 {
		return fmt.Errorf("refresh community calendars: %w", err)
	}
	if rerr := a.Store.ReplaceKind(model.KindCommunity, events); rerr != nil {
		return rerr
	}
	return err
}

// SweepOverdue marks past-due events overdue and reports how many changed.
func (a *App) SweepOverdue() int {
	return len(a.Store.SweepOverdue(a.now()))
}

// Scheduler returns an unstarted cron with the overdue sweep and the
// community refresh. A job set to config.JobOff, or with an expression
// that does not parse, is left out.
func (a *App) Scheduler(ctx context.Context) *cron.Cron {
	c := cron.New(cron.WithLocation(a.Config.Location()))

	add := func(name, spec string, job func()) {
		if !config.JobEnabled(spec) {
			appLog.Info("job disabled", "job", name)
			return
		}
		if _, err := c.AddFunc(spec, job); err != nil {
			appLog.Error("invalid job schedule", err, "job", name, "spec", spec)
			return
		}
		appLog.Debug("job scheduled", "job", name, "spec", spec)
	}

	add("overdue_sweep", a.Config.OverdueSweep, func() {
		if n := a.SweepOverdue(); n > 0 {
			appLog.Info("overdue sweep", "marked", n)
		}
	})
	if len(a.Config.CommunityCalendars) > 0 {
		add("community_refresh", a.Config.CommunityRefresh, func() {
			if err := a.RefreshCommunity(ctx); err != nil {
				appLog.Error("community refresh failed", err)
			}
		})
	}
	return c
}

// Server builds the HTTP server over the App's collaborators.
func (a *App) Server() (*web.Server, error) {
	users, err := a.Config.AuthUsers()
	if err != nil {
		return nil, err
	}
	return web.NewServer(web.Deps{
		Config:   a.Config,
		Store:    a.Store,
		Surface:  a.Surface,
		Prefs:    a.Prefs,
		Notices:  a.Notices,
		Weather:  a.Weather,
		Resolver: auth.NewStaticResolver(users),
		Units:    a.Units,
	}), nil
}

func (a *App) MCP(actor string) *mcpserver.Server {
	opts := []mcpserver.Option{mcpserver.WithWeekStart(a.Config.WeekStartDay())}
	if actor != "" {
		opts = append(opts, mcpserver.WithActor(actor))
	}
	return mcpserver.NewServer(a.Surface, opts...)
}

func (a *App) Close() error {
	if a.Prefs == nil {
		return nil
	}
	return a.Prefs.Close()
}
