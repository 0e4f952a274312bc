// Package web serves the scheduling API and the printable hourly calendar.
package web

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"propcal/internal/auth"
	"propcal/internal/config"
	"propcal/internal/dropzone"
	appLog "propcal/internal/log"
	"propcal/internal/notify"
	"propcal/internal/prefs"
	"propcal/internal/pricing"
	"propcal/internal/store"
	"propcal/internal/weather"
)

// Deps are the collaborators of a Server. Prefs, Notices and Weather are
// optional; their routes answer 503 when unset.
type Deps struct {
	Config   *config.Config
	Store    *store.Store
	Surface  *dropzone.Surface
	Prefs    *prefs.Store
	Notices  *notify.Recorder
	Weather  weather.Reader
	Resolver auth.Resolver
	Units    []pricing.Unit
}

type Server struct {
	cfg     *config.Config
	store   *store.Store
	surface *dropzone.Surface
	prefs   *prefs.Store
	notices *notify.Recorder
	weather weather.Reader
	units   []pricing.Unit
	guard   auth.Guard
	loc     *time.Location
	mux     *http.ServeMux
}

func NewServer(d Deps) *Server {
	s := &Server{
		cfg:     d.Config,
		store:   d.Store,
		surface: d.Surface,
		prefs:   d.Prefs,
		notices: d.Notices,
		weather: d.Weather,
		units:   d.Units,
		guard:   auth.Guard{Resolver: d.Resolver, SuperAdminEmails: d.Config.SuperAdminEmails},
		loc:     d.Config.Location(),
		mux:     http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the routed handler, behind basic auth when configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// staffRoles may work on any event: maintenance plus the operator family.
var staffRoles = append([]auth.Role{auth.RoleMaintenance}, auth.Staff...)

func (s *Server) registerRoutes() {
	var (
		anyone = []auth.Role{}
		staff  = staffRoles
	)
	route := func(pattern string, h http.HandlerFunc, roles ...auth.Role) {
		s.mux.Handle(pattern, s.guard.Require(h, roles...))
	}

	s.mux.HandleFunc("GET /health", s.handleHealth)

	route("GET /api/me", s.handleMe, anyone...)
	route("GET /api/events", s.handleListEvents, anyone...)
	route("POST /api/events", s.handleCreateEvent, staff...)
	route("GET /api/events/{id}", s.handleGetEvent, anyone...)
	route("POST /api/events/{id}/{action}", s.handleAction, anyone...)
	route("GET /api/queue", s.handleQueue, staff...)
	route("GET /api/today", s.handleToday, anyone...)
	route("POST /api/drop", s.handleDrop, anyone...)
	route("GET /api/slots/next", s.handleNextSlot, anyone...)
	route("GET /api/slots/openings", s.handleOpenings, anyone...)
	route("GET /api/suggestions", s.handleSuggestions, anyone...)
	route("GET /api/pricing/units", s.handlePricing, auth.Staff...)
	route("GET /api/pricing/units/{unit}", s.handlePricingUnit, auth.Staff...)
	route("GET /api/preferences/{key}", s.handleGetPreference, anyone...)
	route("PUT /api/preferences/{key}", s.handlePutPreference, anyone...)
	route("GET /api/notifications", s.handleNotifications, anyone...)
	route("GET /api/weather", s.handleWeather, anyone...)
	route("GET /calendar.ics", s.handleICS, staff...)
	route("GET /calendar", s.handleCalendar, anyone...)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware guards everything except /health.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="propcal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// ListenAndServe serves until ctx is cancelled, then shuts down with a
// grace period.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	appLog.Info("shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
