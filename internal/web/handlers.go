package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"propcal/internal/auth"
	"propcal/internal/dropzone"
	"propcal/internal/ics"
	"propcal/internal/lifecycle"
	appLog "propcal/internal/log"
	"propcal/internal/model"
	"propcal/internal/notify"
	"propcal/internal/prefs"
	"propcal/internal/pricing"
	"propcal/internal/slot"
	"propcal/internal/store"
	"propcal/internal/view"
)

const maxBody = 1 << 20

func (s *Server) now() time.Time { return s.store.Now().In(s.loc) }

func (s *Server) today() string { return model.FormatDay(s.now()) }

func session(r *http.Request) auth.Session {
	sess, _ := auth.FromContext(r.Context())
	return sess
}

type meResponse struct {
	auth.Session
	EffectiveRole auth.Role `json:"effectiveRole"`
	DefaultRoute  string    `json:"defaultRoute"`
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	writeJSON(w, http.StatusOK, meResponse{
		Session:       sess,
		EffectiveRole: sess.EffectiveRole(),
		DefaultRoute:  auth.DefaultRoute(sess, s.cfg.SuperAdminEmails),
	})
}

type eventsResponse struct {
	View   view.Span     `json:"view"`
	Title  string        `json:"title"`
	From   string        `json:"from"`
	To     string        `json:"to"`
	Events []model.Event `json:"events"`
	Counts view.Counts   `json:"counts"`
}

// handleListEvents returns the events visible in a calendar page.
//
// GET /api/events?view=week&date=2025-06-10&kind=work-order&status=scheduled
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	span, err := view.ParseSpan(q.Get("view"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	anchor, err := s.anchor(q.Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	keep, err := eventFilter(q.Get("kind"), q.Get("status"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	all := s.store.List(keep)
	week := s.cfg.WeekStartDay()
	from, to := view.Range(anchor, span, week)
	events := view.Window(all, anchor, span, week)
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, eventsResponse{
		View:   span,
		Title:  view.Title(anchor, span, week),
		From:   model.FormatDay(from),
		To:     model.FormatDay(to),
		Events: events,
		Counts: view.Count(all),
	})
}

func eventFilter(kind, status string) (func(model.Event) bool, error) {
	var (
		k  model.Kind
		st model.Status
	)
	if kind != "" {
		var err error
		if k, err = model.ParseKind(kind); err != nil {
			return nil, err
		}
	}
	if status != "" {
		var err error
		if st, err = model.ParseStatus(status); err != nil {
			return nil, err
		}
	}
	return func(e model.Event) bool {
		return (k == "" || e.Kind == k) && (st == "" || e.Status == st)
	}, nil
}

func (s *Server) anchor(date string) (time.Time, error) {
	if date == "" {
		return s.now(), nil
	}
	return model.ParseDay(date, s.loc)
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var e model.Event
	if !decodeBody(w, r, &e) {
		return
	}
	if e.Details == (model.Details{}) {
		e.Details = model.DetailsFor(e.Kind)
	}
	e, err := model.NormalizeLegacy(e)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	created, err := s.store.Add(e)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	appLog.Info("event created", "event_id", created.ID, "kind", created.Kind, "actor", session(r).Actor())
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	e, err := s.store.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// resultResponse reports a transition. Rejections carry the event as it
// still is, the notice and the reason.
type resultResponse struct {
	Outcome string         `json:"outcome"`
	Event   *model.Event   `json:"event,omitempty"`
	Notice  *notify.Notice `json:"notice,omitempty"`
	Reason  string         `json:"reason,omitempty"`
}

func toResponse(res lifecycle.Result) resultResponse {
	out := resultResponse{Outcome: res.Outcome.String()}
	if res.Event.ID != "" {
		ev := res.Event
		out.Event = &ev
	}
	if res.Notice.Title != "" {
		n := res.Notice
		out.Notice = &n
	}
	if res.Reason != nil {
		out.Reason = res.Reason.Error()
	}
	return out
}

func writeResult(w http.ResponseWriter, res lifecycle.Result, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, toResponse(res))
	case res.Event.ID != "":
		writeJSON(w, statusFor(err), toResponse(res))
	default:
		writeError(w, statusFor(err), err.Error())
	}
}

// actionRoles limits transitions on existing events. Everyone may nudge;
// the rest change another person's work order and need a staff role.
func actionRoles(a lifecycle.Action) []auth.Role {
	if a == lifecycle.ActionNudge {
		return nil
	}
	return staffRoles
}

// handleAction runs a named transition.
//
// POST /api/events/{id}/reschedule {"date":"2025-06-11","time":"14:00"}
// POST /api/events/{id}/complete_task {"task":"305-paint"}
func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	action, err := lifecycle.ParseAction(r.PathValue("action"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !auth.Allowed(session(r), actionRoles(action)...) {
		writeError(w, http.StatusForbidden, fmt.Sprintf("%s: %s", auth.ErrForbidden, action))
		return
	}
	var args lifecycle.Args
	if r.ContentLength != 0 && !decodeBody(w, r, &args) {
		return
	}
	res, err := s.store.Apply(r.PathValue("id"), action, session(r).Actor(), args)
	writeResult(w, res, err)
}

func (s *Server) handleQueue(w http.ResponseWriter, r *http.Request) {
	q := view.Queue(s.store.List(nil), r.URL.Query().Get("filter"), s.now())
	if q == nil {
		q = []model.Event{}
	}
	writeJSON(w, http.StatusOK, q)
}

type todayResponse struct {
	Date string `json:"date"`
	view.Buckets
	Counts view.Counts `json:"counts"`
}

func (s *Server) handleToday(w http.ResponseWriter, _ *http.Request) {
	all := s.store.List(nil)
	today := s.today()
	writeJSON(w, http.StatusOK, todayResponse{Date: today, Buckets: view.Bucket(all, today), Counts: view.Count(all)})
}

type dropRequest struct {
	Payload dropzone.Payload `json:"payload"`
	Target  dropzone.Target  `json:"target"`
}

func (s *Server) handleDrop(w http.ResponseWriter, r *http.Request) {
	var req dropRequest
	if !decodeBody(w, r, &req) {
		return
	}
	// Suggestion cards are anyone's to place; moving an existing event is not.
	if req.Payload.Source != dropzone.SourceSuggestion && !auth.Allowed(session(r), staffRoles...) {
		writeError(w, http.StatusForbidden, auth.ErrForbidden.Error())
		return
	}
	res, err := s.surface.Drop(req.Payload, req.Target, session(r).Actor())
	writeResult(w, res, err)
}

// GET /api/slots/next?date=2025-06-10&duration=90
func (s *Server) handleNextSlot(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date := q.Get("date")
	if date == "" {
		date = s.today()
	}
	duration := parseIntDefault(q.Get("duration"), s.cfg.DefaultDurationMinutes)
	clock, err := s.surface.NextSlot(date, duration)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"date": date, "time": clock})
}

// GET /api/slots/openings?date=2025-06-10
func (s *Server) handleOpenings(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = s.today()
	}
	times, err := s.surface.RescheduleOpenings(date)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"date": date, "times": times})
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	var states []model.SuggestionState
	if st := r.URL.Query().Get("state"); st != "" {
		states = append(states, model.SuggestionState(st))
	}
	writeJSON(w, http.StatusOK, s.store.Suggestions(states...))
}

type pricingResponse struct {
	Units   []pricing.Unit  `json:"units"`
	Summary pricing.Summary `json:"summary"`
}

func (s *Server) handlePricing(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	units := pricing.Filter(s.units, q.Get("search"), q.Get("status"))
	if units == nil {
		units = []pricing.Unit{}
	}
	writeJSON(w, http.StatusOK, pricingResponse{Units: units, Summary: pricing.Summarize(s.units)})
}

// GET /api/pricing/units/0410
func (s *Server) handlePricingUnit(w http.ResponseWriter, r *http.Request) {
	u, ok := pricing.Lookup(s.units, r.PathValue("unit"))
	if !ok {
		writeError(w, http.StatusNotFound, "unit not found")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleGetPreference(w http.ResponseWriter, r *http.Request) {
	if s.prefs == nil {
		writeError(w, http.StatusServiceUnavailable, "preferences unavailable")
		return
	}
	v, err := s.prefs.Load(r.Context(), session(r).UserID, r.PathValue("key"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handlePutPreference(w http.ResponseWriter, r *http.Request) {
	if s.prefs == nil {
		writeError(w, http.StatusServiceUnavailable, "preferences unavailable")
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	v, err := s.prefs.Save(r.Context(), session(r).UserID, r.PathValue("key"), body)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	if s.notices == nil {
		writeJSON(w, http.StatusOK, []notify.Notice{})
		return
	}
	writeJSON(w, http.StatusOK, s.notices.Recent(parseIntDefault(r.URL.Query().Get("limit"), 20)))
}

func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	if s.weather == nil {
		writeError(w, http.StatusServiceUnavailable, "weather unavailable")
		return
	}
	c, err := s.weather.Read(r.Context())
	if err != nil {
		appLog.Error("weather read failed", err)
		writeError(w, http.StatusBadGateway, "failed to read weather")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleICS(w http.ResponseWriter, _ *http.Request) {
	body := ics.Export(s.store.List(nil), s.loc, s.store.Now())
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="propcal.ics"`)
	_, _ = io.WriteString(w, body)
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, prefs.ErrUnknownKey),
		errors.Is(err, lifecycle.ErrTaskNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrDuplicate), errors.Is(err, store.ErrExists),
		errors.Is(err, lifecycle.ErrTerminal), errors.Is(err, lifecycle.ErrInvalidTransition),
		errors.Is(err, lifecycle.ErrAlreadyUrgent), errors.Is(err, lifecycle.ErrUnchanged),
		errors.Is(err, lifecycle.ErrUndoExpired):
		return http.StatusConflict
	case errors.Is(err, slot.ErrDurationTooLong):
		return http.StatusUnprocessableEntity
	case errors.Is(err, dropzone.ErrBadPayload), errors.Is(err, dropzone.ErrBadTarget),
		errors.Is(err, slot.ErrInvalidTime), errors.Is(err, prefs.ErrInvalidGesture),
		errors.Is(err, model.ErrMissingID), errors.Is(err, model.ErrMissingTitle),
		errors.Is(err, model.ErrKindMismatch), errors.Is(err, model.ErrUnknownStatus),
		errors.Is(err, model.ErrUnknownPriority), errors.Is(err, model.ErrUnknownKind),
		errors.Is(err, model.ErrInvalidDate), errors.Is(err, store.ErrInvalidEvent):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
