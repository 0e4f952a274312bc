package web

import (
	"embed"
	"html/template"
	"net/http"
	"net/url"
	"time"

	appLog "propcal/internal/log"
	"propcal/internal/model"
	"propcal/internal/view"
	"propcal/internal/weather"
)

//go:embed templates/calendar.gohtml
var templatesFS embed.FS

var calendarTmpl = template.Must(template.ParseFS(templatesFS, "templates/calendar.gohtml"))

type calendarDay struct {
	Date   string
	Label  string
	AllDay []model.Event
	Slots  []view.Slot
}

type calendarPage struct {
	Title   string
	Span    view.Span
	Days    []calendarDay
	Weather *weather.Conditions

	PrevURL, NextURL string
}

// pageURL links to the same span anchored at day, keeping the token so
// the link works for snapshot and subscription sessions.
func pageURL(r *http.Request, day time.Time, span view.Span) string {
	q := url.Values{}
	q.Set("date", model.FormatDay(day))
	q.Set("view", string(span))
	if tok := r.URL.Query().Get("token"); tok != "" {
		q.Set("token", tok)
	}
	return "/calendar?" + q.Encode()
}

// handleCalendar renders the printable hourly calendar. A single day
// shows all 48 half-hour rows; wider spans show only occupied rows.
//
// GET /calendar?date=2025-06-10&view=week
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	span, err := view.ParseSpan(q.Get("view"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	anchor, err := s.anchor(q.Get("date"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	week := s.cfg.WeekStartDay()
	events := s.store.List(nil)
	from, to := view.Range(anchor, span, week)

	page := calendarPage{
		Title:   view.Title(anchor, span, week),
		Span:    span,
		PrevURL: pageURL(r, view.Navigate(anchor, span, -1), span),
		NextURL: pageURL(r, view.Navigate(anchor, span, 1), span),
	}
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		date := model.FormatDay(d)
		day := calendarDay{Date: date, Label: d.Format("Mon Jan 2")}
		for _, e := range view.OnDays(events, date, date) {
			if _, timed := e.Start(); !timed {
				day.AllDay = append(day.AllDay, e)
			}
		}
		for _, sl := range view.DayGrid(events, date) {
			if span == view.SpanDay || len(sl.Events) > 0 {
				day.Slots = append(day.Slots, sl)
			}
		}
		page.Days = append(page.Days, day)
	}

	if s.weather != nil {
		if c, err := s.weather.Read(r.Context()); err == nil {
			page.Weather = &c
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := calendarTmpl.Execute(w, page); err != nil {
		appLog.Error("calendar render failed", err)
	}
}
