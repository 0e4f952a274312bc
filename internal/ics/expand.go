package ics

import (
	"errors"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	appLog "propcal/internal/log"
)

const defaultMaxPerEntry = 500

// Occurrence is one concrete instance of an entry, in the display zone.
type Occurrence struct {
	CalendarID  string
	UID         string
	InstanceKey string

	Summary     string
	Description string
	Location    string

	Start  time.Time
	End    time.Time
	AllDay bool
}

// Window bounds an expansion. Occurrences overlapping [From, To] are kept.
type Window struct {
	From time.Time
	To   time.Time

	Location    *time.Location // nil means time.Local
	MaxPerEntry int
}

// Expand turns entries into occurrences sorted by start. RRULE, EXDATE and
// RECURRENCE-ID overrides are applied. UIDs that hit MaxPerEntry are
// returned as truncated.
func Expand(entries []Entry, w Window) ([]Occurrence, []string, error) {
	if w.To.Before(w.From) {
		return nil, nil, errors.New("expand: window ends before it starts")
	}
	if w.Location == nil {
		w.Location = time.Local
	}
	if w.MaxPerEntry <= 0 {
		w.MaxPerEntry = defaultMaxPerEntry
	}

	overrides := make(map[string][]Entry)
	var bases []Entry
	for _, e := range entries {
		if e.Override() {
			overrides[e.UID] = append(overrides[e.UID], e)
			continue
		}
		bases = append(bases, e)
	}

	var (
		out       []Occurrence
		truncated []string
	)
	for _, e := range bases {
		occs, capped := expandEntry(e, overrides[e.UID], w)
		if capped {
			truncated = append(truncated, e.UID)
			appLog.Warn("recurrence truncated", "calendar", e.CalendarID, "uid", e.UID, "cap", w.MaxPerEntry)
		}
		out = append(out, occs...)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, truncated, nil
}

func expandEntry(e Entry, overrides []Entry, w Window) ([]Occurrence, bool) {
	if e.RRule == "" {
		if !overlaps(e.Start, e.End, w.From, w.To) {
			return nil, false
		}
		return []Occurrence{instance(e, overrides, e.Start, w.Location)}, false
	}

	opt, err := rrule.StrToROption(e.RRule)
	if err != nil {
		appLog.Error("bad RRULE", err, "calendar", e.CalendarID, "uid", e.UID)
		return nil, false
	}
	opt.Dtstart = e.Start
	r, err := rrule.NewRRule(*opt)
	if err != nil {
		appLog.Error("bad RRULE", err, "calendar", e.CalendarID, "uid", e.UID)
		return nil, false
	}

	set := &rrule.Set{}
	set.RRule(r)
	for _, ex := range e.ExDates {
		set.ExDate(ex.In(e.Start.Location()))
	}

	// Back off by the entry length so instances that started before the
	// window but still run into it are kept.
	dur := e.End.Sub(e.Start)
	loc := e.Start.Location()
	starts := set.Between(w.From.Add(-dur).In(loc), w.To.In(loc), true)

	capped := false
	if len(starts) > w.MaxPerEntry {
		starts = starts[:w.MaxPerEntry]
		capped = true
	}

	out := make([]Occurrence, 0, len(starts))
	for _, s := range starts {
		out = append(out, instance(e, overrides, s, w.Location))
	}
	return out, capped
}

// instance builds the occurrence starting at start, substituting an
// override whose RECURRENCE-ID matches.
func instance(e Entry, overrides []Entry, start time.Time, display *time.Location) Occurrence {
	key := start.In(display).Format(time.RFC3339)
	if e.AllDay {
		key = start.Format("2006-01-02")
	}

	end := start.Add(e.End.Sub(e.Start))
	src := e
	for _, o := range overrides {
		if o.RecurrenceID.Equal(start) {
			src, start, end = o, o.Start, o.End
			break
		}
	}

	return Occurrence{
		CalendarID:  e.CalendarID,
		UID:         e.UID,
		InstanceKey: key,
		Summary:     src.Summary,
		Description: src.Description,
		Location:    src.Location,
		Start:       start.In(display),
		End:         end.In(display),
		AllDay:      src.AllDay,
	}
}

func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aEnd.Before(bStart) && !bEnd.Before(aStart)
}
