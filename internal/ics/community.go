package ics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	appLog "propcal/internal/log"
	"propcal/internal/model"
	"propcal/internal/slot"
)

// ToEvents converts occurrences into scheduled community events. IDs are
// derived from calendar, UID and instance, so a refresh yields the same
// IDs for unchanged instances.
func ToEvents(occs []Occurrence, loc *time.Location) []model.Event {
	if loc == nil {
		loc = time.Local
	}
	out := make([]model.Event, 0, len(occs))
	for _, o := range occs {
		start := o.Start.In(loc)
		e := model.Event{
			ID:          eventID(o),
			Kind:        model.KindCommunity,
			Title:       o.Summary,
			Description: o.Description,
			Category:    "community",
			Priority:    model.PriorityLow,
			Status:      model.StatusScheduled,
			Date:        model.FormatDay(start),
			Details: model.Details{Community: &model.CommunityDetails{
				CalendarID:  o.CalendarID,
				UID:         o.UID,
				InstanceKey: o.InstanceKey,
				Location:    o.Location,
				AllDay:      o.AllDay,
			}},
		}
		if e.Title == "" {
			e.Title = "(untitled)"
		}
		if !o.AllDay {
			e.Time = slot.FormatClock(model.MinuteOfDay(start))
			e.DurationMinutes = int(o.End.Sub(o.Start) / time.Minute)
		}
		out = append(out, e)
	}
	return out
}

func eventID(o Occurrence) string {
	sum := sha256.Sum256([]byte(o.CalendarID + "\x00" + o.UID + "\x00" + o.InstanceKey))
	return "ics-" + hex.EncodeToString(sum[:8])
}

// Refresh fetches, parses and expands every calendar, returning community
// events for the window. Calendars that fail are skipped; the joined
// error lists them.
func Refresh(ctx context.Context, f *Fetcher, cals []Calendar, w Window) ([]model.Event, error) {
	feeds, errs := f.FetchAll(ctx, cals)

	var entries []Entry
	for _, feed := range feeds {
		es, err := Parse(feed.Calendar, feed.Body, w.Location)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		entries = append(entries, es...)
	}

	occs, _, err := Expand(entries, w)
	if err != nil {
		return nil, err
	}
	events := ToEvents(occs, w.Location)
	appLog.Info("community calendars refreshed",
		"calendars", len(cals), "failed", len(errs), "events", len(events))
	return events, errors.Join(errs...)
}
