// Package provider supplies the initial event collection. The mock
// provider stands in for the hosted row store.
package provider

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	appLog "propcal/internal/log"
	"propcal/internal/model"
	"propcal/internal/store"
)

// Provider loads events and suggestion cards.
type Provider interface {
	Events(ctx context.Context) ([]model.Event, error)
	Suggestions(ctx context.Context) ([]model.Suggestion, error)
}

// Mock generates a realistic seed data set relative to Now. With the same
// Seed and Now it always produces the same data.
type Mock struct {
	Seed int64
	Now  func() time.Time
}

var technicians = []string{"Mike Rodriguez", "Sarah Johnson", "James Wilson", "Dana Lee"}

type workOrderSeed struct {
	id, unit, title, desc, category string
	priority                        string
	status                          string
	resident, phone                 string
	daysOpen                        int
	dueInDays                       int
	scheduledIn                     int // days from today, -1 = unscheduled
	clock                           string
}

var workOrderSeeds = []workOrderSeed{
	{"WO-544857", "417", "Dripping water faucet", "Bathroom faucet dripping intermittently", "Plumbing",
		"medium", "unscheduled", "Rumi Desai", "(555) 123-4567", 3, 4, -1, ""},
	{"WO-548686", "516", "Window won't close properly", "The balancer got stuck and window won't close", "Windows",
		"high", "unscheduled", "Kalyani Dronamraju", "(555) 345-6789", 5, 2, -1, ""},
	{"WO-549321", "204", "HVAC not cooling properly", "Air conditioning unit not providing adequate cooling", "HVAC",
		"urgent", "overdue", "Alex Thompson", "(555) 456-7890", 12, -2, -1, ""},
	{"WO-545123", "302", "Scheduled Inspection", "Annual HVAC maintenance check", "Maintenance",
		"low", "scheduled", "Jane Smith", "(555) 789-0123", 1, 5, 0, "10:00 AM"},
	{"WO-550010", "4B", "Broken outlet", "Outlet in kitchen sparks when used", "Electrical",
		"high", "urgent", "John Doe", "(555) 123-4567", 2, -1, 0, "09:00"},
}

func (m Mock) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

func (m Mock) rng() *rand.Rand {
	seed := m.Seed
	if seed == 0 {
		seed = m.now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

func (m Mock) Events(ctx context.Context) ([]model.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := m.now()
	today := model.FormatDay(now)
	day := func(offset int) string { return model.FormatDay(now.AddDate(0, 0, offset)) }
	rnd := m.rng()

	var out []model.Event
	for _, s := range workOrderSeeds {
		date, clock := "", ""
		if s.scheduledIn >= 0 {
			date, clock = day(s.scheduledIn), s.clock
		}
		status, priority, err := model.ParseLegacy(s.status, s.priority, date != "")
		if err != nil {
			return nil, fmt.Errorf("seed %s: %w", s.id, err)
		}
		created := now.AddDate(0, 0, -s.daysOpen)
		out = append(out, model.Event{
			ID:              s.id,
			Kind:            model.KindWorkOrder,
			Title:           s.title,
			Description:     s.desc,
			Category:        s.category,
			Priority:        priority,
			Status:          status,
			Date:            date,
			Time:            clock,
			DueDate:         day(s.dueInDays),
			DurationMinutes: 120,
			Location:        model.Location{Unit: s.unit, Building: "Building A"},
			AssignedTo:      technicians[rnd.Intn(len(technicians))],
			Resident:        model.Resident{Name: s.resident, Phone: s.phone},
			Details: model.Details{WorkOrder: &model.WorkOrderDetails{
				PermissionToEnter: rnd.Intn(2) == 0,
				PetsInUnit:        rnd.Intn(4) == 0,
			}},
			Timeline: model.Timeline{
				{ID: s.id + "-assigned", Date: model.FormatDay(created), Time: "09:15", Type: "assigned",
					Message: "Assigned to maintenance team", Actor: "System"},
				{ID: s.id + "-submitted", Date: model.FormatDay(created), Time: "08:30", Type: model.EntryCreated,
					Message: "Work order submitted by resident", Actor: s.resident},
			},
			CreatedAt: created,
			UpdatedAt: created,
		})
	}

	out = append(out,
		model.Event{
			ID: "EV-msg-1", Kind: model.KindMessage, Title: "Message from Management",
			Description: "Please submit your lease renewal documents by Friday",
			Category:    "Management", Priority: model.PriorityMedium, Status: model.StatusScheduled,
			Date: today, Time: "10:30",
			Details: model.Details{Message: &model.MessageDetails{
				From: "Management", RecipientType: model.RecipientManagement, Subject: "Lease renewal documents",
			}},
		},
		model.Event{
			ID: "EV-lease-1", Kind: model.KindLease, Title: "Lease Renewal",
			Description: "New rent: $1,550/month starting March 1st",
			Category:    "Lease", Priority: model.PriorityHigh, Status: model.StatusScheduled,
			Date: today, Time: "11:00", DueDate: day(2),
			Location: model.Location{Unit: "204", Building: "Building A"},
			Details:  model.Details{Lease: &model.LeaseDetails{NewRent: 1550, TermMonths: 12}},
		},
		model.Event{
			ID: "EV-community-1", Kind: model.KindCommunity, Title: "Rooftop BBQ Social",
			Description: "Community event - RSVP required",
			Category:    "Community Event", Priority: model.PriorityLow, Status: model.StatusScheduled,
			Date: day(1), Time: "14:00",
			Details: model.Details{Community: &model.CommunityDetails{
				CalendarID: "local", UID: "rooftop-bbq", InstanceKey: day(1), Location: "Rooftop", RSVP: true,
			}},
		},
		model.Event{
			ID: "EV-hvac-1", Kind: model.KindService, Title: "HVAC Maintenance",
			Description: "Filter replacement scheduled",
			Category:    "Work Order", Priority: model.PriorityMedium, Status: model.StatusScheduled,
			Date: day(2), Time: "09:00",
			Location: model.Location{Unit: "204", Building: "Building A"},
			Details:  model.Details{Service: &model.ServiceDetails{ServiceType: "hvac", Provider: technicians[rnd.Intn(len(technicians))]}},
		},
	)

	for i, unit := range []string{"305", "612"} {
		out = append(out, model.Event{
			ID: fmt.Sprintf("UT-%s", unit), Kind: model.KindUnitTurn, Title: "Unit Turn - " + unit,
			Description: "Make-ready between residents",
			Category:    "Unit Turn", Priority: model.PriorityHigh, Status: model.StatusSubmitted,
			DueDate:  day(3 + i*4),
			Location: model.Location{Unit: unit, Building: "Building A"},
			Details: model.Details{UnitTurn: &model.UnitTurnDetails{
				MoveOutDate: day(-1 + i*4),
				MoveInDate:  day(3 + i*4),
				Tasks: []model.Task{
					{ID: unit + "-paint", Title: "Paint touch-up"},
					{ID: unit + "-clean", Title: "Deep clean"},
					{ID: unit + "-inspect", Title: "Final inspection"},
				},
			}},
			CreatedAt: now.AddDate(0, 0, -1-rnd.Intn(3)),
		})
	}
	return out, nil
}

func (m Mock) Suggestions(ctx context.Context) ([]model.Suggestion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := m.now()
	return []model.Suggestion{
		{ID: "SG-pest", Title: "Pest Control", Description: "Quarterly pest control treatment",
			Type: "Service", Priority: model.PriorityLow, DurationMinutes: 60},
		{ID: "SG-filter", Title: "Replace Air Filter", Description: "HVAC filter is due for replacement",
			Type: "Maintenance", Priority: model.PriorityMedium, Unit: "204", Building: "Building A",
			DueDate: model.FormatDay(now.AddDate(0, 0, 7)), DurationMinutes: 30},
		{ID: "SG-package", Title: "Package Pickup", Description: "You have a package at the front desk",
			Type: "Package", Priority: model.PriorityMedium, DurationMinutes: 15},
		{ID: "SG-renewal", Title: "Lease Renewal Review", Description: "Review your renewal offer",
			Type: "Lease", Priority: model.PriorityHigh, DueDate: model.FormatDay(now.AddDate(0, 0, 14))},
		{ID: "SG-yoga", Title: "Community Yoga", Description: "Saturday morning yoga on the lawn",
			Type: "Community", Priority: model.PriorityLow, DurationMinutes: 60},
	}, nil
}

// Seed loads p into st. Events the store rejects are logged and skipped.
func Seed(ctx context.Context, p Provider, st *store.Store) error {
	events, err := p.Events(ctx)
	if err != nil {
		return fmt.Errorf("load events: %w", err)
	}
	added := 0
	for _, e := range events {
		ev, err := model.NormalizeLegacy(e)
		if err != nil {
			appLog.Warn("seed event skipped", "event_id", e.ID, "err", err)
			continue
		}
		if _, err := st.Add(ev); err != nil {
			appLog.Warn("seed event skipped", "event_id", e.ID, "err", err)
			continue
		}
		added++
	}

	sugs, err := p.Suggestions(ctx)
	if err != nil {
		return fmt.Errorf("load suggestions: %w", err)
	}
	for _, sg := range sugs {
		st.AddSuggestion(sg)
	}
	appLog.Info("store seeded", "events", added, "suggestions", len(sugs))
	return nil
}
