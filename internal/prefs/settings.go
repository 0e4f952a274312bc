package prefs

import (
	"errors"
	"fmt"
	"slices"
)

// Keys under which settings objects are stored.
const (
	KeyNotifications = "notificationSettings"
	KeyGestures      = "swipeGesturePreferences"
)

var (
	ErrUnknownKey     = errors.New("unknown preference key")
	ErrInvalidGesture = errors.New("invalid gesture action")
)

type EmailSettings struct {
	WorkOrders        bool `json:"workOrders"`
	MoveIns           bool `json:"moveIns"`
	MoveOuts          bool `json:"moveOuts"`
	Emergencies       bool `json:"emergencies"`
	DailyReports      bool `json:"dailyReports"`
	WeeklyReports     bool `json:"weeklyReports"`
	MaintenanceAlerts bool `json:"maintenanceAlerts"`
	LeaseRenewals     bool `json:"leaseRenewals"`
}

type SMSSettings struct {
	Emergencies      bool `json:"emergencies"`
	UrgentWorkOrders bool `json:"urgentWorkOrders"`
	MoveInReminders  bool `json:"moveInReminders"`
	ImportantUpdates bool `json:"importantUpdates"`
}

type PushSettings struct {
	NewMessages   bool `json:"newMessages"`
	TaskReminders bool `json:"taskReminders"`
	MeetingAlerts bool `json:"meetingAlerts"`
	SystemUpdates bool `json:"systemUpdates"`
}

type DesktopSettings struct {
	IncomingCalls     bool `json:"incomingCalls"`
	NewEmails         bool `json:"newEmails"`
	CalendarReminders bool `json:"calendarReminders"`
	SystemAlerts      bool `json:"systemAlerts"`
}

// NotificationSettings are the per-channel notification toggles.
type NotificationSettings struct {
	Email   EmailSettings   `json:"email"`
	SMS     SMSSettings     `json:"sms"`
	Push    PushSettings    `json:"push"`
	Desktop DesktopSettings `json:"desktop"`
}

func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{
		Email: EmailSettings{
			WorkOrders: true, MoveIns: true, MoveOuts: true, Emergencies: true,
			DailyReports: false, WeeklyReports: true, MaintenanceAlerts: true, LeaseRenewals: true,
		},
		SMS: SMSSettings{
			Emergencies: true, UrgentWorkOrders: true, MoveInReminders: true, ImportantUpdates: false,
		},
		Push: PushSettings{
			NewMessages: true, TaskReminders: true, MeetingAlerts: true, SystemUpdates: false,
		},
		Desktop: DesktopSettings{
			IncomingCalls: true, NewEmails: false, CalendarReminders: true, SystemAlerts: true,
		},
	}
}

// Gesture maps left and right swipes on a card to actions.
type Gesture struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// GesturePreferences holds one Gesture per card type.
type GesturePreferences struct {
	Payment   Gesture `json:"payment"`
	Service   Gesture `json:"service"`
	Event     Gesture `json:"event"`
	WorkOrder Gesture `json:"workorder"`
	Message   Gesture `json:"message"`
}

func DefaultGesturePreferences() GesturePreferences {
	return GesturePreferences{
		Payment:   Gesture{Left: "remind", Right: "pay"},
		Service:   Gesture{Left: "skip", Right: "schedule"},
		Event:     Gesture{Left: "decline", Right: "accept"},
		WorkOrder: Gesture{Left: "reschedule", Right: "approve"},
		Message:   Gesture{Left: "archive", Right: "reply"},
	}
}

// GestureOptions lists the allowed actions per card type.
var GestureOptions = map[string][]string{
	"payment":   {"remind", "pay", "skip", "view"},
	"service":   {"schedule", "skip", "info", "save"},
	"event":     {"accept", "decline", "maybe", "remind"},
	"workorder": {"approve", "reschedule", "cancel", "comment"},
	"message":   {"reply", "archive", "star", "delete"},
}

// Validate checks every action against GestureOptions.
func (g GesturePreferences) Validate() error {
	cards := []struct {
		name string
		g    Gesture
	}{
		{"payment", g.Payment},
		{"service", g.Service},
		{"event", g.Event},
		{"workorder", g.WorkOrder},
		{"message", g.Message},
	}
	for _, c := range cards {
		opts := GestureOptions[c.name]
		for side, action := range map[string]string{"left": c.g.Left, "right": c.g.Right} {
			if !slices.Contains(opts, action) {
				return fmt.Errorf("%w: %s %s swipe %q", ErrInvalidGesture, c.name, side, action)
			}
		}
	}
	return nil
}
