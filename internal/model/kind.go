package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind is the closed set of schedulable record types.
type Kind string

const (
	KindWorkOrder Kind = "work-order"
	KindMessage   Kind = "message"
	KindLease     Kind = "lease"
	KindCommunity Kind = "community-event"
	KindUnitTurn  Kind = "unit-turn"
	KindService   Kind = "service"
)

var Kinds = []Kind{KindWorkOrder, KindMessage, KindLease, KindCommunity, KindUnitTurn, KindService}

var (
	ErrKindMismatch = errors.New("event details do not match kind")
	ErrUnknownKind  = errors.New("unknown kind")
)

// ParseKind also accepts the loose type names used by suggestion cards
// ("maintenance", "tour", "amenity", ...).
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "work-order", "workorder", "work order", "maintenance", "repair":
		return KindWorkOrder, nil
	case "message", "management":
		return KindMessage, nil
	case "lease", "renewal", "lease renewal":
		return KindLease, nil
	case "community-event", "community", "community event", "event", "tour", "social":
		return KindCommunity, nil
	case "unit-turn", "turn", "move-out", "move-in":
		return KindUnitTurn, nil
	case "service", "amenity", "package", "delivery", "cleaning":
		return KindService, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// WorkOrderDetails holds maintenance request fields.
type WorkOrderDetails struct {
	PermissionToEnter bool   `json:"permissionToEnter"`
	PetsInUnit        bool   `json:"petsInUnit"`
	AccessNotes       string `json:"accessNotes,omitempty"`
	Vendor            string `json:"vendor,omitempty"`
}

// MessageDetails holds a message thread entry shown on the schedule.
type MessageDetails struct {
	From          string    `json:"from"`
	RecipientType string    `json:"recipientType"` // Recipient* constants
	Subject       string    `json:"subject,omitempty"`
	Read          bool      `json:"read"`
	ExpectedReply time.Time `json:"expectedReply,omitzero"`
}

// LeaseDetails holds renewal offers and lease milestones.
type LeaseDetails struct {
	LeaseEnd   string `json:"leaseEnd,omitempty"`
	NewRent    int    `json:"newRent,omitempty"`
	TermMonths int    `json:"termMonths,omitempty"`
}

// CommunityDetails identifies a community calendar occurrence.
type CommunityDetails struct {
	CalendarID  string `json:"calendarId"`
	UID         string `json:"uid"`
	InstanceKey string `json:"instanceKey"`
	Location    string `json:"location,omitempty"`
	AllDay      bool   `json:"allDay"`
	RSVP        bool   `json:"rsvp"`
}

// UnitTurnDetails tracks make-ready work between residents.
type UnitTurnDetails struct {
	MoveOutDate string `json:"moveOutDate,omitempty"`
	MoveInDate  string `json:"moveInDate,omitempty"`
	Tasks       []Task `json:"tasks,omitempty"`
}

// ServiceDetails covers amenity bookings and recurring services.
type ServiceDetails struct {
	ServiceType string `json:"serviceType"`
	Provider    string `json:"provider,omitempty"`
}

// Task is a checklist item on a unit turn.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Complete    bool      `json:"complete"`
	CompletedBy string    `json:"completedBy,omitempty"`
	CompletedAt time.Time `json:"completedAt,omitzero"`
}

// TaskIndex returns the position of task id on a unit turn, or -1.
func (d Details) TaskIndex(id string) int {
	if d.UnitTurn == nil {
		return -1
	}
	for i, t := range d.UnitTurn.Tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Details is the per-kind payload of an Event. Exactly one field is set,
// and it must match Event.Kind.
type Details struct {
	WorkOrder *WorkOrderDetails `json:"workOrder,omitempty"`
	Message   *MessageDetails   `json:"message,omitempty"`
	Lease     *LeaseDetails     `json:"lease,omitempty"`
	Community *CommunityDetails `json:"community,omitempty"`
	UnitTurn  *UnitTurnDetails  `json:"unitTurn,omitempty"`
	Service   *ServiceDetails   `json:"service,omitempty"`
}

func (d Details) set() []Kind {
	var out []Kind
	if d.WorkOrder != nil {
		out = append(out, KindWorkOrder)
	}
	if d.Message != nil {
		out = append(out, KindMessage)
	}
	if d.Lease != nil {
		out = append(out, KindLease)
	}
	if d.Community != nil {
		out = append(out, KindCommunity)
	}
	if d.UnitTurn != nil {
		out = append(out, KindUnitTurn)
	}
	if d.Service != nil {
		out = append(out, KindService)
	}
	return out
}

// DetailsFor returns an empty payload of the given kind.
func DetailsFor(k Kind) Details {
	switch k {
	case KindWorkOrder:
		return Details{WorkOrder: &WorkOrderDetails{}}
	case KindMessage:
		return Details{Message: &MessageDetails{}}
	case KindLease:
		return Details{Lease: &LeaseDetails{}}
	case KindCommunity:
		return Details{Community: &CommunityDetails{}}
	case KindUnitTurn:
		return Details{UnitTurn: &UnitTurnDetails{}}
	case KindService:
		return Details{Service: &ServiceDetails{}}
	}
	return Details{}
}

func (d Details) clone() Details {
	var out Details
	if d.WorkOrder != nil {
		v := *d.WorkOrder
		out.WorkOrder = &v
	}
	if d.Message != nil {
		v := *d.Message
		out.Message = &v
	}
	if d.Lease != nil {
		v := *d.Lease
		out.Lease = &v
	}
	if d.Community != nil {
		v := *d.Community
		out.Community = &v
	}
	if d.UnitTurn != nil {
		v := *d.UnitTurn
		v.Tasks = append([]Task(nil), d.UnitTurn.Tasks...)
		out.UnitTurn = &v
	}
	if d.Service != nil {
		v := *d.Service
		out.Service = &v
	}
	return out
}
