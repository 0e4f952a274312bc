package model

// SuggestionState tracks a suggestion card from offer to completion.
type SuggestionState string

const (
	SuggestionPending   SuggestionState = "pending"
	SuggestionScheduled SuggestionState = "scheduled"
	SuggestionCompleted SuggestionState = "completed"
)

// Suggestion is an unscheduled candidate task offered for drag and drop
// placement on the calendar.
type Suggestion struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Description     string          `json:"description,omitempty"`
	Type            string          `json:"type"`
	Priority        Priority        `json:"priority"`
	Unit            string          `json:"unit,omitempty"`
	Building        string          `json:"building,omitempty"`
	DueDate         string          `json:"dueDate,omitempty"`
	DurationMinutes int             `json:"durationMinutes,omitempty"`
	State           SuggestionState `json:"state"`
}

// Kind maps the loose suggestion type onto an event kind. Unknown types
// become service bookings.
func (s Suggestion) Kind() Kind {
	k, err := ParseKind(s.Type)
	if err != nil {
		return KindService
	}
	return k
}

// ToEvent builds the unscheduled event for a dropped card. Placement is
// applied afterwards by the schedule transition.
func (s Suggestion) ToEvent(id string) Event {
	kind := s.Kind()
	details := DetailsFor(kind)
	if kind == KindService {
		details.Service.ServiceType = s.Type
	}
	pr := s.Priority
	if pr.Rank() == 0 {
		pr = PriorityMedium
	}
	return Event{
		ID:              id,
		Kind:            kind,
		Title:           s.Title,
		Description:     s.Description,
		Category:        s.Type,
		Priority:        pr,
		Status:          StatusSubmitted,
		DueDate:         s.DueDate,
		DurationMinutes: s.DurationMinutes,
		Location:        Location{Unit: s.Unit, Building: s.Building},
		SuggestionID:    s.ID,
		Details:         details,
	}
}
