// Package store owns the in-memory event collection and exposes the typed
// scheduling operations on it.
package store

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"propcal/internal/lifecycle"
	appLog "propcal/internal/log"
	"propcal/internal/model"
	"propcal/internal/notify"
	"propcal/internal/slot"
)

var (
	ErrNotFound     = errors.New("event not found")
	ErrExists       = errors.New("event id already exists")
	ErrDuplicate    = errors.New("event already exists at that date and time")
	ErrInvalidEvent = errors.New("invalid event")
)

// Change is published to subscribers after every accepted mutation so
// views can re-bucket the event.
type Change struct {
	Action lifecycle.Action // empty for Add / ReplaceKind
	Before *model.Event     // nil when the event is new
	After  model.Event
}

// Store is safe for concurrent use. Stored events are never modified in
// place: every mutation swaps in a new value, so events returned to
// callers stay valid snapshots.
type Store struct {
	mu          sync.RWMutex
	events      map[string]model.Event
	order       []string
	suggestions map[string]model.Suggestion
	sugOrder    []string

	subMu  sync.Mutex
	subs   map[int]func(Change)
	nextID int

	notifier notify.Notifier
	now      func() time.Time
	newID    func() string
}

type Option func(*Store)

func WithNotifier(n notify.Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDs overrides id generation for events and timeline entries.
func WithIDs(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

func New(opts ...Option) *Store {
	s := &Store{
		events:      make(map[string]model.Event),
		suggestions: make(map[string]model.Suggestion),
		subs:        make(map[int]func(Change)),
		notifier:    notify.Discard{},
		now:         time.Now,
		newID:       uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Notify sends n to the store's notifier, for rejections raised before a
// transition reaches the store.
func (s *Store) Notify(n notify.Notice) { s.notifier.Notify(n) }

// Now returns the store clock.
func (s *Store) Now() time.Time { return s.now() }

// Subscribe registers fn for changes and returns a function removing it.
// fn runs after the store lock is released.
func (s *Store) Subscribe(fn func(Change)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) publish(changes ...Change) {
	s.subMu.Lock()
	fns := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, c := range changes {
		for _, fn := range fns {
			fn(c)
		}
	}
}

// Add inserts a new event. Missing id, status and timestamps are filled
// in, and messages get their expected reply time.
func (s *Store) Add(e model.Event) (model.Event, error) {
	if e.ID == "" {
		e.ID = s.newID()
	}
	if e.Status == "" {
		e.Status = model.StatusSubmitted
	}
	if e.Priority == "" {
		e.Priority = model.PriorityMedium
	}
	now := s.now()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	e = e.WithExpectedReply(e.CreatedAt)
	if e.Time != "" {
		t, err := slot.NormalizeClock(e.Time)
		if err != nil {
			return model.Event{}, err
		}
		e.Time = t
	}
	if err := e.Validate(); err != nil {
		return model.Event{}, err
	}

	s.mu.Lock()
	if _, ok := s.events[e.ID]; ok {
		s.mu.Unlock()
		return model.Event{}, fmt.Errorf("%w: %s", ErrExists, e.ID)
	}
	if e.Scheduled() && !e.IsTerminal() {
		if dup, ok := s.findDuplicateLocked(e.Key(), ""); ok {
			s.mu.Unlock()
			return model.Event{}, fmt.Errorf("%w: %q is already scheduled at %s (%s)", ErrDuplicate, e.Title, e.Time, dup)
		}
	}
	e = e.Clone()
	s.events[e.ID] = e
	s.order = append(s.order, e.ID)
	s.mu.Unlock()

	appLog.Debug("event added", "event_id", e.ID, "kind", e.Kind, "status", e.Status)
	s.publish(Change{After: e})
	return e.Clone(), nil
}

// Get returns a copy of the event.
func (s *Store) Get(id string) (model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[id]
	if !ok {
		return model.Event{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e.Clone(), nil
}

// List returns copies of all events matching keep (nil keeps all) in
// insertion order.
func (s *Store) List(keep func(model.Event) bool) []model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Event, 0, len(s.order))
	for _, id := range s.order {
		e := s.events[id]
		if keep == nil || keep(e) {
			out = append(out, e.Clone())
		}
	}
	return out
}

// Len is the number of stored events.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// BookingsOn returns the booked intervals on date. Cancelled events and
// events without a time do not occupy the calendar.
func (s *Store) BookingsOn(date string) []slot.Interval {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []slot.Interval
	for _, id := range s.order {
		e := s.events[id]
		if e.Status == model.StatusCancelled || !model.SameDay(e.Date, date) {
			continue
		}
		if iv, ok := e.Interval(); ok {
			out = append(out, iv)
		}
	}
	return out
}

func (s *Store) findDuplicateLocked(key model.DuplicateKey, skipID string) (string, bool) {
	for _, id := range s.order {
		if id == skipID {
			continue
		}
		e := s.events[id]
		if e.Status == model.StatusCancelled {
			continue
		}
		if e.Title == key.Title && e.Time == key.Time && model.SameDay(e.Date, key.Date) {
			return id, true
		}
	}
	return "", false
}

// ReplaceKind swaps every event of kind for events, e.g. after a
// community calendar refresh. Events of other kinds are untouched.
func (s *Store) ReplaceKind(kind model.Kind, events []model.Event) error {
	now := s.now()
	fresh := make([]model.Event, 0, len(events))
	for _, e := range events {
		if e.Kind != kind {
			return fmt.Errorf("%w: want %s, got %s", model.ErrKindMismatch, kind, e.Kind)
		}
		if e.ID == "" {
			e.ID = s.newID()
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now
		}
		e.UpdatedAt = now
		if err := e.Validate(); err != nil {
			return fmt.Errorf("replace %s: event %s: %w", kind, e.ID, err)
		}
		fresh = append(fresh, e.Clone())
	}

	s.mu.Lock()
	order := s.order[:0:0]
	for _, id := range s.order {
		if s.events[id].Kind == kind {
			delete(s.events, id)
			continue
		}
		order = append(order, id)
	}
	changes := make([]Change, 0, len(fresh))
	for _, e := range fresh {
		if _, ok := s.events[e.ID]; ok {
			continue
		}
		s.events[e.ID] = e
		order = append(order, e.ID)
		changes = append(changes, Change{After: e.Clone()})
	}
	s.order = order
	s.mu.Unlock()

	appLog.Info("events replaced", "kind", kind, "count", len(changes))
	s.publish(changes...)
	return nil
}

// AddSuggestion offers a suggestion card. Re-adding an id replaces the
// card but keeps its state.
func (s *Store) AddSuggestion(sg model.Suggestion) model.Suggestion {
	if sg.ID == "" {
		sg.ID = s.newID()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.suggestions[sg.ID]; ok {
		sg.State = prev.State
	} else {
		s.sugOrder = append(s.sugOrder, sg.ID)
	}
	if sg.State == "" {
		sg.State = model.SuggestionPending
	}
	s.suggestions[sg.ID] = sg
	return sg
}

// Suggestion returns a suggestion card by id.
func (s *Store) Suggestion(id string) (model.Suggestion, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sg, ok := s.suggestions[id]
	return sg, ok
}

// Suggestions lists cards in the given states (all when none given).
func (s *Store) Suggestions(states ...model.SuggestionState) []model.Suggestion {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Suggestion, 0, len(s.sugOrder))
	for _, id := range s.sugOrder {
		sg := s.suggestions[id]
		if len(states) == 0 || slices.Contains(states, sg.State) {
			out = append(out, sg)
		}
	}
	return out
}

func (s *Store) setSuggestionStateLocked(id string, st model.SuggestionState) {
	if id == "" {
		return
	}
	if sg, ok := s.suggestions[id]; ok {
		sg.State = st
		s.suggestions[id] = sg
	}
}
