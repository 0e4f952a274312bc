// Package weather supplies the current conditions shown in the dashboard
// header.
package weather

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Conditions is the JSON shape of /api/weather.
type Conditions struct {
	Condition   string    `json:"condition"`
	Temperature int       `json:"temperature"` // Fahrenheit
	ObservedAt  time.Time `json:"observedAt"`
}

// Reader obtains current conditions.
type Reader interface {
	Read(ctx context.Context) (Conditions, error)
}

var (
	mockConditions   = []string{"Sunny", "Cloudy", "Partly Cloudy", "Clear"}
	mockTemperatures = []int{68, 70, 72, 74, 76}
)

// Mock picks conditions at random. It stands in until a real weather feed
// is configured.
type Mock struct {
	mu  sync.Mutex
	rnd *rand.Rand
	now func() time.Time
}

// NewMock seeds the generator; seed 0 uses the current time.
func NewMock(seed int64) *Mock {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Mock{rnd: rand.New(rand.NewSource(seed)), now: time.Now}
}

func (m *Mock) Read(_ context.Context) (Conditions, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Conditions{
		Condition:   mockConditions[m.rnd.Intn(len(mockConditions))],
		Temperature: mockTemperatures[m.rnd.Intn(len(mockTemperatures))],
		ObservedAt:  m.now(),
	}, nil
}

// DefaultTTL bounds how often the underlying reader is consulted.
const DefaultTTL = 30 * time.Second

// Cached wraps a Reader and serves the last reading until it is older
// than TTL. A failed refresh returns the error and keeps the old value.
type Cached struct {
	Reader Reader
	TTL    time.Duration
	Now    func() time.Time

	mu      sync.RWMutex
	last    Conditions
	fetched time.Time
	ok      bool
}

func NewCached(r Reader, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cached{Reader: r, TTL: ttl, Now: time.Now}
}

func (c *Cached) Read(ctx context.Context) (Conditions, error) {
	now := c.Now()

	c.mu.RLock()
	if c.ok && now.Sub(c.fetched) < c.TTL {
		v := c.last
		c.mu.RUnlock()
		return v, nil
	}
	c.mu.RUnlock()

	v, err := c.Reader.Read(ctx)
	if err != nil {
		return Conditions{}, err
	}

	c.mu.Lock()
	c.last, c.fetched, c.ok = v, now, true
	c.mu.Unlock()
	return v, nil
}
