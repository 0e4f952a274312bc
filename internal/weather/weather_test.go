package weather

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMock(t *testing.T) {
	m := NewMock(42)
	for range 20 {
		c, err := m.Read(context.Background())
		require.NoError(t, err)
		assert.Contains(t, mockConditions, c.Condition)
		assert.Contains(t, mockTemperatures, c.Temperature)
	}
}

type countingReader struct {
	calls int
	err   error
}

func (r *countingReader) Read(context.Context) (Conditions, error) {
	r.calls++
	if r.err != nil {
		return Conditions{}, r.err
	}
	return Conditions{Condition: "Clear", Temperature: 70 + r.calls}, nil
}

func TestCached_TTL(t *testing.T) {
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	r := &countingReader{}
	c := NewCached(r, 0)
	c.Now = func() time.Time { return now }
	ctx := context.Background()

	first, err := c.Read(ctx)
	require.NoError(t, err)
	now = now.Add(29 * time.Second)
	second, err := c.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, r.calls)

	now = now.Add(2 * time.Second)
	third, err := c.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, 72, third.Temperature)
	assert.Equal(t, 2, r.calls)
}

func TestCached_Error(t *testing.T) {
	r := &countingReader{err: errors.New("offline")}
	c := NewCached(r, time.Minute)
	_, err := c.Read(context.Background())
	assert.Error(t, err)
}
