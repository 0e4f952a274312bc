package slot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWindow(t *testing.T) {
	w, err := ParseWindow("9:00 AM", "17:00")
	require.NoError(t, err)
	assert.Equal(t, Window{Open: 540, Close: 1020}, w)

	_, err = ParseWindow("17:00", "09:00")
	assert.ErrorIs(t, err, ErrInvalidTime)
}

func TestNextBusinessSlot(t *testing.T) {
	w := Window{Open: 9 * 60, Close: 17 * 60}

	tests := []struct {
		name     string
		now      int
		today    []Interval
		tomorrow []Interval
		duration int
		want     Placement
	}{
		{
			name:     "before opening starts at open",
			now:      7*60 + 12,
			duration: 60,
			want:     Placement{DayOffset: 0, Start: 9 * 60},
		},
		{
			name:     "rounds up to the next hour",
			now:      10*60 + 1,
			duration: 60,
			want:     Placement{DayOffset: 0, Start: 11 * 60},
		},
		{
			name:     "on the hour keeps the hour",
			now:      13 * 60,
			duration: 60,
			want:     Placement{DayOffset: 0, Start: 13 * 60},
		},
		{
			name:     "skips a conflicting booking",
			now:      10*60 + 30,
			today:    BookingIntervals([]int{11 * 60}, 60),
			duration: 60,
			want:     Placement{DayOffset: 0, Start: 12 * 60},
		},
		{
			name:     "after closing rolls to tomorrow",
			now:      17*60 + 5,
			duration: 120,
			want:     Placement{DayOffset: 1, Start: 9 * 60},
		},
		{
			name:     "tomorrow respects bookings",
			now:      16*60 + 30,
			tomorrow: BookingIntervals([]int{9 * 60}, 60),
			duration: 120,
			want:     Placement{DayOffset: 1, Start: 10 * 60},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := w.NextBusinessSlot(tt.now, tt.today, tt.tomorrow, tt.duration)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNextBusinessSlot_TooLong(t *testing.T) {
	w := Window{Open: 9 * 60, Close: 10 * 60}
	_, err := w.NextBusinessSlot(0, nil, nil, 120)
	assert.ErrorIs(t, err, ErrDurationTooLong)
}
