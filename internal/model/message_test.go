package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseWindow(t *testing.T) {
	tests := []struct {
		recipient string
		want      time.Duration
	}{
		{RecipientMaintenance, 4 * time.Hour},
		{RecipientLeasing, time.Hour},
		{RecipientManagement, 2 * time.Hour},
		{" Leasing ", time.Hour},
		{"", 2 * time.Hour},
		{"concierge", 2 * time.Hour},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ResponseWindow(tt.recipient), tt.recipient)
	}
}

func TestWithExpectedReply(t *testing.T) {
	sent := time.Date(2025, 6, 10, 9, 15, 0, 0, time.UTC)
	in := Event{ID: "m", Kind: KindMessage, Title: "Dishwasher noise",
		Details: Details{Message: &MessageDetails{RecipientType: RecipientMaintenance}}}

	out := in.WithExpectedReply(sent)
	require.NotNil(t, out.Details.Message)
	assert.Equal(t, sent.Add(4*time.Hour), out.Details.Message.ExpectedReply)
	assert.True(t, in.Details.Message.ExpectedReply.IsZero(), "input details untouched")

	// an existing reply time is kept
	again := out.WithExpectedReply(sent.Add(time.Hour))
	assert.Equal(t, out.Details.Message.ExpectedReply, again.Details.Message.ExpectedReply)

	wo := Event{ID: "w", Kind: KindWorkOrder, Details: DetailsFor(KindWorkOrder)}
	assert.Equal(t, wo, wo.WithExpectedReply(sent))
}
