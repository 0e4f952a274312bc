package log

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(LevelWarn)
	t.Cleanup(func() { SetLevel(LevelInfo) })

	Info("hidden")
	Debug("hidden too")
	Warn("shown", "event_id", "WO-1")
	Error("failed", errors.New("boom"), "event_id", "WO-2")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[WARN] shown event_id=WO-1")
	assert.Contains(t, out, "[ERROR] failed err=boom event_id=WO-2")
}

func TestFormatKVs(t *testing.T) {
	got := formatKVs("title", "Pest Control", "count", 3, 42, "skipped", "odd")
	assert.Equal(t, ` title="Pest Control" count=3`, got)
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"warning": LevelWarn,
		"error":   LevelError,
		"bogus":   LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), in)
	}
	assert.True(t, strings.HasPrefix(string(ParseLevel(" debug ")), "DEBUG"))
}
