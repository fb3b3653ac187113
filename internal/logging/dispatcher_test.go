package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestDispatcherLogger_Levels(t *testing.T) {
	tests := []struct {
		level string
		log   func(*DispatcherLogger)
	}{
		{"debug", func(l *DispatcherLogger) { l.Debug("test message", "key1", "value1", "key2", 42) }},
		{"info", func(l *DispatcherLogger) { l.Info("test message", "key1", "value1", "key2", 42) }},
		{"error", func(l *DispatcherLogger) { l.Error("test message", "key1", "value1", "key2", 42) }},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			dl := NewDispatcherLogger(zerolog.New(&buf).Level(zerolog.DebugLevel))
			tt.log(dl)

			entry := decodeEntry(t, &buf)
			assert.Equal(t, tt.level, entry["level"])
			assert.Equal(t, "test message", entry["message"])
			assert.Equal(t, "dispatcher", entry["component"])
			assert.Equal(t, "value1", entry["key1"])
			assert.Equal(t, float64(42), entry["key2"])
		})
	}
}

func TestDispatcherLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	dl := NewDispatcherLogger(zerolog.New(&buf).Level(zerolog.InfoLevel))

	dl.Debug("hidden")
	assert.Zero(t, buf.Len())
}

func TestToFields(t *testing.T) {
	tests := []struct {
		name string
		in   []any
		want map[string]any
	}{
		{"empty", nil, map[string]any{}},
		{"pairs", []any{"a", 1, "b", "x"}, map[string]any{"a": 1, "b": "x"}},
		{"dangling key", []any{"a", 1, "b"}, map[string]any{"a": 1, "!BADKEY": "b"}},
		{"non-string key formatted", []any{3, "v", "k", true}, map[string]any{"3": "v", "k": true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, toFields(tt.in))
		})
	}
}

func TestDispatcherLogger_ErrorValue(t *testing.T) {
	var buf bytes.Buffer
	dl := NewDispatcherLogger(zerolog.New(&buf))

	dl.Error("buffered event failed", "command", "record", "error", errors.New("influx down"))

	entry := decodeEntry(t, &buf)
	assert.Equal(t, "record", entry["command"])
	assert.Equal(t, "influx down", entry["error"])
}
