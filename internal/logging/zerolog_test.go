package logging

import (
	"bytes"
	"testing"

	"github.com/Graylog2/go-gelf/gelf"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseZerologLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseZerologLevel(tt.input))
		})
	}
}

func TestNewZerolog_FileAndGraylog(t *testing.T) {
	var file, graylog bytes.Buffer
	log := NewZerolog(&file, "info", &graylog)

	log.Debug().Msg("filtered")
	log.Info().Str("engine", "sqlite").Msg("Connected")

	assert.NotContains(t, file.String(), "filtered")
	assert.Contains(t, file.String(), "Connected")
	assert.Contains(t, file.String(), "engine=sqlite")
	assert.Contains(t, graylog.String(), `"message":"Connected"`)
}

func TestNewZerolog_ConsoleFallback(t *testing.T) {
	console := captureConsole(t)
	log := NewZerolog(nil, "debug", nil)
	log.Debug().Msg("to console")
	assert.Contains(t, console.String(), "to console")
}

func TestNewGraylogWriter(t *testing.T) {
	r, err := gelf.NewReader("127.0.0.1:0")
	require.NoError(t, err)

	w, err := NewGraylogWriter(r.Addr(), "wishbone")
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })
	assert.Equal(t, "wishbone", w.Facility)

	_, err = w.Write([]byte("suspension built"))
	require.NoError(t, err)

	msg, err := r.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "suspension built", msg.Short)
	assert.Equal(t, "wishbone", msg.Facility)
}
