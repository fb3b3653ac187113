package logging

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// parseZerologLevel converts a string log level to zerolog.Level.
func parseZerologLevel(level string) zerolog.Level {
	switch strings.ToUpper(level) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "WARN":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewZerolog builds the logger used by the database and Influx managers.
// It writes console format to file (or the console when file is nil) and
// raw JSON to graylog when set.
func NewZerolog(file io.Writer, level string, graylog io.Writer) zerolog.Logger {
	out := file
	noColor := true
	if out == nil {
		out = consoleOut
		noColor = false
	}

	writers := []io.Writer{
		zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    noColor,
		},
	}
	if graylog != nil {
		writers = append(writers, graylog)
	}

	return zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(parseZerologLevel(level)).
		With().Timestamp().Logger()
}
