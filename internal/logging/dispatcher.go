package logging

import (
	"fmt"

	"github.com/rs/zerolog"
)

// badKey labels a trailing value that has no key, as slog does.
const badKey = "!BADKEY"

// DispatcherLogger adapts zerolog.Logger to the dispatcher.Logger interface.
// Entries carry component=dispatcher.
type DispatcherLogger struct {
	logger zerolog.Logger
}

// NewDispatcherLogger scopes logger to the command dispatcher.
func NewDispatcherLogger(logger zerolog.Logger) *DispatcherLogger {
	return &DispatcherLogger{logger: logger.With().Str("component", "dispatcher").Logger()}
}

func (l *DispatcherLogger) Debug(msg string, keysAndValues ...any) {
	l.logger.Debug().Fields(toFields(keysAndValues)).Msg(msg)
}

func (l *DispatcherLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Info().Fields(toFields(keysAndValues)).Msg(msg)
}

// Error logs at error level. An "error" value is rendered with zerolog's
// error marshaller.
func (l *DispatcherLogger) Error(msg string, keysAndValues ...any) {
	l.logger.Error().Fields(toFields(keysAndValues)).Msg(msg)
}

// toFields pairs up keys and values. Non-string keys are formatted with
// fmt.Sprint and a dangling last element is kept under badKey.
func toFields(keysAndValues []any) map[string]any {
	fields := make(map[string]any, (len(keysAndValues)+1)/2)
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 == len(keysAndValues) {
			fields[badKey] = keysAndValues[i]
			break
		}
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		fields[key] = keysAndValues[i+1]
	}
	return fields
}
