package observability

import (
	"context"
	"maps"
	"slices"

	"github.com/jackc/pgx/v5/tracelog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// PgxTracer returns a pgx tracer that writes to logger. Query and connect
// events are logged at debug; pgx warnings and errors keep their level. When
// logger has debug disabled only warnings and errors are traced.
//
// Precondition: logger must be non-nil.
func PgxTracer(logger *zap.Logger) *tracelog.TraceLog {
	level := tracelog.LogLevelWarn
	if logger.Core().Enabled(zapcore.DebugLevel) {
		level = tracelog.LogLevelInfo
	}
	return &tracelog.TraceLog{
		Logger:   pgxLogger(logger.With(zap.String("component", "pgx"))),
		LogLevel: level,
	}
}

func pgxLogger(logger *zap.Logger) tracelog.Logger {
	return tracelog.LoggerFunc(func(_ context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
		fields := make([]zap.Field, 0, len(data))
		for _, k := range slices.Sorted(maps.Keys(data)) {
			fields = append(fields, zap.Any(k, data[k]))
		}
		switch level {
		case tracelog.LogLevelError:
			logger.Error(msg, fields...)
		case tracelog.LogLevelWarn:
			logger.Warn(msg, fields...)
		default:
			logger.Debug(msg, fields...)
		}
	})
}
