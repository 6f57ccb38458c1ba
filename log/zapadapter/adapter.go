// Package zapadapter provides a logger that writes to a go.uber.org/zap.Logger.
package zapadapter

import (
	"context"

	"github.com/lattice-run/connpool/tracelog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger struct {
	logger *zap.Logger
}

func NewLogger(logger *zap.Logger) *Logger {
	return &Logger{logger: logger.WithOptions(zap.AddCallerSkip(1))}
}

func (pl *Logger) Log(ctx context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
	var zlevel zapcore.Level
	switch level {
	case tracelog.LogLevelNone:
		return
	case tracelog.LogLevelError:
		zlevel = zap.ErrorLevel
	case tracelog.LogLevelWarn:
		zlevel = zap.WarnLevel
	case tracelog.LogLevelInfo:
		zlevel = zap.InfoLevel
	case tracelog.LogLevelDebug, tracelog.LogLevelTrace:
		zlevel = zap.DebugLevel
	default:
		zlevel = zap.DebugLevel
	}

	if ce := pl.logger.Check(zlevel, msg); ce != nil {
		fields := make([]zap.Field, 0, len(data))
		for k, v := range data {
			fields = append(fields, zap.Any(k, v))
		}
		ce.Write(fields...)
	}
}
