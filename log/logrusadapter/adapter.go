// Package logrusadapter provides a logger that writes to a github.com/sirupsen/logrus.Logger
// log.
package logrusadapter

import (
	"context"

	"github.com/lattice-run/connpool/tracelog"
	"github.com/sirupsen/logrus"
)

type Logger struct {
	l *logrus.Logger
}

func NewLogger(l *logrus.Logger) *Logger {
	return &Logger{l: l}
}

func (l *Logger) Log(ctx context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
	// WithContext rather than discarding ctx: it lets any logrus hook the
	// caller installed (request-id enrichment, span correlation) pull
	// values out of the same context connpool stamped with its Executor
	// marker, without this adapter needing to know what those hooks want.
	var logger logrus.FieldLogger = l.l.WithContext(ctx)
	if data != nil {
		logger = logger.WithFields(data)
	}

	switch level {
	case tracelog.LogLevelTrace:
		logger.WithField("CONNPOOL_LOG_LEVEL", level).Debug(msg)
	case tracelog.LogLevelDebug:
		logger.Debug(msg)
	case tracelog.LogLevelInfo:
		logger.Info(msg)
	case tracelog.LogLevelWarn:
		logger.Warn(msg)
	case tracelog.LogLevelError:
		logger.Error(msg)
	default:
		logger.WithField("INVALID_CONNPOOL_LOG_LEVEL", level).Error(msg)
	}
}
