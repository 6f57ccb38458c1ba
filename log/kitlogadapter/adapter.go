package kitlogadapter

import (
	"context"

	"github.com/go-kit/kit/log"
	kitlevel "github.com/go-kit/kit/log/level"
	"github.com/lattice-run/connpool/tracelog"
)

type Logger struct {
	l log.Logger
}

func NewLogger(l log.Logger) *Logger {
	return &Logger{l: l}
}

func (l *Logger) Log(ctx context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
	var logger log.Logger
	if data != nil {
		logger = log.With(l.l, data)
	} else {
		logger = l.l
	}

	switch level {
	case tracelog.LogLevelTrace:
		// Trace still decorates through kitlevel like every other branch,
		// so Trace lines get the same level-filterable structure as Debug
		// rather than escaping it.
		kitlevel.Debug(logger).Log("connpool_level", level, "msg", msg)
	case tracelog.LogLevelDebug:
		kitlevel.Debug(logger).Log("msg", msg)
	case tracelog.LogLevelInfo:
		kitlevel.Info(logger).Log("msg", msg)
	case tracelog.LogLevelWarn:
		kitlevel.Warn(logger).Log("msg", msg)
	case tracelog.LogLevelError:
		kitlevel.Error(logger).Log("msg", msg)
	default:
		kitlevel.Error(logger).Log("connpool_level", level, "msg", msg)
	}
}
