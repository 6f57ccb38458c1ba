// Package tracelog provides the structured-logging facade connpool's Pool
// writes its lifecycle events through: connect failures, health-check
// failures, and release and canceled-acquire problems.
package tracelog

import (
	"context"
	"errors"
	"fmt"
)

// LogLevel represents the connpool logging level. The zero value means no
// level was specified.
type LogLevel int

const (
	LogLevelTrace = LogLevel(6)
	LogLevelDebug = LogLevel(5)
	LogLevelInfo  = LogLevel(4)
	LogLevelWarn  = LogLevel(3)
	LogLevelError = LogLevel(2)
	LogLevelNone  = LogLevel(1)
)

func (ll LogLevel) String() string {
	switch ll {
	case LogLevelTrace:
		return "trace"
	case LogLevelDebug:
		return "debug"
	case LogLevelInfo:
		return "info"
	case LogLevelWarn:
		return "warn"
	case LogLevelError:
		return "error"
	case LogLevelNone:
		return "none"
	default:
		return fmt.Sprintf("invalid level %d", ll)
	}
}

// Logger is the interface used to get log output from connpool.
type Logger interface {
	// Log a message at the given level with data key/value pairs. data may
	// be nil. ctx is whatever was passed to the Pool operation that
	// triggered the log line (context.Background() for the release the pool
	// starts itself after a canceled acquire), already carrying the Executor
	// marker if the call happened on one — a Logger that wants request-scoped fields can
	// pull them from ctx the same way zerolog.Ctx does.
	Log(ctx context.Context, level LogLevel, msg string, data map[string]any)
}

// LoggerFunc is a wrapper around a function to satisfy the Logger interface.
type LoggerFunc func(ctx context.Context, level LogLevel, msg string, data map[string]any)

func (f LoggerFunc) Log(ctx context.Context, level LogLevel, msg string, data map[string]any) {
	f(ctx, level, msg, data)
}

// NopLogger discards everything. It is the default when Options.Logger is
// left nil.
var NopLogger Logger = LoggerFunc(func(context.Context, LogLevel, string, map[string]any) {})

// LogLevelFromString converts a log level string to its constant.
//
// Valid levels: trace, debug, info, warn, error, none.
func LogLevelFromString(s string) (LogLevel, error) {
	switch s {
	case "trace":
		return LogLevelTrace, nil
	case "debug":
		return LogLevelDebug, nil
	case "info":
		return LogLevelInfo, nil
	case "warn":
		return LogLevelWarn, nil
	case "error":
		return LogLevelError, nil
	case "none":
		return LogLevelNone, nil
	default:
		return 0, errors.New("invalid log level")
	}
}
