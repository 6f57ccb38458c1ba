package connpool

import "context"

// Handler is the pool's callback set. Every callback is
// invoked on the affected connection's bound Executor, so implementations
// may touch connection-local state without their own locking.
//
// A callback may return an error (the Go stand-in for "may throw"); the
// orchestrator wraps it in a *HandlerError, closes the affected connection,
// and fails the in-flight Acquire/Release with it.
type Handler interface {
	// OnCreated is invoked once, as the last step of a successful
	// ConnectFunc call, before the caller observes the connection.
	OnCreated(ctx context.Context, c Conn) error

	// OnAcquired is invoked after a successful health check (or
	// immediately after OnCreated, for a freshly connected Conn), before
	// the Acquire promise completes.
	OnAcquired(ctx context.Context, c Conn) error

	// OnReleased is invoked after the connection has been returned to the
	// idle store, or discarded because the release-time health check
	// failed, before the Release promise completes.
	OnReleased(ctx context.Context, c Conn) error
}

// NopHandler implements Handler with no-ops. It is the zero value used when
// Options.Handler is left nil.
type NopHandler struct{}

func (NopHandler) OnCreated(ctx context.Context, c Conn) error  { return nil }
func (NopHandler) OnAcquired(ctx context.Context, c Conn) error { return nil }
func (NopHandler) OnReleased(ctx context.Context, c Conn) error { return nil }
