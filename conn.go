package connpool

import (
	"context"
	"sync/atomic"
)

// Conn is a reusable connection handle owned transiently by either the pool
// (while idle) or exactly one caller (while acquired). It is supplied to the
// pool by a ConnectFunc and is otherwise opaque: connpool never inspects its
// contents, only its bound Executor, its ownership tag, and Alive/Close.
//
// Every mutation of a Conn — its own internal state, its ownership tag, its
// handler callbacks, its health check — must happen on its Executor. Conn
// itself does not enforce that; Pool does, by always going through
// Executor.Run before touching a Conn.
type Conn interface {
	// Executor returns the single-threaded executor this connection is
	// permanently bound to.
	Executor() *Executor

	// Alive reports whether the underlying transport still considers the
	// connection usable. It is called only on Executor(). The default
	// HealthChecker (healthcheck.go) delegates directly to this method.
	Alive(ctx context.Context) error

	// Close releases the underlying transport. It must be idempotent: a
	// Conn may be closed more than once (e.g. once by the pool discarding
	// an unhealthy candidate, and never again because the ownership tag
	// already prevents a second release).
	Close(ctx context.Context) error
}

// ConnectFunc asynchronously produces a new Conn for the given Config, or an
// error. It is invoked by Pool.Acquire whenever the idle store is empty; the
// Config passed is Config.Clone()'d beforehand so the factory may mutate it
// freely.
type ConnectFunc func(ctx context.Context, cfg Config) (Conn, error)

// Config is the per-acquire configuration cloned and handed to ConnectFunc.
// connpool never reads its fields — it only clones it — so the pool stays
// agnostic to whatever transport, address, or credentials a concrete
// implementation carries.
type Config interface {
	// Clone returns a deep copy safe for a ConnectFunc to mutate without
	// affecting the Pool's own configuration or any other in-flight clone.
	Clone() Config
}

// connState is bookkeeping the pool keeps per-Conn, outside of Conn itself so
// that a Conn implementation need not know it is pool-managed. It is stored
// in Pool.states keyed by Conn identity.
type connState struct {
	tag     ownershipTag
	created atomic.Bool // on_created has fired
}
