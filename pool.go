package connpool

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/lattice-run/connpool/tracelog"
)

// Options configures a Pool. Only Connect is required; everything else
// defaults to LIFO selection, a release-time health check, no handler, the
// built-in health checker, and no idle-store cap.
//
// The conventional defaults are release-time health checking and LIFO
// selection; here they are spelled as their Go zero-value-is-the-common-case
// opposites (SkipReleaseHealthCheck, FIFO) so a caller who wants the usual
// behavior does not have to set anything.
type Options struct {
	// Connect produces a new connection. Required.
	Connect ConnectFunc

	// Config is cloned and passed to Connect/ConnectChannel on every
	// factory invocation. May be nil if the ConnectFunc does not need one.
	Config Config

	// Handler receives OnCreated/OnAcquired/OnReleased notifications.
	// Defaults to NopHandler.
	Handler Handler

	// HealthCheck is the predicate used on every acquire, and on release
	// unless SkipReleaseHealthCheck is set. Defaults to a checker backed by
	// Conn.Alive via github.com/alexliesenfeld/health.
	HealthCheck HealthChecker

	// SkipReleaseHealthCheck disables the release-time health check
	// (inverted from the conventional default-on behavior for a useful
	// zero value).
	SkipReleaseHealthCheck bool

	// FIFO selects least-recently-released connections on acquire instead
	// of the default most-recently-released (inverted from the
	// conventional default-LIFO behavior for a useful zero value).
	FIFO bool

	// Logger receives structured events for connect failures, failed
	// acquire-time health checks, misused, declined or unhealthy releases,
	// and acquires canceled after a connection was produced. Successful
	// creation, acquire, release and Close are not logged. Defaults to a
	// no-op logger.
	Logger tracelog.Logger

	// ConnectChannel, PollIdle, and OfferIdle are the three overridable
	// capabilities a subclass would hook in an inheritance-based design;
	// here they're a capability bundle instead. Leave nil to use the
	// built-in behavior.
	ConnectChannel func(ctx context.Context, cfg Config) (Conn, error)
	PollIdle       func() Conn
	OfferIdle      func(c Conn) bool
}

// Pool orchestrates acquire/release, executor trampolining, health checks,
// and handler callbacks over a set of Conns.
type Pool struct {
	opts   Options
	idle   idleStore
	logger tracelog.Logger

	states sync.Map // Conn -> *connState

	acquireCount atomic.Int64

	closeOnce sync.Once
	closed    atomic.Bool
}

// New constructs a Pool. The pool does no I/O and creates no connections
// until the first Acquire; there is no minimum pool size in this spec.
func New(opts Options) *Pool {
	if opts.Handler == nil {
		opts.Handler = NopHandler{}
	}
	if opts.HealthCheck == nil {
		opts.HealthCheck = defaultHealthChecker{}
	}
	if opts.Logger == nil {
		opts.Logger = tracelog.NopLogger
	}
	p := &Pool{opts: opts, logger: opts.Logger}
	if opts.ConnectChannel == nil {
		p.opts.ConnectChannel = opts.Connect
	}
	if opts.PollIdle == nil {
		p.opts.PollIdle = p.defaultPollIdle
	}
	if opts.OfferIdle == nil {
		p.opts.OfferIdle = p.defaultOfferIdle
	}
	return p
}

// Stat is a snapshot of pool statistics. No metrics/tracing integration is
// provided (Non-goal); this is purely a momentary read.
type Stat struct {
	Idle int

	// TotalAcquireCount counts every successful hand-off of a Conn to a
	// caller since the pool was constructed, across both the connect path
	// and the idle-store reuse path. It never decreases.
	TotalAcquireCount int64
}

// Stat returns a snapshot of the idle store's current size and the
// cumulative number of connections handed out so far.
func (p *Pool) Stat() Stat {
	return Stat{Idle: p.idle.len(), TotalAcquireCount: p.acquireCount.Load()}
}

func (p *Pool) defaultPollIdle() Conn {
	if p.opts.FIFO {
		return p.idle.popFront()
	}
	return p.idle.popBack()
}

func (p *Pool) defaultOfferIdle(c Conn) bool {
	p.idle.pushBack(c)
	return true
}

func (p *Pool) stateFor(c Conn) *connState {
	v, _ := p.states.LoadOrStore(c, &connState{})
	return v.(*connState)
}

func (p *Pool) forgetState(c Conn) {
	p.states.Delete(c)
}

// Acquire produces a connection whose bound executor is ready and whose last
// health check returned true. It blocks the calling goroutine
// until that happens, ctx is canceled, or an unrecoverable error occurs; it
// is sugar over AcquireInto + AcquireFuture.Wait.
func (p *Pool) Acquire(ctx context.Context) (Conn, error) {
	fut := NewAcquireFuture()
	p.AcquireInto(ctx, fut)
	conn, err := fut.Wait(ctx)
	if err != nil {
		return nil, wrapErrIfDeadline(err)
	}
	return conn, nil
}

// AcquireInto starts an acquire and returns immediately; fut completes
// asynchronously. If the caller cancels ctx (observed via fut.Wait's own
// ctx.Done case, or any other caller of fut.Wait/trySucceed racing a
// cancellation), a connection produced after that point is released back to
// the pool rather than leaked.
func (p *Pool) AcquireInto(ctx context.Context, fut *AcquireFuture) {
	if p.closed.Load() {
		fut.tryFail(ErrClosedPool)
		return
	}
	go p.runAcquire(ctx, fut)
}

func (p *Pool) runAcquire(ctx context.Context, fut *AcquireFuture) {
	for {
		cand := p.opts.PollIdle()
		if cand == nil {
			p.acquireViaConnect(ctx, fut)
			return
		}

		st := p.stateFor(cand)
		exec := cand.Executor()

		var healthy bool
		var acquiredErr error
		exec.Run(ctx, func(ctx context.Context) {
			if err := p.opts.HealthCheck.Healthy(ctx, cand); err != nil {
				p.logf(ctx, tracelog.LogLevelDebug, "health check failed on acquire", map[string]any{"err": err})
				healthy = false
				return
			}
			healthy = true
			st.tag.claim(p)
			acquiredErr = p.opts.Handler.OnAcquired(ctx, cand)
		})

		if !healthy {
			p.closeConn(ctx, cand)
			continue
		}
		if acquiredErr != nil {
			closeErr := p.closeConn(ctx, cand)
			fut.tryFail(linkErrors(&HandlerError{Callback: "OnAcquired", Err: acquiredErr}, closeErr))
			return
		}
		p.completeOrReturn(cand, fut)
		return
	}
}

func (p *Pool) acquireViaConnect(ctx context.Context, fut *AcquireFuture) {
	cfg := p.opts.Config
	if cfg != nil {
		cfg = cfg.Clone()
	}

	conn, err := p.opts.ConnectChannel(ctx, cfg)
	if err != nil {
		p.logf(ctx, tracelog.LogLevelError, "connect failed", map[string]any{"err": err})
		fut.tryFail(&ConnectError{Err: wrapErrIfDeadline(err)})
		return
	}

	st := p.stateFor(conn)
	var createdErr error
	conn.Executor().Run(ctx, func(ctx context.Context) {
		createdErr = p.opts.Handler.OnCreated(ctx, conn)
	})
	if createdErr != nil {
		closeErr := p.closeConn(ctx, conn)
		fut.tryFail(linkErrors(&HandlerError{Callback: "OnCreated", Err: createdErr}, closeErr))
		return
	}
	st.created.Store(true)

	var acquiredErr error
	conn.Executor().Run(ctx, func(ctx context.Context) {
		st.tag.claim(p)
		acquiredErr = p.opts.Handler.OnAcquired(ctx, conn)
	})
	if acquiredErr != nil {
		closeErr := p.closeConn(ctx, conn)
		fut.tryFail(linkErrors(&HandlerError{Callback: "OnAcquired", Err: acquiredErr}, closeErr))
		return
	}

	p.completeOrReturn(conn, fut)
}

// completeOrReturn tries to hand conn to fut; if the caller already gave up
// on fut, conn is released back to the pool instead of leaked.
func (p *Pool) completeOrReturn(conn Conn, fut *AcquireFuture) {
	if fut.trySucceed(conn) {
		p.acquireCount.Add(1)
		return
	}
	p.logf(context.Background(), tracelog.LogLevelDebug, "acquire canceled after connection produced; releasing", nil)
	relFut := NewReleaseFuture()
	p.ReleaseInto(context.Background(), conn, relFut)
}

// closeConn removes conn from the idle store, clears its ownership tag, and
// closes it on its own Executor, returning whatever error Close produced so
// the caller can link it onto the error that triggered the close (see
// linkErrors) instead of discarding it.
func (p *Pool) closeConn(ctx context.Context, conn Conn) error {
	p.idle.remove(conn)
	var closeErr error
	conn.Executor().Run(ctx, func(ctx context.Context) {
		p.stateFor(conn).tag.clear()
		closeErr = conn.Close(ctx)
	})
	p.forgetState(conn)
	return closeErr
}

// Release returns conn to the pool for reuse, or closes it if the pool
// declines it. It blocks until the release completes or ctx
// is done; it is sugar over ReleaseInto + ReleaseFuture.Wait.
func (p *Pool) Release(ctx context.Context, conn Conn) error {
	fut := NewReleaseFuture()
	p.ReleaseInto(ctx, conn, fut)
	return wrapErrIfDeadline(fut.Wait(ctx))
}

// ReleaseInto starts a release and returns immediately; fut completes
// asynchronously.
func (p *Pool) ReleaseInto(ctx context.Context, conn Conn, fut *ReleaseFuture) {
	go p.runRelease(ctx, conn, fut)
}

func (p *Pool) runRelease(ctx context.Context, conn Conn, fut *ReleaseFuture) {
	exec := conn.Executor()
	st := p.stateFor(conn)

	var priorOwner *Pool
	exec.Run(ctx, func(ctx context.Context) {
		priorOwner = st.tag.release()
	})

	if priorOwner != p {
		p.logf(ctx, tracelog.LogLevelError, "misused release", map[string]any{"owned_by_this_pool": priorOwner == p})
		closeErr := p.closeConn(ctx, conn)
		fut.complete(linkErrors(ErrMisusedRelease, closeErr))
		return
	}

	if !p.opts.SkipReleaseHealthCheck {
		var herr error
		exec.Run(ctx, func(ctx context.Context) {
			herr = p.opts.HealthCheck.Healthy(ctx, conn)
		})
		if herr != nil {
			// Unhealthy on release: report success and fire OnReleased, but
			// do not return conn to the idle store and do not explicitly
			// close it here; it is discarded on the assumption its channel
			// is already broken.
			p.logf(ctx, tracelog.LogLevelDebug, "unhealthy on release; discarding", nil)
			p.finishRelease(ctx, conn, fut)
			return
		}
	}

	if !p.opts.OfferIdle(conn) {
		p.logf(ctx, tracelog.LogLevelError, "pool declined released connection", nil)
		closeErr := p.closeConn(ctx, conn)
		fut.complete(linkErrors(ErrPoolFull, closeErr))
		return
	}

	p.finishRelease(ctx, conn, fut)
}

func (p *Pool) finishRelease(ctx context.Context, conn Conn, fut *ReleaseFuture) {
	var herr error
	conn.Executor().Run(ctx, func(ctx context.Context) {
		herr = p.opts.Handler.OnReleased(ctx, conn)
	})
	if herr != nil {
		closeErr := p.closeConn(ctx, conn)
		fut.complete(linkErrors(&HandlerError{Callback: "OnReleased", Err: herr}, closeErr))
		return
	}
	fut.complete(nil)
}

// Close drains the idle store and closes every idle connection. It does not
// affect connections currently held by callers.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		for _, c := range p.idle.drain() {
			p.closeConn(context.Background(), c)
		}
	})
}

func (p *Pool) logf(ctx context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
	p.logger.Log(ctx, level, msg, data)
}
