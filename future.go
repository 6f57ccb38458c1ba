package connpool

import (
	"context"
	"sync"

	"github.com/lattice-run/connpool/internal/ctxwatch"
)

// AcquireFuture is a single-shot promise: completed exactly once with either
// a Conn or an error, with cancellation by the caller observable by whoever
// is racing to complete it.
//
// AcquireFuture is used directly by AcquireInto for callers that want a
// non-blocking handle; Acquire itself is sugar that creates one, submits it,
// and Waits.
type AcquireFuture struct {
	done    chan struct{}
	watcher *ctxwatch.ContextWatcher

	mu        sync.Mutex
	conn      Conn
	err       error
	completed bool
	canceled  bool
}

// NewAcquireFuture returns a fresh, incomplete AcquireFuture.
func NewAcquireFuture() *AcquireFuture {
	f := &AcquireFuture{done: make(chan struct{})}
	f.watcher = ctxwatch.NewContextWatcher(func() { f.markCanceled() }, func() {})
	return f
}

// trySucceed completes the future with conn. It returns false if the future
// was already completed or already observed as canceled — the caller must
// then treat conn as having nowhere to go and release it back to the pool
// rather than leak it.
func (f *AcquireFuture) trySucceed(conn Conn) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.completed || f.canceled {
		return false
	}
	f.completed = true
	f.conn = conn
	close(f.done)
	return true
}

// tryFail completes the future with err. Returns false only if the future
// was already completed; unlike trySucceed, it still completes a future
// that was observed as canceled.
func (f *AcquireFuture) tryFail(err error) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.completed {
		return false
	}
	f.completed = true
	f.err = err
	close(f.done)
	return true
}

// markCanceled records that the caller gave up on this future before it
// completed. It is a no-op, returning false, if the future had already
// completed by the time the cancellation was observed — in that case
// whichever goroutine completed it first wins and the Conn (if any) is
// already on its way to the caller, not orphaned.
func (f *AcquireFuture) markCanceled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.completed {
		return false
	}
	f.canceled = true
	return true
}

// Wait blocks until the future completes or ctx is done, whichever comes
// first. A ctx-done return does not mean the underlying Acquire stopped
// running — it may still complete later, at which point the produced
// connection (if any) is released back to the pool instead of handed to
// nobody.
//
// Cancellation detection is delegated to an internal ContextWatcher so that
// the future's canceled flag is set the instant ctx is done, independent of
// whether this goroutine is the one that observes <-ctx.Done() first.
//
// Unlike the teacher's per-Conn, many-Watch-cycles-over-its-lifetime use of
// ContextWatcher, an AcquireFuture is single-shot: it is watched exactly
// once. Wait therefore tears the watcher down with Stop rather than Unwatch
// once this single cycle is over, closing its watchChan so the background
// goroutine watch() spawns on first Watch exits instead of blocking forever
// on the next range iteration.
func (f *AcquireFuture) Wait(ctx context.Context) (Conn, error) {
	f.watcher.Watch(ctx)
	defer f.watcher.Stop()

	select {
	case <-f.done:
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.conn, f.err
	case <-ctx.Done():
		f.markCanceled()
		return nil, ctx.Err()
	}
}

// Canceled reports whether the caller gave up on this future before it
// completed and nothing has completed it since; a failure recorded after
// the cancellation makes it report false.
func (f *AcquireFuture) Canceled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.canceled && !f.completed
}

// ReleaseFuture is the single-shot promise completed by Release.
type ReleaseFuture struct {
	done chan struct{}

	mu        sync.Mutex
	err       error
	completed bool
}

// NewReleaseFuture returns a fresh, incomplete ReleaseFuture.
func NewReleaseFuture() *ReleaseFuture {
	return &ReleaseFuture{done: make(chan struct{})}
}

func (f *ReleaseFuture) complete(err error) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.completed {
		return false
	}
	f.completed = true
	f.err = err
	close(f.done)
	return true
}

// Wait blocks until the future completes or ctx is done.
func (f *ReleaseFuture) Wait(ctx context.Context) error {
	select {
	case <-f.done:
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
