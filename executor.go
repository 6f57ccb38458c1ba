package connpool

import (
	"context"

	"github.com/alitto/pond/v2"
)

// Executor is a single-threaded task runner that a Conn is permanently bound
// to. All mutations of that Conn — health checks, handler callbacks,
// ownership-tag swaps, Close — happen on its Executor so that two goroutines
// can never race on the same connection's internal state.
//
// Go has no goroutine-local storage and no notion of "the current thread",
// so IsCurrent is answered with a context marker instead: the instant a
// submitted closure starts running, Run stamps the context handed to it with
// this Executor's identity. Anything downstream that receives that same
// context and calls Run again on the same Executor sees the marker and runs
// inline instead of re-submitting and blocking.
//
// The work queue itself is a single-worker github.com/alitto/pond/v2 pool —
// pond.NewPool(1) — which guarantees strict FIFO, one-at-a-time execution,
// the same guarantee a Netty-style single-threaded EventExecutor makes.
type Executor struct {
	workers pond.Pool
}

type executorMarkerKey struct{}

// NewExecutor returns a new Executor with its own dedicated worker.
func NewExecutor() *Executor {
	return &Executor{workers: pond.NewPool(1)}
}

// IsCurrent reports whether ctx was produced by this Executor's own Run —
// i.e. whether code is already running on this Executor's worker.
func (e *Executor) IsCurrent(ctx context.Context) bool {
	marker, _ := ctx.Value(executorMarkerKey{}).(*Executor)
	return marker == e
}

func withExecutorMarker(ctx context.Context, e *Executor) context.Context {
	return context.WithValue(ctx, executorMarkerKey{}, e)
}

// Run executes fn on e: inline, if ctx shows the caller is already running
// on e, otherwise trampolined through e's single worker. Run blocks the
// calling goroutine until fn returns, but never blocks the worker on
// anything but fn itself, so ordering across unrelated Executors is never
// affected by one Executor being busy.
func (e *Executor) Run(ctx context.Context, fn func(ctx context.Context)) {
	if e.IsCurrent(ctx) {
		fn(ctx)
		return
	}

	marked := withExecutorMarker(ctx, e)
	done := make(chan struct{})
	e.workers.Submit(func() {
		defer close(done)
		fn(marked)
	})
	<-done
}

// Go submits fn to run on e without waiting for completion. Used for
// fire-and-forget bookkeeping (e.g. logging) that must not delay the caller.
func (e *Executor) Go(ctx context.Context, fn func(ctx context.Context)) {
	if e.IsCurrent(ctx) {
		fn(ctx)
		return
	}
	marked := withExecutorMarker(ctx, e)
	e.workers.Submit(func() { fn(marked) })
}

// Close stops accepting new work and waits for any in-flight task to finish.
// Safe to call more than once.
func (e *Executor) Close() {
	e.workers.StopAndWait()
}
