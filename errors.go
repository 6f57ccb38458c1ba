package connpool

import (
	errors "golang.org/x/xerrors"
)

// ErrMisusedRelease occurs when Release is called with a connection that is
// not currently owned by the pool it was called on — either because it was
// acquired from a different Pool, or because it was already released once.
var ErrMisusedRelease = errors.New("connpool: connection not owned by this pool")

// ErrPoolFull occurs when OfferIdle declines to accept a released connection
// back into the idle store.
var ErrPoolFull = errors.New("connpool: pool declined released connection")

// ErrCancelled names the case of a caller's Acquire/Release context being
// canceled before the operation completed. The pool itself never returns
// it: AcquireFuture.Wait and ReleaseFuture.Wait return ctx.Err() in that
// case, and the blocking Acquire/Release helpers wrap that in a
// *DeadlineError.
var ErrCancelled = errors.New("connpool: operation canceled")

// ErrClosedPool occurs when Acquire is called after Close.
var ErrClosedPool = errors.New("connpool: pool is closed")

// ConnectError wraps an error returned by a ConnectFunc. Acquire surfaces it
// to the caller unchanged.
type ConnectError struct {
	Err error
}

func (e *ConnectError) Error() string { return "connpool: connect failed: " + e.Err.Error() }
func (e *ConnectError) Unwrap() error { return e.Err }

// HandlerError wraps an error returned by a Handler callback
// (OnCreated/OnAcquired/OnReleased). The orchestrator closes the affected
// connection and fails the in-flight operation with this error. A panic in
// a callback is not recovered.
type HandlerError struct {
	Callback string
	Err      error
}

func (e *HandlerError) Error() string {
	return "connpool: handler." + e.Callback + " failed: " + e.Err.Error()
}
func (e *HandlerError) Unwrap() error { return e.Err }

// linkedError connects two errors as if err wrapped next, without requiring
// next to already be reachable through err's own Unwrap chain. Used to
// attach a close error observed while failing an operation for an unrelated
// reason (e.g. MisusedRelease plus a failure to Close the misused conn).
type linkedError struct {
	err  error
	next error
}

func (le *linkedError) Error() string { return le.err.Error() }

func (le *linkedError) Is(target error) bool {
	return errors.Is(le.err, target)
}

func (le *linkedError) As(target any) bool {
	return errors.As(le.err, target)
}

func (le *linkedError) Unwrap() error { return le.next }

// linkErrors connects outer and inner as if outer wrapped inner. If either is
// nil the other is returned unchanged.
func linkErrors(outer, inner error) error {
	if outer == nil {
		return inner
	}
	if inner == nil {
		return outer
	}
	return &linkedError{err: outer, next: inner}
}
