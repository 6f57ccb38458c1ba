package connpool

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
)

// DeadlineError occurs when an Acquire or Release failed because its context
// was canceled or its deadline passed. Specifically, it is true if err is or
// was caused by a context.Canceled, context.DeadlineExceeded, or an
// implementer of net.Error where Timeout() is true.
type DeadlineError struct {
	Err         error
	isTimeout   bool
	isTemporary bool
}

func (e *DeadlineError) Error() string { return fmt.Sprint("connpool: deadline: " + e.Err.Error()) }

func (e *DeadlineError) Unwrap() error { return e.Err }

func (e *DeadlineError) Temporary() bool { return e.isTemporary }

func (e *DeadlineError) Timeout() bool { return e.isTimeout }

// wrapErrIfDeadline wraps err in a *DeadlineError if it was caused by a
// timeout or context cancellation. Otherwise err is returned unchanged.
func wrapErrIfDeadline(err error) error {
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return &DeadlineError{Err: err, isTimeout: true, isTemporary: netErr.Temporary()}
	}
	if stderrors.Is(err, context.Canceled) {
		return &DeadlineError{Err: err, isTimeout: false, isTemporary: false}
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return &DeadlineError{Err: err, isTimeout: true, isTemporary: false}
	}
	return err
}
