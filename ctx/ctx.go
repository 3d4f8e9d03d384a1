package ctx

import (
	"context"
	"errors"
	"time"
)

// ErrCanceled is returned by Wait, Sleep and WithTimeout when the Ctx they
// were given becomes cancelled before the wrapped operation completes.
var ErrCanceled = errors.New("ctx: canceled")

// Ctx carries a cancellation signal and an optional deadline down a tree of
// running tasks. Ctx is cancelled if it is cancelled directly, if its
// deadline elapses, or if any ancestor is cancelled; cancellation never
// propagates upward. A Ctx is cheap to copy and safe for concurrent use.
//
// Internally Ctx is a thin wrapper around context.Context: the standard
// library's cancellation tree already implements exactly the propagation
// and deadline-composition rules this type needs, so Sub reuses it instead
// of reimplementing a parent/child chain by hand.
type Ctx struct {
	std    context.Context
	cancel context.CancelFunc
}

// Background returns a fresh, never-cancelled-by-ancestor root Ctx with no
// deadline. It is the starting point for a call to scope.Run.
func Background() Ctx {
	std, cancel := context.WithCancel(context.Background())
	return Ctx{std: std, cancel: cancel}
}

// FromStdContext wraps an existing context.Context as a root Ctx, for
// adapters that receive a context.Context from a caller and need to hand
// it into scope.Run. The returned Ctx is cancelled whenever std is done,
// and its Err (by way of its StdContext) reports std's own cancellation
// cause rather than a generic ErrCanceled.
func FromStdContext(std context.Context) Ctx {
	child, cancel := context.WithCancel(std)
	return Ctx{std: child, cancel: cancel}
}

// Sub derives a child Ctx. The child is cancelled when the parent is
// cancelled, when the given deadline elapses, or when Cancel is called on
// the child directly; cancelling the child never cancels the parent. A
// zero deadline means "no deadline" (inherit only the parent's).
func (c Ctx) Sub(deadline time.Time) Ctx {
	var std context.Context
	var cancel context.CancelFunc
	if deadline.IsZero() {
		std, cancel = context.WithCancel(c.std)
	} else {
		std, cancel = context.WithDeadline(c.std, deadline)
	}
	return Ctx{std: std, cancel: cancel}
}

// Cancel cancels c. Idempotent; safe to call more than once or concurrently.
func (c Ctx) Cancel() {
	c.cancel()
}

// IsCancelled is a non-blocking snapshot of whether c is cancelled.
func (c Ctx) IsCancelled() bool {
	select {
	case <-c.std.Done():
		return true
	default:
		return false
	}
}

// Cancelled returns a channel that is closed once c becomes cancelled,
// whether by direct Cancel, deadline, or ancestor cancellation. Once
// closed, it stays closed: every future receive completes immediately.
func (c Ctx) Cancelled() <-chan struct{} {
	return c.std.Done()
}

// Deadline reports c's effective deadline, which is the minimum of its own
// and every ancestor's deadline, if any is set.
func (c Ctx) Deadline() (time.Time, bool) {
	return c.std.Deadline()
}

// Err returns ErrCanceled if c is cancelled, nil otherwise.
func (c Ctx) Err() error {
	if c.IsCancelled() {
		return ErrCanceled
	}
	return nil
}

// StdContext returns the context.Context backing c, for interop with
// standard-library and third-party APIs (e.g. semaphore.Weighted.Acquire)
// that only understand that shape. Cancelling the returned context has the
// same effect as cancelling c directly.
func (c Ctx) StdContext() context.Context {
	return c.std
}

// Wait runs f to completion on its own goroutine and returns its result,
// unless c is cancelled first, in which case Wait returns ErrCanceled
// immediately without waiting for f. f is never forcibly stopped — Ctx has
// no way to drop a running computation, so a cancelled Wait leaves f
// running in the background to completion. This is what makes operations
// built on Wait (notably JoinHandle.Join) cancel-safe: the caller can walk
// away on cancellation while the underlying work is still retrievable
// through an equivalent handle.
func Wait[T any](c Ctx, f func() (T, error)) (T, error) {
	type result struct {
		val T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := f()
		done <- result{val: v, err: err}
	}()
	select {
	case r := <-done:
		return r.val, r.err
	case <-c.Cancelled():
		var zero T
		return zero, ErrCanceled
	}
}

// Sleep blocks for d or until c is cancelled, whichever happens first.
func Sleep(c Ctx, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-c.Cancelled():
		return ErrCanceled
	}
}

// WithTimeout runs f under a child of c that is cancelled no later than d
// from now, returning ErrCanceled if the timeout (or c itself) elapses
// before f completes. Defined directly in terms of Sub and Wait.
func WithTimeout[T any](c Ctx, d time.Duration, f func() (T, error)) (T, error) {
	sub := c.Sub(time.Now().Add(d))
	defer sub.Cancel()
	return Wait(sub, f)
}
