package scope

import (
	"errors"

	"github.com/NetPo4ki/scopecore/ctx"
)

// ErrTerminated is returned by JoinHandle.Join, TrySpawn, and any re-entrant
// call against an already-terminated Service when a task did not produce a
// value because the scope or service that owned it terminated first.
var ErrTerminated = errors.New("scope: terminated")

// cell is a single-write, multi-read result slot: the task-local analogue
// of signal.Once with a payload attached. It backs JoinHandle so that
// Join/JoinErr can be called more than once, from more than one goroutine,
// without consuming the handle.
type cell[T any, E error] struct {
	done chan struct{}
	val  T
	ok   bool
	in   *inner[E]
}

func newCell[T any, E error]() *cell[T, E] {
	return &cell[T, E]{done: make(chan struct{})}
}

func (c *cell[T, E]) set(val T, ok bool, in *inner[E]) {
	c.val, c.ok, c.in = val, ok, in
	close(c.done)
}

// JoinHandle is a cancel-safe handle to a spawned task's eventual result.
type JoinHandle[T any, E error] struct {
	cell *cell[T, E]
}

// joinRaw awaits the task unconditionally, returning ErrTerminated if the
// task never produced a value because its scope terminated first.
func (h JoinHandle[T, E]) joinRaw() (T, error) {
	<-h.cell.done
	if h.cell.ok {
		return h.cell.val, nil
	}
	var zero T
	return zero, ErrTerminated
}

// joinErrRaw is like joinRaw but surfaces the scope's recorded error
// instead of ErrTerminated.
func (h JoinHandle[T, E]) joinErrRaw() (T, error) {
	<-h.cell.done
	if h.cell.ok {
		return h.cell.val, nil
	}
	var zero T
	e, has := h.cell.in.cloneErr()
	if !has {
		return zero, ErrTerminated
	}
	return zero, e
}

// Join awaits the task's completion, returning its value on success or
// ErrTerminated if its scope terminated before it produced one. If callerCtx
// is cancelled first, Join returns ctx.ErrCanceled without affecting the
// underlying task, which keeps running and can still be observed through an
// equivalent handle (e.g. a JoinHandle obtained from the same spawn call).
func (h JoinHandle[T, E]) Join(callerCtx ctx.Ctx) (T, error) {
	return ctx.Wait(callerCtx, h.joinRaw)
}

// JoinErr is like Join but, on scope termination, returns the scope's
// recorded error instead of ErrTerminated.
func (h JoinHandle[T, E]) JoinErr(callerCtx ctx.Ctx) (T, error) {
	return ctx.Wait(callerCtx, h.joinErrRaw)
}
