package scope

import (
	"sync/atomic"
	"time"

	"github.com/NetPo4ki/scopecore/ctx"
	"github.com/NetPo4ki/scopecore/internal/signal"
)

// inner is the per-scope shared record. Its error slot is write-once and
// its terminated signal fires exactly once, after every task the scope
// owns — main, background, and service — has exited.
type inner[E error] struct {
	ctx ctx.Ctx

	mu     chan struct{} // 1-buffered channel used as a non-reentrant mutex
	hasErr bool
	err    E

	terminated *signal.Once
}

func newInner[E error](parent ctx.Ctx) *inner[E] {
	in := &inner[E]{
		ctx:        parent.Sub(time.Time{}),
		mu:         make(chan struct{}, 1),
		terminated: signal.New(),
	}
	in.mu <- struct{}{}
	return in
}

func (in *inner[E]) lock()   { <-in.mu }
func (in *inner[E]) unlock() { in.mu <- struct{}{} }

// register stores err if no error has been recorded yet (first-writer-wins)
// and cancels the scope's Ctx so every descendant observes cancellation. It
// reports whether this call was the one that recorded the error, so the
// caller can fire an observer hook exactly once per scope.
func (in *inner[E]) register(err E) bool {
	in.lock()
	first := !in.hasErr
	if first {
		in.hasErr = true
		in.err = err
	}
	in.unlock()
	in.ctx.Cancel()
	return first
}

// takeErr returns the recorded error, if any, and invalidates the slot.
// Must only be called after terminated has fired.
func (in *inner[E]) takeErr() (E, bool) {
	in.lock()
	defer in.unlock()
	var zero E
	if !in.hasErr {
		return zero, false
	}
	e := in.err
	in.err, in.hasErr = zero, false
	return e, true
}

// cloneErr returns a copy of the recorded error without invalidating it.
// Must only be called after terminated has fired.
func (in *inner[E]) cloneErr() (E, bool) {
	in.lock()
	defer in.unlock()
	return in.err, in.hasErr
}

// ownerGuard is the common capability both terminateGuard and cancelGuard
// provide to spawnOn: something that keeps a scope's Inner alive for as
// long as it is held, and that can be released exactly once.
type ownerGuard[E error] interface {
	in() *inner[E]
	release()
}

// terminateGuard is a strong, many-owner reference to a scope's Inner.
// While any terminateGuard clone is alive, the scope's terminated signal
// has not fired; releasing the last one fires it.
type terminateGuard[E error] struct {
	inner *inner[E]
	count *atomic.Int64
}

func newTerminateGuard[E error](parent ctx.Ctx) *terminateGuard[E] {
	count := new(atomic.Int64)
	count.Store(1)
	return &terminateGuard[E]{inner: newInner[E](parent), count: count}
}

func (g *terminateGuard[E]) in() *inner[E] { return g.inner }

// clone returns a new strong reference, incrementing the shared refcount.
func (g *terminateGuard[E]) clone() *terminateGuard[E] {
	g.count.Add(1)
	return &terminateGuard[E]{inner: g.inner, count: g.count}
}

// release drops this strong reference. If it was the last one, the scope's
// terminated signal fires.
func (g *terminateGuard[E]) release() {
	if g.count.Add(-1) == 0 {
		g.inner.terminated.Send()
	}
}

func (g *terminateGuard[E]) weak() weakTerminateGuard[E] {
	return weakTerminateGuard[E]{inner: g.inner, count: g.count}
}

// weakTerminateGuard does not itself keep the scope alive; it can be
// upgraded to a strong terminateGuard only while the refcount is still
// positive, i.e. while the scope has not yet terminated.
type weakTerminateGuard[E error] struct {
	inner *inner[E]
	count *atomic.Int64
}

func (w weakTerminateGuard[E]) upgrade() (*terminateGuard[E], bool) {
	for {
		c := w.count.Load()
		if c <= 0 {
			return nil, false
		}
		if w.count.CompareAndSwap(c, c+1) {
			return &terminateGuard[E]{inner: w.inner, count: w.count}, true
		}
	}
}

// cancelGuard wraps a single terminateGuard reference (tg's contribution to
// the terminate refcount is exactly one, no matter how many cancelGuard
// clones exist) behind its own independent refcount. When the last
// cancelGuard clone releases, the scope's Ctx is cancelled and the wrapped
// terminateGuard reference is released exactly once.
type cancelGuard[E error] struct {
	tg    *terminateGuard[E]
	count *atomic.Int64
}

func newCancelGuard[E error](tg *terminateGuard[E]) *cancelGuard[E] {
	count := new(atomic.Int64)
	count.Store(1)
	return &cancelGuard[E]{tg: tg, count: count}
}

func (g *cancelGuard[E]) in() *inner[E] { return g.tg.inner }

func (g *cancelGuard[E]) clone() *cancelGuard[E] {
	g.count.Add(1)
	return &cancelGuard[E]{tg: g.tg, count: g.count}
}

func (g *cancelGuard[E]) release() {
	if g.count.Add(-1) == 0 {
		g.tg.inner.ctx.Cancel()
		g.tg.release()
	}
}

func (g *cancelGuard[E]) weak() weakCancelGuard[E] {
	return weakCancelGuard[E]{tg: g.tg, count: g.count}
}

type weakCancelGuard[E error] struct {
	tg    *terminateGuard[E]
	count *atomic.Int64
}

func (w weakCancelGuard[E]) upgrade() (*cancelGuard[E], bool) {
	for {
		c := w.count.Load()
		if c <= 0 {
			return nil, false
		}
		if w.count.CompareAndSwap(c, c+1) {
			return &cancelGuard[E]{tg: w.tg, count: w.count}, true
		}
	}
}
