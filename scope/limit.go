package scope

import (
	"context"

	"golang.org/x/sync/semaphore"

	goctx "github.com/NetPo4ki/scopecore/ctx"
)

// Limiter bounds concurrent tasks within a scope. Acquire blocks until a
// slot is free or stdctx is done.
type Limiter interface {
	Acquire(stdctx context.Context) error
	Release()
}

// weightedLimiter adapts golang.org/x/sync/semaphore.Weighted, which gives
// us fair, cancellation-aware acquisition that a hand-rolled buffered
// channel semaphore cannot: Acquire unblocks the instant stdctx is done
// instead of leaving a goroutine parked on a full channel.
type weightedLimiter struct {
	sem *semaphore.Weighted
}

func newWeightedLimiter(n int) Limiter {
	if n <= 0 {
		return nil
	}
	return &weightedLimiter{sem: semaphore.NewWeighted(int64(n))}
}

func (l *weightedLimiter) Acquire(stdctx context.Context) error {
	return l.sem.Acquire(stdctx, 1)
}

func (l *weightedLimiter) Release() {
	l.sem.Release(1)
}

// acquire blocks on lim (if non-nil) until a slot frees up or c is
// cancelled. A nil lim means unbounded concurrency.
func acquire(lim Limiter, c goctx.Ctx) error {
	if lim == nil {
		return nil
	}
	return lim.Acquire(c.StdContext())
}
