package scope

import (
	"time"

	"github.com/NetPo4ki/scopecore/ctx"
)

// Observer receives scope and task lifecycle events for metrics and
// tracing. Scope calls these synchronously from the goroutine where the
// event occurs; implementations must be safe for concurrent use and
// should not block.
type Observer interface {
	ScopeCreated(c ctx.Ctx)
	ScopeCancelled(c ctx.Ctx, cause error)
	ScopeTerminated(c ctx.Ctx, wait time.Duration)
	TaskStarted(c ctx.Ctx)
	TaskFinished(c ctx.Ctx, dur time.Duration, err error)
}

// NopObserver implements Observer with no-op methods. It is the zero value
// used whenever no Observer option is supplied.
type NopObserver struct{}

func (NopObserver) ScopeCreated(ctx.Ctx)                       {}
func (NopObserver) ScopeCancelled(ctx.Ctx, error)              {}
func (NopObserver) ScopeTerminated(ctx.Ctx, time.Duration)     {}
func (NopObserver) TaskStarted(ctx.Ctx)                        {}
func (NopObserver) TaskFinished(ctx.Ctx, time.Duration, error) {}
