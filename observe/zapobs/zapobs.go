// Package zapobs adapts scope.Observer to go.uber.org/zap, logging scope
// and task lifecycle events at the level appropriate to their severity:
// routine starts/finishes at debug, cancellation and task errors at warn.
package zapobs

import (
	"time"

	"go.uber.org/zap"

	"github.com/NetPo4ki/scopecore/ctx"
)

// Observer logs scope.Observer events through a *zap.Logger.
type Observer struct {
	log *zap.Logger
}

// New returns an Observer that logs through log. A nil log falls back to
// zap.NewNop(), so New(nil) is a safe default.
func New(log *zap.Logger) *Observer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Observer{log: log}
}

// ScopeCreated logs scope creation at debug.
func (o *Observer) ScopeCreated(ctx.Ctx) {
	o.log.Debug("scope created")
}

// ScopeCancelled logs the cancellation cause at warn.
func (o *Observer) ScopeCancelled(_ ctx.Ctx, cause error) {
	o.log.Warn("scope cancelled", zap.Error(cause))
}

// ScopeTerminated logs termination and how long it took to reach at debug.
func (o *Observer) ScopeTerminated(_ ctx.Ctx, wait time.Duration) {
	o.log.Debug("scope terminated", zap.Duration("wait", wait))
}

// TaskStarted logs task start at debug.
func (o *Observer) TaskStarted(ctx.Ctx) {
	o.log.Debug("task started")
}

// TaskFinished logs task completion at debug, or warn if err is non-nil.
func (o *Observer) TaskFinished(_ ctx.Ctx, dur time.Duration, err error) {
	if err != nil {
		o.log.Warn("task failed", zap.Duration("dur", dur), zap.Error(err))
		return
	}
	o.log.Debug("task finished", zap.Duration("dur", dur))
}
