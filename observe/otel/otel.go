package otel

import (
	"time"

	"github.com/NetPo4ki/scopecore/ctx"
)

// Nop is a no-op scope.Observer. It serves as a placeholder for an
// OpenTelemetry-backed observer without adding an SDK dependency to the
// core module.
type Nop struct{}

// NewNop returns a no-op observer.
func NewNop() *Nop { return &Nop{} }

// ScopeCreated is a no-op.
func (*Nop) ScopeCreated(ctx.Ctx) {}

// ScopeCancelled is a no-op.
func (*Nop) ScopeCancelled(ctx.Ctx, error) {}

// ScopeTerminated is a no-op.
func (*Nop) ScopeTerminated(ctx.Ctx, time.Duration) {}

// TaskStarted is a no-op.
func (*Nop) TaskStarted(ctx.Ctx) {}

// TaskFinished is a no-op.
func (*Nop) TaskFinished(ctx.Ctx, time.Duration, error) {}
