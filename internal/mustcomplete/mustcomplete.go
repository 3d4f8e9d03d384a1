// Package mustcomplete enforces the "must-complete" contract every spawned
// task body and the top-level scope runner are held to: once started, the
// computation must run to a normal return. Go has no way to drop a running
// goroutine out from under its caller the way an async Rust future can be
// dropped mid-poll, so the only ways a wrapped body can fail to reach a
// normal return are an unrecovered panic or a runtime.Goexit. Run treats
// both as the must-complete invariant being violated and aborts the
// process with a diagnostic, rather than letting the condition pass
// silently.
package mustcomplete

import (
	"runtime/debug"

	"go.uber.org/zap"
)

// logger is the process-wide sink for abort diagnostics. It is a package
// variable (not threaded through Run's signature) because must-complete
// violations are, by definition, bugs the caller did not ask to observe —
// there is no code path that recovers from one.
var logger = func() *zap.Logger {
	l, err := zap.NewProduction()
	if err != nil {
		return zap.NewNop()
	}
	return l
}()

// Run executes f and enforces that it reaches a normal return. If f panics,
// the panic is logged with a captured stack trace and then re-raised so the
// Go runtime terminates the process with its native crash report. If f exits
// via runtime.Goexit (so the deferred recover sees no panic value but Run's
// own completion flag was never set), Run logs the same diagnostic and
// forces a process exit, since there is nothing left to re-raise.
func Run(f func()) {
	completed := false
	defer func() {
		if completed {
			return
		}
		r := recover()
		stack := debug.Stack()
		logger.Error("must-complete violated: task dropped before completion",
			zap.Any("panic", r),
			zap.ByteString("stack", stack),
		)
		if r != nil {
			panic(r)
		}
		abort()
	}()
	f()
	completed = true
}

// Call is the value-returning form of Run, used where the wrapped body
// produces a result that the caller needs even when no violation occurs.
func Call[T any](f func() T) T {
	var out T
	Run(func() { out = f() })
	return out
}
