package scope

import (
	"time"

	"github.com/NetPo4ki/scopecore/ctx"
	"github.com/NetPo4ki/scopecore/internal/mustcomplete"
)

// Options holds optional settings for Run.
type Options struct {
	// Observer receives lifecycle events. It defaults to NopObserver, and
	// WithObserver(nil) leaves that default in place.
	Observer Observer
	// MaxConcurrency bounds concurrent tasks spawned directly on the scope,
	// including the root task, when > 0. Tasks spawned on a service nested
	// in the scope are not bounded by it.
	MaxConcurrency int
	// Timeout applies a relative deadline to the scope when > 0 (ignored if
	// Deadline is also set).
	Timeout time.Duration
	// Deadline applies an absolute deadline to the scope when non-zero.
	Deadline time.Time
}

// Option configures Options at Run time.
type Option func(*Options)

func defaultOptions() Options { return Options{Observer: NopObserver{}} }

// WithObserver attaches an observer for metrics/tracing hooks.
func WithObserver(obs Observer) Option {
	return func(o *Options) {
		if obs != nil {
			o.Observer = obs
		}
	}
}

// WithMaxConcurrency limits the number of concurrently running tasks spawned
// directly on the scope; tasks spawned on services nested in it are not
// limited.
func WithMaxConcurrency(n int) Option { return func(o *Options) { o.MaxConcurrency = n } }

// WithTimeout applies a relative deadline to the scope's Ctx (ignored if
// WithDeadline is also given).
func WithTimeout(d time.Duration) Option { return func(o *Options) { o.Timeout = d } }

// WithDeadline applies an absolute deadline to the scope's Ctx.
func WithDeadline(t time.Time) Option { return func(o *Options) { o.Deadline = t } }

// Scope is the live handle a root task and its children use to spawn
// further tasks and nested services. It does not itself keep the scope
// alive: ownership lives in the guards Run holds privately, and Scope only
// carries weak references to them, so a task that stashes a Scope past its
// own lifetime cannot prevent the scope from terminating.
type Scope[E error] struct {
	weakCancel weakCancelGuard[E]
	weakTerm   weakTerminateGuard[E]
	lim        Limiter
	obs        Observer
}

// Ctx returns the scope's cancellation context.
func (s *Scope[E]) Ctx() ctx.Ctx { return s.weakTerm.inner.ctx }

// Run starts a new scope rooted at a child of parent, runs root as the
// scope's main task, and blocks until the scope terminates: until root has
// returned and every background task and nested service spawned on the
// scope has also exited. It returns root's value on success, or the
// scope's first recorded error (from root or from any main or background
// task spawned on the scope) otherwise. An error returned by a task of a
// service is recorded on that service only (see Service.Terminated) and is
// not returned by Run.
//
// Run is itself must-complete: if the calling goroutine is killed by an
// unrecovered panic or a runtime.Goexit while Run is on the stack, the
// violation is logged and the process aborts, the same guarantee every
// task spawned inside the scope gets.
func Run[T any, E error](parent ctx.Ctx, root func(*Scope[E], ctx.Ctx) (T, E), opts ...Option) (T, E) {
	result := mustcomplete.Call(func() runOutcome[T, E] {
		o := defaultOptions()
		for _, fn := range opts {
			fn(&o)
		}

		var scopeCtx ctx.Ctx
		if !o.Deadline.IsZero() {
			scopeCtx = parent.Sub(o.Deadline)
		} else if o.Timeout > 0 {
			scopeCtx = parent.Sub(time.Now().Add(o.Timeout))
		} else {
			scopeCtx = parent.Sub(time.Time{})
		}

		rootTg := newTerminateGuard[E](scopeCtx)
		cg := newCancelGuard[E](rootTg)

		var lim Limiter
		if o.MaxConcurrency > 0 {
			lim = newWeightedLimiter(o.MaxConcurrency)
		}

		s := &Scope[E]{weakCancel: cg.weak(), weakTerm: rootTg.weak(), lim: lim, obs: o.Observer}
		o.Observer.ScopeCreated(s.Ctx())

		h := spawnOn[T, E](cg.clone(), lim, o.Observer, func(c ctx.Ctx) (T, E) {
			return root(s, c)
		})
		// The constructor's own cancel-guard reference is released once the
		// root task has been handed its own clone; the scope now lives only
		// as long as some task still holds a guard.
		cg.release()

		in := rootTg.in()
		waitStart := time.Now()
		<-in.terminated.Recv()
		o.Observer.ScopeTerminated(s.Ctx(), time.Since(waitStart))

		if e, has := in.cloneErr(); has {
			var zero T
			return runOutcome[T, E]{val: zero, err: e}
		}
		// joinRaw fails here only if root never ran: with a limiter, its
		// acquire fails when the scope's ctx is cancelled (by parent, by a
		// deadline, or through Scope.Ctx) before root gets a slot. Run then
		// returns zero values for both T and E.
		val, joinErr := h.joinRaw()
		if joinErr != nil {
			var zero T
			var zeroE E
			return runOutcome[T, E]{val: zero, err: zeroE}
		}
		var zeroE E
		return runOutcome[T, E]{val: val, err: zeroE}
	})
	return result.val, result.err
}

// runOutcome bundles Run's (value, error) pair so it can flow through
// mustcomplete.Call, whose signature only carries a single type parameter.
type runOutcome[T any, E error] struct {
	val T
	err E
}

// spawnOn is the shared implementation behind Spawn and SpawnBg: it spawns
// f on its own goroutine under a fresh strong reference to owner, tracks
// its result in a JoinHandle, and guarantees the reference is released and
// the scope's error slot updated exactly once, no matter how f exits.
func spawnOn[T any, E error](owner ownerGuard[E], lim Limiter, obs Observer, f func(ctx.Ctx) (T, E)) JoinHandle[T, E] {
	in := owner.in()
	c := newCell[T, E]()

	go mustcomplete.Run(func() {
		released := false
		release := func() {
			if !released {
				released = true
				owner.release()
			}
		}
		defer release()

		if err := acquire(lim, in.ctx); err != nil {
			var zero T
			c.set(zero, false, in)
			return
		}
		if lim != nil {
			defer lim.Release()
		}

		start := time.Now()
		obs.TaskStarted(in.ctx)
		val, errVal := f(in.ctx)
		obs.TaskFinished(in.ctx, time.Since(start), errVal)

		if errVal != nil {
			if first := in.register(errVal); first {
				obs.ScopeCancelled(in.ctx, errVal)
			}
			// Release our own reference before waiting, the same way the
			// nearcore source drops its guard before awaiting terminated:
			// otherwise a failing task that is also the scope's last owner
			// would wait on a signal only itself could fire.
			release()
			<-in.terminated.Recv()
			var zero T
			c.set(zero, false, in)
			return
		}
		c.set(val, true, in)
	})

	return JoinHandle[T, E]{cell: c}
}

// Spawn starts a main task owned by the scope itself: the scope cannot
// terminate until f returns, and if the scope's cancellation guard has
// already been fully released (e.g. Run's root task is unwinding) a new
// main task can no longer be spawned, mirroring a dropped CancelGuard. In
// that case Spawn falls back to a background task, matching the nearcore
// source's behavior of keeping already-scheduled work alive even after the
// owning guard is gone.
func Spawn[T any, E error](s *Scope[E], f func(ctx.Ctx) (T, E)) JoinHandle[T, E] {
	cg, ok := s.weakCancel.upgrade()
	if !ok {
		return SpawnBg[T, E](s, f)
	}
	defer cg.release()
	return spawnOn[T, E](cg.clone(), s.lim, s.obs, f)
}

// SpawnBg starts a background task owned by the scope: it does not keep
// the scope's cancellation alive (the scope can still be cancelled with
// background tasks outstanding), but the scope still cannot terminate
// until it returns. If the scope has already terminated, SpawnBg's
// returned JoinHandle resolves immediately to ErrTerminated.
func SpawnBg[T any, E error](s *Scope[E], f func(ctx.Ctx) (T, E)) JoinHandle[T, E] {
	tg, ok := s.weakTerm.upgrade()
	if !ok {
		c := newCell[T, E]()
		var zero T
		c.set(zero, false, s.weakTerm.inner)
		return JoinHandle[T, E]{cell: c}
	}
	return spawnOn[T, E](tg, s.lim, s.obs, f)
}
