package scope

import (
	"github.com/NetPo4ki/scopecore/ctx"
	"github.com/NetPo4ki/scopecore/internal/mustcomplete"
)

// Starter is implemented by a service's payload. Start is called exactly
// once, synchronously, while the service is being constructed, and should
// use svc to spawn whatever tasks the service needs; svc itself is only
// valid for the duration of the call, so tasks that need to spawn siblings
// later must go through TrySpawn against the returned Service handle
// instead of retaining svc.
type Starter[E error] interface {
	Start(svc *ServiceScope[E])
}

// ServiceScope is the live handle Start uses, for the duration of the
// call, to spawn tasks within the service's own subscope.
type ServiceScope[E error] struct {
	tg *terminateGuard[E]
}

// Ctx returns the service's cancellation context, a child of whatever
// scope or service owns it.
func (ss *ServiceScope[E]) Ctx() ctx.Ctx { return ss.tg.in().ctx }

// Service is a handle to a running service: a subscope that does not keep
// its parent alive (unlike a main task spawned with Spawn), but that the
// parent cannot terminate ahead of. A service is cancelled when any task
// spawned on it returns an error, when its parent is cancelled, or when
// Terminate is called; it terminates once cancelled and every task spawned
// on it has exited. A freshly constructed service with no tasks is not
// cancelled just because it currently has nothing running.
type Service[S any, E error] struct {
	payload  S
	weakTerm weakTerminateGuard[E]
	in       *inner[E]
}

// Payload returns the service's payload, as passed to NewService.
func (svc Service[S, E]) Payload() S { return svc.payload }

// IsTerminated reports, without blocking, whether the service has already
// terminated.
func (svc Service[S, E]) IsTerminated() bool { return svc.in.terminated.TryRecv() }

// Terminate cancels the service. It does not wait for termination; call
// Terminated to await it.
func (svc Service[S, E]) Terminate() { svc.in.ctx.Cancel() }

// Terminated awaits the service's termination and returns its recorded
// error, if any. If callerCtx is cancelled first, Terminated returns
// ctx.ErrCanceled without affecting the service.
func (svc Service[S, E]) Terminated(callerCtx ctx.Ctx) error {
	_, err := ctx.Wait(callerCtx, func() (struct{}, error) {
		<-svc.in.terminated.Recv()
		if e, has := svc.in.cloneErr(); has {
			return struct{}{}, e
		}
		return struct{}{}, nil
	})
	return err
}

// newServiceOn builds a service owned by owner (a scope's terminate guard,
// i.e. a background slot, for a top-level service, or another service's
// subscope slot for a
// nested one) running payload. It reproduces the nested-guard-task shape
// the source this package is derived from uses to let a service outlive
// every task spawned directly on its owner without itself counting as one
// of those tasks: an outer watchdog, owned by owner, that exists only to
// keep owner's scope from terminating before the service's own subscope
// does, and an inner watchdog, owned by the service's own subscope, that
// exists only to keep that subscope alive until it is cancelled by any of
// the means documented on Service.
func newServiceOn[S Starter[E], E error](owner ownerGuard[E], payload S) Service[S, E] {
	sub := newTerminateGuard[E](owner.in().ctx)

	svcScope := &ServiceScope[E]{tg: sub.clone()}
	payload.Start(svcScope)
	svcScope.tg.release()

	go mustcomplete.Run(func() {
		defer owner.release()
		subIn := sub.in()
		go mustcomplete.Run(func() {
			defer sub.release()
			<-sub.in().ctx.Cancelled()
		})
		<-subIn.terminated.Recv()
	})

	return Service[S, E]{payload: payload, weakTerm: sub.weak(), in: sub.in()}
}

// NewService starts a new service owned by s. Like SpawnBg, it does not
// keep s's cancellation alive; unlike SpawnBg, it cannot terminate before
// every task spawned on it has exited, even after s itself is cancelled.
//
// NewService panics if s has already terminated (there is no owner left
// to run the service's guard task on), mirroring the unconditional
// .unwrap() the source this package is derived from uses at the same
// point — constructing a service on an already-dead scope is considered a
// programming error, not a recoverable condition.
func NewService[S Starter[E], E error](s *Scope[E], payload S) Service[S, E] {
	tg, ok := s.weakTerm.upgrade()
	if !ok {
		panic("scope: NewService called on an already-terminated scope")
	}
	return newServiceOn[S, E](tg, payload)
}

// ServiceNewService starts a nested service owned by the subscope ss
// belongs to. Only valid while ss itself is valid, i.e. synchronously
// within the enclosing Starter's Start method.
func ServiceNewService[S2 Starter[E], E error](ss *ServiceScope[E], payload S2) Service[S2, E] {
	return newServiceOn[S2, E](ss.tg.clone(), payload)
}

// ServiceSpawn spawns a task on the service's own subscope. Only valid
// while ss itself is valid, i.e. synchronously within the enclosing
// Starter's Start method (use TrySpawn from outside it).
func ServiceSpawn[T any, E error](ss *ServiceScope[E], f func(ctx.Ctx) (T, E)) JoinHandle[T, E] {
	return spawnOn[T, E](ss.tg.clone(), nil, NopObserver{}, f)
}

// TrySpawn spawns a task on svc's subscope, returning ErrTerminated
// instead if svc has already terminated.
func TrySpawn[T any, S any, E error](svc Service[S, E], f func(ctx.Ctx) (T, E)) (JoinHandle[T, E], error) {
	tg, ok := svc.weakTerm.upgrade()
	if !ok {
		var zero JoinHandle[T, E]
		return zero, ErrTerminated
	}
	return spawnOn[T, E](tg, nil, NopObserver{}, f), nil
}
