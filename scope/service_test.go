package scope

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/NetPo4ki/scopecore/ctx"
)

type counterService struct {
	started chan struct{}
	release chan struct{}
	fail    error
}

func (p *counterService) Start(svc *ServiceScope[error]) {
	ServiceSpawn(svc, func(c ctx.Ctx) (struct{}, error) {
		close(p.started)
		<-p.release
		return struct{}{}, p.fail
	})
}

// A service is cancelled, per its documented contract, only when one of its
// tasks errors, its parent is cancelled, or Terminate is called — never
// merely because its current tasks happen to have finished. This test
// exercises the explicit-Terminate path: Terminate cancels the service
// immediately, but it only terminates (Terminated returns) once its
// outstanding task also exits.
func TestServiceTerminateCancelsThenTerminatesOnceTaskExits(t *testing.T) {
	t.Parallel()
	payload := &counterService{started: make(chan struct{}), release: make(chan struct{})}

	_, err := Run(ctx.Background(), func(s *Scope[error], c ctx.Ctx) (struct{}, error) {
		svc := NewService[*counterService, error](s, payload)
		<-payload.started
		require.False(t, svc.IsTerminated(), "service reported terminated while its task is still running")
		svc.Terminate()

		time.Sleep(30 * time.Millisecond)
		require.False(t, svc.IsTerminated(), "service reported terminated before its outstanding task exited")

		close(payload.release)
		require.NoError(t, svc.Terminated(c))
		require.True(t, svc.IsTerminated(), "service should report terminated after Terminated returns")
		return struct{}{}, nil
	})
	require.NoError(t, err)
}

func TestServiceTaskErrorSurfacesThroughTerminated(t *testing.T) {
	t.Parallel()
	boom := errors.New("service task failed")
	payload := &counterService{started: make(chan struct{}), release: make(chan struct{}), fail: boom}
	close(payload.release)

	_, err := Run(ctx.Background(), func(s *Scope[error], c ctx.Ctx) (struct{}, error) {
		svc := NewService[*counterService, error](s, payload)
		require.ErrorIs(t, svc.Terminated(c), boom)
		return struct{}{}, nil
	})
	require.NoError(t, err)
}

// A service does not keep its scope's cancellation alive: the root task
// can return as soon as it is ready, even with the service's own task
// still running. But the scope cannot terminate (Run cannot return) until
// that task exits too.
func TestServiceDoesNotBlockCancellationButBlocksTermination(t *testing.T) {
	t.Parallel()
	payload := &counterService{started: make(chan struct{}), release: make(chan struct{}), fail: errors.New("done")}

	runDone := make(chan struct{})
	var val int
	var runErr error
	go func() {
		defer close(runDone)
		val, runErr = Run(ctx.Background(), func(s *Scope[error], c ctx.Ctx) (int, error) {
			NewService[*counterService, error](s, payload)
			<-payload.started
			return 11, nil
		})
	}()

	select {
	case <-payload.started:
	case <-time.After(time.Second):
		t.Fatal("service task never started")
	}

	select {
	case <-runDone:
		t.Fatal("Run returned before its service's task completed")
	case <-time.After(30 * time.Millisecond):
	}

	close(payload.release)
	<-runDone
	require.NoError(t, runErr)
	require.Equal(t, 11, val)
}

func TestTrySpawnAfterTerminationReturnsErrTerminated(t *testing.T) {
	t.Parallel()
	boom := errors.New("already done")
	payload := &counterService{started: make(chan struct{}), release: make(chan struct{}), fail: boom}
	close(payload.release)

	_, err := Run(ctx.Background(), func(s *Scope[error], c ctx.Ctx) (struct{}, error) {
		svc := NewService[*counterService, error](s, payload)
		require.ErrorIs(t, svc.Terminated(c), boom)
		_, spawnErr := TrySpawn(svc, func(taskCtx ctx.Ctx) (int, error) {
			return 0, nil
		})
		require.ErrorIs(t, spawnErr, ErrTerminated)
		return struct{}{}, nil
	})
	require.NoError(t, err)
}
