package scope

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/NetPo4ki/scopecore/ctx"
)

func TestMaxConcurrencyBound(t *testing.T) {
	t.Parallel()
	const N = 8
	const M = 50
	var cur, maxSeen atomic.Int64
	block := make(chan struct{})

	runDone := make(chan struct{})
	var runErr error
	go func() {
		defer close(runDone)
		_, runErr = Run(ctx.Background(), func(s *Scope[error], c ctx.Ctx) (struct{}, error) {
			handles := make([]JoinHandle[struct{}, error], M)
			for i := 0; i < M; i++ {
				handles[i] = Spawn(s, func(taskCtx ctx.Ctx) (struct{}, error) {
					n := cur.Add(1)
					defer cur.Add(-1)
					for {
						if m := maxSeen.Load(); n > m {
							maxSeen.CompareAndSwap(m, n)
						}
						select {
						case <-block:
							return struct{}{}, nil
						case <-time.After(time.Millisecond):
						}
					}
				})
			}
			for _, h := range handles {
				if _, joinErr := h.Join(c); joinErr != nil {
					return struct{}{}, joinErr
				}
			}
			return struct{}{}, nil
		}, WithMaxConcurrency(N))
	}()

	time.Sleep(50 * time.Millisecond)
	close(block)
	<-runDone
	if runErr != nil {
		t.Fatalf("unexpected error: %v", runErr)
	}
	if observed := int(maxSeen.Load()); observed > N {
		t.Fatalf("observed concurrency %d exceeds limit %d", observed, N)
	}
}

func TestLimiterAcquireRespectsCancel(t *testing.T) {
	t.Parallel()
	block := make(chan struct{})
	liveCtx := ctx.Background()
	var h2 JoinHandle[struct{}, error]
	var elapsed time.Duration

	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		Run(ctx.Background(), func(s *Scope[error], rootCtx ctx.Ctx) (struct{}, error) {
			Spawn(s, func(taskCtx ctx.Ctx) (struct{}, error) {
				<-block
				return struct{}{}, nil
			})
			h2 = Spawn(s, func(taskCtx ctx.Ctx) (struct{}, error) {
				return struct{}{}, nil
			})
			time.Sleep(20 * time.Millisecond)
			start := time.Now()
			rootCtx.Cancel()
			_, _ = h2.Join(liveCtx)
			elapsed = time.Since(start)
			close(block)
			return struct{}{}, nil
		}, WithMaxConcurrency(1))
	}()

	<-runDone
	if elapsed > 300*time.Millisecond {
		t.Fatalf("expected acquire to unblock quickly on cancellation, got %v", elapsed)
	}
}
