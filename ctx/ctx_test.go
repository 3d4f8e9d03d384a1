package ctx

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestSubInheritsParentCancellation(t *testing.T) {
	t.Parallel()
	parent := Background()
	child := parent.Sub(time.Time{})
	if child.IsCancelled() {
		t.Fatal("fresh child reported cancelled")
	}
	parent.Cancel()
	select {
	case <-child.Cancelled():
	case <-time.After(time.Second):
		t.Fatal("child did not observe parent cancellation")
	}
	if !child.IsCancelled() {
		t.Fatal("IsCancelled false after parent cancel")
	}
}

func TestChildCancelDoesNotCancelParent(t *testing.T) {
	t.Parallel()
	parent := Background()
	child := parent.Sub(time.Time{})
	child.Cancel()
	if parent.IsCancelled() {
		t.Fatal("cancelling child cancelled parent")
	}
}

func TestCancelIsMonotonicAndIdempotent(t *testing.T) {
	t.Parallel()
	c := Background()
	c.Cancel()
	c.Cancel()
	if !c.IsCancelled() {
		t.Fatal("expected cancelled after Cancel")
	}
	<-c.Cancelled()
	if !c.IsCancelled() {
		t.Fatal("expected cancelled to remain true")
	}
}

func TestSubDeadlineIsMinOfParentAndOwn(t *testing.T) {
	t.Parallel()
	parent := Background().Sub(time.Now().Add(50 * time.Millisecond))
	child := parent.Sub(time.Now().Add(time.Hour))
	start := time.Now()
	<-child.Cancelled()
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("child did not inherit parent's tighter deadline, waited %v", elapsed)
	}
}

func TestWaitReturnsValueOnCompletion(t *testing.T) {
	t.Parallel()
	c := Background()
	v, err := Wait(c, func() (int, error) { return 42, nil })
	if err != nil || v != 42 {
		t.Fatalf("got (%d, %v), want (42, nil)", v, err)
	}
}

func TestWaitReturnsErrCanceledOnCancellationAndLeavesFRunning(t *testing.T) {
	t.Parallel()
	c := Background()
	started := make(chan struct{})
	release := make(chan struct{})
	finished := make(chan struct{})
	waitErr := make(chan error, 1)
	go func() {
		_, err := Wait(c, func() (int, error) {
			close(started)
			<-release
			close(finished)
			return 7, nil
		})
		waitErr <- err
	}()
	<-started
	c.Cancel()
	select {
	case err := <-waitErr:
		if !errors.Is(err, ErrCanceled) {
			t.Fatalf("expected ErrCanceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after cancellation")
	}
	// The underlying f is still running; only after we let it finish does it complete.
	select {
	case <-finished:
		t.Fatal("f completed before release was signaled")
	default:
	}
	close(release)
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("f never completed after release")
	}
}

func TestSleepRespectsCancellation(t *testing.T) {
	t.Parallel()
	c := Background()
	go func() {
		time.Sleep(10 * time.Millisecond)
		c.Cancel()
	}()
	start := time.Now()
	err := Sleep(c, time.Hour)
	if !errors.Is(err, ErrCanceled) {
		t.Fatalf("expected ErrCanceled, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("Sleep took too long to observe cancellation: %v", elapsed)
	}
}

func TestWithTimeoutExpires(t *testing.T) {
	t.Parallel()
	c := Background()
	// f blocks until the test ends, so the goroutine Wait leaves running
	// exits before goleak checks for leftovers.
	release := make(chan struct{})
	defer close(release)
	_, err := WithTimeout(c, 10*time.Millisecond, func() (struct{}, error) {
		<-release
		return struct{}{}, nil
	})
	if !errors.Is(err, ErrCanceled) {
		t.Fatalf("expected ErrCanceled, got %v", err)
	}
}

func TestWithTimeoutCompletesBeforeDeadline(t *testing.T) {
	t.Parallel()
	c := Background()
	v, err := WithTimeout(c, time.Second, func() (int, error) { return 9, nil })
	if err != nil || v != 9 {
		t.Fatalf("got (%d, %v), want (9, nil)", v, err)
	}
}
