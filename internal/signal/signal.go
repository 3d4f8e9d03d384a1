// Package signal implements a single-producer/multi-consumer one-shot latch:
// it fires at most once, and every receive — issued before or after the
// fire — completes as soon as it has fired. It backs the "terminated" signal
// each scope uses to mark that every task it owns has exited.
package signal

import "sync"

// Once is a one-shot signal. The zero value is not usable; use New.
type Once struct {
	once sync.Once
	ch   chan struct{}
}

// New returns a fresh, unfired Once.
func New() *Once {
	return &Once{ch: make(chan struct{})}
}

// Send fires the signal. Idempotent: only the first call has any effect.
func (o *Once) Send() {
	o.once.Do(func() { close(o.ch) })
}

// TryRecv is a non-blocking poll of whether the signal has fired.
func (o *Once) TryRecv() bool {
	select {
	case <-o.ch:
		return true
	default:
		return false
	}
}

// Recv returns a channel that is closed once Send has been called. Every
// receive on it, no matter how many times Recv is called or by how many
// goroutines, completes immediately once fired.
func (o *Once) Recv() <-chan struct{} {
	return o.ch
}
