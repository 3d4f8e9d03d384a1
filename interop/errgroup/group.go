// Package errgroup provides a golang.org/x/sync/errgroup-shaped adapter
// over the scope package, for code that wants errgroup's familiar
// Go/Wait API but the structured-concurrency guarantees scope.Run gives
// for free: the group cannot return before every function passed to Go
// has exited, and the first error cancels every sibling.
package errgroup

import (
	"context"
	"sync"

	"github.com/NetPo4ki/scopecore/ctx"
	"github.com/NetPo4ki/scopecore/scope"
)

// Group is an errgroup-like wrapper over a scope.Scope[error].
type Group struct {
	ready   chan struct{}
	done    chan struct{}
	closeGo chan struct{}
	once    sync.Once

	mu  sync.Mutex
	s   *scope.Scope[error]
	c   ctx.Ctx
	err error
}

// WithContext returns a new Group and a context derived from std. The
// derived context is canceled the first time a function passed to Go
// returns a non-nil error, or when std itself is done, whichever happens
// first.
func WithContext(std context.Context) (*Group, context.Context) {
	root := ctx.FromStdContext(std)
	g := &Group{
		ready:   make(chan struct{}),
		done:    make(chan struct{}),
		closeGo: make(chan struct{}),
	}

	go func() {
		defer close(g.done)
		_, err := scope.Run(root, func(s *scope.Scope[error], c ctx.Ctx) (struct{}, error) {
			g.mu.Lock()
			g.s = s
			g.c = c
			g.mu.Unlock()
			close(g.ready)
			<-g.closeGo
			return struct{}{}, nil
		})
		g.mu.Lock()
		g.err = err
		g.mu.Unlock()
	}()

	<-g.ready
	g.mu.Lock()
	gctx := g.c.StdContext()
	g.mu.Unlock()
	return g, gctx
}

// Go starts a function on its own goroutine. If it returns a non-nil
// error, the Group's context is canceled and that error (the first one
// seen across every call to Go) is what Wait eventually returns.
func (g *Group) Go(f func() error) {
	if f == nil {
		return
	}
	g.mu.Lock()
	s := g.s
	g.mu.Unlock()
	scope.Spawn(s, func(taskCtx ctx.Ctx) (struct{}, error) {
		return struct{}{}, f()
	})
}

// Wait blocks until every function passed to Go has returned, then
// returns the first non-nil error, if any.
func (g *Group) Wait() error {
	g.once.Do(func() { close(g.closeGo) })
	<-g.done
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.err
}
