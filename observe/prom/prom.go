// Package prom adapts scope.Observer to github.com/prometheus/client_golang,
// exposing task and scope lifecycle events as a counter/histogram set
// registerable on any prometheus.Registerer.
package prom

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/NetPo4ki/scopecore/ctx"
)

// Metrics is a scope.Observer backed by Prometheus collectors.
type Metrics struct {
	scopesCreated    prometheus.Counter
	scopesCancelled  prometheus.Counter
	scopesTerminated prometheus.Counter
	terminateWait    prometheus.Histogram

	tasksStarted  prometheus.Counter
	tasksFinished prometheus.Counter
	tasksErrored  prometheus.Counter
	taskDuration  prometheus.Histogram
}

// New registers a fresh set of collectors on reg (promauto.With's target)
// and returns a Metrics observer backed by them. Pass
// prometheus.DefaultRegisterer for the global registry, or a
// prometheus.NewRegistry() for isolated tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		scopesCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "scope_scopes_created_total",
			Help: "Total number of scopes started.",
		}),
		scopesCancelled: f.NewCounter(prometheus.CounterOpts{
			Name: "scope_scopes_cancelled_total",
			Help: "Total number of scopes cancelled due to a task error.",
		}),
		scopesTerminated: f.NewCounter(prometheus.CounterOpts{
			Name: "scope_scopes_terminated_total",
			Help: "Total number of scopes that reached termination.",
		}),
		terminateWait: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "scope_terminate_wait_seconds",
			Help:    "Time spent waiting for every task owned by a scope to exit.",
			Buckets: prometheus.DefBuckets,
		}),
		tasksStarted: f.NewCounter(prometheus.CounterOpts{
			Name: "scope_tasks_started_total",
			Help: "Total number of tasks started.",
		}),
		tasksFinished: f.NewCounter(prometheus.CounterOpts{
			Name: "scope_tasks_finished_total",
			Help: "Total number of tasks that returned, successfully or not.",
		}),
		tasksErrored: f.NewCounter(prometheus.CounterOpts{
			Name: "scope_tasks_errored_total",
			Help: "Total number of tasks that returned a non-nil error.",
		}),
		taskDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "scope_task_duration_seconds",
			Help:    "Task execution duration.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// ScopeCreated records scope creation.
func (m *Metrics) ScopeCreated(ctx.Ctx) { m.scopesCreated.Inc() }

// ScopeCancelled records scope cancellation.
func (m *Metrics) ScopeCancelled(ctx.Ctx, error) { m.scopesCancelled.Inc() }

// ScopeTerminated records termination and the wait it took to get there.
func (m *Metrics) ScopeTerminated(_ ctx.Ctx, wait time.Duration) {
	m.scopesTerminated.Inc()
	m.terminateWait.Observe(wait.Seconds())
}

// TaskStarted increments the started counter.
func (m *Metrics) TaskStarted(ctx.Ctx) { m.tasksStarted.Inc() }

// TaskFinished increments the finished counter, the error counter if err is
// non-nil, and observes dur.
func (m *Metrics) TaskFinished(_ ctx.Ctx, dur time.Duration, err error) {
	m.tasksFinished.Inc()
	if err != nil {
		m.tasksErrored.Inc()
	}
	m.taskDuration.Observe(dur.Seconds())
}
