package prom

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/NetPo4ki/scopecore/ctx"
)

func TestMetricsCountTasksAndErrors(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.TaskStarted(ctx.Background())
	m.TaskStarted(ctx.Background())
	m.TaskFinished(ctx.Background(), time.Millisecond, nil)
	m.TaskFinished(ctx.Background(), time.Millisecond, errors.New("boom"))

	require.Equal(t, float64(2), testutil.ToFloat64(m.tasksStarted))
	require.Equal(t, float64(2), testutil.ToFloat64(m.tasksFinished))
	require.Equal(t, float64(1), testutil.ToFloat64(m.tasksErrored))
}

func TestMetricsScopeLifecycle(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ScopeCreated(ctx.Background())
	m.ScopeCancelled(ctx.Background(), errors.New("boom"))
	m.ScopeTerminated(ctx.Background(), 5*time.Millisecond)

	require.Equal(t, float64(1), testutil.ToFloat64(m.scopesCreated))
	require.Equal(t, float64(1), testutil.ToFloat64(m.scopesCancelled))
	require.Equal(t, float64(1), testutil.ToFloat64(m.scopesTerminated))
}
