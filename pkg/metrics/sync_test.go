package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestSyncJobMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSyncJobMetrics(reg)

	m.IncSuccess("reconcile")
	m.IncSuccess("reconcile")
	m.IncFailure("reconcile")
	m.ObserveDuration("reconcile", 120*time.Millisecond)

	require.Equal(t, float64(2), testutil.ToFloat64(m.success.WithLabelValues("reconcile")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.failure.WithLabelValues("reconcile")))
}

func TestSyncJobMetricsNilSafe(t *testing.T) {
	var m *SyncJobMetrics
	require.NotPanics(t, func() {
		m.IncSuccess("reconcile")
		m.IncFailure("reconcile")
		m.ObserveDuration("reconcile", time.Second)
	})

	empty := NewSyncJobMetrics(nil)
	require.NotPanics(t, func() {
		empty.IncSuccess("")
	})
}
