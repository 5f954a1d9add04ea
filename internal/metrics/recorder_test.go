package metrics

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder_CountsOutcomesAndDiagnostics(t *testing.T) {
	reg := prom.NewRegistry()
	r := NewPrometheusRecorder(reg)

	r.IncPageOutcome("success")
	r.IncPageOutcome("success")
	r.IncPageOutcome("failed")
	r.IncDiagnostic("heading-not-found")

	require.Equal(t, float64(2), testutil.ToFloat64(r.pageOutcomes.WithLabelValues("success")))
	require.Equal(t, float64(1), testutil.ToFloat64(r.pageOutcomes.WithLabelValues("failed")))
	require.Equal(t, float64(1), testutil.ToFloat64(r.diagnostics.WithLabelValues("heading-not-found")))
}

func TestPrometheusRecorder_ObservesDurations(t *testing.T) {
	reg := prom.NewRegistry()
	r := NewPrometheusRecorder(reg)

	r.ObserveStageDuration("load", 50*time.Millisecond)
	r.ObserveBuildDuration(time.Second)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	require.True(t, names["docset_stage_duration_seconds"])
	require.True(t, names["docset_build_duration_seconds"])
}

func TestNoopRecorder_ImplementsRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveStageDuration("load", time.Millisecond)
	r.ObserveBuildDuration(time.Millisecond)
	r.IncPageOutcome("success")
	r.IncDiagnostic("x")
}
