package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stageDuration *prom.HistogramVec
	buildDuration prom.Histogram
	pageOutcomes  *prom.CounterVec
	diagnostics   *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "docset",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual page-build stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "docset",
			Name:      "build_duration_seconds",
			Help:      "Total docset build duration",
			Buckets:   prom.DefBuckets,
		}),
		pageOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docset",
			Name:      "page_outcomes_total",
			Help:      "Page build outcomes by final status",
		}, []string{"outcome"}),
		diagnostics: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docset",
			Name:      "diagnostics_total",
			Help:      "Diagnostics emitted by stable code",
		}, []string{"code"}),
	}
	reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.pageOutcomes, pr.diagnostics)
	return pr
}

func (pr *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	pr.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (pr *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	pr.buildDuration.Observe(d.Seconds())
}

func (pr *PrometheusRecorder) IncPageOutcome(outcome string) {
	pr.pageOutcomes.WithLabelValues(outcome).Inc()
}

func (pr *PrometheusRecorder) IncDiagnostic(code string) {
	pr.diagnostics.WithLabelValues(code).Inc()
}
