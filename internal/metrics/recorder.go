// Package metrics provides observability hooks for docset builds. Components
// receive a Recorder by injection; the NoopRecorder default keeps metrics
// optional with zero overhead.
package metrics

import "time"

// Recorder defines observability hooks for page-build metrics.
// Implementations may forward to Prometheus, OpenTelemetry, etc.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncPageOutcome(outcome string) // outcome: success|warning|failed
	IncDiagnostic(code string)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not
// configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)         {}
func (NoopRecorder) IncPageOutcome(string)                      {}
func (NoopRecorder) IncDiagnostic(string)                       {}
