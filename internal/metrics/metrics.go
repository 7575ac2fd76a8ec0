// Package metrics provides a small, backend-agnostic abstraction for recording
// operational metrics from a deployment run.
//
// The package is intentionally minimal and opinionated:
//
//   - It exposes a narrow interface (Backend) focused on counters and timing
//     data (histograms).
//   - It provides a global, pluggable backend that defaults to a no-op
//     implementation, so metrics are always safe to call even when no real
//     backend is configured.
//   - Concrete metric systems (Prometheus Pushgateway, Datadog) live in
//     subpackages so the deploy code never imports them.
package metrics

import "time"

// Metric names emitted by the deployer.
const (
	ObjectsTotal          = "objdeploy_objects_total"
	ObjectDurationSeconds = "objdeploy_object_duration_seconds"
	StatementsTotal       = "objdeploy_statements_total"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend and returns the one it replaced.
// Passing nil keeps the existing backend.
func SetBackend(b Backend) (prev Backend) {
	prev = backend
	if b != nil {
		backend = b
	}
	return prev
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordObject counts one deployed object file by outcome and kind, and
// records how long its statements took.
func RecordObject(run, status, kind string, d time.Duration) {
	lbls := Labels{
		"run":    run,
		"status": status,
		"kind":   kind,
	}
	backend.IncCounter(ObjectsTotal, 1, lbls)
	backend.ObserveHistogram(ObjectDurationSeconds, d.Seconds(), lbls)
}

// RecordStatement counts one executed statement. status is "success" or
// "failure".
func RecordStatement(run string, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	backend.IncCounter(StatementsTotal, 1, Labels{
		"run":    run,
		"status": status,
	})
}
