// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// This package adapts the generic metrics.Backend interface to Prometheus by:
//
//   - Using client_golang CounterVec and SummaryVec collectors.
//   - Mapping the deployer labels (status, kind) onto Prometheus labels. The
//     run id is not a label; a deployment run is one Pushgateway push.
//   - Pushing collected metrics to a Pushgateway instance at the end of a run
//     instead of exposing an HTTP scrape endpoint, since the CLI is short-lived.
package prompush

import (
	"fmt"

	"objdeploy/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string // e.g. http://pushgateway:9091
	jobName    string // Pushgateway "job" group

	reg *prometheus.Registry

	objectCounter    *prometheus.CounterVec // objdeploy_objects_total
	objectDuration   *prometheus.SummaryVec // objdeploy_object_duration_seconds
	statementCounter *prometheus.CounterVec // objdeploy_statements_total
}

// NewBackend constructs a Prometheus Pushgateway backend.
// jobName: the Pushgateway "job" name; defaults to "objdeploy".
// gatewayURL: base URL of the Pushgateway server.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "objdeploy"
	}

	reg := prometheus.NewRegistry()

	objectCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.ObjectsTotal,
			Help: "Object definition files processed, partitioned by outcome status and object kind.",
		},
		[]string{"status", "kind"},
	)
	objectDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       metrics.ObjectDurationSeconds,
			Help:       "Time spent deploying one object file, partitioned by status and kind.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"status", "kind"},
	)
	statementCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.StatementsTotal,
			Help: "Statements sent to the warehouse, partitioned by success/failure.",
		},
		[]string{"status"},
	)

	if err := reg.Register(objectCounter); err != nil {
		return nil, fmt.Errorf("prompush: register object counter: %w", err)
	}
	if err := reg.Register(objectDuration); err != nil {
		return nil, fmt.Errorf("prompush: register object summary: %w", err)
	}
	if err := reg.Register(statementCounter); err != nil {
		return nil, fmt.Errorf("prompush: register statement counter: %w", err)
	}

	return &Backend{
		gatewayURL:       gatewayURL,
		jobName:          jobName,
		reg:              reg,
		objectCounter:    objectCounter,
		objectDuration:   objectDuration,
		statementCounter: statementCounter,
	}, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.ObjectsTotal:
		if b.objectCounter == nil {
			return
		}
		b.objectCounter.WithLabelValues(labels["status"], labels["kind"]).Add(delta)

	case metrics.StatementsTotal:
		if b.statementCounter == nil {
			return
		}
		b.statementCounter.WithLabelValues(labels["status"]).Add(delta)

	default:
		// unknown metric name: ignore
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != metrics.ObjectDurationSeconds || b.objectDuration == nil {
		return
	}
	b.objectDuration.WithLabelValues(labels["status"], labels["kind"]).Observe(value)
}

// Flush pushes the current registry to the Pushgateway.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).
		Gatherer(b.reg).
		Push()
}
