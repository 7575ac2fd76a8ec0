// Package datadog sends deployment metrics to a DogStatsD agent.
//
// Metric names follow Datadog's dotted convention under the "objdeploy."
// prefix: objects, object.duration and statements. Object durations go out
// as distributions so percentiles aggregate across hosts and workers.
// Run ids are unbounded and are never sent as tags.
//
// A run ends with Flush, which closes the client; the Backend is unusable
// afterwards.
package datadog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/DataDog/datadog-go/v5/statsd"

	"objdeploy/internal/metrics"
)

// DefaultPrefix is prepended to every metric name.
const DefaultPrefix = "objdeploy."

// names maps the deployer's metric names to Datadog ones.
var names = map[string]string{
	metrics.ObjectsTotal:          "objects",
	metrics.ObjectDurationSeconds: "object.duration",
	metrics.StatementsTotal:       "statements",
}

// Config selects the agent and what is attached to every metric.
type Config struct {
	// Addr is host:port or unix:///path of the agent. Required.
	Addr string
	// Prefix replaces DefaultPrefix when set.
	Prefix string
	// Tags go on every metric, e.g. "service:objdeploy" or "env:prod".
	Tags []string
}

// Backend implements metrics.Backend. The zero value drops everything.
type Backend struct {
	client *statsd.Client
}

// NewBackend connects a statsd client to cfg.Addr.
func NewBackend(cfg Config) (*Backend, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, errors.New("datadog: agent address is required")
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if !strings.HasSuffix(prefix, ".") {
		prefix += "."
	}

	c, err := statsd.New(cfg.Addr,
		statsd.WithoutTelemetry(),
		statsd.WithNamespace(prefix),
		statsd.WithTags(cfg.Tags),
	)
	if err != nil {
		return nil, fmt.Errorf("datadog: connect %s: %w", cfg.Addr, err)
	}
	return &Backend{client: c}, nil
}

// IncCounter sends a count. Deltas are whole objects or statements.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	if b.client == nil {
		return
	}
	_ = b.client.Count(metricName(name), int64(delta), tags(labels), 1)
}

// ObserveHistogram sends value as a distribution point.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if b.client == nil {
		return
	}
	_ = b.client.Distribution(metricName(name), value, tags(labels), 1)
}

// Flush drains buffered points and closes the client.
func (b *Backend) Flush() error {
	if b.client == nil {
		return nil
	}
	return b.client.Close()
}

// metricName returns the Datadog name for a deployer metric. Names it does
// not know keep their words, joined by dots.
func metricName(name string) string {
	if n, ok := names[name]; ok {
		return n
	}
	return strings.ReplaceAll(strings.TrimPrefix(name, "objdeploy_"), "_", ".")
}

// tags renders labels as sorted lowercase "key:value" tags, without the run id.
func tags(labels metrics.Labels) []string {
	out := make([]string, 0, len(labels))
	for k, v := range labels {
		if k == "run" || v == "" {
			continue
		}
		out = append(out, strings.ToLower(k+":"+v))
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}
