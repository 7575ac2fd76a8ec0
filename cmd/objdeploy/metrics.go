package main

import (
	"log/slog"
	"net"
	"os"
	"strings"

	"objdeploy/internal/config"
	"objdeploy/internal/metrics"
	"objdeploy/internal/metrics/datadog"
	"objdeploy/internal/metrics/prompush"
)

const metricsJob = "objdeploy"

// setupMetrics installs the configured metrics backend and returns a func
// that flushes it. Backend failures only disable metrics.
func setupMetrics(m config.Metrics, log *slog.Logger) (flush func()) {
	flush = func() {
		if err := metrics.Flush(); err != nil {
			log.Warn("metrics flush failed", "backend", m.Backend, "err", err)
		}
	}

	switch strings.ToLower(m.Backend) {
	case "pushgateway":
		b, err := prompush.NewBackend(metricsJob, m.PushgatewayURL)
		if err != nil {
			log.Warn("metrics disabled", "backend", m.Backend, "err", err)
			return func() {}
		}
		metrics.SetBackend(b)
		log.Info("metrics enabled", "backend", m.Backend, "url", m.PushgatewayURL, "job", metricsJob)

	case "datadog":
		addr := m.StatsdAddr
		if addr == "" {
			host := os.Getenv("DD_AGENT_HOST")
			if host == "" {
				host = "localhost"
			}
			addr = net.JoinHostPort(host, "8125")
		}
		b, err := datadog.NewBackend(datadog.Config{
			Addr: addr,
			Tags: []string{"service:" + metricsJob},
		})
		if err != nil {
			log.Warn("metrics disabled", "backend", m.Backend, "err", err)
			return func() {}
		}
		metrics.SetBackend(b)
		log.Info("metrics enabled", "backend", m.Backend, "addr", addr)

	default:
		log.Debug("metrics disabled", "backend", m.Backend)
		return func() {}
	}
	return flush
}
