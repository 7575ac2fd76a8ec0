package datadog

import (
	"net"
	"reflect"
	"strings"
	"testing"
	"time"

	"objdeploy/internal/metrics"
)

func TestNewBackend_RequiresAddr(t *testing.T) {
	t.Parallel()

	if _, err := NewBackend(Config{Addr: " "}); err == nil {
		t.Fatal("NewBackend with blank Addr: error = nil, want non-nil")
	}
}

func TestMetricName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		metrics.ObjectsTotal:          "objects",
		metrics.ObjectDurationSeconds: "object.duration",
		metrics.StatementsTotal:       "statements",
		"objdeploy_files_skipped":     "files.skipped",
	}
	for in, want := range tests {
		if got := metricName(in); got != want {
			t.Errorf("metricName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTags_DropRunID(t *testing.T) {
	t.Parallel()

	if got := tags(metrics.Labels{"run": "0b7c"}); got != nil {
		t.Fatalf("tags(run only) = %v, want nil", got)
	}
	got := tags(metrics.Labels{"run": "0b7c", "status": "ok", "kind": "VIEW"})
	want := []string{"kind:view", "status:ok"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("tags = %v, want %v", got, want)
	}
}

func TestZeroBackendIsNoop(t *testing.T) {
	t.Parallel()

	b := &Backend{}
	b.IncCounter(metrics.ObjectsTotal, 1, nil)
	b.ObserveHistogram(metrics.ObjectDurationSeconds, 1, nil)
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush() on zero backend = %v", err)
	}
}

// TestRecordObjectReachesAgent installs the backend globally and checks the
// datagrams a deployed object produces.
func TestRecordObjectReachesAgent(t *testing.T) {
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("udp listen not available: %v", err)
	}
	defer conn.Close()

	b, err := NewBackend(Config{Addr: conn.LocalAddr().String(), Tags: []string{"service:objdeploy"}})
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}
	prev := metrics.SetBackend(b)
	defer metrics.SetBackend(prev)

	metrics.RecordObject("run-1", "ok", "VIEW", 1500*time.Millisecond)
	if err := metrics.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	var payload strings.Builder
	buf := make([]byte, 4096)
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for !strings.Contains(payload.String(), "|d") || !strings.Contains(payload.String(), "|c") {
		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			t.Fatalf("read packet: %v (got %q)", err, payload.String())
		}
		payload.Write(buf[:n])
		payload.WriteByte('\n')
	}

	got := payload.String()
	for _, want := range []string{
		"objdeploy.objects:1|c",
		"objdeploy.object.duration:1.5|d",
		"service:objdeploy",
		"kind:view",
		"status:ok",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("payload %q missing %q", got, want)
		}
	}
	if strings.Contains(got, "run-1") {
		t.Errorf("payload %q carries the run id", got)
	}
}
