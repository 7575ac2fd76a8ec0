package prompush

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"objdeploy/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// readCounterValue reads the current value of a Counter for assertions in tests.
func readCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()

	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		t.Fatalf("Counter.Write() error = %v", err)
	}
	if m.GetCounter() == nil {
		t.Fatalf("metric did not contain Counter value")
	}
	return m.GetCounter().GetValue()
}

// readSummaryCountSum reads sample count and sum from a SummaryVec for assertions in tests.
func readSummaryCountSum(t *testing.T, v *prometheus.SummaryVec, labels ...string) (uint64, float64) {
	t.Helper()

	m := &dto.Metric{}
	metric, ok := v.WithLabelValues(labels...).(prometheus.Metric)
	if !ok {
		t.Fatalf("SummaryVec.WithLabelValues(...) does not implement prometheus.Metric")
	}
	if err := metric.Write(m); err != nil {
		t.Fatalf("Summary.Write() error = %v", err)
	}
	if m.GetSummary() == nil {
		t.Fatalf("metric did not contain Summary value")
	}
	sum := m.GetSummary()
	return sum.GetSampleCount(), sum.GetSampleSum()
}

func TestNewBackend(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		jobName     string
		gatewayURL  string
		wantErr     bool
		wantJobName string
	}{
		{
			name:    "missing gateway URL returns error",
			jobName: "deploy",
			wantErr: true,
		},
		{
			name:        "empty job name uses default",
			gatewayURL:  "http://pushgateway:9091",
			wantJobName: "objdeploy",
		},
		{
			name:        "explicit job name is preserved",
			jobName:     "nightly-views",
			gatewayURL:  "http://pushgateway:9091",
			wantJobName: "nightly-views",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b, err := NewBackend(tt.jobName, tt.gatewayURL)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("NewBackend(%q, %q) error = nil, want non-nil", tt.jobName, tt.gatewayURL)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewBackend(%q, %q) error = %v, want nil", tt.jobName, tt.gatewayURL, err)
			}
			if b.jobName != tt.wantJobName {
				t.Fatalf("backend.jobName = %q, want %q", b.jobName, tt.wantJobName)
			}
			if b.objectCounter == nil || b.objectDuration == nil || b.statementCounter == nil {
				t.Fatalf("collectors not initialised: %+v", b)
			}
		})
	}
}

func TestIncCounter(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("objdeploy", "http://example.com")
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}

	b.IncCounter(metrics.ObjectsTotal, 1, metrics.Labels{"status": "ok", "kind": "VIEW", "run": "r1"})
	b.IncCounter(metrics.ObjectsTotal, 2, metrics.Labels{"status": "ok", "kind": "VIEW"})
	b.IncCounter(metrics.StatementsTotal, 4, metrics.Labels{"status": "failure"})
	b.IncCounter("unknown_metric", 10, metrics.Labels{"foo": "bar"})

	if got := readCounterValue(t, b.objectCounter.WithLabelValues("ok", "VIEW")); got != 3 {
		t.Fatalf("objectCounter = %v, want 3", got)
	}
	if got := readCounterValue(t, b.statementCounter.WithLabelValues("failure")); got != 4 {
		t.Fatalf("statementCounter = %v, want 4", got)
	}
	if got := readCounterValue(t, b.statementCounter.WithLabelValues("success")); got != 0 {
		t.Fatalf("statementCounter(success) = %v, want 0", got)
	}
}

// TestIncCounterNilMetrics ensures a zero-value Backend does not panic.
func TestIncCounterNilMetrics(t *testing.T) {
	t.Parallel()

	b := &Backend{}
	b.IncCounter(metrics.ObjectsTotal, 1, metrics.Labels{"status": "ok", "kind": "VIEW"})
	b.IncCounter(metrics.StatementsTotal, 1, metrics.Labels{"status": "success"})
	b.ObserveHistogram(metrics.ObjectDurationSeconds, 1, metrics.Labels{})
}

func TestObserveHistogram(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("objdeploy", "http://example.com")
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}

	b.ObserveHistogram(metrics.ObjectDurationSeconds, 1.5, metrics.Labels{"status": "error", "kind": "TABLE"})
	b.ObserveHistogram("other_metric", 2.0, metrics.Labels{"status": "error", "kind": "TABLE"})

	gotCount, gotSum := readSummaryCountSum(t, b.objectDuration, "error", "TABLE")
	if gotCount != 1 {
		t.Fatalf("summary sample count = %d, want 1", gotCount)
	}
	if gotSum != 1.5 {
		t.Fatalf("summary sample sum = %v, want 1.5", gotSum)
	}
}

// TestFlush verifies that Flush pushes the registry to the configured
// Pushgateway URL.
func TestFlush(t *testing.T) {
	t.Parallel()

	type pushRequestInfo struct {
		method  string
		path    string
		bodyLen int
	}

	reqCh := make(chan pushRequestInfo, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		body, _ := io.ReadAll(r.Body)

		reqCh <- pushRequestInfo{
			method:  r.Method,
			path:    r.URL.Path,
			bodyLen: len(body),
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	b, err := NewBackend("objdeploy-job", server.URL)
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}
	b.IncCounter(metrics.ObjectsTotal, 1, metrics.Labels{"status": "ok", "kind": "VIEW"})

	if err := b.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	var got pushRequestInfo
	select {
	case got = <-reqCh:
	default:
		t.Fatalf("Flush() did not result in any HTTP request to the Pushgateway")
	}

	if got.method != http.MethodPut {
		t.Fatalf("Push request method = %q, want PUT", got.method)
	}
	if got.path != "/metrics/job/objdeploy-job" {
		t.Fatalf("Push request path = %q", got.path)
	}
	if got.bodyLen == 0 {
		t.Fatalf("Push request body length = 0, want > 0")
	}
}

func BenchmarkIncCounterObject(b *testing.B) {
	backend, err := NewBackend("objdeploy", "http://example.com")
	if err != nil {
		b.Fatalf("NewBackend() error = %v", err)
	}

	labels := metrics.Labels{"status": "ok", "kind": "VIEW"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		backend.IncCounter(metrics.ObjectsTotal, 1, labels)
	}
}
