package prompush

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"phenoextract/internal/metrics"
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

// readSummaryCountSum reads sample count and sum from a SummaryVec.
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
		{name: "missing gateway URL returns error", jobName: "ukb", wantErr: true},
		{name: "empty job name uses default", gatewayURL: "http://pushgateway:9091", wantJobName: "phenoextract"},
		{name: "explicit job name is preserved", jobName: "ukb-nightly", gatewayURL: "http://pushgateway:9091", wantJobName: "ukb-nightly"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b, err := NewBackend(tt.jobName, tt.gatewayURL)
			if tt.wantErr {
				if err == nil || b != nil {
					t.Fatalf("NewBackend(%q, %q) = %v, %v; want nil, error", tt.jobName, tt.gatewayURL, b, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewBackend(%q, %q) error = %v", tt.jobName, tt.gatewayURL, err)
			}
			if b.jobName != tt.wantJobName {
				t.Fatalf("backend.jobName = %q, want %q", b.jobName, tt.wantJobName)
			}
			if b.stepCounter == nil || b.stepDuration == nil || b.rowCounter == nil || b.stageCounter == nil {
				t.Fatalf("collectors not initialised: %+v", b)
			}
		})
	}
}

/*
TestIncCounter verifies that IncCounter routes updates to the matching
collector and ignores unknown metric names.
*/
func TestIncCounter(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("ukb", "http://example.com")
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}

	b.IncCounter(metrics.StepTotal, 3, metrics.Labels{"step": "materialize", "status": "success"})
	b.IncCounter(metrics.RowsTotal, 5, metrics.Labels{"kind": "narrow_rows"})
	b.IncCounter(metrics.StageRowsTotal, 2, metrics.Labels{"stage": "field-filter", "direction": "out"})
	b.IncCounter(metrics.StageRowsTotal, 0.5, metrics.Labels{"stage": "field-filter", "direction": "out"})
	b.IncCounter("unknown_metric", 10, metrics.Labels{"kind": "narrow_rows"})

	if got := readCounterValue(t, b.stepCounter.WithLabelValues("materialize", "success")); got != 3 {
		t.Errorf("step counter = %v, want 3", got)
	}
	if got := readCounterValue(t, b.rowCounter.WithLabelValues("narrow_rows")); got != 5 {
		t.Errorf("row counter = %v, want 5", got)
	}
	if got := readCounterValue(t, b.stageCounter.WithLabelValues("field-filter", "out")); got != 2.5 {
		t.Errorf("stage counter = %v, want 2.5", got)
	}
}

// TestIncCounterNilMetrics ensures a zero-value Backend does not panic.
func TestIncCounterNilMetrics(t *testing.T) {
	t.Parallel()

	b := &Backend{}
	b.IncCounter(metrics.StepTotal, 1, metrics.Labels{"step": "s", "status": "success"})
	b.IncCounter(metrics.RowsTotal, 1, metrics.Labels{"kind": "wide_rows"})
	b.IncCounter(metrics.StageRowsTotal, 1, metrics.Labels{})
	b.ObserveHistogram(metrics.StepDurationSeconds, 1, metrics.Labels{})
}

func TestObserveHistogram(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("ukb", "http://example.com")
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}
	lbls := metrics.Labels{"step": "pivot", "status": "success"}
	b.ObserveHistogram(metrics.StepDurationSeconds, 1.5, lbls)
	b.ObserveHistogram("other_metric", 2.0, lbls)

	count, sum := readSummaryCountSum(t, b.stepDuration, "pivot", "success")
	if count != 1 || sum != 1.5 {
		t.Fatalf("summary count/sum = %d/%v, want 1/1.5", count, sum)
	}
}

// TestFlush verifies that Flush pushes the registry to the configured
// Pushgateway under the job grouping key.
func TestFlush(t *testing.T) {
	t.Parallel()

	type pushRequestInfo struct {
		method string
		path   string
		body   string
	}
	reqCh := make(chan pushRequestInfo, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		body, _ := io.ReadAll(r.Body)
		reqCh <- pushRequestInfo{method: r.Method, path: r.URL.Path, body: string(body)}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	b, err := NewBackend("ukb-nightly", server.URL)
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}
	b.IncCounter(metrics.RowsTotal, 1, metrics.Labels{"kind": "narrow_rows"})

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
		t.Fatalf("method = %q, want PUT", got.method)
	}
	if !strings.Contains(got.path, "ukb-nightly") {
		t.Fatalf("path %q does not carry the job name", got.path)
	}
	if len(got.body) == 0 {
		t.Fatalf("push body is empty")
	}
}

// BenchmarkIncCounterRows measures the cost of incrementing the row counter
// through the Backend abstraction.
func BenchmarkIncCounterRows(b *testing.B) {
	backend, err := NewBackend("ukb", "http://example.com")
	if err != nil {
		b.Fatalf("NewBackend() error = %v", err)
	}
	labels := metrics.Labels{"kind": "narrow_rows"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		backend.IncCounter(metrics.RowsTotal, 1, labels)
	}
}
