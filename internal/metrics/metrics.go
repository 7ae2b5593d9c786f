// Package metrics provides a small, backend-agnostic abstraction for recording
// operational metrics from extraction runs.
//
// It exposes a narrow Backend interface (counters and timing observations)
// behind a global, pluggable backend that defaults to a no-op, so metrics are
// always safe to call even when no real backend is configured. Concrete
// metric systems live in subpackages (prompush, datadog).
package metrics

import "time"

// Metric names emitted by the helpers below.
const (
	StepTotal           = "phenoextract_step_total"
	StepDurationSeconds = "phenoextract_step_duration_seconds"
	RowsTotal           = "phenoextract_rows_total"
	StageRowsTotal      = "phenoextract_stage_rows_total"
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

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStep records latency and success/failure of one run step, e.g.
// "load-references", "materialize", "pivot" or "write-outputs".
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"job":    job,
		"step":   step,
		"status": status,
	}

	backend.IncCounter(StepTotal, 1, lbls)
	backend.ObserveHistogram(StepDurationSeconds, d.Seconds(), lbls)
}

// RecordRow increments a row-level counter for the given job and kind.
//
// Kinds used by the CLI:
//   - "narrow_rows"
//   - "wide_rows"
//   - "coercion_failures"
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(RowsTotal, float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordStage records the rows that entered and left one pipeline stage.
func RecordStage(job, stage string, in, out int64) {
	if in > 0 {
		backend.IncCounter(StageRowsTotal, float64(in), Labels{"job": job, "stage": stage, "direction": "in"})
	}
	if out > 0 {
		backend.IncCounter(StageRowsTotal, float64(out), Labels{"job": job, "stage": stage, "direction": "out"})
	}
}
