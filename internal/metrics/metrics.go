// Package metrics provides a small, backend-agnostic abstraction for recording
// operational metrics from validation and load runs.
//
// A global, pluggable backend defaults to a no-op implementation, so the
// Record* helpers are always safe to call. Concrete metric systems live in
// subpackages (prompush, datadog) and are installed with SetBackend at
// startup.
package metrics

import "time"

// Metric names emitted by the helpers below.
const (
	PassTotal    = "jsontable_pass_total"
	PassDuration = "jsontable_pass_duration_seconds"
	RowsTotal    = "jsontable_rows_total"
	ErrorsTotal  = "jsontable_errors_total"
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

// RecordStep records latency and outcome of one pass of a run, e.g.
// "columns", "lexical", "primary_key", "foreign_key" or "store".
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

	backend.IncCounter(PassTotal, 1, lbls)
	backend.ObserveHistogram(PassDuration, d.Seconds(), lbls)
}

// RecordRow increments a row-level counter for the given job and kind.
//
// Kinds in use:
//   - "analysed"
//   - "with_errors"
//   - "inserted"
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(RowsTotal, float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordErrors counts accumulated data errors of one category, e.g.
// "format" or "foreign_key".
func RecordErrors(job, category string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(ErrorsTotal, float64(delta), Labels{
		"job":      job,
		"category": category,
	})
}
