// Package metrics provides a small, backend-agnostic abstraction for
// recording operational metrics from the dump loader.
//
// It exposes a narrow Backend interface focused on counters and timing data,
// with a global, pluggable backend that defaults to a no-op implementation,
// so metric calls are always safe even when no real backend is configured.
// Concrete systems (Prometheus Pushgateway today) live in subpackages and
// the rest of the codebase depends only on this interface.
package metrics

import "time"

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveDuration records a latency/duration style value in seconds.
	ObserveDuration(name string, seconds float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it.
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)        {}
func (nopBackend) ObserveDuration(name string, seconds float64, labels Labels) {}
func (nopBackend) Flush() error                                                { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing one.
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

// RecordFile measures one file's run: outcome plus wall time. file labels
// the metric, typically with the input file name.
func RecordFile(file string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{"file": file, "status": status}
	backend.IncCounter("dump_files_total", 1, lbls)
	backend.ObserveDuration("dump_file_duration_seconds", d.Seconds(), lbls)
}

// RecordRow increments a record-level counter for the given file and kind.
//
// Typical kinds:
//   - "entities"  completed entities emitted by the parser
//   - "inserted"  rows confirmed by the bulk loader
func RecordRow(file, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("dump_records_total", float64(delta), Labels{
		"file": file,
		"kind": kind,
	})
}

// RecordBatches increments the flushed-batch counter for the given file.
func RecordBatches(file string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("dump_batches_total", float64(delta), Labels{
		"file": file,
	})
}
