// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// A batch loader has no long-lived scrape endpoint, so collected metrics are
// pushed to a Pushgateway at the end of the run instead. All Prometheus
// dependencies stay inside this package; the rest of the codebase only sees
// metrics.Backend.
package prompush

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"discogsload/internal/metrics"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string
	jobName    string
	reg        *prometheus.Registry

	fileCounter  *prometheus.CounterVec // "dump_files_total"
	fileDuration *prometheus.SummaryVec // "dump_file_duration_seconds"

	recordCounter *prometheus.CounterVec // "dump_records_total"
	batchCounter  *prometheus.CounterVec // "dump_batches_total"
}

// NewBackend constructs a Prometheus Pushgateway backend. jobName is the
// Pushgateway "job" grouping key; gatewayURL its base URL.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "discogsload"
	}

	reg := prometheus.NewRegistry()

	fileCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dump_files_total",
			Help: "Total number of dump files processed, partitioned by file and status.",
		},
		[]string{"file", "status"},
	)
	fileDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "dump_file_duration_seconds",
			Help:       "Wall time spent per dump file, partitioned by file and status.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"file", "status"},
	)
	recordCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dump_records_total",
			Help: "Record-level counts per file and kind (entities, inserted).",
		},
		[]string{"file", "kind"},
	)
	batchCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dump_batches_total",
			Help: "Total number of bulk-insert batches flushed, partitioned by file.",
		},
		[]string{"file"},
	)

	for name, c := range map[string]prometheus.Collector{
		"file counter":   fileCounter,
		"file duration":  fileDuration,
		"record counter": recordCounter,
		"batch counter":  batchCounter,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register %s: %w", name, err)
		}
	}

	return &Backend{
		gatewayURL:    gatewayURL,
		jobName:       jobName,
		reg:           reg,
		fileCounter:   fileCounter,
		fileDuration:  fileDuration,
		recordCounter: recordCounter,
		batchCounter:  batchCounter,
	}, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case "dump_files_total":
		b.fileCounter.WithLabelValues(labels["file"], labels["status"]).Add(delta)
	case "dump_records_total":
		b.recordCounter.WithLabelValues(labels["file"], labels["kind"]).Add(delta)
	case "dump_batches_total":
		b.batchCounter.WithLabelValues(labels["file"]).Add(delta)
	default:
		// unknown metric name: ignore
	}
}

func (b *Backend) ObserveDuration(name string, seconds float64, labels metrics.Labels) {
	if name != "dump_file_duration_seconds" {
		return
	}
	b.fileDuration.WithLabelValues(labels["file"], labels["status"]).Observe(seconds)
}

// Flush pushes the current registry to the Pushgateway.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).
		Gatherer(b.reg).
		Push()
}
