// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// Runs are short-lived CLI invocations, so metrics are collected into a
// private registry and pushed to a Pushgateway on Flush rather than exposed
// on a scrape endpoint.
package prompush

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"jsontable/internal/metrics"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string // e.g. http://pushgateway:9091
	jobName    string // Pushgateway "job" group
	reg        *prometheus.Registry

	passCounter  *prometheus.CounterVec // jsontable_pass_total
	passDuration *prometheus.SummaryVec // jsontable_pass_duration_seconds

	rowCounter   *prometheus.CounterVec // jsontable_rows_total
	errorCounter *prometheus.CounterVec // jsontable_errors_total
}

// NewBackend constructs a Prometheus Pushgateway backend.
// jobName: the Pushgateway "job" name.
// gatewayURL: base URL of the Pushgateway server.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "jsontable"
	}

	reg := prometheus.NewRegistry()

	// The job label is the Pushgateway grouping key, so it is not repeated
	// on the collectors.
	passCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.PassTotal,
			Help: "Validation and load passes, partitioned by pass and status.",
		},
		[]string{"step", "status"},
	)
	passDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       metrics.PassDuration,
			Help:       "Duration of validation and load passes in seconds.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"step", "status"},
	)
	rowCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.RowsTotal,
			Help: "Row counts per kind (analysed, with_errors, inserted).",
		},
		[]string{"kind"},
	)
	errorCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.ErrorsTotal,
			Help: "Accumulated data errors per category.",
		},
		[]string{"category"},
	)

	for name, c := range map[string]prometheus.Collector{
		"pass counter":  passCounter,
		"pass summary":  passDuration,
		"row counter":   rowCounter,
		"error counter": errorCounter,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register %s: %w", name, err)
		}
	}

	return &Backend{
		gatewayURL:   gatewayURL,
		jobName:      jobName,
		reg:          reg,
		passCounter:  passCounter,
		passDuration: passDuration,
		rowCounter:   rowCounter,
		errorCounter: errorCounter,
	}, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.PassTotal:
		if b.passCounter == nil {
			return
		}
		b.passCounter.WithLabelValues(labels["step"], labels["status"]).Add(delta)

	case metrics.RowsTotal:
		if b.rowCounter == nil {
			return
		}
		b.rowCounter.WithLabelValues(labels["kind"]).Add(delta)

	case metrics.ErrorsTotal:
		if b.errorCounter == nil {
			return
		}
		b.errorCounter.WithLabelValues(labels["category"]).Add(delta)

	default:
		// unknown metric name: ignore
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != metrics.PassDuration || b.passDuration == nil {
		return
	}
	b.passDuration.WithLabelValues(labels["step"], labels["status"]).Observe(value)
}

// Flush pushes the current registry to the Pushgateway.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).
		Gatherer(b.reg).
		Push()
}
