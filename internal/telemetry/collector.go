package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/af-corp/amrs/internal/usage"
)

// UsageSource is anything that can report per-model usage, usually a
// *usage.Tracker.
type UsageSource interface {
	Snapshots() map[string]usage.Stats
}

// UsageCollector exports tracker snapshots at scrape time.
type UsageCollector struct {
	source   UsageSource
	requests *prometheus.Desc
	latency  *prometheus.Desc
}

func NewUsageCollector(source UsageSource) *UsageCollector {
	return &UsageCollector{
		source: source,
		requests: prometheus.NewDesc(
			"amrs_model_requests",
			"Completed requests per model since process start.",
			[]string{"model"}, nil,
		),
		latency: prometheus.NewDesc(
			"amrs_model_average_latency_seconds",
			"Running mean latency per model.",
			[]string{"model"}, nil,
		),
	}
}

func (c *UsageCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.requests
	ch <- c.latency
}

func (c *UsageCollector) Collect(ch chan<- prometheus.Metric) {
	for model, s := range c.source.Snapshots() {
		ch <- prometheus.MustNewConstMetric(c.requests, prometheus.CounterValue, float64(s.RequestCount), model)
		ch <- prometheus.MustNewConstMetric(c.latency, prometheus.GaugeValue, s.AverageLatency, model)
	}
}
