package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for routed inference.
type Metrics struct {
	InferenceTotal      *prometheus.CounterVec
	InferenceDurationMs *prometheus.HistogramVec
	SelectionTotal      *prometheus.CounterVec
	TokensTotal         *prometheus.CounterVec
	CallbackFailures    *prometheus.CounterVec
	ConfigReloadTotal   *prometheus.CounterVec
}

// NewMetricsWith registers all metrics on reg.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		InferenceTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "amrs_inference_total",
			Help: "Total number of routed inference calls.",
		}, []string{"model", "provider", "status"}),

		InferenceDurationMs: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "amrs_inference_duration_ms",
			Help:    "Provider call latency in milliseconds.",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
		}, []string{"model", "provider"}),

		SelectionTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "amrs_routing_selection_total",
			Help: "Models chosen by the router.",
		}, []string{"model", "mode"}),

		TokensTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "amrs_tokens_total",
			Help: "Total tokens reported by providers.",
		}, []string{"model", "direction"}),

		CallbackFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "amrs_callback_failure_total",
			Help: "Post-inference callbacks that returned an error.",
		}, []string{"callback"}),

		ConfigReloadTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "amrs_config_reload_total",
			Help: "Routing set reloads by result.",
		}, []string{"result"}),
	}
}

// InferenceLabels holds the label values for one finished inference call.
type InferenceLabels struct {
	Model            string
	Provider         string
	Status           string
	DurationMs       float64
	PromptTokens     int
	CompletionTokens int
}

// RecordInference records metrics for a finished provider call.
func (m *Metrics) RecordInference(labels InferenceLabels) {
	m.InferenceTotal.WithLabelValues(labels.Model, labels.Provider, labels.Status).Inc()

	if labels.Status != "ok" {
		return
	}

	m.InferenceDurationMs.WithLabelValues(labels.Model, labels.Provider).Observe(labels.DurationMs)

	if labels.PromptTokens > 0 {
		m.TokensTotal.WithLabelValues(labels.Model, "prompt").Add(float64(labels.PromptTokens))
	}
	if labels.CompletionTokens > 0 {
		m.TokensTotal.WithLabelValues(labels.Model, "completion").Add(float64(labels.CompletionTokens))
	}
}

func (m *Metrics) RecordSelection(model, mode string) {
	m.SelectionTotal.WithLabelValues(model, mode).Inc()
}

func (m *Metrics) RecordCallbackFailure(callback string) {
	m.CallbackFailures.WithLabelValues(callback).Inc()
}

func (m *Metrics) RecordReload(ok bool) {
	result := "ok"
	if !ok {
		result = "rejected"
	}
	m.ConfigReloadTotal.WithLabelValues(result).Inc()
}
