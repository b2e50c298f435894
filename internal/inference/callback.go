package inference

import (
	"context"
	"log/slog"
	"time"

	"github.com/af-corp/amrs/internal/telemetry"
	"github.com/af-corp/amrs/internal/types"
	"github.com/af-corp/amrs/internal/usage"
)

// Event describes one completed inference call.
type Event struct {
	RequestID string
	ModelID   string
	Provider  string
	Latency   time.Duration
	Response  *types.Response
}

// Callback runs after a call has completed and its usage has been recorded.
type Callback interface {
	Name() string
	AfterCompletion(ctx context.Context, ev Event) error
}

// Failure is a callback error attributed to the callback that produced it.
type Failure struct {
	Callback string
	Err      error
}

// Chain runs callbacks in order. A failing callback does not stop the ones
// after it.
type Chain struct {
	callbacks []Callback
}

// NewChain creates a callback chain from the given callbacks.
func NewChain(callbacks ...Callback) *Chain {
	return &Chain{callbacks: callbacks}
}

// Run executes every callback sequentially and returns the failures.
func (c *Chain) Run(ctx context.Context, ev Event) []Failure {
	if c == nil {
		return nil
	}
	var failures []Failure
	for _, cb := range c.callbacks {
		if err := cb.AfterCompletion(ctx, ev); err != nil {
			failures = append(failures, Failure{Callback: cb.Name(), Err: err})
		}
	}
	return failures
}

type funcCallback struct {
	name string
	fn   func(context.Context, Event) error
}

func (f funcCallback) Name() string { return f.name }

func (f funcCallback) AfterCompletion(ctx context.Context, ev Event) error { return f.fn(ctx, ev) }

// CallbackFunc adapts a function to the Callback interface.
func CallbackFunc(name string, fn func(context.Context, Event) error) Callback {
	return funcCallback{name: name, fn: fn}
}

// LogCallback writes one structured line per completed call.
func LogCallback(logger *slog.Logger) Callback {
	return CallbackFunc("log", func(_ context.Context, ev Event) error {
		attrs := []any{
			"request_id", ev.RequestID,
			"model", ev.ModelID,
			"provider", ev.Provider,
			"duration_ms", ev.Latency.Milliseconds(),
		}
		if ev.Response != nil {
			attrs = append(attrs,
				"prompt_tokens", ev.Response.Usage.PromptTokens,
				"completion_tokens", ev.Response.Usage.CompletionTokens,
			)
		}
		logger.Info("inference completed", attrs...)
		return nil
	})
}

// MetricsCallback records Prometheus metrics for completed calls.
func MetricsCallback(m *telemetry.Metrics) Callback {
	return CallbackFunc("metrics", func(_ context.Context, ev Event) error {
		labels := telemetry.InferenceLabels{
			Model:      ev.ModelID,
			Provider:   ev.Provider,
			Status:     "ok",
			DurationMs: float64(ev.Latency.Microseconds()) / 1000,
		}
		if ev.Response != nil {
			labels.PromptTokens = ev.Response.Usage.PromptTokens
			labels.CompletionTokens = ev.Response.Usage.CompletionTokens
		}
		m.RecordInference(labels)
		return nil
	})
}

// MirrorCallback copies each completed call into the shared Redis mirror.
func MirrorCallback(mirror *usage.Mirror) Callback {
	return CallbackFunc("redis-mirror", func(ctx context.Context, ev Event) error {
		return mirror.Record(ctx, ev.ModelID, ev.Latency)
	})
}
