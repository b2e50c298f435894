package inference

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/af-corp/amrs/internal/telemetry"
	"github.com/af-corp/amrs/internal/types"
	"github.com/af-corp/amrs/internal/usage"
)

func sampleEvent() Event {
	return Event{
		RequestID: "req-1",
		ModelID:   "gpt-4o",
		Provider:  "OPENAI",
		Latency:   250 * time.Millisecond,
		Response:  &types.Response{Usage: types.Usage{PromptTokens: 10, CompletionTokens: 4}},
	}
}

func TestChain_RunCollectsFailures(t *testing.T) {
	boom := errors.New("boom")
	chain := NewChain(
		CallbackFunc("a", func(context.Context, Event) error { return nil }),
		CallbackFunc("b", func(context.Context, Event) error { return boom }),
		CallbackFunc("c", func(context.Context, Event) error { return boom }),
	)

	failures := chain.Run(context.Background(), sampleEvent())
	if len(failures) != 2 {
		t.Fatalf("expected 2 failures, got %d", len(failures))
	}
	if failures[0].Callback != "b" || failures[1].Callback != "c" {
		t.Errorf("expected failures from b then c, got %+v", failures)
	}
	if !errors.Is(failures[0].Err, boom) {
		t.Errorf("expected wrapped error, got %v", failures[0].Err)
	}
}

func TestChain_Nil(t *testing.T) {
	var chain *Chain
	if chain.Run(context.Background(), sampleEvent()) != nil {
		t.Error("expected nil chain to be empty")
	}
}

func TestLogCallback(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	if err := LogCallback(logger).AfterCompletion(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{`"model":"gpt-4o"`, `"duration_ms":250`, `"prompt_tokens":10`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected log line to contain %s, got %s", want, out)
		}
	}
}

func TestMetricsCallback(t *testing.T) {
	m := telemetry.NewMetricsWith(prometheus.NewRegistry())
	if err := MetricsCallback(m).AfterCompletion(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var metric dto.Metric
	m.InferenceTotal.WithLabelValues("gpt-4o", "OPENAI", "ok").Write(&metric)
	if *metric.Counter.Value != 1 {
		t.Errorf("expected 1 inference, got %v", *metric.Counter.Value)
	}
	m.TokensTotal.WithLabelValues("gpt-4o", "completion").Write(&metric)
	if *metric.Counter.Value != 4 {
		t.Errorf("expected 4 completion tokens, got %v", *metric.Counter.Value)
	}
}

func TestMirrorCallback_NilRedis(t *testing.T) {
	cb := MirrorCallback(usage.NewMirror(nil, ""))
	if cb.Name() != "redis-mirror" {
		t.Errorf("unexpected name %s", cb.Name())
	}
	if err := cb.AfterCompletion(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
