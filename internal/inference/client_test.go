package inference

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/af-corp/amrs/internal/config"
	"github.com/af-corp/amrs/internal/provider"
	"github.com/af-corp/amrs/internal/resolver"
	"github.com/af-corp/amrs/internal/router"
	"github.com/af-corp/amrs/internal/telemetry"
	"github.com/af-corp/amrs/internal/types"
	"github.com/af-corp/amrs/internal/usage"
)

// stubAdapter implements provider.Adapter for orchestration tests.
type stubAdapter struct {
	err error
}

func (s *stubAdapter) Name() string { return "stub" }
func (s *stubAdapter) Complete(_ context.Context, _ *types.Request) (*types.Response, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &types.Response{
		Choices: []types.Choice{{Message: types.Message{Role: "assistant", Content: "ok"}}},
		Usage:   types.Usage{PromptTokens: 3, CompletionTokens: 1, TotalTokens: 4},
	}, nil
}

func fakeConfig(mode string, ids ...string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Routing.Provider = config.String("fake")
	cfg.Routing.RoutingMode = mode
	for _, id := range ids {
		cfg.Routing.Models = append(cfg.Routing.Models, config.ModelConfig{ID: id})
	}
	return cfg
}

var fakeCreds = resolver.MapCredentials{"FAKE_API_KEY": "unused"}

func userRequest() *types.Request {
	return &types.Request{Messages: []types.Message{{Role: "user", Content: "hi"}}}
}

func singleModelSet(t *testing.T, adapter provider.Adapter) *Set {
	t.Helper()
	models := []types.ModelDescriptor{{ID: "only", Provider: "STUB", Weight: 1}}
	rt, err := router.New("random", models)
	if err != nil {
		t.Fatalf("router: %v", err)
	}
	reg := provider.NewRegistry()
	reg.Register("only", adapter)
	return NewSet(rt, models, reg)
}

func TestBuildSet_Fake(t *testing.T) {
	set, err := BuildSet(fakeConfig("weighted", "a", "b"), fakeCreds)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set.Router.Mode() != types.ModeWeighted {
		t.Errorf("expected weighted router, got %s", set.Router.Mode())
	}
	if len(set.Models) != 2 {
		t.Fatalf("expected 2 models, got %d", len(set.Models))
	}
	if d, ok := set.Model("a"); !ok || d.BaseURL != "http://localhost:8080" {
		t.Errorf("expected fake provider default URL, got %+v", d)
	}
	if a, ok := set.Adapter("b"); !ok || a.Name() != "fake" {
		t.Errorf("expected fake adapter for b")
	}
}

func TestBuildSet_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.Config
		want error
	}{
		{"empty models", fakeConfig("random"), resolver.ErrEmptyModelList},
		{"unsupported mode", fakeConfig("least_latency", "a"), router.ErrUnsupportedMode},
		{"duplicate ids", fakeConfig("random", "a", "a"), resolver.ErrDuplicateModelID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := BuildSet(tt.cfg, fakeCreds)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if set != nil {
				t.Error("expected no set on failure")
			}
		})
	}
}

func TestBuildSet_ZeroWeights(t *testing.T) {
	cfg := fakeConfig("weighted", "a", "b")
	for i := range cfg.Routing.Models {
		cfg.Routing.Models[i].Weight = config.Int(0)
	}
	if _, err := BuildSet(cfg, fakeCreds); !errors.Is(err, router.ErrInvalidWeights) {
		t.Fatalf("expected ErrInvalidWeights, got %v", err)
	}
}

func TestBuildSet_MissingCredential(t *testing.T) {
	if _, err := BuildSet(fakeConfig("random", "a"), resolver.MapCredentials{}); !errors.Is(err, resolver.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
}

func TestComplete_RejectsModelInRequest(t *testing.T) {
	set, _ := BuildSet(fakeConfig("random", "a"), fakeCreds)
	c := NewClient(set, nil)
	req := userRequest()
	req.Model = "gpt-4o"
	if _, err := c.Complete(context.Background(), req); !errors.Is(err, ErrModelInRequest) {
		t.Fatalf("expected ErrModelInRequest, got %v", err)
	}
}

func TestComplete_RejectsEmptyMessages(t *testing.T) {
	set, _ := BuildSet(fakeConfig("random", "a"), fakeCreds)
	c := NewClient(set, nil)
	if _, err := c.Complete(context.Background(), &types.Request{}); !errors.Is(err, ErrEmptyMessages) {
		t.Fatalf("expected ErrEmptyMessages, got %v", err)
	}
}

func TestComplete_RejectsNilRequest(t *testing.T) {
	set, _ := BuildSet(fakeConfig("random", "a"), fakeCreds)
	c := NewClient(set, nil)
	if _, err := c.Complete(context.Background(), nil); !errors.Is(err, ErrNilRequest) {
		t.Fatalf("expected ErrNilRequest, got %v", err)
	}
}

func TestComplete_DoesNotModifyCallerRequest(t *testing.T) {
	set, _ := BuildSet(fakeConfig("random", "a"), fakeCreds)
	c := NewClient(set, nil)
	req := userRequest()
	resp, err := c.Complete(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.RequestID != "" {
		t.Errorf("expected caller request untouched, got request id %q", req.RequestID)
	}
	if !strings.HasPrefix(resp.RequestID, "req_") {
		t.Errorf("expected generated request id on response, got %q", resp.RequestID)
	}
}

func TestComplete_NoSet(t *testing.T) {
	c := NewClient(nil, nil)
	if _, err := c.Complete(context.Background(), userRequest()); !errors.Is(err, ErrNoRoutingSet) {
		t.Fatalf("expected ErrNoRoutingSet, got %v", err)
	}
}

func TestComplete_FakeProvider(t *testing.T) {
	set, err := BuildSet(fakeConfig("random", "fake-a"), fakeCreds)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tracker := usage.NewTracker()
	c := NewClient(set, tracker)

	resp, err := c.Complete(context.Background(), userRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text() != provider.FakeReply {
		t.Errorf("expected fake reply, got %q", resp.Text())
	}
	if resp.Model != "fake-a" || resp.Provider != "FAKE" {
		t.Errorf("expected fake-a/FAKE, got %s/%s", resp.Model, resp.Provider)
	}
	if !strings.HasPrefix(resp.RequestID, "req_") {
		t.Errorf("expected generated request id, got %q", resp.RequestID)
	}
	if got := tracker.Snapshot("fake-a").RequestCount; got != 1 {
		t.Errorf("expected 1 recorded call, got %d", got)
	}
}

func TestComplete_CallbackOrderAndFailures(t *testing.T) {
	var order []string
	record := func(name string, err error) Callback {
		return CallbackFunc(name, func(_ context.Context, ev Event) error {
			order = append(order, name)
			if ev.ModelID != "only" {
				t.Errorf("expected event for model only, got %s", ev.ModelID)
			}
			return err
		})
	}

	reg := prometheus.NewRegistry()
	metrics := telemetry.NewMetricsWith(reg)
	tracker := usage.NewTracker()
	c := NewClient(singleModelSet(t, &stubAdapter{}), tracker,
		WithMetrics(metrics),
		WithCallbacks(
			record("first", nil),
			record("broken", errors.New("sink down")),
			record("last", nil),
		),
	)

	req := userRequest()
	req.RequestID = "req-fixed"
	resp, err := c.Complete(context.Background(), req)
	if err != nil {
		t.Fatalf("callback failure must not fail the call: %v", err)
	}
	if resp.RequestID != "req-fixed" {
		t.Errorf("expected caller request id to be kept, got %q", resp.RequestID)
	}
	if strings.Join(order, ",") != "first,broken,last" {
		t.Errorf("expected callbacks in declared order, got %v", order)
	}
	if got := tracker.Snapshot("only").RequestCount; got != 1 {
		t.Errorf("expected record to survive callback failure, got count %d", got)
	}

	var metric dto.Metric
	metrics.CallbackFailures.WithLabelValues("broken").Write(&metric)
	if *metric.Counter.Value != 1 {
		t.Errorf("expected 1 callback failure metric, got %v", *metric.Counter.Value)
	}
	metrics.SelectionTotal.WithLabelValues("only", "random").Write(&metric)
	if *metric.Counter.Value != 1 {
		t.Errorf("expected 1 selection metric, got %v", *metric.Counter.Value)
	}
}

func TestComplete_ProviderErrorNotRecorded(t *testing.T) {
	called := false
	tracker := usage.NewTracker()
	c := NewClient(singleModelSet(t, &stubAdapter{err: errors.New("upstream 500")}), tracker,
		WithCallbacks(CallbackFunc("probe", func(context.Context, Event) error {
			called = true
			return nil
		})),
	)

	_, err := c.Complete(context.Background(), userRequest())
	if err == nil || !strings.Contains(err.Error(), "only") {
		t.Fatalf("expected error naming the model, got %v", err)
	}
	if tracker.Snapshot("only").RequestCount != 0 {
		t.Error("expected failed calls not to be recorded")
	}
	if called {
		t.Error("expected callbacks to be skipped for failed calls")
	}
}

func TestComplete_CallbacksSurviveCancellation(t *testing.T) {
	var sawErr error
	c := NewClient(singleModelSet(t, &stubAdapter{}), nil,
		WithCallbacks(CallbackFunc("ctx", func(ctx context.Context, _ Event) error {
			sawErr = ctx.Err()
			return nil
		})),
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// The stub ignores ctx, so the call completes despite cancellation.
	if _, err := c.Complete(ctx, userRequest()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sawErr != nil {
		t.Errorf("expected callbacks to see a live context, got %v", sawErr)
	}
}

func TestClient_Swap(t *testing.T) {
	first, _ := BuildSet(fakeConfig("random", "old"), fakeCreds)
	second, _ := BuildSet(fakeConfig("random", "new"), fakeCreds)
	tracker := usage.NewTracker()
	c := NewClient(first, tracker)

	if _, err := c.Complete(context.Background(), userRequest()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c.Swap(second)
	resp, err := c.Complete(context.Background(), userRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Model != "new" {
		t.Errorf("expected swapped set to serve, got %s", resp.Model)
	}
	// One tracker spans both sets.
	if tracker.Snapshot("old").RequestCount != 1 || tracker.Snapshot("new").RequestCount != 1 {
		t.Errorf("unexpected usage: %+v", tracker.Snapshots())
	}
}

func TestComplete_Concurrent(t *testing.T) {
	set, err := BuildSet(fakeConfig("weighted", "a", "b", "c"), fakeCreds)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tracker := usage.NewTracker()
	c := NewClient(set, tracker)

	const workers, calls = 8, 50
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < calls; i++ {
				if _, err := c.Complete(context.Background(), userRequest()); err != nil {
					t.Errorf("unexpected error: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	var total int64
	for _, s := range tracker.Snapshots() {
		total += s.RequestCount
	}
	if total != workers*calls {
		t.Errorf("expected %d recorded calls, got %d", workers*calls, total)
	}
}
