package inference

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/af-corp/amrs/internal/telemetry"
	"github.com/af-corp/amrs/internal/types"
	"github.com/af-corp/amrs/internal/usage"
)

var (
	// ErrModelInRequest is returned when a caller names a model; the router
	// owns that choice.
	ErrModelInRequest = errors.New("model must not be set on the request; it is chosen by the router")
	ErrEmptyMessages  = errors.New("messages is required")
	ErrNilRequest     = errors.New("request is nil")
	ErrNoRoutingSet   = errors.New("no routing set loaded")
)

// Client routes each request to one model of the current routing set, calls
// its provider, records usage and runs the callback chain.
type Client struct {
	set     atomic.Pointer[Set]
	tracker *usage.Tracker
	chain   *Chain
	metrics *telemetry.Metrics
	logger  *slog.Logger
}

type Option func(*Client)

func WithCallbacks(callbacks ...Callback) Option {
	return func(c *Client) { c.chain = NewChain(callbacks...) }
}

func WithMetrics(m *telemetry.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a client serving set. A nil tracker gets a fresh one.
func NewClient(set *Set, tracker *usage.Tracker, opts ...Option) *Client {
	if tracker == nil {
		tracker = usage.NewTracker()
	}
	c := &Client{
		tracker: tracker,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if set != nil {
		c.set.Store(set)
	}
	return c
}

// Swap installs a new routing set. Calls already in flight finish on the set
// they started with.
func (c *Client) Swap(set *Set) {
	c.set.Store(set)
}

// Set returns the current routing set, or nil.
func (c *Client) Set() *Set {
	return c.set.Load()
}

func (c *Client) Tracker() *usage.Tracker {
	return c.tracker
}

// Complete runs one inference call. The caller's request is not modified; a
// missing request id is generated on a copy and returned on the response.
func (c *Client) Complete(ctx context.Context, req *types.Request) (*types.Response, error) {
	if req == nil {
		return nil, ErrNilRequest
	}
	if req.Model != "" {
		return nil, ErrModelInRequest
	}
	if len(req.Messages) == 0 {
		return nil, ErrEmptyMessages
	}
	set := c.set.Load()
	if set == nil {
		return nil, ErrNoRoutingSet
	}
	r := *req
	req = &r
	if req.RequestID == "" {
		req.RequestID = "req_" + uuid.NewString()
	}

	modelID := set.Router.Sample(req)
	model, ok := set.Model(modelID)
	if !ok {
		return nil, fmt.Errorf("router returned unknown model %q", modelID)
	}
	adapter, ok := set.Adapter(modelID)
	if !ok {
		return nil, fmt.Errorf("no provider adapter for model %q", modelID)
	}
	if c.metrics != nil {
		c.metrics.RecordSelection(modelID, set.Router.Mode().String())
	}

	start := time.Now()
	resp, err := adapter.Complete(ctx, req)
	latency := time.Since(start)
	if err != nil {
		c.logger.Warn("inference failed",
			"request_id", req.RequestID,
			"model", modelID,
			"provider", model.Provider,
			"duration_ms", latency.Milliseconds(),
			"error", err,
		)
		if c.metrics != nil {
			c.metrics.RecordInference(telemetry.InferenceLabels{Model: modelID, Provider: model.Provider, Status: "error"})
		}
		return nil, fmt.Errorf("model %s: %w", modelID, err)
	}

	c.tracker.Record(modelID, latency)

	resp.RequestID = req.RequestID
	resp.Model = modelID
	resp.Provider = model.Provider

	ev := Event{
		RequestID: req.RequestID,
		ModelID:   modelID,
		Provider:  model.Provider,
		Latency:   latency,
		Response:  resp,
	}
	// Bookkeeping callbacks still run if the caller has gone away.
	for _, f := range c.chain.Run(context.WithoutCancel(ctx), ev) {
		c.logger.Warn("callback failed",
			"request_id", req.RequestID,
			"model", modelID,
			"callback", f.Callback,
			"error", f.Err,
		)
		if c.metrics != nil {
			c.metrics.RecordCallbackFailure(f.Callback)
		}
	}

	return resp, nil
}
