package provider

import (
	"context"
	"time"

	"github.com/af-corp/amrs/internal/types"
)

// FakeReply is the canned content returned by FakeAdapter.
const FakeReply = "This is a fake response."

// FakeAdapter answers every request locally without network access. It is
// selected for the FAKE provider and is used for local runs and tests.
type FakeAdapter struct {
	model string
	delay time.Duration
}

func NewFakeAdapter(model types.ModelDescriptor) *FakeAdapter {
	return &FakeAdapter{model: model.ID}
}

// WithDelay makes each call take at least d, honoring ctx cancellation.
func (f *FakeAdapter) WithDelay(d time.Duration) *FakeAdapter {
	f.delay = d
	return f
}

func (f *FakeAdapter) Name() string { return "fake" }

func (f *FakeAdapter) Complete(ctx context.Context, _ *types.Request) (*types.Response, error) {
	if f.delay > 0 {
		timer := time.NewTimer(f.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return &types.Response{
		ID:       "fake-response-id",
		Object:   "chat.completion",
		Created:  1_600_000_000,
		Model:    f.model,
		Provider: "FAKE",
		Choices: []types.Choice{{
			Index:        0,
			Message:      types.Message{Role: "assistant", Content: FakeReply},
			FinishReason: "stop",
		}},
	}, nil
}
