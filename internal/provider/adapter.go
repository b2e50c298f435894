package provider

import (
	"context"

	"github.com/af-corp/amrs/internal/types"
)

// Adapter performs one inference call against a single resolved model. The
// model id, endpoint and generation parameters are bound at construction.
type Adapter interface {
	Name() string
	Complete(ctx context.Context, req *types.Request) (*types.Response, error)
}
