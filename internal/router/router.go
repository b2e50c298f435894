package router

import (
	"fmt"
	"math/rand/v2"

	"github.com/af-corp/amrs/internal/types"
)

// Router picks one model id per request. Implementations are built once from
// a resolved model list and are safe for concurrent use.
type Router interface {
	Sample(req *types.Request) string
	Mode() types.RoutingMode
}

// Source supplies randomness to the sampling strategies.
type Source interface {
	IntN(n int) int
	Float64() float64
}

// globalSource uses the process-wide math/rand/v2 generator, which is safe for
// concurrent callers.
type globalSource struct{}

func (globalSource) IntN(n int) int   { return rand.IntN(n) }
func (globalSource) Float64() float64 { return rand.Float64() }

type options struct {
	source Source
}

// Option customizes router construction.
type Option func(*options)

// WithSource replaces the random source. The source must be safe for
// concurrent use if the router is shared.
func WithSource(src Source) Option {
	return func(o *options) {
		if src != nil {
			o.source = src
		}
	}
}

// New builds the router for mode over models. Construction is the only place
// a router can fail: an unknown mode, an empty list, or unusable weights.
func New(mode string, models []types.ModelDescriptor, opts ...Option) (Router, error) {
	o := options{source: globalSource{}}
	for _, opt := range opts {
		opt(&o)
	}

	m, ok := types.ParseRoutingMode(mode)
	if !ok {
		return nil, &Error{Kind: KindUnsupportedMode, Mode: mode}
	}
	if len(models) == 0 {
		return nil, &Error{Kind: KindNoModels, Mode: mode}
	}

	ids := make([]string, len(models))
	for i, d := range models {
		ids[i] = d.ID
	}

	switch m {
	case types.ModeRandom:
		return &Random{ids: ids, src: o.source}, nil
	case types.ModeWeighted:
		return newWeighted(ids, weights(models), o.source)
	case types.ModeWRR:
		return newWRR(ids, weights(models))
	default:
		return nil, &Error{Kind: KindUnsupportedMode, Mode: mode}
	}
}

func weights(models []types.ModelDescriptor) []int {
	w := make([]int, len(models))
	for i, d := range models {
		w[i] = d.Weight
	}
	return w
}

// checkWeights rejects negative weights and an all-zero vector, and returns
// the total.
func checkWeights(ids []string, w []int, mode types.RoutingMode) (int, error) {
	total := 0
	for i, v := range w {
		if v < 0 {
			return 0, &Error{Kind: KindInvalidWeights, Mode: string(mode), ModelID: ids[i],
				Detail: fmt.Sprintf("weight %d is negative", v)}
		}
		total += v
	}
	if total <= 0 {
		return 0, &Error{Kind: KindInvalidWeights, Mode: string(mode), Detail: "total weight must be positive"}
	}
	return total, nil
}
