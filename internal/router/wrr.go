package router

import (
	"sync"

	"github.com/af-corp/amrs/internal/types"
)

// WRR is a smooth weighted round-robin: over every window of total picks each
// model is chosen exactly weight times, interleaved rather than bunched.
// Unlike the random strategies it carries state between calls.
type WRR struct {
	ids     []string
	weights []int
	total   int

	mu      sync.Mutex
	current []int
}

func newWRR(ids []string, w []int) (*WRR, error) {
	total, err := checkWeights(ids, w, types.ModeWRR)
	if err != nil {
		return nil, err
	}
	return &WRR{
		ids:     ids,
		weights: w,
		total:   total,
		current: make([]int, len(w)),
	}, nil
}

func (r *WRR) Sample(_ *types.Request) string {
	if len(r.ids) == 1 {
		return r.ids[0]
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	best := 0
	for i := range r.current {
		r.current[i] += r.weights[i]
		if r.current[i] > r.current[best] {
			best = i
		}
	}
	r.current[best] -= r.total
	return r.ids[best]
}

func (r *WRR) Mode() types.RoutingMode { return types.ModeWRR }
