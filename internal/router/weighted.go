package router

import (
	"sort"

	"github.com/af-corp/amrs/internal/types"
)

// Weighted treats each model's weight as relative probability mass. The
// cumulative table is built once and never modified.
type Weighted struct {
	ids        []string
	cumulative []int
	total      int
	// last is the highest index with a positive weight.
	last int
	src  Source
}

func newWeighted(ids []string, w []int, src Source) (*Weighted, error) {
	total, err := checkWeights(ids, w, types.ModeWeighted)
	if err != nil {
		return nil, err
	}
	cum := make([]int, len(w))
	running, last := 0, 0
	for i, v := range w {
		running += v
		cum[i] = running
		if v > 0 {
			last = i
		}
	}
	return &Weighted{ids: ids, cumulative: cum, total: total, last: last, src: src}, nil
}

// Sample draws from [0, total) and returns the first model whose cumulative
// weight exceeds the draw. Zero-weight models never satisfy that and are
// skipped; equal weights resolve in list order.
func (w *Weighted) Sample(_ *types.Request) string {
	draw := w.src.Float64() * float64(w.total)
	i := sort.Search(len(w.cumulative), func(i int) bool {
		return float64(w.cumulative[i]) > draw
	})
	if i == len(w.cumulative) {
		i = w.last
	}
	return w.ids[i]
}

func (w *Weighted) Mode() types.RoutingMode { return types.ModeWeighted }
