package router

import "github.com/af-corp/amrs/internal/types"

// Random picks uniformly among its models and ignores weights.
type Random struct {
	ids []string
	src Source
}

func (r *Random) Sample(_ *types.Request) string {
	if len(r.ids) == 1 {
		return r.ids[0]
	}
	return r.ids[r.src.IntN(len(r.ids))]
}

func (r *Random) Mode() types.RoutingMode { return types.ModeRandom }
