package types

import "strings"

// RoutingMode selects the strategy a router uses to pick a model per request.
type RoutingMode string

const (
	ModeRandom   RoutingMode = "random"
	ModeWeighted RoutingMode = "weighted"
	ModeWRR      RoutingMode = "wrr"
)

// Weighted returns true if the mode reads per-model weights.
func (m RoutingMode) Weighted() bool {
	switch m {
	case ModeWeighted, ModeWRR:
		return true
	default:
		return false
	}
}

func (m RoutingMode) String() string { return string(m) }

// ParseRoutingMode maps a configuration string onto a known mode. Matching is
// case-insensitive and ignores surrounding whitespace.
func ParseRoutingMode(s string) (RoutingMode, bool) {
	switch m := RoutingMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeRandom, ModeWeighted, ModeWRR:
		return m, true
	default:
		return "", false
	}
}
