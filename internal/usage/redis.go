package usage

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Mirror copies per-model usage into Redis hashes so several processes
// serving the same models can be observed together. Each model gets one hash
// at <prefix>:<model> with fields requests and latency_seconds_sum.
type Mirror struct {
	rdb    *redis.Client
	prefix string
}

// NewMirror creates a mirror. If rdb is nil, all writes are no-ops.
func NewMirror(rdb *redis.Client, prefix string) *Mirror {
	if prefix == "" {
		prefix = "amrs:usage"
	}
	return &Mirror{rdb: rdb, prefix: prefix}
}

func (m *Mirror) key(modelID string) string {
	return fmt.Sprintf("%s:%s", m.prefix, modelID)
}

// Record adds one call to the model's hash.
func (m *Mirror) Record(ctx context.Context, modelID string, latency time.Duration) error {
	if m == nil || m.rdb == nil {
		return nil
	}
	if latency < 0 {
		latency = 0
	}

	key := m.key(modelID)
	pipe := m.rdb.Pipeline()
	pipe.HIncrBy(ctx, key, "requests", 1)
	pipe.HIncrByFloat(ctx, key, "latency_seconds_sum", latency.Seconds())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("mirror usage for %s: %w", modelID, err)
	}
	return nil
}

// Fetch reads the shared stats for a model. A missing hash reports zero
// stats; a nil mirror reports zero stats and no error.
func (m *Mirror) Fetch(ctx context.Context, modelID string) (Stats, error) {
	if m == nil || m.rdb == nil {
		return Stats{}, nil
	}

	var (
		count int64
		sum   float64
	)
	vals, err := m.rdb.HMGet(ctx, m.key(modelID), "requests", "latency_seconds_sum").Result()
	if err != nil {
		return Stats{}, fmt.Errorf("fetch usage for %s: %w", modelID, err)
	}
	if s, ok := vals[0].(string); ok {
		if count, err = strconv.ParseInt(s, 10, 64); err != nil {
			return Stats{}, fmt.Errorf("parse requests for %s: %w", modelID, err)
		}
	}
	if s, ok := vals[1].(string); ok {
		if sum, err = strconv.ParseFloat(s, 64); err != nil {
			return Stats{}, fmt.Errorf("parse latency sum for %s: %w", modelID, err)
		}
	}
	if count == 0 {
		return Stats{}, nil
	}
	return Stats{RequestCount: count, AverageLatency: sum / float64(count)}, nil
}
