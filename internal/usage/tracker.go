package usage

import (
	"sync"
	"time"
)

// Stats is a point-in-time copy of one model's usage.
type Stats struct {
	RequestCount int64 `json:"request_count"`
	// AverageLatency is the running mean latency in seconds.
	AverageLatency float64 `json:"average_latency_seconds"`
}

// Average returns AverageLatency as a duration.
func (s Stats) Average() time.Duration {
	return time.Duration(s.AverageLatency * float64(time.Second))
}

type entry struct {
	mu    sync.Mutex
	stats Stats
}

// record folds one latency sample into the running mean. Count and mean move
// together under the entry lock.
func (e *entry) record(seconds float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := float64(e.stats.RequestCount)
	e.stats.AverageLatency += (seconds - e.stats.AverageLatency) / (n + 1)
	e.stats.RequestCount++
}

func (e *entry) snapshot() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// Tracker accumulates per-model request counts and latencies. Each model has
// its own lock, so updates to different models never contend.
type Tracker struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

func NewTracker() *Tracker {
	return &Tracker{
		entries: make(map[string]*entry),
	}
}

// get returns (or lazily creates) the entry for a model.
func (t *Tracker) get(modelID string) *entry {
	t.mu.RLock()
	e, ok := t.entries[modelID]
	t.mu.RUnlock()
	if ok {
		return e
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	// Double-check after acquiring write lock
	if e, ok := t.entries[modelID]; ok {
		return e
	}
	e = &entry{}
	t.entries[modelID] = e
	return e
}

// Record counts one completed call. Negative latencies are clamped to zero.
func (t *Tracker) Record(modelID string, latency time.Duration) {
	if latency < 0 {
		latency = 0
	}
	t.get(modelID).record(latency.Seconds())
}

// Snapshot returns the current stats for a model. Unknown models report zero
// stats and are not created.
func (t *Tracker) Snapshot(modelID string) Stats {
	t.mu.RLock()
	e, ok := t.entries[modelID]
	t.mu.RUnlock()
	if !ok {
		return Stats{}
	}
	return e.snapshot()
}

// Snapshots returns a copy of every tracked model's stats.
func (t *Tracker) Snapshots() map[string]Stats {
	t.mu.RLock()
	ids := make([]string, 0, len(t.entries))
	entries := make([]*entry, 0, len(t.entries))
	for id, e := range t.entries {
		ids = append(ids, id)
		entries = append(entries, e)
	}
	t.mu.RUnlock()

	out := make(map[string]Stats, len(ids))
	for i, e := range entries {
		out[ids[i]] = e.snapshot()
	}
	return out
}
