package provider

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/af-corp/amrs/internal/config"
	"github.com/af-corp/amrs/internal/resolver"
	"github.com/af-corp/amrs/internal/types"
)

// FakeProvider is the provider name served by FakeAdapter.
const FakeProvider = "FAKE"

const (
	defaultTimeout       = 60 * time.Second
	defaultMaxConcurrent = 100
)

// Registry holds one adapter per model id.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[string]Adapter),
	}
}

func (r *Registry) Register(modelID string, adapter Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[modelID] = adapter
}

func (r *Registry) Get(modelID string) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[modelID]
	return a, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.adapters)
}

// Build creates adapters for resolved descriptors. Models on the same
// provider share one HTTP client configured from the providers section.
func Build(models []types.ModelDescriptor, providers config.ProvidersConfig, creds resolver.CredentialProvider) (*Registry, error) {
	settings := make(map[string]config.ProviderConfig, len(providers))
	for name, p := range providers {
		settings[types.NormalizeProvider(name)] = p
	}

	registry := NewRegistry()
	clients := make(map[string]*http.Client)
	for _, m := range models {
		if m.Provider == FakeProvider {
			registry.Register(m.ID, NewFakeAdapter(m))
			continue
		}

		var apiKey string
		if creds != nil {
			apiKey, _ = creds.Lookup(m.CredentialKey)
		}
		if apiKey == "" {
			return nil, fmt.Errorf("build adapter for %s: no credential under %s", m.ID, m.CredentialKey)
		}

		cfg := settings[m.Provider]
		client, ok := clients[m.Provider]
		if !ok {
			client = newHTTPClient(cfg)
			clients[m.Provider] = client
		}
		// Every non-fake provider is treated as OpenAI-compatible.
		registry.Register(m.ID, NewOpenAIAdapter(m, apiKey, cfg.Headers, client))
	}
	return registry, nil
}

func newHTTPClient(cfg config.ProviderConfig) *http.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxConns := cfg.MaxConcurrent
	if maxConns <= 0 {
		maxConns = defaultMaxConcurrent
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        maxConns,
			MaxIdleConnsPerHost: maxConns,
			IdleConnTimeout:     90 * time.Second,
			ForceAttemptHTTP2:   true,
		},
	}
}
