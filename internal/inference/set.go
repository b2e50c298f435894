package inference

import (
	"fmt"

	"github.com/af-corp/amrs/internal/config"
	"github.com/af-corp/amrs/internal/provider"
	"github.com/af-corp/amrs/internal/resolver"
	"github.com/af-corp/amrs/internal/router"
	"github.com/af-corp/amrs/internal/types"
)

// Set is one fully validated routing set: resolved descriptors, the router
// over them, and an adapter per model. A Set is never modified; a reload
// builds a new one.
type Set struct {
	Router   router.Router
	Models   []types.ModelDescriptor
	byID     map[string]types.ModelDescriptor
	adapters *provider.Registry
}

// BuildSet resolves cfg.Routing, constructs its router and builds provider
// adapters. Any failure rejects the whole set.
func BuildSet(cfg *config.Config, creds resolver.CredentialProvider, opts ...router.Option) (*Set, error) {
	res := resolver.New(resolver.ProviderTableFrom(cfg.Providers), creds)
	models, err := res.Resolve(cfg.Routing)
	if err != nil {
		return nil, err
	}

	rt, err := router.New(cfg.Routing.RoutingMode, models, opts...)
	if err != nil {
		return nil, err
	}

	adapters, err := provider.Build(models, cfg.Providers, creds)
	if err != nil {
		return nil, fmt.Errorf("build providers: %w", err)
	}

	return NewSet(rt, models, adapters), nil
}

// NewSet assembles a set from already-built parts.
func NewSet(rt router.Router, models []types.ModelDescriptor, adapters *provider.Registry) *Set {
	byID := make(map[string]types.ModelDescriptor, len(models))
	for _, m := range models {
		byID[m.ID] = m
	}
	return &Set{Router: rt, Models: models, byID: byID, adapters: adapters}
}

// Model returns the descriptor for id.
func (s *Set) Model(id string) (types.ModelDescriptor, bool) {
	d, ok := s.byID[id]
	return d, ok
}

// Adapter returns the provider adapter bound to model id.
func (s *Set) Adapter(id string) (provider.Adapter, bool) {
	if s.adapters == nil {
		return nil, false
	}
	return s.adapters.Get(id)
}
