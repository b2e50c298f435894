package resolver

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/af-corp/amrs/internal/config"
	"github.com/af-corp/amrs/internal/types"
)

// Library defaults, used when neither the model nor the global section sets
// a value.
const (
	DefaultTemperature = 0.8
	DefaultMaxTokens   = 1024
	DefaultWeight      = 1
)

// Resolver merges global settings, provider defaults and per-model overrides
// into validated model descriptors.
type Resolver struct {
	providers   ProviderTable
	credentials CredentialProvider
	validate    *validator.Validate
}

// New creates a resolver. A nil table means DefaultProviderTable.
func New(providers ProviderTable, credentials CredentialProvider) *Resolver {
	if providers == nil {
		providers = DefaultProviderTable()
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return &Resolver{
		providers:   providers,
		credentials: credentials,
		validate:    v,
	}
}

// Resolve resolves the model list of a routing set against its global section.
func (r *Resolver) Resolve(cfg config.RoutingConfig) ([]types.ModelDescriptor, error) {
	return r.ResolveModels(cfg.BasicModelConfig, cfg.Models)
}

// ResolveModels returns one descriptor per model, in input order. The whole
// set is rejected on the first violation; there is no partial result.
func (r *Resolver) ResolveModels(global config.BasicModelConfig, models []config.ModelConfig) ([]types.ModelDescriptor, error) {
	if len(models) == 0 {
		return nil, &ConfigError{Kind: KindEmptyModelList}
	}

	out := make([]types.ModelDescriptor, len(models))
	for i, m := range models {
		out[i] = r.merge(global, m)
	}

	seen := make(map[string]struct{}, len(out))
	for i, d := range out {
		if d.ID == "" {
			return nil, &ConfigError{Kind: KindMissingModelID, Field: strconv.Itoa(i)}
		}
		if _, dup := seen[d.ID]; dup {
			return nil, &ConfigError{Kind: KindDuplicateModelID, ModelID: d.ID, Field: "id"}
		}
		seen[d.ID] = struct{}{}

		if d.BaseURL == "" {
			return nil, &ConfigError{Kind: KindMissingBaseURL, ModelID: d.ID, Field: "base_url"}
		}
		if err := r.checkParams(d); err != nil {
			return nil, err
		}
		if !r.hasCredential(d.CredentialKey) {
			return nil, &ConfigError{Kind: KindMissingCredential, ModelID: d.ID, Key: d.CredentialKey}
		}
	}
	return out, nil
}

// merge picks one effective value per field. Each field is decided exactly
// once: model, then provider default, then global, then library default.
func (r *Resolver) merge(global config.BasicModelConfig, m config.ModelConfig) types.ModelDescriptor {
	provider := types.DefaultProvider
	switch {
	case m.Provider != nil && *m.Provider != "":
		provider = *m.Provider
	case global.Provider != nil && *global.Provider != "":
		provider = *global.Provider
	}
	provider = types.NormalizeProvider(provider)

	var baseURL string
	if m.BaseURL != nil && *m.BaseURL != "" {
		baseURL = *m.BaseURL
	} else if u, ok := r.providers.BaseURL(provider); ok {
		baseURL = u
	} else if global.BaseURL != nil {
		baseURL = *global.BaseURL
	}

	temperature := DefaultTemperature
	if m.Temperature != nil {
		temperature = *m.Temperature
	} else if global.Temperature != nil {
		temperature = *global.Temperature
	}

	maxTokens := DefaultMaxTokens
	if m.MaxTokens != nil {
		maxTokens = *m.MaxTokens
	} else if global.MaxTokens != nil {
		maxTokens = *global.MaxTokens
	}

	weight := DefaultWeight
	if m.Weight != nil {
		weight = *m.Weight
	}

	return types.ModelDescriptor{
		ID:            strings.TrimSpace(m.ID),
		Provider:      provider,
		BaseURL:       strings.TrimRight(baseURL, "/"),
		Temperature:   temperature,
		MaxTokens:     maxTokens,
		Weight:        weight,
		CredentialKey: types.CredentialKey(provider),
	}
}

func (r *Resolver) checkParams(d types.ModelDescriptor) error {
	err := r.validate.Struct(d)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validate model %q: %w", d.ID, err)
	}
	fe := verrs[0]
	return &ConfigError{
		Kind:    KindInvalidParameter,
		ModelID: d.ID,
		Field:   fe.Field(),
		Message: describe(fe),
	}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "url":
		return fmt.Sprintf("%s must be a valid URL, got %q", fe.Field(), fe.Value())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s, got %v", fe.Field(), fe.Param(), fe.Value())
	case "gte":
		return fmt.Sprintf("%s must be at least %s, got %v", fe.Field(), fe.Param(), fe.Value())
	case "lte":
		return fmt.Sprintf("%s must be at most %s, got %v", fe.Field(), fe.Param(), fe.Value())
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	default:
		return fmt.Sprintf("%s failed %q validation", fe.Field(), fe.Tag())
	}
}

func (r *Resolver) hasCredential(key string) bool {
	if r.credentials == nil {
		return false
	}
	_, ok := r.credentials.Lookup(key)
	return ok
}
