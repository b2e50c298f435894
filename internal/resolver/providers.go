package resolver

import (
	"github.com/af-corp/amrs/internal/config"
	"github.com/af-corp/amrs/internal/types"
)

// ProviderTable maps a normalized provider name to its default base URL.
type ProviderTable map[string]string

// DefaultProviderTable returns the built-in provider defaults.
func DefaultProviderTable() ProviderTable {
	return ProviderTable{
		"OPENAI":     "https://api.openai.com/v1",
		"DEEPINFRA":  "https://api.deepinfra.com/v1/openai",
		"OPENROUTER": "https://openrouter.ai/api/v1",
		"FAKE":       "http://localhost:8080",
	}
}

// ProviderTableFrom layers the base_url entries of a providers section over
// the built-in defaults.
func ProviderTableFrom(providers config.ProvidersConfig) ProviderTable {
	table := DefaultProviderTable()
	for name, p := range providers {
		if p.BaseURL == "" {
			continue
		}
		table[types.NormalizeProvider(name)] = p.BaseURL
	}
	return table
}

// BaseURL returns the default base URL for provider, if one is known.
func (t ProviderTable) BaseURL(provider string) (string, bool) {
	u, ok := t[types.NormalizeProvider(provider)]
	if !ok || u == "" {
		return "", false
	}
	return u, true
}
