package config

import "time"

// ProvidersConfig maps a provider name to its connection defaults. Entries
// here extend or override the built-in provider table.
type ProvidersConfig map[string]ProviderConfig

type ProviderConfig struct {
	BaseURL       string            `yaml:"base_url"`
	MaxConcurrent int               `yaml:"max_concurrent"`
	Timeout       time.Duration     `yaml:"timeout"`
	Headers       map[string]string `yaml:"headers,omitempty"`
}
