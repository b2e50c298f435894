package config

// BasicModelConfig holds the settings shared by the global routing section and
// every model entry. A nil field is unset and inherits from the next layer.
type BasicModelConfig struct {
	BaseURL     *string  `yaml:"base_url,omitempty"`
	Provider    *string  `yaml:"provider,omitempty"`
	Temperature *float64 `yaml:"temperature,omitempty"`
	MaxTokens   *int     `yaml:"max_tokens,omitempty"`
}

// ModelConfig is one candidate model as written in the routing document.
type ModelConfig struct {
	BasicModelConfig `yaml:",inline"`

	ID     string `yaml:"id"`
	Weight *int   `yaml:"weight,omitempty"`
}

// RoutingConfig is one routing set: global defaults, the ordered model list
// and the strategy used to choose between them.
type RoutingConfig struct {
	BasicModelConfig `yaml:",inline"`

	RoutingMode string        `yaml:"routing_mode"`
	Models      []ModelConfig `yaml:"models"`
}

// String, Float, Int return a pointer to v. They keep literal configs in
// code and tests short.
func String(v string) *string { return &v }

func Float(v float64) *float64 { return &v }

func Int(v int) *int { return &v }
