package types

import "strings"

// DefaultProvider is the provider tag used when neither a model nor the
// global section names one.
const DefaultProvider = "AMRS"

// NormalizeProvider canonicalizes a provider name for table lookups and
// credential key derivation: upper-case, dashes folded to underscores.
func NormalizeProvider(name string) string {
	name = strings.ToUpper(strings.TrimSpace(name))
	return strings.ReplaceAll(name, "-", "_")
}

// CredentialKey returns the lookup key holding the secret for a provider,
// e.g. "OPENAI" -> "OPENAI_API_KEY".
func CredentialKey(provider string) string {
	return NormalizeProvider(provider) + "_API_KEY"
}

// ModelDescriptor is the resolved, validated configuration of one callable
// model. Descriptors are read-only after resolution.
type ModelDescriptor struct {
	ID            string  `json:"id" validate:"required"`
	Provider      string  `json:"provider" validate:"required"`
	BaseURL       string  `json:"base_url" validate:"required,url"`
	Temperature   float64 `json:"temperature" validate:"gte=0,lte=1"`
	MaxTokens     int     `json:"max_tokens" validate:"gt=0"`
	Weight        int     `json:"weight" validate:"gte=0"`
	CredentialKey string  `json:"credential_key"`
}
