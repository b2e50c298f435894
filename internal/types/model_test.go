package types

import "testing"

func TestCredentialKey(t *testing.T) {
	tests := []struct {
		provider string
		key      string
	}{
		{"openai", "OPENAI_API_KEY"},
		{"OPENAI", "OPENAI_API_KEY"},
		{"deep-infra", "DEEP_INFRA_API_KEY"},
		{" openrouter ", "OPENROUTER_API_KEY"},
		{DefaultProvider, "AMRS_API_KEY"},
	}

	for _, tt := range tests {
		if got := CredentialKey(tt.provider); got != tt.key {
			t.Errorf("CredentialKey(%q) = %q, want %q", tt.provider, got, tt.key)
		}
	}
}
