package resolver

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// CredentialProvider answers whether a secret exists for a lookup key such as
// OPENAI_API_KEY, and returns it.
type CredentialProvider interface {
	Lookup(key string) (string, bool)
}

// EnvCredentials reads secrets from the process environment.
type EnvCredentials struct{}

func (EnvCredentials) Lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// MapCredentials is a fixed set of secrets.
type MapCredentials map[string]string

func (m MapCredentials) Lookup(key string) (string, bool) {
	v, ok := m[key]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// DotEnvCredentials parses dotenv files into a MapCredentials without
// touching the process environment. Later files override earlier ones.
func DotEnvCredentials(paths ...string) (MapCredentials, error) {
	creds := MapCredentials{}
	for _, p := range paths {
		vals, err := godotenv.Read(p)
		if err != nil {
			return nil, fmt.Errorf("read env file %s: %w", p, err)
		}
		for k, v := range vals {
			creds[k] = v
		}
	}
	return creds, nil
}

// ChainCredentials consults each provider in order and returns the first hit.
type ChainCredentials []CredentialProvider

func (c ChainCredentials) Lookup(key string) (string, bool) {
	for _, p := range c {
		if p == nil {
			continue
		}
		if v, ok := p.Lookup(key); ok {
			return v, true
		}
	}
	return "", false
}
