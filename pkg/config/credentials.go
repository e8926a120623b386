package config

import "fmt"

// CredentialSource resolves provider API keys. Implementations are
// constructed at the edge and injected; generation code never reads the
// process environment itself.
type CredentialSource interface {
	// APIKey returns the credential stored under the given name. An error
	// means the credential is absent, not that it is invalid.
	APIKey(name string) (string, error)
}

// StaticCredentials is a fixed in-memory CredentialSource, mainly for tests
// and embedding callers that manage their own key material.
type StaticCredentials map[string]string

// APIKey implements CredentialSource.
func (s StaticCredentials) APIKey(name string) (string, error) {
	if value, exists := s[name]; exists && value != "" {
		return value, nil
	}
	return "", fmt.Errorf("secret %s not found", name)
}

// ResolveKey looks up the credential a provider needs. Local-only providers
// need no credential and return an empty key with no error.
func ResolveKey(source CredentialSource, provider Provider) (string, error) {
	info, err := GetProviderInfo(provider)
	if err != nil {
		return "", err
	}
	if info.Quirks.LocalOnly {
		return "", nil
	}
	if source == nil {
		return "", fmt.Errorf("no credential source configured for provider %s", provider)
	}
	key, err := source.APIKey(info.KeyName)
	if err != nil {
		return "", fmt.Errorf("provider %s: %w", provider, err)
	}
	return key, nil
}
