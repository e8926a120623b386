package config

import (
	"strings"
	"testing"
)

func TestStaticCredentials(t *testing.T) {
	creds := StaticCredentials{"OPENAI_API_KEY": "sk-static"}

	value, err := creds.APIKey("OPENAI_API_KEY")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != "sk-static" {
		t.Errorf("expected sk-static, got %q", value)
	}

	if _, err := creds.APIKey("MISSING"); err == nil {
		t.Error("expected error for missing credential")
	}

	// Empty values count as absent.
	creds["EMPTY_KEY"] = ""
	if _, err := creds.APIKey("EMPTY_KEY"); err == nil {
		t.Error("expected error for empty credential")
	}
}

func TestResolveKey(t *testing.T) {
	creds := StaticCredentials{
		"OPENAI_API_KEY": "sk-openai",
		"GROQ_API_KEY":   "gsk-groq",
	}

	t.Run("resolves provider key name", func(t *testing.T) {
		key, err := ResolveKey(creds, ProviderOpenAI)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if key != "sk-openai" {
			t.Errorf("expected sk-openai, got %q", key)
		}
	})

	t.Run("local provider needs no credential", func(t *testing.T) {
		key, err := ResolveKey(nil, ProviderOllama)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if key != "" {
			t.Errorf("expected empty key for local provider, got %q", key)
		}
	})

	t.Run("nil source for remote provider", func(t *testing.T) {
		if _, err := ResolveKey(nil, ProviderAnthropic); err == nil {
			t.Error("expected error with no credential source")
		}
	})

	t.Run("missing credential names the provider", func(t *testing.T) {
		_, err := ResolveKey(creds, ProviderAnthropic)
		if err == nil {
			t.Fatal("expected error for missing credential")
		}
		if !strings.Contains(err.Error(), "anthropic") {
			t.Errorf("expected provider name in error, got: %v", err)
		}
	})

	t.Run("unknown provider", func(t *testing.T) {
		if _, err := ResolveKey(creds, Provider("bogus")); err == nil {
			t.Error("expected error for unknown provider")
		}
	})
}
