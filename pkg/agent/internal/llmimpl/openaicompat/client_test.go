package openaicompat

import (
	"context"
	"errors"
	"testing"

	"blueprint/pkg/agent/llm"
	"blueprint/pkg/agent/llmerrors"
	"blueprint/pkg/config"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name     string
		provider config.Provider
		model    string
		wantErr  bool
		expected string
	}{
		{"openai", config.ProviderOpenAI, "gpt-4o", false, "gpt-4o"},
		{"deepseek", config.ProviderDeepSeek, "deepseek-chat", false, "deepseek-chat"},
		{"groq", config.ProviderGroq, "llama-3.3-70b-versatile", false, "llama-3.3-70b-versatile"},
		{"default model", config.ProviderOpenAI, "", false, "gpt-4o"},
		{"anthropic not compatible", config.ProviderAnthropic, "", true, ""},
		{"ollama not compatible", config.ProviderOllama, "", true, ""},
		{"unknown provider", config.Provider("bogus"), "", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.provider, "test-key", tt.model)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			var _ llm.LLMClient = client

			if got := client.GetModelName(); got != tt.expected {
				t.Errorf("expected model %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestNormalizeFinishReason(t *testing.T) {
	tests := []struct {
		reason   string
		expected string
	}{
		{"stop", llm.StopEndTurn},
		{"", llm.StopEndTurn},
		{"length", llm.StopMaxTokens},
		{"content_filter", "content_filter"},
	}

	for _, tt := range tests {
		if got := normalizeFinishReason(tt.reason); got != tt.expected {
			t.Errorf("normalizeFinishReason(%q): expected %q, got %q", tt.reason, tt.expected, got)
		}
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected llmerrors.ErrorType
	}{
		{"deadline exceeded", context.DeadlineExceeded, llmerrors.ErrorTypeTransient},
		{"canceled", context.Canceled, llmerrors.ErrorTypeTransient},
		{"connection refused", errors.New("dial tcp: connection refused"), llmerrors.ErrorTypeTransient},
		{"unexpected eof", errors.New("unexpected EOF"), llmerrors.ErrorTypeTransient},
		{"rate", errors.New("rate limit reached"), llmerrors.ErrorTypeRateLimit},
		{"quota", errors.New("quota exceeded for this billing period"), llmerrors.ErrorTypeRateLimit},
		{"api key", errors.New("incorrect api key provided"), llmerrors.ErrorTypeAuth},
		{"unauthorized", errors.New("unauthorized"), llmerrors.ErrorTypeAuth},
		{"unclassified", errors.New("something odd"), llmerrors.ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyError(config.ProviderOpenAI, tt.err)
			if got.Type != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got.Type)
			}
		})
	}

	if classifyError(config.ProviderOpenAI, nil) != nil {
		t.Error("expected nil for nil error")
	}
}
