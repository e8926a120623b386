// Package agent provides LLM client construction with middleware chain
// assembly for generation runs.
package agent

import (
	"fmt"
	"time"

	"blueprint/pkg/agent/internal/llmimpl/anthropic"
	"blueprint/pkg/agent/internal/llmimpl/google"
	"blueprint/pkg/agent/internal/llmimpl/ollama"
	"blueprint/pkg/agent/internal/llmimpl/openaicompat"
	"blueprint/pkg/agent/llm"
	"blueprint/pkg/agent/middleware/logging"
	"blueprint/pkg/agent/middleware/metrics"
	"blueprint/pkg/agent/middleware/resilience/retry"
	"blueprint/pkg/agent/middleware/resilience/timeout"
	"blueprint/pkg/config"
	"blueprint/pkg/logx"
)

// ClientFactory creates LLM clients with the full middleware chain. The
// credential source is injected; the factory never touches the process
// environment itself.
type ClientFactory struct {
	config      *config.Config
	credentials config.CredentialSource
	recorder    metrics.Recorder
	logger      *logx.Logger
}

// NewClientFactory creates a factory for the given configuration and
// credential source. A nil recorder disables metrics.
func NewClientFactory(cfg *config.Config, creds config.CredentialSource, recorder metrics.Recorder, logger *logx.Logger) *ClientFactory {
	if recorder == nil {
		recorder = metrics.Nop()
	}
	return &ClientFactory{
		config:      cfg,
		credentials: creds,
		recorder:    recorder,
		logger:      logger,
	}
}

// CreateClient builds a client for the configured model wrapped in the
// middleware chain, plus the bare client's verifier for the eager
// credential check. runCtx labels the metrics of every call made through
// the returned client.
func (f *ClientFactory) CreateClient(runCtx metrics.RunContext) (llm.LLMClient, llm.Verifier, error) {
	modelName := f.config.ResolvedModel()
	provider, err := config.GetModelProvider(modelName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to determine provider for model %s: %w", modelName, err)
	}

	apiKey, err := config.ResolveKey(f.credentials, provider)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve credentials for provider %s: %w", provider, err)
	}

	rawClient, err := f.createRawClient(provider, apiKey, modelName)
	if err != nil {
		return nil, nil, err
	}

	retryPolicy := retry.NewPolicy(retry.Config{
		MaxAttempts:   f.config.Generation.MaxAttempts,
		InitialDelay:  f.config.Generation.InitialBackoff,
		MaxDelay:      f.config.Generation.MaxBackoff,
		BackoffFactor: f.config.Generation.BackoffFactor,
		Jitter:        true,
	}, nil)

	callTimeout := f.config.Generation.CallTimeout
	if callTimeout <= 0 {
		callTimeout = 5 * time.Minute
	}

	// Middleware order: Metrics -> Retry -> Logging -> Timeout -> RawClient.
	// Metrics sits outermost so each observed request covers all retry
	// attempts; the timeout bounds each individual attempt.
	client := llm.Chain(rawClient,
		metrics.Middleware(f.recorder, nil, runCtx, f.logger),
		retry.Middleware(retryPolicy),
		logging.EmptyResponseMiddleware(),
		timeout.Middleware(callTimeout),
	)

	// The middleware chain does not forward Verify; verification runs
	// against the bare client before any generation call.
	verifier, _ := rawClient.(llm.Verifier)
	return client, verifier, nil
}

func (f *ClientFactory) createRawClient(provider config.Provider, apiKey, modelName string) (llm.LLMClient, error) {
	switch provider {
	case config.ProviderAnthropic:
		return anthropic.NewClaudeClient(apiKey, modelName), nil
	case config.ProviderGoogle:
		return google.NewGeminiClient(apiKey, modelName), nil
	case config.ProviderOllama:
		return ollama.NewClient("", modelName), nil
	case config.ProviderOpenAI, config.ProviderDeepSeek, config.ProviderKimi, config.ProviderGroq:
		return openaicompat.NewClient(provider, apiKey, modelName)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}
