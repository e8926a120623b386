// Package config provides configuration loading, validation, and the static
// provider/model registries for the blueprint generator.
//
// KEY PRINCIPLES:
//
//  1. EXPLICIT CONFIG VALUE: a single *Config is constructed once at startup
//     (LoadConfig or DefaultConfig) and passed by reference into the
//     components that need it. No component reads process-wide environment
//     state directly; credentials are resolved at the edge and handed in as
//     opaque values (see CredentialSource).
//
//  2. SEPARATION OF CONCERNS: user-configurable settings live in Config and
//     are serialized to JSON. Model pricing, provider endpoints, and quirk
//     flags are static program data in KnownModels and Providers - users do
//     not edit pricing tables.
//
//  3. VALIDATION FIRST: LoadConfig validates before returning. Invalid
//     configs are rejected, not repaired silently.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// Provider identifies a generation backend.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderDeepSeek  Provider = "deepseek"
	ProviderKimi      Provider = "kimi"
	ProviderGroq      Provider = "groq"
	ProviderAnthropic Provider = "anthropic"
	ProviderGoogle    Provider = "google"
	ProviderOllama    Provider = "ollama"
)

// ModelInfo contains static information about a known model.
// This data is hardcoded in the application, not user-configurable.
type ModelInfo struct {
	Provider         Provider // Backend that serves this model
	InputCPM         float64  // Cost per million input tokens (USD)
	OutputCPM        float64  // Cost per million output tokens (USD)
	MaxContextTokens int      // Maximum context window size in tokens
	MaxOutputTokens  int      // Maximum output tokens per request
}

// KnownModels registry contains pricing and provider information for the
// models the generator has been run against. Unknown models are inferred via
// ProviderPatterns and priced at zero.
//
//nolint:gochecknoglobals // Intentional global for static model registry
var KnownModels = map[string]ModelInfo{
	// OpenAI
	"gpt-4-turbo": {
		Provider:         ProviderOpenAI,
		InputCPM:         10.0,
		OutputCPM:        30.0,
		MaxContextTokens: 128000,
		MaxOutputTokens:  4096,
	},
	"gpt-4o": {
		Provider:         ProviderOpenAI,
		InputCPM:         2.5,
		OutputCPM:        10.0,
		MaxContextTokens: 128000,
		MaxOutputTokens:  4096,
	},

	// DeepSeek (OpenAI-compatible endpoint)
	"deepseek-chat": {
		Provider:         ProviderDeepSeek,
		InputCPM:         0.27,
		OutputCPM:        1.10,
		MaxContextTokens: 64000,
		MaxOutputTokens:  4096,
	},
	"deepseek-reasoner": {
		Provider:         ProviderDeepSeek,
		InputCPM:         0.55,
		OutputCPM:        2.19,
		MaxContextTokens: 64000,
		MaxOutputTokens:  8192,
	},

	// Kimi / Moonshot (OpenAI-compatible endpoint)
	"moonshot-v1-8k": {
		Provider:         ProviderKimi,
		InputCPM:         2.0,
		OutputCPM:        6.0,
		MaxContextTokens: 8192,
		MaxOutputTokens:  8192,
	},

	// Groq hosts open models on a free tier (OpenAI-compatible endpoint)
	"llama-3.3-70b-versatile": {
		Provider:         ProviderGroq,
		InputCPM:         0.0,
		OutputCPM:        0.0,
		MaxContextTokens: 128000,
		MaxOutputTokens:  8192,
	},
	"openai/gpt-oss-120b": {
		Provider:         ProviderGroq,
		InputCPM:         0.0,
		OutputCPM:        0.0,
		MaxContextTokens: 128000,
		MaxOutputTokens:  8192,
	},
	"moonshotai/kimi-k2-instruct-0905": {
		Provider:         ProviderGroq,
		InputCPM:         0.0,
		OutputCPM:        0.0,
		MaxContextTokens: 128000,
		MaxOutputTokens:  32768,
	},

	// Anthropic
	"claude-sonnet-4-20250514": {
		Provider:         ProviderAnthropic,
		InputCPM:         3.0,
		OutputCPM:        15.0,
		MaxContextTokens: 200000,
		MaxOutputTokens:  8192,
	},

	// Google Gemini
	"gemini-2.0-flash": {
		Provider:         ProviderGoogle,
		InputCPM:         0.10,
		OutputCPM:        0.40,
		MaxContextTokens: 1048576,
		MaxOutputTokens:  8192,
	},
	"gemini-2.5-flash": {
		Provider:         ProviderGoogle,
		InputCPM:         0.30,
		OutputCPM:        2.50,
		MaxContextTokens: 1048576,
		MaxOutputTokens:  65536,
	},
}

// ProviderPattern represents a rule for inferring the provider of a model
// name that is not in KnownModels.
type ProviderPattern struct {
	Prefix   string
	Provider Provider
}

// ProviderPatterns defines inference rules so new models work without code
// changes (at zero assumed cost).
//
//nolint:gochecknoglobals // Intentional global for inference rules
var ProviderPatterns = []ProviderPattern{
	{"gpt", ProviderOpenAI},
	{"o3", ProviderOpenAI},
	{"o4", ProviderOpenAI},
	{"deepseek", ProviderDeepSeek},
	{"moonshot", ProviderKimi},
	{"claude", ProviderAnthropic},
	{"gemini", ProviderGoogle},
	{"llama", ProviderOllama},
	{"qwen", ProviderOllama},
	{"mistral", ProviderOllama},
	{"phi", ProviderOllama},
	{"ollama:", ProviderOllama}, // Explicit prefix like "ollama:phi4"
}

// Quirks records per-provider capability and compatibility flags. Keeping
// them in one table avoids scattering provider conditionals through the
// pipeline.
type Quirks struct {
	// OpenAICompatible providers are reached through the OpenAI client with
	// a custom base URL.
	OpenAICompatible bool `json:"openai_compatible"`
	// StripUnknownEnvelopeFields marks providers that decorate the structured
	// payload with extra top-level fields (Groq adds a service tier marker).
	// Validation for these providers discards unknown top-level fields
	// instead of failing strict parsing.
	StripUnknownEnvelopeFields bool `json:"strip_unknown_envelope_fields"`
	// SupportsJSONMode marks providers that honor a JSON-only response format
	// hint in the request.
	SupportsJSONMode bool `json:"supports_json_mode"`
	// RequiresAlternation marks providers whose API rejects consecutive
	// messages with the same role.
	RequiresAlternation bool `json:"requires_alternation"`
	// LocalOnly marks providers that run on the local host and need no
	// credential.
	LocalOnly bool `json:"local_only"`
}

// ProviderInfo describes how to reach a provider and which quirks apply.
type ProviderInfo struct {
	DisplayName string
	BaseURL     string // Only set for OpenAI-compatible endpoints
	KeyName     string // Secret name the credential resolver looks up
	Quirks      Quirks
	DefaultModel string
}

// Providers is the static provider registry.
//
//nolint:gochecknoglobals // Intentional global for static provider registry
var Providers = map[Provider]ProviderInfo{
	ProviderOpenAI: {
		DisplayName:  "OpenAI",
		BaseURL:      "https://api.openai.com/v1",
		KeyName:      "OPENAI_API_KEY",
		DefaultModel: "gpt-4o",
		Quirks:       Quirks{OpenAICompatible: true, SupportsJSONMode: true},
	},
	ProviderDeepSeek: {
		DisplayName:  "DeepSeek",
		BaseURL:      "https://api.deepseek.com/v1",
		KeyName:      "DEEPSEEK_API_KEY",
		DefaultModel: "deepseek-chat",
		Quirks:       Quirks{OpenAICompatible: true, SupportsJSONMode: true},
	},
	ProviderKimi: {
		DisplayName:  "Kimi (MoonshotAI)",
		BaseURL:      "https://api.moonshot.cn/v1",
		KeyName:      "MOONSHOT_API_KEY",
		DefaultModel: "moonshot-v1-8k",
		Quirks:       Quirks{OpenAICompatible: true, SupportsJSONMode: true},
	},
	ProviderGroq: {
		DisplayName:  "Groq",
		BaseURL:      "https://api.groq.com/openai/v1",
		KeyName:      "GROQ_API_KEY",
		DefaultModel: "llama-3.3-70b-versatile",
		Quirks: Quirks{
			OpenAICompatible:           true,
			SupportsJSONMode:           true,
			StripUnknownEnvelopeFields: true,
		},
	},
	ProviderAnthropic: {
		DisplayName:  "Anthropic",
		KeyName:      "ANTHROPIC_API_KEY",
		DefaultModel: "claude-sonnet-4-20250514",
		Quirks:       Quirks{RequiresAlternation: true},
	},
	ProviderGoogle: {
		DisplayName:  "Google Gemini",
		KeyName:      "GEMINI_API_KEY",
		DefaultModel: "gemini-2.5-flash",
		Quirks:       Quirks{SupportsJSONMode: true},
	},
	ProviderOllama: {
		DisplayName:  "Ollama (local)",
		BaseURL:      "http://localhost:11434",
		DefaultModel: "llama3.3",
		Quirks:       Quirks{LocalOnly: true},
	},
}

// GetProviderInfo returns the registry entry for a provider.
func GetProviderInfo(p Provider) (ProviderInfo, error) {
	info, exists := Providers[p]
	if !exists {
		return ProviderInfo{}, fmt.Errorf("unknown provider %q", p)
	}
	return info, nil
}

// GetModelProvider returns the provider for a given model name. First checks
// KnownModels, then tries pattern matching. Returns an error if the model
// cannot be mapped to a provider.
func GetModelProvider(modelName string) (Provider, error) {
	if info, exists := KnownModels[modelName]; exists {
		return info.Provider, nil
	}
	for _, pattern := range ProviderPatterns {
		if strings.HasPrefix(modelName, pattern.Prefix) {
			return pattern.Provider, nil
		}
	}
	return "", fmt.Errorf("unknown model %q: no known provider mapping or pattern match", modelName)
}

// GetModelInfo returns the ModelInfo for a model name. Returns the info and
// true if found in KnownModels, or zero-cost defaults with an inferred
// provider and false if not.
func GetModelInfo(modelName string) (ModelInfo, bool) {
	if info, exists := KnownModels[modelName]; exists {
		return info, true
	}

	provider, err := GetModelProvider(modelName)
	if err != nil {
		provider = ProviderOllama
	}
	return ModelInfo{
		Provider:         provider,
		MaxContextTokens: 128000,
		MaxOutputTokens:  8192,
	}, false
}

// CalculateCost calculates the cost in USD for a model and token usage using
// separate input/output pricing from the KnownModels registry. Returns zero
// cost for unknown models so new models can run before pricing data lands.
func CalculateCost(modelName string, promptTokens, completionTokens int) float64 {
	info, known := GetModelInfo(modelName)
	if !known {
		return 0
	}
	inputCost := (float64(promptTokens) / 1_000_000.0) * info.InputCPM
	outputCost := (float64(completionTokens) / 1_000_000.0) * info.OutputCPM
	return inputCost + outputCost
}

// GenerationConfig bounds retry and repair behavior for provider calls.
type GenerationConfig struct {
	MaxAttempts    int           `json:"max_attempts"`    // Attempts per provider call, including the first
	InitialBackoff time.Duration `json:"initial_backoff"` // Delay before the first retry
	MaxBackoff     time.Duration `json:"max_backoff"`     // Cap on the backoff delay
	BackoffFactor  float64       `json:"backoff_factor"`  // Exponential backoff multiplier
	RepairAttempts int           `json:"repair_attempts"` // Schema repair reprompts per stage
	Temperature    float32       `json:"temperature"`     // Sampling temperature for all stages
	CallTimeout    time.Duration `json:"call_timeout"`    // Upper bound on a single generation call
}

// MetricsConfig controls the Prometheus instrumentation.
type MetricsConfig struct {
	Enabled       bool   `json:"enabled"`
	PrometheusURL string `json:"prometheus_url,omitempty"` // For the aggregate query service
}

// EventLogConfig controls the per-run generation ledger.
type EventLogConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"` // SQLite file; empty means in-memory
}

// Config is the user-configurable settings for a generator instance.
// Constructed once at startup and passed by reference; never mutated by the
// pipeline.
type Config struct {
	SchemaVersion string           `json:"schema_version"`
	Provider      Provider         `json:"provider"`        // Default provider for runs
	Model         string           `json:"model,omitempty"` // Default model; empty uses the provider default
	Generation    GenerationConfig `json:"generation"`
	Metrics       MetricsConfig    `json:"metrics"`
	EventLog      EventLogConfig   `json:"event_log"`
	DebugDomains  []string         `json:"debug_domains,omitempty"`
}

// CurrentSchemaVersion must be incremented for any breaking Config change.
const CurrentSchemaVersion = "1.0"

// DefaultConfig returns a Config with bounded defaults: 3 attempts with
// exponential backoff, one schema repair reprompt.
func DefaultConfig() *Config {
	return &Config{
		SchemaVersion: CurrentSchemaVersion,
		Provider:      ProviderOpenAI,
		Generation: GenerationConfig{
			MaxAttempts:    3,
			InitialBackoff: 500 * time.Millisecond,
			MaxBackoff:     10 * time.Second,
			BackoffFactor:  2.0,
			RepairAttempts: 1,
			Temperature:    0.3,
			CallTimeout:    5 * time.Minute,
		},
		Metrics:  MetricsConfig{Enabled: true},
		EventLog: EventLogConfig{Enabled: true},
	}
}

// LoadConfig reads and validates a JSON config file, filling unset fields
// from DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the config for internal consistency.
func (c *Config) Validate() error {
	if c.SchemaVersion != CurrentSchemaVersion {
		return fmt.Errorf("config schema version %q does not match %q", c.SchemaVersion, CurrentSchemaVersion)
	}
	if _, err := GetProviderInfo(c.Provider); err != nil {
		return err
	}
	if c.Model != "" {
		provider, err := GetModelProvider(c.Model)
		if err != nil {
			return err
		}
		if provider != c.Provider {
			return fmt.Errorf("model %q belongs to provider %q, config selects %q", c.Model, provider, c.Provider)
		}
	}
	gen := &c.Generation
	if gen.MaxAttempts < 1 {
		return fmt.Errorf("generation.max_attempts must be at least 1, got %d", gen.MaxAttempts)
	}
	if gen.BackoffFactor < 1.0 {
		return fmt.Errorf("generation.backoff_factor must be at least 1.0, got %g", gen.BackoffFactor)
	}
	if gen.RepairAttempts < 0 {
		return fmt.Errorf("generation.repair_attempts cannot be negative, got %d", gen.RepairAttempts)
	}
	if gen.Temperature < 0.0 || gen.Temperature > 2.0 {
		return fmt.Errorf("generation.temperature must be between 0.0 and 2.0, got %g", gen.Temperature)
	}
	return nil
}

// ResolvedModel returns the model a run should use: the configured model, or
// the provider default when unset.
func (c *Config) ResolvedModel() string {
	if c.Model != "" {
		return c.Model
	}
	info, err := GetProviderInfo(c.Provider)
	if err != nil {
		return ""
	}
	return info.DefaultModel
}
