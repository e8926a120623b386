// Package llm provides interfaces and types for Large Language Model client implementations.
package llm

import "context"

// CompletionRole represents the role of a message in a conversation.
type CompletionRole string

const (
	// RoleSystem indicates a system message that provides instructions or context.
	RoleSystem CompletionRole = "system"
	// RoleUser indicates a message from the human user.
	RoleUser CompletionRole = "user"
	// RoleAssistant indicates a message from the AI assistant.
	RoleAssistant CompletionRole = "assistant"
)

const (
	// TemperatureDefault is the default temperature for structured generation.
	// Low enough to keep JSON output stable across retries.
	TemperatureDefault = 0.3
)

// Stop reasons reported by providers, normalized across backends.
const (
	// StopEndTurn means the model finished its response normally.
	StopEndTurn = "end_turn"
	// StopMaxTokens means the response was cut off at the output token limit.
	StopMaxTokens = "max_tokens"
)

// CompletionMessage represents a message in a completion request.
type CompletionMessage struct {
	Content string
	Role    CompletionRole
}

// CompletionRequest represents a request to generate a completion.
type CompletionRequest struct {
	Messages    []CompletionMessage
	MaxTokens   int
	Temperature float32
	// JSONOnly asks providers that support a JSON response format to enforce
	// it. Providers without the capability ignore the hint.
	JSONOnly bool
}

// Usage reports token consumption for a single completion call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// Total returns the combined token count.
func (u Usage) Total() int {
	return u.PromptTokens + u.CompletionTokens
}

// CompletionResponse represents a response from a completion request.
type CompletionResponse struct {
	Content    string // Main response text
	StopReason string // Normalized stop reason: StopEndTurn, StopMaxTokens, or a provider value
	Usage      Usage  // Token counts as reported by the provider, zero if unreported
}

// Truncated reports whether the response was cut off at the output limit.
func (r CompletionResponse) Truncated() bool {
	return r.StopReason == StopMaxTokens
}

// LLMClient defines the interface for language model interactions.
type LLMClient interface {
	// Complete generates a completion synchronously.
	Complete(ctx context.Context, in CompletionRequest) (CompletionResponse, error)

	// GetModelName returns the model name for this LLM client.
	GetModelName() string
}

// Verifier is implemented by clients that can check their credential before
// any generation work starts. Verify should be cheap and must not consume
// model tokens beyond a minimal probe.
type Verifier interface {
	Verify(ctx context.Context) error
}

// NewCompletionRequest creates a new completion request with default values.
func NewCompletionRequest(messages []CompletionMessage) CompletionRequest {
	return CompletionRequest{
		Messages:    messages,
		MaxTokens:   4096,
		Temperature: TemperatureDefault,
	}
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) CompletionMessage {
	return CompletionMessage{
		Role:    RoleSystem,
		Content: content,
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) CompletionMessage {
	return CompletionMessage{
		Role:    RoleUser,
		Content: content,
	}
}

// NewAssistantMessage creates a new assistant message, used when replaying a
// model response back into a follow-up request.
func NewAssistantMessage(content string) CompletionMessage {
	return CompletionMessage{
		Role:    RoleAssistant,
		Content: content,
	}
}
