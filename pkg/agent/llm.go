package agent

import "blueprint/pkg/agent/llm"

// Re-exported client types so factory callers work with one import.
type (
	// LLMClient is the provider-neutral client interface.
	LLMClient = llm.LLMClient
	// CompletionRequest is a request to generate a completion.
	CompletionRequest = llm.CompletionRequest
	// CompletionResponse is the result of a completion call.
	CompletionResponse = llm.CompletionResponse
	// CompletionMessage is one message in a completion request.
	CompletionMessage = llm.CompletionMessage
	// Verifier is the eager credential check implemented by bare clients.
	Verifier = llm.Verifier
)
