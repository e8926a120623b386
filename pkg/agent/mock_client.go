package agent

import (
	"context"
	"fmt"
)

// MockLLMClient provides a controllable implementation of LLMClient for
// testing. Responses and errors are consumed in order; an error entry is
// returned before the response at the same position.
type MockLLMClient struct {
	responses     []CompletionResponse
	responseIndex int
	errors        []error
	errorIndex    int
	verifyErr     error
	requests      []CompletionRequest
}

// NewMockLLMClient creates a new mock client with predefined responses.
func NewMockLLMClient(responses []CompletionResponse, errors []error) *MockLLMClient {
	return &MockLLMClient{
		responses: responses,
		errors:    errors,
	}
}

// SetVerifyError makes Verify fail with the given error.
func (m *MockLLMClient) SetVerifyError(err error) {
	m.verifyErr = err
}

// Complete returns the next predefined response or error.
func (m *MockLLMClient) Complete(_ context.Context, req CompletionRequest) (CompletionResponse, error) {
	m.requests = append(m.requests, req)

	if m.errorIndex < len(m.errors) && m.errors[m.errorIndex] != nil {
		err := m.errors[m.errorIndex]
		m.errorIndex++
		return CompletionResponse{}, err
	}
	if m.errorIndex < len(m.errors) {
		m.errorIndex++
	}

	if m.responseIndex >= len(m.responses) {
		return CompletionResponse{}, fmt.Errorf("mock client: no more responses")
	}

	resp := m.responses[m.responseIndex]
	m.responseIndex++
	return resp, nil
}

// GetModelName identifies the mock in logs and metrics labels.
func (m *MockLLMClient) GetModelName() string {
	return "mock-model"
}

// Verify implements the eager credential check.
func (m *MockLLMClient) Verify(_ context.Context) error {
	return m.verifyErr
}

// Requests returns every request the mock has received, in order.
func (m *MockLLMClient) Requests() []CompletionRequest {
	return m.requests
}
