// Package openaicompat provides an LLM client for OpenAI and for providers
// that expose an OpenAI-compatible chat completions endpoint (DeepSeek, Kimi,
// Groq). The provider is selected by base URL; everything else is shared.
package openaicompat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"blueprint/pkg/agent/llm"
	"blueprint/pkg/agent/llmerrors"
	"blueprint/pkg/config"
)

// Client wraps the official OpenAI Go client to implement llm.LLMClient
// against any OpenAI-compatible endpoint.
type Client struct {
	client   openai.Client
	model    string
	provider config.Provider
	jsonMode bool
}

// NewClient creates a client for the given provider and model. The base URL
// comes from the provider registry; credentials are passed in, never read
// from the environment here.
func NewClient(provider config.Provider, apiKey, model string) (*Client, error) {
	info, err := config.GetProviderInfo(provider)
	if err != nil {
		return nil, err
	}
	if !info.Quirks.OpenAICompatible {
		return nil, fmt.Errorf("provider %s is not OpenAI-compatible", provider)
	}
	if model == "" {
		model = info.DefaultModel
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if info.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(info.BaseURL))
	}

	return &Client{
		client:   openai.NewClient(opts...),
		model:    model,
		provider: provider,
		jsonMode: info.Quirks.SupportsJSONMode,
	}, nil
}

// Complete implements the llm.LLMClient interface.
func (c *Client) Complete(ctx context.Context, in llm.CompletionRequest) (llm.CompletionResponse, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(in.Messages))
	for i := range in.Messages {
		msg := &in.Messages[i]
		switch msg.Role {
		case llm.RoleSystem:
			messages = append(messages, openai.SystemMessage(msg.Content))
		case llm.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		default:
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}

	// Cap MaxTokens to the model's output limit to avoid 400s.
	maxTokens := in.MaxTokens
	if modelInfo, known := config.GetModelInfo(c.model); known && modelInfo.MaxOutputTokens > 0 && maxTokens > modelInfo.MaxOutputTokens {
		maxTokens = modelInfo.MaxOutputTokens
	}

	params := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(c.model),
		Messages:    messages,
		MaxTokens:   openai.Int(int64(maxTokens)),
		Temperature: openai.Float(float64(in.Temperature)),
	}

	if in.JSONOnly && c.jsonMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return llm.CompletionResponse{}, classifyError(c.provider, err)
	}

	if resp == nil || len(resp.Choices) == 0 {
		return llm.CompletionResponse{}, llmerrors.NewError(llmerrors.ErrorTypeEmptyResponse,
			fmt.Sprintf("received empty response from %s", c.provider))
	}

	choice := resp.Choices[0]
	if choice.Message.Content == "" {
		return llm.CompletionResponse{}, llmerrors.NewError(llmerrors.ErrorTypeEmptyResponse,
			fmt.Sprintf("received choice with no content from %s", c.provider))
	}

	return llm.CompletionResponse{
		Content:    choice.Message.Content,
		StopReason: normalizeFinishReason(choice.FinishReason),
		Usage: llm.Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
		},
	}, nil
}

// Verify checks the credential with a models listing call. No completion
// tokens are consumed.
func (c *Client) Verify(ctx context.Context) error {
	if _, err := c.client.Models.List(ctx); err != nil {
		classified := classifyError(c.provider, err)
		if llmerrors.IsAuth(classified) {
			return classified
		}
		// A reachability problem is still a verification failure; keep the
		// transient classification so callers can distinguish it.
		return classified
	}
	return nil
}

// GetModelName returns the model name for this client.
func (c *Client) GetModelName() string {
	return c.model
}

// normalizeFinishReason maps OpenAI-style finish reasons onto the shared
// vocabulary.
func normalizeFinishReason(reason string) string {
	switch reason {
	case "stop", "":
		return llm.StopEndTurn
	case "length":
		return llm.StopMaxTokens
	default:
		return reason
	}
}

// classifyError maps SDK errors to structured error types.
func classifyError(provider config.Provider, err error) *llmerrors.Error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return llmerrors.NewErrorWithCause(llmerrors.ErrorTypeTransient, err, "request timeout")
	}
	if errors.Is(err, context.Canceled) {
		return llmerrors.NewErrorWithCause(llmerrors.ErrorTypeTransient, err, "request canceled")
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 401:
			return llmerrors.NewErrorWithStatus(llmerrors.ErrorTypeAuth, apiErr.StatusCode,
				fmt.Sprintf("%s authentication failed - check API key", provider))
		case 403:
			return llmerrors.NewErrorWithStatus(llmerrors.ErrorTypeAuth, apiErr.StatusCode,
				fmt.Sprintf("%s permission denied - check API access", provider))
		case 429:
			return llmerrors.NewErrorWithStatus(llmerrors.ErrorTypeRateLimit, apiErr.StatusCode, "rate limit exceeded")
		case 400, 413, 422:
			return llmerrors.NewErrorWithStatus(llmerrors.ErrorTypeBadPrompt, apiErr.StatusCode,
				"bad request - check prompt format and parameters")
		case 500, 502, 503, 504:
			return llmerrors.NewErrorWithStatus(llmerrors.ErrorTypeTransient, apiErr.StatusCode, "server error")
		}
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "timeout"),
		strings.Contains(errStr, "connection"),
		strings.Contains(errStr, "network"),
		strings.Contains(errStr, "eof"),
		strings.Contains(errStr, "reset"):
		return llmerrors.NewErrorWithCause(llmerrors.ErrorTypeTransient, err, "network or connection error")
	case strings.Contains(errStr, "rate"),
		strings.Contains(errStr, "quota"):
		return llmerrors.NewErrorWithCause(llmerrors.ErrorTypeRateLimit, err, "rate limiting detected")
	case strings.Contains(errStr, "auth"),
		strings.Contains(errStr, "api key"),
		strings.Contains(errStr, "unauthorized"):
		return llmerrors.NewErrorWithCause(llmerrors.ErrorTypeAuth, err, "authentication error")
	}

	return llmerrors.NewErrorWithCause(llmerrors.ErrorTypeUnknown, err, "unclassified error")
}
