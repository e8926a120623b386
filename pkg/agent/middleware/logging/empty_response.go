// Package logging provides logging middleware for LLM clients.
package logging

import (
	"context"

	"blueprint/pkg/agent/llm"
	"blueprint/pkg/agent/llmerrors"
	"blueprint/pkg/logx"
)

// EmptyResponseMiddleware returns a middleware that logs debugging
// information when a call classifies as an empty response, then passes the
// error through unchanged. Message content is logged in sanitized excerpt
// form with a hash so failures can be correlated across retries.
func EmptyResponseMiddleware() llm.Middleware {
	logger := logx.NewLogger("llm-middleware")
	return func(next llm.LLMClient) llm.LLMClient {
		return llm.WrapClient(
			func(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
				resp, err := next.Complete(ctx, req)
				if err != nil && llmerrors.Is(err, llmerrors.ErrorTypeEmptyResponse) {
					logEmptyResponseDebugInfo(logger, &req)
				}
				//nolint:wrapcheck // Middleware intentionally passes through errors unchanged
				return resp, err
			},
			next.GetModelName,
		)
	}
}

func logEmptyResponseDebugInfo(logger *logx.Logger, req *llm.CompletionRequest) {
	logger.Error("empty response from LLM")
	for i := range req.Messages {
		msg := &req.Messages[i]
		logger.Error("  message[%d] role=%s bytes=%d id=%s",
			i, msg.Role, len(msg.Content), llmerrors.SanitizePrompt(msg.Content, 0))
	}
	logger.Error("  temperature=%v max_tokens=%d json_only=%t",
		req.Temperature, req.MaxTokens, req.JSONOnly)
}
