// Package retry provides retry middleware for LLM clients.
package retry

import (
	"context"
	"fmt"
	"time"

	"blueprint/pkg/agent/llm"
)

// Middleware returns a middleware function that wraps an LLM client with retry logic.
// It will retry failed requests according to the configured policy, with exponential backoff.
// Attempts are additionally bounded by the per-error-type budget in llmerrors.
func Middleware(policy *Policy) llm.Middleware {
	return func(next llm.LLMClient) llm.LLMClient {
		return llm.WrapClient(
			func(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
				var lastErr error
				maxAttempts := policy.Config.MaxAttempts

				for attempt := 1; attempt <= maxAttempts; attempt++ {
					// Wait for backoff delay (except on first attempt)
					if attempt > 1 {
						delay := policy.CalculateDelay(attempt)
						if delay > 0 {
							select {
							case <-ctx.Done():
								return llm.CompletionResponse{}, fmt.Errorf("retry cancelled: %w", ctx.Err())
							case <-time.After(delay):
							}
						}
					}

					resp, err := next.Complete(ctx, req)
					if err == nil {
						return resp, nil
					}

					lastErr = err

					if !policy.ShouldRetry(err) {
						break
					}

					// Tighten the bound once the error type is known.
					if budget := policy.MaxAttemptsFor(err); budget < maxAttempts {
						maxAttempts = budget
					}
				}

				return llm.CompletionResponse{}, lastErr
			},
			func() string {
				return next.GetModelName()
			},
		)
	}
}
