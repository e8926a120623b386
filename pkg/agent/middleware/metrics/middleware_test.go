package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"blueprint/pkg/agent/llm"
	"blueprint/pkg/agent/llmerrors"
)

type observation struct {
	model            string
	runID            string
	stage            string
	promptTokens     int
	completionTokens int
	cost             float64
	success          bool
	errorType        string
}

// captureRecorder stores every observation for assertions.
type captureRecorder struct {
	observations []observation
}

func (c *captureRecorder) ObserveRequest(
	model, runID, stage string,
	promptTokens, completionTokens int,
	cost float64,
	success bool,
	errorType string,
	_ time.Duration,
) {
	c.observations = append(c.observations, observation{
		model:            model,
		runID:            runID,
		stage:            stage,
		promptTokens:     promptTokens,
		completionTokens: completionTokens,
		cost:             cost,
		success:          success,
		errorType:        errorType,
	})
}

// staticRunContext labels observations with fixed run and stage names.
type staticRunContext struct {
	runID string
	stage string
}

func (s staticRunContext) GetRunID() string { return s.runID }
func (s staticRunContext) GetStage() string { return s.stage }

func stubClient(resp llm.CompletionResponse, err error) llm.LLMClient {
	return llm.WrapClient(
		func(_ context.Context, _ llm.CompletionRequest) (llm.CompletionResponse, error) {
			return resp, err
		},
		func() string { return "gpt-4o" },
	)
}

func TestMiddlewareRecordsSuccess(t *testing.T) {
	recorder := &captureRecorder{}
	runCtx := staticRunContext{runID: "run-1", stage: "database"}

	client := Middleware(recorder, nil, runCtx, nil)(stubClient(llm.CompletionResponse{
		Content: "ok",
		Usage:   llm.Usage{PromptTokens: 1000, CompletionTokens: 500},
	}, nil))

	_, err := client.Complete(context.Background(), llm.CompletionRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(recorder.observations) != 1 {
		t.Fatalf("expected 1 observation, got %d", len(recorder.observations))
	}
	obs := recorder.observations[0]
	if obs.model != "gpt-4o" || obs.runID != "run-1" || obs.stage != "database" {
		t.Errorf("unexpected labels: %+v", obs)
	}
	if obs.promptTokens != 1000 || obs.completionTokens != 500 {
		t.Errorf("expected provider-reported usage, got %d+%d", obs.promptTokens, obs.completionTokens)
	}
	if !obs.success || obs.errorType != "" {
		t.Errorf("expected success observation, got %+v", obs)
	}
	// gpt-4o: $2.50/M input, $10/M output
	expectedCost := 0.0075
	if diff := obs.cost - expectedCost; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("expected cost %g, got %g", expectedCost, obs.cost)
	}
}

func TestMiddlewareRecordsFailure(t *testing.T) {
	recorder := &captureRecorder{}
	runCtx := staticRunContext{runID: "run-1", stage: "api"}
	callErr := llmerrors.NewError(llmerrors.ErrorTypeRateLimit, "rate limit exceeded")

	client := Middleware(recorder, nil, runCtx, nil)(stubClient(llm.CompletionResponse{}, callErr))

	_, err := client.Complete(context.Background(), llm.CompletionRequest{})
	if err == nil {
		t.Fatal("expected error to pass through")
	}

	if len(recorder.observations) != 1 {
		t.Fatalf("expected 1 observation, got %d", len(recorder.observations))
	}
	obs := recorder.observations[0]
	if obs.success {
		t.Error("expected failure observation")
	}
	if obs.errorType != llmerrors.ErrorTypeRateLimit.String() {
		t.Errorf("unexpected error type %q", obs.errorType)
	}
	if obs.cost != 0 {
		t.Errorf("failed requests must not accrue cost, got %g", obs.cost)
	}
}

func TestDefaultUsageExtractorFallback(t *testing.T) {
	req := llm.CompletionRequest{Messages: []llm.CompletionMessage{
		llm.NewUserMessage("Count the tokens in this prompt please."),
	}}
	resp := llm.CompletionResponse{Content: "A short answer."}

	promptTokens, completionTokens := DefaultUsageExtractor(req, resp)
	if promptTokens <= 0 {
		t.Errorf("expected counted prompt tokens, got %d", promptTokens)
	}
	if completionTokens <= 0 {
		t.Errorf("expected counted completion tokens, got %d", completionTokens)
	}

	// Provider-reported usage wins over counting.
	resp.Usage = llm.Usage{PromptTokens: 42, CompletionTokens: 7}
	promptTokens, completionTokens = DefaultUsageExtractor(req, resp)
	if promptTokens != 42 || completionTokens != 7 {
		t.Errorf("expected reported usage, got %d+%d", promptTokens, completionTokens)
	}
}

func TestGetErrorType(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"nil", nil, ""},
		{"structured", llmerrors.NewError(llmerrors.ErrorTypeAuth, "bad key"), llmerrors.ErrorTypeAuth.String()},
		{"deadline", context.DeadlineExceeded, "timeout"},
		{"canceled", context.Canceled, "canceled"},
		{"plain", errors.New("boom"), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := getErrorType(tt.err); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestMemoryRecorder(t *testing.T) {
	r := NewMemoryRecorder()

	r.ObserveRequest("gpt-4o", "run-1", "requirements", 100, 50, 0.001, true, "", time.Second)
	r.ObserveRequest("gpt-4o", "run-1", "database", 200, 80, 0.002, true, "", time.Second)
	// Failures and unlabeled requests are ignored.
	r.ObserveRequest("gpt-4o", "run-1", "api", 999, 999, 9.9, false, "rate_limit", time.Second)
	r.ObserveRequest("gpt-4o", "", "api", 999, 999, 9.9, true, "", time.Second)

	totals := r.RunTotals("run-1")
	if totals == nil {
		t.Fatal("expected totals for run-1")
	}
	if totals.PromptTokens != 300 || totals.CompletionTokens != 130 {
		t.Errorf("unexpected token totals: %+v", totals)
	}
	if totals.TotalTokens != 430 {
		t.Errorf("expected 430 total tokens, got %d", totals.TotalTokens)
	}
	if totals.RequestCount != 2 {
		t.Errorf("expected 2 requests, got %d", totals.RequestCount)
	}
	if diff := totals.TotalCost - 0.003; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("expected cost 0.003, got %g", totals.TotalCost)
	}

	if r.RunTotals("missing") != nil {
		t.Error("expected nil for unknown run")
	}

	r.Reset()
	if r.RunTotals("run-1") != nil {
		t.Error("expected nil after reset")
	}
}

func TestMultiRecorder(t *testing.T) {
	first := &captureRecorder{}
	second := &captureRecorder{}

	Multi(first, second).ObserveRequest("m", "r", "s", 1, 2, 0.1, true, "", time.Second)

	if len(first.observations) != 1 || len(second.observations) != 1 {
		t.Errorf("expected observation in both recorders, got %d and %d",
			len(first.observations), len(second.observations))
	}
}
