// Package metrics provides services for querying and aggregating metrics data.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
)

// RunMetrics represents aggregated metrics for a generation run.
type RunMetrics struct {
	RunID            string  `json:"run_id"`
	PromptTokens     int64   `json:"prompt_tokens"`
	CompletionTokens int64   `json:"completion_tokens"`
	TotalTokens      int64   `json:"total_tokens"`
	TotalCost        float64 `json:"total_cost_usd"`
}

// QueryService provides methods to query metrics from Prometheus.
type QueryService struct {
	client   api.Client
	queryAPI v1.API
}

// NewQueryService creates a new metrics query service.
func NewQueryService(prometheusURL string) (*QueryService, error) {
	client, err := api.NewClient(api.Config{
		Address: prometheusURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus client: %w", err)
	}

	return &QueryService{
		client:   client,
		queryAPI: v1.NewAPI(client),
	}, nil
}

// GetRunMetrics retrieves aggregated token and cost metrics for a specific
// run, summed across all stages.
func (q *QueryService) GetRunMetrics(ctx context.Context, runID string) (*RunMetrics, error) {
	metrics := &RunMetrics{
		RunID: runID,
	}

	promptTokensQuery := fmt.Sprintf(`sum(llm_tokens_total{run_id=%q, type="prompt"})`, runID)
	promptResult, _, err := q.queryAPI.Query(ctx, promptTokensQuery, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to query prompt tokens: %w", err)
	}
	if vector, ok := promptResult.(model.Vector); ok && len(vector) > 0 {
		metrics.PromptTokens = int64(vector[0].Value)
	}

	completionTokensQuery := fmt.Sprintf(`sum(llm_tokens_total{run_id=%q, type="completion"})`, runID)
	completionResult, _, err := q.queryAPI.Query(ctx, completionTokensQuery, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to query completion tokens: %w", err)
	}
	if vector, ok := completionResult.(model.Vector); ok && len(vector) > 0 {
		metrics.CompletionTokens = int64(vector[0].Value)
	}

	metrics.TotalTokens = metrics.PromptTokens + metrics.CompletionTokens

	costQuery := fmt.Sprintf(`sum(llm_costs_total{run_id=%q})`, runID)
	costResult, _, err := q.queryAPI.Query(ctx, costQuery, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to query total cost: %w", err)
	}
	if vector, ok := costResult.(model.Vector); ok && len(vector) > 0 {
		metrics.TotalCost = float64(vector[0].Value)
	}

	return metrics, nil
}

// GetRunMetricsByStage retrieves metrics broken down by pipeline stage for
// a specific run, showing where the spend went.
func (q *QueryService) GetRunMetricsByStage(ctx context.Context, runID string) (map[string]*RunMetrics, error) {
	result := make(map[string]*RunMetrics)

	stagesQuery := fmt.Sprintf(`group by (stage) (llm_tokens_total{run_id=%q})`, runID)
	stagesResult, _, err := q.queryAPI.Query(ctx, stagesQuery, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to query stages: %w", err)
	}

	var stages []string
	if vector, ok := stagesResult.(model.Vector); ok {
		for _, sample := range vector {
			if stage, ok := sample.Metric["stage"]; ok {
				stages = append(stages, string(stage))
			}
		}
	}

	for _, stage := range stages {
		metrics := &RunMetrics{
			RunID: runID,
		}

		promptQuery := fmt.Sprintf(`sum(llm_tokens_total{run_id=%q, stage=%q, type="prompt"})`, runID, stage)
		promptResult, _, err := q.queryAPI.Query(ctx, promptQuery, time.Now())
		if err != nil {
			return nil, fmt.Errorf("failed to query prompt tokens for stage %s: %w", stage, err)
		}
		if vector, ok := promptResult.(model.Vector); ok && len(vector) > 0 {
			metrics.PromptTokens = int64(vector[0].Value)
		}

		completionQuery := fmt.Sprintf(`sum(llm_tokens_total{run_id=%q, stage=%q, type="completion"})`, runID, stage)
		completionResult, _, err := q.queryAPI.Query(ctx, completionQuery, time.Now())
		if err != nil {
			return nil, fmt.Errorf("failed to query completion tokens for stage %s: %w", stage, err)
		}
		if vector, ok := completionResult.(model.Vector); ok && len(vector) > 0 {
			metrics.CompletionTokens = int64(vector[0].Value)
		}

		metrics.TotalTokens = metrics.PromptTokens + metrics.CompletionTokens

		costQuery := fmt.Sprintf(`sum(llm_costs_total{run_id=%q, stage=%q})`, runID, stage)
		costResult, _, err := q.queryAPI.Query(ctx, costQuery, time.Now())
		if err != nil {
			return nil, fmt.Errorf("failed to query cost for stage %s: %w", stage, err)
		}
		if vector, ok := costResult.(model.Vector); ok && len(vector) > 0 {
			metrics.TotalCost = float64(vector[0].Value)
		}

		result[stage] = metrics
	}

	return result, nil
}
