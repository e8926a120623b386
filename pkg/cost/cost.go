// Package cost estimates the provider spend of a generation run before any
// request is made. Estimates are computed purely from the model's published
// per-token pricing and the detail level's token budgets.
package cost

import (
	"fmt"

	"blueprint/pkg/blueprint"
	"blueprint/pkg/config"
	"blueprint/pkg/policy"
	"blueprint/pkg/utils"
)

// Generation calls in a full run: requirements, database, API, frontend,
// deployment.
const stageCount = 5

// Per-stage prompt overhead beyond the accumulated context, covering the
// instruction template and response schema.
const promptOverheadTokens = 1200

// Estimate is a pre-run cost band in US dollars. Low assumes compact
// responses; High assumes every stage fills its completion budget.
type Estimate struct {
	Model string
	Low   float64
	High  float64
	// Known is false when the model has no published pricing, in which
	// case Low and High are zero.
	Known bool
}

func (e Estimate) String() string {
	if !e.Known {
		return fmt.Sprintf("%s: pricing unknown", e.Model)
	}
	if e.High == 0 {
		return fmt.Sprintf("%s: free", e.Model)
	}
	return fmt.Sprintf("%s: $%.4f - $%.4f", e.Model, e.Low, e.High)
}

// lowCompletionRatio scales the completion budget down for the optimistic
// bound. Observed runs rarely use less than a third of the budget.
const lowCompletionRatio = 0.35

// Estimator computes run estimates for a fixed model.
type Estimator struct {
	model   string
	counter *utils.TokenCounter
}

func NewEstimator(model string) *Estimator {
	// A missing tokenizer is fine here; counting falls back to a
	// character heuristic, which is plenty for a cost band.
	counter, err := utils.NewTokenCounter(model)
	if err != nil {
		counter = nil
	}
	return &Estimator{model: model, counter: counter}
}

// EstimateRun returns the cost band for generating a blueprint from the
// given input. Each stage's prompt includes the accumulated output of the
// stages before it, so prompt size grows across the run.
func (e *Estimator) EstimateRun(input blueprint.UserInput) Estimate {
	_, known := config.GetModelInfo(e.model)
	est := Estimate{Model: e.model, Known: known}
	if !known {
		return est
	}

	ideaTokens := utils.CountTokensSimple(input.BusinessIdea)
	if e.counter != nil {
		ideaTokens = e.counter.CountTokens(input.BusinessIdea)
	}
	budget := policy.TargetsFor(input.DetailLevel).MaxOutputTokens

	highContext := ideaTokens
	lowContext := ideaTokens
	for stage := 0; stage < stageCount; stage++ {
		highPrompt := highContext + promptOverheadTokens
		lowPrompt := lowContext + promptOverheadTokens
		highCompletion := budget
		lowCompletion := int(float64(budget) * lowCompletionRatio)

		est.High += config.CalculateCost(e.model, highPrompt, highCompletion)
		est.Low += config.CalculateCost(e.model, lowPrompt, lowCompletion)

		highContext += highCompletion
		lowContext += lowCompletion
	}
	return est
}
