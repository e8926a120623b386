package cost

import (
	"strings"
	"testing"

	"blueprint/pkg/blueprint"
)

func testInput(level blueprint.DetailLevel) blueprint.UserInput {
	return blueprint.UserInput{
		BusinessIdea: "A subscription service for locally roasted coffee beans",
		DetailLevel:  level,
		Platform:     blueprint.PlatformAWS,
	}
}

func TestEstimateRunPricedModel(t *testing.T) {
	est := NewEstimator("gpt-4o").EstimateRun(testInput(blueprint.DetailDetailed))

	if !est.Known {
		t.Fatal("gpt-4o has published pricing, estimate should be known")
	}
	if est.Low <= 0 || est.High <= 0 {
		t.Errorf("expected positive cost band, got low=%f high=%f", est.Low, est.High)
	}
	if est.Low >= est.High {
		t.Errorf("low bound %f should be below high bound %f", est.Low, est.High)
	}
}

func TestEstimateRunDetailLevelOrdering(t *testing.T) {
	e := NewEstimator("gpt-4o")
	hl := e.EstimateRun(testInput(blueprint.DetailHighLevel))
	pr := e.EstimateRun(testInput(blueprint.DetailProductionReady))

	if hl.High >= pr.High {
		t.Errorf("production ready should cost more than high level: %f vs %f", pr.High, hl.High)
	}
}

func TestEstimateRunDetailedCheapestProviderBand(t *testing.T) {
	// deepseek-chat is the cheapest priced model in the registry at
	// $0.27/$1.10 per million tokens. A detailed run makes five generation
	// calls with an 8192-token completion budget and context accumulating
	// across stages, which puts the band near $0.025 - $0.069. The limits
	// below leave room for tokenizer drift but catch a wrong stage count
	// or a pricing regression.
	est := NewEstimator("deepseek-chat").EstimateRun(testInput(blueprint.DetailDetailed))

	if !est.Known {
		t.Fatal("deepseek-chat has published pricing, estimate should be known")
	}
	if est.Low < 0.020 || est.Low > 0.030 {
		t.Errorf("low bound %f outside documented band [0.020, 0.030]", est.Low)
	}
	if est.High < 0.055 || est.High > 0.080 {
		t.Errorf("high bound %f outside documented band [0.055, 0.080]", est.High)
	}
}

func TestEstimateRunFreeModel(t *testing.T) {
	est := NewEstimator("llama-3.3-70b-versatile").EstimateRun(testInput(blueprint.DetailDetailed))

	if !est.Known {
		t.Fatal("groq models are in the registry, estimate should be known")
	}
	if est.Low != 0 || est.High != 0 {
		t.Errorf("free tier model should estimate to zero, got low=%f high=%f", est.Low, est.High)
	}
	if est.String() != "llama-3.3-70b-versatile: free" {
		t.Errorf("unexpected string form %q", est.String())
	}
}

func TestEstimateRunUnknownModel(t *testing.T) {
	est := NewEstimator("qwen2.5-coder").EstimateRun(testInput(blueprint.DetailDetailed))

	if est.Known {
		t.Error("unregistered model should report unknown pricing")
	}
	if est.Low != 0 || est.High != 0 {
		t.Errorf("unknown pricing should leave bounds at zero, got low=%f high=%f", est.Low, est.High)
	}
	if !strings.Contains(est.String(), "pricing unknown") {
		t.Errorf("unexpected string form %q", est.String())
	}
}

func TestEstimateString(t *testing.T) {
	s := Estimate{Model: "gpt-4o", Low: 0.0123, High: 0.0456, Known: true}.String()
	if s != "gpt-4o: $0.0123 - $0.0456" {
		t.Errorf("unexpected string form %q", s)
	}
}
