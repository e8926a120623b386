package blueprint

import "fmt"

// Complexity values reported by the requirements analysis.
const (
	ComplexityLow    = "low"
	ComplexityMedium = "medium"
	ComplexityHigh   = "high"
)

// RequirementsAnalysis captures the business requirements extracted from the
// free-text idea. It is the first stage payload and every later stage prompt
// builds on it.
type RequirementsAnalysis struct {
	CoreFeatures           []string `json:"core_features"`
	UserTypes              []string `json:"user_types"`
	KeyEntities            []string `json:"key_entities"`
	BusinessModel          string   `json:"business_model"`
	ComplexityAssessment   string   `json:"complexity_assessment"`
	KeyTechnicalChallenges []string `json:"key_technical_challenges,omitempty"`
}

// Validate checks structural completeness of the analysis.
func (r *RequirementsAnalysis) Validate() error {
	if len(r.CoreFeatures) == 0 {
		return fmt.Errorf("requirements: core_features must not be empty")
	}
	if len(r.UserTypes) == 0 {
		return fmt.Errorf("requirements: user_types must not be empty")
	}
	if len(r.KeyEntities) == 0 {
		return fmt.Errorf("requirements: key_entities must not be empty")
	}
	if r.BusinessModel == "" {
		return fmt.Errorf("requirements: business_model must not be empty")
	}
	switch r.ComplexityAssessment {
	case ComplexityLow, ComplexityMedium, ComplexityHigh:
	default:
		return fmt.Errorf("requirements: complexity_assessment must be low, medium, or high, got %q", r.ComplexityAssessment)
	}
	return nil
}
