package blueprint

import (
	"time"

	"github.com/google/uuid"
)

// Diagram names used as keys in Blueprint.Diagrams.
const (
	DiagramDatabase     = "database"
	DiagramAPI          = "api"
	DiagramFrontend     = "frontend"
	DiagramDeployment   = "deployment"
	DiagramArchitecture = "architecture"
)

// Blueprint is the complete technical blueprint for an application. On a
// halted run Partial is true, FailureReason names the cause, and every stage
// payload completed before the halt is retained.
type Blueprint struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	UserInput      UserInput             `json:"user_input"`
	Requirements   *RequirementsAnalysis `json:"requirements,omitempty"`
	DatabaseSchema *DatabaseSchema       `json:"database_schema,omitempty"`
	APIDesign      *APIDesign            `json:"api_design,omitempty"`
	FrontendDesign *FrontendDesign       `json:"frontend_design,omitempty"`
	DeploymentPlan *DeploymentPlan       `json:"deployment_plan,omitempty"`

	// Diagrams holds synthesized mermaid sources keyed by diagram name.
	// They are derived from validated stage payloads, never model output.
	Diagrams map[string]string `json:"diagrams,omitempty"`

	ImplementationRecommendations []string          `json:"implementation_recommendations,omitempty"`
	NextSteps                     []string          `json:"next_steps,omitempty"`
	EstimatedTimeline             string            `json:"estimated_timeline,omitempty"`
	TechnologyStackSummary        map[string]string `json:"technology_stack_summary,omitempty"`

	// Warnings carries soft policy and cross-reference findings.
	Warnings []string `json:"warnings,omitempty"`

	Partial       bool   `json:"partial"`
	FailureReason string `json:"failure_reason,omitempty"`
}

// New creates an empty blueprint for the given input.
func New(input UserInput) *Blueprint {
	return &Blueprint{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		UserInput: input,
		Diagrams:  make(map[string]string),
	}
}

// SetDiagram records a synthesized diagram under the given name.
func (b *Blueprint) SetDiagram(name, mermaid string) {
	if b.Diagrams == nil {
		b.Diagrams = make(map[string]string)
	}
	b.Diagrams[name] = mermaid
}

// MarkFailed flags the blueprint as partial with the given reason. Stage
// payloads already attached stay in place.
func (b *Blueprint) MarkFailed(reason string) {
	b.Partial = true
	b.FailureReason = reason
}

// Finalize fills in the derived summary sections once all stages are
// attached. It is a no-op on partial blueprints missing the stages the
// summaries draw from.
func (b *Blueprint) Finalize() {
	if b.Requirements != nil {
		b.EstimatedTimeline = estimateTimeline(b.Requirements.ComplexityAssessment)
	}

	if b.FrontendDesign != nil && b.DeploymentPlan != nil {
		monitoring := "TBD"
		if tools := b.DeploymentPlan.MonitoringTools; len(tools) > 0 {
			monitoring = tools[0]
			if len(tools) > 1 {
				monitoring += ", " + tools[1]
			}
		}
		b.TechnologyStackSummary = map[string]string{
			"frontend":   b.FrontendDesign.Framework,
			"backend":    "Node.js/Python (to be determined)",
			"database":   b.DeploymentPlan.DatabaseService,
			"hosting":    b.DeploymentPlan.Platform,
			"monitoring": monitoring,
		}
	}

	if !b.Partial {
		b.ImplementationRecommendations = []string{
			"Start with MVP features to validate core functionality",
			"Implement authentication and user management first",
			"Set up CI/CD pipeline early in the development process",
			"Use feature flags for gradual rollout of new features",
			"Implement comprehensive logging and monitoring from day one",
		}
		b.NextSteps = []string{
			"Set up development environment and version control",
			"Initialize project with chosen technology stack",
			"Implement database schema and migrations",
			"Build authentication system",
			"Develop core API endpoints",
			"Create basic frontend components",
			"Set up deployment pipeline",
			"Configure monitoring and logging",
		}
	}
}

// estimateTimeline maps complexity to a rough implementation estimate.
func estimateTimeline(complexity string) string {
	switch complexity {
	case ComplexityLow:
		return "6-8 weeks for MVP"
	case ComplexityHigh:
		return "4-6 months for MVP"
	default:
		return "3-4 months for MVP"
	}
}
