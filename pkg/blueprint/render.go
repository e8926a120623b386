package blueprint

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// frontMatter is the YAML header on exported markdown documents.
type frontMatter struct {
	ID          string `yaml:"id"`
	Generated   string `yaml:"generated"`
	DetailLevel string `yaml:"detail_level"`
	Platform    string `yaml:"platform"`
	Partial     bool   `yaml:"partial,omitempty"`
}

// RenderJSON returns the nested JSON form of the blueprint.
func (b *Blueprint) RenderJSON() ([]byte, error) {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal blueprint: %w", err)
	}
	return data, nil
}

// RenderMarkdown returns the flattened markdown form of the blueprint.
// Sections for stages that never completed are omitted; a halted run gets a
// notice naming the failure instead.
func (b *Blueprint) RenderMarkdown() (string, error) {
	var sb strings.Builder

	fm := frontMatter{
		ID:          b.ID,
		Generated:   b.CreatedAt.Format("2006-01-02 15:04:05 UTC"),
		DetailLevel: string(b.UserInput.DetailLevel),
		Platform:    b.UserInput.PlatformName(),
		Partial:     b.Partial,
	}
	fmBytes, err := yaml.Marshal(&fm)
	if err != nil {
		return "", fmt.Errorf("failed to marshal front matter: %w", err)
	}
	sb.WriteString("---\n")
	sb.Write(fmBytes)
	sb.WriteString("---\n\n")

	sb.WriteString("# Technical Blueprint\n\n")
	if b.Partial {
		fmt.Fprintf(&sb, "> Generation halted: %s. Sections below cover the stages that completed.\n\n", b.FailureReason)
	}

	sb.WriteString("## Business Idea\n\n")
	sb.WriteString(b.UserInput.BusinessIdea)
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "**Detail Level**: %s\n\n", b.UserInput.DetailLevel)
	fmt.Fprintf(&sb, "**Target Platform**: %s\n\n", b.UserInput.PlatformName())

	if b.Requirements != nil {
		renderRequirements(&sb, b.Requirements)
	}
	if b.DatabaseSchema != nil {
		renderDatabase(&sb, b.DatabaseSchema, b.Diagrams[DiagramDatabase])
	}
	if b.APIDesign != nil {
		renderAPI(&sb, b.APIDesign, b.Diagrams[DiagramAPI])
	}
	if b.FrontendDesign != nil {
		renderFrontend(&sb, b.FrontendDesign, b.Diagrams[DiagramFrontend])
	}
	if b.DeploymentPlan != nil {
		renderDeployment(&sb, b.DeploymentPlan, b.Diagrams[DiagramDeployment])
	}

	if arch := b.Diagrams[DiagramArchitecture]; arch != "" {
		sb.WriteString("## System Architecture\n\n")
		writeMermaid(&sb, arch)
	}

	if len(b.TechnologyStackSummary) > 0 {
		sb.WriteString("## Technology Stack Summary\n\n")
		for _, key := range []string{"frontend", "backend", "database", "hosting", "monitoring"} {
			if value, ok := b.TechnologyStackSummary[key]; ok {
				fmt.Fprintf(&sb, "- **%s**: %s\n", titleCase(key), value)
			}
		}
		sb.WriteString("\n")
	}

	if len(b.ImplementationRecommendations) > 0 {
		sb.WriteString("## Implementation Recommendations\n\n")
		for i, rec := range b.ImplementationRecommendations {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, rec)
		}
		sb.WriteString("\n")
	}

	if len(b.NextSteps) > 0 {
		sb.WriteString("## Next Steps\n\n")
		for i, step := range b.NextSteps {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, step)
		}
		sb.WriteString("\n")
	}

	if b.EstimatedTimeline != "" {
		sb.WriteString("## Estimated Timeline\n\n")
		sb.WriteString(b.EstimatedTimeline)
		sb.WriteString("\n\n")
	}

	if len(b.Warnings) > 0 {
		sb.WriteString("## Warnings\n\n")
		for _, w := range b.Warnings {
			fmt.Fprintf(&sb, "- %s\n", w)
		}
		sb.WriteString("\n")
	}

	return sb.String(), nil
}

func renderRequirements(sb *strings.Builder, r *RequirementsAnalysis) {
	sb.WriteString("## Requirements Analysis\n\n")
	sb.WriteString("### Core Features\n\n")
	writeBullets(sb, r.CoreFeatures)
	sb.WriteString("### User Types\n\n")
	writeBullets(sb, r.UserTypes)
	sb.WriteString("### Key Entities\n\n")
	writeBullets(sb, r.KeyEntities)
	fmt.Fprintf(sb, "### Business Model\n\n%s\n\n", r.BusinessModel)
	fmt.Fprintf(sb, "### Complexity Assessment\n\n%s\n\n", r.ComplexityAssessment)
	if len(r.KeyTechnicalChallenges) > 0 {
		sb.WriteString("### Key Technical Challenges\n\n")
		writeBullets(sb, r.KeyTechnicalChallenges)
	}
}

func renderDatabase(sb *strings.Builder, s *DatabaseSchema, diagram string) {
	fmt.Fprintf(sb, "## Database Schema\n\n### Tables (%d total)\n\n", len(s.Tables))
	for i := range s.Tables {
		table := &s.Tables[i]
		fmt.Fprintf(sb, "#### %s\n\n%s\n\n", table.Name, table.Description)
		sb.WriteString("| Field | Type | Constraints |\n")
		sb.WriteString("|-------|------|-------------|\n")
		for j := range table.Fields {
			field := &table.Fields[j]
			constraints := make([]string, len(field.Constraints))
			for k, c := range field.Constraints {
				constraints[k] = string(c)
			}
			fmt.Fprintf(sb, "| %s | %s | %s |\n", field.Name, field.DataType, strings.Join(constraints, ", "))
		}
		sb.WriteString("\n")
	}
	if diagram != "" {
		sb.WriteString("### Entity Relationships\n\n")
		writeMermaid(sb, diagram)
	}
	fmt.Fprintf(sb, "### Database Design Rationale\n\n%s\n\n", s.Reasoning)
}

func renderAPI(sb *strings.Builder, d *APIDesign, diagram string) {
	sb.WriteString("## API Design\n\n")
	fmt.Fprintf(sb, "**Base URL**: %s\n\n", d.BaseURL)
	fmt.Fprintf(sb, "**Authentication**: %s\n\n", d.AuthenticationStrategy)
	fmt.Fprintf(sb, "### Endpoints (%d total)\n\n", len(d.Endpoints))
	for i := range d.Endpoints {
		ep := &d.Endpoints[i]
		fmt.Fprintf(sb, "#### %s %s\n\n", ep.Method, ep.Path)
		fmt.Fprintf(sb, "**Name**: %s\n\n", ep.Name)
		fmt.Fprintf(sb, "**Description**: %s\n\n", ep.Description)
		fmt.Fprintf(sb, "**Auth Required**: %t\n\n", ep.AuthRequired)
	}
	if diagram != "" {
		sb.WriteString("### Request Flow\n\n")
		writeMermaid(sb, diagram)
	}
	fmt.Fprintf(sb, "### API Design Rationale\n\n%s\n\n", d.Reasoning)
}

func renderFrontend(sb *strings.Builder, d *FrontendDesign, diagram string) {
	sb.WriteString("## Frontend Architecture\n\n")
	fmt.Fprintf(sb, "**Framework**: %s\n\n", d.Framework)
	fmt.Fprintf(sb, "**State Management**: %s\n\n", d.StateManagement)
	fmt.Fprintf(sb, "**Styling**: %s\n\n", d.StylingApproach)
	fmt.Fprintf(sb, "### Components (%d total)\n\n", len(d.Components))
	for i := range d.Components {
		comp := &d.Components[i]
		fmt.Fprintf(sb, "#### %s\n\n", comp.Name)
		fmt.Fprintf(sb, "**Type**: %s\n\n", comp.Type)
		fmt.Fprintf(sb, "**Path**: `%s`\n\n", comp.Path)
		fmt.Fprintf(sb, "**Description**: %s\n\n", comp.Description)
	}
	if diagram != "" {
		sb.WriteString("### Component Hierarchy\n\n")
		writeMermaid(sb, diagram)
	}
	fmt.Fprintf(sb, "### Frontend Design Rationale\n\n%s\n\n", d.Reasoning)
}

func renderDeployment(sb *strings.Builder, p *DeploymentPlan, diagram string) {
	sb.WriteString("## Deployment Plan\n\n")
	fmt.Fprintf(sb, "**Platform**: %s\n\n", p.Platform)
	fmt.Fprintf(sb, "**Database Service**: %s\n\n", p.DatabaseService)
	fmt.Fprintf(sb, "**Hosting Service**: %s\n\n", p.HostingService)
	fmt.Fprintf(sb, "**CI/CD Strategy**: %s\n\n", p.CICDStrategy)
	fmt.Fprintf(sb, "**Monitoring Strategy**: %s\n\n", p.MonitoringStrategy)
	cost := p.EstimatedMonthlyCost
	if cost == "" {
		cost = "TBD"
	}
	fmt.Fprintf(sb, "**Estimated Monthly Cost**: %s\n\n", cost)
	sb.WriteString("### Security Measures\n\n")
	writeBullets(sb, p.SecurityMeasures)
	if diagram != "" {
		sb.WriteString("### Deployment Architecture\n\n")
		writeMermaid(sb, diagram)
	}
	fmt.Fprintf(sb, "### Deployment Rationale\n\n%s\n\n", p.Reasoning)
}

func writeBullets(sb *strings.Builder, items []string) {
	for _, item := range items {
		fmt.Fprintf(sb, "- %s\n", item)
	}
	sb.WriteString("\n")
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func writeMermaid(sb *strings.Builder, source string) {
	sb.WriteString("```mermaid\n")
	sb.WriteString(strings.TrimRight(source, "\n"))
	sb.WriteString("\n```\n\n")
}
