// Package templates provides prompt rendering for the generation stages.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed *.tpl.md
var templateFS embed.FS

// StageData holds the data available to stage prompt templates. Context
// fields carry the JSON output of earlier stages and are empty for stages
// that do not consume them.
type StageData struct {
	BusinessIdea   string
	DetailLevel    string
	DetailGuidance string
	Platform       string

	// Target bands from the detail level, preformatted as "15-20".
	TargetTables    string
	TargetEndpoints string

	Requirements   string
	DatabaseSchema string
	APIDesign      string
	FrontendDesign string

	// ContextNote is set when an earlier stage's output was truncated, so
	// the model knows the context below may be incomplete.
	ContextNote string
}

// StageTemplate names one of the embedded stage prompt templates.
type StageTemplate string

const (
	// RequirementsTemplate extracts structured requirements from the idea.
	RequirementsTemplate StageTemplate = "requirements.tpl.md"
	// DatabaseTemplate designs the schema from the requirements.
	DatabaseTemplate StageTemplate = "database.tpl.md"
	// APITemplate designs the endpoint surface from schema and requirements.
	APITemplate StageTemplate = "api.tpl.md"
	// FrontendTemplate designs the component architecture from the API.
	FrontendTemplate StageTemplate = "frontend.tpl.md"
	// DeploymentTemplate plans infrastructure from the full design.
	DeploymentTemplate StageTemplate = "deployment.tpl.md"
)

// Renderer handles prompt rendering for the generation stages.
type Renderer struct {
	templates map[StageTemplate]*template.Template
}

// NewRenderer parses all embedded stage templates.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{
		templates: make(map[StageTemplate]*template.Template),
	}

	templateNames := []StageTemplate{
		RequirementsTemplate,
		DatabaseTemplate,
		APITemplate,
		FrontendTemplate,
		DeploymentTemplate,
	}

	for _, name := range templateNames {
		content, err := templateFS.ReadFile(string(name))
		if err != nil {
			return nil, fmt.Errorf("failed to read template %s: %w", name, err)
		}

		tmpl, err := template.New(string(name)).Funcs(template.FuncMap{
			"contains": strings.Contains,
		}).Parse(string(content))
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}

		r.templates[name] = tmpl
	}

	return r, nil
}

// Render renders the specified stage template with the given data.
func (r *Renderer) Render(templateName StageTemplate, data *StageData) (string, error) {
	tmpl, exists := r.templates[templateName]
	if !exists {
		return "", fmt.Errorf("template %s not found", templateName)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", templateName, err)
	}

	return buf.String(), nil
}

// GetAvailableTemplates returns a list of all loaded templates.
func (r *Renderer) GetAvailableTemplates() []StageTemplate {
	templates := make([]StageTemplate, 0, len(r.templates))
	for name := range r.templates {
		templates = append(templates, name)
	}
	return templates
}
