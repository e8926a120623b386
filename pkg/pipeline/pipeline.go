// Package pipeline orchestrates the staged generation of a technical
// blueprint from a business idea. Stages run strictly in order, each one
// consuming the validated output of the stages before it; diagram synthesis
// runs concurrently with the next stage.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"blueprint/pkg/agent/llm"
	"blueprint/pkg/agent/middleware/metrics"
	"blueprint/pkg/blueprint"
	"blueprint/pkg/config"
	"blueprint/pkg/diagram"
	"blueprint/pkg/logx"
	"blueprint/pkg/policy"
	"blueprint/pkg/schema"
	"blueprint/pkg/templates"
)

// detailGuidance is appended to stage prompts per detail level.
var detailGuidance = map[blueprint.DetailLevel]string{
	blueprint.DetailHighLevel:       "Focus on core features only. Keep the analysis concise.",
	blueprint.DetailDetailed:        "Provide comprehensive analysis with all major features and considerations.",
	blueprint.DetailProductionReady: "Provide exhaustive analysis including advanced features, security considerations, and scalability requirements.",
}

// summaryLimit bounds the prior-stage JSON passed into the deployment
// prompt, which needs shape rather than every field.
const summaryLimit = 2000

// ClientProvider builds the per-run provider client and its verifier.
// *agent.ClientFactory implements it; tests substitute scripted clients.
type ClientProvider interface {
	CreateClient(runCtx metrics.RunContext) (llm.LLMClient, llm.Verifier, error)
}

// Pipeline generates blueprints. One Pipeline may serve many runs.
type Pipeline struct {
	cfg      *config.Config
	factory  ClientProvider
	renderer *templates.Renderer
	quirks   config.Quirks
	logger   *logx.Logger
}

// New creates a pipeline for the configured provider and model.
func New(cfg *config.Config, factory ClientProvider) (*Pipeline, error) {
	renderer, err := templates.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to load stage templates: %w", err)
	}

	provider, err := config.GetModelProvider(cfg.ResolvedModel())
	if err != nil {
		return nil, err
	}
	info, err := config.GetProviderInfo(provider)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		cfg:      cfg,
		factory:  factory,
		renderer: renderer,
		quirks:   info.Quirks,
		logger:   logx.NewLogger("pipeline"),
	}, nil
}

// Run generates a blueprint from the input. Progress events are delivered
// on events when non-nil; the channel is closed when the run ends. On a
// stage failure the returned blueprint is partial, carries the failure
// reason, and is returned alongside the error.
//
// Cancellation is honored only at stage boundaries: an in-flight provider
// call runs to completion or provider failure, and completed stages are
// never discarded.
func (p *Pipeline) Run(ctx context.Context, input blueprint.UserInput, events chan<- Event) (*blueprint.Blueprint, error) {
	if events != nil {
		defer close(events)
	}
	emit := func(ev Event) {
		if events != nil {
			ev.Timestamp = time.Now()
			events <- ev
		}
	}

	if err := input.Validate(); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	bp := blueprint.New(input)
	state := newRunState(bp.ID)

	client, verifier, err := p.factory.CreateClient(state)
	if err != nil {
		return nil, err
	}
	// Credential problems surface here, before any generation spend.
	if verifier != nil {
		if err := verifier.Verify(ctx); err != nil {
			return nil, fmt.Errorf("provider verification failed: %w", err)
		}
	}

	p.logger.Info("run %s started: model=%s detail=%s platform=%s",
		bp.ID, client.GetModelName(), input.DetailLevel, input.PlatformName())
	emit(Event{Type: EventRunStarted, Stage: StageInit})

	// Diagram synthesis is chained through done channels so diagram events
	// keep stage order even though each synthesis runs in its own goroutine.
	var wg sync.WaitGroup
	var diagramMu sync.Mutex
	prevDone := make(chan struct{})
	close(prevDone)
	scheduleDiagram := func(name string, build func() string) {
		prev := prevDone
		done := make(chan struct{})
		prevDone = done
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer close(done)
			source := build()
			<-prev
			diagramMu.Lock()
			bp.SetDiagram(name, source)
			diagramMu.Unlock()
			emit(Event{Type: EventDiagramReady, Diagram: name})
		}()
	}

	fail := func(stage Stage, cause error) (*blueprint.Blueprint, error) {
		wg.Wait()
		_ = state.transition(StageFailed)
		bp.MarkFailed(fmt.Sprintf("%s stage: %v", strings.ToLower(string(stage)), cause))
		bp.Finalize()
		p.logger.Error("run %s failed at %s: %v", bp.ID, stage, cause)
		emit(Event{Type: EventRunFailed, Stage: stage, Message: cause.Error(), Payload: bp})
		return bp, fmt.Errorf("%s stage failed: %w", strings.ToLower(string(stage)), cause)
	}

	enter := func(stage Stage) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := state.transition(stage); err != nil {
			return err
		}
		emit(Event{Type: EventStageStarted, Stage: stage})
		return nil
	}

	warn := func(stage Stage, warnings []string) {
		for _, w := range warnings {
			bp.Warnings = append(bp.Warnings, w)
			p.logger.Warn("run %s: %s", bp.ID, w)
			emit(Event{Type: EventWarning, Stage: stage, Message: w})
		}
	}

	targets := policy.TargetsFor(input.DetailLevel)
	// Set once an earlier stage's output is truncated; later prompts carry
	// it so the model knows the context may be incomplete.
	var contextNote string
	noteTruncation := func(truncated bool) {
		if truncated {
			contextNote = "an earlier design stage hit its output token limit; the context above may be incomplete"
		}
	}
	base := templates.StageData{
		BusinessIdea:    input.BusinessIdea,
		DetailLevel:     string(input.DetailLevel),
		DetailGuidance:  detailGuidance[input.DetailLevel],
		Platform:        input.PlatformName(),
		TargetTables:    fmt.Sprintf("%d-%d", targets.MinTables, targets.MaxTables),
		TargetEndpoints: fmt.Sprintf("%d-%d", targets.MinEndpoints, targets.MaxEndpoints),
	}

	// Requirements.
	if err := enter(StageRequirements); err != nil {
		return fail(StageRequirements, err)
	}
	var requirements blueprint.RequirementsAnalysis
	data := base
	warnings, truncated, err := p.generate(ctx, client, templates.RequirementsTemplate, &data, &requirements, targets.MaxOutputTokens)
	if err != nil {
		return fail(StageRequirements, err)
	}
	bp.Requirements = &requirements
	noteTruncation(truncated)
	warn(StageRequirements, warnings)
	emit(Event{Type: EventStageCompleted, Stage: StageRequirements, Payload: &requirements})

	requirementsJSON := mustJSON(&requirements)

	// Database schema.
	if err := enter(StageDatabase); err != nil {
		return fail(StageDatabase, err)
	}
	var dbSchema blueprint.DatabaseSchema
	data = base
	data.Requirements = requirementsJSON
	data.ContextNote = contextNote
	warnings, truncated, err = p.generate(ctx, client, templates.DatabaseTemplate, &data, &dbSchema, targets.MaxOutputTokens)
	if err != nil {
		return fail(StageDatabase, err)
	}
	bp.DatabaseSchema = &dbSchema
	noteTruncation(truncated)
	warn(StageDatabase, warnings)
	warn(StageDatabase, policy.CheckDatabase(input.DetailLevel, &dbSchema))
	emit(Event{Type: EventStageCompleted, Stage: StageDatabase, Payload: &dbSchema})
	scheduleDiagram(blueprint.DiagramDatabase, func() string {
		return diagram.EntityRelationship(&dbSchema)
	})

	schemaJSON := mustJSON(&dbSchema)

	// API design.
	if err := enter(StageAPI); err != nil {
		return fail(StageAPI, err)
	}
	var apiDesign blueprint.APIDesign
	data = base
	data.Requirements = requirementsJSON
	data.DatabaseSchema = schemaJSON
	data.ContextNote = contextNote
	warnings, truncated, err = p.generate(ctx, client, templates.APITemplate, &data, &apiDesign, targets.MaxOutputTokens)
	if err != nil {
		return fail(StageAPI, err)
	}
	bp.APIDesign = &apiDesign
	noteTruncation(truncated)
	warn(StageAPI, warnings)
	warn(StageAPI, policy.CheckAPI(input.DetailLevel, &apiDesign))
	warn(StageAPI, apiDesign.CrossCheck(&dbSchema))
	emit(Event{Type: EventStageCompleted, Stage: StageAPI, Payload: &apiDesign})
	scheduleDiagram(blueprint.DiagramAPI, func() string {
		return diagram.RequestFlow(&apiDesign)
	})

	apiJSON := mustJSON(&apiDesign)

	// Frontend architecture.
	if err := enter(StageFrontend); err != nil {
		return fail(StageFrontend, err)
	}
	var frontend blueprint.FrontendDesign
	data = base
	data.Requirements = requirementsJSON
	data.APIDesign = apiJSON
	data.ContextNote = contextNote
	warnings, truncated, err = p.generate(ctx, client, templates.FrontendTemplate, &data, &frontend, targets.MaxOutputTokens)
	if err != nil {
		return fail(StageFrontend, err)
	}
	bp.FrontendDesign = &frontend
	noteTruncation(truncated)
	warn(StageFrontend, warnings)
	warn(StageFrontend, frontend.CrossCheck(&apiDesign))
	emit(Event{Type: EventStageCompleted, Stage: StageFrontend, Payload: &frontend})
	scheduleDiagram(blueprint.DiagramFrontend, func() string {
		return diagram.ComponentHierarchy(&frontend)
	})

	// Deployment plan. Later prompts need the shape of earlier designs,
	// not every field, so the context is summarized.
	if err := enter(StageDeployment); err != nil {
		return fail(StageDeployment, err)
	}
	var plan blueprint.DeploymentPlan
	data = base
	data.Requirements = requirementsJSON
	data.DatabaseSchema = summarize(schemaJSON)
	data.APIDesign = summarize(apiJSON)
	data.FrontendDesign = summarize(mustJSON(&frontend))
	data.ContextNote = contextNote
	warnings, _, err = p.generate(ctx, client, templates.DeploymentTemplate, &data, &plan, targets.MaxOutputTokens)
	if err != nil {
		return fail(StageDeployment, err)
	}
	bp.DeploymentPlan = &plan
	warn(StageDeployment, warnings)
	emit(Event{Type: EventStageCompleted, Stage: StageDeployment, Payload: &plan})
	scheduleDiagram(blueprint.DiagramDeployment, func() string {
		return diagram.DeploymentTopology(&plan)
	})

	// Completion: wait for outstanding diagrams, then the combined view.
	if err := state.transition(StageComplete); err != nil {
		return fail(StageDeployment, err)
	}
	wg.Wait()
	if arch, ok := diagram.Architecture(bp); ok {
		bp.SetDiagram(blueprint.DiagramArchitecture, arch)
		emit(Event{Type: EventDiagramReady, Diagram: blueprint.DiagramArchitecture})
	}

	bp.Finalize()
	p.logger.Info("run %s completed: %d tables, %d endpoints, %d components",
		bp.ID, len(dbSchema.Tables), len(apiDesign.Endpoints), len(frontend.Components))
	emit(Event{Type: EventRunCompleted, Stage: StageComplete})
	return bp, nil
}

// generate renders the stage prompt, calls the model, and parses the
// response into out. A response that fails validation gets up to the
// configured number of repair reprompts before the stage fails. The
// returned flag reports whether the accepted response hit the token limit.
func (p *Pipeline) generate(
	ctx context.Context,
	client llm.LLMClient,
	tmpl templates.StageTemplate,
	data *templates.StageData,
	out schema.Validatable,
	maxTokens int,
) ([]string, bool, error) {
	prompt, err := p.renderer.Render(tmpl, data)
	if err != nil {
		return nil, false, err
	}

	messages := []llm.CompletionMessage{llm.NewUserMessage(prompt)}
	req := llm.CompletionRequest{
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: p.cfg.Generation.Temperature,
		JSONOnly:    true,
	}

	// An in-flight provider call runs to completion or provider failure;
	// cancellation is polled only at stage boundaries. Per-call timeouts
	// still apply through the client's timeout middleware.
	callCtx := context.WithoutCancel(ctx)

	resp, err := client.Complete(callCtx, req)
	if err != nil {
		return nil, false, err
	}

	var warnings []string
	if resp.Truncated() {
		warnings = append(warnings, fmt.Sprintf("%s: output hit the token budget and may be incomplete", tmpl))
	}

	parseErr := schema.Parse(resp.Content, out, p.quirks)
	for attempt := 0; parseErr != nil && attempt < p.cfg.Generation.RepairAttempts; attempt++ {
		p.logger.Warn("repairing %s response (attempt %d): %v", tmpl, attempt+1, parseErr)
		repairReq := req
		repairReq.Messages = append(append([]llm.CompletionMessage{}, messages...),
			llm.NewAssistantMessage(resp.Content),
			llm.NewUserMessage(schema.RepairPrompt(parseErr)),
		)
		resp, err = client.Complete(callCtx, repairReq)
		if err != nil {
			return warnings, false, err
		}
		if resp.Truncated() {
			warnings = append(warnings, fmt.Sprintf("%s: repaired output hit the token budget and may be incomplete", tmpl))
		}
		parseErr = schema.Parse(resp.Content, out, p.quirks)
	}
	if parseErr != nil {
		return warnings, false, parseErr
	}
	return warnings, resp.Truncated(), nil
}

func mustJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		// Stage payloads are plain structs; marshaling cannot fail.
		return fmt.Sprintf("%+v", v)
	}
	return string(data)
}

func summarize(s string) string {
	if len(s) <= summaryLimit {
		return s
	}
	return s[:summaryLimit] + "\n... (truncated)"
}
