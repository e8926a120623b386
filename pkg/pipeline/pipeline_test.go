package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blueprint/pkg/agent"
	"blueprint/pkg/agent/llm"
	"blueprint/pkg/agent/middleware/metrics"
	"blueprint/pkg/blueprint"
	"blueprint/pkg/config"
)

// fakeProvider hands the pipeline a scripted client.
type fakeProvider struct {
	client *agent.MockLLMClient
}

func (f *fakeProvider) CreateClient(_ metrics.RunContext) (llm.LLMClient, llm.Verifier, error) {
	return f.client, f.client, nil
}

func testInput() blueprint.UserInput {
	return blueprint.UserInput{
		BusinessIdea: "A marketplace for renting out photography gear between hobbyists",
		DetailLevel:  blueprint.DetailHighLevel,
		Platform:     blueprint.PlatformAWS,
	}
}

func marshalResponse(t *testing.T, payload any) llm.CompletionResponse {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return llm.CompletionResponse{Content: string(data), StopReason: llm.StopEndTurn}
}

// stageResponses scripts one valid response per generation stage.
func stageResponses(t *testing.T) []llm.CompletionResponse {
	t.Helper()

	requirements := blueprint.RequirementsAnalysis{
		CoreFeatures:         []string{"gear listings", "bookings"},
		UserTypes:            []string{"renter", "owner"},
		KeyEntities:          []string{"user", "listing", "booking"},
		BusinessModel:        "commission on each rental",
		ComplexityAssessment: blueprint.ComplexityMedium,
	}
	schema := blueprint.DatabaseSchema{
		Reasoning: "normalized core entities",
		Tables: []blueprint.DatabaseTable{
			{
				Name:        "users",
				Description: "registered users",
				Fields: []blueprint.DatabaseField{
					{Name: "id", DataType: blueprint.TypeUUID, Description: "primary key",
						Constraints: []blueprint.FieldConstraint{blueprint.ConstraintPrimaryKey}},
				},
			},
			{
				Name:        "listings",
				Description: "gear available for rent",
				Fields: []blueprint.DatabaseField{
					{Name: "id", DataType: blueprint.TypeUUID, Description: "primary key",
						Constraints: []blueprint.FieldConstraint{blueprint.ConstraintPrimaryKey}},
					{Name: "owner_id", DataType: blueprint.TypeUUID, Description: "listing owner",
						Constraints:         []blueprint.FieldConstraint{blueprint.ConstraintForeignKey},
						ForeignKeyReference: "users.id"},
				},
			},
		},
	}
	api := blueprint.APIDesign{
		BaseURL:                "/api/v1",
		AuthenticationStrategy: "JWT bearer tokens",
		VersioningStrategy:     "path prefix",
		Reasoning:              "REST over the core entities",
		Endpoints: []blueprint.APIEndpoint{
			{
				Path: "/api/v1/listings", Method: blueprint.MethodGet,
				Name: "List gear", Description: "Browse available gear",
				Responses:          []blueprint.APIResponse{{StatusCode: 200, Description: "ok"}},
				DatabaseOperations: []string{"listings"},
			},
		},
	}
	frontend := blueprint.FrontendDesign{
		Framework:       "React",
		StateManagement: blueprint.StateContext,
		StylingApproach: "Tailwind CSS",
		Reasoning:       "SPA",
		Components: []blueprint.FrontendComponent{
			{Name: "ListingsPage", Type: blueprint.ComponentPage,
				Path: "pages/ListingsPage.tsx", Description: "Browse gear"},
		},
		RoutingStructure: []blueprint.Route{{Path: "/", Component: "ListingsPage"}},
	}
	plan := blueprint.DeploymentPlan{
		Platform:           "aws",
		DatabaseService:    "RDS PostgreSQL",
		HostingService:     "ECS Fargate",
		CICDStrategy:       "GitHub Actions",
		MonitoringStrategy: "CloudWatch",
		MonitoringTools:    []string{"CloudWatch"},
		ScalingStrategy:    "autoscaling",
		SecurityMeasures:   []string{"TLS everywhere"},
		Reasoning:          "managed services",
		Infrastructure: []blueprint.InfrastructureComponent{
			{Name: "app-cluster", Service: "ECS Fargate", Purpose: "runs the API"},
		},
	}

	return []llm.CompletionResponse{
		marshalResponse(t, requirements),
		marshalResponse(t, schema),
		marshalResponse(t, api),
		marshalResponse(t, frontend),
		marshalResponse(t, plan),
	}
}

func newTestPipeline(t *testing.T, client *agent.MockLLMClient) *Pipeline {
	t.Helper()
	p, err := New(config.DefaultConfig(), &fakeProvider{client: client})
	require.NoError(t, err)
	return p
}

func collectEvents(events chan Event) []Event {
	var got []Event
	for ev := range events {
		got = append(got, ev)
	}
	return got
}

func TestRunComplete(t *testing.T) {
	client := agent.NewMockLLMClient(stageResponses(t), nil)
	p := newTestPipeline(t, client)

	events := make(chan Event, 64)
	bp, err := p.Run(context.Background(), testInput(), events)
	require.NoError(t, err)
	require.NotNil(t, bp)
	got := collectEvents(events)

	assert.False(t, bp.Partial)
	require.NotNil(t, bp.Requirements)
	require.NotNil(t, bp.DatabaseSchema)
	require.NotNil(t, bp.APIDesign)
	require.NotNil(t, bp.FrontendDesign)
	require.NotNil(t, bp.DeploymentPlan)
	assert.NotEmpty(t, bp.EstimatedTimeline)
	assert.NotEmpty(t, bp.NextSteps)

	for _, name := range []string{
		blueprint.DiagramDatabase,
		blueprint.DiagramAPI,
		blueprint.DiagramFrontend,
		blueprint.DiagramDeployment,
		blueprint.DiagramArchitecture,
	} {
		assert.NotEmpty(t, bp.Diagrams[name], "missing diagram %s", name)
	}

	// Small fixtures land below the high level target bands.
	assert.NotEmpty(t, bp.Warnings)

	require.NotEmpty(t, got)
	assert.Equal(t, EventRunStarted, got[0].Type)
	assert.Equal(t, EventRunCompleted, got[len(got)-1].Type)
	for _, ev := range got {
		if ev.Type == EventStageCompleted {
			assert.NotNil(t, ev.Payload, "stage %s event missing its result", ev.Stage)
		}
	}

	// One call per stage, no repairs needed.
	assert.Len(t, client.Requests(), 5)
	for _, req := range client.Requests() {
		assert.True(t, req.JSONOnly)
		assert.NotZero(t, req.MaxTokens)
	}
}

func TestRunEventOrdering(t *testing.T) {
	client := agent.NewMockLLMClient(stageResponses(t), nil)
	p := newTestPipeline(t, client)

	events := make(chan Event, 64)
	_, err := p.Run(context.Background(), testInput(), events)
	require.NoError(t, err)
	got := collectEvents(events)

	stageOrder := []Stage{StageRequirements, StageDatabase, StageAPI, StageFrontend, StageDeployment}
	var started, completed []Stage
	var diagrams []string
	for _, ev := range got {
		switch ev.Type {
		case EventStageStarted:
			started = append(started, ev.Stage)
		case EventStageCompleted:
			completed = append(completed, ev.Stage)
		case EventDiagramReady:
			diagrams = append(diagrams, ev.Diagram)
		}
	}
	assert.Equal(t, stageOrder, started)
	assert.Equal(t, stageOrder, completed)

	// Diagram events keep stage order even though synthesis is concurrent.
	assert.Equal(t, []string{
		blueprint.DiagramDatabase,
		blueprint.DiagramAPI,
		blueprint.DiagramFrontend,
		blueprint.DiagramDeployment,
		blueprint.DiagramArchitecture,
	}, diagrams)
}

func TestRunStageFailureReturnsPartial(t *testing.T) {
	responses := stageResponses(t)[:1]
	// The database stage answers with prose twice: the initial response and
	// the one repair reprompt both fail to parse.
	responses = append(responses,
		llm.CompletionResponse{Content: "I cannot produce a schema.", StopReason: llm.StopEndTurn},
		llm.CompletionResponse{Content: "Still prose, no JSON.", StopReason: llm.StopEndTurn},
	)
	client := agent.NewMockLLMClient(responses, nil)
	p := newTestPipeline(t, client)

	events := make(chan Event, 64)
	bp, err := p.Run(context.Background(), testInput(), events)
	got := collectEvents(events)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "database stage failed")
	require.NotNil(t, bp, "partial blueprint returned alongside the error")
	assert.True(t, bp.Partial)
	assert.Contains(t, bp.FailureReason, "database stage")
	assert.NotNil(t, bp.Requirements, "completed stages survive the halt")
	assert.Nil(t, bp.DatabaseSchema)

	require.NotEmpty(t, got)
	last := got[len(got)-1]
	assert.Equal(t, EventRunFailed, last.Type)
	assert.Equal(t, StageDatabase, last.Stage)
	assert.Same(t, bp, last.Payload, "failure event carries the partial blueprint")
}

func TestRunRepairRecovers(t *testing.T) {
	valid := stageResponses(t)
	responses := []llm.CompletionResponse{
		{Content: "Sure, here you go: not json", StopReason: llm.StopEndTurn},
	}
	responses = append(responses, valid...)
	client := agent.NewMockLLMClient(responses, nil)
	p := newTestPipeline(t, client)

	bp, err := p.Run(context.Background(), testInput(), nil)
	require.NoError(t, err)
	assert.False(t, bp.Partial)

	// The requirements stage took two calls: original plus one repair.
	reqs := client.Requests()
	require.Len(t, reqs, 6)
	repair := reqs[1]
	require.Len(t, repair.Messages, 3)
	assert.Equal(t, llm.RoleUser, repair.Messages[0].Role)
	assert.Equal(t, llm.RoleAssistant, repair.Messages[1].Role)
	assert.Equal(t, llm.RoleUser, repair.Messages[2].Role)
	assert.Contains(t, repair.Messages[2].Content, "could not be used")
}

func TestRunRepairFailureDoesNotMixResponses(t *testing.T) {
	// The initial response carries a field the contract does not allow, so
	// the strict decode rejects it. The repair response is missing
	// business_model. Neither response alone is acceptable; the stage must
	// fail rather than blend fields from the two.
	rejected := map[string]any{
		"core_features":         []string{"gear listings"},
		"user_types":            []string{"renter"},
		"key_entities":          []string{"listing"},
		"business_model":        "commission-from-rejected-response",
		"complexity_assessment": "medium",
		"unrequested_field":     1,
	}
	repair := map[string]any{
		"core_features":         []string{"gear listings"},
		"user_types":            []string{"renter"},
		"key_entities":          []string{"listing"},
		"complexity_assessment": "medium",
	}
	client := agent.NewMockLLMClient([]llm.CompletionResponse{
		marshalResponse(t, rejected),
		marshalResponse(t, repair),
	}, nil)
	p := newTestPipeline(t, client)

	bp, err := p.Run(context.Background(), testInput(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requirements stage failed")
	require.NotNil(t, bp)
	assert.True(t, bp.Partial)
	assert.Nil(t, bp.Requirements, "no payload accepted from two rejected responses")
}

// funcProvider hands the pipeline a bare function-backed client with no
// verifier, for tests that need to observe the call context.
type funcProvider struct {
	complete func(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error)
}

func (f *funcProvider) CreateClient(_ metrics.RunContext) (llm.LLMClient, llm.Verifier, error) {
	client := llm.WrapClient(f.complete, func() string { return "mock-model" })
	return client, nil, nil
}

func TestRunCancellationWaitsForStageBoundary(t *testing.T) {
	responses := stageResponses(t)
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	provider := &funcProvider{complete: func(callCtx context.Context, _ llm.CompletionRequest) (llm.CompletionResponse, error) {
		calls++
		// The run is canceled while this call is in flight. The call itself
		// must not be interrupted.
		cancel()
		if err := callCtx.Err(); err != nil {
			return llm.CompletionResponse{}, err
		}
		return responses[calls-1], nil
	}}
	p, err := New(config.DefaultConfig(), provider)
	require.NoError(t, err)

	bp, runErr := p.Run(ctx, testInput(), nil)
	require.Error(t, runErr)
	assert.ErrorIs(t, runErr, context.Canceled)
	require.NotNil(t, bp)
	assert.True(t, bp.Partial)
	require.NotNil(t, bp.Requirements, "the in-flight stage ran to completion")
	assert.Nil(t, bp.DatabaseSchema)
	assert.Equal(t, 1, calls, "no new stage starts after cancellation")
}

func TestRunTruncationWarning(t *testing.T) {
	responses := stageResponses(t)
	responses[0].StopReason = llm.StopMaxTokens
	client := agent.NewMockLLMClient(responses, nil)
	p := newTestPipeline(t, client)

	bp, err := p.Run(context.Background(), testInput(), nil)
	require.NoError(t, err)

	found := false
	for _, w := range bp.Warnings {
		if strings.Contains(w, "token budget") {
			found = true
		}
	}
	assert.True(t, found, "expected token budget warning in %v", bp.Warnings)

	// Stages after the truncated one are told their context may be short.
	reqs := client.Requests()
	require.Len(t, reqs, 5)
	assert.Contains(t, reqs[1].Messages[0].Content, "may be incomplete")
}

func TestRunVerifyFailureBeforeEvents(t *testing.T) {
	client := agent.NewMockLLMClient(stageResponses(t), nil)
	client.SetVerifyError(errors.New("invalid api key"))
	p := newTestPipeline(t, client)

	events := make(chan Event, 64)
	bp, err := p.Run(context.Background(), testInput(), events)
	got := collectEvents(events)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider verification failed")
	assert.Nil(t, bp)
	assert.Empty(t, got, "no events before the credential check passes")
	assert.Empty(t, client.Requests(), "no generation spend on a bad credential")
}

func TestRunInvalidInput(t *testing.T) {
	client := agent.NewMockLLMClient(nil, nil)
	p := newTestPipeline(t, client)

	in := testInput()
	in.BusinessIdea = "too short"
	bp, err := p.Run(context.Background(), in, nil)
	require.Error(t, err)
	assert.Nil(t, bp)
}

func TestRunCancellation(t *testing.T) {
	client := agent.NewMockLLMClient(stageResponses(t), nil)
	p := newTestPipeline(t, client)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	bp, err := p.Run(ctx, testInput(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, bp)
	assert.True(t, bp.Partial)
}
