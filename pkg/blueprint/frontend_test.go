package blueprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validFrontendDesign() *FrontendDesign {
	return &FrontendDesign{
		Framework:       "React",
		StateManagement: StateContext,
		StylingApproach: "Tailwind CSS",
		Reasoning:       "SPA with a small component tree",
		Components: []FrontendComponent{
			{
				Name:        "AppLayout",
				Type:        ComponentLayout,
				Path:        "layouts/AppLayout.tsx",
				Description: "Shared shell with navigation",
			},
			{
				Name:        "UserListPage",
				Type:        ComponentPage,
				Path:        "pages/UserListPage.tsx",
				Description: "Lists users",
				APICalls:    []string{"/api/v1/users"},
				Dependencies: []ComponentDependency{
					{ComponentName: "UserCard", DependencyType: "contains"},
				},
			},
			{
				Name:        "UserCard",
				Type:        ComponentUI,
				Path:        "components/UserCard.tsx",
				Description: "Renders a single user",
			},
		},
		RoutingStructure: []Route{
			{Path: "/users", Component: "UserListPage"},
		},
	}
}

func TestFrontendDesignValidate(t *testing.T) {
	require.NoError(t, validFrontendDesign().Validate())
}

func TestFrontendDesignValidateDuplicateComponent(t *testing.T) {
	d := validFrontendDesign()
	d.Components = append(d.Components, d.Components[0])
	err := d.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate component")
}

func TestFrontendDesignValidateBadType(t *testing.T) {
	d := validFrontendDesign()
	d.Components[0].Type = "widget"
	assert.Error(t, d.Validate())
}

func TestFrontendDesignValidateBadStateManagement(t *testing.T) {
	d := validFrontendDesign()
	d.StateManagement = "redux"
	assert.Error(t, d.Validate())
}

func TestFrontendDesignValidateMissingPath(t *testing.T) {
	d := validFrontendDesign()
	d.Components[2].Path = ""
	err := d.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UserCard")
}

func TestFrontendDesignCrossCheck(t *testing.T) {
	d := validFrontendDesign()
	warnings := d.CrossCheck(validAPIDesign())
	assert.Empty(t, warnings)
}

func TestFrontendDesignCrossCheckFindings(t *testing.T) {
	d := validFrontendDesign()
	d.RoutingStructure = append(d.RoutingStructure, Route{Path: "/admin", Component: "AdminPage"})
	d.Components[1].Dependencies = append(d.Components[1].Dependencies,
		ComponentDependency{ComponentName: "Ghost", DependencyType: "uses"})
	d.Components[1].APICalls = append(d.Components[1].APICalls, "/api/v1/sessions")

	warnings := d.CrossCheck(validAPIDesign())
	require.Len(t, warnings, 3)
	assert.Contains(t, warnings[0], "AdminPage")
	assert.Contains(t, warnings[1], "Ghost")
	assert.Contains(t, warnings[2], "/api/v1/sessions")
}

func TestFrontendDesignCrossCheckNilAPI(t *testing.T) {
	// Without an API design only component references are checked.
	d := validFrontendDesign()
	d.Components[1].APICalls = []string{"/api/v1/anything"}
	assert.Empty(t, d.CrossCheck(nil))
}
