package blueprint

import "fmt"

// ComponentType enumerates kinds of frontend components.
type ComponentType string

const (
	ComponentPage    ComponentType = "page"
	ComponentLayout  ComponentType = "layout"
	ComponentFeature ComponentType = "feature"
	ComponentUI      ComponentType = "ui"
	ComponentUtility ComponentType = "utility"
	ComponentHook    ComponentType = "hook"
)

// Valid reports whether the component type is known.
func (c ComponentType) Valid() bool {
	switch c {
	case ComponentPage, ComponentLayout, ComponentFeature, ComponentUI, ComponentUtility, ComponentHook:
		return true
	default:
		return false
	}
}

// StateManagement enumerates state management approaches.
type StateManagement string

const (
	StateLocal       StateManagement = "local"
	StateContext     StateManagement = "context"
	StateGlobalStore StateManagement = "global_store"
	StateServer      StateManagement = "server"
	StateProps       StateManagement = "props"
)

// Valid reports whether the approach is known.
func (s StateManagement) Valid() bool {
	switch s {
	case StateLocal, StateContext, StateGlobalStore, StateServer, StateProps:
		return true
	default:
		return false
	}
}

// ComponentDependency is an edge between two components.
type ComponentDependency struct {
	ComponentName  string `json:"component_name"`
	DependencyType string `json:"dependency_type"` // uses, contains, calls, imports
}

// PropSpec is a named prop or state entry on a component.
type PropSpec struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// FrontendComponent is a single component in the frontend design.
type FrontendComponent struct {
	Name         string                `json:"name"`
	Type         ComponentType         `json:"type"`
	Path         string                `json:"path"` // Relative to src, e.g. "components/Button.tsx"
	Description  string                `json:"description"`
	Props        []PropSpec            `json:"props,omitempty"`
	State        []PropSpec            `json:"state,omitempty"`
	APICalls     []string              `json:"api_calls,omitempty"` // Endpoint paths this component calls
	Dependencies []ComponentDependency `json:"dependencies,omitempty"`
}

// Route maps a URL path to a component.
type Route struct {
	Path      string `json:"path"`
	Component string `json:"component"`
}

// FrontendDesign is the frontend architecture stage payload.
type FrontendDesign struct {
	Framework              string              `json:"framework"`
	Components             []FrontendComponent `json:"components"`
	RoutingStructure       []Route             `json:"routing_structure,omitempty"`
	StateManagement        StateManagement     `json:"state_management"`
	StateManagementLibrary string              `json:"state_management_library,omitempty"`
	StylingApproach        string              `json:"styling_approach"`
	KeyLibraries           []string            `json:"key_libraries,omitempty"`
	Reasoning              string              `json:"reasoning"`
}

// Component returns the named component, or nil.
func (d *FrontendDesign) Component(name string) *FrontendComponent {
	for i := range d.Components {
		if d.Components[i].Name == name {
			return &d.Components[i]
		}
	}
	return nil
}

// Validate checks structural completeness of the design.
func (d *FrontendDesign) Validate() error {
	if d.Framework == "" {
		return fmt.Errorf("frontend: framework must not be empty")
	}
	if len(d.Components) == 0 {
		return fmt.Errorf("frontend: components must not be empty")
	}
	if !d.StateManagement.Valid() {
		return fmt.Errorf("frontend: unknown state_management %q", d.StateManagement)
	}
	if d.StylingApproach == "" {
		return fmt.Errorf("frontend: styling_approach must not be empty")
	}
	if d.Reasoning == "" {
		return fmt.Errorf("frontend: reasoning must not be empty")
	}

	seen := make(map[string]bool, len(d.Components))
	for i := range d.Components {
		comp := &d.Components[i]
		if comp.Name == "" {
			return fmt.Errorf("frontend: component %d has no name", i)
		}
		if seen[comp.Name] {
			return fmt.Errorf("frontend: duplicate component %q", comp.Name)
		}
		seen[comp.Name] = true
		if !comp.Type.Valid() {
			return fmt.Errorf("frontend: component %q has unknown type %q", comp.Name, comp.Type)
		}
		if comp.Path == "" {
			return fmt.Errorf("frontend: component %q has no path", comp.Name)
		}
	}
	return nil
}

// CrossCheck returns soft warnings for component references that do not line
// up with earlier stages: routes to unknown components, dependency edges to
// unknown components, API calls to paths no endpoint serves.
func (d *FrontendDesign) CrossCheck(api *APIDesign) []string {
	var warnings []string

	for i := range d.RoutingStructure {
		route := &d.RoutingStructure[i]
		if d.Component(route.Component) == nil {
			warnings = append(warnings, fmt.Sprintf("route %q maps to unknown component %q", route.Path, route.Component))
		}
	}

	known := make(map[string]bool)
	if api != nil {
		for i := range api.Endpoints {
			known[api.Endpoints[i].Path] = true
		}
	}

	for i := range d.Components {
		comp := &d.Components[i]
		for _, dep := range comp.Dependencies {
			if d.Component(dep.ComponentName) == nil {
				warnings = append(warnings, fmt.Sprintf("component %q depends on unknown component %q", comp.Name, dep.ComponentName))
			}
		}
		if api == nil {
			continue
		}
		for _, call := range comp.APICalls {
			if !known[call] {
				warnings = append(warnings, fmt.Sprintf("component %q calls unknown endpoint %q", comp.Name, call))
			}
		}
	}

	return warnings
}
