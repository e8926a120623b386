// Package diagram synthesizes Mermaid diagrams from blueprint structures.
// Diagrams are always derived from validated data, never taken from model
// output, so they cannot drift from the schema they illustrate.
package diagram

import (
	"fmt"
	"regexp"
	"strings"

	"blueprint/pkg/blueprint"
)

var nodeIDPattern = regexp.MustCompile(`[^A-Za-z0-9_]+`)

// nodeID turns an arbitrary name into a safe Mermaid node identifier.
func nodeID(name string) string {
	id := nodeIDPattern.ReplaceAllString(name, "_")
	id = strings.Trim(id, "_")
	if id == "" {
		return "node"
	}
	return id
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}

// Validate reports whether the string looks like a Mermaid diagram.
func Validate(diagram string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(diagram))
	if trimmed == "" {
		return false
	}
	for _, keyword := range []string{"graph", "erdiagram", "sequencediagram", "flowchart", "classdiagram", "statediagram"} {
		if strings.Contains(trimmed, keyword) {
			return true
		}
	}
	return false
}

// EntityRelationship renders an erDiagram from the schema's tables and the
// relationships derived from its foreign keys.
func EntityRelationship(schema *blueprint.DatabaseSchema) string {
	var sb strings.Builder
	sb.WriteString("erDiagram\n")

	for i := range schema.Tables {
		table := &schema.Tables[i]
		fmt.Fprintf(&sb, "    %s {\n", nodeID(table.Name))
		for j := range table.Fields {
			field := &table.Fields[j]
			keys := fieldKeyMarkers(field)
			if keys != "" {
				fmt.Fprintf(&sb, "        %s %s %s\n", string(field.DataType), nodeID(field.Name), keys)
			} else {
				fmt.Fprintf(&sb, "        %s %s\n", string(field.DataType), nodeID(field.Name))
			}
		}
		sb.WriteString("    }\n")
	}

	for _, rel := range schema.DeriveRelationships() {
		fmt.Fprintf(&sb, "    %s %s %s : %q\n",
			nodeID(rel.FromTable), cardinalityArrow(rel.Cardinality), nodeID(rel.ToTable), rel.FromField)
	}
	return sb.String()
}

func fieldKeyMarkers(field *blueprint.DatabaseField) string {
	var keys []string
	if field.HasConstraint(blueprint.ConstraintPrimaryKey) {
		keys = append(keys, "PK")
	}
	if field.HasConstraint(blueprint.ConstraintForeignKey) {
		keys = append(keys, "FK")
	}
	if field.HasConstraint(blueprint.ConstraintUnique) {
		keys = append(keys, "UK")
	}
	return strings.Join(keys, ",")
}

func cardinalityArrow(cardinality string) string {
	switch cardinality {
	case "one-to-one":
		return "||--||"
	case "one-to-many":
		return "||--o{"
	default: // many-to-one
		return "}o--||"
	}
}

// RequestFlow renders a sequence diagram of client, API, and database for
// each resource group in the API design. Endpoints are grouped by their
// first path segment.
func RequestFlow(design *blueprint.APIDesign) string {
	var sb strings.Builder
	sb.WriteString("sequenceDiagram\n")
	sb.WriteString("    participant Client\n")
	sb.WriteString("    participant API\n")
	sb.WriteString("    participant DB as Database\n")

	seen := make(map[string]bool)
	for i := range design.Endpoints {
		ep := &design.Endpoints[i]
		resource := firstSegment(ep.Path)
		if resource == "" || seen[resource] {
			continue
		}
		seen[resource] = true

		fmt.Fprintf(&sb, "    Client->>API: %s %s\n", ep.Method, ep.Path)
		if ep.AuthRequired {
			sb.WriteString("    API->>API: verify credentials\n")
		}
		fmt.Fprintf(&sb, "    API->>DB: %s\n", resource)
		sb.WriteString("    DB-->>API: result\n")
		sb.WriteString("    API-->>Client: response\n")
	}
	return sb.String()
}

func firstSegment(path string) string {
	path = strings.TrimPrefix(path, "/")
	// Skip a version prefix so /api/v1/users groups as users.
	for {
		segment, rest, _ := strings.Cut(path, "/")
		if segment == "api" || (len(segment) > 1 && segment[0] == 'v' && segment[1] >= '0' && segment[1] <= '9') {
			path = rest
			continue
		}
		return segment
	}
}

// ComponentHierarchy renders the frontend component tree. Routes point at
// their page components and dependency edges connect the rest.
func ComponentHierarchy(design *blueprint.FrontendDesign) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	fmt.Fprintf(&sb, "    App[\"%s App\"]\n", design.Framework)

	for i := range design.Components {
		comp := &design.Components[i]
		fmt.Fprintf(&sb, "    %s[\"%s (%s)\"]\n", nodeID(comp.Name), comp.Name, comp.Type)
	}

	routed := make(map[string]bool)
	for _, route := range design.RoutingStructure {
		if design.Component(route.Component) == nil {
			continue
		}
		fmt.Fprintf(&sb, "    App -->|%s| %s\n", route.Path, nodeID(route.Component))
		routed[route.Component] = true
	}

	for i := range design.Components {
		comp := &design.Components[i]
		for _, dep := range comp.Dependencies {
			if design.Component(dep.ComponentName) == nil {
				continue
			}
			fmt.Fprintf(&sb, "    %s --> %s\n", nodeID(comp.Name), nodeID(dep.ComponentName))
		}
	}

	// Orphan pages still hang off the root so nothing floats.
	for i := range design.Components {
		comp := &design.Components[i]
		if comp.Type == blueprint.ComponentPage && !routed[comp.Name] {
			fmt.Fprintf(&sb, "    App --> %s\n", nodeID(comp.Name))
		}
	}
	return sb.String()
}

// DeploymentTopology renders the infrastructure components of the plan.
func DeploymentTopology(plan *blueprint.DeploymentPlan) string {
	var sb strings.Builder
	sb.WriteString("graph TB\n")
	fmt.Fprintf(&sb, "    subgraph \"%s\"\n", strings.ToUpper(plan.Platform))
	fmt.Fprintf(&sb, "        HOST[\"%s\"]\n", plan.HostingService)
	fmt.Fprintf(&sb, "        DBSVC[\"%s\"]\n", plan.DatabaseService)
	for i := range plan.Infrastructure {
		comp := &plan.Infrastructure[i]
		fmt.Fprintf(&sb, "        %s[\"%s: %s\"]\n", nodeID(comp.Name), comp.Name, comp.Service)
	}
	sb.WriteString("    end\n")
	fmt.Fprintf(&sb, "    CICD[\"%s\"]\n", truncate(plan.CICDStrategy, 40))
	fmt.Fprintf(&sb, "    MON[\"%s\"]\n", truncate(plan.MonitoringStrategy, 40))
	sb.WriteString("    CICD -.deploys.-> HOST\n")
	sb.WriteString("    HOST --> DBSVC\n")
	sb.WriteString("    MON -.observes.-> HOST\n")
	sb.WriteString("    MON -.observes.-> DBSVC\n")
	return sb.String()
}

// Architecture renders the combined system view spanning all four layers.
// It requires a complete blueprint; partial runs skip it.
func Architecture(b *blueprint.Blueprint) (string, bool) {
	if b.DatabaseSchema == nil || b.APIDesign == nil || b.FrontendDesign == nil || b.DeploymentPlan == nil {
		return "", false
	}
	var sb strings.Builder
	sb.WriteString("graph TB\n")
	sb.WriteString("    subgraph \"Frontend Layer\"\n")
	fmt.Fprintf(&sb, "        FE[\"%s\"]\n", b.FrontendDesign.Framework)
	fmt.Fprintf(&sb, "        FE_STATE[\"%s\"]\n", b.FrontendDesign.StateManagement)
	sb.WriteString("    end\n\n")
	sb.WriteString("    subgraph \"API Layer\"\n")
	fmt.Fprintf(&sb, "        API[\"%s\"]\n", b.APIDesign.BaseURL)
	fmt.Fprintf(&sb, "        AUTH[\"%s\"]\n", truncate(b.APIDesign.AuthenticationStrategy, 30))
	sb.WriteString("    end\n\n")
	sb.WriteString("    subgraph \"Data Layer\"\n")
	fmt.Fprintf(&sb, "        DB[\"%d tables\"]\n", len(b.DatabaseSchema.Tables))
	sb.WriteString("    end\n\n")
	sb.WriteString("    subgraph \"Infrastructure\"\n")
	fmt.Fprintf(&sb, "        DEPLOY[\"%s\"]\n", strings.ToUpper(b.DeploymentPlan.Platform))
	fmt.Fprintf(&sb, "        MONITOR[\"%s\"]\n", truncate(b.DeploymentPlan.MonitoringStrategy, 30))
	sb.WriteString("    end\n\n")
	sb.WriteString("    FE --> API\n")
	sb.WriteString("    FE_STATE -.manages.-> FE\n")
	sb.WriteString("    API --> AUTH\n")
	sb.WriteString("    API --> DB\n")
	sb.WriteString("    DEPLOY -.hosts.-> API\n")
	sb.WriteString("    DEPLOY -.hosts.-> FE\n")
	sb.WriteString("    DEPLOY -.hosts.-> DB\n")
	sb.WriteString("    MONITOR -.observes.-> API\n")
	sb.WriteString("    MONITOR -.observes.-> DB\n\n")
	sb.WriteString("    style FE fill:#e1f5ff\n")
	sb.WriteString("    style API fill:#fff3e0\n")
	sb.WriteString("    style DB fill:#f3e5f5\n")
	sb.WriteString("    style DEPLOY fill:#e8f5e9\n")
	return sb.String(), true
}
