// Package policy defines per-detail-level generation targets and soft
// conformance checks. Targets steer prompts and token budgets; a result
// outside the target band produces a warning, never a failure.
package policy

import (
	"fmt"

	"blueprint/pkg/blueprint"
)

// Targets describes the expected shape of a blueprint at one detail level.
type Targets struct {
	MinTables    int
	MaxTables    int
	MinEndpoints int
	MaxEndpoints int
	// MaxOutputTokens is the per-stage completion token budget.
	MaxOutputTokens int
}

var targetsByLevel = map[blueprint.DetailLevel]Targets{
	blueprint.DetailHighLevel: {
		MinTables:       10,
		MaxTables:       14,
		MinEndpoints:    10,
		MaxEndpoints:    15,
		MaxOutputTokens: 4096,
	},
	blueprint.DetailDetailed: {
		MinTables:       15,
		MaxTables:       20,
		MinEndpoints:    30,
		MaxEndpoints:    50,
		MaxOutputTokens: 8192,
	},
	blueprint.DetailProductionReady: {
		MinTables:       25,
		MaxTables:       32,
		MinEndpoints:    50,
		MaxEndpoints:    100,
		MaxOutputTokens: 16384,
	},
}

// TargetsFor returns the targets for the given detail level. Unknown levels
// get the detailed targets.
func TargetsFor(level blueprint.DetailLevel) Targets {
	if t, ok := targetsByLevel[level]; ok {
		return t
	}
	return targetsByLevel[blueprint.DetailDetailed]
}

// CheckDatabase returns warnings when the table count falls outside the
// target band for the detail level.
func CheckDatabase(level blueprint.DetailLevel, schema *blueprint.DatabaseSchema) []string {
	t := TargetsFor(level)
	n := len(schema.Tables)
	var warnings []string
	if n < t.MinTables {
		warnings = append(warnings, fmt.Sprintf(
			"database schema has %d tables, below the %d-%d target for %s detail; the design may be underspecified",
			n, t.MinTables, t.MaxTables, level))
	} else if n > t.MaxTables {
		warnings = append(warnings, fmt.Sprintf(
			"database schema has %d tables, above the %d-%d target for %s detail; consider consolidating",
			n, t.MinTables, t.MaxTables, level))
	}
	return warnings
}

// CheckAPI returns warnings when the endpoint count falls outside the target
// band for the detail level.
func CheckAPI(level blueprint.DetailLevel, design *blueprint.APIDesign) []string {
	t := TargetsFor(level)
	n := len(design.Endpoints)
	var warnings []string
	if n < t.MinEndpoints {
		warnings = append(warnings, fmt.Sprintf(
			"API design has %d endpoints, below the %d-%d target for %s detail; some operations may be missing",
			n, t.MinEndpoints, t.MaxEndpoints, level))
	} else if n > t.MaxEndpoints {
		warnings = append(warnings, fmt.Sprintf(
			"API design has %d endpoints, above the %d-%d target for %s detail",
			n, t.MinEndpoints, t.MaxEndpoints, level))
	}
	return warnings
}
