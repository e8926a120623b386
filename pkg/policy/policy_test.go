package policy

import (
	"strings"
	"testing"

	"blueprint/pkg/blueprint"
)

func schemaWithTables(n int) *blueprint.DatabaseSchema {
	s := &blueprint.DatabaseSchema{}
	for i := 0; i < n; i++ {
		s.Tables = append(s.Tables, blueprint.DatabaseTable{Name: "t"})
	}
	return s
}

func designWithEndpoints(n int) *blueprint.APIDesign {
	d := &blueprint.APIDesign{}
	for i := 0; i < n; i++ {
		d.Endpoints = append(d.Endpoints, blueprint.APIEndpoint{})
	}
	return d
}

func TestTargetsFor(t *testing.T) {
	hl := TargetsFor(blueprint.DetailHighLevel)
	if hl.MaxTables != 14 || hl.MaxOutputTokens != 4096 {
		t.Errorf("unexpected high level targets: %+v", hl)
	}

	pr := TargetsFor(blueprint.DetailProductionReady)
	if pr.MinEndpoints != 50 || pr.MaxOutputTokens != 16384 {
		t.Errorf("unexpected production ready targets: %+v", pr)
	}
}

func TestTargetsForUnknownLevelFallsBack(t *testing.T) {
	got := TargetsFor(blueprint.DetailLevel("mystery"))
	want := TargetsFor(blueprint.DetailDetailed)
	if got != want {
		t.Errorf("got %+v, want detailed fallback %+v", got, want)
	}
}

func TestCheckDatabaseInBand(t *testing.T) {
	warnings := CheckDatabase(blueprint.DetailHighLevel, schemaWithTables(12))
	if len(warnings) != 0 {
		t.Errorf("expected no warnings, got %v", warnings)
	}
}

func TestCheckDatabaseBelowTarget(t *testing.T) {
	warnings := CheckDatabase(blueprint.DetailDetailed, schemaWithTables(5))
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", warnings)
	}
	if !strings.Contains(warnings[0], "below the 15-20 target") {
		t.Errorf("unexpected warning: %s", warnings[0])
	}
}

func TestCheckDatabaseAboveTarget(t *testing.T) {
	warnings := CheckDatabase(blueprint.DetailHighLevel, schemaWithTables(20))
	if len(warnings) != 1 || !strings.Contains(warnings[0], "above the 10-14 target") {
		t.Errorf("unexpected warnings: %v", warnings)
	}
}

func TestCheckAPIBands(t *testing.T) {
	if w := CheckAPI(blueprint.DetailDetailed, designWithEndpoints(40)); len(w) != 0 {
		t.Errorf("expected no warnings, got %v", w)
	}
	if w := CheckAPI(blueprint.DetailProductionReady, designWithEndpoints(12)); len(w) != 1 {
		t.Errorf("expected below-target warning, got %v", w)
	}
	if w := CheckAPI(blueprint.DetailHighLevel, designWithEndpoints(40)); len(w) != 1 {
		t.Errorf("expected above-target warning, got %v", w)
	}
}
