package schema

import (
	"encoding/json"
	"strings"
	"testing"

	"starforge-server/internal/bodytype"
	"starforge-server/internal/export"
	"starforge-server/internal/scenario"
)

func intPtr(v int) *int { return &v }

func exportedPackage(t *testing.T) export.Package {
	t.Helper()

	snap := scenario.Snapshot{
		Version:  scenario.SnapshotVersion,
		Settings: scenario.DefaultSettings(2),
		Nodes: []scenario.Node{
			{ID: 1, BodyTypeID: "yellow_star", InitialCategory: bodytype.CategoryStar},
			{ID: 2, BodyTypeID: "terran", InitialCategory: bodytype.CategoryPlanet,
				ParentStarID: intPtr(1), Ownership: scenario.PlayerOwned(0)},
		},
		Lanes: []scenario.Lane{
			{ID: 1, NodeA: 1, NodeB: 2, Type: scenario.LaneNormal},
		},
	}
	return export.Transform(snap, bodytype.NewRegistry(), "test_scenario")
}

func asDocument(t *testing.T, v interface{}) map[string]interface{} {
	t.Helper()

	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	return doc
}

func TestValidateExportedDocuments(t *testing.T) {
	t.Parallel()

	pkg := exportedPackage(t)
	validator := NewValidator()

	cases := []struct {
		schemaID string
		document map[string]interface{}
	}{
		{GalaxyChartID, asDocument(t, pkg.GalaxyChart)},
		{ScenarioInfoID, asDocument(t, pkg.ScenarioInfo)},
		{ModMetaDataID, asDocument(t, pkg.ModMetaData)},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.schemaID, func(t *testing.T) {
			t.Parallel()
			if errs := validator.Validate(tc.document, tc.schemaID); len(errs) != 0 {
				t.Errorf("exported document rejected: %v", errs)
			}
		})
	}
}

func TestValidateMissingRequired(t *testing.T) {
	t.Parallel()

	pkg := exportedPackage(t)
	doc := asDocument(t, pkg.GalaxyChart)
	delete(doc, "version")

	errs := NewValidator().Validate(doc, GalaxyChartID)
	if len(errs) == 0 {
		t.Fatal("document missing version passed validation")
	}
	found := false
	for _, err := range errs {
		if strings.Contains(err.Error(), `"version"`) {
			found = true
		}
	}
	if !found {
		t.Errorf("errors do not name the missing property: %v", errs)
	}
}

func TestValidateWrongType(t *testing.T) {
	t.Parallel()

	pkg := exportedPackage(t)
	doc := asDocument(t, pkg.ScenarioInfo)
	doc["team_count"] = "two"

	errs := NewValidator().Validate(doc, ScenarioInfoID)
	if len(errs) == 0 {
		t.Fatal("string team_count passed validation")
	}
}

func TestValidateUnknownSchemaID(t *testing.T) {
	t.Parallel()

	doc := map[string]interface{}{"anything": true}
	if errs := NewValidator().Validate(doc, "unheard_of"); errs != nil {
		t.Errorf("unknown schema id produced errors: %v", errs)
	}
}
