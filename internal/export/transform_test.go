package export

import (
	"encoding/json"
	"strings"
	"testing"

	"starforge-server/internal/bodytype"
	"starforge-server/internal/scenario"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func exportSettings() scenario.Settings {
	teams := 0
	s := scenario.DefaultSettings(2)
	s.Name = "Test Map"
	s.DisplayName = "Test Map"
	s.TeamCount = &teams
	return s
}

func starNode(id int) scenario.Node {
	return scenario.Node{ID: id, BodyTypeID: "yellow_star", InitialCategory: bodytype.CategoryStar}
}

func bodyNode(id, parent int, bodyTypeID string) scenario.Node {
	return scenario.Node{
		ID:              id,
		BodyTypeID:      bodyTypeID,
		InitialCategory: bodytype.CategoryPlanet,
		ParentStarID:    intPtr(parent),
		ChanceOfLoot:    floatPtr(0),
		LootLevel:       intPtr(0),
	}
}

func baseSnapshot(nodes []scenario.Node, lanes []scenario.Lane) scenario.Snapshot {
	return scenario.Snapshot{
		Version:  scenario.SnapshotVersion,
		Settings: exportSettings(),
		Nodes:    nodes,
		Lanes:    lanes,
	}
}

func TestProblems(t *testing.T) {
	t.Parallel()

	registry := bodytype.NewRegistry()

	t.Run("clean snapshot has none", func(t *testing.T) {
		snap := baseSnapshot([]scenario.Node{starNode(1)}, nil)
		if got := Problems(snap, registry, nil); len(got) != 0 {
			t.Errorf("problems = %v, want none", got)
		}
	})

	t.Run("all problems reported at once", func(t *testing.T) {
		snap := baseSnapshot([]scenario.Node{
			{ID: 1, BodyTypeID: "???bad", InitialCategory: bodytype.CategoryPlanet},
		}, nil)
		snap.Settings.DisplayName = ""
		snap.Settings.TeamCount = nil
		warnings := []scenario.Warning{{Category: scenario.WarningLoot, Message: "node 1 has no loot chance set", NodeID: 1}}

		got := Problems(snap, registry, warnings)
		if len(got) != 4 {
			t.Fatalf("problems = %d, want 4: %v", len(got), got)
		}
	})

	t.Run("uncurated but plausible game id passes", func(t *testing.T) {
		snap := baseSnapshot([]scenario.Node{
			{ID: 1, BodyTypeID: "modded_planet_x7", InitialCategory: bodytype.CategoryPlanet},
		}, nil)
		if got := Problems(snap, registry, nil); len(got) != 0 {
			t.Errorf("problems = %v, want none", got)
		}
	})
}

func TestTransformHierarchy(t *testing.T) {
	t.Parallel()

	registry := bodytype.NewRegistry()
	snap := baseSnapshot([]scenario.Node{
		starNode(1),
		starNode(2),
		bodyNode(3, 1, "terran"),
		bodyNode(4, 2, "desert"),
		bodyNode(5, 1, "barren"),
	}, []scenario.Lane{
		{ID: 1, NodeA: 1, NodeB: 2, Type: scenario.LaneStar},
		{ID: 2, NodeA: 1, NodeB: 3, Type: scenario.LaneNormal},
	})

	pkg := Transform(snap, registry, "Test_Map")

	if len(pkg.GalaxyChart.RootNodes) != 2 {
		t.Fatalf("root nodes = %d, want 2", len(pkg.GalaxyChart.RootNodes))
	}
	if got := len(pkg.GalaxyChart.RootNodes[0].ChildNodes); got != 2 {
		t.Errorf("first star children = %d, want 2", got)
	}
	if got := len(pkg.GalaxyChart.RootNodes[1].ChildNodes); got != 1 {
		t.Errorf("second star children = %d, want 1", got)
	}

	if got := pkg.GalaxyChart.RootNodes[0].FillingName; got != "star_yellow" {
		t.Errorf("star filling = %q, want star_yellow", got)
	}

	info := pkg.ScenarioInfo
	if info.StarCountMin != 2 || info.StarCountMax != 2 {
		t.Errorf("star counts = %d/%d, want 2/2", info.StarCountMin, info.StarCountMax)
	}
	if info.PlanetCountMin != 3 || info.PlanetCountMax != 3 {
		t.Errorf("planet counts = %d/%d, want 3/3", info.PlanetCountMin, info.PlanetCountMax)
	}

	if got := pkg.Uniforms.Scenarios; len(got) != 1 || got[0] != "Test_Map" {
		t.Errorf("uniforms scenarios = %v, want [Test_Map]", got)
	}
	if pkg.Uniforms.DLCScenarios == nil || pkg.Uniforms.FakeServerScenarios == nil {
		t.Error("unused uniform categories must encode as empty arrays, not null")
	}
}

func TestTransformHomePlanets(t *testing.T) {
	t.Parallel()

	registry := bodytype.NewRegistry()

	first := bodyNode(2, 1, "terran")
	first.Ownership = scenario.PlayerOwned(0)
	second := bodyNode(3, 1, "desert")
	second.Ownership = scenario.PlayerOwned(0)

	snap := baseSnapshot([]scenario.Node{starNode(1), first, second}, nil)
	pkg := Transform(snap, registry, "map")

	children := pkg.GalaxyChart.RootNodes[0].ChildNodes
	if got := children[0].FillingName; got != bodytype.PlayerHomeFilling {
		t.Errorf("first-encountered owned node filling = %q, want %q", got, bodytype.PlayerHomeFilling)
	}
	// First wins: the second node with the same index keeps its own filling.
	if got := children[1].FillingName; got != "planet_desert" {
		t.Errorf("second owned node filling = %q, want planet_desert", got)
	}

	if children[0].Ownership == nil || children[0].Ownership.PlayerIndex == nil || *children[0].Ownership.PlayerIndex != 0 {
		t.Errorf("home ownership record = %+v, want player index 0", children[0].Ownership)
	}
}

func TestTransformNPCFillingOverride(t *testing.T) {
	t.Parallel()

	registry := bodytype.NewRegistry()

	npc := bodyNode(2, 1, "gas_giant")
	npc.Ownership = scenario.NPCOwned("militia", "rim_guard")

	snap := baseSnapshot([]scenario.Node{starNode(1), npc}, nil)
	pkg := Transform(snap, registry, "map")

	child := pkg.GalaxyChart.RootNodes[0].ChildNodes[0]
	if child.FillingName != bodytype.PlayerHomeFilling {
		t.Errorf("NPC filling = %q, want the home placeholder %q", child.FillingName, bodytype.PlayerHomeFilling)
	}
	if child.Ownership == nil || child.Ownership.NPCFillingName != "rim_guard" || child.Ownership.NPCFillingType != "militia" {
		t.Errorf("NPC ownership record = %+v", child.Ownership)
	}
	if !pkg.ScenarioInfo.HasNPCs {
		t.Error("has_npcs not derived from NPC ownership")
	}
}

func TestTransformPirateBaseDefault(t *testing.T) {
	t.Parallel()

	registry := bodytype.NewRegistry()

	base := scenario.Node{
		ID: 2, BodyTypeID: bodytype.PirateBaseID, InitialCategory: bodytype.CategorySpecial,
		ParentStarID: intPtr(1), ChanceOfLoot: floatPtr(0), LootLevel: intPtr(0),
	}
	snap := baseSnapshot([]scenario.Node{starNode(1), base}, nil)
	pkg := Transform(snap, registry, "map")

	child := pkg.GalaxyChart.RootNodes[0].ChildNodes[0]
	if child.Ownership == nil || child.Ownership.NPCFillingName != bodytype.DefaultPirateFaction {
		t.Errorf("pirate base ownership = %+v, want implicit %q NPC", child.Ownership, bodytype.DefaultPirateFaction)
	}
	if !pkg.ScenarioInfo.HasNPCs {
		t.Error("implicit pirate ownership must set has_npcs")
	}
}

func TestTransformLaneTypes(t *testing.T) {
	t.Parallel()

	registry := bodytype.NewRegistry()
	snap := baseSnapshot([]scenario.Node{starNode(1), starNode(2)}, []scenario.Lane{
		{ID: 1, NodeA: 1, NodeB: 2, Type: scenario.LaneNormal},
		{ID: 2, NodeA: 2, NodeB: 1, Type: scenario.LaneWormhole},
	})

	pkg := Transform(snap, registry, "map")

	raw, err := json.Marshal(pkg.GalaxyChart.PhaseLanes)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if strings.Contains(string(raw), `"type":"normal"`) {
		t.Error("normal lane type must be omitted")
	}
	if !strings.Contains(string(raw), `"type":"wormhole"`) {
		t.Error("wormhole lane type must be emitted")
	}
	if !pkg.ScenarioInfo.HasWormholes {
		t.Error("wormhole lane must set has_wormholes")
	}
}

func TestTransformWormholeFillingFlag(t *testing.T) {
	t.Parallel()

	registry := bodytype.NewRegistry()
	worm := scenario.Node{
		ID: 2, BodyTypeID: "wormhole", InitialCategory: bodytype.CategorySpecial,
		ParentStarID: intPtr(1), ChanceOfLoot: floatPtr(0), LootLevel: intPtr(0),
	}
	snap := baseSnapshot([]scenario.Node{starNode(1), worm}, nil)

	pkg := Transform(snap, registry, "map")
	if !pkg.ScenarioInfo.HasWormholes {
		t.Error("wormhole fixture must set has_wormholes without any wormhole lane")
	}
}

// TestTransformDeterministic requires byte-identical output across runs
// on unchanged input.
func TestTransformDeterministic(t *testing.T) {
	t.Parallel()

	registry := bodytype.NewRegistry()

	owned := bodyNode(3, 1, "terran")
	owned.Ownership = scenario.PlayerOwned(1)
	other := bodyNode(4, 2, "oceanic")
	other.Ownership = scenario.PlayerOwned(0)

	snap := baseSnapshot([]scenario.Node{starNode(1), starNode(2), owned, other}, []scenario.Lane{
		{ID: 1, NodeA: 1, NodeB: 2, Type: scenario.LaneStar},
	})

	first, err := json.MarshalIndent(Transform(snap, registry, "map"), "", "  ")
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	second, err := json.MarshalIndent(Transform(snap, registry, "map"), "", "  ")
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	if string(first) != string(second) {
		t.Error("transform output is not deterministic")
	}
}
