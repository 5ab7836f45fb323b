package export

import (
	"fmt"

	"starforge-server/internal/bodytype"
	"starforge-server/internal/scenario"
)

// ChartOwnership is the cleaned ownership record written to the galaxy
// chart. Only these fields survive export; anything else carried on the
// in-memory node is dropped.
type ChartOwnership struct {
	PlayerIndex               *int   `json:"player_index,omitempty"`
	NPCFillingType            string `json:"npc_filling_type,omitempty"`
	NPCFillingName            string `json:"npc_filling_name,omitempty"`
	AreSecondaryFixturesOwned bool   `json:"are_secondary_fixtures_owned,omitempty"`
}

// ChartNode is a galaxy chart entry. Stars are roots and carry their
// orbiting bodies in ChildNodes; bodies never nest further.
type ChartNode struct {
	ID           int             `json:"id"`
	FillingName  string          `json:"filling_name"`
	Position     []float64       `json:"position"`
	Rotation     float64         `json:"rotation,omitempty"`
	ChanceOfLoot *float64        `json:"chance_of_loot,omitempty"`
	LootLevel    *int            `json:"loot_level,omitempty"`
	HasArtifact  bool            `json:"has_artifact,omitempty"`
	ArtifactName string          `json:"artifact_name,omitempty"`
	Ownership    *ChartOwnership `json:"ownership,omitempty"`
	ChildNodes   []ChartNode     `json:"child_nodes,omitempty"`
}

// ChartLane carries the lane type only for wormhole lanes; normal and
// star lanes round-trip without it.
type ChartLane struct {
	ID    int    `json:"id"`
	NodeA int    `json:"node_a"`
	NodeB int    `json:"node_b"`
	Type  string `json:"type,omitempty"`
}

type GalaxyChart struct {
	Version    int         `json:"version"`
	Skybox     string      `json:"skybox"`
	RootNodes  []ChartNode `json:"root_nodes"`
	PhaseLanes []ChartLane `json:"phase_lanes"`
}

// ScenarioInfo duplicates each count into an equal min/max pair; the
// editor produces a fixed map rather than a randomized range.
type ScenarioInfo struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	PlayerCountMin int    `json:"player_count_min"`
	PlayerCountMax int    `json:"player_count_max"`
	TeamCount      int    `json:"team_count"`
	StarCountMin   int    `json:"star_count_min"`
	StarCountMax   int    `json:"star_count_max"`
	PlanetCountMin int    `json:"planet_count_min"`
	PlanetCountMax int    `json:"planet_count_max"`
	HasWormholes   bool   `json:"has_wormholes"`
	HasNPCs        bool   `json:"has_npcs"`
}

type Uniforms struct {
	DLCMultiplayerScenarios []string `json:"dlc_multiplayer_scenarios"`
	DLCScenarios            []string `json:"dlc_scenarios"`
	FakeServerScenarios     []string `json:"fake_server_scenarios"`
	Scenarios               []string `json:"scenarios"`
	Version                 int      `json:"version"`
}

type Logos struct {
	Large string `json:"large"`
	Small string `json:"small"`
}

type ModMetaData struct {
	CompatibilityVersion int    `json:"compatibility_version"`
	DisplayVersion       string `json:"display_version"`
	DisplayName          string `json:"display_name"`
	ShortDescription     string `json:"short_description"`
	Author               string `json:"author,omitempty"`
	Logos                Logos  `json:"logos"`
}

// Package is the full set of documents going into the archive, keyed by
// the sanitized scenario name.
type Package struct {
	Name          string
	GalaxyChart   GalaxyChart
	ScenarioInfo  ScenarioInfo
	Uniforms      Uniforms
	ModMetaData   ModMetaData
	LocalizedText map[string]string
	HasLogo       bool
	LogoPNG       []byte
}

// Problems collects every reason the snapshot cannot be exported. A nil
// result means export may proceed. All problems are reported at once so
// the user can fix everything in one pass.
func Problems(snap scenario.Snapshot, registry *bodytype.Registry, warnings []scenario.Warning) []string {
	var problems []string

	for _, n := range snap.Nodes {
		if _, ok := registry.Lookup(n.BodyTypeID); ok {
			continue
		}
		if bodytype.LooksLikeGameID(n.BodyTypeID) {
			continue
		}
		problems = append(problems, fmt.Sprintf("node %d: body type %q is not a known game identifier", n.ID, n.BodyTypeID))
	}

	for _, w := range warnings {
		problems = append(problems, fmt.Sprintf("unresolved warning (%s): %s", w.Category, w.Message))
	}

	if snap.Settings.DisplayName == "" {
		problems = append(problems, "scenario display name must not be blank")
	}
	if snap.Settings.TeamCount == nil {
		problems = append(problems, "team count has not been chosen")
	}

	return problems
}

// homePlanets maps each player index to its first-encountered non-star
// node, in insertion order. First wins; a second node with the same
// index never replaces the first.
func homePlanets(nodes []scenario.Node) map[int]int {
	homes := make(map[int]int)
	for _, n := range nodes {
		if n.IsStar() || !n.Ownership.IsPlayer() {
			continue
		}
		if _, taken := homes[n.Ownership.PlayerIndex]; !taken {
			homes[n.Ownership.PlayerIndex] = n.ID
		}
	}
	return homes
}

// Transform converts the flat snapshot into the nested game-native
// package. Callers must gate on Problems first; Transform itself never
// refuses, an unmapped body type falls back to its raw identifier.
func Transform(snap scenario.Snapshot, registry *bodytype.Registry, name string) Package {
	homes := homePlanets(snap.Nodes)

	homeByNode := make(map[int]bool, len(homes))
	for _, nodeID := range homes {
		homeByNode[nodeID] = true
	}

	var roots []ChartNode
	childrenOf := make(map[int][]ChartNode)
	orderedStars := make([]int, 0)

	hasWormholes := false
	hasNPCs := false
	planetCount := 0

	for _, n := range snap.Nodes {
		chartNode := transformNode(n, registry, homeByNode[n.ID])

		if chartNode.FillingName == bodytype.WormholeFilling {
			hasWormholes = true
		}
		if chartNode.Ownership != nil && chartNode.Ownership.NPCFillingName != "" {
			hasNPCs = true
		}

		if n.IsStar() {
			orderedStars = append(orderedStars, n.ID)
			roots = append(roots, chartNode)
			continue
		}

		planetCount++
		if n.ParentStarID != nil {
			childrenOf[*n.ParentStarID] = append(childrenOf[*n.ParentStarID], chartNode)
		}
	}

	for i, starID := range orderedStars {
		roots[i].ChildNodes = childrenOf[starID]
	}

	var lanes []ChartLane
	for _, l := range snap.Lanes {
		lane := ChartLane{ID: l.ID, NodeA: l.NodeA, NodeB: l.NodeB}
		if l.Type == scenario.LaneWormhole {
			lane.Type = string(scenario.LaneWormhole)
			hasWormholes = true
		}
		lanes = append(lanes, lane)
	}

	teamCount := 0
	if snap.Settings.TeamCount != nil {
		teamCount = *snap.Settings.TeamCount
	}

	description := snap.Settings.ShortDescription

	return Package{
		Name: name,
		GalaxyChart: GalaxyChart{
			Version:    snap.Version,
			Skybox:     snap.Settings.Skybox,
			RootNodes:  roots,
			PhaseLanes: lanes,
		},
		ScenarioInfo: ScenarioInfo{
			Name:           name,
			Description:    description,
			PlayerCountMin: snap.Settings.PlayerCount,
			PlayerCountMax: snap.Settings.PlayerCount,
			TeamCount:      teamCount,
			StarCountMin:   len(orderedStars),
			StarCountMax:   len(orderedStars),
			PlanetCountMin: planetCount,
			PlanetCountMax: planetCount,
			HasWormholes:   hasWormholes,
			HasNPCs:        hasNPCs,
		},
		Uniforms: Uniforms{
			DLCMultiplayerScenarios: []string{},
			DLCScenarios:            []string{},
			FakeServerScenarios:     []string{},
			Scenarios:               []string{name},
			Version:                 1,
		},
		ModMetaData: ModMetaData{
			CompatibilityVersion: snap.Settings.CompatibilityVersion,
			DisplayVersion:       snap.Settings.DisplayVersion,
			DisplayName:          snap.Settings.DisplayName,
			ShortDescription:     description,
			Author:               snap.Settings.Author,
			Logos:                Logos{},
		},
		LocalizedText: map[string]string{
			name:           snap.Settings.DisplayName,
			name + "_desc": description,
		},
		HasLogo: len(snap.Settings.LogoPNG) > 0,
		LogoPNG: snap.Settings.LogoPNG,
	}
}

func transformNode(n scenario.Node, registry *bodytype.Registry, isHome bool) ChartNode {
	ownership := chartOwnership(n)

	// Home planets and every NPC-owned node share the placeholder home
	// filling. The game derives the actual visual from the ownership
	// record once ownership is present, so the filling string is inert.
	filling := registry.FillingName(n.BodyTypeID)
	if isHome || (ownership != nil && ownership.NPCFillingName != "") {
		filling = bodytype.PlayerHomeFilling
	}

	return ChartNode{
		ID:           n.ID,
		FillingName:  filling,
		Position:     []float64{n.Position.X, n.Position.Y},
		Rotation:     n.Rotation,
		ChanceOfLoot: n.ChanceOfLoot,
		LootLevel:    n.LootLevel,
		HasArtifact:  n.HasArtifact,
		ArtifactName: n.ArtifactName,
		Ownership:    ownership,
	}
}

func chartOwnership(n scenario.Node) *ChartOwnership {
	switch {
	case n.Ownership.IsPlayer():
		index := n.Ownership.PlayerIndex
		return &ChartOwnership{PlayerIndex: &index}
	case n.Ownership.IsNPC():
		return &ChartOwnership{
			NPCFillingType: n.Ownership.FactionType,
			NPCFillingName: n.Ownership.FactionName,
		}
	case n.BodyTypeID == bodytype.PirateBaseID:
		// Unowned pirate bases default to pirate NPC ownership at export.
		return &ChartOwnership{NPCFillingName: bodytype.DefaultPirateFaction}
	default:
		return nil
	}
}
