package scenario

import (
	"fmt"

	"starforge-server/internal/bodytype"
)

type WarningCategory string

const (
	WarningLanes        WarningCategory = "lanes"
	WarningOwnership    WarningCategory = "ownership"
	WarningPlayers      WarningCategory = "players"
	WarningLimits       WarningCategory = "limits"
	WarningHierarchy    WarningCategory = "hierarchy"
	WarningReachability WarningCategory = "reachability"
	WarningLoot         WarningCategory = "loot"
	WarningArtifacts    WarningCategory = "artifacts"
)

// Warning is one human-readable rule violation. Warnings never block
// editing; they block export until the list is empty.
type Warning struct {
	Category WarningCategory `json:"category"`
	Message  string          `json:"message"`
	NodeID   int             `json:"node_id,omitempty"`
	LaneID   int             `json:"lane_id,omitempty"`
}

// ComputeWarnings checks the full scenario against every editor rule and
// returns the violations grouped by category in a stable order. It is a
// pure function: no mutation, identical output for identical input.
func ComputeWarnings(snap Snapshot, registry *bodytype.Registry, limits Limits) []Warning {
	warnings := []Warning{}

	nodeByID := make(map[int]Node, len(snap.Nodes))
	for _, n := range snap.Nodes {
		nodeByID[n.ID] = n
	}

	warnings = append(warnings, checkLaneIntegrity(snap, nodeByID)...)
	warnings = append(warnings, checkDuplicateLanes(snap)...)
	warnings = append(warnings, checkOwnership(snap, registry)...)
	warnings = append(warnings, checkPlayerCount(snap)...)
	warnings = append(warnings, checkLimits(snap, limits)...)
	warnings = append(warnings, checkHierarchy(snap, nodeByID)...)
	warnings = append(warnings, checkReachability(snap, nodeByID)...)
	warnings = append(warnings, checkLoot(snap)...)
	warnings = append(warnings, checkArtifacts(snap, registry)...)

	return warnings
}

func checkLaneIntegrity(snap Snapshot, nodeByID map[int]Node) []Warning {
	var out []Warning
	for _, l := range snap.Lanes {
		if _, ok := nodeByID[l.NodeA]; !ok {
			out = append(out, Warning{
				Category: WarningLanes,
				Message:  fmt.Sprintf("lane %d references missing node %d", l.ID, l.NodeA),
				LaneID:   l.ID,
			})
		}
		if _, ok := nodeByID[l.NodeB]; !ok {
			out = append(out, Warning{
				Category: WarningLanes,
				Message:  fmt.Sprintf("lane %d references missing node %d", l.ID, l.NodeB),
				LaneID:   l.ID,
			})
		}
		if l.NodeA == l.NodeB {
			out = append(out, Warning{
				Category: WarningLanes,
				Message:  fmt.Sprintf("lane %d connects node %d to itself", l.ID, l.NodeA),
				LaneID:   l.ID,
			})
		}
	}
	return out
}

func checkDuplicateLanes(snap Snapshot) []Warning {
	var out []Warning
	seen := make(map[[2]int]bool, len(snap.Lanes))
	for _, l := range snap.Lanes {
		key := [2]int{l.NodeA, l.NodeB}
		if key[0] > key[1] {
			key[0], key[1] = key[1], key[0]
		}
		if seen[key] {
			out = append(out, Warning{
				Category: WarningLanes,
				Message:  fmt.Sprintf("lane %d duplicates an existing link between %d and %d", l.ID, l.NodeA, l.NodeB),
				LaneID:   l.ID,
			})
			continue
		}
		seen[key] = true
	}
	return out
}

func checkOwnership(snap Snapshot, registry *bodytype.Registry) []Warning {
	var out []Warning
	owners := make(map[int]int) // player index -> node id
	for _, n := range snap.Nodes {
		if !n.Ownership.IsPlayer() {
			continue
		}
		if n.IsStar() {
			out = append(out, Warning{
				Category: WarningOwnership,
				Message:  fmt.Sprintf("star %d cannot be player-owned", n.ID),
				NodeID:   n.ID,
			})
		}
		if n.Ownership.PlayerIndex < 0 || n.Ownership.PlayerIndex >= snap.Settings.PlayerCount {
			out = append(out, Warning{
				Category: WarningOwnership,
				Message:  fmt.Sprintf("node %d has player index %d outside [0, %d)", n.ID, n.Ownership.PlayerIndex, snap.Settings.PlayerCount),
				NodeID:   n.ID,
			})
		}
		if !registry.PlayerOwnable(n.BodyTypeID) {
			out = append(out, Warning{
				Category: WarningOwnership,
				Message:  fmt.Sprintf("node %d: body type %q cannot be player-owned", n.ID, n.BodyTypeID),
				NodeID:   n.ID,
			})
		}
		if firstID, taken := owners[n.Ownership.PlayerIndex]; taken {
			out = append(out, Warning{
				Category: WarningOwnership,
				Message:  fmt.Sprintf("player %d owns both node %d and node %d", n.Ownership.PlayerIndex, firstID, n.ID),
				NodeID:   n.ID,
			})
		} else {
			owners[n.Ownership.PlayerIndex] = n.ID
		}
	}
	return out
}

func checkPlayerCount(snap Snapshot) []Warning {
	if snap.Settings.PlayerCount < MinPlayerCount {
		return []Warning{{
			Category: WarningPlayers,
			Message:  fmt.Sprintf("player count %d is below the minimum of %d", snap.Settings.PlayerCount, MinPlayerCount),
		}}
	}
	return nil
}

func checkLimits(snap Snapshot, limits Limits) []Warning {
	var out []Warning

	stars := 0
	bodiesPerStar := make(map[int]int)
	starOrder := []int{}
	for _, n := range snap.Nodes {
		if n.IsStar() {
			stars++
			starOrder = append(starOrder, n.ID)
			continue
		}
		if n.ParentStarID != nil {
			bodiesPerStar[*n.ParentStarID]++
		}
	}

	if stars > limits.MaxStars {
		out = append(out, Warning{
			Category: WarningLimits,
			Message:  fmt.Sprintf("scenario has %d stars, the maximum is %d", stars, limits.MaxStars),
		})
	}
	for _, starID := range starOrder {
		if count := bodiesPerStar[starID]; count > limits.MaxBodiesPerStar {
			out = append(out, Warning{
				Category: WarningLimits,
				Message:  fmt.Sprintf("star %d has %d bodies, the maximum is %d", starID, count, limits.MaxBodiesPerStar),
				NodeID:   starID,
			})
		}
	}
	return out
}

func checkHierarchy(snap Snapshot, nodeByID map[int]Node) []Warning {
	var out []Warning
	for _, n := range snap.Nodes {
		if n.IsStar() {
			continue
		}
		if n.ParentStarID == nil {
			out = append(out, Warning{
				Category: WarningHierarchy,
				Message:  fmt.Sprintf("node %d has no parent star", n.ID),
				NodeID:   n.ID,
			})
			continue
		}
		parent, ok := nodeByID[*n.ParentStarID]
		if !ok {
			out = append(out, Warning{
				Category: WarningHierarchy,
				Message:  fmt.Sprintf("node %d: parent star %d not found", n.ID, *n.ParentStarID),
				NodeID:   n.ID,
			})
			continue
		}
		if !parent.IsStar() {
			out = append(out, Warning{
				Category: WarningHierarchy,
				Message:  fmt.Sprintf("node %d: parent %d is not a star", n.ID, parent.ID),
				NodeID:   n.ID,
			})
		}
	}
	return out
}

// checkReachability verifies each body can reach its declared parent star
// over the lane graph alone; the parent-star tree is ignored when
// traversing. An entirely disconnected map, no lanes and no parent
// claims, makes no lane-topology statement and is skipped.
func checkReachability(snap Snapshot, nodeByID map[int]Node) []Warning {
	hasStar := false
	hasParentClaim := false
	for _, n := range snap.Nodes {
		if n.IsStar() {
			hasStar = true
		} else if n.ParentStarID != nil {
			hasParentClaim = true
		}
	}
	if !hasStar {
		return nil
	}
	if len(snap.Lanes) == 0 && !hasParentClaim {
		return nil
	}

	adjacency := make(map[int][]int)
	for _, l := range snap.Lanes {
		if _, ok := nodeByID[l.NodeA]; !ok {
			continue
		}
		if _, ok := nodeByID[l.NodeB]; !ok {
			continue
		}
		adjacency[l.NodeA] = append(adjacency[l.NodeA], l.NodeB)
		adjacency[l.NodeB] = append(adjacency[l.NodeB], l.NodeA)
	}

	// BFS per star; reach sets are cached so several bodies under the
	// same star cost one traversal.
	reachable := make(map[int]map[int]bool)
	reachFrom := func(starID int) map[int]bool {
		if seen, ok := reachable[starID]; ok {
			return seen
		}
		seen := map[int]bool{starID: true}
		queue := []int{starID}
		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]
			for _, next := range adjacency[current] {
				if !seen[next] {
					seen[next] = true
					queue = append(queue, next)
				}
			}
		}
		reachable[starID] = seen
		return seen
	}

	var out []Warning
	for _, n := range snap.Nodes {
		if n.IsStar() || n.ParentStarID == nil {
			continue
		}
		parent, ok := nodeByID[*n.ParentStarID]
		if !ok || !parent.IsStar() {
			continue
		}
		if !reachFrom(parent.ID)[n.ID] {
			out = append(out, Warning{
				Category: WarningReachability,
				Message:  fmt.Sprintf("node %d cannot reach its parent star %d over lanes", n.ID, parent.ID),
				NodeID:   n.ID,
			})
		}
	}
	return out
}

func checkLoot(snap Snapshot) []Warning {
	var out []Warning
	for _, n := range snap.Nodes {
		if n.IsStar() {
			continue
		}
		if n.Ownership.IsPlayer() {
			hasLoot := (n.ChanceOfLoot != nil && *n.ChanceOfLoot != 0) || (n.LootLevel != nil && *n.LootLevel != 0)
			if hasLoot {
				out = append(out, Warning{
					Category: WarningLoot,
					Message:  fmt.Sprintf("player-owned node %d must have zero loot", n.ID),
					NodeID:   n.ID,
				})
			}
			if n.ChanceOfLoot == nil || n.LootLevel == nil {
				out = append(out, Warning{
					Category: WarningLoot,
					Message:  fmt.Sprintf("player-owned node %d must have loot explicitly zeroed", n.ID),
					NodeID:   n.ID,
				})
			}
			continue
		}
		if n.ChanceOfLoot == nil {
			out = append(out, Warning{
				Category: WarningLoot,
				Message:  fmt.Sprintf("node %d has no loot chance set", n.ID),
				NodeID:   n.ID,
			})
			continue
		}
		if *n.ChanceOfLoot != 0 && n.LootLevel == nil {
			out = append(out, Warning{
				Category: WarningLoot,
				Message:  fmt.Sprintf("node %d has a loot chance but no loot level", n.ID),
				NodeID:   n.ID,
			})
		}
	}
	return out
}

func checkArtifacts(snap Snapshot, registry *bodytype.Registry) []Warning {
	var out []Warning
	for _, n := range snap.Nodes {
		if !n.HasArtifact {
			continue
		}
		if n.IsStar() {
			out = append(out, Warning{
				Category: WarningArtifacts,
				Message:  fmt.Sprintf("star %d cannot carry an artifact", n.ID),
				NodeID:   n.ID,
			})
			continue
		}
		if n.Ownership.IsPlayer() || n.Ownership.IsNPC() {
			out = append(out, Warning{
				Category: WarningArtifacts,
				Message:  fmt.Sprintf("owned node %d cannot carry an artifact", n.ID),
				NodeID:   n.ID,
			})
		}
		if !registry.ArtifactEligible(n.BodyTypeID) {
			out = append(out, Warning{
				Category: WarningArtifacts,
				Message:  fmt.Sprintf("node %d: body type %q is not artifact eligible", n.ID, n.BodyTypeID),
				NodeID:   n.ID,
			})
		}
		if !bodytype.ValidArtifactName(n.ArtifactName) {
			out = append(out, Warning{
				Category: WarningArtifacts,
				Message:  fmt.Sprintf("node %d has an unknown artifact %q", n.ID, n.ArtifactName),
				NodeID:   n.ID,
			})
		}
	}
	return out
}
