package scenario

import (
	"fmt"
	"math/rand"

	"starforge-server/internal/bodytype"
)

// Limits are the hard caps enforced by mutation operations.
type Limits struct {
	MaxStars         int
	MaxBodiesPerStar int
	CanvasWidth      float64
	CanvasHeight     float64
}

// Graph holds the authoritative node and lane collections for one
// scenario. Every mutation either fully applies or is rejected before any
// field changes; no partial state is observable. Id allocation is owned
// by the graph instance so independent scenarios never share counters.
type Graph struct {
	registry *bodytype.Registry
	limits   Limits

	nodes     []*Node
	nodeIndex map[int]*Node
	lanes     []*Lane
	laneIndex map[int]*Lane

	nextNodeID int
	nextLaneID int
}

// NewGraph creates an empty graph.
func NewGraph(registry *bodytype.Registry, limits Limits) *Graph {
	return &Graph{
		registry:   registry,
		limits:     limits,
		nodeIndex:  make(map[int]*Node),
		laneIndex:  make(map[int]*Lane),
		nextNodeID: 1,
		nextLaneID: 1,
	}
}

// FromSnapshot rebuilds a graph from a persisted or shared snapshot. The
// id allocators resume past the highest id present so later additions
// never collide. Structural problems in an imported snapshot surface as
// warnings, not load failures.
func FromSnapshot(registry *bodytype.Registry, limits Limits, snap Snapshot) *Graph {
	g := NewGraph(registry, limits)

	for _, n := range snap.Nodes {
		node := n
		g.nodes = append(g.nodes, &node)
		g.nodeIndex[node.ID] = &node
		if node.ID >= g.nextNodeID {
			g.nextNodeID = node.ID + 1
		}
	}

	for _, l := range snap.Lanes {
		lane := l
		if lane.Type == "" {
			lane.Type = LaneNormal
		}
		g.lanes = append(g.lanes, &lane)
		g.laneIndex[lane.ID] = &lane
		if lane.ID >= g.nextLaneID {
			g.nextLaneID = lane.ID + 1
		}
	}

	return g
}

// Snapshot copies the graph into its serializable form.
func (g *Graph) Snapshot(settings Settings) Snapshot {
	return Snapshot{
		Version:  SnapshotVersion,
		Settings: settings,
		Nodes:    g.Nodes(),
		Lanes:    g.Lanes(),
	}
}

// Nodes returns the nodes in insertion order as value copies.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, *n)
	}
	return out
}

// Lanes returns the lanes in insertion order as value copies.
func (g *Graph) Lanes() []Lane {
	out := make([]Lane, 0, len(g.lanes))
	for _, l := range g.lanes {
		out = append(out, *l)
	}
	return out
}

// Node returns a value copy of the node with the given id.
func (g *Graph) Node(id int) (Node, error) {
	n, ok := g.nodeIndex[id]
	if !ok {
		return Node{}, fmt.Errorf("%w: node %d", ErrNodeNotFound, id)
	}
	return *n, nil
}

// StarCount returns the number of star nodes.
func (g *Graph) StarCount() int {
	count := 0
	for _, n := range g.nodes {
		if n.IsStar() {
			count++
		}
	}
	return count
}

// BodiesUnder returns the number of non-star nodes parented to the star.
func (g *Graph) BodiesUnder(starID int) int {
	count := 0
	for _, n := range g.nodes {
		if !n.IsStar() && n.ParentStarID != nil && *n.ParentStarID == starID {
			count++
		}
	}
	return count
}

// AddNode places a new node of the given body type. Non-star bodies
// require an existing parent star. The node starts at a random position
// inside the canvas bounds.
func (g *Graph) AddNode(bodyTypeID string, parentStarID *int) (Node, error) {
	desc, ok := g.registry.Lookup(bodyTypeID)
	if !ok {
		return Node{}, fmt.Errorf("%w: %q", ErrUnknownBodyType, bodyTypeID)
	}

	node := Node{
		BodyTypeID:      bodyTypeID,
		Ownership:       Unowned(),
		InitialCategory: desc.Category,
	}

	if desc.Category.IsStar() {
		if g.StarCount() >= g.limits.MaxStars {
			return Node{}, fmt.Errorf("%w: scenario already has %d stars", ErrStarLimit, g.limits.MaxStars)
		}
	} else {
		if parentStarID == nil {
			return Node{}, fmt.Errorf("%w: a %s needs a parent star", ErrMissingParent, desc.Category)
		}
		parent, ok := g.nodeIndex[*parentStarID]
		if !ok {
			return Node{}, fmt.Errorf("%w: parent star %d", ErrNodeNotFound, *parentStarID)
		}
		if !parent.IsStar() {
			return Node{}, fmt.Errorf("%w: node %d is not a star", ErrMissingParent, *parentStarID)
		}
		if g.BodiesUnder(*parentStarID) >= g.limits.MaxBodiesPerStar {
			return Node{}, fmt.Errorf("%w: star %d already has %d bodies", ErrBodyLimit, *parentStarID, g.limits.MaxBodiesPerStar)
		}
		parentID := *parentStarID
		node.ParentStarID = &parentID
	}

	// Editor-created bodies start with explicit zero loot; only imported
	// snapshots can carry unset loot fields.
	if !desc.Category.IsStar() {
		zeroChance := 0.0
		zeroLevel := 0
		node.ChanceOfLoot = &zeroChance
		node.LootLevel = &zeroLevel
	}

	node.ID = g.nextNodeID
	g.nextNodeID++
	node.Position = Position{
		X: (rand.Float64() - 0.5) * g.limits.CanvasWidth,
		Y: (rand.Float64() - 0.5) * g.limits.CanvasHeight,
	}

	stored := node
	g.nodes = append(g.nodes, &stored)
	g.nodeIndex[stored.ID] = &stored
	return stored, nil
}

// RemoveNode deletes a node and every lane incident to it. Deleting a
// star that still has dependent bodies requires a reassignment target;
// reassignment, lane cleanup and removal apply together or not at all.
func (g *Graph) RemoveNode(id int, reassignTo *int) error {
	node, ok := g.nodeIndex[id]
	if !ok {
		return fmt.Errorf("%w: node %d", ErrNodeNotFound, id)
	}

	var dependents []*Node
	if node.IsStar() {
		for _, n := range g.nodes {
			if !n.IsStar() && n.ParentStarID != nil && *n.ParentStarID == id {
				dependents = append(dependents, n)
			}
		}
	}

	if len(dependents) > 0 {
		if reassignTo == nil {
			return fmt.Errorf("%w: star %d has %d dependent bodies", ErrReassignmentRequired, id, len(dependents))
		}
		target, ok := g.nodeIndex[*reassignTo]
		if !ok {
			return fmt.Errorf("%w: reassignment target %d", ErrNodeNotFound, *reassignTo)
		}
		if target.ID == id {
			return fmt.Errorf("%w: cannot reassign bodies to the star being deleted", ErrReassignmentRequired)
		}
		if !target.IsStar() {
			return fmt.Errorf("%w: reassignment target %d is not a star", ErrReassignmentRequired, *reassignTo)
		}
		if g.BodiesUnder(target.ID)+len(dependents) > g.limits.MaxBodiesPerStar {
			return fmt.Errorf("%w: star %d cannot take %d more bodies", ErrBodyLimit, target.ID, len(dependents))
		}

		// All checks passed; the reparent below cannot fail anymore.
		for _, dep := range dependents {
			targetID := target.ID
			dep.ParentStarID = &targetID
		}
	}

	g.removeIncidentLanes(id)
	g.deleteNode(id)
	return nil
}

func (g *Graph) deleteNode(id int) {
	delete(g.nodeIndex, id)
	for i, n := range g.nodes {
		if n.ID == id {
			g.nodes = append(g.nodes[:i], g.nodes[i+1:]...)
			break
		}
	}
}

func (g *Graph) removeIncidentLanes(nodeID int) {
	kept := g.lanes[:0]
	for _, l := range g.lanes {
		if l.NodeA == nodeID || l.NodeB == nodeID {
			delete(g.laneIndex, l.ID)
			continue
		}
		kept = append(kept, l)
	}
	g.lanes = kept
}

// starLaneFor returns a lane connecting the non-star node to any star,
// other than the lane with excludeLaneID.
func (g *Graph) starLaneFor(nodeID, excludeLaneID int) *Lane {
	for _, l := range g.lanes {
		if l.ID == excludeLaneID {
			continue
		}
		other := -1
		switch nodeID {
		case l.NodeA:
			other = l.NodeB
		case l.NodeB:
			other = l.NodeA
		default:
			continue
		}
		if n, ok := g.nodeIndex[other]; ok && n.IsStar() {
			return l
		}
	}
	return nil
}

// CreateLane links two nodes. Self-loops are accepted (the warning engine
// flags them); duplicate undirected pairs and second star connections for
// a body are rejected. A star-to-body lane adopts the star as the body's
// parent when it has none yet.
func (g *Graph) CreateLane(a, b int, laneType LaneType) (Lane, error) {
	if laneType == "" {
		laneType = LaneNormal
	}
	if !laneType.IsValid() {
		return Lane{}, fmt.Errorf("%w: unknown lane type %q", ErrInvalidLane, laneType)
	}

	nodeA, ok := g.nodeIndex[a]
	if !ok {
		return Lane{}, fmt.Errorf("%w: node %d", ErrNodeNotFound, a)
	}
	nodeB, ok := g.nodeIndex[b]
	if !ok {
		return Lane{}, fmt.Errorf("%w: node %d", ErrNodeNotFound, b)
	}

	for _, l := range g.lanes {
		if (l.NodeA == a && l.NodeB == b) || (l.NodeA == b && l.NodeB == a) {
			return Lane{}, fmt.Errorf("%w: nodes %d and %d are already linked", ErrDuplicateLane, a, b)
		}
	}

	if laneType == LaneStar && (!nodeA.IsStar() || !nodeB.IsStar()) {
		return Lane{}, fmt.Errorf("%w: star lanes require star endpoints", ErrInvalidLane)
	}
	if laneType == LaneWormhole {
		if g.registry.FillingName(nodeA.BodyTypeID) != bodytype.WormholeFilling ||
			g.registry.FillingName(nodeB.BodyTypeID) != bodytype.WormholeFilling {
			return Lane{}, fmt.Errorf("%w: wormhole lanes require wormhole fixtures at both ends", ErrInvalidLane)
		}
	}

	// A body may hold at most one star-linking lane.
	var star, body *Node
	if nodeA.IsStar() && !nodeB.IsStar() {
		star, body = nodeA, nodeB
	} else if nodeB.IsStar() && !nodeA.IsStar() {
		star, body = nodeB, nodeA
	}
	if body != nil {
		if existing := g.starLaneFor(body.ID, 0); existing != nil {
			return Lane{}, fmt.Errorf("%w: node %d already has a star lane", ErrMultipleStarParents, body.ID)
		}
	}

	lane := Lane{
		ID:    g.nextLaneID,
		NodeA: a,
		NodeB: b,
		Type:  laneType,
	}
	g.nextLaneID++

	stored := lane
	g.lanes = append(g.lanes, &stored)
	g.laneIndex[stored.ID] = &stored

	if body != nil && body.ParentStarID == nil {
		starID := star.ID
		body.ParentStarID = &starID
	}

	return stored, nil
}

// RemoveLane deletes a lane. The parent assignment of the endpoints is
// untouched; a body cut off from its parent star surfaces as a
// reachability warning instead.
func (g *Graph) RemoveLane(id int) error {
	if _, ok := g.laneIndex[id]; !ok {
		return fmt.Errorf("%w: lane %d", ErrLaneNotFound, id)
	}

	delete(g.laneIndex, id)
	for i, l := range g.lanes {
		if l.ID == id {
			g.lanes = append(g.lanes[:i], g.lanes[i+1:]...)
			break
		}
	}

	return nil
}

// SetNodePosition moves a node on the canvas.
func (g *Graph) SetNodePosition(id int, pos Position) error {
	node, ok := g.nodeIndex[id]
	if !ok {
		return fmt.Errorf("%w: node %d", ErrNodeNotFound, id)
	}
	node.Position = pos
	return nil
}

// SetNodeRotation sets a node's orbital rotation.
func (g *Graph) SetNodeRotation(id int, rotation float64) error {
	node, ok := g.nodeIndex[id]
	if !ok {
		return fmt.Errorf("%w: node %d", ErrNodeNotFound, id)
	}
	node.Rotation = rotation
	return nil
}

// SetNodeBodyType changes a node's body type. The star / non-star
// boundary captured at creation can never be crossed, and the change must
// stay consistent with ownership, artifacts, and wormhole lanes already
// attached to the node.
func (g *Graph) SetNodeBodyType(id int, bodyTypeID string) error {
	node, ok := g.nodeIndex[id]
	if !ok {
		return fmt.Errorf("%w: node %d", ErrNodeNotFound, id)
	}
	desc, ok := g.registry.Lookup(bodyTypeID)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownBodyType, bodyTypeID)
	}

	if desc.Category.IsStar() != node.InitialCategory.IsStar() {
		return fmt.Errorf("%w: node %d was created as a %s", ErrStarCrossing, id, node.InitialCategory)
	}
	if node.Ownership.IsPlayer() && !desc.PlayerOwnable {
		return fmt.Errorf("%w: %q cannot be player-owned", ErrInvalidOwnership, bodyTypeID)
	}
	if node.HasArtifact && !g.registry.ArtifactEligible(bodyTypeID) {
		return fmt.Errorf("%w: %q cannot carry an artifact", ErrArtifactNotAllowed, bodyTypeID)
	}
	if desc.Filling != bodytype.WormholeFilling && g.anchorsWormholeLane(id) {
		return fmt.Errorf("%w: node %d anchors a wormhole lane", ErrInvalidLane, id)
	}

	node.BodyTypeID = bodyTypeID
	return nil
}

func (g *Graph) anchorsWormholeLane(nodeID int) bool {
	for _, l := range g.lanes {
		if l.Type == LaneWormhole && (l.NodeA == nodeID || l.NodeB == nodeID) {
			return true
		}
	}
	return false
}

// SetNodeParentStar reassigns a body to another star.
func (g *Graph) SetNodeParentStar(id, starID int) error {
	node, ok := g.nodeIndex[id]
	if !ok {
		return fmt.Errorf("%w: node %d", ErrNodeNotFound, id)
	}
	if node.IsStar() {
		return fmt.Errorf("%w: node %d is a star and cannot have a parent", ErrStarCrossing, id)
	}
	star, ok := g.nodeIndex[starID]
	if !ok {
		return fmt.Errorf("%w: star %d", ErrNodeNotFound, starID)
	}
	if !star.IsStar() {
		return fmt.Errorf("%w: node %d is not a star", ErrMissingParent, starID)
	}
	if node.ParentStarID == nil || *node.ParentStarID != starID {
		if g.BodiesUnder(starID) >= g.limits.MaxBodiesPerStar {
			return fmt.Errorf("%w: star %d already has %d bodies", ErrBodyLimit, starID, g.limits.MaxBodiesPerStar)
		}
	}
	node.ParentStarID = &starID
	return nil
}

// SetNodeOwnership changes who owns a node. Player ownership is restricted
// to whitelisted body types, one node per player slot, and forces the loot
// and artifact fields to empty.
func (g *Graph) SetNodeOwnership(id int, o Ownership, playerCount int) error {
	node, ok := g.nodeIndex[id]
	if !ok {
		return fmt.Errorf("%w: node %d", ErrNodeNotFound, id)
	}

	switch {
	case o.IsUnowned():
		node.Ownership = Unowned()
		return nil

	case o.IsPlayer():
		if node.IsStar() {
			return fmt.Errorf("%w: stars cannot be player-owned", ErrInvalidOwnership)
		}
		if !g.registry.PlayerOwnable(node.BodyTypeID) {
			return fmt.Errorf("%w: body type %q cannot be player-owned", ErrInvalidOwnership, node.BodyTypeID)
		}
		if o.PlayerIndex < 0 || o.PlayerIndex >= playerCount {
			return fmt.Errorf("%w: player index %d out of range [0, %d)", ErrInvalidOwnership, o.PlayerIndex, playerCount)
		}
		for _, other := range g.nodes {
			if other.ID != id && other.Ownership.IsPlayer() && other.Ownership.PlayerIndex == o.PlayerIndex {
				return fmt.Errorf("%w: player %d already owns node %d", ErrPlayerSlotConflict, o.PlayerIndex, other.ID)
			}
		}

		node.Ownership = PlayerOwned(o.PlayerIndex)
		zeroChance := 0.0
		zeroLevel := 0
		node.ChanceOfLoot = &zeroChance
		node.LootLevel = &zeroLevel
		node.HasArtifact = false
		node.ArtifactName = ""
		return nil

	case o.IsNPC():
		if o.FactionName == "" {
			return fmt.Errorf("%w: NPC ownership requires a faction name", ErrInvalidOwnership)
		}
		node.Ownership = NPCOwned(o.FactionType, o.FactionName)
		return nil
	}

	return fmt.Errorf("%w: unknown ownership kind %q", ErrInvalidOwnership, o.Kind)
}

// lootChances is the closed set of legal loot probabilities.
var lootChances = []float64{0, 0.1, 0.25, 0.5, 0.75, 1}

// SetNodeLoot sets the loot chance and level together.
func (g *Graph) SetNodeLoot(id int, chance float64, level int) error {
	node, ok := g.nodeIndex[id]
	if !ok {
		return fmt.Errorf("%w: node %d", ErrNodeNotFound, id)
	}
	if node.IsStar() {
		return fmt.Errorf("%w: stars cannot carry loot", ErrInvalidLoot)
	}

	validChance := false
	for _, c := range lootChances {
		if chance == c {
			validChance = true
			break
		}
	}
	if !validChance {
		return fmt.Errorf("%w: chance %v is not one of the allowed values", ErrInvalidLoot, chance)
	}
	if level < 0 || level > 2 {
		return fmt.Errorf("%w: level %d out of range [0, 2]", ErrInvalidLoot, level)
	}
	if chance == 0 && level != 0 {
		return fmt.Errorf("%w: loot level requires a non-zero chance", ErrInvalidLoot)
	}
	if node.Ownership.IsPlayer() && (chance != 0 || level != 0) {
		return fmt.Errorf("%w: player-owned nodes cannot carry loot", ErrInvalidLoot)
	}

	node.ChanceOfLoot = &chance
	node.LootLevel = &level
	return nil
}

// SetNodeArtifact toggles the artifact on a node. Stars and owned nodes
// are never eligible; names come from the closed artifact enumeration.
func (g *Graph) SetNodeArtifact(id int, hasArtifact bool, name string) error {
	node, ok := g.nodeIndex[id]
	if !ok {
		return fmt.Errorf("%w: node %d", ErrNodeNotFound, id)
	}

	if !hasArtifact {
		node.HasArtifact = false
		node.ArtifactName = ""
		return nil
	}

	if node.IsStar() {
		return fmt.Errorf("%w: stars cannot carry artifacts", ErrArtifactNotAllowed)
	}
	if node.Ownership.IsPlayer() || node.Ownership.IsNPC() {
		return fmt.Errorf("%w: owned nodes cannot carry artifacts", ErrArtifactNotAllowed)
	}
	if !g.registry.ArtifactEligible(node.BodyTypeID) {
		return fmt.Errorf("%w: body type %q is not artifact eligible", ErrArtifactNotAllowed, node.BodyTypeID)
	}
	if !bodytype.ValidArtifactName(name) {
		return fmt.Errorf("%w: unknown artifact %q", ErrArtifactNotAllowed, name)
	}

	node.HasArtifact = true
	node.ArtifactName = name
	return nil
}
