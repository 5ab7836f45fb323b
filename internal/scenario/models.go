package scenario

import (
	"starforge-server/internal/bodytype"
)

// Position is a world-unit coordinate on the canvas.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type OwnershipKind string

const (
	OwnershipUnowned OwnershipKind = "unowned"
	OwnershipPlayer  OwnershipKind = "player"
	OwnershipNPC     OwnershipKind = "npc"
)

// Ownership is a tagged variant: exactly one of the player or NPC field
// sets is meaningful, selected by Kind. A zero Ownership is unowned.
type Ownership struct {
	Kind        OwnershipKind `json:"kind,omitempty"`
	PlayerIndex int           `json:"player_index,omitempty"`
	FactionType string        `json:"faction_type,omitempty"`
	FactionName string        `json:"faction_name,omitempty"`
}

func Unowned() Ownership {
	return Ownership{Kind: OwnershipUnowned}
}

func PlayerOwned(index int) Ownership {
	return Ownership{Kind: OwnershipPlayer, PlayerIndex: index}
}

func NPCOwned(factionType, factionName string) Ownership {
	return Ownership{Kind: OwnershipNPC, FactionType: factionType, FactionName: factionName}
}

func (o Ownership) IsUnowned() bool {
	return o.Kind == "" || o.Kind == OwnershipUnowned
}

func (o Ownership) IsPlayer() bool {
	return o.Kind == OwnershipPlayer
}

func (o Ownership) IsNPC() bool {
	return o.Kind == OwnershipNPC
}

// Node is a placed star or orbiting body. InitialCategory is captured at
// creation and frozen; a node never crosses the star / non-star boundary
// afterwards. ChanceOfLoot and LootLevel are pointers because "not yet
// chosen" is distinct from an explicit zero.
type Node struct {
	ID              int               `json:"id"`
	BodyTypeID      string            `json:"body_type_id"`
	Position        Position          `json:"position"`
	ParentStarID    *int              `json:"parent_star_id,omitempty"`
	Ownership       Ownership         `json:"ownership,omitempty"`
	Rotation        float64           `json:"rotation,omitempty"`
	ChanceOfLoot    *float64          `json:"chance_of_loot,omitempty"`
	LootLevel       *int              `json:"loot_level,omitempty"`
	HasArtifact     bool              `json:"has_artifact,omitempty"`
	ArtifactName    string            `json:"artifact_name,omitempty"`
	InitialCategory bodytype.Category `json:"initial_category"`
}

// IsStar reports whether the node sits on the star side of the boundary.
// The boundary is frozen at creation, so the initial category is
// authoritative.
func (n *Node) IsStar() bool {
	return n.InitialCategory.IsStar()
}

type LaneType string

const (
	LaneNormal   LaneType = "normal"
	LaneStar     LaneType = "star"
	LaneWormhole LaneType = "wormhole"
)

func (t LaneType) IsValid() bool {
	switch t {
	case LaneNormal, LaneStar, LaneWormhole:
		return true
	}
	return false
}

// Lane is an undirected travel connection between two nodes.
type Lane struct {
	ID    int      `json:"id"`
	NodeA int      `json:"node_a"`
	NodeB int      `json:"node_b"`
	Type  LaneType `json:"type"`
}

// GridSettings are canvas display preferences persisted with the snapshot.
type GridSettings struct {
	Visible bool    `json:"visible"`
	Snap    bool    `json:"snap"`
	Size    float64 `json:"size"`
}

// DefaultSkybox is the fixed skybox identifier stamped into exports.
const DefaultSkybox = "skybox_random"

// Settings is the global scenario configuration, one instance per session.
// TeamCount is nil until the user explicitly picks one of the divisor
// options (0 means free-for-all).
type Settings struct {
	Name                 string       `json:"name"`
	DisplayName          string       `json:"display_name"`
	DisplayVersion       string       `json:"display_version"`
	Author               string       `json:"author"`
	ShortDescription     string       `json:"short_description"`
	Skybox               string       `json:"skybox"`
	PlayerCount          int          `json:"player_count"`
	TeamCount            *int         `json:"team_count,omitempty"`
	CompatibilityVersion int          `json:"compatibility_version"`
	LogoPNG              []byte       `json:"logo_png,omitempty"`
	Grid                 GridSettings `json:"grid"`
}

// SnapshotVersion tags persisted and shared snapshots. A stored snapshot
// with a different version is discarded, not migrated.
const SnapshotVersion = 3

// Snapshot is the complete serializable state of one scenario: the share
// payload and the persisted local state are both this shape.
type Snapshot struct {
	Version  int      `json:"version"`
	Settings Settings `json:"settings"`
	Nodes    []Node   `json:"nodes"`
	Lanes    []Lane   `json:"lanes"`
}
