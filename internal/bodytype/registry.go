package bodytype

import (
	"regexp"
)

type Category string

const (
	CategoryStar     Category = "star"
	CategoryPlanet   Category = "planet"
	CategoryMoon     Category = "moon"
	CategoryAsteroid Category = "asteroid"
	CategorySpecial  Category = "special"
)

func (c Category) String() string {
	return string(c)
}

func (c Category) IsValid() bool {
	switch c {
	case CategoryStar, CategoryPlanet, CategoryMoon, CategoryAsteroid, CategorySpecial:
		return true
	}
	return false
}

// IsStar reports whether the category sits on the star side of the
// star / non-star boundary.
func (c Category) IsStar() bool {
	return c == CategoryStar
}

// Descriptor is the immutable catalog entry for a placeable body type.
// Radius and Color are display hints for the canvas; Filling is the
// game-native identifier used only at export time.
type Descriptor struct {
	ID            string   `json:"id"`
	Category      Category `json:"category"`
	Radius        float64  `json:"radius"`
	Color         string   `json:"color"`
	Filling       string   `json:"filling"`
	PlayerOwnable bool     `json:"player_ownable"`
}

// Game-native identifiers with special meaning in the export pipeline.
const (
	// PlayerHomeFilling replaces the normal filling for computed home
	// planets and for NPC-owned bodies; the game derives the visual from
	// the ownership record once one is present.
	PlayerHomeFilling = "player_home_planet"

	// WormholeFilling marks the wormhole fixture; both endpoints of a
	// wormhole lane must resolve to it.
	WormholeFilling = "wormhole_fixture"

	// PirateBaseID is the curated body type that receives an implicit
	// pirate ownership at export when left unowned.
	PirateBaseID = "pirate_base"

	// DefaultPirateFaction names the NPC faction assigned to unowned
	// pirate bases.
	DefaultPirateFaction = "pirates"
)

// gameIDPattern is the permissive "looks like a valid game identifier"
// check applied to body types missing from the curated table.
var gameIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_]*$`)

// LooksLikeGameID reports whether an uncataloged body type id could
// still be a legal game identifier and may pass through unchanged.
func LooksLikeGameID(id string) bool {
	return gameIDPattern.MatchString(id)
}

// artifactNames is the closed enumeration of legal artifact identifiers.
var artifactNames = []string{
	"ancient_jump_gate",
	"dormant_titan",
	"mass_converter",
	"orbital_shipyard",
	"planet_cracker",
	"temporal_archive",
}

// ValidArtifactName reports whether name belongs to the closed artifact
// enumeration.
func ValidArtifactName(name string) bool {
	for _, n := range artifactNames {
		if n == name {
			return true
		}
	}
	return false
}

// ArtifactNames returns the closed artifact enumeration in stable order.
func ArtifactNames() []string {
	out := make([]string, len(artifactNames))
	copy(out, artifactNames)
	return out
}

// catalog is the static body-type table, loaded once at startup and
// never mutated. Ordering is the canvas palette ordering.
var catalog = []Descriptor{
	{ID: "random_star", Category: CategoryStar, Radius: 60, Color: "#ffd27d", Filling: "random_star"},
	{ID: "yellow_star", Category: CategoryStar, Radius: 60, Color: "#ffe08a", Filling: "star_yellow"},
	{ID: "red_star", Category: CategoryStar, Radius: 55, Color: "#ff7a5c", Filling: "star_red"},
	{ID: "blue_star", Category: CategoryStar, Radius: 65, Color: "#8ab8ff", Filling: "star_blue"},

	{ID: "terran", Category: CategoryPlanet, Radius: 22, Color: "#5fae5f", Filling: "planet_terran", PlayerOwnable: true},
	{ID: "desert", Category: CategoryPlanet, Radius: 20, Color: "#d8b25f", Filling: "planet_desert", PlayerOwnable: true},
	{ID: "ice", Category: CategoryPlanet, Radius: 20, Color: "#bfe4f2", Filling: "planet_ice", PlayerOwnable: true},
	{ID: "volcanic", Category: CategoryPlanet, Radius: 20, Color: "#d06030", Filling: "planet_volcanic", PlayerOwnable: true},
	{ID: "ferrous", Category: CategoryPlanet, Radius: 19, Color: "#a08c78", Filling: "planet_ferrous", PlayerOwnable: true},
	{ID: "oceanic", Category: CategoryPlanet, Radius: 22, Color: "#4f86c8", Filling: "planet_oceanic", PlayerOwnable: true},
	{ID: "barren", Category: CategoryPlanet, Radius: 18, Color: "#9a9a9a", Filling: "planet_barren"},
	{ID: "gas_giant", Category: CategoryPlanet, Radius: 32, Color: "#c9a0dc", Filling: "planet_gas_giant"},
	{ID: "dead", Category: CategoryPlanet, Radius: 18, Color: "#6f6f6f", Filling: "planet_dead"},

	{ID: "moon", Category: CategoryMoon, Radius: 12, Color: "#cfcfcf", Filling: "moon_rocky"},
	{ID: "ice_moon", Category: CategoryMoon, Radius: 12, Color: "#dcefff", Filling: "moon_ice"},

	{ID: "asteroid", Category: CategoryAsteroid, Radius: 8, Color: "#8d7b6c", Filling: "asteroid_rocky"},
	{ID: "ice_asteroid", Category: CategoryAsteroid, Radius: 8, Color: "#cfe8f0", Filling: "asteroid_ice"},

	{ID: "wormhole", Category: CategorySpecial, Radius: 16, Color: "#b070ff", Filling: WormholeFilling},
	{ID: PirateBaseID, Category: CategorySpecial, Radius: 14, Color: "#e05050", Filling: "pirate_base"},
	{ID: "antimatter_fountain", Category: CategorySpecial, Radius: 14, Color: "#70f0e0", Filling: "antimatter_fountain"},
}

// Registry resolves body-type ids to their descriptors.
type Registry struct {
	descriptors map[string]Descriptor
	order       []string
}

// NewRegistry builds the registry from the static catalog.
func NewRegistry() *Registry {
	r := &Registry{
		descriptors: make(map[string]Descriptor, len(catalog)),
		order:       make([]string, 0, len(catalog)),
	}
	for _, d := range catalog {
		r.descriptors[d.ID] = d
		r.order = append(r.order, d.ID)
	}
	return r
}

// Lookup returns the descriptor for a body-type id.
func (r *Registry) Lookup(id string) (Descriptor, bool) {
	d, ok := r.descriptors[id]
	return d, ok
}

// Descriptors returns all catalog entries in palette order.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.descriptors[id])
	}
	return out
}

// IsStarType reports whether the id resolves to a star-category type.
func (r *Registry) IsStarType(id string) bool {
	d, ok := r.descriptors[id]
	return ok && d.Category.IsStar()
}

// PlayerOwnable reports whether the body type belongs to the curated
// whitelist of player-ownable types.
func (r *Registry) PlayerOwnable(id string) bool {
	d, ok := r.descriptors[id]
	return ok && d.PlayerOwnable
}

// FillingName translates a body-type id to its game filling name, passing
// the raw id through unchanged when no mapping exists.
func (r *Registry) FillingName(id string) string {
	if d, ok := r.descriptors[id]; ok && d.Filling != "" {
		return d.Filling
	}
	return id
}

// ArtifactEligible reports whether a body of the given type may carry an
// artifact: planets, moons, asteroids, and the pirate base special case.
func (r *Registry) ArtifactEligible(id string) bool {
	d, ok := r.descriptors[id]
	if !ok {
		return false
	}
	switch d.Category {
	case CategoryPlanet, CategoryMoon, CategoryAsteroid:
		return true
	case CategorySpecial:
		return d.ID == PirateBaseID
	}
	return false
}
