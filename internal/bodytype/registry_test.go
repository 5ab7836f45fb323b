package bodytype

import "testing"

func TestLookup(t *testing.T) {
	t.Parallel()

	r := NewRegistry()

	d, ok := r.Lookup("terran")
	if !ok {
		t.Fatal("terran missing from catalog")
	}
	if d.Category != CategoryPlanet || !d.PlayerOwnable {
		t.Errorf("terran descriptor = %+v", d)
	}

	if _, ok := r.Lookup("no_such_type"); ok {
		t.Error("unknown id resolved")
	}
}

func TestIsStarType(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	for _, id := range []string{"random_star", "yellow_star", "red_star", "blue_star"} {
		if !r.IsStarType(id) {
			t.Errorf("%s not recognized as a star", id)
		}
	}
	for _, id := range []string{"terran", "moon", "asteroid", "wormhole"} {
		if r.IsStarType(id) {
			t.Errorf("%s recognized as a star", id)
		}
	}
}

func TestFillingName(t *testing.T) {
	t.Parallel()

	r := NewRegistry()

	tests := []struct {
		id   string
		want string
	}{
		{id: "terran", want: "planet_terran"},
		{id: "yellow_star", want: "star_yellow"},
		{id: "wormhole", want: WormholeFilling},
		// Unmapped ids pass through unchanged.
		{id: "modded_unknown", want: "modded_unknown"},
	}
	for _, tt := range tests {
		if got := r.FillingName(tt.id); got != tt.want {
			t.Errorf("FillingName(%s) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestPlayerOwnable(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	for _, id := range []string{"terran", "desert", "ice", "volcanic", "ferrous", "oceanic"} {
		if !r.PlayerOwnable(id) {
			t.Errorf("%s should be player ownable", id)
		}
	}
	for _, id := range []string{"yellow_star", "barren", "gas_giant", "moon", "asteroid", "wormhole", PirateBaseID} {
		if r.PlayerOwnable(id) {
			t.Errorf("%s should not be player ownable", id)
		}
	}
}

func TestArtifactEligible(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	for _, id := range []string{"terran", "barren", "moon", "asteroid", PirateBaseID} {
		if !r.ArtifactEligible(id) {
			t.Errorf("%s should be artifact eligible", id)
		}
	}
	for _, id := range []string{"yellow_star", "wormhole", "antimatter_fountain"} {
		if r.ArtifactEligible(id) {
			t.Errorf("%s should not be artifact eligible", id)
		}
	}
}

func TestValidArtifactName(t *testing.T) {
	t.Parallel()

	for _, name := range ArtifactNames() {
		if !ValidArtifactName(name) {
			t.Errorf("catalog artifact %q rejected", name)
		}
	}
	for _, name := range []string{"", "unknown_relic", "Planet_Cracker"} {
		if ValidArtifactName(name) {
			t.Errorf("artifact %q accepted", name)
		}
	}
}

func TestLooksLikeGameID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id   string
		want bool
	}{
		{id: "planet_terran", want: true},
		{id: "x7_mod", want: true},
		{id: "9lives", want: true},
		{id: "", want: false},
		{id: "Has_Upper", want: false},
		{id: "_leading", want: false},
		{id: "spaced out", want: false},
		{id: "hyphen-ated", want: false},
	}
	for _, tt := range tests {
		if got := LooksLikeGameID(tt.id); got != tt.want {
			t.Errorf("LooksLikeGameID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}
