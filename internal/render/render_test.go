package render

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"

	"starforge-server/internal/bodytype"
	"starforge-server/internal/scenario"
)

func intPtr(v int) *int { return &v }

func testOptions() Options {
	return Options{
		Width:        320,
		Height:       180,
		CanvasWidth:  12000,
		CanvasHeight: 12000,
	}
}

func testSnapshot() scenario.Snapshot {
	return scenario.Snapshot{
		Version:  scenario.SnapshotVersion,
		Settings: scenario.DefaultSettings(2),
		Nodes: []scenario.Node{
			{ID: 1, BodyTypeID: "yellow_star", InitialCategory: bodytype.CategoryStar,
				Position: scenario.Position{X: -3000, Y: -3000}},
			{ID: 2, BodyTypeID: "terran", InitialCategory: bodytype.CategoryPlanet,
				ParentStarID: intPtr(1), Position: scenario.Position{X: 0, Y: 0},
				Ownership: scenario.PlayerOwned(0)},
			{ID: 3, BodyTypeID: "gas_giant", InitialCategory: bodytype.CategoryPlanet,
				ParentStarID: intPtr(1), Position: scenario.Position{X: 3000, Y: -2000},
				Ownership: scenario.NPCOwned("militia", "rim_guard")},
		},
		Lanes: []scenario.Lane{
			{ID: 1, NodeA: 1, NodeB: 2, Type: scenario.LaneNormal},
		},
	}
}

func TestSnapshotDimensions(t *testing.T) {
	t.Parallel()

	data, err := Snapshot(testSnapshot(), bodytype.NewRegistry(), testOptions())
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a decodable PNG: %v", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() != 320 || bounds.Dy() != 180 {
		t.Errorf("image size = %dx%d, want 320x180", bounds.Dx(), bounds.Dy())
	}
}

func TestSnapshotDrawsContent(t *testing.T) {
	t.Parallel()

	data, err := Snapshot(testSnapshot(), bodytype.NewRegistry(), testOptions())
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	// The canvas has bodies on it, so some pixels must differ from the
	// background fill.
	bg := color.RGBA{R: 8, G: 10, B: 20, A: 255}
	different := 0
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			if uint8(r>>8) != bg.R || uint8(g>>8) != bg.G || uint8(b>>8) != bg.B {
				different++
			}
		}
	}
	if different == 0 {
		t.Error("rendered image is entirely background")
	}
}

func TestSnapshotNegativeQuadrant(t *testing.T) {
	t.Parallel()

	// Graph-placed nodes span ±CanvasWidth/2 around the origin; a node in
	// the negative quadrant must land inside the image, not be clipped.
	snap := scenario.Snapshot{
		Version:  scenario.SnapshotVersion,
		Settings: scenario.DefaultSettings(2),
		Nodes: []scenario.Node{
			{ID: 1, BodyTypeID: "yellow_star", InitialCategory: bodytype.CategoryStar,
				Position: scenario.Position{X: -3000, Y: -3000}},
		},
	}

	data, err := Snapshot(snap, bodytype.NewRegistry(), testOptions())
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	// On a 12000x12000 canvas in a 320x180 frame the world scales by
	// 180/12000 with 70px of horizontal slack, so (-3000,-3000) projects
	// to about (115,45). The star disc must put paint near that point.
	found := false
	for y := 35; y <= 55 && !found; y++ {
		for x := 105; x <= 125; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			if uint8(r>>8) != 8 || uint8(g>>8) != 10 || uint8(b>>8) != 20 {
				found = true
				break
			}
		}
	}
	if !found {
		t.Error("node in the negative quadrant left no pixels near its projected position")
	}
}

func TestSnapshotEmptyScenario(t *testing.T) {
	t.Parallel()

	snap := scenario.Snapshot{
		Version:  scenario.SnapshotVersion,
		Settings: scenario.DefaultSettings(2),
	}
	data, err := Snapshot(snap, bodytype.NewRegistry(), testOptions())
	if err != nil {
		t.Fatalf("Snapshot of empty scenario failed: %v", err)
	}
	if _, err := png.Decode(bytes.NewReader(data)); err != nil {
		t.Errorf("empty scenario output not decodable: %v", err)
	}
}

func TestSnapshotInvalidOptions(t *testing.T) {
	t.Parallel()

	if _, err := Snapshot(testSnapshot(), bodytype.NewRegistry(), Options{}); err == nil {
		t.Error("zero resolution accepted")
	}
}
