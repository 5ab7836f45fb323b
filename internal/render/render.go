package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	xdraw "golang.org/x/image/draw"

	"starforge-server/internal/bodytype"
	"starforge-server/internal/scenario"
)

// Options fixes the output resolution and the world-space viewport that
// maps onto it.
type Options struct {
	Width        int
	Height       int
	CanvasWidth  float64
	CanvasHeight float64
}

// Rendering happens at a supersampled resolution and is scaled down for
// smoother edges.
const supersample = 2

var (
	background = color.RGBA{R: 8, G: 10, B: 20, A: 255}
	laneColor  = color.RGBA{R: 70, G: 85, B: 120, A: 255}
	homeBadge  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	npcBadge   = color.RGBA{R: 230, G: 80, B: 80, A: 255}
)

// Snapshot rasterizes the scenario into a PNG at the configured fixed
// resolution. Home planets carry a white badge ring and NPC-owned nodes
// a red one, scaled with the rest of the world.
func Snapshot(snap scenario.Snapshot, registry *bodytype.Registry, opts Options) ([]byte, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("render target %dx%d is not a valid resolution", opts.Width, opts.Height)
	}

	w := opts.Width * supersample
	h := opts.Height * supersample

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	fill(img, background)

	// Fit the world canvas inside the image, preserving aspect and
	// centering the slack on the shorter axis. World coordinates are
	// centered on the origin, spanning ±CanvasWidth/2 and ±CanvasHeight/2.
	scale := math.Min(float64(w)/opts.CanvasWidth, float64(h)/opts.CanvasHeight)
	offsetX := (float64(w) - opts.CanvasWidth*scale) / 2
	offsetY := (float64(h) - opts.CanvasHeight*scale) / 2

	project := func(p scenario.Position) (float64, float64) {
		return (p.X+opts.CanvasWidth/2)*scale + offsetX, (p.Y+opts.CanvasHeight/2)*scale + offsetY
	}

	positions := make(map[int]scenario.Position, len(snap.Nodes))
	for _, n := range snap.Nodes {
		positions[n.ID] = n.Position
	}

	for _, l := range snap.Lanes {
		a, okA := positions[l.NodeA]
		b, okB := positions[l.NodeB]
		if !okA || !okB {
			continue
		}
		ax, ay := project(a)
		bx, by := project(b)
		drawLine(img, ax, ay, bx, by, laneColor)
	}

	homes := make(map[int]bool)
	seen := make(map[int]bool)
	for _, n := range snap.Nodes {
		if n.IsStar() || !n.Ownership.IsPlayer() {
			continue
		}
		if !seen[n.Ownership.PlayerIndex] {
			seen[n.Ownership.PlayerIndex] = true
			homes[n.ID] = true
		}
	}

	for _, n := range snap.Nodes {
		x, y := project(n.Position)

		radius := 6.0
		bodyColor := color.RGBA{R: 160, G: 160, B: 160, A: 255}
		if d, ok := registry.Lookup(n.BodyTypeID); ok {
			radius = d.Radius
			bodyColor = parseHexColor(d.Color)
		}
		r := math.Max(radius*scale, 1.5*supersample)

		drawDisc(img, x, y, r, bodyColor)

		switch {
		case homes[n.ID]:
			drawRing(img, x, y, r+3*supersample, float64(supersample), homeBadge)
		case n.Ownership.IsNPC():
			drawRing(img, x, y, r+3*supersample, float64(supersample), npcBadge)
		}
	}

	out := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	xdraw.CatmullRom.Scale(out, out.Bounds(), img, img.Bounds(), xdraw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("failed to encode snapshot image: %w", err)
	}
	return buf.Bytes(), nil
}

func fill(img *image.RGBA, c color.RGBA) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

func drawLine(img *image.RGBA, ax, ay, bx, by float64, c color.RGBA) {
	steps := int(math.Hypot(bx-ax, by-ay))
	if steps == 0 {
		steps = 1
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		x := int(math.Round(ax + (bx-ax)*t))
		y := int(math.Round(ay + (by-ay)*t))
		if image.Pt(x, y).In(img.Bounds()) {
			img.SetRGBA(x, y, c)
		}
	}
}

func drawDisc(img *image.RGBA, cx, cy, r float64, c color.RGBA) {
	minX, maxX := int(cx-r), int(cx+r)
	minY, maxY := int(cy-r), int(cy+r)
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			dx, dy := float64(x)-cx, float64(y)-cy
			if dx*dx+dy*dy <= r*r && image.Pt(x, y).In(img.Bounds()) {
				img.SetRGBA(x, y, c)
			}
		}
	}
}

func drawRing(img *image.RGBA, cx, cy, r, thickness float64, c color.RGBA) {
	outer := r + thickness
	minX, maxX := int(cx-outer), int(cx+outer)
	minY, maxY := int(cy-outer), int(cy+outer)
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			dx, dy := float64(x)-cx, float64(y)-cy
			d := dx*dx + dy*dy
			if d >= r*r && d <= outer*outer && image.Pt(x, y).In(img.Bounds()) {
				img.SetRGBA(x, y, c)
			}
		}
	}
}

func parseHexColor(s string) color.RGBA {
	c := color.RGBA{R: 160, G: 160, B: 160, A: 255}
	if len(s) != 7 || s[0] != '#' {
		return c
	}
	var r, g, b uint8
	if _, err := fmt.Sscanf(s[1:], "%02x%02x%02x", &r, &g, &b); err != nil {
		return c
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
