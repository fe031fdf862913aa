// Package pattern turns a background pattern description into a tileable fill:
// an SVG tile (data URL) for the browser canvas and a raster tile for export.
package pattern

import (
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strings"

	"golang.org/x/image/vector"

	"github.com/carousel-studio/designer/internal/colors"
	"github.com/carousel-studio/designer/internal/document"
	"github.com/carousel-studio/designer/internal/shapes"
)

var ErrUnknownPattern = errors.New("unknown pattern type")

const (
	minScale = 0.25
	maxScale = 8
)

// base tile edge in px at scale 1
var baseSize = map[document.PatternType]float64{
	document.PatternDots:         20,
	document.PatternGrid:         24,
	document.PatternLines:        16,
	document.PatternDiagonal:     16,
	document.PatternCross:        24,
	document.PatternCheckerboard: 32,
	document.PatternWaves:        40,
	document.PatternZigzag:       24,
	document.PatternTriangles:    32,
	document.PatternCircles:      32,
}

// figure is one primitive of a tile. Width 0 means filled.
type figure struct {
	points []shapes.Point
	closed bool
	width  float64
}

// Tile is the descriptor handed to the canvas renderer.
type Tile struct {
	Type    document.PatternType `json:"type"`
	Size    float64              `json:"size"`
	Color   string               `json:"color"`
	Opacity float64              `json:"opacity"`
	SVG     string               `json:"svg"`
	DataURL string               `json:"dataUrl"`
}

// Normalize clamps scale and opacity into their valid ranges and defaults
// missing values. Unknown types are rejected.
func Normalize(p document.Pattern) (document.Pattern, error) {
	if _, ok := baseSize[p.Type]; !ok {
		return p, fmt.Errorf("%w: %q", ErrUnknownPattern, p.Type)
	}
	if p.Scale <= 0 || math.IsNaN(p.Scale) {
		p.Scale = 1
	}
	p.Scale = math.Max(minScale, math.Min(maxScale, p.Scale))
	if math.IsNaN(p.Opacity) {
		p.Opacity = 1
	}
	p.Opacity = math.Max(0, math.Min(1, p.Opacity))
	if p.Color == "" {
		p.Color = "#000000"
	}
	return p, nil
}

// TileSize returns the tile edge in px for the pattern.
func TileSize(p document.Pattern) (float64, error) {
	p, err := Normalize(p)
	if err != nil {
		return 0, err
	}
	return baseSize[p.Type] * p.Scale, nil
}

// Describe builds the SVG tile for the pattern. The output is deterministic
// for equal inputs.
func Describe(p document.Pattern) (Tile, error) {
	p, err := Normalize(p)
	if err != nil {
		return Tile{}, err
	}
	c, err := colors.Normalize(p.Color)
	if err != nil {
		return Tile{}, err
	}
	s := baseSize[p.Type] * p.Scale

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s">`, num(s), num(s), num(s), num(s))
	fmt.Fprintf(&b, `<g opacity="%s">`, num(p.Opacity))
	for _, f := range figures(p.Type, s, p.Scale) {
		d := shapes.SVGPath(f.points, f.closed)
		if f.width == 0 {
			fmt.Fprintf(&b, `<path d="%s" fill="%s"/>`, d, c)
			continue
		}
		fmt.Fprintf(&b, `<path d="%s" fill="none" stroke="%s" stroke-width="%s"/>`, d, c, num(f.width))
	}
	b.WriteString(`</g></svg>`)

	svg := b.String()
	return Tile{
		Type:    p.Type,
		Size:    s,
		Color:   c,
		Opacity: p.Opacity,
		SVG:     svg,
		DataURL: "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(svg)),
	}, nil
}

// Raster renders one tile of the pattern. Pixels outside the figures are
// transparent so the tile composites over the base background color.
func Raster(p document.Pattern) (*image.RGBA, error) {
	p, err := Normalize(p)
	if err != nil {
		return nil, err
	}
	c, err := colors.Parse(p.Color)
	if err != nil {
		return nil, err
	}
	s := baseSize[p.Type] * p.Scale
	n := int(math.Max(1, math.Round(s)))

	z := vector.NewRasterizer(n, n)
	z.DrawOp = draw.Src
	for _, f := range figures(p.Type, float64(n), p.Scale) {
		polys := [][]shapes.Point{f.points}
		if f.width > 0 {
			polys = shapes.Stroke(f.points, f.closed, f.width, document.CapButt)
		}
		for _, poly := range polys {
			addPolygon(z, shapes.Orient(poly))
		}
	}
	mask := image.NewAlpha(image.Rect(0, 0, n, n))
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})

	tile := image.NewRGBA(image.Rect(0, 0, n, n))
	draw.DrawMask(tile, tile.Bounds(), image.NewUniform(colors.WithOpacity(c, p.Opacity)), image.Point{}, mask, image.Point{}, draw.Over)
	return tile, nil
}

// Fill tiles the pattern over r in dst, anchored at r.Min.
func Fill(dst draw.Image, r image.Rectangle, p document.Pattern) error {
	tile, err := Raster(p)
	if err != nil {
		return err
	}
	draw.Draw(dst, r, &Tiled{Tile: tile, Origin: r.Min}, r.Min, draw.Over)
	return nil
}

// Tiled repeats a tile infinitely in both directions.
type Tiled struct {
	Tile   *image.RGBA
	Origin image.Point
}

func (t *Tiled) ColorModel() color.Model { return color.RGBAModel }

func (t *Tiled) Bounds() image.Rectangle {
	return image.Rect(-1e9, -1e9, 1e9, 1e9)
}

func (t *Tiled) At(x, y int) color.Color {
	b := t.Tile.Bounds()
	w, h := b.Dx(), b.Dy()
	tx := ((x-t.Origin.X)%w + w) % w
	ty := ((y-t.Origin.Y)%h + h) % h
	return t.Tile.RGBAAt(b.Min.X+tx, b.Min.Y+ty)
}

func addPolygon(z *vector.Rasterizer, pts []shapes.Point) {
	if len(pts) < 3 {
		return
	}
	z.MoveTo(float32(pts[0].X), float32(pts[0].Y))
	for _, p := range pts[1:] {
		z.LineTo(float32(p.X), float32(p.Y))
	}
	z.ClosePath()
}

// figures lays out the primitives of one tile of edge s. Stroke widths grow
// with the pattern scale.
func figures(t document.PatternType, s, scale float64) []figure {
	lw := math.Max(1, scale)
	switch t {
	case document.PatternDots:
		return []figure{{points: circle(s/2, s/2, s*0.1), closed: true}}
	case document.PatternGrid:
		return []figure{
			{points: []shapes.Point{{X: 0, Y: lw / 2}, {X: s, Y: lw / 2}}, width: lw},
			{points: []shapes.Point{{X: lw / 2, Y: 0}, {X: lw / 2, Y: s}}, width: lw},
		}
	case document.PatternLines:
		return []figure{{points: []shapes.Point{{X: 0, Y: s / 2}, {X: s, Y: s / 2}}, width: lw}}
	case document.PatternDiagonal:
		// the corner stubs continue the diagonal across tile seams
		return []figure{
			{points: []shapes.Point{{X: 0, Y: s}, {X: s, Y: 0}}, width: lw},
			{points: []shapes.Point{{X: -s / 4, Y: s / 4}, {X: s / 4, Y: -s / 4}}, width: lw},
			{points: []shapes.Point{{X: s * 3 / 4, Y: s * 5 / 4}, {X: s * 5 / 4, Y: s * 3 / 4}}, width: lw},
		}
	case document.PatternCross:
		arm := s * 0.2
		return []figure{
			{points: []shapes.Point{{X: s/2 - arm, Y: s / 2}, {X: s/2 + arm, Y: s / 2}}, width: lw * 1.5},
			{points: []shapes.Point{{X: s / 2, Y: s/2 - arm}, {X: s / 2, Y: s/2 + arm}}, width: lw * 1.5},
		}
	case document.PatternCheckerboard:
		h := s / 2
		return []figure{
			{points: []shapes.Point{{X: 0, Y: 0}, {X: h, Y: 0}, {X: h, Y: h}, {X: 0, Y: h}}, closed: true},
			{points: []shapes.Point{{X: h, Y: h}, {X: s, Y: h}, {X: s, Y: s}, {X: h, Y: s}}, closed: true},
		}
	case document.PatternWaves:
		const steps = 24
		pts := make([]shapes.Point, 0, steps+1)
		for i := 0; i <= steps; i++ {
			x := s * float64(i) / steps
			pts = append(pts, shapes.Point{X: x, Y: s/2 + math.Sin(2*math.Pi*x/s)*s*0.15})
		}
		return []figure{{points: pts, width: lw * 1.5}}
	case document.PatternZigzag:
		return []figure{{points: []shapes.Point{{X: 0, Y: s * 0.7}, {X: s / 2, Y: s * 0.3}, {X: s, Y: s * 0.7}}, width: lw * 1.5}}
	case document.PatternTriangles:
		return []figure{{points: []shapes.Point{{X: s / 2, Y: s * 0.2}, {X: s * 0.8, Y: s * 0.8}, {X: s * 0.2, Y: s * 0.8}}, closed: true}}
	case document.PatternCircles:
		return []figure{{points: circle(s/2, s/2, s*0.35), closed: true, width: lw}}
	default:
		return nil
	}
}

func circle(cx, cy, r float64) []shapes.Point {
	const n = 24
	pts := make([]shapes.Point, n)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / n
		pts[i] = shapes.Point{X: cx + r*math.Cos(a), Y: cy + r*math.Sin(a)}
	}
	return pts
}

func num(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}
