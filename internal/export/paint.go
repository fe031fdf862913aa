package export

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"

	"golang.org/x/image/draw"
	"golang.org/x/image/vector"

	"github.com/carousel-studio/designer/internal/colors"
	"github.com/carousel-studio/designer/internal/document"
	"github.com/carousel-studio/designer/internal/shapes"
)

// parseColor normalizes a CSS color for the rasterizer. Empty means the
// fallback.
func parseColor(s string, fallback color.NRGBA) (color.NRGBA, error) {
	if s == "" {
		return fallback, nil
	}
	c, err := colors.Parse(s)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("color %q: %w", s, err)
	}
	return c, nil
}

type stop struct {
	c   color.NRGBA
	off float64
}

func gradientStops(g *document.Gradient) ([]stop, error) {
	stops := make([]stop, 0, len(g.Stops))
	for i, s := range g.Stops {
		c, err := parseColor(s.Color, color.NRGBA{A: 255})
		if err != nil {
			return nil, err
		}
		off := s.Offset
		if math.IsNaN(off) {
			off = float64(i) / math.Max(1, float64(len(g.Stops)-1))
		}
		stops = append(stops, stop{c: c, off: math.Max(0, math.Min(1, off))})
	}
	sort.SliceStable(stops, func(i, j int) bool { return stops[i].off < stops[j].off })
	return stops, nil
}

func sampleStops(stops []stop, t float64) color.NRGBA {
	if t <= stops[0].off {
		return stops[0].c
	}
	last := stops[len(stops)-1]
	if t >= last.off {
		return last.c
	}
	for i := 1; i < len(stops); i++ {
		if t <= stops[i].off {
			a, b := stops[i-1], stops[i]
			span := b.off - a.off
			if span <= 0 {
				return b.c
			}
			return colors.Lerp(a.c, b.c, (t-a.off)/span)
		}
	}
	return last.c
}

// gradientImage renders g over a w×h box. Linear gradients follow the CSS
// angle convention (0deg points up, 90deg points right) with the gradient
// line sized so the corners hit the end stops; radial gradients reach the
// farthest corner.
func gradientImage(g *document.Gradient, w, h int) (*image.RGBA, error) {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	if g == nil || len(g.Stops) == 0 || w == 0 || h == 0 {
		return img, nil
	}
	stops, err := gradientStops(g)
	if err != nil {
		return nil, err
	}

	cx, cy := float64(w)/2, float64(h)/2
	rad := g.Angle * math.Pi / 180
	dx, dy := math.Sin(rad), -math.Cos(rad)
	length := math.Abs(float64(w)*dx) + math.Abs(float64(h)*dy)
	radius := math.Hypot(cx, cy)

	for y := 0; y < h; y++ {
		py := float64(y) + 0.5 - cy
		for x := 0; x < w; x++ {
			px := float64(x) + 0.5 - cx
			var t float64
			if g.Type == document.GradientRadial {
				t = math.Hypot(px, py) / math.Max(radius, 1)
			} else {
				t = (px*dx+py*dy)/math.Max(length, 1) + 0.5
			}
			img.Set(x, y, sampleStops(stops, t))
		}
	}
	return img, nil
}

// fitImage scales src into a w×h box using CSS object-fit semantics.
func fitImage(src image.Image, w, h int, fit document.ObjectFit) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	sb := src.Bounds()
	if sb.Empty() || w == 0 || h == 0 {
		return dst
	}
	sw, sh := float64(sb.Dx()), float64(sb.Dy())

	switch fit {
	case document.FitFill:
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, sb, draw.Over, nil)
	case document.FitContain:
		s := math.Min(float64(w)/sw, float64(h)/sh)
		dw, dh := int(math.Round(sw*s)), int(math.Round(sh*s))
		ox, oy := (w-dw)/2, (h-dh)/2
		draw.CatmullRom.Scale(dst, image.Rect(ox, oy, ox+dw, oy+dh), src, sb, draw.Over, nil)
	default:
		// cover: crop the source to the box aspect around its center
		s := math.Max(float64(w)/sw, float64(h)/sh)
		cw, ch := int(math.Round(float64(w)/s)), int(math.Round(float64(h)/s))
		ox, oy := sb.Min.X+(sb.Dx()-cw)/2, sb.Min.Y+(sb.Dy()-ch)/2
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, image.Rect(ox, oy, ox+cw, oy+ch), draw.Over, nil)
	}
	return dst
}

// fillSource returns the paint for a fill over a w×h box, or nil for no fill.
func (r *Rasterizer) fillSource(ctx context.Context, f document.Fill, w, h int) (image.Image, error) {
	switch f.Type {
	case document.FillNone:
		return nil, nil
	case document.FillGradient:
		return gradientImage(f.Gradient, w, h)
	case document.FillImage:
		if f.Image == "" {
			return nil, nil
		}
		img, err := r.images.Resolve(ctx, f.Image)
		if err != nil {
			return nil, fmt.Errorf("fill image: %w", err)
		}
		return fitImage(img, w, h, f.Fit), nil
	default:
		if f.Color == "" {
			return nil, nil
		}
		c, err := parseColor(f.Color, color.NRGBA{})
		if err != nil {
			return nil, err
		}
		return image.NewUniform(c), nil
	}
}

// polygonMask rasterizes polygons into a coverage mask. Polygons are
// oriented first so overlapping pieces union instead of cancelling.
func polygonMask(w, h int, polys [][]shapes.Point) *image.Alpha {
	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return mask
	}
	z := vector.NewRasterizer(w, h)
	z.DrawOp = draw.Src
	for _, p := range polys {
		if len(p) < 3 {
			continue
		}
		p = shapes.Orient(p)
		z.MoveTo(float32(p[0].X), float32(p[0].Y))
		for _, q := range p[1:] {
			z.LineTo(float32(q.X), float32(q.Y))
		}
		z.ClosePath()
	}
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	return mask
}

// strokeMask builds the coverage of a stroked polyline, honoring dashes.
func strokeMask(w, h int, pts []shapes.Point, closed bool, width float64, lineCap document.LineCap, dash []float64) *image.Alpha {
	var polys [][]shapes.Point
	if len(dash) > 0 {
		for _, seg := range shapes.Dash(pts, closed, dash) {
			polys = append(polys, shapes.Stroke(seg, false, width, lineCap)...)
		}
	} else {
		polys = shapes.Stroke(pts, closed, width, lineCap)
	}
	return polygonMask(w, h, polys)
}

// fadeLayer multiplies every premultiplied channel by opacity.
func fadeLayer(img *image.RGBA, opacity float64) {
	if opacity >= 1 {
		return
	}
	a := math.Max(0, opacity)
	for i := range img.Pix {
		img.Pix[i] = uint8(math.Round(float64(img.Pix[i]) * a))
	}
}

func mapPoints(pts []shapes.Point, scale, offset float64) []shapes.Point {
	out := make([]shapes.Point, len(pts))
	for i, p := range pts {
		out[i] = shapes.Point{X: p.X*scale + offset, Y: p.Y*scale + offset}
	}
	return out
}

// scaleDash returns the dash pattern in layer px. Patterns shorter than a
// pixel per cycle render solid.
func scaleDash(dash []float64, scale float64) []float64 {
	if len(dash) == 0 {
		return nil
	}
	out := make([]float64, len(dash))
	total := 0.0
	for i, d := range dash {
		if !finite(d) {
			return nil
		}
		out[i] = d * scale
		total += math.Max(0, out[i])
	}
	if total < 1 {
		return nil
	}
	return out
}
