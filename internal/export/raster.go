package export

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"

	"github.com/carousel-studio/designer/internal/document"
	"github.com/carousel-studio/designer/internal/engine"
	"github.com/carousel-studio/designer/internal/pattern"
	"github.com/carousel-studio/designer/internal/shapes"
)

// ImageResolver loads image sources referenced by a template.
type ImageResolver interface {
	Resolve(ctx context.Context, src string) (image.Image, error)
}

// Rasterizer paints slides into RGBA images. It is safe for concurrent use
// when the resolver is.
type Rasterizer struct {
	images ImageResolver
	fonts  *fontSet
}

func NewRasterizer(images ImageResolver) (*Rasterizer, error) {
	fonts, err := newFontSet()
	if err != nil {
		return nil, err
	}
	return &Rasterizer{images: images, fonts: fonts}, nil
}

// MaxCanvasSide bounds each side of a rendered slide in output px.
const MaxCanvasSide = 8192

// CanvasFits reports whether a size×scale render stays within MaxCanvasSide.
func CanvasFits(size document.CanvasSize, scale float64) bool {
	w := float64(size.Width) * scale
	h := float64(size.Height) * scale
	return w >= 1 && h >= 1 && w <= MaxCanvasSide && h <= MaxCanvasSide
}

var (
	white     = color.NRGBA{255, 255, 255, 255}
	black     = color.NRGBA{0, 0, 0, 255}
	gridColor = color.NRGBA{255, 255, 255, 140}
)

// RenderSlide paints one slide at scale (output px per canvas px).
func (r *Rasterizer) RenderSlide(ctx context.Context, slide *document.Slide, size document.CanvasSize, scale float64, grid bool) (*image.RGBA, error) {
	if !CanvasFits(size, scale) {
		return nil, fmt.Errorf("%w: canvas %dx%d at scale %v exceeds %dpx", ErrInvalidOptions, size.Width, size.Height, scale, MaxCanvasSide)
	}
	w := int(math.Round(float64(size.Width) * scale))
	h := int(math.Round(float64(size.Height) * scale))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))

	if err := r.drawBackground(ctx, dst, slide.Background, scale); err != nil {
		return nil, fmt.Errorf("background: %w", err)
	}

	toPixels := engine.Scale(scale, scale)
	for _, i := range slide.PaintOrder() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		el := &slide.Elements[i]
		if !el.Visible || el.Opacity <= 0 {
			continue
		}
		layer, pad, ls, err := r.elementLayer(ctx, el, scale, layerLimit(w, h))
		if err != nil {
			return nil, fmt.Errorf("element %s: %w", el.ID, err)
		}
		if layer == nil {
			continue
		}
		fadeLayer(layer, el.Opacity)

		// layer px -> local units -> canvas -> output px
		m := toPixels.
			Multiply(engine.ElementMatrix(el)).
			Multiply(engine.Scale(1/ls, 1/ls)).
			Multiply(engine.Translate(-pad, -pad))
		draw.BiLinear.Transform(dst, m.Aff3(), layer, layer.Bounds(), draw.Over, nil)
	}

	if grid {
		drawGrid(dst, scale)
	}
	return dst, nil
}

func (r *Rasterizer) drawBackground(ctx context.Context, dst *image.RGBA, bg document.Background, scale float64) error {
	bounds := dst.Bounds()
	base, err := parseColor(bg.Color, white)
	if err != nil {
		return err
	}

	switch bg.Type {
	case document.BackgroundGradient:
		if bg.Gradient != nil && len(bg.Gradient.Stops) > 0 {
			img, err := gradientImage(bg.Gradient, bounds.Dx(), bounds.Dy())
			if err != nil {
				return err
			}
			draw.Draw(dst, bounds, img, image.Point{}, draw.Src)
			return nil
		}
	case document.BackgroundImage:
		draw.Draw(dst, bounds, image.NewUniform(base), image.Point{}, draw.Src)
		if bg.Image == "" {
			return nil
		}
		src, err := r.images.Resolve(ctx, bg.Image)
		if err != nil {
			return err
		}
		draw.Draw(dst, bounds, fitImage(src, bounds.Dx(), bounds.Dy(), bg.Fit), image.Point{}, draw.Over)
		return nil
	case document.BackgroundPattern:
		draw.Draw(dst, bounds, image.NewUniform(base), image.Point{}, draw.Src)
		if bg.Pattern == nil {
			return nil
		}
		return pattern.Fill(dst, bounds, scaledPattern(*bg.Pattern, scale))
	}
	draw.Draw(dst, bounds, image.NewUniform(base), image.Point{}, draw.Src)
	return nil
}

func scaledPattern(p document.Pattern, scale float64) document.Pattern {
	if p.Scale <= 0 {
		p.Scale = 1
	}
	p.Scale *= scale
	return p
}

// layerLimit is the longest layer side allowed for a w×h output. Elements
// whose layer would be larger are painted at reduced resolution.
func layerLimit(w, h int) float64 {
	return math.Min(MaxCanvasSide, 2*float64(max(w, h)))
}

// elementLayer paints el in its own unrotated space at layer scale ls, which
// equals scale unless the element is too large for limit. The layer has pad
// px of margin on every side so strokes and arrow heads are not clipped.
func (r *Rasterizer) elementLayer(ctx context.Context, el *document.Element, scale, limit float64) (layer *image.RGBA, pad, ls float64, err error) {
	if !finite(el.X, el.Y, el.Width, el.Height, el.Rotation) || el.Width <= 0 || el.Height < 0 {
		return nil, 0, 0, nil
	}
	var overhang float64
	if el.Kind == document.KindShape && el.Shape != nil {
		overhang = shapeOverhang(el.Shape)
		if !finite(overhang) {
			return nil, 0, 0, nil
		}
	}
	ls = scale
	if full := (math.Max(el.Width, el.Height) + 2*overhang) * scale; full > limit {
		ls = scale * limit / full
	}
	if el.Kind == document.KindShape {
		pad = math.Ceil(overhang*ls) + 1
	}
	w := int(math.Ceil(el.Width*ls + 2*pad))
	h := int(math.Ceil(el.Height*ls + 2*pad))
	if w <= 0 || h <= 0 {
		return nil, 0, 0, nil
	}
	layer = image.NewRGBA(image.Rect(0, 0, w, h))

	switch el.Kind {
	case document.KindText:
		err = r.paintText(ctx, layer, el, ls)
	case document.KindShape:
		err = r.paintShape(ctx, layer, el, ls, pad)
	case document.KindImage:
		err = r.paintImage(ctx, layer, el)
	}
	if err != nil {
		return nil, 0, 0, err
	}
	return layer, pad, ls, nil
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// shapeOverhang is how far a shape's ink can reach outside its box.
func shapeOverhang(s *document.ShapeProps) float64 {
	over := s.Stroke.Width / 2
	for _, head := range []*document.ArrowHead{s.StartArrow, s.EndArrow} {
		if head == nil || head.Style == document.ArrowNone {
			continue
		}
		size := head.Size
		if size <= 0 {
			size = math.Max(10, s.Stroke.Width*3)
		}
		over = math.Max(over, size+s.Stroke.Width)
	}
	return over
}

func (r *Rasterizer) paintText(ctx context.Context, layer *image.RGBA, el *document.Element, scale float64) error {
	t := el.Text
	if t == nil {
		return nil
	}
	b := layer.Bounds()

	if t.Background != nil && t.Background.Type != document.FillNone {
		src, err := r.fillSource(ctx, *t.Background, b.Dx(), b.Dy())
		if err != nil {
			return err
		}
		if src != nil {
			outline := mapPoints(shapes.Outline(document.ShapeRectangle, el.Width, el.Height, t.BorderRadius), scale, 0)
			draw.DrawMask(layer, b, src, image.Point{}, polygonMask(b.Dx(), b.Dy(), [][]shapes.Point{outline}), image.Point{}, draw.Over)
		}
	}

	p := t.Padding
	box := image.Rect(
		int(math.Round(p.Left*scale)),
		int(math.Round(p.Top*scale)),
		b.Dx()-int(math.Round(p.Right*scale)),
		b.Dy()-int(math.Round(p.Bottom*scale)),
	)
	if box.Empty() {
		return nil
	}

	mask := image.NewAlpha(b)
	err := r.fonts.drawText(mask, textBlock{
		content:    document.ApplyTextTransform(t.Content, t.Style.Transform),
		size:       t.Style.FontSize * scale,
		bold:       t.Style.FontWeight >= boldWeight,
		lineHeight: t.Style.LineHeight,
		spacing:    t.Style.LetterSpacing * scale,
		align:      t.Style.Align,
		decoration: t.Style.Decoration,
		box:        box,
	})
	if err != nil {
		return err
	}

	var src image.Image
	if t.Style.Gradient != nil && len(t.Style.Gradient.Stops) > 0 {
		src, err = gradientImage(t.Style.Gradient, b.Dx(), b.Dy())
	} else {
		var c color.NRGBA
		c, err = parseColor(t.Style.Color, black)
		src = image.NewUniform(c)
	}
	if err != nil {
		return err
	}
	draw.DrawMask(layer, b, src, image.Point{}, mask, image.Point{}, draw.Over)
	return nil
}

func (r *Rasterizer) paintShape(ctx context.Context, layer *image.RGBA, el *document.Element, scale, pad float64) error {
	s := el.Shape
	if s == nil {
		return nil
	}
	b := layer.Bounds()
	strokeW := s.Stroke.Width * scale
	dash := scaleDash(s.Stroke.Dash, scale)

	if s.IsLine() {
		if strokeW <= 0 {
			return nil
		}
		c, err := parseColor(s.Stroke.Color, black)
		if err != nil {
			return err
		}
		a, e := shapes.LineSegment(el.Width, el.Height)
		seg := mapPoints([]shapes.Point{a, e}, scale, pad)
		mask := strokeMask(b.Dx(), b.Dy(), seg, false, strokeW, s.Stroke.Cap, dash)
		draw.DrawMask(layer, b, image.NewUniform(c), image.Point{}, mask, image.Point{}, draw.Over)

		heads := []struct {
			head     *document.ArrowHead
			tip, end shapes.Point
		}{
			{s.StartArrow, seg[0], seg[1]},
			{s.EndArrow, seg[1], seg[0]},
		}
		for _, hd := range heads {
			if hd.head == nil {
				continue
			}
			head := *hd.head
			head.Size *= scale
			pts := shapes.ArrowHead(hd.tip, hd.end, head, strokeW)
			if len(pts) == 0 {
				continue
			}
			var m *image.Alpha
			if head.Style == document.ArrowOpen {
				m = strokeMask(b.Dx(), b.Dy(), pts, false, strokeW, s.Stroke.Cap, nil)
			} else {
				m = polygonMask(b.Dx(), b.Dy(), [][]shapes.Point{pts})
			}
			draw.DrawMask(layer, b, image.NewUniform(c), image.Point{}, m, image.Point{}, draw.Over)
		}
		return nil
	}

	outline := mapPoints(shapes.Outline(s.Type, el.Width, el.Height, s.BorderRadius), scale, pad)
	if len(outline) < 3 {
		return nil
	}
	area := polygonMask(b.Dx(), b.Dy(), [][]shapes.Point{outline})
	inner := image.Rect(int(pad), int(pad), int(pad+el.Width*scale), int(pad+el.Height*scale))

	src, err := r.fillSource(ctx, s.Fill, inner.Dx(), inner.Dy())
	if err != nil {
		return err
	}
	if src != nil {
		draw.DrawMask(layer, inner, src, image.Point{}, area, inner.Min, draw.Over)
	}

	if s.Pattern != nil {
		tile, err := pattern.Raster(scaledPattern(*s.Pattern, scale))
		if err != nil {
			return err
		}
		draw.DrawMask(layer, b, &pattern.Tiled{Tile: tile, Origin: inner.Min}, image.Point{}, area, image.Point{}, draw.Over)
	}

	if strokeW > 0 && s.Stroke.Color != "" {
		c, err := parseColor(s.Stroke.Color, black)
		if err != nil {
			return err
		}
		mask := strokeMask(b.Dx(), b.Dy(), outline, true, strokeW, s.Stroke.Cap, dash)
		draw.DrawMask(layer, b, image.NewUniform(c), image.Point{}, mask, image.Point{}, draw.Over)
	}

	if s.Sticker != nil && s.Sticker.Icon != "" {
		c, err := parseColor(s.Sticker.IconColor, white)
		if err != nil {
			return err
		}
		size := math.Min(el.Width, el.Height) * 0.6 * scale
		glyph := []rune(s.Sticker.Icon)[:1]
		mask := image.NewAlpha(b)
		top := inner.Min.Y + int(math.Round((float64(inner.Dy())-size*defaultLineHeight)/2))
		err = r.fonts.drawText(mask, textBlock{
			content: string(glyph),
			size:    size,
			bold:    true,
			align:   document.AlignCenter,
			box:     image.Rect(inner.Min.X, top, inner.Max.X, inner.Max.Y),
		})
		if err != nil {
			return err
		}
		draw.DrawMask(layer, b, image.NewUniform(c), image.Point{}, mask, image.Point{}, draw.Over)
	}
	return nil
}

func (r *Rasterizer) paintImage(ctx context.Context, layer *image.RGBA, el *document.Element) error {
	if el.Image == nil || el.Image.Src == "" {
		return nil
	}
	src, err := r.images.Resolve(ctx, el.Image.Src)
	if err != nil {
		return err
	}
	b := layer.Bounds()
	draw.Draw(layer, b, fitImage(src, b.Dx(), b.Dy(), el.Image.Fit), image.Point{}, draw.Src)
	return nil
}

// drawGrid overlays rule-of-thirds guides.
func drawGrid(dst *image.RGBA, scale float64) {
	b := dst.Bounds()
	t := int(math.Max(1, math.Round(scale)))
	src := image.NewUniform(gridColor)
	for i := 1; i <= 2; i++ {
		x := b.Min.X + b.Dx()*i/3
		y := b.Min.Y + b.Dy()*i/3
		draw.Draw(dst, image.Rect(x-t/2, b.Min.Y, x-t/2+t, b.Max.Y), src, image.Point{}, draw.Over)
		draw.Draw(dst, image.Rect(b.Min.X, y-t/2, b.Max.X, y-t/2+t), src, image.Point{}, draw.Over)
	}
}
