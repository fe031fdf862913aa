package engine

import (
	"encoding/json"
	"math"

	"github.com/carousel-studio/designer/internal/document"
	"github.com/carousel-studio/designer/internal/pattern"
	"github.com/carousel-studio/designer/internal/shapes"
)

// DrawCommand represents a single drawing operation for the frontend to execute.
// The frontend receives a list of these and executes them on a Canvas2D context.
type DrawCommand struct {
	Op          string        `json:"op"`                    // "rect", "path", "text", "icon", "image", "guide"
	ObjectID    string        `json:"objectId,omitempty"`    // For hit correlation
	Transform   []float64     `json:"transform,omitempty"`   // [a, b, c, d, e, f] affine matrix
	Path        []PathCommand `json:"path,omitempty"`        // Path data for "path" ops
	Width       float64       `json:"width,omitempty"`       // Local box width for rect/text/image
	Height      float64       `json:"height,omitempty"`      // Local box height for rect/text/image
	Fill        *Paint        `json:"fill,omitempty"`        // Fill paint
	Stroke      string        `json:"stroke,omitempty"`      // Stroke color
	StrokeWidth float64       `json:"strokeWidth,omitempty"` // Stroke width
	LineCap     string        `json:"lineCap,omitempty"`
	Dash        []float64     `json:"dash,omitempty"`
	Opacity     float64       `json:"opacity,omitempty"` // Global alpha
	Text        *TextRun      `json:"text,omitempty"`
	ImageSrc    string        `json:"imageSrc,omitempty"`
	Fit         string        `json:"fit,omitempty"`
}

// PathCommand represents a single path segment for rendering.
// Format matches Canvas2D: ["M", x, y], ["L", x, y], ["Z"].
type PathCommand []interface{}

// Paint describes how a region is filled.
type Paint struct {
	Type     string             `json:"type"` // "solid", "gradient", "image", "pattern"
	Color    string             `json:"color,omitempty"`
	Gradient *document.Gradient `json:"gradient,omitempty"`
	Image    string             `json:"image,omitempty"`
	Fit      string             `json:"fit,omitempty"`
	Pattern  *pattern.Tile      `json:"pattern,omitempty"`
}

// TextRun is a resolved text block. Content already has text-transform
// applied.
type TextRun struct {
	Content       string             `json:"content"`
	FontFamily    string             `json:"fontFamily"`
	FontSize      float64            `json:"fontSize"`
	FontWeight    int                `json:"fontWeight"`
	LineHeight    float64            `json:"lineHeight"`
	LetterSpacing float64            `json:"letterSpacing,omitempty"`
	Align         string             `json:"align"`
	Color         string             `json:"color"`
	Gradient      *document.Gradient `json:"gradient,omitempty"`
	Decoration    string             `json:"decoration,omitempty"`
	Padding       document.Spacing   `json:"padding"`
}

// CompileSlide generates a draw command buffer for a slide.
// Commands are in painter's order (back to front): background first, then
// visible elements by ascending z-index.
func CompileSlide(slide *document.Slide, size document.CanvasSize) []DrawCommand {
	if slide == nil {
		return nil
	}
	commands := []DrawCommand{{
		Op:      "rect",
		Width:   float64(size.Width),
		Height:  float64(size.Height),
		Fill:    backgroundPaint(slide.Background),
		Opacity: 1,
	}}
	if slide.Background.Type == document.BackgroundPattern && slide.Background.Pattern != nil {
		if tile, err := pattern.Describe(*slide.Background.Pattern); err == nil {
			commands = append(commands, DrawCommand{
				Op:      "rect",
				Width:   float64(size.Width),
				Height:  float64(size.Height),
				Fill:    &Paint{Type: "pattern", Pattern: &tile},
				Opacity: 1,
			})
		}
	}

	for _, i := range slide.PaintOrder() {
		el := &slide.Elements[i]
		if !el.Visible {
			continue
		}
		compileElement(el, &commands)
	}
	return commands
}

func compileElement(el *document.Element, commands *[]DrawCommand) {
	transform := ElementMatrix(el).ToSlice()
	base := DrawCommand{ObjectID: el.ID, Transform: transform, Opacity: el.Opacity}

	switch el.Kind {
	case document.KindText:
		t := el.Text
		if t == nil {
			return
		}
		if t.Background != nil && t.Background.Type != document.FillNone {
			cmd := base
			cmd.Op = "path"
			cmd.Path = toPath(shapes.Outline(document.ShapeRectangle, el.Width, el.Height, t.BorderRadius), true)
			cmd.Fill = fillPaint(*t.Background)
			*commands = append(*commands, cmd)
		}
		cmd := base
		cmd.Op = "text"
		cmd.Width, cmd.Height = el.Width, el.Height
		cmd.Text = &TextRun{
			Content:       document.ApplyTextTransform(t.Content, t.Style.Transform),
			FontFamily:    t.Style.FontFamily,
			FontSize:      t.Style.FontSize,
			FontWeight:    t.Style.FontWeight,
			LineHeight:    t.Style.LineHeight,
			LetterSpacing: t.Style.LetterSpacing,
			Align:         string(t.Style.Align),
			Color:         t.Style.Color,
			Gradient:      t.Style.Gradient,
			Decoration:    string(t.Style.Decoration),
			Padding:       t.Padding,
		}
		*commands = append(*commands, cmd)

	case document.KindShape:
		s := el.Shape
		if s == nil {
			return
		}
		if s.IsLine() {
			compileLine(el, base, commands)
			return
		}
		outline := toPath(shapes.Outline(s.Type, el.Width, el.Height, s.BorderRadius), true)
		cmd := base
		cmd.Op = "path"
		cmd.Path = outline
		cmd.Fill = fillPaint(s.Fill)
		*commands = append(*commands, cmd)
		if s.Pattern != nil {
			if tile, err := pattern.Describe(*s.Pattern); err == nil {
				overlay := base
				overlay.Op = "path"
				overlay.Path = outline
				overlay.Fill = &Paint{Type: "pattern", Pattern: &tile}
				*commands = append(*commands, overlay)
			}
		}
		if s.Stroke.Width > 0 && s.Stroke.Color != "" {
			stroke := base
			stroke.Op = "path"
			stroke.Path = outline
			stroke.Stroke = s.Stroke.Color
			stroke.StrokeWidth = s.Stroke.Width
			stroke.LineCap = string(s.Stroke.Cap)
			stroke.Dash = s.Stroke.Dash
			*commands = append(*commands, stroke)
		}
		if s.Sticker != nil && s.Sticker.Icon != "" {
			icon := base
			icon.Op = "icon"
			icon.Width, icon.Height = el.Width, el.Height
			icon.Text = &TextRun{
				Content:  s.Sticker.Icon,
				FontSize: math.Min(el.Width, el.Height) * 0.6,
				Align:    string(document.AlignCenter),
				Color:    s.Sticker.IconColor,
			}
			*commands = append(*commands, icon)
		}

	case document.KindImage:
		if el.Image == nil || el.Image.Src == "" {
			return
		}
		cmd := base
		cmd.Op = "image"
		cmd.Width, cmd.Height = el.Width, el.Height
		cmd.ImageSrc = el.Image.Src
		cmd.Fit = string(el.Image.Fit)
		*commands = append(*commands, cmd)
	}
}

func compileLine(el *document.Element, base DrawCommand, commands *[]DrawCommand) {
	s := el.Shape
	a, b := shapes.LineSegment(el.Width, el.Height)
	line := base
	line.Op = "path"
	line.Path = toPath([]shapes.Point{a, b}, false)
	line.Stroke = s.Stroke.Color
	line.StrokeWidth = s.Stroke.Width
	line.LineCap = string(s.Stroke.Cap)
	line.Dash = s.Stroke.Dash
	*commands = append(*commands, line)

	heads := []struct {
		head     *document.ArrowHead
		tip, end shapes.Point
	}{
		{s.StartArrow, a, b},
		{s.EndArrow, b, a},
	}
	for _, h := range heads {
		if h.head == nil {
			continue
		}
		pts := shapes.ArrowHead(h.tip, h.end, *h.head, s.Stroke.Width)
		if len(pts) == 0 {
			continue
		}
		cmd := base
		cmd.Op = "path"
		if h.head.Style == document.ArrowOpen {
			cmd.Path = toPath(pts, false)
			cmd.Stroke = s.Stroke.Color
			cmd.StrokeWidth = s.Stroke.Width
			cmd.LineCap = string(s.Stroke.Cap)
		} else {
			cmd.Path = toPath(pts, true)
			cmd.Fill = &Paint{Type: "solid", Color: s.Stroke.Color}
		}
		*commands = append(*commands, cmd)
	}
}

func toPath(pts []shapes.Point, closed bool) []PathCommand {
	if len(pts) == 0 {
		return nil
	}
	path := make([]PathCommand, 0, len(pts)+1)
	for i, p := range pts {
		op := "L"
		if i == 0 {
			op = "M"
		}
		path = append(path, PathCommand{op, p.X, p.Y})
	}
	if closed {
		path = append(path, PathCommand{"Z"})
	}
	return path
}

func backgroundPaint(bg document.Background) *Paint {
	switch bg.Type {
	case document.BackgroundGradient:
		return &Paint{Type: "gradient", Color: bg.Color, Gradient: bg.Gradient}
	case document.BackgroundImage:
		return &Paint{Type: "image", Color: bg.Color, Image: bg.Image, Fit: string(bg.Fit)}
	default:
		return &Paint{Type: "solid", Color: bg.Color}
	}
}

func fillPaint(f document.Fill) *Paint {
	switch f.Type {
	case document.FillNone:
		return nil
	case document.FillGradient:
		return &Paint{Type: "gradient", Color: f.Color, Gradient: f.Gradient}
	case document.FillImage:
		return &Paint{Type: "image", Color: f.Color, Image: f.Image, Fit: string(f.Fit)}
	default:
		return &Paint{Type: "solid", Color: f.Color}
	}
}

// GuideCommands returns the snap guide lines for the canvas.
func GuideCommands(g Guides, size document.CanvasSize) []DrawCommand {
	w, h := float64(size.Width), float64(size.Height)
	var out []DrawCommand
	if g.Vertical {
		out = append(out, DrawCommand{Op: "guide", Path: []PathCommand{{"M", w / 2, 0.0}, {"L", w / 2, h}}, Stroke: "#ec4899", StrokeWidth: 1, Opacity: 1})
	}
	if g.Horizontal {
		out = append(out, DrawCommand{Op: "guide", Path: []PathCommand{{"M", 0.0, h / 2}, {"L", w, h / 2}}, Stroke: "#ec4899", StrokeWidth: 1, Opacity: 1})
	}
	return out
}

// DrawCommandsToJSON serializes draw commands to JSON.
func DrawCommandsToJSON(commands []DrawCommand) (string, error) {
	data, err := json.Marshal(commands)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}

// lineHitTolerance widens thin line shapes so they stay clickable.
const lineHitTolerance = 6.0

// HitTest returns the ID of the topmost visible, unlocked element containing
// the canvas point, or an empty string. Rotation is honored by testing in
// the element's local space.
func HitTest(slide *document.Slide, x, y float64) string {
	if slide == nil {
		return ""
	}
	order := slide.PaintOrder()
	for i := len(order) - 1; i >= 0; i-- {
		el := &slide.Elements[order[i]]
		if !el.Visible || el.Locked {
			continue
		}
		lx, ly := ElementMatrix(el).Invert().TransformPoint(x, y)
		if lx < 0 || lx > el.Width {
			continue
		}
		if el.Kind == document.KindShape && el.Shape.IsLine() {
			if math.Abs(ly-el.Height/2) <= math.Max(el.Height/2, lineHitTolerance) {
				return el.ID
			}
			continue
		}
		if ly >= 0 && ly <= el.Height {
			return el.ID
		}
	}
	return ""
}

// SelectionBounds returns the combined rotated bounds of the given elements.
func SelectionBounds(slide *document.Slide, ids []string) Rect {
	var bounds []Rect
	for _, id := range ids {
		el, ok := slide.Element(id)
		if !ok {
			continue
		}
		bounds = append(bounds, Bounds(el))
	}
	return Enclose(bounds...)
}

// RectToJSON serializes a Rect to JSON.
func RectToJSON(r Rect) string {
	data, _ := json.Marshal(r)
	return string(data)
}
