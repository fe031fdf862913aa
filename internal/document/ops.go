package document

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/carousel-studio/designer/internal/typeid"
)

var (
	ErrInvalidSize     = errors.New("canvas size must be positive")
	ErrDuplicateID     = errors.New("duplicate id")
	ErrKindMismatch    = errors.New("element payload does not match kind")
	ErrSingletonGroup  = errors.New("group has a single member")
	ErrUnknownPreset   = errors.New("unknown size preset")
	ErrUnknownStarter  = errors.New("unknown starter template")
	ErrElementNotFound = errors.New("element not found")
)

// GroupPrefix prefixes every group label.
const GroupPrefix = "group-"

func round(v float64) float64 {
	return math.Round(v)
}

// NewBlankTemplate creates a template with a single empty slide.
func NewBlankTemplate(name string, size CanvasSize) (*Template, error) {
	if size.Width <= 0 || size.Height <= 0 {
		if preset, ok := PresetSize(size.Preset); ok {
			size = preset
		} else {
			return nil, ErrInvalidSize
		}
	}
	if name == "" {
		name = "Untitled carousel"
	}

	palette := DefaultPalette()
	return &Template{
		ID:      typeid.NewTemplateID(),
		Name:    name,
		Size:    size,
		Palette: palette,
		Fonts:   Fonts{Heading: "Inter", Body: "Inter"},
		Slides: []Slide{
			NewSlide("Slide 1", Background{Type: BackgroundSolid, Color: palette.Background}),
		},
		UpdatedAt: time.Now().UTC(),
	}, nil
}

// NewSlide creates an empty slide with a fresh id.
func NewSlide(name string, bg Background) Slide {
	return Slide{
		ID:         typeid.NewSlideID(),
		Name:       name,
		Elements:   []Element{},
		Background: bg,
	}
}

// DefaultPalette is the palette used by blank templates.
func DefaultPalette() Palette {
	return Palette{
		Name:          "Default",
		Primary:       "#2563eb",
		Secondary:     "#7c3aed",
		Accent:        "#f59e0b",
		Background:    "#ffffff",
		Text:          "#111827",
		TextSecondary: "#4b5563",
	}
}

// NewTextElement creates a visible, unlocked text element.
func NewTextElement(content string, x, y, w, h, fontSize float64, color string) Element {
	return Element{
		ID:      typeid.NewElementID(),
		Kind:    KindText,
		X:       x,
		Y:       y,
		Width:   w,
		Height:  h,
		Opacity: 1,
		Visible: true,
		Text: &TextProps{
			Content: content,
			Style: TextStyle{
				FontFamily: "Inter",
				FontSize:   fontSize,
				FontWeight: 400,
				LineHeight: 1.2,
				Align:      AlignLeft,
				Color:      color,
				Transform:  TransformNone,
				Decoration: DecorationNone,
			},
		},
	}
}

// NewShapeElement creates a visible, unlocked shape with a solid fill.
func NewShapeElement(shape ShapeType, x, y, w, h float64, fill string) Element {
	props := &ShapeProps{
		Type: shape,
		Fill: Fill{Type: FillSolid, Color: fill},
	}
	if shape == ShapeLine {
		props.Fill = Fill{Type: FillNone}
		props.Stroke = Stroke{Color: fill, Width: 4, Cap: CapRound}
	}
	if shape == ShapeRoundedRectangle {
		props.BorderRadius = 16
	}
	return Element{
		ID:      typeid.NewElementID(),
		Kind:    KindShape,
		X:       x,
		Y:       y,
		Width:   w,
		Height:  h,
		Opacity: 1,
		Visible: true,
		Shape:   props,
	}
}

// NewImageElement creates a visible, unlocked image element.
func NewImageElement(src string, x, y, w, h float64) Element {
	return Element{
		ID:      typeid.NewElementID(),
		Kind:    KindImage,
		X:       x,
		Y:       y,
		Width:   w,
		Height:  h,
		Opacity: 1,
		Visible: true,
		Image:   &ImageProps{Src: src, Fit: FitCover},
	}
}

// Clone returns a deep copy of the template.
func (t *Template) Clone() *Template {
	if t == nil {
		return nil
	}
	out := *t
	out.Slides = CloneSlides(t.Slides)
	if t.Margin != nil {
		m := *t.Margin
		out.Margin = &m
	}
	return &out
}

// CloneSlides deep-copies a slide list.
func CloneSlides(slides []Slide) []Slide {
	if slides == nil {
		return nil
	}
	out := make([]Slide, len(slides))
	for i := range slides {
		out[i] = slides[i].Clone()
	}
	return out
}

// Clone returns a deep copy of the slide.
func (s Slide) Clone() Slide {
	out := s
	out.Background = s.Background.Clone()
	out.Elements = make([]Element, len(s.Elements))
	for i := range s.Elements {
		out.Elements[i] = s.Elements[i].Clone()
	}
	return out
}

func (b Background) Clone() Background {
	out := b
	out.Gradient = b.Gradient.Clone()
	out.Pattern = b.Pattern.Clone()
	return out
}

func (g *Gradient) Clone() *Gradient {
	if g == nil {
		return nil
	}
	out := *g
	out.Stops = append([]GradientStop(nil), g.Stops...)
	return &out
}

func (p *Pattern) Clone() *Pattern {
	if p == nil {
		return nil
	}
	out := *p
	return &out
}

func (f Fill) Clone() Fill {
	out := f
	out.Gradient = f.Gradient.Clone()
	return out
}

// Clone returns a deep copy of the element, payload included.
func (e Element) Clone() Element {
	out := e
	switch e.Kind {
	case KindText:
		if e.Text != nil {
			t := *e.Text
			t.Style.Gradient = e.Text.Style.Gradient.Clone()
			if e.Text.Background != nil {
				bg := e.Text.Background.Clone()
				t.Background = &bg
			}
			out.Text = &t
		}
	case KindShape:
		if e.Shape != nil {
			s := *e.Shape
			s.Fill = e.Shape.Fill.Clone()
			s.Stroke.Dash = append([]float64(nil), e.Shape.Stroke.Dash...)
			if e.Shape.StartArrow != nil {
				a := *e.Shape.StartArrow
				s.StartArrow = &a
			}
			if e.Shape.EndArrow != nil {
				a := *e.Shape.EndArrow
				s.EndArrow = &a
			}
			if e.Shape.Sticker != nil {
				st := *e.Shape.Sticker
				s.Sticker = &st
			}
			s.Pattern = e.Shape.Pattern.Clone()
			out.Shape = &s
		}
	case KindImage:
		if e.Image != nil {
			img := *e.Image
			out.Image = &img
		}
	}
	return out
}

// Validate checks the structural invariants of the template.
func (t *Template) Validate() error {
	if t.Size.Width <= 0 || t.Size.Height <= 0 {
		return ErrInvalidSize
	}
	seen := make(map[string]struct{})
	for _, slide := range t.Slides {
		if _, dup := seen[slide.ID]; dup {
			return fmt.Errorf("%w: slide %s", ErrDuplicateID, slide.ID)
		}
		seen[slide.ID] = struct{}{}

		groups := make(map[string]int)
		for _, el := range slide.Elements {
			if _, dup := seen[el.ID]; dup {
				return fmt.Errorf("%w: element %s", ErrDuplicateID, el.ID)
			}
			seen[el.ID] = struct{}{}
			if err := el.ValidatePayload(); err != nil {
				return err
			}
			if el.GroupID != "" {
				groups[el.GroupID]++
			}
		}
		for id, n := range groups {
			if n < 2 {
				return fmt.Errorf("%w: %s on slide %s", ErrSingletonGroup, id, slide.ID)
			}
		}
	}
	return nil
}

func (e Element) ValidatePayload() error {
	var ok bool
	switch e.Kind {
	case KindText:
		ok = e.Text != nil && e.Shape == nil && e.Image == nil
	case KindShape:
		ok = e.Shape != nil && e.Text == nil && e.Image == nil
	case KindImage:
		ok = e.Image != nil && e.Text == nil && e.Shape == nil
	}
	if !ok {
		return fmt.Errorf("%w: element %s (%s)", ErrKindMismatch, e.ID, e.Kind)
	}
	return nil
}

// FindElement returns the index of the element with the given id, or -1.
func (s *Slide) FindElement(id string) int {
	for i := range s.Elements {
		if s.Elements[i].ID == id {
			return i
		}
	}
	return -1
}

// Element returns a pointer to the element with the given id.
func (s *Slide) Element(id string) (*Element, bool) {
	i := s.FindElement(id)
	if i < 0 {
		return nil, false
	}
	return &s.Elements[i], true
}

// PaintOrder returns element indices in ascending z-index, ties broken by
// array order.
func (s *Slide) PaintOrder() []int {
	order := make([]int, len(s.Elements))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return s.Elements[order[a]].ZIndex < s.Elements[order[b]].ZIndex
	})
	return order
}

// MaxZIndex returns the highest z-index on the slide, or -1 when empty.
func (s *Slide) MaxZIndex() int {
	maxZ := -1
	for _, el := range s.Elements {
		if el.ZIndex > maxZ {
			maxZ = el.ZIndex
		}
	}
	return maxZ
}

// MinZIndex returns the lowest z-index on the slide, or 0 when empty.
func (s *Slide) MinZIndex() int {
	if len(s.Elements) == 0 {
		return 0
	}
	minZ := s.Elements[0].ZIndex
	for _, el := range s.Elements[1:] {
		if el.ZIndex < minZ {
			minZ = el.ZIndex
		}
	}
	return minZ
}

// GroupMembers returns the ids of every element labelled with groupID.
// Membership is computed on demand; groups have no backing entity.
func (s *Slide) GroupMembers(groupID string) []string {
	if groupID == "" {
		return nil
	}
	var ids []string
	for _, el := range s.Elements {
		if el.GroupID == groupID {
			ids = append(ids, el.ID)
		}
	}
	return ids
}

// NormalizeGroups clears group labels carried by a single element.
// It returns true when anything changed.
func NormalizeGroups(s *Slide) bool {
	counts := make(map[string]int)
	for _, el := range s.Elements {
		if el.GroupID != "" {
			counts[el.GroupID]++
		}
	}
	changed := false
	for i := range s.Elements {
		if id := s.Elements[i].GroupID; id != "" && counts[id] < 2 {
			s.Elements[i].GroupID = ""
			changed = true
		}
	}
	return changed
}

// GroupNumber parses the numeric suffix of a "group-{n}" label.
func GroupNumber(groupID string) (int, bool) {
	if !strings.HasPrefix(groupID, GroupPrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(groupID, GroupPrefix))
	if err != nil {
		return 0, false
	}
	return n, true
}

// NextGroupID returns group-{max+1} over every group label in the template.
func (t *Template) NextGroupID() string {
	maxN := 0
	for _, slide := range t.Slides {
		for _, el := range slide.Elements {
			if n, ok := GroupNumber(el.GroupID); ok && n > maxN {
				maxN = n
			}
		}
	}
	return GroupPrefix + strconv.Itoa(maxN+1)
}

// Touch stamps the template as modified.
func (t *Template) Touch() {
	t.UpdatedAt = time.Now().UTC()
}

// ApplyTextTransform returns content rendered with the CSS text-transform.
func ApplyTextTransform(content string, tt TextTransform) string {
	switch tt {
	case TransformUppercase:
		return strings.ToUpper(content)
	case TransformLowercase:
		return strings.ToLower(content)
	case TransformCapitalize:
		var b strings.Builder
		start := true
		for _, r := range content {
			if r == ' ' || r == '\n' || r == '\t' {
				start = true
				b.WriteRune(r)
				continue
			}
			if start {
				b.WriteString(strings.ToUpper(string(r)))
				start = false
				continue
			}
			b.WriteRune(r)
		}
		return b.String()
	default:
		return content
	}
}
