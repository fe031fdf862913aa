package document

import (
	"encoding/json"
	"time"
)

// Template is the top-level carousel document. It owns its slides exclusively.
type Template struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Size      CanvasSize `json:"size"`
	Slides    []Slide    `json:"slides"`
	Palette   Palette    `json:"palette"`
	Fonts     Fonts      `json:"fonts"`
	Margin    *Spacing   `json:"margin,omitempty"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// UnmarshalJSON decodes a template. Elements that omit "visible" or
// "opacity" come out visible and opaque.
func (t *Template) UnmarshalJSON(data []byte) error {
	type plain Template
	if err := json.Unmarshal(data, (*plain)(t)); err != nil {
		return err
	}
	var present struct {
		Slides []struct {
			Elements []struct {
				Visible *bool    `json:"visible"`
				Opacity *float64 `json:"opacity"`
			} `json:"elements"`
		} `json:"slides"`
	}
	if err := json.Unmarshal(data, &present); err != nil {
		return err
	}
	for i := 0; i < min(len(present.Slides), len(t.Slides)); i++ {
		els := t.Slides[i].Elements
		for j, p := range present.Slides[i].Elements {
			if j >= len(els) {
				break
			}
			if p.Visible == nil {
				els[j].Visible = true
			}
			if p.Opacity == nil {
				els[j].Opacity = 1
			}
		}
	}
	return nil
}

type SizePreset string

const (
	SizeSquare    SizePreset = "square"
	SizePortrait  SizePreset = "portrait"
	SizeStory     SizePreset = "story"
	SizeLandscape SizePreset = "landscape"
	SizeLinkedIn  SizePreset = "linkedin"
	SizeCustom    SizePreset = "custom"
)

type CanvasSize struct {
	Preset SizePreset `json:"preset"`
	Width  int        `json:"width"`
	Height int        `json:"height"`
}

var presetSizes = map[SizePreset]CanvasSize{
	SizeSquare:    {Preset: SizeSquare, Width: 1080, Height: 1080},
	SizePortrait:  {Preset: SizePortrait, Width: 1080, Height: 1350},
	SizeStory:     {Preset: SizeStory, Width: 1080, Height: 1920},
	SizeLandscape: {Preset: SizeLandscape, Width: 1920, Height: 1080},
	SizeLinkedIn:  {Preset: SizeLinkedIn, Width: 1080, Height: 1350},
}

// PresetSize returns the pixel dimensions of a named preset.
func PresetSize(p SizePreset) (CanvasSize, bool) {
	s, ok := presetSizes[p]
	return s, ok
}

// SameDimensions reports whether two sizes differ only by label.
func (s CanvasSize) SameDimensions(other CanvasSize) bool {
	return s.Width == other.Width && s.Height == other.Height
}

type Palette struct {
	Name          string `json:"name"`
	Primary       string `json:"primary"`
	Secondary     string `json:"secondary"`
	Accent        string `json:"accent"`
	Background    string `json:"background"`
	Text          string `json:"text"`
	TextSecondary string `json:"textSecondary"`
}

type Fonts struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

type Spacing struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// Scaled returns the spacing with every side multiplied by f and rounded.
func (s Spacing) Scaled(f float64) Spacing {
	return Spacing{
		Top:    round(s.Top * f),
		Right:  round(s.Right * f),
		Bottom: round(s.Bottom * f),
		Left:   round(s.Left * f),
	}
}

type GradientType string

const (
	GradientLinear GradientType = "linear"
	GradientRadial GradientType = "radial"
)

type GradientStop struct {
	Color  string  `json:"color"`
	Offset float64 `json:"offset"` // 0..1
}

type Gradient struct {
	Type  GradientType   `json:"type"`
	Angle float64        `json:"angle"` // degrees, CSS convention: 0 = to top, 90 = to right
	Stops []GradientStop `json:"stops"`
}

type PatternType string

const (
	PatternDots         PatternType = "dots"
	PatternGrid         PatternType = "grid"
	PatternLines        PatternType = "lines"
	PatternDiagonal     PatternType = "diagonal"
	PatternCross        PatternType = "cross"
	PatternCheckerboard PatternType = "checkerboard"
	PatternWaves        PatternType = "waves"
	PatternZigzag       PatternType = "zigzag"
	PatternTriangles    PatternType = "triangles"
	PatternCircles      PatternType = "circles"
)

type Pattern struct {
	Type    PatternType `json:"type"`
	Color   string      `json:"color"`
	Scale   float64     `json:"scale"`
	Opacity float64     `json:"opacity"`
}

type ObjectFit string

const (
	FitCover   ObjectFit = "cover"
	FitContain ObjectFit = "contain"
	FitFill    ObjectFit = "fill"
)

type BackgroundType string

const (
	BackgroundSolid    BackgroundType = "solid"
	BackgroundGradient BackgroundType = "gradient"
	BackgroundImage    BackgroundType = "image"
	BackgroundPattern  BackgroundType = "pattern"
)

// Background describes a slide backdrop. Color doubles as the base color
// under image and pattern backgrounds.
type Background struct {
	Type     BackgroundType `json:"type"`
	Color    string         `json:"color,omitempty"`
	Gradient *Gradient      `json:"gradient,omitempty"`
	Image    string         `json:"image,omitempty"`
	Fit      ObjectFit      `json:"fit,omitempty"`
	Pattern  *Pattern       `json:"pattern,omitempty"`
}

type FillType string

const (
	FillSolid    FillType = "solid"
	FillGradient FillType = "gradient"
	FillImage    FillType = "image"
	FillNone     FillType = "none"
)

type Fill struct {
	Type     FillType  `json:"type"`
	Color    string    `json:"color,omitempty"`
	Gradient *Gradient `json:"gradient,omitempty"`
	Image    string    `json:"image,omitempty"`
	Fit      ObjectFit `json:"fit,omitempty"`
}

type Slide struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Elements   []Element  `json:"elements"`
	Background Background `json:"background"`
}

type ElementKind string

const (
	KindText  ElementKind = "text"
	KindShape ElementKind = "shape"
	KindImage ElementKind = "image"
)

// Element is one visual object on a slide. Kind selects which of the
// Text, Shape or Image payloads is populated; exactly one must be set.
type Element struct {
	ID       string      `json:"id"`
	Kind     ElementKind `json:"kind"`
	X        float64     `json:"x"`
	Y        float64     `json:"y"`
	Width    float64     `json:"width"`
	Height   float64     `json:"height"`
	Rotation float64     `json:"rotation"`
	Opacity  float64     `json:"opacity"`
	ZIndex   int         `json:"zIndex"`
	Visible  bool        `json:"visible"`
	Locked   bool        `json:"locked"`
	GroupID  string      `json:"groupId,omitempty"`

	Text  *TextProps  `json:"text,omitempty"`
	Shape *ShapeProps `json:"shape,omitempty"`
	Image *ImageProps `json:"image,omitempty"`
}

type TextAlign string

const (
	AlignLeft    TextAlign = "left"
	AlignCenter  TextAlign = "center"
	AlignRight   TextAlign = "right"
	AlignJustify TextAlign = "justify"
)

type TextTransform string

const (
	TransformNone       TextTransform = "none"
	TransformUppercase  TextTransform = "uppercase"
	TransformLowercase  TextTransform = "lowercase"
	TransformCapitalize TextTransform = "capitalize"
)

type TextDecoration string

const (
	DecorationNone        TextDecoration = "none"
	DecorationUnderline   TextDecoration = "underline"
	DecorationLineThrough TextDecoration = "line-through"
)

type TextStyle struct {
	FontFamily    string         `json:"fontFamily"`
	FontSize      float64        `json:"fontSize"`
	FontWeight    int            `json:"fontWeight"`
	LineHeight    float64        `json:"lineHeight"` // multiple of font size
	LetterSpacing float64        `json:"letterSpacing"`
	Align         TextAlign      `json:"align"`
	Color         string         `json:"color"`
	Gradient      *Gradient      `json:"gradient,omitempty"`
	Transform     TextTransform  `json:"textTransform,omitempty"`
	Decoration    TextDecoration `json:"decoration,omitempty"`
}

type TextProps struct {
	Content      string    `json:"content"`
	Style        TextStyle `json:"style"`
	Padding      Spacing   `json:"padding"`
	Margin       Spacing   `json:"margin"`
	Background   *Fill     `json:"background,omitempty"`
	BorderRadius float64   `json:"borderRadius,omitempty"`
}

type ShapeType string

const (
	ShapeRectangle        ShapeType = "rectangle"
	ShapeRoundedRectangle ShapeType = "rounded-rectangle"
	ShapeCircle           ShapeType = "circle"
	ShapeEllipse          ShapeType = "ellipse"
	ShapeTriangle         ShapeType = "triangle"
	ShapeDiamond          ShapeType = "diamond"
	ShapeHexagon          ShapeType = "hexagon"
	ShapeStar             ShapeType = "star"
	ShapeLine             ShapeType = "line"
)

type LineCap string

const (
	CapButt   LineCap = "butt"
	CapRound  LineCap = "round"
	CapSquare LineCap = "square"
)

type Stroke struct {
	Color string    `json:"color,omitempty"`
	Width float64   `json:"width"`
	Cap   LineCap   `json:"cap,omitempty"`
	Dash  []float64 `json:"dash,omitempty"`
}

type ArrowStyle string

const (
	ArrowNone     ArrowStyle = "none"
	ArrowTriangle ArrowStyle = "triangle"
	ArrowOpen     ArrowStyle = "open"
	ArrowCircle   ArrowStyle = "circle"
)

type ArrowHead struct {
	Style ArrowStyle `json:"style"`
	Size  float64    `json:"size"`
}

type Sticker struct {
	Icon      string `json:"icon"`
	IconColor string `json:"iconColor"`
}

type ShapeProps struct {
	Type         ShapeType  `json:"type"`
	Fill         Fill       `json:"fill"`
	Stroke       Stroke     `json:"stroke"`
	StartArrow   *ArrowHead `json:"startArrow,omitempty"`
	EndArrow     *ArrowHead `json:"endArrow,omitempty"`
	BorderRadius float64    `json:"borderRadius,omitempty"`
	Sticker      *Sticker   `json:"sticker,omitempty"`
	Pattern      *Pattern   `json:"pattern,omitempty"`
}

// IsLine reports whether the shape is a line/arrow.
func (s *ShapeProps) IsLine() bool {
	return s != nil && s.Type == ShapeLine
}

type ImageProps struct {
	Src string    `json:"src"`
	Fit ObjectFit `json:"fit"`
}
