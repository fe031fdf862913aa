package document

import (
	"fmt"
	"sort"
)

// Starter describes a built-in template offered by "choose template".
type Starter struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Size        SizePreset `json:"size"`
	Slides      int        `json:"slides"`
}

type starterBuilder struct {
	meta  Starter
	build func(t *Template)
}

var starters = map[string]starterBuilder{
	"minimal": {
		meta: Starter{Name: "minimal", Description: "White slides with a bold heading and body copy", Size: SizeLinkedIn, Slides: 3},
		build: func(t *Template) {
			buildTitleSlides(t, 3, Background{Type: BackgroundSolid, Color: t.Palette.Background})
		},
	},
	"gradient": {
		meta: Starter{Name: "gradient", Description: "Diagonal brand gradient with light text", Size: SizeSquare, Slides: 3},
		build: func(t *Template) {
			t.Palette = Palette{
				Name:          "Sunset",
				Primary:       "#f97316",
				Secondary:     "#db2777",
				Accent:        "#facc15",
				Background:    "#1f2937",
				Text:          "#ffffff",
				TextSecondary: "#e5e7eb",
			}
			bg := Background{
				Type: BackgroundGradient,
				Gradient: &Gradient{
					Type:  GradientLinear,
					Angle: 135,
					Stops: []GradientStop{
						{Color: t.Palette.Primary, Offset: 0},
						{Color: t.Palette.Secondary, Offset: 1},
					},
				},
			}
			buildTitleSlides(t, 3, bg)
		},
	},
	"dotted": {
		meta: Starter{Name: "dotted", Description: "Dot pattern backdrop with an accent card", Size: SizePortrait, Slides: 4},
		build: func(t *Template) {
			bg := Background{
				Type:    BackgroundPattern,
				Color:   t.Palette.Background,
				Pattern: &Pattern{Type: PatternDots, Color: t.Palette.Primary, Scale: 1, Opacity: 0.15},
			}
			buildTitleSlides(t, 4, bg)
			for i := range t.Slides {
				card := NewShapeElement(ShapeRoundedRectangle, 60, 60, float64(t.Size.Width)-120, float64(t.Size.Height)-120, "#ffffff")
				card.ZIndex = -1
				card.Shape.Stroke = Stroke{Color: t.Palette.Accent, Width: 4, Cap: CapButt}
				t.Slides[i].Elements = append([]Element{card}, t.Slides[i].Elements...)
			}
		},
	},
}

// Starters lists the built-in templates sorted by name.
func Starters() []Starter {
	out := make([]Starter, 0, len(starters))
	for _, s := range starters {
		out = append(out, s.meta)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// NewStarterTemplate instantiates a built-in template with fresh ids.
func NewStarterTemplate(name string) (*Template, error) {
	b, ok := starters[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStarter, name)
	}
	size, _ := PresetSize(b.meta.Size)
	t, err := NewBlankTemplate(name, size)
	if err != nil {
		return nil, err
	}
	t.Slides = nil
	b.build(t)
	return t, nil
}

func buildTitleSlides(t *Template, n int, bg Background) {
	w := float64(t.Size.Width)
	h := float64(t.Size.Height)
	for i := 0; i < n; i++ {
		slide := NewSlide(fmt.Sprintf("Slide %d", i+1), bg.Clone())

		heading := NewTextElement("Your headline here", 100, h*0.3, w-200, 160, 72, t.Palette.Text)
		heading.Text.Style.FontWeight = 700
		heading.Text.Style.FontFamily = t.Fonts.Heading
		heading.ZIndex = 1

		body := NewTextElement("Supporting copy goes here.", 100, h*0.3+200, w-200, 240, 36, t.Palette.TextSecondary)
		body.Text.Style.FontFamily = t.Fonts.Body
		body.ZIndex = 2

		accent := NewShapeElement(ShapeRectangle, 100, h*0.3-40, 120, 12, t.Palette.Accent)
		accent.ZIndex = 3

		slide.Elements = append(slide.Elements, heading, body, accent)
		t.Slides = append(t.Slides, slide)
	}
}
