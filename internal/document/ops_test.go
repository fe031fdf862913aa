package document

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewBlankTemplate(t *testing.T) {
	tmpl, err := NewBlankTemplate("", CanvasSize{Preset: SizeStory})
	if err != nil {
		t.Fatal(err)
	}
	if tmpl.Size.Width != 1080 || tmpl.Size.Height != 1920 {
		t.Errorf("size = %+v, want story preset", tmpl.Size)
	}
	if tmpl.Name != "Untitled carousel" {
		t.Errorf("name = %q", tmpl.Name)
	}
	if len(tmpl.Slides) != 1 || len(tmpl.Slides[0].Elements) != 0 {
		t.Fatalf("expected one empty slide, got %+v", tmpl.Slides)
	}
	if err := tmpl.Validate(); err != nil {
		t.Errorf("blank template invalid: %v", err)
	}

	if _, err := NewBlankTemplate("x", CanvasSize{Preset: SizeCustom}); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("expected ErrInvalidSize, got %v", err)
	}
}

func TestCloneIsDeep(t *testing.T) {
	tmpl, err := NewStarterTemplate("gradient")
	if err != nil {
		t.Fatal(err)
	}
	tmpl.Slides[0].Elements = append(tmpl.Slides[0].Elements,
		NewShapeElement(ShapeStar, 10, 10, 50, 50, "#ff0000"))
	tmpl.Margin = &Spacing{Top: 4}

	clone := tmpl.Clone()
	if diff := cmp.Diff(tmpl, clone); diff != "" {
		t.Fatalf("clone differs (-orig +clone):\n%s", diff)
	}

	clone.Slides[0].Background.Gradient.Stops[0].Color = "#000000"
	clone.Slides[0].Elements[0].Text.Content = "changed"
	last := len(clone.Slides[0].Elements) - 1
	clone.Slides[0].Elements[last].Shape.Fill.Color = "#00ff00"
	clone.Margin.Top = 99

	if tmpl.Slides[0].Background.Gradient.Stops[0].Color == "#000000" {
		t.Error("gradient stops shared with clone")
	}
	if tmpl.Slides[0].Elements[0].Text.Content == "changed" {
		t.Error("text payload shared with clone")
	}
	if tmpl.Slides[0].Elements[last].Shape.Fill.Color != "#ff0000" {
		t.Error("shape payload shared with clone")
	}
	if tmpl.Margin.Top != 4 {
		t.Error("margin shared with clone")
	}
}

func TestValidate(t *testing.T) {
	base := func() *Template {
		tmpl, _ := NewBlankTemplate("v", CanvasSize{Preset: SizeSquare})
		tmpl.Slides[0].Elements = []Element{
			NewTextElement("a", 0, 0, 100, 40, 24, "#000000"),
			NewShapeElement(ShapeRectangle, 0, 0, 10, 10, "#000000"),
		}
		return tmpl
	}

	tests := []struct {
		name   string
		mutate func(*Template)
		want   error
	}{
		{"valid", func(*Template) {}, nil},
		{"duplicate element id", func(tm *Template) {
			tm.Slides[0].Elements[1].ID = tm.Slides[0].Elements[0].ID
		}, ErrDuplicateID},
		{"kind mismatch", func(tm *Template) {
			tm.Slides[0].Elements[0].Kind = KindImage
		}, ErrKindMismatch},
		{"two payloads", func(tm *Template) {
			tm.Slides[0].Elements[1].Text = &TextProps{}
		}, ErrKindMismatch},
		{"singleton group", func(tm *Template) {
			tm.Slides[0].Elements[0].GroupID = "group-1"
		}, ErrSingletonGroup},
		{"zero size", func(tm *Template) {
			tm.Size.Width = 0
		}, ErrInvalidSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl := base()
			tt.mutate(tmpl)
			err := tmpl.Validate()
			if tt.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPaintOrderKeepsArrayOrderOnTies(t *testing.T) {
	s := Slide{Elements: []Element{
		{ID: "a", ZIndex: 2},
		{ID: "b", ZIndex: 1},
		{ID: "c", ZIndex: 2},
		{ID: "d", ZIndex: 0},
	}}
	if diff := cmp.Diff([]int{3, 1, 0, 2}, s.PaintOrder()); diff != "" {
		t.Errorf("paint order (-want +got):\n%s", diff)
	}
	if s.MaxZIndex() != 2 || s.MinZIndex() != 0 {
		t.Errorf("z range = %d..%d", s.MinZIndex(), s.MaxZIndex())
	}
	empty := Slide{}
	if empty.MaxZIndex() != -1 || empty.MinZIndex() != 0 {
		t.Error("unexpected z range for an empty slide")
	}
}

func TestGroups(t *testing.T) {
	s := Slide{Elements: []Element{
		{ID: "a", GroupID: "group-3"},
		{ID: "b", GroupID: "group-3"},
		{ID: "c", GroupID: "group-7"},
		{ID: "d"},
	}}
	if diff := cmp.Diff([]string{"a", "b"}, s.GroupMembers("group-3")); diff != "" {
		t.Errorf("members (-want +got):\n%s", diff)
	}
	if !NormalizeGroups(&s) {
		t.Fatal("expected the singleton group to be cleared")
	}
	if s.Elements[2].GroupID != "" || s.Elements[0].GroupID != "group-3" {
		t.Errorf("unexpected labels after normalize: %+v", s.Elements)
	}
	if NormalizeGroups(&s) {
		t.Error("second normalize should be a no-op")
	}

	tmpl := &Template{Slides: []Slide{s, {Elements: []Element{{ID: "e", GroupID: "group-12"}, {ID: "f", GroupID: "custom"}}}}}
	if got := tmpl.NextGroupID(); got != "group-13" {
		t.Errorf("NextGroupID = %q, want group-13", got)
	}
	if got := (&Template{}).NextGroupID(); got != GroupPrefix+"1" {
		t.Errorf("NextGroupID on empty = %q", got)
	}
	if _, ok := GroupNumber("group-x"); ok {
		t.Error("non numeric suffix should not parse")
	}
}

func TestApplyTextTransform(t *testing.T) {
	tests := []struct {
		tt   TextTransform
		in   string
		want string
	}{
		{TransformCapitalize, "hello big\nworld", "Hello Big\nWorld"},
		{TransformUppercase, "Mixed", "MIXED"},
		{TransformLowercase, "Mixed", "mixed"},
		{TransformNone, "Mixed", "Mixed"},
		{"", "Mixed", "Mixed"},
	}
	for _, tt := range tests {
		if got := ApplyTextTransform(tt.in, tt.tt); got != tt.want {
			t.Errorf("%s(%q) = %q, want %q", tt.tt, tt.in, got, tt.want)
		}
	}
}

func TestStarters(t *testing.T) {
	list := Starters()
	names := make([]string, len(list))
	for i, s := range list {
		names[i] = s.Name
	}
	if diff := cmp.Diff([]string{"dotted", "gradient", "minimal"}, names); diff != "" {
		t.Errorf("starters (-want +got):\n%s", diff)
	}
	for _, s := range list {
		tmpl, err := NewStarterTemplate(s.Name)
		if err != nil {
			t.Fatalf("%s: %v", s.Name, err)
		}
		if len(tmpl.Slides) != s.Slides {
			t.Errorf("%s: %d slides, want %d", s.Name, len(tmpl.Slides), s.Slides)
		}
		if err := tmpl.Validate(); err != nil {
			t.Errorf("%s: %v", s.Name, err)
		}
	}
	if _, err := NewStarterTemplate("nope"); !errors.Is(err, ErrUnknownStarter) {
		t.Errorf("expected ErrUnknownStarter, got %v", err)
	}
}
