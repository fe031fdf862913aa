package engine

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/carousel-studio/designer/internal/colors"
	"github.com/carousel-studio/designer/internal/document"
	"github.com/carousel-studio/designer/internal/generate"
	"github.com/carousel-studio/designer/internal/typeid"
)

const (
	minZoom = 0.05
	maxZoom = 8.0

	duplicateOffset = 20.0
)

// Engine is one editor session: it owns a template, its history and the
// selection. It is driven from a single UI thread and is not safe for
// concurrent use.
type Engine struct {
	tmpl *document.Template

	// pre-scaling template, kept while consecutive size changes happen
	original *document.Template

	active    int
	selection Selection
	history   *History

	// in-progress transform and the pointer queued for the next frame
	op      *operation
	pending *Point

	zoom     float64
	guidesOn bool
	guides   Guides
}

type Option func(*Engine)

// WithHistoryCapacity bounds the number of undo steps.
func WithHistoryCapacity(n int) Option {
	return func(e *Engine) { e.history = NewHistory(n) }
}

// NewEngine creates a new engine with a blank square template loaded.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		history:  NewHistory(DefaultHistoryCapacity),
		zoom:     1,
		guidesOn: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	size, _ := document.PresetSize(document.SizeSquare)
	t, _ := document.NewBlankTemplate("", size)
	e.replace(t)
	return e
}

// --- Commands (frontend → engine) ---

// LoadTemplate replaces the session template with a JSON document.
func (e *Engine) LoadTemplate(data []byte) error {
	var t document.Template
	if err := json.Unmarshal(data, &t); err != nil {
		return fmt.Errorf("decode template: %w", err)
	}
	if len(t.Slides) == 0 {
		t.Slides = []document.Slide{document.NewSlide("Slide 1", document.Background{Type: document.BackgroundSolid, Color: t.Palette.Background})}
	}
	for i := range t.Slides {
		document.NormalizeGroups(&t.Slides[i])
		for j := range t.Slides[i].Elements {
			sanitize(&t.Slides[i].Elements[j])
		}
	}
	if err := t.Validate(); err != nil {
		return err
	}
	e.replace(&t)
	return nil
}

// NewBlank starts a blank template of the given size.
func (e *Engine) NewBlank(size document.CanvasSize) error {
	t, err := document.NewBlankTemplate("", size)
	if err != nil {
		return err
	}
	e.replace(t)
	return nil
}

// NewFromStarter starts from a built-in template.
func (e *Engine) NewFromStarter(name string) error {
	t, err := document.NewStarterTemplate(name)
	if err != nil {
		return err
	}
	e.replace(t)
	return nil
}

func (e *Engine) replace(t *document.Template) {
	e.tmpl = t
	e.original = nil
	e.active = 0
	e.selection.Clear()
	e.op = nil
	e.pending = nil
	e.guides = Guides{}
	_ = e.history.Reset(t)
}

// commit records the current state in history. A state that actually
// changed becomes the new rescale origin.
func (e *Engine) commit() {
	changed, err := e.history.Commit(e.tmpl)
	if err != nil || !changed {
		return
	}
	e.tmpl.Touch()
	e.original = nil
}

// Template returns a deep copy of the session template.
func (e *Engine) Template() *document.Template {
	return e.tmpl.Clone()
}

// TemplateJSON returns the session template as JSON.
func (e *Engine) TemplateJSON() (string, error) {
	data, err := json.Marshal(e.tmpl)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (e *Engine) activeSlide() *document.Slide {
	if e.tmpl == nil || e.active < 0 || e.active >= len(e.tmpl.Slides) {
		return nil
	}
	return &e.tmpl.Slides[e.active]
}

// ActiveSlide returns the index of the slide being edited.
func (e *Engine) ActiveSlide() int {
	return e.active
}

// SetActiveSlide switches the edited slide and clears the selection.
func (e *Engine) SetActiveSlide(i int) {
	if i < 0 || i >= len(e.tmpl.Slides) || i == e.active || e.op != nil {
		return
	}
	e.active = i
	e.selection.Clear()
}

// --- Slides ---

// AddSlide inserts an empty slide after the active one and activates it.
func (e *Engine) AddSlide() {
	bg := document.Background{Type: document.BackgroundSolid, Color: e.tmpl.Palette.Background}
	if s := e.activeSlide(); s != nil {
		bg = s.Background.Clone()
	}
	slide := document.NewSlide(fmt.Sprintf("Slide %d", len(e.tmpl.Slides)+1), bg)
	e.insertSlide(e.active+1, slide)
}

// DuplicateSlide copies slide i with fresh ids right after it.
func (e *Engine) DuplicateSlide(i int) {
	if i < 0 || i >= len(e.tmpl.Slides) {
		return
	}
	dup := e.tmpl.Slides[i].Clone()
	dup.ID = typeid.NewSlideID()
	dup.Name = e.tmpl.Slides[i].Name + " copy"
	for j := range dup.Elements {
		dup.Elements[j].ID = typeid.NewElementID()
	}
	remapGroups(e.tmpl, dup.Elements)
	e.insertSlide(i+1, dup)
}

func (e *Engine) insertSlide(at int, slide document.Slide) {
	if e.op != nil {
		return
	}
	slides := e.tmpl.Slides
	slides = append(slides, document.Slide{})
	copy(slides[at+1:], slides[at:])
	slides[at] = slide
	e.tmpl.Slides = slides
	e.active = at
	e.selection.Clear()
	e.commit()
}

// DeleteSlide removes slide i. The last remaining slide cannot be deleted.
func (e *Engine) DeleteSlide(i int) {
	if e.op != nil || len(e.tmpl.Slides) <= 1 || i < 0 || i >= len(e.tmpl.Slides) {
		return
	}
	e.tmpl.Slides = append(e.tmpl.Slides[:i], e.tmpl.Slides[i+1:]...)
	if e.active >= len(e.tmpl.Slides) || e.active > i {
		e.active--
	}
	if e.active < 0 {
		e.active = 0
	}
	e.selection.Clear()
	e.commit()
}

// MoveSlide moves slide from to position to. The active slide follows.
func (e *Engine) MoveSlide(from, to int) {
	n := len(e.tmpl.Slides)
	if e.op != nil || from < 0 || from >= n || to < 0 || to >= n || from == to {
		return
	}
	activeID := e.tmpl.Slides[e.active].ID
	s := e.tmpl.Slides[from]
	slides := append(e.tmpl.Slides[:from:from], e.tmpl.Slides[from+1:]...)
	slides = append(slides[:to], append([]document.Slide{s}, slides[to:]...)...)
	e.tmpl.Slides = slides
	for i := range slides {
		if slides[i].ID == activeID {
			e.active = i
		}
	}
	e.commit()
}

// --- Elements ---

// AddElement places el on top of the active slide, selects it and returns
// its id. Elements whose payload does not match their kind are rejected.
func (e *Engine) AddElement(el document.Element) string {
	slide := e.activeSlide()
	if slide == nil || e.op != nil {
		return ""
	}
	el = el.Clone()
	if el.ID == "" || e.idInUse(el.ID) {
		el.ID = typeid.NewElementID()
	}
	if el.ValidatePayload() != nil {
		return ""
	}
	el.GroupID = ""
	sanitize(&el)
	el.ZIndex = slide.MaxZIndex() + 1
	slide.Elements = append(slide.Elements, el)
	e.selection.Set(el.ID)
	e.commit()
	return el.ID
}

func (e *Engine) idInUse(id string) bool {
	for si := range e.tmpl.Slides {
		if e.tmpl.Slides[si].FindElement(id) >= 0 {
			return true
		}
	}
	return false
}

// DuplicateElements copies the selected elements, offset slightly, on top
// of the slide and selects the copies. Copied groups get fresh labels.
func (e *Engine) DuplicateElements() {
	slide := e.activeSlide()
	if slide == nil || e.op != nil || e.selection.Len() == 0 {
		return
	}
	var copies []document.Element
	for _, i := range slide.PaintOrder() {
		src := slide.Elements[i]
		if !e.selection.Has(src.ID) {
			continue
		}
		c := src.Clone()
		c.ID = typeid.NewElementID()
		c.X += duplicateOffset
		c.Y += duplicateOffset
		c.Locked = false
		copies = append(copies, c)
	}
	if len(copies) == 0 {
		return
	}
	remapGroups(e.tmpl, copies)
	document.NormalizeGroups(&document.Slide{Elements: copies})
	z := slide.MaxZIndex()
	ids := make([]string, 0, len(copies))
	for i := range copies {
		z++
		copies[i].ZIndex = z
		ids = append(ids, copies[i].ID)
	}
	slide.Elements = append(slide.Elements, copies...)
	e.selection.Set(ids...)
	e.commit()
}

// DeleteElements removes the selected unlocked elements.
func (e *Engine) DeleteElements() {
	slide := e.activeSlide()
	if slide == nil || e.op != nil {
		return
	}
	kept := slide.Elements[:0]
	removed := false
	for _, el := range slide.Elements {
		if e.selection.Has(el.ID) && !el.Locked {
			removed = true
			continue
		}
		kept = append(kept, el)
	}
	if !removed {
		return
	}
	slide.Elements = kept
	document.NormalizeGroups(slide)
	e.selection.Clear()
	e.commit()
}

// UpdateElement applies fn to an unlocked element of the active slide.
// With commit false the change is applied without a history entry, for
// continuous edits such as slider drags; a later Commit, or the next Undo,
// records it. The element id and kind cannot be changed through fn.
func (e *Engine) UpdateElement(id string, fn func(el *document.Element), commit bool) {
	slide := e.activeSlide()
	if slide == nil || fn == nil {
		return
	}
	el, ok := slide.Element(id)
	if !ok || el.Locked {
		return
	}
	working := el.Clone()
	fn(&working)
	working.ID, working.Kind, working.GroupID = el.ID, el.Kind, el.GroupID
	if working.ValidatePayload() != nil {
		return
	}
	sanitize(&working)
	*el = working
	e.original = nil
	if commit {
		e.commit()
	}
}

// PatchElement merges a JSON object into an element. A patch that does not
// decode leaves the element untouched.
func (e *Engine) PatchElement(id string, patch []byte, commit bool) error {
	slide := e.activeSlide()
	if slide == nil {
		return fmt.Errorf("%w: %s", document.ErrElementNotFound, id)
	}
	el, ok := slide.Element(id)
	if !ok {
		return fmt.Errorf("%w: %s", document.ErrElementNotFound, id)
	}
	patched := el.Clone()
	if err := json.Unmarshal(patch, &patched); err != nil {
		return fmt.Errorf("decode patch: %w", err)
	}
	e.UpdateElement(id, func(target *document.Element) { *target = patched }, commit)
	return nil
}

// Commit records pending non-committed edits.
func (e *Engine) Commit() {
	if e.op != nil {
		return
	}
	e.commit()
}

// BringToFront raises the selected elements above everything else,
// keeping their relative order.
func (e *Engine) BringToFront() {
	e.restack(func(slide *document.Slide, n int) int { return slide.MaxZIndex() + 1 })
}

// SendToBack lowers the selected elements below everything else,
// keeping their relative order.
func (e *Engine) SendToBack() {
	e.restack(func(slide *document.Slide, n int) int { return slide.MinZIndex() - n })
}

func (e *Engine) restack(start func(slide *document.Slide, n int) int) {
	slide := e.activeSlide()
	if slide == nil || e.op != nil {
		return
	}
	var order []int
	for _, i := range slide.PaintOrder() {
		if e.selection.Has(slide.Elements[i].ID) && !slide.Elements[i].Locked {
			order = append(order, i)
		}
	}
	if len(order) == 0 {
		return
	}
	z := start(slide, len(order))
	for _, i := range order {
		slide.Elements[i].ZIndex = z
		z++
	}
	e.commit()
}

// SetLocked locks or unlocks elements of the active slide. Locked elements
// leave the selection.
func (e *Engine) SetLocked(ids []string, locked bool) {
	slide := e.activeSlide()
	if slide == nil || e.op != nil {
		return
	}
	for _, id := range ids {
		if el, ok := slide.Element(id); ok {
			el.Locked = locked
		}
	}
	if locked {
		e.selection.retain(func(id string) bool {
			el, ok := slide.Element(id)
			return ok && !el.Locked
		})
	}
	e.commit()
}

// SetVisible shows or hides an element.
func (e *Engine) SetVisible(id string, visible bool) {
	slide := e.activeSlide()
	if slide == nil || e.op != nil {
		return
	}
	el, ok := slide.Element(id)
	if !ok {
		return
	}
	el.Visible = visible
	if !visible {
		e.selection.retain(func(sid string) bool { return sid != id })
	}
	e.commit()
}

// SetBackground replaces the background of the active slide.
func (e *Engine) SetBackground(bg document.Background) {
	slide := e.activeSlide()
	if slide == nil || e.op != nil {
		return
	}
	slide.Background = bg.Clone()
	e.commit()
}

// --- Template-wide ---

// SetPalette switches the palette. Element and background colors that
// exactly match the previous primary, secondary or accent color are
// re-tinted to the new palette's counterpart.
func (e *Engine) SetPalette(p document.Palette) {
	if e.op != nil {
		return
	}
	old := e.tmpl.Palette
	pairs := [][2]string{
		{old.Primary, p.Primary},
		{old.Secondary, p.Secondary},
		{old.Accent, p.Accent},
	}
	retint := func(c *string) {
		if *c == "" {
			return
		}
		for _, pair := range pairs {
			if pair[0] != "" && pair[1] != "" && colors.Equal(*c, pair[0]) {
				*c = pair[1]
				return
			}
		}
	}
	retintGradient := func(g *document.Gradient) {
		if g == nil {
			return
		}
		for i := range g.Stops {
			retint(&g.Stops[i].Color)
		}
	}

	for si := range e.tmpl.Slides {
		slide := &e.tmpl.Slides[si]
		retint(&slide.Background.Color)
		retintGradient(slide.Background.Gradient)
		if slide.Background.Pattern != nil {
			retint(&slide.Background.Pattern.Color)
		}
		for ei := range slide.Elements {
			el := &slide.Elements[ei]
			switch el.Kind {
			case document.KindText:
				if el.Text == nil {
					continue
				}
				retint(&el.Text.Style.Color)
				retintGradient(el.Text.Style.Gradient)
				if el.Text.Background != nil {
					retint(&el.Text.Background.Color)
					retintGradient(el.Text.Background.Gradient)
				}
			case document.KindShape:
				if el.Shape == nil {
					continue
				}
				retint(&el.Shape.Fill.Color)
				retintGradient(el.Shape.Fill.Gradient)
				retint(&el.Shape.Stroke.Color)
				if el.Shape.Sticker != nil {
					retint(&el.Shape.Sticker.IconColor)
				}
				if el.Shape.Pattern != nil {
					retint(&el.Shape.Pattern.Color)
				}
			case document.KindImage:
			}
		}
	}
	e.tmpl.Palette = p
	e.commit()
}

// SetSize changes the canvas size. Geometry is always re-derived from the
// template as it was before the first of a run of size changes.
func (e *Engine) SetSize(size document.CanvasSize) error {
	if e.op != nil {
		return nil
	}
	if size.Width <= 0 || size.Height <= 0 {
		preset, ok := document.PresetSize(size.Preset)
		if !ok {
			return fmt.Errorf("%w: %q", document.ErrUnknownPreset, size.Preset)
		}
		size = preset
	}
	if e.original == nil {
		e.original = e.tmpl.Clone()
	}
	scaled := Rescale(e.original, size)
	scaled.ID, scaled.Name = e.tmpl.ID, e.tmpl.Name
	e.tmpl = scaled
	if e.active >= len(e.tmpl.Slides) {
		e.active = len(e.tmpl.Slides) - 1
	}

	// not e.commit: the stored original must survive this entry
	if changed, err := e.history.Commit(e.tmpl); err == nil && changed {
		e.tmpl.Touch()
	}
	return nil
}

// SetZoom sets the screen-to-canvas scale used to interpret pointers.
func (e *Engine) SetZoom(z float64) {
	if !isFinite(z) || z <= 0 {
		return
	}
	e.zoom = clamp(z, minZoom, maxZoom)
}

func (e *Engine) Zoom() float64 { return e.zoom }

// SetGuides enables or disables center snapping during drags.
func (e *Engine) SetGuides(on bool) {
	e.guidesOn = on
	if !on {
		e.guides = Guides{}
	}
}

// --- History ---

// Undo restores the previous committed state. Uncommitted edits are
// committed first so Redo can bring them back.
func (e *Engine) Undo() bool {
	if e.op == nil {
		e.commit()
	}
	return e.travel(e.history.Undo)
}

// Redo re-applies the next committed state.
func (e *Engine) Redo() bool {
	return e.travel(e.history.Redo)
}

func (e *Engine) travel(step func(*document.Template) (bool, error)) bool {
	if e.op != nil {
		return false
	}
	ok, err := step(e.tmpl)
	if err != nil || !ok {
		return false
	}
	e.original = nil
	if e.active >= len(e.tmpl.Slides) {
		e.active = len(e.tmpl.Slides) - 1
	}
	e.pruneSelection()
	e.tmpl.Touch()
	return true
}

func (e *Engine) CanUndo() bool { return e.history.CanUndo() }

func (e *Engine) CanRedo() bool { return e.history.CanRedo() }

// --- Generated content ---

// FillFromGenerated writes generated text into the active slide: the first
// line into the heading (the largest text) and the rest into the body (the
// next text in paint order). Missing text elements are created.
func (e *Engine) FillFromGenerated(text string) {
	slide := e.activeSlide()
	if slide == nil || e.op != nil {
		return
	}
	heading, body := generate.SplitGenerated(text)
	if heading == "" {
		return
	}

	headingIdx, bodyIdx := -1, -1
	for _, i := range slide.PaintOrder() {
		el := &slide.Elements[i]
		if el.Kind != document.KindText || el.Text == nil || el.Locked {
			continue
		}
		if headingIdx < 0 || el.Text.Style.FontSize > slide.Elements[headingIdx].Text.Style.FontSize {
			headingIdx = i
		}
	}
	for _, i := range slide.PaintOrder() {
		el := &slide.Elements[i]
		if i != headingIdx && el.Kind == document.KindText && el.Text != nil && !el.Locked {
			bodyIdx = i
			break
		}
	}

	w, h := float64(e.tmpl.Size.Width), float64(e.tmpl.Size.Height)
	if headingIdx < 0 {
		el := document.NewTextElement(heading, 100, h*0.3, w-200, 160, 72, e.tmpl.Palette.Text)
		el.Text.Style.FontWeight = 700
		el.Text.Style.FontFamily = e.tmpl.Fonts.Heading
		el.ZIndex = slide.MaxZIndex() + 1
		slide.Elements = append(slide.Elements, el)
		headingIdx = len(slide.Elements) - 1
	} else {
		slide.Elements[headingIdx].Text.Content = heading
	}

	if body != "" {
		if bodyIdx < 0 {
			el := document.NewTextElement(body, 100, h*0.3+200, w-200, math.Max(120, h*0.3), 36, e.tmpl.Palette.TextSecondary)
			el.Text.Style.FontFamily = e.tmpl.Fonts.Body
			el.ZIndex = slide.MaxZIndex() + 1
			slide.Elements = append(slide.Elements, el)
		} else {
			slide.Elements[bodyIdx].Text.Content = body
		}
	}
	e.commit()
}

// --- Queries (frontend ← engine) ---

// RenderCommands compiles the active slide plus any snap guides.
func (e *Engine) RenderCommands() []DrawCommand {
	slide := e.activeSlide()
	if slide == nil {
		return nil
	}
	commands := CompileSlide(slide, e.tmpl.Size)
	return append(commands, GuideCommands(e.guides, e.tmpl.Size)...)
}

// Render returns the draw commands of the active slide as JSON.
func (e *Engine) Render() string {
	result, _ := DrawCommandsToJSON(e.RenderCommands())
	return result
}

// HitTest performs a hit test at the given canvas coordinates.
// Returns the element ID of the topmost hit, or empty string.
func (e *Engine) HitTest(x, y float64) string {
	return HitTest(e.activeSlide(), x, y)
}
