package engine

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/carousel-studio/designer/internal/document"
)

func newSquareEngine(t *testing.T) *Engine {
	t.Helper()
	e := NewEngine()
	if err := e.NewBlank(document.CanvasSize{Preset: document.SizeSquare}); err != nil {
		t.Fatalf("NewBlank: %v", err)
	}
	return e
}

func element(t *testing.T, e *Engine, id string) document.Element {
	t.Helper()
	slide := e.activeSlide()
	el, ok := slide.Element(id)
	if !ok {
		t.Fatalf("element %s not found", id)
	}
	return *el
}

func addRect(t *testing.T, e *Engine, x, y, w, h float64) string {
	t.Helper()
	id := e.AddElement(document.NewShapeElement(document.ShapeRectangle, x, y, w, h, "#2563eb"))
	if id == "" {
		t.Fatal("AddElement returned no id")
	}
	return id
}

func TestTextResizeScalesFont(t *testing.T) {
	e := newSquareEngine(t)
	if got := e.Template().Size; got.Width != 1080 || got.Height != 1080 {
		t.Fatalf("blank square size = %+v", got)
	}
	id := e.AddElement(document.NewTextElement("Hello", 100, 100, 200, 50, 24, "#000000"))

	e.BeginResize(id, HandleSE, Point{X: 300, Y: 150}, false)
	e.PointerMove(Point{X: 400, Y: 150})
	e.EndOperation()

	el := element(t, e, id)
	if el.Width != 300 {
		t.Errorf("width = %v, want 300", el.Width)
	}
	if el.Height != 50 {
		t.Errorf("height = %v, want 50", el.Height)
	}
	if el.Text.Style.FontSize != 36 {
		t.Errorf("font size = %v, want 36", el.Text.Style.FontSize)
	}
}

func TestFontScaleInvariant(t *testing.T) {
	tests := []struct {
		name      string
		font      float64
		dx        float64
		frameOnly bool
		want      float64
	}{
		{name: "grow", font: 24, dx: 100, want: 36},
		{name: "shrink", font: 40, dx: -100, want: 20},
		{name: "clamp min", font: 24, dx: -180, want: 8},
		{name: "clamp max", font: 400, dx: 200, want: 500},
		{name: "rounding", font: 25, dx: 33, want: math.Round(25 * 233.0 / 200)},
		{name: "frame only", font: 24, dx: 100, frameOnly: true, want: 24},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newSquareEngine(t)
			id := e.AddElement(document.NewTextElement("x", 100, 100, 200, 50, tt.font, "#000000"))
			e.BeginResize(id, HandleSE, Point{X: 300, Y: 150}, tt.frameOnly)
			e.PointerMove(Point{X: 300 + tt.dx, Y: 150})
			e.EndOperation()

			el := element(t, e, id)
			if el.Text.Style.FontSize != tt.want {
				t.Errorf("font size = %v, want %v", el.Text.Style.FontSize, tt.want)
			}
			if !tt.frameOnly {
				ratio := el.Width / 200
				if want := clamp(math.Round(tt.font*ratio), 8, 500); el.Text.Style.FontSize != want {
					t.Errorf("font %v does not match width ratio %v", el.Text.Style.FontSize, ratio)
				}
			}
		})
	}
}

func TestResizeNWMovesOrigin(t *testing.T) {
	e := newSquareEngine(t)
	id := addRect(t, e, 100, 100, 200, 100)

	e.BeginResize(id, HandleNW, Point{X: 100, Y: 100}, false)
	e.PointerMove(Point{X: 150, Y: 120})
	e.EndOperation()

	el := element(t, e, id)
	want := Rect{X: 150, Y: 120, Width: 150, Height: 80}
	if diff := cmp.Diff(want, Box(&el)); diff != "" {
		t.Errorf("box mismatch (-want +got):\n%s", diff)
	}

	// shrinking past the minimum pins the far corner
	e.BeginResize(id, HandleNW, Point{X: 150, Y: 120}, false)
	e.PointerMove(Point{X: 1000, Y: 1000})
	e.EndOperation()
	el = element(t, e, id)
	want = Rect{X: 280, Y: 180, Width: minElementSize, Height: minElementSize}
	if diff := cmp.Diff(want, Box(&el)); diff != "" {
		t.Errorf("box mismatch (-want +got):\n%s", diff)
	}
}

func TestResizeLineMinimums(t *testing.T) {
	e := newSquareEngine(t)
	id := e.AddElement(document.NewShapeElement(document.ShapeLine, 100, 100, 200, 4, "#000000"))

	e.BeginResize(id, HandleSE, Point{X: 300, Y: 104}, false)
	e.PointerMove(Point{X: 0, Y: 0})
	e.EndOperation()

	el := element(t, e, id)
	if el.Width != minLineWidth || el.Height != minLineHeight {
		t.Errorf("line size = %vx%v, want %vx%v", el.Width, el.Height, minLineWidth, minLineHeight)
	}
}

func TestResizeUnknownHandleIsNoop(t *testing.T) {
	e := newSquareEngine(t)
	id := addRect(t, e, 100, 100, 200, 100)
	e.BeginResize(id, Handle("ne"), Point{X: 300, Y: 100}, false)
	if e.InOperation() {
		t.Fatal("unsupported handle started an operation")
	}
}

func TestDragClampsToVisibleMargin(t *testing.T) {
	e := newSquareEngine(t)
	e.SetGuides(false)
	id := addRect(t, e, 100, 100, 200, 100)

	e.BeginDrag(id, Point{X: 150, Y: 150})
	e.PointerMove(Point{X: -5000, Y: 9000})
	e.EndOperation()

	el := element(t, e, id)
	if el.X != -(200 - visibleMargin) {
		t.Errorf("x = %v, want %v", el.X, -(200 - visibleMargin))
	}
	if el.Y != 1080-visibleMargin {
		t.Errorf("y = %v, want %v", el.Y, 1080-visibleMargin)
	}
}

func TestDragDividesByZoom(t *testing.T) {
	e := newSquareEngine(t)
	e.SetGuides(false)
	e.SetZoom(0.5)
	id := addRect(t, e, 100, 100, 50, 50)

	e.BeginDrag(id, Point{X: 10, Y: 10})
	e.PointerMove(Point{X: 60, Y: 30})
	e.EndOperation()

	el := element(t, e, id)
	if el.X != 200 || el.Y != 140 {
		t.Errorf("position = (%v,%v), want (200,140)", el.X, el.Y)
	}
}

func TestDragSnapsToCenter(t *testing.T) {
	e := newSquareEngine(t)
	id := addRect(t, e, 100, 100, 100, 100)

	e.BeginDrag(id, Point{X: 0, Y: 0})
	// center lands at (537, 300): within 10px of 540 horizontally only
	e.PointerMove(Point{X: 387, Y: 150})
	e.Tick()

	if g := e.Guides(); !g.Vertical || g.Horizontal {
		t.Errorf("guides = %+v, want vertical only", g)
	}
	if cmds := e.RenderCommands(); cmds[len(cmds)-1].Op != "guide" {
		t.Errorf("expected a guide command at the end of the buffer")
	}
	e.EndOperation()

	el := element(t, e, id)
	if el.X != 490 || el.Y != 250 {
		t.Errorf("position = (%v,%v), want (490,250)", el.X, el.Y)
	}
	if g := e.Guides(); g.Vertical || g.Horizontal {
		t.Errorf("guides not cleared after the drag: %+v", g)
	}
}

func TestPointerMovesCoalescePerFrame(t *testing.T) {
	e := newSquareEngine(t)
	e.SetGuides(false)
	id := addRect(t, e, 100, 100, 100, 100)
	before := e.history.Len()

	e.BeginDrag(id, Point{X: 0, Y: 0})
	e.PointerMove(Point{X: 10, Y: 0})
	e.PointerMove(Point{X: 20, Y: 0})
	e.PointerMove(Point{X: 30, Y: 0})
	if el := element(t, e, id); el.X != 100 {
		t.Fatalf("pointer applied before the frame tick: x = %v", el.X)
	}
	if !e.Tick() {
		t.Fatal("Tick reported no change")
	}
	if e.Tick() {
		t.Error("second Tick in the same frame applied again")
	}
	if el := element(t, e, id); el.X != 130 {
		t.Errorf("x = %v, want 130", el.X)
	}
	if e.history.Len() != before {
		t.Error("streaming updates committed to history")
	}

	e.PointerMove(Point{X: 50, Y: 0})
	e.EndOperation()
	if el := element(t, e, id); el.X != 150 {
		t.Errorf("EndOperation did not flush: x = %v", el.X)
	}
	if e.history.Len() != before+1 {
		t.Errorf("history grew by %d, want 1", e.history.Len()-before)
	}
}

func TestNonFinitePointerIgnored(t *testing.T) {
	e := newSquareEngine(t)
	id := addRect(t, e, 100, 100, 100, 100)

	e.BeginDrag(id, Point{X: math.NaN(), Y: 0})
	if e.InOperation() {
		t.Fatal("NaN start pointer began an operation")
	}
	e.BeginDrag(id, Point{X: 0, Y: 0})
	e.PointerMove(Point{X: math.Inf(1), Y: 0})
	e.EndOperation()
	if el := element(t, e, id); el.X != 100 {
		t.Errorf("x = %v, want 100", el.X)
	}
}

func TestLockedElementsIgnoreTransforms(t *testing.T) {
	e := newSquareEngine(t)
	id := addRect(t, e, 100, 100, 100, 100)
	e.SetLocked([]string{id}, true)
	before := e.history.Len()

	e.BeginDrag(id, Point{})
	e.BeginResize(id, HandleSE, Point{}, false)
	e.BeginRotate(id, Point{})
	if e.InOperation() {
		t.Fatal("locked element started an operation")
	}
	e.UpdateElement(id, func(el *document.Element) { el.X = 0 }, true)
	if el := element(t, e, id); el.X != 100 {
		t.Errorf("locked element moved to x = %v", el.X)
	}
	if e.history.Len() != before {
		t.Error("no-op edits grew history")
	}
	if got := e.HitTest(150, 150); got != "" {
		t.Errorf("hit test returned locked element %s", got)
	}
}

func TestRotateSnaps(t *testing.T) {
	tests := []struct {
		name    string
		pointer Point
		want    float64
	}{
		// start pointer is straight right of the center (angle 0)
		{name: "quarter turn", pointer: Point{X: 150, Y: 250}, want: 90},
		{name: "near 45 snaps", pointer: Point{X: 150 + 100*math.Cos(43*math.Pi/180), Y: 150 + 100*math.Sin(43*math.Pi/180)}, want: 45},
		{name: "outside snap range", pointer: Point{X: 150 + 100*math.Cos(30*math.Pi/180), Y: 150 + 100*math.Sin(30*math.Pi/180)}, want: 30},
		{name: "negative wraps", pointer: Point{X: 150 + 100*math.Cos(-30*math.Pi/180), Y: 150 + 100*math.Sin(-30*math.Pi/180)}, want: 330},
		{name: "near full turn", pointer: Point{X: 150 + 100*math.Cos(-2*math.Pi/180), Y: 150 + 100*math.Sin(-2*math.Pi/180)}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newSquareEngine(t)
			id := addRect(t, e, 100, 100, 100, 100)
			e.BeginRotate(id, Point{X: 250, Y: 150})
			e.PointerMove(tt.pointer)
			e.EndOperation()
			got := element(t, e, id).Rotation
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("rotation = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHitTestHonorsRotationAndOrder(t *testing.T) {
	e := newSquareEngine(t)
	bottom := addRect(t, e, 0, 0, 400, 400)
	top := addRect(t, e, 100, 190, 200, 20)
	e.UpdateElement(top, func(el *document.Element) { el.Rotation = 90 }, true)

	// rotated bar now spans x 190..210, y 100..300
	if got := e.HitTest(200, 120); got != top {
		t.Errorf("HitTest(200,120) = %q, want rotated top element", got)
	}
	if got := e.HitTest(120, 200); got != bottom {
		t.Errorf("HitTest(120,200) = %q, want bottom element", got)
	}
	if got := e.HitTest(900, 900); got != "" {
		t.Errorf("HitTest on empty canvas = %q", got)
	}

	e.SetVisible(bottom, false)
	if got := e.HitTest(120, 200); got != "" {
		t.Errorf("hidden element was hit: %q", got)
	}
}

func TestSelectionStateMachine(t *testing.T) {
	e := newSquareEngine(t)
	a := addRect(t, e, 0, 0, 50, 50)
	b := addRect(t, e, 100, 0, 50, 50)
	c := addRect(t, e, 200, 0, 50, 50)

	e.Click(a, false)
	if e.SelectionMode() != SelectSingle {
		t.Fatalf("mode = %s, want single", e.SelectionMode())
	}
	e.Click(b, true)
	if diff := cmp.Diff([]string{a, b}, e.Selection()); diff != "" {
		t.Errorf("selection (-want +got):\n%s", diff)
	}
	e.Click(a, true)
	if diff := cmp.Diff([]string{b}, e.Selection()); diff != "" {
		t.Errorf("toggle off (-want +got):\n%s", diff)
	}

	e.SetSelection([]string{a, b})
	e.Group()
	e.Click(c, false)
	e.Click(a, false)
	if e.SelectionMode() != SelectMulti || len(e.Selection()) != 2 {
		t.Errorf("click on grouped element selected %v", e.Selection())
	}
	e.DoubleClick(a)
	if diff := cmp.Diff([]string{a}, e.Selection()); diff != "" {
		t.Errorf("double click (-want +got):\n%s", diff)
	}
	e.ClickEmpty()
	if e.SelectionMode() != SelectNone {
		t.Errorf("click on empty canvas left %v selected", e.Selection())
	}
	e.SelectAll()
	if len(e.Selection()) != 3 {
		t.Errorf("SelectAll selected %d elements, want 3", len(e.Selection()))
	}
	e.Escape()
	if e.SelectionMode() != SelectNone {
		t.Error("escape did not clear the selection")
	}
}

func TestGroupDragMovesAllMembers(t *testing.T) {
	e := newSquareEngine(t)
	e.SetGuides(false)
	a := addRect(t, e, 100, 100, 100, 100)
	b := addRect(t, e, 400, 300, 80, 60)

	e.SetSelection([]string{a, b})
	e.Group()
	ga, gb := element(t, e, a).GroupID, element(t, e, b).GroupID
	if ga == "" || ga != gb {
		t.Fatalf("group ids = %q, %q", ga, gb)
	}

	e.BeginDrag(a, Point{X: 150, Y: 150})
	e.PointerMove(Point{X: 200, Y: 170})
	e.EndOperation()

	ea, eb := element(t, e, a), element(t, e, b)
	if ea.X-100 != 50 || ea.Y-100 != 20 {
		t.Errorf("dragged element delta = (%v,%v), want (50,20)", ea.X-100, ea.Y-100)
	}
	if eb.X-400 != ea.X-100 || eb.Y-300 != ea.Y-100 {
		t.Errorf("group member delta = (%v,%v), want (%v,%v)", eb.X-400, eb.Y-300, ea.X-100, ea.Y-100)
	}
}

func TestGroupingIdempotence(t *testing.T) {
	e := newSquareEngine(t)
	a := addRect(t, e, 0, 0, 50, 50)
	b := addRect(t, e, 100, 0, 50, 50)

	e.SetSelection([]string{a, b})
	e.Ungroup()
	if element(t, e, a).GroupID != "" || e.history.Len() != 3 {
		t.Error("ungrouping an ungrouped selection changed something")
	}

	e.Group()
	first := element(t, e, a).GroupID
	entries := e.history.Len()
	e.Group()
	if got := element(t, e, a).GroupID; got != first {
		t.Errorf("regrouping changed group id %q -> %q", first, got)
	}
	if e.history.Len() != entries {
		t.Error("regrouping added a history entry")
	}

	e.SetSelection([]string{a})
	e.Group()
	if element(t, e, a).GroupID != first {
		t.Error("grouping a single element had an effect")
	}
}

func TestGroupNumbering(t *testing.T) {
	e := newSquareEngine(t)
	a := addRect(t, e, 0, 0, 50, 50)
	b := addRect(t, e, 100, 0, 50, 50)
	c := addRect(t, e, 200, 0, 50, 50)
	d := addRect(t, e, 300, 0, 50, 50)

	e.SetSelection([]string{a, b})
	e.Group()
	e.SetSelection([]string{c, d})
	e.Group()
	if got := element(t, e, a).GroupID; got != "group-1" {
		t.Errorf("first group = %q", got)
	}
	if got := element(t, e, c).GroupID; got != "group-2" {
		t.Errorf("second group = %q", got)
	}
}

func TestRemoveFromGroupDissolvesSingleton(t *testing.T) {
	e := newSquareEngine(t)
	a := addRect(t, e, 0, 0, 50, 50)
	b := addRect(t, e, 100, 0, 50, 50)
	c := addRect(t, e, 200, 0, 50, 50)
	e.SetSelection([]string{a, b, c})
	e.Group()

	e.RemoveFromGroup(a)
	if element(t, e, a).GroupID != "" || element(t, e, b).GroupID == "" {
		t.Fatal("RemoveFromGroup touched the wrong elements")
	}
	e.RemoveFromGroup(b)
	if element(t, e, c).GroupID != "" {
		t.Error("last member kept a singleton group")
	}
	if err := e.Template().Validate(); err != nil {
		t.Errorf("template invalid after ungrouping: %v", err)
	}
}

func TestUngroupClearsWholeGroup(t *testing.T) {
	e := newSquareEngine(t)
	a := addRect(t, e, 0, 0, 50, 50)
	b := addRect(t, e, 100, 0, 50, 50)
	e.SetSelection([]string{a, b})
	e.Group()

	e.DoubleClick(a)
	e.Ungroup()
	if element(t, e, a).GroupID != "" || element(t, e, b).GroupID != "" {
		t.Error("ungroup left members grouped")
	}
}

func TestAlign(t *testing.T) {
	e := newSquareEngine(t)
	a := addRect(t, e, 100, 100, 100, 50)
	b := addRect(t, e, 300, 200, 200, 50)

	e.SetSelection([]string{a})
	e.Align(AlignLeft)
	if x := element(t, e, a).X; x != 0 {
		t.Errorf("single left align x = %v, want 0", x)
	}
	e.Align(AlignBottom)
	if y := element(t, e, a).Y; y != 1080-50 {
		t.Errorf("single bottom align y = %v, want 1030", y)
	}

	e.UpdateElement(a, func(el *document.Element) { el.X = 100 }, true)
	e.SetSelection([]string{a, b})
	e.Align(AlignCenter)
	ea, eb := element(t, e, a), element(t, e, b)
	ca, cb := ea.X+ea.Width/2, eb.X+eb.Width/2
	if ca != 300 || cb != 300 {
		t.Errorf("centers = %v, %v; want both 300", ca, cb)
	}
}

func TestDistribute(t *testing.T) {
	e := newSquareEngine(t)
	ids := []string{
		addRect(t, e, 0, 0, 50, 50),
		addRect(t, e, 400, 0, 50, 50),
		addRect(t, e, 90, 0, 50, 50),
	}
	e.SetSelection(ids)
	e.Distribute(Horizontal, 10)

	got := []float64{element(t, e, ids[0]).X, element(t, e, ids[2]).X, element(t, e, ids[1]).X}
	if diff := cmp.Diff([]float64{0, 60, 120}, got); diff != "" {
		t.Errorf("positions (-want +got):\n%s", diff)
	}

	entries := e.history.Len()
	e.Distribute(Horizontal, 10)
	if e.history.Len() != entries {
		t.Error("repeating the distribution was not idempotent")
	}

	e.SetSelection(ids[:1])
	e.Distribute(Vertical, 10)
	if e.history.Len() != entries {
		t.Error("distributing a single element had an effect")
	}
}

func TestUndoRedoRoundTrip(t *testing.T) {
	e := newSquareEngine(t)
	initial, _ := encodeSnapshot(e.tmpl)

	id := addRect(t, e, 0, 0, 50, 50)
	e.UpdateElement(id, func(el *document.Element) { el.X = 300 }, true)
	e.SetSelection([]string{id})
	e.DuplicateElements()
	e.AddSlide()
	final, _ := encodeSnapshot(e.tmpl)
	const n = 4

	for i := 0; i < n; i++ {
		if !e.Undo() {
			t.Fatalf("undo %d failed", i+1)
		}
	}
	if e.Undo() {
		t.Error("undo past the first entry succeeded")
	}
	got, _ := encodeSnapshot(e.tmpl)
	if diff := cmp.Diff(string(initial), string(got)); diff != "" {
		t.Errorf("state after undo (-want +got):\n%s", diff)
	}

	for i := 0; i < n; i++ {
		if !e.Redo() {
			t.Fatalf("redo %d failed", i+1)
		}
	}
	got, _ = encodeSnapshot(e.tmpl)
	if diff := cmp.Diff(string(final), string(got)); diff != "" {
		t.Errorf("state after redo (-want +got):\n%s", diff)
	}
}

func TestEditAfterUndoIsRecorded(t *testing.T) {
	e := newSquareEngine(t)
	id := addRect(t, e, 0, 0, 50, 50)
	e.UpdateElement(id, func(el *document.Element) { el.X = 300 }, true)
	e.Undo()

	// the restored state must not swallow an edit back to the undone value
	e.UpdateElement(id, func(el *document.Element) { el.X = 300 }, true)
	if x := element(t, e, id).X; x != 300 {
		t.Fatalf("x = %v", x)
	}
	if e.CanRedo() {
		t.Error("redo branch survived a new edit")
	}
	if !e.Undo() || element(t, e, id).X != 0 {
		t.Error("edit after undo was not recorded")
	}
}

func TestHistoryCapacity(t *testing.T) {
	e := NewEngine(WithHistoryCapacity(3))
	id := e.AddElement(document.NewShapeElement(document.ShapeRectangle, 0, 0, 50, 50, "#000000"))
	for i := 1; i <= 5; i++ {
		x := float64(i * 10)
		e.UpdateElement(id, func(el *document.Element) { el.X = x }, true)
	}
	if e.history.Len() != 3 {
		t.Errorf("history length = %d, want 3", e.history.Len())
	}
	e.Undo()
	e.Undo()
	if e.Undo() {
		t.Error("undo went past the capacity window")
	}
	if x := element(t, e, id).X; x != 30 {
		t.Errorf("oldest reachable x = %v, want 30", x)
	}
}

func TestSetSizeRoundTrip(t *testing.T) {
	e := newSquareEngine(t)
	bg := addRect(t, e, 0, 0, 1080, 1080)
	text := e.AddElement(document.NewTextElement("Hi", 113, 77, 333, 91, 37, "#000000"))
	edge := addRect(t, e, -30, 1000, 200, 150)
	before := e.Template()

	for _, preset := range []document.SizePreset{document.SizeStory, document.SizeLandscape, document.SizePortrait, document.SizeSquare} {
		if err := e.SetSize(document.CanvasSize{Preset: preset}); err != nil {
			t.Fatalf("SetSize(%s): %v", preset, err)
		}
	}
	after := e.Template()
	for _, id := range []string{bg, text, edge} {
		want, _ := before.Slides[0].Element(id)
		got, _ := after.Slides[0].Element(id)
		for name, d := range map[string]float64{
			"x": got.X - want.X, "y": got.Y - want.Y,
			"width": got.Width - want.Width, "height": got.Height - want.Height,
		} {
			if math.Abs(d) > 1 {
				t.Errorf("%s: %s drifted by %v", id, name, d)
			}
		}
	}
	if got, _ := after.Slides[0].Element(text); got.Text.Style.FontSize != 37 {
		t.Errorf("font size drifted to %v", got.Text.Style.FontSize)
	}
}

func TestSetSizeUsesOriginal(t *testing.T) {
	e := newSquareEngine(t)
	id := e.AddElement(document.NewTextElement("Hi", 101, 101, 203, 51, 25, "#000000"))
	original := e.Template()

	e.SetSize(document.CanvasSize{Preset: document.SizePortrait})
	e.SetSize(document.CanvasSize{Preset: document.SizeLandscape})
	chained, _ := e.Template().Slides[0].Element(id)

	direct, _ := Rescale(original, document.CanvasSize{Preset: document.SizeLandscape, Width: 1920, Height: 1080}).Slides[0].Element(id)
	if diff := cmp.Diff(*direct, *chained); diff != "" {
		t.Errorf("chained rescale compounded (-direct +chained):\n%s", diff)
	}
}

func TestEditAfterResizeResetsOriginal(t *testing.T) {
	e := newSquareEngine(t)
	id := addRect(t, e, 100, 100, 100, 100)
	e.SetSize(document.CanvasSize{Preset: document.SizeLandscape})
	e.UpdateElement(id, func(el *document.Element) { el.X = 0 }, true)
	e.SetSize(document.CanvasSize{Preset: document.SizeSquare})

	// the edit survives: scaling 1920x1080 -> 1080x1080 maps x=0 to 0
	if x := element(t, e, id).X; x != 0 {
		t.Errorf("x = %v, want 0", x)
	}
}

func TestSetSizeRejectsUnknownPreset(t *testing.T) {
	e := newSquareEngine(t)
	if err := e.SetSize(document.CanvasSize{Preset: "poster"}); err == nil {
		t.Error("expected an error for an unknown preset")
	}
}

func TestSetPaletteRetints(t *testing.T) {
	e := newSquareEngine(t)
	old := e.Template().Palette
	primary := addRect(t, e, 0, 0, 50, 50)
	e.UpdateElement(primary, func(el *document.Element) { el.Shape.Fill.Color = old.Primary }, true)
	other := addRect(t, e, 100, 0, 50, 50)
	e.UpdateElement(other, func(el *document.Element) { el.Shape.Fill.Color = "#123456" }, true)
	upper := addRect(t, e, 200, 0, 50, 50)
	e.UpdateElement(upper, func(el *document.Element) { el.Shape.Fill.Color = "#F59E0B" }, true)

	next := old
	next.Primary = "#ff0000"
	next.Accent = "#00ff00"
	e.SetPalette(next)

	if c := element(t, e, primary).Shape.Fill.Color; c != "#ff0000" {
		t.Errorf("primary fill = %s, want #ff0000", c)
	}
	if c := element(t, e, other).Shape.Fill.Color; c != "#123456" {
		t.Errorf("unrelated fill changed to %s", c)
	}
	if c := element(t, e, upper).Shape.Fill.Color; c != "#00ff00" {
		t.Errorf("accent fill = %s, want #00ff00", c)
	}
	if e.Template().Palette != next {
		t.Error("palette not replaced")
	}
}

func TestSlideOperations(t *testing.T) {
	e := newSquareEngine(t)
	a := addRect(t, e, 0, 0, 50, 50)
	b := addRect(t, e, 100, 0, 50, 50)
	e.SetSelection([]string{a, b})
	e.Group()

	e.DuplicateSlide(0)
	tmpl := e.Template()
	if len(tmpl.Slides) != 2 || e.ActiveSlide() != 1 {
		t.Fatalf("slides = %d, active = %d", len(tmpl.Slides), e.ActiveSlide())
	}
	if tmpl.Slides[1].ID == tmpl.Slides[0].ID || tmpl.Slides[1].Elements[0].ID == a {
		t.Error("duplicated slide reused ids")
	}
	if g := tmpl.Slides[1].Elements[0].GroupID; g == "" || g == tmpl.Slides[0].Elements[0].GroupID {
		t.Errorf("duplicated group label = %q", g)
	}
	if err := tmpl.Validate(); err != nil {
		t.Errorf("template invalid: %v", err)
	}

	e.AddSlide()
	third := e.Template().Slides[2].ID
	e.MoveSlide(2, 0)
	if e.Template().Slides[0].ID != third || e.ActiveSlide() != 0 {
		t.Error("MoveSlide did not move the active slide")
	}
	e.DeleteSlide(0)
	e.DeleteSlide(0)
	e.DeleteSlide(0)
	if n := len(e.Template().Slides); n != 1 {
		t.Errorf("slides after deleting = %d, want 1", n)
	}
}

func TestDuplicateAndDeleteElements(t *testing.T) {
	e := newSquareEngine(t)
	a := addRect(t, e, 0, 0, 50, 50)
	b := addRect(t, e, 100, 0, 50, 50)
	e.SetSelection([]string{a, b})
	e.Group()

	e.SetSelection([]string{a})
	e.DuplicateElements()
	copies := e.Selection()
	if len(copies) != 1 || copies[0] == a {
		t.Fatalf("selection after duplicate = %v", copies)
	}
	dup := element(t, e, copies[0])
	if dup.X != 20 || dup.Y != 20 || dup.GroupID != "" {
		t.Errorf("duplicate = %+v", dup)
	}
	if dup.ZIndex <= element(t, e, b).ZIndex {
		t.Error("duplicate not placed on top")
	}

	e.SetSelection([]string{a})
	e.DeleteElements()
	if _, ok := e.activeSlide().Element(a); ok {
		t.Fatal("element not deleted")
	}
	if element(t, e, b).GroupID != "" {
		t.Error("deleting a member left a singleton group")
	}
}

func TestZOrder(t *testing.T) {
	e := newSquareEngine(t)
	a := addRect(t, e, 0, 0, 50, 50)
	b := addRect(t, e, 0, 0, 50, 50)
	c := addRect(t, e, 0, 0, 50, 50)

	e.SetSelection([]string{a})
	e.BringToFront()
	if got := e.HitTest(10, 10); got != a {
		t.Errorf("top element = %s, want %s", got, a)
	}
	e.SetSelection([]string{a, b})
	e.SendToBack()
	if got := e.HitTest(10, 10); got != c {
		t.Errorf("top element = %s, want %s", got, c)
	}
}

func TestFillFromGenerated(t *testing.T) {
	e := NewEngine()
	if err := e.NewFromStarter("minimal"); err != nil {
		t.Fatal(err)
	}
	e.FillFromGenerated("Five habits of focused teams\nShip small.\nReview often.")

	var heading, body string
	for _, el := range e.Template().Slides[0].Elements {
		if el.Kind != document.KindText {
			continue
		}
		if el.Text.Style.FontSize == 72 {
			heading = el.Text.Content
		} else {
			body = el.Text.Content
		}
	}
	if heading != "Five habits of focused teams" {
		t.Errorf("heading = %q", heading)
	}
	if body != "Ship small.\nReview often." {
		t.Errorf("body = %q", body)
	}

	blank := newSquareEngine(t)
	blank.FillFromGenerated("Only a title")
	if n := len(blank.Template().Slides[0].Elements); n != 1 {
		t.Errorf("blank slide got %d elements, want 1", n)
	}
}

func TestUpdateElementSanitizes(t *testing.T) {
	e := newSquareEngine(t)
	id := addRect(t, e, 0, 0, 50, 50)
	e.UpdateElement(id, func(el *document.Element) {
		el.Width = -10
		el.Height = math.NaN()
		el.Opacity = 3
		el.Rotation = -90
		el.ID = "hijack"
		el.Kind = document.KindText
	}, true)

	el := element(t, e, id)
	if el.Width != 0 || el.Height != 0 || el.Opacity != 1 || el.Rotation != 270 || el.Kind != document.KindShape {
		t.Errorf("unsanitized element: %+v", el)
	}
}

func TestAddElementRejectsMismatchedPayload(t *testing.T) {
	e := newSquareEngine(t)
	bad := document.NewShapeElement(document.ShapeRectangle, 0, 0, 10, 10, "#000000")
	bad.Kind = document.KindText
	if id := e.AddElement(bad); id != "" {
		t.Errorf("mismatched element was added as %s", id)
	}
}

func TestLoadTemplate(t *testing.T) {
	e := NewEngine()
	if err := e.LoadTemplate([]byte(`{"size":{"preset":"square","width":1080,"height":1080},"slides":[{"id":"s1","elements":[
		{"id":"e1","kind":"shape","x":0,"y":0,"width":10,"height":10,"opacity":1,"visible":true,"groupId":"group-4","shape":{"type":"rectangle","fill":{"type":"solid","color":"#000"}}}
	]}]}`)); err != nil {
		t.Fatalf("LoadTemplate: %v", err)
	}
	if g := element(t, e, "e1").GroupID; g != "" {
		t.Errorf("singleton group %q survived loading", g)
	}
	if err := e.LoadTemplate([]byte(`{"size":{"width":0,"height":0}}`)); err == nil {
		t.Error("expected an error for a zero-size template")
	}
	if err := e.LoadTemplate([]byte(`{`)); err == nil {
		t.Error("expected a decode error")
	}
}

func TestRenderPaintOrder(t *testing.T) {
	e := newSquareEngine(t)
	a := addRect(t, e, 0, 0, 50, 50)
	b := addRect(t, e, 0, 0, 50, 50)
	e.UpdateElement(a, func(el *document.Element) { el.ZIndex = 10 }, true)

	var order []string
	for _, cmd := range e.RenderCommands() {
		if cmd.ObjectID != "" {
			order = append(order, cmd.ObjectID)
		}
	}
	if diff := cmp.Diff([]string{b, a}, order); diff != "" {
		t.Errorf("paint order (-want +got):\n%s", diff)
	}
	if e.Render() == "[]" {
		t.Error("Render returned an empty buffer")
	}
}

func addLine(t *testing.T, e *Engine, x, y, w float64) string {
	t.Helper()
	id := e.AddElement(document.NewShapeElement(document.ShapeLine, x, y, w, 0, "#111827"))
	if id == "" {
		t.Fatal("AddElement returned no id for a line")
	}
	return id
}

func TestAlignCountsZeroHeightLines(t *testing.T) {
	e := newSquareEngine(t)
	rect := addRect(t, e, 100, 100, 100, 50)
	line := addLine(t, e, 600, 400, 200)

	e.SetSelection([]string{rect, line})
	e.Align(AlignRight)
	r, l := element(t, e, rect), element(t, e, line)
	if r.X+r.Width != 800 || l.X+l.Width != 800 {
		t.Errorf("right edges = %v, %v; want both 800", r.X+r.Width, l.X+l.Width)
	}

	e.Align(AlignBottom)
	r, l = element(t, e, rect), element(t, e, line)
	if r.Y+r.Height != 400 || l.Y != 400 {
		t.Errorf("bottom edges = %v, %v; want both 400", r.Y+r.Height, l.Y+l.Height)
	}
}

func TestDistributeWithLines(t *testing.T) {
	e := newSquareEngine(t)
	top := addRect(t, e, 0, 0, 50, 50)
	line := addLine(t, e, 0, 100, 200)
	bottom := addRect(t, e, 0, 300, 50, 50)

	e.SetSelection([]string{bottom, line, top})
	e.Distribute(Vertical, 10)
	got := []float64{element(t, e, top).Y, element(t, e, line).Y, element(t, e, bottom).Y}
	if diff := cmp.Diff([]float64{0, 60, 70}, got); diff != "" {
		t.Errorf("positions (-want +got):\n%s", diff)
	}
}

func TestSelectionBoundsIncludesLines(t *testing.T) {
	e := newSquareEngine(t)
	rect := addRect(t, e, 100, 100, 100, 50)
	line := addLine(t, e, 600, 400, 200)
	e.SetSelection([]string{rect, line})

	b := e.SelectionBounds()
	if b.X != 100 || b.Y != 100 || b.Width != 700 || b.Height < 300 {
		t.Errorf("bounds = %+v", b)
	}
}

func TestPatchElement(t *testing.T) {
	e := newSquareEngine(t)
	id := addRect(t, e, 100, 100, 100, 50)
	entries := e.history.Len()

	if err := e.PatchElement(id, []byte(`{"x": 500, "width": "wide"}`), true); err == nil {
		t.Fatal("expected a decode error")
	}
	if el := element(t, e, id); el.X != 100 || el.Width != 100 {
		t.Errorf("failed patch was applied: x=%v width=%v", el.X, el.Width)
	}
	if e.history.Len() != entries {
		t.Errorf("failed patch recorded history: %d entries, want %d", e.history.Len(), entries)
	}

	if err := e.PatchElement(id, []byte(`{"x": 500, "shape": {"fill": {"color": "#ff0000"}}}`), true); err != nil {
		t.Fatal(err)
	}
	el := element(t, e, id)
	if el.X != 500 || el.Width != 100 || el.Shape.Fill.Color != "#ff0000" || el.Shape.Type != document.ShapeRectangle {
		t.Errorf("patch not merged: %+v %+v", el, el.Shape)
	}
	if e.history.Len() != entries+1 {
		t.Errorf("history entries = %d, want %d", e.history.Len(), entries+1)
	}

	if err := e.PatchElement("el_missing", []byte(`{}`), true); !errors.Is(err, document.ErrElementNotFound) {
		t.Errorf("expected ErrElementNotFound, got %v", err)
	}
}

func TestUndoKeepsUncommittedEdit(t *testing.T) {
	e := newSquareEngine(t)
	id := addRect(t, e, 100, 100, 50, 50)
	e.UpdateElement(id, func(el *document.Element) { el.X = 300 }, false)

	if !e.Undo() {
		t.Fatal("undo failed")
	}
	if x := element(t, e, id).X; x != 100 {
		t.Errorf("x after undo = %v, want 100", x)
	}
	if !e.Redo() {
		t.Fatal("redo failed")
	}
	if x := element(t, e, id).X; x != 300 {
		t.Errorf("x after redo = %v, want the uncommitted 300", x)
	}
}

func TestLoadTemplateDefaultsVisibility(t *testing.T) {
	e := NewEngine()
	if err := e.LoadTemplate([]byte(`{"size":{"preset":"square","width":1080,"height":1080},"slides":[{"id":"s1","elements":[
		{"id":"e1","kind":"shape","x":0,"y":0,"width":10,"height":10,"shape":{"type":"rectangle","fill":{"type":"solid","color":"#000"}}},
		{"id":"e2","kind":"shape","x":0,"y":0,"width":10,"height":10,"visible":false,"opacity":0.5,"shape":{"type":"rectangle","fill":{"type":"solid","color":"#000"}}}
	]}]}`)); err != nil {
		t.Fatalf("LoadTemplate: %v", err)
	}
	if el := element(t, e, "e1"); !el.Visible || el.Opacity != 1 {
		t.Errorf("missing keys: visible=%v opacity=%v, want true 1", el.Visible, el.Opacity)
	}
	if el := element(t, e, "e2"); el.Visible || el.Opacity != 0.5 {
		t.Errorf("explicit keys: visible=%v opacity=%v, want false 0.5", el.Visible, el.Opacity)
	}
}
