package engine

import (
	"math"

	"github.com/carousel-studio/designer/internal/document"
)

const (
	visibleMargin   = 20.0
	snapThreshold   = 10.0
	rotateSnapStep  = 45.0
	rotateSnapRange = 5.0

	minFontSize = 8.0
	maxFontSize = 500.0

	minElementSize = 20.0
	minLineWidth   = 20.0
	minLineHeight  = 2.0
)

type Handle string

const (
	HandleNW Handle = "nw"
	HandleSE Handle = "se"
)

type opKind int

const (
	opDrag opKind = iota + 1
	opResize
	opRotate
)

// Guides reports which canvas center lines the dragged element snapped to.
type Guides struct {
	Vertical   bool `json:"vertical"`
	Horizontal bool `json:"horizontal"`
}

// operation is the state of an in-progress drag, resize or rotate.
type operation struct {
	kind    opKind
	id      string
	pointer Point

	x, y, w, h float64
	rotation   float64
	fontSize   float64

	handle     Handle
	frameOnly  bool
	startAngle float64

	// start positions of other selected elements moved with a drag
	followers map[string]Point
}

// BeginDrag starts moving an element. When the element is selected
// together with others, every selected unlocked element moves with it.
func (e *Engine) BeginDrag(id string, pointer Point) {
	el := e.beginTarget(id, pointer)
	if el == nil {
		return
	}
	op := &operation{kind: opDrag, id: id, pointer: pointer, x: el.X, y: el.Y, w: el.Width, h: el.Height}
	if e.selection.Has(id) && e.selection.Len() > 1 {
		slide := e.activeSlide()
		op.followers = make(map[string]Point)
		for _, sid := range e.selection.ids {
			if sid == id {
				continue
			}
			if f, ok := slide.Element(sid); ok && !f.Locked {
				op.followers[sid] = Point{f.X, f.Y}
			}
		}
	}
	e.op = op
}

// BeginResize starts resizing from one of the two corner handles. With
// frameOnly set, text keeps its font size.
func (e *Engine) BeginResize(id string, handle Handle, pointer Point, frameOnly bool) {
	if handle != HandleNW && handle != HandleSE {
		return
	}
	el := e.beginTarget(id, pointer)
	if el == nil {
		return
	}
	op := &operation{
		kind: opResize, id: id, pointer: pointer,
		x: el.X, y: el.Y, w: el.Width, h: el.Height,
		handle: handle, frameOnly: frameOnly,
	}
	if el.Kind == document.KindText && el.Text != nil {
		op.fontSize = el.Text.Style.FontSize
	}
	e.op = op
}

// BeginRotate starts rotating an element about its center.
func (e *Engine) BeginRotate(id string, pointer Point) {
	el := e.beginTarget(id, pointer)
	if el == nil {
		return
	}
	op := &operation{
		kind: opRotate, id: id, pointer: pointer,
		x: el.X, y: el.Y, w: el.Width, h: el.Height,
		rotation: el.Rotation,
	}
	op.startAngle = e.pointerAngle(op, pointer)
	e.op = op
}

// PointerMove queues the latest pointer position. It is applied by the
// next Tick or by EndOperation, so bursts of moves within one frame
// collapse into a single update.
func (e *Engine) PointerMove(pointer Point) {
	if e.op == nil || !pointer.finite() {
		return
	}
	p := pointer
	e.pending = &p
}

// Tick applies the queued pointer, if any. It reports whether the scene
// changed and should be re-rendered.
func (e *Engine) Tick() bool {
	if e.op == nil || e.pending == nil {
		return false
	}
	p := *e.pending
	e.pending = nil
	e.applyPointer(p)
	return true
}

// EndOperation flushes the queued pointer and records one history entry.
func (e *Engine) EndOperation() {
	if e.op == nil {
		return
	}
	e.Tick()
	e.op = nil
	e.guides = Guides{}
	e.commit()
}

// InOperation reports whether a drag, resize or rotate is in progress.
func (e *Engine) InOperation() bool {
	return e.op != nil
}

// Guides returns the snap guide state of the current drag.
func (e *Engine) Guides() Guides {
	return e.guides
}

func (e *Engine) beginTarget(id string, pointer Point) *document.Element {
	if e.op != nil || !pointer.finite() {
		return nil
	}
	slide := e.activeSlide()
	if slide == nil {
		return nil
	}
	el, ok := slide.Element(id)
	if !ok || el.Locked {
		return nil
	}
	e.pending = nil
	return el
}

func (e *Engine) applyPointer(p Point) {
	slide := e.activeSlide()
	if slide == nil {
		e.op = nil
		return
	}
	el, ok := slide.Element(e.op.id)
	if !ok {
		e.op = nil
		return
	}
	dx := (p.X - e.op.pointer.X) / e.zoom
	dy := (p.Y - e.op.pointer.Y) / e.zoom

	switch e.op.kind {
	case opDrag:
		e.drag(slide, el, dx, dy)
	case opResize:
		e.resize(el, dx, dy)
	case opRotate:
		angle := e.pointerAngle(e.op, p)
		el.Rotation = snapRotation(normalizeDegrees(e.op.rotation + angle - e.op.startAngle))
	}
}

func (e *Engine) drag(slide *document.Slide, el *document.Element, dx, dy float64) {
	cw, ch := float64(e.tmpl.Size.Width), float64(e.tmpl.Size.Height)
	op := e.op

	x := clampVisible(op.x+dx, op.w, cw)
	y := clampVisible(op.y+dy, op.h, ch)

	e.guides = Guides{}
	if e.guidesOn {
		if math.Abs(x+op.w/2-cw/2) < snapThreshold {
			x = cw/2 - op.w/2
			e.guides.Vertical = true
		}
		if math.Abs(y+op.h/2-ch/2) < snapThreshold {
			y = ch/2 - op.h/2
			e.guides.Horizontal = true
		}
	}
	el.X, el.Y = x, y

	moveX, moveY := x-op.x, y-op.y
	for id, start := range op.followers {
		if f, ok := slide.Element(id); ok {
			f.X = start.X + moveX
			f.Y = start.Y + moveY
		}
	}
}

// clampVisible keeps at least visibleMargin px (or the whole element when
// it is smaller) of a span inside [0, canvas].
func clampVisible(pos, size, canvas float64) float64 {
	margin := math.Min(visibleMargin, size)
	return clamp(pos, margin-size, canvas-margin)
}

func (e *Engine) resize(el *document.Element, dx, dy float64) {
	op := e.op
	minW, minH := minElementSize, minElementSize
	if el.Kind == document.KindShape && el.Shape.IsLine() {
		minW, minH = minLineWidth, minLineHeight
	}

	var w, h float64
	switch op.handle {
	case HandleSE:
		w = math.Max(minW, op.w+dx)
		h = math.Max(minH, op.h+dy)
		el.X, el.Y = op.x, op.y
	case HandleNW:
		w = math.Max(minW, op.w-dx)
		h = math.Max(minH, op.h-dy)
		el.X = op.x + op.w - w
		el.Y = op.y + op.h - h
	}
	el.Width, el.Height = w, h

	if el.Kind == document.KindText && el.Text != nil && !op.frameOnly && op.w > 0 {
		el.Text.Style.FontSize = ScaleFontSize(op.fontSize, op.w, w)
	}
}

// ScaleFontSize scales a font size by the width ratio of a text resize,
// rounded and clamped to the supported range.
func ScaleFontSize(fontSize, startWidth, newWidth float64) float64 {
	if startWidth <= 0 {
		return clamp(fontSize, minFontSize, maxFontSize)
	}
	return clamp(math.Round(fontSize*newWidth/startWidth), minFontSize, maxFontSize)
}

// pointerAngle is the angle in degrees from the element center at the
// start of the operation to the pointer, in canvas space.
func (e *Engine) pointerAngle(op *operation, p Point) float64 {
	cx := op.x + op.w/2
	cy := op.y + op.h/2
	return math.Atan2(p.Y/e.zoom-cy, p.X/e.zoom-cx) * 180 / math.Pi
}

// snapRotation snaps to the nearest multiple of 45° when strictly within 5°.
func snapRotation(deg float64) float64 {
	nearest := math.Round(deg/rotateSnapStep) * rotateSnapStep
	if math.Abs(deg-nearest) < rotateSnapRange {
		return normalizeDegrees(nearest)
	}
	return deg
}
