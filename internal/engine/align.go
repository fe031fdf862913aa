package engine

import "sort"

type AlignEdge string

const (
	AlignLeft   AlignEdge = "left"
	AlignCenter AlignEdge = "center"
	AlignRight  AlignEdge = "right"
	AlignTop    AlignEdge = "top"
	AlignMiddle AlignEdge = "middle"
	AlignBottom AlignEdge = "bottom"
)

type Direction string

const (
	Horizontal Direction = "horizontal"
	Vertical   Direction = "vertical"
)

// Align moves the selected unlocked elements to an edge or center line.
// A single element aligns against the canvas, several against their
// combined bounding box.
func (e *Engine) Align(edge AlignEdge) {
	els := e.targets()
	if len(els) == 0 {
		return
	}

	var ref Rect
	if len(els) == 1 {
		ref = Rect{Width: float64(e.tmpl.Size.Width), Height: float64(e.tmpl.Size.Height)}
	} else {
		boxes := make([]Rect, len(els))
		for i, el := range els {
			boxes[i] = Box(el)
		}
		ref = Enclose(boxes...)
	}

	for _, el := range els {
		switch edge {
		case AlignLeft:
			el.X = ref.X
		case AlignCenter:
			el.X = ref.X + ref.Width/2 - el.Width/2
		case AlignRight:
			el.X = ref.X + ref.Width - el.Width
		case AlignTop:
			el.Y = ref.Y
		case AlignMiddle:
			el.Y = ref.Y + ref.Height/2 - el.Height/2
		case AlignBottom:
			el.Y = ref.Y + ref.Height - el.Height
		default:
			return
		}
	}
	e.commit()
}

// Distribute lays the selected unlocked elements out along an axis so each
// one starts gap px after the end of the previous. The element closest to
// the origin stays in place.
func (e *Engine) Distribute(dir Direction, gap float64) {
	if dir != Horizontal && dir != Vertical {
		return
	}
	if !isFinite(gap) {
		return
	}
	els := e.targets()
	if len(els) < 2 {
		return
	}

	pos := func(i int) *float64 {
		if dir == Horizontal {
			return &els[i].X
		}
		return &els[i].Y
	}
	size := func(i int) float64 {
		if dir == Horizontal {
			return els[i].Width
		}
		return els[i].Height
	}
	sort.SliceStable(els, func(a, b int) bool {
		if dir == Horizontal {
			return els[a].X < els[b].X
		}
		return els[a].Y < els[b].Y
	})

	for i := 1; i < len(els); i++ {
		*pos(i) = *pos(i-1) + size(i-1) + gap
	}
	e.commit()
}
