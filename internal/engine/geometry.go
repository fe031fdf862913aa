package engine

import (
	"math"

	"github.com/carousel-studio/designer/internal/document"
)

// Point is a position in canvas space unless stated otherwise.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) finite() bool {
	return isFinite(p.X) && isFinite(p.Y)
}

// Rect represents an axis-aligned bounding box.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains checks if a point is inside the rect.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width && y >= r.Y && y <= r.Y+r.Height
}

// Enclose returns the smallest rect containing every rect. Degenerate
// rects, such as the zero-height frame of a line, still count.
func Enclose(rects ...Rect) Rect {
	if len(rects) == 0 {
		return Rect{}
	}
	minX, minY := rects[0].X, rects[0].Y
	maxX, maxY := rects[0].X+rects[0].Width, rects[0].Y+rects[0].Height
	for _, r := range rects[1:] {
		minX = min(minX, r.X)
		minY = min(minY, r.Y)
		maxX = max(maxX, r.X+r.Width)
		maxY = max(maxY, r.Y+r.Height)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Center returns the center point of the rect.
func (r Rect) Center() (float64, float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Box returns the unrotated frame of an element.
func Box(el *document.Element) Rect {
	return Rect{X: el.X, Y: el.Y, Width: el.Width, Height: el.Height}
}

// Bounds returns the axis-aligned bounds of an element after rotation.
// Line shapes with a zero-height frame still get a 1px tall box.
func Bounds(el *document.Element) Rect {
	h := el.Height
	if h <= 0 && el.Kind == document.KindShape {
		h = 1
	}
	return ElementMatrix(el).TransformRect(Rect{Width: el.Width, Height: h})
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// normalizeDegrees wraps an angle into [0, 360).
func normalizeDegrees(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	if d >= 360 {
		d = 0
	}
	return d
}

// sanitize repairs numeric fields of an element after a direct edit:
// non-finite values fall back to safe defaults, sizes are non-negative,
// opacity is clamped and rotation wrapped.
func sanitize(el *document.Element) {
	if !isFinite(el.X) {
		el.X = 0
	}
	if !isFinite(el.Y) {
		el.Y = 0
	}
	if !isFinite(el.Width) || el.Width < 0 {
		el.Width = 0
	}
	if !isFinite(el.Height) || el.Height < 0 {
		el.Height = 0
	}
	if !isFinite(el.Opacity) {
		el.Opacity = 1
	}
	el.Opacity = clamp(el.Opacity, 0, 1)
	if !isFinite(el.Rotation) {
		el.Rotation = 0
	}
	el.Rotation = normalizeDegrees(el.Rotation)

	switch el.Kind {
	case document.KindText:
		if el.Text != nil {
			fs := el.Text.Style.FontSize
			if !isFinite(fs) || fs <= 0 {
				fs = minFontSize
			}
			el.Text.Style.FontSize = clamp(fs, minFontSize, maxFontSize)
		}
	case document.KindShape:
		if el.Shape != nil {
			if !isFinite(el.Shape.Stroke.Width) || el.Shape.Stroke.Width < 0 {
				el.Shape.Stroke.Width = 0
			}
			if !isFinite(el.Shape.BorderRadius) || el.Shape.BorderRadius < 0 {
				el.Shape.BorderRadius = 0
			}
		}
	case document.KindImage:
	}
}
