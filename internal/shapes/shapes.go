// Package shapes computes outline geometry for shape elements in local
// element space, where (0,0) is the top-left of the unrotated bounding box.
package shapes

import (
	"fmt"
	"math"
	"strings"

	"github.com/carousel-studio/designer/internal/document"
)

type Point struct {
	X float64
	Y float64
}

const (
	ellipseSegments = 64
	cornerSegments  = 8
	starInnerRatio  = 0.382
)

// Outline returns the closed polygon for the shape type sized w×h.
// Lines have no outline; use LineSegment instead.
func Outline(t document.ShapeType, w, h, radius float64) []Point {
	switch t {
	case document.ShapeRectangle:
		if radius > 0 {
			return roundedRect(w, h, radius)
		}
		return []Point{{0, 0}, {w, 0}, {w, h}, {0, h}}
	case document.ShapeRoundedRectangle:
		if radius <= 0 {
			radius = math.Min(w, h) * 0.1
		}
		return roundedRect(w, h, radius)
	case document.ShapeCircle:
		r := math.Min(w, h) / 2
		return ellipse(w/2, h/2, r, r)
	case document.ShapeEllipse:
		return ellipse(w/2, h/2, w/2, h/2)
	case document.ShapeTriangle:
		return []Point{{w / 2, 0}, {w, h}, {0, h}}
	case document.ShapeDiamond:
		return []Point{{w / 2, 0}, {w, h / 2}, {w / 2, h}, {0, h / 2}}
	case document.ShapeHexagon:
		return []Point{{w * 0.25, 0}, {w * 0.75, 0}, {w, h / 2}, {w * 0.75, h}, {w * 0.25, h}, {0, h / 2}}
	case document.ShapeStar:
		return star(w, h, 5)
	case document.ShapeLine:
		return nil
	default:
		return []Point{{0, 0}, {w, 0}, {w, h}, {0, h}}
	}
}

// LineSegment returns the endpoints of a line shape: a horizontal stroke
// through the vertical middle of its box.
func LineSegment(w, h float64) (Point, Point) {
	return Point{0, h / 2}, Point{w, h / 2}
}

func roundedRect(w, h, r float64) []Point {
	r = math.Min(r, math.Min(w, h)/2)
	if r <= 0 {
		return []Point{{0, 0}, {w, 0}, {w, h}, {0, h}}
	}
	corners := []struct {
		cx, cy, start float64
	}{
		{w - r, r, -90},
		{w - r, h - r, 0},
		{r, h - r, 90},
		{r, r, 180},
	}
	pts := make([]Point, 0, 4*(cornerSegments+1))
	for _, c := range corners {
		for i := 0; i <= cornerSegments; i++ {
			a := (c.start + 90*float64(i)/cornerSegments) * math.Pi / 180
			pts = append(pts, Point{c.cx + r*math.Cos(a), c.cy + r*math.Sin(a)})
		}
	}
	return pts
}

func ellipse(cx, cy, rx, ry float64) []Point {
	pts := make([]Point, ellipseSegments)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / ellipseSegments
		pts[i] = Point{cx + rx*math.Cos(a), cy + ry*math.Sin(a)}
	}
	return pts
}

func star(w, h float64, points int) []Point {
	cx, cy := w/2, h/2
	pts := make([]Point, 0, points*2)
	for i := 0; i < points*2; i++ {
		a := -math.Pi/2 + math.Pi*float64(i)/float64(points)
		rx, ry := w/2, h/2
		if i%2 == 1 {
			rx *= starInnerRatio
			ry *= starInnerRatio
		}
		pts = append(pts, Point{cx + rx*math.Cos(a), cy + ry*math.Sin(a)})
	}
	return pts
}

// ArrowHead returns the polygon (or open polyline for ArrowOpen) of an arrow
// head whose tip sits at tip and which points away from from.
func ArrowHead(tip, from Point, head document.ArrowHead, strokeWidth float64) []Point {
	size := head.Size
	if size <= 0 {
		size = math.Max(10, strokeWidth*3)
	}
	angle := math.Atan2(tip.Y-from.Y, tip.X-from.X)
	switch head.Style {
	case document.ArrowCircle:
		pts := ellipse(0, 0, size/2, size/2)
		for i := range pts {
			pts[i].X += tip.X - math.Cos(angle)*size/2
			pts[i].Y += tip.Y - math.Sin(angle)*size/2
		}
		return pts
	case document.ArrowTriangle, document.ArrowOpen:
		spread := math.Pi / 7
		left := Point{tip.X - size*math.Cos(angle-spread), tip.Y - size*math.Sin(angle-spread)}
		right := Point{tip.X - size*math.Cos(angle+spread), tip.Y - size*math.Sin(angle+spread)}
		if head.Style == document.ArrowOpen {
			return []Point{left, tip, right}
		}
		return []Point{tip, left, right}
	default:
		return nil
	}
}

// SVGPath renders a polygon as SVG path data.
func SVGPath(pts []Point, closed bool) string {
	if len(pts) == 0 {
		return ""
	}
	var b strings.Builder
	for i, p := range pts {
		op := "L"
		if i == 0 {
			op = "M"
		}
		fmt.Fprintf(&b, "%s%s %s ", op, trim(p.X), trim(p.Y))
	}
	if closed {
		b.WriteString("Z")
	}
	return strings.TrimSpace(b.String())
}

func trim(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}

// Bounds returns the axis-aligned bounds of pts.
func Bounds(pts []Point) (minX, minY, maxX, maxY float64) {
	if len(pts) == 0 {
		return 0, 0, 0, 0
	}
	minX, minY = pts[0].X, pts[0].Y
	maxX, maxY = minX, minY
	for _, p := range pts[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return minX, minY, maxX, maxY
}
