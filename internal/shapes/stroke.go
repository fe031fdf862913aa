package shapes

import (
	"math"

	"github.com/carousel-studio/designer/internal/document"
)

// Stroke converts a polyline into filled polygons covering a stroke of the
// given width. Every polygon is oriented counter-clockwise so overlapping
// pieces accumulate instead of cancelling when rasterized together.
func Stroke(pts []Point, closed bool, width float64, lineCap document.LineCap) [][]Point {
	if len(pts) < 2 || width <= 0 {
		return nil
	}
	half := width / 2
	path := pts
	if closed {
		path = append(append([]Point(nil), pts...), pts[0])
	} else if lineCap == document.CapSquare {
		path = append([]Point(nil), pts...)
		path[0] = extend(path[1], path[0], half)
		n := len(path) - 1
		path[n] = extend(path[n-1], path[n], half)
	}

	var polys [][]Point
	for i := 0; i+1 < len(path); i++ {
		a, b := path[i], path[i+1]
		dx, dy := b.X-a.X, b.Y-a.Y
		l := math.Hypot(dx, dy)
		if l == 0 {
			continue
		}
		nx, ny := -dy/l*half, dx/l*half
		polys = append(polys, Orient([]Point{
			{a.X + nx, a.Y + ny},
			{b.X + nx, b.Y + ny},
			{b.X - nx, b.Y - ny},
			{a.X - nx, a.Y - ny},
		}))
	}

	// round joins keep thick polylines free of notches
	joins := path[1 : len(path)-1]
	if closed {
		joins = path[:len(path)-1]
	}
	if width > 2 {
		for _, p := range joins {
			polys = append(polys, disc(p, half))
		}
	}
	if !closed && lineCap == document.CapRound {
		polys = append(polys, disc(path[0], half), disc(path[len(path)-1], half))
	}
	return polys
}

// Dash splits a polyline into dash segments following the on/off pattern.
// An empty or all-zero pattern returns the polyline unchanged.
func Dash(pts []Point, closed bool, pattern []float64) [][]Point {
	total := 0.0
	for _, d := range pattern {
		total += math.Max(0, d)
	}
	if len(pts) < 2 || total == 0 {
		return [][]Point{pts}
	}
	if len(pattern)%2 == 1 {
		pattern = append(append([]float64(nil), pattern...), pattern...)
	}
	path := pts
	if closed {
		path = append(append([]Point(nil), pts...), pts[0])
	}

	var out [][]Point
	cur := []Point{path[0]}
	idx, left, on := 0, math.Max(0, pattern[0]), true
	for i := 0; i+1 < len(path); i++ {
		a, b := path[i], path[i+1]
		seg := math.Hypot(b.X-a.X, b.Y-a.Y)
		pos := 0.0
		for seg-pos > left {
			pos += left
			t := pos / seg
			p := Point{a.X + (b.X-a.X)*t, a.Y + (b.Y-a.Y)*t}
			if on {
				cur = append(cur, p)
				out = append(out, cur)
				cur = nil
			} else {
				cur = []Point{p}
			}
			on = !on
			idx = (idx + 1) % len(pattern)
			left = math.Max(0, pattern[idx])
		}
		left -= seg - pos
		if on {
			cur = append(cur, b)
		}
	}
	if on && len(cur) > 1 {
		out = append(out, cur)
	}
	return out
}

// Orient returns pts in counter-clockwise order (screen coordinates).
func Orient(pts []Point) []Point {
	area := 0.0
	for i := range pts {
		j := (i + 1) % len(pts)
		area += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	if area < 0 {
		for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
			pts[i], pts[j] = pts[j], pts[i]
		}
	}
	return pts
}

func disc(c Point, r float64) []Point {
	const n = 12
	pts := make([]Point, n)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / n
		pts[i] = Point{c.X + r*math.Cos(a), c.Y + r*math.Sin(a)}
	}
	return Orient(pts)
}

func extend(from, to Point, by float64) Point {
	dx, dy := to.X-from.X, to.Y-from.Y
	l := math.Hypot(dx, dy)
	if l == 0 {
		return to
	}
	return Point{to.X + dx/l*by, to.Y + dy/l*by}
}
