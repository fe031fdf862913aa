package shapes

import (
	"math"
	"testing"

	"github.com/carousel-studio/designer/internal/document"
)

func TestOutlineStaysInsideBox(t *testing.T) {
	types := []document.ShapeType{
		document.ShapeRectangle,
		document.ShapeRoundedRectangle,
		document.ShapeCircle,
		document.ShapeEllipse,
		document.ShapeTriangle,
		document.ShapeDiamond,
		document.ShapeHexagon,
		document.ShapeStar,
	}
	for _, typ := range types {
		t.Run(string(typ), func(t *testing.T) {
			pts := Outline(typ, 200, 100, 12)
			if len(pts) < 3 {
				t.Fatalf("expected a polygon, got %d points", len(pts))
			}
			minX, minY, maxX, maxY := Bounds(pts)
			const eps = 1e-9
			if minX < -eps || minY < -eps || maxX > 200+eps || maxY > 100+eps {
				t.Errorf("outline escapes box: (%v,%v)-(%v,%v)", minX, minY, maxX, maxY)
			}
		})
	}
}

func TestOutlineLineHasNoPolygon(t *testing.T) {
	if pts := Outline(document.ShapeLine, 100, 4, 0); pts != nil {
		t.Errorf("expected nil outline for line, got %v", pts)
	}
	a, b := LineSegment(100, 4)
	if a != (Point{0, 2}) || b != (Point{100, 2}) {
		t.Errorf("unexpected segment %v -> %v", a, b)
	}
}

func TestStarAlternatesRadius(t *testing.T) {
	pts := Outline(document.ShapeStar, 100, 100, 0)
	if len(pts) != 10 {
		t.Fatalf("expected 10 points, got %d", len(pts))
	}
	outer := math.Hypot(pts[0].X-50, pts[0].Y-50)
	inner := math.Hypot(pts[1].X-50, pts[1].Y-50)
	if math.Abs(outer-50) > 1e-9 {
		t.Errorf("outer radius = %v, want 50", outer)
	}
	if math.Abs(inner-50*starInnerRatio) > 1e-9 {
		t.Errorf("inner radius = %v, want %v", inner, 50*starInnerRatio)
	}
}

func TestArrowHeadPointsAtTip(t *testing.T) {
	tip := Point{100, 0}
	head := ArrowHead(tip, Point{0, 0}, document.ArrowHead{Style: document.ArrowTriangle, Size: 10}, 2)
	if len(head) != 3 || head[0] != tip {
		t.Fatalf("unexpected head %v", head)
	}
	for _, p := range head[1:] {
		if p.X >= tip.X {
			t.Errorf("barb %v should sit behind the tip", p)
		}
	}
	if got := ArrowHead(tip, Point{}, document.ArrowHead{Style: document.ArrowNone}, 2); got != nil {
		t.Errorf("expected no head for style none, got %v", got)
	}
}

func TestSVGPath(t *testing.T) {
	got := SVGPath([]Point{{0, 0}, {10.5, 0}, {10.5, 20}}, true)
	want := "M0 0 L10.5 0 L10.5 20 Z"
	if got != want {
		t.Errorf("SVGPath = %q, want %q", got, want)
	}
}

func TestDash(t *testing.T) {
	dashes := Dash([]Point{{0, 0}, {100, 0}}, false, []float64{10, 10})
	if len(dashes) != 5 {
		t.Fatalf("expected 5 dashes, got %d", len(dashes))
	}
	for i, d := range dashes {
		start := float64(i * 20)
		if math.Abs(d[0].X-start) > 1e-9 || math.Abs(d[len(d)-1].X-(start+10)) > 1e-9 {
			t.Errorf("dash %d spans %v..%v", i, d[0].X, d[len(d)-1].X)
		}
	}

	solid := Dash([]Point{{0, 0}, {100, 0}}, false, nil)
	if len(solid) != 1 || len(solid[0]) != 2 {
		t.Errorf("expected the polyline unchanged, got %v", solid)
	}
}

func TestStrokeOrientation(t *testing.T) {
	polys := Stroke([]Point{{0, 0}, {50, 0}, {50, 50}}, false, 6, document.CapRound)
	if len(polys) == 0 {
		t.Fatal("expected stroke polygons")
	}
	for i, p := range polys {
		area := 0.0
		for j := range p {
			k := (j + 1) % len(p)
			area += p[j].X*p[k].Y - p[k].X*p[j].Y
		}
		if area < 0 {
			t.Errorf("polygon %d has negative orientation", i)
		}
	}
}
