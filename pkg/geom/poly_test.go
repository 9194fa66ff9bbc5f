package geom

import "testing"

func lShape() Poly {
	return NewPoly(NoNet, V(0, 0), V(20, 0), V(20, 10), V(10, 10), V(10, 20), V(0, 20))
}

func TestOrientation(t *testing.T) {
	if Orientation(V(0, 0), V(1, 0), V(1, 1)) != -1 {
		t.Error("left turn should be counter-clockwise")
	}
	if Orientation(V(0, 0), V(1, 0), V(1, -1)) != 1 {
		t.Error("right turn should be clockwise")
	}
	if Orientation(V(0, 0), V(1, 0), V(5, 0)) != 0 {
		t.Error("collinear points should be 0")
	}
}

func TestSegmentsIntersect(t *testing.T) {
	tests := []struct {
		name           string
		a0, a1, b0, b1 Vec2
		expect         bool
	}{
		{"cross", V(0, 0), V(10, 10), V(0, 10), V(10, 0), true},
		{"parallel", V(0, 0), V(10, 0), V(0, 1), V(10, 1), false},
		{"collinear overlap", V(0, 0), V(10, 0), V(5, 0), V(15, 0), true},
		{"collinear apart", V(0, 0), V(4, 0), V(5, 0), V(15, 0), false},
		{"touching end", V(0, 0), V(5, 0), V(5, 0), V(5, 5), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SegmentsIntersect(tt.a0, tt.a1, tt.b0, tt.b1); got != tt.expect {
				t.Errorf("got %v, want %v", got, tt.expect)
			}
		})
	}
}

func TestPolyContains(t *testing.T) {
	p := lShape()
	tests := []struct {
		pt     Vec2
		expect bool
	}{
		{V(5, 5), true},
		{V(15, 5), true},
		{V(5, 15), true},
		{V(15, 15), false},
		{V(-1, 5), false},
		{V(25, 5), false},
	}
	for _, tt := range tests {
		if got := p.Contains(tt.pt); got != tt.expect {
			t.Errorf("Contains(%v) = %v, want %v", tt.pt, got, tt.expect)
		}
	}
}

func TestPolyAreaAndNormalize(t *testing.T) {
	p := lShape()
	if p.Area() != 300 {
		t.Fatalf("expected area 300, got %d", p.Area())
	}
	cw := NewPoly(NoNet, V(0, 0), V(0, 10), V(10, 10), V(10, 0))
	if cw.Area() != -100 {
		t.Fatalf("expected clockwise area -100, got %d", cw.Area())
	}
	cw.Normalize()
	if cw.Area() != 100 {
		t.Errorf("normalize should flip winding, area %d", cw.Area())
	}
	if PolyFromRect(R(0, 0, 3, 4)).Perim() != 14 {
		t.Errorf("unexpected perimeter")
	}
}

func TestPolyEmpty(t *testing.T) {
	if !NewPoly(NoNet, V(0, 0), V(1, 1)).Empty() {
		t.Error("two vertices should be empty")
	}
	if !NewPoly(NoNet, V(0, 0), V(10, 0), V(20, 0)).Empty() {
		t.Error("collinear vertices should be empty")
	}
	if lShape().Empty() {
		t.Error("L shape should not be empty")
	}
}

func TestPolyOverlaps(t *testing.T) {
	p := lShape()
	if !p.OverlapsRect(R(5, 5, 6, 6)) {
		t.Error("rect inside polygon should overlap")
	}
	if p.OverlapsRect(R(15, 15, 18, 18)) {
		t.Error("rect in the notch should not overlap")
	}
	if !p.OverlapsRect(R(-10, -10, 100, 100)) {
		t.Error("enclosing rect should overlap")
	}
	q := PolyFromRect(R(18, 8, 30, 30))
	if !p.Overlaps(q) {
		t.Error("polygons with crossing edges should overlap")
	}
	if p.Overlaps(PolyFromRect(R(50, 50, 60, 60))) {
		t.Error("distant polygons should not overlap")
	}
}

func splitArea(rects []Rect) int {
	total := 0
	for _, r := range rects {
		total += r.Area()
	}
	return total
}

func TestSplitConservesArea(t *testing.T) {
	tests := []struct {
		name  string
		poly  Poly
		rects int
	}{
		{"rectangle", PolyFromRect(R(0, 0, 10, 10)), 1},
		{"L shape", lShape(), 2},
		{"staircase", NewPoly(NoNet, V(0, 0), V(30, 0), V(30, 10), V(20, 10), V(20, 20), V(10, 20), V(10, 30), V(0, 30)), 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.poly
			want := p.Area()
			rects, err := p.Split()
			if err != nil {
				t.Fatalf("split failed: %v", err)
			}
			if len(rects) != tt.rects {
				t.Errorf("expected %d rects, got %d: %v", tt.rects, len(rects), rects)
			}
			if got := splitArea(rects); got != want {
				t.Errorf("area not conserved: polygon %d, rects %d", want, got)
			}
			if !p.Empty() {
				t.Errorf("polygon should be consumed, %d vertices left", len(p.V))
			}
		})
	}
}

func TestSplitLShapeRects(t *testing.T) {
	p := lShape()
	rects, err := p.Split()
	if err != nil {
		t.Fatal(err)
	}
	if len(rects) != 2 {
		t.Fatalf("expected 2 rects, got %v", rects)
	}
	if rects[0] != R(10, 0, 20, 10) || rects[1] != R(0, 0, 10, 20) {
		t.Errorf("unexpected decomposition %v", rects)
	}
}

func TestSplitEmptyPolygon(t *testing.T) {
	p := Poly{}
	rects, err := p.Split()
	if err != nil || len(rects) != 0 {
		t.Errorf("empty polygon: got %v, %v", rects, err)
	}
}
