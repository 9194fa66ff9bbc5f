package geom

import "testing"

func TestNewRectNormalizes(t *testing.T) {
	r := NewRect(3, V(10, -5), V(0, 5))
	if r.Ll != V(0, -5) || r.Ur != V(10, 5) {
		t.Fatalf("expected (0,-5)-(10,5), got %v", r)
	}
	if r.Net != 3 {
		t.Errorf("expected net 3, got %d", r.Net)
	}
}

func TestRectMerge(t *testing.T) {
	tests := []struct {
		name   string
		a, b   Rect
		ok     bool
		expect Rect
	}{
		{"same x span touching", R(0, 0, 10, 10), R(0, 10, 10, 20), true, R(0, 0, 10, 20)},
		{"same y span overlapping", R(0, 0, 10, 10), R(5, 0, 20, 10), true, R(0, 0, 20, 10)},
		{"self contains other", R(0, 0, 10, 10), R(2, 2, 4, 4), true, R(0, 0, 10, 10)},
		{"other contains self", R(2, 2, 4, 4), R(0, 0, 10, 10), true, R(0, 0, 10, 10)},
		{"L shape", R(0, 0, 10, 10), R(10, 0, 20, 5), false, R(0, 0, 10, 10)},
		{"disjoint same span", R(0, 0, 10, 10), R(11, 0, 20, 10), false, R(0, 0, 10, 10)},
		{"different nets", NewRect(1, V(0, 0), V(10, 10)), NewRect(2, V(10, 0), V(20, 10)), false, NewRect(1, V(0, 0), V(10, 10))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.a
			ok := got.Merge(tt.b)
			if ok != tt.ok {
				t.Fatalf("Merge returned %v, want %v", ok, tt.ok)
			}
			if got != tt.expect {
				t.Errorf("got %v, want %v", got, tt.expect)
			}
			if ok && got.Area() < tt.a.Area()+tt.b.Area()-overlapArea(tt.a, tt.b) {
				t.Errorf("merge lost area: %d", got.Area())
			}
		})
	}
}

func overlapArea(a, b Rect) int {
	if !a.Overlaps(b) {
		return 0
	}
	return Intersect(a, b).Area()
}

func TestRectOverlapsSymmetric(t *testing.T) {
	rects := []Rect{
		R(0, 0, 10, 10), R(10, 10, 20, 20), R(11, 0, 12, 1),
		R(-5, -5, 0, 0), R(3, 3, 4, 4), Plane(NoNet), R(0, 10, 10, 11),
	}
	for _, a := range rects {
		for _, b := range rects {
			if a.Overlaps(b) != b.Overlaps(a) {
				t.Errorf("overlap not symmetric for %v and %v", a, b)
			}
			shared := false
			for _, p := range []Vec2{a.Ll, a.Ur, b.Ll, b.Ur} {
				if a.Contains(p, true) && b.Contains(p, true) {
					shared = true
				}
			}
			if shared && !a.Overlaps(b) {
				t.Errorf("%v and %v share a point but do not overlap", a, b)
			}
		}
	}
}

func TestRectOverlapsTouching(t *testing.T) {
	if !R(0, 0, 10, 10).Overlaps(R(10, 0, 20, 10)) {
		t.Error("touching edges should overlap")
	}
	if !R(0, 0, 10, 10).Overlaps(R(10, 10, 20, 20)) {
		t.Error("touching corners should overlap")
	}
	if R(0, 0, 10, 10).Overlaps(R(11, 0, 20, 10)) {
		t.Error("separated rects should not overlap")
	}
}

func TestRectContains(t *testing.T) {
	r := R(0, 0, 10, 10)
	if !r.Contains(V(0, 5), true) {
		t.Error("edge point should be contained with edge")
	}
	if r.Contains(V(0, 5), false) {
		t.Error("edge point should not be contained without edge")
	}
	if !r.Contains(V(5, 5), false) {
		t.Error("interior point should be contained")
	}
}

func TestRectOverlapsSegment(t *testing.T) {
	r := R(0, 0, 10, 10)
	tests := []struct {
		name     string
		v0, v1   Vec2
		withEdge bool
		expect   bool
	}{
		{"horizontal through", V(-5, 5), V(15, 5), false, true},
		{"horizontal on edge", V(-5, 10), V(15, 10), false, false},
		{"horizontal on edge with edge", V(-5, 10), V(15, 10), true, true},
		{"vertical outside", V(12, -5), V(12, 15), true, false},
		{"vertical through", V(5, 15), V(5, -5), false, true},
		{"ending at edge", V(-5, 5), V(0, 5), false, false},
		{"point inside", V(5, 5), V(5, 5), false, true},
		{"point on edge", V(0, 5), V(0, 5), false, false},
		{"point on edge with edge", V(0, 5), V(0, 5), true, true},
		{"point outside", V(20, 5), V(20, 5), true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.OverlapsSegment(tt.v0, tt.v1, tt.withEdge); got != tt.expect {
				t.Errorf("got %v, want %v", got, tt.expect)
			}
		})
	}
}

func TestIntersectNets(t *testing.T) {
	tests := []struct {
		a, b, expect int
	}{
		{NoNet, 4, 4},
		{4, NoNet, 4},
		{4, 4, 4},
		{4, 5, NoNet},
		{NoNet, NoNet, NoNet},
	}
	for _, tt := range tests {
		a := NewRect(tt.a, V(0, 0), V(10, 10))
		b := NewRect(tt.b, V(5, 5), V(20, 20))
		got := Intersect(a, b)
		if got.Net != tt.expect {
			t.Errorf("nets %d & %d: got %d, want %d", tt.a, tt.b, got.Net, tt.expect)
		}
		if got.Ll != V(5, 5) || got.Ur != V(10, 10) {
			t.Errorf("unexpected geometry %v", got)
		}
	}
}

func TestRectShiftMirror(t *testing.T) {
	r := R(1, 2, 5, 6)
	got := r.Shift(V(100, 0), V(-1, 1))
	if got.Ll != V(95, 2) || got.Ur != V(99, 6) {
		t.Errorf("mirror shift: got %v", got)
	}
	got = r.Shift(V(10, 10), V(1, 1))
	if got.Ll != V(11, 12) || got.Ur != V(15, 16) {
		t.Errorf("plain shift: got %v", got)
	}
}

func TestRectBoundSentinel(t *testing.T) {
	var r Rect
	r.Bound(R(5, 5, 10, 10))
	if r.Ll != V(5, 5) {
		t.Fatalf("zero rect should be replaced, got %v", r)
	}
	r.Bound(R(-1, 0, 2, 2))
	if r.Ll != V(-1, 0) || r.Ur != V(10, 10) {
		t.Errorf("expected union bound, got %v", r)
	}
	var q Rect
	q.BoundPoly(NewPoly(NoNet, V(3, 4), V(8, 4), V(8, 9)))
	if q.Ll != V(3, 4) || q.Ur != V(8, 9) {
		t.Errorf("poly bound: got %v", q)
	}
}

func TestRectShrinkGrow(t *testing.T) {
	r := R(0, 0, 10, 4)
	if r.Shrink(V(1, 3)) {
		t.Fatal("shrinking past zero height should fail")
	}
	if !r.Shrink(V(1, 1)) || r != R(1, 1, 9, 3) {
		t.Fatalf("unexpected shrink result %v", r)
	}
	r.Grow(V(1, 1))
	if r != R(0, 0, 10, 4) {
		t.Errorf("grow did not undo shrink: %v", r)
	}
}

func TestSaturatingArithmetic(t *testing.T) {
	if AddSat(MaxCoord, 5) != MaxCoord {
		t.Error("AddSat should clamp at MaxCoord")
	}
	if AddSat(MinCoord, -5) != MinCoord {
		t.Error("AddSat should clamp at MinCoord")
	}
	if SubSat(10, MinCoord) != MaxCoord {
		t.Error("SubSat of MinCoord should clamp")
	}
	if SubSat(7, 3) != 4 {
		t.Error("SubSat plain subtraction")
	}
	if MulSat(MaxCoord, 10) != MaxCoord || MulSat(MaxCoord, 0) != 0 {
		t.Error("MulSat should clamp at MaxCoord")
	}
	if MulSat(6, 7) != 42 {
		t.Error("MulSat plain product")
	}
}
