package layout

import (
	"errors"
	"slices"
	"testing"

	"github.com/chazu/loom/pkg/geom"
)

func TestOrMergesAbuttingRects(t *testing.T) {
	a := rectLayer(netRect(1, 0, 0, 10, 10))
	b := rectLayer(netRect(1, 10, 0, 20, 10))
	got := Or(a, b)
	if len(got.Geo) != 1 {
		t.Fatalf("expected 1 rect, got %d: %v", len(got.Geo), got.Geo)
	}
	if want := netRect(1, 0, 0, 20, 10); got.Geo[0] != want {
		t.Errorf("got %v, want %v", got.Geo[0], want)
	}
	if len(a.Geo) != 1 || len(b.Geo) != 1 {
		t.Error("operands were modified")
	}
}

func TestNotBoundedLeavesFourRects(t *testing.T) {
	l := rectLayer(geom.R(0, 0, 10, 10))
	bound := rectLayer(geom.R(-100, -100, 100, 100))

	got := And(Not(l), bound)
	if len(got.Geo) != 4 {
		t.Fatalf("expected 4 rects, got %d: %v", len(got.Geo), got.Geo)
	}
	if area := got.Area(); area != 200*200-100 {
		t.Errorf("complement area = %d, want %d", area, 200*200-100)
	}
	for _, r := range got.Geo {
		if r.Contains(geom.V(5, 5), true) {
			t.Errorf("rect %v covers the hole", r)
		}
	}
	if And(got, l).Area() != 0 {
		t.Error("complement overlaps the original")
	}
}

func TestNotInvolution(t *testing.T) {
	tests := []struct {
		name  string
		rects []geom.Rect
	}{
		{"single", []geom.Rect{geom.R(0, 0, 10, 10)}},
		{"two disjoint", []geom.Rect{geom.R(0, 0, 10, 10), geom.R(20, 20, 30, 25)}},
		{"overlapping", []geom.Rect{geom.R(0, 0, 20, 10), geom.R(15, 5, 25, 30)}},
	}
	bound := rectLayer(geom.R(-100, -100, 100, 100))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := rectLayer(tt.rects...)
			want := And(l, bound)
			got := And(Not(Not(l)), bound)
			if got.Area() != want.Area() {
				t.Fatalf("area %d, want %d", got.Area(), want.Area())
			}
			if And(got, Not(want)).Area() != 0 {
				t.Errorf("double complement covers extra area: %v", got.Geo)
			}
		})
	}
}

func TestNotFlags(t *testing.T) {
	l := rectLayer(geom.R(0, 0, 1, 1))
	l.IsRouting = true
	l.IsPin = true
	got := Not(l)
	if got.IsRouting || !got.IsSubstrate || !got.IsPin || got.IsWell {
		t.Errorf("unexpected flags %+v", got)
	}
}

func TestAreaUnbounded(t *testing.T) {
	tests := []struct {
		name string
		l    *Layer
	}{
		{"complement", Not(rectLayer(geom.R(0, 0, 10, 10)))},
		{"full plane", FullPlane()},
		{"half plane", rectLayer(geom.R(0, geom.MinCoord, 10, 0))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.l.Unbounded() {
				t.Error("layer should be unbounded")
			}
			if area := tt.l.Area(); area != geom.MaxCoord {
				t.Errorf("area = %d, want saturation at MaxCoord", area)
			}
		})
	}

	l := rectLayer(geom.R(0, 0, 10, 10))
	if l.Unbounded() || l.Area() != 100 {
		t.Errorf("finite layer: unbounded %v, area %d", l.Unbounded(), l.Area())
	}
}

func TestOverlapsLayer(t *testing.T) {
	a := rectLayer(geom.R(0, 0, 10, 10), geom.R(40, 0, 50, 10))
	tests := []struct {
		name string
		o    *Layer
		want bool
	}{
		{"crossing", rectLayer(geom.R(5, 5, 20, 20)), true},
		{"touching edge", rectLayer(geom.R(10, 0, 20, 10)), true},
		{"touching corner", rectLayer(geom.R(50, 10, 60, 20)), true},
		{"in the gap", rectLayer(geom.R(15, 0, 35, 10)), false},
		{"empty", &Layer{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.OverlapsLayer(tt.o); got != tt.want {
				t.Errorf("OverlapsLayer = %v, want %v", got, tt.want)
			}
			if got := tt.o.OverlapsLayer(a); got != tt.want {
				t.Errorf("reversed OverlapsLayer = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAndOrPartition(t *testing.T) {
	a := rectLayer(geom.R(0, 0, 20, 10), geom.R(15, 5, 25, 30))
	b := rectLayer(geom.R(10, -5, 30, 8))

	got := Or(And(a, b), And(a, Not(b)))
	if got.Area() != a.Area() {
		t.Errorf("(A&B)|(A&~B) area = %d, want %d", got.Area(), a.Area())
	}
	if a.Area() != 425 {
		t.Errorf("A area = %d, want 425", a.Area())
	}
}

func TestOrIdempotent(t *testing.T) {
	a := rectLayer(geom.R(0, 0, 20, 10), geom.R(40, 0, 50, 10))
	got := Or(a, a)
	if len(got.Geo) != 2 {
		t.Errorf("A|A has %d rects, want 2", len(got.Geo))
	}
	if got.Area() != a.Area() {
		t.Errorf("A|A area = %d, want %d", got.Area(), a.Area())
	}
}

func TestInteractSelection(t *testing.T) {
	a := rectLayer(geom.R(0, 0, 10, 10), geom.R(20, 0, 30, 10), geom.R(40, 0, 50, 10))
	b := rectLayer(geom.R(25, 5, 45, 6))

	in := Interact(a, b)
	out := NotInteract(a, b)
	if len(in.Geo) != 2 || len(out.Geo) != 1 {
		t.Fatalf("interact %v, not_interact %v", in.Geo, out.Geo)
	}
	for _, r := range in.Geo {
		if !slices.Contains(a.Geo, r) {
			t.Errorf("interact produced %v which is not in A", r)
		}
	}
	if out.Geo[0] != geom.R(0, 0, 10, 10) {
		t.Errorf("not_interact kept %v", out.Geo[0])
	}
	if in.Area()+out.Area() != a.Area() {
		t.Error("interact and not_interact do not partition A")
	}
}

func TestAndKeepsLabelsOnOther(t *testing.T) {
	a := rectLayer(geom.R(0, 0, 10, 10))
	a.Label(geom.Label{Net: -1, Pos: geom.V(5, 5), Text: "in"}, geom.Label{Net: -1, Pos: geom.V(50, 50), Text: "out"})
	b := rectLayer(geom.R(0, 0, 6, 6))

	got := And(a, b)
	if len(got.Lbl) != 1 || got.Lbl[0].Text != "in" {
		t.Errorf("labels = %v", got.Lbl)
	}
	if ni := NotInteract(a, b); len(ni.Lbl) != 1 || ni.Lbl[0].Text != "out" {
		t.Errorf("not_interact labels = %v", ni.Lbl)
	}
}

func TestAndWellDoesNotLendNet(t *testing.T) {
	diff := rectLayer(netRect(-1, 0, 0, 10, 10))
	well := rectLayer(netRect(7, -5, -5, 20, 20))
	well.IsWell = true

	if got := And(diff, well); got.Geo[0].Net != -1 {
		t.Errorf("well net leaked into intersection: %v", got.Geo[0])
	}
	wire := rectLayer(netRect(-1, 0, 0, 10, 10))
	other := rectLayer(netRect(7, -5, -5, 20, 20))
	if got := And(wire, other); got.Geo[0].Net != 7 {
		t.Errorf("expected net 7, got %v", got.Geo[0])
	}
}

func TestPushDropsDegenerate(t *testing.T) {
	l := &Layer{}
	l.Push(geom.R(0, 0, 0, 10), geom.R(0, 0, 10, 0), geom.R(0, 0, 1, 1))
	if len(l.Geo) != 1 {
		t.Fatalf("expected 1 rect, got %v", l.Geo)
	}
	if !sameBox(l.Box, geom.R(0, 0, 1, 1)) {
		t.Errorf("box = %v", l.Box)
	}
}

func TestMergeKeepsArea(t *testing.T) {
	l := rectLayer(
		geom.R(0, 0, 10, 10), geom.R(10, 0, 20, 10), geom.R(0, 10, 20, 20),
		geom.R(2, 2, 4, 4), geom.R(30, 0, 40, 5), geom.R(35, 5, 40, 10),
	)
	before := l.Area()
	l.Merge()
	if l.Area() != before {
		t.Errorf("merge changed area from %d to %d", before, l.Area())
	}
	if len(l.Geo) != 3 {
		t.Errorf("expected 3 rects after merge, got %v", l.Geo)
	}
}

func TestClamp(t *testing.T) {
	l := rectLayer(geom.R(0, 0, 10, 10), geom.R(20, 0, 30, 10), geom.R(-10, 0, 5, 3))
	got := l.Clamp(0, 2, 22)
	want := []geom.Rect{geom.R(2, 0, 10, 10), geom.R(20, 0, 22, 10), geom.R(2, 0, 5, 3)}
	if !slices.Equal(got.Geo, want) {
		t.Errorf("got %v, want %v", got.Geo, want)
	}
	if got = l.Clamp(1, 20, 30); len(got.Geo) != 0 {
		t.Errorf("expected everything clipped, got %v", got.Geo)
	}
}

func TestFillSpacing(t *testing.T) {
	s := newSample()
	tests := []struct {
		name   string
		fill   bool
		rects  []geom.Rect
		expect []geom.Rect
	}{
		{
			name:   "horizontal gap",
			rects:  []geom.Rect{netRect(0, 0, 0, 5, 5), netRect(0, 7, 0, 12, 5)},
			expect: []geom.Rect{netRect(0, 5, 0, 7, 5)},
		},
		{
			name:   "vertical gap",
			rects:  []geom.Rect{netRect(1, 0, 0, 5, 5), netRect(1, 0, 6, 5, 10)},
			expect: []geom.Rect{netRect(1, 0, 5, 5, 6)},
		},
		{
			name:  "gap at spacing",
			rects: []geom.Rect{netRect(0, 0, 0, 5, 5), netRect(0, 8, 0, 12, 5)},
		},
		{
			name:  "different nets",
			rects: []geom.Rect{netRect(0, 0, 0, 5, 5), netRect(1, 7, 0, 12, 5)},
		},
		{
			name:  "unconnected on a non fill layer",
			rects: []geom.Rect{netRect(-1, 0, 0, 5, 5), netRect(-1, 7, 0, 12, 5)},
		},
		{
			name:   "unconnected on a fill layer",
			fill:   true,
			rects:  []geom.Rect{netRect(-1, 0, 0, 5, 5), netRect(-1, 7, 0, 12, 5)},
			expect: []geom.Rect{netRect(-1, 5, 0, 7, 5)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s.t.SetFill(s.m1, tt.fill)
			l := NewLayer(s.t, s.m1)
			l.Push(tt.rects...)
			l.FillSpacing(s.t)
			added := l.Geo[len(tt.rects):]
			if !slices.Equal(added, tt.expect) {
				t.Errorf("filled %v, want %v", added, tt.expect)
			}
		})
	}
}

func TestLayerTrace(t *testing.T) {
	l := rectLayer(
		geom.R(0, 0, 10, 10),
		geom.R(50, 0, 60, 10),
		geom.R(10, 5, 20, 6),
		geom.R(100, 0, 110, 10),
		geom.R(10, 0, 55, 1),
	)
	got := l.Trace()
	want := [][]int{{0, 1, 2, 4}, {3}}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if !slices.Equal(got[i], want[i]) {
			t.Errorf("cluster %d = %v, want %v", i, got[i], want[i])
		}
	}

	parts := l.Split(nil)
	if len(parts) != 2 || len(parts[0].Geo) != 4 || len(parts[1].Geo) != 1 {
		t.Errorf("split produced %d layers", len(parts))
	}
}

func TestSyncIncrementalMatchesRebuild(t *testing.T) {
	rects := []geom.Rect{
		geom.R(5, 0, 10, 3), geom.R(0, 2, 4, 9), geom.R(5, 5, 6, 6),
		geom.R(-3, -3, 1, 1), geom.R(5, 1, 7, 2),
	}
	inc := &Layer{}
	inc.Sync()
	for _, r := range rects {
		inc.PushSync(r)
	}
	inc.EraseSync(2)
	if inc.Dirty() {
		t.Fatal("incremental updates should keep the index current")
	}

	full := &Layer{}
	full.Push(rects...)
	full.Erase(2)
	if !full.Dirty() {
		t.Fatal("push should mark the index dirty")
	}
	for axis := 0; axis < 2; axis++ {
		for fromTo := 0; fromTo < 2; fromTo++ {
			got := inc.bound[axis][fromTo]
			want := full.Bounds(axis, fromTo)
			if !slices.Equal(got, want) {
				t.Errorf("bounds[%d][%d] = %v, want %v", axis, fromTo, got, want)
			}
		}
	}
}

func TestLayerNormalize(t *testing.T) {
	l := &Layer{}
	l.PushPoly(geom.NewPoly(-1,
		geom.V(0, 0), geom.V(20, 0), geom.V(20, 10),
		geom.V(10, 10), geom.V(10, 20), geom.V(0, 20),
	))
	if err := l.Normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(l.Poly) != 0 {
		t.Errorf("polygon should be consumed, %d left", len(l.Poly))
	}
	if len(l.Geo) != 2 || l.Area() != 300 {
		t.Errorf("got %v with area %d", l.Geo, l.Area())
	}
	if errors.Is(l.Normalize(), geom.ErrSplitLimit) {
		t.Error("normalize of a rect-only layer should not fail")
	}
}

func TestLayerShift(t *testing.T) {
	l := rectLayer(geom.R(1, 2, 5, 6))
	l.Label(geom.Label{Pos: geom.V(2, 3), Text: "a"})
	l.Shift(geom.V(100, 0), geom.V(-1, 1))
	if l.Geo[0] != geom.R(95, 2, 99, 6) {
		t.Errorf("rect = %v", l.Geo[0])
	}
	if l.Lbl[0].Pos != geom.V(98, 3) {
		t.Errorf("label = %v", l.Lbl[0].Pos)
	}
	if !sameBox(l.Box, geom.R(95, 2, 99, 6)) {
		t.Errorf("box = %v", l.Box)
	}
}
