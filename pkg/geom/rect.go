package geom

import "fmt"

// NoNet marks geometry that is not connected to any net.
const NoNet = -1

// Rect is an axis-aligned rectangle tagged with a net index.
// Ll is always componentwise <= Ur once built through NewRect.
type Rect struct {
	Net int
	Ll  Vec2
	Ur  Vec2
}

// NewRect builds a normalized rectangle from two opposite corners.
func NewRect(net int, a, b Vec2) Rect {
	r := Rect{Net: net, Ll: a, Ur: b}
	r.Normalize()
	return r
}

// R is shorthand for an unconnected rectangle (x0,y0)-(x1,y1).
func R(x0, y0, x1, y1 int) Rect {
	return NewRect(NoNet, V(x0, y0), V(x1, y1))
}

// Plane returns the rectangle covering the whole plane.
func Plane(net int) Rect {
	return Rect{Net: net, Ll: V(MinCoord, MinCoord), Ur: V(MaxCoord, MaxCoord)}
}

// Normalize swaps coordinates so that Ll <= Ur on both axes.
func (r *Rect) Normalize() {
	for i := 0; i < 2; i++ {
		if r.Ur[i] < r.Ll[i] {
			r.Ll[i], r.Ur[i] = r.Ur[i], r.Ll[i]
		}
	}
}

// Corner returns Ll for 0 and Ur for 1.
func (r Rect) Corner(i int) Vec2 {
	if i == 0 {
		return r.Ll
	}
	return r.Ur
}

// Shift maps each corner c to pos + c*dir. dir components are +1 or -1 and
// mirror the rectangle about the corresponding axis.
func (r Rect) Shift(pos, dir Vec2) Rect {
	return NewRect(r.Net, pos.Add(r.Ll.Mul(dir)), pos.Add(r.Ur.Mul(dir)))
}

// Merge grows r to cover o when both are on the same net and their union is
// itself a rectangle. It reports whether r now covers both.
func (r *Rect) Merge(o Rect) bool {
	if r.Net != o.Net {
		return false
	}
	switch {
	case r.Ll[0] == o.Ll[0] && r.Ur[0] == o.Ur[0] && r.Ll[1] <= o.Ur[1] && r.Ur[1] >= o.Ll[1]:
		r.Ll[1] = min(r.Ll[1], o.Ll[1])
		r.Ur[1] = max(r.Ur[1], o.Ur[1])
		return true
	case r.Ll[1] == o.Ll[1] && r.Ur[1] == o.Ur[1] && r.Ll[0] <= o.Ur[0] && r.Ur[0] >= o.Ll[0]:
		r.Ll[0] = min(r.Ll[0], o.Ll[0])
		r.Ur[0] = max(r.Ur[0], o.Ur[0])
		return true
	case r.Ll[0] <= o.Ll[0] && r.Ur[0] >= o.Ur[0] && r.Ll[1] <= o.Ll[1] && r.Ur[1] >= o.Ur[1]:
		return true
	case o.Ll[0] <= r.Ll[0] && o.Ur[0] >= r.Ur[0] && o.Ll[1] <= r.Ll[1] && o.Ur[1] >= r.Ur[1]:
		r.Ll = o.Ll
		r.Ur = o.Ur
		return true
	}
	return false
}

// Overlaps reports whether the closed rectangles share at least one point.
func (r Rect) Overlaps(o Rect) bool {
	return r.Ll[0] <= o.Ur[0] && r.Ur[0] >= o.Ll[0] &&
		r.Ll[1] <= o.Ur[1] && r.Ur[1] >= o.Ll[1]
}

// OverlapsSegment reports whether the segment v0-v1 crosses r. With withEdge
// false, a segment that only runs along the boundary does not count. A
// zero-length segment is treated as its point.
func (r Rect) OverlapsSegment(v0, v1 Vec2, withEdge bool) bool {
	if v0[0] != v1[0] {
		xa := max(min(v0[0], v1[0]), r.Ll[0])
		xb := min(max(v0[0], v1[0]), r.Ur[0])
		if xa > xb {
			return false
		}
		a := coordAt(v0, v1, 0, xa)
		b := coordAt(v0, v1, 0, xb)
		lo, hi := min(a[1], b[1]), max(a[1], b[1])
		if withEdge {
			return lo <= r.Ur[1] && hi >= r.Ll[1]
		}
		return xa < xb && lo < r.Ur[1] && hi > r.Ll[1]
	}
	if v0[1] == v1[1] {
		return r.Contains(v0, withEdge)
	}
	y0, y1 := min(v0[1], v1[1]), max(v0[1], v1[1])
	if withEdge {
		return v0[0] >= r.Ll[0] && v0[0] <= r.Ur[0] && y0 <= r.Ur[1] && y1 >= r.Ll[1]
	}
	return v0[0] > r.Ll[0] && v0[0] < r.Ur[0] && y0 < r.Ur[1] && y1 > r.Ll[1]
}

// Contains reports whether p lies inside r, including the boundary when
// withEdge is set.
func (r Rect) Contains(p Vec2, withEdge bool) bool {
	if withEdge {
		return p[0] >= r.Ll[0] && p[0] <= r.Ur[0] && p[1] >= r.Ll[1] && p[1] <= r.Ur[1]
	}
	return p[0] > r.Ll[0] && p[0] < r.Ur[0] && p[1] > r.Ll[1] && p[1] < r.Ur[1]
}

// IsZero reports whether r is the (0,0)-(0,0) sentinel used for "no bound yet".
func (r Rect) IsZero() bool {
	return r.Ll == Vec2{} && r.Ur == Vec2{}
}

// BoundPoint grows r to include p.
func (r *Rect) BoundPoint(p Vec2) {
	if r.IsZero() {
		r.Ll, r.Ur = p, p
		return
	}
	r.Ll = r.Ll.Min(p)
	r.Ur = r.Ur.Max(p)
}

// Bound grows r to include o.
func (r *Rect) Bound(o Rect) {
	if r.IsZero() {
		r.Ll, r.Ur = o.Ll, o.Ur
		return
	}
	r.Ll = r.Ll.Min(o.Ll)
	r.Ur = r.Ur.Max(o.Ur)
}

// BoundPoly grows r to include every vertex of p.
func (r *Rect) BoundPoly(p Poly) {
	for _, v := range p.V {
		r.BoundPoint(v)
	}
}

// Intersect returns the overlap of a and b. A side without a net adopts the
// other's net; two different nets conflict and produce NoNet. The result is
// degenerate when the inputs do not overlap.
func Intersect(a, b Rect) Rect {
	net := a.Net
	switch {
	case a.Net < 0:
		net = b.Net
	case b.Net >= 0 && b.Net != a.Net:
		net = NoNet
	}
	return Rect{Net: net, Ll: a.Ll.Max(b.Ll), Ur: a.Ur.Min(b.Ur)}
}

// Grow expands r by d on every side.
func (r *Rect) Grow(d Vec2) {
	r.Ll = r.Ll.Sub(d)
	r.Ur = r.Ur.Add(d)
}

// Shrink contracts r by d on every side. It reports false and leaves r
// untouched when r is too small.
func (r *Rect) Shrink(d Vec2) bool {
	if r.Width() < 2*d[0] || r.Height() < 2*d[1] {
		return false
	}
	r.Ll = r.Ll.Add(d)
	r.Ur = r.Ur.Sub(d)
	return true
}

func (r Rect) Center() Vec2 { return V((r.Ll[0]+r.Ur[0])/2, (r.Ll[1]+r.Ur[1])/2) }
func (r Rect) Width() int   { return r.Ur[0] - r.Ll[0] }
func (r Rect) Height() int  { return r.Ur[1] - r.Ll[1] }
func (r Rect) Size() Vec2   { return r.Ur.Sub(r.Ll) }
func (r Rect) Area() int    { return r.Width() * r.Height() }

// Empty reports whether r has no area.
func (r Rect) Empty() bool {
	return r.Ll[0] >= r.Ur[0] || r.Ll[1] >= r.Ur[1]
}

func (r Rect) String() string {
	return fmt.Sprintf("net=%d %v-%v", r.Net, r.Ll, r.Ur)
}
