package geom

import (
	"errors"
	"fmt"
	"slices"
)

// ErrSplitLimit is returned when polygon decomposition fails to reach a
// fixpoint within its pass budget.
var ErrSplitLimit = errors.New("polygon split did not converge")

// Poly is a closed rectilinear polygon. Vertex order defines the winding;
// Normalize makes it counter-clockwise.
type Poly struct {
	Net int
	V   []Vec2
}

// NewPoly copies the vertices into a new polygon.
func NewPoly(net int, v ...Vec2) Poly {
	return Poly{Net: net, V: slices.Clone(v)}
}

// PolyFromRect returns the counter-clockwise outline of r.
func PolyFromRect(r Rect) Poly {
	return Poly{Net: r.Net, V: []Vec2{r.Ll, V(r.Ur[0], r.Ll[1]), r.Ur, V(r.Ll[0], r.Ur[1])}}
}

// Orientation returns 0 when p, q and r are collinear, 1 for a clockwise
// turn and -1 for a counter-clockwise turn.
func Orientation(p, q, r Vec2) int {
	c := cross(q.Sub(p), r.Sub(q))
	switch {
	case c > 0:
		return 1
	case c < 0:
		return -1
	}
	return 0
}

// SegmentsIntersect reports whether segment a0-a1 touches segment b0-b1,
// including collinear overlap.
func SegmentsIntersect(a0, a1, b0, b1 Vec2) bool {
	o1 := Orientation(a0, a1, b0)
	o2 := Orientation(a0, a1, b1)
	o3 := Orientation(b0, b1, a0)
	o4 := Orientation(b0, b1, a1)
	if o1 != o2 && o3 != o4 {
		return true
	}

	ra := NewRect(NoNet, a0, a1)
	rb := NewRect(NoNet, b0, b1)
	return (o1 == 0 && ra.Contains(b0, true)) ||
		(o2 == 0 && ra.Contains(b1, true)) ||
		(o3 == 0 && rb.Contains(a0, true)) ||
		(o4 == 0 && rb.Contains(a1, true))
}

// Overlaps reports whether the two polygons share any point.
func (p Poly) Overlaps(o Poly) bool {
	if len(p.V) == 0 || len(o.V) == 0 {
		return false
	}
	for i := range p.V {
		j := (i + 1) % len(p.V)
		for k := range o.V {
			l := (k + 1) % len(o.V)
			if SegmentsIntersect(p.V[i], p.V[j], o.V[k], o.V[l]) {
				return true
			}
		}
	}
	return o.Contains(p.V[0]) || p.Contains(o.V[0])
}

// OverlapsRect reports whether the polygon and r share any point.
func (p Poly) OverlapsRect(r Rect) bool {
	if len(p.V) == 0 {
		return false
	}
	for i := range p.V {
		j := (i + 1) % len(p.V)
		if r.OverlapsSegment(p.V[i], p.V[j], true) {
			return true
		}
	}
	return r.Contains(p.V[0], true) || p.Contains(r.Ll)
}

// Contains is an even/odd crossing test. Edge interpolation is exact in
// integer arithmetic for rectilinear edges.
func (p Poly) Contains(pt Vec2) bool {
	windings := 0
	n := len(p.V)
	for i := 0; i < n; i++ {
		a, b := p.V[i], p.V[(i+1)%n]
		switch {
		case a[1] < b[1]:
			if pt[1] >= a[1] && pt[1] < b[1] && crosses(a, b, pt) {
				windings++
			}
		case b[1] < a[1]:
			if pt[1] > b[1] && pt[1] <= a[1] && crosses(b, a, pt) {
				windings++
			}
		}
	}
	return windings%2 == 1
}

// crosses tests pt against the rising edge lo-hi.
func crosses(lo, hi, pt Vec2) bool {
	if pt[0] <= coordAt(lo, hi, 1, pt[1])[0] {
		return true
	}
	return lo[0] != hi[0] && pt[1] <= coordAt(lo, hi, 0, pt[0])[1]
}

// Area returns the signed area, positive for counter-clockwise polygons.
func (p Poly) Area() int {
	total := 0
	n := len(p.V)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		total += (p.V[i][1] + p.V[j][1]) * (p.V[i][0] - p.V[j][0])
	}
	return total / 2
}

// Perim returns the perimeter length.
func (p Poly) Perim() float64 {
	total := 0.0
	n := len(p.V)
	for i := 0; i < n; i++ {
		total += p.V[i].Dist(p.V[(i+1)%n])
	}
	return total
}

// Normalize reverses the vertex order of clockwise polygons.
func (p *Poly) Normalize() {
	if p.Area() < 0 {
		slices.Reverse(p.V)
	}
}

// Empty reports whether the polygon encloses no area.
func (p Poly) Empty() bool {
	return len(p.V) < 3 || p.Area() == 0
}

// Shift maps every vertex to pos + v*dir. Mirroring flips the winding so the
// result is normalized again.
func (p Poly) Shift(pos, dir Vec2) Poly {
	out := Poly{Net: p.Net, V: make([]Vec2, len(p.V))}
	for i, v := range p.V {
		out.V[i] = pos.Add(v.Mul(dir))
	}
	out.Normalize()
	return out
}

// Bound returns the bounding rectangle of the vertices.
func (p Poly) Bound() Rect {
	var r Rect
	if len(p.V) > 0 {
		r = Rect{Net: p.Net, Ll: p.V[0], Ur: p.V[0]}
	}
	for _, v := range p.V {
		r.Ll = r.Ll.Min(v)
		r.Ur = r.Ur.Max(v)
	}
	return r
}

func (p Poly) String() string {
	return fmt.Sprintf("net=%d %v", p.Net, p.V)
}

// Split decomposes a counter-clockwise rectilinear polygon into rectangles by
// repeatedly removing collinear vertices and carving off dog-ear notches.
// Carved rectangles are appended to the result and the polygon shrinks in
// place. Vertices that cannot be reduced further are left in p.V.
func (p *Poly) Split() ([]Rect, error) {
	var result []Rect
	limit := 2*len(p.V) + 4
	for pass := 0; ; pass++ {
		if pass > limit {
			return result, fmt.Errorf("%w: %d vertices left after %d passes", ErrSplitLimit, len(p.V), pass)
		}
		if !p.reduce(&result) {
			return result, nil
		}
	}
}

// reduce applies the first available reduction and reports whether one was
// found.
func (p *Poly) reduce(out *[]Rect) bool {
	for i := range p.V {
		n := len(p.V)
		i1, i2, i3 := (i+1)%n, (i+2)%n, (i+3)%n
		v0, v1, v2, v3 := p.V[i], p.V[i1], p.V[i2], p.V[i3]

		switch {
		case (v0[0] == v1[0] && v1[0] == v2[0]) || (v0[1] == v1[1] && v1[1] == v2[1]):
			p.erase(i1)
			return true
		case (v1[0] == v2[0] && v2[0] == v3[0]) || (v1[1] == v2[1] && v2[1] == v3[1]):
			p.erase(i2)
			return true
		case v0[1] == v1[1] && v1[0] == v2[0] && v3[1] == v2[1]:
			switch {
			case v2[1] > v1[1] && v0[0] < v1[0] && v3[0] < v2[0]:
				r := NewRect(p.Net, V(max(v0[0], v3[0]), v1[1]), v2)
				if p.carve(out, r, i, 0, v0[0], v3[0], 1) {
					return true
				}
			case v1[1] > v2[1] && v0[0] > v1[0] && v3[0] > v2[0]:
				r := NewRect(p.Net, v1, V(min(v0[0], v3[0]), v2[1]))
				if p.carve(out, r, i, 0, v0[0], v3[0], -1) {
					return true
				}
			}
		case v0[0] == v1[0] && v1[1] == v2[1] && v3[0] == v2[0]:
			switch {
			case v1[0] > v2[0] && v0[1] < v1[1] && v3[1] < v2[1]:
				r := NewRect(p.Net, V(v1[0], max(v0[1], v3[1])), v2)
				if p.carve(out, r, i, 1, v0[1], v3[1], 1) {
					return true
				}
			case v2[0] > v1[0] && v0[1] > v1[1] && v3[1] > v2[1]:
				r := NewRect(p.Net, v1, V(v2[0], min(v0[1], v3[1])))
				if p.carve(out, r, i, 1, v0[1], v3[1], -1) {
					return true
				}
			}
		}
	}
	return false
}

// carve removes the dog-ear r anchored at vertex i0 when no other edge of the
// polygon passes through it. c0 and c3 are the axis coordinates of the outer
// vertices of the notch, sign the direction the notch opens toward.
func (p *Poly) carve(out *[]Rect, r Rect, i0, axis, c0, c3, sign int) bool {
	n := len(p.V)
	i1, i2, i3 := (i0+1)%n, (i0+2)%n, (i0+3)%n
	for j := 0; j < n; j++ {
		j1 := (j + 1) % n
		if j == i0 || j == i1 || j == i2 || j == i3 || j1 == i0 {
			continue
		}
		if r.OverlapsSegment(p.V[j], p.V[j1], false) {
			return false
		}
	}

	*out = append(*out, r)
	switch {
	case (c3-c0)*sign > 0:
		p.V[i1][axis] = c3
		p.erase(i2)
	case (c0-c3)*sign > 0:
		p.V[i2][axis] = c0
		p.erase(i1)
	case i1 < i2:
		p.erase(i2)
		p.erase(i1)
	case i2 < i1:
		p.erase(i1)
		p.erase(i2)
	default:
		p.erase(i1)
	}
	return true
}

func (p *Poly) erase(i int) {
	p.V = slices.Delete(p.V, i, i+1)
}
