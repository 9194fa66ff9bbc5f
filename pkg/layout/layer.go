package layout

import (
	"cmp"
	"fmt"
	"io"
	"slices"

	"github.com/chazu/loom/pkg/geom"
	"github.com/chazu/loom/pkg/tech"
)

// Layer is the geometry drawn on one paint layer, or the result of a rule
// over other layers.
//
// Mutations go through the methods so the sweep index used by MinOffset is
// kept honest. Direct writes to Geo must be followed by MarkDirty.
type Layer struct {
	Draw tech.LayerRef

	Geo  []geom.Rect
	Poly []geom.Poly
	Lbl  []geom.Label
	Box  geom.Rect

	IsRouting   bool
	IsSubstrate bool
	IsPin       bool
	IsWell      bool

	dirty  bool
	synced bool
	// indexed [axis][fromTo]
	bound [2][2][]Bound
}

// NewLayer returns an empty layer drawn on draw, with its role flags taken
// from the technology.
func NewLayer(t *tech.Tech, draw tech.LayerRef) *Layer {
	l := &Layer{Draw: draw}
	if t != nil {
		l.IsRouting = t.IsRouting(draw)
		l.IsSubstrate = t.IsSubstrate(draw)
		l.IsPin = t.IsPin(draw)
		l.IsWell = t.IsWell(draw)
	}
	return l
}

// FullPlane returns a layer covering the whole coordinate plane with a
// single unconnected rectangle.
func FullPlane() *Layer {
	l := &Layer{IsRouting: true}
	l.Push(geom.Plane(geom.NoNet))
	return l
}

// Empty reports whether the layer has no rectangles, polygons or labels.
func (l *Layer) Empty() bool {
	return len(l.Geo) == 0 && len(l.Poly) == 0 && len(l.Lbl) == 0
}

// Clear removes all geometry and resets the bounding box.
func (l *Layer) Clear() {
	l.Geo = nil
	l.Poly = nil
	l.Lbl = nil
	l.Box = geom.Rect{}
	for axis := range l.bound {
		for fromTo := range l.bound[axis] {
			l.bound[axis][fromTo] = nil
		}
	}
	l.dirty = false
	l.synced = true
}

// MarkDirty invalidates the sweep index.
func (l *Layer) MarkDirty() { l.dirty = true }

// IsFill reports whether spacing gaps on this layer may be filled. Derived
// layers never are.
func (l *Layer) IsFill(t *tech.Tech) bool {
	return l.Draw.IsPaint() && t.IsFill(l.Draw)
}

// Push appends rectangles. Rectangles with no area are dropped.
func (l *Layer) Push(rects ...geom.Rect) {
	for _, r := range rects {
		if r.Empty() {
			continue
		}
		l.Geo = append(l.Geo, r)
		l.Box.Bound(r)
		l.dirty = true
	}
}

// PushSync appends a rectangle and updates the sweep index in place when it
// is current, avoiding a full re-sort on the next Sync.
func (l *Layer) PushSync(r geom.Rect) {
	if r.Empty() {
		return
	}
	if l.Dirty() {
		l.Push(r)
		return
	}
	l.Geo = append(l.Geo, r)
	l.Box.Bound(r)
	l.insertBounds(len(l.Geo) - 1)
}

// PushPoly appends polygons. They are decomposed into rectangles by
// Normalize.
func (l *Layer) PushPoly(polys ...geom.Poly) {
	for _, p := range polys {
		l.Poly = append(l.Poly, p)
		l.Box.BoundPoly(p)
		l.dirty = true
	}
}

// Erase removes rectangle idx.
func (l *Layer) Erase(idx int) {
	l.Geo = slices.Delete(l.Geo, idx, idx+1)
	l.dirty = true
}

// EraseSync removes rectangle idx and updates the sweep index in place when
// it is current.
func (l *Layer) EraseSync(idx int) {
	if l.Dirty() {
		l.Erase(idx)
		return
	}
	l.Geo = slices.Delete(l.Geo, idx, idx+1)
	l.removeBounds(idx)
}

// Label appends text labels.
func (l *Layer) Label(lbls ...geom.Label) {
	l.Lbl = append(l.Lbl, lbls...)
}

// Normalize splits every polygon into rectangles. Polygons that split
// completely are removed.
func (l *Layer) Normalize() error {
	for i := len(l.Poly) - 1; i >= 0; i-- {
		rects, err := l.Poly[i].Split()
		l.Push(rects...)
		if err != nil {
			return fmt.Errorf("layer %s poly %d: %w", l.Draw, i, err)
		}
		if l.Poly[i].Empty() {
			l.Poly = slices.Delete(l.Poly, i, i+1)
		}
	}
	return nil
}

// Merge coalesces rectangles pairwise in place. Three or more rectangles
// that only form a rectangle together are left alone.
func (l *Layer) Merge() *Layer {
	for i := len(l.Geo) - 2; i >= 0; i-- {
		for j := len(l.Geo) - 1; j > i; j-- {
			if l.Geo[i].Merge(l.Geo[j]) {
				l.Erase(j)
				j = len(l.Geo)
			}
		}
	}
	return l
}

// Clamp returns a copy of the layer with every rectangle clipped to
// [lo, hi] along axis.
func (l *Layer) Clamp(axis, lo, hi int) *Layer {
	out := &Layer{
		Draw:        l.Draw,
		IsRouting:   l.IsRouting,
		IsSubstrate: l.IsSubstrate,
		IsPin:       l.IsPin,
		IsWell:      l.IsWell,
	}
	for _, r := range l.Geo {
		r.Ll[axis] = max(r.Ll[axis], lo)
		r.Ur[axis] = min(r.Ur[axis], hi)
		if r.Ll[axis] < r.Ur[axis] {
			out.Geo = append(out.Geo, r)
			out.Box.Bound(r)
			out.dirty = true
		}
	}
	return out
}

// Shift maps all geometry in place through pos + v*dir.
func (l *Layer) Shift(pos, dir geom.Vec2) *Layer {
	for i := range l.Geo {
		l.Geo[i] = l.Geo[i].Shift(pos, dir)
	}
	for i := range l.Poly {
		l.Poly[i] = l.Poly[i].Shift(pos, dir)
	}
	for i := range l.Lbl {
		l.Lbl[i] = l.Lbl[i].Shift(pos, dir)
	}
	if !l.Box.IsZero() {
		l.Box = l.Box.Shift(pos, dir)
	}
	l.dirty = true
	return l
}

// FillSpacing closes gaps narrower than the layer's self spacing between
// rectangles of the same net. Unconnected rectangles are only filled on
// fill capable layers.
func (l *Layer) FillSpacing(t *tech.Tech) *Layer {
	fill := t.IsFill(l.Draw)
	minSpacing := 0
	if l.Draw.IsPaint() {
		minSpacing = t.Spacing(l.Draw, l.Draw)
	}
	for i := len(l.Geo) - 1; i >= 0; i-- {
		ri := l.Geo[i]
		if !fill && ri.Net < 0 {
			continue
		}
		for j := i - 1; j >= 0; j-- {
			rj := l.Geo[j]
			if ri.Net != rj.Net {
				continue
			}
			if gapped(ri, rj, 0, minSpacing) || gapped(ri, rj, 1, minSpacing) {
				l.Push(geom.NewRect(ri.Net,
					geom.V(min(ri.Ur[0], rj.Ur[0]), max(ri.Ll[1], rj.Ll[1])),
					geom.V(max(ri.Ll[0], rj.Ll[0]), min(ri.Ur[1], rj.Ur[1]))))
			}
		}
	}
	return l
}

// gapped reports whether a and b overlap strictly across axis and are
// separated along it by less than spacing.
func gapped(a, b geom.Rect, axis, spacing int) bool {
	o := 1 - axis
	if !(b.Ll[o] < a.Ur[o] && a.Ll[o] < b.Ur[o]) {
		return false
	}
	return (a.Ur[axis] < b.Ll[axis] && b.Ll[axis] < a.Ur[axis]+spacing) ||
		(b.Ur[axis] < a.Ll[axis] && a.Ll[axis] < b.Ur[axis]+spacing)
}

// Trace groups rectangles into connected clusters of overlapping geometry.
// Clusters are ordered by their lowest rectangle index and list their
// rectangles in ascending order.
func (l *Layer) Trace() [][]int {
	uf := newUnionFind(len(l.Geo))
	for i := range l.Geo {
		for j := 0; j < i; j++ {
			if l.Geo[i].Overlaps(l.Geo[j]) {
				uf.union(i, j)
			}
		}
	}
	return uf.groups()
}

// Split returns one layer per cluster. When clusters is nil the layer is
// traced first.
func (l *Layer) Split(clusters [][]int) []*Layer {
	if clusters == nil {
		clusters = l.Trace()
	}
	out := make([]*Layer, 0, len(clusters))
	for _, c := range clusters {
		sub := &Layer{
			Draw:        l.Draw,
			IsRouting:   l.IsRouting,
			IsSubstrate: l.IsSubstrate,
			IsPin:       l.IsPin,
			IsWell:      l.IsWell,
		}
		for _, idx := range c {
			sub.Push(l.Geo[idx])
		}
		out = append(out, sub)
	}
	return out
}

// Area returns the area covered by the layer's rectangles, counting
// overlapping regions once. The sum clamps at geom.MaxCoord, which is what
// an unbounded layer reports.
func (l *Layer) Area() int {
	var xs []int
	for _, r := range l.Geo {
		xs = append(xs, r.Ll[0], r.Ur[0])
	}
	slices.Sort(xs)
	xs = slices.Compact(xs)

	total := 0
	for k := 0; k+1 < len(xs); k++ {
		x0, x1 := xs[k], xs[k+1]
		type span struct{ lo, hi int }
		var spans []span
		for _, r := range l.Geo {
			if r.Ll[0] <= x0 && r.Ur[0] >= x1 {
				spans = append(spans, span{r.Ll[1], r.Ur[1]})
			}
		}
		slices.SortFunc(spans, func(a, b span) int { return cmp.Compare(a.lo, b.lo) })
		covered, end := 0, 0
		for i, s := range spans {
			if i == 0 || s.lo > end {
				covered = geom.AddSat(covered, geom.SubSat(s.hi, s.lo))
				end = s.hi
			} else if s.hi > end {
				covered = geom.AddSat(covered, geom.SubSat(s.hi, end))
				end = s.hi
			}
		}
		total = geom.AddSat(total, geom.MulSat(covered, geom.SubSat(x1, x0)))
	}
	return total
}

// Unbounded reports whether some rectangle reaches the plane extents, as
// the complement of a finite layer does.
func (l *Layer) Unbounded() bool {
	for _, r := range l.Geo {
		if r.Ll[0] == geom.MinCoord || r.Ll[1] == geom.MinCoord ||
			r.Ur[0] == geom.MaxCoord || r.Ur[1] == geom.MaxCoord {
			return true
		}
	}
	return false
}

// Overlaps reports whether any rectangle touches r.
func (l *Layer) Overlaps(r geom.Rect) bool {
	for _, g := range l.Geo {
		if g.Overlaps(r) {
			return true
		}
	}
	return false
}

// OverlapsLayer reports whether any rectangle of l touches any rectangle of
// o.
func (l *Layer) OverlapsLayer(o *Layer) bool {
	for _, g := range l.Geo {
		if o.Overlaps(g) {
			return true
		}
	}
	return false
}

// Dump writes a human readable listing of the layer.
func (l *Layer) Dump(w io.Writer, t *tech.Tech, nets []Net) {
	name := ""
	if t != nil {
		name = t.Print(l.Draw)
	}
	fmt.Fprintf(w, "layer %s(%s)\n", name, l.Draw)
	for j, r := range l.Geo {
		fmt.Fprintf(w, "\trect[%d] %s(%d) %v %v\n", j, netName(nets, r.Net), r.Net, r.Ll, r.Ur)
	}
	for j, p := range l.Poly {
		fmt.Fprintf(w, "\tpoly[%d] %s(%d) %v\n", j, netName(nets, p.Net), p.Net, p.V)
	}
	for j, lbl := range l.Lbl {
		fmt.Fprintf(w, "\tlabel[%d] %s(%d) %v %s\n", j, netName(nets, lbl.Net), lbl.Net, lbl.Pos, lbl.Text)
	}
}

func netName(nets []Net, idx int) string {
	if idx < 0 || idx >= len(nets) || len(nets[idx].Names) == 0 {
		return ""
	}
	return nets[idx].Names[0]
}
