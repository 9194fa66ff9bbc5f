package layout

import (
	"cmp"
	"slices"
)

// Bound is one edge of a rectangle in a layer's sweep index. Pos is the
// coordinate of the edge and Idx the rectangle's position in Layer.Geo.
type Bound struct {
	Pos int
	Idx int
}

func compareBound(a, b Bound) int {
	if c := cmp.Compare(a.Pos, b.Pos); c != 0 {
		return c
	}
	return cmp.Compare(a.Idx, b.Idx)
}

// Sync rebuilds the sweep index from scratch if any mutation invalidated it.
func (l *Layer) Sync() {
	if !l.dirty && l.synced {
		return
	}
	for axis := 0; axis < 2; axis++ {
		for fromTo := 0; fromTo < 2; fromTo++ {
			bounds := l.bound[axis][fromTo][:0]
			for j, r := range l.Geo {
				bounds = append(bounds, Bound{Pos: r.Corner(fromTo)[axis], Idx: j})
			}
			slices.SortFunc(bounds, compareBound)
			l.bound[axis][fromTo] = bounds
		}
	}
	l.dirty = false
	l.synced = true
}

// Bounds returns the sorted lower (fromTo 0) or upper (fromTo 1) edges of
// the layer's rectangles along axis. The returned slice is owned by the
// layer and is valid until the next mutation.
func (l *Layer) Bounds(axis, fromTo int) []Bound {
	l.Sync()
	return l.bound[axis][fromTo]
}

// Dirty reports whether the sweep index is stale.
func (l *Layer) Dirty() bool {
	return l.dirty || !l.synced
}

// insertBounds adds rectangle idx to a synced index in place.
func (l *Layer) insertBounds(idx int) {
	r := l.Geo[idx]
	for axis := 0; axis < 2; axis++ {
		for fromTo := 0; fromTo < 2; fromTo++ {
			b := Bound{Pos: r.Corner(fromTo)[axis], Idx: idx}
			bounds := l.bound[axis][fromTo]
			at, _ := slices.BinarySearchFunc(bounds, b, compareBound)
			l.bound[axis][fromTo] = slices.Insert(bounds, at, b)
		}
	}
}

// removeBounds drops rectangle idx from a synced index and renumbers the
// rectangles after it.
func (l *Layer) removeBounds(idx int) {
	for axis := 0; axis < 2; axis++ {
		for fromTo := 0; fromTo < 2; fromTo++ {
			bounds := slices.DeleteFunc(l.bound[axis][fromTo], func(b Bound) bool { return b.Idx == idx })
			for i := range bounds {
				if bounds[i].Idx > idx {
					bounds[i].Idx--
				}
			}
			l.bound[axis][fromTo] = bounds
		}
	}
}
