// Package layout holds the geometry of a cell drawn against a technology:
// per-layer rectangles, polygons and labels, the boolean layer algebra used
// by design rules, net extraction and the spacing sweep used to abut cells.
package layout

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/chazu/loom/pkg/geom"
	"github.com/chazu/loom/pkg/tech"
)

// ErrUnknownLevel is returned when a level does not exist in the
// technology.
var ErrUnknownLevel = errors.New("unknown level")

// Layout is one cell.
type Layout struct {
	Tech *tech.Tech

	Name   string
	Box    geom.Rect
	Nets   []Net
	Layers map[tech.LayerRef]*Layer
	Inst   []Instance
}

// New returns an empty layout drawn against t.
func New(t *tech.Tech) *Layout {
	return &Layout{Tech: t, Layers: make(map[tech.LayerRef]*Layer)}
}

// Find returns the layer drawn on ref if the layout has one.
func (l *Layout) Find(ref tech.LayerRef) (*Layer, bool) {
	layer, ok := l.Layers[ref]
	return layer, ok
}

// At returns the layer drawn on ref, creating it if needed.
func (l *Layout) At(ref tech.LayerRef) *Layer {
	if layer, ok := l.Layers[ref]; ok {
		return layer
	}
	if l.Layers == nil {
		l.Layers = make(map[tech.LayerRef]*Layer)
	}
	layer := NewLayer(l.Tech, ref)
	l.Layers[ref] = layer
	return layer
}

// Refs returns the layers present in the layout, paint before rule, each in
// index order.
func (l *Layout) Refs() []tech.LayerRef {
	refs := slices.Collect(maps.Keys(l.Layers))
	tech.SortRefs(refs)
	return refs
}

// Get returns the effective geometry of a level: its label and draw layers
// unioned, intersected with every mask layer and with the complement of
// every exclusion layer. A missing mask leaves nothing.
func (l *Layout) Get(level tech.Level) (*Layer, error) {
	mat := l.Tech.At(level)
	if mat == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLevel, level)
	}

	draw, hasDraw := l.Find(mat.Draw)
	label, hasLabel := l.Find(mat.Label)
	if !hasDraw && !hasLabel {
		return &Layer{}, nil
	}

	result := NewLayer(l.Tech, mat.Draw)
	if hasLabel {
		result = Or(result, label)
		result.Draw = mat.Label
	}
	if hasDraw {
		result = Or(result, draw)
		result.Draw = mat.Draw
	}
	for _, ref := range mat.Mask {
		mask, ok := l.Find(ref)
		if !ok {
			return &Layer{}, nil
		}
		result = And(result, mask)
	}
	for _, ref := range mat.Excl {
		if excl, ok := l.Find(ref); ok {
			result = And(result, Not(excl))
		}
	}
	return result, nil
}

// Push draws rectangles on a layer.
func (l *Layout) Push(ref tech.LayerRef, rects ...geom.Rect) {
	layer := l.At(ref)
	layer.Push(rects...)
	l.Box.Bound(layer.Box)
}

// PushPoly draws polygons on a layer.
func (l *Layout) PushPoly(ref tech.LayerRef, polys ...geom.Poly) {
	layer := l.At(ref)
	layer.PushPoly(polys...)
	l.Box.Bound(layer.Box)
}

// PushLevel draws rectangles on a level's draw layer (its label layer when
// it has none), then on each mask layer, grown by the enclosing rule
// between consecutive layers. Substrates with a well continue into the well
// on net base. With axis 0 the overhang is applied long side along x. It
// returns the total overhang added on each side.
func (l *Layout) PushLevel(level tech.Level, rects []geom.Rect, base, axis int) (geom.Vec2, error) {
	mat := l.Tech.At(level)
	if mat == nil {
		return geom.Vec2{}, fmt.Errorf("%w: %s", ErrUnknownLevel, level)
	}
	rects = slices.Clone(rects)

	prev := mat.Draw
	if !mat.HasDraw() {
		prev = mat.Label
	}
	l.Push(prev, rects...)

	for i := range rects {
		rects[i].Net = geom.NoNet
	}
	var total geom.Vec2
	grow := func(outer, inner tech.LayerRef) {
		lo, hi := l.Tech.Enclosing(outer, inner)
		overhang := geom.V(max(lo, 0), max(hi, 0))
		if axis == 0 {
			overhang[0], overhang[1] = overhang[1], overhang[0]
		}
		total = total.Add(overhang)
		for i := range rects {
			rects[i].Grow(overhang)
		}
	}

	for _, mask := range mat.Mask {
		if prev.Valid() {
			grow(mask, prev)
		}
		l.Push(mask, rects...)
		prev = mask
	}

	if level.Type == tech.LevelSubst {
		well := l.Tech.Subst[level.Idx].Well
		if wm := l.Tech.At(well); wm != nil {
			grow(wm.Draw, prev)
			for i := range rects {
				rects[i].Net = base
			}
			sub, err := l.PushLevel(well, rects, base, axis)
			if err != nil {
				return total, err
			}
			total = total.Add(sub)
		}
	}
	return total, nil
}

// Label places labels on a layer.
func (l *Layout) Label(ref tech.LayerRef, lbls ...geom.Label) {
	l.At(ref).Label(lbls...)
}

// LabelLevel places labels on a level's label layer.
func (l *Layout) LabelLevel(level tech.Level, lbls ...geom.Label) error {
	mat := l.Tech.At(level)
	if mat == nil {
		return fmt.Errorf("%w: %s", ErrUnknownLevel, level)
	}
	l.Label(mat.Label, lbls...)
	return nil
}

// PushInstance records a sub-cell placement whose own bounding box is box.
func (l *Layout) PushInstance(inst Instance, box geom.Rect) {
	l.Inst = append(l.Inst, inst)
	l.Box.Bound(box.Shift(inst.Pos, inst.Dir))
}

// NetAt returns the index of the net known by name, creating it if none is.
func (l *Layout) NetAt(name string) int {
	for i := range l.Nets {
		if l.Nets[i].Has(name) {
			return i
		}
	}
	l.Nets = append(l.Nets, NewNet(name))
	return len(l.Nets) - 1
}

// Normalize splits the polygons of every layer into rectangles.
func (l *Layout) Normalize() error {
	var errs []error
	for _, ref := range l.Refs() {
		if err := l.Layers[ref].Normalize(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Merge coalesces the rectangles of every layer.
func (l *Layout) Merge() {
	for _, layer := range l.Layers {
		layer.Merge()
	}
}

// Shift moves and mirrors the whole cell in place.
func (l *Layout) Shift(pos, dir geom.Vec2) *Layout {
	if pos == (geom.Vec2{}) && dir == geom.V(1, 1) {
		return l
	}
	for _, layer := range l.Layers {
		layer.Shift(pos, dir)
	}
	for i := range l.Inst {
		l.Inst[i] = l.Inst[i].Shift(pos, dir)
	}
	if !l.Box.IsZero() {
		l.Box = l.Box.Shift(pos, dir)
	}
	return l
}

// Empty reports whether the layout has no layers.
func (l *Layout) Empty() bool {
	return len(l.Layers) == 0
}

// Clear drops all geometry and nets. Instances are kept.
func (l *Layout) Clear() {
	l.Name = ""
	l.Box = geom.Rect{}
	l.Layers = make(map[tech.LayerRef]*Layer)
	l.Nets = nil
}

// Dump writes every layer with net names resolved.
func (l *Layout) Dump(w io.Writer) {
	for i, ref := range l.Refs() {
		fmt.Fprintf(w, "[%d] ", i)
		l.Layers[ref].Dump(w, l.Tech, l.Nets)
	}
}
