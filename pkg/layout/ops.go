package layout

import "github.com/chazu/loom/pkg/geom"

// The boolean operators below never modify their operands. Each result is
// drawn on the first operand's layer. They compare every pair of
// rectangles, which is fine for cell sized inputs.

// And intersects two layers. A well layer does not lend its net to the
// intersection. Labels of l0 that fall on l1 are kept.
func And(l0, l1 *Layer) *Layer {
	out := &Layer{
		Draw:        l0.Draw,
		IsRouting:   l0.IsRouting && l1.IsRouting,
		IsSubstrate: l0.IsSubstrate || l1.IsSubstrate,
		IsPin:       l0.IsPin || l1.IsPin,
		IsWell:      l0.IsWell && l1.IsWell,
	}
	for _, r0 := range l0.Geo {
		if l0.IsWell {
			r0.Net = geom.NoNet
		}
		for _, r1 := range l1.Geo {
			if !r0.Overlaps(r1) {
				continue
			}
			if l1.IsWell {
				r1.Net = geom.NoNet
			}
			out.Push(geom.Intersect(r0, r1))
		}
	}
	out.Label(labelsOn(l0, l1, true)...)
	return out
}

// Or unions two layers and coalesces the result.
func Or(l0, l1 *Layer) *Layer {
	out := &Layer{
		Draw:        l0.Draw,
		IsRouting:   l0.IsRouting && l1.IsRouting,
		IsSubstrate: l0.IsSubstrate || l1.IsSubstrate,
		IsPin:       l0.IsPin,
		IsWell:      l0.IsWell,
	}
	out.Push(l0.Geo...)
	out.Push(l1.Geo...)
	out.Label(l0.Lbl...)
	out.Label(l1.Lbl...)
	return out.Merge()
}

// Not complements a layer against the whole plane. For each rectangle the
// running result is cut down to the four regions around it.
func Not(l *Layer) *Layer {
	out := FullPlane()
	out.Draw = l.Draw
	for _, r := range l.Geo {
		step := &Layer{}
		step.Push(
			geom.NewRect(geom.NoNet, geom.V(r.Ur[0], geom.MinCoord), geom.V(geom.MaxCoord, geom.MaxCoord)),
			geom.NewRect(geom.NoNet, geom.V(geom.MinCoord, geom.MinCoord), geom.V(r.Ll[0], geom.MaxCoord)),
			geom.NewRect(geom.NoNet, geom.V(r.Ll[0], geom.MinCoord), geom.V(r.Ur[0], r.Ll[1])),
			geom.NewRect(geom.NoNet, geom.V(r.Ll[0], r.Ur[1]), geom.V(r.Ur[0], geom.MaxCoord)),
		)
		out = And(out, step)
		out.Merge()
	}
	out.IsRouting = !l.IsRouting
	out.IsSubstrate = !l.IsSubstrate
	out.IsPin = l.IsPin
	out.IsWell = l.IsWell
	return out
}

// Interact keeps the rectangles of l0 that touch l1.
func Interact(l0, l1 *Layer) *Layer {
	return selectTouching(l0, l1, true)
}

// NotInteract keeps the rectangles of l0 that do not touch l1.
func NotInteract(l0, l1 *Layer) *Layer {
	return selectTouching(l0, l1, false)
}

func selectTouching(l0, l1 *Layer, touching bool) *Layer {
	out := &Layer{
		Draw:        l0.Draw,
		IsRouting:   l0.IsRouting,
		IsSubstrate: l0.IsSubstrate,
		IsPin:       l0.IsPin,
		IsWell:      l0.IsWell,
	}
	for _, r0 := range l0.Geo {
		if l1.Overlaps(r0) == touching {
			out.Push(r0)
		}
	}
	out.Label(labelsOn(l0, l1, touching)...)
	return out
}

// labelsOn returns the labels of l0 that do (or do not) sit on l1.
func labelsOn(l0, l1 *Layer, on bool) []geom.Label {
	var out []geom.Label
	for _, lbl := range l0.Lbl {
		found := false
		for _, r := range l1.Geo {
			if r.Contains(lbl.Pos, true) {
				found = true
				break
			}
		}
		if found == on {
			out = append(out, lbl)
		}
	}
	return out
}
