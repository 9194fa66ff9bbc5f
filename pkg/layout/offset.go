package layout

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/chazu/loom/pkg/geom"
	"github.com/chazu/loom/pkg/tech"
)

// Mode says how spacing rules treat a class of layers when two cells abut.
type Mode int

const (
	// Default applies spacing rules as written.
	Default Mode = iota
	// MergeNet lets geometry of the same net on the same layer touch.
	MergeNet
	// Ignore skips spacing rules on the layer.
	Ignore
)

func (m Mode) String() string {
	switch m {
	case Default:
		return "default"
	case MergeNet:
		return "mergenet"
	case Ignore:
		return "ignore"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode parses the String form of a mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "default", "":
		return Default, nil
	case "mergenet", "merge-net", "merge_net":
		return MergeNet, nil
	case "ignore":
		return Ignore, nil
	}
	return Default, fmt.Errorf("unknown mode %q", s)
}

// OffsetOptions controls the layout level spacing sweep.
type OffsetOptions struct {
	SubstrateMode Mode
	RoutingMode   Mode
	// HorizSpacing keeps the cross axis part of spacing rules. Turning it off
	// suppresses spurious conflicts between transistor stacks.
	HorizSpacing bool
}

// DefaultOffsetOptions applies every rule as written.
func DefaultOffsetOptions() OffsetOptions {
	return OffsetOptions{HorizSpacing: true}
}

type stackElem struct {
	net int
	pos int
}

func compareElem(a, b stackElem) int {
	if c := cmp.Compare(a.pos, b.pos); c != 0 {
		return c
	}
	return cmp.Compare(a.net, b.net)
}

// MinOffset sweeps two layers along the cross axis and returns the
// smallest shift of l1 along axis, starting from offset, that keeps it
// spacing[axis] away from l0. Rectangles are only in contention when their
// cross axis extents come within spacing[1-axis]. l0Shift and l1Shift move
// each layer along the cross axis. With mergeNet, same net geometry on the
// same draw layer may touch. The second result reports whether offset had
// to grow.
func MinOffset(axis int, l0 *Layer, l0Shift int, l1 *Layer, l1Shift int, spacing geom.Vec2, mergeNet bool, offset int) (int, bool) {
	l0.Sync()
	l1.Sync()

	layers := [2]*Layer{l0, l1}
	shifts := [2]int{l0Shift, l1Shift}
	cross := 1 - axis
	half := spacing[cross] / 2

	conflict := false
	var stack [2][]stackElem
	// indexed [layer][fromTo]
	var idx [2][2]int
	for {
		minValue, minLayer, minFromTo := 0, -1, -1
		for layer := 0; layer < 2; layer++ {
			for fromTo := 0; fromTo < 2; fromTo++ {
				bounds := layers[layer].bound[cross][fromTo]
				if idx[layer][fromTo] >= len(bounds) {
					continue
				}
				value := geom.AddSat(bounds[idx[layer][fromTo]].Pos, shifts[layer])
				if fromTo == 0 {
					value = geom.SubSat(value, half)
				} else {
					value = geom.AddSat(value, half)
				}
				if minLayer < 0 || value < minValue || (value == minValue && minFromTo < fromTo) {
					minValue, minLayer, minFromTo = value, layer, fromTo
				}
			}
		}
		if minLayer < 0 {
			break
		}

		b := layers[minLayer].bound[cross][minFromTo][idx[minLayer][minFromTo]]
		idx[minLayer][minFromTo]++
		rect := layers[minLayer].Geo[b.Idx]

		// Distance runs from layer 0's far edge to layer 1's near edge.
		elem := stackElem{net: rect.Net, pos: rect.Corner(1 - minLayer)[axis]}
		s := stack[minLayer]
		at, found := slices.BinarySearchFunc(s, elem, compareElem)
		if minFromTo == 1 {
			if found {
				stack[minLayer] = slices.Delete(s, at, at+1)
			}
			continue
		}
		stack[minLayer] = slices.Insert(s, at, elem)

		contends := func(other stackElem) bool {
			return l0.Draw != l1.Draw || other.net != elem.net || !mergeNet
		}
		if minLayer == 0 {
			for _, other := range stack[1] {
				if contends(other) {
					if diff := geom.SubSat(geom.AddSat(elem.pos, spacing[axis]), other.pos); diff > offset {
						offset, conflict = diff, true
					}
					break
				}
			}
		} else {
			for i := len(stack[0]) - 1; i >= 0; i-- {
				if other := stack[0][i]; contends(other) {
					if diff := geom.SubSat(geom.AddSat(other.pos, spacing[axis]), elem.pos); diff > offset {
						offset, conflict = diff, true
					}
					break
				}
			}
		}
	}
	return offset, conflict
}

// MinOffsetLayouts runs MinOffset for every spacing rule that applies to
// both cells, in both operand orders, and returns the largest required
// offset of right relative to left along axis.
func MinOffsetLayouts(axis int, left *Layout, leftShift int, right *Layout, rightShift int, opts OffsetOptions, offset int) (int, bool, error) {
	e0, err := NewEvaluation(left)
	if err != nil {
		return offset, false, fmt.Errorf("evaluate %s: %w", left.Name, err)
	}
	e1, err := NewEvaluation(right)
	if err != nil {
		return offset, false, fmt.Errorf("evaluate %s: %w", right.Name, err)
	}
	t := left.Tech
	conflict := false

	mode := func(l *Layer) Mode {
		switch {
		case l.IsRouting:
			return opts.RoutingMode
		case l.IsSubstrate && l.IsFill(t):
			return MergeNet
		case l.IsSubstrate:
			return opts.SubstrateMode
		}
		return Default
	}
	check := func(a, b tech.LayerRef, spacing geom.Vec2) {
		if !e0.Has(a) || !e1.Has(b) {
			return
		}
		l0, l1 := e0.At(a), e1.At(b)
		m0, m1 := mode(l0), mode(l1)
		if m0 == Ignore || m1 == Ignore {
			return
		}
		var found bool
		offset, found = MinOffset(axis, l0, leftShift, l1, rightShift, spacing, m0 == MergeNet && m1 == MergeNet, offset)
		if found {
			conflict = true
		}
	}

	p0, p1 := e0.Pending(), e1.Pending()
	for i, j := 0, 0; i < len(p0) && j < len(p1); {
		switch c := p0[i].Compare(p1[j]); {
		case c < 0:
			i++
			continue
		case c > 0:
			j++
			continue
		}
		ref := p0[i]
		i++
		j++

		rule, err := t.Rule(ref)
		if err != nil {
			return offset, conflict, err
		}
		s, ok := rule.Expr.(tech.Spacing)
		if !ok {
			continue
		}
		spacing := geom.V(s.Value, s.Value)
		if !opts.HorizSpacing {
			spacing[1-axis] = 0
		}
		check(s.A, s.B, spacing)
		if s.A != s.B {
			check(s.B, s.A, spacing)
		}
	}
	return offset, conflict, nil
}
