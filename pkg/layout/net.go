package layout

import (
	"slices"

	"github.com/chazu/loom/pkg/geom"
)

// Net is one electrical net and the names it is known by.
type Net struct {
	// Names is kept sorted and free of duplicates.
	Names []string

	IsVdd    bool
	IsGND    bool
	IsInput  bool
	IsOutput bool
	IsSub    bool
}

// NewNet returns a net known by a single name.
func NewNet(name string) Net {
	return Net{Names: []string{name}}
}

// Set adds a name to the net.
func (n *Net) Set(name string) {
	at, found := slices.BinarySearch(n.Names, name)
	if !found {
		n.Names = slices.Insert(n.Names, at, name)
	}
}

// Has reports whether the net is known by name. Matching is exact.
func (n Net) Has(name string) bool {
	_, found := slices.BinarySearch(n.Names, name)
	return found
}

// Name returns the first name of the net, or the empty string.
func (n Net) Name() string {
	if len(n.Names) == 0 {
		return ""
	}
	return n.Names[0]
}

// Instance places a sub-cell in a layout.
type Instance struct {
	Macro int
	Pos   geom.Vec2
	// Dir holds +1 or -1 per axis; -1 mirrors the cell about that axis.
	Dir   geom.Vec2
	Ports []int
}

// NewInstance returns an unmirrored placement of macro at pos.
func NewInstance(macro int, pos geom.Vec2) Instance {
	return Instance{Macro: macro, Pos: pos, Dir: geom.V(1, 1)}
}

// Shift composes the instance transform with pos + v*dir.
func (i Instance) Shift(pos, dir geom.Vec2) Instance {
	i.Pos = pos.Add(i.Pos.Mul(dir))
	i.Dir = i.Dir.Mul(dir)
	return i
}
