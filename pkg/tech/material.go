package tech

import "fmt"

// LevelType identifies the table a Level indexes.
type LevelType int

const (
	LevelInvalid LevelType = iota
	LevelSubst
	LevelRoute
	LevelVia
)

func (t LevelType) String() string {
	switch t {
	case LevelSubst:
		return "subst"
	case LevelRoute:
		return "route"
	case LevelVia:
		return "via"
	}
	return "invalid"
}

// Level is a physical level of the process stack: a substrate (diffusion or
// well), a routing layer, or a via.
type Level struct {
	Type LevelType
	Idx  int
}

func Subst(i int) Level { return Level{Type: LevelSubst, Idx: i} }
func Route(i int) Level { return Level{Type: LevelRoute, Idx: i} }
func ViaLevel(i int) Level {
	return Level{Type: LevelVia, Idx: i}
}

func (l Level) Valid() bool { return l.Type != LevelInvalid }

// Less orders levels by type, then index.
func (l Level) Less(o Level) bool {
	if l.Type != o.Type {
		return l.Type < o.Type
	}
	return l.Idx < o.Idx
}

func (l Level) String() string {
	if !l.Valid() {
		return "invalid"
	}
	return fmt.Sprintf("%s[%d]", l.Type, l.Idx)
}

// Paint is a single mask layer as drawn in GDS.
type Paint struct {
	Name  string
	Major int
	Minor int
	// Fill marks layers whose min-spacing violations may be fixed by filling
	// the gap.
	Fill     bool
	MinWidth int
	// Out lists the rules consuming this layer.
	Out []LayerRef
}

// Material groups the paint layers that make up one physical level.
type Material struct {
	Draw  LayerRef
	Label LayerRef
	Pin   LayerRef
	// Mask layers must cover the material, Excl layers must not.
	Mask []LayerRef
	Excl []LayerRef

	Thickness   float64 // um
	Resistivity float64 // ohms / um
}

// HasDraw reports whether the material has a drawing layer.
func (m Material) HasDraw() bool { return m.Draw.Valid() }

// Contains reports whether ref is one of the material's own layers.
func (m Material) Contains(ref LayerRef) bool {
	return ref.Valid() && (m.Draw == ref || m.Label == ref || m.Pin == ref)
}

// Layers returns the conducting layers of the material, draw first.
func (m Material) Layers() []LayerRef {
	var out []LayerRef
	if m.Draw.Valid() {
		out = append(out, m.Draw)
	}
	if m.Pin.Valid() && m.Pin != m.Draw {
		out = append(out, m.Pin)
	}
	return out
}

// Substrate is a diffusion or well layer. Well points at the enclosing well,
// if any.
type Substrate struct {
	Material
	Well Level
}

// Routing is a wire layer, poly and local interconnect first, then metals.
type Routing struct {
	Material
}

// Via connects the material at Down to the material at Up.
type Via struct {
	Material
	Down Level
	Up   Level
}

// ModelType distinguishes transistor polarity.
type ModelType int

const (
	NMOS ModelType = iota
	PMOS
)

func (t ModelType) String() string {
	if t == PMOS {
		return "pmos"
	}
	return "nmos"
}

// Bin is an allowed transistor width range.
type Bin struct {
	Min, Max int
}

// Model describes how to draw one transistor flavor.
type Model struct {
	Type    ModelType
	Variant string
	// Name is the device name used by the PDK's spice models.
	Name string
	Diff Level
	Bins []Bin
}

// Dielectric separates two levels.
type Dielectric struct {
	Down        Level
	Up          Level
	Thickness   float64 // um
	Permitivity float64 // aF / um
}
