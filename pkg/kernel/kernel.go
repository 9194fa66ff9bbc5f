// Package kernel defines the solid modeling interface used to build 3D
// views of a layer stack. Implementations provide boxes, booleans and
// meshing behind this interface so the backend can be swapped without
// touching the extrusion code.
package kernel

import "errors"

// ErrEmptyMesh is returned by ToMesh when the solid produced no triangles,
// usually because it is thinner than one cell.
var ErrEmptyMesh = errors.New("mesh has no triangles")

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Box returns a box with its minimum corner at the origin.
	Box(x, y, z float64) Solid

	// Union of one or more solids.
	Union(solids ...Solid) Solid

	Translate(s Solid, x, y, z float64) Solid

	// ToMesh triangulates s. cells sets the resolution along the longest
	// side; zero or less selects the implementation default.
	ToMesh(s Solid, cells int) (*Mesh, error)
}
