// Package sdfx implements kernel.Kernel with github.com/deadsy/sdfx.
package sdfx

import (
	"fmt"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/loom/pkg/kernel"
)

var _ kernel.Kernel = (*Kernel)(nil)

// DefaultMeshCells controls marching cubes resolution when the caller does
// not pick one.
const DefaultMeshCells = 100

type solid struct {
	s sdf.SDF3
}

func (s *solid) BoundingBox() (min, max [3]float64) {
	bb := s.s.BoundingBox()
	return [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}, [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
}

// Kernel builds level slabs as signed distance functions and meshes them
// with marching cubes.
type Kernel struct{}

func New() *Kernel {
	return &Kernel{}
}

func unwrap(s kernel.Solid) sdf.SDF3 {
	return s.(*solid).s
}

// Box creates a box with its minimum corner at the origin. sdf.Box3D
// centers the box, so it is shifted by half its size.
func (k *Kernel) Box(x, y, z float64) kernel.Solid {
	s, err := sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, 0)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Box3D: %v", err))
	}
	m := sdf.Translate3d(v3.Vec{X: x / 2, Y: y / 2, Z: z / 2})
	return &solid{sdf.Transform3D(s, m)}
}

// Union returns the union of the solids. It panics when called with none.
func (k *Kernel) Union(solids ...kernel.Solid) kernel.Solid {
	switch len(solids) {
	case 0:
		panic("sdfx.Union: no solids")
	case 1:
		return solids[0]
	}
	parts := make([]sdf.SDF3, len(solids))
	for i, s := range solids {
		parts[i] = unwrap(s)
	}
	return &solid{sdf.Union3D(parts...)}
}

func (k *Kernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	m := sdf.Translate3d(v3.Vec{X: x, Y: y, Z: z})
	return &solid{sdf.Transform3D(unwrap(s), m)}
}

// ToMesh samples s on a grid of cells along its longest side and returns
// flat shaded triangles. kernel.ErrEmptyMesh means the solid is thinner
// than a cell.
func (k *Kernel) ToMesh(s kernel.Solid, cells int) (*kernel.Mesh, error) {
	if cells <= 0 {
		cells = DefaultMeshCells
	}
	triangles := render.ToTriangles(unwrap(s), render.NewMarchingCubesUniform(cells))
	if len(triangles) == 0 {
		return nil, kernel.ErrEmptyMesh
	}

	n := len(triangles) * 3
	m := &kernel.Mesh{
		Vertices: make([]float32, 0, n*3),
		Normals:  make([]float32, 0, n*3),
		Indices:  make([]uint32, 0, n),
	}
	for _, tri := range triangles {
		nv := tri.Normal()
		for _, v := range tri {
			m.Indices = append(m.Indices, uint32(len(m.Vertices)/3))
			m.Vertices = append(m.Vertices, float32(v.X), float32(v.Y), float32(v.Z))
			m.Normals = append(m.Normals, float32(nv.X), float32(nv.Y), float32(nv.Z))
		}
	}
	return m, nil
}
