// Package tessellate extrudes the levels of a layout into triangle meshes
// using a geometry kernel. One mesh is produced per level.
package tessellate

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/chazu/loom/pkg/geom"
	"github.com/chazu/loom/pkg/kernel"
	"github.com/chazu/loom/pkg/layout"
	"github.com/chazu/loom/pkg/tech"
)

// Options controls extrusion and meshing.
type Options struct {
	// Cells is the marching cubes resolution along the longest side of each
	// mesh. Zero selects the kernel default.
	Cells int
	// ZScale exaggerates heights. Layer stacks are far thinner than they
	// are wide and thin slabs vanish below the mesh resolution.
	ZScale float64
	// Clip, when not empty, keeps only the geometry inside it.
	Clip geom.Rect
}

// DefaultOptions returns options with no exaggeration and no clip.
func DefaultOptions() Options {
	return Options{ZScale: 1}
}

// Slab is one level of a layout ready for extrusion. Heights are in
// micrometers, rectangles in database units.
type Slab struct {
	Level  tech.Level
	Name   string
	Bottom float64
	Top    float64
	Rects  []geom.Rect
}

// Slabs returns the effective geometry of every level of l that has both
// geometry and a thickness, ordered bottom up. Substrates come before
// wires and vias at the same height.
func Slabs(l *layout.Layout) ([]Slab, error) {
	t := l.Tech
	var levels []tech.Level
	for i := range t.Subst {
		levels = append(levels, tech.Subst(i))
	}
	for i := range t.Wires {
		levels = append(levels, tech.Route(i))
	}
	for i := range t.Vias {
		levels = append(levels, tech.ViaLevel(i))
	}

	var slabs []Slab
	for _, lv := range levels {
		mat := t.At(lv)
		if mat == nil || mat.Thickness <= 0 {
			continue
		}
		layer, err := l.Get(lv)
		if err != nil {
			return nil, fmt.Errorf("tessellate: %w", err)
		}
		if len(layer.Geo) == 0 {
			continue
		}
		bottom := t.Elevation(lv)
		slabs = append(slabs, Slab{
			Level:  lv,
			Name:   t.PaintName(mat.Draw),
			Bottom: bottom,
			Top:    bottom + mat.Thickness,
			Rects:  slices.Clone(layer.Geo),
		})
	}
	slices.SortStableFunc(slabs, func(a, b Slab) int {
		return cmp.Compare(a.Bottom, b.Bottom)
	})
	return slabs, nil
}

// Layout meshes every slab of l. Coordinates are scaled from database units
// to micrometers. Slabs too thin for the mesh resolution are skipped; the
// caller can compare against Slabs to report them.
func Layout(l *layout.Layout, k kernel.Kernel, opts Options) ([]*kernel.Mesh, error) {
	slabs, err := Slabs(l)
	if err != nil {
		return nil, err
	}

	scale := l.Tech.DBUnit
	if scale <= 0 {
		scale = 1
	}
	zs := opts.ZScale
	if zs <= 0 {
		zs = 1
	}

	var meshes []*kernel.Mesh
	for _, s := range slabs {
		solid := extrude(k, s, opts.Clip, scale, zs)
		if solid == nil {
			continue
		}
		mesh, err := k.ToMesh(solid, opts.Cells)
		if errors.Is(err, kernel.ErrEmptyMesh) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("tessellate: %s %s: %w", s.Level, s.Name, err)
		}
		mesh.Name = s.Name
		mesh.Level = s.Level.String()
		mesh.Bottom = s.Bottom * zs
		mesh.Top = s.Top * zs
		meshes = append(meshes, mesh)
	}
	return meshes, nil
}

// extrude builds one box per rectangle and unions them. It returns nil when
// clipping leaves nothing.
func extrude(k kernel.Kernel, s Slab, clip geom.Rect, scale, zs float64) kernel.Solid {
	height := (s.Top - s.Bottom) * zs
	var solids []kernel.Solid
	for _, r := range s.Rects {
		if !clip.Empty() {
			r = geom.Intersect(r, clip)
			if r.Empty() {
				continue
			}
		}
		box := k.Box(float64(r.Width())*scale, float64(r.Height())*scale, height)
		solids = append(solids, k.Translate(box, float64(r.Ll[0])*scale, float64(r.Ll[1])*scale, s.Bottom*zs))
	}
	if len(solids) == 0 {
		return nil
	}
	return k.Union(solids...)
}
