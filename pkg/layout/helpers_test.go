package layout

import (
	"github.com/chazu/loom/pkg/geom"
	"github.com/chazu/loom/pkg/tech"
)

// sample is a small two metal process used across the package tests.
type sample struct {
	t *tech.Tech

	nwell, diff, poly, licon, li, mcon, m1, m1pin, m1lbl, nsdm, psdm, lilbl tech.LayerRef

	wellLevel, ndiff, pdiff tech.Level
	polyLevel, liLevel, m1Level tech.Level
	liconPoly, mconLevel, liconDiff tech.Level
}

func newSample() *sample {
	s := &sample{t: tech.New()}
	t := s.t
	s.nwell = t.AddPaint("nwell", 64, 20)
	s.diff = t.AddPaint("diff", 65, 20)
	s.poly = t.AddPaint("poly", 66, 20)
	s.licon = t.AddPaint("licon", 66, 44)
	s.li = t.AddPaint("li", 67, 20)
	s.mcon = t.AddPaint("mcon", 67, 44)
	s.m1 = t.AddPaint("m1", 68, 20)
	s.m1pin = t.AddPaint("m1pin", 68, 16)
	s.m1lbl = t.AddPaint("m1lbl", 68, 5)
	s.nsdm = t.AddPaint("nsdm", 93, 44)
	s.psdm = t.AddPaint("psdm", 94, 20)
	s.lilbl = t.AddPaint("lilbl", 67, 5)

	s.wellLevel = t.AddSubst(tech.Substrate{Material: tech.Material{Draw: s.nwell}})
	s.ndiff = t.AddSubst(tech.Substrate{Material: tech.Material{Draw: s.diff, Mask: []tech.LayerRef{s.nsdm}}})
	s.pdiff = t.AddSubst(tech.Substrate{
		Material: tech.Material{Draw: s.diff, Mask: []tech.LayerRef{s.psdm}},
		Well:     s.wellLevel,
	})

	s.polyLevel = t.AddRoute(tech.Routing{Material: tech.Material{Draw: s.poly}})
	s.liLevel = t.AddRoute(tech.Routing{Material: tech.Material{Draw: s.li, Label: s.lilbl}})
	s.m1Level = t.AddRoute(tech.Routing{Material: tech.Material{Draw: s.m1, Label: s.m1lbl, Pin: s.m1pin}})

	s.liconPoly = t.AddVia(tech.Via{Material: tech.Material{Draw: s.licon}, Down: s.polyLevel, Up: s.liLevel})
	s.mconLevel = t.AddVia(tech.Via{Material: tech.Material{Draw: s.mcon}, Down: s.liLevel, Up: s.m1Level})
	s.liconDiff = t.AddVia(tech.Via{Material: tech.Material{Draw: s.licon}, Down: s.pdiff, Up: s.liLevel})

	t.SetSpacing(s.m1, s.m1, 3)
	t.SetSpacing(s.li, s.li, 2)
	t.SetEnclosing(s.psdm, s.diff, 1, 2)
	t.SetEnclosing(s.nwell, s.psdm, 3, 4)
	return s
}

func rectLayer(rects ...geom.Rect) *Layer {
	l := &Layer{}
	l.Push(rects...)
	return l
}

func netRect(net, x0, y0, x1, y1 int) geom.Rect {
	return geom.NewRect(net, geom.V(x0, y0), geom.V(x1, y1))
}

// sameBox compares extents only; bounding boxes carry no net.
func sameBox(a, b geom.Rect) bool {
	return a.Ll == b.Ll && a.Ur == b.Ur
}
