package layout

import (
	"slices"
	"strconv"

	"github.com/chazu/loom/pkg/tech"
)

// unionFind is a disjoint set forest over 0..n-1.
type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), rank: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *unionFind) find(i int) int {
	for uf.parent[i] != i {
		uf.parent[i] = uf.parent[uf.parent[i]]
		i = uf.parent[i]
	}
	return i
}

func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	switch {
	case uf.rank[ra] < uf.rank[rb]:
		uf.parent[ra] = rb
	case uf.rank[ra] > uf.rank[rb]:
		uf.parent[rb] = ra
	default:
		uf.parent[rb] = ra
		uf.rank[ra]++
	}
}

// groups returns the sets ordered by their smallest member, each sorted.
func (uf *unionFind) groups() [][]int {
	var out [][]int
	slot := make(map[int]int)
	for i := range uf.parent {
		root := uf.find(i)
		s, ok := slot[root]
		if !ok {
			s = len(out)
			slot[root] = s
			out = append(out, nil)
		}
		out[s] = append(out[s], i)
	}
	return out
}

// node is one rectangle of a traced layer.
type node struct {
	ref tech.LayerRef
	idx int
}

// Group is a set of electrically connected rectangles keyed by layer.
type Group map[tech.LayerRef][]int

// Connections returns the layer pairs a via joins: the via to the levels
// above and below it, and each material's draw layer to its own pin layer.
// Pairs that reference missing layers are dropped.
func Connections(t *tech.Tech, v tech.Via) [][2]tech.LayerRef {
	dn := t.At(v.Down)
	up := t.At(v.Up)
	if dn == nil || up == nil {
		return nil
	}
	all := [][2]tech.LayerRef{
		{dn.Draw, v.Draw}, {dn.Pin, v.Draw}, {dn.Draw, v.Pin}, {dn.Pin, v.Pin},
		{v.Draw, up.Draw}, {v.Pin, up.Draw}, {v.Draw, up.Pin}, {v.Pin, up.Pin},
		{v.Draw, dn.Draw}, {v.Draw, dn.Pin}, {v.Pin, dn.Draw}, {v.Pin, dn.Pin},
		{up.Draw, v.Draw}, {up.Draw, v.Pin}, {up.Pin, v.Draw}, {up.Pin, v.Pin},
		{dn.Draw, dn.Pin}, {dn.Pin, dn.Draw},
		{v.Draw, v.Pin}, {v.Pin, v.Draw},
		{up.Draw, up.Pin}, {up.Pin, up.Draw},
	}
	return slices.DeleteFunc(all, func(p [2]tech.LayerRef) bool {
		return !p[0].Valid() || !p[1].Valid()
	})
}

// traceGroups clusters the rectangles of every routing, pin and well layer
// and joins clusters that meet through a via. Groups are ordered by the
// first per-layer cluster they absorbed.
func (l *Layout) traceGroups() []Group {
	var nodes []node
	offset := make(map[tech.LayerRef]int)
	var seeds [][]int

	for _, ref := range l.Refs() {
		layer := l.Layers[ref]
		if !layer.IsRouting && !layer.IsPin && !layer.IsWell {
			continue
		}
		offset[ref] = len(nodes)
		for i := range layer.Geo {
			nodes = append(nodes, node{ref: ref, idx: i})
		}
		for _, c := range layer.Trace() {
			seed := make([]int, len(c))
			for k, i := range c {
				seed[k] = offset[ref] + i
			}
			seeds = append(seeds, seed)
		}
	}

	uf := newUnionFind(len(nodes))
	for _, seed := range seeds {
		for _, n := range seed[1:] {
			uf.union(seed[0], n)
		}
	}

	for _, via := range l.Tech.Vias {
		if via.Down.Type == tech.LevelSubst && !l.Tech.Subst[via.Down.Idx].Well.Valid() {
			continue
		}
		for _, pair := range Connections(l.Tech, via) {
			o0, ok0 := offset[pair[0]]
			o1, ok1 := offset[pair[1]]
			if !ok0 || !ok1 {
				continue
			}
			g0, g1 := l.Layers[pair[0]].Geo, l.Layers[pair[1]].Geo
			for i, r0 := range g0 {
				for j, r1 := range g1 {
					if r0.Overlaps(r1) {
						uf.union(o0+i, o1+j)
					}
				}
			}
		}
	}

	// Seeds are in creation order and each seed is contiguous, so ordering
	// by the first seed a root appears in gives the merge order.
	var groups []Group
	slot := make(map[int]int)
	for _, seed := range seeds {
		root := uf.find(seed[0])
		s, ok := slot[root]
		if !ok {
			s = len(groups)
			slot[root] = s
			groups = append(groups, Group{})
		}
		for _, n := range seed {
			groups[s][nodes[n].ref] = append(groups[s][nodes[n].ref], nodes[n].idx)
		}
	}
	for _, g := range groups {
		for ref := range g {
			slices.Sort(g[ref])
		}
	}
	return groups
}

// Trace extracts the nets of the layout. Connected geometry is grouped,
// groups are named from the labels on them and every other group gets a
// generated name. Geometry on layers that are not traced keeps NoNet.
func (l *Layout) Trace() {
	groups := l.traceGroups()
	mapping := make([]int, len(groups))
	for i := range mapping {
		mapping[i] = -1
	}

	l.Nets = nil
	refs := l.Refs()
	for _, ref := range refs {
		layer := l.Layers[ref]
		for i := range layer.Geo {
			layer.Geo[i].Net = -1
		}
		for i := range layer.Lbl {
			layer.Lbl[i].Net = -1
		}
	}

	for _, ref := range refs {
		layer := l.Layers[ref]
		if len(layer.Lbl) == 0 {
			continue
		}
		mat := l.Tech.FindMaterial(ref)
		if mat == nil {
			continue
		}
		for n, g := range groups {
			for _, mref := range mat.Layers() {
				rects, ok := g[mref]
				target, present := l.Layers[mref]
				if !ok || !present {
					continue
				}
				for k := range layer.Lbl {
					lbl := &layer.Lbl[k]
					for _, r := range rects {
						if !target.Geo[r].Contains(lbl.Pos, true) {
							continue
						}
						if mapping[n] < 0 {
							mapping[n] = l.NetAt(lbl.Text)
						}
						lbl.Net = mapping[n]
						l.Nets[mapping[n]].Set(lbl.Text)
						break
					}
				}
			}
		}
	}

	for _, ref := range refs {
		layer := l.Layers[ref]
		if !layer.IsRouting && !layer.IsWell && !layer.IsPin && !layer.IsSubstrate {
			continue
		}
		for k := range layer.Lbl {
			lbl := &layer.Lbl[k]
			if lbl.Net >= 0 {
				continue
			}
			lbl.Net = l.NetAt(lbl.Text)
			l.markRole(lbl.Net, layer)
		}
	}

	for n, g := range groups {
		for _, ref := range sortedKeys(g) {
			if mapping[n] < 0 {
				mapping[n] = l.NetAt("_" + strconv.Itoa(len(l.Nets)))
			}
			layer, ok := l.Layers[ref]
			if !ok {
				continue
			}
			l.markRole(mapping[n], layer)
			for _, r := range g[ref] {
				layer.Geo[r].Net = mapping[n]
			}
		}
	}
}

// markRole flags a net as a port when it touches a pin or well layer.
func (l *Layout) markRole(net int, layer *Layer) {
	if layer.IsPin || layer.IsWell {
		l.Nets[net].IsInput = true
		l.Nets[net].IsOutput = true
	}
	if layer.IsWell {
		l.Nets[net].IsSub = true
	}
}

func sortedKeys(g Group) []tech.LayerRef {
	refs := make([]tech.LayerRef, 0, len(g))
	for ref := range g {
		refs = append(refs, ref)
	}
	tech.SortRefs(refs)
	return refs
}
