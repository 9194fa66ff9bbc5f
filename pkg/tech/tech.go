// Package tech holds the technology description a layout is drawn against:
// the paint layers, the physical level stack built from them, transistor
// models and the design rule table.
//
// A Tech is assembled once (usually by the script engine) and is read-only
// afterwards. Layouts keep a pointer to it.
package tech

import "fmt"

// Tech is the technology database.
type Tech struct {
	Path string
	Lib  string

	// DBUnit is the size of one layout unit in micrometers.
	DBUnit float64
	Scale  float64

	// Boundary is the paint layer used for the cell outline.
	Boundary LayerRef

	Paint  []Paint
	Subst  []Substrate
	Models []Model
	// Wires are ordered bottom up: poly, local interconnect, then metals.
	Wires  []Routing
	Vias   []Via
	Dielec []Dielectric
	Rules  []Rule
}

// New returns an empty technology with unit scale.
func New() *Tech {
	return &Tech{DBUnit: 1, Scale: 1}
}

// ---------------------------------------------------------------------------
// Building
// ---------------------------------------------------------------------------

// AddPaint appends a paint layer and returns its ref.
func (t *Tech) AddPaint(name string, major, minor int) LayerRef {
	t.Paint = append(t.Paint, Paint{Name: name, Major: major, Minor: minor})
	return PaintRef(len(t.Paint) - 1)
}

// SetFill marks a paint layer as fill capable.
func (t *Tech) SetFill(ref LayerRef, fill bool) {
	if p := t.paint(ref); p != nil {
		p.Fill = fill
	}
}

func (t *Tech) AddSubst(s Substrate) Level {
	t.Subst = append(t.Subst, s)
	return Subst(len(t.Subst) - 1)
}

func (t *Tech) AddRoute(r Routing) Level {
	t.Wires = append(t.Wires, r)
	return Route(len(t.Wires) - 1)
}

func (t *Tech) AddVia(v Via) Level {
	t.Vias = append(t.Vias, v)
	return ViaLevel(len(t.Vias) - 1)
}

func (t *Tech) AddModel(m Model) int {
	t.Models = append(t.Models, m)
	return len(t.Models) - 1
}

func (t *Tech) AddDielectric(d Dielectric) int {
	t.Dielec = append(t.Dielec, d)
	return len(t.Dielec) - 1
}

// FindRule returns the rule with the same operation and operands as e.
func (t *Tech) FindRule(e Expr) (LayerRef, bool) {
	for i, r := range t.Rules {
		if sameShape(r.Expr, e) {
			return RuleRef(i), true
		}
	}
	return NoLayer, false
}

// setRule returns the existing rule shaped like e or appends e and
// registers it as a consumer of each operand.
func (t *Tech) setRule(e Expr) LayerRef {
	if ref, ok := t.FindRule(e); ok {
		return ref
	}
	t.Rules = append(t.Rules, Rule{Expr: e})
	ref := RuleRef(len(t.Rules) - 1)
	for _, op := range e.Operands() {
		t.addOut(op, ref)
	}
	return ref
}

func (t *Tech) addOut(op, ref LayerRef) {
	switch op.Kind {
	case RefPaint:
		if op.Index >= 0 && op.Index < len(t.Paint) {
			t.Paint[op.Index].Out = append(t.Paint[op.Index].Out, ref)
		}
	case RefRule:
		if op.Index >= 0 && op.Index < len(t.Rules) {
			t.Rules[op.Index].Out = append(t.Rules[op.Index].Out, ref)
		}
	}
}

func (t *Tech) SetNot(a LayerRef) LayerRef { return t.setRule(Not{A: a}) }

// SetAnd intersects two or more layers, folding left.
func (t *Tech) SetAnd(a, b LayerRef, rest ...LayerRef) LayerRef {
	ref := t.setRule(And{A: a, B: b})
	for _, c := range rest {
		ref = t.setRule(And{A: ref, B: c})
	}
	return ref
}

// SetOr unions two or more layers, folding left.
func (t *Tech) SetOr(a, b LayerRef, rest ...LayerRef) LayerRef {
	ref := t.setRule(Or{A: a, B: b})
	for _, c := range rest {
		ref = t.setRule(Or{A: ref, B: c})
	}
	return ref
}

func (t *Tech) SetInteract(a, b LayerRef) LayerRef {
	return t.setRule(Interact{A: a, B: b})
}

func (t *Tech) SetNotInteract(a, b LayerRef) LayerRef {
	return t.setRule(NotInteract{A: a, B: b})
}

// SetSpacing records a spacing rule. An existing rule keeps the smaller value.
func (t *Tech) SetSpacing(a, b LayerRef, value int) LayerRef {
	if ref, ok := t.FindRule(Spacing{A: a, B: b}); ok {
		s := t.Rules[ref.Index].Expr.(Spacing)
		s.Value = min(s.Value, value)
		t.Rules[ref.Index].Expr = s
		return ref
	}
	return t.setRule(Spacing{A: a, B: b, Value: value})
}

// SetEnclosing records an enclosing rule. An existing rule keeps the smaller
// value on each side.
func (t *Tech) SetEnclosing(a, b LayerRef, lo, hi int) LayerRef {
	if ref, ok := t.FindRule(Enclosing{A: a, B: b}); ok {
		e := t.Rules[ref.Index].Expr.(Enclosing)
		e.Lo = min(e.Lo, lo)
		e.Hi = min(e.Hi, hi)
		t.Rules[ref.Index].Expr = e
		return ref
	}
	return t.setRule(Enclosing{A: a, B: b, Lo: lo, Hi: hi})
}

// SetWidth records a minimum width rule and mirrors it on the paint layer.
func (t *Tech) SetWidth(a LayerRef, value int) LayerRef {
	if p := t.paint(a); p != nil {
		p.MinWidth = value
	}
	if ref, ok := t.FindRule(Width{A: a}); ok {
		w := t.Rules[ref.Index].Expr.(Width)
		w.Value = value
		t.Rules[ref.Index].Expr = w
		return ref
	}
	return t.setRule(Width{A: a, Value: value})
}

// ---------------------------------------------------------------------------
// Rule queries
// ---------------------------------------------------------------------------

// Spacing returns the spacing between a and b, or 0 when no rule exists.
func (t *Tech) Spacing(a, b LayerRef) int {
	if ref, ok := t.FindRule(Spacing{A: a, B: b}); ok {
		return t.Rules[ref.Index].Expr.(Spacing).Value
	}
	return 0
}

// Enclosing returns the overhang of a around b as (lo, hi), or (-1, -1)
// when no rule exists.
func (t *Tech) Enclosing(a, b LayerRef) (lo, hi int) {
	if ref, ok := t.FindRule(Enclosing{A: a, B: b}); ok {
		e := t.Rules[ref.Index].Expr.(Enclosing)
		return e.Lo, e.Hi
	}
	return -1, -1
}

// MinWidth returns the width rule for a, or 0.
func (t *Tech) MinWidth(a LayerRef) int {
	if ref, ok := t.FindRule(Width{A: a}); ok {
		return t.Rules[ref.Index].Expr.(Width).Value
	}
	return 0
}

// Rule returns the rule a rule ref points at.
func (t *Tech) Rule(ref LayerRef) (Rule, error) {
	if !ref.IsRule() || ref.Index < 0 || ref.Index >= len(t.Rules) {
		return Rule{}, fmt.Errorf("no rule %s", ref)
	}
	return t.Rules[ref.Index], nil
}

// ---------------------------------------------------------------------------
// Layer queries
// ---------------------------------------------------------------------------

func (t *Tech) paint(ref LayerRef) *Paint {
	if ref.IsPaint() && ref.Index >= 0 && ref.Index < len(t.Paint) {
		return &t.Paint[ref.Index]
	}
	return nil
}

// PaintName returns the paint name for a paint ref, or the empty string.
func (t *Tech) PaintName(ref LayerRef) string {
	if p := t.paint(ref); p != nil {
		return p.Name
	}
	return ""
}

// FindPaint looks up a paint layer by name.
func (t *Tech) FindPaint(name string) (LayerRef, bool) {
	for i, p := range t.Paint {
		if p.Name == name {
			return PaintRef(i), true
		}
	}
	return NoLayer, false
}

// FindPaintGDS looks up a paint layer by GDS layer and datatype.
func (t *Tech) FindPaintGDS(major, minor int) (LayerRef, bool) {
	for i, p := range t.Paint {
		if p.Major == major && p.Minor == minor {
			return PaintRef(i), true
		}
	}
	return NoLayer, false
}

// FindModel looks up a transistor model by device name.
func (t *Tech) FindModel(name string) (int, bool) {
	for i, m := range t.Models {
		if m.Name == name {
			return i, true
		}
	}
	return -1, false
}

// FindModelVariant looks up a transistor model by polarity and variant.
func (t *Tech) FindModelVariant(typ ModelType, variant string) (int, bool) {
	for i, m := range t.Models {
		if m.Type == typ && m.Variant == variant {
			return i, true
		}
	}
	return -1, false
}

// FindMaterial returns the material whose draw, label or pin layer is ref.
func (t *Tech) FindMaterial(ref LayerRef) *Material {
	if !ref.Valid() {
		return nil
	}
	for i := range t.Subst {
		if t.Subst[i].Contains(ref) {
			return &t.Subst[i].Material
		}
	}
	for i := range t.Wires {
		if t.Wires[i].Contains(ref) {
			return &t.Wires[i].Material
		}
	}
	for i := range t.Vias {
		if t.Vias[i].Contains(ref) {
			return &t.Vias[i].Material
		}
	}
	return nil
}

// FindLevel returns the level drawn on ref.
func (t *Tech) FindLevel(ref LayerRef) (Level, bool) {
	if !ref.Valid() {
		return Level{}, false
	}
	for i := range t.Subst {
		if t.Subst[i].Draw == ref {
			return Subst(i), true
		}
	}
	for i := range t.Wires {
		if t.Wires[i].Draw == ref {
			return Route(i), true
		}
	}
	for i := range t.Vias {
		if t.Vias[i].Draw == ref {
			return ViaLevel(i), true
		}
	}
	return Level{}, false
}

// IsRouting reports whether ref is drawn by a wire or via.
func (t *Tech) IsRouting(ref LayerRef) bool {
	if !ref.Valid() {
		return false
	}
	for _, w := range t.Wires {
		if w.Draw == ref {
			return true
		}
	}
	for _, v := range t.Vias {
		if v.Draw == ref {
			return true
		}
	}
	return false
}

// IsSubstrate reports whether ref is drawn by a diffusion or well.
func (t *Tech) IsSubstrate(ref LayerRef) bool {
	if !ref.Valid() {
		return false
	}
	for _, s := range t.Subst {
		if s.Draw == ref {
			return true
		}
	}
	return false
}

// IsPin reports whether ref is the pin layer of some material.
func (t *Tech) IsPin(ref LayerRef) bool {
	return t.anyMaterial(func(m Material) bool { return m.Pin == ref }, ref)
}

// IsLabel reports whether ref is the label layer of some material.
func (t *Tech) IsLabel(ref LayerRef) bool {
	return t.anyMaterial(func(m Material) bool { return m.Label == ref }, ref)
}

// IsWell reports whether ref draws a substrate that some other substrate
// names as its well.
func (t *Tech) IsWell(ref LayerRef) bool {
	if !ref.Valid() {
		return false
	}
	for _, s := range t.Subst {
		if s.Well.Type != LevelSubst || s.Well.Idx < 0 || s.Well.Idx >= len(t.Subst) {
			continue
		}
		if t.Subst[s.Well.Idx].Draw == ref {
			return true
		}
	}
	return false
}

// IsFill reports whether spacing violations on ref may be filled. Derived
// layers are always fill capable.
func (t *Tech) IsFill(ref LayerRef) bool {
	if p := t.paint(ref); p != nil {
		return p.Fill
	}
	return true
}

func (t *Tech) anyMaterial(match func(Material) bool, ref LayerRef) bool {
	if !ref.Valid() {
		return false
	}
	for _, s := range t.Subst {
		if match(s.Material) {
			return true
		}
	}
	for _, w := range t.Wires {
		if match(w.Material) {
			return true
		}
	}
	for _, v := range t.Vias {
		if match(v.Material) {
			return true
		}
	}
	return false
}

// At returns the material of a level, or nil for an invalid level.
func (t *Tech) At(l Level) *Material {
	switch l.Type {
	case LevelSubst:
		if l.Idx >= 0 && l.Idx < len(t.Subst) {
			return &t.Subst[l.Idx].Material
		}
	case LevelRoute:
		if l.Idx >= 0 && l.Idx < len(t.Wires) {
			return &t.Wires[l.Idx].Material
		}
	case LevelVia:
		if l.Idx >= 0 && l.Idx < len(t.Vias) {
			return &t.Vias[l.Idx].Material
		}
	}
	return nil
}

// ViaPath returns the indices of the vias to stack to get from down to up, in
// order, or nil when the levels are not connected.
func (t *Tech) ViaPath(down, up Level) []int {
	type step struct {
		at   Level
		path []int
	}
	seen := map[Level]bool{down: true}
	queue := []step{{at: down}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.at == up {
			return cur.path
		}
		for i, v := range t.Vias {
			if v.Down != cur.at || seen[v.Up] {
				continue
			}
			seen[v.Up] = true
			path := append(append([]int(nil), cur.path...), i)
			queue = append(queue, step{at: v.Up, path: path})
		}
	}
	return nil
}
