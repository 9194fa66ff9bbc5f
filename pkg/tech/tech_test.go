package tech

import (
	"slices"
	"strings"
	"testing"
)

type fixture struct {
	t                           *Tech
	nwell, diff, poly, li, m1   LayerRef
	licon, mcon, m1pin, m1lbl   LayerRef
	nsdm, psdm                  LayerRef
	well, ndiff, pdiff          Level
	polyLevel, liLevel, m1Level Level
	liconLevel, mconLevel       Level
}

func newFixture() *fixture {
	f := &fixture{t: New()}
	t := f.t
	f.nwell = t.AddPaint("nwell", 64, 20)
	f.diff = t.AddPaint("diff", 65, 20)
	f.poly = t.AddPaint("poly", 66, 20)
	f.licon = t.AddPaint("licon", 66, 44)
	f.li = t.AddPaint("li", 67, 20)
	f.mcon = t.AddPaint("mcon", 67, 44)
	f.m1 = t.AddPaint("m1", 68, 20)
	f.m1pin = t.AddPaint("m1pin", 68, 16)
	f.m1lbl = t.AddPaint("m1lbl", 68, 5)
	f.nsdm = t.AddPaint("nsdm", 93, 44)
	f.psdm = t.AddPaint("psdm", 94, 20)

	f.well = t.AddSubst(Substrate{Material: Material{Draw: f.nwell}})
	f.ndiff = t.AddSubst(Substrate{Material: Material{Draw: f.diff, Mask: []LayerRef{f.nsdm}}})
	f.pdiff = t.AddSubst(Substrate{Material: Material{Draw: f.diff, Mask: []LayerRef{f.psdm}}, Well: f.well})
	f.polyLevel = t.AddRoute(Routing{Material: Material{Draw: f.poly, Thickness: 0.18}})
	f.liLevel = t.AddRoute(Routing{Material: Material{Draw: f.li, Thickness: 0.1}})
	f.m1Level = t.AddRoute(Routing{Material: Material{Draw: f.m1, Label: f.m1lbl, Pin: f.m1pin, Thickness: 0.36}})
	f.liconLevel = t.AddVia(Via{Material: Material{Draw: f.licon, Thickness: 0.9}, Down: f.polyLevel, Up: f.liLevel})
	f.mconLevel = t.AddVia(Via{Material: Material{Draw: f.mcon, Thickness: 0.3}, Down: f.liLevel, Up: f.m1Level})
	return f
}

func TestSetRuleDeduplicates(t *testing.T) {
	f := newFixture()
	a := f.t.SetAnd(f.diff, f.nsdm)
	if b := f.t.SetAnd(f.diff, f.nsdm); b != a {
		t.Errorf("identical rule got a new ref: %s vs %s", a, b)
	}
	if c := f.t.SetAnd(f.nsdm, f.diff); c == a {
		t.Error("operand order should matter")
	}
	if got := f.t.Paint[f.diff.Index].Out; !slices.Contains(got, a) {
		t.Errorf("diff consumers = %v, want %s", got, a)
	}
	if len(f.t.Rules) != 2 {
		t.Errorf("rules = %d, want 2", len(f.t.Rules))
	}
}

func TestSetAndFoldsLeft(t *testing.T) {
	f := newFixture()
	ref := f.t.SetAnd(f.diff, f.nsdm, f.nwell)
	r, err := f.t.Rule(ref)
	if err != nil {
		t.Fatal(err)
	}
	and, ok := r.Expr.(And)
	if !ok || !and.A.IsRule() || and.B != f.nwell {
		t.Fatalf("expr = %#v", r.Expr)
	}
	inner, _ := f.t.Rule(and.A)
	if !slices.Contains(inner.Out, ref) {
		t.Error("inner rule does not list its consumer")
	}
	if got := f.t.Print(ref); got != "diff&nsdm&nwell" {
		t.Errorf("Print = %q", got)
	}
}

func TestSpacingKeepsMinimum(t *testing.T) {
	f := newFixture()
	ref := f.t.SetSpacing(f.m1, f.m1, 5)
	if again := f.t.SetSpacing(f.m1, f.m1, 3); again != ref {
		t.Fatal("spacing rule duplicated")
	}
	f.t.SetSpacing(f.m1, f.m1, 4)
	if got := f.t.Spacing(f.m1, f.m1); got != 3 {
		t.Errorf("spacing = %d, want 3", got)
	}
	if got := f.t.Spacing(f.m1, f.li); got != 0 {
		t.Errorf("missing spacing = %d, want 0", got)
	}
}

func TestEnclosing(t *testing.T) {
	f := newFixture()
	f.t.SetEnclosing(f.psdm, f.diff, 2, 5)
	f.t.SetEnclosing(f.psdm, f.diff, 3, 1)
	if lo, hi := f.t.Enclosing(f.psdm, f.diff); lo != 2 || hi != 1 {
		t.Errorf("enclosing = (%d, %d), want (2, 1)", lo, hi)
	}
	if lo, hi := f.t.Enclosing(f.diff, f.psdm); lo != -1 || hi != -1 {
		t.Errorf("missing enclosing = (%d, %d)", lo, hi)
	}
}

func TestWidthMirrorsPaint(t *testing.T) {
	f := newFixture()
	f.t.SetWidth(f.m1, 14)
	f.t.SetWidth(f.m1, 17)
	if got := f.t.MinWidth(f.m1); got != 17 {
		t.Errorf("width = %d, want 17", got)
	}
	if got := f.t.Paint[f.m1.Index].MinWidth; got != 17 {
		t.Errorf("paint width = %d, want 17", got)
	}
}

func TestRuleOutOfRange(t *testing.T) {
	f := newFixture()
	if _, err := f.t.Rule(RuleRef(3)); err == nil {
		t.Error("expected error for missing rule")
	}
	if _, err := f.t.Rule(f.m1); err == nil {
		t.Error("expected error for a paint ref")
	}
}

func TestPrint(t *testing.T) {
	f := newFixture()
	tt := f.t
	and := tt.SetAnd(f.diff, f.nsdm)
	tests := []struct {
		ref  LayerRef
		want string
	}{
		{f.m1, "m1"},
		{NoLayer, ""},
		{PaintRef(99), "paint[99]"},
		{and, "diff&nsdm"},
		{tt.SetNot(and), "~(diff&nsdm)"},
		{tt.SetNot(f.nwell), "~nwell"},
		{tt.SetOr(f.li, f.m1), "(li|m1)"},
		{tt.SetInteract(f.poly, f.diff), "interact(poly,diff)"},
		{tt.SetNotInteract(f.poly, f.diff), "not_interact(poly,diff)"},
		{tt.SetSpacing(f.m1, f.m1, 3), "m1<->m1"},
		{tt.SetEnclosing(f.psdm, f.diff, 1, 2), "enclosing(psdm,diff)"},
		{tt.SetWidth(f.li, 17), "width(li)"},
	}
	for _, tc := range tests {
		if got := tt.Print(tc.ref); got != tc.want {
			t.Errorf("Print(%s) = %q, want %q", tc.ref, got, tc.want)
		}
	}
	if got := tt.Describe(tt.SetSpacing(f.m1, f.m1, 3)); !strings.HasSuffix(got, "m1<->m1 >= 3") {
		t.Errorf("Describe = %q", got)
	}
}

func TestRoleQueries(t *testing.T) {
	f := newFixture()
	tests := []struct {
		name                            string
		ref                             LayerRef
		routing, subst, pin, label, well bool
	}{
		{"poly", f.poly, true, false, false, false, false},
		{"via", f.mcon, true, false, false, false, false},
		{"pin", f.m1pin, false, false, true, false, false},
		{"label", f.m1lbl, false, false, false, true, false},
		{"diffusion", f.diff, false, true, false, false, false},
		{"well", f.nwell, false, true, false, false, true},
		{"mask", f.nsdm, false, false, false, false, false},
		{"none", NoLayer, false, false, false, false, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := f.t.IsRouting(tc.ref); got != tc.routing {
				t.Errorf("IsRouting = %v", got)
			}
			if got := f.t.IsSubstrate(tc.ref); got != tc.subst {
				t.Errorf("IsSubstrate = %v", got)
			}
			if got := f.t.IsPin(tc.ref); got != tc.pin {
				t.Errorf("IsPin = %v", got)
			}
			if got := f.t.IsLabel(tc.ref); got != tc.label {
				t.Errorf("IsLabel = %v", got)
			}
			if got := f.t.IsWell(tc.ref); got != tc.well {
				t.Errorf("IsWell = %v", got)
			}
		})
	}
}

func TestIsFill(t *testing.T) {
	f := newFixture()
	if f.t.IsFill(f.m1) {
		t.Error("paint defaults to not fill")
	}
	f.t.SetFill(f.m1, true)
	if !f.t.IsFill(f.m1) {
		t.Error("SetFill had no effect")
	}
	if !f.t.IsFill(f.t.SetNot(f.m1)) {
		t.Error("derived layers are fill capable")
	}
}

func TestLookups(t *testing.T) {
	f := newFixture()
	if ref, ok := f.t.FindPaint("li"); !ok || ref != f.li {
		t.Errorf("FindPaint(li) = %s, %v", ref, ok)
	}
	if _, ok := f.t.FindPaint("m9"); ok {
		t.Error("found a paint that does not exist")
	}
	if ref, ok := f.t.FindPaintGDS(68, 16); !ok || ref != f.m1pin {
		t.Errorf("FindPaintGDS = %s, %v", ref, ok)
	}
	if m := f.t.FindMaterial(f.m1lbl); m == nil || m.Draw != f.m1 {
		t.Errorf("FindMaterial(m1lbl) = %+v", m)
	}
	if lvl, ok := f.t.FindLevel(f.mcon); !ok || lvl != f.mconLevel {
		t.Errorf("FindLevel(mcon) = %s, %v", lvl, ok)
	}
	if lvl, ok := f.t.FindLevel(f.diff); !ok || lvl != f.ndiff {
		t.Errorf("FindLevel(diff) = %s, want the first substrate drawn on it", lvl)
	}
	if got := f.t.At(Route(7)); got != nil {
		t.Errorf("At(out of range) = %+v", got)
	}

	f.t.AddModel(Model{Type: NMOS, Variant: "svt", Name: "nfet_01v8", Diff: f.ndiff})
	pm := f.t.AddModel(Model{Type: PMOS, Variant: "svt", Name: "pfet_01v8", Diff: f.pdiff})
	if i, ok := f.t.FindModel("pfet_01v8"); !ok || i != pm {
		t.Errorf("FindModel = %d, %v", i, ok)
	}
	if i, ok := f.t.FindModelVariant(PMOS, "svt"); !ok || i != pm {
		t.Errorf("FindModelVariant = %d, %v", i, ok)
	}
	if _, ok := f.t.FindModelVariant(PMOS, "lvt"); ok {
		t.Error("found a missing variant")
	}
}

func TestViaPath(t *testing.T) {
	f := newFixture()
	tests := []struct {
		name     string
		down, up Level
		want     []int
	}{
		{"same level", f.liLevel, f.liLevel, nil},
		{"one via", f.polyLevel, f.liLevel, []int{f.liconLevel.Idx}},
		{"stacked", f.polyLevel, f.m1Level, []int{f.liconLevel.Idx, f.mconLevel.Idx}},
		{"downward", f.m1Level, f.polyLevel, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := f.t.ViaPath(tc.down, tc.up); !slices.Equal(got, tc.want) {
				t.Errorf("ViaPath = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestLayerRefOrder(t *testing.T) {
	refs := []LayerRef{RuleRef(0), PaintRef(2), NoLayer, PaintRef(0)}
	SortRefs(refs)
	want := []LayerRef{NoLayer, PaintRef(0), PaintRef(2), RuleRef(0)}
	if !slices.Equal(refs, want) {
		t.Errorf("sorted = %v, want %v", refs, want)
	}
}
