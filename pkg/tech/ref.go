package tech

import (
	"cmp"
	"fmt"
	"slices"
)

// RefKind says which table a LayerRef indexes.
type RefKind uint8

const (
	RefNone  RefKind = iota // no layer
	RefPaint                // Tech.Paint
	RefRule                 // Tech.Rules
)

// LayerRef addresses either a drawn paint layer or the output of a rule.
// The zero value refers to nothing.
type LayerRef struct {
	Kind  RefKind
	Index int
}

// NoLayer is the zero LayerRef.
var NoLayer = LayerRef{}

// PaintRef refers to Tech.Paint[i].
func PaintRef(i int) LayerRef { return LayerRef{Kind: RefPaint, Index: i} }

// RuleRef refers to the output of Tech.Rules[i].
func RuleRef(i int) LayerRef { return LayerRef{Kind: RefRule, Index: i} }

func (r LayerRef) IsPaint() bool { return r.Kind == RefPaint }
func (r LayerRef) IsRule() bool  { return r.Kind == RefRule }
func (r LayerRef) Valid() bool   { return r.Kind != RefNone }

// Compare orders refs by kind, paint before rule, then by index.
func (r LayerRef) Compare(o LayerRef) int {
	if c := cmp.Compare(r.Kind, o.Kind); c != 0 {
		return c
	}
	return cmp.Compare(r.Index, o.Index)
}

// SortRefs sorts refs in place by Compare.
func SortRefs(refs []LayerRef) {
	slices.SortFunc(refs, LayerRef.Compare)
}

func (r LayerRef) String() string {
	switch r.Kind {
	case RefPaint:
		return fmt.Sprintf("paint[%d]", r.Index)
	case RefRule:
		return fmt.Sprintf("rule[%d]", r.Index)
	}
	return "none"
}
