package layout

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/chazu/loom/pkg/tech"
)

// ErrUnsupportedRule is returned when a rule that should produce a layer
// has an expression the evaluator cannot compute.
var ErrUnsupportedRule = errors.New("unsupported rule")

// Evaluation computes the derived layers of a layout's technology rules.
// It is built, evaluated once, then queried and thrown away.
type Evaluation struct {
	layout *Layout
	empty  *Layer
	layers map[tech.LayerRef]*Layer
	// incomplete maps a rule to the number of its operands that are ready.
	incomplete map[tech.LayerRef]int
}

// NewEvaluation evaluates every operator rule reachable from the paint
// table against l. A derived layer keeps the draw layer of its first
// operand.
func NewEvaluation(l *Layout) (*Evaluation, error) {
	e := &Evaluation{
		layout: l,
		empty:  &Layer{},
	}
	if err := e.evaluate(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Evaluation) init() {
	e.layers = make(map[tech.LayerRef]*Layer)
	e.incomplete = make(map[tech.LayerRef]int)
	for _, p := range e.layout.Tech.Paint {
		for _, out := range p.Out {
			e.incomplete[out]++
		}
	}
}

func (e *Evaluation) evaluate() error {
	e.init()
	t := e.layout.Tech

	for progress := true; progress; {
		progress = false
		for _, ref := range e.Pending() {
			count, ok := e.incomplete[ref]
			if !ok {
				continue
			}
			rule, err := t.Rule(ref)
			if err != nil {
				return err
			}
			if count != len(rule.Expr.Operands()) || !tech.IsOperator(rule.Expr) {
				continue
			}

			layer, err := e.compute(rule.Expr)
			if err != nil {
				return fmt.Errorf("%s: %w", ref, err)
			}
			e.layers[ref] = layer

			for _, out := range rule.Out {
				e.incomplete[out]++
			}
			delete(e.incomplete, ref)
			progress = true
		}
	}
	return nil
}

func (e *Evaluation) compute(x tech.Expr) (*Layer, error) {
	switch x := x.(type) {
	case tech.Not:
		return Not(e.At(x.A)), nil
	case tech.And:
		return And(e.At(x.A), e.At(x.B)), nil
	case tech.Or:
		return Or(e.At(x.A), e.At(x.B)), nil
	case tech.Interact:
		return Interact(e.At(x.A), e.At(x.B)), nil
	case tech.NotInteract:
		return NotInteract(e.At(x.A), e.At(x.B)), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedRule, x.Op())
	}
}

// Has reports whether ref has geometry to offer: a paint layer present in
// the layout or a rule that has been computed.
func (e *Evaluation) Has(ref tech.LayerRef) bool {
	if ref.IsPaint() {
		_, ok := e.layout.Find(ref)
		return ok
	}
	_, ok := e.layers[ref]
	return ok
}

// At returns the layer for ref. Missing layers come back empty, which is a
// valid answer and not an error.
func (e *Evaluation) At(ref tech.LayerRef) *Layer {
	if ref.IsPaint() {
		if l, ok := e.layout.Find(ref); ok {
			return l
		}
	}
	if l, ok := e.layers[ref]; ok {
		return l
	}
	return e.empty
}

// Pending returns the rules still waiting on operands, or that are checks
// rather than operators, in ref order.
func (e *Evaluation) Pending() []tech.LayerRef {
	refs := slices.Collect(maps.Keys(e.incomplete))
	tech.SortRefs(refs)
	return refs
}

// Computed returns the rules whose layers were derived, in ref order.
func (e *Evaluation) Computed() []tech.LayerRef {
	refs := slices.Collect(maps.Keys(e.layers))
	tech.SortRefs(refs)
	return refs
}
