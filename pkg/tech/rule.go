package tech

import "fmt"

// Op names the kind of a rule expression.
type Op int

const (
	OpNot Op = iota
	OpAnd
	OpOr
	OpInteract
	OpNotInteract
	OpSpacing
	OpEnclosing
	OpWidth
)

func (o Op) String() string {
	switch o {
	case OpNot:
		return "not"
	case OpAnd:
		return "and"
	case OpOr:
		return "or"
	case OpInteract:
		return "interact"
	case OpNotInteract:
		return "not_interact"
	case OpSpacing:
		return "spacing"
	case OpEnclosing:
		return "enclosing"
	case OpWidth:
		return "width"
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// Expr is the body of a rule. Operators (Not, And, Or, Interact,
// NotInteract) produce a derived layer; checks (Spacing, Enclosing, Width)
// constrain existing ones. The set of implementations is closed.
type Expr interface {
	Op() Op
	Operands() []LayerRef
	expr()
}

type Not struct{ A LayerRef }
type And struct{ A, B LayerRef }
type Or struct{ A, B LayerRef }
type Interact struct{ A, B LayerRef }
type NotInteract struct{ A, B LayerRef }

// Spacing is the minimum distance between geometry on A and geometry on B.
type Spacing struct {
	A, B  LayerRef
	Value int
}

// Enclosing is the overhang of A around B. -1 on either side means that
// side need not be enclosed.
type Enclosing struct {
	A, B   LayerRef
	Lo, Hi int
}

// Width is the minimum width of geometry on A.
type Width struct {
	A     LayerRef
	Value int
}

func (Not) Op() Op         { return OpNot }
func (And) Op() Op         { return OpAnd }
func (Or) Op() Op          { return OpOr }
func (Interact) Op() Op    { return OpInteract }
func (NotInteract) Op() Op { return OpNotInteract }
func (Spacing) Op() Op     { return OpSpacing }
func (Enclosing) Op() Op   { return OpEnclosing }
func (Width) Op() Op       { return OpWidth }

func (e Not) Operands() []LayerRef         { return []LayerRef{e.A} }
func (e And) Operands() []LayerRef         { return []LayerRef{e.A, e.B} }
func (e Or) Operands() []LayerRef          { return []LayerRef{e.A, e.B} }
func (e Interact) Operands() []LayerRef    { return []LayerRef{e.A, e.B} }
func (e NotInteract) Operands() []LayerRef { return []LayerRef{e.A, e.B} }
func (e Spacing) Operands() []LayerRef     { return []LayerRef{e.A, e.B} }
func (e Enclosing) Operands() []LayerRef   { return []LayerRef{e.A, e.B} }
func (e Width) Operands() []LayerRef       { return []LayerRef{e.A} }

func (Not) expr()         {}
func (And) expr()         {}
func (Or) expr()          {}
func (Interact) expr()    {}
func (NotInteract) expr() {}
func (Spacing) expr()     {}
func (Enclosing) expr()   {}
func (Width) expr()       {}

// IsOperator reports whether e produces a derived layer.
func IsOperator(e Expr) bool {
	switch e.(type) {
	case Not, And, Or, Interact, NotInteract:
		return true
	}
	return false
}

// Rule is one entry of the rule table.
type Rule struct {
	Expr Expr
	// Out lists the rules consuming this rule's output layer.
	Out []LayerRef
}

// sameShape reports whether a and b are the same operation over the same
// operands, ignoring parameters.
func sameShape(a, b Expr) bool {
	if a.Op() != b.Op() {
		return false
	}
	oa, ob := a.Operands(), b.Operands()
	if len(oa) != len(ob) {
		return false
	}
	for i := range oa {
		if oa[i] != ob[i] {
			return false
		}
	}
	return true
}
