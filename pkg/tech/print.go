package tech

import (
	"fmt"
	"strings"
)

// Print renders a layer ref as a rule expression, the same syntax the expr
// package parses.
func (t *Tech) Print(ref LayerRef) string {
	switch ref.Kind {
	case RefPaint:
		if p := t.paint(ref); p != nil {
			return p.Name
		}
		return ref.String()
	case RefRule:
		r, err := t.Rule(ref)
		if err != nil {
			return ref.String()
		}
		return t.printExpr(r.Expr)
	}
	return ""
}

func (t *Tech) printExpr(e Expr) string {
	switch e := e.(type) {
	case Not:
		inner := t.Print(e.A)
		if r, err := t.Rule(e.A); err == nil && r.Expr.Op() == OpAnd {
			inner = "(" + inner + ")"
		}
		return "~" + inner
	case And:
		return t.Print(e.A) + "&" + t.Print(e.B)
	case Or:
		return "(" + t.Print(e.A) + "|" + t.Print(e.B) + ")"
	case Interact:
		return "interact(" + t.Print(e.A) + "," + t.Print(e.B) + ")"
	case NotInteract:
		return "not_interact(" + t.Print(e.A) + "," + t.Print(e.B) + ")"
	case Spacing:
		return t.Print(e.A) + "<->" + t.Print(e.B)
	case Enclosing:
		return "enclosing(" + t.Print(e.A) + "," + t.Print(e.B) + ")"
	case Width:
		return "width(" + t.Print(e.A) + ")"
	}
	return fmt.Sprintf("%T", e)
}

// Describe renders a rule with its parameters, one line per rule, for
// reports.
func (t *Tech) Describe(ref LayerRef) string {
	r, err := t.Rule(ref)
	if err != nil {
		return t.Print(ref)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", ref, t.Print(ref))
	switch e := r.Expr.(type) {
	case Spacing:
		fmt.Fprintf(&b, " >= %d", e.Value)
	case Enclosing:
		fmt.Fprintf(&b, " lo=%d hi=%d", e.Lo, e.Hi)
	case Width:
		fmt.Fprintf(&b, " >= %d", e.Value)
	}
	return b.String()
}
