// Package expr parses the layer expression language used to define derived
// layers and compiles expressions into technology rules.
//
//	expr  := term ( "|" term )*
//	term  := unary ( "&" unary )*
//	unary := "~" unary | call | "(" expr ")" | name
//	call  := ( "interact" | "not_interact" ) "(" expr "," expr ")"
//
// tech.Tech.Print renders rule refs back in the same syntax.
package expr

import (
	"errors"
	"fmt"

	"github.com/alecthomas/participle/v2"

	"github.com/chazu/loom/pkg/tech"
)

// ErrUnknownLayer is returned when an expression names a paint layer the
// technology does not define.
var ErrUnknownLayer = errors.New("unknown layer")

var parser = participle.MustBuild[Expr](
	participle.Lexer(Lexer),
	participle.Elide("Whitespace"),
	participle.UseLookahead(2),
)

// Parse parses an expression.
func Parse(src string) (*Expr, error) {
	e, err := parser.ParseString("", src)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return e, nil
}

// Compile parses src and registers the rules it needs in t, returning the
// ref of the result. Identical subexpressions reuse existing rules. A bare
// paint name compiles to the paint itself.
func Compile(t *tech.Tech, src string) (tech.LayerRef, error) {
	e, err := Parse(src)
	if err != nil {
		return tech.NoLayer, err
	}
	return compileExpr(t, e)
}

func compileExpr(t *tech.Tech, e *Expr) (tech.LayerRef, error) {
	ref, err := compileTerm(t, e.Left)
	if err != nil {
		return tech.NoLayer, err
	}
	for _, term := range e.Right {
		next, err := compileTerm(t, term)
		if err != nil {
			return tech.NoLayer, err
		}
		ref = t.SetOr(ref, next)
	}
	return ref, nil
}

func compileTerm(t *tech.Tech, term *Term) (tech.LayerRef, error) {
	ref, err := compileUnary(t, term.Left)
	if err != nil {
		return tech.NoLayer, err
	}
	for _, u := range term.Right {
		next, err := compileUnary(t, u)
		if err != nil {
			return tech.NoLayer, err
		}
		ref = t.SetAnd(ref, next)
	}
	return ref, nil
}

func compileUnary(t *tech.Tech, u *Unary) (tech.LayerRef, error) {
	switch {
	case u.Not != nil:
		ref, err := compileUnary(t, u.Not)
		if err != nil {
			return tech.NoLayer, err
		}
		return t.SetNot(ref), nil
	case u.Call != nil:
		a, err := compileExpr(t, u.Call.A)
		if err != nil {
			return tech.NoLayer, err
		}
		b, err := compileExpr(t, u.Call.B)
		if err != nil {
			return tech.NoLayer, err
		}
		if u.Call.Negated {
			return t.SetNotInteract(a, b), nil
		}
		return t.SetInteract(a, b), nil
	case u.Sub != nil:
		return compileExpr(t, u.Sub)
	case u.Layer != nil:
		ref, ok := t.FindPaint(*u.Layer)
		if !ok {
			return tech.NoLayer, fmt.Errorf("%s: %w %q", u.Pos, ErrUnknownLayer, *u.Layer)
		}
		return ref, nil
	}
	return tech.NoLayer, fmt.Errorf("%s: empty expression", u.Pos)
}
