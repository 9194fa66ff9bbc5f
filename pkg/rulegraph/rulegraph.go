// Package rulegraph draws the rule table of a technology as a directed
// graph: paint layers feed operators, operators feed other rules, and checks
// hang off the layers they constrain.
package rulegraph

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/chazu/loom/pkg/tech"
)

// Options configures DOT output.
type Options struct {
	// Detailed adds the expression of each rule to its label.
	Detailed bool
	// Unused includes paint layers no rule reads.
	Unused bool
}

// DOT converts the rule table of t to Graphviz DOT. Paint layers are
// ellipses, operators are boxes and checks are dashed boxes. Output is
// deterministic.
func DOT(t *tech.Tech, opts Options) string {
	used := make([]bool, len(t.Paint))
	for _, r := range t.Rules {
		for _, ref := range r.Expr.Operands() {
			if ref.IsPaint() && ref.Index < len(used) {
				used[ref.Index] = true
			}
		}
	}

	var buf bytes.Buffer
	buf.WriteString("digraph rules {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [fontsize=14, margin=\"0.15,0.05\"];\n")
	buf.WriteString("\n")

	for i, p := range t.Paint {
		if !used[i] && !opts.Unused {
			continue
		}
		attrs := []string{fmt.Sprintf("label=%q", p.Name), "shape=ellipse"}
		if p.Fill {
			attrs = append(attrs, "style=filled", "fillcolor=lightgrey")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", tech.PaintRef(i).String(), strings.Join(attrs, ", "))
	}

	for i, r := range t.Rules {
		ref := tech.RuleRef(i)
		label := ruleLabel(r.Expr)
		if opts.Detailed {
			label += "\n" + t.Print(ref)
		}
		attrs := []string{fmt.Sprintf("label=%q", label), "shape=box"}
		if !tech.IsOperator(r.Expr) {
			attrs = append(attrs, "style=\"rounded,dashed\"")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", ref.String(), strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for i, r := range t.Rules {
		to := tech.RuleRef(i).String()
		ops := r.Expr.Operands()
		for k, from := range ops {
			if !from.Valid() {
				continue
			}
			if len(ops) == 2 && ordered(r.Expr.Op()) {
				fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", from.String(), to, string(rune('a'+k)))
				continue
			}
			fmt.Fprintf(&buf, "  %q -> %q;\n", from.String(), to)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// ordered reports whether swapping the operands of op changes its meaning.
func ordered(op tech.Op) bool {
	switch op {
	case tech.OpInteract, tech.OpNotInteract, tech.OpEnclosing:
		return true
	}
	return false
}

func ruleLabel(e tech.Expr) string {
	switch x := e.(type) {
	case tech.Spacing:
		return fmt.Sprintf("spacing %d", x.Value)
	case tech.Enclosing:
		return fmt.Sprintf("enclosing %d/%d", x.Lo, x.Hi)
	case tech.Width:
		return fmt.Sprintf("width %d", x.Value)
	}
	return e.Op().String()
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
