package tech

import "fmt"

// Severity indicates whether a validation finding makes the technology
// unusable or is merely informational.
type Severity int

const (
	SeverityError   Severity = iota // technology cannot be used
	SeverityWarning                 // informational
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Ref      LayerRef // offending paint or rule, NoLayer for table-level problems
	Message  string
	Severity Severity
}

func (e ValidationError) Error() string {
	if !e.Ref.Valid() {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Severity, e.Ref, e.Message)
}

// HasErrors reports whether any finding is an error.
func HasErrors(errs []ValidationError) bool {
	for _, e := range errs {
		if e.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate runs the structural checks on the technology and returns every
// finding. It never mutates t.
func Validate(t *Tech) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateOperands(t)...)
	errs = append(errs, validateDAG(t)...)
	errs = append(errs, validateParams(t)...)
	errs = append(errs, validateMaterials(t)...)
	errs = append(errs, validateLevels(t)...)
	errs = append(errs, validatePaints(t)...)
	return errs
}

func (t *Tech) exists(ref LayerRef) bool {
	switch ref.Kind {
	case RefPaint:
		return ref.Index >= 0 && ref.Index < len(t.Paint)
	case RefRule:
		return ref.Index >= 0 && ref.Index < len(t.Rules)
	}
	return false
}

// validateOperands checks that every rule operand and consumer points at an
// existing paint or rule.
func validateOperands(t *Tech) []ValidationError {
	var errs []ValidationError
	for i, r := range t.Rules {
		if r.Expr == nil {
			errs = append(errs, ValidationError{Ref: RuleRef(i), Message: "rule has no expression", Severity: SeverityError})
			continue
		}
		for _, op := range r.Expr.Operands() {
			if !t.exists(op) {
				errs = append(errs, ValidationError{
					Ref:      RuleRef(i),
					Message:  fmt.Sprintf("operand %s does not exist", op),
					Severity: SeverityError,
				})
			}
		}
		for _, out := range r.Out {
			if !t.exists(out) {
				errs = append(errs, ValidationError{
					Ref:      RuleRef(i),
					Message:  fmt.Sprintf("consumer %s does not exist", out),
					Severity: SeverityError,
				})
			}
		}
	}
	return errs
}

// validateDAG checks for cycles through rule operands using DFS with 3-color
// marking. White (0) = unvisited, gray (1) = on the current path, black (2) =
// fully explored.
func validateDAG(t *Tech) []ValidationError {
	const (
		white = iota
		gray
		black
	)

	color := make([]int, len(t.Rules))
	var errs []ValidationError

	var visit func(i int) bool
	visit = func(i int) bool {
		switch color[i] {
		case black:
			return false
		case gray:
			errs = append(errs, ValidationError{
				Ref:      RuleRef(i),
				Message:  "rule is part of a cycle",
				Severity: SeverityError,
			})
			return true
		}

		color[i] = gray
		if t.Rules[i].Expr != nil {
			for _, op := range t.Rules[i].Expr.Operands() {
				if op.IsRule() && t.exists(op) && visit(op.Index) {
					return true
				}
			}
		}
		color[i] = black
		return false
	}

	for i := range t.Rules {
		if color[i] == white && visit(i) {
			break
		}
	}
	return errs
}

func validateParams(t *Tech) []ValidationError {
	var errs []ValidationError
	for i, r := range t.Rules {
		switch e := r.Expr.(type) {
		case Spacing:
			if e.Value < 0 {
				errs = append(errs, ValidationError{Ref: RuleRef(i), Message: fmt.Sprintf("negative spacing %d", e.Value), Severity: SeverityError})
			}
		case Width:
			if e.Value < 0 {
				errs = append(errs, ValidationError{Ref: RuleRef(i), Message: fmt.Sprintf("negative width %d", e.Value), Severity: SeverityError})
			}
		case Enclosing:
			if e.Lo < -1 || e.Hi < -1 {
				errs = append(errs, ValidationError{Ref: RuleRef(i), Message: fmt.Sprintf("invalid enclosing %d/%d", e.Lo, e.Hi), Severity: SeverityError})
			}
		}
	}
	return errs
}

func validateMaterials(t *Tech) []ValidationError {
	var errs []ValidationError
	check := func(kind string, i int, m Material) {
		if !m.Draw.Valid() && !m.Label.Valid() {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("%s[%d] has neither a draw nor a label layer", kind, i),
				Severity: SeverityError,
			})
		}
		refs := append([]LayerRef{m.Draw, m.Label, m.Pin}, m.Mask...)
		refs = append(refs, m.Excl...)
		for _, ref := range refs {
			if ref.Valid() && !t.exists(ref) {
				errs = append(errs, ValidationError{
					Ref:      ref,
					Message:  fmt.Sprintf("%s[%d] references a missing layer", kind, i),
					Severity: SeverityError,
				})
			}
		}
	}
	for i, s := range t.Subst {
		check("subst", i, s.Material)
	}
	for i, w := range t.Wires {
		check("route", i, w.Material)
	}
	for i, v := range t.Vias {
		check("via", i, v.Material)
	}
	return errs
}

func validateLevels(t *Tech) []ValidationError {
	var errs []ValidationError
	for i, v := range t.Vias {
		if t.At(v.Down) == nil || t.At(v.Up) == nil {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("via[%d] connects %s to %s, which do not both exist", i, v.Down, v.Up),
				Severity: SeverityError,
			})
		}
	}
	for i, s := range t.Subst {
		if s.Well.Valid() && (s.Well.Type != LevelSubst || t.At(s.Well) == nil) {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("subst[%d] names %s as its well", i, s.Well),
				Severity: SeverityError,
			})
		}
	}
	for i, m := range t.Models {
		if m.Diff.Type != LevelSubst || t.At(m.Diff) == nil {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("model[%d] %q has no diffusion level", i, m.Name),
				Severity: SeverityError,
			})
		}
	}
	return errs
}

// validatePaints warns about duplicate names and layers nothing uses.
func validatePaints(t *Tech) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]int)
	for i, p := range t.Paint {
		if j, ok := seen[p.Name]; ok {
			errs = append(errs, ValidationError{
				Ref:      PaintRef(i),
				Message:  fmt.Sprintf("duplicate paint name %q (first at %s)", p.Name, PaintRef(j)),
				Severity: SeverityWarning,
			})
			continue
		}
		seen[p.Name] = i

		ref := PaintRef(i)
		if len(p.Out) == 0 && t.FindMaterial(ref) == nil && !t.referencedAsMask(ref) && ref != t.Boundary {
			errs = append(errs, ValidationError{
				Ref:      ref,
				Message:  fmt.Sprintf("paint %q is not used by any material or rule", p.Name),
				Severity: SeverityWarning,
			})
		}
	}
	return errs
}

func (t *Tech) referencedAsMask(ref LayerRef) bool {
	has := func(m Material) bool {
		for _, r := range m.Mask {
			if r == ref {
				return true
			}
		}
		for _, r := range m.Excl {
			if r == ref {
				return true
			}
		}
		return false
	}
	return t.anyMaterial(has, ref)
}
