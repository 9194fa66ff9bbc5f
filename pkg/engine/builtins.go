package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/chazu/loom/pkg/expr"
	"github.com/chazu/loom/pkg/tech"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms technology source code before passing it to
// zygomys. It performs three transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: not-interact -> not_interact
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator).
//
//  3. ; line comments become // comments.
//
// All transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				result = append(result, '"')
				result = append(result, kwPrefix...)
				result = append(result, b[i+1:j]...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Only when the hyphen sits between identifier characters.
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isLetter(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpLayer wraps a paint layer or rule output.
type sexpLayer struct {
	ref  tech.LayerRef
	text string
}

func (l *sexpLayer) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(layer %q)", l.text)
}
func (l *sexpLayer) Type() *zygo.RegisteredType { return nil }

// sexpLevel wraps a physical level returned by subst, well, route and via.
type sexpLevel struct {
	level tech.Level
}

func (l *sexpLevel) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(level %s)", l.level)
}
func (l *sexpLevel) Type() *zygo.RegisteredType { return nil }

func newLayer(t *tech.Tech, ref tech.LayerRef) *sexpLayer {
	return &sexpLayer{ref: ref, text: t.Print(ref)}
}

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			i++
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i += 2
		} else {
			result.kw[name] = zygo.SexpNull
			i++
		}
	}
	return result
}

// arg returns the i'th positional argument, or the keyword argument called
// name when there are not enough positionals.
func (a kwArgs) arg(i int, name string) (zygo.Sexp, bool) {
	if i < len(a.positional) {
		return a.positional[i], true
	}
	v, ok := a.kw[name]
	return v, ok
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts an integer. Floats are accepted when they are whole.
func toInt(s zygo.Sexp) (int, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return int(v.Val), nil
	case *zygo.SexpFloat:
		if v.Val == math.Trunc(v.Val) {
			return int(v.Val), nil
		}
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toLayer accepts a layer value or the name of a paint layer. nil means no
// layer.
func toLayer(t *tech.Tech, s zygo.Sexp) (tech.LayerRef, error) {
	switch v := s.(type) {
	case *sexpLayer:
		return v.ref, nil
	case *zygo.SexpStr:
		if ref, ok := t.FindPaint(v.S); ok {
			return ref, nil
		}
		return tech.NoLayer, fmt.Errorf("no paint layer named %q", v.S)
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return tech.NoLayer, nil
		}
	}
	return tech.NoLayer, fmt.Errorf("expected layer, got %T (%s)", s, s.SexpString(nil))
}

// toLevel extracts a level returned by subst, well, route or via.
func toLevel(s zygo.Sexp) (tech.Level, error) {
	if l, ok := s.(*sexpLevel); ok {
		return l.level, nil
	}
	return tech.Level{}, fmt.Errorf("expected level, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

func toLayers(t *tech.Tech, s zygo.Sexp) ([]tech.LayerRef, error) {
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, err
	}
	out := make([]tech.LayerRef, 0, len(items))
	for i, item := range items {
		ref, err := toLayer(t, item)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		out = append(out, ref)
	}
	return out, nil
}

// toBins reads a list of [min max] pairs.
func toBins(s zygo.Sexp) ([]tech.Bin, error) {
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, err
	}
	var bins []tech.Bin
	for i, item := range items {
		pair, err := sexpListToSlice(item)
		if err != nil {
			return nil, fmt.Errorf("bin %d: %w", i, err)
		}
		if len(pair) != 2 {
			return nil, fmt.Errorf("bin %d: bins must have 2 elements (min and max)", i)
		}
		lo, err := toInt(pair[0])
		if err != nil {
			return nil, fmt.Errorf("bin %d: min: %w", i, err)
		}
		hi, err := toInt(pair[1])
		if err != nil {
			return nil, fmt.Errorf("bin %d: max: %w", i, err)
		}
		bins = append(bins, tech.Bin{Min: lo, Max: hi})
	}
	return bins, nil
}

// parseMaterial reads the draw, label and pin layers from position drawAt
// on (or their keywords), then the optional thick and resist keywords.
// Substrates also take mask and excl lists.
func parseMaterial(t *tech.Tech, fn string, pa kwArgs, drawAt int, masks bool) (tech.Material, error) {
	var m tech.Material
	var err error

	v, ok := pa.arg(drawAt, "draw")
	if !ok {
		return m, fmt.Errorf("%s requires a draw layer", fn)
	}
	if m.Draw, err = toLayer(t, v); err != nil {
		return m, fmt.Errorf("%s: draw: %w", fn, err)
	}
	for i, f := range []struct {
		key string
		dst *tech.LayerRef
	}{{"label", &m.Label}, {"pin", &m.Pin}} {
		if v, ok := pa.arg(drawAt+1+i, f.key); ok {
			if *f.dst, err = toLayer(t, v); err != nil {
				return m, fmt.Errorf("%s: %s: %w", fn, f.key, err)
			}
		}
	}
	if masks {
		if v, ok := pa.kw["mask"]; ok {
			if m.Mask, err = toLayers(t, v); err != nil {
				return m, fmt.Errorf("%s: mask: %w", fn, err)
			}
		}
		if v, ok := pa.kw["excl"]; ok {
			if m.Excl, err = toLayers(t, v); err != nil {
				return m, fmt.Errorf("%s: excl: %w", fn, err)
			}
		}
	}
	if v, ok := pa.kw["thick"]; ok {
		if m.Thickness, err = toFloat64(v); err != nil {
			return m, fmt.Errorf("%s: thick: %w", fn, err)
		}
	}
	if v, ok := pa.kw["resist"]; ok {
		if m.Resistivity, err = toFloat64(v); err != nil {
			return m, fmt.Errorf("%s: resist: %w", fn, err)
		}
	}
	return m, nil
}

// layerArgs reads every argument as a layer.
func layerArgs(t *tech.Tech, fn string, args []zygo.Sexp, least int) ([]tech.LayerRef, error) {
	if len(args) < least {
		return nil, fmt.Errorf("%s requires at least %d layers", fn, least)
	}
	refs := make([]tech.LayerRef, len(args))
	for i, a := range args {
		ref, err := toLayer(t, a)
		if err != nil {
			return nil, fmt.Errorf("%s: layer %d: %w", fn, i, err)
		}
		if !ref.Valid() {
			return nil, fmt.Errorf("%s: layer %d is nil", fn, i)
		}
		refs[i] = ref
	}
	return refs, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// recorder keeps the first error a builtin returned. zygomys decorates
// errors from user functions, so the original text is reported from here.
type recorder struct {
	err error
}

func (r *recorder) wrap(fn zygo.ZlispUserFunction) zygo.ZlispUserFunction {
	return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		res, err := fn(env, name, args)
		if err != nil && r.err == nil {
			r.err = err
		}
		return res, err
	}
}

// registerBuiltins installs the technology builtins into a zygomys
// environment. They populate t during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, t *tech.Tech) *recorder {
	rec := &recorder{}
	add := func(name string, fn zygo.ZlispUserFunction) {
		env.AddFunction(name, rec.wrap(fn))
	}

	// (dbunit 0.005) and (scale 1000)
	add("dbunit", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("dbunit requires exactly 1 argument, got %d", len(args))
		}
		f, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("dbunit: %w", err)
		}
		if f <= 0 {
			return zygo.SexpNull, fmt.Errorf("dbunit must be positive, got %g", f)
		}
		t.DBUnit = f
		return &zygo.SexpFloat{Val: f}, nil
	})
	add("scale", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("scale requires exactly 1 argument, got %d", len(args))
		}
		f, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("scale: %w", err)
		}
		t.Scale = f
		return &zygo.SexpFloat{Val: f}, nil
	})

	// (paint "met1" 68 20)
	add("paint", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("paint requires a name, a GDS layer and a datatype")
		}
		pname, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("paint: name: %w", err)
		}
		major, err := toInt(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("paint: layer: %w", err)
		}
		minor, err := toInt(args[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("paint: datatype: %w", err)
		}
		if _, dup := t.FindPaint(pname); dup {
			return zygo.SexpNull, fmt.Errorf("paint: %q already defined", pname)
		}
		return newLayer(t, t.AddPaint(pname, major, minor)), nil
	})

	// (width met1 140)
	add("width", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("width requires a layer and a value")
		}
		ref, err := toLayer(t, args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("width: %w", err)
		}
		v, err := toInt(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("width: value: %w", err)
		}
		return newLayer(t, t.SetWidth(ref, v)), nil
	})

	// (fill met1 met2 ...)
	add("fill", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		refs, err := layerArgs(t, "fill", args, 1)
		if err != nil {
			return zygo.SexpNull, err
		}
		for _, ref := range refs {
			if !ref.IsPaint() {
				return zygo.SexpNull, fmt.Errorf("fill: %s is not a paint layer", t.Print(ref))
			}
			t.SetFill(ref, true)
		}
		return zygo.SexpNull, nil
	})

	// (bound prBoundary)
	add("bound", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		refs, err := layerArgs(t, "bound", args, 1)
		if err != nil {
			return zygo.SexpNull, err
		}
		t.Boundary = refs[0]
		return newLayer(t, refs[0]), nil
	})

	// (nmos "svt" "nfet_01v8" ndiff :bins [[420 7000]])
	model := func(typ tech.ModelType) zygo.ZlispUserFunction {
		return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			pa := parseArgs(args)
			m := tech.Model{Type: typ}
			var err error

			v, ok := pa.arg(0, "variant")
			if !ok {
				return zygo.SexpNull, fmt.Errorf("%s requires a variant", typ)
			}
			if m.Variant, err = toString(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: variant: %w", typ, err)
			}
			if v, ok = pa.arg(1, "name"); !ok {
				return zygo.SexpNull, fmt.Errorf("%s requires a device name", typ)
			}
			if m.Name, err = toString(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: name: %w", typ, err)
			}
			if v, ok = pa.arg(2, "diff"); !ok {
				return zygo.SexpNull, fmt.Errorf("%s requires a diffusion level", typ)
			}
			if m.Diff, err = toLevel(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: diff: %w", typ, err)
			}
			if v, ok := pa.arg(3, "bins"); ok {
				if m.Bins, err = toBins(v); err != nil {
					return zygo.SexpNull, fmt.Errorf("%s: bins: %w", typ, err)
				}
			}
			t.AddModel(m)
			return zygo.SexpNull, nil
		}
	}
	add("nmos", model(tech.NMOS))
	add("pmos", model(tech.PMOS))

	// (dielec down up 0.3 :permit 3.9)
	add("dielec", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		var d tech.Dielectric
		var err error
		for i, f := range []struct {
			key string
			dst *tech.Level
		}{{"down", &d.Down}, {"up", &d.Up}} {
			v, ok := pa.arg(i, f.key)
			if !ok {
				return zygo.SexpNull, fmt.Errorf("dielec requires %s", f.key)
			}
			if *f.dst, err = toLevel(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("dielec: %s: %w", f.key, err)
			}
		}
		v, ok := pa.arg(2, "thick")
		if !ok {
			return zygo.SexpNull, fmt.Errorf("dielec requires a thickness")
		}
		if d.Thickness, err = toFloat64(v); err != nil {
			return zygo.SexpNull, fmt.Errorf("dielec: thick: %w", err)
		}
		if v, ok := pa.arg(3, "permit"); ok {
			if d.Permitivity, err = toFloat64(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("dielec: permit: %w", err)
			}
		}
		t.AddDielectric(d)
		return zygo.SexpNull, nil
	})

	// (subst diff :mask [nsdm] :well nwell-level :thick 0.1)
	add("subst", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		m, err := parseMaterial(t, "subst", pa, 0, true)
		if err != nil {
			return zygo.SexpNull, err
		}
		s := tech.Substrate{Material: m}
		if v, ok := pa.kw["well"]; ok {
			if s.Well, err = toLevel(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("subst: well: %w", err)
			}
		}
		return &sexpLevel{level: t.AddSubst(s)}, nil
	})

	// (well nwell :label nwlbl)
	add("well", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		m, err := parseMaterial(t, "well", parseArgs(args), 0, true)
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpLevel{level: t.AddSubst(tech.Substrate{Material: m})}, nil
	})

	// (route met1 :label met1lbl :pin met1pin :thick 0.36 :resist 0.125)
	add("route", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		m, err := parseMaterial(t, "route", parseArgs(args), 0, false)
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpLevel{level: t.AddRoute(tech.Routing{Material: m})}, nil
	})

	// (via li-level met1-level mcon :thick 0.34)
	add("via", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		var v tech.Via
		var err error
		for i, f := range []struct {
			key string
			dst *tech.Level
		}{{"down", &v.Down}, {"up", &v.Up}} {
			s, ok := pa.arg(i, f.key)
			if !ok {
				return zygo.SexpNull, fmt.Errorf("via requires %s", f.key)
			}
			if *f.dst, err = toLevel(s); err != nil {
				return zygo.SexpNull, fmt.Errorf("via: %s: %w", f.key, err)
			}
		}
		if v.Material, err = parseMaterial(t, "via", pa, 2, false); err != nil {
			return zygo.SexpNull, err
		}
		return &sexpLevel{level: t.AddVia(v)}, nil
	})

	// (spacing met1 met1 140)
	add("spacing", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("spacing requires two layers and a value")
		}
		refs, err := layerArgs(t, "spacing", args[:2], 2)
		if err != nil {
			return zygo.SexpNull, err
		}
		v, err := toInt(args[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("spacing: value: %w", err)
		}
		return newLayer(t, t.SetSpacing(refs[0], refs[1], v)), nil
	})

	// (enclosing nsdm diff 125 [hi]); hi defaults to lo.
	add("enclosing", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 && len(args) != 4 {
			return zygo.SexpNull, fmt.Errorf("enclosing requires two layers and one or two values")
		}
		refs, err := layerArgs(t, "enclosing", args[:2], 2)
		if err != nil {
			return zygo.SexpNull, err
		}
		if !refs[0].IsPaint() {
			return zygo.SexpNull, fmt.Errorf("enclosing layer must be a paint layer")
		}
		lo, err := toInt(args[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("enclosing: lo: %w", err)
		}
		hi := lo
		if len(args) == 4 {
			if hi, err = toInt(args[3]); err != nil {
				return zygo.SexpNull, fmt.Errorf("enclosing: hi: %w", err)
			}
		}
		return newLayer(t, t.SetEnclosing(refs[0], refs[1], lo, hi)), nil
	})

	// (b_and diff nsdm ...), (b_or a b ...), (b_not nwell)
	add("b_and", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		refs, err := layerArgs(t, "b_and", args, 2)
		if err != nil {
			return zygo.SexpNull, err
		}
		return newLayer(t, t.SetAnd(refs[0], refs[1], refs[2:]...)), nil
	})
	add("b_or", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		refs, err := layerArgs(t, "b_or", args, 2)
		if err != nil {
			return zygo.SexpNull, err
		}
		return newLayer(t, t.SetOr(refs[0], refs[1], refs[2:]...)), nil
	})
	add("b_not", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("b_not requires exactly 1 layer")
		}
		refs, err := layerArgs(t, "b_not", args, 1)
		if err != nil {
			return zygo.SexpNull, err
		}
		return newLayer(t, t.SetNot(refs[0])), nil
	})

	// (interact poly diff) and (not-interact poly diff)
	selection := func(fn string, set func(a, b tech.LayerRef) tech.LayerRef) zygo.ZlispUserFunction {
		return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) != 2 {
				return zygo.SexpNull, fmt.Errorf("%s requires exactly 2 layers", fn)
			}
			refs, err := layerArgs(t, fn, args, 2)
			if err != nil {
				return zygo.SexpNull, err
			}
			return newLayer(t, set(refs[0], refs[1])), nil
		}
	}
	add("interact", selection("interact", t.SetInteract))
	add("not_interact", selection("not-interact", t.SetNotInteract))

	// (expr "diff & ~(nsdm | psdm)")
	add("expr", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("expr requires exactly 1 string")
		}
		src, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("expr: %w", err)
		}
		ref, err := expr.Compile(t, src)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("expr: %w", err)
		}
		return newLayer(t, ref), nil
	})
	return rec
}
