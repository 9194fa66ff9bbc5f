// Package cellfile reads and writes cell geometry as TOML.
//
// A cell file lists its geometry per paint layer:
//
//	name = "inv"
//
//	[[net]]
//	names = ["a"]
//	input = true
//
//	[[layer]]
//	paint = "m1"
//
//	[[layer.rect]]
//	ll = [0, 0]
//	ur = [40, 10]
//	net = "a"
//
//	[[layer.poly]]
//	points = [[0, 0], [20, 0], [20, 10], [10, 10], [10, 20], [0, 20]]
//
//	[[layer.label]]
//	text = "a"
//	at = [5, 5]
//
// Paint layers are named the way the technology names them. Rule layers are
// derived and never stored.
package cellfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/chazu/loom/pkg/geom"
	"github.com/chazu/loom/pkg/layout"
	"github.com/chazu/loom/pkg/tech"
)

// Error reports a problem with the contents of a cell file. Layer is the
// position of the offending [[layer]] table, or -1 when the problem is not
// tied to one.
type Error struct {
	Layer   int
	Message string
}

func (e *Error) Error() string {
	if e.Layer >= 0 {
		return fmt.Sprintf("layer %d: %s", e.Layer, e.Message)
	}
	return e.Message
}

// File is the on-disk shape of a cell.
type File struct {
	Name     string     `toml:"name,omitempty"`
	Nets     []Net      `toml:"net,omitempty"`
	Layers   []Layer    `toml:"layer"`
	Instance []Instance `toml:"instance,omitempty"`
}

type Net struct {
	Names  []string `toml:"names"`
	Vdd    bool     `toml:"vdd,omitempty"`
	GND    bool     `toml:"gnd,omitempty"`
	Input  bool     `toml:"input,omitempty"`
	Output bool     `toml:"output,omitempty"`
	Sub    bool     `toml:"sub,omitempty"`
}

type Layer struct {
	Paint string  `toml:"paint"`
	Rect  []Rect  `toml:"rect,omitempty"`
	Poly  []Poly  `toml:"poly,omitempty"`
	Label []Label `toml:"label,omitempty"`
}

type Rect struct {
	Ll  [2]int `toml:"ll"`
	Ur  [2]int `toml:"ur"`
	Net string `toml:"net,omitempty"`
}

type Poly struct {
	Points [][2]int `toml:"points"`
	Net    string   `toml:"net,omitempty"`
}

type Label struct {
	Text string `toml:"text"`
	At   [2]int `toml:"at"`
}

// Instance places a sub-cell. Ll and Ur give the sub-cell's own bounding
// box and may be left out; a negative Dir component mirrors that axis.
type Instance struct {
	Macro int    `toml:"macro"`
	Pos   [2]int `toml:"pos"`
	Dir   [2]int `toml:"dir"`
	Ll    [2]int `toml:"ll"`
	Ur    [2]int `toml:"ur"`
}

// Load reads a cell file drawn against t.
func Load(t *tech.Tech, path string) (*layout.Layout, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cell: %w", err)
	}
	defer f.Close()

	l, err := Decode(t, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return l, nil
}

// Decode reads a cell from r. Keys the format does not know are rejected.
func Decode(t *tech.Tech, r io.Reader) (*layout.Layout, error) {
	var f File
	md, err := toml.NewDecoder(r).Decode(&f)
	if err != nil {
		return nil, fmt.Errorf("decode cell: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, &Error{Layer: -1, Message: "unknown keys: " + strings.Join(keys, ", ")}
	}
	return f.Build(t)
}

// Build converts the file into a layout.
func (f *File) Build(t *tech.Tech) (*layout.Layout, error) {
	l := layout.New(t)
	l.Name = f.Name

	for i, n := range f.Nets {
		if len(n.Names) == 0 {
			return nil, &Error{Layer: -1, Message: fmt.Sprintf("net %d has no names", i)}
		}
		net := layout.Net{IsVdd: n.Vdd, IsGND: n.GND, IsInput: n.Input, IsOutput: n.Output, IsSub: n.Sub}
		for _, name := range n.Names {
			net.Set(name)
		}
		l.Nets = append(l.Nets, net)
	}

	netOf := func(name string) int {
		if name == "" {
			return geom.NoNet
		}
		return l.NetAt(name)
	}

	var errs []error
	for i, fl := range f.Layers {
		ref, ok := t.FindPaint(fl.Paint)
		if !ok {
			errs = append(errs, &Error{Layer: i, Message: fmt.Sprintf("unknown paint %q", fl.Paint)})
			continue
		}

		for _, r := range fl.Rect {
			l.Push(ref, geom.NewRect(netOf(r.Net), geom.Vec2(r.Ll), geom.Vec2(r.Ur)))
		}
		for k, p := range fl.Poly {
			if len(p.Points) < 4 {
				errs = append(errs, &Error{Layer: i, Message: fmt.Sprintf("poly %d has %d points, need at least 4", k, len(p.Points))})
				continue
			}
			v := make([]geom.Vec2, len(p.Points))
			for j, pt := range p.Points {
				v[j] = geom.Vec2(pt)
			}
			l.PushPoly(ref, geom.NewPoly(netOf(p.Net), v...))
		}
		for _, lb := range fl.Label {
			if lb.Text == "" {
				errs = append(errs, &Error{Layer: i, Message: "label without text"})
				continue
			}
			l.Label(ref, geom.Label{Net: geom.NoNet, Pos: geom.Vec2(lb.At), Text: lb.Text})
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	for _, in := range f.Instance {
		inst := layout.NewInstance(in.Macro, geom.Vec2(in.Pos))
		for axis, d := range in.Dir {
			if d < 0 {
				inst.Dir[axis] = -1
			}
		}
		box := geom.NewRect(geom.NoNet, geom.Vec2(in.Ll), geom.Vec2(in.Ur))
		if box.Empty() {
			l.Inst = append(l.Inst, inst)
			continue
		}
		l.PushInstance(inst, box)
	}
	return l, nil
}

// FromLayout captures the paint geometry of l. Net indices are written as
// the first name of the net.
func FromLayout(l *layout.Layout) File {
	f := File{Name: l.Name}
	for _, n := range l.Nets {
		f.Nets = append(f.Nets, Net{
			Names:  n.Names,
			Vdd:    n.IsVdd,
			GND:    n.IsGND,
			Input:  n.IsInput,
			Output: n.IsOutput,
			Sub:    n.IsSub,
		})
	}

	name := func(net int) string {
		if net < 0 || net >= len(l.Nets) {
			return ""
		}
		return l.Nets[net].Name()
	}

	for _, ref := range l.Refs() {
		if !ref.IsPaint() {
			continue
		}
		src := l.Layers[ref]
		fl := Layer{Paint: l.Tech.PaintName(ref)}
		for _, r := range src.Geo {
			fl.Rect = append(fl.Rect, Rect{Ll: r.Ll, Ur: r.Ur, Net: name(r.Net)})
		}
		for _, p := range src.Poly {
			fp := Poly{Net: name(p.Net)}
			for _, v := range p.V {
				fp.Points = append(fp.Points, v)
			}
			fl.Poly = append(fl.Poly, fp)
		}
		for _, lb := range src.Lbl {
			fl.Label = append(fl.Label, Label{Text: lb.Text, At: lb.Pos})
		}
		f.Layers = append(f.Layers, fl)
	}

	for _, in := range l.Inst {
		f.Instance = append(f.Instance, Instance{Macro: in.Macro, Pos: in.Pos, Dir: in.Dir})
	}
	return f
}

// Encode writes the paint geometry of l to w.
func Encode(w io.Writer, l *layout.Layout) error {
	f := FromLayout(l)
	if err := toml.NewEncoder(w).Encode(f); err != nil {
		return fmt.Errorf("encode cell: %w", err)
	}
	return nil
}

// Save writes l to path.
func Save(path string, l *layout.Layout) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create cell: %w", err)
	}
	if err := Encode(f, l); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
