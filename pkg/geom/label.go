package geom

import "fmt"

// Label attaches a net name to the geometry under Pos.
type Label struct {
	Net  int
	Pos  Vec2
	Text string
}

// Shift maps the label position the same way Rect.Shift maps corners.
func (l Label) Shift(pos, dir Vec2) Label {
	l.Pos = pos.Add(l.Pos.Mul(dir))
	return l
}

func (l Label) String() string {
	return fmt.Sprintf("%q@%v net=%d", l.Text, l.Pos, l.Net)
}
