package tech

// Elevation returns the height in micrometers of the bottom of a level.
// Substrates sit at zero. Every other level rests on the level below it,
// found through the dielectric table first and the via table second, plus
// the thickness of the separating dielectric.
func (t *Tech) Elevation(l Level) float64 {
	return t.elevation(l, map[Level]bool{})
}

func (t *Tech) elevation(l Level, visiting map[Level]bool) float64 {
	if l.Type == LevelSubst || !l.Valid() || visiting[l] {
		return 0
	}
	visiting[l] = true
	defer delete(visiting, l)

	for _, d := range t.Dielec {
		if d.Up == l {
			return t.top(d.Down, visiting) + d.Thickness
		}
	}
	if l.Type == LevelVia && l.Idx >= 0 && l.Idx < len(t.Vias) {
		return t.top(t.Vias[l.Idx].Down, visiting)
	}
	for i, v := range t.Vias {
		if v.Up == l {
			return t.top(ViaLevel(i), visiting)
		}
	}
	return 0
}

// top is the elevation of the upper surface of a level.
func (t *Tech) top(l Level, visiting map[Level]bool) float64 {
	h := t.elevation(l, visiting)
	if m := t.At(l); m != nil {
		h += m.Thickness
	}
	return h
}
