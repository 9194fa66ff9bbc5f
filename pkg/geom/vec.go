// Package geom provides the integer geometry primitives used by layouts:
// vectors, axis-aligned rectangles, rectilinear polygons and text labels.
// All coordinates are database units; nothing in this package uses floating
// point for topology decisions.
package geom

import (
	"fmt"
	"math"
)

// Plane extents. A rectangle spanning MinCoord..MaxCoord on both axes
// represents the whole plane.
const (
	MinCoord = math.MinInt
	MaxCoord = math.MaxInt
)

// Vec2 is a two component integer vector. Index 0 is x, index 1 is y.
type Vec2 [2]int

// V is shorthand for Vec2{x, y}.
func V(x, y int) Vec2 { return Vec2{x, y} }

func (a Vec2) Add(b Vec2) Vec2 { return Vec2{a[0] + b[0], a[1] + b[1]} }
func (a Vec2) Sub(b Vec2) Vec2 { return Vec2{a[0] - b[0], a[1] - b[1]} }

// Mul multiplies componentwise.
func (a Vec2) Mul(b Vec2) Vec2 { return Vec2{a[0] * b[0], a[1] * b[1]} }

func (a Vec2) Min(b Vec2) Vec2 { return Vec2{min(a[0], b[0]), min(a[1], b[1])} }
func (a Vec2) Max(b Vec2) Vec2 { return Vec2{max(a[0], b[0]), max(a[1], b[1])} }

// Less orders vectors by x, then y.
func (a Vec2) Less(b Vec2) bool {
	if a[0] != b[0] {
		return a[0] < b[0]
	}
	return a[1] < b[1]
}

// Dist returns the Euclidean distance. Only used for reporting.
func (a Vec2) Dist(b Vec2) float64 {
	dx := float64(a[0] - b[0])
	dy := float64(a[1] - b[1])
	return math.Sqrt(dx*dx + dy*dy)
}

func (a Vec2) String() string {
	return fmt.Sprintf("(%d, %d)", a[0], a[1])
}

// cross returns the z component of a x b in the y-up frame, negated so that
// clockwise turns are positive.
func cross(a, b Vec2) int {
	return a[1]*b[0] - a[0]*b[1]
}

// coordAt returns the point on the line through v0 and v1 whose component on
// axis equals value. The other component is rounded toward negative infinity.
// The caller guarantees v0[axis] != v1[axis].
func coordAt(v0, v1 Vec2, axis, value int) Vec2 {
	other := 1 - axis
	var r Vec2
	r[axis] = value
	num := (v1[other] - v0[other]) * (value - v0[axis])
	den := v1[axis] - v0[axis]
	r[other] = v0[other] + floorDiv(num, den)
	return r
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// AddSat adds with saturation at the plane extents.
func AddSat(a, b int) int {
	if b > 0 && a > MaxCoord-b {
		return MaxCoord
	}
	if b < 0 && a < MinCoord-b {
		return MinCoord
	}
	return a + b
}

// MulSat multiplies non-negative a and b, clamping at MaxCoord.
func MulSat(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	if a > MaxCoord/b {
		return MaxCoord
	}
	return a * b
}

// SubSat subtracts with saturation at the plane extents.
func SubSat(a, b int) int {
	if b == MinCoord {
		if a >= 0 {
			return MaxCoord
		}
		return a - b
	}
	return AddSat(a, -b)
}
