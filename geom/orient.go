package geom

import (
	"fmt"

	"github.com/bmharper/geomkernel/internal/checked"
)

// Orientation is one of the eight rigid rotations/reflections of the plane
// that map the integer grid onto itself.
type Orientation uint8

const (
	R0 Orientation = iota
	MY
	MX
	R180
	MXR90
	R90
	R270
	MYR90
)

// matrix rows: x' = m[0]*x + m[1]*y, y' = m[2]*x + m[3]*y
var orientMatrix = [8][4]int64{
	R0:    {1, 0, 0, 1},
	MY:    {-1, 0, 0, 1},
	MX:    {1, 0, 0, -1},
	R180:  {-1, 0, 0, -1},
	MXR90: {0, 1, 1, 0},
	R90:   {0, -1, 1, 0},
	R270:  {0, 1, -1, 0},
	MYR90: {0, -1, -1, 0},
}

var orientNames = [8]string{"R0", "MY", "MX", "R180", "MXR90", "R90", "R270", "MYR90"}

func (o Orientation) String() string {
	if int(o) < len(orientNames) {
		return orientNames[o]
	}
	return fmt.Sprintf("Orientation(%d)", uint8(o))
}

// IsValid reports whether o is one of the eight defined orientations.
func (o Orientation) IsValid() bool {
	return o <= MYR90
}

// SwapsXY reports whether o maps the X axis onto the Y axis.
func (o Orientation) SwapsXY() bool {
	return o >= MXR90
}

// AxisScale returns the sign each original axis is scaled by after the
// orientation is applied.
func (o Orientation) AxisScale() [2]int64 {
	m := orientMatrix[o]
	return [2]int64{m[0] + m[2], m[1] + m[3]}
}

// FlipLR mirrors the orientation left to right.
func (o Orientation) FlipLR() Orientation {
	return o ^ 1
}

// FlipUD mirrors the orientation upside down.
func (o Orientation) FlipUD() Orientation {
	return o ^ 2
}

// Then returns the orientation equivalent to applying o followed by next.
func (o Orientation) Then(next Orientation) Orientation {
	a, b := orientMatrix[o], orientMatrix[next]
	return fromMatrix([4]int64{
		b[0]*a[0] + b[1]*a[2], b[0]*a[1] + b[1]*a[3],
		b[2]*a[0] + b[3]*a[2], b[2]*a[1] + b[3]*a[3],
	})
}

// Inverse returns the orientation that undoes o.
func (o Orientation) Inverse() Orientation {
	m := orientMatrix[o]
	return fromMatrix([4]int64{m[0], m[2], m[1], m[3]})
}

func fromMatrix(m [4]int64) Orientation {
	for i, v := range orientMatrix {
		if v == m {
			return Orientation(i)
		}
	}
	panic("geom: matrix is not an orientation")
}

// applyVector rotates (dx, dy) without translation.
func (o Orientation) applyVector(dx, dy Coord) (Coord, Coord, bool) {
	m := orientMatrix[o]
	x, ok1 := mulUnit(m[0], dx, m[1], dy)
	y, ok2 := mulUnit(m[2], dx, m[3], dy)
	return x, y, ok1 && ok2
}

// mulUnit computes a*x + b*y where exactly one of a, b is +-1 and the other 0.
func mulUnit(a, x, b, y int64) (Coord, bool) {
	switch {
	case a == 1:
		return x, true
	case a == -1:
		return checked.Neg(x)
	case b == 1:
		return y, true
	default:
		return checked.Neg(y)
	}
}

// Transform is an orientation followed by a translation.
type Transform struct {
	X      Coord
	Y      Coord
	Orient Orientation
}

// NewTransform returns the transform placing the origin at (dx, dy) with the
// given orientation.
func NewTransform(dx, dy Coord, orient Orientation) Transform {
	return Transform{X: dx, Y: dy, Orient: orient}
}

func (t Transform) String() string {
	return fmt.Sprintf("Transform(%d, %d, %s)", t.X, t.Y, t.Orient)
}

// SwapsXY reports whether the transform exchanges the axes.
func (t Transform) SwapsXY() bool {
	return t.Orient.SwapsXY()
}

// Apply maps the point (x, y). Overflow wraps; use ApplyChecked when the
// inputs are not known to be in range.
func (t Transform) Apply(x, y Coord) (Coord, Coord) {
	m := orientMatrix[t.Orient]
	return m[0]*x + m[1]*y + t.X, m[2]*x + m[3]*y + t.Y
}

// ApplyChecked maps the point (x, y), reporting ErrOverflow instead of
// wrapping.
func (t Transform) ApplyChecked(x, y Coord) (Coord, Coord, error) {
	rx, ry, ok := t.Orient.applyVector(x, y)
	if ok {
		rx, ok = checked.Add(rx, t.X)
	}
	if ok {
		ry, ok = checked.Add(ry, t.Y)
	}
	if !ok {
		return 0, 0, fmt.Errorf("transform %v of (%d, %d): %w", t, x, y, ErrOverflow)
	}
	return rx, ry, nil
}

// ApplyVector rotates the displacement (dx, dy); the translation is ignored.
func (t Transform) ApplyVector(dx, dy Coord) (Coord, Coord, error) {
	rx, ry, ok := t.Orient.applyVector(dx, dy)
	if !ok {
		return 0, 0, fmt.Errorf("rotate vector (%d, %d) by %v: %w", dx, dy, t.Orient, ErrOverflow)
	}
	return rx, ry, nil
}

// MoveBy returns the transform shifted by (dx, dy).
func (t Transform) MoveBy(dx, dy Coord) Transform {
	t.X += dx
	t.Y += dy
	return t
}

// Compose returns the transform equivalent to applying t, then next.
func (t Transform) Compose(next Transform) Transform {
	x, y := next.Apply(t.X, t.Y)
	return Transform{X: x, Y: y, Orient: t.Orient.Then(next.Orient)}
}

// Invert returns the transform that undoes t.
func (t Transform) Invert() Transform {
	inv := Transform{Orient: t.Orient.Inverse()}
	x, y := inv.Apply(t.X, t.Y)
	inv.X, inv.Y = -x, -y
	return inv
}
