// Package geom holds the integer geometry shared by the indexing kernel:
// half-open intervals, axis-aligned boxes, rigid transforms and regular box
// arrays.
//
// All coordinates are int64. Nothing in this package uses floating point.
package geom

import "errors"

// Coord is a layout coordinate in database units.
type Coord = int64

// Error kinds reported by the kernel. Callers test with errors.Is.
var (
	ErrInvalidArgument        = errors.New("invalid argument")
	ErrOutOfBounds            = errors.New("out of bounds")
	ErrOverflow               = errors.New("coordinate overflow")
	ErrConcurrentModification = errors.New("structure modified during iteration")
)

// Axis selects the X or Y dimension.
type Axis uint8

const (
	X Axis = iota
	Y
)

// Perpendicular returns the other axis.
func (a Axis) Perpendicular() Axis {
	return a ^ 1
}

func (a Axis) String() string {
	if a == X {
		return "x"
	}
	return "y"
}

// Side selects the lower or upper edge along an axis.
type Side uint8

const (
	Lower Side = iota
	Upper
)

// Flip returns the opposite side.
func (s Side) Flip() Side {
	return s ^ 1
}

// floor2 returns floor((a+b)/2) without overflowing.
func floor2(a, b Coord) Coord {
	return (a >> 1) + (b >> 1) + (a & b & 1)
}
