package geom

import "fmt"

// Interval is the half-open range [Start, Stop).
// Start == Stop is a zero-length marker.
type Interval struct {
	Start Coord
	Stop  Coord
}

// NewInterval returns [start, stop), rejecting start > stop.
func NewInterval(start, stop Coord) (Interval, error) {
	if start > stop {
		return Interval{}, fmt.Errorf("interval [%d, %d): %w", start, stop, ErrInvalidArgument)
	}
	return Interval{Start: start, Stop: stop}, nil
}

func (iv Interval) String() string {
	return fmt.Sprintf("[%d, %d)", iv.Start, iv.Stop)
}

func (iv Interval) Len() Coord {
	return iv.Stop - iv.Start
}

func (iv Interval) IsValid() bool {
	return iv.Start <= iv.Stop
}

// IsEmpty reports whether the interval has zero length.
func (iv Interval) IsEmpty() bool {
	return iv.Start == iv.Stop
}

// Overlaps reports whether the two intervals share interior coordinates.
// Intervals that merely share an endpoint do not overlap.
func (iv Interval) Overlaps(o Interval) bool {
	return iv.Start < o.Stop && o.Start < iv.Stop
}

// Touches reports whether the intervals abut: one ends exactly where the
// other starts.
func (iv Interval) Touches(o Interval) bool {
	return iv.Stop == o.Start || o.Stop == iv.Start
}

func (iv Interval) ContainsPoint(p Coord) bool {
	return iv.Start <= p && p < iv.Stop
}

// Covers reports whether o lies entirely within iv.
func (iv Interval) Covers(o Interval) bool {
	return iv.Start <= o.Start && o.Stop <= iv.Stop
}

// Intersect returns the common part of the two intervals. The bool is false
// when they do not overlap.
func (iv Interval) Intersect(o Interval) (Interval, bool) {
	r := Interval{Start: max(iv.Start, o.Start), Stop: min(iv.Stop, o.Stop)}
	if r.Start >= r.Stop {
		return Interval{}, false
	}
	return r, true
}

// Union returns the smallest interval containing both.
func (iv Interval) Union(o Interval) Interval {
	return Interval{Start: min(iv.Start, o.Start), Stop: max(iv.Stop, o.Stop)}
}

func (iv Interval) Shift(d Coord) Interval {
	return Interval{Start: iv.Start + d, Stop: iv.Stop + d}
}
