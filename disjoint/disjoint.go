// Package disjoint keeps an ordered set of non-overlapping half-open
// intervals, each carrying a caller-defined value. It is the 1-D occupancy
// structure used for routing tracks and blockage extents.
//
// Entries are ordered by start coordinate. Intervals that share only an
// endpoint do not overlap and may coexist as separate entries.
package disjoint

import (
	"fmt"
	"iter"
	"log/slog"
	"math"
	"strings"

	"github.com/tidwall/btree"

	"github.com/bmharper/geomkernel/geom"
	"github.com/bmharper/geomkernel/internal/checked"
)

const defaultDegree = 32

// Entry is one interval of the set and its value.
type Entry[V any] struct {
	geom.Interval
	Value V
}

func lessEntry[V any](a, b Entry[V]) bool {
	if a.Start != b.Start {
		return a.Start < b.Start
	}
	return a.Stop < b.Stop
}

// AddOptions control Set.Add.
type AddOptions struct {
	// Merge unions the new interval with every entry it overlaps instead of
	// failing. The merged entry takes the value passed to Add.
	Merge bool
	// Abut, together with Merge, also merges entries that touch the new
	// interval at an endpoint.
	Abut bool
	// CheckOnly reports whether the insertion would succeed without
	// changing the set.
	CheckOnly bool
}

type options struct {
	logger *slog.Logger
	degree int
}

// Option configures a Set.
type Option func(*options)

// WithLogger sets the logger used for debug tracing of merges and splits.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithDegree sets the B-tree node degree.
func WithDegree(degree int) Option {
	return func(o *options) {
		o.degree = degree
	}
}

// Set is a collection of disjoint intervals with values.
// It is not safe for concurrent use.
type Set[V any] struct {
	tree  *btree.BTreeG[Entry[V]]
	opts  options
	clone func(V) V
	gen   uint64
}

// New returns an empty set.
func New[V any](opts ...Option) *Set[V] {
	o := options{degree: defaultDegree}
	for _, fn := range opts {
		fn(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	return newWith[V](o, nil)
}

func newWith[V any](o options, clone func(V) V) *Set[V] {
	return &Set[V]{
		tree:  btree.NewBTreeGOptions(lessEntry[V], btree.Options{Degree: o.degree, NoLocks: true}),
		opts:  o,
		clone: clone,
	}
}

// derived returns an empty set with the same configuration.
func (s *Set[V]) derived() *Set[V] {
	return newWith(s.opts, s.clone)
}

// WithCloner sets the function used to copy a value when an entry is split
// or the set is copied. Without one, values are copied by assignment.
func (s *Set[V]) WithCloner(clone func(V) V) *Set[V] {
	s.clone = clone
	return s
}

func (s *Set[V]) cloneValue(v V) V {
	if s.clone == nil {
		return v
	}
	return s.clone(v)
}

func (s *Set[V]) Len() int {
	return s.tree.Len()
}

func (s *Set[V]) IsEmpty() bool {
	return s.tree.Len() == 0
}

// Start returns the start of the first interval.
func (s *Set[V]) Start() (geom.Coord, error) {
	e, ok := s.tree.Min()
	if !ok {
		return 0, fmt.Errorf("start of empty set: %w", geom.ErrOutOfBounds)
	}
	return e.Start, nil
}

// Stop returns the stop of the last interval.
func (s *Set[V]) Stop() (geom.Coord, error) {
	e, ok := s.tree.Max()
	if !ok {
		return 0, fmt.Errorf("stop of empty set: %w", geom.ErrOutOfBounds)
	}
	return e.Stop, nil
}

// Coverage returns the total length covered by the set, saturating at
// math.MaxInt64.
func (s *Set[V]) Coverage() geom.Coord {
	var n geom.Coord
	s.tree.Scan(func(e Entry[V]) bool {
		l, ok := checked.Sub(e.Stop, e.Start)
		if ok {
			n, ok = checked.Add(n, l)
		}
		if !ok {
			n = math.MaxInt64
			return false
		}
		return true
	})
	return n
}

// Clear removes every entry.
func (s *Set[V]) Clear() {
	s.tree.Clear()
	s.gen++
}

// Copy returns an independent copy of the set.
func (s *Set[V]) Copy() *Set[V] {
	if s.clone == nil {
		return &Set[V]{tree: s.tree.Copy(), opts: s.opts}
	}
	out := s.derived()
	s.tree.Scan(func(e Entry[V]) bool {
		out.tree.Set(Entry[V]{Interval: e.Interval, Value: s.clone(e.Value)})
		return true
	})
	return out
}

func (s *Set[V]) String() string {
	var sb strings.Builder
	sb.WriteString("DisjointIntervals(")
	i := 0
	s.tree.Scan(func(e Entry[V]) bool {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%v: %v", e.Interval, e.Value)
		i++
		return true
	})
	sb.WriteString(")")
	return sb.String()
}

// scan calls fn, in ascending order, for every entry that overlaps iv, or
// when touch is set, that overlaps or touches it.
func (s *Set[V]) scan(iv geom.Interval, touch bool, fn func(e Entry[V]) bool) {
	// Only the last entry starting before iv can reach into it from the left.
	pivot := Entry[V]{Interval: geom.Interval{Start: iv.Start, Stop: math.MinInt64}}
	s.tree.Descend(pivot, func(e Entry[V]) bool {
		pivot = e
		return false
	})
	s.tree.Ascend(pivot, func(e Entry[V]) bool {
		if e.Start > iv.Stop || (e.Start == iv.Stop && !touch) {
			return false
		}
		if e.Overlaps(iv) || (touch && e.Touches(iv)) {
			return fn(e)
		}
		return true
	})
}

func (s *Set[V]) collect(iv geom.Interval, touch bool) []Entry[V] {
	var out []Entry[V]
	s.scan(iv, touch, func(e Entry[V]) bool {
		out = append(out, e)
		return true
	})
	return out
}

// Add inserts iv with value v. Without Merge, Add fails and leaves the set
// unchanged when iv overlaps an existing entry (or exactly repeats a
// zero-length one). With Merge, every overlapping entry, and with Abut every
// touching entry, is replaced by a single entry spanning all of them that
// carries v. An inverted interval is always rejected.
func (s *Set[V]) Add(iv geom.Interval, v V, opt AddOptions) bool {
	if !iv.IsValid() {
		return false
	}
	hits := s.collect(iv, opt.Merge && opt.Abut)
	_, dup := s.tree.Get(Entry[V]{Interval: iv})
	if !opt.Merge && (len(hits) > 0 || dup) {
		return false
	}
	if opt.CheckOnly {
		return true
	}
	merged := iv
	for _, e := range hits {
		merged = merged.Union(e.Interval)
		s.tree.Delete(e)
	}
	s.tree.Set(Entry[V]{Interval: merged, Value: v})
	s.gen++
	if len(hits) > 0 {
		s.opts.logger.Debug("merged intervals", "interval", iv, "merged", merged, "absorbed", len(hits))
	}
	return true
}

// Remove deletes the entry whose bounds equal iv exactly.
func (s *Set[V]) Remove(iv geom.Interval) error {
	if _, ok := s.tree.Delete(Entry[V]{Interval: iv}); !ok {
		return fmt.Errorf("remove %v: %w", iv, geom.ErrOutOfBounds)
	}
	s.gen++
	return nil
}

// RemoveOverlaps deletes, in full, every entry that overlaps iv, and returns
// how many were removed. An inverted iv removes nothing.
func (s *Set[V]) RemoveOverlaps(iv geom.Interval) int {
	if !iv.IsValid() {
		return 0
	}
	hits := s.collect(iv, false)
	for _, e := range hits {
		s.tree.Delete(e)
	}
	if len(hits) > 0 {
		s.gen++
	}
	return len(hits)
}

// Subtract removes the coordinates of iv from the set. Entries are trimmed;
// an entry that iv splits in the middle becomes two entries, each with a
// copy of the original value. Empty and inverted intervals are no-ops.
func (s *Set[V]) Subtract(iv geom.Interval) {
	if !iv.IsValid() || iv.IsEmpty() {
		return
	}
	hits := s.collect(iv, false)
	for _, e := range hits {
		s.tree.Delete(e)
		left := geom.Interval{Start: e.Start, Stop: iv.Start}
		right := geom.Interval{Start: iv.Stop, Stop: e.Stop}
		if left.Start < left.Stop && right.Start < right.Stop {
			s.opts.logger.Debug("split interval", "interval", e.Interval, "hole", iv)
		}
		if left.Start < left.Stop {
			s.tree.Set(Entry[V]{Interval: left, Value: s.cloneValue(e.Value)})
		}
		if right.Start < right.Stop {
			s.tree.Set(Entry[V]{Interval: right, Value: s.cloneValue(e.Value)})
		}
	}
	if len(hits) > 0 {
		s.gen++
	}
}

// Has reports whether an entry with exactly the bounds of iv exists.
func (s *Set[V]) Has(iv geom.Interval) bool {
	_, ok := s.tree.Get(Entry[V]{Interval: iv})
	return ok
}

// Get returns the value of the entry with exactly the bounds of iv.
func (s *Set[V]) Get(iv geom.Interval) (V, bool) {
	e, ok := s.tree.Get(Entry[V]{Interval: iv})
	return e.Value, ok
}

// Overlaps reports whether any entry overlaps iv.
func (s *Set[V]) Overlaps(iv geom.Interval) bool {
	found := false
	s.scan(iv, false, func(Entry[V]) bool {
		found = true
		return false
	})
	return found
}

// Covers reports whether a single entry contains all of iv.
func (s *Set[V]) Covers(iv geom.Interval) bool {
	covered := false
	s.tree.Descend(Entry[V]{Interval: geom.Interval{Start: iv.Start, Stop: math.MaxInt64}}, func(e Entry[V]) bool {
		covered = e.Covers(iv)
		return false
	})
	return covered
}

// ContainsPoint reports whether some entry contains the coordinate p.
func (s *Set[V]) ContainsPoint(p geom.Coord) bool {
	if p == math.MaxInt64 {
		return false
	}
	return s.Covers(geom.Interval{Start: p, Stop: p + 1})
}

// OverlapRange returns the entries overlapping iv in ascending order.
func (s *Set[V]) OverlapRange(iv geom.Interval) []Entry[V] {
	return s.collect(iv, false)
}

// FirstOverlap returns the lowest entry overlapping iv.
func (s *Set[V]) FirstOverlap(iv geom.Interval) (Entry[V], bool) {
	var first Entry[V]
	found := false
	s.scan(iv, false, func(e Entry[V]) bool {
		first, found = e, true
		return false
	})
	return first, found
}

// NextCoord returns the smallest coordinate >= v contained in the set. With
// even set, only even coordinates qualify.
func (s *Set[V]) NextCoord(v geom.Coord, even bool) (geom.Coord, bool) {
	pivot := Entry[V]{Interval: geom.Interval{Start: v, Stop: math.MaxInt64}}
	s.tree.Descend(pivot, func(e Entry[V]) bool {
		pivot = e
		return false
	})
	var res geom.Coord
	found := false
	s.tree.Ascend(pivot, func(e Entry[V]) bool {
		c := max(v, e.Start)
		if even && c&1 != 0 {
			if c == math.MaxInt64 {
				return false
			}
			c++
		}
		if c < e.Stop {
			res, found = c, true
			return false
		}
		return true
	})
	return res, found
}

// PrevCoord returns the largest coordinate <= v contained in the set. With
// even set, only even coordinates qualify.
func (s *Set[V]) PrevCoord(v geom.Coord, even bool) (geom.Coord, bool) {
	var res geom.Coord
	found := false
	s.tree.Descend(Entry[V]{Interval: geom.Interval{Start: v, Stop: math.MaxInt64}}, func(e Entry[V]) bool {
		if e.IsEmpty() {
			return true
		}
		c := min(v, e.Stop-1)
		if even && c&1 != 0 {
			c--
		}
		if c >= e.Start {
			res, found = c, true
			return false
		}
		return true
	})
	return res, found
}

// Complement returns the gaps of the set within total. The gap entries hold
// the zero value.
func (s *Set[V]) Complement(total geom.Interval) *Set[V] {
	out := s.derived()
	var zero V
	cursor := total.Start
	s.scan(total, false, func(e Entry[V]) bool {
		if e.IsEmpty() {
			return true
		}
		if e.Start > cursor {
			out.tree.Set(Entry[V]{Interval: geom.Interval{Start: cursor, Stop: e.Start}, Value: zero})
		}
		cursor = max(cursor, e.Stop)
		return true
	})
	if cursor < total.Stop {
		out.tree.Set(Entry[V]{Interval: geom.Interval{Start: cursor, Stop: total.Stop}, Value: zero})
	}
	return out
}

// Intersection returns the pairwise intersections of the entries of s and
// other. The value of each piece is combine(value in s, value in other).
func (s *Set[V]) Intersection(other *Set[V], combine func(a, b V) V) *Set[V] {
	out := s.derived()
	a, b := s.tree.Items(), other.tree.Items()
	for i, j := 0, 0; i < len(a) && j < len(b); {
		if r, ok := a[i].Intersect(b[j].Interval); ok {
			out.tree.Set(Entry[V]{Interval: r, Value: combine(a[i].Value, b[j].Value)})
		}
		if a[i].Stop < b[j].Stop {
			i++
		} else {
			j++
		}
	}
	return out
}

// Transform returns a new set with every interval mapped through
// x*scale + shift. A negative scale reverses each interval's endpoints so
// that Start <= Stop still holds.
func (s *Set[V]) Transform(scale, shift geom.Coord) (*Set[V], error) {
	if scale == 0 {
		return nil, fmt.Errorf("transform scale 0: %w", geom.ErrInvalidArgument)
	}
	out := s.derived()
	var err error
	s.tree.Scan(func(e Entry[V]) bool {
		lo, ok1 := checked.MulAdd(e.Start, scale, shift)
		hi, ok2 := checked.MulAdd(e.Stop, scale, shift)
		if !ok1 || !ok2 {
			err = fmt.Errorf("transform %v by %d*x%+d: %w", e.Interval, scale, shift, geom.ErrOverflow)
			return false
		}
		if scale < 0 {
			lo, hi = hi, lo
		}
		out.tree.Set(Entry[V]{Interval: geom.Interval{Start: lo, Stop: hi}, Value: s.cloneValue(e.Value)})
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// guard panics if the set changed since gen was taken.
func (s *Set[V]) guard(gen uint64) {
	if s.gen != gen {
		panic(fmt.Errorf("disjoint set iteration: %w", geom.ErrConcurrentModification))
	}
}

// All yields every interval and value in ascending order. Modifying the set
// during iteration panics.
func (s *Set[V]) All() iter.Seq2[geom.Interval, V] {
	return func(yield func(geom.Interval, V) bool) {
		gen := s.gen
		s.tree.Scan(func(e Entry[V]) bool {
			ok := yield(e.Interval, e.Value)
			s.guard(gen)
			return ok
		})
	}
}

// Intervals yields every interval in ascending order.
func (s *Set[V]) Intervals() iter.Seq[geom.Interval] {
	return func(yield func(geom.Interval) bool) {
		for iv := range s.All() {
			if !yield(iv) {
				return
			}
		}
	}
}

// Values yields every value in interval order.
func (s *Set[V]) Values() iter.Seq[V] {
	return func(yield func(V) bool) {
		for _, v := range s.All() {
			if !yield(v) {
				return
			}
		}
	}
}

// Overlapping yields the entries overlapping iv in ascending order.
// Modifying the set during iteration panics.
func (s *Set[V]) Overlapping(iv geom.Interval) iter.Seq2[geom.Interval, V] {
	return func(yield func(geom.Interval, V) bool) {
		gen := s.gen
		s.scan(iv, false, func(e Entry[V]) bool {
			ok := yield(e.Interval, e.Value)
			s.guard(gen)
			return ok
		})
	}
}
