package rtree

import (
	"fmt"

	"github.com/bmharper/geomkernel/geom"
)

// Query is a single-pass cursor over the entries matching a probe box.
//
//	q := idx.QueryOverlap(probe)
//	for q.Next() {
//		use(q.Entry())
//	}
//	if err := q.Err(); err != nil { ... }
//
// Modifying the index while a query is live stops the query, and Err then
// reports ErrConcurrentModification.
type Query[V any] struct {
	idx   *Index[V]
	probe geom.Box
	match func(entry, probe geom.Box) bool
	gen   uint64
	stack []*node[V]
	leaf  *node[V]
	pos   int
	cur   Entry[V]
	err   error
	done  bool
}

// QueryIntersect returns the entries whose box shares any point with box,
// including contact along an edge or at a corner.
func (t *Index[V]) QueryIntersect(box geom.Box) *Query[V] {
	return t.newQuery(box, geom.Box.Intersects)
}

// QueryOverlap returns the entries whose box shares interior with box.
// Entries that only touch box are excluded.
func (t *Index[V]) QueryOverlap(box geom.Box) *Query[V] {
	return t.newQuery(box, geom.Box.Overlaps)
}

func (t *Index[V]) newQuery(box geom.Box, match func(entry, probe geom.Box) bool) *Query[V] {
	q := &Query[V]{
		idx:   t,
		probe: box,
		match: match,
		gen:   t.gen,
		stack: make([]*node[V], 0, 32),
	}
	if !t.IsEmpty() {
		q.stack = append(q.stack, t.root)
	}
	return q
}

// Next advances to the next matching entry and reports whether there is one.
func (q *Query[V]) Next() bool {
	if q.done {
		return false
	}
	if q.idx.gen != q.gen {
		q.err = fmt.Errorf("rtree query: %w", geom.ErrConcurrentModification)
		q.finish()
		return false
	}
	for {
		if q.leaf != nil {
			for q.pos < len(q.leaf.items) {
				rec := q.leaf.items[q.pos]
				q.pos++
				if rec.Box.IsValid() && q.match(rec.Box, q.probe) {
					q.cur = rec.Entry
					return true
				}
			}
			q.leaf = nil
		}
		if len(q.stack) == 0 {
			q.finish()
			return false
		}
		n := q.stack[len(q.stack)-1]
		q.stack = q.stack[:len(q.stack)-1]
		if n.leaf {
			q.leaf, q.pos = n, 0
			continue
		}
		// a matching entry always intersects its ancestors' boxes
		for _, c := range n.children {
			if c.box.Intersects(q.probe) {
				q.stack = append(q.stack, c)
			}
		}
	}
}

func (q *Query[V]) finish() {
	q.done = true
	q.stack = nil
	q.leaf = nil
}

// Entry returns the entry found by the last successful call to Next.
func (q *Query[V]) Entry() Entry[V] {
	return q.cur
}

// Err returns the error that ended the query, if any.
func (q *Query[V]) Err() error {
	return q.err
}

// Collect drains the query into a slice.
func (q *Query[V]) Collect() ([]Entry[V], error) {
	var out []Entry[V]
	for q.Next() {
		out = append(out, q.Entry())
	}
	return out, q.Err()
}
