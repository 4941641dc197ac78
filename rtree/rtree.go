// Package rtree is a dynamic 2-D R-tree over integer boxes. Every entry is
// addressed by a Handle that is never reused, so a stale handle can not
// alias a later insertion.
//
// Queries come in two flavours. QueryIntersect includes entries that only
// touch the probe box along an edge or corner, QueryOverlap requires a shared
// interior.
package rtree

import (
	"fmt"
	"iter"
	"log/slog"
	"slices"

	"github.com/bmharper/geomkernel/geom"
)

const (
	DefaultMaxEntries = 16
	minMaxEntries     = 4
)

// Handle identifies an entry for the lifetime of its Index. The zero Handle
// is never issued.
type Handle uint64

// Entry is an indexed box, its value and its handle.
type Entry[V any] struct {
	Handle Handle
	Box    geom.Box
	Value  V
}

// Stats describes the shape of an Index.
type Stats struct {
	Entries   int
	Nodes     int
	Height    int
	Splits    uint64
	Condenses uint64
}

type options struct {
	logger       *slog.Logger
	maxEntries   int
	minEntries   int
	bulkNodeSize int
}

type Option func(*options)

// WithMaxEntries sets the node fan-out. Values below 4 are raised to 4.
func WithMaxEntries(n int) Option {
	return func(o *options) {
		o.maxEntries = n
	}
}

// WithMinEntries sets the fill below which a node is dissolved after a
// removal. It is clamped to [2, max/2]. The default is 40% of the fan-out.
func WithMinEntries(n int) Option {
	return func(o *options) {
		o.minEntries = n
	}
}

// WithBulkNodeSize sets the fill of the nodes built by BulkLoad. It is
// clamped to [2*min, max] and defaults to max.
func WithBulkNodeSize(n int) Option {
	return func(o *options) {
		o.bulkNodeSize = n
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func (o *options) normalize() {
	if o.maxEntries < minMaxEntries {
		o.maxEntries = minMaxEntries
	}
	if o.minEntries <= 0 {
		o.minEntries = o.maxEntries * 2 / 5
	}
	o.minEntries = max(2, min(o.minEntries, o.maxEntries/2))
	if o.bulkNodeSize <= 0 {
		o.bulkNodeSize = o.maxEntries
	}
	o.bulkNodeSize = max(2*o.minEntries, min(o.bulkNodeSize, o.maxEntries))
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
}

// Index is a spatial index of boxes with values.
// It is not safe for concurrent use.
type Index[V any] struct {
	opts       options
	root       *node[V]
	height     int
	records    map[Handle]*record[V]
	lastHandle Handle
	gen        uint64
	splits     uint64
	condenses  uint64
}

// New returns an empty index.
func New[V any](opts ...Option) *Index[V] {
	o := options{maxEntries: DefaultMaxEntries}
	for _, fn := range opts {
		fn(&o)
	}
	o.normalize()
	return &Index[V]{
		opts:    o,
		root:    newLeaf[V](),
		height:  1,
		records: map[Handle]*record[V]{},
	}
}

func (t *Index[V]) Len() int {
	return len(t.records)
}

func (t *Index[V]) IsEmpty() bool {
	return len(t.records) == 0
}

// Bounds returns the smallest box covering every entry, or an invalid box
// when the index is empty.
func (t *Index[V]) Bounds() geom.Box {
	if t.IsEmpty() {
		return geom.InvalidBox()
	}
	return t.root.box
}

// Insert adds box with value v and returns its new handle. The box is not
// validated; an inverted box is stored and reachable through Get and All, but
// never matches a query.
func (t *Index[V]) Insert(v V, box geom.Box) Handle {
	rec := t.newRecord(v, box)
	t.insertRecord(rec)
	t.gen++
	return rec.Handle
}

// InsertArray inserts every member of arr with value v, in row-major order.
func (t *Index[V]) InsertArray(v V, arr geom.BoxArray) []Handle {
	handles := make([]Handle, 0, int(arr.Len()))
	for _, b := range arr.All() {
		handles = append(handles, t.Insert(v, b))
	}
	return handles
}

func (t *Index[V]) newRecord(v V, box geom.Box) *record[V] {
	t.lastHandle++
	rec := &record[V]{Entry: Entry[V]{Handle: t.lastHandle, Box: box, Value: v}}
	t.records[rec.Handle] = rec
	return rec
}

// Get returns the value stored under h.
func (t *Index[V]) Get(h Handle) (V, error) {
	rec, ok := t.records[h]
	if !ok {
		var zero V
		return zero, fmt.Errorf("get handle %d: %w", h, geom.ErrOutOfBounds)
	}
	return rec.Value, nil
}

// Box returns the box stored under h.
func (t *Index[V]) Box(h Handle) (geom.Box, error) {
	rec, ok := t.records[h]
	if !ok {
		return geom.InvalidBox(), fmt.Errorf("box of handle %d: %w", h, geom.ErrOutOfBounds)
	}
	return rec.Box, nil
}

// Remove deletes the entry stored under h and returns its value.
func (t *Index[V]) Remove(h Handle) (V, error) {
	rec, ok := t.records[h]
	if !ok {
		var zero V
		return zero, fmt.Errorf("remove handle %d: %w", h, geom.ErrOutOfBounds)
	}
	delete(t.records, h)
	leaf := rec.leaf
	if i := slices.Index(leaf.items, rec); i >= 0 {
		leaf.items = slices.Delete(leaf.items, i, i+1)
	}
	rec.leaf = nil
	t.condense(leaf)
	t.gen++
	return rec.Value, nil
}

// Stats reports the current shape of the tree and its lifetime split and
// condense counts.
func (t *Index[V]) Stats() Stats {
	return Stats{
		Entries:   len(t.records),
		Nodes:     t.root.count(),
		Height:    t.height,
		Splits:    t.splits,
		Condenses: t.condenses,
	}
}

func (t *Index[V]) chooseLeaf(b geom.Box) *node[V] {
	n := t.root
	for !n.leaf {
		best := n.children[0]
		bestGrow := enlargement(best.box, b)
		bestArea := boxArea(best.box)
		for _, c := range n.children[1:] {
			grow := enlargement(c.box, b)
			d := grow.cmp(bestGrow)
			if d > 0 {
				continue
			}
			a := boxArea(c.box)
			if d < 0 || a.cmp(bestArea) < 0 {
				best, bestGrow, bestArea = c, grow, a
			}
		}
		n = best
	}
	return n
}

func (t *Index[V]) insertRecord(rec *record[V]) {
	leaf := t.chooseLeaf(rec.Box)
	leaf.items = append(leaf.items, rec)
	rec.leaf = leaf
	t.adjust(leaf)
}

// adjust walks from n up to the root, splitting overflowing nodes and
// refreshing bounding boxes on the way.
func (t *Index[V]) adjust(n *node[V]) {
	for n != nil {
		if n.size() <= t.opts.maxEntries {
			n.recompute()
			n = n.parent
			continue
		}
		sibling := n.split(t.opts.minEntries)
		t.splits++
		t.opts.logger.Debug("split node", "leaf", n.leaf, "sizes", []int{n.size(), sibling.size()})
		parent := n.parent
		if parent == nil {
			root := &node[V]{children: []*node[V]{n, sibling}}
			root.adopt()
			root.recompute()
			t.root = root
			t.height++
			t.opts.logger.Debug("grew root", "height", t.height)
			return
		}
		sibling.parent = parent
		parent.children = append(parent.children, sibling)
		n = parent
	}
}

// condense removes underfull nodes on the path from n to the root and
// reinserts the records they held.
func (t *Index[V]) condense(n *node[V]) {
	var orphans []*record[V]
	for n.parent != nil {
		parent := n.parent
		if n.size() < t.opts.minEntries {
			if i := slices.Index(parent.children, n); i >= 0 {
				parent.children = slices.Delete(parent.children, i, i+1)
			}
			orphans = n.collect(orphans)
			t.condenses++
		} else {
			n.recompute()
		}
		n = parent
	}
	n.recompute()

	for !t.root.leaf && len(t.root.children) == 1 {
		t.root = t.root.children[0]
		t.root.parent = nil
		t.height--
		t.opts.logger.Debug("shrank root", "height", t.height)
	}
	if !t.root.leaf && len(t.root.children) == 0 {
		t.root = newLeaf[V]()
		t.height = 1
	}

	for _, rec := range orphans {
		t.insertRecord(rec)
	}
	if len(orphans) != 0 {
		t.opts.logger.Debug("reinserted orphans", "count", len(orphans))
	}
}

// All yields every entry in tree order. Each call starts a fresh traversal.
// Modifying the index during iteration panics.
func (t *Index[V]) All() iter.Seq2[Handle, Entry[V]] {
	return func(yield func(Handle, Entry[V]) bool) {
		gen := t.gen
		stack := []*node[V]{t.root}
		for len(stack) != 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if !n.leaf {
				stack = append(stack, n.children...)
				continue
			}
			for _, rec := range n.items {
				if !yield(rec.Handle, rec.Entry) {
					return
				}
				if t.gen != gen {
					panic(fmt.Errorf("rtree iteration: %w", geom.ErrConcurrentModification))
				}
			}
		}
	}
}
