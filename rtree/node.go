package rtree

import "github.com/bmharper/geomkernel/geom"

// record is the stored form of an entry. leaf always points at the node
// holding the record, so removal never has to search the tree.
type record[V any] struct {
	Entry[V]
	leaf *node[V]
}

type node[V any] struct {
	box      geom.Box
	parent   *node[V]
	leaf     bool
	children []*node[V]   // internal nodes
	items    []*record[V] // leaves
}

func newLeaf[V any]() *node[V] {
	return &node[V]{box: geom.InvalidBox(), leaf: true}
}

func (n *node[V]) size() int {
	if n.leaf {
		return len(n.items)
	}
	return len(n.children)
}

// recompute refreshes the bounding box from the node's members.
func (n *node[V]) recompute() {
	b := geom.InvalidBox()
	if n.leaf {
		for _, r := range n.items {
			b = b.Merge(r.Box)
		}
	} else {
		for _, c := range n.children {
			b = b.Merge(c.box)
		}
	}
	n.box = b
}

func (n *node[V]) memberBoxes() []geom.Box {
	boxes := make([]geom.Box, 0, n.size())
	if n.leaf {
		for _, r := range n.items {
			boxes = append(boxes, r.Box)
		}
	} else {
		for _, c := range n.children {
			boxes = append(boxes, c.box)
		}
	}
	return boxes
}

// adopt makes n the owner of its current members.
func (n *node[V]) adopt() {
	if n.leaf {
		for _, r := range n.items {
			r.leaf = n
		}
	} else {
		for _, c := range n.children {
			c.parent = n
		}
	}
}

// split moves roughly half of an overflowing node's members into a new
// sibling, which it returns. The sibling is not yet attached to a parent.
func (n *node[V]) split(minFill int) *node[V] {
	g1, g2 := quadraticSplit(n.memberBoxes(), minFill)
	sibling := &node[V]{leaf: n.leaf}
	if n.leaf {
		items := n.items
		n.items = make([]*record[V], 0, len(items))
		sibling.items = make([]*record[V], 0, len(items))
		for _, i := range g1 {
			n.items = append(n.items, items[i])
		}
		for _, i := range g2 {
			sibling.items = append(sibling.items, items[i])
		}
	} else {
		children := n.children
		n.children = make([]*node[V], 0, len(children))
		sibling.children = make([]*node[V], 0, len(children))
		for _, i := range g1 {
			n.children = append(n.children, children[i])
		}
		for _, i := range g2 {
			sibling.children = append(sibling.children, children[i])
		}
	}
	sibling.adopt()
	n.recompute()
	sibling.recompute()
	return sibling
}

// collect appends every record below n to out.
func (n *node[V]) collect(out []*record[V]) []*record[V] {
	if n.leaf {
		return append(out, n.items...)
	}
	for _, c := range n.children {
		out = c.collect(out)
	}
	return out
}

// count returns the number of nodes in the subtree rooted at n.
func (n *node[V]) count() int {
	total := 1
	for _, c := range n.children {
		total += c.count()
	}
	return total
}
