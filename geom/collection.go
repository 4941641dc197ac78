package geom

import (
	"iter"
	"slices"
	"strings"
)

// BoxCollection is an ordered list of box arrays, typically the shapes of
// one layer/purpose pair.
type BoxCollection struct {
	arrays []BoxArray
}

// Add appends an existing array.
func (c *BoxCollection) Add(a BoxArray) {
	c.arrays = append(c.arrays, a)
}

// AppendRectArray builds and appends an nx by ny array of base.
func (c *BoxCollection) AppendRectArray(base Box, nx, ny int64, spx, spy Coord) error {
	a, err := NewBoxArray(base, nx, ny, spx, spy)
	if err != nil {
		return err
	}
	c.arrays = append(c.arrays, a)
	return nil
}

func (c *BoxCollection) Len() int {
	return len(c.arrays)
}

// All yields the arrays in insertion order.
func (c *BoxCollection) All() iter.Seq[BoxArray] {
	return slices.Values(c.arrays)
}

// BoundBox returns the box covering every array, or InvalidBox when empty.
func (c *BoxCollection) BoundBox() Box {
	b := InvalidBox()
	for _, a := range c.arrays {
		b = b.Merge(a.BoundBox())
	}
	return b
}

func (c *BoxCollection) String() string {
	var sb strings.Builder
	sb.WriteString("BoxCollection(")
	for i, a := range c.arrays {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(a.String())
	}
	sb.WriteString(")")
	return sb.String()
}
