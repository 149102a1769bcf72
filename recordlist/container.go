package recordlist

import (
	"github.com/google/btree"
)

type row struct {
	seq    int64 // insertion sequence, gives the list order
	record Record
}

func (r *row) Less(than *row) bool {
	return r.seq < than.seq
}

type container struct {
	tree *btree.BTreeG[*row]
}

func newContainer() *container {
	return &container{
		tree: btree.NewG(32, func(a, b *row) bool { return a.Less(b) }),
	}
}

func (c *container) ReplaceOrInsert(r *row) {
	c.tree.ReplaceOrInsert(r)
}

func (c *container) Delete(r *row) {
	c.tree.Delete(r)
}

func (c *container) Len() int {
	return c.tree.Len()
}

func (c *container) Traverse(iterator func(r *row) bool) {
	c.tree.Ascend(iterator)
}
