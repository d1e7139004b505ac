package index

import (
	"bytes"
	"sort"

	"github.com/google/btree"

	"github.com/iamNilotpal/barreldb/internal/record"
)

// entry is one row of an Iterator's snapshot.
type entry struct {
	key []byte
	pos record.Position
}

// Iterator is a stateful cursor over a point-in-time snapshot of the
// index's key ordering, taken when the Iterator is constructed. It only
// needs to reflect the ordering at creation time, not subsequent
// mutations, so NewIterator walks the tree once into a plain slice up
// front; every other method is then just slice bookkeeping.
type Iterator struct {
	entries []entry
	reverse bool
	pos     int
}

// NewIterator snapshots idx's current contents in the requested
// direction and returns a cursor rewound to the first entry.
func NewIterator(idx *Index, reverse bool) *Iterator {
	idx.mu.RLock()
	entries := make([]entry, 0, idx.tree.Len())
	walk := func(i btree.Item) bool {
		it := i.(*item)
		entries = append(entries, entry{key: cloneKey(it.key), pos: it.pos})
		return true
	}
	if reverse {
		idx.tree.Descend(walk)
	} else {
		idx.tree.Ascend(walk)
	}
	idx.mu.RUnlock()

	return &Iterator{entries: entries, reverse: reverse}
}

// Rewind resets the cursor to the first entry in iteration order.
func (it *Iterator) Rewind() {
	it.pos = 0
}

// Seek positions the cursor at the first entry satisfying the iteration
// direction relative to key: the first key >= key in forward order, or
// the first key <= key in reverse order.
func (it *Iterator) Seek(key []byte) {
	if it.reverse {
		it.pos = sort.Search(len(it.entries), func(i int) bool {
			return bytes.Compare(it.entries[i].key, key) <= 0
		})
		return
	}
	it.pos = sort.Search(len(it.entries), func(i int) bool {
		return bytes.Compare(it.entries[i].key, key) >= 0
	})
}

// Valid reports whether the cursor is positioned at an entry.
func (it *Iterator) Valid() bool {
	return it.pos >= 0 && it.pos < len(it.entries)
}

// Key returns the current entry's key. Only valid when Valid() is true.
func (it *Iterator) Key() []byte {
	return it.entries[it.pos].key
}

// Value returns the current entry's position. Only valid when Valid() is
// true.
func (it *Iterator) Value() record.Position {
	return it.entries[it.pos].pos
}

// Next advances the cursor by one entry.
func (it *Iterator) Next() {
	it.pos++
}
