// Package index is the in-memory index: a byte-lexicographically ordered
// map from key to record Position, with forward/reverse snapshot
// iteration.
//
// A plain hash map gives O(1) point lookups but no ordering, which isn't
// enough here: range scans and merge snapshots both need seekable
// forward/reverse iteration. This package keeps an Index type behind a
// constructor, with a Close that's safe to call once, backed by
// github.com/google/btree so Ascend/Descend fall out of the library
// instead of being hand-rolled.
package index

import (
	"bytes"
	"sync"

	"github.com/google/btree"

	"github.com/iamNilotpal/barreldb/internal/record"
)

// btreeDegree is the branching factor passed to btree.New. 32 is the
// value google/btree's own docs benchmark as a reasonable default.
const btreeDegree = 32

// item is the btree.Item implementation backing every index entry.
type item struct {
	key []byte
	pos record.Position
}

// Less implements btree.Item: byte-lexicographic order on key. Value
// bytes carry no ordering of their own.
func (a *item) Less(than btree.Item) bool {
	return bytes.Compare(a.key, than.(*item).key) < 0
}

// Index is the ordered key -> Position map. All exported methods are
// safe for concurrent use.
type Index struct {
	mu     sync.RWMutex
	tree   *btree.BTree
	closed bool
}

// New constructs an empty Index.
func New() *Index {
	return &Index{tree: btree.New(btreeDegree)}
}

// Put inserts or overwrites the position for key, returning the
// previously indexed position and whether one existed.
func (idx *Index) Put(key []byte, pos record.Position) (record.Position, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	prev := idx.tree.ReplaceOrInsert(&item{key: cloneKey(key), pos: pos})
	if prev == nil {
		return record.Position{}, false
	}
	return prev.(*item).pos, true
}

// Get looks up the position for key.
func (idx *Index) Get(key []byte) (record.Position, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	found := idx.tree.Get(&item{key: key})
	if found == nil {
		return record.Position{}, false
	}
	return found.(*item).pos, true
}

// Delete removes key from the index, returning the position it pointed
// at and whether it was present.
func (idx *Index) Delete(key []byte) (record.Position, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	removed := idx.tree.Delete(&item{key: key})
	if removed == nil {
		return record.Position{}, false
	}
	return removed.(*item).pos, true
}

// Size returns the number of live keys in the index.
func (idx *Index) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.tree.Len()
}

// Close clears the index. Safe to call once; a second call is a no-op.
func (idx *Index) Close() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.closed {
		return
	}
	idx.closed = true
	idx.tree.Clear(false)
}

// Replace atomically swaps the entire contents of the index for entries,
// used by merge to install the compacted position set in one step
// instead of deleting and re-inserting every key.
func (idx *Index) Replace(entries map[string]record.Position) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.tree = btree.New(btreeDegree)
	for k, pos := range entries {
		idx.tree.ReplaceOrInsert(&item{key: []byte(k), pos: pos})
	}
}

func cloneKey(key []byte) []byte {
	out := make([]byte, len(key))
	copy(out, key)
	return out
}
