package engine

import (
	"bytes"

	"github.com/iamNilotpal/barreldb/internal/index"
	"github.com/iamNilotpal/barreldb/internal/record"
)

// Iterator is the Database-level cursor: it wraps an index.Iterator's
// key snapshot and resolves each value on demand from its segment,
// rather than materializing values up front.
type Iterator struct {
	e    *Engine
	keys *index.Iterator
}

// NewIterator snapshots the current key ordering (forward or reverse)
// and returns a cursor rewound to the first entry.
func (e *Engine) NewIterator(reverse bool) *Iterator {
	e.mu.Lock()
	keys := index.NewIterator(e.idx, reverse)
	e.mu.Unlock()
	return &Iterator{e: e, keys: keys}
}

// Rewind resets the cursor to the first key in iteration order.
func (it *Iterator) Rewind() { it.keys.Rewind() }

// Seek positions the cursor at the first key satisfying the iteration
// direction relative to key.
func (it *Iterator) Seek(key []byte) { it.keys.Seek(key) }

// Valid reports whether the cursor is positioned at an entry.
func (it *Iterator) Valid() bool { return it.keys.Valid() }

// Next advances the cursor by one entry.
func (it *Iterator) Next() { it.keys.Next() }

// Key returns the current entry's key. Only valid when Valid() is true.
func (it *Iterator) Key() []byte { return it.keys.Key() }

// Value resolves and returns the current entry's value by re-reading its
// segment position, rather than a value cached at snapshot time. Returns nil
// if the underlying record can no longer be read (e.g. a concurrent
// merge already reclaimed its segment), including when a merge rewrote
// segment 1 and the snapshot position now holds a different record.
func (it *Iterator) Value() []byte {
	it.e.mu.Lock()
	defer it.e.mu.Unlock()
	pos := it.keys.Value()
	seg := it.e.segmentFor(pos.SegmentID)
	if seg == nil {
		return nil
	}
	r, size, ok := seg.ReadRecordAt(pos.Offset)
	if !ok || size != pos.Size || r.Type != record.TypeNormal || !bytes.Equal(r.Key, it.keys.Key()) {
		return nil
	}
	return r.Value
}
