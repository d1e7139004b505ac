// Package barreldb is the public entry point: a thin facade over
// internal/engine.Engine that owns option defaulting and logger
// construction.
//
// Operations here take no context.Context. Every call is a synchronous,
// in-process mutex-and-disk operation with no suspension points to
// cancel: once the write mutex is held, a call runs to completion or
// fails with an I/O error. Threading a ctx through would only invite
// callers to believe in a cancellation guarantee this store does not
// provide.
package barreldb

import (
	"github.com/iamNilotpal/barreldb/internal/engine"
	"github.com/iamNilotpal/barreldb/pkg/logger"
	"github.com/iamNilotpal/barreldb/pkg/options"
)

// DB is a handle to one open database directory. The zero value is not
// usable; construct one with Open.
type DB struct {
	eng *engine.Engine
}

// Stats is re-exported so callers never need to import internal/engine
// to read Stat()'s result.
type Stats = engine.Stats

// Open creates the directory if needed, acquires its advisory lock, runs
// recovery, and returns a ready-to-use DB. service names the logger.
func Open(service string, opts ...options.OptionFunc) (*DB, error) {
	opt := options.NewDefaultOptions()
	for _, apply := range opts {
		apply(&opt)
	}

	log := logger.New(service)
	eng, err := engine.Open(opt, log)
	if err != nil {
		return nil, err
	}
	return &DB{eng: eng}, nil
}

// OpenDevelopment behaves like Open but logs at debug level to the
// console, intended for local runs and tests.
func OpenDevelopment(service string, opts ...options.OptionFunc) (*DB, error) {
	opt := options.NewDefaultOptions()
	for _, apply := range opts {
		apply(&opt)
	}

	log := logger.NewDevelopment(service)
	eng, err := engine.Open(opt, log)
	if err != nil {
		return nil, err
	}
	return &DB{eng: eng}, nil
}

// Put stores key -> value, overwriting any previous value for key.
func (db *DB) Put(key, value []byte) error {
	return db.eng.Put(key, value)
}

// Get returns the current value for key, or (nil, nil) if key is absent.
func (db *DB) Get(key []byte) ([]byte, error) {
	return db.eng.Get(key)
}

// Delete removes key. A no-op if key is already absent.
func (db *DB) Delete(key []byte) error {
	return db.eng.Delete(key)
}

// Stat returns point-in-time counters for the database.
func (db *DB) Stat() Stats {
	return db.eng.Stat()
}

// ListKeys returns every live key in lexicographic order.
func (db *DB) ListKeys() [][]byte {
	return db.eng.ListKeys()
}

// Fold walks every live (key, value) pair in lexicographic order, calling
// fn for each. Returning false from fn stops the walk early.
func (db *DB) Fold(fn func(key, value []byte) bool) error {
	return db.eng.Fold(fn)
}

// Iterator returns a cursor over a snapshot of the current key ordering.
func (db *DB) Iterator(reverse bool) *Iterator {
	return &Iterator{it: db.eng.NewIterator(reverse)}
}

// NewBatch returns an empty, uncommitted Batch bound to db.
func (db *DB) NewBatch() *Batch {
	return &Batch{b: db.eng.NewBatch()}
}

// Merge rewrites all live data into a single fresh segment, reclaiming
// space held by superseded and deleted records. A call made while a merge
// is running waits for it to finish and then merges again.
func (db *DB) Merge() error {
	return db.eng.Merge()
}

// Backup copies every file in the database directory (except the
// directory lock) to destination, preserving relative paths.
func (db *DB) Backup(destination string) error {
	return db.eng.Backup(destination)
}

// Close persists the transaction counter, closes every segment, and
// releases the directory lock. Idempotent.
func (db *DB) Close() error {
	return db.eng.Close()
}

// Iterator is a cursor over a point-in-time snapshot of the database's
// key ordering; values are fetched on demand as the cursor advances.
type Iterator struct {
	it *engine.Iterator
}

// Rewind resets the cursor to the first key in iteration order.
func (it *Iterator) Rewind() { it.it.Rewind() }

// Seek positions the cursor at the first key satisfying the iteration
// direction relative to key.
func (it *Iterator) Seek(key []byte) { it.it.Seek(key) }

// Valid reports whether the cursor is positioned at an entry.
func (it *Iterator) Valid() bool { return it.it.Valid() }

// Next advances the cursor by one entry.
func (it *Iterator) Next() { it.it.Next() }

// Key returns the current entry's key.
func (it *Iterator) Key() []byte { return it.it.Key() }

// Value resolves and returns the current entry's value.
func (it *Iterator) Value() []byte { return it.it.Value() }

// Batch buffers an ordered set of writes and commits them atomically.
type Batch struct {
	b *engine.Batch
}

// Put buffers a write.
func (b *Batch) Put(key, value []byte) error {
	return b.b.Put(key, value)
}

// Delete buffers a tombstone.
func (b *Batch) Delete(key []byte) error {
	return b.b.Delete(key)
}

// Commit atomically applies every buffered operation. A committed batch
// cannot be reused.
func (b *Batch) Commit() error {
	return b.b.Commit()
}
