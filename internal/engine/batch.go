package engine

import (
	"strconv"
	"sync"

	"github.com/iamNilotpal/barreldb/internal/record"
	"github.com/iamNilotpal/barreldb/pkg/dberrors"
	"github.com/iamNilotpal/barreldb/pkg/options"
)

// batchOp is one buffered mutation: isPut == false means delete.
type batchOp struct {
	key   []byte
	value []byte
	isPut bool
}

// Batch buffers an ordered key -> (value | delete) mapping and commits it
// atomically. A Batch is owned by a single goroutine; concurrent calls
// on the same Batch are undefined.
type Batch struct {
	mu     sync.Mutex
	e      *Engine
	ops    []batchOp
	seen   map[string]int // key -> index into ops, for last-write-wins within the batch
	closed bool
}

// NewBatch returns an empty, uncommitted batch bound to e.
func (e *Engine) NewBatch() *Batch {
	return &Batch{e: e, seen: make(map[string]int)}
}

// Put buffers a write. Rejects an empty key or a committed batch.
func (b *Batch) Put(key, value []byte) error {
	if len(key) == 0 {
		return dberrors.ErrKeyEmpty
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return dberrors.ErrBatchClosed
	}
	b.stage(key, value, true)
	return nil
}

// Delete buffers a tombstone. Rejects an empty key or a committed batch.
func (b *Batch) Delete(key []byte) error {
	if len(key) == 0 {
		return dberrors.ErrKeyEmpty
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return dberrors.ErrBatchClosed
	}
	b.stage(key, nil, false)
	return nil
}

// stage records the operation, overwriting any earlier buffered op for
// the same key so only the last write for a key survives to commit.
// Caller holds b.mu.
func (b *Batch) stage(key, value []byte, isPut bool) {
	op := batchOp{key: append([]byte(nil), key...), isPut: isPut}
	if isPut {
		op.value = append([]byte(nil), value...)
	}

	if i, ok := b.seen[string(key)]; ok {
		b.ops[i] = op
		return
	}
	b.seen[string(key)] = len(b.ops)
	b.ops = append(b.ops, op)
}

// Commit allocates a transaction id, brackets the buffered writes with
// TXN_START/TXN_FINISHED markers, applies the index mutations only on
// the success path, and best-effort writes a TXN_ABORT marker if
// anything fails after the first append.
func (b *Batch) Commit() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return dberrors.ErrBatchClosed
	}
	b.closed = true

	if len(b.ops) == 0 {
		return nil
	}

	e := b.e
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return dberrors.ErrDatabaseClosed
	}

	useMarkers := e.opt.IndexType == options.IndexTypeBTree
	var txnID uint64
	if useMarkers {
		txnID = e.seqNo + 1
	}

	if useMarkers {
		marker := record.Record{Type: record.TypeTxnStart, Key: []byte(strconv.FormatUint(txnID, 10))}
		if _, err := e.appendLocked(marker); err != nil {
			return dberrors.NewTxnError(err, dberrors.ErrorCodeIO, "batch start marker failed").
				WithTxnID(txnID).WithStage("start")
		}
	}

	type mutation struct {
		op  batchOp
		pos record.Position
	}
	mutations := make([]mutation, 0, len(b.ops))

	for _, op := range b.ops {
		r := record.Record{Key: op.key}
		if op.isPut {
			r.Type = record.TypeNormal
			r.Value = op.value
		} else {
			r.Type = record.TypeDeleted
		}

		pos, err := e.appendLocked(r)
		if err != nil {
			if useMarkers {
				abort := record.Record{Type: record.TypeTxnAbort, Key: []byte(strconv.FormatUint(txnID, 10))}
				e.appendLocked(abort) //nolint:errcheck // best-effort abort, see Commit doc
			}
			return dberrors.NewTxnError(err, dberrors.ErrorCodeIO, "batch entry append failed").
				WithTxnID(txnID).WithStage("write")
		}
		mutations = append(mutations, mutation{op: op, pos: pos})
	}

	if useMarkers {
		finish := record.Record{Type: record.TypeTxnFinished, Key: []byte(strconv.FormatUint(txnID, 10))}
		if _, err := e.appendLocked(finish); err != nil {
			abort := record.Record{Type: record.TypeTxnAbort, Key: []byte(strconv.FormatUint(txnID, 10))}
			e.appendLocked(abort) //nolint:errcheck // best-effort abort, see Commit doc
			return dberrors.NewTxnError(err, dberrors.ErrorCodeIO, "batch finish marker failed").
				WithTxnID(txnID).WithStage("finish")
		}
		e.seqNo = txnID
	}

	var bytesWritten int64
	for _, m := range mutations {
		if m.op.isPut {
			if prev, existed := e.idx.Put(m.op.key, m.pos); existed {
				e.reclaimSize += int64(prev.Size)
			}
			bytesWritten += int64(len(m.op.key) + len(m.op.value))
		} else {
			if prev, existed := e.idx.Delete(m.op.key); existed {
				e.reclaimSize += int64(prev.Size)
			}
			bytesWritten += int64(len(m.op.key))
		}
	}
	e.bytesWritten += bytesWritten

	return e.maybeSyncLocked()
}
