// Package engine is the Database core: lifecycle, the read/write path,
// segment rollover, recovery, batch commit, and merge — the coordinator
// the public facade (pkg/barreldb) wraps. Engine owns its segments and
// index directly rather than delegating to separate storage/index/
// compaction packages behind interfaces. Recovery, batch commit, and
// merge each get their own file (recovery.go, batch.go, merge.go) rather
// than their own package: all three only make sense operating on one
// Engine's live segment map, index, and write mutex, the same reason an
// LSM engine keeps merge.go, segment.go, sstable.go and wal.go as files
// inside one package instead of splitting them behind interfaces.
package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/iamNilotpal/barreldb/internal/dirlock"
	"github.com/iamNilotpal/barreldb/internal/index"
	"github.com/iamNilotpal/barreldb/internal/ioutil"
	"github.com/iamNilotpal/barreldb/internal/record"
	"github.com/iamNilotpal/barreldb/internal/segment"
	"github.com/iamNilotpal/barreldb/pkg/dberrors"
	"github.com/iamNilotpal/barreldb/pkg/filesys"
	"github.com/iamNilotpal/barreldb/pkg/options"
)

// Stats mirrors the Database's Stat return shape.
type Stats struct {
	KeyCount         int
	SegmentCount     int
	OnDiskBytes      int64
	ReclaimableBytes int64
}

// Engine is the private, fully-capable database implementation. The
// public facade owns option defaulting and logger construction; Engine
// just takes a resolved options.Options and logger.
type Engine struct {
	mu  sync.Mutex
	log *zap.SugaredLogger
	opt options.Options

	lock *dirlock.Lock
	idx  *index.Index

	active    *segment.Segment
	immutable map[uint32]*segment.Segment
	maxID     uint32

	seqNo        uint64
	merging      bool
	reclaimSize  int64
	bytesWritten int64

	closed bool
}

// Open creates/locks the directory, cleans up any interrupted merge,
// discovers segments, runs recovery, and restores the seq-no counter.
func Open(opt options.Options, log *zap.SugaredLogger) (*Engine, error) {
	if err := filesys.CreateDir(opt.DirPath, 0755, true); err != nil {
		return nil, fmt.Errorf("engine: create data dir: %w", err)
	}

	lock, err := dirlock.Acquire(opt.DirPath, segment.LockFile)
	if err != nil {
		if err == dirlock.ErrInUse {
			return nil, dberrors.ErrDirectoryInUse
		}
		return nil, fmt.Errorf("engine: acquire directory lock: %w", err)
	}

	e := &Engine{
		log:       log,
		opt:       opt,
		lock:      lock,
		idx:       index.New(),
		immutable: make(map[uint32]*segment.Segment),
	}

	if err := cleanupInterruptedMerge(opt.DirPath); err != nil {
		lock.Release()
		return nil, fmt.Errorf("engine: clean up interrupted merge: %w", err)
	}

	if err := e.openSegments(); err != nil {
		lock.Release()
		return nil, err
	}

	if err := e.recover(); err != nil {
		lock.Release()
		return nil, err
	}

	if err := e.rebindActiveToBuffered(); err != nil {
		lock.Release()
		return nil, err
	}

	if seqNo := loadSeqNo(opt.DirPath); seqNo > e.seqNo {
		e.seqNo = seqNo
	}

	e.log.Infow("database opened",
		"dirPath", opt.DirPath, "segments", len(e.immutable)+1, "keys", e.idx.Size())
	return e, nil
}

// openSegments enumerates *.data files, loads all but the largest as
// immutable, and the largest (or a fresh id 1) as active.
func (e *Engine) openSegments() error {
	ids, err := segment.Discover(e.opt.DirPath)
	if err != nil {
		return fmt.Errorf("engine: discover segments: %w", err)
	}

	openOne := func(id uint32) (*segment.Segment, error) {
		backend, err := e.openBackendForRecovery(id)
		if err != nil {
			return nil, err
		}
		return segment.Open(id, backend)
	}

	if len(ids) == 0 {
		active, err := openOne(1)
		if err != nil {
			return err
		}
		e.active = active
		e.maxID = 1
		return nil
	}

	for _, id := range ids[:len(ids)-1] {
		seg, err := openOne(id)
		if err != nil {
			return err
		}
		e.immutable[id] = seg
	}

	activeID := ids[len(ids)-1]
	active, err := openOne(activeID)
	if err != nil {
		return err
	}
	e.active = active
	e.maxID = activeID
	return nil
}

// openBackendForRecovery picks the mmap or buffered backend for a
// freshly discovered segment. The active segment is rebound to buffered
// right after recovery via rebindActiveToBuffered; immutable segments
// opened with mmap keep that backend for all later reads.
func (e *Engine) openBackendForRecovery(id uint32) (ioutil.Backend, error) {
	path := segment.Path(e.opt.DirPath, id)
	if e.opt.MmapAtStartup {
		return ioutil.OpenMmap(path)
	}
	return ioutil.OpenBuffered(path)
}

// rebindActiveToBuffered re-opens the active segment's backend as
// buffered after an mmap-accelerated recovery scan.
func (e *Engine) rebindActiveToBuffered() error {
	if !e.opt.MmapAtStartup {
		return nil
	}
	if err := e.active.Close(); err != nil {
		return fmt.Errorf("engine: close mmap active segment: %w", err)
	}
	backend, err := ioutil.OpenBuffered(segment.Path(e.opt.DirPath, e.active.ID))
	if err != nil {
		return fmt.Errorf("engine: rebind active segment: %w", err)
	}
	active, err := segment.Open(e.active.ID, backend)
	if err != nil {
		return err
	}
	e.active = active
	return nil
}

// Put stores key -> value, overwriting any previous value for key.
func (e *Engine) Put(key, value []byte) error {
	if len(key) == 0 {
		return dberrors.ErrKeyEmpty
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return dberrors.ErrDatabaseClosed
	}

	pos, err := e.appendLocked(record.Record{Type: record.TypeNormal, Key: key, Value: value})
	if err != nil {
		return err
	}

	if prev, existed := e.idx.Put(key, pos); existed {
		e.reclaimSize += int64(prev.Size)
	}
	e.bytesWritten += int64(len(key) + len(value))
	return e.maybeSyncLocked()
}

// Get returns the current value for key, or (nil, nil) if key is absent.
func (e *Engine) Get(key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, dberrors.ErrKeyEmpty
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, dberrors.ErrDatabaseClosed
	}

	pos, ok := e.idx.Get(key)
	if !ok {
		return nil, nil
	}
	return e.readValueAt(pos), nil
}

// readValueAt resolves pos to its owning segment and reads the value
// there, returning nil if the record is absent, a tombstone, or fails to
// decode — a corruption event at a live index entry is reported as "not
// found" rather than an error; the next recovery restores consistency.
func (e *Engine) readValueAt(pos record.Position) []byte {
	seg := e.segmentFor(pos.SegmentID)
	if seg == nil {
		return nil
	}
	r, _, ok := seg.ReadRecordAt(pos.Offset)
	if !ok || r.Type == record.TypeDeleted {
		return nil
	}
	return r.Value
}

func (e *Engine) segmentFor(id uint32) *segment.Segment {
	if e.active != nil && e.active.ID == id {
		return e.active
	}
	return e.immutable[id]
}

// Delete removes key. A no-op if key is already absent.
func (e *Engine) Delete(key []byte) error {
	if len(key) == 0 {
		return dberrors.ErrKeyEmpty
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return dberrors.ErrDatabaseClosed
	}

	if _, ok := e.idx.Get(key); !ok {
		return nil
	}

	if _, err := e.appendLocked(record.Record{Type: record.TypeDeleted, Key: key}); err != nil {
		return err
	}

	if prev, existed := e.idx.Delete(key); existed {
		e.reclaimSize += int64(prev.Size)
	}
	e.bytesWritten += int64(len(key))
	return e.maybeSyncLocked()
}

// appendLocked checks whether the active segment needs to roll over
// before appending. Caller must hold e.mu.
func (e *Engine) appendLocked(r record.Record) (record.Position, error) {
	if e.active.Size()+int64(r.Size()) > e.opt.MaxFileSize {
		if err := e.rollover(); err != nil {
			return record.Position{}, err
		}
	}

	offset, size, err := e.active.Append(r)
	if err != nil {
		return record.Position{}, dberrors.NewStorageError(fmt.Errorf("%w: %v", dberrors.ErrIO, err), dberrors.ErrorCodeIO, "append record failed").
			WithSegmentID(e.active.ID)
	}
	return record.Position{SegmentID: e.active.ID, Offset: offset, Size: size}, nil
}

// rollover syncs and seals the active segment, then starts a fresh one
// at maxID+1. Caller must hold e.mu.
func (e *Engine) rollover() error {
	if err := e.active.Sync(); err != nil {
		return dberrors.NewStorageError(fmt.Errorf("%w: %v", dberrors.ErrIO, err), dberrors.ErrorCodeIO, "sync before rollover failed").
			WithSegmentID(e.active.ID)
	}

	e.immutable[e.active.ID] = e.active
	e.maxID++

	path := segment.Path(e.opt.DirPath, e.maxID)
	backend, err := ioutil.OpenBuffered(path)
	if err != nil {
		return dberrors.NewStorageError(fmt.Errorf("%w: %v", dberrors.ErrIO, err), dberrors.ErrorCodeIO, "open new active segment failed").
			WithPath(path).WithSegmentID(e.maxID)
	}
	seg, err := segment.Open(e.maxID, backend)
	if err != nil {
		return err
	}
	e.active = seg
	return nil
}

// maybeSyncLocked applies the configured sync policy: always-sync, or
// threshold-based sync on cumulative bytes written. Caller must hold e.mu.
func (e *Engine) maybeSyncLocked() error {
	if e.opt.SyncWrites || (e.opt.BytesPerSync > 0 && e.bytesWritten >= e.opt.BytesPerSync) {
		if err := e.active.Sync(); err != nil {
			return fmt.Errorf("engine: sync: %w", err)
		}
		e.bytesWritten = 0
	}
	return nil
}

// Stat returns point-in-time counters for the database.
func (e *Engine) Stat() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	var onDisk int64
	if e.active != nil {
		onDisk += e.active.Size()
	}
	for _, seg := range e.immutable {
		onDisk += seg.Size()
	}

	return Stats{
		KeyCount:         e.idx.Size(),
		SegmentCount:     len(e.immutable) + 1,
		OnDiskBytes:      onDisk,
		ReclaimableBytes: e.reclaimSize,
	}
}

// ListKeys returns every live key in lexicographic order.
func (e *Engine) ListKeys() [][]byte {
	e.mu.Lock()
	it := index.NewIterator(e.idx, false)
	e.mu.Unlock()

	var keys [][]byte
	for it.Rewind(); it.Valid(); it.Next() {
		keys = append(keys, it.Key())
	}
	return keys
}

// FoldFunc is called once per live (key, value) during Fold. Returning
// false stops the walk early.
type FoldFunc func(key, value []byte) bool

// Fold walks every live key in forward order, resolving each value
// through the normal read path.
func (e *Engine) Fold(fn FoldFunc) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return dberrors.ErrDatabaseClosed
	}
	it := index.NewIterator(e.idx, false)
	e.mu.Unlock()

	for it.Rewind(); it.Valid(); it.Next() {
		key := it.Key()
		e.mu.Lock()
		value := e.readValueAt(it.Value())
		closed := e.closed
		e.mu.Unlock()
		if closed {
			return dberrors.ErrDatabaseClosed
		}
		if !fn(key, value) {
			break
		}
	}
	return nil
}

// Backup copies every file under the directory except the lock file,
// preserving relative paths. File copies run concurrently, one goroutine
// per file, coordinated with golang.org/x/sync/errgroup: Backup returns
// the first copy error once every copy has finished. The other copies are
// not cancelled, so a failed Backup can leave some files in destination.
func (e *Engine) Backup(destination string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return dberrors.ErrDatabaseClosed
	}
	return backupDir(e.opt.DirPath, destination)
}

// Close persists seq_no, syncs the active segment, closes segments, and
// releases the lock. Idempotent.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true

	var err error
	if saveErr := saveSeqNo(e.opt.DirPath, e.seqNo); saveErr != nil {
		err = multierr.Append(err, fmt.Errorf("engine: save seq-no: %w", saveErr))
	}
	if e.active != nil {
		err = multierr.Append(err, e.active.Sync())
		err = multierr.Append(err, e.active.Close())
	}
	for _, seg := range e.immutable {
		err = multierr.Append(err, seg.Close())
	}
	e.idx.Close()
	err = multierr.Append(err, e.lock.Release())

	e.log.Infow("database closed")
	return err
}

// DirPath returns the database directory.
func (e *Engine) DirPath() string {
	return e.opt.DirPath
}

// seqNoKey is the record key the transaction counter is stored under.
const seqNoKey = "seq_no"

// seqNoPath joins dir with the reserved transaction-counter filename.
func seqNoPath(dir string) string {
	return filepath.Join(dir, segment.SeqNoFile)
}

// loadSeqNo reads the persisted transaction counter, defaulting to 0 if
// the file is absent, its record fails to decode, or its CRC doesn't
// match (a fresh database, or one whose counter was never enabled, or a
// partial write from a crash before the last Close completed).
func loadSeqNo(dir string) uint64 {
	buf, err := os.ReadFile(seqNoPath(dir))
	if err != nil {
		return 0
	}
	r, err := record.Decode(buf)
	if err != nil {
		return 0
	}
	seqNo, err := strconv.ParseUint(string(r.Value), 10, 64)
	if err != nil {
		return 0
	}
	return seqNo
}

// saveSeqNo persists the transaction counter as a CRC-framed NORMAL
// record, the same encoding every other value this module writes uses,
// so a torn write at Close is detected and discarded on the next load
// rather than silently resuming from a truncated counter.
func saveSeqNo(dir string, seqNo uint64) error {
	buf, err := record.Encode(record.Record{
		Type:  record.TypeNormal,
		Key:   []byte(seqNoKey),
		Value: []byte(strconv.FormatUint(seqNo, 10)),
	})
	if err != nil {
		return err
	}
	return os.WriteFile(seqNoPath(dir), buf, 0644)
}
