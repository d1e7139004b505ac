package engine

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/iamNilotpal/barreldb/internal/index"
	"github.com/iamNilotpal/barreldb/internal/ioutil"
	"github.com/iamNilotpal/barreldb/internal/record"
	"github.com/iamNilotpal/barreldb/internal/segment"
	"github.com/iamNilotpal/barreldb/pkg/dberrors"
	"github.com/iamNilotpal/barreldb/pkg/filesys"
)

// mergeFinishedKey is the sentinel record key written to
// merge-finished.data at the end of a successful merge.
const mergeFinishedKey = "merge_finished"

// Merge snapshots live keys, rewrites them into a fresh segment 1,
// swaps it in, and resets reclaimable bytes.
//
// Merge is a structural change like rollover, so the whole operation —
// snapshot, rewrite, swap-in — runs under e.mu rather than releasing it
// mid-way: releasing it around the rewrite would let concurrent writers
// land records in a segment this call is about to delete, losing them.
// A second Merge call made while one is running therefore blocks on e.mu
// until the first has finished, then performs its own full merge. The
// `merging` flag is set and cleared only while e.mu is held, so no other
// call ever observes it set.
func (e *Engine) Merge() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return dberrors.ErrDatabaseClosed
	}
	if e.merging {
		return nil
	}
	e.merging = true
	defer func() { e.merging = false }()

	it := index.NewIterator(e.idx, false)
	entries := make([]struct {
		key   []byte
		value []byte
	}, 0, e.idx.Size())
	for it.Rewind(); it.Valid(); it.Next() {
		value := e.readValueAt(it.Value())
		entries = append(entries, struct {
			key   []byte
			value []byte
		}{key: it.Key(), value: value})
	}

	newPositions, err := writeMergedSegment(e.opt.DirPath, entries)
	if err != nil {
		return fmt.Errorf("engine: merge: %w", err)
	}

	if err := e.swapInMergedSegment(e.opt.DirPath, newPositions); err != nil {
		return fmt.Errorf("engine: merge: swap in: %w", err)
	}

	e.reclaimSize = 0
	e.log.Infow("merge complete", "keys", len(newPositions))
	return nil
}

// writeMergedSegment writes every live (key, value) as a NORMAL record
// into merge.data, and a matching (key -> position) record into a
// scratch hint file, fsyncing both before returning. Called by Merge
// while e.mu is held for the whole operation; see Merge's doc comment
// for why the lock isn't released for this step.
func writeMergedSegment(dir string, entries []struct {
	key   []byte
	value []byte
}) (map[string]record.Position, error) {
	scratchPath := filepath.Join(dir, segment.MergeScratchFile)
	backend, err := ioutil.OpenBuffered(scratchPath)
	if err != nil {
		return nil, err
	}
	scratch, err := segment.Open(1, backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	hintPath := filepath.Join(dir, segment.HintFile+".merge")
	hintBackend, err := ioutil.OpenBuffered(hintPath)
	if err != nil {
		scratch.Close()
		return nil, err
	}
	hint, err := segment.Open(0, hintBackend)
	if err != nil {
		scratch.Close()
		hintBackend.Close()
		return nil, err
	}

	positions := make(map[string]record.Position, len(entries))
	for _, kv := range entries {
		offset, size, err := scratch.Append(record.Record{Type: record.TypeNormal, Key: kv.key, Value: kv.value})
		if err != nil {
			scratch.Close()
			hint.Close()
			return nil, err
		}
		pos := record.Position{SegmentID: 1, Offset: offset, Size: size}
		positions[string(kv.key)] = pos

		if _, _, err := hint.Append(record.Record{Type: record.TypeNormal, Key: kv.key, Value: record.EncodePosition(pos)}); err != nil {
			scratch.Close()
			hint.Close()
			return nil, err
		}
	}

	if err := scratch.Sync(); err != nil {
		scratch.Close()
		hint.Close()
		return nil, err
	}
	if err := hint.Sync(); err != nil {
		scratch.Close()
		hint.Close()
		return nil, err
	}
	if err := scratch.Close(); err != nil {
		hint.Close()
		return nil, err
	}
	if err := hint.Close(); err != nil {
		return nil, err
	}

	return positions, nil
}

// swapInMergedSegment closes and removes every existing segment,
// promotes merge.data to 000000001.data, replaces the index, and writes
// the merge-finished marker. Caller holds e.mu.
func (e *Engine) swapInMergedSegment(dir string, newPositions map[string]record.Position) error {
	if err := e.active.Close(); err != nil {
		return err
	}
	if err := os.Remove(segment.Path(dir, e.active.ID)); err != nil && !os.IsNotExist(err) {
		return err
	}
	for id, seg := range e.immutable {
		if err := seg.Close(); err != nil {
			return err
		}
		if err := os.Remove(segment.Path(dir, id)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	e.immutable = make(map[uint32]*segment.Segment)

	scratchPath := filepath.Join(dir, segment.MergeScratchFile)
	finalPath := segment.Path(dir, 1)
	if err := os.Rename(scratchPath, finalPath); err != nil {
		return fmt.Errorf("promote merge scratch file: %w", err)
	}

	backend, err := ioutil.OpenBuffered(finalPath)
	if err != nil {
		return err
	}
	active, err := segment.Open(1, backend)
	if err != nil {
		return err
	}
	e.active = active
	e.maxID = 1

	e.idx.Replace(newPositions)

	hintScratch := filepath.Join(dir, segment.HintFile+".merge")
	if err := os.Rename(hintScratch, filepath.Join(dir, segment.HintFile)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("promote hint file: %w", err)
	}

	return writeMergeFinishedMarker(dir)
}

// writeMergeFinishedMarker writes a single NORMAL record with key
// "merge_finished" and empty value, flushed and fsynced.
func writeMergeFinishedMarker(dir string) error {
	path := filepath.Join(dir, segment.MergeFinishedFile)
	backend, err := ioutil.OpenBuffered(path)
	if err != nil {
		return err
	}
	seg, err := segment.Open(0, backend)
	if err != nil {
		backend.Close()
		return err
	}
	if _, _, err := seg.Append(record.Record{Type: record.TypeNormal, Key: []byte(mergeFinishedKey)}); err != nil {
		seg.Close()
		return err
	}
	if err := seg.Sync(); err != nil {
		seg.Close()
		return err
	}
	return seg.Close()
}

// cleanupInterruptedMerge handles reopen-time cleanup: if
// merge-finished.data exists, any segment with id > 1 is defensively
// removed and the marker deleted; otherwise a merge that was interrupted
// before completion is discarded entirely, leaving the pre-merge segments
// for normal recovery to replay. Runs before segment discovery, with only
// the directory lock held.
func cleanupInterruptedMerge(dir string) error {
	markerPath := filepath.Join(dir, segment.MergeFinishedFile)
	markerExists, err := filesys.Exists(markerPath)
	if err != nil {
		return err
	}

	if markerExists {
		ids, err := segment.Discover(dir)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if id > 1 {
				if err := os.Remove(segment.Path(dir, id)); err != nil && !os.IsNotExist(err) {
					return err
				}
			}
		}
		if err := os.Remove(markerPath); err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	// A merge interrupted before merge-finished.data was written leaves
	// a stale merge.data scratch file and possibly a stale hint-index.merge
	// behind; both are safe to discard since the pre-merge segments are
	// still intact and untouched.
	for _, stale := range []string{segment.MergeScratchFile, segment.HintFile + ".merge"} {
		path := filepath.Join(dir, stale)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	return nil
}
