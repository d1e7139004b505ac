package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/iamNilotpal/barreldb/pkg/dberrors"
	"github.com/iamNilotpal/barreldb/pkg/logger"
	"github.com/iamNilotpal/barreldb/pkg/options"
)

func testOptions(t *testing.T, mutate func(*options.Options)) options.Options {
	t.Helper()
	opt := options.NewDefaultOptions()
	opt.DirPath = t.TempDir()
	if mutate != nil {
		mutate(&opt)
	}
	return opt
}

func openTestEngine(t *testing.T, opt options.Options) *Engine {
	t.Helper()
	e, err := Open(opt, logger.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

// S1: interleaved puts/deletes survive a close+reopen.
func TestPutGetDeleteAcrossReopen(t *testing.T) {
	opt := testOptions(t, nil)
	e := openTestEngine(t, opt)

	mustPut(t, e, "a", "1")
	mustPut(t, e, "b", "2")
	mustPut(t, e, "a", "3")
	if err := e.Delete([]byte("b")); err != nil {
		t.Fatal(err)
	}
	if err := e.Close(); err != nil {
		t.Fatal(err)
	}

	e2, err := Open(opt, logger.Nop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer e2.Close()

	v, err := e2.Get([]byte("a"))
	if err != nil || string(v) != "3" {
		t.Fatalf("Get(a) = (%q, %v), want (3, nil)", v, err)
	}
	v, err = e2.Get([]byte("b"))
	if err != nil || v != nil {
		t.Fatalf("Get(b) = (%q, %v), want (nil, nil)", v, err)
	}

	keys := e2.ListKeys()
	if len(keys) != 1 || string(keys[0]) != "a" {
		t.Fatalf("ListKeys = %v, want [a]", keysStrings(keys))
	}
}

// S2: a small max_file_size forces rollover across many segments.
func TestRolloverProducesMultipleSegments(t *testing.T) {
	opt := testOptions(t, func(o *options.Options) { options.WithMaxFileSize(64)(o) })
	e := openTestEngine(t, opt)

	for i := 0; i < 100; i++ {
		key := fmt.Sprintf("k%03d", i)
		if err := e.Put([]byte(key), []byte("0123456789012345678")); err != nil {
			t.Fatalf("Put(%s): %v", key, err)
		}
	}

	stat := e.Stat()
	if stat.SegmentCount < 2 {
		t.Fatalf("SegmentCount = %d, want >= 2", stat.SegmentCount)
	}
	for i := 0; i < 100; i++ {
		key := fmt.Sprintf("k%03d", i)
		v, err := e.Get([]byte(key))
		if err != nil || string(v) != "0123456789012345678" {
			t.Fatalf("Get(%s) = (%q, %v)", key, v, err)
		}
	}
}

// S3: merge compacts down to segment 1 with reclaimable bytes at 0.
func TestMergeCompactsAndResetsReclaim(t *testing.T) {
	opt := testOptions(t, func(o *options.Options) { o.MaxFileSize = 1024 })
	e := openTestEngine(t, opt)

	for i := 0; i < 100; i++ {
		key := fmt.Sprintf("k%02d", i)
		mustPut(t, e, key, fmt.Sprintf("v%02d", i))
	}
	for i := 0; i < 100; i += 2 {
		key := fmt.Sprintf("k%02d", i)
		if err := e.Delete([]byte(key)); err != nil {
			t.Fatal(err)
		}
	}

	if e.Stat().ReclaimableBytes == 0 {
		t.Fatal("expected reclaimable bytes before merge")
	}

	if err := e.Merge(); err != nil {
		t.Fatalf("Merge: %v", err)
	}

	stat := e.Stat()
	if stat.ReclaimableBytes != 0 {
		t.Fatalf("ReclaimableBytes after merge = %d, want 0", stat.ReclaimableBytes)
	}
	if stat.SegmentCount != 1 {
		t.Fatalf("SegmentCount after merge = %d, want 1", stat.SegmentCount)
	}

	for i := 1; i < 100; i += 2 {
		key := fmt.Sprintf("k%02d", i)
		v, err := e.Get([]byte(key))
		if err != nil || string(v) != fmt.Sprintf("v%02d", i) {
			t.Fatalf("Get(%s) after merge = (%q, %v)", key, v, err)
		}
	}
	for i := 0; i < 100; i += 2 {
		key := fmt.Sprintf("k%02d", i)
		v, err := e.Get([]byte(key))
		if err != nil || v != nil {
			t.Fatalf("Get(%s) after merge = (%q, %v), want (nil, nil)", key, v, err)
		}
	}
}

// S4: a batch's writes are invisible before Commit and all visible after
// it. The truncated-TXN_FINISHED half of the scenario is
// TestBatchCrashDuringCommitDropsWholeBatch.
func TestBatchAtomicity(t *testing.T) {
	opt := testOptions(t, nil)
	e := openTestEngine(t, opt)

	b := e.NewBatch()
	mustBatchPut(t, b, "x", "1")
	mustBatchPut(t, b, "y", "2")
	if err := b.Delete([]byte("z")); err != nil {
		t.Fatal(err)
	}

	if v, _ := e.Get([]byte("x")); v != nil {
		t.Fatal("Get(x) visible before commit")
	}
	if err := b.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if v, _ := e.Get([]byte("x")); string(v) != "1" {
		t.Fatalf("Get(x) after commit = %q, want 1", v)
	}
	if v, _ := e.Get([]byte("y")); string(v) != "2" {
		t.Fatalf("Get(y) after commit = %q, want 2", v)
	}
	if err := e.Close(); err != nil {
		t.Fatal(err)
	}
}

// TestBatchCrashDuringCommitDropsWholeBatch simulates a crash mid-commit:
// the active segment is truncated to just before the TXN_FINISHED
// marker before reopening, so recovery's staging buffer for that
// transaction is discarded in full.
func TestBatchCrashDuringCommitDropsWholeBatch(t *testing.T) {
	opt := testOptions(t, nil)
	e := openTestEngine(t, opt)

	b := e.NewBatch()
	mustBatchPut(t, b, "x", "1")
	mustBatchPut(t, b, "y", "2")
	if err := b.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	activeID := e.active.ID
	if err := e.Close(); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(opt.DirPath, fmt.Sprintf("%09d.data", activeID))
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	// TXN_FINISHED's record is the last one written; truncating by its
	// encoded size (13-byte header + 1-byte ascii id) drops just it.
	if err := os.Truncate(path, info.Size()-14); err != nil {
		t.Fatal(err)
	}

	e2, err := Open(opt, logger.Nop())
	if err != nil {
		t.Fatalf("reopen after truncation: %v", err)
	}
	defer e2.Close()

	if v, _ := e2.Get([]byte("x")); v != nil {
		t.Fatalf("Get(x) after crash reopen = %q, want nil", v)
	}
	if v, _ := e2.Get([]byte("y")); v != nil {
		t.Fatalf("Get(y) after crash reopen = %q, want nil", v)
	}
}

// TestBatchDeleteReclaimMatchesSingleDelete checks that Batch.Commit's
// delete-path reclaim accounting is identical to Engine.Delete's: only
// the prior live position's size is reclaimed, never the tombstone's own
// size too (that extra accounting is a recovery-replay-only rule).
func TestBatchDeleteReclaimMatchesSingleDelete(t *testing.T) {
	opt1 := testOptions(t, nil)
	e1 := openTestEngine(t, opt1)
	mustPut(t, e1, "a", "0123456789")
	if err := e1.Delete([]byte("a")); err != nil {
		t.Fatal(err)
	}
	wantReclaim := e1.Stat().ReclaimableBytes

	opt2 := testOptions(t, nil)
	e2 := openTestEngine(t, opt2)
	mustPut(t, e2, "a", "0123456789")
	b := e2.NewBatch()
	if err := b.Delete([]byte("a")); err != nil {
		t.Fatal(err)
	}
	if err := b.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	gotReclaim := e2.Stat().ReclaimableBytes

	if gotReclaim != wantReclaim {
		t.Fatalf("batch-delete ReclaimableBytes = %d, want %d (single-delete)", gotReclaim, wantReclaim)
	}
}

// S5: directory lock contention.
func TestOpenTwiceFailsWithDirectoryInUse(t *testing.T) {
	opt := testOptions(t, nil)
	e := openTestEngine(t, opt)

	_, err := Open(opt, logger.Nop())
	if err != dberrors.ErrDirectoryInUse {
		t.Fatalf("second Open = %v, want ErrDirectoryInUse", err)
	}

	if err := e.Close(); err != nil {
		t.Fatal(err)
	}
	e2, err := Open(opt, logger.Nop())
	if err != nil {
		t.Fatalf("Open after close: %v", err)
	}
	defer e2.Close()
}

// S6: an iterator's key set is fixed at creation time.
func TestIteratorSnapshotStability(t *testing.T) {
	opt := testOptions(t, nil)
	e := openTestEngine(t, opt)

	mustPut(t, e, "a", "1")
	mustPut(t, e, "b", "2")
	mustPut(t, e, "c", "3")

	it := e.NewIterator(false)
	mustPut(t, e, "b2", "99")

	var got []string
	for it.Rewind(); it.Valid(); it.Next() {
		got = append(got, string(it.Key()))
	}
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("iterator keys = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("iterator keys = %v, want %v", got, want)
		}
	}
}

func TestFoldVisitsLiveKeysInOrder(t *testing.T) {
	opt := testOptions(t, nil)
	e := openTestEngine(t, opt)

	mustPut(t, e, "b", "2")
	mustPut(t, e, "a", "1")
	mustPut(t, e, "c", "3")
	if err := e.Delete([]byte("c")); err != nil {
		t.Fatal(err)
	}

	var got []string
	if err := e.Fold(func(key, value []byte) bool {
		got = append(got, fmt.Sprintf("%s=%s", key, value))
		return true
	}); err != nil {
		t.Fatal(err)
	}

	want := []string{"a=1", "b=2"}
	if len(got) != len(want) {
		t.Fatalf("Fold = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Fold = %v, want %v", got, want)
		}
	}
}

func TestEmptyKeyRejected(t *testing.T) {
	opt := testOptions(t, nil)
	e := openTestEngine(t, opt)

	if err := e.Put(nil, []byte("v")); err != dberrors.ErrKeyEmpty {
		t.Fatalf("Put(nil) = %v, want ErrKeyEmpty", err)
	}
	if _, err := e.Get(nil); err != dberrors.ErrKeyEmpty {
		t.Fatalf("Get(nil) = %v, want ErrKeyEmpty", err)
	}
	if err := e.Delete(nil); err != dberrors.ErrKeyEmpty {
		t.Fatalf("Delete(nil) = %v, want ErrKeyEmpty", err)
	}
}

func TestClosedEngineRejectsOperations(t *testing.T) {
	opt := testOptions(t, nil)
	e := openTestEngine(t, opt)
	if err := e.Close(); err != nil {
		t.Fatal(err)
	}
	if err := e.Put([]byte("a"), []byte("1")); err != dberrors.ErrDatabaseClosed {
		t.Fatalf("Put after Close = %v, want ErrDatabaseClosed", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("second Close = %v, want nil", err)
	}
}

func mustPut(t *testing.T, e *Engine, key, value string) {
	t.Helper()
	if err := e.Put([]byte(key), []byte(value)); err != nil {
		t.Fatalf("Put(%s): %v", key, err)
	}
}

func mustBatchPut(t *testing.T, b *Batch, key, value string) {
	t.Helper()
	if err := b.Put([]byte(key), []byte(value)); err != nil {
		t.Fatalf("Batch.Put(%s): %v", key, err)
	}
}

func keysStrings(keys [][]byte) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = string(k)
	}
	return out
}
