package index

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/iamNilotpal/barreldb/internal/record"
)

func TestPutGetDelete(t *testing.T) {
	idx := New()

	if _, ok := idx.Get([]byte("a")); ok {
		t.Fatal("Get on empty index found something")
	}

	prev, existed := idx.Put([]byte("a"), record.Position{SegmentID: 1, Offset: 0, Size: 10})
	if existed {
		t.Fatalf("Put reported an existing previous position: %+v", prev)
	}

	got, ok := idx.Get([]byte("a"))
	if !ok {
		t.Fatal("Get after Put found nothing")
	}
	want := record.Position{SegmentID: 1, Offset: 0, Size: 10}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Get mismatch (-want +got):\n%s", diff)
	}

	prev, existed = idx.Put([]byte("a"), record.Position{SegmentID: 2, Offset: 20, Size: 5})
	if !existed || prev != want {
		t.Fatalf("Put overwrite: existed=%v prev=%+v, want true %+v", existed, prev, want)
	}

	removed, ok := idx.Delete([]byte("a"))
	if !ok || removed.SegmentID != 2 {
		t.Fatalf("Delete = (%+v, %v)", removed, ok)
	}
	if _, ok := idx.Get([]byte("a")); ok {
		t.Fatal("Get after Delete found something")
	}
	if _, ok := idx.Delete([]byte("a")); ok {
		t.Fatal("Delete on an absent key reported success")
	}
}

func TestSize(t *testing.T) {
	idx := New()
	for i := 0; i < 10; i++ {
		idx.Put([]byte(fmt.Sprintf("k%02d", i)), record.Position{SegmentID: 1, Offset: uint64(i), Size: 1})
	}
	if idx.Size() != 10 {
		t.Fatalf("Size() = %d, want 10", idx.Size())
	}
	idx.Delete([]byte("k00"))
	if idx.Size() != 9 {
		t.Fatalf("Size() after delete = %d, want 9", idx.Size())
	}
}

func TestIteratorOrder(t *testing.T) {
	idx := New()
	keys := []string{"c", "a", "e", "b", "d"}
	for _, k := range keys {
		idx.Put([]byte(k), record.Position{SegmentID: 1})
	}

	forward := NewIterator(idx, false)
	var gotForward []string
	for forward.Rewind(); forward.Valid(); forward.Next() {
		gotForward = append(gotForward, string(forward.Key()))
	}
	wantForward := []string{"a", "b", "c", "d", "e"}
	if diff := cmp.Diff(wantForward, gotForward); diff != "" {
		t.Errorf("forward order (-want +got):\n%s", diff)
	}

	reverse := NewIterator(idx, true)
	var gotReverse []string
	for reverse.Rewind(); reverse.Valid(); reverse.Next() {
		gotReverse = append(gotReverse, string(reverse.Key()))
	}
	wantReverse := []string{"e", "d", "c", "b", "a"}
	if diff := cmp.Diff(wantReverse, gotReverse); diff != "" {
		t.Errorf("reverse order (-want +got):\n%s", diff)
	}
}

func TestIteratorSeek(t *testing.T) {
	idx := New()
	for _, k := range []string{"a", "c", "e", "g"} {
		idx.Put([]byte(k), record.Position{SegmentID: 1})
	}

	fwd := NewIterator(idx, false)
	fwd.Seek([]byte("d"))
	if !fwd.Valid() || string(fwd.Key()) != "e" {
		t.Fatalf("forward Seek(d) landed on %q", fwd.Key())
	}

	rev := NewIterator(idx, true)
	rev.Seek([]byte("d"))
	if !rev.Valid() || string(rev.Key()) != "c" {
		t.Fatalf("reverse Seek(d) landed on %q", rev.Key())
	}
}

func TestIteratorSnapshotStability(t *testing.T) {
	idx := New()
	for _, k := range []string{"a", "b", "c"} {
		idx.Put([]byte(k), record.Position{SegmentID: 1})
	}

	it := NewIterator(idx, false)
	idx.Put([]byte("b2"), record.Position{SegmentID: 1})
	idx.Delete([]byte("a"))

	var got []string
	for it.Rewind(); it.Valid(); it.Next() {
		got = append(got, string(it.Key()))
	}
	want := []string{"a", "b", "c"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("snapshot stability (-want +got):\n%s", diff)
	}
}

func TestReplace(t *testing.T) {
	idx := New()
	idx.Put([]byte("old"), record.Position{SegmentID: 9})

	idx.Replace(map[string]record.Position{
		"a": {SegmentID: 1, Offset: 0, Size: 1},
		"b": {SegmentID: 1, Offset: 1, Size: 1},
	})

	if _, ok := idx.Get([]byte("old")); ok {
		t.Fatal("Replace left a stale key behind")
	}
	if idx.Size() != 2 {
		t.Fatalf("Size() after Replace = %d, want 2", idx.Size())
	}
}
