package ioutil

import (
	"path/filepath"
	"testing"
)

func testBackend(t *testing.T, open func(path string) (Backend, error)) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "000000001.data")

	b, err := open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer b.Close()

	if size, err := b.Size(); err != nil || size != 0 {
		t.Fatalf("Size() on fresh file = (%d, %v), want (0, nil)", size, err)
	}

	n, err := b.Write([]byte("hello"))
	if err != nil || n != 5 {
		t.Fatalf("Write = (%d, %v), want (5, nil)", n, err)
	}
	n, err = b.Write([]byte("world"))
	if err != nil || n != 5 {
		t.Fatalf("Write = (%d, %v), want (5, nil)", n, err)
	}

	size, err := b.Size()
	if err != nil || size != 10 {
		t.Fatalf("Size() = (%d, %v), want (10, nil)", size, err)
	}

	got := make([]byte, 5)
	if _, err := b.ReadAt(got, 5); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if string(got) != "world" {
		t.Fatalf("ReadAt(5) = %q, want %q", got, "world")
	}

	if err := b.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}
}

func TestBufferedBackend(t *testing.T) {
	testBackend(t, func(path string) (Backend, error) { return OpenBuffered(path) })
}

func TestMmapBackend(t *testing.T) {
	testBackend(t, func(path string) (Backend, error) { return OpenMmap(path) })
}

func TestBufferedBackendEmptyFileTolerated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "000000001.data")
	b, err := OpenBuffered(path)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()
	if size, err := b.Size(); err != nil || size != 0 {
		t.Fatalf("Size() = (%d, %v), want (0, nil)", size, err)
	}
}

func TestMmapBackendEmptyFileTolerated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "000000001.data")
	m, err := OpenMmap(path)
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()
	if size, err := m.Size(); err != nil || size != 0 {
		t.Fatalf("Size() = (%d, %v), want (0, nil)", size, err)
	}
}
