// Package ioutil provides the two interchangeable segment I/O backends
// behind a single Backend contract: a buffered os.File-backed
// implementation for the normal append/random-read path, and a
// memory-mapped implementation used optionally to accelerate the
// recovery scan.
package ioutil

// Backend is the contract both segment I/O implementations satisfy.
// internal/segment drives one Backend per segment file; it never knows
// which concrete implementation it's holding.
type Backend interface {
	// ReadAt reads len(buf) bytes starting at offset, exactly like
	// io.ReaderAt: it returns fewer bytes than requested (with an error)
	// only at end of file.
	ReadAt(buf []byte, offset int64) (int, error)

	// Write appends buf at the current end of the backend and returns
	// the number of bytes written.
	Write(buf []byte) (int, error)

	// Sync forces any buffered writes to stable storage.
	Sync() error

	// Size returns the backend's current length in bytes.
	Size() (int64, error)

	// Close releases the backend's resources. Safe to call once.
	Close() error
}
