package segment

import (
	"errors"

	"github.com/iamNilotpal/barreldb/internal/ioutil"
	"github.com/iamNilotpal/barreldb/internal/record"
)

// ErrSegmentClosed is returned by any operation on a closed Segment.
var ErrSegmentClosed = errors.New("segment: operation failed, segment is closed")

// minHeaderRead is the number of bytes ReadRecordAt asks the backend for
// before it knows the record's true size — the fixed header.
const minHeaderRead = 13

// Segment wraps one ioutil.Backend and tracks the write offset, which
// always equals the backend's logical size since Segment is the only
// writer. One Segment is active (appendable) at a time per Database; the
// rest are immutable and only ever read.
type Segment struct {
	ID      uint32
	backend ioutil.Backend
	offset  int64
	closed  bool
}

// Open wraps backend as segment id, priming the write offset from the
// backend's current size — the position the next Append will land at.
func Open(id uint32, backend ioutil.Backend) (*Segment, error) {
	size, err := backend.Size()
	if err != nil {
		return nil, err
	}
	return &Segment{ID: id, backend: backend, offset: size}, nil
}

// Append encodes r and writes it at the current end of the segment,
// returning the offset it was written at and its encoded size. Not safe
// for concurrent use; the Database serializes all appends under its
// write mutex.
func (s *Segment) Append(r record.Record) (offset uint64, size uint32, err error) {
	if s.closed {
		return 0, 0, ErrSegmentClosed
	}

	buf, err := record.Encode(r)
	if err != nil {
		return 0, 0, err
	}

	n, err := s.backend.Write(buf)
	if err != nil {
		return 0, 0, err
	}

	offset = uint64(s.offset)
	s.offset += int64(n)
	return offset, uint32(n), nil
}

// ReadRecordAt reads and decodes the record at offset. Any out-of-range
// read, short read, malformed header, or CRC mismatch returns (Record{},
// 0, false), a uniform "not a record" signal meaning the caller has
// reached the end of valid data in this segment.
func (s *Segment) ReadRecordAt(offset uint64) (record.Record, uint32, bool) {
	if s.closed {
		return record.Record{}, 0, false
	}

	header := make([]byte, minHeaderRead)
	if _, err := s.backend.ReadAt(header, int64(offset)); err != nil {
		return record.Record{}, 0, false
	}

	_, keyLen, valueLen, err := record.DecodeHeader(header)
	if err != nil {
		return record.Record{}, 0, false
	}

	total := minHeaderRead + int(keyLen) + int(valueLen)
	buf := make([]byte, total)
	if _, err := s.backend.ReadAt(buf, int64(offset)); err != nil {
		return record.Record{}, 0, false
	}

	r, err := record.Decode(buf)
	if err != nil {
		return record.Record{}, 0, false
	}
	return r, uint32(total), true
}

// ScanFunc is called once per (offset, record, size) found while
// scanning. Returning false stops the scan early.
type ScanFunc func(offset uint64, r record.Record, size uint32) bool

// Scan walks the segment from offset 0, calling fn for every valid
// record until ReadRecordAt first signals end-of-data or fn returns
// false.
func (s *Segment) Scan(fn ScanFunc) {
	var offset uint64
	for {
		r, size, ok := s.ReadRecordAt(offset)
		if !ok {
			return
		}
		if !fn(offset, r, size) {
			return
		}
		offset += uint64(size)
	}
}

// Sync forces the segment's buffered writes to stable storage.
func (s *Segment) Sync() error {
	if s.closed {
		return ErrSegmentClosed
	}
	return s.backend.Sync()
}

// Size returns the segment's current length in bytes.
func (s *Segment) Size() int64 {
	return s.offset
}

// Close releases the segment's backend. Idempotent.
func (s *Segment) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.backend.Close()
}
