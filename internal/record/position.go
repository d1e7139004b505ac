package record

import (
	"encoding/binary"
	"fmt"
)

// positionSize is the fixed encoded size of a Position: u32 segment id +
// u64 offset + u32 size.
const positionSize = 16

// Position locates a record's byte span inside a segment file. It is the
// value half of every in-memory index entry, and the encoded form is what
// a hint file's record values hold.
type Position struct {
	SegmentID uint32
	Offset    uint64
	Size      uint32
}

// EncodePosition serializes p as 16 little-endian bytes, chosen for
// portability across architectures over a native-endian layout.
func EncodePosition(p Position) []byte {
	buf := make([]byte, positionSize)
	binary.LittleEndian.PutUint32(buf[0:4], p.SegmentID)
	binary.LittleEndian.PutUint64(buf[4:12], p.Offset)
	binary.LittleEndian.PutUint32(buf[12:16], p.Size)
	return buf
}

// DecodePosition parses a Position out of its 16-byte little-endian
// encoding.
func DecodePosition(buf []byte) (Position, error) {
	if len(buf) < positionSize {
		return Position{}, fmt.Errorf("record: short position (%d bytes)", len(buf))
	}
	return Position{
		SegmentID: binary.LittleEndian.Uint32(buf[0:4]),
		Offset:    binary.LittleEndian.Uint64(buf[4:12]),
		Size:      binary.LittleEndian.Uint32(buf[12:16]),
	}, nil
}
