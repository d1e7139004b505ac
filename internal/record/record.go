// Package record implements the on-disk LogRecord format: a fixed 13-byte
// CRC-framed header followed by key and value bytes, plus the compact
// Position codec used inside hint-file records.
//
// This is the wire format every segment file is made of — see
// internal/segment for the file that owns writing/reading these at an
// offset, and internal/engine (recovery.go) for how a sequence of records rebuilds
// the in-memory index.
package record

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

// Type identifies the kind of LogRecord. Transaction markers carry no
// payload of their own; their Key holds the ASCII-decimal transaction id
// they bracket.
type Type byte

const (
	// TypeNormal is a live put: Key and Value are both meaningful.
	TypeNormal Type = iota + 1
	// TypeDeleted is a tombstone for Key; Value is always empty.
	TypeDeleted
	// TypeTxnStart brackets the beginning of a batch commit. Key is the
	// ASCII-decimal transaction id.
	TypeTxnStart
	// TypeTxnFinished brackets the successful end of a batch commit. Key
	// is the ASCII-decimal transaction id.
	TypeTxnFinished
	// TypeTxnAbort marks a batch commit that failed partway through. Key
	// is the ASCII-decimal transaction id.
	TypeTxnAbort
)

// headerSize is the fixed, big-endian header every record starts with:
// 4 bytes CRC-32 + 1 byte type + 4 bytes key length + 4 bytes value length.
const headerSize = 13

// maxRecordPayload caps key_len+value_len at 100 MiB, a sanity bound that
// catches a corrupt header before it drives a gigabytes-sized allocation.
const maxRecordPayload = 100 * 1024 * 1024

// Record is the atomic unit persisted to a segment.
type Record struct {
	Type  Type
	Key   []byte
	Value []byte
}

func validType(t Type) bool {
	switch t {
	case TypeNormal, TypeDeleted, TypeTxnStart, TypeTxnFinished, TypeTxnAbort:
		return true
	default:
		return false
	}
}

// Size returns the total encoded size of r: header + key + value.
func (r Record) Size() int {
	return headerSize + len(r.Key) + len(r.Value)
}

// Encode assembles r into its on-disk byte layout: header, key, value,
// with the CRC-32 (IEEE / zlib-compatible) computed over every byte from
// the type field to the end of the value.
func Encode(r Record) ([]byte, error) {
	if !validType(r.Type) {
		return nil, fmt.Errorf("record: invalid type %d", r.Type)
	}

	buf := make([]byte, headerSize+len(r.Key)+len(r.Value))
	buf[4] = byte(r.Type)
	binary.BigEndian.PutUint32(buf[5:9], uint32(len(r.Key)))
	binary.BigEndian.PutUint32(buf[9:13], uint32(len(r.Value)))
	copy(buf[headerSize:], r.Key)
	copy(buf[headerSize+len(r.Key):], r.Value)

	crc := crc32.ChecksumIEEE(buf[4:])
	binary.BigEndian.PutUint32(buf[0:4], crc)
	return buf, nil
}

// DecodeHeader parses just the fixed header from buf (which must be at
// least headerSize bytes), returning the record type and the key/value
// lengths needed to know how many more bytes to read. It does not
// validate the CRC, since the value bytes aren't available yet.
func DecodeHeader(buf []byte) (t Type, keyLen, valueLen uint32, err error) {
	if len(buf) < headerSize {
		return 0, 0, 0, fmt.Errorf("record: short header (%d bytes)", len(buf))
	}
	t = Type(buf[4])
	keyLen = binary.BigEndian.Uint32(buf[5:9])
	valueLen = binary.BigEndian.Uint32(buf[9:13])

	if !validType(t) {
		return 0, 0, 0, fmt.Errorf("record: invalid type %d", t)
	}
	if keyLen == 0 && t != TypeTxnStart && t != TypeTxnFinished && t != TypeTxnAbort {
		return 0, 0, 0, fmt.Errorf("record: zero-length key for data record")
	}
	if uint64(keyLen)+uint64(valueLen) > maxRecordPayload {
		return 0, 0, 0, fmt.Errorf("record: payload %d exceeds sanity cap", uint64(keyLen)+uint64(valueLen))
	}
	return t, keyLen, valueLen, nil
}

// Decode parses a complete record (header + key + value) out of buf and
// verifies its CRC. Any validation failure — bad type, zero key length on
// a data record, oversized payload, CRC mismatch, or a short buffer — is
// reported as an error; callers (internal/segment.ReadRecordAt) treat that
// uniformly as "not a record", the signal that the segment ends here.
func Decode(buf []byte) (Record, error) {
	t, keyLen, valueLen, err := DecodeHeader(buf)
	if err != nil {
		return Record{}, err
	}

	want := headerSize + int(keyLen) + int(valueLen)
	if len(buf) < want {
		return Record{}, fmt.Errorf("record: short body, want %d got %d", want, len(buf))
	}

	gotCRC := binary.BigEndian.Uint32(buf[0:4])
	wantCRC := crc32.ChecksumIEEE(buf[4:want])
	if gotCRC != wantCRC {
		return Record{}, fmt.Errorf("record: crc mismatch: on-disk %x computed %x", gotCRC, wantCRC)
	}

	r := Record{Type: t}
	if keyLen > 0 {
		r.Key = append([]byte(nil), buf[headerSize:headerSize+keyLen]...)
	}
	if valueLen > 0 {
		r.Value = append([]byte(nil), buf[headerSize+keyLen:want]...)
	}
	return r, nil
}
