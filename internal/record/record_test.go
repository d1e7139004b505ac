package record

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []Record{
		{Type: TypeNormal, Key: []byte("hello"), Value: []byte("world")},
		{Type: TypeDeleted, Key: []byte("hello"), Value: nil},
		{Type: TypeNormal, Key: []byte("k"), Value: []byte{}},
		{Type: TypeTxnStart, Key: []byte("42"), Value: nil},
		{Type: TypeTxnFinished, Key: []byte("42"), Value: nil},
		{Type: TypeTxnAbort, Key: []byte("42"), Value: nil},
	}

	for _, want := range cases {
		buf, err := Encode(want)
		if err != nil {
			t.Fatalf("Encode(%+v): %v", want, err)
		}
		if len(buf) != want.Size() {
			t.Fatalf("encoded length %d, Size() reported %d", len(buf), want.Size())
		}

		got, err := Decode(buf)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if diff := cmp.Diff(want.Key, got.Key); diff != "" && len(want.Key) > 0 {
			t.Errorf("key mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff(want.Value, got.Value); diff != "" && len(want.Value) > 0 {
			t.Errorf("value mismatch (-want +got):\n%s", diff)
		}
		if got.Type != want.Type {
			t.Errorf("type = %v, want %v", got.Type, want.Type)
		}
	}
}

func TestDecodeRejectsZeroKeyOnDataRecord(t *testing.T) {
	buf, err := Encode(Record{Type: TypeNormal, Key: []byte("x"), Value: []byte("y")})
	if err != nil {
		t.Fatal(err)
	}
	// Forge a zero key length in the header.
	buf[5], buf[6], buf[7], buf[8] = 0, 0, 0, 0
	if _, err := Decode(buf); err == nil {
		t.Fatal("expected error decoding a data record with zero-length key")
	}
}

func TestDecodeRejectsInvalidType(t *testing.T) {
	buf, err := Encode(Record{Type: TypeNormal, Key: []byte("x"), Value: []byte("y")})
	if err != nil {
		t.Fatal(err)
	}
	buf[4] = 0xFF
	if _, err := Decode(buf); err == nil {
		t.Fatal("expected error decoding an invalid type")
	}
}

func TestDecodeRejectsCRCMismatch(t *testing.T) {
	buf, err := Encode(Record{Type: TypeNormal, Key: []byte("x"), Value: []byte("y")})
	if err != nil {
		t.Fatal(err)
	}
	buf[len(buf)-1] ^= 0xFF
	if _, err := Decode(buf); err == nil {
		t.Fatal("expected CRC mismatch error")
	}
}

func TestDecodeRejectsShortBuffer(t *testing.T) {
	buf, err := Encode(Record{Type: TypeNormal, Key: []byte("x"), Value: []byte("y")})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Decode(buf[:len(buf)-1]); err == nil {
		t.Fatal("expected error decoding a truncated record")
	}
}

func TestPositionRoundTrip(t *testing.T) {
	want := Position{SegmentID: 7, Offset: 1 << 40, Size: 123456}
	buf := EncodePosition(want)
	if len(buf) != positionSize {
		t.Fatalf("encoded position length = %d, want %d", len(buf), positionSize)
	}
	got, err := DecodePosition(buf)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("position mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodePositionShort(t *testing.T) {
	if _, err := DecodePosition([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error decoding a short position buffer")
	}
}
