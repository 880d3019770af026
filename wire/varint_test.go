package wire

import (
	"bytes"
	"errors"
	"testing"

	"lukechampine.com/frand"
)

func TestUvarintRoundTrip(t *testing.T) {
	values := []uint64{
		0, 1, 0x7F, 0x80, 0xFF,
		0x100, 0xFFFF,
		0x10000, 0xFFFFFFFF,
		0x100000000, ReleaseSize - 1, ReleaseSize,
	}
	for _, v := range values {
		var buf bytes.Buffer
		if err := WriteUvarint(&buf, v); err != nil {
			t.Fatalf("WriteUvarint(%d): %v", v, err)
		}
		got, err := ReadUvarint(&buf)
		if err != nil {
			t.Fatalf("ReadUvarint(%d): %v", v, err)
		}
		if got != v {
			t.Fatalf("round trip %d -> %d", v, got)
		}
	}
}

func TestUvarintRoundTripRandom(t *testing.T) {
	for i := 0; i < 1000; i++ {
		v := frand.Uint64n(^uint64(0))
		var buf bytes.Buffer
		if err := WriteUvarint(&buf, v); err != nil {
			t.Fatal(err)
		}
		got, err := ReadUvarint(&buf)
		if err != nil {
			t.Fatal(err)
		}
		if got != v {
			t.Fatalf("round trip %d -> %d", v, got)
		}
	}
}

func TestUvarintMinimal(t *testing.T) {
	cases := []struct {
		v    uint64
		want []byte
	}{
		{0, []byte{0x00}},
		{0x7F, []byte{0x7F}},
		{0x80, []byte{tag1, 0x80}},
		{0xFF, []byte{tag1, 0xFF}},
		{0x100, []byte{tag2, 0x01, 0x00}},
		{0x10000, []byte{tag4, 0x00, 0x01, 0x00, 0x00}},
		{0x100000000, []byte{tag8, 0, 0, 0, 1, 0, 0, 0, 0}},
	}
	for _, c := range cases {
		got := PutUvarint(nil, c.v)
		if !bytes.Equal(got, c.want) {
			t.Fatalf("PutUvarint(%d) = %x, want %x", c.v, got, c.want)
		}
	}
}

func TestUvarintAcceptsNonMinimal(t *testing.T) {
	// 5 encoded with the 1-byte-extended tag, rather than the single byte
	// 0x05 that PutUvarint would produce.
	buf := bytes.NewReader([]byte{tag1, 0x05})
	v, err := ReadUvarint(buf)
	if err != nil {
		t.Fatal(err)
	}
	if v != 5 {
		t.Fatalf("got %d, want 5", v)
	}
}

func TestUvarintBadTag(t *testing.T) {
	buf := bytes.NewReader([]byte{0x81})
	_, err := ReadUvarint(buf)
	if !errors.Is(err, ErrBadTag) {
		t.Fatalf("got %v, want ErrBadTag", err)
	}
}

func TestBytesRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := frand.Bytes(37)
	if err := WriteBytes(&buf, payload); err != nil {
		t.Fatal(err)
	}
	got, err := ReadBytes(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("round trip mismatch")
	}
}
