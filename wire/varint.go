// Package wire implements the variable-length unsigned integer codec used to
// frame records on an ox connection. It is deliberately separate from the
// codec package's scalar encoding (raw fixed-width host-order bytes): the two
// are distinct wire formats and must not be confused.
package wire

import (
	"encoding/binary"
	"errors"
	"io"
)

// ReleaseSize is the sentinel record size that marks a record as a release
// (deregistration) request rather than an invocation carrying a payload.
const ReleaseSize = ^uint64(0) // 2^64 - 1

const (
	tag1 = 0xcc
	tag2 = 0xcd
	tag4 = 0xce
	tag8 = 0xcf
)

// ErrBadTag is returned when a decoded tag byte has its high bit set but does
// not match one of the four recognized widths.
var ErrBadTag = errors.New("wire: invalid varint tag byte")

// PutUvarint appends the tagged encoding of v to buf, returning the extended
// slice. The encoding always uses the narrowest of the five tag widths that
// can represent v; ReadUvarint accepts any wider encoding too.
func PutUvarint(buf []byte, v uint64) []byte {
	switch {
	case v < 0x80:
		return append(buf, byte(v))
	case v < 0x100:
		return append(buf, tag1, byte(v))
	case v < 0x10000:
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], uint16(v))
		return append(append(buf, tag2), b[:]...)
	case v < 0x100000000:
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(v))
		return append(append(buf, tag4), b[:]...)
	default:
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], v)
		return append(append(buf, tag8), b[:]...)
	}
}

// WriteUvarint writes the tagged encoding of v to w.
func WriteUvarint(w io.Writer, v uint64) error {
	var buf [9]byte
	_, err := w.Write(PutUvarint(buf[:0], v))
	return err
}

// ReadUvarint reads one tagged varint from r.
func ReadUvarint(r io.Reader) (uint64, error) {
	var tag [1]byte
	if _, err := io.ReadFull(r, tag[:]); err != nil {
		return 0, err
	}
	t := tag[0]
	if t < 0x80 {
		return uint64(t), nil
	}
	var width int
	switch t {
	case tag1:
		width = 1
	case tag2:
		width = 2
	case tag4:
		width = 4
	case tag8:
		width = 8
	default:
		return 0, ErrBadTag
	}
	var b [8]byte
	if _, err := io.ReadFull(r, b[:width]); err != nil {
		return 0, err
	}
	switch width {
	case 1:
		return uint64(b[0]), nil
	case 2:
		return uint64(binary.BigEndian.Uint16(b[:2])), nil
	case 4:
		return uint64(binary.BigEndian.Uint32(b[:4])), nil
	default:
		return binary.BigEndian.Uint64(b[:8]), nil
	}
}

// WriteBytes writes a varint length prefix followed by p. The connection
// engine uses it to frame a record's payload.
func WriteBytes(w io.Writer, p []byte) error {
	if err := WriteUvarint(w, uint64(len(p))); err != nil {
		return err
	}
	_, err := w.Write(p)
	return err
}

// ReadBytes reads a varint length prefix followed by that many bytes. It does
// not special-case ReleaseSize; callers that must distinguish a release
// record from a normal one inspect the length themselves first.
func ReadBytes(r io.Reader) ([]byte, error) {
	n, err := ReadUvarint(r)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
