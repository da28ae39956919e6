// Package codec implements the canonical positional, little-endian binary
// encoding used for every on-the-wire and on-chain payload: Effect↔handler
// buffers, Event records, VersionedData, and settle payloads. There are no
// field names or tags; every field is encoded in a fixed, documented order,
// with length-prefixed framing for variable-length data.
//
// The wire shape is adapted from the positional encodings already used by
// the teacher for its own binary payloads (internal/app/dkg_sharemsg.go's
// magic||u64||u16-len-prefixed-string framing, and internal/ocpshuffle's
// reader/writer helpers), generalized into a reusable Writer/Reader pair.
package codec

import (
	"encoding/binary"
	"fmt"
)

// Writer appends positional, length-prefixed fields into a growing byte
// buffer.
type Writer struct {
	buf []byte
}

func NewWriter() *Writer { return &Writer{} }

func (w *Writer) Bytes() []byte { return w.buf }

func (w *Writer) WriteU8(x uint8) {
	w.buf = append(w.buf, x)
}

func (w *Writer) WriteBool(x bool) {
	if x {
		w.WriteU8(1)
	} else {
		w.WriteU8(0)
	}
}

func (w *Writer) WriteU16(x uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], x)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) WriteU32(x uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], x)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) WriteU64(x uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], x)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) WriteI64(x int64) { w.WriteU64(uint64(x)) }

// WriteBytes writes a u32-length-prefixed byte slice.
func (w *Writer) WriteBytes(b []byte) {
	w.WriteU32(uint32(len(b)))
	w.buf = append(w.buf, b...)
}

// WriteString writes a u16-length-prefixed UTF-8 string, matching the
// teacher's dealerId/toId framing for short identifiers.
func (w *Writer) WriteString(s string) {
	w.WriteU16(uint16(len(s)))
	w.buf = append(w.buf, s...)
}

// Reader reads positional fields from a fixed byte buffer, tracking an
// offset and refusing to read past the end.
type Reader struct {
	buf []byte
	off int
}

func NewReader(b []byte) *Reader { return &Reader{buf: b} }

func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || r.off+n > len(r.buf) {
		return nil, fmt.Errorf("codec: read past end of buffer")
	}
	out := r.buf[r.off : r.off+n]
	r.off += n
	return out, nil
}

func (r *Reader) ReadU8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) ReadBool() (bool, error) {
	b, err := r.ReadU8()
	if err != nil {
		return false, err
	}
	return b != 0, nil
}

func (r *Reader) ReadU16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *Reader) ReadU32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) ReadU64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *Reader) ReadI64() (int64, error) {
	u, err := r.ReadU64()
	return int64(u), err
}

func (r *Reader) ReadBytes() ([]byte, error) {
	n, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	b, err := r.take(int(n))
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), b...), nil
}

func (r *Reader) ReadString() (string, error) {
	n, err := r.ReadU16()
	if err != nil {
		return "", err
	}
	b, err := r.take(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *Reader) Done() bool { return r.off == len(r.buf) }

func (r *Reader) Remaining() int { return len(r.buf) - r.off }
