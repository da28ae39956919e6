package shuffleproof

import (
	"encoding/binary"
	"fmt"

	"github.com/race-sub000/gamecore/internal/gcrypto"
)

func u16ToBytesLE(x uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, x)
	return b
}

func u16FromBytesLE(b []byte) (uint16, error) {
	if len(b) != 2 {
		return 0, fmt.Errorf("shuffleproof: expected 2 bytes")
	}
	return binary.LittleEndian.Uint16(b), nil
}

func encodePoint(p gcrypto.Point) []byte { return p.Bytes() }

func decodePoint(b []byte) (gcrypto.Point, error) { return gcrypto.PointFromBytesCanonical(b) }

func encodeScalar(s gcrypto.Scalar) []byte { return s.Bytes() }

func decodeScalar(b []byte) (gcrypto.Scalar, error) { return gcrypto.ScalarFromBytesCanonical(b) }

func encodeCiphertext(ct gcrypto.ElGamalCiphertext) []byte { return ct.Bytes() }

func decodeCiphertext(b []byte) (gcrypto.ElGamalCiphertext, error) {
	return gcrypto.ElGamalCiphertextFromBytes(b)
}

type reader struct {
	bytes []byte
	off   int
}

func newReader(b []byte) *reader { return &reader{bytes: b} }

func (r *reader) take(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("shuffleproof: reader.take: invalid n")
	}
	if r.off+n > len(r.bytes) {
		return nil, fmt.Errorf("shuffleproof: reader: out of bounds")
	}
	out := r.bytes[r.off : r.off+n]
	r.off += n
	return out, nil
}

func (r *reader) takeU8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) takeU16LE() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return u16FromBytesLE(b)
}

func (r *reader) done() bool { return r.off == len(r.bytes) }
