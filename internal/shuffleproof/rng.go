package shuffleproof

import (
	"fmt"

	"github.com/race-sub000/gamecore/internal/gcrypto"
)

type scalarRng interface {
	NextScalar() (gcrypto.Scalar, error)
	NextBytes(n int) ([]byte, error)
}

// DeterministicRng expands a seed into an unbounded stream of scalars and
// bytes via HashToScalar, so that a shuffle proof transcript can be
// regenerated deterministically from the seed alone (useful for tests and
// for replaying a prover's randomness during an audit).
type DeterministicRng struct {
	seed    []byte
	counter uint32
}

func NewDeterministicRng(seed []byte) (*DeterministicRng, error) {
	if len(seed) == 0 {
		return nil, fmt.Errorf("shuffleproof: empty rng seed")
	}
	return &DeterministicRng{seed: append([]byte(nil), seed...)}, nil
}

func (r *DeterministicRng) NextScalar() (gcrypto.Scalar, error) {
	c := make([]byte, 4)
	c[0] = byte(r.counter)
	c[1] = byte(r.counter >> 8)
	c[2] = byte(r.counter >> 16)
	c[3] = byte(r.counter >> 24)
	r.counter++
	return gcrypto.HashToScalar("gamecore/v1/shuffle/rng", r.seed, c)
}

func (r *DeterministicRng) NextBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("shuffleproof: NextBytes: invalid length")
	}
	out := make([]byte, n)
	off := 0
	for off < n {
		s, err := r.NextScalar()
		if err != nil {
			return nil, err
		}
		sb := s.Bytes()
		take := len(sb)
		if n-off < take {
			take = n - off
		}
		copy(out[off:], sb[:take])
		off += take
	}
	return out, nil
}
