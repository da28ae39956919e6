package gcrypto

import (
	"crypto/sha512"
	"fmt"
	"hash"
)

var hashToScalarPrefix = []byte("gamecore/v1/hash_to_scalar|")
var hashToPointPrefix = []byte("gamecore/v1/hash_to_point|")

func updateLenBytes(h hash.Hash, b []byte) {
	h.Write(u32le(uint32(len(b))))
	h.Write(b)
}

// HashToScalar derives a scalar deterministically from a domain separator
// and a sequence of messages, for use as shuffle randomness or challenges.
func HashToScalar(domainSep string, msgs ...[]byte) (Scalar, error) {
	h := sha512.New()
	h.Write(hashToScalarPrefix)
	updateLenBytes(h, []byte(domainSep))
	for _, m := range msgs {
		if m == nil {
			return Scalar{}, fmt.Errorf("hashToScalar: nil msg")
		}
		updateLenBytes(h, m)
	}
	digest := h.Sum(nil)
	return ScalarFromUniformBytes(digest)
}

// HashToPoint derives a group element deterministically from a domain
// separator and a message, for encoding plaintext payloads (e.g. a card's
// option string) as an ElGamal message point rather than trusting the
// caller to supply one.
func HashToPoint(domainSep string, msg []byte) (Point, error) {
	h := sha512.New()
	h.Write(hashToPointPrefix)
	updateLenBytes(h, []byte(domainSep))
	updateLenBytes(h, msg)
	return PointFromUniformBytes(h.Sum(nil))
}
