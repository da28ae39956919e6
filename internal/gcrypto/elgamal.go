package gcrypto

import "fmt"

// ElGamalCiphertext is an additive ElGamal ciphertext over ristretto255:
//
//	PK = Y = x*G
//	Enc(Y, M; r) = (r*G, M + r*Y)
type ElGamalCiphertext struct {
	C1 Point
	C2 Point
}

func ElGamalEncrypt(pk Point, m Point, r Scalar) (ElGamalCiphertext, error) {
	if r.IsZero() {
		return ElGamalCiphertext{}, fmt.Errorf("elgamal: r must be non-zero")
	}
	c1 := MulBase(r)
	c2 := PointAdd(m, MulPoint(pk, r))
	return ElGamalCiphertext{C1: c1, C2: c2}, nil
}

// ElGamalDecrypt computes Dec(x, (c1,c2)) = c2 - x*c1.
func ElGamalDecrypt(sk Scalar, ct ElGamalCiphertext) Point {
	return PointSub(ct.C2, MulPoint(ct.C1, sk))
}

// Reencrypt re-randomizes ct under pk with fresh randomness rho, without
// changing the underlying plaintext.
func Reencrypt(pk Point, ct ElGamalCiphertext, rho Scalar) ElGamalCiphertext {
	return ElGamalCiphertext{
		C1: PointAdd(ct.C1, MulBase(rho)),
		C2: PointAdd(ct.C2, MulPoint(pk, rho)),
	}
}

// ElGamalCiphertextBytes is the wire size of an encoded ciphertext: two
// canonical points back to back, C1 then C2.
const ElGamalCiphertextBytes = 2 * PointBytes

func (ct ElGamalCiphertext) Bytes() []byte {
	return concatBytes(ct.C1.Bytes(), ct.C2.Bytes())
}

func ElGamalCiphertextFromBytes(b []byte) (ElGamalCiphertext, error) {
	if len(b) != ElGamalCiphertextBytes {
		return ElGamalCiphertext{}, fmt.Errorf("elgamal: expected %d bytes", ElGamalCiphertextBytes)
	}
	c1, err := PointFromBytesCanonical(b[:PointBytes])
	if err != nil {
		return ElGamalCiphertext{}, fmt.Errorf("elgamal: c1: %w", err)
	}
	c2, err := PointFromBytesCanonical(b[PointBytes:])
	if err != nil {
		return ElGamalCiphertext{}, fmt.Errorf("elgamal: c2: %w", err)
	}
	return ElGamalCiphertext{C1: c1, C2: c2}, nil
}
