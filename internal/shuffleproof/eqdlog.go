package shuffleproof

import (
	"fmt"

	"github.com/race-sub000/gamecore/internal/gcrypto"
)

// EqDlogProof proves knowledge of x such that X = x*A and Y = x*B, for
// public points A, B, X, Y.
type EqDlogProof struct {
	T1 gcrypto.Point
	T2 gcrypto.Point
	Z  gcrypto.Scalar
}

func proveEqDlog(domain string, A, B, X, Y gcrypto.Point, x gcrypto.Scalar, rng scalarRng) (EqDlogProof, error) {
	w, err := rng.NextScalar()
	if err != nil {
		return EqDlogProof{}, err
	}
	t1 := gcrypto.MulPoint(A, w)
	t2 := gcrypto.MulPoint(B, w)

	tr := gcrypto.NewTranscript(domain)
	_ = tr.AppendMessage("A", A.Bytes())
	_ = tr.AppendMessage("B", B.Bytes())
	_ = tr.AppendMessage("X", X.Bytes())
	_ = tr.AppendMessage("Y", Y.Bytes())
	_ = tr.AppendMessage("t1", t1.Bytes())
	_ = tr.AppendMessage("t2", t2.Bytes())
	e, err := tr.ChallengeScalar("e")
	if err != nil {
		return EqDlogProof{}, err
	}

	z := gcrypto.ScalarAdd(w, gcrypto.ScalarMul(e, x))
	return EqDlogProof{T1: t1, T2: t2, Z: z}, nil
}

func verifyEqDlog(domain string, A, B, X, Y gcrypto.Point, proof EqDlogProof) (bool, error) {
	tr := gcrypto.NewTranscript(domain)
	_ = tr.AppendMessage("A", A.Bytes())
	_ = tr.AppendMessage("B", B.Bytes())
	_ = tr.AppendMessage("X", X.Bytes())
	_ = tr.AppendMessage("Y", Y.Bytes())
	_ = tr.AppendMessage("t1", proof.T1.Bytes())
	_ = tr.AppendMessage("t2", proof.T2.Bytes())
	e, err := tr.ChallengeScalar("e")
	if err != nil {
		return false, err
	}

	lhs1 := gcrypto.MulPoint(A, proof.Z)
	rhs1 := gcrypto.PointAdd(proof.T1, gcrypto.MulPoint(X, e))
	if !gcrypto.PointEq(lhs1, rhs1) {
		return false, nil
	}

	lhs2 := gcrypto.MulPoint(B, proof.Z)
	rhs2 := gcrypto.PointAdd(proof.T2, gcrypto.MulPoint(Y, e))
	if !gcrypto.PointEq(lhs2, rhs2) {
		return false, nil
	}
	return true, nil
}

// simulateEqDlogCommitments computes commitments (t1,t2) for a chosen
// (e,z) pair that satisfy the verification equations, used by the switch
// OR-proof to fake the branch that isn't taken.
func simulateEqDlogCommitments(A, B, X, Y gcrypto.Point, e, z gcrypto.Scalar) (gcrypto.Point, gcrypto.Point) {
	t1 := gcrypto.PointSub(gcrypto.MulPoint(A, z), gcrypto.MulPoint(X, e))
	t2 := gcrypto.PointSub(gcrypto.MulPoint(B, z), gcrypto.MulPoint(Y, e))
	return t1, t2
}

func encodeEqDlogProof(p EqDlogProof) []byte {
	return append(append(p.T1.Bytes(), p.T2.Bytes()...), p.Z.Bytes()...)
}

func decodeEqDlogProofFromReader(r *reader) (EqDlogProof, error) {
	t1b, err := r.take(32)
	if err != nil {
		return EqDlogProof{}, err
	}
	t2b, err := r.take(32)
	if err != nil {
		return EqDlogProof{}, err
	}
	zb, err := r.take(32)
	if err != nil {
		return EqDlogProof{}, err
	}
	t1, err := decodePoint(t1b)
	if err != nil {
		return EqDlogProof{}, err
	}
	t2, err := decodePoint(t2b)
	if err != nil {
		return EqDlogProof{}, err
	}
	z, err := decodeScalar(zb)
	if err != nil {
		return EqDlogProof{}, err
	}
	return EqDlogProof{T1: t1, T2: t2, Z: z}, nil
}

func decodeEqDlogProof(b []byte) (EqDlogProof, error) {
	if len(b) != 96 {
		return EqDlogProof{}, fmt.Errorf("shuffleproof: decodeEqDlogProof: expected 96 bytes")
	}
	r := newReader(b)
	p, err := decodeEqDlogProofFromReader(r)
	if err != nil {
		return EqDlogProof{}, err
	}
	if !r.done() {
		return EqDlogProof{}, fmt.Errorf("shuffleproof: decodeEqDlogProof: trailing bytes")
	}
	return p, nil
}
