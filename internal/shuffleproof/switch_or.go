package shuffleproof

import (
	"fmt"

	"github.com/race-sub000/gamecore/internal/gcrypto"
)

// SwitchProof is a 1-out-of-2 OR-proof that a pair of output ciphertexts is
// either (reenc(in0), reenc(in1)) or (reenc(in1), reenc(in0)), without
// revealing which. It hides whether a given adjacent pair was swapped
// during a shuffle round.
type SwitchProof struct {
	// E0 is the challenge assigned to branch 0 (no swap). Branch 1's
	// challenge is derived as e - E0.
	E0 gcrypto.Scalar
	// Four relations, each with commitments (t1,t2) and response z:
	//  0: branch0 rel0 (out0 vs in0)
	//  1: branch0 rel1 (out1 vs in1)
	//  2: branch1 rel0 (out0 vs in1)
	//  3: branch1 rel1 (out1 vs in0)
	T1 [4]gcrypto.Point
	T2 [4]gcrypto.Point
	Z  [4]gcrypto.Scalar
}

const domainSwitch = "gamecore/v1/shuffle/switch-or"

var G = gcrypto.PointBase()

func dlogDiff(inCt, outCt gcrypto.ElGamalCiphertext) (gcrypto.Point, gcrypto.Point) {
	X := gcrypto.PointSub(outCt.C1, inCt.C1)
	Y := gcrypto.PointSub(outCt.C2, inCt.C2)
	return X, Y
}

func switchChallenge(pk gcrypto.Point, in0, in1, out0, out1 gcrypto.ElGamalCiphertext, t1, t2 [4]gcrypto.Point) (gcrypto.Scalar, error) {
	tr := gcrypto.NewTranscript(domainSwitch)
	_ = tr.AppendMessage("pk", pk.Bytes())
	_ = tr.AppendMessage("in0.c1", in0.C1.Bytes())
	_ = tr.AppendMessage("in0.c2", in0.C2.Bytes())
	_ = tr.AppendMessage("in1.c1", in1.C1.Bytes())
	_ = tr.AppendMessage("in1.c2", in1.C2.Bytes())
	_ = tr.AppendMessage("out0.c1", out0.C1.Bytes())
	_ = tr.AppendMessage("out0.c2", out0.C2.Bytes())
	_ = tr.AppendMessage("out1.c1", out1.C1.Bytes())
	_ = tr.AppendMessage("out1.c2", out1.C2.Bytes())
	for i := 0; i < 4; i++ {
		_ = tr.AppendMessage(fmt.Sprintf("t1.%d", i), t1[i].Bytes())
	}
	for i := 0; i < 4; i++ {
		_ = tr.AppendMessage(fmt.Sprintf("t2.%d", i), t2[i].Bytes())
	}
	return tr.ChallengeScalar("e")
}

func proveSwitch(pk gcrypto.Point, in0, in1, out0, out1 gcrypto.ElGamalCiphertext, swapped bool, rho0, rho1 gcrypto.Scalar, rng scalarRng) (SwitchProof, error) {
	relIn := [4]gcrypto.ElGamalCiphertext{in0, in1, in1, in0}
	relOut := [4]gcrypto.ElGamalCiphertext{out0, out1, out0, out1}

	trueBranch := 0
	if swapped {
		trueBranch = 1
	}
	simBranch := 1 - trueBranch

	eSim, err := rng.NextScalar()
	if err != nil {
		return SwitchProof{}, err
	}

	var t1, t2 [4]gcrypto.Point
	var z [4]gcrypto.Scalar

	var simIdxs [2]int
	if simBranch == 0 {
		simIdxs = [2]int{0, 1}
	} else {
		simIdxs = [2]int{2, 3}
	}
	for _, idx := range simIdxs {
		X, Y := dlogDiff(relIn[idx], relOut[idx])
		zSim, err := rng.NextScalar()
		if err != nil {
			return SwitchProof{}, err
		}
		z[idx] = zSim
		tt1, tt2 := simulateEqDlogCommitments(G, pk, X, Y, eSim, zSim)
		t1[idx] = tt1
		t2[idx] = tt2
	}

	w0, err := rng.NextScalar()
	if err != nil {
		return SwitchProof{}, err
	}
	w1, err := rng.NextScalar()
	if err != nil {
		return SwitchProof{}, err
	}
	var realIdxs [2]int
	if trueBranch == 0 {
		realIdxs = [2]int{0, 1}
	} else {
		realIdxs = [2]int{2, 3}
	}
	t1[realIdxs[0]] = gcrypto.MulPoint(G, w0)
	t2[realIdxs[0]] = gcrypto.MulPoint(pk, w0)
	t1[realIdxs[1]] = gcrypto.MulPoint(G, w1)
	t2[realIdxs[1]] = gcrypto.MulPoint(pk, w1)

	e, err := switchChallenge(pk, in0, in1, out0, out1, t1, t2)
	if err != nil {
		return SwitchProof{}, err
	}

	var e0, e1 gcrypto.Scalar
	if trueBranch == 0 {
		e1 = eSim
		e0 = gcrypto.ScalarSub(e, e1)
		z[0] = gcrypto.ScalarAdd(w0, gcrypto.ScalarMul(e0, rho0))
		z[1] = gcrypto.ScalarAdd(w1, gcrypto.ScalarMul(e0, rho1))
	} else {
		e0 = eSim
		e1 = gcrypto.ScalarSub(e, e0)
		z[2] = gcrypto.ScalarAdd(w0, gcrypto.ScalarMul(e1, rho0))
		z[3] = gcrypto.ScalarAdd(w1, gcrypto.ScalarMul(e1, rho1))
	}

	return SwitchProof{E0: e0, T1: t1, T2: t2, Z: z}, nil
}

func verifySwitch(pk gcrypto.Point, in0, in1, out0, out1 gcrypto.ElGamalCiphertext, proof SwitchProof) (bool, error) {
	if gcrypto.PointEq(out0.C1, in0.C1) || gcrypto.PointEq(out0.C1, in1.C1) {
		return false, nil
	}
	if gcrypto.PointEq(out1.C1, in0.C1) || gcrypto.PointEq(out1.C1, in1.C1) {
		return false, nil
	}

	e, err := switchChallenge(pk, in0, in1, out0, out1, proof.T1, proof.T2)
	if err != nil {
		return false, err
	}
	e1 := gcrypto.ScalarSub(e, proof.E0)

	relIn := [4]gcrypto.ElGamalCiphertext{in0, in1, in1, in0}
	relOut := [4]gcrypto.ElGamalCiphertext{out0, out1, out0, out1}
	relE := [4]gcrypto.Scalar{proof.E0, proof.E0, e1, e1}

	for idx := 0; idx < 4; idx++ {
		X, Y := dlogDiff(relIn[idx], relOut[idx])
		eBranch := relE[idx]
		z := proof.Z[idx]

		lhs1 := gcrypto.MulPoint(G, z)
		rhs1 := gcrypto.PointAdd(proof.T1[idx], gcrypto.MulPoint(X, eBranch))
		if !gcrypto.PointEq(lhs1, rhs1) {
			return false, nil
		}

		lhs2 := gcrypto.MulPoint(pk, z)
		rhs2 := gcrypto.PointAdd(proof.T2[idx], gcrypto.MulPoint(Y, eBranch))
		if !gcrypto.PointEq(lhs2, rhs2) {
			return false, nil
		}
	}
	return true, nil
}

// encodeSwitchProof: e0(32) || 4*(t1(32) || t2(32) || z(32))
func encodeSwitchProof(p SwitchProof) []byte {
	out := make([]byte, 0, 32+4*96)
	out = append(out, encodeScalar(p.E0)...)
	for i := 0; i < 4; i++ {
		out = append(out, encodePoint(p.T1[i])...)
		out = append(out, encodePoint(p.T2[i])...)
		out = append(out, encodeScalar(p.Z[i])...)
	}
	return out
}

func decodeSwitchProofFromReader(r *reader) (SwitchProof, error) {
	e0b, err := r.take(32)
	if err != nil {
		return SwitchProof{}, err
	}
	e0, err := decodeScalar(e0b)
	if err != nil {
		return SwitchProof{}, err
	}
	var t1, t2 [4]gcrypto.Point
	var z [4]gcrypto.Scalar
	for i := 0; i < 4; i++ {
		t1b, err := r.take(32)
		if err != nil {
			return SwitchProof{}, err
		}
		t2b, err := r.take(32)
		if err != nil {
			return SwitchProof{}, err
		}
		zb, err := r.take(32)
		if err != nil {
			return SwitchProof{}, err
		}
		t1i, err := decodePoint(t1b)
		if err != nil {
			return SwitchProof{}, err
		}
		t2i, err := decodePoint(t2b)
		if err != nil {
			return SwitchProof{}, err
		}
		zi, err := decodeScalar(zb)
		if err != nil {
			return SwitchProof{}, err
		}
		t1[i] = t1i
		t2[i] = t2i
		z[i] = zi
	}
	return SwitchProof{E0: e0, T1: t1, T2: t2, Z: z}, nil
}
