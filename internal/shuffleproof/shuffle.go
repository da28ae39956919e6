package shuffleproof

import (
	"crypto/rand"
	"fmt"

	"github.com/race-sub000/gamecore/internal/gcrypto"
)

const (
	ProofVersion      = 1
	domainReencEqDlog = "gamecore/v1/shuffle/reenc-eqdlog"
)

func sampleNonzeroScalar(rng scalarRng) (gcrypto.Scalar, error) {
	for {
		s, err := rng.NextScalar()
		if err != nil {
			return gcrypto.Scalar{}, err
		}
		if !s.IsZero() {
			return s, nil
		}
	}
}

func reencryptAvoidingC1Collisions(rng scalarRng, pk gcrypto.Point, src gcrypto.ElGamalCiphertext, avoidC1s []gcrypto.Point) (gcrypto.ElGamalCiphertext, gcrypto.Scalar, error) {
	for {
		rho, err := sampleNonzeroScalar(rng)
		if err != nil {
			return gcrypto.ElGamalCiphertext{}, gcrypto.Scalar{}, err
		}
		ct := gcrypto.Reencrypt(pk, src, rho)
		ok := true
		for _, a := range avoidC1s {
			if gcrypto.PointEq(ct.C1, a) {
				ok = false
				break
			}
		}
		if ok {
			return ct, rho, nil
		}
	}
}

func randomPermutation(rng scalarRng, n int) ([]int, error) {
	perm := make([]int, n)
	for i := 0; i < n; i++ {
		perm[i] = i
	}
	for i := n - 1; i > 0; i-- {
		b, err := rng.NextBytes(4)
		if err != nil {
			return nil, err
		}
		x := uint32(b[0]) | (uint32(b[1]) << 8) | (uint32(b[2]) << 16) | (uint32(b[3]) << 24)
		j := int(x % uint32(i+1))
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm, nil
}

// roundPairs splits the deck into disjoint adjacent pairs for a given
// round, alternating the starting offset each round so every index
// eventually gets paired with both neighbors across enough rounds.
func roundPairs(n int, round int) (pairs [][2]int, singles []int) {
	start := round % 2
	used := make([]bool, n)
	for i := start; i+1 < n; i += 2 {
		pairs = append(pairs, [2]int{i, i + 1})
		used[i] = true
		used[i+1] = true
	}
	for i := 0; i < n; i++ {
		if !used[i] {
			singles = append(singles, i)
		}
	}
	return pairs, singles
}

func concat(chunks ...[]byte) []byte {
	var n int
	for _, c := range chunks {
		n += len(c)
	}
	out := make([]byte, 0, n)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}

// Prove produces a re-encryption shuffle proof: deckIn, encrypted under pk,
// is permuted and re-randomized round by round using a switching network of
// adjacent-pair OR-proofs, yielding deckOut and a proof that deckOut is a
// valid shuffle of deckIn without revealing the permutation.
func Prove(pk gcrypto.Point, deckIn []gcrypto.ElGamalCiphertext, opts ProveOpts) (ProveResult, error) {
	n := len(deckIn)
	if n < 2 {
		return ProveResult{}, fmt.Errorf("shuffleproof: deck too small")
	}
	rounds := opts.Rounds
	if rounds == 0 {
		rounds = n
	}
	if rounds <= 0 {
		return ProveResult{}, fmt.Errorf("shuffleproof: rounds must be > 0")
	}

	seed := opts.Seed
	if len(seed) == 0 {
		seed = make([]byte, 32)
		if _, err := rand.Read(seed); err != nil {
			return ProveResult{}, err
		}
	}
	rng, err := NewDeterministicRng(seed)
	if err != nil {
		return ProveResult{}, err
	}

	perm, err := randomPermutation(rng, n)
	if err != nil {
		return ProveResult{}, err
	}
	type item struct {
		ct  gcrypto.ElGamalCiphertext
		key int
	}
	items := make([]item, n)
	for i := 0; i < n; i++ {
		items[i] = item{ct: deckIn[i], key: perm[i]}
	}

	header := make([]byte, 0, 5)
	header = append(header, byte(ProofVersion))
	header = append(header, u16ToBytesLE(uint16(n))...)
	header = append(header, u16ToBytesLE(uint16(rounds))...)
	proofChunks := [][]byte{header}

	for round := 0; round < rounds; round++ {
		pairs, singles := roundPairs(n, round)
		next := make([]item, n)
		copy(next, items)

		deckOutRound := make([]gcrypto.ElGamalCiphertext, n)
		for i := 0; i < n; i++ {
			deckOutRound[i] = items[i].ct
		}

		var switchProofs, singleProofs [][]byte

		for _, ij := range pairs {
			i, j := ij[0], ij[1]

			left0 := items[i].ct
			left1 := items[j].ct

			swap := items[i].key > items[j].key
			src0, src1 := left0, left1
			if swap {
				src0, src1 = left1, left0
			}

			out0, rho0, err := reencryptAvoidingC1Collisions(rng, pk, src0, []gcrypto.Point{left0.C1, left1.C1})
			if err != nil {
				return ProveResult{}, err
			}
			out1, rho1, err := reencryptAvoidingC1Collisions(rng, pk, src1, []gcrypto.Point{left0.C1, left1.C1})
			if err != nil {
				return ProveResult{}, err
			}

			sp, err := proveSwitch(pk, left0, left1, out0, out1, swap, rho0, rho1, rng)
			if err != nil {
				return ProveResult{}, err
			}
			switchProofs = append(switchProofs, encodeSwitchProof(sp))

			deckOutRound[i] = out0
			deckOutRound[j] = out1

			next[i].ct = out0
			next[j].ct = out1
			if swap {
				next[i].key, next[j].key = next[j].key, next[i].key
			}
		}

		for _, idx := range singles {
			inCt := items[idx].ct
			rho, err := sampleNonzeroScalar(rng)
			if err != nil {
				return ProveResult{}, err
			}
			outCt := gcrypto.Reencrypt(pk, inCt, rho)

			X := gcrypto.PointSub(outCt.C1, inCt.C1)
			Y := gcrypto.PointSub(outCt.C2, inCt.C2)

			p, err := proveEqDlog(domainReencEqDlog, G, pk, X, Y, rho, rng)
			if err != nil {
				return ProveResult{}, err
			}
			singleProofs = append(singleProofs, encodeEqDlogProof(p))

			deckOutRound[idx] = outCt
			next[idx].ct = outCt
		}

		deckBytes := make([]byte, n*64)
		for i := 0; i < n; i++ {
			copy(deckBytes[i*64:], encodeCiphertext(deckOutRound[i]))
		}
		proofChunks = append(proofChunks, deckBytes)
		proofChunks = append(proofChunks, switchProofs...)
		proofChunks = append(proofChunks, singleProofs...)

		items = next
	}

	deckOut := make([]gcrypto.ElGamalCiphertext, n)
	for i := 0; i < n; i++ {
		deckOut[i] = items[i].ct
	}

	return ProveResult{DeckOut: deckOut, ProofBytes: concat(proofChunks...)}, nil
}

// Verify checks a shuffle proof produced by Prove without learning the
// permutation or re-randomization factors.
func Verify(pk gcrypto.Point, deckIn []gcrypto.ElGamalCiphertext, proofBytes []byte) VerifyResult {
	rd := newReader(proofBytes)
	version, err := rd.takeU8()
	if err != nil {
		return VerifyResult{OK: false, Error: err.Error()}
	}
	if version != ProofVersion {
		return VerifyResult{OK: false, Error: fmt.Sprintf("unsupported version %d", version)}
	}
	nU16, err := rd.takeU16LE()
	if err != nil {
		return VerifyResult{OK: false, Error: err.Error()}
	}
	roundsU16, err := rd.takeU16LE()
	if err != nil {
		return VerifyResult{OK: false, Error: err.Error()}
	}
	n := int(nU16)
	rounds := int(roundsU16)
	if n != len(deckIn) {
		return VerifyResult{OK: false, Error: fmt.Sprintf("n mismatch: proof n=%d, deck n=%d", n, len(deckIn))}
	}
	if n < 2 {
		return VerifyResult{OK: false, Error: "deck too small"}
	}
	if rounds <= 0 {
		return VerifyResult{OK: false, Error: "rounds must be > 0"}
	}

	cur := make([]gcrypto.ElGamalCiphertext, n)
	copy(cur, deckIn)
	next := make([]gcrypto.ElGamalCiphertext, n)

	for round := 0; round < rounds; round++ {
		start := round % 2

		deckBytes, err := rd.take(n * 64)
		if err != nil {
			return VerifyResult{OK: false, Error: err.Error()}
		}
		for i := 0; i < n; i++ {
			ct, err := decodeCiphertext(deckBytes[i*64 : i*64+64])
			if err != nil {
				return VerifyResult{OK: false, Error: err.Error()}
			}
			next[i] = ct
		}

		for i := start; i+1 < n; i += 2 {
			sp, err := decodeSwitchProofFromReader(rd)
			if err != nil {
				return VerifyResult{OK: false, Error: err.Error()}
			}
			ok, err := verifySwitch(pk, cur[i], cur[i+1], next[i], next[i+1], sp)
			if err != nil {
				return VerifyResult{OK: false, Error: err.Error()}
			}
			if !ok {
				return VerifyResult{OK: false, Error: fmt.Sprintf("invalid switch proof at round=%d pair=(%d,%d)", round, i, i+1)}
			}
		}

		checkSingle := func(idx int) error {
			p, err := decodeEqDlogProofFromReader(rd)
			if err != nil {
				return err
			}
			if gcrypto.PointEq(next[idx].C1, cur[idx].C1) {
				return fmt.Errorf("single not rerandomized at round=%d idx=%d", round, idx)
			}
			X := gcrypto.PointSub(next[idx].C1, cur[idx].C1)
			Y := gcrypto.PointSub(next[idx].C2, cur[idx].C2)
			ok, err := verifyEqDlog(domainReencEqDlog, G, pk, X, Y, p)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("invalid single proof at round=%d idx=%d", round, idx)
			}
			return nil
		}

		if n%2 == 1 {
			idx := n - 1
			if start != 0 {
				idx = 0
			}
			if err := checkSingle(idx); err != nil {
				return VerifyResult{OK: false, Error: err.Error()}
			}
		} else if start == 1 {
			if err := checkSingle(0); err != nil {
				return VerifyResult{OK: false, Error: err.Error()}
			}
			if err := checkSingle(n - 1); err != nil {
				return VerifyResult{OK: false, Error: err.Error()}
			}
		}

		cur, next = next, cur
	}

	if !rd.done() {
		return VerifyResult{OK: false, Error: "trailing bytes in proof"}
	}
	return VerifyResult{OK: true, DeckOut: cur}
}
