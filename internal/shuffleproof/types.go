// Package shuffleproof implements a verifiable re-encryption shuffle proof
// over ElGamal ciphertexts: given a deck of ciphertexts and an output deck
// claimed to be a permutation-and-reencryption of the input under the same
// public key, a prover can produce a proof that a verifier checks without
// learning the permutation or the re-randomization factors.
//
// This backs the optional verifiable-shuffle mode of the randomization
// engine (internal/random), used when a RandomSpec is configured to require
// proof-carrying masks instead of trusting the masking node.
package shuffleproof

import "github.com/race-sub000/gamecore/internal/gcrypto"

type ProveOpts struct {
	Seed   []byte
	Rounds int
}

type ProveResult struct {
	DeckOut    []gcrypto.ElGamalCiphertext
	ProofBytes []byte
}

type VerifyResult struct {
	OK     bool
	Error  string
	DeckOut []gcrypto.ElGamalCiphertext
}
