package random

import (
	"fmt"

	"github.com/race-sub000/gamecore/internal/encryptor"
)

// secretBucket holds one node's private keys for a single randomness: one
// mask key (applied to every item) and one lock key per item.
type secretBucket struct {
	maskKey  encryptor.SecretKey
	lockKeys []encryptor.SecretKey
}

// SecretState is the private half of the Mental Poker scheme: the node's
// own mask and lock keys for every randomness it participates in. This is
// the "client-side randomization loop" state from the spec — it never
// crosses into GameContext, which only sees the public RandomState.
//
// Grounded on the mask/unmask/lock round trip exercised by
// _examples/original_source/encryptor/src/lib.rs's test_mask_and_unmask
// and test_lock, generalized from a single global bucket into one bucket
// per randomness id so a node can participate in several randoms at once.
type SecretState struct {
	enc     encryptor.Encryptor
	buckets map[int]*secretBucket
}

func NewSecretState(enc encryptor.Encryptor) *SecretState {
	return &SecretState{enc: enc, buckets: make(map[int]*secretBucket)}
}

// GenRandomSecrets creates a fresh mask key and `size` lock keys for
// randomID, replacing any existing bucket.
func (s *SecretState) GenRandomSecrets(randomID int, size int) {
	lockKeys := make([]encryptor.SecretKey, size)
	for i := range lockKeys {
		lockKeys[i] = s.enc.GenSecret()
	}
	s.buckets[randomID] = &secretBucket{
		maskKey:  s.enc.GenSecret(),
		lockKeys: lockKeys,
	}
}

func (s *SecretState) bucket(randomID int) (*secretBucket, error) {
	b, ok := s.buckets[randomID]
	if !ok {
		return nil, fmt.Errorf("random: no secrets generated for random id %d", randomID)
	}
	return b, nil
}

func cloneItems(items [][]byte) [][]byte {
	out := make([][]byte, len(items))
	for i, it := range items {
		out[i] = append([]byte(nil), it...)
	}
	return out
}

// Mask applies this node's mask key to every ciphertext, in place over a
// copy of the input.
func (s *SecretState) Mask(randomID int, ciphertexts [][]byte) ([][]byte, error) {
	b, err := s.bucket(randomID)
	if err != nil {
		return nil, err
	}
	out := cloneItems(ciphertexts)
	for _, item := range out {
		s.enc.Apply(b.maskKey, item)
	}
	return out, nil
}

// Unmask reverses Mask: the keystream is involutive, so applying the same
// mask key a second time recovers the original bytes.
func (s *SecretState) Unmask(randomID int, ciphertexts [][]byte) ([][]byte, error) {
	return s.Mask(randomID, ciphertexts)
}

// Lock removes this node's mask and applies its per-item lock key,
// returning the new ciphertext alongside a digest of it so a later
// verifier can confirm the revealed secret decrypts to the committed
// value.
func (s *SecretState) Lock(randomID int, ciphertexts [][]byte) ([]CiphertextAndDigest, error) {
	b, err := s.bucket(randomID)
	if err != nil {
		return nil, err
	}
	if len(ciphertexts) != len(b.lockKeys) {
		return nil, fmt.Errorf("random: lock: expected %d items, got %d", len(b.lockKeys), len(ciphertexts))
	}
	out := make([]CiphertextAndDigest, len(ciphertexts))
	for i, item := range ciphertexts {
		buf := append([]byte(nil), item...)
		s.enc.Apply(b.maskKey, buf)
		s.enc.Apply(b.lockKeys[i], buf)
		out[i] = CiphertextAndDigest{Ciphertext: buf, Digest: s.enc.Digest(buf)}
	}
	return out, nil
}

// ShareSecret returns this node's lock key for index, to be delivered to
// an assignee or published for a public reveal.
func (s *SecretState) ShareSecret(randomID int, index int) (encryptor.SecretKey, error) {
	b, err := s.bucket(randomID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(b.lockKeys) {
		return nil, ErrInvalidIndex
	}
	return b.lockKeys[index], nil
}

// DecryptWithSecrets recovers a plaintext option by applying all
// contributed lock-key secrets (from every owner, in owner order) to a
// locked ciphertext.
func (s *SecretState) DecryptWithSecrets(ciphertext []byte, secrets []encryptor.SecretKey) []byte {
	buf := append([]byte(nil), ciphertext...)
	s.enc.ApplyMulti(secrets, buf)
	return buf
}
