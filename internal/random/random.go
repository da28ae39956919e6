// Package random implements the Mental Poker randomization engine: the
// public RandomState that tracks the mask/lock/assign/reveal choreography
// for one randomness register, and the per-node SecretState that holds the
// private keys behind a node's masks and locks.
//
// A register is opened in one of two modes. Plain mode (TryNew with a bare
// RandomSpec) trusts each masking/locking node to submit whatever
// ciphertexts it likes, exactly as the pre-distillation implementation did.
// Verifiable mode (TryNew with a VerifiableSpec) seeds the register with
// real ElGamal ciphertexts over internal/gcrypto's ristretto255 group and
// requires MaskVerifiable/LockVerifiable instead of Mask/Lock: a masking
// node must submit an internal/shuffleproof re-encryption shuffle proof
// instead of a bare ciphertext list, and a locking node must submit a
// Chaum-Pedersen proof that its digest is an honest partial decryption
// under its declared public key, so no single node's submission needs to
// be trusted on its own.
//
// Grounded on the pre-distillation implementation in
// _examples/original_source/core/src/random.rs, carried into Go with the
// same state machine, the same error taxonomy, and the same owner-ordering
// rules.
package random

import (
	"errors"
	"fmt"

	"github.com/race-sub000/gamecore/internal/gcrypto"
	"github.com/race-sub000/gamecore/internal/shuffleproof"
)

var (
	ErrInvalidCipherStatus    = errors.New("random: invalid cipher status")
	ErrInvalidMaskProvider    = errors.New("random: invalid mask provider")
	ErrInvalidLockProvider    = errors.New("random: invalid lock provider")
	ErrDuplicatedMask         = errors.New("random: duplicated mask")
	ErrDuplicatedLock         = errors.New("random: duplicated lock")
	ErrInvalidCiphertexts     = errors.New("random: invalid ciphertexts")
	ErrInvalidIndex           = errors.New("random: invalid index")
	ErrCiphertextAlreadyOwned = errors.New("random: ciphertext already assigned")
	ErrDuplicatedSecret       = errors.New("random: duplicated secret")
	ErrInvalidSecret          = errors.New("random: invalid secret")
	ErrSecretsNotReady        = errors.New("random: secrets are not ready")
	ErrNoEnoughOwners         = errors.New("random: no enough owners")
	ErrRandomnessNotFound     = errors.New("random: randomness not found")
	ErrNotVerifiable          = errors.New("random: register was not opened in verifiable mode")
	ErrInvalidOwnerKey        = errors.New("random: missing owner public key")
	ErrInvalidShuffleProof    = errors.New("random: invalid shuffle proof")
	ErrInvalidLockProof       = errors.New("random: invalid lock proof")
)

// RandomSpec describes the plaintext domain of a randomness register: a
// fixed ordered list of options, e.g. the 52 cards of a deck or the two
// outcomes of a coin flip.
type RandomSpec interface {
	Options() []string
	Size() int
}

// ShuffledList is a RandomSpec whose plaintext domain is an explicit,
// caller-supplied list of option strings.
type ShuffledList struct {
	options []string
}

func NewShuffledList(options []string) *ShuffledList {
	cp := append([]string(nil), options...)
	return &ShuffledList{options: cp}
}

func (s *ShuffledList) Options() []string { return s.options }
func (s *ShuffledList) Size() int         { return len(s.options) }

// VerifiableSpec wraps a RandomSpec with the owner public keys needed to
// open the register in verifiable mode: TryNew sums ownerKeys for the given
// owners into the register's aggregate ElGamal public key, seeds every
// option as a real ciphertext under that key, and requires
// MaskVerifiable/LockVerifiable rather than Mask/Lock from then on.
type VerifiableSpec struct {
	RandomSpec
	OwnerKeys map[string]gcrypto.Point
}

// DeckOfCards returns the standard 52-card RandomSpec, using a lowercase
// two-character suit+rank code (suit first: h,s,d,c; rank second:
// a,2-9,t,j,q,k), e.g. "ha" or "st".
func DeckOfCards() *ShuffledList {
	ranks := []string{"a", "2", "3", "4", "5", "6", "7", "8", "9", "t", "j", "q", "k"}
	suits := []string{"h", "s", "d", "c"}
	options := make([]string, 0, 52)
	for _, suit := range suits {
		for _, rank := range ranks {
			options = append(options, suit+rank)
		}
	}
	return NewShuffledList(options)
}

type MaskStatus int

const (
	MaskRequired MaskStatus = iota
	MaskApplied
	MaskRemoved
)

type Mask struct {
	Status MaskStatus
	Owner  string
}

func newMask(owner string) Mask { return Mask{Status: MaskRequired, Owner: owner} }

func (m Mask) IsRequired() bool { return m.Status == MaskRequired }
func (m Mask) IsRemoved() bool  { return m.Status == MaskRemoved }

type Lock struct {
	Digest []byte
	Owner  string
}

// CipherOwnerKind classifies who may currently see a ciphertext's
// plaintext.
type CipherOwnerKind int

const (
	CipherUnclaimed CipherOwnerKind = iota
	CipherAssigned
	CipherMultiAssigned
	CipherRevealed
)

type CipherOwner struct {
	Kind    CipherOwnerKind
	Players []string // one entry for Assigned, many for MultiAssigned, unused otherwise
}

func cipherUnclaimed() CipherOwner { return CipherOwner{Kind: CipherUnclaimed} }

func (o CipherOwner) IsAssignedOrRevealed() bool {
	return o.Kind == CipherAssigned || o.Kind == CipherRevealed
}

type LockedCiphertext struct {
	Locks      []Lock
	Owner      CipherOwner
	Ciphertext []byte
}

func newLockedCiphertext(text []byte) LockedCiphertext {
	return LockedCiphertext{Owner: cipherUnclaimed(), Ciphertext: text}
}

// Share is a required or fulfilled secret delivery: one per (from-addr,
// index) for a reveal, or one per (from-addr, to-addr, index) for an
// assignment.
type Share struct {
	FromAddr string
	ToAddr   *string // nil means publicly revealed
	Index    int
	Secret   []byte // nil means missing
}

type RandomStatusKind int

const (
	StatusReady RandomStatusKind = iota
	StatusLocking
	StatusMasking
	StatusWaitingSecrets
)

type RandomStatus struct {
	Kind RandomStatusKind
	Addr string // meaningful for Locking/Masking
}

func statusMasking(addr string) RandomStatus { return RandomStatus{Kind: StatusMasking, Addr: addr} }
func statusLocking(addr string) RandomStatus { return RandomStatus{Kind: StatusLocking, Addr: addr} }

// RandomState is the public choreography record for one randomness
// register: masks, ciphertexts, owners and pending secret shares.
type RandomState struct {
	ID           int
	Size         int
	Owners       []string
	Options      []string
	Status       RandomStatus
	Masks        []Mask
	Ciphertexts  []LockedCiphertext
	SecretShares []Share
	Revealed     map[int]string

	// Verifiable, PublicKey and OwnerKeys are set when the register was
	// opened with a VerifiableSpec; Mask/Lock are then rejected in favor
	// of MaskVerifiable/LockVerifiable.
	Verifiable bool
	PublicKey  gcrypto.Point
	OwnerKeys  map[string]gcrypto.Point
}

func (s *RandomState) IsFullyMasked() bool {
	for _, m := range s.Masks {
		if m.IsRequired() {
			return false
		}
	}
	return true
}

func (s *RandomState) IsFullyLocked() bool {
	for _, m := range s.Masks {
		if !m.IsRemoved() {
			return false
		}
	}
	return true
}

func (s *RandomState) GetCiphertext(index int) (*LockedCiphertext, bool) {
	if index < 0 || index >= len(s.Ciphertexts) {
		return nil, false
	}
	return &s.Ciphertexts[index], true
}

// TryNew creates a RandomState for spec, with the given owners in their
// joining order. The initial status is Masking(owners[0]). If spec is a
// VerifiableSpec, every owner must have an entry in its OwnerKeys and the
// register is seeded with real ElGamal ciphertexts under the owners'
// summed public key.
func TryNew(id int, spec RandomSpec, owners []string) (*RandomState, error) {
	if len(owners) == 0 {
		return nil, ErrNoEnoughOwners
	}
	options := spec.Options()

	vs, verifiable := spec.(VerifiableSpec)
	var pk gcrypto.Point
	var ownerKeys map[string]gcrypto.Point
	if verifiable {
		ownerKeys = vs.OwnerKeys
		pk = gcrypto.PointZero()
		for _, o := range owners {
			y, ok := ownerKeys[o]
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrInvalidOwnerKey, o)
			}
			pk = gcrypto.PointAdd(pk, y)
		}
	}

	ciphertexts := make([]LockedCiphertext, len(options))
	for i, o := range options {
		if !verifiable {
			ciphertexts[i] = newLockedCiphertext([]byte(o))
			continue
		}
		ct, err := encryptOption(pk, id, i, o)
		if err != nil {
			return nil, fmt.Errorf("random: seed verifiable option %d: %w", i, err)
		}
		ciphertexts[i] = newLockedCiphertext(ct.Bytes())
	}
	masks := make([]Mask, len(owners))
	for i, o := range owners {
		masks[i] = newMask(o)
	}
	return &RandomState{
		ID:           id,
		Size:         spec.Size(),
		Owners:       append([]string(nil), owners...),
		Options:      append([]string(nil), options...),
		Status:       statusMasking(owners[0]),
		Masks:        masks,
		Ciphertexts:  ciphertexts,
		Revealed:     make(map[int]string),
		SecretShares: nil,
		Verifiable:   verifiable,
		PublicKey:    pk,
		OwnerKeys:    ownerKeys,
	}, nil
}

const (
	optionPointDomain = "gamecore/v1/random/option-point"
	optionNonceDomain = "gamecore/v1/random/option-nonce"
)

// encryptOption deterministically encodes option as a curve point and
// encrypts it under pk, deriving the encryption randomness from the
// register id, the option's index and its own text so re-running TryNew
// against the same inputs reproduces the same ciphertexts.
func encryptOption(pk gcrypto.Point, id, index int, option string) (gcrypto.ElGamalCiphertext, error) {
	m, err := gcrypto.HashToPoint(optionPointDomain, []byte(option))
	if err != nil {
		return gcrypto.ElGamalCiphertext{}, err
	}
	nonce := fmt.Sprintf("%d:%d:%s", id, index, option)
	r, err := gcrypto.HashToScalar(optionNonceDomain, pk.Bytes(), []byte(nonce))
	if err != nil {
		return gcrypto.ElGamalCiphertext{}, err
	}
	return gcrypto.ElGamalEncrypt(pk, m, r)
}

// DecodeVerifiableOption matches a fully-locked verifiable-mode ciphertext
// back to its plaintext option. ElGamal messages are group elements, not
// invertible hashes, so this recomputes HashToPoint over spec's option
// list and compares by equality rather than decoding in the other
// direction.
func DecodeVerifiableOption(spec RandomSpec, ciphertext []byte) (string, error) {
	ct, err := gcrypto.ElGamalCiphertextFromBytes(ciphertext)
	if err != nil {
		return "", fmt.Errorf("random: decode revealed ciphertext: %w", err)
	}
	for _, o := range spec.Options() {
		m, err := gcrypto.HashToPoint(optionPointDomain, []byte(o))
		if err != nil {
			return "", err
		}
		if gcrypto.PointEq(m, ct.C2) {
			return o, nil
		}
	}
	return "", ErrInvalidSecret
}

// maskIndexFor checks that addr is the currently required masker and
// returns its index into s.Masks, the precondition shared by Mask and
// MaskVerifiable.
func (s *RandomState) maskIndexFor(addr string) (int, error) {
	if s.Status.Kind != StatusMasking {
		return 0, ErrInvalidCipherStatus
	}
	if s.Status.Addr != addr {
		return 0, ErrInvalidMaskProvider
	}
	idx := findMaskIndex(s.Masks, addr)
	if idx < 0 {
		return 0, ErrInvalidMaskProvider
	}
	if !s.Masks[idx].IsRequired() {
		return 0, ErrDuplicatedMask
	}
	return idx, nil
}

func (s *RandomState) advanceAfterMask(idx int) {
	s.Masks[idx].Status = MaskApplied
	if next := firstRequiredMask(s.Masks); next != nil {
		s.Status = statusMasking(next.Owner)
	} else {
		s.Status = statusLocking(s.Masks[0].Owner)
	}
}

// Mask applies addr's mask to every ciphertext, replacing the stored
// values, then advances to the next Required masker or to Locking once all
// masks are Applied. Rejected once the register was opened in verifiable
// mode; use MaskVerifiable instead.
func (s *RandomState) Mask(addr string, ciphertexts [][]byte) error {
	if s.Verifiable {
		return ErrNotVerifiable
	}
	idx, err := s.maskIndexFor(addr)
	if err != nil {
		return err
	}
	if len(ciphertexts) != len(s.Ciphertexts) {
		return ErrInvalidCiphertexts
	}
	for i := range s.Ciphertexts {
		s.Ciphertexts[i].Ciphertext = ciphertexts[i]
	}
	s.advanceAfterMask(idx)
	return nil
}

// MaskVerifiable is Mask's verifiable-mode counterpart: instead of
// trusting addr's submitted ciphertexts outright, it verifies an
// internal/shuffleproof re-encryption shuffle proof against the register's
// current deck and public key, and only commits the proof's own output
// deck once that check passes.
func (s *RandomState) MaskVerifiable(addr string, proofBytes []byte) error {
	if !s.Verifiable {
		return ErrNotVerifiable
	}
	idx, err := s.maskIndexFor(addr)
	if err != nil {
		return err
	}
	deckIn := make([]gcrypto.ElGamalCiphertext, len(s.Ciphertexts))
	for i, c := range s.Ciphertexts {
		ct, err := gcrypto.ElGamalCiphertextFromBytes(c.Ciphertext)
		if err != nil {
			return fmt.Errorf("random: decode ciphertext %d: %w", i, err)
		}
		deckIn[i] = ct
	}
	res := shuffleproof.Verify(s.PublicKey, deckIn, proofBytes)
	if !res.OK {
		return fmt.Errorf("%w: %s", ErrInvalidShuffleProof, res.Error)
	}
	for i, ct := range res.DeckOut {
		s.Ciphertexts[i].Ciphertext = ct.Bytes()
	}
	s.advanceAfterMask(idx)
	return nil
}

type CiphertextAndDigest struct {
	Ciphertext []byte
	Digest     []byte
}

// lockIndexFor checks that addr is the currently required locker and
// returns its index into s.Masks, the precondition shared by Lock and
// LockVerifiable.
func (s *RandomState) lockIndexFor(addr string) (int, error) {
	if s.Status.Kind != StatusLocking {
		return 0, ErrInvalidCipherStatus
	}
	if s.Status.Addr != addr {
		return 0, ErrInvalidLockProvider
	}
	idx := findMaskIndex(s.Masks, addr)
	if idx < 0 {
		return 0, ErrInvalidLockProvider
	}
	if s.Masks[idx].IsRemoved() {
		return 0, ErrDuplicatedLock
	}
	return idx, nil
}

func (s *RandomState) advanceAfterLock(idx int) {
	s.Masks[idx].Status = MaskRemoved
	if next := firstNonRemovedMask(s.Masks); next != nil {
		s.Status = statusLocking(next.Owner)
	} else {
		s.Status = RandomStatus{Kind: StatusReady}
	}
}

// Lock removes addr's mask and applies addr's per-item lock key, appending
// a Lock record carrying each item's digest. Advances to the next
// non-Removed locker or to Ready once all masks are Removed. Rejected once
// the register was opened in verifiable mode; use LockVerifiable instead.
func (s *RandomState) Lock(addr string, pairs []CiphertextAndDigest) error {
	if s.Verifiable {
		return ErrNotVerifiable
	}
	idx, err := s.lockIndexFor(addr)
	if err != nil {
		return err
	}
	if len(pairs) != len(s.Ciphertexts) {
		return ErrInvalidCiphertexts
	}
	for i := range s.Ciphertexts {
		s.Ciphertexts[i].Ciphertext = pairs[i].Ciphertext
		s.Ciphertexts[i].Locks = append(s.Ciphertexts[i].Locks, Lock{Owner: addr, Digest: pairs[i].Digest})
	}
	s.advanceAfterLock(idx)
	return nil
}

// LockVerifiable is Lock's verifiable-mode counterpart: addr submits, per
// item, the partial-decryption digest d = x*c1 together with a
// Chaum-Pedersen proof that the same secret x sits behind both d and
// addr's declared public key. Once every proof checks out, each
// ciphertext's C2 is peeled by its digest in place (C1 is untouched, as
// only re-encryption during masking changes it) and the digest is
// recorded exactly as Lock does.
func (s *RandomState) LockVerifiable(addr string, digests [][]byte, proofs [][]byte) error {
	if !s.Verifiable {
		return ErrNotVerifiable
	}
	idx, err := s.lockIndexFor(addr)
	if err != nil {
		return err
	}
	if len(digests) != len(s.Ciphertexts) || len(proofs) != len(s.Ciphertexts) {
		return ErrInvalidCiphertexts
	}
	y, ok := s.OwnerKeys[addr]
	if !ok {
		return fmt.Errorf("%w: %s", ErrInvalidOwnerKey, addr)
	}

	peeled := make([]gcrypto.ElGamalCiphertext, len(s.Ciphertexts))
	for i := range s.Ciphertexts {
		ct, err := gcrypto.ElGamalCiphertextFromBytes(s.Ciphertexts[i].Ciphertext)
		if err != nil {
			return fmt.Errorf("random: decode ciphertext %d: %w", i, err)
		}
		d, err := gcrypto.PointFromBytesCanonical(digests[i])
		if err != nil {
			return fmt.Errorf("random: decode digest %d: %w", i, err)
		}
		proof, err := gcrypto.DecodeChaumPedersenProof(proofs[i])
		if err != nil {
			return fmt.Errorf("random: decode lock proof %d: %w", i, err)
		}
		ok, err := gcrypto.ChaumPedersenVerify(y, ct.C1, d, proof)
		if err != nil {
			return fmt.Errorf("random: verify lock proof %d: %w", i, err)
		}
		if !ok {
			return fmt.Errorf("%w: item %d", ErrInvalidLockProof, i)
		}
		peeled[i] = gcrypto.ElGamalCiphertext{C1: ct.C1, C2: gcrypto.PointSub(ct.C2, d)}
	}

	for i := range s.Ciphertexts {
		s.Ciphertexts[i].Ciphertext = peeled[i].Bytes()
		s.Ciphertexts[i].Locks = append(s.Ciphertexts[i].Locks, Lock{Owner: addr, Digest: digests[i]})
	}
	s.advanceAfterLock(idx)
	return nil
}

func (s *RandomState) assignable() bool {
	return s.Status.Kind == StatusReady || s.Status.Kind == StatusWaitingSecrets
}

// Assign grants addr exclusive visibility of the ciphertexts at indexes,
// requiring every owner to eventually deliver a secret share to addr for
// each index.
func (s *RandomState) Assign(addr string, indexes []int) error {
	if !s.assignable() {
		return ErrInvalidCipherStatus
	}
	for _, i := range indexes {
		c, ok := s.GetCiphertext(i)
		if ok && c.Owner.IsAssignedOrRevealed() {
			return ErrCiphertextAlreadyOwned
		}
	}
	for _, i := range indexes {
		if c, ok := s.GetCiphertext(i); ok {
			c.Owner = CipherOwner{Kind: CipherAssigned, Players: []string{addr}}
		}
		to := addr
		for _, o := range s.Owners {
			s.SecretShares = append(s.SecretShares, Share{FromAddr: o, ToAddr: &to, Index: i})
		}
	}
	s.Status = RandomStatus{Kind: StatusWaitingSecrets}
	return nil
}

// Reveal makes the ciphertexts at indexes publicly visible, requiring every
// owner to deliver a public secret share for each index.
func (s *RandomState) Reveal(indexes []int) error {
	if !s.assignable() {
		return ErrInvalidCipherStatus
	}
	for _, i := range indexes {
		c, ok := s.GetCiphertext(i)
		if ok && c.Owner.Kind == CipherRevealed {
			return ErrCiphertextAlreadyOwned
		}
	}
	for _, i := range indexes {
		if c, ok := s.GetCiphertext(i); ok {
			c.Owner = CipherOwner{Kind: CipherRevealed}
		}
		for _, o := range s.Owners {
			s.SecretShares = append(s.SecretShares, Share{FromAddr: o, ToAddr: nil, Index: i})
		}
	}
	s.Status = RandomStatus{Kind: StatusWaitingSecrets}
	return nil
}

// AddSecret fulfills the matching pending share. Once every share has a
// secret, status becomes Ready.
func (s *RandomState) AddSecret(fromAddr string, toAddr *string, index int, secret []byte) error {
	for i := range s.SecretShares {
		ss := &s.SecretShares[i]
		if ss.FromAddr != fromAddr || !sameAddrPtr(ss.ToAddr, toAddr) || ss.Index != index {
			continue
		}
		if ss.Secret != nil {
			return ErrDuplicatedSecret
		}
		if _, ok := s.GetCiphertext(ss.Index); !ok {
			return ErrInvalidSecret
		}
		ss.Secret = secret
		break
	}

	allReady := true
	for _, ss := range s.SecretShares {
		if ss.Secret == nil {
			allReady = false
			break
		}
	}
	if allReady {
		s.Status = RandomStatus{Kind: StatusReady}
	}
	return nil
}

// SecretIdent identifies one pending secret delivery.
type SecretIdent struct {
	FromAddr string
	ToAddr   *string
	RandomID int
	Index    int
}

func (s *RandomState) ListRequiredSecretsByFromAddr(fromAddr string) []SecretIdent {
	var out []SecretIdent
	for _, ss := range s.SecretShares {
		if ss.Secret == nil && ss.FromAddr == fromAddr {
			out = append(out, SecretIdent{FromAddr: ss.FromAddr, ToAddr: ss.ToAddr, RandomID: s.ID, Index: ss.Index})
		}
	}
	return out
}

func (s *RandomState) ListRevealedSecrets() (map[int][][]byte, error) {
	if s.Status.Kind != StatusReady {
		return nil, ErrSecretsNotReady
	}
	out := make(map[int][][]byte)
	for _, ss := range s.SecretShares {
		if ss.ToAddr == nil {
			out[ss.Index] = append(out[ss.Index], ss.Secret)
		}
	}
	return out, nil
}

func (s *RandomState) ListAssignedCiphertexts(addr string) map[int][]byte {
	out := make(map[int][]byte)
	for i, c := range s.Ciphertexts {
		if c.Owner.Kind == CipherAssigned && len(c.Owner.Players) == 1 && c.Owner.Players[0] == addr {
			out[i] = c.Ciphertext
		}
	}
	return out
}

func (s *RandomState) ListRevealedCiphertexts() map[int][]byte {
	out := make(map[int][]byte)
	for i, c := range s.Ciphertexts {
		if c.Owner.Kind == CipherRevealed {
			out[i] = c.Ciphertext
		}
	}
	return out
}

func (s *RandomState) ListSharedSecrets(toAddr string) (map[int][][]byte, error) {
	if s.Status.Kind != StatusReady {
		return nil, ErrSecretsNotReady
	}
	out := make(map[int][][]byte)
	for _, ss := range s.SecretShares {
		if ss.ToAddr != nil && *ss.ToAddr == toAddr {
			out[ss.Index] = append(out[ss.Index], ss.Secret)
		}
	}
	return out, nil
}

func (s *RandomState) AddRevealed(revealed map[int]string) error {
	for index, value := range revealed {
		if index < 0 || index >= s.Size {
			return ErrInvalidIndex
		}
		s.Revealed[index] = value
	}
	return nil
}

func (s *RandomState) GetRevealed() map[int]string { return s.Revealed }

// ListOperatingAddrs returns the distinct addresses this randomness is
// still waiting on: the single masking/locking address while shuffling,
// or every owner with an unfulfilled secret share while WaitingSecrets.
func (s *RandomState) ListOperatingAddrs() []string {
	switch s.Status.Kind {
	case StatusMasking, StatusLocking:
		return []string{s.Status.Addr}
	case StatusWaitingSecrets:
		seen := make(map[string]bool)
		var out []string
		for _, ss := range s.SecretShares {
			if ss.Secret == nil && !seen[ss.FromAddr] {
				seen[ss.FromAddr] = true
				out = append(out, ss.FromAddr)
			}
		}
		return out
	default:
		return nil
	}
}

func findMaskIndex(masks []Mask, owner string) int {
	for i, m := range masks {
		if m.Owner == owner {
			return i
		}
	}
	return -1
}

func firstRequiredMask(masks []Mask) *Mask {
	for i := range masks {
		if masks[i].IsRequired() {
			return &masks[i]
		}
	}
	return nil
}

func firstNonRemovedMask(masks []Mask) *Mask {
	for i := range masks {
		if !masks[i].IsRemoved() {
			return &masks[i]
		}
	}
	return nil
}

func sameAddrPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Error wraps a RandomState operation failure with the randomness id it
// occurred against.
type Error struct {
	RandomID int
	Err      error
}

func (e *Error) Error() string { return fmt.Sprintf("random[%d]: %v", e.RandomID, e.Err) }
func (e *Error) Unwrap() error { return e.Err }
