package random

import "testing"

func TestTryNewSetsInitialMaskingStatus(t *testing.T) {
	spec := NewShuffledList([]string{"a", "b", "c"})
	state, err := TryNew(0, spec, []string{"alice", "bob", "charlie"})
	if err != nil {
		t.Fatalf("try_new: %v", err)
	}
	if len(state.Masks) != 3 {
		t.Fatalf("expected 3 masks, got %d", len(state.Masks))
	}
	if state.Status.Kind != StatusMasking || state.Status.Addr != "alice" {
		t.Fatalf("unexpected initial status: %+v", state.Status)
	}
}

func TestTryNewRejectsEmptyOwners(t *testing.T) {
	spec := NewShuffledList([]string{"a"})
	if _, err := TryNew(0, spec, nil); err != ErrNoEnoughOwners {
		t.Fatalf("expected ErrNoEnoughOwners, got %v", err)
	}
}

func TestMaskAdvancesThroughAllOwners(t *testing.T) {
	spec := NewShuffledList([]string{"a", "b", "c"})
	state, err := TryNew(0, spec, []string{"alice", "bob"})
	if err != nil {
		t.Fatalf("try_new: %v", err)
	}

	if err := state.Mask("alice", [][]byte{{1}, {2}, {3}}); err != nil {
		t.Fatalf("mask(alice): %v", err)
	}
	if state.Status.Kind != StatusMasking || state.Status.Addr != "bob" {
		t.Fatalf("expected Masking(bob), got %+v", state.Status)
	}
	if state.IsFullyMasked() {
		t.Fatalf("expected not fully masked yet")
	}

	if err := state.Mask("bob", [][]byte{{1}, {2}, {3}}); err != nil {
		t.Fatalf("mask(bob): %v", err)
	}
	if state.Status.Kind != StatusLocking || state.Status.Addr != "alice" {
		t.Fatalf("expected Locking(alice), got %+v", state.Status)
	}
	if !state.IsFullyMasked() {
		t.Fatalf("expected fully masked")
	}
}

func TestMaskRejectsWrongProviderAndDuplicate(t *testing.T) {
	spec := NewShuffledList([]string{"a", "b"})
	state, _ := TryNew(0, spec, []string{"alice", "bob"})

	if err := state.Mask("bob", [][]byte{{1}, {2}}); err != ErrInvalidMaskProvider {
		t.Fatalf("expected ErrInvalidMaskProvider, got %v", err)
	}
	if err := state.Mask("alice", [][]byte{{1}, {2}}); err != nil {
		t.Fatalf("mask(alice): %v", err)
	}
	if err := state.Mask("alice", [][]byte{{1}, {2}}); err != ErrInvalidMaskProvider {
		t.Fatalf("expected ErrInvalidMaskProvider for repeat alice, got %v", err)
	}
}

func TestLockFailsBeforeAllMasksAppliedThenSucceeds(t *testing.T) {
	spec := NewShuffledList([]string{"a", "b", "c"})
	state, _ := TryNew(0, spec, []string{"alice", "bob"})

	_ = state.Mask("alice", [][]byte{{1}, {2}, {3}})

	pairs := []CiphertextAndDigest{
		{Ciphertext: []byte{1}, Digest: []byte{1}},
		{Ciphertext: []byte{2}, Digest: []byte{2}},
		{Ciphertext: []byte{3}, Digest: []byte{3}},
	}
	if err := state.Lock("alice", pairs); err != ErrInvalidCipherStatus {
		t.Fatalf("expected ErrInvalidCipherStatus before masking complete, got %v", err)
	}

	_ = state.Mask("bob", [][]byte{{1}, {2}, {3}})
	if state.Status.Kind != StatusLocking || state.Status.Addr != "alice" {
		t.Fatalf("expected Locking(alice), got %+v", state.Status)
	}

	if err := state.Lock("alice", pairs); err != nil {
		t.Fatalf("lock(alice): %v", err)
	}
	if state.Status.Kind != StatusLocking || state.Status.Addr != "bob" {
		t.Fatalf("expected Locking(bob), got %+v", state.Status)
	}
	if state.IsFullyLocked() {
		t.Fatalf("expected not fully locked yet")
	}

	if err := state.Lock("bob", pairs); err != nil {
		t.Fatalf("lock(bob): %v", err)
	}
	if state.Status.Kind != StatusReady {
		t.Fatalf("expected Ready, got %+v", state.Status)
	}
	if !state.IsFullyLocked() {
		t.Fatalf("expected fully locked")
	}
}

func TestAssignThenAddSecretReachesReady(t *testing.T) {
	spec := NewShuffledList([]string{"a", "b"})
	state, _ := TryNew(0, spec, []string{"alice", "bob"})
	_ = state.Mask("alice", [][]byte{{1}, {2}})
	_ = state.Mask("bob", [][]byte{{1}, {2}})
	_ = state.Lock("alice", []CiphertextAndDigest{{Ciphertext: []byte{1}, Digest: []byte{9}}, {Ciphertext: []byte{2}, Digest: []byte{9}}})
	_ = state.Lock("bob", []CiphertextAndDigest{{Ciphertext: []byte{1}, Digest: []byte{9}}, {Ciphertext: []byte{2}, Digest: []byte{9}}})

	if err := state.Assign("player-1", []int{0}); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if state.Status.Kind != StatusWaitingSecrets {
		t.Fatalf("expected WaitingSecrets, got %+v", state.Status)
	}
	if len(state.SecretShares) != 2 {
		t.Fatalf("expected 2 secret shares (one per owner), got %d", len(state.SecretShares))
	}

	to := "player-1"
	if err := state.AddSecret("alice", &to, 0, []byte("s1")); err != nil {
		t.Fatalf("add_secret(alice): %v", err)
	}
	if state.Status.Kind != StatusWaitingSecrets {
		t.Fatalf("expected still WaitingSecrets, got %+v", state.Status)
	}
	if err := state.AddSecret("bob", &to, 0, []byte("s2")); err != nil {
		t.Fatalf("add_secret(bob): %v", err)
	}
	if state.Status.Kind != StatusReady {
		t.Fatalf("expected Ready, got %+v", state.Status)
	}
}

func TestAssignRejectsAlreadyAssignedIndex(t *testing.T) {
	spec := NewShuffledList([]string{"a", "b"})
	state, _ := TryNew(0, spec, []string{"alice"})
	_ = state.Mask("alice", [][]byte{{1}, {2}})
	_ = state.Lock("alice", []CiphertextAndDigest{{Ciphertext: []byte{1}, Digest: []byte{9}}, {Ciphertext: []byte{2}, Digest: []byte{9}}})

	if err := state.Assign("player-1", []int{0}); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if err := state.Assign("player-2", []int{0}); err != ErrCiphertextAlreadyOwned {
		t.Fatalf("expected ErrCiphertextAlreadyOwned, got %v", err)
	}
}
