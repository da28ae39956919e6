// Package decision implements DecisionState: a single-owner hidden
// commitment used when a player makes an encrypted choice whose secret is
// only released later, by the handler calling Release.
package decision

import (
	"errors"

	"github.com/race-sub000/gamecore/internal/encryptor"
)

var (
	ErrAlreadyAnswered  = errors.New("decision: already answered")
	ErrNotAnswered      = errors.New("decision: not yet answered")
	ErrNotReleased      = errors.New("decision: not yet released")
	ErrAlreadyHasSecret = errors.New("decision: secret already delivered")
)

// DecisionState tracks one hidden decision end to end: a player answers
// with a ciphertext and a digest of it, the handler later calls Release to
// permit the secret to be shared, and once the owning player's secret
// arrives the plaintext can be recovered.
type DecisionState struct {
	ID        int
	Owner     string
	Ciphertext []byte
	Digest     []byte
	answered   bool
	released   bool
	secret     encryptor.SecretKey
	plaintext  []byte
}

func New(id int, owner string) *DecisionState {
	return &DecisionState{ID: id, Owner: owner}
}

// Answer records the player's encrypted choice. May only happen once.
func (d *DecisionState) Answer(ciphertext []byte, digest []byte) error {
	if d.answered {
		return ErrAlreadyAnswered
	}
	d.Ciphertext = ciphertext
	d.Digest = digest
	d.answered = true
	return nil
}

// Release permits the owner's secret to be shared. Requires an answer to
// already be on file.
func (d *DecisionState) Release() error {
	if !d.answered {
		return ErrNotAnswered
	}
	d.released = true
	return nil
}

func (d *DecisionState) IsAnswered() bool { return d.answered }
func (d *DecisionState) IsReleased() bool { return d.released }

// AddSecret delivers the owner's key, recovering the plaintext from the
// committed ciphertext via the encryptor capability.
func (d *DecisionState) AddSecret(enc encryptor.Encryptor, secret encryptor.SecretKey) error {
	if !d.released {
		return ErrNotReleased
	}
	if d.secret != nil {
		return ErrAlreadyHasSecret
	}
	d.secret = secret
	buf := append([]byte(nil), d.Ciphertext...)
	enc.Apply(secret, buf)
	d.plaintext = buf
	return nil
}

// GetAnswer returns the recovered plaintext, if the secret has arrived.
func (d *DecisionState) GetAnswer() ([]byte, bool) {
	if d.plaintext == nil {
		return nil, false
	}
	return d.plaintext, true
}
