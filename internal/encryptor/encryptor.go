// Package encryptor implements the Encryptor capability: an asymmetric
// keypair for addressed encryption and signing, plus a symmetric stream
// cipher used to mask and lock randomness in the Mental Poker engine.
//
// The capability boundary is deliberate: callers depend on the Encryptor
// interface, never on this package's RSA/ChaCha20 choices directly, so a
// different capability implementation (an HSM-backed signer, a platform
// KMS) can be substituted without touching internal/random or
// internal/gamectx.
package encryptor

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	mrand "math/rand"
	"sync"
	"time"

	"golang.org/x/crypto/chacha20"
)

// SecretKey is a ChaCha20 key+nonce pair: 32 bytes of key followed by 12
// bytes of nonce.
type SecretKey []byte

const secretKeyLen = chacha20.KeySize + chacha20.NonceSize

// SecretDigest is a content digest over ciphertext bytes, used to let
// players verify that revealed secrets decrypt to the committed mask.
type SecretDigest []byte

// Signature is a detached, replay-resistant signature: the signed message
// is the caller's payload concatenated with a random nonce and a
// millisecond timestamp, so the same payload signed twice never produces
// the same signature bytes.
type Signature struct {
	Signer    string
	Nonce     string
	Timestamp int64
	Signature string
}

// Encryptor is the capability every component in the pipeline depends on
// for keypair operations, stream-cipher masking, shuffling and digesting.
// It must be safe for concurrent use.
type Encryptor interface {
	GenSecret() SecretKey
	Encrypt(addr *string, text []byte) ([]byte, error)
	Decrypt(text []byte) ([]byte, error)
	SignRaw(message []byte) ([]byte, error)
	Sign(message []byte, signer string) (Signature, error)
	VerifyRaw(addr *string, message []byte, signature []byte) error
	Verify(message []byte, sig Signature) error
	Apply(secret SecretKey, buffer []byte)
	ApplyMulti(secrets []SecretKey, buffer []byte)
	Shuffle(items []int) []int
	AddPublicKey(addr string, derHex string) error
	ExportPublicKey(addr *string) (string, error)
	Digest(text []byte) SecretDigest
}

// RSAChaCha20Encryptor is the reference Encryptor: RSA-2048 PKCS1v15 for
// addressed encryption and signing, ChaCha20 for stream-cipher masking.
type RSAChaCha20Encryptor struct {
	privateKey       *rsa.PrivateKey
	defaultPublicKey *rsa.PublicKey

	mu         sync.Mutex
	publicKeys map[string]*rsa.PublicKey
}

var _ Encryptor = (*RSAChaCha20Encryptor)(nil)

func New(privateKey *rsa.PrivateKey) *RSAChaCha20Encryptor {
	return &RSAChaCha20Encryptor{
		privateKey:       privateKey,
		defaultPublicKey: &privateKey.PublicKey,
		publicKeys:       make(map[string]*rsa.PublicKey),
	}
}

func NewDefault() (*RSAChaCha20Encryptor, error) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("encryptor: key gen failed: %w", err)
	}
	return New(priv), nil
}

func (e *RSAChaCha20Encryptor) GenSecret() SecretKey {
	secret := make([]byte, secretKeyLen)
	_, _ = rand.Read(secret)
	return secret
}

func (e *RSAChaCha20Encryptor) lookupPublicKey(addr *string) (*rsa.PublicKey, error) {
	if addr == nil {
		return e.defaultPublicKey, nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	pk, ok := e.publicKeys[*addr]
	if !ok {
		return nil, fmt.Errorf("encryptor: public key not found for %q", *addr)
	}
	return pk, nil
}

func (e *RSAChaCha20Encryptor) Encrypt(addr *string, text []byte) ([]byte, error) {
	pub, err := e.lookupPublicKey(addr)
	if err != nil {
		return nil, err
	}
	ct, err := rsa.EncryptPKCS1v15(rand.Reader, pub, text)
	if err != nil {
		return nil, fmt.Errorf("encryptor: rsa encrypt failed: %w", err)
	}
	return ct, nil
}

func (e *RSAChaCha20Encryptor) Decrypt(text []byte) ([]byte, error) {
	pt, err := rsa.DecryptPKCS1v15(rand.Reader, e.privateKey, text)
	if err != nil {
		return nil, fmt.Errorf("encryptor: rsa decrypt failed: %w", err)
	}
	return pt, nil
}

func (e *RSAChaCha20Encryptor) SignRaw(message []byte) ([]byte, error) {
	hashed := sha1.Sum(message)
	sig, err := rsa.SignPKCS1v15(rand.Reader, e.privateKey, 0, hashed[:])
	if err != nil {
		return nil, fmt.Errorf("encryptor: sign failed: %w", err)
	}
	return sig, nil
}

func (e *RSAChaCha20Encryptor) Sign(message []byte, signer string) (Signature, error) {
	timestamp := time.Now().UnixMilli()
	nonce := make([]byte, 8)
	_, _ = rand.Read(nonce)

	ts := make([]byte, 8)
	binary.LittleEndian.PutUint64(ts, uint64(timestamp))

	full := make([]byte, 0, len(message)+len(nonce)+len(ts))
	full = append(full, message...)
	full = append(full, nonce...)
	full = append(full, ts...)

	sig, err := e.SignRaw(full)
	if err != nil {
		return Signature{}, err
	}
	return Signature{
		Signer:    signer,
		Nonce:     hex.EncodeToString(nonce),
		Timestamp: timestamp,
		Signature: hex.EncodeToString(sig),
	}, nil
}

func (e *RSAChaCha20Encryptor) VerifyRaw(addr *string, message []byte, signature []byte) error {
	pub, err := e.lookupPublicKey(addr)
	if err != nil {
		return err
	}
	hashed := sha1.Sum(message)
	if err := rsa.VerifyPKCS1v15(pub, 0, hashed[:], signature); err != nil {
		return fmt.Errorf("encryptor: verify failed: %w", err)
	}
	return nil
}

func (e *RSAChaCha20Encryptor) Verify(message []byte, sig Signature) error {
	nonce, err := hex.DecodeString(sig.Nonce)
	if err != nil {
		return fmt.Errorf("encryptor: invalid nonce: %w", err)
	}
	sigBytes, err := hex.DecodeString(sig.Signature)
	if err != nil {
		return fmt.Errorf("encryptor: invalid signature encoding: %w", err)
	}
	ts := make([]byte, 8)
	binary.LittleEndian.PutUint64(ts, uint64(sig.Timestamp))

	full := make([]byte, 0, len(message)+len(nonce)+len(ts))
	full = append(full, message...)
	full = append(full, nonce...)
	full = append(full, ts...)

	signer := sig.Signer
	return e.VerifyRaw(&signer, full, sigBytes)
}

func (e *RSAChaCha20Encryptor) Apply(secret SecretKey, buffer []byte) {
	if len(secret) != secretKeyLen {
		panic(fmt.Sprintf("encryptor: secret must be %d bytes", secretKeyLen))
	}
	cipher, err := chacha20.NewUnauthenticatedCipher(secret[:chacha20.KeySize], secret[chacha20.KeySize:])
	if err != nil {
		panic(fmt.Sprintf("encryptor: chacha20 init failed: %v", err))
	}
	cipher.XORKeyStream(buffer, buffer)
}

func (e *RSAChaCha20Encryptor) ApplyMulti(secrets []SecretKey, buffer []byte) {
	for _, secret := range secrets {
		e.Apply(secret, buffer)
	}
}

// Shuffle returns a Fisher-Yates shuffled copy of items.
func (e *RSAChaCha20Encryptor) Shuffle(items []int) []int {
	out := make([]int, len(items))
	copy(out, items)
	mrand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func (e *RSAChaCha20Encryptor) AddPublicKey(addr string, derHex string) error {
	der, err := hex.DecodeString(derHex)
	if err != nil {
		return fmt.Errorf("encryptor: invalid public key encoding: %w", err)
	}
	pub, err := x509.ParsePKCS1PublicKey(der)
	if err != nil {
		return fmt.Errorf("encryptor: invalid public key: %w", err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.publicKeys[addr] = pub
	return nil
}

func (e *RSAChaCha20Encryptor) ExportPublicKey(addr *string) (string, error) {
	pub, err := e.lookupPublicKey(addr)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(x509.MarshalPKCS1PublicKey(pub)), nil
}

func (e *RSAChaCha20Encryptor) Digest(text []byte) SecretDigest {
	sum := sha1.Sum(text)
	return sum[:]
}
