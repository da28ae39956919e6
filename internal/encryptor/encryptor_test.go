package encryptor

import "testing"

func TestSignVerifyRoundtrips(t *testing.T) {
	e, err := NewDefault()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	text := []byte("hello")
	sig, err := e.SignRaw(text)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if err := e.VerifyRaw(nil, text, sig); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestSignVerifyEnvelopeRoundtrips(t *testing.T) {
	e, err := NewDefault()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	text := []byte("hello")
	sig, err := e.Sign(text, "node-a")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if sig.Signer != "node-a" {
		t.Fatalf("signer mismatch")
	}
	der, err := e.ExportPublicKey(nil)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if err := e.AddPublicKey("node-a", der); err != nil {
		t.Fatalf("add public key: %v", err)
	}
	if err := e.Verify(text, sig); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestEncryptDecryptRoundtrips(t *testing.T) {
	e, err := NewDefault()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	text := []byte("hello")
	ct, err := e.Encrypt(nil, text)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	pt, err := e.Decrypt(ct)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if string(pt) != string(text) {
		t.Fatalf("decrypt mismatch: got %q want %q", pt, text)
	}
}

func TestApplyIsSymmetricAndCommutes(t *testing.T) {
	e, err := NewDefault()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	text := []byte("hello")

	secret1 := e.GenSecret()
	secret2 := e.GenSecret()

	buffer := append([]byte(nil), text...)
	e.Apply(secret1, buffer)
	e.Apply(secret2, buffer)
	e.Apply(secret1, buffer)
	e.Apply(secret2, buffer)

	if string(buffer) != string(text) {
		t.Fatalf("apply did not roundtrip: got %q want %q", buffer, text)
	}
}

func TestApplyMultiMatchesSequentialApply(t *testing.T) {
	e, err := NewDefault()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	text := []byte("a secret message")

	s1 := e.GenSecret()
	s2 := e.GenSecret()
	s3 := e.GenSecret()

	seq := append([]byte(nil), text...)
	e.Apply(s1, seq)
	e.Apply(s2, seq)
	e.Apply(s3, seq)

	multi := append([]byte(nil), text...)
	e.ApplyMulti([]SecretKey{s1, s2, s3}, multi)

	if string(seq) != string(multi) {
		t.Fatalf("apply_multi mismatch")
	}
}

func TestDigestIsDeterministic(t *testing.T) {
	e, err := NewDefault()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	a := e.Digest([]byte("payload"))
	b := e.Digest([]byte("payload"))
	if string(a) != string(b) {
		t.Fatalf("digest not deterministic")
	}
}

func TestExportAndAddPublicKeyRoundtrips(t *testing.T) {
	e, err := NewDefault()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	der, err := e.ExportPublicKey(nil)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if err := e.AddPublicKey("node-b", der); err != nil {
		t.Fatalf("add: %v", err)
	}
}
