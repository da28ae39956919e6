package gcrypto

import "testing"

func TestElGamalEncryptDecryptRoundtrips(t *testing.T) {
	sk := ScalarFromUint64(7)
	pk := MulBase(sk)
	m := MulBase(ScalarFromUint64(99))
	r := ScalarFromUint64(55)

	ct, err := ElGamalEncrypt(pk, m, r)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	got := ElGamalDecrypt(sk, ct)
	if !PointEq(got, m) {
		t.Fatalf("decrypt mismatch")
	}
}

func TestReencryptPreservesPlaintext(t *testing.T) {
	sk := ScalarFromUint64(3)
	pk := MulBase(sk)
	m := MulBase(ScalarFromUint64(42))
	ct, err := ElGamalEncrypt(pk, m, ScalarFromUint64(11))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	reenc := Reencrypt(pk, ct, ScalarFromUint64(123))
	if PointEq(reenc.C1, ct.C1) {
		t.Fatalf("expected c1 to change")
	}
	if !PointEq(ElGamalDecrypt(sk, reenc), m) {
		t.Fatalf("reencrypt changed plaintext")
	}
}

func TestChaumPedersenProveVerifyRoundtrips(t *testing.T) {
	x := ScalarFromUint64(17)
	y := MulBase(x)
	c1 := MulBase(ScalarFromUint64(5))
	d := MulPoint(c1, x)
	w := ScalarFromUint64(9001)

	proof, err := ChaumPedersenProve(y, c1, d, x, w)
	if err != nil {
		t.Fatalf("prove: %v", err)
	}
	ok, err := ChaumPedersenVerify(y, c1, d, proof)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok {
		t.Fatalf("expected valid proof")
	}
}

func TestChaumPedersenVerifyRejectsWrongDiscreteLog(t *testing.T) {
	x := ScalarFromUint64(17)
	y := MulBase(x)
	c1 := MulBase(ScalarFromUint64(5))
	wrongD := MulPoint(c1, ScalarFromUint64(18))
	w := ScalarFromUint64(9001)

	proof, err := ChaumPedersenProve(y, c1, wrongD, x, w)
	if err != nil {
		t.Fatalf("prove: %v", err)
	}
	ok, err := ChaumPedersenVerify(y, c1, wrongD, proof)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if ok {
		t.Fatalf("expected invalid proof to be rejected")
	}
}

func TestChaumPedersenEncodeDecodeRoundtrips(t *testing.T) {
	x := ScalarFromUint64(3)
	y := MulBase(x)
	c1 := MulBase(ScalarFromUint64(4))
	d := MulPoint(c1, x)
	proof, err := ChaumPedersenProve(y, c1, d, x, ScalarFromUint64(8))
	if err != nil {
		t.Fatalf("prove: %v", err)
	}
	enc := EncodeChaumPedersenProof(proof)
	if len(enc) != 96 {
		t.Fatalf("expected 96 bytes, got %d", len(enc))
	}
	dec, err := DecodeChaumPedersenProof(enc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !PointEq(dec.A, proof.A) || !PointEq(dec.B, proof.B) {
		t.Fatalf("decoded proof mismatch")
	}
}

func TestHashToScalarIsDeterministic(t *testing.T) {
	a, err := HashToScalar("test", []byte("foo"))
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	b, err := HashToScalar("test", []byte("foo"))
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if a.Bytes() == nil || b.Bytes() == nil {
		t.Fatalf("unexpected nil")
	}
	if string(a.Bytes()) != string(b.Bytes()) {
		t.Fatalf("expected deterministic output")
	}
}
