package event

import (
	"bytes"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	toAddr := "bob"
	cases := []Event{
		Custom(7, []byte("deposit:1000")),
		Ready(),
		ShareSecrets([]SecretShare{
			{FromAddr: "alice", ToAddr: nil, RandomID: 1, Index: 0, Secret: []byte("s0")},
			{FromAddr: "alice", ToAddr: &toAddr, RandomID: 1, Index: 1, DecisionID: 4, Secret: []byte("s1")},
		}),
		RandomnessReady(3),
		SecretsReady(),
		OperationTimeout([]int{1, 2, 3}),
		ActionTimeout(5),
		WaitingTimeout(),
		Sync(),
		ServerLeave(2),
		Leave(9),
		GameStart(),
		Shutdown(),
		Bridge(11, []byte("payload")),
		SubGameReady(),
		AnswerDecision(6, "alice", []byte("cipher"), []byte("digest")),
	}

	for _, want := range cases {
		raw := Encode(want)
		got, err := Decode(raw)
		if err != nil {
			t.Fatalf("decode %v: %v", want.Kind, err)
		}
		if !eventsEqual(want, got) {
			t.Fatalf("round trip mismatch for %v: want %+v, got %+v", want.Kind, want, got)
		}
	}
}

func TestLeaveAndServerLeaveCarryPlayerID(t *testing.T) {
	for _, ev := range []Event{Leave(42), ServerLeave(42)} {
		got, err := Decode(Encode(ev))
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.PlayerID != 42 {
			t.Fatalf("expected PlayerID 42 to survive the wire, got %d", got.PlayerID)
		}
	}
}

func eventsEqual(a, b Event) bool {
	if a.Kind != b.Kind || a.Sender != b.Sender || !bytes.Equal(a.Raw, b.Raw) ||
		a.RandomID != b.RandomID || a.PlayerID != b.PlayerID || a.Dest != b.Dest ||
		a.DecisionID != b.DecisionID || a.Owner != b.Owner ||
		!bytes.Equal(a.Ciphertext, b.Ciphertext) || !bytes.Equal(a.Digest, b.Digest) {
		return false
	}
	if len(a.IDs) != len(b.IDs) {
		return false
	}
	for i := range a.IDs {
		if a.IDs[i] != b.IDs[i] {
			return false
		}
	}
	if len(a.Secrets) != len(b.Secrets) {
		return false
	}
	for i := range a.Secrets {
		sa, sb := a.Secrets[i], b.Secrets[i]
		if sa.FromAddr != sb.FromAddr || sa.RandomID != sb.RandomID || sa.Index != sb.Index ||
			sa.DecisionID != sb.DecisionID || !bytes.Equal(sa.Secret, sb.Secret) {
			return false
		}
		if (sa.ToAddr == nil) != (sb.ToAddr == nil) {
			return false
		}
		if sa.ToAddr != nil && *sa.ToAddr != *sb.ToAddr {
			return false
		}
	}
	return true
}
