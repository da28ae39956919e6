package handler

import "testing"

func TestEffectAssignAndRevealAccumulate(t *testing.T) {
	e := &Effect{CurrRandomID: 1, CurrDecisionID: 1}
	id := e.InitRandomState(InitRandomState{Options: []string{"a", "b"}, Size: 2})
	if id != 1 {
		t.Fatalf("expected random id 1, got %d", id)
	}
	e.Assign(id, 0, []int{0, 1})
	e.Reveal(id, []int{0})
	if len(e.Assigns) != 1 || len(e.Reveals) != 1 {
		t.Fatalf("expected one assign and one reveal recorded")
	}
}

func TestEffectAskAllocatesIncreasingDecisionIDs(t *testing.T) {
	e := &Effect{CurrDecisionID: 1}
	first := e.Ask(0)
	second := e.Ask(1)
	if first == second {
		t.Fatalf("expected distinct decision ids, got %d and %d", first, second)
	}
	if second != first+1 {
		t.Fatalf("expected sequential ids, got %d then %d", first, second)
	}
}

func TestEncodeDecodeEffectRoundtrips(t *testing.T) {
	e := &Effect{
		Timestamp:      1234,
		CurrRandomID:   2,
		CurrDecisionID: 3,
		NodesCount:     4,
		StartGame:      true,
		AllowExit:      true,
		IsCheckpoint:   true,
		Checkpoint:     []byte{1, 2, 3},
		HandlerState:   []byte{9, 9},
		Error:          "boom",
	}
	b := EncodeEffect(e)
	got, err := DecodeEffect(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Timestamp != e.Timestamp || got.CurrRandomID != e.CurrRandomID || got.Error != e.Error {
		t.Fatalf("roundtrip mismatch: got %+v want %+v", got, e)
	}
	if string(got.Checkpoint) != string(e.Checkpoint) {
		t.Fatalf("checkpoint mismatch")
	}
}
