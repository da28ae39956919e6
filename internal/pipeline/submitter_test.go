package pipeline

import (
	"context"
	"testing"

	"github.com/go-kit/log"

	"github.com/race-sub000/gamecore/internal/handler"
)

type fakeStorage struct {
	saved map[uint64][]byte
	err   error
}

func newFakeStorage() *fakeStorage { return &fakeStorage{saved: make(map[uint64][]byte)} }

func (f *fakeStorage) SaveCheckpoint(ctx context.Context, gameAddr string, settleVersion uint64, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.saved[settleVersion] = data
	return nil
}

func (f *fakeStorage) LoadCheckpoint(ctx context.Context, gameAddr string, settleVersion uint64) ([]byte, error) {
	return f.saved[settleVersion], nil
}

type fakeTransport struct {
	settles []SettleDetails
	sig     string
	err     error
}

func (f *fakeTransport) SettleGame(ctx context.Context, gameAddr string, details SettleDetails) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.settles = append(f.settles, details)
	return f.sig, nil
}

func (f *fakeTransport) SubscribeGameAccount(ctx context.Context, gameAddr string) (<-chan GameAccountUpdate, error) {
	return nil, nil
}

func (f *fakeTransport) ResolveCredentials(ctx context.Context, addr string) (string, error) {
	return "pubkey:" + addr, nil
}

func TestFoldSettleDetailsMergesSettlesByAddr(t *testing.T) {
	batch := []SettleDetails{
		{GameAddr: "g", SettleVersion: 1, NextSettleVersion: 2, Settles: []handler.SettleWithAddr{
			{Addr: "alice", Op: handler.SettleAdd, Amount: 10},
		}},
		{GameAddr: "g", SettleVersion: 2, NextSettleVersion: 3, Settles: []handler.SettleWithAddr{
			{Addr: "alice", Op: handler.SettleAdd, Amount: 5},
		}},
	}
	folded := foldSettleDetails(batch)
	if len(folded.Settles) != 1 {
		t.Fatalf("expected one merged settle, got %d", len(folded.Settles))
	}
	if folded.Settles[0].Amount != 15 {
		t.Fatalf("expected amount 15, got %d", folded.Settles[0].Amount)
	}
	if folded.SettleVersion != 1 {
		t.Fatalf("expected folded settle version to be the oldest (1), got %d", folded.SettleVersion)
	}
	if folded.NextSettleVersion != 3 {
		t.Fatalf("expected next settle version 3, got %d", folded.NextSettleVersion)
	}
}

func TestFoldSettleDetailsSumsTransfersAndConcatenatesAwards(t *testing.T) {
	batch := []SettleDetails{
		{SettleVersion: 1, NextSettleVersion: 2, Transfers: []handler.Transfer{{Addr: "bob", Amount: 100}}, Awards: []string{"a"}},
		{SettleVersion: 2, NextSettleVersion: 3, Transfers: []handler.Transfer{{Addr: "bob", Amount: 50}}, Awards: []string{"b"}},
	}
	folded := foldSettleDetails(batch)
	if len(folded.Transfers) != 1 || folded.Transfers[0].Amount != 150 {
		t.Fatalf("expected summed transfer of 150, got %+v", folded.Transfers)
	}
	if len(folded.Awards) != 2 || folded.Awards[0] != "a" || folded.Awards[1] != "b" {
		t.Fatalf("expected awards in order, got %v", folded.Awards)
	}
}

func TestShouldStopSquashingOnFirstCheckpoint(t *testing.T) {
	if !shouldStopSquashing(SettleDetails{NextSettleVersion: 1}) {
		t.Fatalf("expected the very first checkpoint to stop squashing")
	}
}

func TestShouldStopSquashingOnEjectOrWithdraw(t *testing.T) {
	if !shouldStopSquashing(SettleDetails{NextSettleVersion: 2, Settles: []handler.SettleWithAddr{{Op: handler.SettleEject}}}) {
		t.Fatalf("expected an eject to stop squashing")
	}
	if !shouldStopSquashing(SettleDetails{NextSettleVersion: 2, Settles: []handler.SettleWithAddr{{Op: handler.SettleSub, Amount: 10}}}) {
		t.Fatalf("expected a non-zero withdrawal to stop squashing")
	}
	if shouldStopSquashing(SettleDetails{NextSettleVersion: 2, Settles: []handler.SettleWithAddr{{Op: handler.SettleAdd, Amount: 10}}}) {
		t.Fatalf("did not expect an add-only checkpoint to stop squashing")
	}
}

func TestSubmitterPersistsAndSubmitsOnShutdown(t *testing.T) {
	storage := newFakeStorage()
	transport := &fakeTransport{sig: "sig1"}
	in := make(chan EventFrame, 4)
	out := make(chan EventFrame, 4)

	s := NewSubmitter(log.NewNopLogger(), storage, transport, "g1", in, out)

	in <- EventFrame{Kind: FrameSettle, SettleDetails: SettleDetails{GameAddr: "g1", SettleVersion: 1, NextSettleVersion: 1, Checkpoint: []byte{1}}}
	close(in)

	s.Run(context.Background())

	if _, ok := storage.saved[1]; !ok {
		t.Fatalf("expected checkpoint to be persisted")
	}
	if len(transport.settles) != 1 {
		t.Fatalf("expected exactly one settle submission, got %d", len(transport.settles))
	}

	select {
	case tx := <-out:
		if !tx.TxState.Ok || tx.TxState.Signature != "sig1" {
			t.Fatalf("unexpected tx state: %+v", tx.TxState)
		}
	default:
		t.Fatalf("expected a TxState frame on out")
	}
}
