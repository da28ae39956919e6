package session

import (
	"context"
	"testing"

	"github.com/go-kit/log"

	"github.com/race-sub000/gamecore/internal/event"
	"github.com/race-sub000/gamecore/internal/gamectx"
	"github.com/race-sub000/gamecore/internal/handler"
	"github.com/race-sub000/gamecore/internal/pipeline"
)

type fakeStorage struct {
	saved map[uint64][]byte
}

func newFakeStorage() *fakeStorage { return &fakeStorage{saved: make(map[uint64][]byte)} }

func (f *fakeStorage) SaveCheckpoint(ctx context.Context, gameAddr string, settleVersion uint64, data []byte) error {
	f.saved[settleVersion] = data
	return nil
}

func (f *fakeStorage) LoadCheckpoint(ctx context.Context, gameAddr string, settleVersion uint64) ([]byte, error) {
	return f.saved[settleVersion], nil
}

type fakeTransport struct {
	updates chan pipeline.GameAccountUpdate
	settles []pipeline.SettleDetails
}

func newFakeTransport() *fakeTransport {
	updates := make(chan pipeline.GameAccountUpdate)
	close(updates)
	return &fakeTransport{updates: updates}
}

func (f *fakeTransport) SettleGame(ctx context.Context, gameAddr string, details pipeline.SettleDetails) (string, error) {
	f.settles = append(f.settles, details)
	return "sig", nil
}

func (f *fakeTransport) SubscribeGameAccount(ctx context.Context, gameAddr string) (<-chan pipeline.GameAccountUpdate, error) {
	return f.updates, nil
}

func (f *fakeTransport) ResolveCredentials(ctx context.Context, addr string) (string, error) {
	return "pubkey:" + addr, nil
}

func servedAccount(addr, transactor string) gamectx.GameAccount {
	return gamectx.GameAccount{
		Addr:           addr,
		TransactorAddr: &transactor,
		Servers:        []gamectx.ServerJoin{{Addr: transactor, AccessVersion: 1}},
	}
}

func TestNewMasterRejectsUnservedAccount(t *testing.T) {
	factory := func(bundleAddr string) (handler.HandlerT, error) { return handler.NativeFunc{}, nil }
	account := gamectx.GameAccount{Addr: "g1"}

	_, err := NewMaster(log.NewNopLogger(), factory, newFakeStorage(), newFakeTransport(), account)
	if err == nil {
		t.Fatalf("expected an error for an account with no transactor")
	}
}

func TestSessionRunChecksPointsAndSettlesOnSub(t *testing.T) {
	storage := newFakeStorage()
	transport := newFakeTransport()

	h := handler.NativeFunc{
		Init: func(initData []byte, effect *handler.Effect) ([]byte, error) {
			return []byte("init"), nil
		},
		Handle: func(state []byte, eventRaw []byte, effect *handler.Effect) ([]byte, error) {
			effect.IsCheckpoint = true
			effect.Checkpoint = []byte("snapshot")
			effect.SettleOne(handler.SettleSubOp(7, 5))
			return state, nil
		},
	}
	factory := func(bundleAddr string) (handler.HandlerT, error) { return h, nil }

	account := servedAccount("g1", "validator1")
	s, err := NewMaster(log.NewNopLogger(), factory, storage, transport, account)
	if err != nil {
		t.Fatalf("NewMaster: %v", err)
	}

	s.loop.Context().AddNode("alice", 7, handler.ClientPlayer)

	s.bus.EventLoopInbox() <- pipeline.EventFrame{
		Kind:      pipeline.FrameSendEvent,
		GameAddr:  "g1",
		Event:     event.Custom(0, []byte("go")),
		Timestamp: 1,
	}

	reason := s.Run(context.Background())
	if !reason.IsComplete() {
		t.Fatalf("expected a clean shutdown, got fault: %v", reason.Fault)
	}

	if _, ok := storage.saved[1]; !ok {
		t.Fatalf("expected the checkpoint to have been persisted at settle version 1, saved: %v", storage.saved)
	}
	if len(transport.settles) != 1 {
		t.Fatalf("expected exactly one settlement submitted, got %d", len(transport.settles))
	}
	if len(transport.settles[0].Settles) != 1 || transport.settles[0].Settles[0].Addr != "alice" {
		t.Fatalf("expected the settle to resolve to alice, got %+v", transport.settles[0].Settles)
	}

	if s.checkpoint == nil {
		t.Fatalf("expected the session to have folded its own checkpoint")
	}
	vd, ok := s.checkpoint.GetVersionedData(0)
	if !ok || string(vd.Data) != "snapshot" {
		t.Fatalf("expected the master's versioned data to hold the handler's snapshot, got %+v", vd)
	}
}
