package localchain

import (
	"context"
	"testing"

	"github.com/go-kit/log"

	"github.com/race-sub000/gamecore/internal/pipeline"
)

func TestScriptedTransportReplaysUpdatesInOrder(t *testing.T) {
	cfg := Config{
		Updates: []pipeline.GameAccountUpdate{
			{GameAddr: "raffle1", AccessVersion: 1},
			{GameAddr: "raffle1", AccessVersion: 2},
		},
	}
	transport := NewScriptedTransport(log.NewNopLogger(), cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, err := transport.SubscribeGameAccount(ctx, "raffle1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	first := <-updates
	if first.AccessVersion != 1 {
		t.Fatalf("expected first update access version 1, got %d", first.AccessVersion)
	}
	second := <-updates
	if second.AccessVersion != 2 {
		t.Fatalf("expected second update access version 2, got %d", second.AccessVersion)
	}
}

func TestScriptedTransportSettleGameRecordsDetails(t *testing.T) {
	transport := NewScriptedTransport(log.NewNopLogger(), Config{})
	details := pipeline.SettleDetails{GameAddr: "raffle1", SettleVersion: 3}

	sig, err := transport.SettleGame(context.Background(), "raffle1", details)
	if err != nil {
		t.Fatalf("settle game: %v", err)
	}
	if sig == "" {
		t.Fatalf("expected a non-empty synthetic signature")
	}
	if got := transport.Settles(); len(got) != 1 || got[0].SettleVersion != 3 {
		t.Fatalf("expected the settle to be recorded, got %+v", got)
	}
}

func TestFileStorageRoundTrip(t *testing.T) {
	storage := NewFileStorage(t.TempDir())
	ctx := context.Background()

	if err := storage.SaveCheckpoint(ctx, "raffle1", 1, []byte(`{"winner":2}`)); err != nil {
		t.Fatalf("save checkpoint: %v", err)
	}
	got, err := storage.LoadCheckpoint(ctx, "raffle1", 1)
	if err != nil {
		t.Fatalf("load checkpoint: %v", err)
	}
	if string(got) != `{"winner":2}` {
		t.Fatalf("unexpected checkpoint contents: %s", got)
	}

	if _, err := storage.LoadCheckpoint(ctx, "raffle1", 2); err == nil {
		t.Fatalf("expected an error loading a checkpoint that was never saved")
	}
}
