package gamectx

import (
	"testing"

	"github.com/race-sub000/gamecore/internal/event"
	"github.com/race-sub000/gamecore/internal/handler"
	"github.com/race-sub000/gamecore/internal/random"
)

func twoNodeAccount() GameAccount {
	transactor := "alice"
	return GameAccount{
		Addr:           "game-1",
		AccessVersion:  1,
		SettleVersion:  0,
		TransactorAddr: &transactor,
		Servers: []ServerJoin{
			{Addr: "alice", AccessVersion: 1},
			{Addr: "bob", AccessVersion: 2},
		},
	}
}

func readyTwoNodeContext(t *testing.T) *GameContext {
	t.Helper()
	c, err := New(twoNodeAccount())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	c.SetNodeReady(2)
	return c
}

func TestNewRejectsUnservedAccount(t *testing.T) {
	if _, err := New(GameAccount{Addr: "x"}); err != ErrGameNotServed {
		t.Fatalf("expected ErrGameNotServed, got %v", err)
	}
}

func TestInitRandomStateUsesReadyOwners(t *testing.T) {
	c := readyTwoNodeContext(t)
	id, err := c.InitRandomState(random.NewShuffledList([]string{"h", "t"}))
	if err != nil {
		t.Fatalf("init random state: %v", err)
	}
	if id != 1 {
		t.Fatalf("expected random id 1, got %d", id)
	}
	st, err := c.GetRandomState(id)
	if err != nil {
		t.Fatalf("get random state: %v", err)
	}
	if len(st.Owners) != 2 {
		t.Fatalf("expected 2 owners, got %d", len(st.Owners))
	}
}

func TestDispatchSafeDoesNotOverwritePending(t *testing.T) {
	c := readyTwoNodeContext(t)
	c.DispatchEvent(event.GameStart(), 10)
	first := c.GetDispatch()
	c.DispatchSafe(event.Shutdown(), 20)
	if c.GetDispatch().Timeout != first.Timeout {
		t.Fatalf("expected dispatch_safe to leave the pending dispatch untouched")
	}
}

func TestBumpSettleVersionRequiresAdvance(t *testing.T) {
	c := readyTwoNodeContext(t)
	if err := c.BumpSettleVersion(); err != nil {
		t.Fatalf("bump: %v", err)
	}
	if c.SettleVersion() != 1 {
		t.Fatalf("expected settle version 1, got %d", c.SettleVersion())
	}
	if c.NextSettleVersion() != 2 {
		t.Fatalf("expected next settle version 2, got %d", c.NextSettleVersion())
	}
	c.nextSettleVersion = c.settleVersion
	if err := c.BumpSettleVersion(); err != ErrCantBumpSettleVersion {
		t.Fatalf("expected ErrCantBumpSettleVersion, got %v", err)
	}
}

func TestTakeEventEffectsBumpsVersionOnlyWithCheckpoint(t *testing.T) {
	c := readyTwoNodeContext(t)
	eff, err := c.TakeEventEffects()
	if err != nil {
		t.Fatalf("take effects: %v", err)
	}
	if c.SettleVersion() != 0 {
		t.Fatalf("expected settle version unchanged without a checkpoint")
	}
	if eff.Checkpoint != nil {
		t.Fatalf("expected no checkpoint")
	}

	c.checkpoint = []byte{1}
	c.Settle([]handler.Settle{handler.SettleAddOp(1, 100)})
	eff, err = c.TakeEventEffects()
	if err != nil {
		t.Fatalf("take effects: %v", err)
	}
	if len(eff.Settles) != 1 || eff.Settles[0].Addr != "alice" {
		t.Fatalf("expected one settle resolved to alice, got %+v", eff.Settles)
	}
	if c.SettleVersion() != 1 {
		t.Fatalf("expected settle version bumped to 1, got %d", c.SettleVersion())
	}
}

func TestApplyEffectRejectsSettleWithoutCheckpoint(t *testing.T) {
	c := readyTwoNodeContext(t)
	eff := c.DeriveEffect()
	eff.Settles = []handler.Settle{handler.SettleAddOp(1, 10)}
	if err := c.ApplyEffect(eff); err != ErrSettleWithoutCheckpoint {
		t.Fatalf("expected ErrSettleWithoutCheckpoint, got %v", err)
	}
}

func TestApplyEffectAppliesAsksAndHandlerState(t *testing.T) {
	c := readyTwoNodeContext(t)
	eff := c.DeriveEffect()
	eff.Asks = []handler.Ask{{PlayerID: 1}}
	eff.HandlerState = []byte{1, 2, 3}
	if err := c.ApplyEffect(eff); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(c.ListDecisionStates()) != 1 {
		t.Fatalf("expected one decision state to be created")
	}
	if string(c.HandlerStateRaw()) != string([]byte{1, 2, 3}) {
		t.Fatalf("expected handler state to be updated")
	}
}
