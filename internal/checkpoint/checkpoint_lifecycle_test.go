package checkpoint

import (
	"testing"

	"github.com/race-sub000/gamecore/internal/gamectx"
)

func testSpec() gamectx.GameSpec {
	return gamectx.GameSpec{GameAddr: "test", BundleAddr: "test", GameID: 0, MaxPlayers: 6}
}

func TestInitDataBuildsRootAcrossThreeGames(t *testing.T) {
	c := New(0, testSpec(), gamectx.NewVersions(1, 1), []byte{1})
	if err := c.InitData(1, testSpec(), gamectx.NewVersions(1, 1), []byte{2}); err != nil {
		t.Fatalf("init data 1: %v", err)
	}
	if err := c.InitData(2, testSpec(), gamectx.NewVersions(1, 1), []byte{3}); err != nil {
		t.Fatalf("init data 2: %v", err)
	}

	for id := 0; id < 3; id++ {
		sha, ok := c.GetSha(id)
		if !ok {
			t.Fatalf("expected sha for id %d", id)
		}
		proof := c.Proofs[id]
		if !VerifyMerkleProof(c.Root, sha, proof) {
			t.Fatalf("proof for id %d does not verify against root", id)
		}
	}
}

func TestInitDataRejectsDuplicateID(t *testing.T) {
	c := New(0, testSpec(), gamectx.NewVersions(1, 1), []byte{1})
	if err := c.InitData(0, testSpec(), gamectx.NewVersions(1, 1), []byte{9}); err != ErrAlreadyExists {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestSetDataBumpsSettleVersionAndRoot(t *testing.T) {
	c := New(0, testSpec(), gamectx.NewVersions(1, 1), []byte{1})
	before := c.Root
	versions, err := c.SetData(0, []byte{2})
	if err != nil {
		t.Fatalf("set data: %v", err)
	}
	if versions.SettleVersion != 2 {
		t.Fatalf("expected settle version 2, got %d", versions.SettleVersion)
	}
	if c.Root == before {
		t.Fatalf("expected root to change after data update")
	}
}

func TestDeriveOnAndOffChainPartsRoundtripViaNewFromParts(t *testing.T) {
	c := New(0, testSpec(), gamectx.NewVersions(1, 1), []byte{1})
	_ = c.InitData(1, testSpec(), gamectx.NewVersions(1, 1), []byte{2})

	rebuilt := NewFromParts(c.DeriveOffChainPart(), c.DeriveOnChainPart())
	if rebuilt.Root != c.Root {
		t.Fatalf("root mismatch after reconstruction from parts")
	}
	if len(rebuilt.Data) != 2 {
		t.Fatalf("expected 2 versioned data entries, got %d", len(rebuilt.Data))
	}
}

func TestCloseSubDataLeavesOnlyMaster(t *testing.T) {
	c := New(0, testSpec(), gamectx.NewVersions(1, 1), []byte{1})
	_ = c.InitData(1, testSpec(), gamectx.NewVersions(1, 1), []byte{2})
	c.CloseSubData()
	if len(c.Data) != 1 {
		t.Fatalf("expected only the master entry to remain, got %d", len(c.Data))
	}
	if _, ok := c.Data[0]; !ok {
		t.Fatalf("expected master entry (id 0) to survive")
	}
}
