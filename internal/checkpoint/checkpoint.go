package checkpoint

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"sort"

	"github.com/race-sub000/gamecore/internal/gamectx"
	"github.com/race-sub000/gamecore/internal/handler"
)

var (
	ErrAlreadyExists    = errors.New("checkpoint: versioned data already exists for that id")
	ErrMissingCheckpoint = errors.New("checkpoint: no versioned data for that id")
)

// EventRecord is one entry of a VersionedData's replay log: the raw event
// bytes, the node-local timestamp it was handled at, and the sha256 of
// the handler state that resulted.
type EventRecord struct {
	EventRaw  []byte
	Timestamp uint64
	StateSha  [32]byte
}

// VersionedData is the snapshot of one game (master at id 0, sub-games at
// 1..N) inside a Checkpoint: its serialized handler state, the versions
// it was taken at, and the pending dispatch/bridge traffic needed to
// resume exactly where it left off.
type VersionedData struct {
	ID           int
	Versions     gamectx.Versions
	Data         []byte
	Sha          [32]byte
	GameSpec     gamectx.GameSpec
	Dispatch     *gamectx.DispatchEvent
	BridgeEvents []handler.EmitBridgeEvent
	Events       []EventRecord
}

func newVersionedData(id int, spec gamectx.GameSpec, versions gamectx.Versions, data []byte) VersionedData {
	return VersionedData{ID: id, GameSpec: spec, Versions: versions, Data: data, Sha: sha256.Sum256(data)}
}

func (v *VersionedData) clearFutureEvents() {
	v.Dispatch = nil
	v.BridgeEvents = nil
}

// OnChainPart is the minimal slice of a Checkpoint submitted on chain:
// just enough to authenticate the off-chain part against a root.
type OnChainPart struct {
	Root          [32]byte
	Size          int
	AccessVersion uint64
}

// OffChainPart is everything else: the actual game snapshots, their
// inclusion proofs, and pending sub-game launches.
type OffChainPart struct {
	Data           map[int]VersionedData
	Proofs         map[int]MerkleProof
	LaunchSubGames []handler.LaunchSubGame
	Nodes          []gamectx.Node
}

// Checkpoint is a full state snapshot of a game and all its live
// sub-games, rooted in a Merkle tree over each game's VersionedData.Sha
// so any single game's snapshot can be authenticated against the root
// alone without replaying the others.
type Checkpoint struct {
	Root           [32]byte
	AccessVersion  uint64
	Data           map[int]VersionedData
	Proofs         map[int]MerkleProof
	LaunchSubGames []handler.LaunchSubGame
	Nodes          []gamectx.Node
}

func New(id int, spec gamectx.GameSpec, versions gamectx.Versions, rootData []byte) *Checkpoint {
	c := &Checkpoint{
		AccessVersion: versions.AccessVersion,
		Data:          map[int]VersionedData{id: newVersionedData(id, spec, versions, rootData)},
		Proofs:        map[int]MerkleProof{},
	}
	c.updateRootAndProofs()
	return c
}

func NewFromParts(off OffChainPart, on OnChainPart) *Checkpoint {
	return &Checkpoint{
		Proofs:         off.Proofs,
		Data:           off.Data,
		AccessVersion:  on.AccessVersion,
		Root:           on.Root,
		LaunchSubGames: off.LaunchSubGames,
		Nodes:          off.Nodes,
	}
}

func (c *Checkpoint) IsEmpty() bool { return len(c.Data) == 0 }
func (c *Checkpoint) Size() int     { return len(c.Data) }

// updateRootAndProofs rebuilds the Merkle tree over every VersionedData
// present contiguously from id 0, skipping the update entirely when there
// is no master (id 0) entry, matching the original's "not a master
// checkpoint" short-circuit.
func (c *Checkpoint) updateRootAndProofs() {
	if _, ok := c.Data[0]; !ok {
		return
	}
	ids := c.contiguousIDs()
	leaves := make([][32]byte, len(ids))
	for i, id := range ids {
		leaves[i] = c.Data[id].Sha
	}
	root, proofs := BuildMerkleTree(leaves)
	c.Root = root
	if c.Proofs == nil {
		c.Proofs = map[int]MerkleProof{}
	}
	for i, id := range ids {
		c.Proofs[id] = proofs[i]
	}
}

// contiguousIDs returns 0, 1, 2, ... for as long as each id has data,
// stopping at the first gap, matching the original's `while data.get(i)`.
func (c *Checkpoint) contiguousIDs() []int {
	var ids []int
	for i := 0; ; i++ {
		if _, ok := c.Data[i]; !ok {
			break
		}
		ids = append(ids, i)
	}
	return ids
}

func (c *Checkpoint) GetData(id int) ([]byte, bool) {
	vd, ok := c.Data[id]
	if !ok {
		return nil, false
	}
	return vd.Data, true
}

func (c *Checkpoint) GetVersionedData(id int) (VersionedData, bool) {
	vd, ok := c.Data[id]
	return vd, ok
}

func (c *Checkpoint) InitVersionedData(vd VersionedData) error {
	if _, exists := c.Data[vd.ID]; exists {
		return ErrAlreadyExists
	}
	if c.Data == nil {
		c.Data = map[int]VersionedData{}
	}
	c.Data[vd.ID] = vd
	c.updateRootAndProofs()
	return nil
}

func (c *Checkpoint) InitData(id int, spec gamectx.GameSpec, versions gamectx.Versions, data []byte) error {
	return c.InitVersionedData(newVersionedData(id, spec, versions, data))
}

// SetData replaces id's data, bumps its settle version, and returns the
// resulting Versions.
func (c *Checkpoint) SetData(id int, data []byte) (gamectx.Versions, error) {
	vd, ok := c.Data[id]
	if !ok {
		return gamectx.Versions{}, ErrMissingCheckpoint
	}
	vd.Data = data
	vd.Versions.SettleVersion++
	vd.Sha = sha256.Sum256(data)
	c.Data[id] = vd
	c.updateRootAndProofs()
	return vd.Versions, nil
}

func (c *Checkpoint) UpdateVersionedData(vd VersionedData) error {
	if _, ok := c.Data[vd.ID]; !ok {
		return ErrMissingCheckpoint
	}
	c.Data[vd.ID] = vd
	c.updateRootAndProofs()
	return nil
}

func (c *Checkpoint) SetDispatch(id int, dispatch *gamectx.DispatchEvent) error {
	vd, ok := c.Data[id]
	if !ok {
		return ErrMissingCheckpoint
	}
	vd.Dispatch = dispatch
	c.Data[id] = vd
	return nil
}

func (c *Checkpoint) SetBridgeEvents(id int, events []handler.EmitBridgeEvent) error {
	vd, ok := c.Data[id]
	if !ok {
		return ErrMissingCheckpoint
	}
	vd.BridgeEvents = events
	c.Data[id] = vd
	return nil
}

func (c *Checkpoint) AppendLaunchSubGame(sg handler.LaunchSubGame) {
	c.LaunchSubGames = append(c.LaunchSubGames, sg)
}

func (c *Checkpoint) DeleteLaunchSubGame(id int) {
	kept := c.LaunchSubGames[:0]
	for _, sg := range c.LaunchSubGames {
		if sg.ID != id {
			kept = append(kept, sg)
		}
	}
	c.LaunchSubGames = kept
}

func (c *Checkpoint) GetLaunchSubGames() []handler.LaunchSubGame { return c.LaunchSubGames }

func (c *Checkpoint) ClearFutureEvents() {
	for id, vd := range c.Data {
		vd.clearFutureEvents()
		c.Data[id] = vd
	}
}

func (c *Checkpoint) ListVersionedData() []VersionedData {
	out := make([]VersionedData, 0, len(c.Data))
	for _, vd := range c.Data {
		out = append(out, vd)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (c *Checkpoint) SetAccessVersion(v uint64) { c.AccessVersion = v }

func (c *Checkpoint) GetVersions(id int) (gamectx.Versions, bool) {
	vd, ok := c.Data[id]
	if !ok {
		return gamectx.Versions{}, false
	}
	return vd.Versions, true
}

func (c *Checkpoint) GetSha(id int) ([32]byte, bool) {
	vd, ok := c.Data[id]
	if !ok {
		return [32]byte{}, false
	}
	return vd.Sha, true
}

func (c *Checkpoint) DeriveOnChainPart() OnChainPart {
	return OnChainPart{Size: len(c.Data), Root: c.Root, AccessVersion: c.AccessVersion}
}

func (c *Checkpoint) DeriveOffChainPart() OffChainPart {
	return OffChainPart{Data: c.Data, Proofs: c.Proofs, LaunchSubGames: c.LaunchSubGames, Nodes: c.Nodes}
}

// CloseSubData discards every sub-game snapshot, leaving only the master
// (id 0) checkpoint, the step taken once all sub-games have settled back
// into the parent.
func (c *Checkpoint) CloseSubData() {
	for id := range c.Data {
		if id != 0 {
			delete(c.Data, id)
		}
	}
}

func (c *Checkpoint) String() string {
	ids := make([]int, 0, len(c.Data))
	for id := range c.Data {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	s := ""
	for i, id := range ids {
		if i > 0 {
			s += ","
		}
		vd := c.Data[id]
		s += fmt.Sprintf("%d#%+v", id, vd.Versions)
	}
	return s
}
