// Package gamectx implements GameContext: the per-node replica of a
// game's runtime state. It owns the node roster, the dispatch clock, the
// Mental Poker RandomState registers, the DecisionState registers, and
// the settlement/transfer/bridge staging areas a handler's Effect writes
// into. It is never transmitted over the network and never passed to a
// handler directly; internal/handler's Effect is the only thing crossing
// that boundary, built from a GameContext by DeriveEffect and folded back
// by ApplyEffect.
package gamectx

import (
	"errors"
	"fmt"

	"github.com/race-sub000/gamecore/internal/decision"
	"github.com/race-sub000/gamecore/internal/encryptor"
	"github.com/race-sub000/gamecore/internal/event"
	"github.com/race-sub000/gamecore/internal/handler"
	"github.com/race-sub000/gamecore/internal/random"
)

const operationTimeoutMillis = 15_000

var (
	ErrGameNotServed            = errors.New("gamectx: game has no transactor")
	ErrCantMapIDToAddr           = errors.New("gamectx: no node with that id")
	ErrCantMapAddrToID           = errors.New("gamectx: no node with that address")
	ErrInvalidPlayerAddress      = errors.New("gamectx: invalid player address")
	ErrCantFindTransactor        = errors.New("gamectx: no transactor node")
	ErrDuplicatedEventDispatch   = errors.New("gamectx: an event is already dispatched")
	ErrCantBumpSettleVersion     = errors.New("gamectx: next settle version is not ahead of current")
	ErrSettleWithoutCheckpoint   = errors.New("gamectx: settles/transfers require a checkpoint")
	ErrRandomStateNotFound       = errors.New("gamectx: random state not found")
	ErrInvalidDecisionID         = errors.New("gamectx: invalid decision id")
	ErrInvalidCheckpoint         = errors.New("gamectx: checkpoint settle version mismatch")
)

// NodeStatus is the join-state of one serving node.
type NodeStatus int

const (
	NodeDisconnected NodeStatus = iota
	NodePending
	NodeConfirming
	NodeReady
)

type Node struct {
	Addr             string
	ID               int
	Mode             handler.ClientMode
	Status           NodeStatus
	PendingAccessVer uint64
}

func NewPendingNode(addr string, accessVersion uint64, mode handler.ClientMode) Node {
	return Node{Addr: addr, ID: int(accessVersion), Mode: mode, Status: NodePending, PendingAccessVer: accessVersion}
}

func NewReadyNode(addr string, accessVersion uint64, mode handler.ClientMode) Node {
	return Node{Addr: addr, ID: int(accessVersion), Mode: mode, Status: NodeReady}
}

// DispatchEvent is a scheduled self-event: it fires when the pipeline's
// clock reaches Timeout.
type DispatchEvent struct {
	Event   event.Event
	Timeout uint64
}

// Versions is the access/settle version pair carried alongside every
// checkpointed VersionedData entry.
type Versions struct {
	AccessVersion uint64
	SettleVersion uint64
}

func NewVersions(access, settle uint64) Versions {
	return Versions{AccessVersion: access, SettleVersion: settle}
}

// GameSpec identifies which bundle and account a GameContext belongs to.
type GameSpec struct {
	GameAddr   string
	BundleAddr string
	GameID     int
	MaxPlayers int
}

// SubGameSpec is what a parent game hands a forked sub-game at launch
// time: a shared address suffix, an inherited node roster, and the
// version numbers to start from.
type SubGameSpec struct {
	GameAddr      string
	SubID         int
	Nodes         []Node
	AccessVersion uint64
	SettleVersion uint64
}

// GameAccount is the on-chain account a master GameContext is built
// from: its node roster (servers) and the account's current versions.
type GameAccount struct {
	Addr            string
	AccessVersion   uint64
	SettleVersion   uint64
	TransactorAddr  *string
	Servers         []ServerJoin
}

type ServerJoin struct {
	Addr          string
	AccessVersion uint64
}

// EventEffects is what the pipeline reads out of a GameContext after an
// event has been applied: settlements and transfers to submit, a
// checkpoint to persist, sub-games to launch, and bridge events to
// forward.
type EventEffects struct {
	Settles        []handler.SettleWithAddr
	Transfers      []handler.Transfer
	Checkpoint     []byte
	LaunchSubGames []handler.LaunchSubGame
	BridgeEvents   []handler.EmitBridgeEvent
	StartGame      bool
}

// GameContext is the per-node replica described at package level.
type GameContext struct {
	gameAddr          string
	accessVersion     uint64
	settleVersion     uint64
	status            handler.GameStatus
	nodes             []Node
	dispatch          *DispatchEvent
	handlerState      []byte
	timestamp         uint64
	allowExit         bool
	randomStates      []*random.RandomState
	decisionStates    []*decision.DecisionState
	settles           []handler.Settle
	settlesSet        bool
	transfers         []handler.Transfer
	transfersSet      bool
	checkpoint        []byte
	launchSubGames    []handler.LaunchSubGame
	bridgeEvents      []handler.EmitBridgeEvent
	startGame         bool
	nextSettleVersion uint64
}

// New builds a master GameContext from an on-chain game account.
func New(account GameAccount) (*GameContext, error) {
	if account.TransactorAddr == nil {
		return nil, ErrGameNotServed
	}
	nodes := make([]Node, 0, len(account.Servers))
	for _, s := range account.Servers {
		mode := handler.ClientValidator
		if s.Addr == *account.TransactorAddr {
			mode = handler.ClientTransactor
		}
		nodes = append(nodes, NewPendingNode(s.Addr, s.AccessVersion, mode))
	}
	return &GameContext{
		gameAddr:          account.Addr,
		accessVersion:     account.AccessVersion,
		settleVersion:     account.SettleVersion,
		status:            handler.StatusIdle,
		nodes:             nodes,
		nextSettleVersion: account.SettleVersion + 1,
	}, nil
}

// NewSubGame builds a GameContext for a sub-game forked by a parent,
// inheriting its node roster and version numbers instead of reading an
// on-chain account.
func NewSubGame(spec SubGameSpec) *GameContext {
	return &GameContext{
		gameAddr:          fmt.Sprintf("%s:%d", spec.GameAddr, spec.SubID),
		nodes:             spec.Nodes,
		settleVersion:     spec.SettleVersion,
		accessVersion:     spec.AccessVersion,
		nextSettleVersion: spec.SettleVersion + 1,
	}
}

func (c *GameContext) GameAddr() string         { return c.gameAddr }
func (c *GameContext) AccessVersion() uint64    { return c.accessVersion }
func (c *GameContext) SettleVersion() uint64    { return c.settleVersion }
func (c *GameContext) NextSettleVersion() uint64 { return c.nextSettleVersion }
func (c *GameContext) Status() handler.GameStatus { return c.status }
func (c *GameContext) Timestamp() uint64        { return c.timestamp }
func (c *GameContext) Nodes() []Node            { return c.nodes }
func (c *GameContext) CountNodes() int          { return len(c.nodes) }
func (c *GameContext) IsCheckpoint() bool       { return c.checkpoint != nil }
func (c *GameContext) GetCheckpoint() []byte    { return c.checkpoint }
func (c *GameContext) HandlerStateRaw() []byte  { return c.handlerState }
func (c *GameContext) SetHandlerStateRaw(b []byte) { c.handlerState = b }
func (c *GameContext) GetDispatch() *DispatchEvent { return c.dispatch }
func (c *GameContext) SetAccessVersion(v uint64)   { c.accessVersion = v }
func (c *GameContext) SetAllowExit(v bool)         { c.allowExit = v }
func (c *GameContext) IsAllowExit() bool           { return c.allowExit }
func (c *GameContext) SetTimestamp(ts uint64)      { c.timestamp = ts }
func (c *GameContext) ListRandomStates() []*random.RandomState     { return c.randomStates }
func (c *GameContext) ListDecisionStates() []*decision.DecisionState { return c.decisionStates }
func (c *GameContext) GetSettles() ([]handler.Settle, bool)        { return c.settles, c.settlesSet }

func (c *GameContext) IDToAddr(id int) (string, error) {
	for _, n := range c.nodes {
		if n.ID == id {
			return n.Addr, nil
		}
	}
	return "", fmt.Errorf("%w: %d", ErrCantMapIDToAddr, id)
}

func (c *GameContext) AddrToID(addr string) (int, error) {
	for _, n := range c.nodes {
		if n.Addr == addr {
			return n.ID, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrCantMapAddrToID, addr)
}

func (c *GameContext) GetTransactorAddr() (string, error) {
	for _, n := range c.nodes {
		if n.Mode == handler.ClientTransactor {
			return n.Addr, nil
		}
	}
	return "", ErrCantFindTransactor
}

func (c *GameContext) GetNodeByAddress(addr string) (Node, bool) {
	for _, n := range c.nodes {
		if n.Addr == addr {
			return n, true
		}
	}
	return Node{}, false
}

func (c *GameContext) AddNode(addr string, accessVersion uint64, mode handler.ClientMode) {
	kept := c.nodes[:0]
	for _, n := range c.nodes {
		if n.Addr != addr {
			kept = append(kept, n)
		}
	}
	c.nodes = append(kept, NewPendingNode(addr, accessVersion, mode))
}

func (c *GameContext) SetNodeStatus(addr string, status NodeStatus) error {
	for i := range c.nodes {
		if c.nodes[i].Addr == addr {
			c.nodes[i].Status = status
			return nil
		}
	}
	return ErrInvalidPlayerAddress
}

// SetNodeReady promotes every node pending at or below accessVersion to
// ready, the step taken once the chain confirms their join.
func (c *GameContext) SetNodeReady(accessVersion uint64) {
	for i := range c.nodes {
		if c.nodes[i].Status == NodePending && c.nodes[i].PendingAccessVer <= accessVersion {
			c.nodes[i].Status = NodeReady
		}
	}
}

func (c *GameContext) DispatchEvent(ev event.Event, timeout uint64) {
	c.dispatch = &DispatchEvent{Event: ev, Timeout: c.timestamp + timeout}
}

func (c *GameContext) DispatchEventInstantly(ev event.Event) {
	c.DispatchEvent(ev, 0)
}

// DispatchSafe dispatches only if nothing is already scheduled.
func (c *GameContext) DispatchSafe(ev event.Event, timeout uint64) {
	if c.dispatch == nil {
		c.dispatch = &DispatchEvent{Event: ev, Timeout: timeout + c.timestamp}
	}
}

// Dispatch schedules ev, failing if one is already pending.
func (c *GameContext) Dispatch(ev event.Event, timeout uint64) error {
	if c.dispatch != nil {
		return ErrDuplicatedEventDispatch
	}
	c.dispatch = &DispatchEvent{Event: ev, Timeout: timeout}
	return nil
}

func (c *GameContext) CancelDispatch() { c.dispatch = nil }

func (c *GameContext) WaitTimeout(timeout uint64) {
	c.dispatch = &DispatchEvent{Event: event.WaitingTimeout(), Timeout: c.timestamp + timeout}
}

func (c *GameContext) ActionTimeout(playerID int, timeout uint64) {
	c.dispatch = &DispatchEvent{Event: event.ActionTimeout(playerID), Timeout: c.timestamp + timeout}
}

func (c *GameContext) StartGame() {
	c.randomStates = nil
	c.startGame = true
}

func (c *GameContext) ShutdownGame() {
	c.dispatch = &DispatchEvent{Event: event.Shutdown(), Timeout: 0}
}

func (c *GameContext) GetRandomState(id int) (*random.RandomState, error) {
	if id <= 0 || id > len(c.randomStates) {
		return nil, fmt.Errorf("%w: %d", ErrRandomStateNotFound, id)
	}
	return c.randomStates[id-1], nil
}

func (c *GameContext) GetDecisionState(id int) (*decision.DecisionState, error) {
	if id <= 0 || id > len(c.decisionStates) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDecisionID, id)
	}
	return c.decisionStates[id-1], nil
}

func (c *GameContext) IsRandomReady(id int) bool {
	st, err := c.GetRandomState(id)
	if err != nil {
		return false
	}
	return st.Status.Kind == random.StatusReady || st.Status.Kind == random.StatusWaitingSecrets
}

func (c *GameContext) IsSecretsReady() bool {
	for _, st := range c.randomStates {
		if st.Status.Kind != random.StatusReady {
			return false
		}
	}
	return true
}

// InitRandomState creates a new RandomState from spec, owned by every
// currently ready transactor/validator node, and returns its id.
func (c *GameContext) InitRandomState(spec random.RandomSpec) (int, error) {
	id := len(c.randomStates) + 1
	var owners []string
	for _, n := range c.nodes {
		if n.Status == NodeReady && (n.Mode == handler.ClientTransactor || n.Mode == handler.ClientValidator) {
			owners = append(owners, n.Addr)
		}
	}
	st, err := random.TryNew(id, spec, owners)
	if err != nil {
		return 0, err
	}
	c.randomStates = append(c.randomStates, st)
	return id, nil
}

func (c *GameContext) Assign(randomID int, playerAddr string, indexes []int) error {
	st, err := c.GetRandomState(randomID)
	if err != nil {
		return err
	}
	return st.Assign(playerAddr, indexes)
}

func (c *GameContext) RevealRandom(randomID int, indexes []int) error {
	st, err := c.GetRandomState(randomID)
	if err != nil {
		return err
	}
	return st.Reveal(indexes)
}

func (c *GameContext) ReleaseDecision(decisionID int) error {
	st, err := c.GetDecisionState(decisionID)
	if err != nil {
		return err
	}
	return st.Release()
}

func (c *GameContext) Ask(owner string) int {
	id := len(c.decisionStates) + 1
	c.decisionStates = append(c.decisionStates, decision.New(id, owner))
	return id
}

func (c *GameContext) AnswerDecision(id int, ciphertext, digest []byte) error {
	st, err := c.GetDecisionState(id)
	if err != nil {
		return err
	}
	return st.Answer(ciphertext, digest)
}

// AddSharedSecrets folds a batch of secret shares into the owning
// RandomState or DecisionState, the step driven by event.KindShareSecrets.
// A decision share is distinguished by a non-zero DecisionID.
func (c *GameContext) AddSharedSecrets(enc encryptor.Encryptor, shares []event.SecretShare) error {
	for _, s := range shares {
		if s.DecisionID != 0 {
			st, err := c.GetDecisionState(s.DecisionID)
			if err != nil {
				return err
			}
			if err := st.AddSecret(enc, encryptor.SecretKey(s.Secret)); err != nil {
				return err
			}
			continue
		}
		st, err := c.GetRandomState(s.RandomID)
		if err != nil {
			return err
		}
		if err := st.AddSecret(s.FromAddr, s.ToAddr, s.Index, s.Secret); err != nil {
			return err
		}
	}
	return nil
}

// RandomizeAndMask applies addr's mask to random_id's deck and schedules
// the randomization timeout that follows.
func (c *GameContext) RandomizeAndMask(addr string, randomID int, ciphertexts [][]byte) error {
	st, err := c.GetRandomState(randomID)
	if err != nil {
		return err
	}
	if err := st.Mask(addr, ciphertexts); err != nil {
		return err
	}
	return c.dispatchRandomizationTimeout(randomID)
}

func (c *GameContext) Lock(addr string, randomID int, pairs []random.CiphertextAndDigest) error {
	st, err := c.GetRandomState(randomID)
	if err != nil {
		return err
	}
	if err := st.Lock(addr, pairs); err != nil {
		return err
	}
	return c.dispatchRandomizationTimeout(randomID)
}

func (c *GameContext) dispatchRandomizationTimeout(randomID int) error {
	noDispatch := c.dispatch == nil
	st, err := c.GetRandomState(randomID)
	if err != nil {
		return err
	}
	switch st.Status.Kind {
	case random.StatusReady:
		c.DispatchEventInstantly(event.RandomnessReady(randomID))
	case random.StatusLocking, random.StatusMasking:
		if noDispatch {
			id, err := c.AddrToID(st.Status.Addr)
			if err != nil {
				return err
			}
			c.DispatchEvent(event.OperationTimeout([]int{id}), operationTimeoutMillis)
		}
	case random.StatusWaitingSecrets:
		if noDispatch {
			var ids []int
			for _, addr := range st.ListOperatingAddrs() {
				id, err := c.AddrToID(addr)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			c.DispatchEvent(event.OperationTimeout(ids), operationTimeoutMillis)
		}
	}
	return nil
}

func (c *GameContext) Settle(settles []handler.Settle) {
	c.settles = settles
	c.settlesSet = true
}

func (c *GameContext) Transfer(transfers []handler.Transfer) {
	c.transfers = transfers
	c.transfersSet = true
}

func (c *GameContext) AddSettle(s handler.Settle) {
	c.settles = append(c.settles, s)
	c.settlesSet = true
}

func (c *GameContext) BumpSettleVersion() error {
	if c.nextSettleVersion <= c.settleVersion {
		return ErrCantBumpSettleVersion
	}
	c.settleVersion = c.nextSettleVersion
	c.nextSettleVersion++
	return nil
}

func (c *GameContext) UpdateNextSettleVersion(next uint64) {
	if next > c.settleVersion+1 {
		c.nextSettleVersion = next
	} else {
		c.nextSettleVersion = c.settleVersion + 1
	}
}

// TakeEventEffects drains the staged settlement/transfer/sub-game/bridge
// outputs of the last applied event, bumping the settle version whenever
// a checkpoint was produced.
func (c *GameContext) TakeEventEffects() (EventEffects, error) {
	var settles []handler.SettleWithAddr
	var transfers []handler.Transfer

	if c.checkpoint != nil {
		if c.settlesSet {
			for _, s := range c.settles {
				addr, err := c.IDToAddr(s.PlayerID)
				if err != nil {
					return EventEffects{}, err
				}
				settles = append(settles, handler.SettleWithAddr{Addr: addr, Op: s.Op, Amount: s.Amount, Slot: s.Slot})
			}
			c.settles = nil
			c.settlesSet = false
		}

		rank := func(op handler.SettleOp) int {
			switch op {
			case handler.SettleAdd:
				return 0
			case handler.SettleSub:
				return 1
			case handler.SettleEject:
				return 2
			default:
				return 3
			}
		}
		for i := 1; i < len(settles); i++ {
			for j := i; j > 0 && rank(settles[j].Op) < rank(settles[j-1].Op); j-- {
				settles[j], settles[j-1] = settles[j-1], settles[j]
			}
		}

		if c.transfersSet {
			transfers = append(transfers, c.transfers...)
			c.transfers = nil
			c.transfersSet = false
		}

		if err := c.BumpSettleVersion(); err != nil {
			return EventEffects{}, err
		}
	}

	launch := c.launchSubGames
	c.launchSubGames = nil
	bridge := c.bridgeEvents
	c.bridgeEvents = nil

	return EventEffects{
		Settles:        settles,
		Transfers:      transfers,
		Checkpoint:     c.checkpoint,
		LaunchSubGames: launch,
		BridgeEvents:   bridge,
		StartGame:      c.startGame,
	}, nil
}

func (c *GameContext) AddRevealedRandom(randomID int, revealed map[int]string) error {
	st, err := c.GetRandomState(randomID)
	if err != nil {
		return err
	}
	return st.AddRevealed(revealed)
}

// DeriveEffect builds the Effect a handler will read and mutate for the
// next event, snapshotting this context's revealed randomness and
// answered decisions.
func (c *GameContext) DeriveEffect() *handler.Effect {
	revealed := make(map[int]map[int]string, len(c.randomStates))
	for _, st := range c.randomStates {
		m := make(map[int]string, len(st.Revealed))
		for k, v := range st.Revealed {
			m[k] = v
		}
		revealed[st.ID] = m
	}
	answered := make(map[int]string)
	for _, st := range c.decisionStates {
		if a, ok := st.GetAnswer(); ok {
			answered[st.ID] = string(a)
		}
	}

	return &handler.Effect{
		Timestamp:        c.timestamp,
		CurrRandomID:     len(c.randomStates) + 1,
		CurrDecisionID:   len(c.decisionStates) + 1,
		NodesCount:       c.CountNodes(),
		Revealed:         revealed,
		Answered:         answered,
		HandlerState:     append([]byte(nil), c.handlerState...),
		AllowExit:        c.allowExit,
		InitRandomStates: nil,
	}
}

// ApplyEffect folds a handler's mutated Effect back into this context:
// the dispatch decision, random/decision lifecycle calls, settlement
// staging, and handler state update.
func (c *GameContext) ApplyEffect(e *handler.Effect) error {
	switch {
	case e.StartGame:
		c.StartGame()
	case e.StopGame:
		c.ShutdownGame()
	case e.ActionTimeout != nil:
		c.ActionTimeout(e.ActionTimeout.PlayerID, e.ActionTimeout.Timeout)
	case e.WaitTimeout != nil:
		c.WaitTimeout(*e.WaitTimeout)
	case e.CancelDispatch:
		c.CancelDispatch()
	}

	c.SetAllowExit(e.AllowExit)

	for _, a := range e.Assigns {
		addr, err := c.IDToAddr(a.PlayerID)
		if err != nil {
			return err
		}
		if err := c.Assign(a.RandomID, addr, a.Indexes); err != nil {
			return err
		}
	}

	for _, r := range e.Reveals {
		if err := c.RevealRandom(r.RandomID, r.Indexes); err != nil {
			return err
		}
	}

	for _, r := range e.Releases {
		if err := c.ReleaseDecision(r.DecisionID); err != nil {
			return err
		}
	}

	for _, a := range e.Asks {
		addr, err := c.IDToAddr(a.PlayerID)
		if err != nil {
			return err
		}
		c.Ask(addr)
	}

	for _, spec := range e.InitRandomStates {
		if _, err := c.InitRandomState(random.NewShuffledList(spec.Options)); err != nil {
			return err
		}
	}

	if e.IsCheckpoint {
		c.checkpoint = e.Checkpoint
		c.Settle(e.Settles)
		c.Transfer(e.Transfers)
		c.status = handler.StatusIdle
	} else if len(e.Settles) != 0 || len(e.Transfers) != 0 {
		return ErrSettleWithoutCheckpoint
	}

	if e.HandlerState != nil {
		c.handlerState = e.HandlerState
	}

	c.launchSubGames = e.LaunchSubGames
	c.bridgeEvents = e.BridgeEvents

	return nil
}

// ApplyCheckpoint reconciles this context's access version with the
// chain's after a checkpoint confirms, rejecting a mismatched settle
// version (a sign the checkpoint belongs to a different point in time).
func (c *GameContext) ApplyCheckpoint(accessVersion, settleVersion uint64) error {
	if c.settleVersion != settleVersion {
		return ErrInvalidCheckpoint
	}
	c.accessVersion = accessVersion
	return nil
}

// PrepareForNextEvent resets the per-event scratch fields ahead of
// handling the next event at the given timestamp.
func (c *GameContext) PrepareForNextEvent(timestamp uint64) {
	c.SetTimestamp(timestamp)
	c.checkpoint = nil
	c.startGame = false
	c.bridgeEvents = nil
}
