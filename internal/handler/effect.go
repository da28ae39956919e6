// Package handler defines the boundary between a GameContext and the game
// logic that drives it: the Effect value handlers read and write, the
// HandlerT interface any handler implementation (native Go or WASM
// bytecode) must satisfy, and the settlement/transfer/bridge types an
// event produces.
package handler

// ClientMode distinguishes a transactor (the node driving consensus on
// this game) from a validator (a node only checking the transactor's
// work) and a plain player connection.
type ClientMode int

const (
	ClientPlayer ClientMode = iota
	ClientTransactor
	ClientValidator
)

func (m ClientMode) String() string {
	switch m {
	case ClientTransactor:
		return "transactor"
	case ClientValidator:
		return "validator"
	default:
		return "player"
	}
}

// GameStatus is the coarse lifecycle state of a game.
type GameStatus int

const (
	StatusIdle GameStatus = iota
	StatusRunning
	StatusClosed
)

// EntryLock controls whether new players may join a game account.
type EntryLock int

const (
	EntryLockOpen EntryLock = iota
	EntryLockJoinOnly
	EntryLockLeaveOnly
	EntryLockClosed
)

// SettleOp is one balance adjustment line in a settlement.
type SettleOp int

const (
	SettleAdd SettleOp = iota
	SettleSub
	SettleEject
	SettleAssignSlot
)

type Settle struct {
	PlayerID int
	Op       SettleOp
	Amount   uint64
	Slot     int
}

func SettleAddOp(playerID int, amount uint64) Settle {
	return Settle{PlayerID: playerID, Op: SettleAdd, Amount: amount}
}

func SettleSubOp(playerID int, amount uint64) Settle {
	return Settle{PlayerID: playerID, Op: SettleSub, Amount: amount}
}

func SettleEjectOp(playerID int) Settle {
	return Settle{PlayerID: playerID, Op: SettleEject}
}

// SettleWithAddr is a Settle resolved from a node id to its address, the
// shape actually submitted by the event loop.
type SettleWithAddr struct {
	Addr string
	Op   SettleOp
	Amount uint64
	Slot   int
}

type Transfer struct {
	Addr   string
	Amount uint64
}

// EmitBridgeEvent is a message produced for delivery to a sub-game (or,
// from a sub-game, to its parent).
type EmitBridgeEvent struct {
	Dest int
	Raw  []byte
}

// LaunchSubGame asks the session supervisor to fork a new sub-game
// pipeline sharing this game's address.
type LaunchSubGame struct {
	ID          int
	BundleAddr  string
	MaxPlayers  int
	InitData    []byte
}

type Ask struct {
	PlayerID int
}

type Assign struct {
	RandomID int
	PlayerID int
	Indexes  []int
}

type Reveal struct {
	RandomID int
	Indexes  []int
}

type Release struct {
	DecisionID int
}

// InitRandomState is a request to create a new randomness register,
// carrying just enough to build a random.ShuffledList without handler
// code depending on internal/random directly.
type InitRandomState struct {
	Options []string
	Size    int
}

type LogLevel int

const (
	LogDebug LogLevel = iota
	LogInfo
	LogWarn
	LogError
)

type Log struct {
	Level   LogLevel
	Message string
}

// Effect is the single value a handler reads state from and writes
// decisions into. GameContext builds one via DeriveEffect before calling
// a handler's HandleEvent, then folds the handler's mutations back in via
// ApplyEffect. Fields are exported because Effect crosses the handler
// boundary (including the WASM bytecode adapter, which marshals it), but
// only gamectx is expected to construct or interpret its full contents.
type Effect struct {
	Timestamp uint64

	CurrRandomID   int
	CurrDecisionID int
	NodesCount     int

	StartGame      bool
	StopGame       bool
	CancelDispatch bool
	ActionTimeout  *Assign2PlayerTimeout
	WaitTimeout    *uint64

	Asks             []Ask
	Assigns          []Assign
	Reveals          []Reveal
	Releases         []Release
	InitRandomStates []InitRandomState

	Revealed map[int]map[int]string
	Answered map[int]string

	IsCheckpoint bool
	Checkpoint   []byte
	Settles      []Settle
	Transfers    []Transfer

	HandlerState []byte
	Error        string

	AllowExit bool

	LaunchSubGames []LaunchSubGame
	BridgeEvents   []EmitBridgeEvent
	Logs           []Log
}

// Assign2PlayerTimeout names the player an ActionTimeout event targets.
// (Named distinctly from handler.Assign to avoid confusion with random
// item assignment.)
type Assign2PlayerTimeout struct {
	PlayerID int
	Timeout  uint64
}

func (e *Effect) CountNodes() int { return e.NodesCount }

func (e *Effect) InitRandomState(spec InitRandomState) int {
	e.InitRandomStates = append(e.InitRandomStates, spec)
	id := e.CurrRandomID
	e.CurrRandomID++
	return id
}

func (e *Effect) Assign(randomID, playerID int, indexes []int) {
	e.Assigns = append(e.Assigns, Assign{RandomID: randomID, PlayerID: playerID, Indexes: indexes})
}

func (e *Effect) Reveal(randomID int, indexes []int) {
	e.Reveals = append(e.Reveals, Reveal{RandomID: randomID, Indexes: indexes})
}

func (e *Effect) GetRevealed(randomID int) (map[int]string, bool) {
	m, ok := e.Revealed[randomID]
	return m, ok
}

func (e *Effect) Ask(playerID int) int {
	e.Asks = append(e.Asks, Ask{PlayerID: playerID})
	id := e.CurrDecisionID
	e.CurrDecisionID++
	return id
}

func (e *Effect) Release(decisionID int) {
	e.Releases = append(e.Releases, Release{DecisionID: decisionID})
}

func (e *Effect) GetAnswer(decisionID int) (string, bool) {
	a, ok := e.Answered[decisionID]
	return a, ok
}

func (e *Effect) ActionTimeoutFor(playerID int, timeout uint64) {
	e.ActionTimeout = &Assign2PlayerTimeout{PlayerID: playerID, Timeout: timeout}
}

func (e *Effect) WaitTimeoutFor(timeout uint64) {
	e.WaitTimeout = &timeout
}

func (e *Effect) SetStartGame()      { e.StartGame = true }
func (e *Effect) SetStopGame()       { e.StopGame = true }
func (e *Effect) SetAllowExit(v bool) { e.AllowExit = v }

func (e *Effect) SettleOne(s Settle) { e.Settles = append(e.Settles, s) }

func (e *Effect) EmitBridge(dest int, raw []byte) {
	e.BridgeEvents = append(e.BridgeEvents, EmitBridgeEvent{Dest: dest, Raw: raw})
}

func (e *Effect) Log(level LogLevel, message string) {
	e.Logs = append(e.Logs, Log{Level: level, Message: message})
}

// HandlerT is the contract every handler implementation (native Go or a
// WASM bytecode module) satisfies. InitState builds the handler's opaque
// state from the account's init data and returns its serialized form.
// HandleEvent runs one event against the serialized state and the
// supplied Effect, returning the handler's updated serialized state; the
// handler communicates all side effects exclusively through mutations to
// the Effect it was given.
type HandlerT interface {
	InitState(initData []byte, effect *Effect) ([]byte, error)
	HandleEvent(state []byte, eventRaw []byte, effect *Effect) ([]byte, error)
}
