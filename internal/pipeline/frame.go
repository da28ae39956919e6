// Package pipeline implements the concurrent per-session runtime: a typed
// event bus connecting an EventLoop, a Synchronizer, a Submitter, and a
// pair of EventBridge relays (parent and child), each its own goroutine
// cooperating exclusively through frames and capability interfaces
// (Storage, Transport, Broadcaster, Connection).
package pipeline

import (
	"github.com/race-sub000/gamecore/internal/checkpoint"
	"github.com/race-sub000/gamecore/internal/event"
	"github.com/race-sub000/gamecore/internal/gamectx"
	"github.com/race-sub000/gamecore/internal/handler"
)

// FrameKind discriminates an EventFrame, mirroring the selected variants
// named by the runtime's pipeline design.
type FrameKind int

const (
	FrameInitState FrameKind = iota
	FrameRecoverCheckpoint
	FrameSync
	FrameSubSync
	FramePlayerLeaving
	FrameSendEvent
	FrameSendServerEvent
	FrameBroadcast
	FrameCheckpoint
	FrameSettle
	FrameLaunchSubGame
	FrameSubGameReady
	FrameSubGameShutdown
	FrameSubGameRecovered
	FrameSendBridgeEvent
	FrameRecvBridgeEvent
	FrameContextUpdated
	FrameTxState
	FrameShutdown
)

func (k FrameKind) String() string {
	names := [...]string{
		"InitState", "RecoverCheckpoint", "Sync", "SubSync", "PlayerLeaving",
		"SendEvent", "SendServerEvent", "Broadcast", "Checkpoint", "Settle",
		"LaunchSubGame", "SubGameReady", "SubGameShutdown", "SubGameRecovered",
		"SendBridgeEvent", "RecvBridgeEvent", "ContextUpdated", "TxState", "Shutdown",
	}
	if int(k) < 0 || int(k) >= len(names) {
		return "Unknown"
	}
	return names[k]
}

// NewPlayerJoin, NewServerJoin, and NewDeposit describe the
// synchronizer's diff output: each carries the access version it
// entered the game account at, so the synchronizer can tell new
// entries from ones already observed.
type NewPlayerJoin struct {
	Addr          string
	AccessVersion uint64
}

type NewServerJoin struct {
	Addr          string
	AccessVersion uint64
}

type NewDeposit struct {
	Addr          string
	Amount        uint64
	AccessVersion uint64
}

// TxState reports the outcome of a submitted transaction.
type TxState struct {
	Ok        bool
	Signature string
	SettleVersion uint64
	Err       string
}

// SettleDetails bundles one checkpoint-carrying event's settlement
// output, the unit the EventLoop hands to the Submitter.
type SettleDetails struct {
	GameAddr          string
	AccessVersion     uint64
	SettleVersion     uint64
	NextSettleVersion uint64
	Checkpoint        []byte
	Settles           []handler.SettleWithAddr
	Transfers         []handler.Transfer
	EntryLock         *handler.EntryLock
	Awards            []string
}

// EventFrame is the single message type every pipeline component reads
// from and writes to the bus.
type EventFrame struct {
	Kind FrameKind

	GameAddr string

	// FrameInitState
	AccessVersion uint64
	SettleVersion uint64
	Nodes         []gamectx.Node
	InitData      []byte

	// FrameRecoverCheckpoint
	Checkpoint *checkpoint.Checkpoint

	// FrameSync / FrameSubSync
	NewPlayers     []NewPlayerJoin
	NewServers     []NewServerJoin
	NewDeposits    []NewDeposit
	TransactorAddr string

	// FramePlayerLeaving
	PlayerAddr string

	// FrameSendEvent / FrameSendServerEvent / FrameBroadcast
	Event     event.Event
	Timestamp uint64
	StateSha  [32]byte

	// FrameSettle
	SettleDetails SettleDetails

	// FrameLaunchSubGame / FrameSubGameReady / FrameSubGameShutdown / FrameSubGameRecovered
	SubGameID      int
	SubGameInit    handler.LaunchSubGame
	VersionedData  checkpoint.VersionedData

	// FrameSendBridgeEvent / FrameRecvBridgeEvent
	From  int
	Dest  int
	Bridge handler.EmitBridgeEvent

	// FrameTxState
	TxState TxState
}
