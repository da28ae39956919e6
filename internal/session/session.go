// Package session wires one game address's full pipeline together: the
// Bus, EventLoop, Synchronizer, Submitter, and parent EventBridge, and
// forks a child Session for every sub-game a handler launches. It is
// the supervisor cmd/transactord drives, and the one place that owns a
// master game's Checkpoint across sub-game launches and bridge traffic.
package session

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/race-sub000/gamecore/internal/checkpoint"
	"github.com/race-sub000/gamecore/internal/gamectx"
	"github.com/race-sub000/gamecore/internal/handler"
	"github.com/race-sub000/gamecore/internal/pipeline"
)

const busBufferSize = 64

// HandlerFactory builds the handler instance a session runs, given the
// bundle address named by the game's spec (a wasmer-go bytecode handler
// fetched from storage, or a native handler registered for local
// testing/example games).
type HandlerFactory func(bundleAddr string) (handler.HandlerT, error)

// Session supervises the pipeline for one game: its master GameContext
// (or a sub-game's, when forked), the checkpoint it accumulates, and
// any sub-games it has launched.
type Session struct {
	logger    log.Logger
	factory   HandlerFactory
	storage   pipeline.Storage
	transport pipeline.Transport

	gameAddr   string
	bundleAddr string
	isSub      bool
	subID      int

	bus          *pipeline.Bus
	busOut       chan pipeline.EventFrame
	loop         *pipeline.EventLoop
	submitter    *pipeline.Submitter
	synchronizer *pipeline.Synchronizer
	bridge       *pipeline.EventBridge

	mu         sync.Mutex
	checkpoint *checkpoint.Checkpoint
	children   map[int]*Session
	parent     *Session
}

// NewMaster builds the top-level Session for a freshly-served game
// account, wiring every pipeline component and constructing a master
// GameContext from the on-chain account.
func NewMaster(logger log.Logger, factory HandlerFactory, storage pipeline.Storage, transport pipeline.Transport, account gamectx.GameAccount) (*Session, error) {
	ctx, err := gamectx.New(account)
	if err != nil {
		return nil, fmt.Errorf("session: new master context: %w", err)
	}

	h, err := factory(account.Addr)
	if err != nil {
		return nil, fmt.Errorf("session: handler factory: %w", err)
	}

	s := &Session{
		logger:     logger,
		factory:    factory,
		storage:    storage,
		transport:  transport,
		gameAddr:   account.Addr,
		bundleAddr: account.Addr,
		children:   make(map[int]*Session),
	}
	s.wire(h, ctx, false, 0, nil)
	return s, nil
}

// forkSubGame builds a Session for a sub-game a handler's Effect asked
// to launch, inheriting the parent's node roster and versions.
func (s *Session) forkSubGame(spec handler.LaunchSubGame, nodes []gamectx.Node, accessVersion, settleVersion uint64) (*Session, error) {
	subSpec := gamectx.SubGameSpec{
		GameAddr:      s.gameAddr,
		SubID:         spec.ID,
		Nodes:         nodes,
		AccessVersion: accessVersion,
		SettleVersion: settleVersion,
	}
	ctx := gamectx.NewSubGame(subSpec)

	h, err := s.factory(spec.BundleAddr)
	if err != nil {
		return nil, fmt.Errorf("session: sub-game %d handler factory: %w", spec.ID, err)
	}

	child := &Session{
		logger:     log.With(s.logger, "sub_game", spec.ID),
		factory:    s.factory,
		storage:    s.storage,
		transport:  s.transport,
		gameAddr:   ctx.GameAddr(),
		bundleAddr: spec.BundleAddr,
		isSub:      true,
		subID:      spec.ID,
		parent:     s,
		children:   make(map[int]*Session),
	}
	child.wire(h, ctx, true, spec.ID, s.bus.EventLoopInbox())

	s.mu.Lock()
	s.children[spec.ID] = child
	s.mu.Unlock()
	s.bridge.RegisterChild(spec.ID, child.bus.EventLoopInbox())

	return child, nil
}

// wire builds this session's bus and pipeline components, all of them
// funneling their output into a single shared channel (busOut): both the
// EventLoop and the Submitter emit frames the bus then routes (a settled
// TxState is just as much "output" as a checkpoint or a broadcast).
// parentInbox is the channel a sub-game's bridge relays outgoing bridge
// events to (the master's own event-loop inbox); it is nil for a master
// session.
func (s *Session) wire(h handler.HandlerT, ctx *gamectx.GameContext, isSub bool, subID int, parentInbox chan<- pipeline.EventFrame) {
	broadcaster := noopBroadcaster{}
	bus := pipeline.NewBus(s.gameAddr, broadcaster, busBufferSize)

	busOut := make(chan pipeline.EventFrame, busBufferSize)
	loop := pipeline.NewEventLoop(s.logger, h, ctx, isSub, bus.EventLoopInbox(), busOut)

	submitter := pipeline.NewSubmitter(s.logger, s.storage, s.transport, s.gameAddr, bus.SubmitterInbox(), busOut)

	var bridge *pipeline.EventBridge
	if isSub {
		bridge = pipeline.NewChildEventBridge(subID, parentInbox)
	} else {
		bridge = pipeline.NewParentEventBridge()
	}

	s.bus = bus
	s.busOut = busOut
	s.loop = loop
	s.submitter = submitter
	s.bridge = bridge
	s.isSub = isSub
	s.subID = subID
}

// Run launches every pipeline component as its own goroutine and blocks
// until the EventLoop stops (shutdown or fault). The background
// goroutines it owns (Bus fan-out, Submitter, Synchronizer, sub-game
// handling) are cancelled via ctx.
func (s *Session) Run(parentCtx context.Context) pipeline.CloseReason {
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for frame := range s.busOut {
			s.handleLoopOutput(ctx, frame)
			s.bus.Dispatch(frame)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.submitter.Run(ctx)
	}()

	if !s.isSub {
		syncOut := make(chan pipeline.EventFrame, busBufferSize)
		s.synchronizer = pipeline.NewSynchronizer(s.logger, s.transport, s.gameAddr, 0, syncOut)

		wg.Add(1)
		go func() {
			defer wg.Done()
			s.synchronizer.Run(ctx)
			close(syncOut)
		}()

		// A Sync (or the Shutdown the subscription closing produces) must
		// reach both this session's own EventLoop and, relabeled as
		// SubSync, every live child — the bridge does that relabeling,
		// the inbox send feeds this game's own handling of it.
		wg.Add(1)
		go func() {
			defer wg.Done()
			inbox := s.bus.EventLoopInbox()
			for frame := range syncOut {
				s.bridge.RouteFromParent(frame)
				inbox <- frame
			}
		}()
	}

	reason := s.loop.Run()

	// Cancel first so Submitter/Synchronizer stop on their own, then
	// drain everything before closing the bus — closing it underneath a
	// goroutine still trying to send would panic.
	cancel()
	close(s.busOut)
	wg.Wait()
	s.bus.Close()

	return reason
}

// handleLoopOutput intercepts frames the EventLoop emits that this
// Session itself must act on before they reach the bus: launching a new
// sub-game, folding a sub-game's VersionedData into the master's
// checkpoint view, and tearing a sub-game down once its loop says so.
func (s *Session) handleLoopOutput(ctx context.Context, frame pipeline.EventFrame) {
	switch frame.Kind {
	case pipeline.FrameLaunchSubGame:
		if s.isSub {
			return
		}
		parentCtx := s.loop.Context()
		child, err := s.forkSubGame(frame.SubGameInit, parentCtx.Nodes(), parentCtx.AccessVersion(), parentCtx.SettleVersion())
		if err != nil {
			level.Error(s.logger).Log("msg", "failed to fork sub-game", "sub_game", frame.SubGameID, "err", err)
			return
		}
		go func() {
			child.Run(ctx)
		}()
	case pipeline.FrameSendBridgeEvent:
		if s.isSub {
			s.bridge.RouteFromChild(s.subID, frame)
		} else {
			s.bridge.RouteFromParent(frame)
		}
	case pipeline.FrameCheckpoint:
		s.foldCheckpoint(frame)
	case pipeline.FrameSubGameShutdown:
		if s.isSub {
			if s.parent != nil {
				s.parent.forgetChild(s.subID)
			}
			s.bus.EventLoopInbox() <- pipeline.EventFrame{Kind: pipeline.FrameShutdown, GameAddr: s.gameAddr}
		}
	}
}

// foldCheckpoint turns this game's own new snapshot into a VersionedData
// and folds it into the owning master's checkpoint: a master folds it
// into its own, a sub-game hands it to its parent directly, mirroring
// the original's init_sub_game_data/update_sub_game_data split without
// needing a frame round-trip through the bridge for something both
// sessions already share a process with.
func (s *Session) foldCheckpoint(frame pipeline.EventFrame) {
	id := 0
	if s.isSub {
		id = s.subID
	}
	vd := checkpoint.VersionedData{
		ID:       id,
		GameSpec: gamectx.GameSpec{GameAddr: s.gameAddr, BundleAddr: s.bundleAddr},
		Versions: gamectx.NewVersions(frame.SettleDetails.AccessVersion, frame.SettleDetails.SettleVersion),
		Data:     frame.SettleDetails.Checkpoint,
		Sha:      sha256.Sum256(frame.SettleDetails.Checkpoint),
	}
	if s.isSub && s.parent != nil {
		s.parent.absorbVersionedData(vd)
		return
	}
	s.absorbVersionedData(vd)
}

func (s *Session) absorbVersionedData(vd checkpoint.VersionedData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.checkpoint == nil {
		s.checkpoint = checkpoint.New(vd.ID, vd.GameSpec, vd.Versions, vd.Data)
		return
	}
	if _, ok := s.checkpoint.GetVersionedData(vd.ID); ok {
		_ = s.checkpoint.UpdateVersionedData(vd)
		return
	}
	_ = s.checkpoint.InitVersionedData(vd)
}

// forgetChild drops a sub-game that has shut down from this session's
// bookkeeping. Its VersionedData is left in the checkpoint; nothing in
// this repository prunes it.
func (s *Session) forgetChild(id int) {
	s.mu.Lock()
	delete(s.children, id)
	s.mu.Unlock()
}

type noopBroadcaster struct{}

func (noopBroadcaster) Broadcast(gameAddr string, frame pipeline.EventFrame) {}
