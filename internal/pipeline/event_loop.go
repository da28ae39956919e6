package pipeline

import (
	"fmt"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/race-sub000/gamecore/internal/event"
	"github.com/race-sub000/gamecore/internal/gamectx"
	"github.com/race-sub000/gamecore/internal/handler"
)

// CloseReason is why an EventLoop (or any other pipeline component)
// stopped running its cooperative loop.
type CloseReason struct {
	Fault error // nil means Complete
}

func (r CloseReason) IsComplete() bool { return r.Fault == nil }

// EventLoop sequentially drains input frames for a single game,
// maintaining its GameContext and invoking the handler exactly once per
// handled event — the only component allowed to mutate that GameContext.
type EventLoop struct {
	logger  log.Logger
	h       handler.HandlerT
	ctx     *gamectx.GameContext
	isSub   bool

	In  <-chan EventFrame
	Out chan<- EventFrame
}

func NewEventLoop(logger log.Logger, h handler.HandlerT, ctx *gamectx.GameContext, isSubGame bool, in <-chan EventFrame, out chan<- EventFrame) *EventLoop {
	return &EventLoop{logger: logger, h: h, ctx: ctx, isSub: isSubGame, In: in, Out: out}
}

// Context exposes the GameContext this loop owns, for the session
// supervisor's own bookkeeping (forking sub-games, reconciling
// checkpoints) — never for another pipeline component to mutate.
func (l *EventLoop) Context() *gamectx.GameContext { return l.ctx }

// Run drains In until it closes or a fault occurs, returning why it
// stopped. It is meant to be launched as its own goroutine.
func (l *EventLoop) Run() CloseReason {
	for frame := range l.In {
		if err := l.handleFrame(frame); err != nil {
			level.Error(l.logger).Log("msg", "event loop fault", "game", l.ctx.GameAddr(), "err", err)
			return CloseReason{Fault: err}
		}
		if frame.Kind == FrameShutdown {
			return CloseReason{}
		}
	}
	return CloseReason{}
}

func (l *EventLoop) handleFrame(frame EventFrame) error {
	switch frame.Kind {
	case FrameInitState:
		return l.handleInitState(frame)
	case FrameRecoverCheckpoint:
		return l.handleRecoverCheckpoint(frame)
	case FrameSync, FrameSubSync:
		return l.handleSync(frame)
	case FramePlayerLeaving:
		return l.handlePlayerLeaving(frame)
	case FrameSubGameReady, FrameSubGameShutdown:
		return l.handleSubGameLifecycle(frame)
	case FrameRecvBridgeEvent:
		return l.handleRecvBridgeEvent(frame)
	case FrameSendEvent, FrameSendServerEvent:
		return l.runEvent(frame.Event, frame.Timestamp)
	case FrameShutdown:
		return nil
	default:
		return nil
	}
}

// handleInitState builds (or recovers, for InitState) the context's
// handler state, an operation distinct from replaying a checkpoint.
func (l *EventLoop) handleInitState(frame EventFrame) error {
	effect := l.ctx.DeriveEffect()
	state, err := l.h.InitState(frame.InitData, effect)
	if err != nil {
		return fmt.Errorf("event loop: init_state: %w", err)
	}
	effect.HandlerState = state
	return l.ctx.ApplyEffect(effect)
}

// handleRecoverCheckpoint restores a GameContext from a checkpoint's
// VersionedData: the handler state is taken from the master entry (id 0);
// for the master, it emits LaunchSubGame for every existing sub-game leaf;
// for a sub-game, it re-runs the GameContext's pending dispatch, if one is
// set. Bridge events stored in the checkpoint are not replayed.
func (l *EventLoop) handleRecoverCheckpoint(frame EventFrame) error {
	if frame.Checkpoint == nil {
		return fmt.Errorf("event loop: recover checkpoint: missing checkpoint")
	}
	master, ok := frame.Checkpoint.GetVersionedData(0)
	if !ok {
		return fmt.Errorf("event loop: recover checkpoint: no master versioned data")
	}
	l.ctx.SetHandlerStateRaw(master.Data)

	if !l.isSub {
		for _, vd := range frame.Checkpoint.ListVersionedData() {
			if vd.ID == 0 {
				continue
			}
			l.emit(EventFrame{Kind: FrameLaunchSubGame, GameAddr: l.ctx.GameAddr(), SubGameID: vd.ID})
		}
		return nil
	}

	if dispatch := l.ctx.GetDispatch(); dispatch != nil {
		return l.runEvent(dispatch.Event, l.ctx.Timestamp())
	}
	return nil
}

func (l *EventLoop) handleSync(frame EventFrame) error {
	for _, p := range frame.NewPlayers {
		l.ctx.AddNode(p.Addr, p.AccessVersion, handler.ClientPlayer)
		id, err := l.ctx.AddrToID(p.Addr)
		if err != nil {
			return err
		}
		if err := l.runEvent(event.Custom(id, []byte(fmt.Sprintf("join:%s", p.Addr))), frame.Timestamp); err != nil {
			return err
		}
	}
	for _, s := range frame.NewServers {
		l.ctx.AddNode(s.Addr, s.AccessVersion, handler.ClientValidator)
	}
	for _, d := range frame.NewDeposits {
		id, err := l.ctx.AddrToID(d.Addr)
		if err != nil {
			return err
		}
		if err := l.runEvent(event.Custom(id, []byte(fmt.Sprintf("deposit:%d", d.Amount))), frame.Timestamp); err != nil {
			return err
		}
	}
	l.ctx.SetAccessVersion(frame.AccessVersion)
	l.ctx.SetNodeReady(frame.AccessVersion)
	return nil
}

func (l *EventLoop) handlePlayerLeaving(frame EventFrame) error {
	id, err := l.ctx.AddrToID(frame.PlayerAddr)
	if err != nil {
		return err
	}
	return l.runEvent(event.Leave(id), frame.Timestamp)
}

// handleSubGameLifecycle only logs a SubGameReady/SubGameShutdown frame
// (parent-side only); folding a sub-game's VersionedData into the
// master's checkpoint happens in internal/session.
func (l *EventLoop) handleSubGameLifecycle(frame EventFrame) error {
	if l.isSub {
		return nil
	}
	level.Debug(l.logger).Log("msg", "sub-game lifecycle", "kind", frame.Kind.String(), "sub_game", frame.SubGameID)
	return nil
}

func (l *EventLoop) handleRecvBridgeEvent(frame EventFrame) error {
	return l.runEvent(event.Bridge(frame.Dest, frame.Bridge.Raw), frame.Timestamp)
}

// runEvent is the common tail of every frame kind that ultimately feeds
// the handler one event: derive an Effect, invoke the handler, fold the
// result back, then emit the downstream frames the spec requires for
// every handled event.
func (l *EventLoop) runEvent(ev event.Event, timestamp uint64) error {
	l.ctx.PrepareForNextEvent(timestamp)
	effect := l.ctx.DeriveEffect()

	raw := encodeEventForHandler(ev)
	state, err := l.h.HandleEvent(l.ctx.HandlerStateRaw(), raw, effect)
	if err != nil {
		return fmt.Errorf("event loop: handle_event: %w", err)
	}
	effect.HandlerState = state

	if err := l.ctx.ApplyEffect(effect); err != nil {
		return err
	}

	eff, err := l.ctx.TakeEventEffects()
	if err != nil {
		return err
	}

	l.emit(EventFrame{Kind: FrameBroadcast, GameAddr: l.ctx.GameAddr(), Event: ev, Timestamp: timestamp})
	l.emit(EventFrame{Kind: FrameContextUpdated, GameAddr: l.ctx.GameAddr()})

	if eff.Checkpoint != nil {
		l.emit(EventFrame{
			Kind:       FrameCheckpoint,
			GameAddr:   l.ctx.GameAddr(),
			Checkpoint: nil,
			SettleDetails: SettleDetails{
				GameAddr:          l.ctx.GameAddr(),
				AccessVersion:     l.ctx.AccessVersion(),
				SettleVersion:     l.ctx.SettleVersion(),
				NextSettleVersion: l.ctx.NextSettleVersion(),
				Checkpoint:        eff.Checkpoint,
				Settles:           eff.Settles,
				Transfers:         eff.Transfers,
			},
		})
	}

	if eff.StartGame && l.isSub {
		l.emit(EventFrame{Kind: FrameSubGameShutdown, GameAddr: l.ctx.GameAddr()})
	}

	if !l.isSub {
		for _, sg := range eff.LaunchSubGames {
			l.emit(EventFrame{Kind: FrameLaunchSubGame, GameAddr: l.ctx.GameAddr(), SubGameInit: sg, SubGameID: sg.ID})
		}
	}

	seenDest := make(map[int]bool)
	for _, be := range eff.BridgeEvents {
		if seenDest[be.Dest] {
			return fmt.Errorf("event loop: duplicated bridge event target %d", be.Dest)
		}
		seenDest[be.Dest] = true
		l.emit(EventFrame{Kind: FrameSendBridgeEvent, GameAddr: l.ctx.GameAddr(), Dest: be.Dest, Bridge: be})
	}

	if eff.Checkpoint != nil {
		l.emit(EventFrame{Kind: FrameSettle, GameAddr: l.ctx.GameAddr(), SettleDetails: SettleDetails{
			GameAddr:          l.ctx.GameAddr(),
			AccessVersion:     l.ctx.AccessVersion(),
			SettleVersion:     l.ctx.SettleVersion(),
			NextSettleVersion: l.ctx.NextSettleVersion(),
			Checkpoint:        eff.Checkpoint,
			Settles:           eff.Settles,
			Transfers:         eff.Transfers,
		}})
	}

	return nil
}

func (l *EventLoop) emit(frame EventFrame) {
	if l.Out == nil {
		return
	}
	l.Out <- frame
}

// encodeEventForHandler gives a handler implementation a concrete byte
// payload for an event, in the same wire form a bytecode handler decodes
// on its side of the boundary; a native handler decodes it right back
// with event.Decode rather than re-deriving it from the in-process
// event.Event it already has in scope.
func encodeEventForHandler(ev event.Event) []byte {
	return event.Encode(ev)
}
