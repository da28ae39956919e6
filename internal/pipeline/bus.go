package pipeline

// Bus is the in-process frame router wiring a game's EventLoop,
// Synchronizer, Submitter, and EventBridge together. Every component
// reads from one Bus-owned channel and writes to others via the Bus,
// rather than holding direct references to its peers.
type Bus struct {
	toEventLoop    chan EventFrame
	toSubmitter    chan EventFrame
	toBridge       chan EventFrame
	toBroadcaster  chan EventFrame
	broadcaster    Broadcaster
	gameAddr       string
}

// NewBus allocates the channels a game's pipeline components share.
// bufSize bounds how far a producer can run ahead of its slowest
// consumer before blocking — the same backpressure the teacher's ABCI
// mempool gossip relies on rather than unbounded buffering.
func NewBus(gameAddr string, broadcaster Broadcaster, bufSize int) *Bus {
	return &Bus{
		toEventLoop:   make(chan EventFrame, bufSize),
		toSubmitter:   make(chan EventFrame, bufSize),
		toBridge:      make(chan EventFrame, bufSize),
		toBroadcaster: make(chan EventFrame, bufSize),
		broadcaster:   broadcaster,
		gameAddr:      gameAddr,
	}
}

func (b *Bus) EventLoopInbox() chan EventFrame { return b.toEventLoop }
func (b *Bus) SubmitterInbox() chan EventFrame { return b.toSubmitter }
func (b *Bus) BridgeInbox() chan EventFrame    { return b.toBridge }

// Dispatch routes a frame emitted by the EventLoop to whichever
// downstream component owns that frame kind.
func (b *Bus) Dispatch(frame EventFrame) {
	switch frame.Kind {
	case FrameSettle:
		b.toSubmitter <- frame
	case FrameSendBridgeEvent:
		b.toBridge <- frame
	case FrameBroadcast, FrameContextUpdated, FrameCheckpoint, FrameLaunchSubGame,
		FrameSubGameShutdown, FrameSubGameReady, FrameTxState:
		if b.broadcaster != nil {
			b.broadcaster.Broadcast(b.gameAddr, frame)
		}
	default:
		if b.broadcaster != nil {
			b.broadcaster.Broadcast(b.gameAddr, frame)
		}
	}
}

// Run drains whatever the EventLoop emits on out and dispatches each
// frame, until out closes. Meant to be launched as its own goroutine
// alongside the EventLoop's own Run.
func (b *Bus) Run(out <-chan EventFrame) {
	for frame := range out {
		b.Dispatch(frame)
	}
}

func (b *Bus) Close() {
	close(b.toEventLoop)
	close(b.toSubmitter)
	close(b.toBridge)
}
