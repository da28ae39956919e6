package pipeline

import "sync"

// EventBridge relays SendBridgeEvent/RecvBridgeEvent frames between a
// master game's event loop and its forked sub-games. A parent bridge
// owns one child route per launched sub-game id; a child bridge only
// ever talks to its single parent.
type EventBridge struct {
	mu       sync.Mutex
	isParent bool

	// parent-side state
	children  map[int]chan<- EventFrame
	launching map[int][]EventFrame // queued sends, held until SubGameReady

	// child-side state
	subGameID  int
	parentSend chan<- EventFrame
	childInbox chan EventFrame
}

// NewParentEventBridge builds the bridge a master game's pipeline owns.
func NewParentEventBridge() *EventBridge {
	return &EventBridge{
		isParent:  true,
		children:  make(map[int]chan<- EventFrame),
		launching: make(map[int][]EventFrame),
	}
}

// NewChildEventBridge builds the bridge a sub-game's pipeline owns,
// wired to its parent's inbound channel at launch time.
func NewChildEventBridge(subGameID int, parentSend chan<- EventFrame) *EventBridge {
	return &EventBridge{
		isParent:   false,
		subGameID:  subGameID,
		parentSend: parentSend,
		childInbox: make(chan EventFrame, 32),
	}
}

// RegisterChild wires a newly launched sub-game's inbox into the parent
// bridge, flushing anything queued for it while it was still launching.
func (b *EventBridge) RegisterChild(subGameID int, inbox chan<- EventFrame) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.children[subGameID] = inbox
	for _, frame := range b.launching[subGameID] {
		inbox <- frame
	}
	delete(b.launching, subGameID)
}

// RouteFromParent dispatches a SendBridgeEvent the master's event loop
// emitted, by destination sub-game id. Sync and Shutdown are broadcast
// to every registered child; a Sync goes out relabeled as SubSync with
// its per-child deposit deltas (NewDeposits) stripped here.
func (b *EventBridge) RouteFromParent(frame EventFrame) {
	if !b.isParent {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	switch frame.Kind {
	case FrameSendBridgeEvent:
		if inbox, ok := b.children[frame.Dest]; ok {
			inbox <- EventFrame{Kind: FrameRecvBridgeEvent, GameAddr: frame.GameAddr, Dest: frame.Dest, Bridge: frame.Bridge}
			return
		}
		b.launching[frame.Dest] = append(b.launching[frame.Dest], EventFrame{
			Kind: FrameRecvBridgeEvent, GameAddr: frame.GameAddr, Dest: frame.Dest, Bridge: frame.Bridge,
		})
	case FrameSync, FrameShutdown:
		subFrame := frame
		if frame.Kind == FrameSync {
			subFrame.Kind = FrameSubSync
			subFrame.NewDeposits = nil
		}
		for _, inbox := range b.children {
			inbox <- subFrame
		}
	}
}

// RouteFromChild relays a sub-game's own SendBridgeEvent upward to the
// parent as a RecvBridgeEvent carrying the child's id as sender.
func (b *EventBridge) RouteFromChild(fromSubGameID int, frame EventFrame) {
	if b.isParent || b.parentSend == nil {
		return
	}
	frame.Kind = FrameRecvBridgeEvent
	frame.From = fromSubGameID
	b.parentSend <- frame
}

// ChildInbox is the channel a child bridge's own event loop reads
// incoming frames from (those destined for its id, plus broadcast
// Sync/Shutdown).
func (b *EventBridge) ChildInbox() chan EventFrame { return b.childInbox }

// Deliver pushes a frame the parent routed onto this child's inbox.
func (b *EventBridge) Deliver(frame EventFrame) {
	if b.isParent {
		return
	}
	b.childInbox <- frame
}
