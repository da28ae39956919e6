package pipeline

import (
	"testing"

	"github.com/race-sub000/gamecore/internal/handler"
)

func TestParentBridgeQueuesUntilChildRegisters(t *testing.T) {
	b := NewParentEventBridge()
	b.RouteFromParent(EventFrame{Kind: FrameSendBridgeEvent, Dest: 1, Bridge: handler.EmitBridgeEvent{Dest: 1, Raw: []byte("hi")}})

	inbox := make(chan EventFrame, 4)
	b.RegisterChild(1, inbox)

	select {
	case f := <-inbox:
		if f.Kind != FrameRecvBridgeEvent || string(f.Bridge.Raw) != "hi" {
			t.Fatalf("unexpected queued frame: %+v", f)
		}
	default:
		t.Fatalf("expected the queued frame to flush on registration")
	}
}

func TestParentBridgeDeliversImmediatelyToRegisteredChild(t *testing.T) {
	b := NewParentEventBridge()
	inbox := make(chan EventFrame, 4)
	b.RegisterChild(1, inbox)

	b.RouteFromParent(EventFrame{Kind: FrameSendBridgeEvent, Dest: 1, Bridge: handler.EmitBridgeEvent{Dest: 1, Raw: []byte("hey")}})

	select {
	case f := <-inbox:
		if string(f.Bridge.Raw) != "hey" {
			t.Fatalf("unexpected frame: %+v", f)
		}
	default:
		t.Fatalf("expected immediate delivery to a registered child")
	}
}

func TestParentBridgeBroadcastsSyncToAllChildrenAsSubSync(t *testing.T) {
	b := NewParentEventBridge()
	inboxA := make(chan EventFrame, 4)
	inboxB := make(chan EventFrame, 4)
	b.RegisterChild(1, inboxA)
	b.RegisterChild(2, inboxB)

	b.RouteFromParent(EventFrame{Kind: FrameSync, AccessVersion: 5, NewDeposits: []NewDeposit{{Addr: "p1", Amount: 10}}})

	for _, inbox := range []chan EventFrame{inboxA, inboxB} {
		select {
		case f := <-inbox:
			if f.Kind != FrameSubSync || f.AccessVersion != 5 || f.NewDeposits != nil {
				t.Fatalf("unexpected sub-sync frame: %+v", f)
			}
		default:
			t.Fatalf("expected every child to receive the sub-sync frame")
		}
	}
}

func TestChildBridgeRelaysUpwardAsRecvBridgeEvent(t *testing.T) {
	parentInbox := make(chan EventFrame, 4)
	child := NewChildEventBridge(1, parentInbox)

	child.RouteFromChild(1, EventFrame{Kind: FrameSendBridgeEvent, Dest: 0, Bridge: handler.EmitBridgeEvent{Raw: []byte("up")}})

	select {
	case f := <-parentInbox:
		if f.Kind != FrameRecvBridgeEvent || f.From != 1 || string(f.Bridge.Raw) != "up" {
			t.Fatalf("unexpected relayed frame: %+v", f)
		}
	default:
		t.Fatalf("expected the parent inbox to receive the relayed frame")
	}
}
