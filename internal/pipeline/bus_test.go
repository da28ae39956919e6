package pipeline

import "testing"

type recordingBroadcaster struct {
	frames []EventFrame
}

func (r *recordingBroadcaster) Broadcast(gameAddr string, frame EventFrame) {
	r.frames = append(r.frames, frame)
}

func TestBusRoutesSettleToSubmitter(t *testing.T) {
	b := NewBus("g1", nil, 4)
	b.Dispatch(EventFrame{Kind: FrameSettle, GameAddr: "g1"})
	select {
	case f := <-b.SubmitterInbox():
		if f.Kind != FrameSettle {
			t.Fatalf("expected FrameSettle, got %v", f.Kind)
		}
	default:
		t.Fatalf("expected a frame to reach the submitter inbox")
	}
}

func TestBusRoutesBridgeEventToBridge(t *testing.T) {
	b := NewBus("g1", nil, 4)
	b.Dispatch(EventFrame{Kind: FrameSendBridgeEvent, GameAddr: "g1", Dest: 2})
	select {
	case f := <-b.BridgeInbox():
		if f.Dest != 2 {
			t.Fatalf("expected dest 2, got %d", f.Dest)
		}
	default:
		t.Fatalf("expected a frame to reach the bridge inbox")
	}
}

func TestBusBroadcastsOtherFrames(t *testing.T) {
	rec := &recordingBroadcaster{}
	b := NewBus("g1", rec, 4)
	b.Dispatch(EventFrame{Kind: FrameContextUpdated, GameAddr: "g1"})
	if len(rec.frames) != 1 {
		t.Fatalf("expected one broadcast frame, got %d", len(rec.frames))
	}
}
