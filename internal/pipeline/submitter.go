package pipeline

import (
	"context"
	"sort"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/race-sub000/gamecore/internal/handler"
)

const (
	squashLimit      = 50
	squashTimeWindow = 30 * time.Second
)

// Submitter owns the two responsibilities downstream of a checkpointed
// event: persisting the off-chain checkpoint bytes, and squashing a run
// of settlement frames into as few on-chain transactions as possible.
type Submitter struct {
	logger   log.Logger
	storage  Storage
	transport Transport
	gameAddr string

	in  <-chan EventFrame
	out chan<- EventFrame
}

func NewSubmitter(logger log.Logger, storage Storage, transport Transport, gameAddr string, in <-chan EventFrame, out chan<- EventFrame) *Submitter {
	return &Submitter{logger: logger, storage: storage, transport: transport, gameAddr: gameAddr, in: in, out: out}
}

// Run persists every incoming checkpoint, then squashes consecutive
// settlements until a stop condition fires or the channel closes.
func (s *Submitter) Run(ctx context.Context) {
	var pending []SettleDetails
	timer := time.NewTimer(squashTimeWindow)
	defer timer.Stop()

	flush := func() {
		if len(pending) == 0 {
			return
		}
		folded := foldSettleDetails(pending)
		pending = nil
		s.submit(ctx, folded)
	}

	for {
		select {
		case frame, ok := <-s.in:
			if !ok {
				flush()
				return
			}
			if frame.Kind != FrameSettle {
				continue
			}
			details := frame.SettleDetails
			if err := s.storage.SaveCheckpoint(ctx, s.gameAddr, details.SettleVersion, details.Checkpoint); err != nil {
				level.Error(s.logger).Log("msg", "checkpoint persistence failed, fatal", "game", s.gameAddr, "settle_version", details.SettleVersion, "err", err)
				return
			}

			pending = append(pending, details)
			if shouldStopSquashing(details) || len(pending) >= squashLimit {
				flush()
				if !timer.Stop() {
					<-timer.C
				}
				timer.Reset(squashTimeWindow)
				continue
			}
		case <-timer.C:
			flush()
			timer.Reset(squashTimeWindow)
		case <-ctx.Done():
			flush()
			return
		}
	}
}

// shouldStopSquashing reports whether this checkpoint must be submitted
// on its own rather than folded with whatever follows it: a non-zero
// withdrawal/ejection, an award, or the very first checkpoint a game
// ever produces all need their own transaction promptly.
func shouldStopSquashing(d SettleDetails) bool {
	if d.NextSettleVersion == 1 {
		return true
	}
	if len(d.Awards) != 0 {
		return true
	}
	for _, s := range d.Settles {
		if s.Op == handler.SettleSub || s.Op == handler.SettleEject {
			if s.Op == handler.SettleEject || s.Amount != 0 {
				return true
			}
		}
	}
	return false
}

// foldSettleDetails merges a run of consecutive checkpoints into one
// settlement: settles merge by player address, transfers sum by amount,
// awards concatenate in order, the entry lock and checkpoint/access
// version come from the most recent member, the settle version comes
// from the oldest member, and the next settle version is the oldest
// member's next settle version advanced by one for each further member.
func foldSettleDetails(batch []SettleDetails) SettleDetails {
	if len(batch) == 1 {
		return batch[0]
	}

	oldest := batch[0]
	newest := batch[len(batch)-1]

	settleByAddr := make(map[string]*handler.SettleWithAddr)
	var order []string
	for _, d := range batch {
		for _, s := range d.Settles {
			entry, ok := settleByAddr[s.Addr]
			if !ok {
				copy := s
				settleByAddr[s.Addr] = &copy
				order = append(order, s.Addr)
				continue
			}
			switch s.Op {
			case handler.SettleAdd:
				if entry.Op == handler.SettleAdd {
					entry.Amount += s.Amount
				} else {
					entry.Op = handler.SettleAdd
					entry.Amount = s.Amount
				}
			case handler.SettleSub:
				if entry.Op == handler.SettleSub {
					entry.Amount += s.Amount
				} else {
					entry.Op = handler.SettleSub
					entry.Amount = s.Amount
				}
			case handler.SettleEject:
				entry.Op = handler.SettleEject
			case handler.SettleAssignSlot:
				entry.Op = handler.SettleAssignSlot
				entry.Slot = s.Slot
			}
		}
	}
	settles := make([]handler.SettleWithAddr, 0, len(order))
	for _, addr := range order {
		settles = append(settles, *settleByAddr[addr])
	}
	rankOp := func(op handler.SettleOp) int {
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
	sort.SliceStable(settles, func(i, j int) bool { return rankOp(settles[i].Op) < rankOp(settles[j].Op) })

	transferByAddr := make(map[string]uint64)
	var transferOrder []string
	for _, d := range batch {
		for _, t := range d.Transfers {
			if _, ok := transferByAddr[t.Addr]; !ok {
				transferOrder = append(transferOrder, t.Addr)
			}
			transferByAddr[t.Addr] += t.Amount
		}
	}
	transfers := make([]handler.Transfer, 0, len(transferOrder))
	for _, addr := range transferOrder {
		transfers = append(transfers, handler.Transfer{Addr: addr, Amount: transferByAddr[addr]})
	}

	var awards []string
	for _, d := range batch {
		awards = append(awards, d.Awards...)
	}

	return SettleDetails{
		GameAddr:          newest.GameAddr,
		AccessVersion:     newest.AccessVersion,
		SettleVersion:     oldest.SettleVersion,
		NextSettleVersion: oldest.NextSettleVersion + uint64(len(batch)) - 1,
		Checkpoint:        newest.Checkpoint,
		Settles:           settles,
		Transfers:         transfers,
		EntryLock:         mostRecentEntryLock(batch),
		Awards:            awards,
	}
}

func mostRecentEntryLock(batch []SettleDetails) *handler.EntryLock {
	for i := len(batch) - 1; i >= 0; i-- {
		if batch[i].EntryLock != nil {
			return batch[i].EntryLock
		}
	}
	return nil
}

func (s *Submitter) submit(ctx context.Context, details SettleDetails) {
	sig, err := s.transport.SettleGame(ctx, s.gameAddr, details)
	if s.out == nil {
		return
	}
	if err != nil {
		level.Warn(s.logger).Log("msg", "settle submission failed", "game", s.gameAddr, "settle_version", details.SettleVersion, "err", err)
		s.out <- EventFrame{Kind: FrameTxState, GameAddr: s.gameAddr, TxState: TxState{Ok: false, SettleVersion: details.SettleVersion, Err: err.Error()}}
		return
	}
	s.out <- EventFrame{Kind: FrameTxState, GameAddr: s.gameAddr, TxState: TxState{Ok: true, Signature: sig, SettleVersion: details.SettleVersion}}
}
