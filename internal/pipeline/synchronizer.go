package pipeline

import (
	"context"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Synchronizer watches a game's on-chain account and turns access-version
// diffs into a single Sync frame per update: entries whose own access
// version is newer than the last one observed are new, have their
// signing credentials resolved (and cached) before the frame is
// emitted, and are carried alongside any new deposits.
type Synchronizer struct {
	logger    log.Logger
	transport Transport
	gameAddr  string

	lastAccessVersion uint64
	credentialCache   map[string]string

	out chan<- EventFrame
}

func NewSynchronizer(logger log.Logger, transport Transport, gameAddr string, startAccessVersion uint64, out chan<- EventFrame) *Synchronizer {
	return &Synchronizer{
		logger:            logger,
		transport:         transport,
		gameAddr:          gameAddr,
		lastAccessVersion: startAccessVersion,
		credentialCache:   make(map[string]string),
		out:               out,
	}
}

// Run subscribes to on-chain account updates and emits a Sync frame for
// each one that advances the access version, until the subscription
// closes or ctx is cancelled, at which point it emits Shutdown.
func (s *Synchronizer) Run(ctx context.Context) {
	updates, err := s.transport.SubscribeGameAccount(ctx, s.gameAddr)
	if err != nil {
		level.Error(s.logger).Log("msg", "subscribe game account failed", "game", s.gameAddr, "err", err)
		s.emitShutdown()
		return
	}

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				s.emitShutdown()
				return
			}
			if update.AccessVersion <= s.lastAccessVersion {
				continue
			}
			s.handleUpdate(ctx, update)
		case <-ctx.Done():
			s.emitShutdown()
			return
		}
	}
}

// handleUpdate diffs one on-chain snapshot against the last access
// version observed: only entries whose own access version is newer are
// "new", the same per-entry filter the update as a whole was already
// checked against. A Sync frame is emitted only when something actually
// changed, never unconditionally on every poll.
func (s *Synchronizer) handleUpdate(ctx context.Context, update GameAccountUpdate) {
	prev := s.lastAccessVersion

	var newPlayers []NewPlayerJoin
	for _, p := range update.Players {
		if p.AccessVersion <= prev {
			continue
		}
		s.resolveCredentials(ctx, p.Addr)
		newPlayers = append(newPlayers, p)
	}

	var newServers []NewServerJoin
	for _, srv := range update.Servers {
		if srv.AccessVersion <= prev {
			continue
		}
		s.resolveCredentials(ctx, srv.Addr)
		newServers = append(newServers, srv)
	}

	var newDeposits []NewDeposit
	for _, d := range update.Deposits {
		if d.AccessVersion <= prev {
			continue
		}
		newDeposits = append(newDeposits, d)
	}

	s.lastAccessVersion = update.AccessVersion

	if len(newPlayers) == 0 && len(newServers) == 0 && len(newDeposits) == 0 {
		return
	}

	s.out <- EventFrame{
		Kind:           FrameSync,
		GameAddr:       s.gameAddr,
		AccessVersion:  update.AccessVersion,
		NewPlayers:     newPlayers,
		NewServers:     newServers,
		NewDeposits:    newDeposits,
		TransactorAddr: update.TransactorAddr,
	}
}

// resolveCredentials fetches and caches addr's signing key, retrying
// indefinitely on failure: a node the chain has already accepted must
// eventually be resolvable, so giving up here would desynchronize the
// local roster from the account it mirrors.
func (s *Synchronizer) resolveCredentials(ctx context.Context, addr string) {
	if _, ok := s.credentialCache[addr]; ok {
		return
	}
	for {
		key, err := s.transport.ResolveCredentials(ctx, addr)
		if err == nil {
			s.credentialCache[addr] = key
			return
		}
		level.Warn(s.logger).Log("msg", "resolve credentials failed, retrying", "addr", addr, "err", err)
		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

func (s *Synchronizer) emitShutdown() {
	if s.out == nil {
		return
	}
	s.out <- EventFrame{Kind: FrameShutdown, GameAddr: s.gameAddr}
}
