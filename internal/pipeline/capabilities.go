package pipeline

import "context"

// Storage persists the off-chain part of a checkpoint keyed by game
// address and settle version. Persistence failures are fatal to the
// Submitter (the spec treats a failed write as unrecoverable rather than
// retryable, since a lost checkpoint can't be reconstructed).
type Storage interface {
	SaveCheckpoint(ctx context.Context, gameAddr string, settleVersion uint64, data []byte) error
	LoadCheckpoint(ctx context.Context, gameAddr string, settleVersion uint64) ([]byte, error)
}

// GameAccountUpdate is one snapshot the Synchronizer receives from chain.
type GameAccountUpdate struct {
	GameAddr       string
	AccessVersion  uint64
	Players        []NewPlayerJoin
	Servers        []NewServerJoin
	Deposits       []NewDeposit
	TransactorAddr string
}

// Transport is the on-chain read/write surface: settlement submission
// and game-account change subscription. Implementations own their own
// retry policy for the chain call itself (the Submitter does not retry).
type Transport interface {
	SettleGame(ctx context.Context, gameAddr string, details SettleDetails) (signature string, err error)
	SubscribeGameAccount(ctx context.Context, gameAddr string) (<-chan GameAccountUpdate, error)
	ResolveCredentials(ctx context.Context, addr string) (publicKeyDER string, err error)
}

// Broadcaster fans an EventFrame out to every subscriber of a game
// (clients performing cryptographic work, validators checking the
// transactor).
type Broadcaster interface {
	Broadcast(gameAddr string, frame EventFrame)
}

// Connection is a single node's inbound/outbound frame channel, the
// per-node port an EventBridge or Broadcaster writes to and a client
// reads from.
type Connection interface {
	Send(frame EventFrame) error
	Recv() (EventFrame, bool)
	Close()
}
