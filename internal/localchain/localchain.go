// Package localchain is cmd/transactord's stand-in for the on-chain
// transport and storage backend the runtime depends on through
// pipeline.Transport and pipeline.Storage. A real chain transport and a
// production storage backend are out of scope for this repository; this
// package exists so the session supervisor has something concrete to
// drive locally, replaying a scripted sequence of account updates from a
// JSON fixture and persisting checkpoints as JSON files under the home
// directory, the same shape apps/chain's own state.Load/state.Save use
// for their single state.json.
package localchain

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/race-sub000/gamecore/internal/gamectx"
	"github.com/race-sub000/gamecore/internal/pipeline"
)

// Config is the on-disk fixture cmd/transactord loads at startup: the
// game account to serve and the sequence of account snapshots to feed
// the Synchronizer, standing in for a real chain's account subscription.
type Config struct {
	Account gamectx.GameAccount          `json:"account"`
	Updates []pipeline.GameAccountUpdate `json:"updates"`
	// StepDelayMillis paces replay of Updates so a locally-run game looks
	// like a live one instead of every player joining in the same frame.
	StepDelayMillis uint64 `json:"stepDelayMillis"`
}

// LoadConfig reads a Config from path.
func LoadConfig(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("localchain: read config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("localchain: decode config: %w", err)
	}
	return cfg, nil
}

// ScriptedTransport implements pipeline.Transport by replaying a fixed
// sequence of GameAccountUpdate snapshots instead of subscribing to a
// real chain, and by logging settlements instead of submitting them —
// the session supervisor's pipeline still runs unmodified against it.
type ScriptedTransport struct {
	logger  log.Logger
	updates []pipeline.GameAccountUpdate
	stepGap time.Duration
	settles []pipeline.SettleDetails
}

func NewScriptedTransport(logger log.Logger, cfg Config) *ScriptedTransport {
	return &ScriptedTransport{
		logger:  logger,
		updates: cfg.Updates,
		stepGap: time.Duration(cfg.StepDelayMillis) * time.Millisecond,
	}
}

func (t *ScriptedTransport) SubscribeGameAccount(ctx context.Context, gameAddr string) (<-chan pipeline.GameAccountUpdate, error) {
	out := make(chan pipeline.GameAccountUpdate, len(t.updates))
	go func() {
		defer close(out)
		for i, u := range t.updates {
			if i > 0 && t.stepGap > 0 {
				select {
				case <-time.After(t.stepGap):
				case <-ctx.Done():
					return
				}
			}
			select {
			case out <- u:
			case <-ctx.Done():
				return
			}
		}
		// A real chain subscription stays open for the account's
		// lifetime; this fixture has nothing further to replay, so it
		// blocks here until the caller cancels rather than closing
		// immediately and forcing a spurious Shutdown frame.
		<-ctx.Done()
	}()
	return out, nil
}

// SettleGame records the settlement and logs it in place of broadcasting
// a real transaction; the returned signature is synthetic.
func (t *ScriptedTransport) SettleGame(ctx context.Context, gameAddr string, details pipeline.SettleDetails) (string, error) {
	t.settles = append(t.settles, details)
	sig := fmt.Sprintf("local-settle-%s-%d", gameAddr, details.SettleVersion)
	level.Info(t.logger).Log("msg", "settled game", "game", gameAddr, "settle_version", details.SettleVersion,
		"settles", len(details.Settles), "transfers", len(details.Transfers), "sig", sig)
	return sig, nil
}

// ResolveCredentials returns a placeholder public key for addr: signing
// verification is internal/encryptor's concern, not this stand-in's.
func (t *ScriptedTransport) ResolveCredentials(ctx context.Context, addr string) (string, error) {
	return fmt.Sprintf("local-pubkey-%s", addr), nil
}

// Settles returns every settlement recorded so far, for tests.
func (t *ScriptedTransport) Settles() []pipeline.SettleDetails { return t.settles }

// FileStorage implements pipeline.Storage by writing one JSON file per
// (gameAddr, settleVersion) pair under home/checkpoints, mirroring
// apps/chain/internal/state's single state.json convention rather than
// reaching for a database this repository has no storage-backend scope
// to build.
type FileStorage struct {
	home string
}

func NewFileStorage(home string) *FileStorage {
	return &FileStorage{home: home}
}

func (s *FileStorage) checkpointPath(gameAddr string, settleVersion uint64) string {
	dir := filepath.Join(s.home, "checkpoints", gameAddr)
	return filepath.Join(dir, fmt.Sprintf("%d.json", settleVersion))
}

func (s *FileStorage) SaveCheckpoint(ctx context.Context, gameAddr string, settleVersion uint64, data []byte) error {
	path := s.checkpointPath(gameAddr, settleVersion)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("localchain: mkdir checkpoint dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("localchain: write checkpoint: %w", err)
	}
	return nil
}

func (s *FileStorage) LoadCheckpoint(ctx context.Context, gameAddr string, settleVersion uint64) ([]byte, error) {
	path := s.checkpointPath(gameAddr, settleVersion)
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("localchain: read checkpoint: %w", err)
	}
	return b, nil
}
