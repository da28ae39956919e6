package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/race-sub000/gamecore/internal/examples/raffle"
	"github.com/race-sub000/gamecore/internal/handler"
	"github.com/race-sub000/gamecore/internal/localchain"
	"github.com/race-sub000/gamecore/internal/session"
)

// handlerBundles is the set of native handler bundles this binary can
// serve, keyed by the bundle address a served game's account names.
// A bytecode handler fetched from storage would go through
// internal/handler's WASM adapter instead; every bundle this binary
// actually runs locally is native, so this is the whole registry.
var handlerBundles = map[string]func() handler.HandlerT{
	"raffle": raffle.NewHandler,
}

func newHandlerFactory() session.HandlerFactory {
	return func(bundleAddr string) (handler.HandlerT, error) {
		ctor, ok := handlerBundles[bundleAddr]
		if !ok {
			return nil, fmt.Errorf("transactord: no native handler registered for bundle %q", bundleAddr)
		}
		return ctor(), nil
	}
}

func main() {
	var (
		home      = flag.String("home", ".transactord", "supervisor home directory (checkpoints are stored under <home>/checkpoints)")
		addr      = flag.String("addr", "tcp://127.0.0.1:26658", "listen address reserved for a future wire-compatible client/validator front end")
		transport = flag.String("transport", "socket", "front-end transport (socket|grpc), unused until that front end exists")
		config    = flag.String("config", "", "path to the game account + scripted update fixture this supervisor serves (required)")
	)
	flag.Parse()

	logger := log.NewLogfmtLogger(os.Stderr)
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)
	level.Info(logger).Log("msg", "front end not yet implemented, ignoring listen flags", "addr", *addr, "transport", *transport)

	if *config == "" {
		_, _ = fmt.Fprintln(os.Stderr, "transactord: -config is required")
		os.Exit(1)
	}

	if err := run(logger, *home, *config); err != nil {
		level.Error(logger).Log("msg", "transactord exited with error", "err", err)
		os.Exit(1)
	}
}

func run(logger log.Logger, home, configPath string) error {
	cfg, err := localchain.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	storage := localchain.NewFileStorage(home)
	transport := localchain.NewScriptedTransport(log.With(logger, "component", "transport"), cfg)

	s, err := session.NewMaster(log.With(logger, "component", "session"), newHandlerFactory(), storage, transport, cfg.Account)
	if err != nil {
		return fmt.Errorf("new master session: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		level.Info(logger).Log("msg", "shutdown signal received")
		cancel()
	}()

	level.Info(logger).Log("msg", "serving game", "game", cfg.Account.Addr)
	reason := s.Run(ctx)
	if !reason.IsComplete() {
		return fmt.Errorf("session loop: %w", reason.Fault)
	}
	return nil
}
