package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/udisondev/mmogate/internal/config"
	"github.com/udisondev/mmogate/internal/gateway"
	"github.com/udisondev/mmogate/internal/logging"
)

const ConfigPath = "config.json"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := ConfigPath
	if p := os.Getenv("MMOGATE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logging.New(parseLogLevel(cfg.LogLevel))
	defer log.Close(context.Background())

	log.Info("mmogate starting",
		"gameServer", cfg.GameServer.Addr(), "chunkServer", cfg.ChunkServer.Addr())

	gw, err := gateway.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("constructing gateway: %w", err)
	}

	if err := gw.Run(ctx); err != nil {
		return fmt.Errorf("gateway: %w", err)
	}

	log.Info("mmogate stopped cleanly")
	return nil
}

// parseLogLevel converts the configured level name to an slog.Level,
// defaulting to Info if invalid or empty.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
