package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	collector "github.com/vshulcz/hostpulse/internal/adapters/collector/gopsutil"
	"github.com/vshulcz/hostpulse/internal/adapters/publisher/remotewrite"
	"github.com/vshulcz/hostpulse/internal/config"
	agentsvc "github.com/vshulcz/hostpulse/internal/services/agent"
)

func main() {
	cfg, err := config.LoadAgentConfig(os.Args[1:], nil)
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	pub, err := remotewrite.New(cfg.Address, nil, cfg.Username, cfg.Password)
	if err != nil {
		logger.Fatal("failed to init publisher", zap.Error(err))
	}
	source := collector.New(logger)
	svc := agentsvc.New(cfg, source, pub, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("agent started",
		zap.String("address", cfg.Address),
		zap.Duration("interval", cfg.Interval),
		zap.Bool("auth", cfg.Username != ""))
	if err := svc.Run(ctx); err != nil {
		logger.Fatal("agent stopped", zap.Error(err))
	}
	logger.Info("agent stopped")
}
