// Package agent implements the host metrics agent: rate derivation,
// series building, and the tick loop that drives collection and delivery.
package agent

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/vshulcz/hostpulse/internal/config"
	"github.com/vshulcz/hostpulse/internal/ports"
)

// Service drives the tick loop. Exactly one tick runs at a time: the send
// happens inline, so retries and backoff never overlap the next tick's
// collection.
type Service struct {
	cfg    config.AgentConfig
	source ports.SnapshotSource
	pub    ports.Publisher
	logger *zap.Logger

	state RateState
}

// New wires together the agent configuration, snapshot source, and publisher.
func New(cfg config.AgentConfig, source ports.SnapshotSource, pub ports.Publisher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{cfg: cfg, source: source, pub: pub, logger: logger}
}

// Run ticks at the configured interval until ctx is done. The ticker keeps
// a fixed cadence; when a tick outlasts the interval the next one fires
// immediately after it. Tick failures are logged and never stop the loop.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick performs one collect → rate → build → publish pass. The rate state
// advances exactly once per tick, before the send, so a delivery failure
// never corrupts the next tick's deltas.
func (s *Service) tick(ctx context.Context) {
	snap := s.source.Collect(ctx)

	rates, next := NextRates(s.state, snap)
	s.state = next

	samples := Build(snap, rates)
	if len(samples) == 0 {
		s.logger.Warn("empty snapshot, nothing to report")
		return
	}

	if err := s.pub.Publish(ctx, samples); err != nil {
		s.logger.Warn("report abandoned",
			zap.Int("samples", len(samples)),
			zap.Error(err))
		return
	}
	s.logger.Debug("report sent", zap.Int("samples", len(samples)))
}
