package core

// scheduler.go runs background maintenance for conversion history.
//
// The pruner deletes history rows older than the retention window. It runs
// once at start and then on every tick until the context is cancelled.
// Failed runs are logged and retried on the next tick.

import (
	"context"
	"log/slog"
	"time"
)

// HistoryPrunerConfig controls the history pruner.
type HistoryPrunerConfig struct {
	RetentionDays int           // Days to keep (default: 30)
	Interval      time.Duration // How often to run (default: 24h)
}

func (c HistoryPrunerConfig) withDefaults() HistoryPrunerConfig {
	if c.RetentionDays <= 0 {
		c.RetentionDays = 30
	}
	if c.Interval <= 0 {
		c.Interval = 24 * time.Hour
	}
	return c
}

// StartHistoryPruner blocks, pruning history periodically until ctx is done.
// It returns immediately when history is disabled.
func (s *Service) StartHistoryPruner(ctx context.Context, cfg HistoryPrunerConfig) {
	if s.history == nil {
		return
	}
	cfg = cfg.withDefaults()

	slog.Info("history pruner started",
		"retention_days", cfg.RetentionDays,
		"interval", cfg.Interval.String(),
	)

	s.pruneHistory(ctx, cfg.RetentionDays)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("history pruner stopped")
			return
		case <-ticker.C:
			s.pruneHistory(ctx, cfg.RetentionDays)
		}
	}
}

func (s *Service) pruneHistory(ctx context.Context, retentionDays int) {
	start := time.Now()
	n, err := s.history.PruneConversions(ctx, retentionDays)
	if err != nil {
		slog.Error("history prune failed", "error", err)
		return
	}
	slog.Info("pruned conversion history",
		"entries_pruned", n,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
