package scheduler

import (
	"context"
	"time"

	"github.com/oneinstack/mirror/internal/logger"
)

// DefaultLogRetention is how long scrape log rows are kept.
const DefaultLogRetention = 90 * 24 * time.Hour

// LogPruner deletes log rows older than a cutoff.
type LogPruner interface {
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// LogRetention periodically prunes old scrape log rows so the table does not
// grow without bound.
type LogRetention struct {
	pruner    LogPruner
	logger    logger.Logger
	interval  time.Duration
	retention time.Duration
	stopCh    chan struct{}
}

// NewLogRetention creates a retention job.
func NewLogRetention(
	pruner LogPruner,
	log logger.Logger,
	interval time.Duration,
	retention time.Duration,
) *LogRetention {
	if retention == 0 {
		retention = DefaultLogRetention
	}
	return &LogRetention{
		pruner:    pruner,
		logger:    log,
		interval:  interval,
		retention: retention,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the periodic pruning process.
func (lr *LogRetention) Start(ctx context.Context) error {
	// Run immediately on start
	if err := lr.Prune(ctx); err != nil {
		lr.logger.Warn("initial log pruning failed", logger.Error(err))
	}

	ticker := time.NewTicker(lr.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := lr.Prune(ctx); err != nil {
					lr.logger.Error("log pruning failed", logger.Error(err))
				}
			case <-lr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the retention job.
func (lr *LogRetention) Stop() {
	close(lr.stopCh)
}

// Prune deletes rows older than the retention window.
func (lr *LogRetention) Prune(ctx context.Context) error {
	cutoff := time.Now().Add(-lr.retention)
	deleted, err := lr.pruner.PruneOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}
	if deleted > 0 {
		lr.logger.Info("pruned old scrape logs", logger.Int("deleted", int(deleted)))
	} else {
		lr.logger.Debug("no scrape logs to prune")
	}
	return nil
}
