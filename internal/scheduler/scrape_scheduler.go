package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/oneinstack/mirror/internal/domain"
	"github.com/oneinstack/mirror/internal/logger"
	"github.com/oneinstack/mirror/internal/orchestrator"
)

// CycleRunner starts a full scrape cycle.
type CycleRunner interface {
	RunFull(ctx context.Context) ([]domain.ScrapeResult, error)
}

// Settings supplies the scheduler's runtime knobs. Both are re-read every
// cycle so changes apply without a restart.
type Settings interface {
	ScrapeInterval(ctx context.Context) time.Duration
	AutoScrapeEnabled(ctx context.Context) bool
}

// TimesRecorder persists the last/next cycle timestamps for the status API.
type TimesRecorder interface {
	SetSchedulerTimes(ctx context.Context, lastRun, nextRun time.Time) error
}

// ScrapeScheduler triggers full scrape cycles on an interval, with a manual
// trigger channel for on-demand runs.
type ScrapeScheduler struct {
	runner        CycleRunner
	settings      Settings
	recorder      TimesRecorder
	logger        logger.Logger
	stopCh        chan struct{}
	manualTrigger chan struct{}
}

// NewScrapeScheduler creates a scheduler. recorder may be nil.
func NewScrapeScheduler(
	runner CycleRunner,
	settings Settings,
	recorder TimesRecorder,
	log logger.Logger,
) *ScrapeScheduler {
	return &ScrapeScheduler{
		runner:        runner,
		settings:      settings,
		recorder:      recorder,
		logger:        log,
		stopCh:        make(chan struct{}),
		manualTrigger: make(chan struct{}, 1),
	}
}

// Start begins the scheduling loop. The interval is read from settings before
// each wait, so a changed interval takes effect on the next cycle.
func (ss *ScrapeScheduler) Start(ctx context.Context) error {
	// Run immediately on start so a fresh deployment has a catalog without
	// waiting a full interval.
	if ss.settings.AutoScrapeEnabled(ctx) {
		ss.runCycle(ctx)
	}

	go func() {
		for {
			interval := ss.settings.ScrapeInterval(ctx)
			ss.recordTimes(ctx, time.Time{}, time.Now().Add(interval))

			timer := time.NewTimer(interval)
			select {
			case <-timer.C:
				if !ss.settings.AutoScrapeEnabled(ctx) {
					ss.logger.Debug("auto scrape disabled, skipping cycle")
					continue
				}
				ss.runCycle(ctx)
			case <-ss.manualTrigger:
				timer.Stop()
				ss.logger.Info("manual scrape triggered")
				ss.runCycle(ctx)
			case <-ss.stopCh:
				timer.Stop()
				return
			case <-ctx.Done():
				timer.Stop()
				return
			}
		}
	}()

	return nil
}

// Stop stops the scheduling loop.
func (ss *ScrapeScheduler) Stop() {
	close(ss.stopCh)
}

// Trigger requests an out-of-band cycle. It never blocks; a trigger while one
// is already pending is coalesced.
func (ss *ScrapeScheduler) Trigger() {
	select {
	case ss.manualTrigger <- struct{}{}:
	default:
	}
}

func (ss *ScrapeScheduler) runCycle(ctx context.Context) {
	if _, err := ss.runner.RunFull(ctx); err != nil {
		if errors.Is(err, orchestrator.ErrAlreadyRunning) {
			ss.logger.Info("cycle skipped, scrape already running")
			return
		}
		ss.logger.Error("scrape cycle failed", logger.Error(err))
		return
	}
	ss.recordTimes(ctx, time.Now(), time.Time{})
}

func (ss *ScrapeScheduler) recordTimes(ctx context.Context, lastRun, nextRun time.Time) {
	if ss.recorder == nil {
		return
	}
	if err := ss.recorder.SetSchedulerTimes(ctx, lastRun, nextRun); err != nil {
		ss.logger.Warn("failed to record scheduler times", logger.Error(err))
	}
}
