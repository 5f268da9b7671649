package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/oneinstack/mirror/internal/catalog"
	"github.com/oneinstack/mirror/internal/domain"
	"github.com/oneinstack/mirror/internal/logger"
)

type fakeRunner struct {
	runs atomic.Int64
	err  error
	done chan struct{}
}

func (f *fakeRunner) RunFull(ctx context.Context) ([]domain.ScrapeResult, error) {
	f.runs.Add(1)
	if f.done != nil {
		select {
		case f.done <- struct{}{}:
		default:
		}
	}
	return nil, f.err
}

type fakeSettings struct {
	interval time.Duration
	enabled  bool
}

func (f fakeSettings) ScrapeInterval(context.Context) time.Duration { return f.interval }
func (f fakeSettings) AutoScrapeEnabled(context.Context) bool       { return f.enabled }

func TestScrapeSchedulerRunsOnStart(t *testing.T) {
	runner := &fakeRunner{}
	ss := NewScrapeScheduler(runner, fakeSettings{interval: time.Hour, enabled: true}, nil, logger.New("error", false))

	if err := ss.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer ss.Stop()

	if got := runner.runs.Load(); got != 1 {
		t.Errorf("runs after Start = %d, want 1", got)
	}
}

func TestScrapeSchedulerSkipsInitialRunWhenDisabled(t *testing.T) {
	runner := &fakeRunner{}
	ss := NewScrapeScheduler(runner, fakeSettings{interval: time.Hour, enabled: false}, nil, logger.New("error", false))

	if err := ss.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer ss.Stop()

	if got := runner.runs.Load(); got != 0 {
		t.Errorf("runs after Start = %d, want 0", got)
	}
}

func TestScrapeSchedulerManualTrigger(t *testing.T) {
	runner := &fakeRunner{done: make(chan struct{}, 2)}
	ss := NewScrapeScheduler(runner, fakeSettings{interval: time.Hour, enabled: false}, nil, logger.New("error", false))

	if err := ss.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer ss.Stop()

	ss.Trigger()
	select {
	case <-runner.done:
	case <-time.After(2 * time.Second):
		t.Fatal("manual trigger did not start a cycle")
	}
	if got := runner.runs.Load(); got != 1 {
		t.Errorf("runs after trigger = %d, want 1", got)
	}
}

type fakeLoader struct {
	resources []domain.Resource
	err       error
}

func (f fakeLoader) LoadResources(context.Context) ([]domain.Resource, error) {
	return f.resources, f.err
}

func TestCatalogSyncerWarmsCatalog(t *testing.T) {
	cat := catalog.New()
	cs := NewCatalogSyncer(fakeLoader{resources: []domain.Resource{
		{FileName: "nginx-1.28.0.tar.gz", Source: "nginx", Version: "1.28.0"},
		{FileName: "php-8.3.2.tar.gz", Source: "php", Version: "8.3.2"},
	}}, cat, logger.New("error", false))

	if err := cs.Sync(context.Background()); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if cat.Count() != 2 {
		t.Errorf("catalog count = %d, want 2", cat.Count())
	}
}

func TestCatalogSyncerPropagatesLoadError(t *testing.T) {
	cs := NewCatalogSyncer(fakeLoader{err: errors.New("redis down")}, catalog.New(), logger.New("error", false))
	if err := cs.Sync(context.Background()); err == nil {
		t.Error("Sync() error = nil, want load error")
	}
}

type fakePruner struct {
	cutoff  time.Time
	deleted int64
	err     error
}

func (f *fakePruner) PruneOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return f.deleted, f.err
}

func TestLogRetentionPrune(t *testing.T) {
	pruner := &fakePruner{deleted: 7}
	lr := NewLogRetention(pruner, logger.New("error", false), time.Hour, 48*time.Hour)

	if err := lr.Prune(context.Background()); err != nil {
		t.Fatalf("Prune() error = %v", err)
	}

	want := time.Now().Add(-48 * time.Hour)
	if diff := pruner.cutoff.Sub(want); diff < -time.Minute || diff > time.Minute {
		t.Errorf("cutoff = %v, want about %v", pruner.cutoff, want)
	}
}
