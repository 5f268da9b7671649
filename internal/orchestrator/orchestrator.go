// Package orchestrator drives scrape cycles: it fans adapters out, merges
// whatever each one returns into the catalog the moment it completes, and
// records one log row per adapter run.
package orchestrator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oneinstack/mirror/internal/catalog"
	"github.com/oneinstack/mirror/internal/domain"
	"github.com/oneinstack/mirror/internal/logger"
	"github.com/oneinstack/mirror/internal/logstream"
	"github.com/oneinstack/mirror/internal/scraper"
)

// ErrAlreadyRunning is returned when a cycle is requested while another one
// is still in flight. At most one cycle runs at a time.
var ErrAlreadyRunning = errors.New("scrape already running")

// DefaultAdapterTimeout bounds one adapter run inside a cycle.
const DefaultAdapterTimeout = 5 * time.Minute

// CatalogPersister is the durable side of a merge. Persistence is
// best-effort: the in-memory catalog is the source of truth for serving.
type CatalogPersister interface {
	SaveResources(ctx context.Context, resources []domain.Resource) error
	SaveVersionMetas(ctx context.Context, metas []domain.VersionMeta) error
}

// LogAppender records one row per completed adapter run.
type LogAppender interface {
	Append(ctx context.Context, log domain.ScrapeLog) (int64, error)
}

// Orchestrator coordinates scrape cycles over the adapter registry.
type Orchestrator struct {
	registry       *scraper.Registry
	catalog        *catalog.Catalog
	persister      CatalogPersister
	logs           LogAppender
	stream         *logstream.Broadcaster
	logger         logger.Logger
	adapterTimeout time.Duration

	running atomic.Bool
}

// New wires an orchestrator. persister and logs may be nil when the process
// runs without those backends.
func New(
	reg *scraper.Registry,
	cat *catalog.Catalog,
	persister CatalogPersister,
	logs LogAppender,
	stream *logstream.Broadcaster,
	log logger.Logger,
	adapterTimeout time.Duration,
) *Orchestrator {
	if adapterTimeout <= 0 {
		adapterTimeout = DefaultAdapterTimeout
	}
	return &Orchestrator{
		registry:       reg,
		catalog:        cat,
		persister:      persister,
		logs:           logs,
		stream:         stream,
		logger:         log,
		adapterTimeout: adapterTimeout,
	}
}

// Running reports whether a cycle is currently in flight.
func (o *Orchestrator) Running() bool {
	return o.running.Load()
}

// AdapterNames returns the registered adapter names in registration order.
func (o *Orchestrator) AdapterNames() []string {
	return o.registry.Names()
}

// HasAdapter reports whether name is registered.
func (o *Orchestrator) HasAdapter(name string) bool {
	_, err := o.registry.Get(name)
	return err == nil
}

// RunFull executes every registered adapter concurrently and returns the
// per-adapter results in completion order. A second call while a cycle is in
// flight fails with ErrAlreadyRunning.
func (o *Orchestrator) RunFull(ctx context.Context) ([]domain.ScrapeResult, error) {
	if !o.running.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRunning
	}
	defer o.running.Store(false)

	adapters := o.registry.All()
	o.stream.Publish(logstream.LevelInfo, "", "scrape cycle started")
	o.logger.Info("scrape cycle started", logger.Int("adapters", len(adapters)))
	started := time.Now()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make([]domain.ScrapeResult, 0, len(adapters))
	)
	for _, a := range adapters {
		wg.Add(1)
		go func(a scraper.Adapter) {
			defer wg.Done()
			sr := o.runAdapter(ctx, a)
			mu.Lock()
			results = append(results, sr)
			mu.Unlock()
		}(a)
	}
	wg.Wait()

	failed := 0
	for _, sr := range results {
		if sr.Status() == domain.StatusFailed {
			failed++
		}
	}
	o.stream.Publish(logstream.LevelSuccess, "", "scrape cycle finished")
	o.logger.Info("scrape cycle finished",
		logger.Int("adapters", len(results)),
		logger.Int("failed", failed),
		logger.Duration("took", time.Since(started)))
	return results, nil
}

// RunOne executes a single adapter by name, under the same single-cycle
// guard as RunFull.
func (o *Orchestrator) RunOne(ctx context.Context, name string) (domain.ScrapeResult, error) {
	a, err := o.registry.Get(name)
	if err != nil {
		return domain.ScrapeResult{}, err
	}

	if !o.running.CompareAndSwap(false, true) {
		return domain.ScrapeResult{}, ErrAlreadyRunning
	}
	defer o.running.Store(false)

	return o.runAdapter(ctx, a), nil
}

// runAdapter executes one adapter under its timeout and merges the outcome
// immediately, so a crash mid-cycle loses only the adapters still running.
func (o *Orchestrator) runAdapter(ctx context.Context, a scraper.Adapter) domain.ScrapeResult {
	name := a.Name()
	o.stream.Publish(logstream.LevelInfo, name, "scraping "+name)

	runCtx, cancel := context.WithTimeout(ctx, o.adapterTimeout)
	sr := scraper.Run(runCtx, a)
	cancel()

	o.merge(ctx, sr)

	switch sr.Status() {
	case domain.StatusFailed:
		o.stream.Publish(logstream.LevelError, name, name+" failed: "+sr.Error)
		o.logger.Warn("adapter failed",
			logger.String("adapter", name),
			logger.String("error", sr.Error))
	case domain.StatusPartial:
		o.stream.Publish(logstream.LevelWarning, name, name+" returned no resources")
		o.logger.Warn("adapter returned no resources", logger.String("adapter", name))
	default:
		o.stream.Publish(logstream.LevelSuccess, name, name+" done")
		o.logger.Info("adapter done",
			logger.String("adapter", name),
			logger.Int("resources", len(sr.Resources)),
			logger.Duration("took", sr.Duration()))
	}
	return sr
}

func (o *Orchestrator) merge(ctx context.Context, sr domain.ScrapeResult) {
	if len(sr.Resources) > 0 {
		o.catalog.UpsertMany(sr.Resources)
	}

	if o.persister != nil {
		if err := o.persister.SaveResources(ctx, sr.Resources); err != nil {
			o.logger.Warn("failed to persist resources",
				logger.String("adapter", sr.AdapterName),
				logger.Error(err))
		}
		if err := o.persister.SaveVersionMetas(ctx, sr.VersionMetas); err != nil {
			o.logger.Warn("failed to persist version metas",
				logger.String("adapter", sr.AdapterName),
				logger.Error(err))
		}
	}

	if o.logs != nil {
		if _, err := o.logs.Append(ctx, domain.NewScrapeLog(sr)); err != nil {
			o.logger.Error("failed to append scrape log",
				logger.String("adapter", sr.AdapterName),
				logger.Error(err))
		}
	}
}
