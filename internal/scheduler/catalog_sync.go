package scheduler

import (
	"context"

	"github.com/oneinstack/mirror/internal/catalog"
	"github.com/oneinstack/mirror/internal/domain"
	"github.com/oneinstack/mirror/internal/logger"
)

// CatalogLoader is the persisted-catalog side of a startup warm-up.
type CatalogLoader interface {
	LoadResources(ctx context.Context) ([]domain.Resource, error)
}

// CatalogSyncer warms the in-memory catalog from persistence on startup, so
// a restarted process serves immediately instead of waiting for a cycle.
type CatalogSyncer struct {
	loader  CatalogLoader
	catalog *catalog.Catalog
	logger  logger.Logger
}

// NewCatalogSyncer creates a catalog syncer.
func NewCatalogSyncer(loader CatalogLoader, cat *catalog.Catalog, log logger.Logger) *CatalogSyncer {
	return &CatalogSyncer{
		loader:  loader,
		catalog: cat,
		logger:  log,
	}
}

// Sync loads persisted records into the catalog.
func (cs *CatalogSyncer) Sync(ctx context.Context) error {
	cs.logger.Info("syncing catalog from redis")

	resources, err := cs.loader.LoadResources(ctx)
	if err != nil {
		return err
	}
	if len(resources) == 0 {
		cs.logger.Info("no persisted catalog records found")
		return nil
	}

	cs.catalog.UpsertMany(resources)
	cs.logger.Info("catalog warmed from redis", logger.Int("count", len(resources)))
	return nil
}
