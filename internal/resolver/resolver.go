// Package resolver answers inbound file requests: given a filename, decide
// between a redirect to upstream and a locally cached copy. A request for a
// known file never fails outright; when the cache path breaks the engine
// falls back to redirecting.
package resolver

import (
	"context"

	"github.com/oneinstack/mirror/internal/catalog"
	"github.com/oneinstack/mirror/internal/domain"
	"github.com/oneinstack/mirror/internal/logger"
)

// Outcome is what the HTTP layer should do with a resolved request.
type Outcome int

const (
	// OutcomeNotFound means the filename is not in the catalog.
	OutcomeNotFound Outcome = iota
	// OutcomeRedirect means answer with a 302 to Resource.URL.
	OutcomeRedirect
	// OutcomeServeFile means stream the file at FilePath.
	OutcomeServeFile
)

// Resolution is the engine's decision for one request.
type Resolution struct {
	Outcome  Outcome
	Resource domain.Resource
	FilePath string
}

// ModeProvider yields the current mirror mode. It is consulted on every
// request so a settings flip applies immediately.
type ModeProvider interface {
	MirrorMode(ctx context.Context) domain.MirrorMode
}

// ArtifactCache is the disk-cache boundary the engine fills through.
type ArtifactCache interface {
	Lookup(ctx context.Context, source, filename string) (string, bool)
	Fetch(ctx context.Context, res domain.Resource) (string, error)
}

// Engine resolves filenames against the catalog.
type Engine struct {
	catalog *catalog.Catalog
	cache   ArtifactCache
	mode    ModeProvider
	logger  logger.Logger
}

// New wires a resolution engine.
func New(cat *catalog.Catalog, cache ArtifactCache, mode ModeProvider, log logger.Logger) *Engine {
	return &Engine{
		catalog: cat,
		cache:   cache,
		mode:    mode,
		logger:  log,
	}
}

// Resolve decides how to answer a request for filename. forceRedirect
// bypasses the cache regardless of the configured mode.
func (e *Engine) Resolve(ctx context.Context, filename string, forceRedirect bool) Resolution {
	res, ok := e.catalog.GetByFilename(filename)
	if !ok {
		return Resolution{Outcome: OutcomeNotFound}
	}

	if forceRedirect || e.mode.MirrorMode(ctx) == domain.ModeRedirect {
		return Resolution{Outcome: OutcomeRedirect, Resource: res}
	}

	if path, hit := e.cache.Lookup(ctx, res.Source, res.FileName); hit {
		return Resolution{Outcome: OutcomeServeFile, Resource: res, FilePath: path}
	}

	path, err := e.cache.Fetch(ctx, res)
	if err != nil {
		// Cache fill failed; the upstream URL is still the best answer.
		e.logger.Warn("cache fill failed, falling back to redirect",
			logger.String("file", res.FileName),
			logger.Error(err))
		return Resolution{Outcome: OutcomeRedirect, Resource: res}
	}
	return Resolution{Outcome: OutcomeServeFile, Resource: res, FilePath: path}
}
