package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/oneinstack/mirror/internal/domain"
)

// Adapter is one upstream-specific scraping unit. Implementations perform
// their own network I/O and translate the upstream format into Resource
// values. Expected upstream conditions (a missing version, an empty listing)
// are not errors; an adapter returns an error only when the whole run is
// meaningless (network unreachable, auth rejected, malformed top-level
// response).
//
// Adapters are stateless across invocations apart from configuration
// injected at construction, never write to the catalog themselves, and must
// return promptly when ctx is cancelled.
type Adapter interface {
	// Name is the unique registry key, e.g. "nginx".
	Name() string

	// Scrape fetches and normalizes the upstream's current artifact set.
	Scrape(ctx context.Context) (*Result, error)
}

// Result is what a successful adapter run proposes for merging.
type Result struct {
	Resources    []domain.Resource
	VersionMetas []domain.VersionMeta
}

// Config supplies adapter-scoped configuration (accepted version lists,
// listing depth). Reads go to the settings collaborator so runtime changes
// take effect on the next run.
type Config interface {
	String(key, def string) string
	Int(key string, def int) int
	StringSlice(key string, def []string) []string
}

// StaticConfig is a map-backed Config for tests and defaults.
type StaticConfig map[string]any

func (c StaticConfig) String(key, def string) string {
	if v, ok := c[key].(string); ok {
		return v
	}
	return def
}

func (c StaticConfig) Int(key string, def int) int {
	if v, ok := c[key].(int); ok {
		return v
	}
	return def
}

func (c StaticConfig) StringSlice(key string, def []string) []string {
	if v, ok := c[key].([]string); ok {
		return v
	}
	return def
}

// Run invokes one adapter and folds its outcome into a ScrapeResult: panics
// and errors become a failed result, proposed resources are stamped with the
// adapter name and observation time. This is the only path through which
// adapters are executed.
func Run(ctx context.Context, a Adapter) domain.ScrapeResult {
	sr := domain.ScrapeResult{
		AdapterName: a.Name(),
		StartedAt:   time.Now().UTC(),
	}

	func() {
		defer func() {
			if p := recover(); p != nil {
				sr.Success = false
				sr.Error = fmt.Sprintf("panic: %v", p)
			}
		}()

		res, err := a.Scrape(ctx)
		if err != nil {
			sr.Success = false
			sr.Error = err.Error()
			return
		}

		sr.Success = true
		if res == nil {
			return
		}
		now := time.Now().UTC()
		for i := range res.Resources {
			res.Resources[i].Source = a.Name()
			res.Resources[i].UpdatedAt = now
		}
		sr.Resources = res.Resources
		sr.VersionMetas = res.VersionMetas
	}()

	sr.FinishedAt = time.Now().UTC()
	return sr
}
