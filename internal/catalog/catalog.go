package catalog

import (
	"sort"
	"sync"
	"time"

	"github.com/oneinstack/mirror/internal/domain"
)

// Catalog is the authoritative in-memory set of current resource records,
// keyed by filename. It is the primary lookup structure for resolution;
// Redis persistence is layered on top of it as best effort.
type Catalog struct {
	mu          sync.RWMutex
	byFilename  map[string]*domain.Resource
	lastMergeAt time.Time
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{
		byFilename: make(map[string]*domain.Resource),
	}
}

// Upsert inserts or replaces the record for res.FileName. Last write wins:
// the catalog always reflects the most recently completed scrape's view of a
// file name, without version comparison.
func (c *Catalog) Upsert(res domain.Resource) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r := res
	c.byFilename[r.FileName] = &r
	c.lastMergeAt = time.Now()
}

// UpsertMany merges a batch of records under a single lock acquisition.
func (c *Catalog) UpsertMany(resources []domain.Resource) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range resources {
		r := resources[i]
		c.byFilename[r.FileName] = &r
	}
	c.lastMergeAt = time.Now()
}

// GetByFilename looks up one record. The second return is false when the
// filename is unknown.
func (c *Catalog) GetByFilename(name string) (domain.Resource, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	r, ok := c.byFilename[name]
	if !ok {
		return domain.Resource{}, false
	}
	return *r, true
}

// ListBySource returns all records of one package family, highest version
// first.
func (c *Catalog) ListBySource(source string) []domain.Resource {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []domain.Resource
	for _, r := range c.byFilename {
		if r.Source == source {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if cmp := domain.CompareVersions(out[i].Version, out[j].Version); cmp != 0 {
			return cmp > 0
		}
		return out[i].FileName < out[j].FileName
	})
	return out
}

// ListAll returns a snapshot of every record, ordered by source then
// filename for stable listings.
func (c *Catalog) ListAll() []domain.Resource {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.Resource, 0, len(c.byFilename))
	for _, r := range c.byFilename {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}
		return out[i].FileName < out[j].FileName
	})
	return out
}

// Sources returns the distinct source names present, sorted.
func (c *Catalog) Sources() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[string]bool)
	for _, r := range c.byFilename {
		seen[r.Source] = true
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Latest picks the record with the highest version within a source.
// A missing version sorts lowest; ties go to the most recently updated
// record. Returns false when the source has no records.
func (c *Catalog) Latest(source string) (domain.Resource, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var best *domain.Resource
	for _, r := range c.byFilename {
		if r.Source != source {
			continue
		}
		if best == nil {
			best = r
			continue
		}
		switch domain.CompareVersions(r.Version, best.Version) {
		case 1:
			best = r
		case 0:
			if r.UpdatedAt.After(best.UpdatedAt) {
				best = r
			}
		}
	}
	if best == nil {
		return domain.Resource{}, false
	}
	return *best, true
}

// Count returns the number of records.
func (c *Catalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.byFilename)
}

// LastMergeAt returns the time of the last upsert.
func (c *Catalog) LastMergeAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.lastMergeAt
}
