package upstreams

import (
	"github.com/oneinstack/mirror/internal/scraper"
	"github.com/oneinstack/mirror/internal/scraper/adapters"
)

// Mapper converts upstream definitions to generic GitHub-tag adapters.
type Mapper struct {
	client *scraper.Client
}

// NewMapper creates a mapper that builds adapters on the shared client.
func NewMapper(client *scraper.Client) *Mapper {
	return &Mapper{client: client}
}

// MapAdapters instantiates one adapter per definition. Name collisions are
// left to the registry, which rejects duplicates at startup.
func (m *Mapper) MapAdapters(defs *Definitions) []scraper.Adapter {
	out := make([]scraper.Adapter, 0, len(defs.Upstreams))
	for _, d := range defs.Upstreams {
		out = append(out, adapters.NewGitHubTags(m.client, adapters.GitHubTagsSpec{
			Name:    d.Name,
			Owner:   d.Owner,
			Repo:    d.Repo,
			MaxTags: d.MaxTags,
			MetaKey: d.MetaKey,
		}))
	}
	return out
}
