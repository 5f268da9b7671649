package adapters

import (
	"context"
	"strings"

	"github.com/oneinstack/mirror/internal/domain"
	"github.com/oneinstack/mirror/internal/scraper"
)

// Memcached lists release tags from GitHub but points downloads at the
// project's own file host, which is where the tarballs actually live.
type Memcached struct {
	client *scraper.Client
	cfg    scraper.Config
}

func NewMemcached(client *scraper.Client, cfg scraper.Config) *Memcached {
	return &Memcached{client: client, cfg: cfg}
}

func (m *Memcached) Name() string { return "memcached" }

func (m *Memcached) Scrape(ctx context.Context) (*scraper.Result, error) {
	maxVersions := m.cfg.Int("memcached_max_versions", 5)

	tags, err := scraper.GitHubTags(ctx, m.client, m.Name(), "memcached", "memcached", maxVersions)
	if err != nil {
		return nil, err
	}

	res := &scraper.Result{}
	for _, tag := range tags {
		version := strings.TrimPrefix(tag, "v")
		res.Resources = append(res.Resources, domain.Resource{
			FileName: "memcached-" + version + ".tar.gz",
			URL:      "http://www.memcached.org/files/memcached-" + version + ".tar.gz",
			Version:  version,
		})
	}
	if len(res.Resources) > 0 {
		res.VersionMetas = append(res.VersionMetas, domain.VersionMeta{
			Key:     "memcached_ver",
			Version: res.Resources[0].Version,
		})
	}
	return res, nil
}
