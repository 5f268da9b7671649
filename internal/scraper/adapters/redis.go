package adapters

import (
	"context"
	"regexp"
	"sort"

	"github.com/PuerkitoBio/goquery"

	"github.com/oneinstack/mirror/internal/domain"
	"github.com/oneinstack/mirror/internal/scraper"
)

var redisTarball = regexp.MustCompile(`^redis-([\d.]+)\.tar\.gz$`)

// Redis scrapes the download.redis.io release directory listing and keeps
// the most recent versions.
type Redis struct {
	client  *scraper.Client
	cfg     scraper.Config
	baseURL string
}

func NewRedis(client *scraper.Client, cfg scraper.Config) *Redis {
	return &Redis{
		client:  client,
		cfg:     cfg,
		baseURL: "https://download.redis.io",
	}
}

func (r *Redis) Name() string { return "redis" }

func (r *Redis) Scrape(ctx context.Context) (*scraper.Result, error) {
	doc, err := r.client.GetDocument(ctx, r.Name(), r.baseURL+"/releases/")
	if err != nil {
		return nil, err
	}

	var versions []string
	doc.Find("a").Each(func(_ int, link *goquery.Selection) {
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		if m := redisTarball.FindStringSubmatch(href); m != nil {
			versions = append(versions, m[1])
		}
	})

	sort.Slice(versions, func(i, j int) bool {
		return domain.CompareVersions(versions[i], versions[j]) > 0
	})

	keep := r.cfg.Int("redis_max_versions", 10)
	if len(versions) > keep {
		versions = versions[:keep]
	}

	res := &scraper.Result{}
	for _, v := range versions {
		res.Resources = append(res.Resources, domain.Resource{
			FileName: "redis-" + v + ".tar.gz",
			URL:      r.baseURL + "/releases/redis-" + v + ".tar.gz",
			Version:  v,
		})
	}
	if len(versions) > 0 {
		res.VersionMetas = append(res.VersionMetas, domain.VersionMeta{
			Key:     "redis_ver",
			Version: versions[0],
		})
	}
	return res, nil
}
