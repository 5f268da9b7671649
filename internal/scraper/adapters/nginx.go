// Package adapters contains the per-upstream scraping units. Each adapter
// normalizes one upstream's release publishing format (HTML download pages,
// directory listings, the GitHub API) into catalog resources.
package adapters

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/oneinstack/mirror/internal/domain"
	"github.com/oneinstack/mirror/internal/scraper"
)

var nginxTarball = regexp.MustCompile(`nginx-([\d.]+)\.tar\.gz$`)

// Nginx scrapes nginx.org/en/download.html: the mainline and stable release
// tables plus a configurable number of legacy version tables.
type Nginx struct {
	client  *scraper.Client
	cfg     scraper.Config
	baseURL string
}

func NewNginx(client *scraper.Client, cfg scraper.Config) *Nginx {
	return &Nginx{
		client:  client,
		cfg:     cfg,
		baseURL: "https://nginx.org",
	}
}

func (n *Nginx) Name() string { return "nginx" }

func (n *Nginx) Scrape(ctx context.Context) (*scraper.Result, error) {
	doc, err := n.client.GetDocument(ctx, n.Name(), n.baseURL+"/en/download.html")
	if err != nil {
		return nil, err
	}

	res := &scraper.Result{}

	if r := n.firstTableResource(doc, "Mainline version"); r != nil {
		res.Resources = append(res.Resources, *r)
		res.VersionMetas = append(res.VersionMetas, domain.VersionMeta{
			Key:     "nginx_ver",
			Version: r.Version,
		})
	}
	if r := n.firstTableResource(doc, "Stable version"); r != nil {
		res.Resources = append(res.Resources, *r)
	}

	legacyCount := n.cfg.Int("nginx_legacy_versions_count", 5)
	doc.Find("h4").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		if strings.TrimSpace(h.Text()) != "Legacy versions" {
			return true
		}
		h.NextAllFiltered("table").EachWithBreak(func(i int, table *goquery.Selection) bool {
			if i >= legacyCount {
				return false
			}
			if r := n.parseVersionTable(table); r != nil {
				res.Resources = append(res.Resources, *r)
			}
			return true
		})
		return false
	})

	return res, nil
}

// firstTableResource finds the h4 section with the given heading and parses
// the first release table after it.
func (n *Nginx) firstTableResource(doc *goquery.Document, heading string) *domain.Resource {
	var out *domain.Resource
	doc.Find("h4").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		if strings.TrimSpace(h.Text()) != heading {
			return true
		}
		out = n.parseVersionTable(h.NextAllFiltered("table").First())
		return false
	})
	return out
}

func (n *Nginx) parseVersionTable(table *goquery.Selection) *domain.Resource {
	var out *domain.Resource
	table.Find("a").EachWithBreak(func(_ int, link *goquery.Selection) bool {
		href, ok := link.Attr("href")
		if !ok {
			return true
		}
		m := nginxTarball.FindStringSubmatch(href)
		if m == nil {
			return true
		}
		if strings.HasPrefix(href, "/") {
			href = n.baseURL + href
		}
		version := m[1]
		out = &domain.Resource{
			FileName: "nginx-" + version + ".tar.gz",
			URL:      href,
			Version:  version,
		}
		return false
	})
	return out
}
