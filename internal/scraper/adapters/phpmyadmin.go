package adapters

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/oneinstack/mirror/internal/domain"
	"github.com/oneinstack/mirror/internal/scraper"
)

// PhpMyAdmin scrapes the phpmyadmin.net downloads page for the
// all-languages tarballs of the currently offered versions.
type PhpMyAdmin struct {
	client  *scraper.Client
	baseURL string
}

func NewPhpMyAdmin(client *scraper.Client) *PhpMyAdmin {
	return &PhpMyAdmin{
		client:  client,
		baseURL: "https://www.phpmyadmin.net",
	}
}

func (p *PhpMyAdmin) Name() string { return "phpmyadmin" }

func (p *PhpMyAdmin) Scrape(ctx context.Context) (*scraper.Result, error) {
	doc, err := p.client.GetDocument(ctx, p.Name(), p.baseURL+"/downloads/")
	if err != nil {
		return nil, err
	}

	res := &scraper.Result{}
	var versions []string

	doc.Find("table.table-condensed tbody tr").Each(func(_ int, row *goquery.Selection) {
		text := strings.ToLower(row.Text())
		if !strings.Contains(text, ".tar.gz") || !strings.Contains(text, "all-languages") {
			return
		}
		if strings.Contains(text, "snapshot") || strings.Contains(text, "latest") {
			return
		}

		link := row.Find("a").First()
		href, ok := link.Attr("href")
		if !ok {
			return
		}

		name := strings.TrimSpace(link.Text())
		version := strings.TrimSuffix(strings.TrimPrefix(name, "phpMyAdmin-"), "-all-languages.tar.gz")

		parts := strings.Split(href, "/")
		r := domain.Resource{
			FileName: parts[len(parts)-1],
			URL:      href,
			Version:  version,
		}
		if sha, ok := link.Attr("data-sha256"); ok && sha != "" {
			r.Checksum = sha
			r.ChecksumType = "sha256"
		}
		res.Resources = append(res.Resources, r)
		versions = append(versions, version)
	})

	if len(versions) >= 1 {
		res.VersionMetas = append(res.VersionMetas, domain.VersionMeta{Key: "phpmyadmin_ver", Version: versions[0]})
	}
	if len(versions) >= 2 {
		res.VersionMetas = append(res.VersionMetas, domain.VersionMeta{Key: "phpmyadmin_oldver", Version: versions[1]})
	}
	return res, nil
}
