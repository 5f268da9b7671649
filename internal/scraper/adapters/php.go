package adapters

import (
	"context"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/oneinstack/mirror/internal/domain"
	"github.com/oneinstack/mirror/internal/scraper"
)

// defaultPHPFamilies are the accepted major.minor families when the settings
// store has no php_accepted_versions override.
var defaultPHPFamilies = []string{"8.1", "8.2", "8.3", "8.4", "8.5"}

// PHP scrapes php.net: the current downloads page and the older-releases
// archive. For every accepted major.minor family it emits a
// "php{XY}_ver" version meta with the highest patch release found.
type PHP struct {
	client  *scraper.Client
	cfg     scraper.Config
	baseURL string
}

func NewPHP(client *scraper.Client, cfg scraper.Config) *PHP {
	return &PHP{
		client:  client,
		cfg:     cfg,
		baseURL: "https://www.php.net",
	}
}

func (p *PHP) Name() string { return "php" }

func (p *PHP) Scrape(ctx context.Context) (*scraper.Result, error) {
	res := &scraper.Result{}

	current, err := p.scrapeCurrent(ctx)
	if err != nil {
		return nil, err
	}
	res.Resources = append(res.Resources, current...)

	older, err := p.scrapeOlder(ctx)
	if err != nil {
		return nil, err
	}
	res.Resources = append(res.Resources, older...)

	families := p.cfg.StringSlice("php_accepted_versions", defaultPHPFamilies)
	res.VersionMetas = familyMetas(res.Resources, families)

	return res, nil
}

// scrapeCurrent parses the supported-release download boxes.
func (p *PHP) scrapeCurrent(ctx context.Context) ([]domain.Resource, error) {
	doc, err := p.client.GetDocument(ctx, p.Name(), p.baseURL+"/downloads.php")
	if err != nil {
		return nil, err
	}

	var out []domain.Resource
	doc.Find("div.content-box li").Each(func(_ int, item *goquery.Selection) {
		if !strings.Contains(item.Text(), ".tar.gz") {
			return
		}
		link := item.Find("a").First()
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		if strings.HasPrefix(href, "/") {
			href = p.baseURL + href
		}

		name := strings.TrimSpace(link.Text())
		if !strings.HasPrefix(name, "php-") || !strings.HasSuffix(name, ".tar.gz") {
			return
		}
		version := strings.TrimSuffix(strings.TrimPrefix(name, "php-"), ".tar.gz")

		r := domain.Resource{
			FileName: "php-" + version + ".tar.gz",
			URL:      href,
			Version:  version,
		}
		if sha := strings.TrimSpace(item.Find("span.sha256").Text()); sha != "" {
			r.Checksum = sha
			r.ChecksumType = "sha256"
		}
		out = append(out, r)
	})
	return out, nil
}

// scrapeOlder parses the releases archive, lines like
// "PHP 8.1.27 (tar.gz) <sha256>".
func (p *PHP) scrapeOlder(ctx context.Context) ([]domain.Resource, error) {
	doc, err := p.client.GetDocument(ctx, p.Name(), p.baseURL+"/releases/")
	if err != nil {
		return nil, err
	}

	var out []domain.Resource
	doc.Find("li").Each(func(_ int, item *goquery.Selection) {
		text := item.Text()
		if !strings.Contains(text, "(tar.gz)") || strings.Contains(text, "Download") {
			return
		}
		parts := strings.Fields(text)
		if len(parts) < 4 {
			return
		}
		version := parts[1]

		link := item.Find("a").First()
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		if strings.HasPrefix(href, "/") {
			href = p.baseURL + href
		}

		out = append(out, domain.Resource{
			FileName:     "php-" + version + ".tar.gz",
			URL:          href,
			Version:      version,
			Checksum:     parts[3],
			ChecksumType: "sha256",
		})
	})
	return out, nil
}

// familyMetas picks the highest version per accepted major.minor family.
func familyMetas(resources []domain.Resource, families []string) []domain.VersionMeta {
	var metas []domain.VersionMeta
	for _, family := range families {
		var matching []string
		for _, r := range resources {
			if strings.HasPrefix(r.Version, family+".") {
				matching = append(matching, r.Version)
			}
		}
		if len(matching) == 0 {
			continue
		}
		sort.Slice(matching, func(i, j int) bool {
			return domain.CompareVersions(matching[i], matching[j]) > 0
		})
		metas = append(metas, domain.VersionMeta{
			Key:     "php" + strings.ReplaceAll(family, ".", "") + "_ver",
			Version: matching[0],
		})
	}
	return metas
}
