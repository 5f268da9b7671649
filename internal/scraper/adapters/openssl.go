package adapters

import (
	"context"
	"strings"

	"github.com/oneinstack/mirror/internal/domain"
	"github.com/oneinstack/mirror/internal/scraper"
)

// OpenSSL pulls source tarballs from GitHub releases and tracks the newest
// 3.x and 1.1.x versions separately, since installers pin either branch.
type OpenSSL struct {
	client *scraper.Client
	cfg    scraper.Config
}

func NewOpenSSL(client *scraper.Client, cfg scraper.Config) *OpenSSL {
	return &OpenSSL{client: client, cfg: cfg}
}

func (o *OpenSSL) Name() string { return "openssl" }

func (o *OpenSSL) Scrape(ctx context.Context) (*scraper.Result, error) {
	maxReleases := o.cfg.Int("openssl_max_releases", 50)

	releases, err := scraper.GitHubReleases(ctx, o.client, o.Name(), "openssl", "openssl", false, maxReleases)
	if err != nil {
		return nil, err
	}

	res := &scraper.Result{}
	var latest3, latest11 string

	for _, release := range releases {
		version := strings.TrimPrefix(strings.ToLower(release.Name), "openssl ")
		for _, asset := range release.Assets {
			if !strings.HasSuffix(asset.Name, ".tar.gz") {
				continue
			}
			res.Resources = append(res.Resources, domain.Resource{
				FileName: asset.Name,
				URL:      asset.BrowserDownloadURL,
				Version:  version,
			})
			if latest3 == "" && strings.HasPrefix(version, "3.") {
				latest3 = version
			}
			if latest11 == "" && strings.HasPrefix(version, "1.1") {
				latest11 = version
			}
			break
		}
	}

	if latest3 != "" {
		res.VersionMetas = append(res.VersionMetas, domain.VersionMeta{Key: "openssl3_ver", Version: latest3})
	}
	if latest11 != "" {
		res.VersionMetas = append(res.VersionMetas, domain.VersionMeta{Key: "openssl11_ver", Version: latest11})
	}
	return res, nil
}
