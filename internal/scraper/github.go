package scraper

import (
	"context"
	"fmt"
	"strings"

	"github.com/oneinstack/mirror/internal/domain"
)

// githubAPI is swapped out in tests.
var githubAPI = "https://api.github.com"

// Release mirrors the fields of the GitHub releases API that adapters use.
type Release struct {
	TagName    string         `json:"tag_name"`
	Name       string         `json:"name"`
	Prerelease bool           `json:"prerelease"`
	Assets     []ReleaseAsset `json:"assets"`
}

// ReleaseAsset is one downloadable file attached to a release.
type ReleaseAsset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// prereleaseWords marks tags that never belong in the catalog.
var prereleaseWords = []string{"rc", "beta", "alpha", "dev", "preview"}

// GitHubReleases lists releases of owner/repo, newest first.
// Prereleases are filtered out unless includePrerelease is set; max caps the
// result (0 = all).
func GitHubReleases(ctx context.Context, c *Client, adapter, owner, repo string, includePrerelease bool, max int) ([]Release, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases", githubAPI, owner, repo)

	var releases []Release
	if err := c.GetJSON(ctx, adapter, url, &releases); err != nil {
		return nil, err
	}

	if !includePrerelease {
		kept := releases[:0]
		for _, r := range releases {
			if !r.Prerelease {
				kept = append(kept, r)
			}
		}
		releases = kept
	}
	if max > 0 && len(releases) > max {
		releases = releases[:max]
	}
	return releases, nil
}

// GitHubTags lists tag names of owner/repo, newest first. max caps the
// result (0 = all).
func GitHubTags(ctx context.Context, c *Client, adapter, owner, repo string, max int) ([]string, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/git/refs/tags", githubAPI, owner, repo)

	var refs []struct {
		Ref string `json:"ref"`
	}
	if err := c.GetJSON(ctx, adapter, url, &refs); err != nil {
		return nil, err
	}

	// The API returns oldest first.
	names := make([]string, 0, len(refs))
	for i := len(refs) - 1; i >= 0; i-- {
		names = append(names, strings.TrimPrefix(refs[i].Ref, "refs/tags/"))
	}
	if max > 0 && len(names) > max {
		names = names[:max]
	}
	return names, nil
}

// FilterPrereleaseTags drops tags containing prerelease markers.
func FilterPrereleaseTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		lower := strings.ToLower(tag)
		skip := false
		for _, word := range prereleaseWords {
			if strings.Contains(lower, word) {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, tag)
		}
	}
	return out
}

// TagArchives maps repo tags to source tarball resources
// (github.com/{owner}/{repo}/archive/refs/tags/{tag}.tar.gz), newest first.
func TagArchives(owner, repo string, tags []string) []domain.Resource {
	resources := make([]domain.Resource, 0, len(tags))
	for _, tag := range tags {
		resources = append(resources, domain.Resource{
			FileName: fmt.Sprintf("%s-%s.tar.gz", repo, tag),
			URL:      fmt.Sprintf("https://github.com/%s/%s/archive/refs/tags/%s.tar.gz", owner, repo, tag),
			Version:  strings.TrimPrefix(tag, "v"),
		})
	}
	return resources
}
