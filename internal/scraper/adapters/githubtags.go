package adapters

import (
	"context"

	"github.com/oneinstack/mirror/internal/domain"
	"github.com/oneinstack/mirror/internal/scraper"
)

// GitHubTags is the generic adapter for upstreams that publish plain source
// tarballs per git tag (htop, acme.sh, fail2ban, ...). Instances are built
// from the upstreams definition file.
type GitHubTags struct {
	client  *scraper.Client
	name    string
	owner   string
	repo    string
	maxTags int
	metaKey string
}

// GitHubTagsSpec describes one generic GitHub upstream.
type GitHubTagsSpec struct {
	Name    string
	Owner   string
	Repo    string
	MaxTags int // 0 = keep all stable tags
	MetaKey string
}

func NewGitHubTags(client *scraper.Client, spec GitHubTagsSpec) *GitHubTags {
	return &GitHubTags{
		client:  client,
		name:    spec.Name,
		owner:   spec.Owner,
		repo:    spec.Repo,
		maxTags: spec.MaxTags,
		metaKey: spec.MetaKey,
	}
}

func (g *GitHubTags) Name() string { return g.name }

func (g *GitHubTags) Scrape(ctx context.Context) (*scraper.Result, error) {
	tags, err := scraper.GitHubTags(ctx, g.client, g.name, g.owner, g.repo, 0)
	if err != nil {
		return nil, err
	}

	tags = scraper.FilterPrereleaseTags(tags)
	if g.maxTags > 0 && len(tags) > g.maxTags {
		tags = tags[:g.maxTags]
	}

	res := &scraper.Result{
		Resources: scraper.TagArchives(g.owner, g.repo, tags),
	}
	if g.metaKey != "" && len(res.Resources) > 0 {
		res.VersionMetas = append(res.VersionMetas, domain.VersionMeta{
			Key:     g.metaKey,
			Version: res.Resources[0].Version,
		})
	}
	return res, nil
}
