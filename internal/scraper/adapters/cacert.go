package adapters

import (
	"context"

	"github.com/oneinstack/mirror/internal/domain"
	"github.com/oneinstack/mirror/internal/scraper"
)

// Cacert emits the Mozilla CA bundle. The URL always points at the current
// bundle, so the record is unversioned and keyed by filename alone.
type Cacert struct{}

func NewCacert() *Cacert { return &Cacert{} }

func (Cacert) Name() string { return "cacert" }

func (Cacert) Scrape(context.Context) (*scraper.Result, error) {
	return &scraper.Result{
		Resources: []domain.Resource{
			{
				FileName: "cacert.pem",
				URL:      "https://curl.se/ca/cacert.pem",
			},
		},
	}, nil
}
