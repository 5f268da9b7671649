package upstreams

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/oneinstack/mirror/internal/scraper"
)

func writeUpstreamsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "upstreams.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	return path
}

func TestLoaderLoad(t *testing.T) {
	path := writeUpstreamsFile(t, `---
upstreams:
  - name: htop
    owner: htop-dev
    repo: htop
    max_tags: 5
    meta_key: htop_ver
  - name: acme_sh
    owner: acmesh-official
    repo: acme.sh
`)

	defs, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(defs.Upstreams) != 2 {
		t.Fatalf("Load() parsed %d upstreams, want 2", len(defs.Upstreams))
	}
	first := defs.Upstreams[0]
	if first.Name != "htop" || first.Owner != "htop-dev" || first.MaxTags != 5 || first.MetaKey != "htop_ver" {
		t.Errorf("unexpected first upstream: %+v", first)
	}
}

func TestLoaderLoadIncompleteEntry(t *testing.T) {
	path := writeUpstreamsFile(t, `---
upstreams:
  - name: broken
    owner: someone
`)

	if _, err := NewLoader(path).Load(); err == nil {
		t.Error("Load() should reject an entry without repo")
	}
}

func TestLoaderLoadFileNotFound(t *testing.T) {
	if _, err := NewLoader("/nonexistent/upstreams.yaml").Load(); err == nil {
		t.Error("Load() with non-existent file should return error")
	}
}

func TestMapperBuildsAdapters(t *testing.T) {
	defs := &Definitions{
		Upstreams: []Definition{
			{Name: "htop", Owner: "htop-dev", Repo: "htop", MaxTags: 3},
			{Name: "fail2ban", Owner: "fail2ban", Repo: "fail2ban"},
		},
	}

	mapper := NewMapper(scraper.NewClient(nil, nil, nil))
	adapters := mapper.MapAdapters(defs)

	if len(adapters) != 2 {
		t.Fatalf("MapAdapters() built %d adapters, want 2", len(adapters))
	}
	if adapters[0].Name() != "htop" || adapters[1].Name() != "fail2ban" {
		t.Errorf("adapter names = %q, %q", adapters[0].Name(), adapters[1].Name())
	}
}
