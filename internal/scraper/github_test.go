package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func withFakeGitHub(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	old := githubAPI
	githubAPI = srv.URL
	t.Cleanup(func() { githubAPI = old })

	return NewClient(srv.Client(), nil, nil)
}

func TestGitHubReleasesFiltersPrereleases(t *testing.T) {
	c := withFakeGitHub(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/openssl/openssl/releases" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"tag_name":"openssl-3.4.0","name":"OpenSSL 3.4.0","prerelease":false,
			 "assets":[{"name":"openssl-3.4.0.tar.gz","browser_download_url":"https://github.com/dl/openssl-3.4.0.tar.gz"}]},
			{"tag_name":"openssl-3.5.0-alpha1","name":"OpenSSL 3.5.0 alpha","prerelease":true,"assets":[]}
		]`))
	}))

	releases, err := GitHubReleases(context.Background(), c, "openssl", "openssl", "openssl", false, 0)
	if err != nil {
		t.Fatalf("GitHubReleases() failed: %v", err)
	}
	if len(releases) != 1 {
		t.Fatalf("got %d releases, want 1 (prerelease filtered)", len(releases))
	}
	if releases[0].TagName != "openssl-3.4.0" {
		t.Errorf("tag = %q", releases[0].TagName)
	}
	if len(releases[0].Assets) != 1 || releases[0].Assets[0].Name != "openssl-3.4.0.tar.gz" {
		t.Errorf("assets not decoded: %+v", releases[0].Assets)
	}
}

func TestGitHubTagsNewestFirst(t *testing.T) {
	c := withFakeGitHub(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"ref":"refs/tags/1.6.22"},
			{"ref":"refs/tags/1.6.23"},
			{"ref":"refs/tags/1.6.24"}
		]`))
	}))

	tags, err := GitHubTags(context.Background(), c, "memcached", "memcached", "memcached", 2)
	if err != nil {
		t.Fatalf("GitHubTags() failed: %v", err)
	}
	if len(tags) != 2 {
		t.Fatalf("got %d tags, want 2", len(tags))
	}
	if tags[0] != "1.6.24" || tags[1] != "1.6.23" {
		t.Errorf("tags = %v, want newest first", tags)
	}
}

func TestFilterPrereleaseTags(t *testing.T) {
	in := []string{"1.2.0", "1.3.0-rc1", "2.0.0-beta", "1.2.1", "3.0-alpha", "1.2.2-dev", "1.2.3-preview"}
	out := FilterPrereleaseTags(in)
	if len(out) != 2 {
		t.Fatalf("got %v, want only stable tags", out)
	}
	if out[0] != "1.2.0" || out[1] != "1.2.1" {
		t.Errorf("filtered tags = %v", out)
	}
}

func TestTagArchives(t *testing.T) {
	resources := TagArchives("acmesh-official", "acme.sh", []string{"3.0.7", "3.0.6"})
	if len(resources) != 2 {
		t.Fatalf("got %d resources, want 2", len(resources))
	}
	first := resources[0]
	if first.FileName != "acme.sh-3.0.7.tar.gz" {
		t.Errorf("file name = %q", first.FileName)
	}
	if first.URL != "https://github.com/acmesh-official/acme.sh/archive/refs/tags/3.0.7.tar.gz" {
		t.Errorf("url = %q", first.URL)
	}
	if first.Version != "3.0.7" {
		t.Errorf("version = %q", first.Version)
	}
}
