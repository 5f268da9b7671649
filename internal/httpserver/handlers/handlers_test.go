package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/oneinstack/mirror/internal/cache"
	"github.com/oneinstack/mirror/internal/catalog"
	"github.com/oneinstack/mirror/internal/domain"
	"github.com/oneinstack/mirror/internal/httpserver/deps"
	"github.com/oneinstack/mirror/internal/logger"
	"github.com/oneinstack/mirror/internal/logstream"
	"github.com/oneinstack/mirror/internal/orchestrator"
	"github.com/oneinstack/mirror/internal/resolver"
	"github.com/oneinstack/mirror/internal/scraper"
	"github.com/oneinstack/mirror/internal/settings"
)

type memKV struct {
	m map[string]string
}

func (k *memKV) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := k.m[key]
	return v, ok, nil
}

func (k *memKV) Set(_ context.Context, key, value string) error {
	k.m[key] = value
	return nil
}

func (k *memKV) All(_ context.Context) (map[string]string, error) {
	return k.m, nil
}

type blockingAdapter struct {
	name    string
	release chan struct{}
	started chan struct{}
}

func (a *blockingAdapter) Name() string { return a.name }

func (a *blockingAdapter) Scrape(ctx context.Context) (*scraper.Result, error) {
	close(a.started)
	select {
	case <-a.release:
	case <-ctx.Done():
	}
	return &scraper.Result{}, nil
}

func newTestDeps(t *testing.T, kv *memKV, adapters ...scraper.Adapter) deps.Deps {
	t.Helper()
	log := logger.New("error", false)

	cat := catalog.New()
	cat.Upsert(domain.Resource{
		FileName:  "nginx-1.28.0.tar.gz",
		URL:       "https://nginx.org/download/nginx-1.28.0.tar.gz",
		Version:   "1.28.0",
		Source:    "nginx",
		UpdatedAt: time.Now().UTC(),
	})
	cat.Upsert(domain.Resource{
		FileName:  "nginx-1.26.3.tar.gz",
		URL:       "https://nginx.org/download/nginx-1.26.3.tar.gz",
		Version:   "1.26.3",
		Source:    "nginx",
		UpdatedAt: time.Now().UTC(),
	})

	if kv == nil {
		kv = &memKV{m: map[string]string{}}
	}
	settingsSvc := settings.New(kv, log, t.TempDir())

	cacheStore := cache.New(settingsSvc.CachePath, nil, log)
	engine := resolver.New(cat, cacheStore, settingsSvc, log)

	reg := scraper.NewRegistry()
	if len(adapters) > 0 {
		reg.MustRegister(adapters...)
	}
	stream := logstream.NewBroadcaster()
	orch := orchestrator.New(reg, cat, nil, nil, stream, log, time.Minute)

	return deps.Deps{
		Logger:       log,
		StartTime:    time.Now(),
		Catalog:      cat,
		Resolver:     engine,
		Orchestrator: orch,
		Cache:        cacheStore,
		Settings:     settingsSvc,
		Stream:       stream,
	}
}

func TestDownloadRedirects(t *testing.T) {
	d := newTestDeps(t, nil)
	r := chi.NewRouter()
	r.Get("/src/{filename}", Download(d))

	req := httptest.NewRequest(http.MethodGet, "/src/nginx-1.28.0.tar.gz", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "https://nginx.org/download/nginx-1.28.0.tar.gz" {
		t.Errorf("Location = %q", loc)
	}
}

func TestDownloadUnknownFile(t *testing.T) {
	d := newTestDeps(t, nil)
	r := chi.NewRouter()
	r.Get("/src/{filename}", Download(d))

	req := httptest.NewRequest(http.MethodGet, "/src/unknown.tar.gz", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestDownloadForceRedirectInCacheMode(t *testing.T) {
	kv := &memKV{m: map[string]string{settings.KeyMirrorMode: "cache"}}
	d := newTestDeps(t, kv)
	r := chi.NewRouter()
	r.Get("/src/{filename}", Download(d))

	// ?redirect=1 must not touch the cache even in cache mode.
	req := httptest.NewRequest(http.MethodGet, "/src/nginx-1.28.0.tar.gz?redirect=1", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
}

func TestSuggestVersionsFallsBackToCatalog(t *testing.T) {
	d := newTestDeps(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/suggest_versions.txt", nil)
	rec := httptest.NewRecorder()
	SuggestVersions(d)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "nginx_ver=1.28.0\n") {
		t.Errorf("body = %q, want nginx_ver=1.28.0 line", body)
	}
}

func TestListResources(t *testing.T) {
	d := newTestDeps(t, nil)

	rec := httptest.NewRecorder()
	ListResources(d)(rec, httptest.NewRequest(http.MethodGet, "/api/resources", nil))

	var resp resourcesResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Total != 2 {
		t.Errorf("Total = %d, want 2", resp.Total)
	}
}

func TestListResourcesBySource(t *testing.T) {
	d := newTestDeps(t, nil)
	r := chi.NewRouter()
	r.Get("/api/resources/{source}", ListResourcesBySource(d))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/resources/nginx", nil))

	var resp resourcesResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Total != 2 {
		t.Fatalf("Total = %d, want 2", resp.Total)
	}
	// Highest version first.
	if resp.Resources[0].Version != "1.28.0" {
		t.Errorf("first version = %q, want 1.28.0", resp.Resources[0].Version)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/resources/mariadb", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown source status = %d, want 404", rec.Code)
	}
}

func TestHealthReportsDegradedWithoutStores(t *testing.T) {
	d := newTestDeps(t, nil)

	rec := httptest.NewRecorder()
	Health(d)(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp healthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Status != "degraded" {
		t.Errorf("Status = %q, want degraded (no stores configured)", resp.Status)
	}
	if !resp.Components["catalog"].OK {
		t.Error("catalog component should be ok")
	}
}

func TestRunScrapeConflict(t *testing.T) {
	adapter := &blockingAdapter{
		name:    "nginx",
		release: make(chan struct{}),
		started: make(chan struct{}),
	}
	d := newTestDeps(t, nil, adapter)

	rec := httptest.NewRecorder()
	RunScrape(d)(rec, httptest.NewRequest(http.MethodPost, "/api/scraper/run", nil))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("first run status = %d, want 202", rec.Code)
	}

	select {
	case <-adapter.started:
	case <-time.After(2 * time.Second):
		t.Fatal("background cycle never started")
	}

	rec = httptest.NewRecorder()
	RunScrape(d)(rec, httptest.NewRequest(http.MethodPost, "/api/scraper/run", nil))
	if rec.Code != http.StatusConflict {
		t.Errorf("second run status = %d, want 409", rec.Code)
	}

	close(adapter.release)
}

func TestRunScrapeOneUnknownAdapter(t *testing.T) {
	d := newTestDeps(t, nil)
	r := chi.NewRouter()
	r.Post("/api/scraper/run/{name}", RunScrapeOne(d))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/scraper/run/mariadb", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestUpdateSettingsValidatesMirrorMode(t *testing.T) {
	d := newTestDeps(t, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/settings", strings.NewReader(`{"mirror_mode":"sideways"}`))
	UpdateSettings(d)(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPut, "/api/settings", strings.NewReader(`{"mirror_mode":"cache"}`))
	UpdateSettings(d)(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	if mode := d.Settings.MirrorMode(context.Background()); mode != domain.ModeCache {
		t.Errorf("MirrorMode = %q after update, want cache", mode)
	}
}

func TestScraperStatus(t *testing.T) {
	d := newTestDeps(t, nil)

	rec := httptest.NewRecorder()
	ScraperStatus(d)(rec, httptest.NewRequest(http.MethodGet, "/api/scraper/status", nil))

	var resp scraperStatusResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Running {
		t.Error("Running = true with no cycle in flight")
	}
	if resp.CatalogCount != 2 {
		t.Errorf("CatalogCount = %d, want 2", resp.CatalogCount)
	}
}
