package settings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/oneinstack/mirror/internal/domain"
	"github.com/oneinstack/mirror/internal/logger"
)

type memKV struct {
	m   map[string]string
	err error
}

func (k *memKV) Get(_ context.Context, key string) (string, bool, error) {
	if k.err != nil {
		return "", false, k.err
	}
	v, ok := k.m[key]
	return v, ok, nil
}

func (k *memKV) Set(_ context.Context, key, value string) error {
	k.m[key] = value
	return nil
}

func (k *memKV) All(_ context.Context) (map[string]string, error) {
	return k.m, k.err
}

func newService(m map[string]string) *Service {
	if m == nil {
		m = map[string]string{}
	}
	return New(&memKV{m: m}, logger.New("error", false), "/var/cache/mirror")
}

func TestDefaults(t *testing.T) {
	s := newService(nil)
	ctx := context.Background()

	if got := s.MirrorMode(ctx); got != domain.ModeRedirect {
		t.Errorf("MirrorMode = %q, want redirect", got)
	}
	if got := s.CachePath(ctx); got != "/var/cache/mirror" {
		t.Errorf("CachePath = %q", got)
	}
	if got := s.ScrapeInterval(ctx); got != 6*time.Hour {
		t.Errorf("ScrapeInterval = %v, want 6h", got)
	}
	if !s.AutoScrapeEnabled(ctx) {
		t.Error("AutoScrapeEnabled = false, want true by default")
	}
	if got := s.GitHubToken(ctx); got != "" {
		t.Errorf("GitHubToken = %q, want empty", got)
	}
}

func TestStoredValuesWin(t *testing.T) {
	s := newService(map[string]string{
		KeyMirrorMode:          "cache",
		KeyCachePath:           "/mnt/mirror",
		KeyScrapeIntervalHours: "12",
		KeyAutoScrapeEnabled:   "false",
	})
	ctx := context.Background()

	if got := s.MirrorMode(ctx); got != domain.ModeCache {
		t.Errorf("MirrorMode = %q, want cache", got)
	}
	if got := s.CachePath(ctx); got != "/mnt/mirror" {
		t.Errorf("CachePath = %q", got)
	}
	if got := s.ScrapeInterval(ctx); got != 12*time.Hour {
		t.Errorf("ScrapeInterval = %v, want 12h", got)
	}
	if s.AutoScrapeEnabled(ctx) {
		t.Error("AutoScrapeEnabled = true, want false")
	}
}

func TestStoreFailureDegradesToDefaults(t *testing.T) {
	s := New(&memKV{err: errors.New("mysql down")}, logger.New("error", false), "/var/cache/mirror")
	ctx := context.Background()

	if got := s.MirrorMode(ctx); got != domain.ModeRedirect {
		t.Errorf("MirrorMode = %q, want redirect on store failure", got)
	}
	if got := s.ScrapeInterval(ctx); got != 6*time.Hour {
		t.Errorf("ScrapeInterval = %v, want default on store failure", got)
	}
}

func TestAdapterConfig(t *testing.T) {
	s := newService(map[string]string{
		"nginx_legacy_versions_count": "3",
		"php_accepted_versions":       "8.2, 8.3,8.4",
		"bad_int":                     "nope",
	})
	cfg := s.AdapterConfig()

	if got := cfg.Int("nginx_legacy_versions_count", 5); got != 3 {
		t.Errorf("Int = %d, want 3", got)
	}
	if got := cfg.Int("bad_int", 5); got != 5 {
		t.Errorf("Int(bad) = %d, want default 5", got)
	}
	if got := cfg.Int("missing", 7); got != 7 {
		t.Errorf("Int(missing) = %d, want default 7", got)
	}

	slice := cfg.StringSlice("php_accepted_versions", nil)
	want := []string{"8.2", "8.3", "8.4"}
	if len(slice) != len(want) {
		t.Fatalf("StringSlice = %v, want %v", slice, want)
	}
	for i := range want {
		if slice[i] != want[i] {
			t.Errorf("StringSlice[%d] = %q, want %q", i, slice[i], want[i])
		}
	}

	if got := cfg.String("missing", "def"); got != "def" {
		t.Errorf("String(missing) = %q, want def", got)
	}
}
