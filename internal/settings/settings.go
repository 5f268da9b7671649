// Package settings is the read side of the external settings collaborator.
// The core reads mirror mode and adapter configuration through this service
// only; values are fetched from the store on every call so runtime changes
// apply without a restart.
package settings

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/oneinstack/mirror/internal/domain"
	"github.com/oneinstack/mirror/internal/logger"
	"github.com/oneinstack/mirror/internal/scraper"
)

// Well-known setting keys.
const (
	KeyMirrorMode          = "mirror_mode"
	KeyCachePath           = "cache_path"
	KeyGitHubToken         = "github_api_token"
	KeyScrapeIntervalHours = "scrape_interval_hours"
	KeyAutoScrapeEnabled   = "enable_auto_scrape"
)

// KV is the settings store boundary.
type KV interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	All(ctx context.Context) (map[string]string, error)
}

// lookupTimeout bounds a single settings read on hot paths.
const lookupTimeout = 2 * time.Second

// Service provides typed accessors with defaults over the KV store. Store
// failures degrade to defaults: a broken settings backend must not take the
// resolution path down.
type Service struct {
	kv               KV
	logger           logger.Logger
	defaultCachePath string
}

// New creates the settings service. defaultCachePath is used when the store
// has no cache_path entry.
func New(kv KV, log logger.Logger, defaultCachePath string) *Service {
	return &Service{
		kv:               kv,
		logger:           log,
		defaultCachePath: defaultCachePath,
	}
}

func (s *Service) get(ctx context.Context, key string) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	val, found, err := s.kv.Get(ctx, key)
	if err != nil {
		s.logger.Warn("settings lookup failed, using default",
			logger.String("key", key),
			logger.Error(err))
		return "", false
	}
	return val, found
}

// MirrorMode returns the current mode, defaulting to redirect.
func (s *Service) MirrorMode(ctx context.Context) domain.MirrorMode {
	val, _ := s.get(ctx, KeyMirrorMode)
	return domain.ParseMirrorMode(val)
}

// CachePath returns the cache root directory.
func (s *Service) CachePath(ctx context.Context) string {
	if val, found := s.get(ctx, KeyCachePath); found && val != "" {
		return val
	}
	return s.defaultCachePath
}

// GitHubToken returns the GitHub API token, or "" when unset.
func (s *Service) GitHubToken(ctx context.Context) string {
	val, _ := s.get(ctx, KeyGitHubToken)
	return val
}

// ScrapeInterval returns the scheduled cycle interval (default 6h).
func (s *Service) ScrapeInterval(ctx context.Context) time.Duration {
	if val, found := s.get(ctx, KeyScrapeIntervalHours); found {
		if hours, err := strconv.Atoi(val); err == nil && hours > 0 {
			return time.Duration(hours) * time.Hour
		}
	}
	return 6 * time.Hour
}

// AutoScrapeEnabled reports whether the scheduler should trigger cycles
// (default true).
func (s *Service) AutoScrapeEnabled(ctx context.Context) bool {
	if val, found := s.get(ctx, KeyAutoScrapeEnabled); found {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return true
}

// Set writes one setting through to the store.
func (s *Service) Set(ctx context.Context, key, value string) error {
	return s.kv.Set(ctx, key, value)
}

// All returns every stored setting.
func (s *Service) All(ctx context.Context) (map[string]string, error) {
	return s.kv.All(ctx)
}

// AdapterConfig exposes the store as adapter-scoped configuration
// (scraper.Config). Slices are stored comma-separated.
func (s *Service) AdapterConfig() scraper.Config {
	return adapterConfig{svc: s}
}

type adapterConfig struct {
	svc *Service
}

func (c adapterConfig) String(key, def string) string {
	if val, found := c.svc.get(context.Background(), key); found && val != "" {
		return val
	}
	return def
}

func (c adapterConfig) Int(key string, def int) int {
	if val, found := c.svc.get(context.Background(), key); found {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return def
}

func (c adapterConfig) StringSlice(key string, def []string) []string {
	val, found := c.svc.get(context.Background(), key)
	if !found || val == "" {
		return def
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
