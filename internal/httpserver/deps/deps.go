package deps

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oneinstack/mirror/internal/cache"
	"github.com/oneinstack/mirror/internal/catalog"
	"github.com/oneinstack/mirror/internal/logger"
	"github.com/oneinstack/mirror/internal/logstream"
	"github.com/oneinstack/mirror/internal/orchestrator"
	"github.com/oneinstack/mirror/internal/resolver"
	"github.com/oneinstack/mirror/internal/settings"
	mysqlstore "github.com/oneinstack/mirror/internal/store/mysql"
	redisstore "github.com/oneinstack/mirror/internal/store/redis"
)

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string

	Catalog      *catalog.Catalog          // in-memory resource catalog, primary lookup structure
	Resolver     *resolver.Engine          // decides redirect vs cached file per request
	Orchestrator *orchestrator.Orchestrator
	Cache        *cache.Store
	Settings     *settings.Service
	Stream       *logstream.Broadcaster // live scrape events for the log stream endpoint
	ScrapeLogs   *mysqlstore.ScrapeLogStore
	RedisStore   *redisstore.Store
	RedisClient  *redis.Client

	ScrapeTrigger func() // reschedules the cycle timer after a manual run, nil in tests

	AdminToken    string   // bearer token for /api admin endpoints; empty disables them
	AllowedCIDRS  []string // IPs allowed on admin endpoints, empty means no filtering
	AllowedHosts  []string // Host headers accepted, empty means no filtering
	TrustProxy    bool     // true when running behind a trusted reverse proxy
	DownloadBurst int      // per-IP rate limit burst for download endpoints, 0 disables
}
