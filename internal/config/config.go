package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	CachePath      string        // root directory for cached artifacts
	UpstreamsFile  string        // optional YAML with extra GitHub-tag upstreams
	AdapterTimeout time.Duration // per-adapter budget inside a scrape cycle

	LogPruneInterval time.Duration // how often to prune scrape logs
	LogRetention     time.Duration // how long scrape log rows are kept

	// Redis
	RedisAddr             string
	RedisUser             string
	RedisPassword         string
	RedisPasswordRequired bool
	RedisDB               int
	RedisDT               time.Duration // dial timeout
	RedisRT               time.Duration // read timeout
	RedisWT               time.Duration // write timeout
	RedisMaxWait          time.Duration // max wait between retries
	RedisPingTimeout      time.Duration
	RedisPoolSize         int
	RedisConnectTimeout   time.Duration // total time to retry connecting
	RedisRetryInterval    time.Duration // initial wait between retries, grows exponentially
	RedisWarnThreshold    int           // warn after this many attempts

	// MySQL (scrape logs + settings)
	MySQLHost     string
	MySQLPort     string
	MySQLUser     string
	MySQLPassword string
	MySQLDBName   string

	// Access restrictions
	AdminToken    string   // bearer token for the admin API, empty disables it
	AllowedHosts  []string // optional, restrict public endpoints to these Host headers
	AllowedCIDRS  []string // optional, restrict admin endpoints to these IPs/CIDRs
	TrustProxy    bool     // trust X-Forwarded-For (e.g. behind a CDN)
	DownloadBurst int      // per-IP rate limit burst on downloads, 0 disables
}

func Load() *Config {
	// Local development convenience; a missing .env is not an error.
	_ = godotenv.Load()

	cfg := &Config{
		// Server settings
		ListenAddr:      getenv("MIRROR_LISTEN_ADDR", ":8080"),
		ShutdownTimeout: mustDuration("MIRROR_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("MIRROR_LOG_LEVEL", "info"),
		PrettyLog: mustBool("MIRROR_PRETTY_LOG", false),

		// Scraping and cache
		CachePath:      getenv("MIRROR_CACHE_PATH", "/app/cache"),
		UpstreamsFile:  getenv("MIRROR_UPSTREAMS_FILE", ""),
		AdapterTimeout: mustDuration("MIRROR_ADAPTER_TIMEOUT", 5*time.Minute),

		LogPruneInterval: mustDuration("MIRROR_LOG_PRUNE_INTERVAL", 24*time.Hour),
		LogRetention:     mustDuration("MIRROR_LOG_RETENTION", 90*24*time.Hour),

		// Redis settings
		RedisAddr:             requireEnv("MIRROR_REDIS_ADDR"),
		RedisUser:             getenv("MIRROR_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("MIRROR_REDIS_PASSWORD_REQUIRED", false),
		RedisPassword:         getenv("MIRROR_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("MIRROR_REDIS_DB", 0),
		RedisDT:               mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("REDIS_WARN_THRESHOLD", 3),

		// MySQL settings
		MySQLHost:     requireEnv("MIRROR_MYSQL_HOST"),
		MySQLPort:     getenv("MIRROR_MYSQL_PORT", "3306"),
		MySQLUser:     requireEnv("MIRROR_MYSQL_USER"),
		MySQLPassword: getenv("MIRROR_MYSQL_PASSWORD", ""),
		MySQLDBName:   getenv("MIRROR_MYSQL_DATABASE", "mirror"),

		// Access restrictions
		AdminToken:    getenv("MIRROR_ADMIN_TOKEN", ""),
		AllowedHosts:  splitAndTrim(getenv("MIRROR_ALLOWED_HOSTS", "")),
		AllowedCIDRS:  splitAndTrim(getenv("MIRROR_ADMIN_ALLOWED_CIDRS", "")),
		TrustProxy:    mustBool("MIRROR_TRUST_PROXY", true),
		DownloadBurst: getenvInt("MIRROR_DOWNLOAD_BURST", 0),
	}

	// Validate Redis password configuration
	if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: MIRROR_REDIS_PASSWORD is required when MIRROR_REDIS_PASSWORD_REQUIRED=true")
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		cfgCopy.MySQLPassword = "***REDACTED***"
		cfgCopy.AdminToken = "***REDACTED***"
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic("❌ FATAL: Required environment variable " + key + " is not set")
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
