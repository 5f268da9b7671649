package app

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/oneinstack/mirror/internal/cache"
	"github.com/oneinstack/mirror/internal/catalog"
	"github.com/oneinstack/mirror/internal/config"
	"github.com/oneinstack/mirror/internal/httpserver"
	"github.com/oneinstack/mirror/internal/httpserver/deps"
	"github.com/oneinstack/mirror/internal/logger"
	"github.com/oneinstack/mirror/internal/logstream"
	"github.com/oneinstack/mirror/internal/orchestrator"
	"github.com/oneinstack/mirror/internal/redis"
	"github.com/oneinstack/mirror/internal/resolver"
	"github.com/oneinstack/mirror/internal/scheduler"
	"github.com/oneinstack/mirror/internal/scraper"
	"github.com/oneinstack/mirror/internal/scraper/adapters"
	"github.com/oneinstack/mirror/internal/settings"
	"github.com/oneinstack/mirror/internal/sources/upstreams"
	mysqlstore "github.com/oneinstack/mirror/internal/store/mysql"
	redisstore "github.com/oneinstack/mirror/internal/store/redis"
	"github.com/oneinstack/mirror/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	db          *sql.DB
	scheduler   *scheduler.ScrapeScheduler
	retention   *scheduler.LogRetention
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Initialize Redis early - fail fast if unavailable
	loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
	redisClient, err := redis.New(redis.ConnectOptions{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		RedisDB:        cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	loggerClient.Info("Redis initialized successfully")

	redisStore := redisstore.NewStore(redisClient)

	// MySQL holds scrape logs and settings
	loggerClient.Infof("Connecting to MySQL at %s:%s", cfg.MySQLHost, cfg.MySQLPort)
	db, err := mysqlstore.Open(context.Background(), mysqlstore.Config{
		Host:     cfg.MySQLHost,
		Port:     cfg.MySQLPort,
		User:     cfg.MySQLUser,
		Password: cfg.MySQLPassword,
		DBName:   cfg.MySQLDBName,
	})
	if err != nil {
		loggerClient.Errorf("Failed to connect to MySQL: %v", err)
		os.Exit(1)
	}
	if err := mysqlstore.EnsureSchema(context.Background(), db); err != nil {
		loggerClient.Errorf("Failed to ensure MySQL schema: %v", err)
		os.Exit(1)
	}
	loggerClient.Info("MySQL initialized successfully")

	scrapeLogs := mysqlstore.NewScrapeLogStore(db)
	settingsSvc := settings.New(mysqlstore.NewSettingsStore(db), loggerClient, cfg.CachePath)

	cat := catalog.New()

	// Warm the catalog from Redis so a restart serves immediately
	syncer := scheduler.NewCatalogSyncer(redisStore, cat, loggerClient)
	if err := syncer.Sync(context.Background()); err != nil {
		loggerClient.Warn("failed to warm catalog from redis, waiting for first scrape",
			logger.Error(err))
	}

	stream := logstream.NewBroadcaster()

	tokenFn := func() string {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return settingsSvc.GitHubToken(ctx)
	}
	client := scraper.NewClient(nil, tokenFn, stream)

	adapterCfg := settingsSvc.AdapterConfig()
	registry := scraper.NewRegistry()
	registry.MustRegister(
		adapters.NewNginx(client, adapterCfg),
		adapters.NewPHP(client, adapterCfg),
		adapters.NewRedis(client, adapterCfg),
		adapters.NewMemcached(client, adapterCfg),
		adapters.NewOpenSSL(client, adapterCfg),
		adapters.NewPhpMyAdmin(client),
		adapters.NewCacert(),
	)

	// Extra GitHub-tag upstreams from the optional definitions file
	if cfg.UpstreamsFile != "" {
		defs, err := upstreams.NewLoader(cfg.UpstreamsFile).Load()
		if err != nil {
			loggerClient.Errorf("Failed to load upstream definitions: %v", err)
			os.Exit(1)
		}
		extra := upstreams.NewMapper(client).MapAdapters(defs)
		registry.MustRegister(extra...)
		loggerClient.Info("extra upstreams registered", logger.Int("count", len(extra)))
	}

	orch := orchestrator.New(registry, cat, redisStore, scrapeLogs, stream, loggerClient, cfg.AdapterTimeout)

	cacheStore := cache.New(settingsSvc.CachePath, nil, loggerClient)
	engine := resolver.New(cat, cacheStore, settingsSvc, loggerClient)

	scrapeScheduler := scheduler.NewScrapeScheduler(orch, settingsSvc, redisStore, loggerClient)
	retention := scheduler.NewLogRetention(scrapeLogs, loggerClient, cfg.LogPruneInterval, cfg.LogRetention)

	d := deps.Deps{
		Logger:        loggerClient,
		StartTime:     time.Now(),
		Version:       version.Version,
		Commit:        version.Commit,
		BuildDate:     version.BuildDate,
		GoVersion:     version.GoVersion,
		Catalog:       cat,
		Resolver:      engine,
		Orchestrator:  orch,
		Cache:         cacheStore,
		Settings:      settingsSvc,
		Stream:        stream,
		ScrapeLogs:    scrapeLogs,
		RedisStore:    redisStore,
		RedisClient:   redisClient,
		ScrapeTrigger: scrapeScheduler.Trigger,
		AdminToken:    cfg.AdminToken,
		AllowedCIDRS:  cfg.AllowedCIDRS,
		AllowedHosts:  cfg.AllowedHosts,
		TrustProxy:    cfg.TrustProxy,
		DownloadBurst: cfg.DownloadBurst,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
		db:          db,
		scheduler:   scrapeScheduler,
		retention:   retention,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting mirror v%s on %s", version.Version, a.cfg.ListenAddr)
	a.logger.Infof("mirror %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scrape scheduler: %w", err)
	}
	a.logger.Info("scrape scheduler started")

	if err := a.retention.Start(ctx); err != nil {
		return fmt.Errorf("failed to start log retention: %w", err)
	}
	a.logger.Info("log retention started",
		logger.Duration("interval", a.cfg.LogPruneInterval))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	a.scheduler.Stop()
	a.retention.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warnf("failed to close mysql: %v", err)
		}
	}

	a.logger.Info("✅ mirror stopped cleanly")
	return nil
}
