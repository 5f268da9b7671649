package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/oneinstack/mirror/internal/httpserver/deps"
	"github.com/oneinstack/mirror/internal/httpserver/handlers"
	"github.com/oneinstack/mirror/internal/httpserver/mw"
)

func init() { Register(registerAdmin) }

func registerAdmin(r chi.Router, d deps.Deps) {
	admin := r.With(
		mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger),
		mw.RequireToken(d.AdminToken, d.Logger),
	)

	admin.Post("/api/scraper/run", handlers.RunScrape(d))
	admin.Post("/api/scraper/run/{name}", handlers.RunScrapeOne(d))
	admin.Get("/api/scraper/status", handlers.ScraperStatus(d))
	admin.Get("/api/scraper/logs", handlers.ScrapeLogs(d))
	admin.Get("/api/scraper/logs/stream", handlers.LogStream(d))

	admin.Get("/api/settings", handlers.GetSettings(d))
	admin.Put("/api/settings", handlers.UpdateSettings(d))
	admin.Post("/api/settings", handlers.UpdateSettings(d))

	admin.Post("/api/cache/warm", handlers.WarmCache(d))
	admin.Get("/api/cache/stats", handlers.CacheStats(d))
}
