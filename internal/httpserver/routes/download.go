package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/oneinstack/mirror/internal/httpserver/deps"
	"github.com/oneinstack/mirror/internal/httpserver/handlers"
	"github.com/oneinstack/mirror/internal/httpserver/mw"
)

func init() { Register(registerDownload) }

func registerDownload(r chi.Router, d deps.Deps) {
	dl := r.With(mw.EnforceHost(d.AllowedHosts, d.Logger))
	if d.DownloadBurst > 0 {
		dl = dl.With(mw.RateLimit(mw.RateLimitConfig{
			Burst:             d.DownloadBurst,
			RefillPerIPPerMin: d.DownloadBurst,
			MaxEntries:        10000,
			TrustProxy:        d.TrustProxy,
		}))
	}

	dl.Get("/src/{filename}", handlers.Download(d))
	// Legacy path used by older installer releases.
	dl.Get("/oneinstack/src/{filename}", handlers.Download(d))
}
