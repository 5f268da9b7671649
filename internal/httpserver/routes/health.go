package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/oneinstack/mirror/internal/httpserver/deps"
	"github.com/oneinstack/mirror/internal/httpserver/handlers"
)

func init() { Register(registerHealth) }

func registerHealth(r chi.Router, d deps.Deps) {
	r.Get("/api/health", handlers.Health(d))
	r.Get("/healthz", handlers.Health(d))
}
