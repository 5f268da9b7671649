package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/oneinstack/mirror/internal/httpserver/deps"
	"github.com/oneinstack/mirror/internal/httpserver/handlers"
)

func init() { Register(registerResources) }

func registerResources(r chi.Router, d deps.Deps) {
	r.Get("/api/resources", handlers.ListResources(d))
	r.Get("/api/resources/{source}", handlers.ListResourcesBySource(d))
}
