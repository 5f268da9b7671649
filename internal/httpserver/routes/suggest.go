package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/oneinstack/mirror/internal/httpserver/deps"
	"github.com/oneinstack/mirror/internal/httpserver/handlers"
	"github.com/oneinstack/mirror/internal/httpserver/mw"
)

func init() { Register(registerSuggest) }

func registerSuggest(r chi.Router, d deps.Deps) {
	r.With(mw.EnforceHost(d.AllowedHosts, d.Logger)).
		Get("/suggest_versions.txt", handlers.SuggestVersions(d))
}
