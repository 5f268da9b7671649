package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/oneinstack/mirror/internal/domain"
	"github.com/oneinstack/mirror/internal/httpserver/deps"
)

type resourcesResponse struct {
	Total     int               `json:"total"`
	Resources []domain.Resource `json:"resources"`
}

// ListResources returns the whole catalog, ordered by source then filename.
func ListResources(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resources := d.Catalog.ListAll()
		writeJSON(w, http.StatusOK, resourcesResponse{
			Total:     len(resources),
			Resources: resources,
		})
	}
}

// ListResourcesBySource returns one source's records, highest version first.
func ListResourcesBySource(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		source := chi.URLParam(r, "source")
		resources := d.Catalog.ListBySource(source)
		if len(resources) == 0 {
			writeError(w, http.StatusNotFound, "unknown source: "+source)
			return
		}
		writeJSON(w, http.StatusOK, resourcesResponse{
			Total:     len(resources),
			Resources: resources,
		})
	}
}
