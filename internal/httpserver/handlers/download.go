package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/oneinstack/mirror/internal/httpserver/deps"
	"github.com/oneinstack/mirror/internal/resolver"
)

// Download answers a file request: 302 to upstream or the cached copy,
// depending on the configured mode. ?redirect=1 forces the redirect path.
func Download(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filename := chi.URLParam(r, "filename")
		if filename == "" {
			writeError(w, http.StatusBadRequest, "missing filename")
			return
		}

		forceRedirect := false
		if v := r.URL.Query().Get("redirect"); v != "" {
			forceRedirect, _ = strconv.ParseBool(v)
		}

		res := d.Resolver.Resolve(r.Context(), filename, forceRedirect)
		switch res.Outcome {
		case resolver.OutcomeRedirect:
			http.Redirect(w, r, res.Resource.URL, http.StatusFound)
		case resolver.OutcomeServeFile:
			w.Header().Set("Content-Disposition", "attachment; filename=\""+res.Resource.FileName+"\"")
			http.ServeFile(w, r, res.FilePath)
		default:
			writeError(w, http.StatusNotFound, "file not found: "+filename)
		}
	}
}
