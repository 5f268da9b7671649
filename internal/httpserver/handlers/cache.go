package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/oneinstack/mirror/internal/domain"
	"github.com/oneinstack/mirror/internal/httpserver/deps"
	"github.com/oneinstack/mirror/internal/logger"
)

// warmBudget bounds a background warm run.
const warmBudget = time.Hour

type warmRequest struct {
	Source      string `json:"source,omitempty"`
	Concurrency int    `json:"concurrency,omitempty"`
}

// WarmCache starts a background fill of the disk cache, either for one
// source or the whole catalog.
func WarmCache(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req warmRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		var resources []domain.Resource
		if req.Source != "" {
			resources = d.Catalog.ListBySource(req.Source)
			if len(resources) == 0 {
				writeError(w, http.StatusNotFound, "unknown source: "+req.Source)
				return
			}
		} else {
			resources = d.Catalog.ListAll()
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), warmBudget)
			defer cancel()
			report := d.Cache.Warm(ctx, resources, req.Concurrency)
			d.Logger.Info("cache warm finished",
				logger.Int("requested", report.Requested),
				logger.Int("fetched", report.Fetched),
				logger.Int("failed", report.Failed))
		}()

		writeJSON(w, http.StatusAccepted, map[string]any{
			"status":    "started",
			"requested": len(resources),
		})
	}
}

// CacheStats reports file counts and total size of the disk cache.
func CacheStats(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := d.Cache.Stats(r.Context())
		if err != nil {
			d.Logger.Error("failed to collect cache stats", logger.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to collect cache stats")
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}
