package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/oneinstack/mirror/internal/domain"
	"github.com/oneinstack/mirror/internal/httpserver/deps"
	"github.com/oneinstack/mirror/internal/logger"
)

// cycleBudget bounds a background cycle started over HTTP; request contexts
// are gone by the time the cycle finishes.
const cycleBudget = 30 * time.Minute

type runAccepted struct {
	Status  string `json:"status"`
	Adapter string `json:"adapter,omitempty"`
}

// RunScrape starts a full cycle in the background. 409 when one is already
// in flight.
func RunScrape(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Orchestrator.Running() {
			writeError(w, http.StatusConflict, "scrape already running")
			return
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), cycleBudget)
			defer cancel()
			if _, err := d.Orchestrator.RunFull(ctx); err != nil {
				d.Logger.Warn("manual scrape rejected", logger.Error(err))
			}
		}()
		if d.ScrapeTrigger != nil {
			d.ScrapeTrigger()
		}

		writeJSON(w, http.StatusAccepted, runAccepted{Status: "started"})
	}
}

// RunScrapeOne starts one adapter's scrape in the background.
func RunScrapeOne(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		if !d.Orchestrator.HasAdapter(name) {
			writeError(w, http.StatusNotFound, "unknown adapter: "+name)
			return
		}
		if d.Orchestrator.Running() {
			writeError(w, http.StatusConflict, "scrape already running")
			return
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), cycleBudget)
			defer cancel()
			if _, err := d.Orchestrator.RunOne(ctx, name); err != nil {
				d.Logger.Warn("manual adapter scrape rejected",
					logger.String("adapter", name),
					logger.Error(err))
			}
		}()

		writeJSON(w, http.StatusAccepted, runAccepted{Status: "started", Adapter: name})
	}
}

type scraperStatusResponse struct {
	Running      bool     `json:"running"`
	AutoEnabled  bool     `json:"auto_scrape_enabled"`
	Interval     string   `json:"interval"`
	Adapters     []string `json:"adapters"`
	CatalogCount int      `json:"catalog_count"`
	LastMergeAt  string   `json:"last_merge_at,omitempty"`
	LastRun      string   `json:"last_run,omitempty"`
	NextRun      string   `json:"next_run,omitempty"`
}

// ScraperStatus reports the orchestrator and scheduler state.
func ScraperStatus(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := scraperStatusResponse{
			Running:      d.Orchestrator.Running(),
			AutoEnabled:  d.Settings.AutoScrapeEnabled(r.Context()),
			Interval:     d.Settings.ScrapeInterval(r.Context()).String(),
			Adapters:     d.Orchestrator.AdapterNames(),
			CatalogCount: d.Catalog.Count(),
		}
		if t := d.Catalog.LastMergeAt(); !t.IsZero() {
			resp.LastMergeAt = t.UTC().Format(time.RFC3339)
		}

		if d.RedisStore != nil {
			lastRun, nextRun, err := d.RedisStore.GetSchedulerTimes(r.Context())
			if err != nil {
				d.Logger.Warn("failed to read scheduler times", logger.Error(err))
			} else {
				if !lastRun.IsZero() {
					resp.LastRun = lastRun.UTC().Format(time.RFC3339)
				}
				if !nextRun.IsZero() {
					resp.NextRun = nextRun.UTC().Format(time.RFC3339)
				}
			}
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

type scrapeLogsResponse struct {
	Total int                `json:"total"`
	Logs  []domain.ScrapeLog `json:"logs"`
}

// ScrapeLogs pages through the per-adapter run history, newest first.
func ScrapeLogs(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.ScrapeLogs == nil {
			writeError(w, http.StatusServiceUnavailable, "scrape log storage not configured")
			return
		}

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		if limit <= 0 || limit > 500 {
			limit = 50
		}
		if offset < 0 {
			offset = 0
		}

		logs, err := d.ScrapeLogs.List(r.Context(), limit, offset)
		if err != nil {
			d.Logger.Error("failed to list scrape logs", logger.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to list scrape logs")
			return
		}
		total, err := d.ScrapeLogs.Count(r.Context())
		if err != nil {
			d.Logger.Error("failed to count scrape logs", logger.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to count scrape logs")
			return
		}
		if logs == nil {
			logs = []domain.ScrapeLog{}
		}

		writeJSON(w, http.StatusOK, scrapeLogsResponse{Total: total, Logs: logs})
	}
}
