package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/oneinstack/mirror/internal/httpserver/deps"
)

type componentStatus struct {
	OK    bool   `json:"ok"`
	Count *int   `json:"count,omitempty"`
	Error string `json:"error,omitempty"`
}

type healthResponse struct {
	Status        string                     `json:"status"`
	UptimeSeconds float64                    `json:"uptime_seconds"`
	Version       string                     `json:"version,omitempty"`
	Commit        string                     `json:"commit,omitempty"`
	BuildDate     string                     `json:"build_date,omitempty"`
	GoVersion     string                     `json:"go_version,omitempty"`
	Components    map[string]componentStatus `json:"components"`
}

// Health reports overall liveness plus per-backend status. Always 200: the
// process can serve redirects from the in-memory catalog even with both
// stores down, so backend failure is "degraded", not "down".
func Health(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		count := d.Catalog.Count()
		components := map[string]componentStatus{
			"catalog": {OK: count > 0, Count: &count},
		}
		if d.RedisStore != nil {
			components["redis"] = pingStatus(ctx, d.RedisStore)
		} else {
			components["redis"] = componentStatus{OK: false, Error: "not configured"}
		}
		if d.ScrapeLogs != nil {
			components["mysql"] = pingStatus(ctx, d.ScrapeLogs)
		} else {
			components["mysql"] = componentStatus{OK: false, Error: "not configured"}
		}

		status := "ok"
		for _, c := range components {
			if !c.OK {
				status = "degraded"
				break
			}
		}

		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, healthResponse{
			Status:        status,
			UptimeSeconds: time.Since(d.StartTime).Seconds(),
			Version:       d.Version,
			Commit:        d.Commit,
			BuildDate:     d.BuildDate,
			GoVersion:     d.GoVersion,
			Components:    components,
		})
	}
}

type pinger interface {
	Ping(ctx context.Context) error
}

func pingStatus(ctx context.Context, p pinger) componentStatus {
	if err := p.Ping(ctx); err != nil {
		return componentStatus{OK: false, Error: err.Error()}
	}
	return componentStatus{OK: true}
}
