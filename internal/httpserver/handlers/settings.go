package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/oneinstack/mirror/internal/domain"
	"github.com/oneinstack/mirror/internal/httpserver/deps"
	"github.com/oneinstack/mirror/internal/logger"
	"github.com/oneinstack/mirror/internal/settings"
)

// GetSettings returns every stored setting.
func GetSettings(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all, err := d.Settings.All(r.Context())
		if err != nil {
			d.Logger.Error("failed to load settings", logger.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to load settings")
			return
		}
		writeJSON(w, http.StatusOK, all)
	}
}

// UpdateSettings upserts the settings in the request body, a flat
// string-to-string object. Changes apply on the next read; nothing restarts.
func UpdateSettings(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var updates map[string]string
		if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if len(updates) == 0 {
			writeError(w, http.StatusBadRequest, "no settings provided")
			return
		}

		if mode, ok := updates[settings.KeyMirrorMode]; ok {
			if mode != string(domain.ModeRedirect) && mode != string(domain.ModeCache) {
				writeError(w, http.StatusBadRequest, "mirror_mode must be \"redirect\" or \"cache\"")
				return
			}
		}

		for key, value := range updates {
			if err := d.Settings.Set(r.Context(), key, value); err != nil {
				d.Logger.Error("failed to store setting",
					logger.String("key", key),
					logger.Error(err))
				writeError(w, http.StatusInternalServerError, "failed to store setting "+key)
				return
			}
		}

		d.Logger.Info("settings updated", logger.Int("count", len(updates)))
		writeJSON(w, http.StatusOK, map[string]int{"updated": len(updates)})
	}
}
