package handlers

import (
	"net/http"
	"sort"
	"strings"

	"github.com/oneinstack/mirror/internal/httpserver/deps"
	"github.com/oneinstack/mirror/internal/logger"
)

// SuggestVersions renders the installer's version hint file: one
// "key=version" line per entry, sorted by key. Scraped metas take priority;
// sources without a meta fall back to the highest catalogued version under
// "{source}_ver".
func SuggestVersions(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metas := make(map[string]string)

		if d.RedisStore != nil {
			stored, err := d.RedisStore.LoadVersionMetas(r.Context())
			if err != nil {
				d.Logger.Warn("failed to load version metas", logger.Error(err))
			} else {
				metas = stored
			}
		}

		for _, source := range d.Catalog.Sources() {
			key := source + "_ver"
			if _, ok := metas[key]; ok {
				continue
			}
			if latest, ok := d.Catalog.Latest(source); ok && latest.Version != "" {
				metas[key] = latest.Version
			}
		}

		keys := make([]string, 0, len(metas))
		for k := range metas {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var b strings.Builder
		for _, k := range keys {
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(metas[k])
			b.WriteByte('\n')
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(b.String()))
	}
}
