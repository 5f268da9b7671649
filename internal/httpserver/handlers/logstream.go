package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/oneinstack/mirror/internal/httpserver/deps"
	"github.com/oneinstack/mirror/internal/logger"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Token auth happens in middleware; the dashboard origin is not fixed.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// LogStream upgrades to a WebSocket and relays live scrape events until the
// client disconnects. A slow client loses events rather than slowing scrapes.
func LogStream(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			d.Logger.Debug("websocket upgrade failed", logger.Error(err))
			return
		}
		defer conn.Close()

		events, cancel := d.Stream.Subscribe()
		defer cancel()

		// Reader goroutine: we never expect client messages, but reading is
		// required to notice the peer closing.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(wsPingPeriod)
		defer ticker.Stop()

		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				if err := conn.WriteJSON(ev); err != nil {
					return
				}
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-done:
				return
			case <-r.Context().Done():
				return
			}
		}
	}
}
