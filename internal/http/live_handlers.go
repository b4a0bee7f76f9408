package http

import (
	"log"
	nethttp "net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"go-pdm-maintenance-ui/internal/connectors/livefeed"
	"go-pdm-maintenance-ui/internal/connectors/pdm"
)

var liveUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Dashboard and API are served from the same origin; the feed is
	// read-only telemetry either way.
	CheckOrigin: func(_ *nethttp.Request) bool { return true },
}

const (
	liveWriteTimeout = 10 * time.Second
	livePingInterval = 30 * time.Second
)

func liveLatestHandler(feed *livefeed.Feed) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if !feed.Enabled() {
			writeJSON(w, nethttp.StatusServiceUnavailable, map[string]any{
				"error": "live feed integration disabled (set APP_LIVE_ENABLED=true)",
			})
			return
		}

		equipmentID := strings.TrimSpace(r.URL.Query().Get("equipment_id"))

		mode := "latest"
		var items []pdm.Reading
		if recent, _ := strconv.ParseBool(r.URL.Query().Get("recent")); recent {
			if equipmentID == "" {
				writeJSON(w, nethttp.StatusBadRequest, map[string]any{
					"error": "equipment_id required for recent readings",
				})
				return
			}
			mode = "recent"
			items = feed.Recent(equipmentID)
		} else {
			items = feed.Latest(equipmentID)
		}

		writeJSON(w, nethttp.StatusOK, map[string]any{
			"meta": map[string]any{
				"count":     len(items),
				"mode":      mode,
				"connected": feed.Connected(),
			},
			"data": items,
		})
	}
}

// liveStreamHandler upgrades to a websocket and relays livefeed readings
// until the client goes away.
func liveStreamHandler(feed *livefeed.Feed) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if !feed.Enabled() {
			writeJSON(w, nethttp.StatusServiceUnavailable, map[string]any{
				"error": "live feed integration disabled (set APP_LIVE_ENABLED=true)",
			})
			return
		}

		conn, err := liveUpgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("live stream: upgrade failed err=%v", err)
			return
		}

		sub := feed.Subscribe()
		defer feed.Unsubscribe(sub)
		defer conn.Close()

		// Reader goroutine: we never expect client messages, but reading
		// is what detects the close handshake.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(livePingInterval)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-r.Context().Done():
				return
			case reading, ok := <-sub:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(liveWriteTimeout))
				if err := conn.WriteJSON(reading); err != nil {
					return
				}
			case <-ticker.C:
				_ = conn.SetWriteDeadline(time.Now().Add(liveWriteTimeout))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}
}
