package http

import (
	"context"
	nethttp "net/http"
	"time"

	"go-pdm-maintenance-ui/internal/connectors/livefeed"
	"go-pdm-maintenance-ui/internal/connectors/pdm"
	readingsstore "go-pdm-maintenance-ui/internal/connectors/readingsdb"
	settingsstore "go-pdm-maintenance-ui/internal/connectors/settingsdb"
)

func servicesStatusHandler(client *pdm.Client, dbStore *readingsstore.Store, settings *settingsstore.Store, feed *livefeed.Feed) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
		defer cancel()

		payload := map[string]any{
			"generated_at": time.Now().UTC(),
			"services":     map[string]any{},
		}
		services := payload["services"].(map[string]any)

		services["pdm_api"] = pdmStatus(ctx, client)
		services["readings_db"] = readingsDBStatus(ctx, dbStore)
		services["settings_db"] = settingsDBStatus(ctx, settings)
		services["live_feed"] = liveFeedStatus(feed)

		writeJSON(w, nethttp.StatusOK, payload)
	}
}

func pdmStatus(ctx context.Context, client *pdm.Client) map[string]any {
	if client == nil || !client.Enabled() {
		return map[string]any{"enabled": false, "ok": false, "error": "pdm api integration disabled"}
	}

	start := time.Now()
	pingMS, err := client.Ping(ctx)
	recordUpstreamCall("pdm", "Ping", time.Since(start).Seconds(), err)
	if err != nil {
		return map[string]any{"enabled": true, "ok": false, "endpoint": client.Endpoint(), "error": err.Error()}
	}
	return map[string]any{"enabled": true, "ok": true, "endpoint": client.Endpoint(), "ping_ms": pingMS}
}

func readingsDBStatus(ctx context.Context, store *readingsstore.Store) map[string]any {
	if store == nil {
		return map[string]any{"enabled": false, "ok": false, "error": "readings db integration disabled"}
	}

	start := time.Now()
	stats, err := store.ServiceStats(ctx)
	recordDBQuery("readingsdb", "ServiceStats", time.Since(start).Seconds(), err)
	if err != nil {
		return map[string]any{"enabled": true, "ok": false, "error": err.Error()}
	}
	return map[string]any{"enabled": true, "ok": true, "stats": stats}
}

func settingsDBStatus(ctx context.Context, store *settingsstore.Store) map[string]any {
	if store == nil {
		return map[string]any{"enabled": false, "ok": false, "error": "settings store disabled"}
	}

	start := time.Now()
	err := store.Ping(ctx)
	recordDBQuery("settingsdb", "Ping", time.Since(start).Seconds(), err)
	if err != nil {
		return map[string]any{"enabled": true, "ok": false, "error": err.Error()}
	}
	return map[string]any{"enabled": true, "ok": true}
}

func liveFeedStatus(feed *livefeed.Feed) map[string]any {
	if !feed.Enabled() {
		return map[string]any{"enabled": false, "ok": false, "error": "live feed integration disabled"}
	}

	connected := feed.Connected()
	out := map[string]any{
		"enabled":   true,
		"ok":        connected,
		"broker":    feed.Broker(),
		"connected": connected,
	}
	if !connected {
		out["error"] = "broker not connected"
	}
	return out
}
