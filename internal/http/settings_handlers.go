package http

import (
	"encoding/json"
	nethttp "net/http"
	"time"

	settingsstore "go-pdm-maintenance-ui/internal/connectors/settingsdb"
)

func alertThresholdsHandler(store *settingsstore.Store) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if store == nil {
			writeJSON(w, nethttp.StatusServiceUnavailable, map[string]any{
				"error": "settings store disabled (set APP_SETTINGS_SQLITE_PATH)",
			})
			return
		}

		switch r.Method {
		case nethttp.MethodGet:
			start := time.Now()
			thresholds, err := store.AlertThresholds(r.Context())
			recordDBQuery("settingsdb", "AlertThresholds", time.Since(start).Seconds(), err)
			if err != nil {
				writeJSON(w, nethttp.StatusInternalServerError, map[string]any{"error": "failed to load alert thresholds"})
				return
			}
			writeJSON(w, nethttp.StatusOK, map[string]any{
				"meta": map[string]any{"count": len(thresholds)},
				"data": thresholds,
			})
		case nethttp.MethodPost:
			var req map[string]settingsstore.ThresholdPair
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeJSON(w, nethttp.StatusBadRequest, map[string]any{"error": "invalid JSON body"})
				return
			}
			start := time.Now()
			err := store.SaveAlertThresholds(r.Context(), req)
			recordDBQuery("settingsdb", "SaveAlertThresholds", time.Since(start).Seconds(), err)
			if err != nil {
				writeJSON(w, nethttp.StatusBadRequest, map[string]any{"error": err.Error()})
				return
			}

			startGet := time.Now()
			thresholds, err := store.AlertThresholds(r.Context())
			recordDBQuery("settingsdb", "AlertThresholds", time.Since(startGet).Seconds(), err)
			if err != nil {
				writeJSON(w, nethttp.StatusInternalServerError, map[string]any{"error": "thresholds saved but failed to read them back"})
				return
			}
			writeJSON(w, nethttp.StatusOK, map[string]any{
				"meta": map[string]any{"saved": true},
				"data": thresholds,
			})
		default:
			writeJSON(w, nethttp.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		}
	}
}

func notificationSettingsHandler(store *settingsstore.Store) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if store == nil {
			writeJSON(w, nethttp.StatusServiceUnavailable, map[string]any{
				"error": "settings store disabled (set APP_SETTINGS_SQLITE_PATH)",
			})
			return
		}

		switch r.Method {
		case nethttp.MethodGet:
			start := time.Now()
			settings, err := store.Notifications(r.Context())
			recordDBQuery("settingsdb", "Notifications", time.Since(start).Seconds(), err)
			if err != nil {
				writeJSON(w, nethttp.StatusInternalServerError, map[string]any{"error": "failed to load notification settings"})
				return
			}
			writeJSON(w, nethttp.StatusOK, map[string]any{"data": settings})
		case nethttp.MethodPost:
			var req settingsstore.NotificationSettings
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeJSON(w, nethttp.StatusBadRequest, map[string]any{"error": "invalid JSON body"})
				return
			}
			start := time.Now()
			err := store.SaveNotifications(r.Context(), req)
			recordDBQuery("settingsdb", "SaveNotifications", time.Since(start).Seconds(), err)
			if err != nil {
				writeJSON(w, nethttp.StatusBadRequest, map[string]any{"error": err.Error()})
				return
			}
			writeJSON(w, nethttp.StatusOK, map[string]any{
				"meta": map[string]any{"saved": true},
				"data": req,
			})
		default:
			writeJSON(w, nethttp.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		}
	}
}
