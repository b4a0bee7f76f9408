package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	nethttp "net/http"
	"strconv"
	"time"

	"go-pdm-maintenance-ui/internal/config"
	"go-pdm-maintenance-ui/internal/connectors/livefeed"
	"go-pdm-maintenance-ui/internal/connectors/pdm"
	readingsstore "go-pdm-maintenance-ui/internal/connectors/readingsdb"
	settingsstore "go-pdm-maintenance-ui/internal/connectors/settingsdb"
	"go-pdm-maintenance-ui/internal/schedule"
)

// Server wraps an HTTP server and route handlers.
type Server struct {
	httpServer    *nethttp.Server
	pdmClient     *pdm.Client
	readingsStore *readingsstore.Store
	settingsStore *settingsstore.Store
	liveFeed      *livefeed.Feed
	pending       *schedule.PendingStore
}

// NewServer creates a configured HTTP server with v1 endpoints.
func NewServer(cfg config.Config) (*Server, error) {
	client := pdm.NewClient(cfg.PdMEndpoint, cfg.PdMTimeout)

	var dbStore *readingsstore.Store
	if cfg.DBEnabled {
		createdStore, err := readingsstore.NewStore(cfg)
		if err != nil {
			return nil, err
		}
		dbStore = createdStore
	}

	var settings *settingsstore.Store
	if cfg.SettingsSQLitePath != "" {
		createdStore, err := settingsstore.NewStore(cfg.SettingsSQLitePath)
		if err != nil {
			return nil, err
		}
		settings = createdStore
	}

	feed := livefeed.New(cfg)
	pending := schedule.NewPendingStore()

	mux := nethttp.NewServeMux()

	mux.HandleFunc("/", dashboardHandler)
	mux.HandleFunc("/favicon.ico", faviconHandler)
	mux.Handle("/metrics", metricsHandler())
	mux.HandleFunc("/api/v1/metrics/app", appMetricsSummaryHandler())
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/ready", readyHandler)
	mux.HandleFunc("/api/v1/equipment", equipmentListHandler(client))
	mux.HandleFunc("/api/v1/equipment/", equipmentDetailRouter(cfg, client, dbStore, pending))
	mux.HandleFunc("/api/v1/maintenance/schedule", scheduleMaintenanceHandler(cfg, client, pending))
	mux.HandleFunc("/api/v1/settings/alert-thresholds", alertThresholdsHandler(settings))
	mux.HandleFunc("/api/v1/settings/notifications", notificationSettingsHandler(settings))
	mux.HandleFunc("/api/v1/live/latest", liveLatestHandler(feed))
	mux.HandleFunc("/api/v1/live/stream", liveStreamHandler(feed))
	mux.HandleFunc("/api/v1/status/services", servicesStatusHandler(client, dbStore, settings, feed))

	httpServer := &nethttp.Server{
		Addr:         cfg.ListenAddr,
		Handler:      loggingMiddleware(observabilityMiddleware(mux)),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &Server{
		httpServer:    httpServer,
		pdmClient:     client,
		readingsStore: dbStore,
		settingsStore: settings,
		liveFeed:      feed,
		pending:       pending,
	}, nil
}

// ListenAndServe starts the live feed (when enabled) and the HTTP server.
func (s *Server) ListenAndServe() error {
	if s.liveFeed.Enabled() {
		if err := s.liveFeed.Start(); err != nil {
			// The feed auto-reconnects; the dashboard works without it.
			log.Printf("live feed unavailable at startup err=%v", err)
		}
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server and closes connectors.
func (s *Server) Shutdown(ctx context.Context) error {
	s.liveFeed.Stop()
	if s.readingsStore != nil {
		_ = s.readingsStore.Close()
	}
	if s.settingsStore != nil {
		_ = s.settingsStore.Close()
	}
	return s.httpServer.Shutdown(ctx)
}

func healthHandler(w nethttp.ResponseWriter, _ *nethttp.Request) {
	writeJSON(w, nethttp.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}

func readyHandler(w nethttp.ResponseWriter, _ *nethttp.Request) {
	writeJSON(w, nethttp.StatusOK, map[string]any{
		"status": "ready",
	})
}

func loggingMiddleware(next nethttp.Handler) nethttp.Handler {
	return nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: nethttp.StatusOK}
		next.ServeHTTP(rec, r)
		fmt.Printf("%s %s %s %s\n", r.Method, r.URL.Path, strconv.Itoa(rec.status), time.Since(start))
	})
}

func writeJSON(w nethttp.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
