package http

import (
	"encoding/json"
	nethttp "net/http"
	"strconv"
	"strings"
	"time"

	"go-pdm-maintenance-ui/internal/chart"
	"go-pdm-maintenance-ui/internal/config"
	"go-pdm-maintenance-ui/internal/connectors/pdm"
	readingsstore "go-pdm-maintenance-ui/internal/connectors/readingsdb"
	"go-pdm-maintenance-ui/internal/schedule"
)

type scheduleMaintenanceRequest struct {
	EquipmentID     string   `json:"equipment_id"`
	MaintenanceDate string   `json:"maintenance_date"`
	MaintenanceType string   `json:"maintenance_type"`
	Description     string   `json:"description"`
	Technician      string   `json:"technician"`
	Priority        string   `json:"priority"`
	DurationMinutes int      `json:"duration_minutes"`
	Cost            *float64 `json:"cost"`
}

func equipmentListHandler(client *pdm.Client) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if !client.Enabled() {
			writeJSON(w, nethttp.StatusServiceUnavailable, map[string]any{
				"error": "pdm api integration disabled (set APP_PDM_ENDPOINT)",
			})
			return
		}

		start := time.Now()
		items, err := client.ListMachines(r.Context())
		recordUpstreamCall("pdm", "ListMachines", time.Since(start).Seconds(), err)
		if err != nil {
			writeJSON(w, nethttp.StatusBadGateway, map[string]any{
				"error": "failed to fetch equipment list",
			})
			return
		}

		writeJSON(w, nethttp.StatusOK, map[string]any{
			"meta": map[string]any{"count": len(items)},
			"data": items,
		})
	}
}

// equipmentDetailRouter dispatches /api/v1/equipment/{id}/{action}.
func equipmentDetailRouter(cfg config.Config, client *pdm.Client, dbStore *readingsstore.Store, pending *schedule.PendingStore) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if !client.Enabled() {
			writeJSON(w, nethttp.StatusServiceUnavailable, map[string]any{
				"error": "pdm api integration disabled (set APP_PDM_ENDPOINT)",
			})
			return
		}

		trimmed := strings.TrimPrefix(r.URL.Path, "/api/v1/equipment/")
		parts := strings.Split(strings.Trim(trimmed, "/"), "/")
		if len(parts) != 2 || parts[0] == "" {
			writeJSON(w, nethttp.StatusNotFound, map[string]any{"error": "not found"})
			return
		}

		equipmentID := parts[0]
		action := parts[1]

		switch action {
		case "details":
			serveEquipmentDetails(w, r, client, equipmentID)
		case "readings":
			serveEquipmentReadings(w, r, cfg, client, equipmentID)
		case "history":
			serveMaintenanceHistory(w, r, client, dbStore, pending, equipmentID)
		case "metrics":
			serveMaintenanceMetrics(w, r, cfg, client, equipmentID)
		case "prediction":
			servePrediction(w, r, cfg, client, equipmentID)
		case "chart":
			serveChart(w, r, cfg, client, dbStore, equipmentID)
		default:
			writeJSON(w, nethttp.StatusNotFound, map[string]any{"error": "not found"})
		}
	}
}

func serveEquipmentDetails(w nethttp.ResponseWriter, r *nethttp.Request, client *pdm.Client, equipmentID string) {
	start := time.Now()
	details, err := client.GetMachineDetails(r.Context(), equipmentID)
	recordUpstreamCall("pdm", "GetMachineDetails", time.Since(start).Seconds(), err)
	if err != nil {
		status := nethttp.StatusBadGateway
		if isUpstreamNotFound(err) {
			status = nethttp.StatusNotFound
		}
		writeJSON(w, status, map[string]any{"error": "failed to fetch equipment details"})
		return
	}

	writeJSON(w, nethttp.StatusOK, map[string]any{
		"meta": map[string]any{"equipment_id": equipmentID},
		"data": details,
	})
}

func serveEquipmentReadings(w nethttp.ResponseWriter, r *nethttp.Request, cfg config.Config, client *pdm.Client, equipmentID string) {
	limit := parseLimit(r, cfg.PdMReadingsLimit)

	start := time.Now()
	readings, err := client.GetReadings(r.Context(), equipmentID, limit)
	recordUpstreamCall("pdm", "GetReadings", time.Since(start).Seconds(), err)
	if err != nil {
		writeJSON(w, nethttp.StatusBadGateway, map[string]any{"error": "failed to fetch sensor readings"})
		return
	}

	writeJSON(w, nethttp.StatusOK, map[string]any{
		"meta": map[string]any{"equipment_id": equipmentID, "limit": limit, "count": len(readings)},
		"data": readings,
	})
}

func serveMaintenanceHistory(w nethttp.ResponseWriter, r *nethttp.Request, client *pdm.Client, dbStore *readingsstore.Store, pending *schedule.PendingStore, equipmentID string) {
	start := time.Now()
	records, source, err := client.MaintenanceHistoryResolved(r.Context(), equipmentID)
	recordUpstreamCall("pdm", "GetMaintenanceHistory", time.Since(start).Seconds(), err)

	if err != nil && dbStore != nil {
		startDB := time.Now()
		dbRecords, dbErr := dbStore.ListMaintenanceRecords(r.Context(), equipmentID, 50)
		recordDBQuery("readingsdb", "ListMaintenanceRecords", time.Since(startDB).Seconds(), dbErr)
		if dbErr == nil {
			records, source, err = dbRecords, "db", nil
		}
	}
	if err != nil {
		writeJSON(w, nethttp.StatusBadGateway, map[string]any{"error": "failed to fetch maintenance history"})
		return
	}

	if pending != nil {
		records = pending.Reconcile(equipmentID, records)
	}

	writeJSON(w, nethttp.StatusOK, map[string]any{
		"meta": map[string]any{"equipment_id": equipmentID, "count": len(records), "source": source},
		"data": records,
	})
}

// serveMaintenanceMetrics merges the reliability and ROI responses into one
// card payload. Any fetch failure yields all fields unavailable rather than
// a partially updated card set.
func serveMaintenanceMetrics(w nethttp.ResponseWriter, r *nethttp.Request, cfg config.Config, client *pdm.Client, equipmentID string) {
	empty := map[string]any{
		"mtbf":                 nil,
		"mttr":                 nil,
		"availability":         nil,
		"maintenance_cost_ytd": nil,
	}

	startRel := time.Now()
	reliability, relErr := client.GetReliabilityScores(r.Context(), equipmentID)
	recordUpstreamCall("pdm", "GetReliabilityScores", time.Since(startRel).Seconds(), relErr)

	startROI := time.Now()
	roi, roiErr := client.GetMaintenanceROI(r.Context(), cfg.PdMROIWindow, equipmentID)
	recordUpstreamCall("pdm", "GetMaintenanceROI", time.Since(startROI).Seconds(), roiErr)

	if relErr != nil || roiErr != nil {
		writeJSON(w, nethttp.StatusOK, map[string]any{
			"meta": map[string]any{
				"equipment_id": equipmentID,
				"available":    false,
				"error":        "metrics unavailable",
			},
			"data": empty,
		})
		return
	}

	writeJSON(w, nethttp.StatusOK, map[string]any{
		"meta": map[string]any{
			"equipment_id": equipmentID,
			"available":    true,
			"window":       cfg.PdMROIWindow,
		},
		"data": map[string]any{
			"mtbf":                 reliability.MTBF,
			"mttr":                 reliability.MTTR,
			"availability":         reliability.Availability,
			"maintenance_cost_ytd": roi.MaintenanceCostYTD,
		},
	})
}

func servePrediction(w nethttp.ResponseWriter, r *nethttp.Request, cfg config.Config, client *pdm.Client, equipmentID string) {
	start := time.Now()
	readings, err := client.GetReadings(r.Context(), equipmentID, 1)
	recordUpstreamCall("pdm", "GetReadings", time.Since(start).Seconds(), err)
	if err != nil {
		writeJSON(w, nethttp.StatusBadGateway, map[string]any{"error": "failed to fetch latest reading"})
		return
	}

	// A machine with no history is not an error; the dashboard just has
	// nothing to recommend.
	if len(readings) == 0 {
		writeJSON(w, nethttp.StatusOK, map[string]any{
			"meta": map[string]any{"equipment_id": equipmentID, "note": "no readings available"},
			"data": map[string]any{"recommended": false},
		})
		return
	}

	latest := readings[0]
	startPred := time.Now()
	pred, err := client.RunPrediction(r.Context(), pdm.PredictionRequest{
		Timestamp:   latest.Timestamp,
		EquipmentID: equipmentID,
		Readings:    latest.NumericSensors(),
	})
	recordUpstreamCall("pdm", "RunPrediction", time.Since(startPred).Seconds(), err)
	if err != nil {
		writeJSON(w, nethttp.StatusBadGateway, map[string]any{"error": "failed to run prediction"})
		return
	}

	payload := map[string]any{
		"prediction":  pred,
		"recommended": pred.Recommend(),
	}
	if pred.Recommend() {
		payload["suggested_date"] = pred.SuggestedDate(time.Now().UTC()).Format("2006-01-02")
		payload["priority"] = pred.DerivedPriority()
		payload["maintenance_type"] = cfg.ScheduleDefaultType
		payload["duration_minutes"] = cfg.ScheduleDefaultMinutes
	}

	writeJSON(w, nethttp.StatusOK, map[string]any{
		"meta": map[string]any{"equipment_id": equipmentID, "reading_timestamp": latest.Timestamp},
		"data": payload,
	})
}

// serveChart builds the display series for one sensor. Reading order of
// preference: the PdM API, the optional readings database, synthetic filler.
func serveChart(w nethttp.ResponseWriter, r *nethttp.Request, cfg config.Config, client *pdm.Client, dbStore *readingsstore.Store, equipmentID string) {
	sensor := strings.TrimSpace(r.URL.Query().Get("sensor"))
	if sensor == "" {
		sensor = "temperature"
	}
	limit := parseLimit(r, cfg.PdMReadingsLimit)

	source := "api"
	start := time.Now()
	readings, err := client.GetReadings(r.Context(), equipmentID, limit)
	recordUpstreamCall("pdm", "GetReadings", time.Since(start).Seconds(), err)

	if (err != nil || len(readings) == 0) && dbStore != nil {
		startDB := time.Now()
		dbReadings, dbErr := dbStore.ListReadings(r.Context(), equipmentID, limit)
		recordDBQuery("readingsdb", "ListReadings", time.Since(startDB).Seconds(), dbErr)
		if dbErr == nil && len(dbReadings) > 0 {
			readings, err = dbReadings, nil
			source = "db"
		}
	}

	var series chart.Series
	switch {
	case err == nil && len(readings) > 0:
		series = chart.BuildSeries(sensor, readings)
	default:
		series = chart.SyntheticSeries(equipmentID, sensor, cfg.ChartSyntheticPoints, time.Now().UTC())
		source = "synthetic"
	}

	writeJSON(w, nethttp.StatusOK, map[string]any{
		"meta": map[string]any{
			"equipment_id": equipmentID,
			"sensor":       sensor,
			"source":       source,
			"count":        len(series.Points),
		},
		"data": series,
	})
}

func scheduleMaintenanceHandler(cfg config.Config, client *pdm.Client, pending *schedule.PendingStore) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodPost {
			writeJSON(w, nethttp.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
			return
		}
		if !client.Enabled() {
			writeJSON(w, nethttp.StatusServiceUnavailable, map[string]any{
				"error": "pdm api integration disabled (set APP_PDM_ENDPOINT)",
			})
			return
		}

		var req scheduleMaintenanceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, nethttp.StatusBadRequest, map[string]any{"error": "invalid JSON body"})
			return
		}

		req.EquipmentID = strings.TrimSpace(req.EquipmentID)
		req.MaintenanceDate = strings.TrimSpace(req.MaintenanceDate)
		req.MaintenanceType = strings.TrimSpace(req.MaintenanceType)
		if req.EquipmentID == "" || req.MaintenanceDate == "" || req.MaintenanceType == "" {
			writeJSON(w, nethttp.StatusBadRequest, map[string]any{
				"error": "missing required fields: equipment_id, maintenance_date, maintenance_type",
			})
			return
		}

		date, err := coerceDate(req.MaintenanceDate)
		if err != nil {
			writeJSON(w, nethttp.StatusBadRequest, map[string]any{"error": "invalid maintenance_date, expected YYYY-MM-DD"})
			return
		}

		if req.Priority == "" {
			req.Priority = cfg.ScheduleDefaultPriority
		}
		if req.DurationMinutes <= 0 {
			req.DurationMinutes = cfg.ScheduleDefaultMinutes
		}

		start := time.Now()
		rec, err := client.ScheduleMaintenance(r.Context(), pdm.ScheduleRequest{
			EquipmentID:     req.EquipmentID,
			MaintenanceDate: date,
			MaintenanceType: req.MaintenanceType,
			Description:     strings.TrimSpace(req.Description),
			Technician:      strings.TrimSpace(req.Technician),
			Priority:        req.Priority,
			DurationMinutes: req.DurationMinutes,
			Cost:            req.Cost,
		})
		elapsed := time.Since(start).Seconds()
		recordUpstreamCall("pdm", "ScheduleMaintenance", elapsed, err)
		if err != nil {
			recordScheduleSubmission("error", elapsed)
			writeJSON(w, nethttp.StatusBadGateway, map[string]any{"error": "failed to schedule maintenance"})
			return
		}
		recordScheduleSubmission("success", elapsed)

		if pending != nil {
			pending.Add(*rec)
		}

		payload := map[string]any{"record": rec}
		meta := map[string]any{"equipment_id": req.EquipmentID, "scheduled": true}

		startHist := time.Now()
		history, source, histErr := client.MaintenanceHistoryResolved(r.Context(), req.EquipmentID)
		recordUpstreamCall("pdm", "GetMaintenanceHistory", time.Since(startHist).Seconds(), histErr)
		if histErr != nil {
			meta["history_error"] = "failed to refresh maintenance history"
		} else {
			if pending != nil {
				history = pending.Reconcile(req.EquipmentID, history)
			}
			payload["history"] = history
			meta["history_source"] = source
		}

		writeJSON(w, nethttp.StatusOK, map[string]any{
			"meta": meta,
			"data": payload,
		})
	}
}

// coerceDate accepts date-only, datetime, or RFC3339 input and returns
// YYYY-MM-DD for upstream submission.
func coerceDate(raw string) (string, error) {
	layouts := []string{
		"2006-01-02",
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
	}
	var lastErr error
	for _, layout := range layouts {
		parsed, err := time.Parse(layout, raw)
		if err == nil {
			return parsed.Format("2006-01-02"), nil
		}
		lastErr = err
	}
	return "", lastErr
}

func isUpstreamNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "status=404")
}

func parseLimit(r *nethttp.Request, defaultLimit int) int {
	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err == nil && parsed > 0 && parsed <= 1000 {
			limit = parsed
		}
	}
	return limit
}
