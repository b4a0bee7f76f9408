package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go-pdm-maintenance-ui/internal/config"
	"go-pdm-maintenance-ui/internal/connectors/pdm"
	"go-pdm-maintenance-ui/internal/schedule"
)

func testConfig() config.Config {
	return config.Config{
		PdMReadingsLimit:        100,
		PdMROIWindow:            "12months",
		ScheduleDefaultType:     "preventive",
		ScheduleDefaultPriority: "medium",
		ScheduleDefaultMinutes:  120,
		ChartSyntheticPoints:    10,
	}
}

func disabledClient() *pdm.Client {
	return pdm.NewClient("", time.Second)
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return payload
}

func TestEquipmentListHandler_APIDisabled(t *testing.T) {
	h := equipmentListHandler(disabledClient())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/equipment", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status %d, got %d", http.StatusServiceUnavailable, rr.Code)
	}
	if decodeBody(t, rr)["error"] == nil {
		t.Fatalf("expected error field in response")
	}
}

func TestEquipmentListHandler_FetchesFromAPI(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/machines" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"equipment_id":"pump-001","name":"Feed pump","location":"Hall A"}]`))
	}))
	defer upstream.Close()

	h := equipmentListHandler(pdm.NewClient(upstream.URL, time.Second))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/equipment", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	payload := decodeBody(t, rr)
	data, ok := payload["data"].([]any)
	if !ok || len(data) != 1 {
		t.Fatalf("expected one machine in data, got %v", payload["data"])
	}
}

func TestEquipmentDetailRouter_APIDisabled(t *testing.T) {
	h := equipmentDetailRouter(testConfig(), disabledClient(), nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/equipment/pump-001/details", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status %d, got %d", http.StatusServiceUnavailable, rr.Code)
	}
}

func TestEquipmentDetailRouter_UnknownActionReturnsNotFound(t *testing.T) {
	h := equipmentDetailRouter(testConfig(), pdm.NewClient("http://127.0.0.1:1", time.Second), nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/equipment/pump-001/unknown", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rr.Code)
	}
}

func TestEquipmentDetailRouter_InvalidPathReturnsNotFound(t *testing.T) {
	h := equipmentDetailRouter(testConfig(), pdm.NewClient("http://127.0.0.1:1", time.Second), nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/equipment/pump-001", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rr.Code)
	}
}

func TestEquipmentDetailRouter_PredictionRecommendsMaintenance(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/readings"):
			_, _ = w.Write([]byte(`[{"timestamp":"2026-08-20T10:00:00Z","equipment_id":"pump-001","temperature":92.5,"vibration":3.2}]`))
		case r.URL.Path == "/api/prediction":
			_, _ = w.Write([]byte(`{"prediction":{"failure_probability":0.82,"remaining_useful_life_days":5,"recommended_action":"maintenance","confidence":0.9}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer upstream.Close()

	h := equipmentDetailRouter(testConfig(), pdm.NewClient(upstream.URL, time.Second), nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/equipment/pump-001/prediction", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}

	data, ok := decodeBody(t, rr)["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object in response")
	}
	if data["recommended"] != true {
		t.Fatalf("expected recommendation, got %v", data["recommended"])
	}
	if data["suggested_date"] == nil || data["priority"] != "critical" {
		t.Fatalf("expected suggested_date and critical priority, got %v / %v", data["suggested_date"], data["priority"])
	}
	if data["maintenance_type"] != "preventive" {
		t.Fatalf("expected default maintenance type, got %v", data["maintenance_type"])
	}
}

func TestEquipmentDetailRouter_PredictionWithoutReadings(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, "/readings") {
			_, _ = w.Write([]byte(`[]`))
			return
		}
		http.NotFound(w, r)
	}))
	defer upstream.Close()

	h := equipmentDetailRouter(testConfig(), pdm.NewClient(upstream.URL, time.Second), nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/equipment/pump-001/prediction", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	data := decodeBody(t, rr)["data"].(map[string]any)
	if data["recommended"] != false {
		t.Fatalf("expected no recommendation without readings, got %v", data["recommended"])
	}
}

func TestEquipmentDetailRouter_ChartFallsBackToSynthetic(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer upstream.Close()

	cfg := testConfig()
	h := equipmentDetailRouter(cfg, pdm.NewClient(upstream.URL, time.Second), nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/equipment/pump-001/chart?sensor=vibration", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	payload := decodeBody(t, rr)
	meta := payload["meta"].(map[string]any)
	if meta["source"] != "synthetic" {
		t.Fatalf("expected synthetic source, got %v", meta["source"])
	}
	series := payload["data"].(map[string]any)
	points, ok := series["points"].([]any)
	if !ok || len(points) != cfg.ChartSyntheticPoints {
		t.Fatalf("expected %d synthetic points, got %v", cfg.ChartSyntheticPoints, series["points"])
	}
}

func TestEquipmentDetailRouter_HistoryFailsWithoutDBFallback(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer upstream.Close()

	h := equipmentDetailRouter(testConfig(), pdm.NewClient(upstream.URL, time.Second), nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/equipment/pump-001/history", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected status %d, got %d", http.StatusBadGateway, rr.Code)
	}
}

func TestEquipmentDetailRouter_MetricsUnavailableOnPartialFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.Contains(r.URL.Path, "reliability") {
			_, _ = w.Write([]byte(`{"mtbf":410.2,"mttr":6.1,"availability":98.5}`))
			return
		}
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer upstream.Close()

	h := equipmentDetailRouter(testConfig(), pdm.NewClient(upstream.URL, time.Second), nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/equipment/pump-001/metrics", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	payload := decodeBody(t, rr)
	meta := payload["meta"].(map[string]any)
	if meta["available"] != false {
		t.Fatalf("expected available=false when one metric source fails, got %v", meta["available"])
	}
	data := payload["data"].(map[string]any)
	for _, key := range []string{"mtbf", "mttr", "availability", "maintenance_cost_ytd"} {
		if data[key] != nil {
			t.Fatalf("expected %s to be null, got %v", key, data[key])
		}
	}
}

func TestScheduleMaintenanceHandler_MethodNotAllowed(t *testing.T) {
	h := scheduleMaintenanceHandler(testConfig(), disabledClient(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/maintenance/schedule", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status %d, got %d", http.StatusMethodNotAllowed, rr.Code)
	}
}

func TestScheduleMaintenanceHandler_ValidationSkipsUpstream(t *testing.T) {
	var calls atomic.Int64
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "should not be reached", http.StatusInternalServerError)
	}))
	defer upstream.Close()

	h := scheduleMaintenanceHandler(testConfig(), pdm.NewClient(upstream.URL, time.Second), nil)

	body := bytes.NewBufferString(`{"equipment_id":"pump-001","maintenance_type":"preventive"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/maintenance/schedule", body)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
	if calls.Load() != 0 {
		t.Fatalf("expected no upstream calls on validation failure, got %d", calls.Load())
	}
}

func TestScheduleMaintenanceHandler_RejectsUnparsableDate(t *testing.T) {
	h := scheduleMaintenanceHandler(testConfig(), pdm.NewClient("http://127.0.0.1:1", time.Second), nil)

	body := bytes.NewBufferString(`{"equipment_id":"pump-001","maintenance_date":"next tuesday","maintenance_type":"preventive"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/maintenance/schedule", body)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}

func TestScheduleMaintenanceHandler_SubmitsAndRefreshesHistory(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/maintenance/schedule":
			var req map[string]any
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if req["maintenance_date"] != "2026-09-01" {
				http.Error(w, "unexpected date", http.StatusBadRequest)
				return
			}
			_, _ = w.Write([]byte(`{"maintenance_id":"m-42"}`))
		case strings.HasSuffix(r.URL.Path, "/history"):
			_, _ = w.Write([]byte(`[{"id":"m-42","equipment_id":"pump-001","maintenance_date":"2026-09-01","maintenance_type":"preventive","status":"scheduled"}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer upstream.Close()

	pending := schedule.NewPendingStore()
	h := scheduleMaintenanceHandler(testConfig(), pdm.NewClient(upstream.URL, time.Second), pending)

	body := bytes.NewBufferString(`{"equipment_id":"pump-001","maintenance_date":"2026-09-01T08:00:00Z","maintenance_type":"preventive"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/maintenance/schedule", body)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}

	payload := decodeBody(t, rr)
	data := payload["data"].(map[string]any)
	record, ok := data["record"].(map[string]any)
	if !ok {
		t.Fatalf("expected scheduled record in response")
	}
	if record["id"] != "m-42" || record["status"] != "scheduled" {
		t.Fatalf("unexpected record: %v", record)
	}
	history, ok := data["history"].([]any)
	if !ok || len(history) != 1 {
		t.Fatalf("expected refreshed history with one record, got %v", data["history"])
	}

	// The server echoed the record back in history, so the pending entry
	// must be retired by reconciliation.
	if pending.Len("pump-001") != 0 {
		t.Fatalf("expected pending entry to be reconciled, got %d", pending.Len("pump-001"))
	}
}

func TestCoerceDate(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "date only", in: "2026-09-01", want: "2026-09-01"},
		{name: "rfc3339", in: "2026-09-01T08:30:00Z", want: "2026-09-01"},
		{name: "datetime no zone", in: "2026-09-01T08:30:00", want: "2026-09-01"},
		{name: "space separated", in: "2026-09-01 08:30:00", want: "2026-09-01"},
		{name: "garbage", in: "next tuesday", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := coerceDate(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}
