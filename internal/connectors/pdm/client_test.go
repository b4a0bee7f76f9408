package pdm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second), srv
}

func TestListMachines_LegacyPathFallback(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/equipment", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{
			{"equipment_id": "EQ001", "name": "CNC Mill", "location": "Hall A"},
		})
	})

	client, _ := newTestClient(t, mux)
	machines, err := client.ListMachines(context.Background())
	if err != nil {
		t.Fatalf("ListMachines failed: %v", err)
	}
	if len(machines) != 1 || machines[0].EquipmentID != "EQ001" {
		t.Fatalf("unexpected machines: %+v", machines)
	}
}

func TestGetReadings_EnvelopeAndBareArray(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/machines/EQ001/readings", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"equipment_id": "EQ001",
			"readings": []map[string]any{
				{"timestamp": "2026-08-23T10:00:00", "temperature": 72.5, "vibration": 1.2},
			},
		})
	})
	mux.HandleFunc("/api/machines/EQ002/readings", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{
			{"timestamp": "2026-08-23T11:00:00", "equipment_id": "EQ002", "pressure": 101.0},
		})
	})

	client, _ := newTestClient(t, mux)

	readings, err := client.GetReadings(context.Background(), "EQ001", 10)
	if err != nil {
		t.Fatalf("enveloped readings failed: %v", err)
	}
	if len(readings) != 1 || readings[0].Sensors["temperature"] != 72.5 {
		t.Fatalf("unexpected enveloped readings: %+v", readings)
	}

	readings, err = client.GetReadings(context.Background(), "EQ002", 10)
	if err != nil {
		t.Fatalf("bare-array readings failed: %v", err)
	}
	if len(readings) != 1 || readings[0].Sensors["pressure"] != 101.0 {
		t.Fatalf("unexpected bare readings: %+v", readings)
	}
	if _, ok := readings[0].Sensors["equipment_id"]; ok {
		t.Fatalf("metadata key leaked into sensors map")
	}
}

func TestGetMaintenanceHistory_NormalizesRows(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/machines/EQ001/history", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{
			{"date": "2026-07-15", "type": "corrective", "cost": 220.0},
		})
	})

	client, _ := newTestClient(t, mux)
	history, err := client.GetMaintenanceHistory(context.Background(), "EQ001")
	if err != nil {
		t.Fatalf("GetMaintenanceHistory failed: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 record, got %d", len(history))
	}
	rec := history[0]
	if rec.EquipmentID != "EQ001" {
		t.Fatalf("expected equipment id backfill, got %q", rec.EquipmentID)
	}
	if rec.MaintenanceDate != "2026-07-15" || rec.Technician != "Not assigned" {
		t.Fatalf("record not normalized: %+v", rec)
	}
}

func TestRunPrediction_NestedResponse(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/prediction", func(w http.ResponseWriter, r *http.Request) {
		var req PredictionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad prediction request body: %v", err)
		}
		if req.EquipmentID != "EQ001" {
			t.Errorf("expected equipment id in request, got %q", req.EquipmentID)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"prediction": map[string]any{
				"failure_probability":        0.55,
				"remaining_useful_life_days": 9,
				"recommended_action":         "maintenance",
			},
		})
	})

	client, _ := newTestClient(t, mux)
	pred, err := client.RunPrediction(context.Background(), PredictionRequest{
		EquipmentID: "EQ001",
		Readings:    map[string]float64{"temperature": 88},
	})
	if err != nil {
		t.Fatalf("RunPrediction failed: %v", err)
	}
	if !pred.Recommend() {
		t.Fatalf("expected recommendation for action=maintenance probability=0.55")
	}
	if pred.DerivedPriority() != "high" {
		t.Fatalf("expected high priority, got %q", pred.DerivedPriority())
	}
}

func TestScheduleMaintenance_StampsScheduledStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/maintenance/schedule", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": true, "maintenance_id": "srv-7"})
	})

	client, _ := newTestClient(t, mux)
	rec, err := client.ScheduleMaintenance(context.Background(), ScheduleRequest{
		EquipmentID:     "EQ001",
		MaintenanceDate: "2026-09-01",
		MaintenanceType: "preventive",
	})
	if err != nil {
		t.Fatalf("ScheduleMaintenance failed: %v", err)
	}
	if rec.ID != "srv-7" {
		t.Fatalf("expected server-assigned id, got %q", rec.ID)
	}
	if rec.Status != StatusScheduled {
		t.Fatalf("expected scheduled status, got %q", rec.Status)
	}
	if rec.Technician != "Not assigned" {
		t.Fatalf("expected normalized technician default, got %q", rec.Technician)
	}
}

func TestErrorIncludesStatusAndBodyExcerpt(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/machines", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusInternalServerError)
	})
	// Keep legacy fallback from firing; only 404 falls back.
	client, _ := newTestClient(t, mux)

	_, err := client.ListMachines(context.Background())
	if err == nil {
		t.Fatalf("expected error on 500 response")
	}
	se, ok := err.(*statusError)
	if !ok {
		t.Fatalf("expected statusError, got %T: %v", err, err)
	}
	if se.code != http.StatusInternalServerError {
		t.Fatalf("expected code 500, got %d", se.code)
	}
}

func TestDisabledClient(t *testing.T) {
	client := NewClient("", time.Second)
	if client.Enabled() {
		t.Fatalf("expected empty endpoint to disable the client")
	}
	if _, err := client.ListMachines(context.Background()); err == nil {
		t.Fatalf("expected error from disabled client")
	}
}
