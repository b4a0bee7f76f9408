package pdm

import "testing"

func TestNormalizeRecord_Defaults(t *testing.T) {
	rec := NormalizeRecord(map[string]any{
		"equipment_id": "EQ001",
		"date":         "2026-08-01",
		"type":         "corrective",
	})

	if rec.ID == "" {
		t.Fatalf("expected a synthesized id for a record without one")
	}
	if rec.MaintenanceDate != "2026-08-01" {
		t.Fatalf("expected date alias to map onto maintenance_date, got %q", rec.MaintenanceDate)
	}
	if rec.MaintenanceType != "corrective" {
		t.Fatalf("expected type alias to map onto maintenance_type, got %q", rec.MaintenanceType)
	}
	if rec.Technician != "Not assigned" {
		t.Fatalf("expected default technician, got %q", rec.Technician)
	}
	if rec.Status != "completed" {
		t.Fatalf("expected default status completed, got %q", rec.Status)
	}
	if rec.Priority != "medium" {
		t.Fatalf("expected default priority medium, got %q", rec.Priority)
	}
	if rec.Cost != nil {
		t.Fatalf("expected nil cost when absent, got %v", *rec.Cost)
	}
}

func TestNormalizeRecord_CanonicalNamesWin(t *testing.T) {
	rec := NormalizeRecord(map[string]any{
		"id":               "m-42",
		"equipment_id":     "EQ002",
		"maintenance_date": "2026-08-10",
		"date":             "2020-01-01",
		"maintenance_type": "preventive",
		"type":             "corrective",
		"technician":       "R. Alvarez",
		"status":           "scheduled",
		"priority":         "high",
		"cost":             150.5,
	})

	if rec.ID != "m-42" {
		t.Fatalf("expected provided id to survive, got %q", rec.ID)
	}
	if rec.MaintenanceDate != "2026-08-10" {
		t.Fatalf("expected maintenance_date to win over date, got %q", rec.MaintenanceDate)
	}
	if rec.MaintenanceType != "preventive" {
		t.Fatalf("expected maintenance_type to win over type, got %q", rec.MaintenanceType)
	}
	if rec.Cost == nil || *rec.Cost != 150.5 {
		t.Fatalf("expected cost 150.5, got %v", rec.Cost)
	}
}

func TestNormalizeRecord_NonNumericCost(t *testing.T) {
	rec := NormalizeRecord(map[string]any{
		"equipment_id": "EQ003",
		"cost":         "n/a",
	})
	if rec.Cost != nil {
		t.Fatalf("expected nil cost for non-numeric value, got %v", *rec.Cost)
	}
}
