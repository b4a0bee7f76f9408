package schedule

import (
	"testing"

	"go-pdm-maintenance-ui/internal/connectors/pdm"
)

func TestReconcile_PrependsUnconfirmedEntries(t *testing.T) {
	store := NewPendingStore()
	store.Add(pdm.MaintenanceRecord{
		ID:              "local-1",
		EquipmentID:     "EQ001",
		MaintenanceDate: "2026-09-01",
		MaintenanceType: "preventive",
		Status:          "scheduled",
	})

	fetched := []pdm.MaintenanceRecord{
		{ID: "srv-9", EquipmentID: "EQ001", MaintenanceDate: "2026-07-01", MaintenanceType: "corrective"},
	}

	merged := store.Reconcile("EQ001", fetched)
	if len(merged) != 2 {
		t.Fatalf("expected pending entry prepended, got %d records", len(merged))
	}
	if merged[0].ID != "local-1" {
		t.Fatalf("expected pending entry first, got %q", merged[0].ID)
	}
	if store.Len("EQ001") != 1 {
		t.Fatalf("entry should remain pending until the server returns it")
	}
}

func TestReconcile_RetiresEntriesMatchedByID(t *testing.T) {
	store := NewPendingStore()
	store.Add(pdm.MaintenanceRecord{ID: "srv-9", EquipmentID: "EQ001", MaintenanceDate: "2026-09-01", MaintenanceType: "preventive"})

	fetched := []pdm.MaintenanceRecord{
		{ID: "srv-9", EquipmentID: "EQ001", MaintenanceDate: "2026-09-01", MaintenanceType: "preventive"},
	}

	merged := store.Reconcile("EQ001", fetched)
	if len(merged) != 1 {
		t.Fatalf("expected confirmed entry not to duplicate, got %d", len(merged))
	}
	if store.Len("EQ001") != 0 {
		t.Fatalf("confirmed entry should be retired")
	}
}

func TestReconcile_RetiresEntriesMatchedByDateAndType(t *testing.T) {
	store := NewPendingStore()
	store.Add(pdm.MaintenanceRecord{ID: "local-1", EquipmentID: "EQ001", MaintenanceDate: "2026-09-01", MaintenanceType: "preventive"})

	fetched := []pdm.MaintenanceRecord{
		{ID: "srv-reassigned", EquipmentID: "EQ001", MaintenanceDate: "2026-09-01", MaintenanceType: "preventive"},
	}

	if merged := store.Reconcile("EQ001", fetched); len(merged) != 1 {
		t.Fatalf("expected date+type match to retire the pending entry, got %d", len(merged))
	}
	if store.Len("EQ001") != 0 {
		t.Fatalf("entry should be retired after a date+type match")
	}
}

func TestReconcile_OtherEquipmentUntouched(t *testing.T) {
	store := NewPendingStore()
	store.Add(pdm.MaintenanceRecord{ID: "local-1", EquipmentID: "EQ001", MaintenanceDate: "2026-09-01", MaintenanceType: "preventive"})

	merged := store.Reconcile("EQ002", nil)
	if len(merged) != 0 {
		t.Fatalf("expected no entries for other equipment, got %d", len(merged))
	}
	if store.Len("EQ001") != 1 {
		t.Fatalf("pending entry for EQ001 should survive")
	}
}
