package readingsdb

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

// The production store runs on MySQL; the row queries are engine-neutral, so
// tests back the store with a file-based sqlite database instead.
func newSQLiteBackedStore(t *testing.T) *Store {
	t.Helper()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "readings.db"))
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		`CREATE TABLE sensor_readings (
  equipment_id TEXT NOT NULL,
  timestamp DATETIME,
  temperature REAL,
  vibration REAL,
  pressure REAL,
  rotation_speed REAL,
  voltage REAL,
  oil_level REAL,
  humidity REAL,
  noise_level REAL
);`,
		`CREATE TABLE maintenance_records (
  id INTEGER PRIMARY KEY,
  equipment_id TEXT NOT NULL,
  maintenance_date DATETIME,
  maintenance_type TEXT NOT NULL,
  description TEXT,
  technician TEXT,
  cost REAL
);`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("failed to create schema: %v", err)
		}
	}

	return &Store{db: db, queryTimeout: 5 * time.Second}
}

func TestListReadings_NewestFirstWithSensorMap(t *testing.T) {
	store := newSQLiteBackedStore(t)

	older := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	for _, row := range []struct {
		ts   time.Time
		temp float64
	}{
		{ts: older, temp: 71.5},
		{ts: newer, temp: 72.5},
	} {
		if _, err := store.db.Exec(`
INSERT INTO sensor_readings (equipment_id, timestamp, temperature, vibration)
VALUES (?, ?, ?, ?);
`, "EQ001", row.ts, row.temp, 1.2); err != nil {
			t.Fatalf("failed to insert reading: %v", err)
		}
	}

	readings, err := store.ListReadings(context.Background(), "EQ001", 10)
	if err != nil {
		t.Fatalf("ListReadings failed: %v", err)
	}
	if len(readings) != 2 {
		t.Fatalf("expected 2 readings, got %d", len(readings))
	}
	if readings[0].Sensors["temperature"] != 72.5 {
		t.Fatalf("expected newest reading first, got %+v", readings[0])
	}
	if _, ok := readings[0].Sensors["pressure"]; ok {
		t.Fatalf("expected null sensor column to be absent from the map")
	}
	if readings[0].Timestamp != newer.Format(time.RFC3339) {
		t.Fatalf("unexpected timestamp %q", readings[0].Timestamp)
	}
}

func TestListMaintenanceRecords_NormalizesRows(t *testing.T) {
	store := newSQLiteBackedStore(t)

	date := time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC)
	if _, err := store.db.Exec(`
INSERT INTO maintenance_records (equipment_id, maintenance_date, maintenance_type, description, cost)
VALUES (?, ?, ?, ?, ?);
`, "EQ001", date, "corrective", "bearing swap", 220.0); err != nil {
		t.Fatalf("failed to insert record: %v", err)
	}

	records, err := store.ListMaintenanceRecords(context.Background(), "EQ001", 10)
	if err != nil {
		t.Fatalf("ListMaintenanceRecords failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	rec := records[0]
	if rec.ID == "" || rec.EquipmentID != "EQ001" {
		t.Fatalf("record not canonical: %+v", rec)
	}
	if rec.MaintenanceDate != "2026-07-15" {
		t.Fatalf("expected date-only string, got %q", rec.MaintenanceDate)
	}
	if rec.Technician != "Not assigned" || rec.Status != "completed" || rec.Priority != "medium" {
		t.Fatalf("defaults not applied: %+v", rec)
	}
	if rec.Cost == nil || *rec.Cost != 220.0 {
		t.Fatalf("unexpected cost: %v", rec.Cost)
	}
}
