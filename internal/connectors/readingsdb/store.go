// Package readingsdb provides read-only access to the PdM backend database.
// The API is the authoritative source for the dashboard; this connector is
// an optional side channel for richer chart history and DB health checks
// when the operator points the service at the same MySQL instance.
package readingsdb

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"go-pdm-maintenance-ui/internal/config"
	"go-pdm-maintenance-ui/internal/connectors/pdm"
)

// Store reads sensor and maintenance history straight from MySQL.
type Store struct {
	db           *sql.DB
	queryTimeout time.Duration
}

// NewStore creates a MySQL-backed read-only store.
func NewStore(cfg config.Config) (*Store, error) {
	db, err := sql.Open("mysql", cfg.MySQLDSN())
	if err != nil {
		return nil, err
	}

	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DBConnTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, queryTimeout: cfg.DBQueryTimeout}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ListReadings returns newest-first sensor rows for one machine, shaped like
// the API's reading payloads so the chart transform applies unchanged.
func (s *Store) ListReadings(ctx context.Context, equipmentID string, limit int) ([]pdm.Reading, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT
  timestamp,
  temperature,
  vibration,
  pressure,
  rotation_speed,
  voltage,
  oil_level,
  humidity,
  noise_level
FROM sensor_readings
WHERE equipment_id = ?
ORDER BY timestamp DESC
LIMIT ?;
`, equipmentID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]pdm.Reading, 0, limit)
	for rows.Next() {
		var (
			ts                               sql.NullTime
			temperature, vibration, pressure sql.NullFloat64
			rotationSpeed, voltage, oilLevel sql.NullFloat64
			humidity, noiseLevel             sql.NullFloat64
		)
		if err := rows.Scan(&ts, &temperature, &vibration, &pressure, &rotationSpeed, &voltage, &oilLevel, &humidity, &noiseLevel); err != nil {
			return nil, err
		}

		reading := pdm.Reading{EquipmentID: equipmentID, Sensors: map[string]any{}}
		if ts.Valid {
			reading.Timestamp = ts.Time.UTC().Format(time.RFC3339)
		}
		putSensor(reading.Sensors, "temperature", temperature)
		putSensor(reading.Sensors, "vibration", vibration)
		putSensor(reading.Sensors, "pressure", pressure)
		putSensor(reading.Sensors, "rotation_speed", rotationSpeed)
		putSensor(reading.Sensors, "voltage", voltage)
		putSensor(reading.Sensors, "oil_level", oilLevel)
		putSensor(reading.Sensors, "humidity", humidity)
		putSensor(reading.Sensors, "noise_level", noiseLevel)
		out = append(out, reading)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListMaintenanceRecords returns newest-first maintenance rows for one
// machine, passed through the canonical record normalizer.
func (s *Store) ListMaintenanceRecords(ctx context.Context, equipmentID string, limit int) ([]pdm.MaintenanceRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT
  id,
  maintenance_date,
  maintenance_type,
  COALESCE(description, ''),
  COALESCE(technician, ''),
  cost
FROM maintenance_records
WHERE equipment_id = ?
ORDER BY maintenance_date DESC
LIMIT ?;
`, equipmentID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]pdm.MaintenanceRecord, 0, limit)
	for rows.Next() {
		var (
			id                             int64
			maintenanceDate                sql.NullTime
			mType, description, technician string
			cost                           sql.NullFloat64
		)
		if err := rows.Scan(&id, &maintenanceDate, &mType, &description, &technician, &cost); err != nil {
			return nil, err
		}

		raw := map[string]any{
			"id":               float64(id),
			"equipment_id":     equipmentID,
			"maintenance_type": mType,
			"description":      description,
			"technician":       technician,
		}
		if maintenanceDate.Valid {
			raw["maintenance_date"] = maintenanceDate.Time.UTC().Format("2006-01-02")
		}
		if cost.Valid {
			raw["cost"] = cost.Float64
		}
		out = append(out, pdm.NormalizeRecord(raw))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ServiceStats contains lightweight DB health and volume counters.
type ServiceStats struct {
	PingMS             int64 `json:"ping_ms"`
	EquipmentTotal     int64 `json:"equipment_total"`
	ReadingsTotal      int64 `json:"readings_total"`
	Readings24h        int64 `json:"readings_24h"`
	Anomalies24h       int64 `json:"anomalies_24h"`
	MaintenanceRecords int64 `json:"maintenance_records"`
}

// ServiceStats returns MySQL health and high-level row counters.
func (s *Store) ServiceStats(ctx context.Context) (*ServiceStats, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	start := time.Now()
	if err := s.db.PingContext(ctx); err != nil {
		return nil, err
	}

	out := &ServiceStats{
		PingMS: time.Since(start).Milliseconds(),
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM equipment;`).Scan(&out.EquipmentTotal); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sensor_readings;`).Scan(&out.ReadingsTotal); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx, `
SELECT COUNT(*)
FROM sensor_readings
WHERE timestamp >= UTC_TIMESTAMP() - INTERVAL 24 HOUR;
`).Scan(&out.Readings24h); err != nil {
		return nil, err
	}

	var anomalies sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `
SELECT COUNT(*)
FROM sensor_readings
WHERE COALESCE(anomaly_detected, 0) <> 0
  AND timestamp >= UTC_TIMESTAMP() - INTERVAL 24 HOUR;
`).Scan(&anomalies); err != nil {
		return nil, err
	}
	if anomalies.Valid {
		out.Anomalies24h = anomalies.Int64
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM maintenance_records;`).Scan(&out.MaintenanceRecords); err != nil {
		return nil, err
	}

	return out, nil
}

func putSensor(sensors map[string]any, name string, v sql.NullFloat64) {
	if v.Valid {
		sensors[name] = v.Float64
	}
}
