// Package settingsdb persists dashboard settings the PdM API does not own:
// per-sensor alert thresholds and operator notification preferences. Backed
// by a single-file SQLite database.
package settingsdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ThresholdPair is the warning/critical alert pair for one sensor channel.
type ThresholdPair struct {
	Warning  float64 `json:"warning"`
	Critical float64 `json:"critical"`
}

// NotificationSettings are the operator's alerting preferences.
type NotificationSettings struct {
	EmailEnabled      bool   `json:"email_enabled"`
	EmailAddress      string `json:"email_address"`
	SMSEnabled        bool   `json:"sms_enabled"`
	PhoneNumber       string `json:"phone_number"`
	NotifyCritical    bool   `json:"notify_critical"`
	NotifyWarning     bool   `json:"notify_warning"`
	NotifyMaintenance bool   `json:"notify_maintenance"`
}

// defaultThresholds seed the store on first open.
var defaultThresholds = map[string]ThresholdPair{
	"temperature": {Warning: 80, Critical: 95},
	"vibration":   {Warning: 2.5, Critical: 3.5},
	"pressure":    {Warning: 115, Critical: 135},
	"oil_level":   {Warning: 35, Critical: 25},
}

// Store manages dashboard settings in SQLite.
type Store struct {
	db *sql.DB
}

func NewStore(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sqlite path required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS alert_thresholds (
  sensor TEXT PRIMARY KEY,
  warning REAL NOT NULL,
  critical REAL NOT NULL,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS notification_settings (
  id INTEGER PRIMARY KEY CHECK (id = 1),
  email_enabled INTEGER NOT NULL DEFAULT 0,
  email_address TEXT NOT NULL DEFAULT '',
  sms_enabled INTEGER NOT NULL DEFAULT 0,
  phone_number TEXT NOT NULL DEFAULT '',
  notify_critical INTEGER NOT NULL DEFAULT 1,
  notify_warning INTEGER NOT NULL DEFAULT 1,
  notify_maintenance INTEGER NOT NULL DEFAULT 0,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`); err != nil {
		_ = db.Close()
		return nil, err
	}

	store := &Store{db: db}
	if err := store.seedDefaults(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping verifies the settings database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) seedDefaults(ctx context.Context) error {
	for sensor, pair := range defaultThresholds {
		if _, err := s.db.ExecContext(ctx, `
INSERT INTO alert_thresholds (sensor, warning, critical)
VALUES (?, ?, ?)
ON CONFLICT(sensor) DO NOTHING;
`, sensor, pair.Warning, pair.Critical); err != nil {
			return err
		}
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO notification_settings (id) VALUES (1)
ON CONFLICT(id) DO NOTHING;
`)
	return err
}

// AlertThresholds returns all configured sensor thresholds.
func (s *Store) AlertThresholds(ctx context.Context) (map[string]ThresholdPair, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT sensor, warning, critical
FROM alert_thresholds
ORDER BY sensor;
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]ThresholdPair{}
	for rows.Next() {
		var (
			sensor string
			pair   ThresholdPair
		)
		if err := rows.Scan(&sensor, &pair.Warning, &pair.Critical); err != nil {
			return nil, err
		}
		out[sensor] = pair
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveAlertThresholds upserts threshold pairs for the given sensors.
func (s *Store) SaveAlertThresholds(ctx context.Context, thresholds map[string]ThresholdPair) error {
	if len(thresholds) == 0 {
		return fmt.Errorf("no thresholds provided")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for sensor, pair := range thresholds {
		sensor = strings.TrimSpace(strings.ToLower(sensor))
		if sensor == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO alert_thresholds (sensor, warning, critical, updated_at)
VALUES (?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(sensor) DO UPDATE SET
  warning = excluded.warning,
  critical = excluded.critical,
  updated_at = CURRENT_TIMESTAMP;
`, sensor, pair.Warning, pair.Critical); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Notifications returns the stored notification preferences.
func (s *Store) Notifications(ctx context.Context) (*NotificationSettings, error) {
	var out NotificationSettings
	err := s.db.QueryRowContext(ctx, `
SELECT email_enabled, email_address, sms_enabled, phone_number,
       notify_critical, notify_warning, notify_maintenance
FROM notification_settings
WHERE id = 1;
`).Scan(
		&out.EmailEnabled, &out.EmailAddress, &out.SMSEnabled, &out.PhoneNumber,
		&out.NotifyCritical, &out.NotifyWarning, &out.NotifyMaintenance,
	)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SaveNotifications replaces the notification preferences.
func (s *Store) SaveNotifications(ctx context.Context, settings NotificationSettings) error {
	if settings.EmailEnabled && strings.TrimSpace(settings.EmailAddress) == "" {
		return fmt.Errorf("email address required when email notifications are enabled")
	}
	if settings.SMSEnabled && strings.TrimSpace(settings.PhoneNumber) == "" {
		return fmt.Errorf("phone number required when sms notifications are enabled")
	}

	_, err := s.db.ExecContext(ctx, `
UPDATE notification_settings SET
  email_enabled = ?,
  email_address = ?,
  sms_enabled = ?,
  phone_number = ?,
  notify_critical = ?,
  notify_warning = ?,
  notify_maintenance = ?,
  updated_at = CURRENT_TIMESTAMP
WHERE id = 1;
`,
		settings.EmailEnabled, strings.TrimSpace(settings.EmailAddress),
		settings.SMSEnabled, strings.TrimSpace(settings.PhoneNumber),
		settings.NotifyCritical, settings.NotifyWarning, settings.NotifyMaintenance,
	)
	return err
}
