package pdm

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Maintenance record status values used across the dashboard.
const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
)

// Default field values for records missing them upstream.
const (
	defaultTechnician = "Not assigned"
	defaultPriority   = "medium"
)

// MaintenanceRecord is the canonical maintenance event shape. Upstream
// responses use two generations of field names; NormalizeRecord resolves
// them here so nothing past the connector sees raw records.
type MaintenanceRecord struct {
	ID              string   `json:"id"`
	EquipmentID     string   `json:"equipment_id"`
	MaintenanceDate string   `json:"maintenance_date"`
	MaintenanceType string   `json:"maintenance_type"`
	Description     string   `json:"description,omitempty"`
	Technician      string   `json:"technician"`
	Status          string   `json:"status"`
	Priority        string   `json:"priority"`
	Cost            *float64 `json:"cost"`
	DurationMinutes int      `json:"duration_minutes,omitempty"`
}

// NormalizeRecord maps a raw maintenance record into the canonical shape.
// It never fails: missing ids get a random uuid, and missing technician,
// status, and priority get display defaults.
func NormalizeRecord(raw map[string]any) MaintenanceRecord {
	rec := MaintenanceRecord{
		ID:              firstString(raw, "id", "maintenance_id"),
		EquipmentID:     asString(raw["equipment_id"]),
		MaintenanceDate: firstString(raw, "maintenance_date", "date"),
		MaintenanceType: firstString(raw, "maintenance_type", "type"),
		Description:     asString(raw["description"]),
		Technician:      asString(raw["technician"]),
		Status:          asString(raw["status"]),
		Priority:        asString(raw["priority"]),
		Cost:            asFloatPtr(raw["cost"]),
		DurationMinutes: int(asFloat(raw["duration_minutes"])),
	}

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Technician == "" {
		rec.Technician = defaultTechnician
	}
	if rec.Status == "" {
		rec.Status = StatusCompleted
	}
	if rec.Priority == "" {
		rec.Priority = defaultPriority
	}
	return rec
}

func recordToRaw(rec MaintenanceRecord) map[string]any {
	raw := map[string]any{
		"id":               rec.ID,
		"equipment_id":     rec.EquipmentID,
		"maintenance_date": rec.MaintenanceDate,
		"maintenance_type": rec.MaintenanceType,
		"description":      rec.Description,
		"technician":       rec.Technician,
		"status":           rec.Status,
		"priority":         rec.Priority,
	}
	if rec.Cost != nil {
		raw["cost"] = *rec.Cost
	}
	return raw
}

func firstString(raw map[string]any, keys ...string) string {
	for _, key := range keys {
		if s := asString(raw[key]); s != "" {
			return s
		}
	}
	return ""
}

func asString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

func asFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}

func asFloatPtr(v any) *float64 {
	switch val := v.(type) {
	case float64:
		out := val
		return &out
	case int:
		out := float64(val)
		return &out
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return nil
		}
		return &parsed
	default:
		return nil
	}
}

func asBool(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case float64:
		return val != 0
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(val))
		if err != nil {
			return false
		}
		return parsed
	default:
		return false
	}
}
