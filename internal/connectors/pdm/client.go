package pdm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

// Machine is one piece of equipment known to the PdM API.
type Machine struct {
	EquipmentID     string `json:"equipment_id"`
	Name            string `json:"name"`
	Type            string `json:"type,omitempty"`
	Location        string `json:"location"`
	Status          string `json:"status,omitempty"`
	LastMaintenance string `json:"last_maintenance,omitempty"`
}

// Reading is one sensor sample. Sensor values are kept as decoded JSON
// values; display-level numeric coercion happens in the chart package.
type Reading struct {
	Timestamp   string         `json:"timestamp"`
	EquipmentID string         `json:"equipment_id,omitempty"`
	Sensors     map[string]any `json:"sensors"`
}

// NumericSensors returns the reading's sensor values coerced to float64.
// Non-numeric values are dropped; the model endpoint only accepts numbers.
func (r Reading) NumericSensors() map[string]float64 {
	out := make(map[string]float64, len(r.Sensors))
	for k, v := range r.Sensors {
		switch val := v.(type) {
		case float64:
			out[k] = val
		case int:
			out[k] = float64(val)
		}
	}
	return out
}

// MachineDetails is the detail payload for one machine. Optional sections
// are nil when the upstream response does not carry them.
type MachineDetails struct {
	Machine
	Description         string              `json:"description,omitempty"`
	InstallationDate    string              `json:"installation_date,omitempty"`
	LatestReading       *Reading            `json:"latest_reading,omitempty"`
	LastMaintenanceInfo *MaintenanceRecord  `json:"last_maintenance_info,omitempty"`
	LatestPrediction    *Prediction         `json:"latest_prediction,omitempty"`
	MaintenanceHistory  []MaintenanceRecord `json:"maintenance_history,omitempty"`
	UpcomingMaintenance []MaintenanceRecord `json:"upcoming_maintenance,omitempty"`
}

// ReliabilityScores holds opaque reliability metrics for one machine.
type ReliabilityScores struct {
	MTBF         *float64 `json:"mtbf"`
	MTTR         *float64 `json:"mttr"`
	Availability *float64 `json:"availability"`
}

// ROISummary holds cost aggregation for a named reporting window.
type ROISummary struct {
	Window             string   `json:"window"`
	MaintenanceCostYTD *float64 `json:"maintenance_cost_ytd"`
}

// Client calls the external Predictive Maintenance model API. Responses
// arrive in one of two historical shapes per operation; the client resolves
// them into canonical types here so handlers and the UI see one shape only.
type Client struct {
	endpoint string
	http     *http.Client
}

func NewClient(endpoint string, timeout time.Duration) *Client {
	return &Client{
		endpoint: strings.TrimRight(strings.TrimSpace(endpoint), "/"),
		http:     &http.Client{Timeout: timeout},
	}
}

func (c *Client) Enabled() bool {
	return c != nil && c.endpoint != ""
}

// Endpoint returns the configured upstream base URL.
func (c *Client) Endpoint() string {
	if c == nil {
		return ""
	}
	return c.endpoint
}

// ListMachines fetches the equipment list. The current API serves
// /api/machines; older deployments only know /api/equipment.
func (c *Client) ListMachines(ctx context.Context) ([]Machine, error) {
	raw, err := c.getRaw(ctx, "/api/machines")
	if isNotFound(err) {
		raw, err = c.getRaw(ctx, "/api/equipment")
	}
	if err != nil {
		return nil, err
	}

	var rows []map[string]any
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decode machine list: %w", err)
	}

	out := make([]Machine, 0, len(rows))
	for _, row := range rows {
		out = append(out, decodeMachine(row))
	}
	return out, nil
}

// GetMachineDetails fetches detail for one machine, including whatever
// optional sections (latest reading, embedded history) the upstream returns.
func (c *Client) GetMachineDetails(ctx context.Context, equipmentID string) (*MachineDetails, error) {
	path := "/api/machines/" + url.PathEscape(equipmentID)
	body, err := c.getJSON(ctx, path)
	if isNotFound(err) {
		body, err = c.getJSON(ctx, "/api/equipment/"+url.PathEscape(equipmentID))
	}
	if err != nil {
		return nil, err
	}

	out := &MachineDetails{
		Machine:          decodeMachine(body),
		Description:      asString(body["description"]),
		InstallationDate: asString(body["installation_date"]),
	}

	if lr, ok := body["latest_reading"].(map[string]any); ok {
		reading := decodeReading(lr)
		if reading.Timestamp != "" || len(reading.Sensors) > 0 {
			out.LatestReading = &reading
		}
	}
	if lm, ok := body["last_maintenance"].(map[string]any); ok && asString(lm["date"]) != "" {
		rec := NormalizeRecord(lm)
		rec.EquipmentID = out.EquipmentID
		out.LastMaintenanceInfo = &rec
	}
	if lp, ok := body["latest_prediction"].(map[string]any); ok {
		pred := decodePredictionBody(out.EquipmentID, lp)
		out.LatestPrediction = &pred
	}
	out.MaintenanceHistory = normalizeRecordList(out.EquipmentID, body["maintenance_history"])
	out.UpcomingMaintenance = normalizeRecordList(out.EquipmentID, body["upcoming_maintenance"])

	return out, nil
}

// GetReadings fetches sensor history for one machine, newest first. Both the
// bare-array and the {equipment_id, readings} envelope responses are accepted.
func (c *Client) GetReadings(ctx context.Context, equipmentID string, limit int) ([]Reading, error) {
	if limit <= 0 {
		limit = 100
	}
	path := fmt.Sprintf("/api/machines/%s/readings?limit=%d", url.PathEscape(equipmentID), limit)
	raw, err := c.getRaw(ctx, path)
	if isNotFound(err) {
		raw, err = c.getRaw(ctx, fmt.Sprintf("/api/equipment/%s/readings?limit=%d", url.PathEscape(equipmentID), limit))
	}
	if err != nil {
		return nil, err
	}

	rows, err := decodeRowsEnvelope(raw, "readings")
	if err != nil {
		return nil, fmt.Errorf("decode readings: %w", err)
	}

	out := make([]Reading, 0, len(rows))
	for _, row := range rows {
		out = append(out, decodeReading(row))
	}
	return out, nil
}

// GetMaintenanceHistory fetches the normalized maintenance history for one
// machine. Accepts a bare array or a {history: [...]} envelope; every raw
// record passes through the normalizer.
func (c *Client) GetMaintenanceHistory(ctx context.Context, equipmentID string) ([]MaintenanceRecord, error) {
	path := "/api/machines/" + url.PathEscape(equipmentID) + "/history"
	raw, err := c.getRaw(ctx, path)
	if isNotFound(err) {
		raw, err = c.getRaw(ctx, "/api/equipment/"+url.PathEscape(equipmentID)+"/history")
	}
	if err != nil {
		return nil, err
	}

	rows, err := decodeRowsEnvelope(raw, "history")
	if err != nil {
		return nil, fmt.Errorf("decode maintenance history: %w", err)
	}

	out := make([]MaintenanceRecord, 0, len(rows))
	for _, row := range rows {
		rec := NormalizeRecord(row)
		if rec.EquipmentID == "" {
			rec.EquipmentID = equipmentID
		}
		out = append(out, rec)
	}
	return out, nil
}

// MaintenanceHistoryResolved fetches history from the history endpoint. When
// that endpoint fails entirely it falls back to merging the history sections
// embedded in the details payload, newest first. The returned source is
// "history" or "details".
func (c *Client) MaintenanceHistoryResolved(ctx context.Context, equipmentID string) ([]MaintenanceRecord, string, error) {
	records, err := c.GetMaintenanceHistory(ctx, equipmentID)
	if err == nil {
		return records, "history", nil
	}

	details, detailsErr := c.GetMachineDetails(ctx, equipmentID)
	if detailsErr != nil {
		return nil, "", err
	}

	merged := make([]MaintenanceRecord, 0, len(details.MaintenanceHistory)+len(details.UpcomingMaintenance))
	merged = append(merged, details.MaintenanceHistory...)
	merged = append(merged, details.UpcomingMaintenance...)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].MaintenanceDate > merged[j].MaintenanceDate
	})
	return merged, "details", nil
}

// PredictionRequest carries the latest reading to the model endpoint.
type PredictionRequest struct {
	Timestamp   string             `json:"timestamp,omitempty"`
	EquipmentID string             `json:"equipment_id"`
	Readings    map[string]float64 `json:"readings"`
}

// RunPrediction submits sensor values for one machine and returns the
// canonical prediction, whichever response shape the upstream produced.
func (c *Client) RunPrediction(ctx context.Context, req PredictionRequest) (*Prediction, error) {
	body, err := c.postJSON(ctx, "/api/prediction", req)
	if isNotFound(err) {
		body, err = c.postJSON(ctx, "/api/predict", req)
	}
	if err != nil {
		return nil, err
	}

	pred := decodePredictionBody(req.EquipmentID, body)
	return &pred, nil
}

// ScheduleRequest is a maintenance event submission.
type ScheduleRequest struct {
	EquipmentID     string   `json:"equipment_id"`
	MaintenanceDate string   `json:"maintenance_date"`
	MaintenanceType string   `json:"maintenance_type"`
	Description     string   `json:"description,omitempty"`
	Technician      string   `json:"technician,omitempty"`
	Priority        string   `json:"priority,omitempty"`
	DurationMinutes int      `json:"duration_minutes,omitempty"`
	Cost            *float64 `json:"cost,omitempty"`
}

// ScheduleMaintenance submits a new maintenance event and returns the created
// record with server-assigned fields merged in. Status is always "scheduled"
// on the returned record.
func (c *Client) ScheduleMaintenance(ctx context.Context, req ScheduleRequest) (*MaintenanceRecord, error) {
	body, err := c.postJSON(ctx, "/api/maintenance/schedule", req)
	if err != nil {
		return nil, err
	}

	rec := MaintenanceRecord{
		ID:              asString(body["maintenance_id"]),
		EquipmentID:     req.EquipmentID,
		MaintenanceDate: req.MaintenanceDate,
		MaintenanceType: req.MaintenanceType,
		Description:     req.Description,
		Technician:      req.Technician,
		Priority:        req.Priority,
		DurationMinutes: req.DurationMinutes,
		Cost:            req.Cost,
		Status:          StatusScheduled,
	}
	if rec.ID == "" {
		rec.ID = asString(body["id"])
	}
	normalized := NormalizeRecord(recordToRaw(rec))
	normalized.DurationMinutes = req.DurationMinutes
	normalized.Status = StatusScheduled
	return &normalized, nil
}

// GetReliabilityScores fetches MTBF/MTTR/availability figures.
func (c *Client) GetReliabilityScores(ctx context.Context, equipmentID string) (*ReliabilityScores, error) {
	path := "/api/analytics/reliability"
	if equipmentID != "" {
		path += "?equipment_id=" + url.QueryEscape(equipmentID)
	}
	body, err := c.getJSON(ctx, path)
	if err != nil {
		return nil, err
	}

	return &ReliabilityScores{
		MTBF:         asFloatPtr(body["mtbf"]),
		MTTR:         asFloatPtr(body["mttr"]),
		Availability: asFloatPtr(body["availability"]),
	}, nil
}

// GetMaintenanceROI fetches cost aggregation over a named window. The cost
// field has gone by three names across API versions.
func (c *Client) GetMaintenanceROI(ctx context.Context, window, equipmentID string) (*ROISummary, error) {
	params := url.Values{}
	if window != "" {
		params.Set("period", window)
	}
	if equipmentID != "" {
		params.Set("equipment_id", equipmentID)
	}
	path := "/api/analytics/roi"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}
	body, err := c.getJSON(ctx, path)
	if err != nil {
		return nil, err
	}

	out := &ROISummary{Window: window}
	for _, key := range []string{"maintenance_cost_ytd", "total_cost", "ytd_cost"} {
		if v := asFloatPtr(body[key]); v != nil {
			out.MaintenanceCostYTD = v
			break
		}
	}
	return out, nil
}

// Ping verifies upstream reachability and returns the round-trip in ms.
func (c *Client) Ping(ctx context.Context) (int64, error) {
	if !c.Enabled() {
		return 0, fmt.Errorf("pdm api integration disabled")
	}
	start := time.Now()
	if _, err := c.getRaw(ctx, "/api/"); err != nil {
		if _, rootErr := c.getRaw(ctx, "/"); rootErr != nil {
			return 0, err
		}
	}
	return time.Since(start).Milliseconds(), nil
}

func (c *Client) getJSON(ctx context.Context, path string) (map[string]any, error) {
	raw, err := c.getRaw(ctx, path)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode response for %s: %w", path, err)
	}
	return out, nil
}

func (c *Client) getRaw(ctx context.Context, path string) (json.RawMessage, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("pdm api integration disabled")
	}
	u, err := url.Parse(c.endpoint + path)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return readBody(resp)
}

func (c *Client) postJSON(ctx context.Context, path string, payload any) (map[string]any, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("pdm api integration disabled")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	u, err := url.Parse(c.endpoint + path)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := readBody(resp)
	if err != nil {
		return nil, err
	}

	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode response for %s: %w", path, err)
	}
	return out, nil
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("pdm api status=%d body=%s", e.code, e.body)
}

func isNotFound(err error) bool {
	se, ok := err.(*statusError)
	return ok && se.code == http.StatusNotFound
}

func readBody(resp *http.Response) (json.RawMessage, error) {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		blob, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(blob))}
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// decodeRowsEnvelope accepts a bare JSON array or an object wrapping the
// array under the given key.
func decodeRowsEnvelope(raw json.RawMessage, key string) ([]map[string]any, error) {
	var rows []map[string]any
	if err := json.Unmarshal(raw, &rows); err == nil {
		return rows, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, err
	}
	inner, ok := envelope[key]
	if !ok {
		return nil, nil
	}
	if err := json.Unmarshal(inner, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func decodeMachine(row map[string]any) Machine {
	return Machine{
		EquipmentID:     asString(row["equipment_id"]),
		Name:            asString(row["name"]),
		Type:            asString(row["type"]),
		Location:        asString(row["location"]),
		Status:          asString(row["status"]),
		LastMaintenance: asString(row["last_maintenance"]),
	}
}

// nonSensorKeys are reading fields that are metadata, not sensor channels.
var nonSensorKeys = map[string]bool{
	"timestamp":        true,
	"equipment_id":     true,
	"anomaly_detected": true,
	"anomaly_score":    true,
}

func decodeReading(row map[string]any) Reading {
	out := Reading{
		Timestamp:   asString(row["timestamp"]),
		EquipmentID: asString(row["equipment_id"]),
		Sensors:     map[string]any{},
	}
	if nested, ok := row["readings"].(map[string]any); ok {
		for k, v := range nested {
			out.Sensors[k] = v
		}
		return out
	}
	for k, v := range row {
		if nonSensorKeys[k] {
			continue
		}
		out.Sensors[k] = v
	}
	return out
}

func normalizeRecordList(equipmentID string, v any) []MaintenanceRecord {
	rows, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]MaintenanceRecord, 0, len(rows))
	for _, rv := range rows {
		row, ok := rv.(map[string]any)
		if !ok {
			continue
		}
		rec := NormalizeRecord(row)
		if rec.EquipmentID == "" {
			rec.EquipmentID = equipmentID
		}
		out = append(out, rec)
	}
	return out
}
