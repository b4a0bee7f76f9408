// Package chart turns raw sensor history into display-ready series for the
// dashboard canvas. It is pure: no I/O, no clocks except the caller-provided
// anchor for synthetic filler.
package chart

import (
	"hash/fnv"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"go-pdm-maintenance-ui/internal/connectors/pdm"
)

// Point is one chart sample: a short time label and the numeric value.
type Point struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Series is a drawable sensor series plus its alert threshold.
type Series struct {
	Sensor    string  `json:"sensor"`
	Points    []Point `json:"points"`
	Threshold float64 `json:"threshold"`
	Synthetic bool    `json:"synthetic"`
}

// Display alert thresholds per sensor channel.
const (
	thresholdTemperature = 90
	thresholdVibration   = 3.0
	thresholdPressure    = 130
	thresholdOilLevel    = 30
	thresholdDefault     = 85
)

// Threshold returns the alert line drawn on the chart for a sensor.
func Threshold(sensor string) float64 {
	switch sensor {
	case "temperature":
		return thresholdTemperature
	case "vibration":
		return thresholdVibration
	case "pressure":
		return thresholdPressure
	case "oil_level":
		return thresholdOilLevel
	default:
		return thresholdDefault
	}
}

// BuildSeries converts newest-first readings into a chronological series for
// one sensor. Non-numeric values render as 0 rather than breaking the chart.
func BuildSeries(sensor string, readings []pdm.Reading) Series {
	points := make([]Point, 0, len(readings))
	for i := len(readings) - 1; i >= 0; i-- {
		r := readings[i]
		points = append(points, Point{
			Label: timeLabel(r.Timestamp),
			Value: numericValue(r.Sensors[sensor]),
		})
	}
	return Series{Sensor: sensor, Points: points, Threshold: Threshold(sensor)}
}

// SyntheticSeries fills the chart when a machine has no recorded history.
// The shape is seeded by equipment id so reloads draw the same curve.
func SyntheticSeries(equipmentID, sensor string, n int, now time.Time) Series {
	if n <= 0 {
		n = 10
	}
	h := fnv.New64a()
	h.Write([]byte(equipmentID + "/" + sensor))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	base := Threshold(sensor) * 0.7
	points := make([]Point, 0, n)
	for i := n - 1; i >= 0; i-- {
		ts := now.Add(-time.Duration(i) * time.Hour)
		jitter := (rng.Float64() - 0.5) * base * 0.2
		points = append(points, Point{
			Label: ts.Format("15:04"),
			Value: math.Round((base+jitter)*100) / 100,
		})
	}
	return Series{Sensor: sensor, Points: points, Threshold: Threshold(sensor), Synthetic: true}
}

// timestampLayouts covers the formats the PdM API and the MQTT feed emit.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func timeLabel(ts string) string {
	ts = strings.TrimSpace(ts)
	if ts == "" {
		return "Unknown"
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, ts); err == nil {
			return parsed.Format("01-02 15:04")
		}
	}
	return "Invalid time"
}

func numericValue(v any) float64 {
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
