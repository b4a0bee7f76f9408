package chart

import (
	"testing"
	"time"

	"go-pdm-maintenance-ui/internal/connectors/pdm"
)

func TestBuildSeries_ReversesToChronological(t *testing.T) {
	readings := []pdm.Reading{
		{Timestamp: "2026-08-23T12:00:00", Sensors: map[string]any{"temperature": 75.0}},
		{Timestamp: "2026-08-23T11:00:00", Sensors: map[string]any{"temperature": 72.0}},
		{Timestamp: "2026-08-23T10:00:00", Sensors: map[string]any{"temperature": 70.0}},
	}

	series := BuildSeries("temperature", readings)
	if len(series.Points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(series.Points))
	}
	if series.Points[0].Value != 70.0 || series.Points[2].Value != 75.0 {
		t.Fatalf("series not chronological: %+v", series.Points)
	}
	if series.Threshold != 90 {
		t.Fatalf("expected temperature threshold 90, got %v", series.Threshold)
	}
}

func TestBuildSeries_NonNumericBecomesZero(t *testing.T) {
	readings := []pdm.Reading{
		{Timestamp: "2026-08-23T12:00:00", Sensors: map[string]any{"temperature": "sensor offline"}},
	}
	series := BuildSeries("temperature", readings)
	if series.Points[0].Value != 0 {
		t.Fatalf("expected 0 for non-numeric value, got %v", series.Points[0].Value)
	}
}

func TestBuildSeries_TimestampLabels(t *testing.T) {
	readings := []pdm.Reading{
		{Timestamp: "not-a-time", Sensors: map[string]any{"pressure": 100.0}},
		{Timestamp: "", Sensors: map[string]any{"pressure": 101.0}},
	}
	series := BuildSeries("pressure", readings)
	if series.Points[0].Label != "Unknown" {
		t.Fatalf("expected Unknown label for empty timestamp, got %q", series.Points[0].Label)
	}
	if series.Points[1].Label != "Invalid time" {
		t.Fatalf("expected Invalid time label, got %q", series.Points[1].Label)
	}
}

func TestThresholds(t *testing.T) {
	cases := map[string]float64{
		"temperature": 90,
		"vibration":   3.0,
		"pressure":    130,
		"oil_level":   30,
		"voltage":     85,
	}
	for sensor, want := range cases {
		if got := Threshold(sensor); got != want {
			t.Errorf("Threshold(%q) = %v, want %v", sensor, got, want)
		}
	}
}

func TestSyntheticSeries_DeterministicPerEquipment(t *testing.T) {
	now := time.Date(2026, 8, 23, 15, 0, 0, 0, time.UTC)

	a := SyntheticSeries("EQ001", "temperature", 10, now)
	b := SyntheticSeries("EQ001", "temperature", 10, now)
	c := SyntheticSeries("EQ002", "temperature", 10, now)

	if len(a.Points) != 10 {
		t.Fatalf("expected 10 points, got %d", len(a.Points))
	}
	if !a.Synthetic {
		t.Fatalf("expected synthetic flag")
	}
	for i := range a.Points {
		if a.Points[i] != b.Points[i] {
			t.Fatalf("same equipment produced different filler at %d", i)
		}
	}
	same := true
	for i := range a.Points {
		if a.Points[i].Value != c.Points[i].Value {
			same = false
			break
		}
	}
	if same {
		t.Fatalf("different equipment produced identical filler")
	}
}
