package pdm

import (
	"testing"
	"time"
)

func TestDecodePredictionBody_NestedShape(t *testing.T) {
	body := map[string]any{
		"prediction": map[string]any{
			"failure_probability":        0.62,
			"remaining_useful_life_days": float64(14),
			"recommended_action":         "monitor",
			"confidence":                 0.9,
		},
	}

	pred := decodePredictionBody("EQ001", body)
	if pred.Shape != ShapeNested {
		t.Fatalf("expected nested shape, got %q", pred.Shape)
	}
	if pred.FailureProbability != 0.62 {
		t.Fatalf("expected probability 0.62, got %v", pred.FailureProbability)
	}
	if pred.DaysRemaining != 14 {
		t.Fatalf("expected 14 days remaining, got %d", pred.DaysRemaining)
	}
}

func TestDecodePredictionBody_LegacyShape(t *testing.T) {
	body := map[string]any{
		"prediction":                "critical",
		"probability":               0.83,
		"maintenance_required":      true,
		"estimated_time_to_failure": float64(3),
		"next_maintenance_date":     "2026-09-01",
	}

	pred := decodePredictionBody("EQ001", body)
	if pred.Shape != ShapeLegacy {
		t.Fatalf("expected legacy shape, got %q", pred.Shape)
	}
	if !pred.MaintenanceRequired {
		t.Fatalf("expected maintenance_required to decode true")
	}
	if pred.Category != "critical" {
		t.Fatalf("expected category critical, got %q", pred.Category)
	}
	if pred.DaysRemaining != 3 {
		t.Fatalf("expected 3 days remaining, got %d", pred.DaysRemaining)
	}
}

func TestRecommend_ThresholdIsStrict(t *testing.T) {
	cases := []struct {
		name string
		pred Prediction
		want bool
	}{
		{"just above threshold", Prediction{Shape: ShapeNested, FailureProbability: 0.41}, true},
		{"exactly at threshold", Prediction{Shape: ShapeNested, FailureProbability: 0.40}, false},
		{"action overrides low probability", Prediction{Shape: ShapeNested, FailureProbability: 0.1, RecommendedAction: "maintenance"}, true},
		{"legacy flag overrides low probability", Prediction{Shape: ShapeLegacy, FailureProbability: 0.1, MaintenanceRequired: true}, true},
		{"legacy below threshold", Prediction{Shape: ShapeLegacy, FailureProbability: 0.39}, false},
	}

	for _, tc := range cases {
		if got := tc.pred.Recommend(); got != tc.want {
			t.Errorf("%s: Recommend() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestSuggestedDate(t *testing.T) {
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		days int
		want string
	}{
		{5, "2026-08-27"},  // floor(0.8*5)=4
		{1, "2026-08-24"},  // floor(0.8*1)=0, clamped to 1
		{0, "2026-08-24"},  // clamped to 1
		{30, "2026-09-16"}, // floor(0.8*30)=24
	}

	for _, tc := range cases {
		pred := Prediction{DaysRemaining: tc.days}
		got := pred.SuggestedDate(now).Format("2006-01-02")
		if got != tc.want {
			t.Errorf("days=%d: SuggestedDate = %s, want %s", tc.days, got, tc.want)
		}
	}
}

func TestDerivedPriority(t *testing.T) {
	cases := []struct {
		probability float64
		want        string
	}{
		{0.95, "critical"},
		{0.71, "critical"},
		{0.70, "high"},
		{0.51, "high"},
		{0.50, "medium"},
		{0.10, "medium"},
	}

	for _, tc := range cases {
		pred := Prediction{FailureProbability: tc.probability}
		if got := pred.DerivedPriority(); got != tc.want {
			t.Errorf("probability=%v: DerivedPriority = %q, want %q", tc.probability, got, tc.want)
		}
	}
}
