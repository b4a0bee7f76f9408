package pdm

import (
	"math"
	"time"
)

// Prediction shape tags. The model endpoint has shipped two response layouts:
// a flat one with maintenance_required/probability/estimated_time_to_failure
// and a nested one wrapping failure_probability/remaining_useful_life_days/
// recommended_action under a "prediction" object.
const (
	ShapeLegacy = "legacy"
	ShapeNested = "nested"
)

// Recommendation thresholds. Strict greater-than comparisons.
const (
	recommendProbability = 0.4
	criticalProbability  = 0.7
	highProbability      = 0.5
)

// Prediction is the canonical model output for one machine.
type Prediction struct {
	EquipmentID         string  `json:"equipment_id,omitempty"`
	Shape               string  `json:"shape"`
	MaintenanceRequired bool    `json:"maintenance_required"`
	FailureProbability  float64 `json:"failure_probability"`
	DaysRemaining       int     `json:"days_remaining"`
	RecommendedAction   string  `json:"recommended_action,omitempty"`
	Category            string  `json:"category,omitempty"`
	Confidence          float64 `json:"confidence,omitempty"`
	NextMaintenanceDate string  `json:"next_maintenance_date,omitempty"`
}

// decodePredictionBody dispatches on the presence of a nested "prediction"
// object. Missing numeric fields decode as zero.
func decodePredictionBody(equipmentID string, body map[string]any) Prediction {
	if nested, ok := body["prediction"].(map[string]any); ok {
		days := asFloat(nested["remaining_useful_life_days"])
		if days == 0 {
			days = asFloat(nested["estimated_time_to_failure"])
		}
		return Prediction{
			EquipmentID:        equipmentID,
			Shape:              ShapeNested,
			FailureProbability: asFloat(nested["failure_probability"]),
			DaysRemaining:      int(days),
			RecommendedAction:  asString(nested["recommended_action"]),
			Confidence:         asFloat(nested["confidence"]),
		}
	}

	return Prediction{
		EquipmentID:         equipmentID,
		Shape:               ShapeLegacy,
		MaintenanceRequired: asBool(body["maintenance_required"]),
		FailureProbability:  asFloat(body["probability"]),
		DaysRemaining:       int(asFloat(body["estimated_time_to_failure"])),
		Category:            asString(body["prediction"]),
		NextMaintenanceDate: asString(body["next_maintenance_date"]),
	}
}

// Recommend reports whether maintenance should be proposed to the operator.
func (p Prediction) Recommend() bool {
	if p.Shape == ShapeNested {
		return p.RecommendedAction == "maintenance" || p.FailureProbability > recommendProbability
	}
	return p.MaintenanceRequired || p.FailureProbability > recommendProbability
}

// SuggestedDate proposes a maintenance date at 80% of the remaining useful
// life, never earlier than tomorrow.
func (p Prediction) SuggestedDate(now time.Time) time.Time {
	days := int(math.Floor(0.8 * float64(p.DaysRemaining)))
	if days < 1 {
		days = 1
	}
	return now.AddDate(0, 0, days)
}

// DerivedPriority maps failure probability onto a scheduling priority.
func (p Prediction) DerivedPriority() string {
	switch {
	case p.FailureProbability > criticalProbability:
		return "critical"
	case p.FailureProbability > highProbability:
		return "high"
	default:
		return defaultPriority
	}
}
