package core

import "time"

// AggregatedVerdict is the merged result of all available specialist
// outputs. Computed once per claim; never mutated afterward.
type AggregatedVerdict struct {
	ClaimID       string                `json:"claim_id"`
	OverallScore  float64               `json:"overall_score"` // 0-100
	Verdict       TernaryVerdict        `json:"verdict"`
	Confidence    float64               `json:"confidence"` // 0-1
	Dimensions    map[Dimension]float64 `json:"dimensions"` // 0-100 each, absent dims at 50
	Weights       map[Dimension]float64 `json:"weights"`    // the weight vector actually used
	StrongSignals []string              `json:"strong_signals,omitempty"`
	Warnings      []string              `json:"warnings,omitempty"`
	Explanation   string                `json:"explanation,omitempty"`
	ComputedAt    time.Time             `json:"computed_at"`
}
