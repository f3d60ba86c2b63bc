package models

import "time"

// Freshness describes how current a returned ML result is. The prediction
// client always returns a structurally valid result with an honest tag,
// never an error.
type Freshness string

const (
	// FreshnessLive means the predictor answered within its deadline
	FreshnessLive Freshness = "live"
	// FreshnessDegraded means the predictor failed and the last known good
	// result is being served instead
	FreshnessDegraded Freshness = "degraded"
	// FreshnessUnavailable means the predictor failed and no prior result
	// exists; fields are at neutral defaults
	FreshnessUnavailable Freshness = "unavailable"
)

// ZonePrediction is the per-zone risk estimate inside a PredictionResult
type ZonePrediction struct {
	ZoneID     string  `json:"zoneId"`
	Risk       float64 `json:"risk"`
	Confidence float64 `json:"confidence"`
}

// PredictionResult is the forward-looking risk picture for an event at a
// given horizon. Cached per (event, horizon) as last known good.
type PredictionResult struct {
	EventID        string           `json:"eventId"`
	HorizonMinutes int              `json:"horizonMinutes"`
	Predictions    []ZonePrediction `json:"predictions"`
	GeneratedAt    time.Time        `json:"generatedAt"`
	Freshness      Freshness        `json:"freshness"`
}

// Insight is the current-state risk summary for an event
type Insight struct {
	EventID        string    `json:"eventId"`
	RiskScore      float64   `json:"riskScore"`
	Recommendation string    `json:"recommendation"`
	Confidence     float64   `json:"confidence"`
	Factors        []string  `json:"factors"`
	GeneratedAt    time.Time `json:"generatedAt"`
	Freshness      Freshness `json:"freshness"`
}
