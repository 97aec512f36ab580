package model

import "time"

// SatelliteGeofenceResult is the advisory environmental verdict supplied by
// the external imagery collaborator. The classifier only consumes it; it can
// add caution to a result but never removes a geometric conflict finding.
type SatelliteGeofenceResult struct {
	ConfidenceScore       float64   `json:"confidence_score"` // 0..1
	WaterBodyDetected     bool      `json:"water_body_detected"`
	ProtectedAreaDetected bool      `json:"protected_area_detected"`
	CapturedAt            time.Time `json:"captured_at,omitempty"`
	Source                string    `json:"source,omitempty"` // Provider name
}

// ReviewNarrative is an optional LLM-written summary attached to a HITL
// review packet. It is generated after classification and never feeds back
// into severity, the registry, or the state machine.
type ReviewNarrative struct {
	Enabled   bool     `json:"enabled"`
	Model     string   `json:"model,omitempty"`
	SummaryMD string   `json:"summary_md,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}
