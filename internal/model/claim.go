package model

import (
	"time"

	"github.com/google/uuid"
)

// PipelineStatus is the lifecycle stage of a claim
type PipelineStatus string

const (
	StatusIntakePending PipelineStatus = "INTAKE_PENDING"  // Documents received, nothing verified yet
	StatusAIVerified    PipelineStatus = "AI_VERIFIED"     // Automated checks passed
	StatusSpatialLocked PipelineStatus = "SPATIAL_LOCKED"  // Priority-of-sale record obtained
	StatusMinted        PipelineStatus = "MINTED"          // Certificate minted; claim fully immutable
	StatusGovtTitleSync PipelineStatus = "GOVT_TITLE_SYNC" // Synced with the government title registry
	StatusRejected      PipelineStatus = "REJECTED"        // Absorbing: claim refused
	StatusDisputed      PipelineStatus = "DISPUTED"        // Absorbing: claim under dispute
)

// Terminal reports whether no further transition is legal from this status
func (s PipelineStatus) Terminal() bool {
	switch s {
	case StatusGovtTitleSync, StatusRejected, StatusDisputed:
		return true
	}
	return false
}

// Absorbing reports whether the status captures a claim permanently
// (reachable from any non-terminal stage, never left)
func (s PipelineStatus) Absorbing() bool {
	return s == StatusRejected || s == StatusDisputed
}

// Claim represents one land claim moving through the protection pipeline.
// Polygon and grantor are mutable only before SPATIAL_LOCKED; the whole
// record becomes immutable at MINTED.
type Claim struct {
	ID            uuid.UUID      `json:"id"`
	GrantorName   string         `json:"grantor_name"`             // Seller of record
	Polygon       Polygon        `json:"polygon"`                  // Claimed boundary
	IndentureHash string         `json:"indenture_hash,omitempty"` // Document content hash, supplied by intake
	Status        PipelineStatus `json:"status"`
	PriorityHash  string         `json:"priority_hash,omitempty"` // Set once the registry locks the region
	CreatedAt     time.Time      `json:"created_at"`
}

// ConflictingClaim is a read-only projection of another claim plus the
// overlap computed against the subject claim. Derived on demand, never stored.
type ConflictingClaim struct {
	ClaimID           uuid.UUID      `json:"claim_id"`
	GrantorName       string         `json:"grantor_name"`
	Status            PipelineStatus `json:"status"`
	CreatedAt         time.Time      `json:"created_at"`
	IoUScore          float64        `json:"iou_score"`
	OverlapAreaSqm    float64        `json:"overlap_area_sqm"`
	OverlapPercentage float64        `json:"overlap_percentage"` // Of the subject claim's area
	Severity          Severity       `json:"severity"`
	AlertType         AlertType      `json:"alert_type"`
}
