package model

import (
	"time"

	"github.com/google/uuid"
)

// PriorityOfSaleRecord is the tamper-evident ledger entry binding a claim to
// a geographic region. Created exactly once per claim, at most once per
// overlapping region group; never mutated or deleted.
type PriorityOfSaleRecord struct {
	ClaimID      uuid.UUID `json:"claim_id"`
	PriorityHash string    `json:"priority_hash"` // sha256 over grantor, indenture hash, coordinates, timestamp
	RegionBucket string    `json:"region_bucket"` // Geohash bucket the lock is serialized on
	LockedAt     time.Time `json:"locked_at"`
}

// StatusTransition is one append-only audit trail entry
type StatusTransition struct {
	From        PipelineStatus `json:"from"`
	To          PipelineStatus `json:"to"`
	Timestamp   time.Time      `json:"timestamp"`
	TriggeredBy string         `json:"triggered_by"` // Actor or subsystem
	Reason      string         `json:"reason"`
}

// ClaimPipelineState is the current status plus the full ordered history.
// History is never rewritten, only extended.
type ClaimPipelineState struct {
	ClaimID       uuid.UUID          `json:"claim_id"`
	Status        PipelineStatus     `json:"status"`
	StatusHistory []StatusTransition `json:"status_history"`
}
