package model

// Severity grades a single pairwise overlap
type Severity string

const (
	SeverityNone     Severity = "NONE"
	SeverityWarning  Severity = "WARNING"
	SeverityCritical Severity = "CRITICAL"
)

// AlertType classifies what a critical overlap most likely means
type AlertType string

const (
	// AlertOverlapWarning covers benign-looking overlaps, including a single
	// grantor subdividing their own land
	AlertOverlapWarning AlertType = "OVERLAP_WARNING"
	// AlertDoubleSaleSuspected fires when two different grantors claimed
	// materially overlapping ground within a short time window
	AlertDoubleSaleSuspected AlertType = "DOUBLE_SALE_SUSPECTED"
)

// ConflictStatus is the aggregate verdict over all candidate conflicts
type ConflictStatus string

const (
	ConflictClear            ConflictStatus = "CLEAR"
	ConflictPotentialDispute ConflictStatus = "POTENTIAL_DISPUTE"
	ConflictHighRisk         ConflictStatus = "HIGH_RISK"
)

// IoUConflictResult is the outcome of one pairwise Intersection-over-Union
// computation. Derived value, never persisted.
type IoUConflictResult struct {
	IoUScore         float64   `json:"iou_score"` // intersection / union, in [0,1]
	IntersectionSqm  float64   `json:"intersection_sqm"`
	UnionSqm         float64   `json:"union_sqm"`
	SubjectAreaSqm   float64   `json:"subject_area_sqm"`
	CandidateAreaSqm float64   `json:"candidate_area_sqm"`
	Severity         Severity  `json:"severity"`
	AlertType        AlertType `json:"alert_type,omitempty"` // Set only when severity is not NONE
}

// SpatialConflictResult aggregates every conflicting candidate for one claim.
// Reasons are ordered and append-only; they become part of the audit trail.
type SpatialConflictResult struct {
	Status       ConflictStatus     `json:"status"`
	RequiresHITL bool               `json:"requires_hitl"` // Mandatory human review
	Conflicts    []ConflictingClaim `json:"conflicts"`     // Sorted by IoU desc, earlier claim first on ties
	Reasons      []string           `json:"reasons"`
}
