package geometry

import "github.com/landsafe/landsafe/internal/model"

// Policy carries the thresholds and pairwise context the IoU grading needs.
// Thresholds are injected so the classifier and registry share one source of
// truth (model.ThresholdConfig).
type Policy struct {
	CriticalThreshold float64 // IoU at or above is CRITICAL
	WarningThreshold  float64 // IoU at or above is WARNING

	// SameGrantor is true when both claims name the same seller: a single
	// owner subdividing their own land is not inherently fraud
	SameGrantor bool
	// WithinWindow is true when both claims were created inside the
	// subdivision policy window; a critical cross-grantor overlap inside the
	// window escalates to a suspected double sale
	WithinWindow bool
}

// DefaultPolicy returns the production thresholds with no pairwise context
func DefaultPolicy() Policy {
	return Policy{CriticalThreshold: 0.30, WarningThreshold: 0.10}
}

// IoU computes intersection-over-union between the subject and candidate
// rings and grades the overlap. Identical rings score exactly 1.0; disjoint
// rings score exactly 0.0 with severity NONE.
func IoU(subject, candidate model.Polygon, pol Policy) model.IoUConflictResult {
	areaA := Area(subject)
	areaB := Area(candidate)

	var inter float64
	if overlap, ok := Intersect(subject, candidate); ok {
		inter = Area(overlap)
	}
	// Clipping noise must never push the intersection past either input
	if smaller := min(areaA, areaB); inter > smaller {
		inter = smaller
	}

	union := areaA + areaB - inter
	var score float64
	if union > 0 {
		score = inter / union
	}
	if score > 1 {
		score = 1
	}

	res := model.IoUConflictResult{
		IoUScore:         score,
		IntersectionSqm:  inter,
		UnionSqm:         union,
		SubjectAreaSqm:   areaA,
		CandidateAreaSqm: areaB,
		Severity:         model.SeverityNone,
	}

	switch {
	case score >= pol.CriticalThreshold:
		res.Severity = model.SeverityCritical
	case score >= pol.WarningThreshold:
		res.Severity = model.SeverityWarning
	}

	if res.Severity != model.SeverityNone {
		res.AlertType = model.AlertOverlapWarning
		if res.Severity == model.SeverityCritical && !pol.SameGrantor && pol.WithinWindow {
			res.AlertType = model.AlertDoubleSaleSuspected
		}
	}
	return res
}
