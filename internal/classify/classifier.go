// Package classify turns raw geometry against a candidate set into an
// actionable verdict: a status, a human-review flag, and an ordered,
// replayable reasoning trail.
package classify

import (
	"fmt"
	"sort"

	"github.com/landsafe/landsafe/internal/geometry"
	"github.com/landsafe/landsafe/internal/model"
)

// Classifier evaluates one claim against pre-filtered candidates. Stateless
// and safe for any number of concurrent workers.
type Classifier struct {
	cfg *model.Config
}

// New creates a classifier with the given policy configuration
func New(cfg *model.Config) *Classifier {
	return &Classifier{cfg: cfg}
}

// Classify computes IoU against every candidate, aggregates the surviving
// conflicts, and applies the status policy. The satellite verdict is
// advisory: it can downgrade an otherwise-clear result and force review, but
// it never clears a geometric conflict finding. A nil verdict means the
// adapter was unavailable or disabled; that is recorded explicitly and
// classification proceeds.
func (c *Classifier) Classify(subject model.Claim, candidates []model.Claim, verdict *model.SatelliteGeofenceResult) model.SpatialConflictResult {
	th := c.cfg.Thresholds
	window := th.SubdivisionWindow()

	var conflicts []model.ConflictingClaim
	for _, cand := range candidates {
		if cand.ID == subject.ID || len(cand.Polygon.Points) < 3 {
			continue
		}
		gap := subject.CreatedAt.Sub(cand.CreatedAt)
		if gap < 0 {
			gap = -gap
		}
		res := geometry.IoU(subject.Polygon, cand.Polygon, geometry.Policy{
			CriticalThreshold: th.IoUCritical,
			WarningThreshold:  th.IoUWarning,
			SameGrantor:       cand.GrantorName == subject.GrantorName,
			WithinWindow:      gap <= window,
		})
		if res.Severity == model.SeverityNone {
			continue
		}
		var overlapPct float64
		if res.SubjectAreaSqm > 0 {
			overlapPct = res.IntersectionSqm / res.SubjectAreaSqm * 100
		}
		conflicts = append(conflicts, model.ConflictingClaim{
			ClaimID:           cand.ID,
			GrantorName:       cand.GrantorName,
			Status:            cand.Status,
			CreatedAt:         cand.CreatedAt,
			IoUScore:          res.IoUScore,
			OverlapAreaSqm:    res.IntersectionSqm,
			OverlapPercentage: overlapPct,
			Severity:          res.Severity,
			AlertType:         res.AlertType,
		})
	}

	// Highest IoU first; on ties the earlier claim leads (priority semantics)
	sort.SliceStable(conflicts, func(i, j int) bool {
		if conflicts[i].IoUScore != conflicts[j].IoUScore {
			return conflicts[i].IoUScore > conflicts[j].IoUScore
		}
		return conflicts[i].CreatedAt.Before(conflicts[j].CreatedAt)
	})

	result := model.SpatialConflictResult{
		Status:    model.ConflictClear,
		Conflicts: conflicts,
	}

	hasCritical := false
	summedPct := 0.0
	for _, cf := range conflicts {
		if cf.Severity == model.SeverityCritical {
			hasCritical = true
		}
		summedPct += cf.OverlapPercentage
		result.Reasons = append(result.Reasons, fmt.Sprintf(
			"claim %s (grantor %s) overlaps %.1f%% of subject, IoU %.3f, severity %s, alert %s",
			cf.ClaimID, cf.GrantorName, cf.OverlapPercentage, cf.IoUScore, cf.Severity, cf.AlertType))
	}

	switch {
	case len(conflicts) == 0:
		result.Reasons = append(result.Reasons, fmt.Sprintf(
			"no conflicting claims among %d candidates", len(candidates)))
	case hasCritical:
		result.Status = model.ConflictHighRisk
		result.RequiresHITL = true
		result.Reasons = append(result.Reasons, fmt.Sprintf(
			"critical overlap present (IoU >= %.2f): human review required", th.IoUCritical))
	default:
		result.Status = model.ConflictPotentialDispute
		if summedPct > th.OverlapWarningPercent {
			result.RequiresHITL = true
			result.Reasons = append(result.Reasons, fmt.Sprintf(
				"summed overlap %.1f%% exceeds %.1f%%: human review required", summedPct, th.OverlapWarningPercent))
		} else {
			result.Reasons = append(result.Reasons, fmt.Sprintf(
				"summed overlap %.1f%% within %.1f%% tolerance", summedPct, th.OverlapWarningPercent))
		}
	}

	c.applySatellite(&result, verdict)
	return result
}

// applySatellite folds the advisory environmental verdict into the result
func (c *Classifier) applySatellite(result *model.SpatialConflictResult, verdict *model.SatelliteGeofenceResult) {
	if verdict == nil {
		result.Reasons = append(result.Reasons,
			"satellite verdict absent: adapter unavailable or disabled, classification proceeded without environmental signal")
		return
	}

	var concerns []string
	if verdict.ConfidenceScore < c.cfg.Thresholds.SatelliteConfidence {
		concerns = append(concerns, fmt.Sprintf("confidence %.2f below %.2f",
			verdict.ConfidenceScore, c.cfg.Thresholds.SatelliteConfidence))
	}
	if verdict.WaterBodyDetected {
		concerns = append(concerns, "water body detected")
	}
	if verdict.ProtectedAreaDetected {
		concerns = append(concerns, "protected area detected")
	}

	if len(concerns) == 0 {
		result.Reasons = append(result.Reasons, fmt.Sprintf(
			"satellite verdict clean (confidence %.2f)", verdict.ConfidenceScore))
		return
	}

	// Satellite evidence adds caution; it never clears a geometric finding
	if result.Status == model.ConflictClear {
		result.Status = model.ConflictPotentialDispute
	}
	result.RequiresHITL = true
	for _, concern := range concerns {
		result.Reasons = append(result.Reasons, "satellite concern: "+concern)
	}
}
