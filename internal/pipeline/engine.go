// Package pipeline orchestrates the engine: candidate retrieval, conflict
// classification, grantor profiling, the priority-of-sale lock, and the
// claim lifecycle state machine.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/landsafe/landsafe/internal/cache"
	"github.com/landsafe/landsafe/internal/classify"
	"github.com/landsafe/landsafe/internal/geometry"
	"github.com/landsafe/landsafe/internal/grantor"
	"github.com/landsafe/landsafe/internal/logging"
	"github.com/landsafe/landsafe/internal/model"
	"github.com/landsafe/landsafe/internal/narrative"
	"github.com/landsafe/landsafe/internal/registry"
	"github.com/landsafe/landsafe/internal/satellite"
	"github.com/landsafe/landsafe/internal/store"
)

// Engine wires the stateless components around the claim store. Safe for
// concurrent use; only the registry's lock path serializes, and only per
// region bucket.
type Engine struct {
	store      store.ClaimStore
	classifier *classify.Classifier
	profiler   *grantor.Profiler
	registry   *registry.Registry
	satellite  satellite.Provider  // nil when disabled
	narrator   *narrative.Narrator // nil when disabled
	cfg        *model.Config
	log        *logging.Logger
}

// NewEngine builds an engine over the given store. Satellite and narrative
// are optional: a failed narrator init logs a warning and continues, a
// misconfigured satellite provider is a hard error since its absence would
// silently change classification inputs.
func NewEngine(st store.ClaimStore, cfg *model.Config, log *logging.Logger) (*Engine, error) {
	c, err := cache.New(cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("init cache: %w", err)
	}

	provider, err := satellite.NewProvider(cfg.Satellite, c)
	if err != nil {
		return nil, fmt.Errorf("init satellite provider: %w", err)
	}

	narrator, err := narrative.New(cfg.Narrative)
	if err != nil {
		log.Warn("narrative_disabled", "error", err.Error())
		narrator = nil
	}

	return &Engine{
		store:      st,
		classifier: classify.New(cfg),
		profiler:   grantor.New(st, c, cfg, log),
		registry:   registry.New(st, cfg, log),
		satellite:  provider,
		narrator:   narrator,
		cfg:        cfg,
		log:        log,
	}, nil
}

// CheckReport bundles everything a reviewer or caller needs about one claim
type CheckReport struct {
	Claim       model.Claim                    `json:"claim"`
	Conflict    model.SpatialConflictResult    `json:"conflict"`
	Grantor     model.GrantorHistoryResult     `json:"grantor"`
	Satellite   *model.SatelliteGeofenceResult `json:"satellite,omitempty"`
	Narrative   *model.ReviewNarrative         `json:"narrative,omitempty"`
	GeneratedAt time.Time                      `json:"generated_at"`
}

// CheckClaim runs the full conflict check for one claim: validate geometry,
// pull nearby candidates, fetch the advisory satellite verdict, classify,
// and profile the grantor. Satellite unavailability degrades to a recorded
// absent verdict, never a failure.
func (e *Engine) CheckClaim(ctx context.Context, claim model.Claim) (*CheckReport, error) {
	if err := geometry.Validate(claim.Polygon); err != nil {
		return nil, fmt.Errorf("invalid polygon: %w", err)
	}

	bounds := geometry.BoundingBox(claim.Polygon).Expand(e.cfg.Store.CandidateMarginDegrees)
	candidates, err := e.store.CandidatesNear(ctx, bounds)
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}

	verdict := e.fetchVerdict(ctx, claim)
	conflict := e.classifier.Classify(claim, candidates, verdict)

	profile, err := e.profiler.Profile(ctx, claim.GrantorName)
	if err != nil {
		return nil, fmt.Errorf("profile grantor: %w", err)
	}

	report := &CheckReport{
		Claim:       claim,
		Conflict:    conflict,
		Grantor:     profile,
		Satellite:   verdict,
		GeneratedAt: time.Now().UTC(),
	}

	// Narrative last: generated from the finished classification, never an
	// input to it
	if e.narrator != nil && conflict.RequiresHITL {
		n, err := e.narrator.Summarize(ctx, claim, conflict, profile)
		if err != nil {
			e.log.Warn("narrative_failed", "claim_id", claim.ID, "error", err.Error())
		} else {
			report.Narrative = &n
		}
	}

	e.log.Info("claim_checked",
		"claim_id", claim.ID,
		"status", conflict.Status,
		"requires_hitl", conflict.RequiresHITL,
		"conflicts", len(conflict.Conflicts),
		"grantor_risk", profile.RiskLevel)
	return report, nil
}

// fetchVerdict asks the satellite provider for the centroid verdict.
// Any failure degrades to nil, which the classifier records explicitly.
func (e *Engine) fetchVerdict(ctx context.Context, claim model.Claim) *model.SatelliteGeofenceResult {
	if e.satellite == nil {
		return nil
	}
	c := geometry.Centroid(claim.Polygon)
	verdict, err := e.satellite.GetVerdict(ctx, c.Lat, c.Lng)
	if err != nil {
		if errors.Is(err, satellite.ErrUnavailable) {
			e.log.Warn("satellite_unavailable", "claim_id", claim.ID, "error", err.Error())
		} else {
			e.log.Error("satellite_error", "claim_id", claim.ID, "error", err.Error())
		}
		return nil
	}
	return verdict
}

// ProtectClaim obtains the priority-of-sale record and moves the claim to
// SPATIAL_LOCKED. The lock itself is idempotent; the transition only happens
// on the first success.
func (e *Engine) ProtectClaim(ctx context.Context, claimID uuid.UUID, triggeredBy string) (model.PriorityOfSaleRecord, error) {
	claim, err := e.store.GetClaim(ctx, claimID)
	if err != nil {
		return model.PriorityOfSaleRecord{}, fmt.Errorf("load claim: %w", err)
	}

	// Re-protecting a SPATIAL_LOCKED claim is an idempotent retry, not a
	// transition; anything else must be a legal move into SPATIAL_LOCKED
	if claim.Status != model.StatusAIVerified && claim.Status != model.StatusSpatialLocked {
		err := checkTransition(claim.Status, model.StatusSpatialLocked)
		e.logInvalidTransition(ctx, claimID, err)
		return model.PriorityOfSaleRecord{}, err
	}

	rec, err := e.registry.Protect(ctx, registry.ProtectRequest{
		ClaimID:       claim.ID,
		GrantorName:   claim.GrantorName,
		IndentureHash: claim.IndentureHash,
		Polygon:       claim.Polygon,
		Timestamp:     time.Now().UTC(),
	})
	if err != nil {
		return model.PriorityOfSaleRecord{}, err
	}

	if claim.Status == model.StatusAIVerified {
		tr := model.StatusTransition{
			From:        claim.Status,
			To:          model.StatusSpatialLocked,
			Timestamp:   time.Now().UTC(),
			TriggeredBy: triggeredBy,
			Reason:      fmt.Sprintf("priority record obtained in region %s", rec.RegionBucket),
		}
		if err := e.store.AppendTransition(ctx, claimID, tr); err != nil {
			return model.PriorityOfSaleRecord{}, fmt.Errorf("record spatial lock: %w", err)
		}
	}
	return rec, nil
}

// Transition moves a claim along the lifecycle. SPATIAL_LOCKED cannot be
// requested directly: it is only reachable through a successful ProtectClaim.
func (e *Engine) Transition(ctx context.Context, claimID uuid.UUID, to model.PipelineStatus, triggeredBy, reason string) error {
	if to == model.StatusSpatialLocked {
		err := fmt.Errorf("%w: SPATIAL_LOCKED is only reachable via protect", ErrInvalidTransition)
		e.logInvalidTransition(ctx, claimID, err)
		return err
	}

	claim, err := e.store.GetClaim(ctx, claimID)
	if err != nil {
		return fmt.Errorf("load claim: %w", err)
	}
	if err := checkTransition(claim.Status, to); err != nil {
		e.logInvalidTransition(ctx, claimID, err)
		return err
	}

	return e.store.AppendTransition(ctx, claimID, model.StatusTransition{
		From:        claim.Status,
		To:          to,
		Timestamp:   time.Now().UTC(),
		TriggeredBy: triggeredBy,
		Reason:      reason,
	})
}

// logInvalidTransition logs the violation with the full history for postmortem
func (e *Engine) logInvalidTransition(ctx context.Context, claimID uuid.UUID, cause error) {
	state, err := e.store.PipelineState(ctx, claimID)
	if err != nil {
		e.log.Error("invalid_transition", "claim_id", claimID, "error", cause.Error())
		return
	}
	e.log.Error("invalid_transition",
		"claim_id", claimID,
		"error", cause.Error(),
		"status", state.Status,
		"history", state.StatusHistory)
}

// PipelineState returns the current status plus the full ordered history
func (e *Engine) PipelineState(ctx context.Context, claimID uuid.UUID) (model.ClaimPipelineState, error) {
	return e.store.PipelineState(ctx, claimID)
}

// ProfileGrantor exposes the grantor risk profile to host layers
func (e *Engine) ProfileGrantor(ctx context.Context, grantorName string) (model.GrantorHistoryResult, error) {
	return e.profiler.Profile(ctx, grantorName)
}

// Store exposes the underlying claim store for intake and tooling
func (e *Engine) Store() store.ClaimStore {
	return e.store
}
