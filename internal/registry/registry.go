// Package registry implements the priority-of-sale lock: binding a claim to
// a geographic region exactly once, with an at-most-one-winner guarantee for
// materially overlapping ground under concurrent submissions.
package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/landsafe/landsafe/internal/geometry"
	"github.com/landsafe/landsafe/internal/logging"
	"github.com/landsafe/landsafe/internal/model"
	"github.com/landsafe/landsafe/internal/store"
)

// ErrRegionConflict: a different claim already holds a priority record over
// materially overlapping ground. Re-exported so callers branch on the
// registry's surface without reaching into the store package.
var ErrRegionConflict = store.ErrRegionConflict

// ProtectRequest carries everything the priority hash and the overlap check
// need. The indenture hash comes from the upstream document-intake component.
type ProtectRequest struct {
	ClaimID       uuid.UUID
	GrantorName   string
	IndentureHash string
	Polygon       model.Polygon
	Timestamp     time.Time
}

// Registry drives the check-and-lock against the durable store
type Registry struct {
	store store.ClaimStore
	cfg   *model.Config
	log   *logging.Logger
}

// New creates a registry over the given claim store
func New(st store.ClaimStore, cfg *model.Config, log *logging.Logger) *Registry {
	return &Registry{store: st, cfg: cfg, log: log}
}

// Protect obtains a priority-of-sale record for the claim, or explains why
// it cannot. Outcomes form a closed set:
//   - (record, nil): the claim now holds, or already held, the lock. Retries
//     with identical arguments return the identical record and hash.
//   - ErrRegionConflict: a different claim protects overlapping ground
//     (IoU at or above the critical threshold).
//   - a geometry validation error: the polygon was rejected at the boundary.
func (r *Registry) Protect(ctx context.Context, req ProtectRequest) (model.PriorityOfSaleRecord, error) {
	if err := geometry.Validate(req.Polygon); err != nil {
		return model.PriorityOfSaleRecord{}, fmt.Errorf("invalid polygon: %w", err)
	}

	// Fast idempotence path outside the lock: a client retry must not be
	// penalized. The same check repeats inside the atomic scope to close the
	// race with a concurrent first attempt.
	if existing, ok, err := r.store.GetPriorityRecord(ctx, req.ClaimID); err != nil {
		return model.PriorityOfSaleRecord{}, fmt.Errorf("read priority record: %w", err)
	} else if ok {
		r.log.Debug("protect_idempotent_hit", "claim_id", req.ClaimID, "priority_hash", existing.PriorityHash)
		return existing, nil
	}

	rec := model.PriorityOfSaleRecord{
		ClaimID:      req.ClaimID,
		PriorityHash: PriorityHash(req.GrantorName, req.IndentureHash, req.Polygon, req.Timestamp),
		RegionBucket: RegionBucket(geometry.Centroid(req.Polygon)),
		LockedAt:     req.Timestamp,
	}
	buckets := CoverBuckets(geometry.BoundingBox(req.Polygon))

	critical := r.cfg.Thresholds.IoUCritical
	warning := r.cfg.Thresholds.IoUWarning
	out, err := r.store.ProtectRegion(ctx, buckets, rec, func(protected []model.Claim) (uuid.UUID, bool) {
		for _, other := range protected {
			res := geometry.IoU(req.Polygon, other.Polygon, geometry.Policy{
				CriticalThreshold: critical,
				WarningThreshold:  warning,
			})
			if res.IoUScore >= critical {
				return other.ID, true
			}
		}
		return uuid.Nil, false
	})

	switch {
	case errors.Is(err, store.ErrAlreadyProtected):
		// Lost the race to our own earlier attempt: still a success
		r.log.Debug("protect_idempotent_hit", "claim_id", req.ClaimID, "priority_hash", out.PriorityHash)
		return out, nil
	case errors.Is(err, store.ErrRegionConflict):
		r.log.Warn("protect_region_conflict", "claim_id", req.ClaimID, "region_bucket", rec.RegionBucket, "detail", err.Error())
		return model.PriorityOfSaleRecord{}, err
	case err != nil:
		return model.PriorityOfSaleRecord{}, fmt.Errorf("protect region: %w", err)
	}

	r.log.Info("protect_locked", "claim_id", req.ClaimID, "region_bucket", rec.RegionBucket, "priority_hash", rec.PriorityHash)
	return out, nil
}
