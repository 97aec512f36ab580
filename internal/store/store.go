// Package store provides the durable claim store contract the engine runs
// against, with a PostgreSQL backend for production and an in-process memory
// backend for tests and single-shot CLI runs. The registry's check-and-lock
// is the one operation that requires true mutual exclusion; both backends
// serialize it per region bucket, never globally.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/landsafe/landsafe/internal/model"
)

var (
	// ErrClaimNotFound: no claim exists under the given ID
	ErrClaimNotFound = errors.New("claim not found")
	// ErrAlreadyProtected: the claim itself already holds a priority record.
	// ProtectRegion returns the existing record alongside this sentinel so
	// callers can treat retries as idempotent successes.
	ErrAlreadyProtected = errors.New("claim already holds a priority record")
	// ErrRegionConflict: a different claim already protects materially
	// overlapping ground
	ErrRegionConflict = errors.New("region already protected by another claim")
	// ErrClaimImmutable: the write would alter fields that are frozen for
	// the claim's current lifecycle stage
	ErrClaimImmutable = errors.New("claim fields immutable at current status")
)

// OverlapFunc inspects every claim that already holds a priority record in
// the locked region buckets and reports the first conflicting claim, if any.
// It runs inside the atomic protect scope, so it must stay pure geometry.
type OverlapFunc func(protected []model.Claim) (uuid.UUID, bool)

// checkMutable enforces the lifecycle mutability rule on a PutClaim over an
// existing row: from SPATIAL_LOCKED on, the polygon, grantor, indenture hash,
// and priority hash are frozen; from MINTED on, the claim is fully immutable
// through PutClaim (status still moves via AppendTransition).
func checkMutable(existing, next model.Claim) error {
	switch existing.Status {
	case model.StatusSpatialLocked, model.StatusMinted, model.StatusGovtTitleSync:
	default:
		return nil
	}
	if next.GrantorName != existing.GrantorName ||
		next.IndentureHash != existing.IndentureHash ||
		next.PriorityHash != existing.PriorityHash ||
		!samePolygon(next.Polygon, existing.Polygon) {
		return fmt.Errorf("%w: claim %s is %s", ErrClaimImmutable, existing.ID, existing.Status)
	}
	if existing.Status != model.StatusSpatialLocked {
		if next.Status != existing.Status || !next.CreatedAt.Equal(existing.CreatedAt) {
			return fmt.Errorf("%w: claim %s is %s", ErrClaimImmutable, existing.ID, existing.Status)
		}
	}
	return nil
}

func samePolygon(a, b model.Polygon) bool {
	if len(a.Points) != len(b.Points) {
		return false
	}
	for i := range a.Points {
		if a.Points[i] != b.Points[i] {
			return false
		}
	}
	return true
}

// ClaimStore is the read/write contract the host system provides.
type ClaimStore interface {
	GetClaim(ctx context.Context, id uuid.UUID) (model.Claim, error)
	PutClaim(ctx context.Context, c model.Claim) error

	// CandidatesNear returns claims whose bounding boxes intersect the given
	// box. It is a pre-filter: callers still run exact geometry on the result.
	CandidatesNear(ctx context.Context, b model.Bounds) ([]model.Claim, error)

	// GrantorClaims returns every claim naming the grantor (exact match;
	// entity resolution happens upstream)
	GrantorClaims(ctx context.Context, grantorName string) ([]model.Claim, error)

	GetPriorityRecord(ctx context.Context, claimID uuid.UUID) (model.PriorityOfSaleRecord, bool, error)

	// ProtectRegion is the single atomic check-and-write. It serializes on
	// the given buckets (sorted, so disjoint regions never contend), applies
	// the overlap check to all protected claims indexed in those buckets,
	// and persists the record only when no conflict exists. The record is
	// indexed under every given bucket, so a later protect whose cover set
	// shares any cell with this polygon will see it. Every outcome is one
	// of: (record, nil), (existing, ErrAlreadyProtected), ErrRegionConflict,
	// or a storage error. Nothing is ever silently swallowed.
	ProtectRegion(ctx context.Context, buckets []string, rec model.PriorityOfSaleRecord, overlaps OverlapFunc) (model.PriorityOfSaleRecord, error)

	// AppendTransition appends one audit entry and moves the claim's status.
	// History is append-only: entries are never edited or removed.
	AppendTransition(ctx context.Context, claimID uuid.UUID, tr model.StatusTransition) error

	PipelineState(ctx context.Context, claimID uuid.UUID) (model.ClaimPipelineState, error)

	Close() error
}
