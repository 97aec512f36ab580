package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/landsafe/landsafe/internal/model"
)

func parcel(lat, lng, side float64) model.Polygon {
	return model.Polygon{Points: []model.Coordinate{
		{Lat: lat, Lng: lng},
		{Lat: lat, Lng: lng + side},
		{Lat: lat + side, Lng: lng + side},
		{Lat: lat + side, Lng: lng},
	}}
}

func TestMemory_GetClaim_NotFound(t *testing.T) {
	m := NewMemory()
	if _, err := m.GetClaim(context.Background(), uuid.New()); !errors.Is(err, ErrClaimNotFound) {
		t.Errorf("Expected ErrClaimNotFound, got %v", err)
	}
}

func TestMemory_CandidatesNear(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	near := model.Claim{ID: uuid.New(), GrantorName: "A", Polygon: parcel(6.50, 3.30, 0.001), Status: model.StatusIntakePending, CreatedAt: time.Now()}
	far := model.Claim{ID: uuid.New(), GrantorName: "B", Polygon: parcel(9.00, 7.00, 0.001), Status: model.StatusIntakePending, CreatedAt: time.Now()}
	if err := m.PutClaim(ctx, near); err != nil {
		t.Fatalf("PutClaim: %v", err)
	}
	if err := m.PutClaim(ctx, far); err != nil {
		t.Fatalf("PutClaim: %v", err)
	}

	got, err := m.CandidatesNear(ctx, model.Bounds{MinLat: 6.49, MinLng: 3.29, MaxLat: 6.52, MaxLng: 3.32})
	if err != nil {
		t.Fatalf("CandidatesNear: %v", err)
	}
	if len(got) != 1 || got[0].ID != near.ID {
		t.Errorf("Expected only the nearby claim, got %d claims", len(got))
	}
}

func TestMemory_AppendTransition(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	id := uuid.New()

	if err := m.PutClaim(ctx, model.Claim{ID: id, Status: model.StatusIntakePending, Polygon: parcel(0, 0, 0.001), CreatedAt: time.Now()}); err != nil {
		t.Fatalf("PutClaim: %v", err)
	}

	tr := model.StatusTransition{From: model.StatusIntakePending, To: model.StatusAIVerified, Timestamp: time.Now(), TriggeredBy: "test", Reason: "checks passed"}
	if err := m.AppendTransition(ctx, id, tr); err != nil {
		t.Fatalf("AppendTransition: %v", err)
	}

	state, err := m.PipelineState(ctx, id)
	if err != nil {
		t.Fatalf("PipelineState: %v", err)
	}
	if state.Status != model.StatusAIVerified {
		t.Errorf("Expected status AI_VERIFIED, got %s", state.Status)
	}
	if len(state.StatusHistory) != 1 || state.StatusHistory[0].To != model.StatusAIVerified {
		t.Errorf("Expected one history entry to AI_VERIFIED, got %+v", state.StatusHistory)
	}
}

func TestMemory_ProtectRegion_AlreadyProtected(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	id := uuid.New()

	if err := m.PutClaim(ctx, model.Claim{ID: id, Polygon: parcel(0, 0, 0.001), Status: model.StatusAIVerified, CreatedAt: time.Now()}); err != nil {
		t.Fatalf("PutClaim: %v", err)
	}

	rec := model.PriorityOfSaleRecord{ClaimID: id, PriorityHash: "h1", RegionBucket: "s00000", LockedAt: time.Now()}
	noConflict := func([]model.Claim) (uuid.UUID, bool) { return uuid.Nil, false }

	if _, err := m.ProtectRegion(ctx, []string{"s00000"}, rec, noConflict); err != nil {
		t.Fatalf("first ProtectRegion: %v", err)
	}
	existing, err := m.ProtectRegion(ctx, []string{"s00000"}, rec, noConflict)
	if !errors.Is(err, ErrAlreadyProtected) {
		t.Fatalf("Expected ErrAlreadyProtected, got %v", err)
	}
	if existing.PriorityHash != "h1" {
		t.Errorf("Expected the existing record back, got %+v", existing)
	}

	// The claim mirrors the hash once protected
	c, _ := m.GetClaim(ctx, id)
	if c.PriorityHash != "h1" {
		t.Errorf("Expected claim to carry priority hash, got %q", c.PriorityHash)
	}
}

func TestMemory_ProtectRegion_IndexedUnderEveryBucket(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	winner := model.Claim{ID: uuid.New(), Polygon: parcel(0, 0, 0.001), Status: model.StatusAIVerified, CreatedAt: time.Now()}
	later := model.Claim{ID: uuid.New(), Polygon: parcel(0, 0.0002, 0.001), Status: model.StatusAIVerified, CreatedAt: time.Now()}
	_ = m.PutClaim(ctx, winner)
	_ = m.PutClaim(ctx, later)

	noConflict := func([]model.Claim) (uuid.UUID, bool) { return uuid.Nil, false }
	rec := model.PriorityOfSaleRecord{ClaimID: winner.ID, PriorityHash: "h1", RegionBucket: "b1", LockedAt: time.Now()}
	if _, err := m.ProtectRegion(ctx, []string{"b1", "b2"}, rec, noConflict); err != nil {
		t.Fatalf("winner ProtectRegion: %v", err)
	}

	// A protect that only shares the non-centroid bucket must still see the
	// winner's record
	sawWinner := false
	observe := func(protected []model.Claim) (uuid.UUID, bool) {
		for _, c := range protected {
			if c.ID == winner.ID {
				sawWinner = true
			}
		}
		return uuid.Nil, false
	}
	if _, err := m.ProtectRegion(ctx, []string{"b2"}, model.PriorityOfSaleRecord{ClaimID: later.ID, PriorityHash: "h2", RegionBucket: "b2", LockedAt: time.Now()}, observe); err != nil {
		t.Fatalf("later ProtectRegion: %v", err)
	}
	if !sawWinner {
		t.Error("Expected the winner's record to be visible from every cover bucket")
	}
}

func TestMemory_PutClaim_FrozenAfterSpatialLock(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	locked := model.Claim{
		ID: uuid.New(), GrantorName: "Chief Okafor", Polygon: parcel(0, 0, 0.001),
		IndentureHash: "doc-abc", Status: model.StatusSpatialLocked, PriorityHash: "h1", CreatedAt: time.Now(),
	}
	if err := m.PutClaim(ctx, locked); err != nil {
		t.Fatalf("PutClaim: %v", err)
	}

	moved := locked
	moved.Polygon = parcel(0, 0.01, 0.001)
	if err := m.PutClaim(ctx, moved); !errors.Is(err, ErrClaimImmutable) {
		t.Errorf("Expected ErrClaimImmutable for polygon change, got %v", err)
	}

	renamed := locked
	renamed.GrantorName = "Alhaji Bello"
	if err := m.PutClaim(ctx, renamed); !errors.Is(err, ErrClaimImmutable) {
		t.Errorf("Expected ErrClaimImmutable for grantor change, got %v", err)
	}

	rehashed := locked
	rehashed.PriorityHash = "h2"
	if err := m.PutClaim(ctx, rehashed); !errors.Is(err, ErrClaimImmutable) {
		t.Errorf("Expected ErrClaimImmutable for priority hash change, got %v", err)
	}

	// Rejected writes must not leak through
	got, err := m.GetClaim(ctx, locked.ID)
	if err != nil {
		t.Fatalf("GetClaim: %v", err)
	}
	if got.GrantorName != "Chief Okafor" || got.PriorityHash != "h1" {
		t.Errorf("Expected claim unchanged after rejected writes, got %+v", got)
	}
}

func TestMemory_PutClaim_FullyImmutableAtMinted(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	minted := model.Claim{
		ID: uuid.New(), GrantorName: "Chief Okafor", Polygon: parcel(0, 0, 0.001),
		IndentureHash: "doc-abc", Status: model.StatusMinted, PriorityHash: "h1", CreatedAt: time.Now(),
	}
	if err := m.PutClaim(ctx, minted); err != nil {
		t.Fatalf("PutClaim: %v", err)
	}

	// Identical re-put is a harmless retry
	if err := m.PutClaim(ctx, minted); err != nil {
		t.Errorf("Expected identical re-put to succeed, got %v", err)
	}

	regressed := minted
	regressed.Status = model.StatusIntakePending
	if err := m.PutClaim(ctx, regressed); !errors.Is(err, ErrClaimImmutable) {
		t.Errorf("Expected ErrClaimImmutable for status rewrite, got %v", err)
	}

	backdated := minted
	backdated.CreatedAt = minted.CreatedAt.Add(-time.Hour)
	if err := m.PutClaim(ctx, backdated); !errors.Is(err, ErrClaimImmutable) {
		t.Errorf("Expected ErrClaimImmutable for timestamp rewrite, got %v", err)
	}
}

func TestMemory_ProtectRegion_Conflict(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	winner := model.Claim{ID: uuid.New(), Polygon: parcel(0, 0, 0.001), Status: model.StatusAIVerified, CreatedAt: time.Now()}
	loser := model.Claim{ID: uuid.New(), Polygon: parcel(0, 0.0002, 0.001), Status: model.StatusAIVerified, CreatedAt: time.Now()}
	_ = m.PutClaim(ctx, winner)
	_ = m.PutClaim(ctx, loser)

	noConflict := func([]model.Claim) (uuid.UUID, bool) { return uuid.Nil, false }
	if _, err := m.ProtectRegion(ctx, []string{"b1"}, model.PriorityOfSaleRecord{ClaimID: winner.ID, PriorityHash: "h1", RegionBucket: "b1", LockedAt: time.Now()}, noConflict); err != nil {
		t.Fatalf("winner ProtectRegion: %v", err)
	}

	sawWinner := false
	conflictsWithWinner := func(protected []model.Claim) (uuid.UUID, bool) {
		for _, c := range protected {
			if c.ID == winner.ID {
				sawWinner = true
				return c.ID, true
			}
		}
		return uuid.Nil, false
	}
	_, err := m.ProtectRegion(ctx, []string{"b1"}, model.PriorityOfSaleRecord{ClaimID: loser.ID, PriorityHash: "h2", RegionBucket: "b1", LockedAt: time.Now()}, conflictsWithWinner)
	if !errors.Is(err, ErrRegionConflict) {
		t.Fatalf("Expected ErrRegionConflict, got %v", err)
	}
	if !sawWinner {
		t.Error("Expected the overlap check to see the protected winner")
	}
}
