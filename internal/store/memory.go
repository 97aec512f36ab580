package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/landsafe/landsafe/internal/geometry"
	"github.com/landsafe/landsafe/internal/model"
)

// Memory is the in-process ClaimStore. Mutual exclusion for ProtectRegion is
// a per-bucket mutex set acquired in sorted order, mirroring the advisory
// locks the PostgreSQL backend takes.
type Memory struct {
	mu      sync.RWMutex
	claims  map[uuid.UUID]model.Claim
	records map[uuid.UUID]model.PriorityOfSaleRecord
	byBucket map[string][]uuid.UUID
	history map[uuid.UUID][]model.StatusTransition

	bucketGuard sync.Mutex
	bucketLocks map[string]*sync.Mutex
}

// NewMemory creates an empty in-process store
func NewMemory() *Memory {
	return &Memory{
		claims:      make(map[uuid.UUID]model.Claim),
		records:     make(map[uuid.UUID]model.PriorityOfSaleRecord),
		byBucket:    make(map[string][]uuid.UUID),
		history:     make(map[uuid.UUID][]model.StatusTransition),
		bucketLocks: make(map[string]*sync.Mutex),
	}
}

func (m *Memory) GetClaim(_ context.Context, id uuid.UUID) (model.Claim, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.claims[id]
	if !ok {
		return model.Claim{}, ErrClaimNotFound
	}
	return c, nil
}

func (m *Memory) PutClaim(_ context.Context, c model.Claim) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.claims[c.ID]; ok {
		if err := checkMutable(existing, c); err != nil {
			return err
		}
	}
	m.claims[c.ID] = c
	return nil
}

func (m *Memory) CandidatesNear(_ context.Context, b model.Bounds) ([]model.Claim, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Claim
	for _, c := range m.claims {
		if len(c.Polygon.Points) == 0 {
			continue
		}
		if geometry.BoundingBox(c.Polygon).Intersects(b) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) GrantorClaims(_ context.Context, grantorName string) ([]model.Claim, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Claim
	for _, c := range m.claims {
		if c.GrantorName == grantorName {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) GetPriorityRecord(_ context.Context, claimID uuid.UUID) (model.PriorityOfSaleRecord, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[claimID]
	return rec, ok, nil
}

func (m *Memory) ProtectRegion(_ context.Context, buckets []string, rec model.PriorityOfSaleRecord, overlaps OverlapFunc) (model.PriorityOfSaleRecord, error) {
	locks := m.acquireBuckets(buckets)
	defer func() {
		for i := len(locks) - 1; i >= 0; i-- {
			locks[i].Unlock()
		}
	}()

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.records[rec.ClaimID]; ok {
		return existing, ErrAlreadyProtected
	}

	var protected []model.Claim
	seen := make(map[uuid.UUID]bool)
	for _, bucket := range buckets {
		for _, id := range m.byBucket[bucket] {
			if seen[id] || id == rec.ClaimID {
				continue
			}
			seen[id] = true
			if c, ok := m.claims[id]; ok {
				protected = append(protected, c)
			}
		}
	}
	if conflictID, found := overlaps(protected); found {
		return model.PriorityOfSaleRecord{}, fmt.Errorf("%w: claim %s", ErrRegionConflict, conflictID)
	}

	// Index under every cover bucket, not just the centroid's: a later
	// protect must see this record from any bucket the two polygons share,
	// even when their centroids land in distant cells
	m.records[rec.ClaimID] = rec
	for _, bucket := range dedupeSorted(buckets) {
		m.byBucket[bucket] = append(m.byBucket[bucket], rec.ClaimID)
	}
	if c, ok := m.claims[rec.ClaimID]; ok {
		c.PriorityHash = rec.PriorityHash
		m.claims[rec.ClaimID] = c
	}
	return rec, nil
}

// acquireBuckets locks the deduplicated bucket set in sorted order so two
// protect calls touching overlapping neighborhoods can never deadlock, and
// calls over disjoint neighborhoods never block each other
func (m *Memory) acquireBuckets(buckets []string) []*sync.Mutex {
	uniq := make([]string, 0, len(buckets))
	seen := make(map[string]bool, len(buckets))
	for _, b := range buckets {
		if !seen[b] {
			seen[b] = true
			uniq = append(uniq, b)
		}
	}
	sort.Strings(uniq)

	locks := make([]*sync.Mutex, 0, len(uniq))
	for _, b := range uniq {
		m.bucketGuard.Lock()
		lk, ok := m.bucketLocks[b]
		if !ok {
			lk = &sync.Mutex{}
			m.bucketLocks[b] = lk
		}
		m.bucketGuard.Unlock()
		lk.Lock()
		locks = append(locks, lk)
	}
	return locks
}

func (m *Memory) AppendTransition(_ context.Context, claimID uuid.UUID, tr model.StatusTransition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.claims[claimID]
	if !ok {
		return ErrClaimNotFound
	}
	m.history[claimID] = append(m.history[claimID], tr)
	c.Status = tr.To
	m.claims[claimID] = c
	return nil
}

func (m *Memory) PipelineState(_ context.Context, claimID uuid.UUID) (model.ClaimPipelineState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.claims[claimID]
	if !ok {
		return model.ClaimPipelineState{}, ErrClaimNotFound
	}
	hist := make([]model.StatusTransition, len(m.history[claimID]))
	copy(hist, m.history[claimID])
	return model.ClaimPipelineState{ClaimID: claimID, Status: c.Status, StatusHistory: hist}, nil
}

func (m *Memory) Close() error { return nil }
