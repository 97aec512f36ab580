// Package grantor profiles sellers by their claim history. The profile feeds
// human-review prioritization only; it never blocks a claim on its own.
package grantor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/landsafe/landsafe/internal/cache"
	"github.com/landsafe/landsafe/internal/logging"
	"github.com/landsafe/landsafe/internal/model"
	"github.com/landsafe/landsafe/internal/store"
)

// Profiler recomputes grantor aggregates from the claim store on demand.
// Profiles are derived state: cacheable with a freshness bound, never
// independently persisted.
type Profiler struct {
	store store.ClaimStore
	cache cache.Cache
	cfg   *model.Config
	log   *logging.Logger
}

// New creates a profiler over the given claim store
func New(st store.ClaimStore, c cache.Cache, cfg *model.Config, log *logging.Logger) *Profiler {
	if c == nil {
		c = cache.NopCache{}
	}
	return &Profiler{store: st, cache: c, cfg: cfg, log: log}
}

// Profile aggregates every claim naming the grantor and applies the risk
// policy. Grantor identity is an exact name match; entity resolution is the
// host system's responsibility upstream.
func (p *Profiler) Profile(ctx context.Context, grantorName string) (model.GrantorHistoryResult, error) {
	key := cache.Key("grantor", grantorName)
	if raw, found := p.cache.Get(key); found {
		var cached model.GrantorHistoryResult
		if err := json.Unmarshal(raw, &cached); err == nil {
			p.log.Debug("grantor_profile_cache_hit", "grantor", grantorName)
			return cached, nil
		}
	}

	claims, err := p.store.GrantorClaims(ctx, grantorName)
	if err != nil {
		return model.GrantorHistoryResult{}, fmt.Errorf("load grantor claims: %w", err)
	}

	result := model.GrantorHistoryResult{GrantorName: grantorName}
	for _, c := range claims {
		result.TotalClaims++
		switch c.Status {
		case model.StatusDisputed:
			result.DisputedClaims++
		case model.StatusRejected:
			result.RejectedClaims++
		}
	}

	if result.TotalClaims > 0 {
		result.DisputeRate = float64(result.DisputedClaims) / float64(result.TotalClaims)
	}

	th := p.cfg.Thresholds
	switch {
	case result.DisputeRate >= th.GrantorDisputeHighRisk:
		result.RiskLevel = model.RiskHigh
	case result.DisputeRate >= th.GrantorDisputeWarning:
		result.RiskLevel = model.RiskMedium
	default:
		result.RiskLevel = model.RiskLow
	}
	// A single disputed claim out of one does not yet indicate a pattern
	result.IsRedFlag = result.RiskLevel != model.RiskLow && result.TotalClaims >= th.GrantorRedFlagMinimum

	if raw, err := json.Marshal(result); err == nil {
		_ = p.cache.Set(key, raw, p.cfg.Cache.TTL)
	}

	p.log.Debug("grantor_profiled",
		"grantor", grantorName,
		"total", result.TotalClaims,
		"disputed", result.DisputedClaims,
		"dispute_rate", result.DisputeRate,
		"risk_level", result.RiskLevel,
		"red_flag", result.IsRedFlag)
	return result, nil
}
