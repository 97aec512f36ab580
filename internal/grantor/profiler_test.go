package grantor

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/landsafe/landsafe/internal/cache"
	"github.com/landsafe/landsafe/internal/logging"
	"github.com/landsafe/landsafe/internal/model"
	"github.com/landsafe/landsafe/internal/store"
)

func seedGrantor(t *testing.T, m *store.Memory, name string, statuses ...model.PipelineStatus) {
	t.Helper()
	for _, st := range statuses {
		c := model.Claim{
			ID:          uuid.New(),
			GrantorName: name,
			Polygon: model.Polygon{Points: []model.Coordinate{
				{Lat: 6.5, Lng: 3.3}, {Lat: 6.5, Lng: 3.301}, {Lat: 6.501, Lng: 3.301}, {Lat: 6.501, Lng: 3.3},
			}},
			Status:    st,
			CreatedAt: time.Now(),
		}
		if err := m.PutClaim(context.Background(), c); err != nil {
			t.Fatalf("PutClaim: %v", err)
		}
	}
}

func TestProfile_HighRiskRedFlag(t *testing.T) {
	m := store.NewMemory()
	p := New(m, cache.NopCache{}, model.DefaultConfig(), logging.Nop())
	seedGrantor(t, m, "Chief Okafor",
		model.StatusDisputed, model.StatusDisputed, model.StatusMinted, model.StatusAIVerified)

	res, err := p.Profile(context.Background(), "Chief Okafor")
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if res.TotalClaims != 4 || res.DisputedClaims != 2 {
		t.Errorf("Expected 2/4 disputed, got %d/%d", res.DisputedClaims, res.TotalClaims)
	}
	if res.DisputeRate != 0.5 {
		t.Errorf("Expected dispute rate 0.5, got %f", res.DisputeRate)
	}
	if res.RiskLevel != model.RiskHigh {
		t.Errorf("Expected HIGH risk, got %s", res.RiskLevel)
	}
	if !res.IsRedFlag {
		t.Error("Expected red flag with elevated risk across 4 claims")
	}
}

func TestProfile_SingleDisputeNoRedFlag(t *testing.T) {
	m := store.NewMemory()
	p := New(m, cache.NopCache{}, model.DefaultConfig(), logging.Nop())
	seedGrantor(t, m, "Alhaji Bello", model.StatusDisputed)

	res, err := p.Profile(context.Background(), "Alhaji Bello")
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if res.RiskLevel != model.RiskHigh {
		t.Errorf("Expected HIGH risk at rate 1.0, got %s", res.RiskLevel)
	}
	if res.IsRedFlag {
		t.Error("Expected no red flag with only one claim of history")
	}
}

func TestProfile_MediumRisk(t *testing.T) {
	m := store.NewMemory()
	p := New(m, cache.NopCache{}, model.DefaultConfig(), logging.Nop())
	seedGrantor(t, m, "Madam Eze",
		model.StatusDisputed, model.StatusMinted, model.StatusMinted, model.StatusMinted)

	res, err := p.Profile(context.Background(), "Madam Eze")
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if res.DisputeRate != 0.25 {
		t.Errorf("Expected dispute rate 0.25, got %f", res.DisputeRate)
	}
	if res.RiskLevel != model.RiskMedium {
		t.Errorf("Expected MEDIUM risk, got %s", res.RiskLevel)
	}
	if !res.IsRedFlag {
		t.Error("Expected red flag at MEDIUM with 4 claims")
	}
}

func TestProfile_UnknownGrantorIsLowRisk(t *testing.T) {
	m := store.NewMemory()
	p := New(m, cache.NopCache{}, model.DefaultConfig(), logging.Nop())

	res, err := p.Profile(context.Background(), "Nobody")
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if res.TotalClaims != 0 || res.DisputeRate != 0 || res.RiskLevel != model.RiskLow || res.IsRedFlag {
		t.Errorf("Expected empty LOW profile, got %+v", res)
	}
}

func TestProfile_RejectedCountedSeparately(t *testing.T) {
	m := store.NewMemory()
	p := New(m, cache.NopCache{}, model.DefaultConfig(), logging.Nop())
	seedGrantor(t, m, "Chief Okafor", model.StatusRejected, model.StatusMinted)

	res, err := p.Profile(context.Background(), "Chief Okafor")
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if res.RejectedClaims != 1 {
		t.Errorf("Expected 1 rejected, got %d", res.RejectedClaims)
	}
	if res.DisputeRate != 0 {
		t.Errorf("Expected rejections to stay out of the dispute rate, got %f", res.DisputeRate)
	}
}

func TestProfile_CachedWithinFreshnessBound(t *testing.T) {
	m := store.NewMemory()
	c := cache.NewMemoryCache(time.Minute, time.Minute)
	p := New(m, c, model.DefaultConfig(), logging.Nop())
	seedGrantor(t, m, "Chief Okafor", model.StatusDisputed, model.StatusMinted, model.StatusMinted)

	first, err := p.Profile(context.Background(), "Chief Okafor")
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}

	// New history after caching must not surface until the entry expires
	seedGrantor(t, m, "Chief Okafor", model.StatusDisputed)
	second, err := p.Profile(context.Background(), "Chief Okafor")
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if second.TotalClaims != first.TotalClaims {
		t.Errorf("Expected cached profile within freshness bound, got %d vs %d claims", second.TotalClaims, first.TotalClaims)
	}
}
