package worker

import (
	"context"
	"testing"
)

func TestRegionLimiter_New(t *testing.T) {
	limiter := NewRegionLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewRegionLimiter(10, -1)
	if l2.defaultBurst != 5 {
		t.Errorf("expected default burst 5 for negative input, got %d", l2.defaultBurst)
	}
}

func TestRegionLimiter_Wait(t *testing.T) {
	limiter := NewRegionLimiter(100, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "9q8yyk"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
	if err := limiter.Wait(ctx, "s14ed5"); err != nil {
		t.Errorf("wait failed for second bucket: %v", err)
	}
}

func TestRegionLimiter_BucketsIndependent(t *testing.T) {
	// 1 per second, burst 1: the first call drains the bucket
	limiter := NewRegionLimiter(1, 1)

	if !limiter.Allow("9q8yyk") {
		t.Error("first request should pass")
	}
	if limiter.Allow("9q8yyk") {
		t.Error("expected exhausted tokens for the same bucket")
	}
	if !limiter.Allow("s14ed5") {
		t.Error("a different bucket should not be affected")
	}
}

func TestRegionLimiter_SetRegionRate(t *testing.T) {
	limiter := NewRegionLimiter(10, 10)
	limiter.SetRegionRate("9q8yyk", 0.1, 1)

	if !limiter.Allow("9q8yyk") {
		t.Error("first request should pass")
	}
	if limiter.Allow("9q8yyk") {
		t.Error("second request should fail under the strict override")
	}
	if !limiter.Allow("s14ed5") {
		t.Error("other buckets keep the default rate")
	}
}
