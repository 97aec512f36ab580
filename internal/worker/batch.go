package worker

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/landsafe/landsafe/internal/geometry"
	"github.com/landsafe/landsafe/internal/model"
	"github.com/landsafe/landsafe/internal/pipeline"
	"github.com/landsafe/landsafe/internal/registry"
)

// Checker runs the conflict check for one claim
type Checker interface {
	CheckClaim(ctx context.Context, claim model.Claim) (*pipeline.CheckReport, error)
}

// CheckJob wraps one claim check for the pool
type CheckJob struct {
	Claim   model.Claim
	Checker Checker
	Regions *RegionLimiter
}

// Execute runs the check, gated by the claim's region bucket limiter
func (j *CheckJob) Execute(ctx context.Context) Result {
	if j.Regions != nil && len(j.Claim.Polygon.Points) > 0 {
		bucket := registry.RegionBucket(geometry.Centroid(j.Claim.Polygon))
		if err := j.Regions.Wait(ctx, bucket); err != nil {
			return &CheckResult{ClaimID: j.Claim.ID, Error: fmt.Errorf("region rate limit: %w", err)}
		}
	}
	report, err := j.Checker.CheckClaim(ctx, j.Claim)
	return &CheckResult{
		ClaimID: j.Claim.ID,
		Report:  report,
		Error:   err,
	}
}

// CheckResult is the outcome of one batched claim check
type CheckResult struct {
	ClaimID uuid.UUID
	Report  *pipeline.CheckReport
	Error   error
}

// GetError returns the check error, if any
func (r *CheckResult) GetError() error {
	return r.Error
}

// BatchProcessor checks many claims concurrently, throttled per region
type BatchProcessor struct {
	checker     Checker
	concurrency int
	regions     *RegionLimiter
}

// NewBatchProcessor creates a batch processor. A nil limiter disables the
// per-region throttle.
func NewBatchProcessor(checker Checker, concurrency int, regions *RegionLimiter) *BatchProcessor {
	return &BatchProcessor{
		checker:     checker,
		concurrency: concurrency,
		regions:     regions,
	}
}

// ProcessClaims runs every claim through the checker on the pool
func (b *BatchProcessor) ProcessClaims(ctx context.Context, claims []model.Claim) []*CheckResult {
	if len(claims) == 0 {
		return []*CheckResult{}
	}

	pool := NewPool(b.concurrency)
	pool.Start()

	for _, claim := range claims {
		pool.Submit(&CheckJob{
			Claim:   claim,
			Checker: b.checker,
			Regions: b.regions,
		})
	}

	results := pool.Wait()

	checkResults := make([]*CheckResult, len(results))
	for i, result := range results {
		checkResults[i] = result.(*CheckResult)
	}

	return checkResults
}

// ProcessFile reads an intake file and checks every claim in it
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*CheckResult, error) {
	claims, err := ReadClaimsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read claims: %w", err)
	}

	return b.ProcessClaims(ctx, claims), nil
}

// ReadClaimsFromFile parses a claim intake file: one JSON claim per line,
// blank lines and # comments skipped, duplicate claim IDs dropped. Claims
// without an ID get one assigned; intake defaults fill status and timestamp.
func ReadClaimsFromFile(filePath string) ([]model.Claim, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var claims []model.Claim
	seen := make(map[uuid.UUID]bool)

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var claim model.Claim
		if err := json.Unmarshal([]byte(line), &claim); err != nil {
			return nil, fmt.Errorf("line %d: parse claim: %w", lineNo, err)
		}

		if claim.ID == uuid.Nil {
			claim.ID = uuid.New()
		}
		if claim.Status == "" {
			claim.Status = model.StatusIntakePending
		}
		if claim.CreatedAt.IsZero() {
			claim.CreatedAt = time.Now().UTC()
		}

		if !seen[claim.ID] {
			seen[claim.ID] = true
			claims = append(claims, claim)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return claims, nil
}
