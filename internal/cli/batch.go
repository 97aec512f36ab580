package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/landsafe/landsafe/internal/model"
	"github.com/landsafe/landsafe/internal/pipeline"
	"github.com/landsafe/landsafe/internal/worker"
)

var (
	batchConcurrency int
	batchOutputDir   string
	batchTimeout     time.Duration
	batchSeedStore   bool
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <intake-file>",
	Short: "Check a file of claims in parallel",
	Long: `Batch reads a claim intake file (one JSON claim per line, # comments
allowed, duplicate IDs dropped) and runs the conflict check for every
claim concurrently. Each claim gets a JSON and Markdown report.

With --seed the claims are loaded into the store first, so claims within
the batch are checked against each other, not only against prior claims.

Example:
  landsafe batch intake.jsonl
  landsafe batch intake.jsonl --concurrency 10 --output-dir ./reports
  landsafe batch intake.jsonl --seed`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().StringVar(&batchOutputDir, "output-dir", "./landsafe-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&batchSeedStore, "seed", false, "load the batch into the store before checking")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if batchConcurrency > 0 {
		cfg.Concurrency.BatchWorkers = batchConcurrency
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Landsafe Batch Check\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.BatchWorkers)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", batchOutputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(batchOutputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	engine, _, cleanup, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	claims, err := worker.ReadClaimsFromFile(file)
	if err != nil {
		return fmt.Errorf("read claims: %w", err)
	}
	fmt.Fprintf(os.Stderr, "✓ Loaded %d claims\n", len(claims))

	if batchSeedStore {
		for _, c := range claims {
			if err := engine.Store().PutClaim(ctx, c); err != nil {
				return fmt.Errorf("seed claim %s: %w", c.ID, err)
			}
		}
		fmt.Fprintf(os.Stderr, "✓ Seeded store with the batch\n")
	}

	fmt.Fprintf(os.Stderr, "\n⚙️  Checking claims with %d workers...\n\n", cfg.Concurrency.BatchWorkers)

	regions := worker.NewRegionLimiter(cfg.Concurrency.RegionRatePerSec, cfg.Concurrency.RegionRateBurst)
	processor := worker.NewBatchProcessor(engine, cfg.Concurrency.BatchWorkers, regions)
	results := processor.ProcessClaims(ctx, claims)

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)
	successCount := 0
	failureCount := 0
	reviewCount := 0

	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.ClaimID, result.Error)
			continue
		}
		successCount++
		if result.Report.Conflict.RequiresHITL {
			reviewCount++
		}

		base := result.ClaimID.String()
		if err := renderer.RenderJSON(result.Report, filepath.Join(batchOutputDir, base+".json")); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", result.ClaimID, err)
			continue
		}
		if err := renderer.RenderMarkdown(result.Report, filepath.Join(batchOutputDir, base+".md")); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write Markdown: %v\n", result.ClaimID, err)
			continue
		}

		marker := "✓"
		if result.Report.Conflict.Status != model.ConflictClear {
			marker = "!"
		}
		fmt.Fprintf(os.Stderr, "%s %s: %s (%d conflicts)\n",
			marker, result.ClaimID, result.Report.Conflict.Status, len(result.Report.Conflict.Conflicts))
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:          %d claims\n", len(results))
	fmt.Fprintf(os.Stderr, "  Checked:        %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:       %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Needs review:   %d\n", reviewCount)
	fmt.Fprintf(os.Stderr, "  Output:         %s\n", batchOutputDir)
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}
