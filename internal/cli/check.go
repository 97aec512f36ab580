package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/landsafe/landsafe/internal/model"
	"github.com/landsafe/landsafe/internal/pipeline"
	"github.com/landsafe/landsafe/internal/worker"
)

var (
	checkOutJSON    string
	checkOutMD      string
	checkTimeout    time.Duration
	checkCandidates string
	noFooter        bool
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <claim-file>",
	Short: "Check one claim for spatial conflicts and grantor risk",
	Long: `Check runs the full conflict analysis for a single claim:
- Validate the claimed boundary polygon
- Compare against candidate claims in the store
- Classify overlap severity and double-sale suspicion
- Profile the grantor's dispute history
- Fold in the satellite verdict when an adapter is configured

Example:
  landsafe check claim.json
  landsafe check claim.json --json report.json --md report.md
  landsafe check claim.json --candidates region-claims.jsonl`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&checkOutJSON, "json", "-", "output JSON path (\"-\" for stdout)")
	checkCmd.Flags().StringVar(&checkOutMD, "md", "", "output Markdown path (optional)")
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", time.Minute, "overall check timeout")
	checkCmd.Flags().StringVar(&checkCandidates, "candidates", "", "claim intake file to load as candidates (memory store runs)")
	checkCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
}

// readClaimFile parses a single claim from a JSON file
func readClaimFile(path string) (model.Claim, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Claim{}, fmt.Errorf("read claim file: %w", err)
	}
	var claim model.Claim
	if err := json.Unmarshal(data, &claim); err != nil {
		return model.Claim{}, fmt.Errorf("parse claim file: %w", err)
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
	return claim, nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Output.IncludeFooter = !noFooter

	claim, err := readClaimFile(args[0])
	if err != nil {
		return err
	}

	engine, _, cleanup, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if checkCandidates != "" {
		candidates, err := worker.ReadClaimsFromFile(checkCandidates)
		if err != nil {
			return fmt.Errorf("load candidates: %w", err)
		}
		for _, c := range candidates {
			if err := engine.Store().PutClaim(ctx, c); err != nil {
				return fmt.Errorf("seed candidate %s: %w", c.ID, err)
			}
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Loaded %d candidate claims\n", len(candidates))
		}
	}

	report, err := engine.CheckClaim(ctx, claim)
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)
	if checkOutJSON != "" {
		if err := renderer.RenderJSON(report, checkOutJSON); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
	}
	if checkOutMD != "" {
		if err := renderer.RenderMarkdown(report, checkOutMD); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
	}
	if checkOutJSON != "-" {
		renderer.RenderSummary(report)
	}

	return nil
}
