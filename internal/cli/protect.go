package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/landsafe/landsafe/internal/registry"
)

var (
	protectTimeout     time.Duration
	protectTriggeredBy string
)

// protectCmd represents the protect command
var protectCmd = &cobra.Command{
	Use:   "protect <claim-id>",
	Short: "Obtain a priority-of-sale record for a verified claim",
	Long: `Protect locks the claimed region for one claim. The claim must be
AI_VERIFIED; on success it moves to SPATIAL_LOCKED and receives a
tamper-evident priority hash.

Among concurrent requests over materially overlapping ground, exactly one
claim wins the region. Retrying a claim that already holds its record is
safe and returns the existing record.

Example:
  landsafe protect 6f1c2a90-... --dsn postgres://...`,
	Args: cobra.ExactArgs(1),
	RunE: runProtect,
}

func init() {
	rootCmd.AddCommand(protectCmd)

	protectCmd.Flags().DurationVar(&protectTimeout, "timeout", 30*time.Second, "protect timeout")
	protectCmd.Flags().StringVar(&protectTriggeredBy, "triggered-by", "cli", "actor recorded in the status history")
}

func runProtect(cmd *cobra.Command, args []string) error {
	claimID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid claim ID: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), protectTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	engine, _, cleanup, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	rec, err := engine.ProtectClaim(ctx, claimID, protectTriggeredBy)
	if errors.Is(err, registry.ErrRegionConflict) {
		fmt.Fprintf(os.Stderr, "✗ Region conflict: %v\n", err)
		return err
	}
	if err != nil {
		return fmt.Errorf("protect failed: %w", err)
	}

	fmt.Printf("✓ Claim protected\n")
	fmt.Printf("  Claim:         %s\n", rec.ClaimID)
	fmt.Printf("  Region bucket: %s\n", rec.RegionBucket)
	fmt.Printf("  Priority hash: %s\n", rec.PriorityHash)
	fmt.Printf("  Locked at:     %s\n", rec.LockedAt.UTC().Format(time.RFC3339))
	return nil
}
