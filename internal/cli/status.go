package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/landsafe/landsafe/internal/model"
)

var statusTransitionTo string

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status <claim-id>",
	Short: "Show a claim's pipeline state and full status history",
	Long: `Status prints the claim's current lifecycle stage and the append-only
transition history behind it.

With --to it instead requests a transition. SPATIAL_LOCKED cannot be
requested this way; it is only reachable through 'landsafe protect'.

Example:
  landsafe status 6f1c2a90-...
  landsafe status 6f1c2a90-... --to AI_VERIFIED`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVar(&statusTransitionTo, "to", "", "request a transition to this status")
}

func runStatus(cmd *cobra.Command, args []string) error {
	claimID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid claim ID: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
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

	if statusTransitionTo != "" {
		to := model.PipelineStatus(statusTransitionTo)
		if err := engine.Transition(ctx, claimID, to, "cli", "operator request"); err != nil {
			return fmt.Errorf("transition failed: %w", err)
		}
		fmt.Printf("✓ Claim %s moved to %s\n", claimID, to)
	}

	state, err := engine.PipelineState(ctx, claimID)
	if err != nil {
		return fmt.Errorf("load pipeline state: %w", err)
	}

	fmt.Printf("Claim:  %s\n", state.ClaimID)
	fmt.Printf("Status: %s\n", state.Status)
	if len(state.StatusHistory) == 0 {
		fmt.Println("History: (no transitions recorded)")
		return nil
	}
	fmt.Println("History:")
	for _, tr := range state.StatusHistory {
		fmt.Printf("  %s  %s -> %s  by %s: %s\n",
			tr.Timestamp.UTC().Format(time.RFC3339), tr.From, tr.To, tr.TriggeredBy, tr.Reason)
	}
	return nil
}
