package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// grantorCmd represents the grantor command
var grantorCmd = &cobra.Command{
	Use:   "grantor <name>",
	Short: "Profile a grantor's claim history and dispute risk",
	Long: `Grantor aggregates every claim naming the seller and reports the
dispute rate, risk level, and red-flag status. The profile prioritizes
human review; it never blocks a claim on its own.

Example:
  landsafe grantor "Chief Okafor" --dsn postgres://...`,
	Args: cobra.ExactArgs(1),
	RunE: runGrantor,
}

func init() {
	rootCmd.AddCommand(grantorCmd)
}

func runGrantor(cmd *cobra.Command, args []string) error {
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

	res, err := engine.ProfileGrantor(ctx, args[0])
	if err != nil {
		return fmt.Errorf("profile failed: %w", err)
	}

	fmt.Printf("Grantor:      %s\n", res.GrantorName)
	fmt.Printf("Claims:       %d total, %d disputed, %d rejected\n", res.TotalClaims, res.DisputedClaims, res.RejectedClaims)
	fmt.Printf("Dispute rate: %.2f\n", res.DisputeRate)
	fmt.Printf("Risk level:   %s\n", res.RiskLevel)
	if res.IsRedFlag {
		fmt.Printf("RED FLAG:     elevated dispute pattern across claim history\n")
	}
	return nil
}
