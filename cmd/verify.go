package cmd

import (
	"context"
	"fmt"

	"github.com/Rana718/pizzaseed/internal/config"
	"github.com/Rana718/pizzaseed/internal/verify"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var verifyOpts = verify.Options{GuestRate: -1, Tolerance: verify.DefaultTolerance}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check a populated database for consistency",
	Long: `Check the populated tables:
- every order's total_amount equals the sum of its order items
- masked customer emails and phone numbers are unique
- no ingredient is linked twice to the same menu item
- the share of guest orders is near --guest-rate (when given)`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		ctx := context.Background()
		adapter, err := openDatabase(ctx, cfg)
		if err != nil {
			return err
		}
		defer adapter.Close()

		report, err := verify.Check(ctx, adapter, verifyOpts)
		if err != nil {
			return err
		}

		color.Cyan("🔍 Checked %d orders (%d guest orders)", report.Orders, report.GuestOrders)
		if report.GuestRateChecked {
			fmt.Printf("   guest rate: %.3f\n", report.GuestRate)
		}

		violations := report.Violations()
		if len(violations) == 0 {
			color.Green("✅ All checks passed")
			return nil
		}
		for _, v := range violations {
			color.Red("  ❌ %s", v)
		}
		return fmt.Errorf("%d checks failed", len(violations))
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().Float64Var(&verifyOpts.GuestRate, "guest-rate", -1, "Expected share of guest orders (negative skips the check)")
	verifyCmd.Flags().Float64Var(&verifyOpts.Tolerance, "tolerance", verify.DefaultTolerance, "Allowed deviation from --guest-rate")
}
