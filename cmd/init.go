package cmd

import (
	"errors"
	"fmt"

	"github.com/Rana718/pizzaseed/internal/config"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a sample connection config",
	Long: `Write a sample YAML connection config to the --config path
(dbconfig.yaml by default). An existing file is never overwritten.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.WriteTemplate(cfgFile); err != nil {
			if errors.Is(err, config.ErrConfigExists) {
				color.Yellow("⚠️  %s already exists, leaving it untouched", cfgFile)
				return nil
			}
			return fmt.Errorf("failed to write config: %w", err)
		}

		color.Green("✅ Wrote %s", cfgFile)
		fmt.Println()
		color.Cyan("Next steps:")
		fmt.Println("  1. Fill in host, port, user, password and dbname")
		fmt.Println("  2. Create the tables from db/schema/pizzeria.sql")
		fmt.Println("  3. Run: pizzaseed populate")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
