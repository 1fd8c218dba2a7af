package cmd

import (
	"fmt"

	"github.com/Rana718/pizzaseed/internal/config"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
	Version = "0.3.0"
)

func showBanner() {
	red := color.New(color.FgRed, color.Bold)

	banner := []string{
		"╔══════════════════════════════════════════════╗",
		"║        🍕  P I Z Z A S E E D  🍕             ║",
		"║                                              ║",
		"║   realistic pizzeria data for your database  ║",
		"╚══════════════════════════════════════════════╝",
	}
	for _, line := range banner {
		red.Println(line)
	}

	fmt.Print("              ")
	color.New(color.FgCyan, color.Bold).Print("Version: ")
	color.New(color.FgYellow, color.Bold).Printf("%s\n", Version)
}

var rootCmd = &cobra.Command{
	Use:   "pizzaseed",
	Short: "Populate a pizzeria database with realistic, consistent sample data",
	Long: `
pizzaseed generates stores, customers, ingredients, menu items, orders and
order items, writes them in dependency order inside one transaction, and
reconciles every order's total with its line items.

Database Support:
- PostgreSQL (default, optional search_path schema)
- MySQL
- SQLite`,
	SilenceUsage: true,

	Run: func(cmd *cobra.Command, args []string) {
		showBanner()
		fmt.Println()
		cmd.Help()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(loadEnv)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "YAML connection config")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "V", false, "Show per-row data quality warnings")
}

func loadEnv() {
	if err := godotenv.Load(); err != nil {
		godotenv.Load(".env.local")
	}
}
