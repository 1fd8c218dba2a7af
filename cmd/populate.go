package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"

	"github.com/Rana718/pizzaseed/internal/config"
	"github.com/Rana718/pizzaseed/internal/database"
	"github.com/Rana718/pizzaseed/internal/events"
	"github.com/Rana718/pizzaseed/internal/seeder"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var populateOpts = seeder.DefaultOptions()

var populateCmd = &cobra.Command{
	Use:   "populate",
	Short: "Generate and load a pizzeria dataset",
	Long: `Generate stores, customers, ingredients, menu items, item ingredients,
orders and order items and load them in one transaction.

Customer emails and phone numbers are masked before they are written. After
the order items are inserted every order's total_amount is recomputed from
its lines. A failure at any stage rolls the whole run back.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		adapter, err := openDatabase(ctx, cfg)
		if err != nil {
			return err
		}
		defer adapter.Close()

		console := events.NewConsole(cmd.OutOrStdout(), verbose)
		summary, err := seeder.NewSeeder(adapter, populateOpts, console).Run(ctx)
		if err != nil {
			return err
		}

		printSummary(summary)
		return nil
	},
}

func openDatabase(ctx context.Context, cfg *config.Config) (database.DatabaseAdapter, error) {
	dbURL, err := cfg.DatabaseURL()
	if err != nil {
		return nil, err
	}
	return database.Open(ctx, cfg.Provider, dbURL, database.Options{Schema: cfg.Schema})
}

func printSummary(s *seeder.Summary) {
	fmt.Println()
	color.Cyan("📊 Run %s (seed %d)", s.RunID, s.Seed)

	tables := make([]string, 0, len(s.Rows))
	for table := range s.Rows {
		tables = append(tables, table)
	}
	sort.Strings(tables)
	for _, table := range tables {
		fmt.Printf("   %-18s %d\n", table, s.Rows[table])
	}

	color.Green("💰 Revenue: %s across %d orders (%d order items)",
		s.Reconcile.Revenue.StringFixed(2), s.Reconcile.Orders, s.Reconcile.OrderItems)
}

func init() {
	rootCmd.AddCommand(populateCmd)

	f := populateCmd.Flags()
	f.IntVar(&populateOpts.Stores, "stores", populateOpts.Stores, "Number of stores to create")
	f.IntVar(&populateOpts.Customers, "customers", populateOpts.Customers, "Number of customers to create")
	f.IntVar(&populateOpts.Ingredients, "ingredients", populateOpts.Ingredients, "Number of ingredients to create")
	f.IntVar(&populateOpts.MenuItems, "menu", populateOpts.MenuItems, "Number of menu items to create")
	f.IntVar(&populateOpts.Orders, "orders", populateOpts.Orders, "Number of orders to create")
	f.Float64Var(&populateOpts.GuestRate, "guest-rate", populateOpts.GuestRate, "Share of orders placed without a customer (0..1)")
	f.Float64Var(&populateOpts.AvgItemsPerOrder, "avg-items", populateOpts.AvgItemsPerOrder, "Mean number of lines per order")
	f.Int64Var(&populateOpts.Seed, "seed", 0, "Random seed (0 picks one from the clock)")
}
