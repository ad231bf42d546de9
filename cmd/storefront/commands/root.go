package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	dbURL     string
	redisAddr string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "storefront",
	Short: "Storefront - retail order-lifecycle engine on PostgreSQL",
	Long: `Storefront manages a retail catalog, customer carts, orders and sales
on PostgreSQL, enforcing the lifecycle invariants procedurally: atomic
stock reservation, frozen line prices, reconciled totals and a strict
order status state machine.

Commands:
  migrate  - Create or reset the database schema
  seed     - Load a small sample catalog
  demo     - Run a full cart-to-sale checkout against the database`,
	Version: "1.2.0",
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbURL, "db", "", "Database connection URL (defaults to DATABASE_URL)")
	rootCmd.PersistentFlags().StringVar(&redisAddr, "redis", "", "Redis address for the product cache (defaults to REDIS_ADDR)")
}
