package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	registryPath string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "crvhealth",
	Short: "crvUSD mint market risk metrics and health scoring",
	Long: `crvhealth CLI

Risk-metrics engine for crvUSD collateralized-debt markets: price
volatility, tail-drop probability and beta from daily OHLC history,
normalized and aggregated into a weighted composite health score per
market.

Usage:
  go run ./cmd/crvhealth [command]

Examples:
  go run ./cmd/crvhealth markets
  go run ./cmd/crvhealth score wstETH
  go run ./cmd/crvhealth api
  go run ./cmd/crvhealth scheduler`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&registryPath, "registry", "", "market registry file (default from REGISTRY_PATH)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
