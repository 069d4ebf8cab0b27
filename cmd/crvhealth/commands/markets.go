package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// marketsCmd represents the markets command
var marketsCmd = &cobra.Command{
	Use:   "markets",
	Short: "List the registered mint markets",
	Long: `Lists every market in the registry with its derived LTV bounds.

Example:
  go run ./cmd/crvhealth markets`,
	RunE: runMarkets,
}

func init() {
	rootCmd.AddCommand(marketsCmd)
}

func runMarkets(cmd *cobra.Command, args []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MARKET\tCONTROLLER\tA\tLIQ DISCOUNT\tMAX LTV\tMIN LTV")
	for _, m := range a.registry.All() {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.3f\t%.4f\t%.4f\n",
			m.Name, m.Key(), m.A, m.LiqDiscount, m.MaxLTV, m.MinLTV)
	}
	return w.Flush()
}
