package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/DiligentDeer/crvhealth/internal/contracts"
)

// scoreCmd represents the score command
var scoreCmd = &cobra.Command{
	Use:   "score [market]",
	Short: "Evaluate market health scores",
	Long: `Evaluates the health score breakdown for one market, or for every
registered market when no argument is given.

Example:
  go run ./cmd/crvhealth score wstETH
  go run ./cmd/crvhealth score --json
  go run ./cmd/crvhealth score`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScore,
}

var scoreJSON bool

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().BoolVar(&scoreJSON, "json", false, "emit breakdowns as JSON")
}

func runScore(cmd *cobra.Command, args []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	markets := a.registry.All()
	if len(args) == 1 {
		market, ok := a.registry.ByName(args[0])
		if !ok {
			market, ok = a.registry.ByController(args[0])
		}
		if !ok {
			return fmt.Errorf("unknown market %q", args[0])
		}
		markets = []contracts.Market{market}
	}

	results := a.runner.EvaluateAll(ctx, markets)

	if scoreJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		for _, res := range results {
			if res.Err != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n", res.Market.Name, res.Err)
				continue
			}
			if err := enc.Encode(res.Breakdown); err != nil {
				return err
			}
		}
		return nil
	}

	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", res.Market.Name, res.Err)
			continue
		}
		printBreakdown(res.Breakdown)
	}
	return nil
}

func printBreakdown(b *contracts.ScoreBreakdown) {
	fmt.Printf("\n=== %s ===\n", b.Market)
	if b.Partial {
		fmt.Println("composite: n/a (partial breakdown)")
	} else {
		fmt.Printf("composite: %.4f (%s)\n", b.Composite, b.Band)
	}
	fmt.Printf("weights: v%s  run: %s\n\n", b.WeightsVersion, b.RunID)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CATEGORY\tSCORE\tWEIGHT\tNOTE")
	for _, rec := range b.Categories {
		if rec.Valid {
			fmt.Fprintf(w, "%s\t%.4f\t%.0f\t\n", rec.Name, rec.Score, rec.Weight)
		} else {
			fmt.Fprintf(w, "%s\tn/a\t%.0f\t%s\n", rec.Name, rec.Weight, rec.Reason)
		}
	}
	w.Flush()
}
