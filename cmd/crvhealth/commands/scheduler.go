package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/DiligentDeer/crvhealth/internal/scheduler"
	"github.com/DiligentDeer/crvhealth/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the daily scoring scheduler",
	Long: `Runs the scheduler process. The daily scoring job refreshes every
market's breakdown at 01:00 UTC.

Example:
  go run ./cmd/crvhealth scheduler
  go run ./cmd/crvhealth scheduler --run-now`,
	RunE: runScheduler,
}

var runNow bool

func init() {
	rootCmd.AddCommand(schedulerCmd)

	schedulerCmd.Flags().BoolVar(&runNow, "run-now", false, "trigger the scoring job immediately on start")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	sched := scheduler.New(a.logger)
	scoringJob := jobs.NewScoringJob(a.runner, a.registry, a.bars, a.logger)
	if err := sched.AddJob(scoringJob); err != nil {
		return fmt.Errorf("add scoring job: %w", err)
	}

	sched.Start()
	defer sched.Stop()

	if runNow {
		if err := sched.RunJob(scoringJob.Name()); err != nil {
			return err
		}
	}

	fmt.Println("Scheduler running, press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	return nil
}
