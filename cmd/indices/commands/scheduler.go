package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/futureeconomy/indices/internal/index"
	"github.com/futureeconomy/indices/internal/newsletter"
	"github.com/futureeconomy/indices/internal/scheduler"
	"github.com/futureeconomy/indices/internal/scheduler/jobs"
	"github.com/futureeconomy/indices/internal/universe"
	"github.com/futureeconomy/indices/internal/weighting"
)

// schedulerCmd runs the recurring pipeline.
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the scheduled pipeline",
	Long: `Run the scheduler with all pipeline jobs:

  fundamentals_refresh       - weekday mornings
  universe_classification    - Sunday mornings
  index_valuation_<name>     - weekday evenings after the close
  index_rebalance_<name>     - first day of each quarter

Example:
  go run ./cmd/indices scheduler`,
	RunE: runScheduler,
}

var schedulerIndexName string

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.Flags().StringVar(&schedulerIndexName, "name", DefaultIndexName, "index name")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	polygonClient, err := a.newPolygonClient()
	if err != nil {
		return err
	}
	clf, err := a.newClassifier()
	if err != nil {
		return err
	}

	discoverer := universe.NewDiscoverer(a.httpClient, polygonClient, a.log)
	builder := index.NewBuilder(a.repo, weighting.DefaultConfig(), a.log)

	// Newsletter delivery is optional, keyed off config.
	var ck *newsletter.ConvertKitClient
	if a.cfg.ConvertKit.APIKey != "" {
		ck, err = a.newConvertKit()
		if err != nil {
			return err
		}
	}

	s := scheduler.New(a.log)
	for _, job := range []scheduler.Job{
		jobs.NewFundamentalsJob(a.repo, polygonClient, a.log),
		jobs.NewClassificationJob(discoverer, clf, a.repo, polygonClient, a.log),
		jobs.NewValuationJob(a.repo, polygonClient, schedulerIndexName, a.log),
		jobs.NewRebalanceJob(builder, a.repo, ck, schedulerIndexName, a.log),
	} {
		if err := s.AddJob(job); err != nil {
			return err
		}
	}

	s.Start()
	defer s.Stop()

	fmt.Println("Scheduler running. Jobs:")
	for _, name := range s.Jobs() {
		fmt.Printf("  %s\n", name)
	}
	fmt.Println("Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	return nil
}
