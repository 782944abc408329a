package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/futureeconomy/indices/internal/scheduler/jobs"
	"github.com/futureeconomy/indices/internal/universe"
)

// dataCmd groups ingestion and classification commands.
var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Data ingestion and classification",
}

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover candidate tickers",
	Long: `Assemble the candidate universe from the seed list, the stock
screener and Polygon keyword search, and print it.`,
	RunE: runDiscover,
}

var classifyCmd = &cobra.Command{
	Use:   "classify [ticker...]",
	Short: "Classify companies' space revenue exposure",
	Long: `Classify one or more tickers with the AI classifier and save
the results.

Example:
  go run ./cmd/indices data classify RKLB ASTS IRDM`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClassify,
}

var classifyAllCmd = &cobra.Command{
	Use:   "classify-all",
	Short: "Rediscover and classify the whole universe",
	RunE:  runClassifyAll,
}

var updateFundamentalsCmd = &cobra.Command{
	Use:   "update-fundamentals",
	Short: "Refresh fundamentals for all tracked companies",
	RunE:  runUpdateFundamentals,
}

func init() {
	rootCmd.AddCommand(dataCmd)
	dataCmd.AddCommand(discoverCmd)
	dataCmd.AddCommand(classifyCmd)
	dataCmd.AddCommand(classifyAllCmd)
	dataCmd.AddCommand(updateFundamentalsCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	polygonClient, err := a.newPolygonClient()
	if err != nil {
		return err
	}

	discoverer := universe.NewDiscoverer(a.httpClient, polygonClient, a.log)
	candidates, err := discoverer.Discover(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("%-8s %-35s %s\n", "TICKER", "NAME", "SOURCE")
	for _, c := range candidates {
		fmt.Printf("%-8s %-35s %s\n", c.Ticker, c.Name, c.Source)
	}
	fmt.Printf("\n%d candidates\n", len(candidates))
	return nil
}

func runClassify(cmd *cobra.Command, args []string) error {
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

	job := jobs.NewClassificationJob(nil, clf, a.repo, polygonClient, a.log)

	for _, ticker := range args {
		ticker = strings.ToUpper(ticker)
		result, err := job.ClassifyTicker(cmd.Context(), ticker)
		if err != nil {
			fmt.Printf("%s: FAILED (%v)\n", ticker, err)
			continue
		}

		fmt.Printf("%s: space revenue %.0f%%, confidence %s, segments [%s]\n",
			ticker, result.SpaceRevenuePct, result.Confidence, strings.Join(result.Segments, ", "))
		fmt.Printf("  %s\n", result.Reasoning)
	}

	return nil
}

func runClassifyAll(cmd *cobra.Command, args []string) error {
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
	job := jobs.NewClassificationJob(discoverer, clf, a.repo, polygonClient, a.log)

	return job.Run(cmd.Context())
}

func runUpdateFundamentals(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	polygonClient, err := a.newPolygonClient()
	if err != nil {
		return err
	}

	return jobs.NewFundamentalsJob(a.repo, polygonClient, a.log).Run(cmd.Context())
}
