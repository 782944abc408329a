package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/futureeconomy/indices/internal/index"
	"github.com/futureeconomy/indices/internal/weighting"
)

// DefaultIndexName is the flagship index.
const DefaultIndexName = "space-infrastructure"

// indexCmd groups index construction commands.
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index calculation and inspection",
}

var calculateCmd = &cobra.Command{
	Use:   "calculate",
	Short: "Calculate the index composition",
	Long: `Calculate the factor-weighted composition from the classified
universe. Without --save the result is printed only.

Example:
  go run ./cmd/indices index calculate
  go run ./cmd/indices index calculate --save`,
	RunE: runCalculate,
}

var listIndexesCmd = &cobra.Command{
	Use:   "list",
	Short: "List indices and their latest rebalance",
	RunE:  runListIndexes,
}

var (
	calcIndexName string
	calcSave      bool
	calcMinScore  float64
)

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.AddCommand(calculateCmd)
	indexCmd.AddCommand(listIndexesCmd)

	calculateCmd.Flags().StringVar(&calcIndexName, "name", DefaultIndexName, "index name")
	calculateCmd.Flags().BoolVar(&calcSave, "save", false, "persist the composition")
	calculateCmd.Flags().Float64Var(&calcMinScore, "min-space-score", index.DefaultMinSpaceScore, "inclusion threshold")
}

func runCalculate(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	builder := index.NewBuilder(a.repo, weighting.DefaultConfig(), a.log).WithMinSpaceScore(calcMinScore)

	var result *index.BuildResult
	if calcSave {
		result, err = builder.BuildAndSave(cmd.Context(), calcIndexName, time.Now().UTC().Truncate(24*time.Hour))
	} else {
		result, err = builder.Build(cmd.Context(), calcIndexName)
	}
	if err != nil {
		return err
	}

	fmt.Printf("%s (%d constituents)\n\n", result.IndexName, len(result.Constituents))
	fmt.Printf("%-5s %-8s %-30s %8s %10s %8s\n", "RANK", "TICKER", "NAME", "WEIGHT", "SCORE", "SPACE%")
	for _, c := range result.Constituents {
		fmt.Printf("%-5d %-8s %-30s %7.2f%% %10.2f %7.0f%%\n",
			c.Rank, c.Ticker, c.Name, c.Weight*100, c.RawScore, c.SpaceRevenuePct)
	}

	if result.Stats != nil {
		fmt.Printf("\nWeighted avg market cap: %.1fB\n", result.Stats.WeightedAvgMarketCap/1e9)
		fmt.Printf("Weighted avg space revenue: %.1f%%\n", result.Stats.WeightedAvgSpaceRevPct)
		fmt.Printf("Weighted avg growth: %.1f%%\n", result.Stats.WeightedAvgGrowth)
		fmt.Printf("Weight range: %.2f%% - %.2f%%\n", result.Stats.MinWeight*100, result.Stats.MaxWeight*100)
	}

	if calcSave {
		fmt.Printf("\nSaved as %s rebalance %s\n", calcIndexName, result.RebalanceDate.Format("2006-01-02"))
	}

	return nil
}

func runListIndexes(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	infos, err := a.repo.ListIndexes(cmd.Context())
	if err != nil {
		return err
	}

	if len(infos) == 0 {
		fmt.Println("No indices found. Run: indices index calculate --save")
		return nil
	}

	fmt.Printf("%-30s %12s %15s %s\n", "NAME", "CONSTITUENTS", "MARKET CAP", "LAST REBALANCE")
	for _, info := range infos {
		rebalance := "-"
		if info.LastRebalance != nil {
			rebalance = info.LastRebalance.Format("2006-01-02")
		}
		fmt.Printf("%-30s %12d %14.1fB %s\n",
			info.Name, info.NumConstituents, info.TotalMarketCap/1e9, rebalance)
	}

	return nil
}
