package weighting

// SummaryStats aggregates a computed composition, with averages
// weighted by each constituent's final weight.
type SummaryStats struct {
	NumConstituents        int     `json:"num_constituents"`
	TotalWeight            float64 `json:"total_weight"`
	WeightedAvgMarketCap   float64 `json:"weighted_avg_market_cap"`
	WeightedAvgSpaceRevPct float64 `json:"weighted_avg_space_rev_pct"`
	WeightedAvgGrowth      float64 `json:"weighted_avg_growth"`
	MaxWeight              float64 `json:"max_weight"`
	MinWeight              float64 `json:"min_weight"`
}

// Summarize computes summary statistics for a composition. Returns nil
// for an empty composition so callers can distinguish "no data" from
// all-zero aggregates.
func Summarize(constituents []Constituent) *SummaryStats {
	if len(constituents) == 0 {
		return nil
	}

	stats := &SummaryStats{
		NumConstituents: len(constituents),
		MaxWeight:       constituents[0].Weight,
		MinWeight:       constituents[0].Weight,
	}

	for _, c := range constituents {
		stats.TotalWeight += c.Weight
		stats.WeightedAvgMarketCap += c.MarketCap * c.Weight
		stats.WeightedAvgSpaceRevPct += c.SpaceRevenuePct * c.Weight
		stats.WeightedAvgGrowth += c.RevenueGrowthRate * c.Weight

		if c.Weight > stats.MaxWeight {
			stats.MaxWeight = c.Weight
		}
		if c.Weight < stats.MinWeight {
			stats.MinWeight = c.Weight
		}
	}

	return stats
}
