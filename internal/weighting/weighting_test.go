package weighting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fiveCompanyBatch is the reference universe used across tests.
func fiveCompanyBatch() []CompanyMetrics {
	return []CompanyMetrics{
		{Ticker: "ASTS", Name: "AST SpaceMobile", MarketCap: 19.2e9, SpaceRevenuePct: 90, RevenueGrowthRate: 120, Segments: "Satellites"},
		{Ticker: "RKLB", Name: "Rocket Lab", MarketCap: 25.0e9, SpaceRevenuePct: 80, RevenueGrowthRate: 50, Segments: "Launch"},
		{Ticker: "IRDM", Name: "Iridium", MarketCap: 1.8e9, SpaceRevenuePct: 50, RevenueGrowthRate: 5, Segments: "Satellites"},
		{Ticker: "GSAT", Name: "Globalstar", MarketCap: 6.4e9, SpaceRevenuePct: 30, RevenueGrowthRate: 15, Segments: "Satellites"},
		{Ticker: "SPCE", Name: "Virgin Galactic", MarketCap: 0.2e9, SpaceRevenuePct: 50, RevenueGrowthRate: -20, Segments: "Launch"},
	}
}

func TestNewConfig(t *testing.T) {
	tests := []struct {
		name      string
		spaceRev  float64
		marketCap float64
		growth    float64
		wantErr   bool
	}{
		{"default split", 0.4, 0.3, 0.3, false},
		{"equal split", 0.34, 0.33, 0.33, false},
		{"sums to 0.8", 0.4, 0.3, 0.1, true},
		{"sums to 1.2", 0.5, 0.4, 0.3, true},
		{"within tolerance", 0.4, 0.3, 0.3005, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConfig(tt.spaceRev, tt.marketCap, tt.growth, 0.10, 0.01)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 0.4, cfg.SpaceRevenueWeight)
	assert.Equal(t, 0.3, cfg.MarketCapWeight)
	assert.Equal(t, 0.3, cfg.GrowthWeight)
	assert.Equal(t, 0.10, cfg.MaxPositionSize)
	assert.Equal(t, 0.01, cfg.MinPositionSize)

	// Two default configs must be independent values, not shared state
	other := DefaultConfig()
	other.GrowthWeight = 0.5
	assert.Equal(t, 0.3, cfg.GrowthWeight)
}

func TestCalculateWeights_ReferenceBatch(t *testing.T) {
	cfg := DefaultConfig()
	constituents := cfg.CalculateWeights(fiveCompanyBatch())

	require.Len(t, constituents, 5)

	totalWeight := 0.0
	for _, c := range constituents {
		totalWeight += c.Weight
	}
	assert.InDelta(t, 1.0, totalWeight, 0.001)

	// Ranks are dense, 1-based and aligned with descending weight
	for i, c := range constituents {
		assert.Equal(t, i+1, c.Rank)
	}
	for i := 0; i < len(constituents)-1; i++ {
		assert.GreaterOrEqual(t, constituents[i].Weight, constituents[i+1].Weight)
	}

	// Rank 1 holds the largest weight in the output
	for _, c := range constituents[1:] {
		assert.LessOrEqual(t, c.Weight, constituents[0].Weight)
	}

	// Position bounds are soft: clamping happens before renormalization,
	// so with few companies weights may exceed MaxPositionSize. Only
	// positivity and <1.0 hold unconditionally.
	for _, c := range constituents {
		assert.Greater(t, c.Weight, 0.0)
		assert.Less(t, c.Weight, 1.0)
	}
}

func TestCalculateWeights_CopiesInputFields(t *testing.T) {
	cfg := DefaultConfig()
	constituents := cfg.CalculateWeights(fiveCompanyBatch())

	byTicker := make(map[string]Constituent)
	for _, c := range constituents {
		byTicker[c.Ticker] = c
	}

	asts := byTicker["ASTS"]
	assert.Equal(t, "AST SpaceMobile", asts.Name)
	assert.Equal(t, 19.2e9, asts.MarketCap)
	assert.Equal(t, 90.0, asts.SpaceRevenuePct)
	assert.Equal(t, 120.0, asts.RevenueGrowthRate)
	assert.Equal(t, "Satellites", asts.Segments)
	assert.Greater(t, asts.RawScore, 0.0)
	assert.LessOrEqual(t, asts.RawScore, 100.0)
}

func TestCalculateWeights_DoesNotMutateInput(t *testing.T) {
	cfg := DefaultConfig()
	batch := fiveCompanyBatch()
	original := fiveCompanyBatch()

	cfg.CalculateWeights(batch)

	assert.Equal(t, original, batch)
}

func TestCalculateWeights_EmptyBatch(t *testing.T) {
	cfg := DefaultConfig()

	constituents := cfg.CalculateWeights(nil)
	assert.Empty(t, constituents)

	assert.Nil(t, Summarize(constituents))
}

func TestCalculateWeights_SingleCompany(t *testing.T) {
	cfg := DefaultConfig()
	constituents := cfg.CalculateWeights([]CompanyMetrics{
		{Ticker: "RKLB", Name: "Rocket Lab", MarketCap: 25e9, SpaceRevenuePct: 80, RevenueGrowthRate: 50},
	})

	require.Len(t, constituents, 1)
	assert.Equal(t, 1, constituents[0].Rank)
	// A single clamped weight renormalizes back to exactly 1.0
	assert.InDelta(t, 1.0, constituents[0].Weight, 1e-9)
}

func TestCalculateWeights_ZeroTotalScoreFallsBackToEqualWeight(t *testing.T) {
	// All factor weight on space revenue, every company at zero: the
	// proportional allocation is undefined and the engine equal-weights.
	cfg, err := NewConfig(1.0, 0.0, 0.0, 0.10, 0.01)
	require.NoError(t, err)

	batch := []CompanyMetrics{
		{Ticker: "AAA", SpaceRevenuePct: 0, MarketCap: 1e9, RevenueGrowthRate: 10},
		{Ticker: "BBB", SpaceRevenuePct: 0, MarketCap: 2e9, RevenueGrowthRate: 20},
		{Ticker: "CCC", SpaceRevenuePct: 0, MarketCap: 3e9, RevenueGrowthRate: 30},
	}

	constituents := cfg.CalculateWeights(batch)
	require.Len(t, constituents, 3)

	totalWeight := 0.0
	for _, c := range constituents {
		assert.InDelta(t, 1.0/3.0, c.Weight, 1e-9)
		totalWeight += c.Weight
	}
	assert.InDelta(t, 1.0, totalWeight, 0.001)
}

func TestCalculateWeights_EqualWeightTieBreakKeepsBatchOrder(t *testing.T) {
	cfg := DefaultConfig()

	// Identical companies collapse every factor to the neutral value,
	// producing exactly equal weights.
	batch := []CompanyMetrics{
		{Ticker: "AAA", MarketCap: 5e9, SpaceRevenuePct: 60, RevenueGrowthRate: 20},
		{Ticker: "BBB", MarketCap: 5e9, SpaceRevenuePct: 60, RevenueGrowthRate: 20},
		{Ticker: "CCC", MarketCap: 5e9, SpaceRevenuePct: 60, RevenueGrowthRate: 20},
	}

	constituents := cfg.CalculateWeights(batch)
	require.Len(t, constituents, 3)

	assert.Equal(t, "AAA", constituents[0].Ticker)
	assert.Equal(t, "BBB", constituents[1].Ticker)
	assert.Equal(t, "CCC", constituents[2].Ticker)
}

func TestCalculateWeights_DuplicateTickersProcessedIndependently(t *testing.T) {
	cfg := DefaultConfig()

	batch := append(fiveCompanyBatch(), CompanyMetrics{
		Ticker: "RKLB", Name: "Rocket Lab", MarketCap: 25.0e9, SpaceRevenuePct: 80, RevenueGrowthRate: 50,
	})

	constituents := cfg.CalculateWeights(batch)
	assert.Len(t, constituents, 6)

	totalWeight := 0.0
	for _, c := range constituents {
		totalWeight += c.Weight
	}
	assert.InDelta(t, 1.0, totalWeight, 0.001)
}

func TestCalculateWeights_SoftBoundsCanExceedMaxAfterRenormalization(t *testing.T) {
	cfg := DefaultConfig()

	// Two companies: each clamps to MaxPositionSize (0.10), then
	// renormalization scales both to 0.5, past the configured max.
	constituents := cfg.CalculateWeights([]CompanyMetrics{
		{Ticker: "AAA", MarketCap: 10e9, SpaceRevenuePct: 80, RevenueGrowthRate: 50},
		{Ticker: "BBB", MarketCap: 5e9, SpaceRevenuePct: 60, RevenueGrowthRate: 30},
	})

	require.Len(t, constituents, 2)
	for _, c := range constituents {
		assert.Greater(t, c.Weight, cfg.MaxPositionSize)
		assert.Less(t, c.Weight, 1.0)
	}

	totalWeight := constituents[0].Weight + constituents[1].Weight
	assert.InDelta(t, 1.0, totalWeight, 0.001)
}

func TestCalculateWeights_LargeBatchRespectsBoundsBeforeRenormalization(t *testing.T) {
	cfg := DefaultConfig()

	// 20 similar companies: weights land near 5% and the soft bounds
	// hold after renormalization too.
	batch := make([]CompanyMetrics, 20)
	for i := range batch {
		batch[i] = CompanyMetrics{
			Ticker:            string(rune('A'+i)) + "CO",
			MarketCap:         float64(i+1) * 1e9,
			SpaceRevenuePct:   40 + float64(i),
			RevenueGrowthRate: float64(i * 5),
		}
	}

	constituents := cfg.CalculateWeights(batch)
	require.Len(t, constituents, 20)

	totalWeight := 0.0
	for _, c := range constituents {
		totalWeight += c.Weight
		assert.Greater(t, c.Weight, 0.0)
		assert.Less(t, c.Weight, 1.0)
	}
	assert.InDelta(t, 1.0, totalWeight, 0.001)
}

func TestSummarize(t *testing.T) {
	cfg := DefaultConfig()
	constituents := cfg.CalculateWeights(fiveCompanyBatch())

	stats := Summarize(constituents)
	require.NotNil(t, stats)

	assert.Equal(t, 5, stats.NumConstituents)
	assert.InDelta(t, 1.0, stats.TotalWeight, 0.001)
	assert.Greater(t, stats.WeightedAvgMarketCap, 0.0)
	assert.Greater(t, stats.WeightedAvgSpaceRevPct, 0.0)
	assert.LessOrEqual(t, stats.WeightedAvgSpaceRevPct, 100.0)
	assert.GreaterOrEqual(t, stats.MaxWeight, stats.MinWeight)
	assert.Equal(t, constituents[0].Weight, stats.MaxWeight)
	assert.Equal(t, constituents[len(constituents)-1].Weight, stats.MinWeight)
}

func TestSummarize_Empty(t *testing.T) {
	assert.Nil(t, Summarize(nil))
	assert.Nil(t, Summarize([]Constituent{}))
}
