// Package weighting implements the three-factor index weighting engine:
// space revenue percentage, log-transformed market capitalization and
// revenue growth rate are normalized onto a common 0-100 scale, combined
// into a raw score and converted into a bounded, sum-to-one weight vector.
package weighting

import (
	"fmt"
	"math"
	"sort"
)

// Tolerance for the factor-weight sum check at construction time.
const weightSumTolerance = 0.001

// CompanyMetrics is one company's input snapshot for a weighting run.
// The engine copies what it needs and never mutates or retains it.
type CompanyMetrics struct {
	Ticker            string
	Name              string
	MarketCap         float64 // currency amount, zero means unknown
	SpaceRevenuePct   float64 // already on a 0-100 scale
	RevenueGrowthRate float64 // signed percent, unbounded
	Segments          string  // free-form tags, passed through
}

// Constituent is one company in the computed index composition.
type Constituent struct {
	Ticker            string  `json:"ticker"`
	Name              string  `json:"name"`
	MarketCap         float64 `json:"market_cap"`
	SpaceRevenuePct   float64 `json:"space_revenue_pct"`
	RevenueGrowthRate float64 `json:"revenue_growth_rate"`
	RawScore          float64 `json:"raw_score"`
	Weight            float64 `json:"weight"`
	Rank              int     `json:"rank"`
	Segments          string  `json:"segments,omitempty"`
}

// Config holds the engine parameters: factor weights and per-position
// bounds. Build it with NewConfig or DefaultConfig; a zero Config is
// not valid.
type Config struct {
	SpaceRevenueWeight float64
	MarketCapWeight    float64
	GrowthWeight       float64
	MaxPositionSize    float64
	MinPositionSize    float64
}

// NewConfig validates and creates a weighting configuration.
// The three factor weights must sum to 1.0 within tolerance 0.001.
func NewConfig(spaceRevenueWeight, marketCapWeight, growthWeight, maxPositionSize, minPositionSize float64) (Config, error) {
	total := spaceRevenueWeight + marketCapWeight + growthWeight
	if math.Abs(total-1.0) > weightSumTolerance {
		return Config{}, fmt.Errorf("factor weights must sum to 1.0, got %v", total)
	}

	return Config{
		SpaceRevenueWeight: spaceRevenueWeight,
		MarketCapWeight:    marketCapWeight,
		GrowthWeight:       growthWeight,
		MaxPositionSize:    maxPositionSize,
		MinPositionSize:    minPositionSize,
	}, nil
}

// DefaultConfig returns the standard 40/30/30 configuration with
// position bounds of 1%-10%.
func DefaultConfig() Config {
	return Config{
		SpaceRevenueWeight: 0.4,
		MarketCapWeight:    0.3,
		GrowthWeight:       0.3,
		MaxPositionSize:    0.10,
		MinPositionSize:    0.01,
	}
}

// CalculateWeights computes the ranked index composition for a batch of
// companies. The returned slice is sorted by weight descending with
// dense 1-based ranks; an empty batch yields an empty slice.
//
// Position bounds are applied once, before the final renormalization,
// so they are a soft constraint: renormalizing can push individual
// weights back outside [min, max]. That ordering is part of the
// contract and must not be changed.
func (c Config) CalculateWeights(companies []CompanyMetrics) []Constituent {
	if len(companies) == 0 {
		return []Constituent{}
	}

	marketCaps := make([]float64, len(companies))
	growthRates := make([]float64, len(companies))
	normSpaceRev := make([]float64, len(companies))
	for i, company := range companies {
		marketCaps[i] = company.MarketCap
		growthRates[i] = company.RevenueGrowthRate
		normSpaceRev[i] = company.SpaceRevenuePct // input contract: already 0-100
	}

	normMarketCap := normalizeMarketCap(marketCaps)
	normGrowth := normalizeGrowth(growthRates)

	rawScores := make([]float64, len(companies))
	totalScore := 0.0
	for i := range companies {
		rawScores[i] = normSpaceRev[i]*c.SpaceRevenueWeight +
			normMarketCap[i]*c.MarketCapWeight +
			normGrowth[i]*c.GrowthWeight
		totalScore += rawScores[i]
	}

	// Proportional allocation. A batch where every raw score is zero
	// falls back to equal weighting instead of dividing by zero.
	weights := make([]float64, len(companies))
	if totalScore > 0 {
		for i, score := range rawScores {
			weights[i] = score / totalScore
		}
	} else {
		equal := 1.0 / float64(len(companies))
		for i := range weights {
			weights[i] = equal
		}
	}

	// Clamp to position bounds, then renormalize to sum to 1.0
	weightSum := 0.0
	for i, w := range weights {
		weights[i] = clamp(w, c.MinPositionSize, c.MaxPositionSize)
		weightSum += weights[i]
	}
	for i := range weights {
		weights[i] /= weightSum
	}

	constituents := make([]Constituent, len(companies))
	for i, company := range companies {
		constituents[i] = Constituent{
			Ticker:            company.Ticker,
			Name:              company.Name,
			MarketCap:         company.MarketCap,
			SpaceRevenuePct:   company.SpaceRevenuePct,
			RevenueGrowthRate: company.RevenueGrowthRate,
			RawScore:          rawScores[i],
			Weight:            weights[i],
			Segments:          company.Segments,
		}
	}

	// Stable sort keeps the original batch order as the tie-break for
	// equal weights, so output is reproducible.
	sort.SliceStable(constituents, func(i, j int) bool {
		return constituents[i].Weight > constituents[j].Weight
	})

	for i := range constituents {
		constituents[i].Rank = i + 1
	}

	return constituents
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
