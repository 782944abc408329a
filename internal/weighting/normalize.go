package weighting

import "math"

const (
	// Spread below which a factor's range is considered degenerate and
	// every company receives the neutral score instead.
	degenerateSpread = 1e-4

	// Neutral score assigned when a factor cannot differentiate the batch.
	neutralScore = 50.0

	// Growth rates are clipped into this band before scaling so that
	// turnarounds and IPO-year spikes do not dominate the factor.
	growthClipMin = -50.0
	growthClipMax = 200.0
)

// normalizeMarketCap maps market capitalizations onto a 0-100 scale.
// Each positive cap is log10-transformed to dampen large-cap dominance;
// non-positive caps score 0 regardless of the computed range. The min
// of the range is taken over strictly positive log values only.
func normalizeMarketCap(marketCaps []float64) []float64 {
	if len(marketCaps) == 0 {
		return []float64{}
	}

	logCaps := make([]float64, len(marketCaps))
	for i, mc := range marketCaps {
		if mc > 0 {
			logCaps[i] = math.Log10(mc)
		}
	}

	minVal := 0.0
	haveMin := false
	maxVal := 0.0
	haveMax := false
	for _, v := range logCaps {
		if v > 0 && (!haveMin || v < minVal) {
			minVal = v
			haveMin = true
		}
		if !haveMax || v > maxVal {
			maxVal = v
			haveMax = true
		}
	}

	normalized := make([]float64, len(logCaps))
	if math.Abs(maxVal-minVal) < degenerateSpread {
		for i := range normalized {
			normalized[i] = neutralScore
		}
		return normalized
	}

	for i, v := range logCaps {
		if v > 0 {
			normalized[i] = (v - minVal) / (maxVal - minVal) * 100.0
		}
	}

	return normalized
}

// normalizeGrowth maps revenue growth rates onto a 0-100 scale. Values
// are clipped into [growthClipMin, growthClipMax] first, and the min/max
// of the scaling range are computed over the clipped values.
func normalizeGrowth(growthRates []float64) []float64 {
	if len(growthRates) == 0 {
		return []float64{}
	}

	clipped := make([]float64, len(growthRates))
	for i, rate := range growthRates {
		clipped[i] = clamp(rate, growthClipMin, growthClipMax)
	}

	minVal := clipped[0]
	maxVal := clipped[0]
	for _, v := range clipped[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}

	normalized := make([]float64, len(clipped))
	if math.Abs(maxVal-minVal) < degenerateSpread {
		for i := range normalized {
			normalized[i] = neutralScore
		}
		return normalized
	}

	for i, v := range clipped {
		normalized[i] = (v - minVal) / (maxVal - minVal) * 100.0
	}

	return normalized
}
