package weighting

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeMarketCap(t *testing.T) {
	normalized := normalizeMarketCap([]float64{1e9, 10e9, 100e9})

	assert.Len(t, normalized, 3)
	assert.Less(t, normalized[0], normalized[1])
	assert.Less(t, normalized[1], normalized[2])
	assert.InDelta(t, 0.0, normalized[0], 1e-9)
	assert.InDelta(t, 100.0, normalized[2], 1e-9)
}

func TestNormalizeMarketCap_Monotonic(t *testing.T) {
	caps := []float64{0.2e9, 1.8e9, 6.4e9, 19.2e9, 25.0e9}
	normalized := normalizeMarketCap(caps)

	for i := 1; i < len(caps); i++ {
		assert.LessOrEqual(t, normalized[i-1], normalized[i],
			"larger cap must not score lower")
	}
}

func TestNormalizeMarketCap_NonPositiveScoresZero(t *testing.T) {
	normalized := normalizeMarketCap([]float64{0, 5e9, -1, 50e9})

	assert.Equal(t, 0.0, normalized[0])
	assert.Equal(t, 0.0, normalized[2])
	assert.Greater(t, normalized[3], normalized[1])
}

func TestNormalizeMarketCap_DegenerateRange(t *testing.T) {
	tests := []struct {
		name string
		caps []float64
	}{
		{"all equal", []float64{10e9, 10e9, 10e9}},
		{"single company", []float64{3e9}},
		{"all non-positive", []float64{0, 0, -5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			normalized := normalizeMarketCap(tt.caps)
			assert.Len(t, normalized, len(tt.caps))
			for _, v := range normalized {
				assert.Equal(t, neutralScore, v)
			}
		})
	}
}

func TestNormalizeMarketCap_Empty(t *testing.T) {
	assert.Empty(t, normalizeMarketCap(nil))
}

func TestNormalizeGrowth(t *testing.T) {
	normalized := normalizeGrowth([]float64{-100, 0, 50, 300})

	assert.Len(t, normalized, 4)
	// -100 clips to -50 (range min), 300 clips to 200 (range max)
	assert.InDelta(t, 0.0, normalized[0], 1e-9)
	assert.InDelta(t, 100.0, normalized[3], 1e-9)
	assert.Less(t, normalized[1], normalized[2])
}

func TestNormalizeGrowth_ClipsBeforeScaling(t *testing.T) {
	// 300% and exactly 200% must receive identical scores
	normalized := normalizeGrowth([]float64{-20, 200, 300})

	assert.Equal(t, normalized[1], normalized[2])
	assert.InDelta(t, 100.0, normalized[1], 1e-9)
}

func TestNormalizeGrowth_DegenerateRange(t *testing.T) {
	tests := []struct {
		name  string
		rates []float64
	}{
		{"all equal", []float64{25, 25, 25}},
		{"single company", []float64{10}},
		{"all clipped to same bound", []float64{250, 300, 999}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			normalized := normalizeGrowth(tt.rates)
			assert.Len(t, normalized, len(tt.rates))
			for _, v := range normalized {
				assert.Equal(t, neutralScore, v)
			}
		})
	}
}

func TestNormalizeGrowth_Empty(t *testing.T) {
	assert.Empty(t, normalizeGrowth(nil))
}
