package index

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/futureeconomy/indices/internal/weighting"
	"github.com/futureeconomy/indices/pkg/logger"
)

// DefaultMinSpaceScore is the inclusion threshold: companies below it
// are considered incidental to the theme and excluded from the index.
const DefaultMinSpaceScore = 10.0

// Store is the persistence surface the builder needs.
type Store interface {
	ListEligibleCompanies(ctx context.Context, minSpaceScore float64) ([]Company, error)
	LatestFundamental(ctx context.Context, companyID int) (*Fundamental, error)
	SaveComposition(ctx context.Context, indexName string, rebalanceDate time.Time, rows []CompositionRow) error
}

// Builder assembles an index composition from the classified universe
// and persists it.
type Builder struct {
	store         Store
	cfg           weighting.Config
	minSpaceScore float64
	logger        *logger.Logger
}

// BuildResult is the outcome of one index construction run.
type BuildResult struct {
	IndexName     string                  `json:"index_name"`
	RebalanceDate time.Time               `json:"rebalance_date"`
	Constituents  []weighting.Constituent `json:"constituents"`
	Stats         *weighting.SummaryStats `json:"stats,omitempty"`
}

// NewBuilder creates a builder with the given weighting configuration.
func NewBuilder(store Store, cfg weighting.Config, log *logger.Logger) *Builder {
	return &Builder{
		store:         store,
		cfg:           cfg,
		minSpaceScore: DefaultMinSpaceScore,
		logger:        log,
	}
}

// WithMinSpaceScore overrides the inclusion threshold.
func (b *Builder) WithMinSpaceScore(min float64) *Builder {
	b.minSpaceScore = min
	return b
}

// Build computes the composition without persisting it.
func (b *Builder) Build(ctx context.Context, indexName string) (*BuildResult, error) {
	result, _, err := b.build(ctx, indexName)
	return result, err
}

func (b *Builder) build(ctx context.Context, indexName string) (*BuildResult, []Company, error) {
	companies, err := b.store.ListEligibleCompanies(ctx, b.minSpaceScore)
	if err != nil {
		return nil, nil, fmt.Errorf("load eligible companies: %w", err)
	}

	if len(companies) == 0 {
		return nil, nil, fmt.Errorf("no eligible companies for index %s (min space score %.1f)", indexName, b.minSpaceScore)
	}

	metrics := make([]weighting.CompanyMetrics, 0, len(companies))
	for _, company := range companies {
		m := weighting.CompanyMetrics{
			Ticker:          company.Ticker,
			Name:            company.Name,
			MarketCap:       float64(company.MarketCap),
			SpaceRevenuePct: company.SpaceScore,
			Segments:        strings.Join(company.Segments, ", "),
		}

		f, err := b.store.LatestFundamental(ctx, company.ID)
		switch {
		case errors.Is(err, ErrNotFound):
			b.logger.WithField("ticker", company.Ticker).Debug("No fundamentals, growth treated as flat")
		case err != nil:
			return nil, nil, fmt.Errorf("load fundamentals for %s: %w", company.Ticker, err)
		default:
			m.RevenueGrowthRate = f.RevenueGrowthYoY
			if f.MarketCap > 0 {
				m.MarketCap = float64(f.MarketCap)
			}
		}

		metrics = append(metrics, m)
	}

	constituents := b.cfg.CalculateWeights(metrics)

	b.logger.WithFields(map[string]interface{}{
		"index":        indexName,
		"constituents": len(constituents),
	}).Info("Index composition computed")

	return &BuildResult{
		IndexName:     indexName,
		RebalanceDate: time.Now().UTC().Truncate(24 * time.Hour),
		Constituents:  constituents,
		Stats:         weighting.Summarize(constituents),
	}, companies, nil
}

// BuildAndSave computes the composition and persists it for the given
// rebalance date.
func (b *Builder) BuildAndSave(ctx context.Context, indexName string, rebalanceDate time.Time) (*BuildResult, error) {
	result, companies, err := b.build(ctx, indexName)
	if err != nil {
		return nil, err
	}
	result.RebalanceDate = rebalanceDate

	byTicker := make(map[string]Company, len(companies))
	for _, c := range companies {
		byTicker[c.Ticker] = c
	}

	rows := make([]CompositionRow, 0, len(result.Constituents))
	for _, con := range result.Constituents {
		company := byTicker[con.Ticker]
		rows = append(rows, CompositionRow{
			IndexName:         indexName,
			RebalanceDate:     rebalanceDate,
			CompanyID:         company.ID,
			Ticker:            con.Ticker,
			CompanyName:       con.Name,
			Weight:            con.Weight,
			Rank:              con.Rank,
			SpaceRevenuePct:   con.SpaceRevenuePct,
			RevenueGrowthRate: con.RevenueGrowthRate,
			MarketCap:         int64(con.MarketCap),
			Segments:          company.Segments,
		})
	}

	if err := b.store.SaveComposition(ctx, indexName, rebalanceDate, rows); err != nil {
		return nil, fmt.Errorf("save composition: %w", err)
	}

	b.logger.WithFields(map[string]interface{}{
		"index": indexName,
		"date":  rebalanceDate.Format("2006-01-02"),
	}).Info("Index composition saved")

	return result, nil
}
