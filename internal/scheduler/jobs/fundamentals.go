// Package jobs holds the scheduled pipeline jobs.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/futureeconomy/indices/internal/index"
	"github.com/futureeconomy/indices/internal/ingestion/polygon"
	"github.com/futureeconomy/indices/pkg/logger"
)

// FundamentalsJob refreshes market cap, price and revenue growth for
// every tracked company.
type FundamentalsJob struct {
	repo    *index.Repository
	polygon *polygon.Client
	logger  *logger.Logger
}

// NewFundamentalsJob creates the fundamentals refresh job.
func NewFundamentalsJob(repo *index.Repository, client *polygon.Client, log *logger.Logger) *FundamentalsJob {
	return &FundamentalsJob{
		repo:    repo,
		polygon: client,
		logger:  log,
	}
}

// Name returns the job name.
func (j *FundamentalsJob) Name() string {
	return "fundamentals_refresh"
}

// Schedule runs weekday mornings before the market opens.
func (j *FundamentalsJob) Schedule() string {
	return "0 0 5 * * 1-5"
}

// Run refreshes fundamentals for all companies. Per-company fetch
// failures are skipped so one delisted ticker cannot stall the batch.
func (j *FundamentalsJob) Run(ctx context.Context) error {
	companies, err := j.repo.ListCompanies(ctx)
	if err != nil {
		return fmt.Errorf("list companies: %w", err)
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	updated := 0
	skipped := 0

	for _, company := range companies {
		fundamental, err := j.fetchFundamental(ctx, company, today)
		if err != nil {
			j.logger.WithError(err).WithField("ticker", company.Ticker).Warn("Skipping fundamentals update")
			skipped++
			continue
		}

		if err := j.repo.InsertFundamental(ctx, fundamental); err != nil {
			return fmt.Errorf("save fundamental for %s: %w", company.Ticker, err)
		}
		updated++
	}

	j.logger.WithFields(map[string]interface{}{
		"updated": updated,
		"skipped": skipped,
	}).Info("Fundamentals refreshed")

	return nil
}

func (j *FundamentalsJob) fetchFundamental(ctx context.Context, company index.Company, date time.Time) (*index.Fundamental, error) {
	fundamental := &index.Fundamental{
		CompanyID: company.ID,
		Date:      date,
	}

	details, err := j.polygon.GetTickerDetails(ctx, company.Ticker)
	if err != nil {
		return nil, fmt.Errorf("ticker details: %w", err)
	}
	fundamental.MarketCap = details.MarketCap

	financials, err := j.polygon.GetFinancials(ctx, company.Ticker, "annual", 2)
	if err != nil {
		j.logger.WithError(err).WithField("ticker", company.Ticker).Debug("No financials available")
	} else {
		if growth, ok := polygon.CalculateRevenueGrowth(financials); ok {
			fundamental.RevenueGrowthYoY = growth
		}
		if len(financials) > 0 && financials[0].Financials != nil &&
			financials[0].Financials.IncomeStatement != nil &&
			financials[0].Financials.IncomeStatement.Revenues != nil {
			fundamental.Revenue = int64(financials[0].Financials.IncomeStatement.Revenues.Value)
		}
	}

	bars, err := j.polygon.GetAggregates(ctx, company.Ticker, 1, "day", date.AddDate(0, 0, -7), date, 10)
	if err == nil && len(bars) > 0 {
		last := bars[len(bars)-1]
		fundamental.Price = last.Close
		fundamental.Volume = int64(last.Volume)
	}

	return fundamental, nil
}
