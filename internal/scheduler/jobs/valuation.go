package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/futureeconomy/indices/internal/index"
	"github.com/futureeconomy/indices/internal/ingestion/polygon"
	"github.com/futureeconomy/indices/pkg/logger"
)

// BaseIndexValue is the level an index starts at before any history.
const BaseIndexValue = 1000.0

// ValuationJob computes the daily index value from constituent returns.
type ValuationJob struct {
	repo      *index.Repository
	polygon   *polygon.Client
	logger    *logger.Logger
	indexName string
}

// NewValuationJob creates the daily valuation job for one index.
func NewValuationJob(repo *index.Repository, client *polygon.Client, indexName string, log *logger.Logger) *ValuationJob {
	return &ValuationJob{
		repo:      repo,
		polygon:   client,
		logger:    log,
		indexName: indexName,
	}
}

// Name returns the job name.
func (j *ValuationJob) Name() string {
	return "index_valuation_" + j.indexName
}

// Schedule runs weekday evenings after the close.
func (j *ValuationJob) Schedule() string {
	return "0 30 17 * * 1-5"
}

// Run chains the weighted constituent return onto the previous index
// value. Constituents without bars contribute a flat return.
func (j *ValuationJob) Run(ctx context.Context) error {
	composition, err := j.repo.CurrentComposition(ctx, j.indexName)
	if err != nil {
		return fmt.Errorf("load composition: %w", err)
	}
	if len(composition) == 0 {
		return fmt.Errorf("no composition for index %s", j.indexName)
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)

	indexReturn := 0.0
	priced := 0
	for _, row := range composition {
		r, ok := j.dailyReturn(ctx, row.Ticker, today)
		if !ok {
			continue
		}
		indexReturn += row.Weight * r
		priced++
	}

	if priced == 0 {
		return fmt.Errorf("no constituent prices available for %s", j.indexName)
	}

	prevValue := BaseIndexValue
	prev, err := j.repo.LatestPerformance(ctx, j.indexName)
	switch {
	case errors.Is(err, index.ErrNotFound):
		// first valuation starts at the base level
	case err != nil:
		return fmt.Errorf("load previous value: %w", err)
	default:
		prevValue = prev.Value
	}

	point := &index.PerformancePoint{
		IndexName:   j.indexName,
		Date:        today,
		Value:       prevValue * (1 + indexReturn/100),
		DailyReturn: indexReturn,
	}

	if err := j.repo.InsertPerformancePoint(ctx, point); err != nil {
		return fmt.Errorf("save performance point: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"index":        j.indexName,
		"value":        point.Value,
		"daily_return": point.DailyReturn,
		"priced":       priced,
	}).Info("Index valued")

	return nil
}

// dailyReturn computes the percent change between the last two closes.
func (j *ValuationJob) dailyReturn(ctx context.Context, ticker string, asOf time.Time) (float64, bool) {
	bars, err := j.polygon.GetAggregates(ctx, ticker, 1, "day", asOf.AddDate(0, 0, -7), asOf, 10)
	if err != nil || len(bars) < 2 {
		j.logger.WithField("ticker", ticker).Debug("No return available")
		return 0, false
	}

	prev := bars[len(bars)-2].Close
	last := bars[len(bars)-1].Close
	if prev <= 0 {
		return 0, false
	}

	return (last - prev) / prev * 100, true
}
