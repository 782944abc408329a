package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/futureeconomy/indices/internal/index"
	"github.com/futureeconomy/indices/internal/newsletter"
	"github.com/futureeconomy/indices/pkg/logger"
)

// RebalanceJob rebuilds the index composition quarterly and sends the
// rebalancing newsletter.
type RebalanceJob struct {
	builder    *index.Builder
	repo       *index.Repository
	convertkit *newsletter.ConvertKitClient
	logger     *logger.Logger
	indexName  string
}

// NewRebalanceJob creates the quarterly rebalance job for one index.
// The ConvertKit client is optional; without it no newsletter goes out.
func NewRebalanceJob(
	builder *index.Builder,
	repo *index.Repository,
	ck *newsletter.ConvertKitClient,
	indexName string,
	log *logger.Logger,
) *RebalanceJob {
	return &RebalanceJob{
		builder:    builder,
		repo:       repo,
		convertkit: ck,
		logger:     log,
		indexName:  indexName,
	}
}

// Name returns the job name.
func (j *RebalanceJob) Name() string {
	return "index_rebalance_" + j.indexName
}

// Schedule runs on the first day of each quarter.
func (j *RebalanceJob) Schedule() string {
	return "0 0 6 1 1,4,7,10 *"
}

// Run rebuilds the composition, diffs it against the outgoing one and
// delivers the report. Newsletter failures are logged, not fatal; the
// rebalance itself already succeeded.
func (j *RebalanceJob) Run(ctx context.Context) error {
	rebalanceDate := time.Now().UTC().Truncate(24 * time.Hour)

	previous, err := j.repo.CurrentComposition(ctx, j.indexName)
	if err != nil {
		return fmt.Errorf("load outgoing composition: %w", err)
	}

	result, err := j.builder.BuildAndSave(ctx, j.indexName, rebalanceDate)
	if err != nil {
		return fmt.Errorf("rebalance: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"index":        j.indexName,
		"constituents": len(result.Constituents),
		"date":         rebalanceDate.Format("2006-01-02"),
	}).Info("Index rebalanced")

	if j.convertkit == nil {
		return nil
	}

	if err := j.sendNewsletter(ctx, result, previous, rebalanceDate); err != nil {
		j.logger.WithError(err).Warn("Rebalance newsletter failed")
	}

	return nil
}

func (j *RebalanceJob) sendNewsletter(ctx context.Context, result *index.BuildResult, previous []index.CompositionRow, rebalanceDate time.Time) error {
	data := newsletter.ReportData{
		IndexName:     j.indexName,
		Quarter:       newsletter.QuarterOf(rebalanceDate),
		RebalanceDate: rebalanceDate,
		Changes:       diffCompositions(result, previous),
	}

	for _, con := range result.Constituents {
		data.Holdings = append(data.Holdings, newsletter.Holding{
			Ticker:          con.Ticker,
			Name:            con.Name,
			Weight:          con.Weight,
			Rank:            con.Rank,
			SpaceRevenuePct: con.SpaceRevenuePct,
		})
	}

	latest, err := j.repo.LatestPerformance(ctx, j.indexName)
	if err == nil {
		data.IndexValue = latest.Value
		data.QuarterReturn = quarterReturn(ctx, j.repo, j.indexName, latest, rebalanceDate)
	} else if !errors.Is(err, index.ErrNotFound) {
		return fmt.Errorf("load index value: %w", err)
	}

	body, err := newsletter.RenderReport(data)
	if err != nil {
		return err
	}

	_, err = j.convertkit.SendBroadcast(ctx, newsletter.Subject(data), body)
	return err
}

// diffCompositions lists tickers entering and leaving the index.
func diffCompositions(result *index.BuildResult, previous []index.CompositionRow) newsletter.Changes {
	var changes newsletter.Changes

	prevTickers := make(map[string]index.CompositionRow, len(previous))
	for _, row := range previous {
		prevTickers[row.Ticker] = row
	}
	newTickers := make(map[string]bool, len(result.Constituents))
	for _, con := range result.Constituents {
		newTickers[con.Ticker] = true
	}

	for _, con := range result.Constituents {
		if _, ok := prevTickers[con.Ticker]; !ok {
			changes.Added = append(changes.Added, newsletter.Holding{
				Ticker: con.Ticker,
				Name:   con.Name,
				Weight: con.Weight,
			})
		}
	}
	for _, row := range previous {
		if !newTickers[row.Ticker] {
			changes.Removed = append(changes.Removed, newsletter.Holding{
				Ticker: row.Ticker,
				Name:   row.CompanyName,
			})
		}
	}

	return changes
}

// quarterReturn computes the percent change over the trailing quarter,
// zero when not enough history exists.
func quarterReturn(ctx context.Context, repo *index.Repository, indexName string, latest *index.PerformancePoint, asOf time.Time) float64 {
	points, err := repo.PerformanceRange(ctx, indexName, asOf.AddDate(0, -3, 0), asOf)
	if err != nil || len(points) == 0 || points[0].Value <= 0 {
		return 0
	}
	return (latest.Value - points[0].Value) / points[0].Value * 100
}
