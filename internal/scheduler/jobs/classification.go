package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/futureeconomy/indices/internal/classifier"
	"github.com/futureeconomy/indices/internal/index"
	"github.com/futureeconomy/indices/internal/ingestion/polygon"
	"github.com/futureeconomy/indices/internal/universe"
	"github.com/futureeconomy/indices/pkg/logger"
)

// ClassificationJob rediscovers the candidate universe and refreshes
// each company's space-revenue classification.
type ClassificationJob struct {
	discoverer *universe.Discoverer
	classifier *classifier.Classifier
	repo       *index.Repository
	polygon    *polygon.Client
	logger     *logger.Logger
}

// NewClassificationJob creates the weekly reclassification job.
func NewClassificationJob(
	discoverer *universe.Discoverer,
	clf *classifier.Classifier,
	repo *index.Repository,
	client *polygon.Client,
	log *logger.Logger,
) *ClassificationJob {
	return &ClassificationJob{
		discoverer: discoverer,
		classifier: clf,
		repo:       repo,
		polygon:    client,
		logger:     log,
	}
}

// Name returns the job name.
func (j *ClassificationJob) Name() string {
	return "universe_classification"
}

// Schedule runs Sunday mornings, well before the weekday pipeline.
func (j *ClassificationJob) Schedule() string {
	return "0 0 3 * * 0"
}

// Run discovers candidates, classifies them and upserts the results.
func (j *ClassificationJob) Run(ctx context.Context) error {
	candidates, err := j.discoverer.Discover(ctx)
	if err != nil {
		return fmt.Errorf("discover candidates: %w", err)
	}

	saved := 0
	for _, candidate := range candidates {
		if err := j.classifyAndSave(ctx, candidate); err != nil {
			j.logger.WithError(err).WithField("ticker", candidate.Ticker).Warn("Skipping candidate")
			continue
		}
		saved++
	}

	j.logger.WithFields(map[string]interface{}{
		"candidates": len(candidates),
		"saved":      saved,
	}).Info("Universe reclassified")

	return nil
}

func (j *ClassificationJob) classifyAndSave(ctx context.Context, candidate universe.Candidate) error {
	_, err := j.classify(ctx, candidate.Ticker, candidate.Name)
	return err
}

// ClassifyTicker classifies a single ticker and saves the result.
func (j *ClassificationJob) ClassifyTicker(ctx context.Context, ticker string) (*classifier.Classification, error) {
	return j.classify(ctx, ticker, ticker)
}

func (j *ClassificationJob) classify(ctx context.Context, ticker, fallbackName string) (*classifier.Classification, error) {
	info := classifier.CompanyInfo{
		Ticker: ticker,
		Name:   fallbackName,
	}

	details, err := j.polygon.GetTickerDetails(ctx, ticker)
	if err == nil {
		info.Description = details.Description
		if details.Name != "" {
			info.Name = details.Name
		}
	}

	result, err := j.classifier.ClassifyCompany(ctx, info)
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}

	now := time.Now().UTC()
	company := &index.Company{
		Ticker:           ticker,
		Name:             info.Name,
		Description:      info.Description,
		SpaceScore:       result.SpaceRevenuePct,
		Segments:         result.Segments,
		LastClassifiedAt: &now,
	}
	if details != nil {
		company.MarketCap = details.MarketCap
	}

	if _, err := j.repo.UpsertCompany(ctx, company); err != nil {
		return nil, fmt.Errorf("save company: %w", err)
	}

	return result, nil
}
