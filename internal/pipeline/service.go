package pipeline

import (
	"context"

	"github.com/spacesedan/marketsentiment/config"
	"github.com/spacesedan/marketsentiment/internal/market"
	"github.com/spacesedan/marketsentiment/internal/models"
	"github.com/spacesedan/marketsentiment/internal/sentiment"
)

// Service exposes single-text scoring and batch market aggregation over one
// shared scorer.
type Service struct {
	scorer     *sentiment.Scorer
	aggregator *market.Aggregator
}

func New(cfg *config.Config) (*Service, error) {
	load, err := NewLoader(cfg)
	if err != nil {
		return nil, err
	}
	return NewWithLoader(load, cfg), nil
}

// NewWithLoader uses cfg for scorer and batch settings only.
func NewWithLoader(load sentiment.Loader, cfg *config.Config) *Service {
	scorer := sentiment.NewScorer(load, sentiment.ScorerOptions{
		Name:            string(cfg.Backend),
		AcquireTimeout:  cfg.AcquireTimeout,
		ClassifyTimeout: cfg.ClassifyTimeout,
		SerializeCalls:  cfg.SerializeCalls,
	})

	return &Service{
		scorer:     scorer,
		aggregator: market.NewAggregator(scorer, cfg.Concurrency),
	}
}

// Warmup acquires the classifier ahead of the first request.
func (s *Service) Warmup(ctx context.Context) error {
	return s.scorer.EnsureReady(ctx)
}

func (s *Service) AnalyzeText(ctx context.Context, text string) (models.SentimentResult, error) {
	return s.scorer.Analyze(ctx, text)
}

func (s *Service) AnalyzeMarketNews(ctx context.Context, docs []models.NewsDocument) (models.AggregateReport, error) {
	return s.aggregator.AnalyzeBatch(ctx, docs)
}

func (s *Service) Close() error {
	return s.scorer.Close()
}
