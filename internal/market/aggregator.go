package market

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/spacesedan/marketsentiment/internal/models"
	"github.com/spacesedan/marketsentiment/internal/sentiment"
)

// TextAnalyzer scores a single document body.
type TextAnalyzer interface {
	Analyze(ctx context.Context, text string) (models.SentimentResult, error)
}

// Aggregator scores a batch of documents and reduces them to one outlook.
type Aggregator struct {
	analyzer    TextAnalyzer
	concurrency int
}

// NewAggregator builds an aggregator. Concurrency below 2 scores documents
// one at a time.
func NewAggregator(analyzer TextAnalyzer, concurrency int) *Aggregator {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Aggregator{analyzer: analyzer, concurrency: concurrency}
}

// AnalyzeBatch scores every document in order. The first failing document
// aborts the batch.
func (a *Aggregator) AnalyzeBatch(ctx context.Context, docs []models.NewsDocument) (models.AggregateReport, error) {
	if len(docs) == 0 {
		return models.AggregateReport{}, sentiment.ErrEmptyBatch
	}

	slog.Info("[MarketAggregator] Scoring batch",
		slog.Int("documents", len(docs)),
		slog.Int("concurrency", a.concurrency))
	start := time.Now()

	individual := make([]models.DocumentSentiment, len(docs))

	var err error
	if a.concurrency == 1 {
		err = a.scoreSequential(ctx, docs, individual)
	} else {
		err = a.scoreParallel(ctx, docs, individual)
	}
	if err != nil {
		slog.Warn("[MarketAggregator] Batch aborted", slog.String("error", err.Error()))
		return models.AggregateReport{}, err
	}

	var sum float64
	for _, d := range individual {
		sum += d.Sentiment.SentimentScore
	}
	aggregate := sum / float64(len(individual))
	outlook := sentiment.Classify(aggregate).Outlook()

	slog.Info("[MarketAggregator] Batch scored",
		slog.Float64("aggregate_sentiment", aggregate),
		slog.String("market_outlook", outlook),
		slog.Duration("elapsed", time.Since(start)))

	return models.AggregateReport{
		Individual:     individual,
		AggregateScore: aggregate,
		Outlook:        outlook,
	}, nil
}

func (a *Aggregator) scoreSequential(ctx context.Context, docs []models.NewsDocument, out []models.DocumentSentiment) error {
	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			return canceled(i, doc, err)
		}
		scored, err := a.score(ctx, i, doc)
		if err != nil {
			return err
		}
		out[i] = scored
	}
	return nil
}

func (a *Aggregator) scoreParallel(ctx context.Context, docs []models.NewsDocument, out []models.DocumentSentiment) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)

	for i, doc := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return canceled(i, doc, err)
			}
			scored, err := a.score(gctx, i, doc)
			if err != nil {
				return err
			}
			out[i] = scored
			return nil
		})
	}

	return g.Wait()
}

// canceled reports a document skipped because the batch context ended. It
// matches what the scorer returns for a cancellation mid-classification.
func canceled(i int, doc models.NewsDocument, err error) error {
	return fmt.Errorf("document %d (%q): %w: %w", i, doc.Title, sentiment.ErrModelUnavailable, err)
}

func (a *Aggregator) score(ctx context.Context, i int, doc models.NewsDocument) (models.DocumentSentiment, error) {
	result, err := a.analyzer.Analyze(ctx, doc.Text)
	if err != nil {
		return models.DocumentSentiment{}, fmt.Errorf("document %d (%q): %w", i, doc.Title, err)
	}

	date := doc.Date
	if date == "" {
		date = models.UnknownDate
	}

	slog.Debug("[MarketAggregator] Document scored",
		slog.Int("index", i),
		slog.String("title", doc.Title),
		slog.Float64("sentiment_score", result.SentimentScore))

	return models.DocumentSentiment{
		Title:     doc.Title,
		Sentiment: result,
		Date:      date,
	}, nil
}
