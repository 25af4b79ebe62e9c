package sentiment

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spacesedan/marketsentiment/internal/models"
)

// Classifier is the three-class sentiment capability the scorer wraps.
type Classifier interface {
	Classify(ctx context.Context, text string) (models.ClassificationResult, error)
}

// Loader acquires a Classifier. It is called until it first succeeds.
type Loader func(ctx context.Context) (Classifier, error)

type ScorerOptions struct {
	// Name identifies the backend in logs.
	Name string
	// AcquireTimeout bounds a single Loader call. Zero means no limit.
	AcquireTimeout time.Duration
	// ClassifyTimeout bounds a single Classify call. Zero means no limit.
	ClassifyTimeout time.Duration
	// SerializeCalls routes every Classify call through one lock, for
	// capabilities that are not safe for concurrent use.
	SerializeCalls bool
}

// Scorer turns text into a SentimentResult. The classifier is acquired on
// first use; a failed acquisition leaves the scorer uninitialized so the
// next call tries again.
type Scorer struct {
	load Loader
	opts ScorerOptions

	// lock guards classifier. It is a channel so waiters can give up when
	// their context ends.
	lock       chan struct{}
	classifier Classifier

	callMu sync.Mutex
}

func NewScorer(load Loader, opts ScorerOptions) *Scorer {
	if opts.Name == "" {
		opts.Name = "default"
	}
	return &Scorer{load: load, opts: opts, lock: make(chan struct{}, 1)}
}

// NewScorerFor wraps an already constructed classifier.
func NewScorerFor(c Classifier, opts ScorerOptions) *Scorer {
	return NewScorer(func(context.Context) (Classifier, error) { return c, nil }, opts)
}

// EnsureReady acquires the classifier if it is not held yet.
func (s *Scorer) EnsureReady(ctx context.Context) error {
	_, err := s.acquire(ctx)
	return err
}

func (s *Scorer) acquire(ctx context.Context) (Classifier, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: acquire %s classifier: %w", ErrModelUnavailable, s.opts.Name, err)
	}
	select {
	case s.lock <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: waiting for %s classifier: %w", ErrModelUnavailable, s.opts.Name, ctx.Err())
	}
	defer func() { <-s.lock }()

	if s.classifier != nil {
		return s.classifier, nil
	}

	if s.opts.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.AcquireTimeout)
		defer cancel()
	}

	slog.Info("[SentimentScorer] Acquiring classifier", slog.String("backend", s.opts.Name))
	start := time.Now()

	c, err := s.load(ctx)
	if err != nil {
		slog.Error("[SentimentScorer] Failed to acquire classifier",
			slog.String("backend", s.opts.Name),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: acquire %s classifier: %w", ErrModelUnavailable, s.opts.Name, err)
	}
	if c == nil {
		return nil, fmt.Errorf("%w: %s loader returned no classifier", ErrModelUnavailable, s.opts.Name)
	}

	slog.Info("[SentimentScorer] Classifier ready",
		slog.String("backend", s.opts.Name),
		slog.Duration("elapsed", time.Since(start)))

	s.classifier = c
	return c, nil
}

// Analyze classifies text and normalizes the result into a signed score.
func (s *Scorer) Analyze(ctx context.Context, text string) (models.SentimentResult, error) {
	if strings.TrimSpace(text) == "" {
		return models.SentimentResult{}, fmt.Errorf("%w: text is empty", ErrInvalidInput)
	}

	c, err := s.acquire(ctx)
	if err != nil {
		return models.SentimentResult{}, err
	}

	raw, err := s.classify(ctx, c, text)
	if err != nil {
		slog.Warn("[SentimentScorer] Classification failed",
			slog.String("backend", s.opts.Name),
			slog.String("error", err.Error()))
		return models.SentimentResult{}, fmt.Errorf("%w: classify: %w", ErrModelUnavailable, err)
	}

	if err := validate(raw); err != nil {
		return models.SentimentResult{}, fmt.Errorf("%w: %s returned %w", ErrModelUnavailable, s.opts.Name, err)
	}

	return Normalize(raw), nil
}

func (s *Scorer) classify(ctx context.Context, c Classifier, text string) (models.ClassificationResult, error) {
	if s.opts.ClassifyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.ClassifyTimeout)
		defer cancel()
	}

	if s.opts.SerializeCalls {
		s.callMu.Lock()
		defer s.callMu.Unlock()
	}

	return c.Classify(ctx, text)
}

// Close releases the classifier if it holds resources and resets the scorer.
func (s *Scorer) Close() error {
	s.lock <- struct{}{}
	defer func() { <-s.lock }()

	c := s.classifier
	s.classifier = nil
	if closer, ok := c.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// SignedScore maps a classification onto [-1, 1].
func SignedScore(raw models.ClassificationResult) float64 {
	if raw.Confidence == 0 {
		return 0
	}
	switch raw.Label {
	case models.RawLabelPositive:
		return raw.Confidence
	case models.RawLabelNegative:
		return -raw.Confidence
	default:
		return 0
	}
}

// Normalize derives the score and label. The label comes from the score
// alone, so a low confidence POSITIVE or NEGATIVE collapses to neutral.
func Normalize(raw models.ClassificationResult) models.SentimentResult {
	score := SignedScore(raw)
	return models.SentimentResult{
		SentimentScore: score,
		Label:          Classify(score).Label(),
		Confidence:     raw.Confidence,
	}
}

func validate(raw models.ClassificationResult) error {
	switch raw.Label {
	case models.RawLabelPositive, models.RawLabelNegative, models.RawLabelNeutral:
	default:
		return fmt.Errorf("unknown label %q", raw.Label)
	}
	if !validConfidence(raw.Confidence) {
		return fmt.Errorf("confidence %v outside [0, 1]", raw.Confidence)
	}
	return nil
}
