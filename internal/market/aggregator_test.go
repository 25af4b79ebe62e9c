package market

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/marketsentiment/internal/models"
	"github.com/spacesedan/marketsentiment/internal/sentiment"
)

// scriptedClassifier answers by text so batch tests can pin each document's score.
type scriptedClassifier struct {
	byText map[string]models.ClassificationResult
	fail   map[string]error
	delay  time.Duration

	mu   sync.Mutex
	seen []string
}

func (s *scriptedClassifier) Classify(ctx context.Context, text string) (models.ClassificationResult, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return models.ClassificationResult{}, ctx.Err()
		}
	}

	s.mu.Lock()
	s.seen = append(s.seen, text)
	s.mu.Unlock()

	if err, ok := s.fail[text]; ok {
		return models.ClassificationResult{}, err
	}
	r, ok := s.byText[text]
	if !ok {
		return models.ClassificationResult{}, fmt.Errorf("no scripted result for %q", text)
	}
	return r, nil
}

func pos(c float64) models.ClassificationResult {
	return models.ClassificationResult{Label: models.RawLabelPositive, Confidence: c}
}

func neg(c float64) models.ClassificationResult {
	return models.ClassificationResult{Label: models.RawLabelNegative, Confidence: c}
}

func newTestAggregator(c sentiment.Classifier, concurrency int) *Aggregator {
	return NewAggregator(sentiment.NewScorerFor(c, sentiment.ScorerOptions{Name: "scripted"}), concurrency)
}

func TestAggregator_EmptyBatch(t *testing.T) {
	a := newTestAggregator(&scriptedClassifier{}, 1)

	_, err := a.AnalyzeBatch(context.Background(), nil)
	assert.ErrorIs(t, err, sentiment.ErrEmptyBatch)

	_, err = a.AnalyzeBatch(context.Background(), []models.NewsDocument{})
	assert.ErrorIs(t, err, sentiment.ErrEmptyBatch)
}

func TestAggregator_Scenarios(t *testing.T) {
	c := &scriptedClassifier{byText: map[string]models.ClassificationResult{
		"strong harvest":   pos(0.8),
		"failed harvest":   neg(0.8),
		"rain expected":    pos(0.5),
		"prices steady up": pos(0.3),
		"export ban":       neg(0.9),
		"tariff talk":      neg(0.4),
	}}

	tests := []struct {
		name      string
		texts     []string
		aggregate float64
		outlook   string
	}{
		{"opposites cancel", []string{"strong harvest", "failed harvest"}, 0.0, "neutral"},
		{"mild positives", []string{"rain expected", "prices steady up"}, 0.4, "bullish"},
		{"negatives", []string{"export ban", "tariff talk"}, -0.65, "bearish"},
		{"single document", []string{"rain expected"}, 0.5, "bullish"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs := make([]models.NewsDocument, len(tt.texts))
			for i, text := range tt.texts {
				docs[i] = models.NewsDocument{Title: fmt.Sprintf("doc-%d", i), Text: text, Date: "2024-05-01"}
			}

			report, err := newTestAggregator(c, 1).AnalyzeBatch(context.Background(), docs)
			require.NoError(t, err)
			assert.InDelta(t, tt.aggregate, report.AggregateScore, 1e-9)
			assert.Equal(t, tt.outlook, report.Outlook)
		})
	}
}

func TestAggregator_OrderMeanAndDefaults(t *testing.T) {
	c := &scriptedClassifier{byText: map[string]models.ClassificationResult{
		"a": pos(0.9),
		"b": neg(0.2),
		"c": {Label: models.RawLabelNeutral, Confidence: 0.7},
		"d": pos(0.05),
	}}
	docs := []models.NewsDocument{
		{Title: "first", Text: "a", Date: "2024-01-01"},
		{Title: "second", Text: "b"},
		{Title: "third", Text: "c", Date: "2024-01-03"},
		{Title: "fourth", Text: "d"},
	}

	report, err := newTestAggregator(c, 1).AnalyzeBatch(context.Background(), docs)
	require.NoError(t, err)
	require.Len(t, report.Individual, len(docs))

	var sum float64
	for i, d := range report.Individual {
		assert.Equal(t, docs[i].Title, d.Title)
		sum += d.Sentiment.SentimentScore
	}
	assert.InDelta(t, sum/float64(len(docs)), report.AggregateScore, 1e-12)

	assert.Equal(t, "2024-01-01", report.Individual[0].Date)
	assert.Equal(t, models.UnknownDate, report.Individual[1].Date)
	assert.Equal(t, models.UnknownDate, report.Individual[3].Date)
	assert.Equal(t, "neutral", report.Individual[3].Sentiment.Label)
	assert.Equal(t, []string{"a", "b", "c", "d"}, c.seen)
}

func TestAggregator_AbortsOnFirstFailure(t *testing.T) {
	cause := errors.New("inference server 503")
	c := &scriptedClassifier{
		byText: map[string]models.ClassificationResult{"ok": pos(0.5), "after": pos(0.5)},
		fail:   map[string]error{"boom": cause},
	}
	docs := []models.NewsDocument{
		{Title: "fine", Text: "ok"},
		{Title: "broken", Text: "boom"},
		{Title: "never", Text: "after"},
	}

	report, err := newTestAggregator(c, 1).AnalyzeBatch(context.Background(), docs)
	assert.ErrorIs(t, err, sentiment.ErrModelUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), `document 1 ("broken")`)
	assert.Empty(t, report.Individual)
	assert.Equal(t, []string{"ok", "boom"}, c.seen)
}

func TestAggregator_BlankDocumentIsInvalidInput(t *testing.T) {
	c := &scriptedClassifier{byText: map[string]models.ClassificationResult{"ok": pos(0.5)}}
	docs := []models.NewsDocument{
		{Title: "fine", Text: "ok"},
		{Title: "empty", Text: "   "},
	}

	_, err := newTestAggregator(c, 1).AnalyzeBatch(context.Background(), docs)
	assert.ErrorIs(t, err, sentiment.ErrInvalidInput)
}

func TestAggregator_ParallelMatchesSequential(t *testing.T) {
	byText := map[string]models.ClassificationResult{}
	docs := make([]models.NewsDocument, 20)
	for i := range docs {
		text := fmt.Sprintf("text-%d", i)
		if i%3 == 0 {
			byText[text] = neg(float64(i) / 40)
		} else {
			byText[text] = pos(float64(i) / 40)
		}
		docs[i] = models.NewsDocument{Title: fmt.Sprintf("title-%d", i), Text: text}
	}

	seq, err := newTestAggregator(&scriptedClassifier{byText: byText}, 1).AnalyzeBatch(context.Background(), docs)
	require.NoError(t, err)

	par, err := newTestAggregator(&scriptedClassifier{byText: byText, delay: time.Millisecond}, 4).AnalyzeBatch(context.Background(), docs)
	require.NoError(t, err)

	assert.Equal(t, seq.Individual, par.Individual)
	assert.InDelta(t, seq.AggregateScore, par.AggregateScore, 1e-12)
	assert.Equal(t, seq.Outlook, par.Outlook)
}

func TestAggregator_ParallelAbortsOnFailure(t *testing.T) {
	byText := map[string]models.ClassificationResult{}
	docs := make([]models.NewsDocument, 10)
	for i := range docs {
		text := fmt.Sprintf("text-%d", i)
		byText[text] = pos(0.5)
		docs[i] = models.NewsDocument{Title: text, Text: text}
	}
	docs[4].Text = ""

	report, err := newTestAggregator(&scriptedClassifier{byText: byText, delay: time.Millisecond}, 3).
		AnalyzeBatch(context.Background(), docs)
	assert.ErrorIs(t, err, sentiment.ErrInvalidInput)
	assert.Empty(t, report.Individual)
}

func TestAggregator_CanceledContext(t *testing.T) {
	byText := map[string]models.ClassificationResult{}
	docs := make([]models.NewsDocument, 6)
	for i := range docs {
		text := fmt.Sprintf("text-%d", i)
		byText[text] = pos(0.5)
		docs[i] = models.NewsDocument{Title: text, Text: text}
	}

	for _, concurrency := range []int{1, 3} {
		t.Run(fmt.Sprintf("concurrency=%d", concurrency), func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			_, err := newTestAggregator(&scriptedClassifier{byText: byText}, concurrency).AnalyzeBatch(ctx, docs)
			assert.ErrorIs(t, err, sentiment.ErrModelUnavailable)
			assert.ErrorIs(t, err, context.Canceled)
		})
	}
}
