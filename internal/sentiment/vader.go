package sentiment

import (
	"context"
	"html"
	"math"
	"regexp"
	"strings"

	"github.com/jonreiter/govader"
	"github.com/russross/blackfriday/v2"

	"github.com/spacesedan/marketsentiment/internal/models"
)

const vaderLabelThreshold = 0.20

var (
	linkPattern = regexp.MustCompile(`\[(.*?)\]\((https?:\/\/[^\s\)]+)\)`)
	urlPattern  = regexp.MustCompile(`https?://\S+|www\.\S+`)
	tagPattern  = regexp.MustCompile(`<[^>]*>`)
)

func RemoveLinks(input string) string {
	input = linkPattern.ReplaceAllString(input, "$1") // Keep only the text
	return urlPattern.ReplaceAllString(input, "")
}

// ConvertMarkdownToText renders social-post markdown and keeps only the
// visible words.
func ConvertMarkdownToText(input string) string {
	output := blackfriday.Run([]byte(RemoveLinks(input)), blackfriday.WithNoExtensions())
	plain := html.UnescapeString(tagPattern.ReplaceAllString(string(output), " "))

	return strings.Join(strings.Fields(plain), " ")
}

// VaderClassifier is an offline lexicon classifier. The compound score picks
// the label and its magnitude is the confidence.
type VaderClassifier struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

func NewVaderClassifier() *VaderClassifier {
	return &VaderClassifier{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

func (v *VaderClassifier) Classify(ctx context.Context, text string) (models.ClassificationResult, error) {
	if err := ctx.Err(); err != nil {
		return models.ClassificationResult{}, err
	}

	compound := v.analyzer.PolarityScores(ConvertMarkdownToText(text)).Compound

	switch {
	case compound >= vaderLabelThreshold:
		return models.ClassificationResult{Label: models.RawLabelPositive, Confidence: compound}, nil
	case compound <= -vaderLabelThreshold:
		return models.ClassificationResult{Label: models.RawLabelNegative, Confidence: -compound}, nil
	default:
		return models.ClassificationResult{Label: models.RawLabelNeutral, Confidence: 1 - math.Abs(compound)}, nil
	}
}
