package sentiment

import "math"

// PolarityThreshold is the magnitude a score must exceed to leave neutral.
const PolarityThreshold = 0.1

type Polarity int

const (
	Neutral Polarity = iota
	Positive
	Negative
)

// Classify buckets a signed score. Scores of exactly +-PolarityThreshold are neutral.
func Classify(score float64) Polarity {
	switch {
	case score > PolarityThreshold:
		return Positive
	case score < -PolarityThreshold:
		return Negative
	default:
		return Neutral
	}
}

// Label is the document level name of the polarity.
func (p Polarity) Label() string {
	switch p {
	case Positive:
		return "positive"
	case Negative:
		return "negative"
	default:
		return "neutral"
	}
}

// Outlook is the market level name of the polarity.
func (p Polarity) Outlook() string {
	switch p {
	case Positive:
		return "bullish"
	case Negative:
		return "bearish"
	default:
		return "neutral"
	}
}

func (p Polarity) String() string {
	return p.Label()
}

func validConfidence(c float64) bool {
	return !math.IsNaN(c) && c >= 0 && c <= 1
}
