package models

import (
	"fmt"
	"strings"
)

// RawLabel is the three-class label emitted by a classifier.
type RawLabel string

const (
	RawLabelNegative RawLabel = "NEGATIVE"
	RawLabelNeutral  RawLabel = "NEUTRAL"
	RawLabelPositive RawLabel = "POSITIVE"
)

// ParseRawLabel normalizes a model label ("positive", " Positive ", "POSITIVE").
func ParseRawLabel(s string) (RawLabel, error) {
	switch RawLabel(strings.ToUpper(strings.TrimSpace(s))) {
	case RawLabelNegative:
		return RawLabelNegative, nil
	case RawLabelNeutral:
		return RawLabelNeutral, nil
	case RawLabelPositive:
		return RawLabelPositive, nil
	}
	return "", fmt.Errorf("unknown classifier label %q", s)
}

type ClassificationResult struct {
	Label      RawLabel `json:"label"`
	Confidence float64  `json:"confidence"`
}

type SentimentResult struct {
	SentimentScore float64 `json:"sentiment_score"`
	Label          string  `json:"label"`
	Confidence     float64 `json:"confidence"`
}
