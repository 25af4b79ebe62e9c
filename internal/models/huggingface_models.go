package models

import "fmt"

type SentimentAnalysisRequest struct {
	Inputs string `json:"inputs"`
}

// LabelScore is one entry of a model's label distribution.
type LabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// SentimentAnalysisResponse is the hosted inference response: one
// distribution per input.
type SentimentAnalysisResponse [][]LabelScore

// TopClassification picks the highest scoring label. Ties keep the first seen.
func TopClassification(scores []LabelScore) (ClassificationResult, error) {
	if len(scores) == 0 {
		return ClassificationResult{}, fmt.Errorf("empty label distribution")
	}

	best := scores[0]
	for _, s := range scores[1:] {
		if s.Score > best.Score {
			best = s
		}
	}

	label, err := ParseRawLabel(best.Label)
	if err != nil {
		return ClassificationResult{}, err
	}

	return ClassificationResult{Label: label, Confidence: best.Score}, nil
}
