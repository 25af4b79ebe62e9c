package sentiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		score   float64
		label   string
		outlook string
	}{
		{0.95, "positive", "bullish"},
		{0.1000001, "positive", "bullish"},
		{0.1, "neutral", "neutral"},
		{0, "neutral", "neutral"},
		{-0.1, "neutral", "neutral"},
		{-0.1000001, "negative", "bearish"},
		{-1, "negative", "bearish"},
	}

	for _, tt := range tests {
		p := Classify(tt.score)
		assert.Equal(t, tt.label, p.Label(), "score %v", tt.score)
		assert.Equal(t, tt.outlook, p.Outlook(), "score %v", tt.score)
	}
}
