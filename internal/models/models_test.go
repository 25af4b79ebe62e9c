package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRawLabel(t *testing.T) {
	tests := []struct {
		in   string
		want RawLabel
	}{
		{"POSITIVE", RawLabelPositive},
		{"positive", RawLabelPositive},
		{" Negative ", RawLabelNegative},
		{"neutral", RawLabelNeutral},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRawLabel(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseRawLabel("LABEL_1")
	assert.Error(t, err)
}

func TestTopClassification(t *testing.T) {
	got, err := TopClassification([]LabelScore{
		{Label: "neutral", Score: 0.2},
		{Label: "positive", Score: 0.7},
		{Label: "negative", Score: 0.1},
	})
	require.NoError(t, err)
	assert.Equal(t, RawLabelPositive, got.Label)
	assert.InDelta(t, 0.7, got.Confidence, 1e-9)

	t.Run("tie keeps first", func(t *testing.T) {
		got, err := TopClassification([]LabelScore{
			{Label: "negative", Score: 0.5},
			{Label: "positive", Score: 0.5},
		})
		require.NoError(t, err)
		assert.Equal(t, RawLabelNegative, got.Label)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := TopClassification(nil)
		assert.Error(t, err)
	})

	t.Run("unknown label", func(t *testing.T) {
		_, err := TopClassification([]LabelScore{{Label: "joy", Score: 0.9}})
		assert.Error(t, err)
	})
}
