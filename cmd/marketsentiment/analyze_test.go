package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/marketsentiment/internal/models"
	"github.com/spacesedan/marketsentiment/internal/sentiment"
)

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("SENTIMENT_BACKEND", "vader")
	t.Setenv("SENTIMENT_LOG_LEVEL", "error")

	var out, errOut bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin), &out, &errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTextCommand(t *testing.T) {
	out, err := runCLI(t, "", "text", "Crop", "yields", "are", "excellent", "this", "season.")
	require.NoError(t, err)

	var res models.SentimentResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "positive", res.Label)
	assert.Contains(t, out, `"sentiment_score"`)
}

func TestTextCommand_BlankText(t *testing.T) {
	_, err := runCLI(t, "", "text", "   ")
	assert.ErrorIs(t, err, sentiment.ErrInvalidInput)
}

func TestNewsCommand_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docs.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"title": "Harvest", "text": "Crop yields are excellent this season.", "date": "2024-03-01"},
		{"title": "Report", "text": "The report was published on Tuesday."}
	]`), 0o600))

	out, err := runCLI(t, "", "news", "--file", path)
	require.NoError(t, err)

	var report models.AggregateReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Individual, 2)
	assert.Equal(t, "Harvest", report.Individual[0].Title)
	assert.Equal(t, "2024-03-01", report.Individual[0].Date)
	assert.Equal(t, models.UnknownDate, report.Individual[1].Date)
	assert.InDelta(t, report.Individual[0].Sentiment.SentimentScore/2, report.AggregateScore, 1e-9)
}

func TestNewsCommand_FromStdin(t *testing.T) {
	out, err := runCLI(t, `[{"title": "Loss", "text": "The harvest was a terrible disaster."}]`, "news")
	require.NoError(t, err)

	var report models.AggregateReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "bearish", report.Outlook)
}

func TestNewsCommand_EmptyBatch(t *testing.T) {
	_, err := runCLI(t, `[]`, "news")
	assert.ErrorIs(t, err, sentiment.ErrEmptyBatch)
}

func TestNewsCommand_MalformedInput(t *testing.T) {
	_, err := runCLI(t, `{"title": "not an array"}`, "news")
	assert.Error(t, err)
}

func TestRootCommand_UnknownBackend(t *testing.T) {
	_, err := runCLI(t, "", "--backend", "bert", "text", "anything")
	assert.Error(t, err)
}

func TestHealthCommand(t *testing.T) {
	out, err := runCLI(t, "", "health")
	require.NoError(t, err)
	assert.Contains(t, out, `"healthy": true`)
	assert.Contains(t, out, `"backend": "vader"`)
}
