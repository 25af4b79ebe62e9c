package clients

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"

	"github.com/spacesedan/marketsentiment/internal/models"
)

type HugotOptions struct {
	// ModelName is a Hugging Face repository with an ONNX export,
	// e.g. "ProsusAI/finbert".
	ModelName string
	ModelDir  string
	// OnnxFilename picks one file when the repository ships several.
	OnnxFilename string
	// OnnxLibraryPath points at libonnxruntime when it is not on the default
	// path. Ignored by XLA builds.
	OnnxLibraryPath string
}

type textClassificationPipeline interface {
	RunPipeline(inputs []string) (*pipelines.TextClassificationOutput, error)
}

// HugotClassifier runs a local text-classification pipeline. Pipeline runs
// are not safe for concurrent use so every call holds mu.
type HugotClassifier struct {
	mu       sync.Mutex
	pipeline textClassificationPipeline
	destroy  func() error
}

// LoadHugotClassifier downloads the model when it is not cached in ModelDir
// and starts a session for it.
func LoadHugotClassifier(ctx context.Context, opts HugotOptions) (*HugotClassifier, error) {
	if opts.ModelName == "" {
		return nil, errors.New("[HugotClassifier] model name is required")
	}

	if err := os.MkdirAll(opts.ModelDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("[HugotClassifier] failed to create model directory: %w", err)
	}

	modelPath := filepath.Join(opts.ModelDir, strings.ReplaceAll(opts.ModelName, "/", "_"))
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		slog.Info("[HugotClassifier] Model not found, downloading...",
			slog.String("model", opts.ModelName))
		start := time.Now()

		modelPath, err = hugot.DownloadModel(opts.ModelName, opts.ModelDir, hugot.NewDownloadOptions())
		if err != nil {
			return nil, fmt.Errorf("[HugotClassifier] failed to download %s: %w", opts.ModelName, err)
		}
		slog.Info("[HugotClassifier] Model downloaded successfully",
			slog.String("path", modelPath),
			slog.Duration("elapsed", time.Since(start)))
	} else {
		slog.Info("[HugotClassifier] Using existing model", slog.String("path", modelPath))
	}

	session, err := newHugotSession(opts)
	if err != nil {
		return nil, fmt.Errorf("[HugotClassifier] failed to initialize hugot session: %w", err)
	}

	config := hugot.TextClassificationConfig{
		ModelPath:    modelPath,
		Name:         "marketSentimentPipeline",
		OnnxFilename: opts.OnnxFilename,
	}
	pipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			slog.Warn("[HugotClassifier] Failed to destroy session",
				slog.String("error", destroyErr.Error()))
		}
		return nil, fmt.Errorf("[HugotClassifier] failed to initialize pipeline: %w", err)
	}

	return newHugotClassifier(pipeline, session.Destroy), nil
}

func newHugotClassifier(pipeline textClassificationPipeline, destroy func() error) *HugotClassifier {
	return &HugotClassifier{pipeline: pipeline, destroy: destroy}
}

func (h *HugotClassifier) Classify(ctx context.Context, text string) (models.ClassificationResult, error) {
	if err := ctx.Err(); err != nil {
		return models.ClassificationResult{}, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.pipeline == nil {
		return models.ClassificationResult{}, errors.New("[HugotClassifier] pipeline is closed")
	}

	output, err := h.pipeline.RunPipeline([]string{text})
	if err != nil {
		return models.ClassificationResult{}, fmt.Errorf("[HugotClassifier] pipeline run failed: %w", err)
	}
	if output == nil || len(output.ClassificationOutputs) == 0 {
		return models.ClassificationResult{}, errors.New("[HugotClassifier] unexpected output format from hugot")
	}

	first := output.ClassificationOutputs[0]
	scores := make([]models.LabelScore, 0, len(first))
	for _, o := range first {
		scores = append(scores, models.LabelScore{Label: o.Label, Score: float64(o.Score)})
	}

	return models.TopClassification(scores)
}

// Close destroys the hugot session.
func (h *HugotClassifier) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.pipeline = nil
	if h.destroy == nil {
		return nil
	}
	destroy := h.destroy
	h.destroy = nil
	return destroy()
}
