package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spacesedan/marketsentiment/config"
	"github.com/spacesedan/marketsentiment/internal/clients"
	"github.com/spacesedan/marketsentiment/internal/sentiment"
)

// NewLoader returns a loader for the configured backend. Nothing is
// constructed until the loader runs.
func NewLoader(cfg *config.Config) (sentiment.Loader, error) {
	build, err := backendFor(cfg)
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context) (sentiment.Classifier, error) {
		c, err := build(ctx)
		if err != nil {
			return nil, err
		}
		if !cfg.Valkey.Enabled() {
			return c, nil
		}
		return withCache(ctx, c, cfg), nil
	}, nil
}

func backendFor(cfg *config.Config) (sentiment.Loader, error) {
	switch cfg.Backend {
	case config.BackendVader:
		return func(context.Context) (sentiment.Classifier, error) {
			return sentiment.NewVaderClassifier(), nil
		}, nil

	case config.BackendHugot:
		opts := clients.HugotOptions{
			ModelName:       cfg.Hugot.ModelName,
			ModelDir:        cfg.Hugot.ModelDir,
			OnnxFilename:    cfg.Hugot.OnnxFilename,
			OnnxLibraryPath: cfg.Hugot.OnnxLibraryPath,
		}
		return func(ctx context.Context) (sentiment.Classifier, error) {
			return clients.LoadHugotClassifier(ctx, opts)
		}, nil

	case config.BackendRemote:
		opts := clients.HuggingFaceOptions{
			Endpoint:          cfg.Remote.Endpoint,
			Token:             cfg.Remote.Token,
			Timeout:           cfg.Remote.Timeout,
			RequestsPerSecond: cfg.Remote.RequestsPerSecond,
		}
		return func(context.Context) (sentiment.Classifier, error) {
			return clients.NewHuggingFaceClassifier(opts)
		}, nil

	case config.BackendOpenAI:
		opts := clients.OpenAIOptions{
			APIKey:     cfg.OpenAI.APIKey,
			Model:      cfg.OpenAI.Model,
			BaseURL:    cfg.OpenAI.BaseURL,
			MaxRetries: 2,
		}
		return func(context.Context) (sentiment.Classifier, error) {
			return clients.NewOpenAIClassifier(opts)
		}, nil
	}

	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

// cacheNamespace separates cached results per backend and model.
func cacheNamespace(cfg *config.Config) string {
	switch cfg.Backend {
	case config.BackendHugot:
		return string(cfg.Backend) + "/" + cfg.Hugot.ModelName
	case config.BackendRemote:
		return string(cfg.Backend) + "/" + cfg.Remote.Endpoint
	case config.BackendOpenAI:
		return string(cfg.Backend) + "/" + cfg.OpenAI.Model
	default:
		return string(cfg.Backend)
	}
}

// withCache wraps c in the valkey cache. An unreachable cache is logged and
// the classifier is used uncached.
func withCache(ctx context.Context, c sentiment.Classifier, cfg *config.Config) sentiment.Classifier {
	vc, err := clients.NewValkeyClient(ctx, clients.ValkeyOptions{
		Address:  cfg.Valkey.Address,
		Password: cfg.Valkey.Password,
		UseTLS:   cfg.Valkey.UseTLS,
		TTL:      cfg.Valkey.TTL,
	})
	if err != nil {
		slog.Warn("[Pipeline] Classification cache unavailable, continuing without it",
			slog.String("address", cfg.Valkey.Address),
			slog.String("error", err.Error()))
		return c
	}

	return clients.NewCachedClassifier(c, vc, cacheNamespace(cfg))
}
