package clients

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"

	"github.com/spacesedan/marketsentiment/internal/models"
)

type classifier interface {
	Classify(ctx context.Context, text string) (models.ClassificationResult, error)
}

// ResultCache is implemented by ValkeyClient.
type ResultCache interface {
	Get(ctx context.Context, key string) (models.ClassificationResult, bool, error)
	Set(ctx context.Context, key string, result models.ClassificationResult) error
}

// CachedClassifier memoizes another classifier. Cache failures are logged and
// fall through to the wrapped classifier.
type CachedClassifier struct {
	inner     classifier
	cache     ResultCache
	namespace string
}

// NewCachedClassifier keys entries by namespace so two backends never share results.
func NewCachedClassifier(inner classifier, cache ResultCache, namespace string) *CachedClassifier {
	return &CachedClassifier{inner: inner, cache: cache, namespace: namespace}
}

func (c *CachedClassifier) Classify(ctx context.Context, text string) (models.ClassificationResult, error) {
	key := CacheKey(c.namespace, text)

	cached, ok, err := c.cache.Get(ctx, key)
	switch {
	case err != nil:
		slog.Warn("[CachedClassifier] Cache lookup failed",
			slog.String("key", key),
			slog.String("error", err.Error()))
	case ok:
		slog.Debug("[CachedClassifier] Cache hit", slog.String("key", key))
		return cached, nil
	}

	result, err := c.inner.Classify(ctx, text)
	if err != nil {
		return models.ClassificationResult{}, err
	}

	if err := c.cache.Set(ctx, key, result); err != nil {
		slog.Warn("[CachedClassifier] Cache write failed",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}

	return result, nil
}

// Close closes the wrapped classifier and the cache when they hold resources.
func (c *CachedClassifier) Close() error {
	var errs []error
	if closer, ok := c.inner.(io.Closer); ok {
		errs = append(errs, closer.Close())
	}
	if closer, ok := c.cache.(io.Closer); ok {
		errs = append(errs, closer.Close())
	}
	return errors.Join(errs...)
}

func CacheKey(namespace, text string) string {
	sum := sha256.Sum256([]byte(text))
	return VALKEY_SENTIMENT_PREFIX + ":" + namespace + ":" + hex.EncodeToString(sum[:])
}
