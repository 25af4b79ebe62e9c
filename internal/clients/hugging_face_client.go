package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/spacesedan/marketsentiment/internal/models"
)

type HuggingFaceOptions struct {
	Endpoint string
	// Token is sent as a bearer token when set.
	Token   string
	Timeout time.Duration
	// RequestsPerSecond caps outbound calls. Zero disables the limit.
	RequestsPerSecond float64
	MaxRetries        int
	InitialBackoff    time.Duration
}

// HuggingFaceClassifier calls a hosted text-classification endpoint
// (Inference API or a self-hosted space) and keeps its top label.
type HuggingFaceClassifier struct {
	Client   *http.Client
	endpoint string
	limiter  *rate.Limiter
	retries  int
	backoff  time.Duration
}

func NewHuggingFaceClassifier(opts HuggingFaceOptions) (*HuggingFaceClassifier, error) {
	if opts.Endpoint == "" {
		return nil, errors.New("[HuggingFaceClassifier] endpoint is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = MAX_RETRIES
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = INITIAL_BACKOFF
	}

	client := &http.Client{}
	if opts.Token != "" {
		client = oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: opts.Token,
			TokenType:   "Bearer",
		}))
	}
	client.Timeout = opts.Timeout

	h := &HuggingFaceClassifier{
		Client:   client,
		endpoint: opts.Endpoint,
		retries:  opts.MaxRetries,
		backoff:  opts.InitialBackoff,
	}
	if opts.RequestsPerSecond > 0 {
		h.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	slog.Info("[HuggingFaceClassifier] Initializing Client",
		slog.String("endpoint", opts.Endpoint),
		slog.Duration("timeout", opts.Timeout),
		slog.Bool("authenticated", opts.Token != ""))

	return h, nil
}

func (h *HuggingFaceClassifier) Classify(ctx context.Context, text string) (models.ClassificationResult, error) {
	start := time.Now()

	var result models.SentimentAnalysisResponse
	if err := h.postJSON(ctx, models.SentimentAnalysisRequest{Inputs: text}, &result); err != nil {
		slog.Error("[HuggingFaceClassifier] Sentiment Analysis request failed",
			slog.Duration("elapsed", time.Since(start)))
		return models.ClassificationResult{}, err
	}

	if len(result) == 0 {
		return models.ClassificationResult{}, errors.New("[HuggingFaceClassifier] empty response")
	}

	slog.Debug("[HuggingFaceClassifier] Sentiment Analysis request successful",
		slog.Duration("elapsed", time.Since(start)))

	return models.TopClassification(result[0])
}

// DoWithRetry retries transport errors, 429 and 5xx responses with
// exponential backoff. The request body is rebuilt for every attempt.
func (h *HuggingFaceClassifier) DoWithRetry(ctx context.Context, body []byte) (*http.Response, error) {
	var resp *http.Response
	var err error
	backoff := h.backoff

	for attempt := 0; attempt < h.retries; attempt++ {
		if h.limiter != nil {
			if err := h.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		req, buildErr := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
		if buildErr != nil {
			return nil, fmt.Errorf("failed to build request: %w", buildErr)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", USER_AGENT)

		resp, err = h.Client.Do(req)
		if err == nil && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		slog.Warn("[HuggingFaceClassifier] Request failed, will retry",
			slog.Int("attempt", attempt+1),
			slog.String("error", errMsg(err, resp)))

		if resp != nil {
			resp.Body.Close()
		}
		if err == nil {
			err = fmt.Errorf("status code %d", resp.StatusCode)
		}

		if attempt == h.retries-1 {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, MAX_BACKOFF)
	}

	return nil, err
}

func (h *HuggingFaceClassifier) postJSON(ctx context.Context, input any, output any) error {
	body, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("failed to marshal input: %w", err)
	}

	resp, err := h.DoWithRetry(ctx, body)
	if err != nil {
		slog.Error("[HuggingFaceClassifier] Failed request after retries",
			slog.String("endpoint", h.endpoint),
			slog.String("error", err.Error()))
		return fmt.Errorf("request failed after retries: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		slog.Error("[HuggingFaceClassifier] Unexpected status",
			slog.Int("status", resp.StatusCode),
			getPreview(respBody))
		return fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	if err := json.Unmarshal(respBody, output); err != nil {
		// Some deployments return a bare distribution instead of one per input.
		var flat []models.LabelScore
		if flatErr := json.Unmarshal(respBody, &flat); flatErr == nil {
			if out, ok := output.(*models.SentimentAnalysisResponse); ok {
				*out = models.SentimentAnalysisResponse{flat}
				return nil
			}
		}

		slog.Error("[HuggingFaceClassifier] Failed to unmarshal response",
			slog.String("endpoint", h.endpoint),
			slog.String("error", err.Error()),
			getPreview(respBody),
			slog.Int("raw_response_length", len(respBody)))

		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}

func getPreview(respBody []byte) slog.Attr {
	raw := string(respBody)
	if len(raw) > 50 {
		raw = raw[:50]
	}
	return slog.String("raw_response", raw)
}

func errMsg(err error, resp *http.Response) string {
	if err != nil {
		return err.Error()
	}
	if resp != nil {
		return fmt.Sprintf("status code %d", resp.StatusCode)
	}
	return "unknown error"
}
