package monitoring

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/spacesedan/marketsentiment/internal/models"
)

const (
	HEALTHCHECK_INTERVAL = 15 * time.Second
	HEALTHCHECK_PROBE    = "Markets opened higher after strong earnings reports."
)

type Prober interface {
	Warmup(ctx context.Context) error
	AnalyzeText(ctx context.Context, text string) (models.SentimentResult, error)
}

type HealthReport struct {
	Backend string        `json:"backend"`
	Healthy bool          `json:"healthy"`
	Latency time.Duration `json:"latency_ns"`
	Error   string        `json:"error,omitempty"`
}

// CheckClassifier acquires the classifier and scores a fixed probe text.
func CheckClassifier(ctx context.Context, backend string, p Prober) HealthReport {
	report := HealthReport{Backend: backend}
	start := time.Now()

	err := p.Warmup(ctx)
	if err == nil {
		_, err = p.AnalyzeText(ctx, HEALTHCHECK_PROBE)
	}
	report.Latency = time.Since(start)

	if err != nil {
		report.Error = err.Error()
		return report
	}
	report.Healthy = true
	return report
}

// MonitorClassifierHealth probes every interval until ctx is done. Each
// report is stored in healthy and passed to onReport when it is set.
func MonitorClassifierHealth(ctx context.Context, backend string, p Prober, interval time.Duration, healthy *atomic.Bool, onReport func(HealthReport)) {
	if interval <= 0 {
		interval = HEALTHCHECK_INTERVAL
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report := CheckClassifier(ctx, backend, p)
			healthy.Store(report.Healthy)
			if !report.Healthy {
				slog.Warn("[HealthCheck] Classifier is unhealthy",
					slog.String("backend", backend),
					slog.String("error", report.Error))
			}
			if onReport != nil {
				onReport(report)
			}
		}
	}
}
