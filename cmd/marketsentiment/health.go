package main

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/spacesedan/marketsentiment/internal/monitoring"
)

func (a *app) healthCmd() *cobra.Command {
	var watch time.Duration

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check that the configured classifier can be acquired and used",
		Long: `Acquire the configured classifier, score a probe text and print the result.

With --watch the check repeats at that interval until interrupted.

Examples:
  marketsentiment health
  marketsentiment --backend remote health --watch 30s`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			backend := string(a.cfg.Backend)

			report := monitoring.CheckClassifier(cmd.Context(), backend, a.svc)
			if err := a.writeJSON(report); err != nil {
				return err
			}

			if watch > 0 {
				var healthy atomic.Bool
				healthy.Store(report.Healthy)
				monitoring.MonitorClassifierHealth(cmd.Context(), backend, a.svc, watch, &healthy, func(r monitoring.HealthReport) {
					_ = a.writeJSON(r)
				})
				return nil
			}

			if !report.Healthy {
				return errors.New("classifier is unhealthy: " + report.Error)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&watch, "watch", 0, "repeat the check at this interval")

	return cmd
}
