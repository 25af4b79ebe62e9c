package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/spacesedan/marketsentiment/config"
	"github.com/spacesedan/marketsentiment/internal/logging"
	"github.com/spacesedan/marketsentiment/internal/pipeline"
)

type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	backend  string
	logLevel string

	cfg *config.Config
	svc *pipeline.Service
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &app{in: in, out: out, errOut: errOut}

	cmd := &cobra.Command{
		Use:   "marketsentiment",
		Short: "Score news sentiment and aggregate it into a market outlook",
		Long: `marketsentiment scores text as positive, negative or neutral and reduces
a batch of news documents to a bullish, bearish or neutral market outlook.

Settings come from SENTIMENT_* environment variables, optionally loaded
from config/envs/.env.<APP_ENV>.`,
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}

	cmd.SetIn(in)
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	cmd.PersistentFlags().StringVar(&a.backend, "backend", "", "classifier backend (hugot, vader, remote, openai)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(a.textCmd())
	cmd.AddCommand(a.newsCmd())
	cmd.AddCommand(a.healthCmd())

	return cmd
}

func (a *app) setup(_ *cobra.Command, _ []string) error {
	config.LoadEnv(os.Getenv("APP_ENV"))

	if a.backend != "" {
		os.Setenv(config.EnvPrefix+"_BACKEND", a.backend)
	}
	if a.logLevel != "" {
		os.Setenv(config.EnvPrefix+"_LOG_LEVEL", a.logLevel)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	logging.InitLogger(a.errOut, cfg.LogLevel)
	slog.Debug("[Main] Configuration loaded",
		slog.String("backend", string(cfg.Backend)),
		slog.Int("concurrency", cfg.Concurrency),
		slog.Bool("cache", cfg.Valkey.Enabled()))

	svc, err := pipeline.New(cfg)
	if err != nil {
		return err
	}
	a.svc = svc
	return nil
}

func (a *app) teardown(_ *cobra.Command, _ []string) error {
	if a.svc == nil {
		return nil
	}
	return a.svc.Close()
}

func (a *app) writeJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
