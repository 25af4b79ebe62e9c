package config

import (
	"errors"
	"io/fs"
	"log/slog"

	"github.com/subosito/gotenv"
)

// LoadEnv loads config/envs/.env.<env> into the process environment.
// Variables already set in the environment win.
func LoadEnv(env string) {
	if env == "" {
		env = "dev"
	}
	envFile := "config/envs/.env." + env
	if err := gotenv.Load(envFile); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Debug("[Config] No .env file found, using OS environment", slog.String("file", envFile))
			return
		}
		slog.Warn("[Config] Failed to load .env file",
			slog.String("file", envFile),
			slog.String("error", err.Error()))
	}
}
