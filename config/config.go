package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = "SENTIMENT"

// Backend names a classifier implementation.
type Backend string

const (
	BackendHugot  Backend = "hugot"
	BackendVader  Backend = "vader"
	BackendRemote Backend = "remote"
	BackendOpenAI Backend = "openai"
)

// Config is read from SENTIMENT_* variables.
type Config struct {
	Backend  Backend `envconfig:"BACKEND" default:"vader" validate:"oneof=hugot vader remote openai"`
	LogLevel string  `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	// Concurrency bounds in-flight classifications within one batch.
	Concurrency     int           `envconfig:"CONCURRENCY" default:"1" validate:"min=1,max=64"`
	AcquireTimeout  time.Duration `envconfig:"ACQUIRE_TIMEOUT" default:"10m" validate:"min=0"`
	ClassifyTimeout time.Duration `envconfig:"CLASSIFY_TIMEOUT" default:"60s" validate:"min=0"`
	SerializeCalls  bool          `envconfig:"SERIALIZE_CALLS" default:"false"`

	Hugot  HugotConfig  `envconfig:"HUGOT"`
	Remote RemoteConfig `envconfig:"REMOTE"`
	OpenAI OpenAIConfig `envconfig:"OPENAI"`
	Valkey ValkeyConfig `envconfig:"VALKEY"`
}

type HugotConfig struct {
	ModelName       string `envconfig:"MODEL_NAME" default:"ProsusAI/finbert"`
	ModelDir        string `envconfig:"MODEL_DIR" default:"./models"`
	OnnxFilename    string `envconfig:"ONNX_FILENAME"`
	OnnxLibraryPath string `envconfig:"ONNX_LIBRARY_PATH"`
}

type RemoteConfig struct {
	Endpoint          string        `envconfig:"ENDPOINT" validate:"omitempty,url"`
	Token             string        `envconfig:"TOKEN"`
	Timeout           time.Duration `envconfig:"TIMEOUT" default:"60s"`
	RequestsPerSecond float64       `envconfig:"RATE" default:"0" validate:"min=0"`
}

type OpenAIConfig struct {
	APIKey  string `envconfig:"API_KEY"`
	Model   string `envconfig:"MODEL" default:"gpt-4o-mini"`
	BaseURL string `envconfig:"BASE_URL" validate:"omitempty,url"`
}

// ValkeyConfig enables the classification cache when Address is set.
type ValkeyConfig struct {
	Address  string        `envconfig:"ADDRESS" validate:"omitempty,hostname_port"`
	Password string        `envconfig:"PASSWORD"`
	UseTLS   bool          `envconfig:"TLS" default:"false"`
	TTL      time.Duration `envconfig:"TTL" default:"24h" validate:"min=0"`
}

func (c ValkeyConfig) Enabled() bool {
	return c.Address != ""
}

// Load processes the environment and validates the result.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks field tags, then the settings each backend needs.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	switch c.Backend {
	case BackendHugot:
		if c.Hugot.ModelName == "" {
			return fmt.Errorf("hugot backend requires %s_HUGOT_MODEL_NAME", EnvPrefix)
		}
	case BackendRemote:
		if c.Remote.Endpoint == "" {
			return fmt.Errorf("remote backend requires %s_REMOTE_ENDPOINT", EnvPrefix)
		}
	case BackendOpenAI:
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("openai backend requires %s_OPENAI_API_KEY", EnvPrefix)
		}
	}

	return nil
}
