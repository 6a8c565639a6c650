// Package config loads provider credentials and engine defaults from the
// environment, with optional .env bootstrap for local development.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"

	"github.com/imengine/imengine/logging"
)

// Config carries provider credentials and engine defaults. All fields come
// from the environment; a .env file in the working directory is merged in
// first when present.
type Config struct {
	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`

	OpenAIModel    string `env:"IMENGINE_OPENAI_MODEL" envDefault:"gpt-4o"`
	AnthropicModel string `env:"IMENGINE_ANTHROPIC_MODEL" envDefault:"claude-3-5-sonnet-20241022"`

	LogLevel  string `env:"IMENGINE_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"IMENGINE_LOG_FORMAT" envDefault:"json"`
}

// Load reads configuration from the environment. A missing .env file is not
// an error; a malformed environment value is.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// LoggerConfig maps the configured level and format onto a logging config.
func (c *Config) LoggerConfig() *logging.Config {
	lc := logging.DefaultConfig()
	lc.Format = c.LogFormat
	switch c.LogLevel {
	case "debug":
		lc.Level = logging.LogLevelDebug
	case "warn":
		lc.Level = logging.LogLevelWarn
	case "error":
		lc.Level = logging.LogLevelError
	default:
		lc.Level = logging.LogLevelInfo
	}
	return lc
}
