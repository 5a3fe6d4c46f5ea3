package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	DBMinConns  int32  `envconfig:"IG_DB_MIN_CONNS" default:"1"`
	DBMaxConns  int32  `envconfig:"IG_DB_MAX_CONNS" default:"8"`

	ApifyToken   string        `envconfig:"APIFY_TOKEN" required:"true"`
	ApifyBaseURL string        `envconfig:"APIFY_BASE_URL" default:"https://api.apify.com/v2"`
	ApifyTimeout time.Duration `envconfig:"APIFY_TIMEOUT" default:"5m"`

	OpenAIAPIKey  string        `envconfig:"OPENAI_API_KEY" required:"true"`
	OpenAIModel   string        `envconfig:"OPENAI_MODEL" default:"gpt-3.5-turbo"`
	OpenAITimeout time.Duration `envconfig:"OPENAI_TIMEOUT" default:"60s"`

	CommentConcurrency int `envconfig:"COMMENT_CONCURRENCY" default:"10"`
	TopicConcurrency   int `envconfig:"TOPIC_CONCURRENCY" default:"8"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if strings.TrimSpace(c.ApifyToken) == "" {
		return fmt.Errorf("APIFY_TOKEN is required")
	}
	if strings.TrimSpace(c.OpenAIAPIKey) == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	if c.DBMinConns < 0 {
		return fmt.Errorf("IG_DB_MIN_CONNS must be >= 0")
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("IG_DB_MAX_CONNS must be >= 1")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("IG_DB_MIN_CONNS (%d) cannot exceed IG_DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.CommentConcurrency < 1 {
		return fmt.Errorf("COMMENT_CONCURRENCY must be >= 1")
	}
	if c.TopicConcurrency < 1 {
		return fmt.Errorf("TOPIC_CONCURRENCY must be >= 1")
	}
	return nil
}
