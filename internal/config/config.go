// Package config loads maildrain settings from the environment once at startup.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/mickamy/maildrain"
	"github.com/mickamy/maildrain/stores"
)

// ErrInvalidConfig wraps every missing or malformed setting.
var ErrInvalidConfig = errors.New("maildrain config: invalid config")

// Transport names a delivery transport.
type Transport string

const (
	TransportPostmark Transport = "postmark"
	TransportWebhook  Transport = "webhook"
	TransportSQS      Transport = "sqs"
)

// Config holds runtime settings for the drain worker.
type Config struct {
	Dialect string `env:"QUEUE_DIALECT,required"`
	DSN     string `env:"QUEUE_DSN,required,unset"`
	Table   string `env:"QUEUE_TABLE" envDefault:"mail_queue"`

	Interval          time.Duration `env:"DRAIN_INTERVAL" envDefault:"1m"`
	BatchSize         int           `env:"DRAIN_BATCH_SIZE" envDefault:"1000"`
	DeliveryTimeout   time.Duration `env:"DELIVERY_TIMEOUT" envDefault:"30s"`
	ContinueOnFailure bool          `env:"DRAIN_CONTINUE_ON_FAILURE"`

	Transport Transport `env:"DELIVERY_TRANSPORT" envDefault:"postmark"`

	PostmarkServerToken   string `env:"POSTMARK_SERVER_TOKEN,unset"`
	PostmarkAccountToken  string `env:"POSTMARK_ACCOUNT_TOKEN,unset"`
	PostmarkMessageStream string `env:"POSTMARK_MESSAGE_STREAM"`

	WebhookURL string `env:"WEBHOOK_URL"`

	SQSQueueURL        string `env:"SQS_QUEUE_URL"`
	SQSEndpoint        string `env:"SQS_ENDPOINT"`
	AWSRegion          string `env:"AWS_REGION"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID,unset"`
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY,unset"`

	LogFormat   string     `env:"LOG_FORMAT" envDefault:"json"`
	LogLevel    slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	MetricsAddr string     `env:"METRICS_ADDR"`
}

// Load reads an optional .env file, parses the process environment and validates the result.
func Load() (Config, error) {
	// The .env file is optional.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Join(ErrInvalidConfig, err)
	}
	return cfg, cfg.Validate()
}

// LoadFrom parses cfg from the given variables instead of the process environment.
func LoadFrom(vars map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return Config{}, errors.Join(ErrInvalidConfig, err)
	}
	return cfg, cfg.Validate()
}

// StoreDialect returns the parsed QUEUE_DIALECT.
func (c Config) StoreDialect() (stores.Dialect, error) {
	d, err := stores.ParseDialect(c.Dialect)
	if err != nil {
		return "", errors.Join(ErrInvalidConfig, err)
	}
	return d, nil
}

// Validate reports the first missing or malformed setting.
func (c Config) Validate() error {
	dialect, err := c.StoreDialect()
	if err != nil {
		return err
	}
	if c.DSN == "" {
		return fmt.Errorf("%w: QUEUE_DSN is required", ErrInvalidConfig)
	}
	if dialect == stores.DialectSQLite {
		if _, err := stores.SQLiteDSN(c.DSN); err != nil {
			return errors.Join(ErrInvalidConfig, err)
		}
	}
	if c.BatchSize <= 0 || c.BatchSize > maildrain.MaxBatchSize {
		return fmt.Errorf("%w: DRAIN_BATCH_SIZE must be between 1 and %d", ErrInvalidConfig, maildrain.MaxBatchSize)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("%w: DRAIN_INTERVAL must be positive", ErrInvalidConfig)
	}
	if c.DeliveryTimeout < 0 {
		return fmt.Errorf("%w: DELIVERY_TIMEOUT must not be negative", ErrInvalidConfig)
	}

	switch c.Transport {
	case TransportPostmark:
		if c.PostmarkServerToken == "" {
			return fmt.Errorf("%w: POSTMARK_SERVER_TOKEN is required for the postmark transport", ErrInvalidConfig)
		}
	case TransportWebhook:
		if c.WebhookURL == "" {
			return fmt.Errorf("%w: WEBHOOK_URL is required for the webhook transport", ErrInvalidConfig)
		}
	case TransportSQS:
		if c.SQSQueueURL == "" {
			return fmt.Errorf("%w: SQS_QUEUE_URL is required for the sqs transport", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown DELIVERY_TRANSPORT %q", ErrInvalidConfig, c.Transport)
	}

	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("%w: LOG_FORMAT must be json or text", ErrInvalidConfig)
	}
	return nil
}
