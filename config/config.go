package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Bybitflow BybitflowConfig `yaml:"bybitflow"`
	Source    SourceConfig    `yaml:"source"`
	Collect   CollectConfig   `yaml:"collect"`
	Output    OutputConfig    `yaml:"output"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type BybitflowConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type SourceConfig struct {
	BaseURL        string               `yaml:"base_url"`
	TimeoutMs      int                  `yaml:"timeout_ms"`
	ConnectionPool ConnectionPoolConfig `yaml:"connection_pool"`
}

type ConnectionPoolConfig struct {
	MaxIdleConns      int `yaml:"max_idle_conns"`
	MaxConnsPerHost   int `yaml:"max_conns_per_host"`
	IdleConnTimeoutMs int `yaml:"idle_conn_timeout_ms"`
}

type CollectConfig struct {
	Pair            string          `yaml:"pair"`
	DurationSeconds int             `yaml:"duration_seconds"`
	OrderBook       OrderBookConfig `yaml:"order_book"`
	Trades          TradesConfig    `yaml:"trades"`
	Candles         CandlesConfig   `yaml:"candles"`
	Ticker          TickerConfig    `yaml:"ticker"`
}

// Duration returns the collection window as a time.Duration.
func (c *CollectConfig) Duration() time.Duration {
	return time.Duration(c.DurationSeconds) * time.Second
}

// Timeout returns the per-request timeout as a time.Duration.
func (s *SourceConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutMs) * time.Millisecond
}

// IdleConnTimeout returns the pool idle timeout as a time.Duration.
func (p *ConnectionPoolConfig) IdleConnTimeout() time.Duration {
	return time.Duration(p.IdleConnTimeoutMs) * time.Millisecond
}

type OrderBookConfig struct {
	Enabled bool `yaml:"enabled"`
	// Depth is accepted for CLI compatibility; the v2 L2 book always
	// returns 25 levels per side and the endpoint takes no depth parameter.
	Depth int `yaml:"depth"`
}

type TradesConfig struct {
	Enabled bool `yaml:"enabled"`
	Limit   int  `yaml:"limit"`
}

type CandlesConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Interval string `yaml:"interval"`
	// From is the unix-seconds start of the kline window. Zero means
	// "roughly 200 intervals before now", resolved at startup.
	From int64 `yaml:"from"`
}

type TickerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Interval string `yaml:"interval"`
	From     int64  `yaml:"from"`
}

type OutputConfig struct {
	BaseDir string `yaml:"base_dir"`
	// ExchangeDir is the directory segment between the pair and the capture
	// files. Historical captures used "kraken" here even though the data is
	// Bybit's, so the segment stays configurable instead of being fixed.
	ExchangeDir string `yaml:"exchange_dir"`
}

type StorageConfig struct {
	S3 S3Config `yaml:"s3"`
}

type S3Config struct {
	Enabled         bool   `yaml:"enabled"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	Output     string `yaml:"output"`
	MaxAge     int    `yaml:"max_age"`
	CloudWatch bool   `yaml:"cloudwatch"`
	Namespace  string `yaml:"namespace"`
}

// Default returns the configuration used when no file is present. The
// values mirror the exchange's documented defaults for the v2 public
// endpoints.
func Default() *Config {
	return &Config{
		Bybitflow: BybitflowConfig{
			Name:    "bybitflow",
			Version: "1.0.0",
		},
		Source: SourceConfig{
			BaseURL:   "https://api-testnet.bybit.com/v2/public",
			TimeoutMs: 10000,
			ConnectionPool: ConnectionPoolConfig{
				MaxIdleConns:      10,
				MaxConnsPerHost:   10,
				IdleConnTimeoutMs: 90000,
			},
		},
		Collect: CollectConfig{
			Pair:            "BTCUSD",
			DurationSeconds: 5,
			OrderBook:       OrderBookConfig{Depth: 3},
			Trades:          TradesConfig{Limit: 500},
			Candles:         CandlesConfig{Interval: "1"},
			Ticker:          TickerConfig{Interval: "1"},
		},
		Output: OutputConfig{
			BaseDir:     "datasets",
			ExchangeDir: "kraken",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// LoadConfig reads the YAML configuration at path on top of the defaults.
// A missing file is not an error; the defaults are returned so the tool
// works without any configuration beyond its flags.
func LoadConfig(path string) (*Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override S3 settings from environment variables if available
	if config.Storage.S3.Enabled {
		if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
			config.Storage.S3.AccessKeyID = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
			config.Storage.S3.SecretAccessKey = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_REGION"); v != "" {
			config.Storage.S3.Region = strings.TrimSpace(v)
		}
		if v := os.Getenv("S3_BUCKET"); v != "" {
			config.Storage.S3.Bucket = strings.TrimSpace(v)
		}
	}

	config.Storage.S3.Bucket = strings.TrimSpace(config.Storage.S3.Bucket)

	return config, nil
}

// Validate checks the configuration after flag overrides have been applied.
func Validate(cfg *Config) error {
	if cfg.Bybitflow.Name == "" {
		return fmt.Errorf("bybitflow.name is required")
	}

	if cfg.Bybitflow.Version == "" {
		return fmt.Errorf("bybitflow.version is required")
	}

	if cfg.Source.BaseURL == "" {
		return fmt.Errorf("source.base_url is required")
	}

	if cfg.Collect.DurationSeconds <= 0 {
		return fmt.Errorf("collect.duration_seconds must be greater than 0")
	}

	if cfg.AnyEnabled() && cfg.Collect.Pair == "" {
		return fmt.Errorf("collect.pair is required when any collector is enabled")
	}

	if cfg.Collect.Trades.Enabled && cfg.Collect.Trades.Limit <= 0 {
		return fmt.Errorf("collect.trades.limit must be greater than 0")
	}

	if cfg.Storage.S3.Enabled {
		if cfg.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required when S3 is enabled")
		}
		if cfg.Storage.S3.Region == "" {
			return fmt.Errorf("storage.s3.region is required when S3 is enabled")
		}
		if !isValidS3Bucket(cfg.Storage.S3.Bucket) {
			return fmt.Errorf("storage.s3.bucket '%s' is invalid", cfg.Storage.S3.Bucket)
		}
	}

	return nil
}

// AnyEnabled reports whether at least one collector is switched on.
func (c *Config) AnyEnabled() bool {
	return c.Collect.OrderBook.Enabled ||
		c.Collect.Trades.Enabled ||
		c.Collect.Candles.Enabled ||
		c.Collect.Ticker.Enabled
}

// OutputDir derives the capture directory for the configured pair.
func (c *Config) OutputDir() string {
	return filepath.Join(c.Output.BaseDir, c.Collect.Pair, c.Output.ExchangeDir)
}

var s3BucketRegexp = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

func isValidS3Bucket(name string) bool {
	if len(name) < 3 || len(name) > 63 {
		return false
	}
	if strings.Contains(name, "..") || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
		return false
	}
	return s3BucketRegexp.MatchString(name)
}
