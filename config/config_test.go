package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeTempConfig creates a configuration file and returns its path.
func writeTempConfig(t *testing.T) string {
	t.Helper()
	content := `bybitflow:
  name: "TestApp"
  version: "1.0"
collect:
  pair: "ETHUSD"
  duration_seconds: 30
  trades:
    enabled: true
    limit: 100
output:
  base_dir: "/tmp/captures"
  exchange_dir: "bybit"
`
	f, err := os.CreateTemp("", "cfg-*.yml")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close temp file: %v", err)
	}
	return f.Name()
}

func TestLoadConfig(t *testing.T) {
	path := writeTempConfig(t)
	defer os.Remove(path)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Bybitflow.Name != "TestApp" {
		t.Errorf("unexpected name: %s", cfg.Bybitflow.Name)
	}
	if cfg.Collect.Pair != "ETHUSD" {
		t.Errorf("unexpected pair: %s", cfg.Collect.Pair)
	}
	if cfg.Collect.Duration() != 30*time.Second {
		t.Errorf("unexpected duration: %s", cfg.Collect.Duration())
	}
	if !cfg.Collect.Trades.Enabled || cfg.Collect.Trades.Limit != 100 {
		t.Errorf("unexpected trades config: %+v", cfg.Collect.Trades)
	}
	// Values absent from the file keep their defaults.
	if cfg.Source.BaseURL != "https://api-testnet.bybit.com/v2/public" {
		t.Errorf("unexpected base url: %s", cfg.Source.BaseURL)
	}
	if cfg.Collect.Candles.Interval != "1" {
		t.Errorf("unexpected candle interval: %s", cfg.Collect.Candles.Interval)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatalf("missing file should fall back to defaults, got: %v", err)
	}
	if cfg.Collect.Pair != "BTCUSD" {
		t.Errorf("unexpected default pair: %s", cfg.Collect.Pair)
	}
	if cfg.Output.ExchangeDir != "kraken" {
		t.Errorf("unexpected default exchange dir: %s", cfg.Output.ExchangeDir)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Collect.Ticker.Enabled = true
	if err := Validate(cfg); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}

	cfg.Collect.Pair = ""
	if err := Validate(cfg); err == nil {
		t.Error("expected error for empty pair with a collector enabled")
	}

	cfg = Default()
	cfg.Collect.DurationSeconds = 0
	if err := Validate(cfg); err == nil {
		t.Error("expected error for zero duration")
	}

	cfg = Default()
	cfg.Storage.S3.Enabled = true
	if err := Validate(cfg); err == nil {
		t.Error("expected error for enabled S3 without bucket")
	}
}

func TestOutputDir(t *testing.T) {
	cfg := Default()
	cfg.Output.BaseDir = "datasets"
	cfg.Collect.Pair = "BTCUSD"
	want := filepath.Join("datasets", "BTCUSD", "kraken")
	if got := cfg.OutputDir(); got != want {
		t.Errorf("OutputDir() = %s, want %s", got, want)
	}
}

func TestIsValidS3Bucket(t *testing.T) {
	cases := []struct {
		name  string
		valid bool
	}{
		{"valid-bucket", true},
		{"Invalid", false},
		{"ab", false},
		{"my..bucket", false},
	}
	for _, c := range cases {
		if got := isValidS3Bucket(c.name); got != c.valid {
			t.Errorf("isValidS3Bucket(%q) = %v, want %v", c.name, got, c.valid)
		}
	}
}
