package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"API_PORT", "LOG_LEVEL", "POSTGRES_DSN", "NATS_URL", "NATS_SUBJECT",
		"OCR_BASE_URL", "OCR_USERNAME", "OCR_PASSWORD", "OCR_TIMEOUT_SECONDS",
		"INDEXER_URL", "SWEEP_INTERVAL_SECONDS", "STALE_THRESHOLD_SECONDS",
		"API_RATE_LIMIT_RPS", "API_RATE_LIMIT_BURST", "API_MAX_IN_FLIGHT",
		"WORKER_METRICS_PORT", "CONFIG_FILE",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error = %v", err)
	}
	if cfg.APIPort != "8080" {
		t.Fatalf("expected default api port 8080, got %q", cfg.APIPort)
	}
	if cfg.NATSSubject != "documents.created" {
		t.Fatalf("expected default subject documents.created, got %q", cfg.NATSSubject)
	}
	if cfg.OCRTimeoutSeconds != 30 {
		t.Fatalf("expected default ocr timeout 30, got %d", cfg.OCRTimeoutSeconds)
	}
	if cfg.SweepIntervalSeconds != 60 || cfg.StaleThresholdSeconds != 300 {
		t.Fatalf("unexpected reconciler defaults: %d/%d", cfg.SweepIntervalSeconds, cfg.StaleThresholdSeconds)
	}
	if cfg.APIRateLimitRPS != 0 {
		t.Fatalf("rate limiter must be off by default, got %v", cfg.APIRateLimitRPS)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("API_PORT", "9000")
	t.Setenv("OCR_BASE_URL", "http://ocr.internal:8600")
	t.Setenv("OCR_TIMEOUT_SECONDS", "12")
	t.Setenv("API_RATE_LIMIT_RPS", "2.5")
	t.Setenv("STALE_THRESHOLD_SECONDS", "120")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error = %v", err)
	}
	if cfg.APIPort != "9000" {
		t.Fatalf("expected api port 9000, got %q", cfg.APIPort)
	}
	if cfg.OCRBaseURL != "http://ocr.internal:8600" {
		t.Fatalf("unexpected ocr base url %q", cfg.OCRBaseURL)
	}
	if cfg.OCRTimeoutSeconds != 12 {
		t.Fatalf("expected ocr timeout 12, got %d", cfg.OCRTimeoutSeconds)
	}
	if cfg.APIRateLimitRPS != 2.5 {
		t.Fatalf("expected rps 2.5, got %v", cfg.APIRateLimitRPS)
	}
	if cfg.StaleThresholdSeconds != 120 {
		t.Fatalf("expected stale threshold 120, got %d", cfg.StaleThresholdSeconds)
	}
}

func TestLoadInvalidNumbersFallBack(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("OCR_TIMEOUT_SECONDS", "not-a-number")
	t.Setenv("API_RATE_LIMIT_RPS", "fast")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error = %v", err)
	}
	if cfg.OCRTimeoutSeconds != 30 {
		t.Fatalf("expected fallback timeout 30, got %d", cfg.OCRTimeoutSeconds)
	}
	if cfg.APIRateLimitRPS != 0 {
		t.Fatalf("expected fallback rps 0, got %v", cfg.APIRateLimitRPS)
	}
}

func TestLoadConfigFileOverlay(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("API_PORT", "9000")
	t.Setenv("OCR_USERNAME", "env-user")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
log_level: debug
ocr:
  base_url: http://ocr.file:8600
  timeout_seconds: 7
reconciler:
  stale_threshold_seconds: 90
api:
  rate_limit_rps: 5
  max_in_flight: 64
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error = %v", err)
	}
	// File keys win over env; absent keys keep env values.
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected log level debug, got %q", cfg.LogLevel)
	}
	if cfg.OCRBaseURL != "http://ocr.file:8600" || cfg.OCRTimeoutSeconds != 7 {
		t.Fatalf("unexpected ocr overlay: %q/%d", cfg.OCRBaseURL, cfg.OCRTimeoutSeconds)
	}
	if cfg.StaleThresholdSeconds != 90 {
		t.Fatalf("expected stale threshold 90, got %d", cfg.StaleThresholdSeconds)
	}
	if cfg.APIRateLimitRPS != 5 || cfg.APIMaxInFlight != 64 {
		t.Fatalf("unexpected api overlay: %v/%d", cfg.APIRateLimitRPS, cfg.APIMaxInFlight)
	}
	if cfg.APIPort != "9000" {
		t.Fatalf("absent file key must keep env value, got %q", cfg.APIPort)
	}
	if cfg.OCRUsername != "env-user" {
		t.Fatalf("absent file key must keep env value, got %q", cfg.OCRUsername)
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
