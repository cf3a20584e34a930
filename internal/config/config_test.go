package config_test

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/regexflow/ledger-bfa-go/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{
		"PORT", "LOG_LEVEL", "REGEXFLOW_API_URL", "HTTP_TIMEOUT", "MAX_RETRIES",
		"INITIAL_BACKOFF", "MAX_CONCURRENCY", "CACHE_TTL", "OTEL_EXPORTER_OTLP_ENDPOINT",
		"LEDGER_TIMEZONE", "CORS_ALLOWED_ORIGINS",
	} {
		t.Setenv(k, "")
	}

	cfg := config.Load()

	if cfg.Port != 8090 {
		t.Errorf("expected port 8090, got %d", cfg.Port)
	}
	if cfg.RegexFlowAPIURL != "http://localhost:8080" {
		t.Errorf("unexpected upstream %s", cfg.RegexFlowAPIURL)
	}
	if cfg.CacheTTL != time.Minute {
		t.Errorf("expected 1m cache ttl, got %s", cfg.CacheTTL)
	}
	if cfg.OTLPEndpoint != "" {
		t.Errorf("expected tracing disabled by default, got %q", cfg.OTLPEndpoint)
	}
	if cfg.Timezone != "UTC" {
		t.Errorf("expected UTC, got %s", cfg.Timezone)
	}
	if !reflect.DeepEqual(cfg.AllowedOrigins, []string{"http://localhost:5173"}) {
		t.Errorf("unexpected origins %v", cfg.AllowedOrigins)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("REGEXFLOW_API_URL", "http://regexflow:8080/")
	t.Setenv("MAX_RETRIES", "not-a-number")
	t.Setenv("HTTP_TIMEOUT", "3s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, ,http://b.test")

	cfg := config.Load()

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.RegexFlowAPIURL != "http://regexflow:8080" {
		t.Errorf("expected trailing slash trimmed, got %s", cfg.RegexFlowAPIURL)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("expected invalid int to fall back to 3, got %d", cfg.MaxRetries)
	}
	if cfg.HTTPTimeout != 3*time.Second {
		t.Errorf("expected 3s, got %s", cfg.HTTPTimeout)
	}
	if !reflect.DeepEqual(cfg.AllowedOrigins, []string{"http://a.test", "http://b.test"}) {
		t.Errorf("unexpected origins %v", cfg.AllowedOrigins)
	}
}

func TestConfig_Location(t *testing.T) {
	cfg := &config.Config{Timezone: "UTC"}
	loc, err := cfg.Location()
	if err != nil || loc != time.UTC {
		t.Errorf("expected UTC, got %v (%v)", loc, err)
	}

	cfg.Timezone = "Mars/Olympus_Mons"
	if _, err := cfg.Location(); err == nil {
		t.Error("expected error for unknown zone")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "LEDGER_TIMEZONE=Asia/Kolkata\nPORT=7000\n# comment\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("PORT", "9100")
	t.Setenv("LEDGER_TIMEZONE", "")
	os.Unsetenv("LEDGER_TIMEZONE")

	if err := config.LoadDotEnv(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := os.Getenv("LEDGER_TIMEZONE"); got != "Asia/Kolkata" {
		t.Errorf("expected value from file, got %q", got)
	}
	if got := os.Getenv("PORT"); got != "9100" {
		t.Errorf("expected existing env to win, got %q", got)
	}
}

func TestLoadDotEnv_MissingFile(t *testing.T) {
	if err := config.LoadDotEnv(filepath.Join(t.TempDir(), "nope.env")); err != nil {
		t.Errorf("expected missing file to be ignored, got %v", err)
	}
}
