package configs

import (
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	t.Setenv("POX_DATA_HIRO_API_HOST", "https://hiro.example.test")
	t.Setenv("POX_DATA_HIRO_API_KEY", "test-api-key")
	t.Setenv("POX_DATA_DEFAULT_HISTORY_DAYS", "30")
	t.Setenv("POX_DATA_RETRY_MAX_ATTEMPTS", "3")
	t.Setenv("POX_DATA_RETRY_MIN_BACKOFF", "250ms")

	cfg, err := Parse()

	if err != nil {
		t.Fatal(err)
	}

	if cfg.HiroAPIHost != "https://hiro.example.test" {
		t.Errorf(`expected "HiroAPIHost" to equal "https://hiro.example.test", got "%s"`, cfg.HiroAPIHost)
	}

	if cfg.HiroAPIKey != "test-api-key" {
		t.Errorf(`expected "HiroAPIKey" to equal "test-api-key", got "%s"`, cfg.HiroAPIKey)
	}

	if cfg.DefaultHistoryDays != 30 {
		t.Errorf(`expected "DefaultHistoryDays" to equal 30, got %d`, cfg.DefaultHistoryDays)
	}

	if cfg.RetryMaxAttempts != 3 {
		t.Errorf(`expected "RetryMaxAttempts" to equal 3, got %d`, cfg.RetryMaxAttempts)
	}

	if cfg.RetryMinBackoff != 250*time.Millisecond {
		t.Errorf(`expected "RetryMinBackoff" to equal 250ms, got %s`, cfg.RetryMinBackoff)
	}
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse()

	if err != nil {
		t.Fatal(err)
	}

	if cfg.SyncMaxPages != 10000 {
		t.Errorf(`expected "SyncMaxPages" to default to 10000, got %d`, cfg.SyncMaxPages)
	}

	if cfg.RetryMaxBackoff != 8*time.Second {
		t.Errorf(`expected "RetryMaxBackoff" to default to 8s, got %s`, cfg.RetryMaxBackoff)
	}
}
