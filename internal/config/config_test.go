package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AppName != "webservice-probe" {
		t.Fatalf("unexpected app name %q", cfg.AppName)
	}
	if cfg.RequestTimeout != 0 {
		t.Fatalf("expected no request timeout by default, got %v", cfg.RequestTimeout)
	}
	if cfg.StorageType != "none" {
		t.Fatalf("expected storage disabled by default, got %q", cfg.StorageType)
	}
	if cfg.StorageTTL != 7*24*time.Hour {
		t.Fatalf("unexpected storage ttl %v", cfg.StorageTTL)
	}
	if cfg.HistoryLimit != 10 {
		t.Fatalf("unexpected history limit %d", cfg.HistoryLimit)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "5")
	t.Setenv("STORAGE_TYPE", " BBolt ")
	t.Setenv("METRICS_ADDR", " :9090 ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Fatalf("expected 5s timeout, got %v", cfg.RequestTimeout)
	}
	if cfg.StorageType != "bbolt" {
		t.Fatalf("expected normalized storage type, got %q", cfg.StorageType)
	}
	if cfg.MetricsAddr != ":9090" {
		t.Fatalf("expected trimmed metrics addr, got %q", cfg.MetricsAddr)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"REQUEST_TIMEOUT_SECONDS": "-1",
		"HISTORY_LIMIT":           "0",
		"STORAGE_TTL_SECONDS":     "0",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", key, val)
			}
		})
	}
}
