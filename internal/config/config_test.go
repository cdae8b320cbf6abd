package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/boddenberg/corp-ledger-go/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := config.Load()

	if cfg.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Port)
	}
	if cfg.StoreBackend != config.BackendSQLite {
		t.Errorf("expected sqlite backend, got %q", cfg.StoreBackend)
	}
	if cfg.CorpTaxRate.String() != "15" {
		t.Errorf("expected tax rate 15, got %s", cfg.CorpTaxRate)
	}
	if !cfg.CacheEnabled {
		t.Error("expected cache enabled by default")
	}
	if cfg.CacheStaleTTL != time.Hour {
		t.Errorf("expected 1h stale ttl, got %s", cfg.CacheStaleTTL)
	}
	if cfg.ChordMaxEdges != 25 {
		t.Errorf("expected 25 chord edges, got %d", cfg.ChordMaxEdges)
	}
	if cfg.LegacyESSCutoff != "2025-06" || cfg.LegacyESSRatio.String() != "0.667" {
		t.Errorf("unexpected legacy ESS settings %s / %s", cfg.LegacyESSCutoff, cfg.LegacyESSRatio)
	}
	if cfg.DevTools {
		t.Error("expected dev tools off by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("LEDGER_CORP_TAX_RATE", "10.5")
	t.Setenv("LEDGER_CACHE_ENABLED", "false")
	t.Setenv("LEDGER_CACHE_STALE_TTL", "600")
	t.Setenv("MAX_CONCURRENCY", "not-a-number")
	t.Setenv("DEV_TOOLS", "true")

	cfg := config.Load()

	if cfg.CorpTaxRate.String() != "10.5" {
		t.Errorf("expected tax rate 10.5, got %s", cfg.CorpTaxRate)
	}
	if cfg.CacheEnabled {
		t.Error("expected cache disabled")
	}
	if cfg.CacheStaleTTL != 10*time.Minute {
		t.Errorf("expected bare seconds to parse, got %s", cfg.CacheStaleTTL)
	}
	if cfg.MaxConcurrency != 50 {
		t.Errorf("expected fallback concurrency, got %d", cfg.MaxConcurrency)
	}
	if !cfg.DevTools {
		t.Error("expected dev tools on")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown backend", map[string]string{"STORE_BACKEND": "mongo"}},
		{"supabase without url", map[string]string{"STORE_BACKEND": "supabase"}},
		{"tax rate out of range", map[string]string{"LEDGER_CORP_TAX_RATE": "100"}},
		{"bad cutoff", map[string]string{"LEDGER_LEGACY_ESS_CUTOFF": "June"}},
		{"negative ratio", map[string]string{"LEDGER_LEGACY_ESS_RATIO": "-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if err := config.Load().Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# local overrides\nLEDGER_CHORD_MAX_EDGES=10\nLOG_LEVEL=\"debug\"\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("LEDGER_CHORD_MAX_EDGES", "")
	os.Unsetenv("LEDGER_CHORD_MAX_EDGES")

	if err := config.LoadDotEnv(filepath.Join(dir, "missing.env"), path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg := config.Load()
	if cfg.ChordMaxEdges != 10 {
		t.Errorf("expected value from .env, got %d", cfg.ChordMaxEdges)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("expected env to take precedence, got %q", cfg.LogLevel)
	}
}
