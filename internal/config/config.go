package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Store backends.
const (
	BackendSQLite   = "sqlite"
	BackendSupabase = "supabase"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Store
	StoreBackend string
	DBPath       string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Observability
	OTLPEndpoint string

	// Supabase
	SupabaseURL        string
	SupabaseAnonKey    string
	SupabaseServiceKey string

	// Ledger
	CorpTaxRate     decimal.Decimal
	CacheEnabled    bool
	CacheStaleTTL   time.Duration
	ChordMaxEdges   int
	LegacyESSCutoff string // YYYY-MM
	LegacyESSRatio  decimal.Decimal

	// Dev mode
	DevTools bool // DEV_TOOLS=true exposes the journal seeding endpoints
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		StoreBackend: getEnv("STORE_BACKEND", BackendSQLite),
		DBPath:       getEnv("DB_PATH", "ledger.db"),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 50),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseAnonKey:    getEnv("SUPABASE_ANON_KEY", ""),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),

		CorpTaxRate:     getEnvDecimal("LEDGER_CORP_TAX_RATE", decimal.NewFromInt(15)),
		CacheEnabled:    getEnvBool("LEDGER_CACHE_ENABLED", true),
		CacheStaleTTL:   getEnvDuration("LEDGER_CACHE_STALE_TTL", time.Hour),
		ChordMaxEdges:   getEnvInt("LEDGER_CHORD_MAX_EDGES", 25),
		LegacyESSCutoff: getEnv("LEDGER_LEGACY_ESS_CUTOFF", "2025-06"),
		LegacyESSRatio:  getEnvDecimal("LEDGER_LEGACY_ESS_RATIO", decimal.RequireFromString("0.667")),

		DevTools: getEnvBool("DEV_TOOLS", false),
	}
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("DB_PATH is required for the sqlite backend")
		}
	case BackendSupabase:
		if c.SupabaseURL == "" {
			return fmt.Errorf("SUPABASE_URL is required for the supabase backend")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.CorpTaxRate.Sign() <= 0 || c.CorpTaxRate.GreaterThanOrEqual(decimal.NewFromInt(100)) {
		return fmt.Errorf("LEDGER_CORP_TAX_RATE must be between 0 and 100, got %s", c.CorpTaxRate)
	}
	if _, err := time.Parse("2006-01", c.LegacyESSCutoff); err != nil {
		return fmt.Errorf("LEDGER_LEGACY_ESS_CUTOFF: %w", err)
	}
	if c.LegacyESSRatio.Sign() <= 0 {
		return fmt.Errorf("LEDGER_LEGACY_ESS_RATIO must be positive, got %s", c.LegacyESSRatio)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		// bare numbers are seconds
		if s, err := strconv.Atoi(v); err == nil {
			return time.Duration(s) * time.Second
		}
	}
	return fallback
}

func getEnvDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	if v := os.Getenv(key); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			return d
		}
	}
	return fallback
}
