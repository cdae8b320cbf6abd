package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boddenberg/corp-ledger-go/internal/config"
	"github.com/boddenberg/corp-ledger-go/internal/handler"
	"github.com/boddenberg/corp-ledger-go/internal/infra/cache"
	"github.com/boddenberg/corp-ledger-go/internal/infra/observability"
	"github.com/boddenberg/corp-ledger-go/internal/infra/resilience"
	"github.com/boddenberg/corp-ledger-go/internal/infra/sqlite"
	"github.com/boddenberg/corp-ledger-go/internal/infra/supabase"
	"github.com/boddenberg/corp-ledger-go/internal/ledger"
	"github.com/boddenberg/corp-ledger-go/internal/ledgercache"
	"github.com/boddenberg/corp-ledger-go/internal/port"
	"github.com/boddenberg/corp-ledger-go/internal/service"

	"go.uber.org/zap"
)

// backend is what both store adapters provide.
type backend interface {
	port.LedgerStore
	port.Seeder
}

func main() {
	// --- Load .env file (for local development) ---
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
		os.Exit(1)
	}

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}
	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("store_backend", cfg.StoreBackend),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.String("corp_tax_rate", cfg.CorpTaxRate.String()),
		zap.Bool("cache_enabled", cfg.CacheEnabled),
		zap.Duration("cache_stale_ttl", cfg.CacheStaleTTL),
		zap.Bool("dev_tools", cfg.DevTools),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "corp-ledger")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	reportCache := cache.New[any](cfg.CacheStaleTTL)
	defer reportCache.Close()

	// --- Store ---
	store, closeStore, err := openBackend(cfg, logger)
	if err != nil {
		logger.Fatal("failed to open store", zap.Error(err))
	}
	defer closeStore()

	// --- Services ---
	cutoff, err := ledger.ParseYearMonth(cfg.LegacyESSCutoff)
	if err != nil {
		logger.Fatal("invalid legacy ESS cutoff", zap.Error(err))
	}
	ledgerSvc := service.NewLedgerService(store, reportCache, service.Config{
		TaxRate:        cfg.CorpTaxRate,
		LegacyESS:      ledger.LegacyESS{Cutoff: cutoff, Ratio: cfg.LegacyESSRatio},
		ChordMaxEdges:  cfg.ChordMaxEdges,
		Cache:          ledgercache.Config{Enabled: cfg.CacheEnabled, StaleTTL: cfg.CacheStaleTTL},
		MaxConcurrency: cfg.MaxConcurrency,
	}, metrics, logger)

	routerCfg := handler.RouterConfig{}
	if cfg.DevTools {
		routerCfg.DevTools = service.NewDevToolsService(store, logger)
		logger.Warn("dev tools enabled: journal seeding endpoints are exposed")
	}

	// --- Router ---
	router := handler.NewRouter(ledgerSvc, metrics, logger, routerCfg)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

// openBackend builds the configured store. The returned func releases it.
func openBackend(cfg *config.Config, logger *zap.Logger) (backend, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendSupabase:
		logger.Info("using Supabase as journal store", zap.String("supabase_url", cfg.SupabaseURL))
		client := supabase.NewClient(
			&http.Client{Timeout: cfg.HTTPTimeout},
			cfg.SupabaseURL,
			cfg.SupabaseAnonKey,
			cfg.SupabaseServiceKey,
			resilience.NewCircuitBreaker("supabase"),
			resilience.Config{
				MaxRetries:     cfg.MaxRetries,
				InitialBackoff: cfg.InitialBackoff,
				MaxConcurrency: cfg.MaxConcurrency,
			},
			logger,
		)
		return client, func() {}, nil
	default:
		logger.Info("using SQLite as journal store", zap.String("db_path", cfg.DBPath))
		store, err := sqlite.Open(cfg.DBPath, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Warn("failed to close store", zap.Error(err))
			}
		}, nil
	}
}
