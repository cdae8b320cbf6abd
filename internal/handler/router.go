package handler

import (
	"net/http"
	"time"

	"github.com/boddenberg/corp-ledger-go/internal/infra/observability"
	"github.com/boddenberg/corp-ledger-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// RouterConfig carries the optional parts of the router.
type RouterConfig struct {
	// DevTools mounts /v1/dev when non-nil.
	DevTools *service.DevToolsService
	// Now is the clock used to default the year; nil means time.Now.
	Now func() time.Time
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svc Ledgers, metrics *observability.Metrics, logger *zap.Logger, cfg RouterConfig) http.Handler {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger, metrics))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svc))
	r.Get("/readyz", readyzHandler(svc))
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		r.Get("/metrics/cache", cacheMetricsHandler(metrics))

		if svc == nil {
			r.Handle("/*", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeError(w, http.StatusServiceUnavailable, "ledger service unavailable: no store configured")
			}))
			return
		}

		r.Get("/ledger/categories", categoriesHandler(svc))

		// =============================================
		// Characters (account scope, mining included)
		// =============================================
		r.Get("/characters/{characterId}/ledger",
			reportHandler("/v1/characters/{characterId}/ledger", "characterId", svc.CharacterLedger, now, logger))
		r.Get("/characters/{characterId}/billboard",
			reportHandler("/v1/characters/{characterId}/billboard", "characterId", svc.CharacterBillboard, now, logger))

		// =============================================
		// Corporations
		// =============================================
		r.Get("/corporations/{corporationId}/ledger",
			reportHandler("/v1/corporations/{corporationId}/ledger", "corporationId", svc.CorporationLedger, now, logger))
		r.Get("/corporations/{corporationId}/billboard",
			reportHandler("/v1/corporations/{corporationId}/billboard", "corporationId", svc.CorporationBillboard, now, logger))

		// =============================================
		// Alliances
		// =============================================
		r.Get("/alliances/{allianceId}/ledger",
			reportHandler("/v1/alliances/{allianceId}/ledger", "allianceId", svc.AllianceLedger, now, logger))
		r.Get("/alliances/{allianceId}/billboard",
			reportHandler("/v1/alliances/{allianceId}/billboard", "allianceId", svc.AllianceBillboard, now, logger))

		// =============================================
		// 🛠 Dev Tools (seeding helpers)
		// =============================================
		if cfg.DevTools != nil {
			r.Route("/dev", func(r chi.Router) {
				r.Post("/entities", devEntitiesHandler(cfg.DevTools, logger))
				r.Post("/journal", devJournalHandler(cfg.DevTools, logger))
				r.Post("/mining", devMiningHandler(cfg.DevTools, logger))
				r.Post("/generate-journal", devGenerateJournalHandler(cfg.DevTools, logger))
			})
		}
	})

	return r
}
