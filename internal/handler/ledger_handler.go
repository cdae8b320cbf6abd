package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/boddenberg/corp-ledger-go/internal/domain"
	"github.com/boddenberg/corp-ledger-go/internal/infra/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Ledgers is the service surface behind the ledger and billboard routes.
type Ledgers interface {
	CharacterLedger(ctx context.Context, characterID int64, p domain.Period) (*domain.LedgerReport, error)
	CorporationLedger(ctx context.Context, corporationID int64, p domain.Period) (*domain.LedgerReport, error)
	AllianceLedger(ctx context.Context, allianceID int64, p domain.Period) (*domain.LedgerReport, error)
	CharacterBillboard(ctx context.Context, characterID int64, p domain.Period) (*domain.BillboardReport, error)
	CorporationBillboard(ctx context.Context, corporationID int64, p domain.Period) (*domain.BillboardReport, error)
	AllianceBillboard(ctx context.Context, allianceID int64, p domain.Period) (*domain.BillboardReport, error)
	Categories() []domain.CategoryInfo
	Health(ctx context.Context) domain.HealthStatus
}

// reportHandler serves GET /v1/<entities>/{param}/<report>?year=&month=&day=.
func reportHandler[T any](route, param string, fn func(context.Context, int64, domain.Period) (T, error), now func() time.Time, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET "+route)
		defer span.End()

		id, err := parseID(r, param)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		p, err := parsePeriod(r, now())
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.Int64("entity.id", id), attribute.String("period", p.String()))

		report, err := fn(ctx, id, p)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

func categoriesHandler(svc Ledgers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Categories())
	}
}

func cacheMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetCacheSnapshot())
	}
}

// healthzHandler always answers 200; the body carries the store status.
func healthzHandler(svc Ledgers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			writeJSON(w, http.StatusOK, domain.HealthStatus{Status: "degraded", Services: []domain.ServiceHealth{
				{Name: "ledger-api", Status: "healthy", LastChecked: time.Now().UTC().Format(time.RFC3339)},
			}})
			return
		}
		writeJSON(w, http.StatusOK, svc.Health(r.Context()))
	}
}

// readyzHandler answers 503 until the store answers.
func readyzHandler(svc Ledgers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
			return
		}
		if h := svc.Health(r.Context()); h.Status == "unhealthy" {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
