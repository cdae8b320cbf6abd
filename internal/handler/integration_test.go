package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/boddenberg/corp-ledger-go/internal/domain"
	"github.com/boddenberg/corp-ledger-go/internal/handler"
	"github.com/boddenberg/corp-ledger-go/internal/infra/cache"
	"github.com/boddenberg/corp-ledger-go/internal/infra/observability"
	"github.com/boddenberg/corp-ledger-go/internal/infra/sqlite"
	"github.com/boddenberg/corp-ledger-go/internal/ledgercache"
	"github.com/boddenberg/corp-ledger-go/internal/service"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TestIntegration_FullFlow seeds a SQLite store through the dev tools routes
// and reads the corporation ledger back over HTTP.
func TestIntegration_FullFlow(t *testing.T) {
	logger := zap.NewNop()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "ledger.db"), logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	kv := cache.New[any](time.Hour)
	defer kv.Close()
	metrics := observability.NewMetrics()
	now := func() time.Time { return time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC) }

	svc := service.NewLedgerService(store, kv, service.Config{
		TaxRate:        decimal.NewFromInt(15),
		Cache:          ledgercache.Config{Enabled: true, StaleTTL: time.Hour},
		MaxConcurrency: 4,
		Now:            now,
	}, metrics, logger)
	router := handler.NewRouter(svc, metrics, logger, handler.RouterConfig{
		DevTools: service.NewDevToolsService(store, logger),
		Now:      now,
	})
	srv := httptest.NewServer(router)
	defer srv.Close()

	post := func(path string, body any) {
		t.Helper()
		raw, _ := json.Marshal(body)
		resp, err := http.Post(srv.URL+path, "application/json", bytes.NewReader(raw))
		if err != nil {
			t.Fatalf("POST %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("POST %s: expected 201, got %d", path, resp.StatusCode)
		}
	}

	post("/v1/dev/entities", domain.DevEntitiesRequest{
		Corporations: []domain.Corporation{{ID: 98000001, Name: "Alpha Corp", Ticker: "ALP"}},
		Characters: []domain.Character{
			{ID: 90000001, Name: "Main", CorporationID: 98000001},
			{ID: 90000002, Name: "Alt", CorporationID: 98000001, MainID: 90000001},
		},
	})

	day := time.Date(2025, time.August, 10, 12, 0, 0, 0, time.UTC)
	post("/v1/dev/journal", []domain.TransactionRecord{
		{EntryID: 1, OwnerID: 98000001, Date: day, Amount: decimal.NewFromInt(1000), RefType: "bounty_prizes", FirstPartyID: 1000125, SecondPartyID: 90000001},
		{EntryID: 2, OwnerID: 98000001, Date: day, Amount: decimal.NewFromInt(500), RefType: "bounty_prizes", FirstPartyID: 1000125, SecondPartyID: 90000002},
		{EntryID: 3, OwnerID: 98000001, Date: day, Amount: decimal.NewFromInt(100), RefType: "ess_escrow_transfer", FirstPartyID: 1000125, SecondPartyID: 90000002},
		{EntryID: 4, OwnerID: 98000001, Date: day, Amount: decimal.NewFromInt(-40), RefType: "brokers_fee", FirstPartyID: 98000001, SecondPartyID: 1000132},
	})

	get := func(path string, dst any) {
		t.Helper()
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("GET %s: expected 200, got %d", path, resp.StatusCode)
		}
		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}

	var report domain.LedgerReport
	get("/v1/corporations/98000001/ledger?year=2025&month=8", &report)

	if len(report.Entities) != 2 {
		t.Fatalf("expected the account and the unknown bucket, got %+v", report.Entities)
	}
	account := report.Entities[0]
	if account.ID != 90000001 || !account.Bounty.Total.Equal(decimal.NewFromInt(1500)) || !account.ESS.Total.Equal(decimal.NewFromInt(100)) {
		t.Errorf("unexpected account line %+v", account)
	}
	if !report.Entities[1].Costs.Total.Equal(decimal.NewFromInt(-40)) {
		t.Errorf("expected the broker fee in the unknown bucket, got %+v", report.Entities[1])
	}
	if !report.Totals.Total.Total.Equal(decimal.NewFromInt(1560)) {
		t.Errorf("expected total 1560, got %s", report.Totals.Total.Total)
	}

	var again domain.LedgerReport
	get("/v1/corporations/98000001/ledger?year=2025&month=8", &again)
	if again.ReportID != report.ReportID {
		t.Error("expected the second read to hit the cache")
	}

	var board domain.BillboardReport
	get("/v1/corporations/98000001/billboard?year=2025&month=8", &board)
	if board.Granularity != "day" || len(board.XY.Series) != 1 {
		t.Errorf("unexpected billboard %+v", board)
	}

	var snap domain.CacheMetrics
	get("/v1/metrics/cache", &snap)
	if snap.LedgerHits != 1 || snap.LedgerMisses != 1 || snap.BillboardMisses != 1 {
		t.Errorf("unexpected cache metrics %+v", snap)
	}
}
