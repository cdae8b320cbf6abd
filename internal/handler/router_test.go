package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/boddenberg/corp-ledger-go/internal/domain"
	"github.com/boddenberg/corp-ledger-go/internal/handler"
	"github.com/boddenberg/corp-ledger-go/internal/infra/observability"
	"github.com/boddenberg/corp-ledger-go/internal/service"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// --- Mocks ---

type mockLedgers struct {
	gotID     int64
	gotPeriod domain.Period
	err       error
	health    domain.HealthStatus
}

func (m *mockLedgers) ledger(id int64, p domain.Period, view domain.View) (*domain.LedgerReport, error) {
	m.gotID, m.gotPeriod = id, p
	if m.err != nil {
		return nil, m.err
	}
	return &domain.LedgerReport{
		ReportID: "r-1", View: view, EntityID: id, Period: p, DayCount: 31,
		Totals: domain.EntityLedger{Name: "Total", Bounty: domain.Amounts{Total: decimal.RequireFromString("1500.25")}},
	}, nil
}

func (m *mockLedgers) board(id int64, p domain.Period, view domain.View) (*domain.BillboardReport, error) {
	m.gotID, m.gotPeriod = id, p
	if m.err != nil {
		return nil, m.err
	}
	return &domain.BillboardReport{
		ReportID: "b-1", View: view, EntityID: id, Period: p, Granularity: "day",
		XY: domain.XYSeries{
			Categories: []string{"Bounty"},
			Series:     []domain.XYPoint{{Date: "2025-08-10", Values: map[string]int64{"bounty_income": 1500}}},
		},
		Chord: domain.ChordSeries{Categories: []string{}, Series: []domain.ChordEdge{}},
	}, nil
}

func (m *mockLedgers) CharacterLedger(_ context.Context, id int64, p domain.Period) (*domain.LedgerReport, error) {
	return m.ledger(id, p, domain.ViewCharacter)
}

func (m *mockLedgers) CorporationLedger(_ context.Context, id int64, p domain.Period) (*domain.LedgerReport, error) {
	return m.ledger(id, p, domain.ViewCorporation)
}

func (m *mockLedgers) AllianceLedger(_ context.Context, id int64, p domain.Period) (*domain.LedgerReport, error) {
	return m.ledger(id, p, domain.ViewAlliance)
}

func (m *mockLedgers) CharacterBillboard(_ context.Context, id int64, p domain.Period) (*domain.BillboardReport, error) {
	return m.board(id, p, domain.ViewCharacter)
}

func (m *mockLedgers) CorporationBillboard(_ context.Context, id int64, p domain.Period) (*domain.BillboardReport, error) {
	return m.board(id, p, domain.ViewCorporation)
}

func (m *mockLedgers) AllianceBillboard(_ context.Context, id int64, p domain.Period) (*domain.BillboardReport, error) {
	return m.board(id, p, domain.ViewAlliance)
}

func (m *mockLedgers) Categories() []domain.CategoryInfo {
	return []domain.CategoryInfo{{Name: "BOUNTY_PRIZES", Label: "Bounty", PvE: true, RefTypes: []string{"bounty_prizes"}}}
}

func (m *mockLedgers) Health(_ context.Context) domain.HealthStatus { return m.health }

type nopSeeder struct{ rows int }

func (s *nopSeeder) InsertJournal(_ context.Context, r []domain.TransactionRecord) error {
	s.rows += len(r)
	return nil
}
func (s *nopSeeder) InsertMining(_ context.Context, r []domain.MiningRecord) error {
	s.rows += len(r)
	return nil
}
func (s *nopSeeder) UpsertCharacters(_ context.Context, _ []domain.Character) error     { return nil }
func (s *nopSeeder) UpsertCorporations(_ context.Context, _ []domain.Corporation) error { return nil }
func (s *nopSeeder) UpsertAlliances(_ context.Context, _ []domain.Alliance) error       { return nil }

// --- Helpers ---

var fixedNow = func() time.Time { return time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC) }

func newRouter(svc handler.Ledgers, cfg handler.RouterConfig) http.Handler {
	if cfg.Now == nil {
		cfg.Now = fixedNow
	}
	return handler.NewRouter(svc, observability.NewMetrics(), zap.NewNop(), cfg)
}

func do(t *testing.T, h http.Handler, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// --- Tests ---

func TestHealthz(t *testing.T) {
	svc := &mockLedgers{health: domain.HealthStatus{Status: "healthy"}}
	rec := do(t, newRouter(svc, handler.RouterConfig{}), http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"healthy"`) {
		t.Errorf("unexpected body %s", rec.Body)
	}
}

func TestReadyz(t *testing.T) {
	svc := &mockLedgers{health: domain.HealthStatus{Status: "healthy"}}
	router := newRouter(svc, handler.RouterConfig{})
	if rec := do(t, router, http.MethodGet, "/readyz", nil); rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	svc.health.Status = "unhealthy"
	if rec := do(t, router, http.MethodGet, "/readyz", nil); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

func TestNoServiceConfigured(t *testing.T) {
	router := newRouter(nil, handler.RouterConfig{})
	if rec := do(t, router, http.MethodGet, "/healthz", nil); rec.Code != http.StatusOK {
		t.Errorf("healthz: expected 200, got %d", rec.Code)
	}
	if rec := do(t, router, http.MethodGet, "/v1/characters/1/ledger", nil); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("ledger: expected 503, got %d", rec.Code)
	}
}

func TestMetrics(t *testing.T) {
	router := newRouter(&mockLedgers{}, handler.RouterConfig{})
	do(t, router, http.MethodGet, "/v1/ledger/categories", nil)

	rec := do(t, router, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ledger_http_requests_total") {
		t.Errorf("expected request counter in exposition, got %s", rec.Body)
	}
}

func TestPing(t *testing.T) {
	rec := do(t, newRouter(&mockLedgers{}, handler.RouterConfig{}), http.MethodGet, "/ping", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestCacheMetrics(t *testing.T) {
	rec := do(t, newRouter(&mockLedgers{}, handler.RouterConfig{}), http.MethodGet, "/v1/metrics/cache", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var snap domain.CacheMetrics
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.Period != "all_time" {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}

func TestCategories(t *testing.T) {
	rec := do(t, newRouter(&mockLedgers{}, handler.RouterConfig{}), http.MethodGet, "/v1/ledger/categories", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var cats []domain.CategoryInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &cats); err != nil || len(cats) != 1 {
		t.Errorf("unexpected categories %s (%v)", rec.Body, err)
	}
}

func TestLedgerRoutes(t *testing.T) {
	cases := []struct {
		path string
		id   int64
		view domain.View
	}{
		{"/v1/characters/90000001/ledger?year=2025&month=8", 90000001, domain.ViewCharacter},
		{"/v1/corporations/98000001/ledger?year=2025&month=8", 98000001, domain.ViewCorporation},
		{"/v1/alliances/99000001/ledger?year=2025&month=8", 99000001, domain.ViewAlliance},
	}
	for _, tc := range cases {
		t.Run(string(tc.view), func(t *testing.T) {
			svc := &mockLedgers{}
			rec := do(t, newRouter(svc, handler.RouterConfig{}), http.MethodGet, tc.path, nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
			}
			if svc.gotID != tc.id || svc.gotPeriod != (domain.Period{Year: 2025, Month: 8}) {
				t.Errorf("unexpected call id=%d period=%+v", svc.gotID, svc.gotPeriod)
			}
			var report domain.LedgerReport
			if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if report.View != tc.view || !report.Totals.Bounty.Total.Equal(decimal.RequireFromString("1500.25")) {
				t.Errorf("unexpected report %+v", report)
			}
		})
	}
}

func TestBillboardRoute_FlatSeries(t *testing.T) {
	svc := &mockLedgers{}
	rec := do(t, newRouter(svc, handler.RouterConfig{}), http.MethodGet, "/v1/corporations/98000001/billboard?year=2025&month=8&day=10", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.gotPeriod.Day != 10 {
		t.Errorf("expected day 10, got %+v", svc.gotPeriod)
	}
	if !strings.Contains(rec.Body.String(), `{"bounty_income":1500,"date":"2025-08-10"}`) {
		t.Errorf("expected flattened XY point, got %s", rec.Body)
	}
}

func TestLedger_YearDefaultsToCurrent(t *testing.T) {
	svc := &mockLedgers{}
	rec := do(t, newRouter(svc, handler.RouterConfig{}), http.MethodGet, "/v1/characters/1/ledger", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.gotPeriod != (domain.Period{Year: 2026}) {
		t.Errorf("expected the current year, got %+v", svc.gotPeriod)
	}
}

func TestLedger_BadRequests(t *testing.T) {
	router := newRouter(&mockLedgers{}, handler.RouterConfig{})
	for _, path := range []string{
		"/v1/characters/abc/ledger",
		"/v1/characters/-4/ledger",
		"/v1/characters/1/ledger?year=twenty",
		"/v1/characters/1/ledger?year=2025&month=13",
		"/v1/characters/1/ledger?year=2025&day=3",
		"/v1/characters/1/billboard?year=2025&month=2&day=30",
	} {
		if rec := do(t, router, http.MethodGet, path, nil); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", path, rec.Code)
		}
	}
}

func TestLedger_ErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{&domain.ErrNotFound{Resource: "character", ID: "1"}, http.StatusNotFound},
		{&domain.ErrValidation{Field: "tax_rate", Message: "bad"}, http.StatusBadRequest},
		{&domain.ErrCircuitOpen{Service: "supabase"}, http.StatusServiceUnavailable},
		{&domain.ErrUnavailable{Resource: "sqlite"}, http.StatusServiceUnavailable},
		{&domain.ErrExternalService{Service: "supabase"}, http.StatusServiceUnavailable},
		{&domain.ErrTimeout{Operation: "journal"}, http.StatusGatewayTimeout},
		{context.Canceled, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		router := newRouter(&mockLedgers{err: tc.err}, handler.RouterConfig{})
		if rec := do(t, router, http.MethodGet, "/v1/alliances/1/billboard?year=2025", nil); rec.Code != tc.code {
			t.Errorf("%T: expected %d, got %d", tc.err, tc.code, rec.Code)
		}
	}
}

func TestDevTools_DisabledByDefault(t *testing.T) {
	router := newRouter(&mockLedgers{}, handler.RouterConfig{})
	rec := do(t, router, http.MethodPost, "/v1/dev/journal", []byte(`[]`))
	if rec.Code != http.StatusNotFound && rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected dev routes to be absent, got %d", rec.Code)
	}
}

func TestDevTools_InsertJournal(t *testing.T) {
	seeder := &nopSeeder{}
	router := newRouter(&mockLedgers{}, handler.RouterConfig{DevTools: service.NewDevToolsService(seeder, zap.NewNop())})

	body := []byte(`[{"entry_id":1,"owner_id":90000001,"date":"2025-08-10T12:00:00Z","amount":"1500.25","ref_type":"bounty_prizes","first_party_id":1000125,"second_party_id":90000001}]`)
	rec := do(t, router, http.MethodPost, "/v1/dev/journal", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body)
	}
	if seeder.rows != 1 {
		t.Errorf("expected 1 row written, got %d", seeder.rows)
	}

	if rec := do(t, router, http.MethodPost, "/v1/dev/journal", []byte(`{not json`)); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a malformed body, got %d", rec.Code)
	}
	if rec := do(t, router, http.MethodPost, "/v1/dev/mining", []byte(`[]`)); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for an empty batch, got %d", rec.Code)
	}
}

func TestDevTools_GenerateJournal(t *testing.T) {
	seeder := &nopSeeder{}
	router := newRouter(&mockLedgers{}, handler.RouterConfig{DevTools: service.NewDevToolsService(seeder, zap.NewNop())})

	rec := do(t, router, http.MethodPost, "/v1/dev/generate-journal", []byte(`{"owner_id":1,"year":2025,"month":8,"count":10,"seed":3}`))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body)
	}
	if seeder.rows != 10 {
		t.Errorf("expected 10 rows, got %d", seeder.rows)
	}
}
